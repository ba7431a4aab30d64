package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/justestif/go-image-to-song/internal/caption"
	"github.com/justestif/go-image-to-song/internal/logging"
	"github.com/justestif/go-image-to-song/internal/mood"
	"github.com/justestif/go-image-to-song/internal/preferences"
	"github.com/justestif/go-image-to-song/internal/quiz"
	"github.com/justestif/go-image-to-song/internal/recommend"
	"github.com/justestif/go-image-to-song/internal/search"
)

const (
	defaultQuizSize   = 10
	healthTimeout     = 2 * time.Second
	multipartOverhead = 1 << 20
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	quiz          *quiz.Service
	engine        *recommend.Engine
	images        *caption.Service
	search        *search.Service
	checks        map[string]HealthCheck
	maxImageBytes int
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc Services, maxImageBytes int) *Handlers {
	engine := svc.Recommend
	if engine == nil {
		engine = recommend.New(nil)
	}
	return &Handlers{
		quiz:          svc.Quiz,
		engine:        engine,
		images:        svc.Images,
		search:        svc.Search,
		checks:        svc.Checks,
		maxImageBytes: maxImageBytes,
	}
}

// Health reports liveness and collaborator status (GET /health).
// It always answers 200; a failing collaborator marks the service degraded.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status := "healthy"
	services := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("service", name).Msg("health check failed")
			services[name] = "unavailable"
			status = "degraded"
			continue
		}
		services[name] = "ok"
	}

	respondData(w, r, "", map[string]any{
		"status":   status,
		"services": services,
	})
}

// Moods lists the mood table (GET /api/v1/moods).
func (h *Handlers) Moods(w http.ResponseWriter, r *http.Request) {
	labels := mood.Labels()
	targets := make([]mood.Target, 0, len(labels))
	for _, l := range labels {
		t, _ := mood.Resolve(string(l))
		targets = append(targets, t)
	}
	respondData(w, r, "", map[string]any{"moods": targets})
}

// QuizSongs returns a randomized quiz (GET /api/v1/quiz/songs?limit=N).
func (h *Handlers) QuizSongs(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultQuizSize)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	songs, err := h.quiz.Songs(limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondData(w, r, "Rate each song to build your music profile", map[string]any{
		"songs": songs,
		"total": len(songs),
	})
}

// SearchSongs finds songs by text (GET /api/v1/search/songs?query=Q&limit=N).
func (h *Handlers) SearchSongs(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", search.DefaultLimit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	res, err := h.search.Search(r.Context(), r.URL.Query().Get("query"), limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	msg := fmt.Sprintf("Found %d songs", len(res.Results))
	if res.Source == search.SourceLocal {
		msg += " in the local song list"
	}
	respondData(w, r, msg, res)
}

// intParam reads an optional integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &preferences.ValidationError{Field: name, Message: "must be an integer"}
	}
	return n, nil
}

type calculateRequest struct {
	UserID  string        `json:"user_id" validate:"omitempty,max=128"`
	Ratings []quiz.Rating `json:"song_ratings" validate:"required,min=1,dive"`
}

// CalculatePreferences turns quiz ratings into a profile
// (POST /api/v1/quiz/calculate-preferences).
func (h *Handlers) CalculatePreferences(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	res, err := h.quiz.Calculate(r.Context(), req.UserID, req.Ratings)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondData(w, r, "Preferences calculated", res)
}

// Profile returns a stored profile (GET /api/v1/profiles/{userID}).
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.quiz.Profile(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondData(w, r, "", p)
}

type recommendRequest struct {
	Mood    string               `json:"mood" validate:"max=64"` // empty or unknown resolves to neutral
	Caption string               `json:"caption"`
	UserID  string               `json:"user_id"`
	Profile *preferences.Profile `json:"user_profile"`
}

// Recommendations builds recommendations for a mood (POST /api/v1/recommendations).
func (h *Handlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	profile, err := h.profileFor(r.Context(), req.UserID, req.Profile)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	res := h.engine.Recommend(r.Context(), recommend.Request{
		Mood:    req.Mood,
		Caption: req.Caption,
		Profile: profile,
	})
	respondData(w, r, recommendMessage(res), res)
}

// AnalyzeImage captions an uploaded image (POST /api/v1/images/analyze).
func (h *Handlers) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.readImage(w, r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	res, err := h.images.Analyze(r.Context(), img)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondData(w, r, "Image analyzed", res)
}

// AnalyzeAndRecommend captions an image and recommends music for its mood
// (POST /api/v1/analyze-and-recommend). Optional form fields user_id and
// user_profile (JSON) personalize the result.
func (h *Handlers) AnalyzeAndRecommend(w http.ResponseWriter, r *http.Request) {
	img, err := h.readImage(w, r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	var inline *preferences.Profile
	if raw := strings.TrimSpace(r.FormValue("user_profile")); raw != "" {
		inline = &preferences.Profile{}
		if err := json.Unmarshal([]byte(raw), inline); err != nil {
			h.handleError(w, r, &preferences.ValidationError{Field: "user_profile", Message: "invalid JSON"})
			return
		}
	}
	profile, err := h.profileFor(r.Context(), r.FormValue("user_id"), inline)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	analysis, err := h.images.Analyze(r.Context(), img)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	res := h.engine.Recommend(r.Context(), recommend.Request{
		Mood:    string(analysis.Mood),
		Caption: analysis.Caption,
		Profile: profile,
	})
	respondData(w, r, recommendMessage(res), map[string]any{
		"image_analysis":  analysis,
		"recommendations": res,
	})
}

// profileFor returns the inline profile if given, otherwise the stored
// profile for userID. A missing or unreachable stored profile means an
// anonymous request.
func (h *Handlers) profileFor(ctx context.Context, userID string, inline *preferences.Profile) (*preferences.Profile, error) {
	if inline != nil {
		if err := inline.Validate(); err != nil {
			return nil, err
		}
		return inline, nil
	}
	if userID == "" || h.quiz == nil {
		return nil, nil
	}

	p, err := h.quiz.Profile(ctx, userID)
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, quiz.ErrProfileNotFound), errors.Is(err, quiz.ErrNoStore):
		logging.Ctx(ctx).Debug().Str("user_id", userID).Msg("no stored profile, recommending anonymously")
	default:
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("loading profile failed, recommending anonymously")
	}
	return nil, nil
}

// readImage reads the "file" part of a multipart upload.
func (h *Handlers) readImage(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.maxImageBytes+multipartOverhead))
	if err := r.ParseMultipartForm(int64(h.maxImageBytes + multipartOverhead)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, caption.ErrImageTooLarge
		}
		return nil, &preferences.ValidationError{Field: "file", Message: "expected a multipart form with an image file"}
	}

	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, &preferences.ValidationError{Field: "file", Message: "is required"}
	}
	defer f.Close()

	img, err := io.ReadAll(f)
	if err != nil {
		return nil, &preferences.ValidationError{Field: "file", Message: "could not read upload"}
	}
	return img, nil
}

func (h *Handlers) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case preferences.IsValidation(err):
		respondError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, caption.ErrImageTooLarge):
		respondError(w, r, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, caption.ErrInvalidImage):
		respondError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, quiz.ErrProfileNotFound):
		respondError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, quiz.ErrNoStore):
		respondError(w, r, http.StatusServiceUnavailable, err.Error())
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respondError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func recommendMessage(res *recommend.Result) string {
	switch {
	case res.Fallback:
		return "Showing curated picks for this mood"
	case res.Personalized:
		return "Personalized recommendations ready"
	default:
		return "Recommendations ready"
	}
}
