package caption

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/justestif/go-image-to-song/internal/logging"
	"github.com/justestif/go-image-to-song/internal/metrics"
	"github.com/justestif/go-image-to-song/internal/mood"
)

// supportedTypes are the accepted upload content types, as sniffed from the bytes.
var supportedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// DefaultCaptionTimeout bounds one captioning step, retries included.
const DefaultCaptionTimeout = 20 * time.Second

// Service analyzes uploaded images.
type Service struct {
	captioner Captioner
	cache     Cache
	maxBytes  int
	timeout   time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithCaptioner enables remote captioning.
func WithCaptioner(c Captioner) Option {
	return func(s *Service) {
		s.captioner = c
	}
}

// WithCache enables result caching.
func WithCache(c Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithCaptionTimeout bounds how long the captioner may take per image.
// When it expires the result falls back to color analysis.
func WithCaptionTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxBytes overrides MaxImageBytes.
func WithMaxBytes(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// NewService creates an image analysis service. With no options it uses
// color analysis only.
func NewService(opts ...Option) *Service {
	s := &Service{maxBytes: MaxImageBytes, timeout: DefaultCaptionTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks size and sniffed type and returns the content type.
func (s *Service) Validate(img []byte) (string, error) {
	if len(img) == 0 {
		return "", fmt.Errorf("%w: empty upload", ErrInvalidImage)
	}
	if len(img) > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrImageTooLarge, len(img), s.maxBytes)
	}
	ct := http.DetectContentType(img)
	if !supportedTypes[ct] {
		return "", fmt.Errorf("%w: unsupported type %s", ErrInvalidImage, ct)
	}
	return ct, nil
}

// Analyze captions an image and assigns it a mood. Only invalid input
// produces an error; collaborator failures degrade to color analysis and
// then to a neutral result.
func (s *Service) Analyze(ctx context.Context, img []byte) (*Result, error) {
	ct, err := s.Validate(img)
	if err != nil {
		return nil, err
	}

	log := logging.Ctx(ctx)
	key := ImageKey(img)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("caption cache read failed")
		} else if cached != nil {
			cached.Cached = true
			metrics.Captions.WithLabelValues("cache").Inc()
			return cached, nil
		}
	}

	colors, colorErr := AnalyzeColors(img)
	if colorErr != nil {
		log.Debug().Err(colorErr).Str("content_type", ct).Msg("color analysis unavailable")
	}

	res := s.describe(ctx, img, ct, colors)
	metrics.Captions.WithLabelValues(string(res.Method)).Inc()

	log.Info().
		Str("mood", string(res.Mood)).
		Str("method", string(res.Method)).
		Float64("confidence", res.Confidence).
		Msg("image analyzed")

	// Neutral results are not cached so a recovered model gets another try.
	if s.cache != nil && res.Method != MethodNeutral {
		if err := s.cache.Set(ctx, key, res); err != nil {
			log.Warn().Err(err).Msg("caption cache write failed")
		}
	}
	return res, nil
}

func (s *Service) describe(ctx context.Context, img []byte, ct string, colors *ColorAnalysis) *Result {
	if s.captioner != nil {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		text, err := s.captioner.Caption(cctx, img, ct)
		cancel()
		if err == nil {
			return fromCaption(text, colors)
		}
		logging.Ctx(ctx).Warn().Err(err).Msg("caption model failed, using color analysis")
	}

	if colors != nil {
		return &Result{
			Caption:    colors.Caption,
			Mood:       colors.Mood,
			Confidence: 0.85,
			Method:     MethodColor,
			Colors:     &colors.Colors,
			Size:       colors.Size,
		}
	}
	return neutralResult()
}

// fromCaption picks the mood named by the caption, then the color mood.
func fromCaption(text string, colors *ColorAnalysis) *Result {
	res := &Result{
		Caption:    text,
		Mood:       mood.Neutral,
		Confidence: 0.6,
		Method:     MethodModel,
	}
	if colors != nil {
		res.Colors = &colors.Colors
		res.Size = colors.Size
	}

	if label, ok := mood.FromCaption(text); ok {
		res.Mood = label
		res.Confidence = 0.9
	} else if colors != nil {
		res.Mood = colors.Mood
		res.Confidence = 0.8
	}
	return res
}
