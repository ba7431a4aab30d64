package recommend

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/justestif/go-image-to-song/internal/logging"
	"github.com/justestif/go-image-to-song/internal/metrics"
	"github.com/justestif/go-image-to-song/internal/mood"
)

// Limits caps the size of each bucket.
type Limits struct {
	Personalized int // bucket size when a profile is present
	MoodBased    int // bucket size when a profile is present
	Discovery    int // bucket size when a profile is present
	Anonymous    int // single mood-based bucket size without a profile
}

// DefaultLimits returns the bucket sizes used by the API.
func DefaultLimits() Limits {
	return Limits{
		Personalized: 5,
		MoodBased:    3,
		Discovery:    2,
		Anonymous:    8,
	}
}

const (
	defaultSearchTimeout = 8 * time.Second
	defaultSearchLimit   = 10
	defaultConcurrency   = 4
)

// discoveryPhrases find popular tracks outside the listener's usual genres.
var discoveryPhrases = []string{"top hits", "viral hits", "trending now"}

// Engine runs the recommendation pipeline against a catalog.
type Engine struct {
	catalog     Catalog
	limits      Limits
	timeout     time.Duration
	searchLimit int
	concurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLimits sets bucket sizes.
func WithLimits(l Limits) Option {
	return func(e *Engine) {
		e.limits = l
	}
}

// WithSearchTimeout bounds all catalog queries of one request.
// Queries still running when it expires count as returning nothing.
func WithSearchTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithSearchLimit sets how many tracks each catalog query asks for.
func WithSearchLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.searchLimit = n
		}
	}
}

// WithConcurrency sets how many catalog queries run at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// New creates an engine. A nil catalog always yields the curated fallback.
func New(catalog Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog:     catalog,
		limits:      DefaultLimits(),
		timeout:     defaultSearchTimeout,
		searchLimit: defaultSearchLimit,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type plannedQuery struct {
	bucket Provenance
	query  Query
}

// Recommend blends the request's profile and mood, queries the catalog and
// ranks the results. Catalog failures degrade to the mood's curated tracks;
// Recommend itself never fails.
func (e *Engine) Recommend(ctx context.Context, req Request) *Result {
	target, known := mood.Resolve(req.Mood)
	if !known && req.Mood != "" {
		logging.Ctx(ctx).Debug().Str("mood", req.Mood).Msg("unknown mood, using neutral target")
	}

	blended := Blend(req.Profile, target)
	hints := GenreHints(req.Profile)
	personalized := req.Profile != nil

	result := &Result{
		Mood:         target.Label,
		Caption:      req.Caption,
		Target:       blended,
		GenreHints:   hints,
		Vibe:         mood.Describe(blended),
		Personalized: personalized,
	}
	if result.GenreHints == nil {
		result.GenreHints = []string{}
	}

	found := e.search(ctx, e.plan(target, blended, hints, personalized))

	seen := make(map[string]bool)
	if personalized {
		result.Buckets = []Bucket{
			{Personalized, selectTracks(rank(dedupe(found[Personalized]), blended, Personalized), e.limits.Personalized, seen)},
			{MoodBased, selectTracks(rank(dedupe(found[MoodBased]), blended, MoodBased), e.limits.MoodBased, seen)},
			{Discovery, diverseSelection(dedupe(found[Discovery]), blended, e.limits.Discovery, seen)},
		}
	} else {
		result.Buckets = []Bucket{
			{MoodBased, selectTracks(rank(dedupe(found[MoodBased]), blended, MoodBased), e.limits.Anonymous, seen)},
		}
	}

	if len(seen) == 0 {
		result.Buckets = []Bucket{fallbackBucket(target)}
		result.Fallback = true
	}

	result.Recommendations = []Recommendation{}
	for _, b := range result.Buckets {
		for _, r := range b.Tracks {
			metrics.RelevanceScores.Observe(r.Score)
		}
		result.Recommendations = append(result.Recommendations, b.Tracks...)
	}

	mode := "anonymous"
	switch {
	case result.Fallback:
		mode = "fallback"
	case personalized:
		mode = "personalized"
	}
	metrics.Recommendations.WithLabelValues(mode).Inc()

	logging.Ctx(ctx).Info().
		Str("mood", string(result.Mood)).
		Str("mode", mode).
		Int("count", len(result.Recommendations)).
		Msg("recommendations built")

	return result
}

// plan lists the catalog queries for each bucket.
func (e *Engine) plan(target mood.Target, blended map[string]float64, hints []string, personalized bool) []plannedQuery {
	var planned []plannedQuery
	add := func(b Provenance, q Query) {
		q.Limit = e.searchLimit
		planned = append(planned, plannedQuery{bucket: b, query: q})
	}

	if personalized && len(hints) > 0 {
		for _, g := range hints {
			add(Personalized, Query{Text: fmt.Sprintf("genre:%q", g)})
		}
		add(Personalized, Query{SeedGenres: hints, Target: blended})
	}

	for _, phrase := range target.SearchPhrases {
		add(MoodBased, Query{Text: phrase})
	}
	add(MoodBased, Query{SeedGenres: target.SeedGenres, Target: blended})

	if personalized {
		for _, phrase := range discoveryPhrases {
			add(Discovery, Query{Text: phrase})
		}
	}
	return planned
}

// search runs planned queries under the engine timeout and groups the
// candidates by bucket in plan order. Failed queries contribute nothing.
func (e *Engine) search(ctx context.Context, planned []plannedQuery) map[Provenance][]Candidate {
	found := make(map[Provenance][]Candidate)
	if e.catalog == nil || len(planned) == 0 {
		return found
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	results := make([][]Candidate, len(planned))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, pq := range planned {
		g.Go(func() error {
			cands, err := e.catalog.Search(gctx, pq.query)
			if err != nil {
				metrics.CatalogQueries.WithLabelValues(string(pq.bucket), "error").Inc()
				logging.Ctx(ctx).Warn().Err(err).
					Str("bucket", string(pq.bucket)).
					Str("query", pq.query.Text).
					Strs("seed_genres", pq.query.SeedGenres).
					Msg("catalog query failed")
				return nil
			}
			outcome := "ok"
			if len(cands) == 0 {
				outcome = "empty"
			}
			metrics.CatalogQueries.WithLabelValues(string(pq.bucket), outcome).Inc()
			results[i] = cands
			return nil
		})
	}
	_ = g.Wait()

	for i, pq := range planned {
		found[pq.bucket] = append(found[pq.bucket], results[i]...)
	}
	return found
}

// dedupe drops repeated and ID-less candidates, keeping first occurrences.
func dedupe(cands []Candidate) []Candidate {
	seen := make(map[string]bool, len(cands))
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.ID == "" || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}

// fallbackBucket serves the mood's curated tracks.
func fallbackBucket(target mood.Target) Bucket {
	tracks := make([]Recommendation, len(target.Fallback))
	for i, t := range target.Fallback {
		tracks[i] = toRecommendation(Candidate{ID: t.ID, Title: t.Title, Artist: t.Artist}, 0, MoodBased)
	}
	return Bucket{Provenance: MoodBased, Tracks: tracks}
}
