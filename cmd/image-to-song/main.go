// Command image-to-song runs the image-to-music recommendation API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/justestif/go-image-to-song/internal/auth"
	"github.com/justestif/go-image-to-song/internal/caption"
	"github.com/justestif/go-image-to-song/internal/config"
	"github.com/justestif/go-image-to-song/internal/db"
	"github.com/justestif/go-image-to-song/internal/logging"
	"github.com/justestif/go-image-to-song/internal/quiz"
	"github.com/justestif/go-image-to-song/internal/recommend"
	"github.com/justestif/go-image-to-song/internal/search"
	"github.com/justestif/go-image-to-song/internal/spotify"
	"github.com/justestif/go-image-to-song/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Caller: cfg.Log.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := make(map[string]web.HealthCheck)

	// Quiz and profile storage
	songs, err := quiz.LoadCatalog()
	if err != nil {
		return fmt.Errorf("loading quiz songs: %w", err)
	}
	var quizOpts []quiz.Option
	if cfg.Database.URL != "" {
		database, err := db.New(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()

		if err := database.Migrate(ctx); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
		quizOpts = append(quizOpts, quiz.WithStore(database))
		checks["database"] = database.Ping
	} else {
		logging.Warn().Msg("DATABASE_URL not set, profiles will not be stored")
	}

	// Music catalog
	var catalog recommend.Catalog
	if cfg.Spotify.Enabled() {
		authenticator, err := auth.New(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
		if err != nil {
			return fmt.Errorf("creating spotify authenticator: %w", err)
		}
		client := spotify.Connect(ctx, authenticator,
			spotify.WithMarket(cfg.Spotify.Market),
			spotify.WithAudioFeatures(cfg.Spotify.AudioFeatures),
		)
		catalog = client
		checks["spotify"] = client.Ready
	} else {
		logging.Warn().Msg("SPOTIFY_ID/SPOTIFY_SECRET not set, serving curated tracks only")
	}

	// Image analysis
	imageOpts := []caption.Option{
		caption.WithMaxBytes(cfg.Caption.MaxBytes),
		caption.WithCaptionTimeout(cfg.Caption.Deadline),
	}
	if cfg.Caption.URL != "" {
		captioner := caption.NewClient(cfg.Caption.URL, cfg.Caption.Token,
			caption.WithHTTPClient(&http.Client{Timeout: cfg.Caption.Timeout}),
		)
		imageOpts = append(imageOpts, caption.WithCaptioner(captioner))
		checks["captioner"] = captioner.Ready
	} else {
		logging.Warn().Msg("CAPTION_API_URL not set, images are analyzed by color only")
	}
	if cfg.Redis.URL != "" {
		rdb, err := caption.DialRedis(ctx, cfg.Redis.URL)
		if err != nil {
			logging.Warn().Err(err).Msg("redis unavailable, image analysis cache disabled")
		} else {
			defer rdb.Close()
			imageOpts = append(imageOpts, caption.WithCache(caption.NewRedisCache(rdb, cfg.Caption.CacheTTL)))
			checks["redis"] = func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			}
		}
	}

	engine := recommend.New(catalog,
		recommend.WithSearchTimeout(cfg.Recommend.SearchTimeout),
		recommend.WithSearchLimit(cfg.Recommend.SearchLimit),
		recommend.WithConcurrency(cfg.Recommend.Concurrency),
	)

	songSearch := search.New(songs,
		search.WithCatalog(catalog),
		search.WithTimeout(cfg.Recommend.SearchTimeout),
	)

	server := web.NewServer(web.ServerConfig{
		Addr:            cfg.Server.Addr(),
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimit:       cfg.Server.RateLimit,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxImageBytes:   cfg.Caption.MaxBytes,
	}, web.Services{
		Quiz:      quiz.New(songs, quizOpts...),
		Recommend: engine,
		Images:    caption.NewService(imageOpts...),
		Search:    songSearch,
		Checks:    checks,
	})

	return server.Run(ctx)
}
