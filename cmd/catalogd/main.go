// Package main wires together the catalog crawler service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pubsubclient "cloud.google.com/go/pubsub"
	gcsclient "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/shelfscan/catalog-crawler/internal/api"
	"github.com/shelfscan/catalog-crawler/internal/catalog"
	"github.com/shelfscan/catalog-crawler/internal/clock/system"
	"github.com/shelfscan/catalog-crawler/internal/config"
	"github.com/shelfscan/catalog-crawler/internal/extractor/headless"
	"github.com/shelfscan/catalog-crawler/internal/extractor/static"
	"github.com/shelfscan/catalog-crawler/internal/id/uuid"
	"github.com/shelfscan/catalog-crawler/internal/jobs"
	"github.com/shelfscan/catalog-crawler/internal/logging"
	"github.com/shelfscan/catalog-crawler/internal/metrics"
	"github.com/shelfscan/catalog-crawler/internal/policy/freshness"
	memorypublisher "github.com/shelfscan/catalog-crawler/internal/publisher/memory"
	pubsubpublisher "github.com/shelfscan/catalog-crawler/internal/publisher/pubsub"
	"github.com/shelfscan/catalog-crawler/internal/scraper"
	"github.com/shelfscan/catalog-crawler/internal/seed"
	"github.com/shelfscan/catalog-crawler/internal/storage/gcs"
	memorystorage "github.com/shelfscan/catalog-crawler/internal/storage/memory"
	"github.com/shelfscan/catalog-crawler/internal/storage/postgres"
	"github.com/shelfscan/catalog-crawler/internal/upsert"
)

type stores struct {
	navigations catalog.NavigationStore
	categories  catalog.CategoryStore
	products    catalog.ProductStore
	details     catalog.ProductDetailStore
	reviews     catalog.ReviewStore
	jobs        catalog.JobStore
}

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := system.New()
	idGen := uuid.New()

	st, cleanupStores, err := buildStores(ctx, cfg, idGen, logger)
	if err != nil {
		logger.Error("store init failed", zap.Error(err))
		return
	}
	defer cleanupStores()

	snapshots, cleanupSnapshots, err := buildSnapshots(ctx, cfg)
	if err != nil {
		logger.Error("snapshot storage init failed", zap.Error(err))
		return
	}
	defer cleanupSnapshots()

	publisher, cleanupPublisher, err := buildPublisher(ctx, cfg)
	if err != nil {
		logger.Error("publisher init failed", zap.Error(err))
		return
	}
	defer cleanupPublisher()

	extractor, cleanupExtractor, err := buildExtractor(cfg, logger)
	if err != nil {
		logger.Error("extractor init failed", zap.Error(err))
		return
	}
	defer cleanupExtractor()

	engine := upsertEngine(cfg, st, clock, idGen, logger)
	tracker := jobs.NewTracker(st.jobs, clock, idGen, logger.Named("jobs"))

	sc := scraper.New(
		scraper.Config{
			BaseURL:        cfg.Scraper.BaseURL,
			Delay:          cfg.Delay(),
			FetchTimeout:   cfg.FetchTimeout(),
			MaxRetries:     cfg.Scraper.MaxRetries,
			SnapshotPrefix: cfg.Scraper.SnapshotPrefix,
			Topic:          cfg.PubSub.TopicName,
		},
		scraper.Deps{
			Extractor:      extractor,
			Engine:         engine,
			Tracker:        tracker,
			Fresh:          freshness.New(cfg.Scraper.CacheTTLHours),
			Clock:          clock,
			Navigations:    st.navigations,
			Categories:     st.categories,
			Products:       st.products,
			ProductDetails: st.details,
			Snapshots:      snapshots,
			Publisher:      publisher,
			Logger:         logger.Named("scraper"),
		},
	)

	apiServer := api.NewServer(sc, api.Stores{
		Navigations: st.navigations,
		Categories:  st.categories,
		Products:    st.products,
		Details:     st.details,
		Reviews:     st.reviews,
		Jobs:        st.jobs,
	}, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func upsertEngine(cfg config.Config, st stores, clock catalog.Clock, ids catalog.IDGenerator, logger *zap.Logger) *upsert.Engine {
	return upsert.New(upsert.Config{
		Navigations:    st.navigations,
		Categories:     st.categories,
		Products:       st.products,
		ProductDetails: st.details,
		Reviews:        st.reviews,
		Clock:          clock,
		IDs:            ids,
		Currency:       cfg.Scraper.Currency,
		Logger:         logger.Named("upsert"),
	})
}

func buildStores(ctx context.Context, cfg config.Config, idGen catalog.IDGenerator, logger *zap.Logger) (stores, func(), error) {
	switch cfg.DB.Provider {
	case "memory":
		st := stores{
			navigations: memorystorage.NewNavigationStore(),
			categories:  memorystorage.NewCategoryStore(),
			products:    memorystorage.NewProductStore(),
			details:     memorystorage.NewDetailStore(),
			reviews:     memorystorage.NewReviewStore(),
			jobs:        memorystorage.NewJobStore(),
		}
		if cfg.DB.SeedFixtures {
			if err := seed.Load(ctx, seed.Stores{
				Navigations: st.navigations,
				Categories:  st.categories,
				Products:    st.products,
				Details:     st.details,
				Reviews:     st.reviews,
			}, idGen, logger.Named("seed")); err != nil {
				return stores{}, nil, err
			}
		}
		return st, func() {}, nil
	case "postgres":
		pool, err := postgres.Connect(ctx, postgres.Config{
			DSN:      cfg.DB.DSN,
			MaxConns: cfg.DB.MaxConns,
			MinConns: cfg.DB.MinConns,
		})
		if err != nil {
			return stores{}, nil, err
		}
		return stores{
			navigations: postgres.NewNavigationStore(pool),
			categories:  postgres.NewCategoryStore(pool),
			products:    postgres.NewProductStore(pool),
			details:     postgres.NewDetailStore(pool),
			reviews:     postgres.NewReviewStore(pool),
			jobs:        postgres.NewJobStore(pool),
		}, pool.Close, nil
	default:
		return stores{}, nil, fmt.Errorf("unknown db provider %q", cfg.DB.Provider)
	}
}

func buildSnapshots(ctx context.Context, cfg config.Config) (catalog.BlobStore, func(), error) {
	switch cfg.Storage.Provider {
	case "noop":
		return nil, func() {}, nil
	case "memory":
		return memorystorage.NewBlobStore(), func() {}, nil
	case "gcs":
		client, err := gcsclient.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("gcs client: %w", err)
		}
		store, err := gcs.New(client, gcs.Config{Bucket: cfg.Storage.GCSBucket})
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
}

func buildPublisher(ctx context.Context, cfg config.Config) (catalog.Publisher, func(), error) {
	switch cfg.PubSub.Provider {
	case "noop":
		return nil, func() {}, nil
	case "memory":
		return memorypublisher.New(), func() {}, nil
	case "pubsub":
		client, err := pubsubclient.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("pubsub client: %w", err)
		}
		pub, err := pubsubpublisher.New(client)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return pub, func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown pubsub provider %q", cfg.PubSub.Provider)
	}
}

func buildExtractor(cfg config.Config, logger *zap.Logger) (catalog.Extractor, func(), error) {
	switch cfg.Extractor.Mode {
	case "headless":
		ext, err := headless.New(headless.Config{
			UserAgent:   cfg.Extractor.UserAgent,
			MaxParallel: cfg.Extractor.MaxParallel,
		})
		if err != nil {
			return nil, nil, err
		}
		return ext, ext.Close, nil
	case "static":
		ext, err := static.New(static.Config{
			UserAgent:   cfg.Extractor.UserAgent,
			MaxParallel: cfg.Extractor.MaxParallel,
		}, logger.Named("static"))
		if err != nil {
			return nil, nil, err
		}
		return ext, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown extractor mode %q", cfg.Extractor.Mode)
	}
}
