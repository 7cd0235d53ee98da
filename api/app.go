package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/agstack/OpenAgri-ReportingService/internal/calendar"
	"github.com/agstack/OpenAgri-ReportingService/internal/extract"
	"github.com/agstack/OpenAgri-ReportingService/internal/geocode"
	"github.com/agstack/OpenAgri-ReportingService/internal/render"
	"github.com/agstack/OpenAgri-ReportingService/internal/reports"
	"github.com/agstack/OpenAgri-ReportingService/internal/store"
)

type App struct {
	cfg   Config
	log   *zap.Logger
	store store.Store
	gen   reports.Generator
	queue *reports.Queue
	now   func() time.Time
}

func newApp(ctx context.Context, cfg Config, log *zap.Logger) (*App, error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	gen := newDispatcher(cfg, log)
	return &App{
		cfg:   cfg,
		log:   log,
		store: st,
		gen:   gen,
		queue: reports.NewQueue(gen, cfg.PDFDirectory, cfg.Workers, cfg.QueueSize, log),
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

func openStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case "mongo":
		return store.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	case "sqlite":
		return store.OpenSQLite(ctx, cfg.SQLitePath)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// newDispatcher wires extraction, rendering and, when the gatekeeper is enabled,
// the farm calendar as a fallback data source.
func newDispatcher(cfg Config, log *zap.Logger) *reports.Dispatcher {
	extractor := extract.New(log)
	renderer := render.NewRenderer(cfg.FontDir, log)
	geo := geocode.New(cfg.GeocoderURL, cfg.GeocoderUserAgent, nil, log)

	opts := []reports.Option{reports.WithGeocoder(geo)}
	if cfg.UsingGatekeeper {
		client := calendar.NewClient(cfg.CalendarURL(), nil, log)
		opts = append(opts,
			reports.WithUpstream(calendar.NewAggregator(client, cfg.Endpoints, extractor, log)),
			reports.WithEnricher(calendar.NewEnricher(client, cfg.Endpoints, geo, log)),
		)
	}
	return reports.NewDispatcher(extractor, renderer, log, opts...)
}

// close drains the background queue before closing the store.
func (a *App) close(ctx context.Context) {
	a.queue.Close()
	if err := a.store.Close(ctx); err != nil {
		a.log.Warn("close store", zap.Error(err))
	}
}
