package app

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/omarthenmalai/SubwayScheduler/internal/auth"
	"github.com/omarthenmalai/SubwayScheduler/internal/routing"
	"github.com/omarthenmalai/SubwayScheduler/internal/schedule"
	"github.com/omarthenmalai/SubwayScheduler/internal/topology"
	"github.com/omarthenmalai/SubwayScheduler/subwaydb"
)

// Application holds the dependencies for the HTTP handlers, helpers, and
// middleware: config, logger, the store client, and the three domain
// engines built on top of it.
type Application struct {
	Config   Config
	Logger   *slog.Logger
	Client   *subwaydb.Client
	Topology *topology.Engine
	Resolver *routing.Resolver
	Schedule *schedule.Service
}

// NewApplication wires the engines onto an open store client.
func NewApplication(cfg Config, logger *slog.Logger, client *subwaydb.Client) *Application {
	return &Application{
		Config:   cfg,
		Logger:   logger,
		Client:   client,
		Topology: topology.NewEngine(topologyStore{client}, logger),
		Resolver: routing.NewResolver(client.Queries, client.Queries, routing.Options{
			MaxCandidates: cfg.MaxCandidates,
		}, logger),
		Schedule: schedule.NewService(scheduleStore{client}, logger),
	}
}

// topologyStore and scheduleStore adapt the client's transaction entry point
// to each engine's store contract; *subwaydb.Queries satisfies both Ops
// interfaces directly.
type topologyStore struct {
	client *subwaydb.Client
}

func (s topologyStore) Transact(ctx context.Context, fn func(ops topology.Ops) error) error {
	return s.client.Transact(ctx, func(q *subwaydb.Queries) error { return fn(q) })
}

type scheduleStore struct {
	client *subwaydb.Client
}

func (s scheduleStore) Transact(ctx context.Context, fn func(ops schedule.Ops) error) error {
	return s.client.Transact(ctx, func(q *subwaydb.Queries) error { return fn(q) })
}

// RequestHasInvalidAPIKey reports whether the request's key query parameter
// fails to match any configured API key.
func (app *Application) RequestHasInvalidAPIKey(r *http.Request) bool {
	return app.isInvalidAPIKey(r.URL.Query().Get("key"))
}

// isInvalidAPIKey checks the candidate against every configured key. Keys
// may be configured either as plaintext or as credentials produced by
// auth.HashPassword; hashed entries never expose the key on disk.
func (app *Application) isInvalidAPIKey(key string) bool {
	if key == "" {
		return true
	}
	for _, validKey := range app.Config.APIKeys {
		if ok, err := auth.VerifyPassword(validKey, key); err == nil {
			if ok {
				return false
			}
			continue
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(validKey)) == 1 {
			return false
		}
	}
	return true
}
