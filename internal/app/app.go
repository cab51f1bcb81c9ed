package app

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libredis "greenhat/libs/redis"

	"greenhat/internal/clients"
	"greenhat/internal/config"
	httpserver "greenhat/internal/http"
	"greenhat/internal/http/handlers"
	"greenhat/internal/http/middleware"
	"greenhat/internal/models"
	"greenhat/internal/poller"
	"greenhat/internal/redisstore"
	"greenhat/internal/ws"
)

// App wires admin service dependencies.
type App struct {
	server      *httpserver.Server
	poller      *poller.Poller
	hub         *ws.Hub
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	httpClient := clients.NewDefaultHTTPClient(cfg.PortalTimeout())
	authClient := clients.NewAuthClient(cfg.Portal.BaseURL, httpClient)
	tokens := clients.NewTokenSource(authClient, cfg.Portal.Email, cfg.Portal.Password)
	portal := clients.NewPortalClient(cfg.Portal.BaseURL, httpClient, tokens)

	var (
		redisClient *redis.Client
		cache       poller.Cache
	)
	if cfg.Redis.Addr != "" {
		client, err := libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		redisClient = client
		cache = redisstore.NewStore(client, cfg.SnapshotTTL())
	}

	dataPoller := poller.New(portal, cache, logger, poller.Config{
		FetchInterval: cfg.FetchInterval(),
		TickInterval:  cfg.TickInterval(),
	})

	hub := ws.NewHub(logger, 30*time.Second)
	dataPoller.OnUpdate(func(snap models.Snapshot) {
		hub.Broadcast(ws.BuildUpdate(snap, time.Now()))
	})

	clock := time.Now

	sessionsHandlers := handlers.NewSessionsHandlers(dataPoller, portal, clock, logger)
	paymentsHandlers := handlers.NewPaymentsHandlers(dataPoller, portal, logger)
	routersHandlers := handlers.NewRoutersHandlers(dataPoller, portal, logger)
	revenueHandlers := handlers.NewRevenueHandlers(dataPoller, clock, logger)
	statsHandlers := handlers.NewStatsHandlers(dataPoller, clock)
	refreshHandlers := handlers.NewRefreshHandlers(dataPoller, logger)
	wsHandlers := handlers.NewWSHandlers(hub, logger)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Sessions: sessionsHandlers,
		Payments: paymentsHandlers,
		Routers:  routersHandlers,
		Revenue:  revenueHandlers,
		Stats:    statsHandlers,
		Refresh:  refreshHandlers,
		WS:       wsHandlers,
		Health:   handlers.NewHealthHandler(),
	}, middleware.AuthMiddleware(cfg.Auth.JWTSecret))

	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		poller:      dataPoller,
		hub:         hub,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts the poller, the websocket hub and the HTTP server, and blocks
// until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	go func() {
		if err := a.poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("poller stopped", zap.Error(err))
		}
	}()
	go a.hub.Run(ctx)

	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
