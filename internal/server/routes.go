package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/chartpilot/chartpilot/internal/agent"
	"github.com/chartpilot/chartpilot/internal/config"
	"github.com/chartpilot/chartpilot/internal/handler"
	"github.com/chartpilot/chartpilot/internal/llm"
	"github.com/chartpilot/chartpilot/internal/middleware"
	"github.com/chartpilot/chartpilot/internal/schemacache"
	"github.com/chartpilot/chartpilot/internal/security"
	"github.com/chartpilot/chartpilot/internal/service"
)

const version = "1.0.0"

var errDataSource = errors.New("no data source configured: set DATABASE_URL or GCP_PROJECT_ID")

// backend bundles the interfaces one configured data source provides.
type backend struct {
	schemas service.SchemaProvider
	exec    service.QueryExecutor
	pinger  handler.Pinger
	name    string
}

func (s *Server) setupRoutes() (http.Handler, error) {
	cfg := s.cfg
	ctx := context.Background()

	// ─── Data source ────────────────────────────────────────────────────────────
	be, pgSvc, err := s.setupBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// ─── Schema cache + summaries ───────────────────────────────────────────────
	var cacheStore schemacache.Store
	var summaries agent.SummaryStore
	if pgSvc != nil {
		pgStore := schemacache.NewPostgresStore(pgSvc.Pool())
		if err := pgStore.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		cacheStore = pgStore

		repo := service.NewSummaryRepo(pgSvc.Pool())
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		summaries = repo
	} else {
		cacheStore = schemacache.NewMemoryStore(cfg.SchemaCacheTTL)
	}

	// ─── Security ───────────────────────────────────────────────────────────────
	promptVal := security.NewPromptValidator()
	stmtVal := security.NewStatementValidator()
	auditLogger := security.NewAuditLogger(cfg.EnableAuditLogging)

	// ─── Pipeline ───────────────────────────────────────────────────────────────
	if cfg.AnthropicAPIKey == "" {
		log.Warn().Msg("ANTHROPIC_API_KEY not set - completions will fail")
	}
	client := llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicBaseURL)

	opts := func(temp float64) agent.Options {
		return agent.Options{Temperature: temp, Timeout: cfg.AgentTimeout}
	}
	orchestrator := agent.NewOrchestrator(agent.Deps{
		Router:     agent.NewRequestRouter(client, opts(cfg.Temperatures.Router)),
		Schema:     agent.NewSchemaAnalyzer(client, cacheStore, opts(cfg.Temperatures.Schema)),
		Query:      agent.NewQueryBuilder(client, opts(cfg.Temperatures.Query)),
		Filter:     agent.NewFilterBuilder(client, opts(cfg.Temperatures.Filter)),
		Chart:      agent.NewChartBuilder(client, opts(cfg.Temperatures.Chart)),
		Summarizer: agent.NewSummarizer(client, opts(cfg.Temperatures.Summarizer)),
		Summaries:  summaries,
		TokenLimit: cfg.ContextTokenLimit,
	})

	log.Info().
		Str("backend", be.name).
		Bool("durable_schema_cache", pgSvc != nil).
		Bool("auth_enabled", cfg.EnableAuth && len(cfg.APIKeys) > 0).
		Bool("audit_logging", cfg.EnableAuditLogging).
		Msg("service configuration")
	if cfg.EnableAuth && len(cfg.APIKeys) == 0 {
		log.Warn().Msg("auth enabled but no API keys configured - all API requests will be rejected")
	}

	// ─── Handlers ───────────────────────────────────────────────────────────────
	optionsSvc := service.NewOptionsService(be.exec, stmtVal, cfg.OptionsMaxLimit)

	chatH := handler.NewChatHandler(orchestrator, be.schemas, promptVal, auditLogger)
	streamH := handler.NewStreamHandler(orchestrator, be.schemas, promptVal, auditLogger)
	dataH := handler.NewDataHandler(be.exec, stmtVal, auditLogger)
	optionsH := handler.NewOptionsHandler(optionsSvc)

	checks := map[string]handler.Pinger{}
	if be.pinger != nil {
		checks[be.name] = be.pinger
	}
	healthH := handler.NewHealthHandler(version, checks)

	// ─── Router ─────────────────────────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(chiMiddleware.RealIP)

	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)

	apiMiddleware := []func(http.Handler) http.Handler{
		middleware.RateLimit(cfg.RateLimitPerMinute),
	}
	if cfg.EnableAuth && len(cfg.APIKeys) > 0 {
		apiMiddleware = append(apiMiddleware, middleware.Auth(cfg.APIKeys, cfg.APIKeyHeader))
	}

	r.Group(func(r chi.Router) {
		for _, m := range apiMiddleware {
			r.Use(m)
		}

		r.Route(cfg.APIPrefix, func(r chi.Router) {
			r.Post("/chat", chatH.Chat)
			r.Post("/chat/stream", streamH.ChatStream)
			r.Post("/widget-data", dataH.WidgetData)
			r.Post("/filter-options", optionsH.FilterOptions)
		})
	})

	return r, nil
}

// setupBackend picks the configured data source. Postgres wins when a DSN
// is present; otherwise BigQuery. The PostgresService is also returned
// directly so its pool can back the durable stores.
func (s *Server) setupBackend(ctx context.Context, cfg *config.Config) (backend, *service.PostgresService, error) {
	if cfg.PostgresDSN != "" {
		pgSvc, err := service.NewPostgresService(ctx, cfg.PostgresDSN)
		if err != nil {
			return backend{}, nil, err
		}
		s.closers = append(s.closers, pgSvc.Close)
		return backend{schemas: pgSvc, exec: pgSvc, pinger: pgSvc, name: "postgres"}, pgSvc, nil
	}

	if cfg.GCPProjectID != "" {
		bqSvc, err := service.NewBigQueryService(ctx, cfg.GCPProjectID, cfg.GoogleApplicationCredentials, cfg.BigQueryLocation)
		if err != nil {
			return backend{}, nil, err
		}
		s.closers = append(s.closers, func() {
			if err := bqSvc.Close(); err != nil {
				log.Warn().Err(err).Msg("error closing BigQuery client")
			}
		})
		return backend{schemas: bqSvc, exec: bqSvc, pinger: bqSvc, name: "bigquery"}, nil, nil
	}

	return backend{}, nil, errDataSource
}
