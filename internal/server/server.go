package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rapidbounce/postfactory/config"
	"github.com/rapidbounce/postfactory/internal/cache"
	"github.com/rapidbounce/postfactory/internal/pipeline"
	"github.com/rapidbounce/postfactory/internal/session"
	"github.com/rapidbounce/postfactory/internal/telemetry"
	"github.com/rapidbounce/postfactory/provider"
	"github.com/rapidbounce/postfactory/tools/scrape"
	"github.com/rapidbounce/postfactory/tools/vision"
	"github.com/rapidbounce/postfactory/tools/web_search"
)

// Runner is the caller-facing pipeline entry point.
type Runner interface {
	Run(ctx context.Context, input pipeline.RunInput) (pipeline.RunResult, error)
}

// Run wires dependencies and serves the API until the listener stops.
func Run(cfg *config.Config) error {
	sessionLogger := log.New(log.Writer(), "[SESSION] ", log.LstdFlags)
	store := session.NewStore(cfg.Session, sessionLogger)

	tools, err := BuildTools(cfg)
	if err != nil {
		return err
	}

	tele := telemetry.NewTelemetry(cfg.Telemetry)
	orchLogger := log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	orch := pipeline.NewOrchestrator(cfg, orchLogger, tele, store, tools)

	e := newEcho(cfg)
	registerRoutes(e, orch, store)
	return e.Start(cfg.Server.Address)
}

// BuildTools constructs the external tool adapters from configuration.
func BuildTools(cfg *config.Config) (pipeline.Tools, error) {
	scraper, err := scrape.NewScraper(scrape.ScraperType(cfg.Tools.Scraper.Type), cfg.Tools.Scraper.Timeout, cfg.Tools.Scraper.MaxImages)
	if err != nil {
		return pipeline.Tools{}, fmt.Errorf("scraper: %w", err)
	}

	var searcher web_search.WebSearcher
	if cfg.Tools.Search.APIKey != "" {
		searcher, err = web_search.NewWebSearcher(web_search.Provider(cfg.Tools.Search.Provider), cfg.Tools.Search.APIKey)
		if err != nil {
			return pipeline.Tools{}, fmt.Errorf("search: %w", err)
		}
	}

	analyzer, err := vision.NewAnalyzer(vision.GoogleVisionAnalyzerType, cfg.Tools.Vision.APIKey, cfg.Tools.Vision.Endpoint, cfg.Tools.Vision.Timeout)
	if err != nil {
		return pipeline.Tools{}, fmt.Errorf("vision: %w", err)
	}

	llm, err := provider.NewLLMProvider(cfg.LLM)
	if err != nil {
		return pipeline.Tools{}, fmt.Errorf("llm: %w", err)
	}

	var tagCache *cache.TagCache
	if cfg.Tools.Cache.RedisAddr != "" {
		cacheLogger := log.New(log.Writer(), "[CACHE] ", log.LstdFlags)
		tagCache, err = cache.Connect(context.Background(), cfg.Tools.Cache)
		if err != nil {
			// the cache is advisory; a dead redis never blocks startup
			cacheLogger.Printf("tag cache disabled: %v", err)
			tagCache = nil
		}
	}

	return pipeline.Tools{
		Scraper:  scraper,
		Searcher: searcher,
		Analyzer: analyzer,
		LLM:      llm,
		TagCache: tagCache,
	}, nil
}

func newEcho(cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]any{"error": msg})
		}
	}

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))
	return e
}

func registerRoutes(e *echo.Echo, runner Runner, store session.Store) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "online", "service": "postfactory"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	gh := &GenerateHandler{Runner: runner}
	e.POST("/generate", gh.Generate)

	sh := &SessionsHandler{Store: store}
	e.GET("/sessions/:id", sh.Get)
}

// GenerateHandler triggers the social media pipeline.
type GenerateHandler struct {
	Runner Runner
}

func (h *GenerateHandler) Generate(c echo.Context) error {
	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.BookingURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "booking_url is required")
	}

	result, err := h.Runner.Run(c.Request().Context(), pipeline.RunInput{
		ListingURL: req.BookingURL,
		SiteURL:    req.WebsiteURL,
	})
	if err != nil {
		var pipeErr *pipeline.PipelineError
		if errors.As(err, &pipeErr) {
			// the message names the stage and cause category only; tool
			// internals (urls, keys, paths) stay in the server log
			return c.JSON(http.StatusBadGateway, GenerateResponse{
				Status:    "error",
				Data:      []pipeline.Post{},
				SessionID: result.SessionID,
				Message:   fmt.Sprintf("pipeline failed at %s: %s", pipeErr.Stage, causeCategory(pipeErr)),
			})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "pipeline run failed")
	}

	return c.JSON(http.StatusOK, GenerateResponse{
		Status:    "success",
		Data:      result.Posts,
		SessionID: result.SessionID,
	})
}

func causeCategory(err *pipeline.PipelineError) string {
	switch {
	case errors.Is(err, pipeline.ErrNoListingData):
		return "the listing page yielded no description or images"
	case errors.Is(err, pipeline.ErrEmptyGeneration):
		return "the copywriting model produced no output"
	case errors.Is(err, pipeline.ErrNoRecoverablePosts):
		return "the copywriting output contained no usable posts"
	default:
		return "an internal stage error"
	}
}

// SessionsHandler exposes persisted run state for inspection.
type SessionsHandler struct {
	Store session.Store
}

func (h *SessionsHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	state, err := h.Store.GetState(ctx, id)
	if errors.Is(err, session.ErrSessionNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "session lookup failed")
	}
	events, err := h.Store.Events(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "session lookup failed")
	}

	return c.JSON(http.StatusOK, SessionResponse{ID: id, State: state, Events: events})
}
