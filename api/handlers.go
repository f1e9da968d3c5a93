package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"promptly/domain"
	"promptly/library"
)

// Register wires up the page, the JSON API and the template renderer on the
// provided Echo instance. events and deduper may be nil.
func Register(e *echo.Echo, src PromptSource, events CopyEventPublisher, deduper Deduper, logger *log.Logger) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	e.Renderer = newPageRenderer()
	e.JSONSerializer = sonicSerializer{}

	e.GET("/", getPage(src, logger))
	e.GET("/api/prompts", getPrompts(src, logger))
	e.GET("/api/categories", getCategories(src, logger))
	e.POST("/api/copy-events", postCopyEvent(events, deduper, logger),
		copyEventRateLimiter(), GzipRequestMiddleware(copyEventMaxSize))
	e.GET("/healthz", healthz())
}

// copyEventRateLimiter limits copy events per client IP.
func copyEventRateLimiter() echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(copyEventRate),
			Burst:     copyEventBurst,
			ExpiresIn: 3 * time.Minute,
		}),
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.JSON(http.StatusTooManyRequests, copyEventResponse{Error: "too many copy events"})
		},
	})
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// statusForLoadError maps a load failure to the response status. A missing
// server configuration is our fault; anything else came from upstream.
func statusForLoadError(err error) int {
	if domain.KindOf(err) == domain.KindConfiguration {
		return http.StatusInternalServerError
	}
	return http.StatusBadGateway
}

func getPage(src PromptSource, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		return serveView(c, src, logger, "/", "prompts.page", func(status int, v library.View) error {
			return c.Render(status, pageTemplate, newPageData(v))
		})
	}
}

func getPrompts(src PromptSource, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		return serveView(c, src, logger, "/api/prompts", "prompts.list", func(status int, v library.View) error {
			return c.JSON(status, v)
		})
	}
}

func getCategories(src PromptSource, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		return serveView(c, src, logger, "/api/categories", "prompts.categories", func(status int, v library.View) error {
			return c.JSON(status, categoriesResponse{Categories: v.Categories, Error: v.Error})
		})
	}
}

// serveView loads a fresh library for this request, derives the view for
// the q and category query parameters and hands it to render.
func serveView(c echo.Context, src PromptSource, logger *log.Logger, route, event string, render func(int, library.View) error) (err error) {
	ctx := c.Request().Context()
	metrics, spanCtx := newRequestMetrics(ctx, logger, route, event)
	if spanCtx != nil {
		c.SetRequest(c.Request().WithContext(spanCtx))
		ctx = spanCtx
	}
	var loadErr error
	defer func() {
		logErr := err
		if logErr == nil {
			logErr = loadErr
		}
		metrics.Log(c.Response().Status, logErr)
	}()

	term := c.QueryParam("q")
	category := c.QueryParam("category")
	metrics.SetQuery(term, category)

	lib := library.New(src, logger)
	loadStart := time.Now()
	loadErr = lib.Load(ctx)
	metrics.ObserveLoad(time.Since(loadStart))

	view := lib.View(term, category)
	metrics.SetPrompts(view.Total, len(view.Prompts))

	status := http.StatusOK
	if loadErr != nil {
		status = statusForLoadError(loadErr)
		metrics.SetErrorStage("load")
		metrics.SetErrorKind(domain.KindOf(loadErr))
	}

	renderStart := time.Now()
	err = render(status, view)
	metrics.ObserveRender(time.Since(renderStart))
	if err != nil {
		metrics.SetErrorStage("render")
	}
	return err
}

func postCopyEvent(events CopyEventPublisher, deduper Deduper, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newRequestMetrics(ctx, logger, "/api/copy-events", "copy_events.post")
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		var publishErr error
		defer func() {
			logErr := err
			if logErr == nil {
				logErr = publishErr
			}
			metrics.Log(c.Response().Status, logErr)
		}()

		lr := io.LimitReader(c.Request().Body, copyEventMaxSize)
		dec := sonic.ConfigStd.NewDecoder(lr)
		dec.DisallowUnknownFields()

		var req copyEventRequest
		if decodeErr := dec.Decode(&req); decodeErr != nil {
			metrics.SetErrorStage("decode")
			return c.JSON(http.StatusBadRequest, copyEventResponse{Error: "invalid body"})
		}
		ev, validateErr := newCopyEvent(req)
		if validateErr != nil {
			metrics.SetErrorStage("validate")
			return c.JSON(http.StatusBadRequest, copyEventResponse{Error: validateErr.Error()})
		}

		key := strings.TrimSpace(req.IdempotencyKey)
		recorded := false
		if key != "" && deduper != nil {
			added, dedupErr := deduper.Add(ctx, key)
			switch {
			case dedupErr != nil:
				logger.WithError(dedupErr).Warn("copy event dedupe unavailable")
			case !added:
				metrics.SetCopyOutcome(ev.Outcome, true)
				return c.JSON(http.StatusAccepted, copyEventResponse{ID: ev.ID, Duplicate: true})
			default:
				recorded = true
			}
		}
		metrics.SetCopyOutcome(ev.Outcome, false)

		entry := logger.WithFields(log.Fields{
			"event_id":  ev.ID,
			"prompt_id": ev.PromptID,
			"outcome":   ev.Outcome,
		})
		if ev.Reason != "" {
			entry = entry.WithField("reason", ev.Reason)
		}
		entry.Info("prompt copy recorded")

		if events != nil {
			if publishErr = events.PublishCopyEvent(ctx, ev); publishErr != nil {
				if recorded {
					if rmErr := deduper.Remove(ctx, key); rmErr != nil {
						logger.WithError(rmErr).Warn("release copy event key")
					}
				}
				metrics.SetErrorStage("publish")
				logger.WithError(publishErr).Error("publish copy event")
				return c.JSON(http.StatusInternalServerError, copyEventResponse{Error: "failed to record copy event"})
			}
		}
		return c.JSON(http.StatusAccepted, copyEventResponse{ID: ev.ID})
	}
}

func newCopyEvent(req copyEventRequest) (domain.CopyEvent, error) {
	ev := domain.CopyEvent{
		ID:       strings.TrimSpace(req.IdempotencyKey),
		PromptID: strings.TrimSpace(req.PromptID),
		Outcome:  strings.TrimSpace(req.Outcome),
		Reason:   strings.TrimSpace(req.Reason),
		Time:     nextEventTime(),
	}
	if ev.PromptID == "" {
		return ev, errors.New("missing promptId")
	}
	switch ev.Outcome {
	case domain.CopyOutcomeCopied:
		ev.Reason = ""
	case domain.CopyOutcomeFailed:
	default:
		return ev, errors.New("invalid outcome")
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	return ev, nil
}
