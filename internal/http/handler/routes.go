package handler

import (
	"database/sql"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trackapi/internal/database"
	"trackapi/internal/http/middleware"
	"trackapi/internal/service"
)

// EchoRoute is the pattern of the echo route as Fiber reports it in c.Route().Path.
const EchoRoute = "/v1/:type"

// Options carries the optional collaborators of RegisterRoutes.
// A nil DB skips the dependency check in /health, a nil Gatherer skips /metrics,
// a nil CaptureQueue leaves the capture tap unmounted and a nil Captures leaves
// the /captures endpoints unmounted.
type Options struct {
	DB           *sql.DB
	Gatherer     prometheus.Gatherer
	Captures     service.CaptureService
	CaptureQueue *middleware.CaptureQueue
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, opts Options) {
	app.Get("/health", HealthCheck(opts.DB))
	app.Get("/healthz", LivenessProbe())
	if opts.Gatherer != nil {
		app.Get("/metrics", Metrics(opts.Gatherer))
	}

	v1 := app.Group("/v1")
	if opts.CaptureQueue != nil {
		v1.Use(middleware.Capture(opts.CaptureQueue, EchoRoute))
	}

	// Fiber matches routes in registration order, so the literal batch route
	// must be registered before the parametric one to take precedence.
	v1.Post("/batch", Batch())
	v1.Post("/:type", middleware.JSONBody(), Echo())

	if opts.Captures != nil {
		app.Get("/captures", ListCaptures(opts.Captures))
		app.Get("/captures/:id", GetCapture(opts.Captures))
		app.Get("/captures/:id/payload", CapturePayload(opts.Captures))
		app.Delete("/captures/:id", DeleteCapture(opts.Captures))
	}
}

// Batch is the placeholder for batched submissions.
//
// @Summary  Submit a batch of events (not implemented)
// @Tags     v1
// @Accept   json
// @Success  501
// @Router   /v1/batch [post]
func Batch() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Status(fiber.StatusNotImplemented)
		return nil
	}
}

// Echo responds with the request body decoded by middleware.JSONBody.
//
// @Summary  Echo a typed event
// @Tags     v1
// @Accept   json
// @Produce  json
// @Param    type  path  string  true  "event type, e.g. track or identify"
// @Param    body  body  object  false "any JSON value"
// @Success  200  {object}  object
// @Failure  400  {object}  errorPayload
// @Failure  413  {object}  errorPayload
// @Router   /v1/{type} [post]
func Echo() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Sent as is: c.JSON would re-encode and HTML-escape the body.
		body, err := middleware.Payload(c).MarshalJSON()
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(body)
	}
}

// HealthCheck reports healthy, after pinging the capture ledger when one is configured.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db != nil {
			if err := database.Check(c.UserContext(), db); err != nil {
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// Metrics exposes the collectors of g in the Prometheus text format.
func Metrics(g prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

// ListCaptures returns the capture ledger with limit & offset.
func ListCaptures(svc service.CaptureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetCapture returns one capture with a presigned download URL.
func GetCapture(svc service.CaptureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := captureID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		detail, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return captureError(c, err)
		}
		return c.JSON(detail)
	}
}

// CapturePayload streams the archived payload of a capture.
func CapturePayload(svc service.CaptureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := captureID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rc, capture, err := svc.Open(c.UserContext(), id)
		if err != nil {
			return captureError(c, err)
		}
		size := int(capture.Size)
		if size <= 0 {
			size = -1
		}
		c.Set(fiber.HeaderContentType, capture.ContentType)
		// fasthttp closes rc once the body has been written.
		return c.SendStream(rc, size)
	}
}

// DeleteCapture removes a capture and its payload.
func DeleteCapture(svc service.CaptureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := captureID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return captureError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func captureID(c *fiber.Ctx) (string, bool) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func captureError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrNotFound) {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "capture not found")
	}
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}
