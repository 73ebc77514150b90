package middleware

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog"

	"trackapi/internal/model"
)

// CaptureRecorder stores a copy of an echoed payload.
type CaptureRecorder interface {
	Record(ctx context.Context, requestID, eventType string, body []byte) (*model.Capture, error)
}

type captureJob struct {
	ctx       context.Context
	requestID string
	eventType string
	body      []byte
}

// CaptureQueue hands echoed payloads to a CaptureRecorder on background
// workers, so storage and database latency stay off the response path.
// When the buffer is full new payloads are dropped and logged.
type CaptureQueue struct {
	rec    CaptureRecorder
	logger zerolog.Logger
	jobs   chan captureJob
	wg     sync.WaitGroup
}

// NewCaptureQueue starts workers goroutines draining a buffer of size payloads.
func NewCaptureQueue(rec CaptureRecorder, logger zerolog.Logger, size, workers int) *CaptureQueue {
	if size < 1 {
		size = 1
	}
	if workers < 1 {
		workers = 1
	}

	q := &CaptureQueue{
		rec:    rec,
		logger: logger,
		jobs:   make(chan captureJob, size),
	}
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.work()
	}
	return q
}

func (q *CaptureQueue) work() {
	defer q.wg.Done()
	for job := range q.jobs {
		if _, err := q.rec.Record(job.ctx, job.requestID, job.eventType, job.body); err != nil {
			q.logger.Error().
				Err(err).
				Str("request_id", job.requestID).
				Str("type", job.eventType).
				Msg("capture_failed")
		}
	}
}

// Enqueue schedules a payload for recording. It never blocks and reports false
// when the payload was dropped.
func (q *CaptureQueue) Enqueue(ctx context.Context, requestID, eventType string, body []byte) bool {
	select {
	case q.jobs <- captureJob{ctx: ctx, requestID: requestID, eventType: eventType, body: body}:
		return true
	default:
		q.logger.Warn().
			Str("request_id", requestID).
			Str("type", eventType).
			Msg("capture_dropped")
		return false
	}
}

// Close waits for queued payloads to be recorded. Call it once the server has
// stopped handling requests; Enqueue must not be called afterwards.
func (q *CaptureQueue) Close() {
	close(q.jobs)
	q.wg.Wait()
}

// Capture queues the response body of successful requests to the route
// pattern echoRoute. It runs after the handler and never changes the response.
func Capture(q *CaptureQueue, echoRoute string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}

		if c.Route().Path != echoRoute || c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}

		// The request context ends with the response; keep its values, drop its cancellation.
		ctx := context.WithoutCancel(c.UserContext())
		body := append([]byte(nil), c.Response().Body()...)
		q.Enqueue(ctx, RequestIDFromCtx(c), utils.CopyString(c.Params("type")), body)
		return nil
	}
}
