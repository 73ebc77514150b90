package middleware

import (
	"errors"
	"mime"
	"strings"

	"github.com/gofiber/fiber/v2"

	"trackapi/internal/payload"
)

// PayloadLocalKey is the key under which JSONBody stores the decoded body.
const PayloadLocalKey = "payload"

// JSONBody decodes the request body into a payload.Value before the route handler runs.
//
// Behavior:
// - JSON content type (application/json or application/*+json) with a body: parsed; malformed input is a 400.
// - JSON content type without a body, or any other content type: the empty object.
func JSONBody() fiber.Handler {
	return func(c *fiber.Ctx) error {
		v := payload.EmptyObject()

		if isJSON(string(c.Request().Header.ContentType())) {
			parsed, err := payload.Parse(c.Body())
			switch {
			case err == nil:
				v = parsed
			case errors.Is(err, payload.ErrEmpty):
			default:
				return fiber.NewError(fiber.StatusBadRequest, "malformed JSON body")
			}
		}

		c.Locals(PayloadLocalKey, v)
		return c.Next()
	}
}

// Payload returns the value decoded by JSONBody, or the empty object when none was stored.
func Payload(c *fiber.Ctx) payload.Value {
	if v, ok := c.Locals(PayloadLocalKey).(payload.Value); ok {
		return v
	}
	return payload.EmptyObject()
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == fiber.MIMEApplicationJSON || strings.HasSuffix(mediaType, "+json")
}
