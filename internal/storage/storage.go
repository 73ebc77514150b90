// Package storage archives captured payloads in an S3-compatible bucket.
//
// Every payload is one JSON object stored under
//
//	captures/<event type>/<capture id>.json
//
// with the request ID and event type attached as object metadata, so a bucket
// listing can be traced back to requests without the ledger.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

const (
	keyPrefix          = "captures"
	payloadContentType = "application/json"

	metaRequestID = "Request-Id"
	metaEventType = "Event-Type"
)

var (
	ErrEmptyPayload   = errors.New("payload body is empty")
	ErrObjectNotFound = errors.New("payload object not found")
)

// Payload is one echoed body to archive.
type Payload struct {
	CaptureID string
	RequestID string
	EventType string
	Body      []byte
}

// Stored describes an archived payload.
type Stored struct {
	Key         string
	Size        int64
	ETag        string
	ContentType string
	RequestID   string
	EventType   string
	StoredAt    time.Time
}

// Archive stores and serves captured payloads.
type Archive interface {
	// Put uploads p under PayloadKey(p.EventType, p.CaptureID).
	Put(ctx context.Context, p Payload) (Stored, error)
	// Open streams an archived payload. A missing key yields ErrObjectNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, Stored, error)
	// Remove deletes an archived payload.
	Remove(ctx context.Context, key string) error
	// DownloadURL presigns a GET for key that expires after expiry.
	DownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// PayloadKey returns the object key of a capture. Event types come straight
// from the request path, so anything outside [A-Za-z0-9_-] becomes '_' and the
// key can never leave its prefix.
func PayloadKey(eventType, captureID string) string {
	return path.Join(keyPrefix, keySegment(eventType), keySegment(captureID)+".json")
}

func keySegment(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

// metadata builds the user metadata attached to an uploaded payload.
func (p Payload) metadata() map[string]string {
	return map[string]string{
		metaRequestID: p.RequestID,
		metaEventType: p.EventType,
	}
}

// lookupMeta finds a metadata value regardless of how the backend cased its key.
func lookupMeta(meta map[string]string, key string) string {
	for k, v := range meta {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
