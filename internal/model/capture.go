package model

import "time"

// Capture is the ledger entry for one archived echo payload.
// The payload bytes live in object storage under StoragePath.
type Capture struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id"`
	Type        string    `json:"type"`
	StoragePath string    `json:"storage_path"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}
