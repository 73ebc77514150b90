package postgres

import (
	"context"
	"database/sql"

	"trackapi/internal/model"
	"trackapi/internal/repository"
)

// CapturePostgres is a PostgreSQL implementation of repository.CaptureRepository.
type CapturePostgres struct {
	db *sql.DB
}

// NewCapturePostgres creates a new CapturePostgres repository.
func NewCapturePostgres(db *sql.DB) *CapturePostgres {
	return &CapturePostgres{db: db}
}

var _ repository.CaptureRepository = (*CapturePostgres)(nil)

const captureColumns = `id, request_id, type, storage_path, size, content_type, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCapture(s scanner) (*model.Capture, error) {
	var c model.Capture
	if err := s.Scan(
		&c.ID,
		&c.RequestID,
		&c.Type,
		&c.StoragePath,
		&c.Size,
		&c.ContentType,
		&c.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new capture row and returns the stored record.
func (r *CapturePostgres) Create(ctx context.Context, c *model.Capture) (*model.Capture, error) {
	const q = `
		INSERT INTO captures (` + captureColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + captureColumns

	row := r.db.QueryRowContext(ctx, q,
		c.ID,
		c.RequestID,
		c.Type,
		c.StoragePath,
		c.Size,
		c.ContentType,
		c.CreatedAt,
	)
	return scanCapture(row)
}

// FindByID fetches a single capture by its ID.
func (r *CapturePostgres) FindByID(ctx context.Context, id string) (*model.Capture, error) {
	const q = `SELECT ` + captureColumns + ` FROM captures WHERE id = $1`
	return scanCapture(r.db.QueryRowContext(ctx, q, id))
}

// List returns captures using LIMIT/OFFSET pagination and a total count.
func (r *CapturePostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Capture], error) {
	const qCount = `SELECT COUNT(*) FROM captures`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + captureColumns + `
		FROM captures
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Capture, 0)
	for rows.Next() {
		c, err := scanCapture(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Capture]{
		Items: items,
		Total: total,
	}, nil
}

// Delete removes a capture by ID. It does not return an error if the row does not exist.
func (r *CapturePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM captures WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
