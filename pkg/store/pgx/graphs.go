package pgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/chronomap/chronik/internal/util"
	"github.com/chronomap/chronik/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
)

const graphColumns = "id, public_id, name, status, seeds, error, created_at, updated_at"

// CreateGraph inserts a new graph record in status queued.
func (s *GraphDBStorage) CreateGraph(ctx context.Context, params store.CreateGraphParams) (*store.GraphRecord, error) {
	record := store.GraphRecord{
		PublicID: params.PublicID,
		Name:     util.SanitizePostgresText(params.Name),
		Status:   store.StatusQueued,
		Seeds:    params.Seeds,
	}

	err := s.conn.QueryRow(ctx,
		`INSERT INTO graphs (public_id, name, status, seeds)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		record.PublicID, record.Name, record.Status, record.Seeds,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create graph: %w", err)
	}
	return &record, nil
}

// GetGraph loads a graph record by its public ID.
func (s *GraphDBStorage) GetGraph(ctx context.Context, publicID string) (*store.GraphRecord, error) {
	row := s.conn.QueryRow(ctx,
		"SELECT "+graphColumns+" FROM graphs WHERE public_id = $1",
		publicID,
	)
	record, err := scanGraphRecord(row)
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get graph: %w", err)
	}
	return record, nil
}

// ListGraphs returns every graph record, newest first.
func (s *GraphDBStorage) ListGraphs(ctx context.Context) ([]store.GraphRecord, error) {
	rows, err := s.conn.Query(ctx,
		"SELECT "+graphColumns+" FROM graphs ORDER BY created_at DESC, id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}
	defer rows.Close()

	records := make([]store.GraphRecord, 0)
	for rows.Next() {
		record, err := scanGraphRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list graphs: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}
	return records, nil
}

// SetGraphStatus moves a graph record to a new lifecycle status. buildError
// holds the failure message when the status is failed, otherwise it clears.
func (s *GraphDBStorage) SetGraphStatus(ctx context.Context, publicID string, status store.GraphStatus, buildError string) error {
	tag, err := s.conn.Exec(ctx,
		`UPDATE graphs SET status = $2, error = $3, updated_at = now() WHERE public_id = $1`,
		publicID, status, util.SanitizePostgresText(util.ClampRunes(buildError, 2000)),
	)
	if err != nil {
		return fmt.Errorf("set graph status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteGraph removes a graph record; the result tables cascade.
func (s *GraphDBStorage) DeleteGraph(ctx context.Context, publicID string) error {
	tag, err := s.conn.Exec(ctx, "DELETE FROM graphs WHERE public_id = $1", publicID)
	if err != nil {
		return fmt.Errorf("delete graph: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGraphRecord(row rowScanner) (*store.GraphRecord, error) {
	var record store.GraphRecord
	err := row.Scan(
		&record.ID,
		&record.PublicID,
		&record.Name,
		&record.Status,
		&record.Seeds,
		&record.Error,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
