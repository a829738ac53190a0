package store

import (
	"context"
	"errors"
	"time"

	"github.com/chronomap/chronik/pkg/graph"
)

// ErrNotFound is returned when no graph exists under the requested public
// ID.
var ErrNotFound = errors.New("graph not found")

// GraphStatus tracks a graph record through its build lifecycle.
type GraphStatus string

const (
	StatusQueued    GraphStatus = "queued"
	StatusBuilding  GraphStatus = "building"
	StatusCompleted GraphStatus = "completed"
	StatusFailed    GraphStatus = "failed"
)

// GraphRecord is the stored metadata of one graph. The traversal result
// itself lives in separate tables and is loaded through LoadResult.
type GraphRecord struct {
	ID        int64       `json:"-"`
	PublicID  string      `json:"id"`
	Name      string      `json:"name"`
	Status    GraphStatus `json:"status"`
	Seeds     []string    `json:"seeds"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// CreateGraphParams defines the fields of a new graph record.
type CreateGraphParams struct {
	PublicID string
	Name     string
	Seeds    []string
}

// GraphStore defines the interface for persisting graph records and their
// build results.
type GraphStore interface {
	CreateGraph(ctx context.Context, params CreateGraphParams) (*GraphRecord, error)
	GetGraph(ctx context.Context, publicID string) (*GraphRecord, error)
	ListGraphs(ctx context.Context) ([]GraphRecord, error)
	SetGraphStatus(ctx context.Context, publicID string, status GraphStatus, buildError string) error
	DeleteGraph(ctx context.Context, publicID string) error

	// SaveResult replaces the stored traversal result of a graph with g's
	// nodes, synonyms and page errors in one transaction.
	SaveResult(ctx context.Context, publicID string, g *graph.Graph) error
	// LoadResult rebuilds the stored traversal result. Page errors come
	// back as graph.StoredError values.
	LoadResult(ctx context.Context, publicID string) (*graph.Graph, error)
}
