package pgx

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/chronomap/chronik/internal/util"
	"github.com/chronomap/chronik/pkg/graph"
	"github.com/chronomap/chronik/pkg/logger"
	"github.com/chronomap/chronik/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
)

const errorMessageLimit = 2000

// nationRow is one nations table row. Both directions of the persistence
// mapping go through it so a graph survives the round trip unchanged.
type nationRow struct {
	Title            string
	Name             string
	StartYear        *int
	EndYear          *int
	SourceArticle    string
	Subdivision      bool
	Precursors       []string
	Successors       []string
	ParentCandidates []string
}

// SaveResult replaces the stored traversal result of a graph in one
// transaction. Rows are deleted and rewritten rather than diffed; a build
// produces the full result at once.
func (s *GraphDBStorage) SaveResult(ctx context.Context, publicID string, g *graph.Graph) error {
	graphID, err := s.graphID(ctx, publicID)
	if err != nil {
		return err
	}

	stats := g.Stats()
	logger.Debug("[Store] Saving graph result",
		"public_id", publicID,
		"nations", stats.Nations,
		"subdivisions", stats.Subdivisions,
		"synonyms", stats.Synonyms,
		"errors", stats.Errors,
	)

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"nations", "synonyms", "build_errors"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE graph_id = $1", graphID); err != nil {
			return fmt.Errorf("save result: clear %s: %w", table, err)
		}
	}

	for _, row := range nationRows(g) {
		_, err := tx.Exec(ctx,
			`INSERT INTO nations (graph_id, title, name, start_year, end_year,
			                      source_article, subdivision, precursors,
			                      successors, parent_candidates)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			graphID,
			util.SanitizePostgresText(row.Title),
			util.SanitizePostgresText(row.Name),
			row.StartYear,
			row.EndYear,
			util.SanitizePostgresText(row.SourceArticle),
			row.Subdivision,
			row.Precursors,
			row.Successors,
			row.ParentCandidates,
		)
		if err != nil {
			return fmt.Errorf("save result: nation %q: %w", row.Title, err)
		}
	}

	aliases := make([]string, 0, len(g.Synonyms))
	for alias := range g.Synonyms {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		_, err := tx.Exec(ctx,
			"INSERT INTO synonyms (graph_id, alias, target) VALUES ($1, $2, $3)",
			graphID, util.SanitizePostgresText(alias), util.SanitizePostgresText(g.Synonyms[alias]),
		)
		if err != nil {
			return fmt.Errorf("save result: synonym %q: %w", alias, err)
		}
	}

	titles := make([]string, 0, len(g.Errors))
	for title := range g.Errors {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	for _, title := range titles {
		pageErr := g.Errors[title]
		_, err := tx.Exec(ctx,
			"INSERT INTO build_errors (graph_id, title, kind, message) VALUES ($1, $2, $3, $4)",
			graphID,
			util.SanitizePostgresText(title),
			graph.ErrorKind(pageErr),
			util.SanitizePostgresText(util.ClampRunes(pageErr.Error(), errorMessageLimit)),
		)
		if err != nil {
			return fmt.Errorf("save result: error row %q: %w", title, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

// LoadResult rebuilds the stored traversal result of a graph. Page errors
// come back as *graph.StoredError.
func (s *GraphDBStorage) LoadResult(ctx context.Context, publicID string) (*graph.Graph, error) {
	graphID, err := s.graphID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	g := graph.NewGraph(nil)

	rows, err := s.conn.Query(ctx,
		`SELECT title, name, start_year, end_year, source_article, subdivision,
		        precursors, successors, parent_candidates
		 FROM nations WHERE graph_id = $1`,
		graphID,
	)
	if err != nil {
		return nil, fmt.Errorf("load result: nations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var row nationRow
		err := rows.Scan(
			&row.Title, &row.Name, &row.StartYear, &row.EndYear,
			&row.SourceArticle, &row.Subdivision,
			&row.Precursors, &row.Successors, &row.ParentCandidates,
		)
		if err != nil {
			return nil, fmt.Errorf("load result: nations: %w", err)
		}
		applyNationRow(g, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load result: nations: %w", err)
	}

	synonymRows, err := s.conn.Query(ctx,
		"SELECT alias, target FROM synonyms WHERE graph_id = $1", graphID,
	)
	if err != nil {
		return nil, fmt.Errorf("load result: synonyms: %w", err)
	}
	defer synonymRows.Close()
	for synonymRows.Next() {
		var alias, target string
		if err := synonymRows.Scan(&alias, &target); err != nil {
			return nil, fmt.Errorf("load result: synonyms: %w", err)
		}
		g.Synonyms[alias] = target
	}
	if err := synonymRows.Err(); err != nil {
		return nil, fmt.Errorf("load result: synonyms: %w", err)
	}

	errorRows, err := s.conn.Query(ctx,
		"SELECT title, kind, message FROM build_errors WHERE graph_id = $1", graphID,
	)
	if err != nil {
		return nil, fmt.Errorf("load result: errors: %w", err)
	}
	defer errorRows.Close()
	for errorRows.Next() {
		var title string
		stored := &graph.StoredError{}
		if err := errorRows.Scan(&title, &stored.Kind, &stored.Message); err != nil {
			return nil, fmt.Errorf("load result: errors: %w", err)
		}
		g.AddError(title, stored)
	}
	if err := errorRows.Err(); err != nil {
		return nil, fmt.Errorf("load result: errors: %w", err)
	}

	return g, nil
}

func (s *GraphDBStorage) graphID(ctx context.Context, publicID string) (int64, error) {
	var id int64
	err := s.conn.QueryRow(ctx, "SELECT id FROM graphs WHERE public_id = $1", publicID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return 0, store.ErrNotFound
		}
		return 0, fmt.Errorf("resolve graph id: %w", err)
	}
	return id, nil
}

// nationRows flattens the graph's node maps into insertable rows sorted by
// title. Edge sets become sorted slices.
func nationRows(g *graph.Graph) []nationRow {
	rows := make([]nationRow, 0, len(g.Nations)+len(g.Subdivisions))
	for title, node := range g.Nations {
		rows = append(rows, nationRow{
			Title:         title,
			Name:          node.Value.Name,
			StartYear:     node.Value.StartYear,
			EndYear:       node.Value.EndYear,
			SourceArticle: node.Value.SourceArticle,
			Precursors:    sortedSet(node.Precursors),
			Successors:    sortedSet(node.Successors),
		})
	}
	for title, sub := range g.Subdivisions {
		rows = append(rows, nationRow{
			Title:            title,
			Name:             sub.Value.Name,
			StartYear:        sub.Value.StartYear,
			EndYear:          sub.Value.EndYear,
			SourceArticle:    sub.Value.SourceArticle,
			Subdivision:      true,
			Precursors:       sortedSet(sub.Precursors),
			Successors:       sortedSet(sub.Successors),
			ParentCandidates: sub.ParentCandidates,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Title < rows[j].Title })
	return rows
}

// applyNationRow puts one stored row back into the graph as the node it was
// saved from.
func applyNationRow(g *graph.Graph, row nationRow) {
	node := graph.NationNode{
		Value: graph.NationValue{
			Name:          row.Name,
			StartYear:     row.StartYear,
			EndYear:       row.EndYear,
			SourceArticle: row.SourceArticle,
		},
		Precursors: make(map[string]struct{}, len(row.Precursors)),
		Successors: make(map[string]struct{}, len(row.Successors)),
	}
	for _, name := range row.Precursors {
		node.Precursors[name] = struct{}{}
	}
	for _, name := range row.Successors {
		node.Successors[name] = struct{}{}
	}

	if row.Subdivision {
		g.Subdivisions[row.Title] = &graph.SubdivisionNode{
			NationNode:       node,
			ParentCandidates: row.ParentCandidates,
		}
		return
	}
	g.Nations[row.Title] = &node
}

func sortedSet(set map[string]struct{}) []string {
	values := make([]string, 0, len(set))
	for value := range set {
		values = append(values, value)
	}
	sort.Strings(values)
	return values
}
