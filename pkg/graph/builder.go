package graph

import (
	"context"

	"github.com/chronomap/chronik/pkg/fetch"
	"github.com/chronomap/chronik/pkg/infobox"
	"github.com/chronomap/chronik/pkg/logger"
	"github.com/chronomap/chronik/pkg/wikitext"

	"golang.org/x/sync/errgroup"
)

const defaultParallelFetches = 8

// Builder grows a Graph from seed titles by walking the predecessor and
// successor references between articles.
//
// A Builder should be created using NewBuilder.
type Builder struct {
	fetcher         fetch.PageFetcher
	parser          *wikitext.Parser
	parallelFetches int
}

// NewBuilderParams defines the configuration parameters for creating a new
// Builder.
//
// Fetcher supplies raw page markup per title.
// Parser overrides the default markup parser; leaving it nil uses the
// default nesting limit.
// ParallelFetches controls how many titles are fetched concurrently per
// wave. Defaults to 8.
type NewBuilderParams struct {
	Fetcher         fetch.PageFetcher
	Parser          *wikitext.Parser
	ParallelFetches int
}

// NewBuilder creates and returns a new Builder configured with the provided
// parameters.
func NewBuilder(params NewBuilderParams) *Builder {
	parallelFetches := params.ParallelFetches
	if parallelFetches <= 0 {
		parallelFetches = defaultParallelFetches
	}
	parser := params.Parser
	if parser == nil {
		parser = wikitext.NewParser(wikitext.NewParserParams{})
	}
	return &Builder{
		fetcher:         params.Fetcher,
		parser:          parser,
		parallelFetches: parallelFetches,
	}
}

// Build traverses the article graph starting from the seed titles until the
// worklist drains. When ctx ends early it returns the graph assembled so
// far together with ctx.Err(); the graph is consistent either way.
func (b *Builder) Build(ctx context.Context, seeds []string) (*Graph, error) {
	g := NewGraph(seeds)
	err := b.Run(ctx, g)
	return g, err
}

// Run drains g's worklist in waves. Each wave dequeues up to
// ParallelFetches unresolved titles, processes them concurrently, then
// applies the outcomes serially on this goroutine, so the resolved-check
// and map insertion of one title never interleave with another's.
func (b *Builder) Run(ctx context.Context, g *Graph) error {
	logger.Info("[Graph] Traversal started",
		"pending", g.PendingCount(),
		"parallel_fetches", b.parallelFetches,
	)

	waves := 0
	for {
		if err := ctx.Err(); err != nil {
			logger.Warn("[Graph] Traversal canceled", "waves", waves, "pending", g.PendingCount())
			return err
		}

		batch := g.takeBatch(b.parallelFetches)
		if len(batch) == 0 {
			break
		}
		waves++

		outcomes := make([]outcome, len(batch))
		eg, gCtx := errgroup.WithContext(ctx)
		eg.SetLimit(b.parallelFetches)
		for i, title := range batch {
			idx, t := i, title
			eg.Go(func() error {
				select {
				case <-gCtx.Done():
					outcomes[idx] = outcome{title: t, aborted: true}
					return nil
				default:
					outcomes[idx] = b.processTitle(gCtx, t)
					return nil
				}
			})
		}
		// Workers never return errors; the outcomes carry them.
		_ = eg.Wait()

		for _, out := range outcomes {
			b.apply(g, out)
		}
	}

	stats := g.Stats()
	logger.Info("[Graph] Traversal complete",
		"waves", waves,
		"nations", stats.Nations,
		"subdivisions", stats.Subdivisions,
		"synonyms", stats.Synonyms,
		"errors", stats.Errors,
	)
	return nil
}

// outcome is the result of processing one title, produced concurrently and
// applied serially. Exactly one of err, redirect and box is set unless the
// title was aborted by cancellation.
type outcome struct {
	title    string
	aborted  bool
	err      error
	redirect string
	box      *infobox.Infobox
}

// processTitle runs the fetch, parse, redirect and extract pipeline for one
// title. It touches no graph state, so any number of titles can run
// concurrently.
func (b *Builder) processTitle(ctx context.Context, title string) outcome {
	raw, err := b.fetcher.FetchPage(ctx, title)
	if err != nil {
		if ctx.Err() != nil {
			// The fetch lost a race with cancellation. The title goes back
			// on the worklist instead of being recorded as failed.
			return outcome{title: title, aborted: true}
		}
		return outcome{title: title, err: err}
	}

	doc, err := b.parser.Parse(raw)
	if err != nil {
		return outcome{title: title, err: err}
	}

	if target, ok := wikitext.RedirectTarget(doc); ok {
		return outcome{title: title, redirect: target}
	}

	box, err := infobox.Extract(doc)
	if err != nil {
		return outcome{title: title, err: err}
	}
	return outcome{title: title, box: box}
}

// apply folds one outcome into the graph. Aborted titles are requeued; the
// Known re-check drops a title that another outcome already resolved.
func (b *Builder) apply(g *Graph, out outcome) {
	if out.aborted {
		g.Enqueue(out.title)
		return
	}
	if g.Known(out.title) {
		return
	}

	switch {
	case out.err != nil:
		logger.Debug("[Graph] Page failed",
			"title", out.title,
			"kind", ErrorKind(out.err),
			"error", out.err,
		)
		g.AddError(out.title, out.err)
	case out.redirect != "":
		g.AddSynonym(out.title, out.redirect)
	default:
		g.AddNation(out.title, out.box)
	}
}
