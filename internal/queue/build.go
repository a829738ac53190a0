package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chronomap/chronik/internal/storage"
	"github.com/chronomap/chronik/internal/util"
	"github.com/chronomap/chronik/pkg/export"
	"github.com/chronomap/chronik/pkg/fetch"
	"github.com/chronomap/chronik/pkg/graph"
	"github.com/chronomap/chronik/pkg/leaselock"
	"github.com/chronomap/chronik/pkg/logger"
	"github.com/chronomap/chronik/pkg/store"
	graphstore "github.com/chronomap/chronik/pkg/store/pgx"
)

// BuildMessage is the payload published to the build queue. Seeds and name
// live on the graph record, not on the message.
type BuildMessage struct {
	PublicID string `json:"public_id"`
}

// ProcessBuildMessage runs one graph build end to end: lease, traversal,
// persistence, artifact upload. A returned error sends the message down the
// retry/DLQ path.
func ProcessBuildMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	conn *pgxpool.Pool,
	msg string,
) (err error) {
	data := new(BuildMessage)
	if err = json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("decode build message: %w", err)
	}
	if data.PublicID == "" {
		logger.Warn("[Queue] Build message without public_id, dropping")
		return nil
	}

	st := graphstore.NewGraphDBStorageWithConnection(conn)

	defer func() {
		if err == nil || errors.Is(err, leaselock.ErrBusy) {
			return
		}
		updateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if updateErr := st.SetGraphStatus(updateCtx, data.PublicID, store.StatusFailed, err.Error()); updateErr != nil {
			logger.Warn("[Queue] Failed to mark graph as failed", "graph", data.PublicID, "err", updateErr)
		}
	}()

	record, err := st.GetGraph(ctx, data.PublicID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Warn("[Queue] Graph record gone, dropping build", "graph", data.PublicID)
			return nil
		}
		return err
	}

	locks := leaselock.New(conn)
	return locks.WithLease(ctx, "graph:"+data.PublicID, leaselock.Options{
		TTL:         10 * time.Minute,
		RenewEvery:  4 * time.Minute,
		TokenPrefix: "worker-",
	}, func(ctx context.Context) error {
		return runBuild(ctx, st, s3Client, record)
	})
}

func runBuild(ctx context.Context, st *graphstore.GraphDBStorage, s3Client *awss3.Client, record *store.GraphRecord) error {
	publicID := record.PublicID
	if err := st.SetGraphStatus(ctx, publicID, store.StatusBuilding, ""); err != nil {
		return err
	}

	fetcher := fetch.NewMediaWikiClient(fetch.NewMediaWikiClientParams{
		BaseURL:    util.GetEnvString("WIKI_API_URL", "https://en.wikipedia.org/w/api.php"),
		UserAgent:  util.GetEnvString("WIKI_USER_AGENT", "chronik/1.0"),
		MaxRetries: int(util.GetEnvNumeric("FETCH_MAX_RETRIES", 5)),
	})
	builder := graph.NewBuilder(graph.NewBuilderParams{
		Fetcher:         fetcher,
		ParallelFetches: int(util.GetEnvNumeric("BUILD_PARALLEL_FETCHES", 8)),
	})

	started := time.Now()
	g, buildErr := builder.Build(ctx, record.Seeds)

	m := fetcher.GetMetrics()
	logger.Info(
		"[Queue] Fetch metrics",
		"graph", publicID,
		"requests", m.Requests,
		"pages_fetched", m.PagesFetched,
		"cache_hits", m.CacheHits,
		"failures", m.Failures,
		"fetch_duration", m.TotalDuration.Round(time.Millisecond),
		"build_duration", time.Since(started).Round(time.Millisecond),
	)
	if buildErr != nil {
		return buildErr
	}

	if err := st.SaveResult(ctx, publicID, g); err != nil {
		return err
	}
	if err := st.SetGraphStatus(ctx, publicID, store.StatusCompleted, ""); err != nil {
		return err
	}

	uploadArtifacts(ctx, s3Client, publicID, g)
	return nil
}

// uploadArtifacts is best effort. The graph is already persisted and both
// exports can be regenerated from the store at any time.
func uploadArtifacts(ctx context.Context, s3Client *awss3.Client, publicID string, g *graph.Graph) {
	if s3Client == nil || util.GetEnv("AWS_BUCKET") == "" {
		return
	}

	prefix := fmt.Sprintf("graphs/%s", publicID)

	if jsonBytes, err := export.JSON(g); err != nil {
		logger.Error("[Queue] Failed to encode JSON artifact", "graph", publicID, "err", err)
	} else if err := storage.PutFile(ctx, s3Client, prefix+"/graph.json", "application/json", jsonBytes); err != nil {
		logger.Error("[Queue] Failed to upload JSON artifact", "graph", publicID, "err", err)
	}

	if err := storage.PutFile(ctx, s3Client, prefix+"/graph.dot", "text/vnd.graphviz", export.DOT(g)); err != nil {
		logger.Error("[Queue] Failed to upload DOT artifact", "graph", publicID, "err", err)
	}
}
