package routes

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chronomap/chronik/internal/server/middleware"
	"github.com/chronomap/chronik/internal/storage"
	"github.com/chronomap/chronik/pkg/export"
	"github.com/chronomap/chronik/pkg/logger"
	"github.com/chronomap/chronik/pkg/store"
	graphstore "github.com/chronomap/chronik/pkg/store/pgx"
)

func GetGraphsHandler(c echo.Context) error {
	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := graphstore.NewGraphDBStorageWithConnection(conn)

	records, err := st.ListGraphs(ctx)
	if err != nil {
		logger.Error("Failed to list graphs", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, records)
}

// GetGraphHandler returns a graph record, including the stored build result
// once the build has completed.
func GetGraphHandler(c echo.Context) error {
	type getGraphParams struct {
		ID string `param:"id" validate:"required"`
	}

	type getGraphResponse struct {
		Message string             `json:"message"`
		Graph   *store.GraphRecord `json:"graph,omitempty"`
		Result  *export.JSONGraph  `json:"result,omitempty"`
	}

	params := new(getGraphParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getGraphResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getGraphResponse{
			Message: "Invalid request params",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := graphstore.NewGraphDBStorageWithConnection(conn)

	record, err := st.GetGraph(ctx, params.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, getGraphResponse{
				Message: "Graph not found",
			})
		}
		logger.Error("Failed to load graph", "graph", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, getGraphResponse{
			Message: "Internal server error",
		})
	}

	resp := getGraphResponse{
		Message: "Graph found",
		Graph:   record,
	}

	if record.Status == store.StatusCompleted {
		g, err := st.LoadResult(ctx, params.ID)
		if err != nil {
			logger.Error("Failed to load graph result", "graph", params.ID, "err", err)
			return c.JSON(http.StatusInternalServerError, getGraphResponse{
				Message: "Internal server error",
			})
		}
		doc := export.NewJSONGraph(g)
		resp.Result = &doc
	}

	return c.JSON(http.StatusOK, resp)
}

// GetGraphExportHandler renders the stored result as a standalone document,
// JSON by default or Graphviz DOT with ?format=dot.
func GetGraphExportHandler(c echo.Context) error {
	type exportParams struct {
		ID     string `param:"id" validate:"required"`
		Format string `query:"format"`
	}

	params := new(exportParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := graphstore.NewGraphDBStorageWithConnection(conn)

	record, err := st.GetGraph(ctx, params.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Graph not found"})
		}
		logger.Error("Failed to load graph", "graph", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if record.Status != store.StatusCompleted {
		return c.JSON(http.StatusConflict, map[string]string{"error": "Graph build is not completed"})
	}

	g, err := st.LoadResult(ctx, params.ID)
	if err != nil {
		logger.Error("Failed to load graph result", "graph", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	switch params.Format {
	case "", "json":
		data, err := export.JSON(g)
		if err != nil {
			logger.Error("Failed to encode graph export", "graph", params.ID, "err", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}
		return c.Blob(http.StatusOK, "application/json", data)
	case "dot":
		return c.Blob(http.StatusOK, "text/vnd.graphviz", export.DOT(g))
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown export format: " + params.Format})
	}
}

// GetGraphArtifactsHandler returns presigned download links for the S3
// artifacts the worker uploaded for this graph.
func GetGraphArtifactsHandler(c echo.Context) error {
	type artifactsParams struct {
		ID string `param:"id" validate:"required"`
	}

	type artifactLink struct {
		Key string `json:"key"`
		URL string `json:"url"`
	}

	type artifactsResponse struct {
		Message   string         `json:"message"`
		Artifacts []artifactLink `json:"artifacts,omitempty"`
	}

	params := new(artifactsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, artifactsResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, artifactsResponse{
			Message: "Invalid request params",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := graphstore.NewGraphDBStorageWithConnection(conn)

	if _, err := st.GetGraph(ctx, params.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, artifactsResponse{
				Message: "Graph not found",
			})
		}
		logger.Error("Failed to load graph", "graph", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, artifactsResponse{
			Message: "Internal server error",
		})
	}

	s3Client := c.(*middleware.AppContext).App.S3
	if s3Client == nil {
		return c.JSON(http.StatusNotFound, artifactsResponse{
			Message: "No artifacts found",
		})
	}

	keys, err := storage.ListFilesWithPrefix(ctx, s3Client, fmt.Sprintf("graphs/%s/", params.ID))
	if err != nil {
		logger.Error("Failed to list artifacts", "graph", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, artifactsResponse{
			Message: "Internal server error",
		})
	}
	if len(keys) == 0 {
		return c.JSON(http.StatusNotFound, artifactsResponse{
			Message: "No artifacts found",
		})
	}

	links := make([]artifactLink, 0, len(keys))
	for _, key := range keys {
		url, err := storage.GenerateDownloadLink(ctx, s3Client, key)
		if err != nil {
			logger.Error("Failed to presign artifact", "key", key, "err", err)
			return c.JSON(http.StatusInternalServerError, artifactsResponse{
				Message: "Internal server error",
			})
		}
		links = append(links, artifactLink{Key: key, URL: url})
	}

	return c.JSON(http.StatusOK, artifactsResponse{
		Message:   "Artifacts found",
		Artifacts: links,
	})
}
