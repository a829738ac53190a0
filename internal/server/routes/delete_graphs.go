package routes

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chronomap/chronik/internal/server/middleware"
	"github.com/chronomap/chronik/internal/storage"
	"github.com/chronomap/chronik/pkg/logger"
	"github.com/chronomap/chronik/pkg/store"
	graphstore "github.com/chronomap/chronik/pkg/store/pgx"
)

// DeleteGraphHandler deletes a graph record, its stored result and any
// uploaded artifacts.
func DeleteGraphHandler(c echo.Context) error {
	type deleteGraphParams struct {
		ID string `param:"id" validate:"required"`
	}

	type deleteGraphResponse struct {
		Message string `json:"message"`
	}

	params := new(deleteGraphParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteGraphResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteGraphResponse{
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

	if err := st.DeleteGraph(ctx, params.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, deleteGraphResponse{
				Message: "Graph not found",
			})
		}
		logger.Error("Failed to delete graph", "graph", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, deleteGraphResponse{
			Message: "Internal server error",
		})
	}

	s3Client := c.(*middleware.AppContext).App.S3
	if s3Client != nil {
		if err := storage.DeleteFolder(ctx, s3Client, fmt.Sprintf("graphs/%s", params.ID)); err != nil {
			logger.Error("Failed to delete graph artifacts", "graph", params.ID, "err", err)
		}
	}

	return c.JSON(http.StatusOK, deleteGraphResponse{
		Message: "Graph deleted",
	})
}
