package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/chronomap/chronik/internal/queue"
	"github.com/chronomap/chronik/internal/server/middleware"
	"github.com/chronomap/chronik/internal/util"
	"github.com/chronomap/chronik/pkg/logger"
	"github.com/chronomap/chronik/pkg/store"
	graphstore "github.com/chronomap/chronik/pkg/store/pgx"
)

// CreateGraphHandler records a new graph and queues its build.
func CreateGraphHandler(c echo.Context) error {
	type createGraphBody struct {
		Name  string   `json:"name" validate:"required"`
		Seeds []string `json:"seeds" validate:"required,min=1,dive,required"`
	}

	type createGraphResponse struct {
		Message string             `json:"message"`
		Graph   *store.GraphRecord `json:"graph,omitempty"`
	}

	data := new(createGraphBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createGraphResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createGraphResponse{
			Message: "Invalid request body",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := graphstore.NewGraphDBStorageWithConnection(conn)

	publicID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createGraphResponse{
			Message: "Internal server error",
		})
	}

	record, err := st.CreateGraph(ctx, store.CreateGraphParams{
		PublicID: publicID,
		Name:     data.Name,
		Seeds:    util.DedupeStrings(data.Seeds),
	})
	if err != nil {
		logger.Error("Failed to create graph", "err", err)
		return c.JSON(http.StatusInternalServerError, createGraphResponse{
			Message: "Internal server error",
		})
	}

	payload, _ := json.Marshal(queue.BuildMessage{PublicID: record.PublicID})
	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.BuildQueue, payload); err != nil {
		logger.Error("Failed to publish to build_queue", "graph", record.PublicID, "err", err)
	}

	return c.JSON(http.StatusAccepted, createGraphResponse{
		Message: "Graph build queued",
		Graph:   record,
	})
}
