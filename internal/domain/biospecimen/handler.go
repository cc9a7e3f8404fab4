package biospecimen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// Backend is what the relay needs from an upstream question-answering
// service. *Client satisfies it.
type Backend interface {
	Status(ctx context.Context) (SystemStatus, error)
	Query(ctx context.Context, question string) (*QueryResult, error)
}

// Handler relays /api/status and /api/query to the configured backend so
// browser and console clients can reach it through one origin.
type Handler struct {
	backend Backend
	now     func() time.Time
}

func NewHandler(backend Backend) *Handler {
	return &Handler{backend: backend, now: time.Now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/status", h.Status)
	api.POST("/query", h.Query)
}

func (h *Handler) Status(c echo.Context) error {
	st, err := h.backend.Status(c.Request().Context())
	if err != nil || st != StatusReady {
		body := map[string]string{"status": string(StatusError)}
		if err != nil {
			body["error"] = err.Error()
		}
		return c.JSON(http.StatusServiceUnavailable, body)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": string(StatusReady)})
}

func (h *Handler) Query(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Question) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": ErrEmptyQuestion.Error()})
	}

	start := h.now()
	res, err := h.backend.Query(c.Request().Context(), req.Question)
	if err != nil {
		status := http.StatusBadGateway
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			status = apiErr.Status
		}
		return c.JSON(status, map[string]string{"error": err.Error()})
	}
	if res.ProcessingTime == "" {
		res.ProcessingTime = fmt.Sprintf("%.2fs", h.now().Sub(start).Seconds())
	}
	return c.JSON(http.StatusOK, res)
}
