package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/recorder/internal/platform/auth"
)

// AuditEntry records who touched which patient record and how.
type AuditEntry struct {
	UserID     string
	Action     string // read, search, create, update, delete, export
	PatientID  string
	Method     string
	Path       string
	IPAddress  string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit logs every request under /patients. Entries go to the given
// recorders, or to logger when none are given.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !strings.HasPrefix(req.URL.Path, "/patients") {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else if !c.Response().Committed {
					status = http.StatusInternalServerError
				}
			}
			rid, _ := c.Get("request_id").(string)

			entry := AuditEntry{
				UserID:     auth.UserIDFromContext(c.Request().Context()),
				Action:     auditAction(req.Method, req.URL.Path),
				PatientID:  c.Param("id"),
				Method:     req.Method,
				Path:       req.URL.Path,
				IPAddress:  c.RealIP(),
				RequestID:  rid,
				StatusCode: status,
				Timestamp:  time.Now().UTC(),
			}
			if entry.UserID == "" {
				entry.UserID = "anonymous"
			}

			if len(recorders) == 0 {
				logger.Info().
					Str("user_id", entry.UserID).
					Str("action", entry.Action).
					Str("patient_id", entry.PatientID).
					Str("request_id", entry.RequestID).
					Int("status", entry.StatusCode).
					Msg("patient record access")
				return err
			}
			for _, r := range recorders {
				if recErr := r.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).Str("request_id", rid).Msg("failed to record audit entry")
				}
			}
			return err
		}
	}
}

func auditAction(method, path string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	}
	path = strings.TrimSuffix(path, "/")
	switch {
	case strings.HasSuffix(path, "/export.csv"):
		return "export"
	case path == "/patients":
		return "search"
	default:
		return "read"
	}
}
