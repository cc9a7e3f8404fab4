package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/recorder/internal/platform/auth"
)

func TestAuditAction(t *testing.T) {
	tests := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/patients", "search"},
		{http.MethodGet, "/patients/", "search"},
		{http.MethodGet, "/patients/abc", "read"},
		{http.MethodGet, "/patients/export.csv", "export"},
		{http.MethodPost, "/patients", "create"},
		{http.MethodPut, "/patients/abc", "update"},
		{http.MethodPatch, "/patients/abc", "update"},
		{http.MethodDelete, "/patients/abc", "delete"},
	}
	for _, tt := range tests {
		if got := auditAction(tt.method, tt.path); got != tt.want {
			t.Errorf("auditAction(%s %s) = %q, want %q", tt.method, tt.path, got, tt.want)
		}
	}
}

func TestAudit_RecordsPatientAccess(t *testing.T) {
	var got []AuditEntry
	rec := AuditRecorderFunc(func(e AuditEntry) error {
		got = append(got, e)
		return nil
	})

	e := echo.New()
	e.Use(RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := context.WithValue(c.Request().Context(), auth.UserIDKey, "clinician-7")
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})
	e.Use(Audit(zerolog.Nop(), rec))
	e.DELETE("/patients/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, r := range []*http.Request{
		httptest.NewRequest(http.MethodDelete, "/patients/42", nil),
		httptest.NewRequest(http.MethodGet, "/health", nil),
	} {
		e.ServeHTTP(httptest.NewRecorder(), r)
	}

	if len(got) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(got))
	}
	entry := got[0]
	if entry.UserID != "clinician-7" || entry.Action != "delete" || entry.PatientID != "42" {
		t.Errorf("unexpected entry %+v", entry)
	}
	if entry.StatusCode != http.StatusOK || entry.RequestID == "" {
		t.Errorf("expected status and request id, got %+v", entry)
	}
}

func TestAudit_AnonymousAndRecorderFailure(t *testing.T) {
	var got AuditEntry
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/patients", nil), httptest.NewRecorder())

	failing := AuditRecorderFunc(func(AuditEntry) error { return errors.New("disk full") })
	capture := AuditRecorderFunc(func(e AuditEntry) error { got = e; return nil })

	handler := func(c echo.Context) error { return echo.NewHTTPError(http.StatusNotFound) }
	err := Audit(zerolog.Nop(), failing, capture)(handler)(c)

	if err == nil {
		t.Fatal("handler error should pass through")
	}
	if got.UserID != "anonymous" || got.StatusCode != http.StatusNotFound {
		t.Errorf("unexpected entry %+v", got)
	}
}

func TestAudit_PlainErrorRecordedAs500(t *testing.T) {
	var got AuditEntry
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/patients", nil), httptest.NewRecorder())

	capture := AuditRecorderFunc(func(e AuditEntry) error { got = e; return nil })
	handler := func(c echo.Context) error { return errors.New("store offline") }

	if err := Audit(zerolog.Nop(), capture)(handler)(c); err == nil {
		t.Fatal("handler error should pass through")
	}
	if got.StatusCode != http.StatusInternalServerError || got.Action != "create" {
		t.Errorf("unexpected entry %+v", got)
	}
}
