package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/labstack/echo/v4"
)

func TestLoadMigrations_SortsAndSkips(t *testing.T) {
	files := fstest.MapFS{
		"010_indexes.sql":   {Data: []byte("CREATE INDEX x ON patients (name);")},
		"001_patients.sql":  {Data: []byte("CREATE TABLE patients ();")},
		"README.md":         {Data: []byte("notes")},
		"draft.sql":         {Data: []byte("-- no version")},
		"abc_bad.sql":       {Data: []byte("-- bad prefix")},
		"archive/002_x.sql": {Data: []byte("-- nested")},
	}

	migs, err := LoadMigrations(files)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(migs) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migs))
	}
	if migs[0].Version != 1 || migs[1].Version != 10 {
		t.Errorf("unexpected order: %d, %d", migs[0].Version, migs[1].Version)
	}
	if migs[0].SQL != "CREATE TABLE patients ();" {
		t.Errorf("unexpected SQL %q", migs[0].SQL)
	}
}

func TestLoadMigrations_DuplicateVersion(t *testing.T) {
	files := fstest.MapFS{
		"001_a.sql":  {Data: []byte("")},
		"0001_b.sql": {Data: []byte("")},
	}
	if _, err := LoadMigrations(files); err == nil {
		t.Fatal("expected duplicate version error")
	}
}

func TestMergeStatus(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	migs := []Migration{{Version: 1, Name: "001_patients.sql"}, {Version: 2, Name: "002_more.sql"}}

	st := mergeStatus(migs, map[int]time.Time{1: at})
	if len(st) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(st))
	}
	if !st[0].Applied || st[0].AppliedAt == nil || !st[0].AppliedAt.Equal(at) {
		t.Errorf("expected first applied at %v, got %+v", at, st[0])
	}
	if st[1].Applied || st[1].AppliedAt != nil {
		t.Errorf("expected second pending, got %+v", st[1])
	}
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"healthy", nil, http.StatusOK, "healthy"},
		{"unhealthy", errors.New("connection refused"), http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/db", nil), rec)

			if err := HealthHandler(fakePinger{err: tt.err})(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			var body map[string]interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["status"] != tt.wantBody {
				t.Errorf("expected status %q, got %v", tt.wantBody, body["status"])
			}
			if _, ok := body["pool"]; ok {
				t.Error("pool stats only reported for pgx pools")
			}
		})
	}
}
