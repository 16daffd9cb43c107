package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AnTengye/projectbrief/model"
	"github.com/AnTengye/projectbrief/service"
	"github.com/gin-gonic/gin"
)

func seedRows(t *testing.T, app *testApp) {
	t.Helper()
	ctx := context.Background()
	for _, r := range []struct{ name, date string }{
		{"middle", "2026-02-01T00:00:00Z"},
		{"oldest", "2026-01-01T00:00:00Z"},
		{"newest", "2026-03-01T00:00:00Z"},
	} {
		if _, err := app.records.Insert(ctx, model.PersistedRow{ProjectName: r.name, Summary: "s", SubmissionDate: r.date}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
}

func TestAdminHandlerList(t *testing.T) {
	app := newTestApp(t)
	seedRows(t, app)

	w := app.do(t, http.MethodGet, "/api/admin/submissions?admin="+testAdminSecret, "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	resp := decode[struct {
		Submissions []model.PersistedRow `json:"submissions"`
		Count       int                  `json:"count"`
	}](t, w)

	if resp.Count != 3 {
		t.Fatalf("Expected 3 rows, got %d", resp.Count)
	}
	for i, want := range []string{"newest", "middle", "oldest"} {
		if resp.Submissions[i].ProjectName != want {
			t.Errorf("rows[%d] = %s, want %s", i, resp.Submissions[i].ProjectName, want)
		}
	}
}

func TestAdminHandlerDenied(t *testing.T) {
	app := newTestApp(t)
	seedRows(t, app)

	tests := []struct {
		name string
		path string
	}{
		{"no token", "/api/admin/submissions"},
		{"wrong token", "/api/admin/submissions?admin=guess"},
		{"wrong key", "/api/admin/submissions?token=" + testAdminSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(t, http.MethodGet, tt.path, "", nil)

			if w.Code != http.StatusNotFound {
				t.Errorf("Expected status 404, got %d", w.Code)
			}
			if w.Body.Len() != 0 {
				t.Errorf("Expected empty body, got %q", w.Body.String())
			}
		})
	}
}

func TestAdminHandlerEmptySecretDenies(t *testing.T) {
	app := newTestApp(t)
	h := NewAdminHandler(service.NewAdminGate("", app.records), "admin")

	router := gin.New()
	router.GET("/admin", h.List)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin?admin=", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

type brokenStore struct{}

func (brokenStore) Insert(context.Context, model.PersistedRow) (string, error) {
	return "", errors.New("unused")
}

func (brokenStore) SelectAll(context.Context) ([]model.PersistedRow, error) {
	return nil, &model.StoreError{Op: "select", Err: errors.New("no such table: submissions")}
}

func TestAdminHandlerStoreError(t *testing.T) {
	h := NewAdminHandler(service.NewAdminGate(testAdminSecret, brokenStore{}), "admin")
	router := gin.New()
	router.GET("/admin", h.List)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin?admin="+testAdminSecret, nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}
	resp := decode[map[string]model.Banner](t, w)
	if resp["banner"].Message != "record store select: no such table: submissions" {
		t.Errorf("Expected backend detail in banner, got %q", resp["banner"].Message)
	}
}
