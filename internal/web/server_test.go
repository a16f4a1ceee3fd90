package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/conorfennell/skillstack/internal/api/apitest"
	"github.com/conorfennell/skillstack/internal/domain"
	"github.com/conorfennell/skillstack/internal/form"
	"github.com/conorfennell/skillstack/internal/store"
	"github.com/conorfennell/skillstack/internal/sync"
)

func newTestServer(t *testing.T) (*Server, *store.Store, *apitest.Server) {
	t.Helper()
	api := apitest.New(t,
		domain.Skill{ID: 1, SkillName: "Go", ResourceType: "course", Platform: "Udemy",
			Notes: "generics", Progress: domain.Started, HoursSpent: 2, Difficulty: 3},
		domain.Skill{ID: 2, SkillName: "Terraform", ResourceType: "book", Platform: "O'Reilly",
			Progress: domain.Completed, Difficulty: 4},
	)
	client := api.APIClient()
	s := store.New(client, nil)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("initial Refresh() returned an unexpected error: %v", err)
	}
	api.ResetCalls()

	srv, err := NewServer(Deps{
		Store:       s,
		Creator:     client,
		Coordinator: sync.NewCoordinator(s, client, nil),
		Summarizer:  sync.NewSummarizer(client, s, nil),
		Deleter:     sync.NewDeleter(client, s, nil),
	})
	if err != nil {
		t.Fatalf("NewServer() returned an unexpected error: %v", err)
	}
	return srv, s, api
}

func do(srv http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	srv, _, api := newTestServer(t)

	rec := do(srv, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"SkillStack", "Add a New Learning Goal", "Go", "Terraform", `id="skill-list"`, sync.DeletePrompt} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected page to contain %q", want)
		}
	}
	if api.TotalCalls() != 0 {
		t.Errorf("Expected rendering to use the collection without requests, got %d", api.TotalCalls())
	}
}

func TestCreate(t *testing.T) {
	srv, s, api := newTestServer(t)

	rec := do(srv, http.MethodPost, "/skills", url.Values{
		"skill_name":    {"Kafka"},
		"resource_type": {"article"},
		"platform":      {"Medium"},
		"notes":         {""},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if api.Calls(apitest.Create) != 1 || api.Calls(apitest.List) != 1 {
		t.Errorf("Expected one create and one list, got %d and %d", api.Calls(apitest.Create), api.Calls(apitest.List))
	}
	if s.Len() != 3 {
		t.Errorf("Expected 3 skills after create, got %d", s.Len())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Kafka") || !strings.Contains(body, `hx-swap-oob="true"`) {
		t.Errorf("Expected the refreshed list out of band, got %s", body)
	}
	if strings.Contains(body, `value="Kafka"`) {
		t.Error("Expected the form to be reset after a successful create")
	}
}

func TestCreateMissingFields(t *testing.T) {
	srv, _, api := newTestServer(t)

	rec := do(srv, http.MethodPost, "/skills", url.Values{"skill_name": {"Kafka"}})
	if api.TotalCalls() != 0 {
		t.Errorf("Expected no requests, got %d", api.TotalCalls())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "required fields missing: resource_type, platform") {
		t.Errorf("Expected a validation notice, got %s", body)
	}
	if !strings.Contains(body, `value="Kafka"`) {
		t.Error("Expected the draft to be kept in the form")
	}
}

func TestUpdateFieldLocalOnly(t *testing.T) {
	srv, _, api := newTestServer(t)

	rec := do(srv, http.MethodPost, "/skills/1/fields/difficulty", url.Values{"value": {"5"}})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}
	if api.Calls(apitest.Update) != 1 || api.Calls(apitest.List) != 0 {
		t.Errorf("Expected one update and no list, got %d and %d", api.Calls(apitest.Update), api.Calls(apitest.List))
	}
}

func TestUpdateFieldRefreshAfter(t *testing.T) {
	srv, s, api := newTestServer(t)

	rec := do(srv, http.MethodPost, "/skills/1/fields/notes", url.Values{"value": {"type parameters"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if api.Calls(apitest.Update) != 1 || api.Calls(apitest.List) != 1 {
		t.Errorf("Expected one update and one list, got %d and %d", api.Calls(apitest.Update), api.Calls(apitest.List))
	}
	if got, _ := s.Get(1); got.Notes != "type parameters" {
		t.Errorf("Expected refreshed notes, got %q", got.Notes)
	}
	if !strings.Contains(rec.Body.String(), "type parameters") {
		t.Error("Expected the re-rendered list to show the new notes")
	}
}

func TestUpdateFieldErrors(t *testing.T) {
	srv, _, api := newTestServer(t)

	rec := do(srv, http.MethodPost, "/skills/1/fields/platform", url.Values{"value": {"x"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a non-editable field, got %d", rec.Code)
	}

	api.FailWith(apitest.Update, http.StatusInternalServerError)
	rec = do(srv, http.MethodPost, "/skills/1/fields/hours_spent", url.Values{"value": {"4"}})
	if !strings.Contains(rec.Body.String(), "Failed to update skill") {
		t.Errorf("Expected an error notice, got %s", rec.Body.String())
	}
	if api.Calls(apitest.List) != 0 {
		t.Errorf("Expected no refresh after a failed update")
	}
}

func TestSummarize(t *testing.T) {
	srv, _, api := newTestServer(t)

	rec := do(srv, http.MethodPost, "/skills/1/summarize", nil)
	if !strings.Contains(rec.Body.String(), "Summary: generics") {
		t.Errorf("Expected the summary text, got %s", rec.Body.String())
	}
	if api.Calls(apitest.Summarize) != 1 {
		t.Errorf("Expected one summarize request, got %d", api.Calls(apitest.Summarize))
	}

	rec = do(srv, http.MethodPost, "/skills/2/summarize", nil)
	if !strings.Contains(rec.Body.String(), sync.NoNotesMessage) {
		t.Errorf("Expected the no-notes message, got %s", rec.Body.String())
	}
	if api.Calls(apitest.Summarize) != 1 {
		t.Errorf("Expected no request for empty notes, got %d", api.Calls(apitest.Summarize))
	}
}

func TestDelete(t *testing.T) {
	srv, s, api := newTestServer(t)

	rec := do(srv, http.MethodDelete, "/skills/1", nil)
	if rec.Code != http.StatusNoContent || api.TotalCalls() != 0 {
		t.Fatalf("Expected an unconfirmed delete to be a no-op, got %d with %d requests", rec.Code, api.TotalCalls())
	}

	rec = do(srv, http.MethodDelete, "/skills/1?confirm=yes", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if api.Calls(apitest.Delete) != 1 || api.Calls(apitest.List) != 1 {
		t.Errorf("Expected one delete and one list, got %d and %d", api.Calls(apitest.Delete), api.Calls(apitest.List))
	}
	if _, ok := s.Get(1); ok {
		t.Error("Expected skill 1 to be gone")
	}
}

func TestDeleteFailureKeepsRow(t *testing.T) {
	srv, s, api := newTestServer(t)
	api.FailWith(apitest.Delete, http.StatusInternalServerError)

	rec := do(srv, http.MethodDelete, "/skills/2?confirm=yes", nil)
	if !strings.Contains(rec.Body.String(), "Failed to delete skill") {
		t.Errorf("Expected an error notice, got %s", rec.Body.String())
	}
	if api.Calls(apitest.List) != 0 {
		t.Errorf("Expected no refresh after a failed delete")
	}
	if _, ok := s.Get(2); !ok {
		t.Error("Expected skill 2 to stay in the collection")
	}
}

func TestCreateCopiesEveryDraftField(t *testing.T) {
	for _, field := range draftFields {
		if err := form.New(nil, nil).Set(field, "x"); err != nil {
			t.Errorf("Expected draft field %q to be accepted, got %v", field, err)
		}
	}

	srv, _, api := newTestServer(t)
	do(srv, http.MethodPost, "/skills", url.Values{
		"skill_name":    {"Kafka"},
		"resource_type": {"article"},
		"platform":      {"Medium"},
		"notes":         {"partitions"},
	})
	body := string(api.LastBody(apitest.Create))
	for _, want := range []string{`"skill_name":"Kafka"`, `"resource_type":"article"`, `"platform":"Medium"`, `"notes":"partitions"`} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected create body to contain %s, got %s", want, body)
		}
	}
}
