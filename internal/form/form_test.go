package form

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/conorfennell/skillstack/internal/api"
	"github.com/conorfennell/skillstack/internal/api/apitest"
	"github.com/conorfennell/skillstack/internal/domain"
	"github.com/conorfennell/skillstack/internal/store"
)

func newForm(t *testing.T) (*Form, *store.Store, *apitest.Server) {
	t.Helper()
	srv := apitest.New(t)
	client := srv.APIClient()
	s := store.New(client, nil)
	return New(client, s), s, srv
}

func fill(t *testing.T, f *Form, values map[string]string) {
	t.Helper()
	for field, value := range values {
		if err := f.Set(field, value); err != nil {
			t.Fatalf("Set(%q) returned an unexpected error: %v", field, err)
		}
	}
}

func TestSubmit(t *testing.T) {
	f, s, srv := newForm(t)
	fill(t, f, map[string]string{
		"skill_name":    "Kubernetes",
		"resource_type": "course",
		"platform":      "Coursera",
		"notes":         "pods and services",
	})

	created, err := f.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() returned an unexpected error: %v", err)
	}

	if f.Draft() != (domain.Draft{}) {
		t.Errorf("Expected the draft to be reset, got %+v", f.Draft())
	}
	if srv.Calls(apitest.Create) != 1 || srv.Calls(apitest.List) != 1 {
		t.Errorf("Expected one create and one list request, got %d and %d",
			srv.Calls(apitest.Create), srv.Calls(apitest.List))
	}

	got, ok := s.Get(created.ID)
	if !ok {
		t.Fatalf("Expected skill %d in the collection", created.ID)
	}
	want := domain.Skill{
		ID:           created.ID,
		SkillName:    "Kubernetes",
		ResourceType: "course",
		Platform:     "Coursera",
		Notes:        "pods and services",
		Progress:     domain.Started,
		HoursSpent:   0,
		Difficulty:   1,
	}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestSubmitRequiresFields(t *testing.T) {
	testCases := []struct {
		name    string
		values  map[string]string
		missing []string
	}{
		{
			name:    "empty draft",
			values:  map[string]string{"notes": "only notes"},
			missing: []string{"skill_name", "resource_type", "platform"},
		},
		{
			name:    "missing platform",
			values:  map[string]string{"skill_name": "Go", "resource_type": "book"},
			missing: []string{"platform"},
		},
		{
			name:    "missing skill name",
			values:  map[string]string{"resource_type": "book", "platform": "O'Reilly"},
			missing: []string{"skill_name"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, _, srv := newForm(t)
			fill(t, f, tc.values)
			before := f.Draft()

			_, err := f.Submit(context.Background())
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Expected a ValidationError, got %v", err)
			}
			if !reflect.DeepEqual(vErr.Missing, tc.missing) {
				t.Errorf("Expected missing %v, got %v", tc.missing, vErr.Missing)
			}
			if srv.TotalCalls() != 0 {
				t.Errorf("Expected no requests, got %d", srv.TotalCalls())
			}
			if f.Draft() != before {
				t.Errorf("Expected the draft to be unchanged, got %+v", f.Draft())
			}
		})
	}
}

func TestSubmitCreateFailureKeepsDraft(t *testing.T) {
	f, s, srv := newForm(t)
	srv.FailWith(apitest.Create, http.StatusBadRequest)
	values := map[string]string{"skill_name": "Go", "resource_type": "book", "platform": "Manning"}
	fill(t, f, values)
	before := f.Draft()

	_, err := f.Submit(context.Background())
	if !errors.Is(err, api.ErrValidation) {
		t.Fatalf("Expected api.ErrValidation, got %v", err)
	}
	if f.Draft() != before {
		t.Errorf("Expected the draft to be unchanged, got %+v", f.Draft())
	}
	if srv.Calls(apitest.List) != 0 || s.Len() != 0 {
		t.Errorf("Expected no refresh after a failed create")
	}
}

func TestSubmitRefreshFailureStillResets(t *testing.T) {
	f, _, srv := newForm(t)
	srv.FailWith(apitest.List, http.StatusInternalServerError)
	fill(t, f, map[string]string{"skill_name": "Go", "resource_type": "book", "platform": "Manning"})

	created, err := f.Submit(context.Background())
	if !errors.Is(err, api.ErrServer) {
		t.Fatalf("Expected api.ErrServer, got %v", err)
	}
	if created.ID == 0 {
		t.Error("Expected the created skill to be returned")
	}
	if f.Draft() != (domain.Draft{}) {
		t.Errorf("Expected the draft to be reset once the skill exists, got %+v", f.Draft())
	}
}

func TestSetUnknownField(t *testing.T) {
	f, _, _ := newForm(t)
	if err := f.Set("progress", "completed"); err == nil {
		t.Error("Expected an error for a field the draft does not hold")
	}
}
