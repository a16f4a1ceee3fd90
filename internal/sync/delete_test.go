package sync

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/conorfennell/skillstack/internal/api"
	"github.com/conorfennell/skillstack/internal/api/apitest"
)

func answer(ok bool, prompts *[]string) Confirmer {
	return ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
		*prompts = append(*prompts, prompt)
		return ok, nil
	})
}

func TestDeleteDeclined(t *testing.T) {
	s, srv, rep := fixture(t)
	d := NewDeleter(srv.APIClient(), s, rep)
	var prompts []string

	err := d.Delete(context.Background(), 1, answer(false, &prompts))
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Expected ErrCancelled, got %v", err)
	}
	if len(prompts) != 1 || prompts[0] != DeletePrompt {
		t.Errorf("Expected one confirmation prompt, got %v", prompts)
	}
	if srv.TotalCalls() != 0 {
		t.Errorf("Expected zero requests, got %d", srv.TotalCalls())
	}
	if len(rep.errs) != 0 {
		t.Errorf("Expected a cancel not to be reported, got %v", rep.errs)
	}
}

func TestDeleteConfirmed(t *testing.T) {
	s, srv, rep := fixture(t)
	d := NewDeleter(srv.APIClient(), s, rep)
	var prompts []string

	if err := d.Delete(context.Background(), 1, answer(true, &prompts)); err != nil {
		t.Fatalf("Delete() returned an unexpected error: %v", err)
	}
	if srv.Calls(apitest.Delete) != 1 || srv.Calls(apitest.List) != 1 {
		t.Errorf("Expected one delete and one list request, got %d and %d",
			srv.Calls(apitest.Delete), srv.Calls(apitest.List))
	}
	if _, ok := s.Get(1); ok {
		t.Error("Expected the deleted skill to be gone from the collection")
	}
	if s.Len() != 1 {
		t.Errorf("Expected 1 remaining skill, got %d", s.Len())
	}
}

func TestDeleteFailure(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		want   error
	}{
		{name: "server error", status: http.StatusInternalServerError, want: api.ErrServer},
		{name: "not found", status: http.StatusNotFound, want: api.ErrNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, srv, rep := fixture(t)
			srv.FailWith(apitest.Delete, tc.status)
			d := NewDeleter(srv.APIClient(), s, rep)

			err := d.Delete(context.Background(), 1, Always)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Expected %v, got %v", tc.want, err)
			}
			if srv.Calls(apitest.Delete) != 1 {
				t.Errorf("Expected exactly one delete request, got %d", srv.Calls(apitest.Delete))
			}
			if srv.Calls(apitest.List) != 0 {
				t.Errorf("Expected zero list requests, got %d", srv.Calls(apitest.List))
			}
			if len(rep.errs) != 1 || !errors.Is(rep.errs[0], tc.want) {
				t.Errorf("Expected the failure to be reported, got %v", rep.errs)
			}
			if _, ok := s.Get(1); !ok {
				t.Error("Expected the skill to stay in the collection")
			}
		})
	}
}

func TestDeleteConfirmerError(t *testing.T) {
	s, srv, rep := fixture(t)
	d := NewDeleter(srv.APIClient(), s, rep)
	boom := errors.New("stdin closed")

	err := d.Delete(context.Background(), 1, ConfirmFunc(func(context.Context, string) (bool, error) {
		return false, boom
	}))
	if !errors.Is(err, boom) {
		t.Fatalf("Expected the confirmer error, got %v", err)
	}
	if srv.TotalCalls() != 0 {
		t.Errorf("Expected zero requests, got %d", srv.TotalCalls())
	}
}
