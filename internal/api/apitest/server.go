// Package apitest provides an in-memory skills API for tests. It records how
// many times each route was called so tests can assert on request counts.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/conorfennell/skillstack/internal/api"
	"github.com/conorfennell/skillstack/internal/domain"
)

// Route keys accepted by Calls and FailWith.
const (
	List      = "GET /skills"
	Create    = "POST /skills"
	Update    = "PUT /skills/{id}"
	Delete    = "DELETE /skills/{id}"
	Summarize = "POST /summarize-notes"
)

// Server is a fake skills API backed by httptest.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	skills   []domain.Skill
	nextID   int64
	calls    map[string]int
	failures map[string]int
	bodies   map[string][]byte

	// Summary produces the summary text for notes.
	Summary func(notes string) string
}

// New starts a server seeded with skills and closes it when the test ends.
func New(t testing.TB, seed ...domain.Skill) *Server {
	t.Helper()
	s := &Server{
		calls:    make(map[string]int),
		failures: make(map[string]int),
		bodies:   make(map[string][]byte),
		Summary: func(notes string) string {
			return "Summary: " + notes
		},
	}
	for _, sk := range seed {
		s.skills = append(s.skills, sk)
		if sk.ID > s.nextID {
			s.nextID = sk.ID
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc(List, s.handleList)
	mux.HandleFunc(Create, s.handleCreate)
	mux.HandleFunc(Update, s.handleUpdate)
	mux.HandleFunc(Delete, s.handleDelete)
	mux.HandleFunc(Summarize, s.handleSummarize)

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pattern := mux.Handler(r)
		s.mu.Lock()
		s.calls[pattern]++
		status, failing := s.failures[pattern]
		s.mu.Unlock()
		if failing {
			writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// APIClient returns a client pointed at this server.
func (s *Server) APIClient(opts ...api.Option) *api.Client {
	return api.New(append([]api.Option{api.WithBaseURL(s.URL)}, opts...)...)
}

// Calls reports how many requests hit route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// TotalCalls reports the number of requests across all routes.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// ResetCalls zeroes every call counter.
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]int)
}

// FailWith makes route answer with status until cleared with status 0.
func (s *Server) FailWith(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = status
}

// LastBody returns the last request body received on route.
func (s *Server) LastBody(route string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bodies[route]
}

// Skills returns the server-side records.
func (s *Server) Skills() []domain.Skill {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Skill(nil), s.skills...)
}

// SetSkills replaces the server-side records without counting a call.
func (s *Server) SetSkills(skills ...domain.Skill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skills = append([]domain.Skill(nil), skills...)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Skills())
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var draft domain.Draft
	if !s.decode(w, r, Create, &draft) {
		return
	}
	if draft.SkillName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "skill_name is required"})
		return
	}

	s.mu.Lock()
	s.nextID++
	created := domain.Skill{
		ID:           s.nextID,
		SkillName:    draft.SkillName,
		ResourceType: draft.ResourceType,
		Platform:     draft.Platform,
		Notes:        draft.Notes,
		Progress:     domain.Started,
		HoursSpent:   0,
		Difficulty:   domain.MinDifficulty,
	}
	s.skills = append(s.skills, created)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var skill domain.Skill
	if !s.decode(w, r, Update, &skill) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.skills {
		if s.skills[i].ID == id {
			skill.ID = id
			s.skills[i] = skill
			writeJSON(w, http.StatusOK, skill)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Skill not found"})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.skills {
		if s.skills[i].ID == id {
			s.skills = append(s.skills[:i], s.skills[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Skill not found"})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Notes string `json:"notes"`
	}
	if !s.decode(w, r, Summarize, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": s.Summary(req.Notes)})
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Skill not found"})
		return 0, false
	}
	return id, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, route string, v any) bool {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return false
	}
	s.mu.Lock()
	s.bodies[route] = raw
	s.mu.Unlock()
	if err := json.Unmarshal(raw, v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
