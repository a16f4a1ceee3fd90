package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/conorfennell/skillstack/internal/domain"
	"github.com/conorfennell/skillstack/internal/form"
	"github.com/conorfennell/skillstack/internal/store"
	"github.com/conorfennell/skillstack/internal/sync"
)

//go:embed all:templates
var templateFiles embed.FS

// Server renders the Collection and turns browser events into flow calls.
type Server struct {
	store       *store.Store
	creator     form.Creator
	coordinator *sync.Coordinator
	summarizer  *sync.Summarizer
	deleter     *sync.Deleter
	logger      *slog.Logger
	router      *http.ServeMux
	templates   *template.Template
}

// Deps are the collaborators the server calls into.
type Deps struct {
	Store       *store.Store
	Creator     form.Creator
	Coordinator *sync.Coordinator
	Summarizer  *sync.Summarizer
	Deleter     *sync.Deleter
	Logger      *slog.Logger
}

// NewServer creates and configures a new server.
func NewServer(d Deps) (*Server, error) {
	tpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:       d.Store,
		creator:     d.Creator,
		coordinator: d.Coordinator,
		summarizer:  d.Summarizer,
		deleter:     d.Deleter,
		logger:      logger,
		router:      http.NewServeMux(),
		templates:   tpl,
	}
	s.routes()
	return s, nil
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("GET /{$}", s.handleIndex())
	s.router.HandleFunc("GET /skills", s.handleList())
	s.router.HandleFunc("POST /skills", s.handleCreate())
	s.router.HandleFunc("POST /skills/{id}/fields/{field}", s.handleUpdateField())
	s.router.HandleFunc("POST /skills/{id}/summarize", s.handleSummarize())
	s.router.HandleFunc("DELETE /skills/{id}", s.handleDelete())
}

// draftFields are the form inputs copied into a new draft.
var draftFields = []string{"skill_name", "resource_type", "platform", "notes"}

type pageData struct {
	Skills     []domain.Skill
	Draft      domain.Draft
	Progresses []domain.Progress
	Prompt     string
	Notice     *notice
	OOB        bool
}

type notice struct {
	Kind    string // "error", "info" or "summary"
	Message string
}

func (s *Server) page(n *notice) pageData {
	return pageData{
		Skills:     s.store.Skills(),
		Progresses: domain.Progresses,
		Prompt:     sync.DeletePrompt,
		Notice:     n,
	}
}

// handleIndex renders the full page.
func (s *Server) handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, "index", s.page(nil))
	}
}

// handleList renders the skill rows.
func (s *Server) handleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, "skill_list", s.page(nil))
	}
}

// handleCreate submits the posted draft and re-renders the form and list.
func (s *Server) handleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := form.New(s.creator, s.store)
		for _, field := range draftFields {
			if err := f.Set(field, r.PostFormValue(field)); err != nil {
				s.logger.Error("Error reading draft field", "field", field, "error", err)
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}

		created, err := f.Submit(r.Context())
		data := s.page(nil)
		data.Draft = f.Draft()
		data.OOB = true

		var vErr *form.ValidationError
		switch {
		case errors.As(err, &vErr):
			data.Notice = &notice{Kind: "error", Message: vErr.Error()}
		case err != nil && created.ID == 0:
			s.logger.Error("Error creating skill", "error", err)
			data.Notice = &notice{Kind: "error", Message: "Failed to add skill: " + err.Error()}
		case err != nil:
			s.logger.Error("Error refreshing skills after create", "id", created.ID, "error", err)
			data.Notice = &notice{Kind: "error", Message: "Skill added, but the list could not be refreshed."}
		default:
			s.logger.Info("Skill created", "id", created.ID, "skill_name", created.SkillName)
		}
		s.render(w, "create_result", data)
	}
}

// handleUpdateField applies one inline edit. Fields the policy trusts
// locally get 204 so the control keeps showing the user's value.
func (s *Server) handleUpdateField() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r)
		if !ok {
			return
		}
		field, err := domain.ParseField(r.PathValue("field"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := s.coordinator.UpdateField(r.Context(), id, field, r.PostFormValue("value")); err != nil {
			s.renderNotice(w, &notice{Kind: "error", Message: "Failed to update skill: " + err.Error()})
			return
		}
		if s.coordinator.Mode(field) != sync.RefreshAfter {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		data := s.page(nil)
		data.OOB = true
		s.render(w, "skill_list", data)
	}
}

// handleSummarize shows the summary of a skill's stored notes.
func (s *Server) handleSummarize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r)
		if !ok {
			return
		}
		summary, err := s.summarizer.SummarizeSkill(r.Context(), id)
		switch {
		case errors.Is(err, sync.ErrNoNotes):
			s.renderNotice(w, &notice{Kind: "info", Message: sync.NoNotesMessage})
		case err != nil:
			s.renderNotice(w, &notice{Kind: "error", Message: "Failed to summarize notes: " + err.Error()})
		default:
			s.renderNotice(w, &notice{Kind: "summary", Message: summary})
		}
	}
}

// handleDelete deletes a skill once the request carries confirm=yes.
func (s *Server) handleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r)
		if !ok {
			return
		}
		confirmed := sync.ConfirmFunc(func(context.Context, string) (bool, error) {
			return r.FormValue("confirm") == "yes", nil
		})

		err := s.deleter.Delete(r.Context(), id, confirmed)
		switch {
		case errors.Is(err, sync.ErrCancelled):
			w.WriteHeader(http.StatusNoContent)
		case err != nil:
			s.renderNotice(w, &notice{Kind: "error", Message: "Failed to delete skill: " + err.Error()})
		default:
			s.logger.Info("Skill deleted", "id", id)
			data := s.page(nil)
			data.OOB = true
			s.render(w, "skill_list", data)
		}
	}
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid skill ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (s *Server) renderNotice(w http.ResponseWriter, n *notice) {
	data := s.page(n)
	data.OOB = true
	s.render(w, "notice", data)
}

func (s *Server) render(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("Error rendering template", "template", name, "error", err)
	}
}
