// Package form holds the in-progress "new skill" draft.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/skillstack/internal/domain"
)

// Creator creates a skill on the server.
type Creator interface {
	CreateSkill(ctx context.Context, draft domain.Draft) (domain.Skill, error)
}

// Refresher re-synchronizes the Collection.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// ValidationError lists the required fields that were empty on submit.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "required fields missing: " + strings.Join(e.Missing, ", ")
}

var validate = validator.New()

// Form is the Draft Form. It is never merged into the Collection; only a
// successful Submit followed by a refresh introduces a new record.
type Form struct {
	creator   Creator
	refresher Refresher

	mu    sync.Mutex
	draft domain.Draft
}

// New creates a Form with an empty draft.
func New(creator Creator, refresher Refresher) *Form {
	return &Form{creator: creator, refresher: refresher}
}

// Set updates one named draft field.
func (f *Form) Set(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch field {
	case "skill_name":
		f.draft.SkillName = value
	case "resource_type":
		f.draft.ResourceType = value
	case "platform":
		f.draft.Platform = value
	case "notes":
		f.draft.Notes = value
	default:
		return fmt.Errorf("unknown draft field %q", field)
	}
	return nil
}

// Draft returns the current draft contents.
func (f *Form) Draft() domain.Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Submit validates and creates the draft. On success the draft is cleared and
// the Collection refreshed. On failure the draft is left unchanged.
func (f *Form) Submit(ctx context.Context) (domain.Skill, error) {
	draft := f.Draft()
	if err := Validate(draft); err != nil {
		return domain.Skill{}, err
	}

	created, err := f.creator.CreateSkill(ctx, draft)
	if err != nil {
		return domain.Skill{}, err
	}

	f.mu.Lock()
	f.draft = domain.Draft{}
	f.mu.Unlock()

	if err := f.refresher.Refresh(ctx); err != nil {
		return created, fmt.Errorf("skill %d created: %w", created.ID, err)
	}
	return created, nil
}

// Validate checks that the required creation fields are non-empty.
func Validate(draft domain.Draft) error {
	err := validate.Struct(draft)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	missing := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		missing = append(missing, jsonName(fe.Field()))
	}
	return &ValidationError{Missing: missing}
}

func jsonName(field string) string {
	switch field {
	case "SkillName":
		return "skill_name"
	case "ResourceType":
		return "resource_type"
	case "Platform":
		return "platform"
	default:
		return strings.ToLower(field)
	}
}
