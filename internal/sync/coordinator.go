package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/conorfennell/skillstack/internal/api"
	"github.com/conorfennell/skillstack/internal/domain"
)

// RefreshMode says what happens to the Collection after a field update.
type RefreshMode int

const (
	// LocalOnly trusts the value the control already shows; no refresh.
	LocalOnly RefreshMode = iota
	// RefreshAfter re-lists every skill once the update has settled.
	RefreshAfter
)

func (m RefreshMode) String() string {
	switch m {
	case LocalOnly:
		return "local-only"
	case RefreshAfter:
		return "refresh-after"
	default:
		return fmt.Sprintf("RefreshMode(%d)", int(m))
	}
}

// Policy maps each editable field to its refresh mode.
type Policy map[domain.Field]RefreshMode

// DefaultPolicy refreshes after notes and hours edits, and trusts the
// control for progress and difficulty.
func DefaultPolicy() Policy {
	return Policy{
		domain.FieldProgress:   LocalOnly,
		domain.FieldDifficulty: LocalOnly,
		domain.FieldNotes:      RefreshAfter,
		domain.FieldHoursSpent: RefreshAfter,
	}
}

// Mode returns the refresh mode for field. Unlisted fields are LocalOnly.
func (p Policy) Mode(field domain.Field) RefreshMode {
	return p[field]
}

// Updater pushes a full record to the server.
type Updater interface {
	UpdateSkill(ctx context.Context, id int64, skill domain.Skill) (domain.Skill, error)
}

// Coordinator applies single-field edits to existing skills.
type Coordinator struct {
	collection Collection
	updater    Updater
	policy     Policy
	reporter   Reporter
	logger     *slog.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithPolicy replaces the default refresh policy.
func WithPolicy(p Policy) CoordinatorOption {
	return func(c *Coordinator) {
		c.policy = p
	}
}

// WithLogger sets the coordinator's logger.
func WithLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// NewCoordinator creates a Coordinator. A nil reporter logs failures.
func NewCoordinator(collection Collection, updater Updater, reporter Reporter, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		collection: collection,
		updater:    updater,
		policy:     DefaultPolicy(),
		reporter:   reporterOrDefault(reporter),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mode reports the refresh mode applied to field.
func (c *Coordinator) Mode(field domain.Field) RefreshMode {
	return c.policy.Mode(field)
}

// UpdateField merges raw into the known record for id, pushes the full record
// and refreshes the Collection when the policy asks for it. Values rejected
// before sending wrap both api.ErrValidation and domain.ErrInvalidValue.
// Failures are reported and returned; the Collection is left as it was.
func (c *Coordinator) UpdateField(ctx context.Context, id int64, field domain.Field, raw string) error {
	action := fmt.Sprintf("update %s of skill %d", field, id)

	current, ok := c.collection.Get(id)
	if !ok {
		err := fmt.Errorf("%s: %w", action, ErrNotInCollection)
		c.reporter.Report(ctx, action, err)
		return err
	}

	payload, err := current.With(field, raw)
	if err != nil {
		err = fmt.Errorf("%s: %w: %w", action, api.ErrValidation, err)
		c.reporter.Report(ctx, action, err)
		return err
	}

	if _, err := c.updater.UpdateSkill(ctx, id, payload); err != nil {
		c.reporter.Report(ctx, action, err)
		return err
	}

	mode := c.policy.Mode(field)
	c.logger.Debug("Skill field updated", "id", id, "field", field, "mode", mode)
	if mode != RefreshAfter {
		return nil
	}
	if err := c.collection.Refresh(ctx); err != nil {
		err = fmt.Errorf("%s: %w", action, err)
		c.reporter.Report(ctx, action, err)
		return err
	}
	return nil
}
