package sync

import (
	"context"
	"fmt"
)

// DeletePrompt is the question put to the user before a delete.
const DeletePrompt = "Are you sure you want to delete this skill?"

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Always is a Confirmer that approves without asking.
var Always Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) {
	return true, nil
})

// Remover deletes a skill on the server.
type Remover interface {
	DeleteSkill(ctx context.Context, id int64) error
}

// Deleter runs confirm-then-delete.
type Deleter struct {
	remover   Remover
	refresher Refresher
	reporter  Reporter
}

// NewDeleter creates a Deleter. A nil reporter logs failures.
func NewDeleter(remover Remover, refresher Refresher, reporter Reporter) *Deleter {
	return &Deleter{
		remover:   remover,
		refresher: refresher,
		reporter:  reporterOrDefault(reporter),
	}
}

// Delete asks confirmer first and returns ErrCancelled without any request
// when it declines. A confirmed delete is sent once; on success the
// Collection is refreshed, on failure the error is reported and the
// Collection is left showing the skill.
func (d *Deleter) Delete(ctx context.Context, id int64, confirmer Confirmer) error {
	ok, err := confirmer.Confirm(ctx, DeletePrompt)
	if err != nil {
		return fmt.Errorf("confirm delete of skill %d: %w", id, err)
	}
	if !ok {
		return ErrCancelled
	}

	action := fmt.Sprintf("delete skill %d", id)
	if err := d.remover.DeleteSkill(ctx, id); err != nil {
		d.reporter.Report(ctx, action, err)
		return err
	}
	if err := d.refresher.Refresh(ctx); err != nil {
		err = fmt.Errorf("%s: %w", action, err)
		d.reporter.Report(ctx, action, err)
		return err
	}
	return nil
}
