// Package sync coordinates user actions on existing skills with the API and
// decides when the Collection is re-synchronized.
//
// No ordering is guaranteed between concurrent actions on the same skill.
// Two updates to one field may complete in either order, and whichever
// refresh finishes last determines what the Collection shows.
package sync

import (
	"context"
	"errors"
	"log/slog"

	"github.com/conorfennell/skillstack/internal/domain"
)

var (
	// ErrNotInCollection means an action named a skill the Collection does not
	// hold. Callers derive ids from the rendered Collection, so this is a bug
	// in the caller rather than a server condition.
	ErrNotInCollection = errors.New("skill not in collection")

	// ErrCancelled means the user declined a confirmation. It is not reported.
	ErrCancelled = errors.New("cancelled by user")
)

// Getter looks up skills in the Collection.
type Getter interface {
	Get(id int64) (domain.Skill, bool)
}

// Refresher re-synchronizes the Collection from the server.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Collection is the part of the store the flows depend on.
type Collection interface {
	Getter
	Refresher
}

// Reporter surfaces a failed user action without blocking the flow.
type Reporter interface {
	Report(ctx context.Context, action string, err error)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, action string, err error)

// Report calls f.
func (f ReporterFunc) Report(ctx context.Context, action string, err error) {
	f(ctx, action, err)
}

// LogReporter reports failures to a structured logger.
type LogReporter struct {
	Logger *slog.Logger
}

// Report logs err at error level.
func (r LogReporter) Report(ctx context.Context, action string, err error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.ErrorContext(ctx, "Action failed", "action", action, "error", err)
}

func reporterOrDefault(r Reporter) Reporter {
	if r == nil {
		return LogReporter{}
	}
	return r
}
