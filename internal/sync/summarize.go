package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// NoNotesMessage is shown instead of a summary when there is nothing to summarize.
const NoNotesMessage = "No notes to summarize."

// ErrNoNotes is returned for empty or whitespace-only notes.
var ErrNoNotes = errors.New("no notes to summarize")

// NotesSummarizer produces a summary of notes.
type NotesSummarizer interface {
	SummarizeNotes(ctx context.Context, notes string) (string, error)
}

// Summarizer requests note summaries. It never changes the Collection.
type Summarizer struct {
	summarizer NotesSummarizer
	collection Getter
	reporter   Reporter
}

// NewSummarizer creates a Summarizer. A nil reporter logs failures.
func NewSummarizer(summarizer NotesSummarizer, collection Getter, reporter Reporter) *Summarizer {
	return &Summarizer{
		summarizer: summarizer,
		collection: collection,
		reporter:   reporterOrDefault(reporter),
	}
}

// Summarize returns the summary of notes unchanged.
func (s *Summarizer) Summarize(ctx context.Context, notes string) (string, error) {
	if strings.TrimSpace(notes) == "" {
		return "", ErrNoNotes
	}
	summary, err := s.summarizer.SummarizeNotes(ctx, notes)
	if err != nil {
		s.reporter.Report(ctx, "summarize notes", err)
		return "", err
	}
	return summary, nil
}

// SummarizeSkill summarizes the stored notes of skill id.
func (s *Summarizer) SummarizeSkill(ctx context.Context, id int64) (string, error) {
	skill, ok := s.collection.Get(id)
	if !ok {
		err := fmt.Errorf("summarize skill %d: %w", id, ErrNotInCollection)
		s.reporter.Report(ctx, "summarize notes", err)
		return "", err
	}
	return s.Summarize(ctx, skill.Notes)
}
