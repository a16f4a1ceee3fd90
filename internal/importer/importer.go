package importer

import (
	"context"
	"log/slog"

	"github.com/conorfennell/skillstack/internal/domain"
	"github.com/conorfennell/skillstack/internal/form"
)

// Collection is the part of the store the importer reads and refreshes.
type Collection interface {
	form.Refresher
	Skills() []domain.Skill
}

// Failure is a draft the server or validation rejected.
type Failure struct {
	Draft domain.Draft
	Err   error
}

// Result summarizes one import run.
type Result struct {
	Created []domain.Skill
	Skipped []domain.Draft
	Failed  []Failure
}

// Importer submits parsed drafts one at a time, skipping goals that already
// exist in the Collection or appear earlier in the same file.
type Importer struct {
	creator    form.Creator
	collection Collection
	logger     *slog.Logger
}

// New creates an Importer. A nil logger discards output.
func New(creator form.Creator, collection Collection, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Importer{creator: creator, collection: collection, logger: logger}
}

// Import submits every new draft. Per-draft failures are collected in the
// Result; only context cancellation stops the run early.
func (im *Importer) Import(ctx context.Context, drafts []domain.Draft) (Result, error) {
	var res Result

	seen := make(map[string]bool)
	for _, s := range im.collection.Skills() {
		seen[SkillKey(s)] = true
	}

	for _, d := range drafts {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		key := DraftKey(d)
		if seen[key] {
			im.logger.Debug("Skipping existing skill", "skill", d.SkillName, "platform", d.Platform)
			res.Skipped = append(res.Skipped, d)
			continue
		}

		created, err := im.submit(ctx, d)
		if created.ID == 0 && err != nil {
			im.logger.Warn("Failed to import skill", "skill", d.SkillName, "error", err)
			res.Failed = append(res.Failed, Failure{Draft: d, Err: err})
			continue
		}
		if err != nil {
			im.logger.Warn("Imported skill but refresh failed", "id", created.ID, "error", err)
		}
		seen[key] = true
		res.Created = append(res.Created, created)
	}

	im.logger.Info("Import finished",
		"created", len(res.Created), "skipped", len(res.Skipped), "failed", len(res.Failed))
	return res, nil
}

func (im *Importer) submit(ctx context.Context, d domain.Draft) (domain.Skill, error) {
	f := form.New(im.creator, im.collection)
	for field, value := range map[string]string{
		"skill_name":    d.SkillName,
		"resource_type": d.ResourceType,
		"platform":      d.Platform,
		"notes":         d.Notes,
	} {
		if err := f.Set(field, value); err != nil {
			return domain.Skill{}, err
		}
	}
	return f.Submit(ctx)
}
