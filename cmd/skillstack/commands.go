package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/conorfennell/skillstack/internal/domain"
	"github.com/conorfennell/skillstack/internal/form"
	"github.com/conorfennell/skillstack/internal/importer"
	"github.com/conorfennell/skillstack/internal/sync"
	"github.com/conorfennell/skillstack/internal/web"
)

// list prints the Collection.
func (a *app) list(ctx context.Context) error {
	if err := a.store.Refresh(ctx); err != nil {
		return err
	}
	skills := a.store.Skills()
	if len(skills) == 0 {
		fmt.Fprintln(a.stdout, "No skills tracked yet. Add one with: skillstack add --name ... --type ... --platform ...")
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSKILL\tTYPE\tPLATFORM\tPROGRESS\tHOURS\tDIFFICULTY\tNOTES")
	for _, s := range skills {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%g\t%d\t%s\n",
			s.ID, s.SkillName, s.ResourceType, s.Platform, s.Progress, s.HoursSpent, s.Difficulty, oneLine(s.Notes, 40))
	}
	return tw.Flush()
}

// add submits a new draft.
func (a *app) add(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("add", pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	name := fs.String("name", "", "Skill / course name")
	resourceType := fs.String("type", "", "Resource type (e.g., video, course, article)")
	platform := fs.String("platform", "", "Platform (e.g., Udemy, Youtube, Coursera)")
	notes := fs.String("notes", "", "Initial notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.store.Refresh(ctx); err != nil {
		return err
	}

	f := form.New(a.client, a.store)
	for field, value := range map[string]string{
		"skill_name":    *name,
		"resource_type": *resourceType,
		"platform":      *platform,
		"notes":         *notes,
	} {
		if err := f.Set(field, value); err != nil {
			return err
		}
	}

	created, err := f.Submit(ctx)
	if err != nil && created.ID == 0 {
		return err
	}
	fmt.Fprintf(a.stdout, "Added skill %d: %s\n", created.ID, created.SkillName)
	return err
}

// importFile adds every new goal listed in a file.
func (a *app) importFile(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: skillstack import <file>")
	}
	drafts, err := importer.ParseFile(args[0])
	if err != nil {
		return err
	}

	if err := a.store.Refresh(ctx); err != nil {
		return err
	}
	res, err := importer.New(a.client, a.store, a.logger).Import(ctx, drafts)
	if err != nil {
		return err
	}

	for _, s := range res.Created {
		fmt.Fprintf(a.stdout, "Added skill %d: %s\n", s.ID, s.SkillName)
	}
	for _, d := range res.Skipped {
		fmt.Fprintf(a.stdout, "Skipped %s (%s, %s): already tracked\n", d.SkillName, d.ResourceType, d.Platform)
	}
	for _, f := range res.Failed {
		fmt.Fprintf(a.stderr, "error: %s: %v\n", f.Draft.SkillName, f.Err)
	}
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d of %d skills failed to import", len(res.Failed), len(drafts))
	}
	return nil
}

// set updates one field of an existing skill.
func (a *app) set(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return errors.New("usage: skillstack set <id> <field> <value>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	field, err := domain.ParseField(args[1])
	if err != nil {
		return err
	}

	if err := a.store.Refresh(ctx); err != nil {
		return err
	}
	if err := a.coordinator.UpdateField(ctx, id, field, args[2]); err != nil {
		return reportedError{err}
	}
	fmt.Fprintf(a.stdout, "Updated %s of skill %d (%s)\n", field, id, a.coordinator.Mode(field))
	return nil
}

// summarize prints the AI summary of a skill's stored notes.
func (a *app) summarize(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: skillstack summarize <id>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	if err := a.store.Refresh(ctx); err != nil {
		return err
	}
	summary, err := a.summarizer.SummarizeSkill(ctx, id)
	if errors.Is(err, sync.ErrNoNotes) {
		fmt.Fprintln(a.stdout, sync.NoNotesMessage)
		return nil
	}
	if err != nil {
		return reportedError{err}
	}
	fmt.Fprintf(a.stdout, "AI Summary:\n\n%s\n", summary)
	return nil
}

// delete removes a skill after asking on stdin, unless --yes is given.
func (a *app) delete(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("delete", pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	yes := fs.BoolP("yes", "y", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: skillstack delete <id> [--yes]")
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}

	if err := a.store.Refresh(ctx); err != nil {
		return err
	}

	confirmer := sync.Always
	if !*yes {
		confirmer = promptConfirmer(a.stdin, a.stdout)
	}
	err = a.deleter.Delete(ctx, id, confirmer)
	switch {
	case errors.Is(err, sync.ErrCancelled):
		fmt.Fprintln(a.stdout, "Cancelled.")
		return nil
	case err != nil:
		return reportedError{err}
	}
	fmt.Fprintf(a.stdout, "Deleted skill %d\n", id)
	return nil
}

// serve runs the web UI until ctx is cancelled.
func (a *app) serve(ctx context.Context) error {
	if err := a.store.Refresh(ctx); err != nil {
		return err
	}

	srv, err := web.NewServer(web.Deps{
		Store:       a.store,
		Creator:     a.client,
		Coordinator: a.coordinator,
		Summarizer:  a.summarizer,
		Deleter:     a.deleter,
		Logger:      a.logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              a.cfg.Web.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Serving web UI", "addr", a.cfg.Web.Addr, "api", a.cfg.API.BaseURL)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("web server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.logger.Info("Shutting down web UI")
	return httpServer.Shutdown(shutdownCtx)
}

// promptConfirmer asks on in and accepts y or yes. End of input declines.
func promptConfirmer(in io.Reader, out io.Writer) sync.Confirmer {
	reader := bufio.NewReader(in)
	return sync.ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	})
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid skill id %q", s)
	}
	return id, nil
}

func oneLine(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= limit {
		return s
	}
	return string([]rune(s)[:limit-1]) + "…"
}
