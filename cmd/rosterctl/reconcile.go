package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/pipeline"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/roster"
)

type reconcileFlags struct {
	image     bool
	commit    bool
	remember  bool
	typ       string
	title     string
	mapName   string
	date      string
	sessionID string
	confirm   []string
	decline   []string
	remove    []string
}

func (f *reconcileFlags) commitInput() (pipeline.CommitInput, error) {
	in := pipeline.CommitInput{
		Title:     f.title,
		Map:       f.mapName,
		Remember:  f.remember,
		SessionID: f.sessionID,
	}
	if f.typ != "" {
		typ, err := roster.ParseSessionType(f.typ)
		if err != nil {
			return in, err
		}
		in.Type = typ
	}
	if f.date != "" {
		date, err := roster.ParseDate(f.date)
		if err != nil {
			return in, err
		}
		in.Date = date
	}
	return in, nil
}

func reconcileCommand() *cobra.Command {
	flags := &reconcileFlags{}
	cmd := &cobra.Command{
		Use:   "reconcile <file>",
		Short: "Reconcile a recognized sign-up list against the roster",
		Long: "Reads recognized text from <file> (or '-' for stdin), or runs text recognition on\n" +
			"the screenshot when --image is set. Manual overrides are applied before the\n" +
			"optional commit.",
		Args: cobra.ExactArgs(1),
		RunE: withManager(func(ctx context.Context, cmd *cobra.Command, m *pipeline.Manager, args []string) error {
			return runReconcile(ctx, cmd.OutOrStdout(), cmd.InOrStdin(), m, args[0], flags)
		}),
	}

	cmd.Flags().BoolVar(&flags.image, "image", false, "treat <file> as a screenshot and run text recognition")
	cmd.Flags().BoolVar(&flags.commit, "commit", false, "commit the reconciled session")
	cmd.Flags().BoolVar(&flags.remember, "remember", false, "remember the committed session as a template")
	cmd.Flags().StringVar(&flags.typ, "type", "", "session type: Training, Event or Reserve (detected when empty)")
	cmd.Flags().StringVar(&flags.title, "title", "", "session title (detected when empty)")
	cmd.Flags().StringVar(&flags.mapName, "map", "", "map name (detected when empty)")
	cmd.Flags().StringVar(&flags.date, "date", "", "session date (detected, else today)")
	cmd.Flags().StringVar(&flags.sessionID, "session-id", "", "remembered session to overwrite")
	cmd.Flags().StringSliceVar(&flags.confirm, "confirm", nil, "mark members confirmed")
	cmd.Flags().StringSliceVar(&flags.decline, "decline", nil, "mark members declined")
	cmd.Flags().StringSliceVar(&flags.remove, "remove", nil, "remove members from the session")

	return cmd
}

func runReconcile(ctx context.Context, out io.Writer, in io.Reader, m *pipeline.Manager, path string, flags *reconcileFlags) error {
	var input pipeline.CommitInput
	var err error
	if flags.commit {
		if input, err = flags.commitInput(); err != nil {
			return err
		}
	}

	if flags.image {
		_, err = m.ReconcileFile(ctx, path)
	} else {
		var text []byte
		if path == "-" {
			text, err = io.ReadAll(in)
		} else {
			text, err = os.ReadFile(path)
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		_, err = m.Reconcile(ctx, string(text), true)
	}
	if err != nil {
		return err
	}

	edits := []struct {
		names []string
		apply func(context.Context, string) error
	}{
		{flags.confirm, m.MarkConfirmed},
		{flags.decline, m.MarkDeclined},
		{flags.remove, m.RemoveFromSession},
	}
	for _, e := range edits {
		for _, name := range e.names {
			if err := e.apply(ctx, name); err != nil {
				return fmt.Errorf("failed to edit %s: %w", name, err)
			}
		}
	}
	// Re-read so the printed statuses include the overrides.
	rec, ok := m.Pending()
	if !ok {
		return pipeline.ErrNoPendingSession
	}
	printReconciliation(out, rec)

	if !flags.commit {
		return nil
	}
	outcome, err := m.Commit(ctx, input)
	if err != nil {
		return err
	}
	printCommit(out, outcome)
	return nil
}

func printReconciliation(out io.Writer, rec *pipeline.Reconciliation) {
	if rec.OCRFailed {
		fmt.Fprintln(out, "warning: text recognition failed, reconciled an empty list")
	}
	fmt.Fprintf(out, "session type: %s\n", rec.SessionType)
	if rec.Metadata.Title != "" {
		fmt.Fprintf(out, "title: %s\n", rec.Metadata.Title)
	}
	if len(rec.Created) > 0 {
		fmt.Fprintf(out, "created: %s\n", strings.Join(rec.Created, ", "))
	}
	if len(rec.Unresolved) > 0 {
		fmt.Fprintf(out, "unresolved: %s\n", strings.Join(rec.Unresolved, ", "))
	}
	if len(rec.Dropped) > 0 {
		fmt.Fprintf(out, "dropped: %s\n", strings.Join(rec.Dropped, ", "))
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MEMBER\tSTATUS")
	for _, e := range rec.Statuses {
		fmt.Fprintf(tw, "%s\t%s\n", e.Member, e.Status)
	}
	_ = tw.Flush()
}

func printCommit(out io.Writer, outcome *pipeline.CommitOutcome) {
	req := outcome.Request
	fmt.Fprintf(out, "committed %s %q on %s: %d applied\n",
		req.Type, req.Title, req.Date.Format(time.DateOnly), len(outcome.Applied))
	if len(outcome.Duplicates) > 0 {
		fmt.Fprintf(out, "duplicates: %s\n", strings.Join(outcome.Duplicates, ", "))
	}
	for _, f := range outcome.Failed {
		fmt.Fprintf(out, "failed: %s (%s)\n", f.Member, f.Reason)
	}
	if outcome.Session != nil {
		fmt.Fprintf(out, "remembered session %s\n", outcome.Session.ID)
	}
	if len(outcome.Eligible) > 0 {
		fmt.Fprintf(out, "eligible for promotion: %s\n", strings.Join(outcome.Eligible, ", "))
	}
}
