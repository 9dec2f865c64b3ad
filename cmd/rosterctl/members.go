package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/eligibility"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/pipeline"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/roster"
)

func membersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "members",
		Short: "List members with their counters",
		Args:  cobra.NoArgs,
		RunE: withManager(func(ctx context.Context, cmd *cobra.Command, m *pipeline.Manager, args []string) error {
			members, err := m.Members(ctx)
			if err != nil {
				return err
			}
			printMembers(cmd.OutOrStdout(), members)
			return nil
		}),
	}
}

func printMembers(out io.Writer, members []pipeline.MemberView) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tRANK\tGROUP\tLEVEL\tTRAINING\tEVENT\tRESERVE\tNO RESPONSE\t")
	for _, mv := range members {
		flag := ""
		if mv.Flagged {
			flag = "!"
		}
		c := mv.SinceLastPromotion
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d%s\t\n",
			mv.Name, mv.Rank, mv.Group, mv.Level, c.Training, c.Event, c.Reserve, mv.NoResponseCounter, flag)
	}
	_ = tw.Flush()
}

func importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Merge member records from a JSON array into the roster",
		Args:  cobra.ExactArgs(1),
		RunE: withManager(func(ctx context.Context, cmd *cobra.Command, m *pipeline.Manager, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			var records []roster.Member
			if err := json.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}
			res, err := m.Import(ctx, records)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d, merged %d\n", len(res.Created), len(res.Merged))
			return nil
		}),
	}
}

func renameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a member, keeping counters and history",
		Args:  cobra.ExactArgs(2),
		RunE: withManager(func(ctx context.Context, cmd *cobra.Command, m *pipeline.Manager, args []string) error {
			member, err := m.Rename(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed %s to %s\n", args[0], member.Name)
			return nil
		}),
	}
}

func deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a member and their attendance log",
		Args:  cobra.ExactArgs(1),
		RunE: withManager(func(ctx context.Context, cmd *cobra.Command, m *pipeline.Manager, args []string) error {
			if err := m.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		}),
	}
}

func promoteCommand() *cobra.Command {
	return rankCommand("promote", "Move a member one rank up and reset their counters",
		func(m *pipeline.Manager) func(context.Context, string) (*eligibility.Result, error) { return m.Promote })
}

func demoteCommand() *cobra.Command {
	return rankCommand("demote", "Move a member one rank down",
		func(m *pipeline.Manager) func(context.Context, string) (*eligibility.Result, error) { return m.Demote })
}

func rankCommand(use, short string, change func(*pipeline.Manager) func(context.Context, string) (*eligibility.Result, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withManager(func(ctx context.Context, cmd *cobra.Command, m *pipeline.Manager, args []string) error {
			res, err := change(m)(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", res.Member, res.Rank)
			return nil
		}),
	}
}

func eligibilityCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "eligibility [name]",
		Short: "Evaluate promotion eligibility for one member or the whole roster",
		Args:  cobra.MaximumNArgs(1),
		RunE: withManager(func(ctx context.Context, cmd *cobra.Command, m *pipeline.Manager, args []string) error {
			if len(args) == 1 {
				res, err := m.Eligibility(ctx, args[0])
				if err != nil {
					return err
				}
				printEligibility(cmd.OutOrStdout(), []eligibility.Result{*res})
				return nil
			}
			report, err := m.EligibilityReport(ctx)
			if err != nil {
				return err
			}
			printEligibility(cmd.OutOrStdout(), append(report.Eligible, report.Ineligible...))
			return nil
		}),
	}
}

func printEligibility(out io.Writer, results []eligibility.Result) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MEMBER\tRANK\tNEXT\tELIGIBLE\tREASONS")
	for _, r := range results {
		next := r.NextRank
		if next == "" {
			next = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", r.Member, r.Rank, next, r.Eligible, strings.Join(r.Reasons, "; "))
	}
	_ = tw.Flush()
}

func sessionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List remembered sessions",
		Args:  cobra.NoArgs,
		RunE: withManager(func(ctx context.Context, cmd *cobra.Command, m *pipeline.Manager, args []string) error {
			sessions, err := m.Sessions(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tTYPE\tTITLE\tCONFIRMED\tDECLINED\tNO RESPONSE")
			for _, s := range sessions {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
					s.ID, s.Date.Format(time.DateOnly), s.Type, s.Title, len(s.Confirmed), len(s.Declined), len(s.NoResponse))
			}
			return tw.Flush()
		}),
	}
}
