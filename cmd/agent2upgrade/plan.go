package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conn-castle/agent2upgrade/internal/messages"
	"github.com/conn-castle/agent2upgrade/internal/upgrade"
)

// defaultDiffMaxLines is the default maximum number of diff lines shown.
const defaultDiffMaxLines = 40

func newPlanCmd(flags *globalFlags) *cobra.Command {
	var (
		diffLines int
		ignore    []string
	)
	cmd := &cobra.Command{
		Use:   messages.PlanUse,
		Short: messages.PlanShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}
			opts.Ignore = ignore
			plan, err := upgrade.Plan(opts)
			if err != nil {
				return err
			}
			return renderPlan(cmd.OutOrStdout(), plan, diffLines)
		},
	}
	cmd.Flags().IntVar(&diffLines, "diff-lines", defaultDiffMaxLines, messages.PlanFlagDiffLines)
	cmd.Flags().StringArrayVar(&ignore, "ignore", nil, messages.FlagIgnore)
	return cmd
}

func renderPlan(out io.Writer, plan *upgrade.PlanResult, diffLines int) error {
	if _, err := fmt.Fprintln(out, messages.PlanHeader); err != nil {
		return err
	}
	if plan.Skipped {
		_, err := fmt.Fprintf(out, messages.ConvertSkippedFmt, plan.LegacyPath)
		return err
	}

	if err := writePlanSection(out, messages.PlanUpdatesTitle, plan.Diff.Update.Sorted()); err != nil {
		return err
	}
	if err := writePlanSection(out, messages.PlanAddsTitle, plan.Diff.Add.Sorted()); err != nil {
		return err
	}
	if len(plan.Collapsed) > 0 {
		if err := writePlanSection(out, messages.PlanCollapsedTitle, plan.Collapsed); err != nil {
			return err
		}
	}
	if err := writePlanSection(out, color.RedString(messages.PlanUnsupportedTitle), plan.Unsupported); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(out, "\n%s:\n", color.RedString(messages.PlanConflictsTitle)); err != nil {
		return err
	}
	if len(plan.Colliding) == 0 {
		if _, err := fmt.Fprintln(out, messages.PlanNone); err != nil {
			return err
		}
	}
	for _, f := range plan.Colliding {
		if _, err := fmt.Fprintf(out, messages.PlanConflictItemFmt, f.Identity.String(), strings.Join(f.Names, ", ")); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(out, "\n%s:\n", messages.PlanDiffTitle); err != nil {
		return err
	}
	if plan.Original == plan.Rendered {
		_, err := fmt.Fprintf(out, messages.PlanNoChangesFmt, plan.TargetPath, plan.LegacyPath)
		return err
	}
	diff, _ := renderTruncatedUnifiedDiff(plan.TargetPath, plan.TargetPath+" (converted)", plan.Original, plan.Rendered, diffLines)
	_, err := fmt.Fprint(out, diff)
	return err
}

func writePlanSection(out io.Writer, title string, items []string) error {
	if _, err := fmt.Fprintf(out, "\n%s:\n", title); err != nil {
		return err
	}
	if len(items) == 0 {
		_, err := fmt.Fprintln(out, messages.PlanNone)
		return err
	}
	for _, item := range items {
		if _, err := fmt.Fprintf(out, messages.PlanItemFmt, item); err != nil {
			return err
		}
	}
	return nil
}

// renderTruncatedUnifiedDiff renders a unified diff capped at maxLines lines
// and reports whether it was cut. maxLines <= 0 means the default cap.
func renderTruncatedUnifiedDiff(fromName string, toName string, fromContent string, toContent string, maxLines int) (string, bool) {
	limit := maxLines
	if limit <= 0 {
		limit = defaultDiffMaxLines
	}
	lines := splitDiffLines(udiff.Unified(fromName, toName, fromContent, toContent))
	if len(lines) <= limit {
		return ensureTrailingNewline(strings.Join(lines, "\n")), false
	}
	truncated := append(lines[:limit:limit], fmt.Sprintf(messages.PlanDiffTruncatedFmt, limit))
	return ensureTrailingNewline(strings.Join(truncated, "\n")), true
}

func splitDiffLines(content string) []string {
	trimmed := strings.TrimRight(content, "\n")
	if trimmed == "" {
		return []string{}
	}
	return strings.Split(trimmed, "\n")
}

func ensureTrailingNewline(content string) string {
	if content == "" || strings.HasSuffix(content, "\n") {
		return content
	}
	return content + "\n"
}
