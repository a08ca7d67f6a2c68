package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Jake-Brewer/auto-commit/internal/cli"
	"github.com/Jake-Brewer/auto-commit/internal/rules"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check PATH...",
		Short: "Classify paths without committing anything",
		Long: `Resolve each path against the layered rule files and print the
resulting action together with the patterns that matched. Useful for
debugging why a file keeps landing in review.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCheck,
	}

	cmd.Flags().String("root", ".", "directory the rule chain starts from")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	root, err := commandRoot(cmd)
	if err != nil {
		return err
	}
	resolver := rules.New(root)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACTION\tPATH\tMATCHED")

	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", arg, err)
		}

		eval := resolver.Evaluate(abs)
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			cli.FormatAction(eval.Action), arg, matchSummary(root, eval))
	}

	return w.Flush()
}

// matchSummary lists the patterns that claimed the path, prefixed with
// their polarity, or the resolver's reason when nothing matched.
func matchSummary(root string, eval rules.Evaluation) string {
	parts := make([]string, 0, len(eval.Include)+len(eval.Ignore))
	for _, m := range eval.Include {
		parts = append(parts, fmt.Sprintf("+%s (%s)", m.Pattern, relTo(root, m.File)))
	}
	for _, m := range eval.Ignore {
		parts = append(parts, fmt.Sprintf("-%s (%s)", m.Pattern, relTo(root, m.File)))
	}

	if len(parts) == 0 {
		return cli.FormatSubtle(eval.Reason)
	}
	return strings.Join(parts, ", ")
}
