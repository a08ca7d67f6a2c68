package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jake-Brewer/auto-commit/internal/cli"
	"github.com/Jake-Brewer/auto-commit/internal/model"
	"github.com/Jake-Brewer/auto-commit/internal/rules"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Inspect and resolve files parked for review",
		Long: `Files the rules could not settle wait in the review queue. List them,
look at why they were parked, and resolve them with an include or
ignore decision that is written back into the rule files.`,
	}

	cmd.AddCommand(reviewListCmd())
	cmd.AddCommand(reviewShowCmd())
	cmd.AddCommand(reviewResolveCmd())
	cmd.AddCommand(reviewRemoveCmd())
	cmd.AddCommand(reviewClearCmd())
	cmd.AddCommand(reviewStatsCmd())

	return cmd
}

func reviewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List review items (pending by default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			resolved, _ := cmd.Flags().GetBool("resolved")

			items, err := store.ListPending(ctx)
			if resolved {
				items, err = store.ListResolved(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to list review items: %w", err)
			}

			if len(items) == 0 {
				if resolved {
					fmt.Println(cli.FormatSubtle("no resolved items"))
				} else {
					fmt.Println(cli.FormatSuccess("review queue is empty"))
				}
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tAGE\tPATH\tREASON")
			for i := range items {
				item := &items[i]
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
					item.ID, humanAge(item.CreatedAt), item.FilePath, item.Reason)
			}
			return w.Flush()
		},
	}

	cmd.Flags().Bool("resolved", false, "list resolved items instead of pending ones")

	return cmd
}

func reviewShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one review item in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			item, err := store.Get(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load item %d: %w", id, err)
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("review item %d", item.ID)))
			fmt.Println("  path:    " + item.FilePath)
			fmt.Println("  status:  " + cli.FormatStatus(item.Status))
			fmt.Println("  reason:  " + item.Reason)
			fmt.Println("  created: " + item.CreatedAt.Local().Format(time.RFC1123))
			if item.Status == model.StatusResolved {
				fmt.Println("  decision: " + string(item.Decision))
				if item.ResolvedAt != nil {
					fmt.Println("  resolved: " + item.ResolvedAt.Local().Format(time.RFC1123))
				}
			}
			if len(item.Metadata) > 0 {
				fmt.Println("  metadata:")
				keys := make([]string, 0, len(item.Metadata))
				for k := range item.Metadata {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Printf("    %s: %s\n", k, item.Metadata[k])
				}
			}
			return nil
		},
	}
}

func reviewResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve ID (include|ignore)",
		Short: "Record a decision and write the matching rule",
		Long: `Mark a pending item resolved and append a pattern to the rule file the
decision implies. Without --pattern the item's path relative to the
scope directory is used, so next time the rules settle it on their own.`,
		Args: cobra.ExactArgs(2),
		RunE: runReviewResolve,
	}

	cmd.Flags().String("pattern", "", "pattern to write instead of the item's path")
	cmd.Flags().String("scope", "global", "rule file to write: global (watch root) or project (item's directory)")

	return cmd
}

func runReviewResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := parseItemID(args[0])
	if err != nil {
		return err
	}

	decision := model.Decision(args[1])
	if !decision.Valid() {
		return fmt.Errorf("invalid decision %q (want include or ignore)", args[1])
	}

	scope := model.RuleScope(mustString(cmd, "scope"))
	if !scope.Valid() {
		return fmt.Errorf("invalid scope %q (want global or project)", scope)
	}

	root, err := watchRoot()
	if err != nil {
		return err
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	item, err := store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load item %d: %w", id, err)
	}

	pattern := mustString(cmd, "pattern")
	if pattern == "" {
		pattern, err = defaultPattern(root, scope, item.FilePath)
		if err != nil {
			return err
		}
	}

	if err := store.Resolve(ctx, id, decision, pattern); err != nil {
		return fmt.Errorf("failed to resolve item %d: %w", id, err)
	}

	resolver := rules.New(root)
	scopeDir := ""
	if scope == model.ScopeProject {
		scopeDir = item.FilePath
	}
	if err := resolver.AddPattern(pattern, decision.Action(), scope, scopeDir); err != nil {
		return fmt.Errorf("item %d resolved but rule not written: %w", id, err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("item %d resolved as %s, pattern %q recorded", id, decision, pattern)))
	return nil
}

// defaultPattern derives the rule pattern from the item's path: relative
// to the watch root for global scope, the bare file name for project
// scope.
func defaultPattern(root string, scope model.RuleScope, filePath string) (string, error) {
	if scope == model.ScopeProject {
		return filepath.Base(filePath), nil
	}

	rel, err := filepath.Rel(root, filePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside the watch root, pass --pattern explicitly", filePath)
	}
	return filepath.ToSlash(rel), nil
}

func reviewRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Delete a review item without recording a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Remove(ctx, id); err != nil {
				return fmt.Errorf("failed to remove item %d: %w", id, err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("item %d removed", id)))
			return nil
		},
	}
}

func reviewClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all resolved items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			n, err := store.ClearResolved(ctx)
			if err != nil {
				return fmt.Errorf("failed to clear resolved items: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%d resolved item(s) cleared", n)))
			return nil
		},
	}
}

func reviewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show review queue counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			st, err := store.Stats(ctx)
			if err != nil {
				return fmt.Errorf("failed to read stats: %w", err)
			}

			fmt.Println(cli.FormatTitle("review queue"))
			fmt.Printf("  pending:  %d\n", st.Pending)
			fmt.Printf("  resolved: %d\n", st.Resolved)
			fmt.Printf("  total:    %d\n", st.Total)
			return nil
		},
	}
}

func parseItemID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", arg)
	}
	return id, nil
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

// humanAge renders a creation time as a coarse age like "3h" or "2d".
func humanAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
