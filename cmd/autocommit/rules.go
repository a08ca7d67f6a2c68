package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Jake-Brewer/auto-commit/internal/cli"
	"github.com/Jake-Brewer/auto-commit/internal/gitops"
	"github.com/Jake-Brewer/auto-commit/internal/model"
	"github.com/Jake-Brewer/auto-commit/internal/rules"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage the layered include/ignore rule files",
	}

	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesStatsCmd())
	cmd.AddCommand(rulesSeedCmd())

	return cmd
}

func rulesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add PATTERN",
		Short: "Append a pattern to a rule file",
		Long: `Write PATTERN into the rule file the action and scope select: the watch
root for global scope, or --project's directory for project scope.
Duplicate patterns are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: runRulesAdd,
	}

	cmd.Flags().String("action", "", "include or ignore (required)")
	cmd.Flags().String("scope", "global", "global (watch root) or project")
	cmd.Flags().String("project", "", "directory for project scope, relative to the root")
	cmd.Flags().String("root", ".", "watch root the rule tree hangs from")
	_ = cmd.MarkFlagRequired("action")

	return cmd
}

func runRulesAdd(cmd *cobra.Command, args []string) error {
	action := model.Action(mustString(cmd, "action"))
	if !action.Valid() || action == model.ActionReview {
		return fmt.Errorf("invalid action %q (want include or ignore)", action)
	}

	scope := model.RuleScope(mustString(cmd, "scope"))
	if !scope.Valid() {
		return fmt.Errorf("invalid scope %q (want global or project)", scope)
	}

	root, err := commandRoot(cmd)
	if err != nil {
		return err
	}

	resolver := rules.New(root)
	if err := resolver.AddPattern(args[0], action, scope, mustString(cmd, "project")); err != nil {
		return fmt.Errorf("failed to add pattern: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("pattern %q recorded for %s", args[0], action)))
	return nil
}

func rulesStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "List every rule file under the root",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := commandRoot(cmd)
			if err != nil {
				return err
			}

			resolver := rules.New(root)
			st, err := resolver.Scan()
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle("rule files under " + st.Root))
			if len(st.Files) == 0 {
				fmt.Println(cli.FormatSubtle("none found; 'autocommit rules seed' writes sensible ignore defaults"))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "FILE\tPATTERNS")
			for _, f := range st.Files {
				fmt.Fprintf(w, "%s\t%d\n", relTo(st.Root, f.Path), f.Patterns)
			}
			return w.Flush()
		},
	}

	cmd.Flags().String("root", ".", "watch root the rule tree hangs from")

	return cmd
}

func rulesSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write default ignore patterns to the root rule file",
		Long: `Append a starter set of ignore patterns (build artifacts, caches,
editor droppings) to the root .gitignore. Patterns that would ignore a
git-tracked file are skipped, as are patterns already present.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			root, err := commandRoot(cmd)
			if err != nil {
				return err
			}

			repo := gitops.NewRepo(root)
			if !repo.IsRepo(ctx) {
				return fmt.Errorf("%s is not a git repository (run 'git init' first)", root)
			}

			resolver := rules.New(root)
			added, err := resolver.SeedDefaultIgnores(ctx, repo)
			if err != nil {
				return fmt.Errorf("failed to seed default ignores: %w", err)
			}

			if len(added) == 0 {
				fmt.Println(cli.FormatSubtle("nothing to seed, defaults already covered"))
				return nil
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%d ignore pattern(s) added:", len(added))))
			for _, p := range added {
				fmt.Println("  " + p)
			}
			return nil
		},
	}

	cmd.Flags().String("root", ".", "watch root the rule tree hangs from")

	return cmd
}
