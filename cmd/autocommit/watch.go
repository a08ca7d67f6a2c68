package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/Jake-Brewer/auto-commit/internal/cli"
	"github.com/Jake-Brewer/auto-commit/internal/commit"
	"github.com/Jake-Brewer/auto-commit/internal/dispatch"
	"github.com/Jake-Brewer/auto-commit/internal/gitops"
	"github.com/Jake-Brewer/auto-commit/internal/queue"
	"github.com/Jake-Brewer/auto-commit/internal/review"
	"github.com/Jake-Brewer/auto-commit/internal/rules"
	"github.com/Jake-Brewer/auto-commit/internal/watch"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the tree and commit included changes",
		Long: `Start the agent: watch the root for file changes, classify each one
against the layered rule files, commit included changes with generated
messages, and park ambiguous ones for review.`,
		RunE: runWatch,
	}

	cmd.Flags().String("root", ".", "directory to watch")
	cmd.Flags().Int("workers", 2, "number of dispatch workers")
	cmd.Flags().Int("queue-size", 256, "event queue capacity")
	cmd.Flags().Bool("no-commit", false, "classify and log instead of committing")

	_ = viper.BindPFlag("watch.root", cmd.Flags().Lookup("root"))
	_ = viper.BindPFlag("watch.workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("watch.queue_size", cmd.Flags().Lookup("queue-size"))

	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	root, err := watchRoot()
	if err != nil {
		return err
	}

	repo := gitops.NewRepo(root)
	if !repo.IsRepo(ctx) {
		return fmt.Errorf("%s is not a git repository (run 'git init' first)", root)
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	resolver := rules.New(root)

	gen, err := newGenerator()
	if err != nil {
		return err
	}

	noCommit, _ := cmd.Flags().GetBool("no-commit")
	commitEnabled := viper.GetBool("commit.enabled") && !noCommit

	var committer dispatch.Committer = commit.New(repo, gen)
	if !commitEnabled {
		committer = logCommitter{}
	}

	q := queue.New(viper.GetInt("watch.queue_size"))
	defer q.Close()

	poolCfg := dispatch.DefaultConfig()
	if n := viper.GetInt("watch.workers"); n > 0 {
		poolCfg.Workers = n
	}
	if d := viper.GetDuration("watch.poll_interval"); d > 0 {
		poolCfg.PollInterval = d
	}
	pool := dispatch.NewWithConfig(q, resolver, store, committer, poolCfg)

	dbPath := databasePath()
	watchCfg := watch.DefaultConfig()
	watchCfg.SkipPaths = []string{dbPath, dbPath + "-wal", dbPath + "-shm"}
	watcher, err := watch.NewWithConfig(root, q, watchCfg)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	fmt.Println(cli.FormatTitle("autocommit " + version))
	fmt.Println(cli.FormatSubtle("  root:     " + root))
	fmt.Println(cli.FormatSubtle("  database: " + dbPath))
	fmt.Println(cli.FormatSubtle(fmt.Sprintf("  workers:  %d", poolCfg.Workers)))
	fmt.Println(cli.FormatSubtle("  message:  " + gen.Name()))
	if !commitEnabled {
		fmt.Println(cli.FormatWarning("commits disabled, included files are logged only"))
	}

	if err := pool.Start(ctx); err != nil {
		return err
	}
	defer pool.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watcher.Run(gctx)
	})
	g.Go(func() error {
		return reportStats(gctx, q, store)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	fmt.Println(cli.FormatSuccess("watcher stopped"))
	return nil
}

// reportStats logs queue and review depth periodically so a long
// running agent leaves a heartbeat in the logs.
func reportStats(ctx context.Context, q *queue.Queue, store *review.Store) error {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			st, err := store.Stats(ctx)
			if err != nil {
				slog.Warn("failed to read review stats", "error", err)
				continue
			}
			slog.Info("agent heartbeat",
				"queued", q.Len(),
				"pending_reviews", st.Pending)
		}
	}
}

// logCommitter stands in for the pipeline when commits are disabled.
type logCommitter struct{}

func (logCommitter) Commit(_ context.Context, path string) error {
	slog.Info("would commit", "path", path)
	return nil
}
