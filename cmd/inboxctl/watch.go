package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/augmentum/backend/internal/dashboard"
	"github.com/augmentum/backend/internal/repository"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the change feed and reprint stats on every change",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// afterChange wraps a Source so that after is called once the controller
// has handled each change notification.
type afterChange struct {
	dashboard.Source
	after func()
}

func (s afterChange) Subscribe(ctx context.Context, onChange func()) (repository.Unsubscribe, error) {
	return s.Source.Subscribe(ctx, func() {
		onChange()
		s.after()
	})
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, pool, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	out := cmd.OutOrStdout()
	var inbox *dashboard.Controller
	inbox, err = openInbox(ctx, afterChange{Source: src, after: func() {
		printStamped(out, inbox)
	}})
	if err != nil {
		return err
	}
	printStamped(out, inbox)
	return inbox.Watch(ctx)
}

func printStamped(w io.Writer, inbox *dashboard.Controller) {
	fmt.Fprintf(w, "--- %s\n", time.Now().Format(time.TimeOnly))
	printStats(w, inbox.Stats())
}
