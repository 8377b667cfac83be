package main

import (
	"io"
	"strconv"

	"github.com/augmentum/backend/internal/model"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print inbox counters",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	src, pool, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer pool.Close()

	inbox, err := openInbox(cmd.Context(), src)
	if err != nil {
		return err
	}
	return printStats(cmd.OutOrStdout(), inbox.Stats())
}

func printStats(w io.Writer, s model.Stats) error {
	t := newTable()
	t.addRow("total", strconv.Itoa(s.TotalCount))
	t.addRow("new", strconv.Itoa(s.NewCount))
	t.addRow("read", strconv.Itoa(s.ReadCount))
	t.addRow("replied", strconv.Itoa(s.RepliedCount))
	t.addRow("pending", strconv.Itoa(s.PendingCount))
	t.addRow("response", strconv.Itoa(s.ResponseRatePercent)+"%", s.Trends.Response)
	t.addRow("today", strconv.Itoa(s.TodayCount), s.Trends.Today)
	t.addRow("last_7d", strconv.Itoa(s.RecentCount), s.Trends.Recent)
	t.addRow("companies", strconv.Itoa(s.UniqueCompanyCount))
	return t.render(w)
}
