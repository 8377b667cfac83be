package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/augmentum/backend/internal/model"
	"github.com/spf13/cobra"
)

var (
	listSearch string
	listStatus string
	listSort   string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List messages, filtered and sorted like the dashboard",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listSearch, "q", "q", "", "Case-insensitive search over name, email, company and message")
	listCmd.Flags().StringVar(&listStatus, "status", model.StatusFilterAll, "all, new, read or replied")
	listCmd.Flags().StringVar(&listSort, "sort", string(model.SortByDate), "date, name or status")
}

func runList(cmd *cobra.Command, args []string) error {
	params := model.ViewParams{Search: listSearch, Status: listStatus, Sort: model.SortKey(listSort)}.Normalize()
	if params.Status != model.StatusFilterAll {
		if _, err := model.ParseStatus(params.Status); err != nil {
			return err
		}
	}

	src, pool, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer pool.Close()

	inbox, err := openInbox(cmd.Context(), src)
	if err != nil {
		return err
	}
	shown := inbox.View(params)
	if err := printMessages(cmd.OutOrStdout(), shown); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d messages\n", len(shown), len(inbox.Messages()))
	return nil
}

// printMessages writes an aligned table, one message per row.
func printMessages(w io.Writer, msgs []*model.ContactMessage) error {
	t := newTable("ID", "STATUS", "CREATED", "NAME", "EMAIL", "COMPANY", "MESSAGE")
	for _, m := range msgs {
		t.addRow(m.ID, string(m.Status), m.CreatedAt.Local().Format(time.DateTime),
			preview(m.Name, 30), m.Email, preview(m.CompanyName(), 30), preview(m.Message, 40))
	}
	return t.render(w)
}

// preview flattens s to one line and cuts it to n runes.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
