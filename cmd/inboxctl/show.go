package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/augmentum/backend/internal/model"
	"github.com/augmentum/backend/internal/repository"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one message in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	id := args[0]
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid message id %q", id)
	}

	src, pool, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer pool.Close()

	msg, err := src.Get(cmd.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("message %s not found", id)
	}
	if err != nil {
		return err
	}
	return printMessage(cmd.OutOrStdout(), msg)
}

// printMessage writes the header fields as a table followed by the full body.
func printMessage(w io.Writer, m *model.ContactMessage) error {
	t := newTable()
	t.addRow("id", m.ID)
	t.addRow("status", string(m.Status))
	t.addRow("name", m.Name)
	t.addRow("email", m.Email)
	if c := m.CompanyName(); c != "" {
		t.addRow("company", c)
	}
	t.addRow("created", m.CreatedAt.Local().Format(time.DateTime))
	if m.UpdatedAt != nil {
		t.addRow("updated", m.UpdatedAt.Local().Format(time.DateTime))
	}
	if err := t.render(w); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%s\n", m.Message)
	return err
}
