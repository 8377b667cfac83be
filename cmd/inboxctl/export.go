package main

import (
	"bytes"
	"fmt"
	"time"

	"github.com/augmentum/backend/internal/export"
	"github.com/augmentum/backend/internal/storage"
	"github.com/spf13/cobra"
)

var exportDir string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every message to <brand>-messages-<date>.csv",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportDir, "out", "", "Directory to write to (default $EXPORT_DIR)")
}

func runExport(cmd *cobra.Command, args []string) error {
	dir := exportDir
	if dir == "" {
		dir = cfg.ExportDir
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
	var buf bytes.Buffer
	if err := inbox.Export(&buf); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	var store storage.Storage = storage.NewLocalStorage(dir)
	path, err := store.Save(cmd.Context(), export.Filename(cfg.Brand, time.Now()), &buf, export.ContentType)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d messages)\n", path, len(inbox.Messages()))
	return nil
}
