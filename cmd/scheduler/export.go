package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-jobalert-scheduler/internal/domain"
	"go-jobalert-scheduler/pkg/logger"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export sent notifications to XLSX or CSV",
	RunE:  runExport,
}

var (
	exportFrom   string
	exportTo     string
	exportFormat string
	exportOutDir string
)

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "First day, YYYY-MM-DD (required)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Last day, YYYY-MM-DD (required)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "xlsx", "xlsx or csv")
	exportCmd.Flags().StringVarP(&exportOutDir, "out", "o", ".", "Output directory")

	for _, name := range []string{"from", "to"} {
		if err := exportCmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	from, err := time.Parse(time.DateOnly, exportFrom)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	to, err := time.Parse(time.DateOnly, exportTo)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	data, filename, err := a.exportUC.ExportNotifications(ctx, domain.ExportRequest{
		From:   from,
		To:     to.Add(24*time.Hour - time.Nanosecond),
		Format: exportFormat,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(exportOutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(exportOutDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logger.Log.Info("Notification export written", "path", path, "bytes", len(data))
	return nil
}
