package main

import (
	"fmt"
	"os"
	"path/filepath"

	"profile-service/internal/capture"
	"profile-service/internal/card"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportFormat string
	exportLayout string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <profile-id>",
	Short: "Download a stored card as PNG or animated GIF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		layout, err := card.ParseLayout(exportLayout)
		if err != nil {
			return err
		}
		return exportCard(cmd, args[0], exportFormat, layout, exportOut)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", string(capture.FormatPNG), "png or gif")
	exportCmd.Flags().StringVar(&exportLayout, "layout", string(card.LayoutBadge), "badge or poster")
	exportCmd.Flags().StringVar(&exportOut, "out", ".", "output directory")
}

func exportCard(cmd *cobra.Command, profileID, format string, layout card.Layout, outDir string) error {
	f, err := capture.ParseFormat(format)
	if err != nil {
		return err
	}

	logger.Info("capturing card", zap.String("profile_id", profileID), zap.String("format", string(f)))
	name, data, err := store.Export(cmd.Context(), profileID, string(f), string(layout))
	if err != nil {
		logger.Error("Failed to save card", zap.Error(err))
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(outDir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	logger.Info("Card saved successfully!", zap.String("path", path), zap.Int("bytes", len(data)))
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
