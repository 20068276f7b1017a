package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"profile-service/internal/card"
	"profile-service/internal/generator"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	genName   string
	genRole   string
	genBio    string
	genPhoto  string
	genExport string
	genLayout string
	genOut    string
	genHTML   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Create a profile and optionally export its card",
	Example: `  cardctl generate --name Ava --role Scout
  cardctl generate --name Ava --role Scout --photo me.jpg --export gif --out cards/`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genName, "name", "", "display name (required)")
	f.StringVar(&genRole, "role", "", "role (required)")
	f.StringVar(&genBio, "bio", "", "optional bio")
	f.StringVar(&genPhoto, "photo", "", "image file to upload")
	f.StringVar(&genExport, "export", "", "export the card as png or gif")
	f.StringVar(&genLayout, "layout", string(card.LayoutBadge), "card layout: badge or poster")
	f.StringVar(&genOut, "out", ".", "directory for exported files")
	f.StringVar(&genHTML, "html", "", "also write the card document to this file")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	layout, err := card.ParseLayout(genLayout)
	if err != nil {
		return err
	}

	session := generator.NewSession(store, generator.NewLogNotifier(logger), logger)
	session.SetForm(generator.Form{Name: genName, Role: genRole, Bio: genBio})

	if genPhoto != "" {
		data, err := os.ReadFile(genPhoto)
		if err != nil {
			return fmt.Errorf("read photo: %w", err)
		}
		if err := session.StagePhoto(ctx, filepath.Base(genPhoto), contentTypeOf(genPhoto, data), int64(len(data)), bytes.NewReader(data)); err != nil {
			return err
		}
	}

	p, err := session.Submit(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return err
	}

	if genHTML != "" {
		r, err := card.NewRenderer()
		if err != nil {
			return err
		}
		doc, err := r.Document(*session.View(), card.Options{Layout: layout})
		if err != nil {
			return err
		}
		if err := os.WriteFile(genHTML, []byte(doc), 0o644); err != nil {
			return err
		}
		logger.Info("card document written", zap.String("path", genHTML))
	}

	if genExport != "" {
		return exportCard(cmd, p.ID, genExport, layout, genOut)
	}
	return nil
}

// contentTypeOf prefers the extension and falls back to sniffing.
func contentTypeOf(path string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
