package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"profile-service/internal/card"
	"profile-service/internal/gallery"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	galleryHTML   string
	galleryLayout string
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "List every stored profile",
	RunE:  runGallery,
}

func init() {
	galleryCmd.Flags().StringVar(&galleryHTML, "html", "", "write the gallery page to this file")
	galleryCmd.Flags().StringVar(&galleryLayout, "layout", string(card.LayoutBadge), "card layout for --html")
}

func runGallery(cmd *cobra.Command, _ []string) error {
	layout, err := card.ParseLayout(galleryLayout)
	if err != nil {
		return err
	}

	loader := gallery.NewLoader(store, logger)
	res := loader.Load(cmd.Context(), func(s gallery.State) {
		logger.Debug("gallery", zap.String("state", string(s)))
	})

	switch res.State {
	case gallery.StateFailed:
		logger.Error(gallery.MsgLoadFailed, zap.Error(res.Err))
	case gallery.StateEmpty:
		fmt.Fprintln(cmd.OutOrStdout(), "No profiles yet. Create your first one with: cardctl generate --name <name> --role <role>")
	default:
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tENCRYPTED ID\tNAME\tROLE\tGENERATED")
		for _, v := range res.Cards {
			fmt.Fprintf(tw, "%s\t#%s\t%s\t%s\t%s\n", v.ProfileID, v.EncryptedID, v.Name, v.Role, v.Date)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if galleryHTML != "" {
		r, err := card.NewRenderer()
		if err != nil {
			return err
		}
		f, err := os.Create(galleryHTML)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := r.RenderGallery(f, res.Page(layout)); err != nil {
			return err
		}
		logger.Info("gallery page written", zap.String("path", galleryHTML))
	}

	if res.State == gallery.StateFailed {
		return res.Err
	}
	return nil
}
