package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
	"github.com/shouni/gemini-facade-studio/pkg/session"
)

type editOptions struct {
	sessionID string
	out       string
}

func (o *editOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.sessionID, "session", "s", "", "Session ID to edit (defaults to the newest session)")
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "Also write the edited image to this file")
}

func newRedesignCmd(opts *rootOptions) *cobra.Command {
	var (
		eo         editOptions
		product    string
		background string
		sketch     string
	)

	cmd := &cobra.Command{
		Use:   "redesign [prompt]",
		Short: "Apply a free-text redesign to the current image of a session",
		Long: `Applies a redesign to the session's current image and appends the result to its history.

Product and background references may be local files, gs:// or s3:// objects, or http(s) URLs. A sketch image
replaces the current image as the edit input and is interpreted as drawn guidance.`,
		Example: `  facade-studio redesign "paint the door dark green"
  facade-studio redesign --product ./sign.png "mount this sign above the entrance"
  facade-studio redesign --background https://example.com/street.jpg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.activate(eo.sessionID); err != nil {
				return userError(err)
			}

			var in session.RedesignInput
			if len(args) > 0 {
				in.Prompt = strings.TrimSpace(args[0])
			}
			if in.Product, in.ProductURL, err = a.files.reference(ctx, product); err != nil {
				return userError(err)
			}
			if in.Background, in.BackgroundURL, err = a.files.reference(ctx, background); err != nil {
				return userError(err)
			}
			if sketch != "" {
				img, err := a.files.readImage(ctx, sketch)
				if err != nil {
					return userError(err)
				}
				if _, err := a.studio.SetOverlay(img); err != nil {
					return userError(err)
				}
			}

			res, err := a.studio.Redesign(ctx, in)
			if err != nil {
				return userError(err)
			}
			return eo.report(cmd, a, res)
		},
	}

	eo.bind(cmd)
	cmd.Flags().StringVar(&product, "product", "", "Product image to place into the scene (file, gs://, s3:// or URL)")
	cmd.Flags().StringVar(&background, "background", "", "Background image to composite behind the scene (file, gs://, s3:// or URL)")
	cmd.Flags().StringVar(&sketch, "sketch", "", "Sketched-over version of the current image to use as input")

	return cmd
}

func newRotateCmd(opts *rootOptions) *cobra.Command {
	var eo editOptions

	cmd := &cobra.Command{
		Use:       "rotate <left|right>",
		Short:     "Re-render the current image from a camera rotated 45 degrees",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(domain.DirectionLeft), string(domain.DirectionRight)},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dir, err := domain.ParseDirection(strings.ToLower(args[0]))
			if err != nil {
				return userError(err)
			}

			a, err := newApp(ctx, opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.activate(eo.sessionID); err != nil {
				return userError(err)
			}
			res, err := a.studio.Rotate(ctx, dir)
			if err != nil {
				return userError(err)
			}
			return eo.report(cmd, a, res)
		},
	}

	eo.bind(cmd)

	return cmd
}

func (o *editOptions) report(cmd *cobra.Command, a *app, res *domain.EditResult) error {
	view, err := a.studio.Active()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "session %s: edit %d of %d\n", view.Session.ID, view.Cursor+1, view.Session.HistoryLength)
	if o.out != "" {
		if err := os.WriteFile(o.out, res.FinalImage.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", o.out, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", o.out)
	}
	return nil
}
