package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shouni/gemini-facade-studio/pkg/publish"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Publish the current image of a session",
		Long: `Publishes the session's current image to the configured export target.

When MINIO_ENDPOINT is set the image is uploaded to the MINIO_BUCKET bucket.
Otherwise, when EXPORT_URI is a gs:// or s3:// prefix it is written below that prefix,
and failing both it is written under EXPORT_DIR.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.activate(sessionID); err != nil {
				return userError(err)
			}
			view, err := a.studio.Active()
			if err != nil {
				return userError(err)
			}
			img, err := publish.AsJPEG(view.Current)
			if err != nil {
				return userError(err)
			}
			name := publish.ObjectName(view.Session.ID, time.Now(), img.MimeType)
			loc, err := a.publisher.Publish(ctx, name, img)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), loc)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID to export (defaults to the newest session)")

	return cmd
}
