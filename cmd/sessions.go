package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSessionsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage saved sessions",
	}

	cmd.AddCommand(newSessionsListCmd(opts))
	cmd.AddCommand(newSessionsNewCmd(opts))
	cmd.AddCommand(newSessionsDeleteCmd(opts))
	cmd.AddCommand(newSessionsRenameCmd(opts))

	return cmd
}

func newSessionsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCREATED\tEDITS")
			for _, s := range a.studio.Sessions() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", s.ID, s.Name, s.CreatedAt.Local().Format("2006-01-02 15:04"), s.HistoryLength)
			}
			return tw.Flush()
		},
	}
}

func newSessionsNewCmd(opts *rootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:     "new <image>",
		Short:   "Create a session from a base image",
		Example: `  facade-studio sessions new shopfront.jpg --name "Main street"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			img, err := a.files.readImage(cmd.Context(), args[0])
			if err != nil {
				return userError(err)
			}
			sess, err := a.studio.Create(cmd.Context(), name, img)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%dx%d\n", sess.ID, sess.Name, sess.OriginalDimensions.Width, sess.OriginalDimensions.Height)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Session name (defaults to a dated project name)")

	return cmd
}

func newSessionsDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.studio.Delete(cmd.Context(), args[0]); err != nil {
				return userError(err)
			}
			return nil
		},
	}
}

func newSessionsRenameCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.studio.Rename(cmd.Context(), args[0], args[1]); err != nil {
				return userError(err)
			}
			return nil
		},
	}
}
