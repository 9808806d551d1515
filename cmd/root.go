// Package cmd は facade-studio のコマンドラインを定義します。
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/shouni/gemini-facade-studio/internal/config"
)

type rootOptions struct {
	storeDriver string
	sqlitePath  string
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "facade-studio",
		Short: "Storefront redesign studio powered by Gemini image editing",
		Long: `facade-studio edits photos of storefronts and interiors with a generative image model.

Each uploaded photo becomes a session with its own undo/redo history. Edits keep the
original aspect ratio: images are letterboxed to a square for the model and the result
is cropped back to the original size.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.storeDriver, "store", "", "Session store driver: sqlite, postgres or memory (overrides STORE_DRIVER)")
	cmd.PersistentFlags().StringVar(&opts.sqlitePath, "db", "", "SQLite database path (overrides SQLITE_PATH)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newSessionsCmd(opts))
	cmd.AddCommand(newRedesignCmd(opts))
	cmd.AddCommand(newRotateCmd(opts))
	cmd.AddCommand(newExportCmd(opts))

	return cmd
}

// loadConfig は環境変数の設定にフラグの上書きを適用します。
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.storeDriver != "" {
		cfg.Store.Driver = o.storeDriver
	}
	if o.sqlitePath != "" {
		cfg.Store.SQLitePath = o.sqlitePath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	config.SetupLogger(cfg.LogLevel)
	return cfg, nil
}
