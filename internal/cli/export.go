package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rendermodes/internal/logger"
	"rendermodes/internal/render"
)

var flagOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the static (ssg) pages to a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := logger.InitLogger(cfg.Env, "warn")
		if err != nil {
			return err
		}
		defer logger.Sync()

		srv, err := newServer(cfg, log)
		if err != nil {
			return err
		}
		paths, err := render.Export(cmd.Context(), srv.Registry(), srv.Renderer(), flagOut)
		if err != nil {
			return err
		}
		log.Info("export finished", zap.Int("files", len(paths)), zap.String("dir", flagOut))
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d pages to %s\n", len(paths), flagOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&flagOut, "out", "o", "dist", "output directory")
}
