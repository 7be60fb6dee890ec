package cli

import (
	"diskwarden/internal/config"
	"diskwarden/internal/controllers"
	"diskwarden/internal/middleware"
	"diskwarden/internal/services"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the diskwarden command tree
func NewRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "diskwarden",
		Short:         "Disk usage monitor for device-backed filesystems",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to diskwarden.yaml")

	load := func() (*config.Config, *logrus.Logger, error) {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, nil, err
		}
		logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return nil, nil, err
		}
		services.SetLogger(logger)
		middleware.SetLogger(logger.WithField("component", "security"))
		controllers.Configure(logger, cfg.AllowedOrigins)
		return cfg, logger, nil
	}

	rootCmd.AddCommand(
		newServeCmd(load),
		newDFCmd(load),
		newTokenCmd(load),
	)
	return rootCmd
}

type loader func() (*config.Config, *logrus.Logger, error)
