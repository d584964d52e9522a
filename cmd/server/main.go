package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"guffcircle/internal/config"
	"guffcircle/internal/logging"
)

var (
	offline bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "guff-circle",
	Short: "Guff Circle web shell",
	Long: `Serves the Guff Circle pages and session API.

Configuration is read from GUFF_* environment variables; the Firebase project
record can also be supplied as a YAML file via GUFF_FIREBASE_CONFIG.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.LogLevel, cfg.LogDevelopment)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the route table",
	Args:  cobra.NoArgs,
	RunE:  runRoutes,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "run without connecting to Firebase (sign-in disabled)")
	rootCmd.AddCommand(serveCmd, routesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		config.Exitf("guff-circle: %v", err)
	}
}
