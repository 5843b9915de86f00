// Entry point for the Lua language server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marcuscaisey/luals/luals/config"
	"github.com/marcuscaisey/luals/luals/lsp"
)

const stdioPort = -1

var (
	port       int
	debugLog   string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "luals",
	Short: "Lua language server",
	Long: `luals is a language server for Lua.
By default, it reads requests from stdin and writes responses to stdout.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Load configuration from this TOML file")
	rootCmd.PersistentFlags().StringVarP(&debugLog, "debug-log", "d", "", "Write debug logs to this file")
	rootCmd.Flags().IntVarP(&port, "port", "p", stdioPort, "Serve over TCP on this port instead of stdio (0 or no value picks a free port).\nIn TCP mode, an exit notification closes its connection and the server keeps running.")
	rootCmd.Flags().Lookup("port").NoOptDefVal = "0"

	rootCmd.AddCommand(checkCmd, inspectCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errFoundErrors) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// loadConfig loads the configuration and builds the process logger from it and the command line flags.
func loadConfig() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	level, err := cfg.Log.ZapLevel()
	if err != nil {
		return config.Config{}, nil, err
	}

	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.DisableStacktrace = true
	if debugLog != "" {
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		zapCfg.OutputPaths = []string{debugLog}
		zapCfg.ErrorOutputPaths = []string{debugLog}
	}
	logger, err := zapCfg.Build()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("building logger: %w", err)
	}
	return cfg, logger, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of luals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		version, err := lsp.BuildVersion()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), version)
		return nil
	},
}
