package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Veraticus/inventory-mapper/internal/common"
	"github.com/Veraticus/inventory-mapper/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "mapper",
		Short: "🧭 Product mapping pipeline console",
		Long: `mapper drives a remote product mapping service through its five stages:
upload, preprocess, match, view mapped and check accuracy.

Run without a subcommand for the interactive console.`,
		PersistentPreRunE: initConfig,
		RunE:              runTUI,
		SilenceUsage:      true,
	}
)

func init() {
	config.SetDefaults(viper.GetViper())

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/mapper/config.yaml)")
	rootCmd.PersistentFlags().String("server", config.DefaultServerURL, "pipeline service base URL")
	rootCmd.PersistentFlags().String("ca-file", "", "extra PEM certificate to trust for HTTPS")
	rootCmd.PersistentFlags().Duration("timeout", config.DefaultTimeout, "per-request timeout (0 disables)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().Bool("no-journal", false, "do not record attempts in the local journal")

	// Bind flags to viper
	_ = viper.BindPFlag(config.KeyServerURL, rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag(config.KeyServerCAFile, rootCmd.PersistentFlags().Lookup("ca-file"))
	_ = viper.BindPFlag(config.KeyRemoteTimeout, rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup("log-format"))

	// Add commands
	rootCmd.AddCommand(tuiCmd())
	rootCmd.AddCommand(uploadCmd())
	rootCmd.AddCommand(preprocessCmd())
	rootCmd.AddCommand(matchCmd())
	rootCmd.AddCommand(viewCmd())
	rootCmd.AddCommand(checkAccuracyCmd())
	rootCmd.AddCommand(downloadCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	if err := config.ReadFile(viper.GetViper(), cfgFile); err != nil {
		return err
	}
	if noJournal, _ := cmd.Flags().GetBool("no-journal"); noJournal {
		viper.Set(config.KeyJournalEnabled, false)
	}

	if err := setupLogging(os.Stderr); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	return nil
}

func setupLogging(w *os.File) error {
	level, err := common.ParseLevel(viper.GetString(config.KeyLogLevel))
	if err != nil {
		return err
	}
	return common.SetupLogger(w, level, viper.GetString(config.KeyLogFormat))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "mapper %s\n", version); err != nil {
				slog.Error("failed to write output", "error", err)
			}
		},
	}
}
