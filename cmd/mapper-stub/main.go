// Command mapper-stub serves a local stand-in for the product mapping
// service, for demos and integration tests.
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Veraticus/inventory-mapper/internal/certs"
	"github.com/Veraticus/inventory-mapper/internal/common"
	"github.com/Veraticus/inventory-mapper/internal/config"
	"github.com/Veraticus/inventory-mapper/internal/stubserver"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	debug   bool
	rootCmd = &cobra.Command{
		Use:   "mapper-stub",
		Short: "Local stub of the product mapping service",
		Long: `mapper-stub implements the upload, preprocess, match, view-mapped,
check-accuracy and download endpoints with a simple name matcher.
Prometheus metrics are served on /metrics.`,
		Args:         cobra.NoArgs,
		RunE:         serve,
		SilenceUsage: true,
	}
)

func init() {
	config.SetDefaults(viper.GetViper())

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/mapper/config.yaml)")
	rootCmd.Flags().String("addr", config.DefaultStubAddr, "listen address")
	rootCmd.Flags().String("data-dir", "", "directory for uploaded and generated files")
	rootCmd.Flags().Duration("delay", 0, "artificial delay for preprocess and match")
	rootCmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed certificate kept under the data directory")
	rootCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "run gin in debug mode")

	_ = viper.BindPFlag(config.KeyStubAddr, rootCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag(config.KeyStubDataDir, rootCmd.Flags().Lookup("data-dir"))
	_ = viper.BindPFlag(config.KeyStubDelay, rootCmd.Flags().Lookup("delay"))
	_ = viper.BindPFlag(config.KeyStubTLS, rootCmd.Flags().Lookup("tls"))
	_ = viper.BindPFlag(config.KeyLogLevel, rootCmd.Flags().Lookup("log-level"))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	if err := config.ReadFile(viper.GetViper(), cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	level, err := common.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	if err := common.SetupLogger(os.Stderr, level, cfg.Logging.Format); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	stubCfg := stubserver.Config{
		DataDir: cfg.Stub.DataDir,
		Delay:   cfg.Stub.Delay,
		Debug:   debug,
	}
	if cfg.Stub.TLS {
		store := certs.NewStore(filepath.Join(cfg.Stub.DataDir, "certs"))
		cert, err := store.Ensure()
		if err != nil {
			return fmt.Errorf("failed to prepare TLS certificate: %w", err)
		}
		stubCfg.TLS = &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
		slog.Info("Serving HTTPS; point server.ca_file at the certificate to trust it", "ca_file", store.CertFile())
	}

	srv, err := stubserver.New(stubCfg)
	if err != nil {
		return err
	}

	slog.Info("Starting stub service", "addr", cfg.Stub.Addr, "delay", cfg.Stub.Delay)
	return srv.Run(cmd.Context(), cfg.Stub.Addr)
}
