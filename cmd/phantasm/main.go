// Command phantasm drives a Phantom instance from the shell: it creates
// containers and artifacts, uploads files to the vault, and runs playbooks
// and actions. Every command prints the JSON Phantom returned.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tphakala/go-phantom"
)

// app holds the global flags and the objects built from them.
type app struct {
	configPath string
	baseURL    string
	token      string
	insecure   bool
	verbose    bool
	timeout    time.Duration

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "phantasm",
		Short: "Phantom REST API helper for testers",
		Long: `phantasm talks to the Phantom REST API with an automation token.

Connection settings come from --config (YAML), then the PHANTOM_URL,
PHANTOM_AUTH_TOKEN, PHANTOM_INSECURE_SKIP_VERIFY and PHANTOM_TIMEOUT
environment variables, then the flags below.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if a.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&a.baseURL, "url", "", "Phantom base URL")
	rootCmd.PersistentFlags().StringVar(&a.token, "token", "", "automation user token")
	rootCmd.PersistentFlags().BoolVarP(&a.insecure, "insecure", "k", false, "skip TLS certificate verification")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "per-request timeout")

	rootCmd.AddCommand(
		a.containerCmd(),
		a.artifactCmd(),
		a.vaultCmd(),
		a.playbookCmd(),
		a.actionCmd(),
	)

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// config resolves connection settings: file, then environment, then flags.
func (a *app) config() (*phantom.Config, error) {
	var cfg *phantom.Config
	var err error
	if a.configPath != "" {
		cfg, err = phantom.LoadConfig(a.configPath)
	} else {
		cfg, err = phantom.ConfigFromEnv()
	}
	if err != nil {
		return nil, err
	}

	if a.baseURL != "" {
		cfg.URL = a.baseURL
	}
	if a.token != "" {
		cfg.Token = a.token
	}
	if a.insecure {
		cfg.InsecureSkipVerify = true
	}
	if a.timeout > 0 {
		cfg.Timeout = a.timeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *app) client() (*phantom.Client, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	logger := a.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return phantom.NewClient(phantom.WithConfig(cfg), phantom.WithLogger(logger))
}

// run builds the client and hands it to fn.
func (a *app) run(fn func(cmd *cobra.Command, c *phantom.Client, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := a.client()
		if err != nil {
			return err
		}
		return fn(cmd, c, args)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID %q", s)
	}
	return id, nil
}
