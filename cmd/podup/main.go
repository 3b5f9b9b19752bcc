package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cliconfig "podup/internal/cli/config"
)

type rootOptions struct {
	configPath string
	userName   string
	cfg        *cliconfig.Config
}

func (r *rootOptions) prepare() error {
	cfg, err := cliconfig.Load(r.configPath)
	if err != nil {
		return err
	}
	if r.userName != "" {
		cfg.UserName = r.userName
	}
	r.cfg = cfg
	return nil
}

func requireAPIKey() (string, error) {
	key := os.Getenv("RUNPOD_API_KEY")
	if key == "" {
		return "", fmt.Errorf("RUNPOD_API_KEY not set in environment")
	}
	return key, nil
}

func main() {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "podup",
		Short:         "Provision a GPU pod, launch the workload in tmux, and open its endpoint",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDashboard(cmd.Context(), opts)
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", cliconfig.DefaultConfigPath(), "path to podup config file (default $HOME/.podup/config)")
	rootCmd.PersistentFlags().StringVar(&opts.userName, "user", "", "override the saved username")
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return opts.prepare()
	}

	rootCmd.AddCommand(newDestroyCmd(opts))
	rootCmd.AddCommand(newPauseCmd(opts))
	rootCmd.AddCommand(newLogsCmd(opts))
	rootCmd.AddCommand(newKeysCmd(opts))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}
