package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	cliconfig "podup/internal/cli/config"
	"podup/internal/identity"
	"podup/internal/remote"
	"podup/internal/runpod"
)

// latestClient resolves the persisted latest pod and an API client, the
// shared preamble of the subcommands that act on "the" pod.
func latestClient(opts *rootOptions) (*runpod.Client, string, error) {
	apiKey, err := requireAPIKey()
	if err != nil {
		return nil, "", err
	}
	store := identity.Store{}
	podID := store.LatestPodID()
	if podID == "" {
		fmt.Println("Cannot determine which pod to act on")
		return nil, "", fmt.Errorf("no pod found in .latest_pod file")
	}
	fmt.Printf("Found pod ID: %s\n", podID)
	return runpod.NewClient(apiKey, opts.cfg.APIURL), podID, nil
}

func newDestroyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "destroy",
		Short: "Terminate the latest pod and forget it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			printSection("podup Shutdown")
			client, podID, err := latestClient(opts)
			if err != nil {
				return err
			}
			ok, err := client.TerminatePod(cmd.Context(), podID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("failed to shut down pod %s", podID)
			}
			fmt.Printf("\nSuccessfully shut down pod %s\n", podID)
			identity.Store{}.ClearLatestPodID()
			return nil
		},
	}
}

func newPauseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "pause",
		Aliases: []string{"stop"},
		Short:   "Stop the latest pod without deleting it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			printSection("podup Pause")
			client, podID, err := latestClient(opts)
			if err != nil {
				return err
			}
			ok, err := client.StopPod(cmd.Context(), podID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("failed to pause pod %s", podID)
			}
			fmt.Printf("\nSuccessfully paused pod %s\n", podID)
			fmt.Println("Pod can be resumed later with the 'reuse' feature")
			return nil
		},
	}
}

func newLogsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "Stream the latest pod's session log until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, podID, err := latestClient(opts)
			if err != nil {
				return err
			}
			return streamLogs(cmd.Context(), opts.cfg, client, podID)
		},
	}
}

func streamLogs(ctx context.Context, cfg *cliconfig.Config, client *runpod.Client, podID string) error {
	pod, err := client.GetPod(ctx, podID)
	if err != nil {
		return err
	}
	if pod == nil {
		return fmt.Errorf("pod %s not found", podID)
	}
	if !pod.Running() {
		return fmt.Errorf("pod %s is not running", podID)
	}
	sshPort := pod.FindPort("tcp", 22)
	if sshPort == nil {
		return fmt.Errorf("no SSH port found for this pod")
	}

	fmt.Printf("Connecting to SSH: %s:%d\n", sshPort.IP, sshPort.PublicPort)
	shell := remote.NewShell(sshPort.IP, sshPort.PublicPort, cfg.SSH.Username, cfg.SSHTimeout())
	if !shell.Connect(ctx, podID, sshMaxRetries) {
		return fmt.Errorf("failed to connect via SSH")
	}
	defer shell.Close()

	logFile := cliconfig.ExpandPodTemplate(cfg.TmuxLogFile, podID)
	return shell.StreamFile(ctx, logFile)
}

func newKeysCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Print the SSH public key registered on the account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			apiKey, err := requireAPIKey()
			if err != nil {
				return err
			}
			client := runpod.NewClient(apiKey, opts.cfg.APIURL)
			key, err := client.AccountPublicKey(cmd.Context())
			if err != nil {
				return err
			}
			if key == "" {
				fmt.Println("No SSH public key registered on the account")
				return nil
			}
			fmt.Println(key)
			return nil
		},
	}
}
