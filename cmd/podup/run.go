package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/browser"

	cliconfig "podup/internal/cli/config"
	"podup/internal/engine"
	"podup/internal/identity"
	"podup/internal/remote"
	"podup/internal/runpod"
	"podup/internal/sshconfig"
)

const sshMaxRetries = 30

func printSection(title string) {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", 80))
}

// runDashboard is the default flow: acquire a ready pod, connect, make sure
// the workload session is up, open the endpoint, optionally stream logs.
func runDashboard(ctx context.Context, opts *rootOptions) error {
	cfg := opts.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}
	apiKey, err := requireAPIKey()
	if err != nil {
		return err
	}
	user, err := identity.LoadOrPromptUser(cfg.UserName)
	if err != nil {
		return err
	}

	printSection("podup")
	fmt.Printf("User: %s\n", user.Name)

	client := runpod.NewClient(apiKey, cfg.APIURL)
	store := identity.Store{}

	podID, err := engine.AcquirePod(ctx, client, store, engine.Options{
		TargetPodID:     cfg.TargetPodID,
		Reuse:           cfg.Reuse,
		User:            user.Name,
		PodName:         cfg.PodName,
		TemplateID:      cfg.TemplateID,
		GPUTypeID:       cfg.GPUTypeID,
		GPUCount:        cfg.GPUCount,
		AppPort:         cfg.AppPort,
		VolumeInGB:      cfg.VolumeInGB,
		ContainerDiskGB: cfg.ContainerDiskInGB,
		VolumeMountPath: cfg.VolumeMountPath,
		CloudType:       cfg.CloudType,
		HFToken:         cfg.HFToken,
		StartupWait:     cfg.StartupWait(),
	})
	if err != nil {
		return err
	}

	fmt.Println("\n2. Fetching pod information...")
	pod, err := client.GetPod(ctx, podID)
	if err != nil {
		return err
	}
	if pod == nil {
		return fmt.Errorf("pod %s not found", podID)
	}
	fmt.Printf("   Pod Name: %s\n", pod.Name)
	fmt.Printf("   Pod ID: %s\n", pod.ID)
	if !pod.Running() {
		return fmt.Errorf("pod %s is not running", podID)
	}

	fmt.Println("\n   Available Ports:")
	for _, port := range pod.Runtime.Ports {
		fmt.Printf("   - Type: %s, IP: %s, Port: %d, Public: %t\n", port.Type, port.IP, port.PublicPort, port.IsIPPublic)
	}
	fmt.Printf("   Uptime: %d seconds\n", pod.Runtime.UptimeInSeconds)

	sshPort := pod.FindPort("tcp", 22)
	appPort := pod.FindPort("tcp", cfg.AppPort)
	if sshPort == nil {
		return fmt.Errorf("no SSH port found for this pod")
	}

	fmt.Printf("\n3. Connecting to SSH: %s:%d\n", sshPort.IP, sshPort.PublicPort)
	shell := remote.NewShell(sshPort.IP, sshPort.PublicPort, cfg.SSH.Username, cfg.SSHTimeout())
	if !shell.Connect(ctx, podID, sshMaxRetries) {
		return fmt.Errorf("failed to connect via SSH")
	}
	defer shell.Close()

	if cfg.UpdateSSHConfig {
		alias := user.Name + "-" + cfg.PodName
		err := sshconfig.Upsert("", sshconfig.Entry{
			Alias:    alias,
			HostName: sshPort.IP,
			Port:     sshPort.PublicPort,
			User:     cfg.SSH.Username,
		})
		if err != nil {
			fmt.Printf("   Warning: Failed to update SSH config: %v\n", err)
		} else {
			fmt.Printf("   SSH config updated: ssh %s\n", alias)
		}
	}

	if user.GitName != "" && user.GitEmail != "" {
		remote.ConfigureGit(shell, user.GitName, user.GitEmail)
	}

	sessionName := cliconfig.ExpandPodTemplate(cfg.TmuxSessionName, podID)
	logFile := cliconfig.ExpandPodTemplate(cfg.TmuxLogFile, podID)

	tmuxExists := remote.SessionExists(shell, sessionName)
	httpRunning := false
	if appPort != nil {
		httpRunning = engine.ProbeHTTP(appPort.IP, appPort.PublicPort, 5*time.Second)
	}

	fmt.Println("\n4. Checking existing session and server status...")
	fmt.Printf("   TMux session '%s': %s\n", sessionName, existsWord(tmuxExists))
	fmt.Printf("   HTTP server: %s\n", runningWord(httpRunning))

	started, err := ensureSession(shell, sessionName, cfg.RemoteCommand, logFile, tmuxExists, httpRunning, cfg.RestartCommand)
	if err != nil {
		return err
	}
	if started {
		fmt.Println("   Waiting for HTTP server to initialize...")
		sleepCtx(ctx, 5*time.Second)
	}

	if appPort == nil {
		return fmt.Errorf("no TCP port found for app port %d", cfg.AppPort)
	}
	appURL := fmt.Sprintf("http://%s:%d/", appPort.IP, appPort.PublicPort)
	fmt.Printf("\n6. Pod HTTP Endpoint: %s\n", appURL)

	fmt.Printf("\n7. Opening %s in browser...\n", appURL)
	if err := browser.OpenURL(appURL); err != nil {
		fmt.Printf("   Failed to open browser: %v\n", err)
		fmt.Printf("   Please manually open: %s\n", appURL)
	} else {
		fmt.Println("   Browser opened successfully!")
	}

	if cfg.StreamOutput {
		if err := shell.StreamFile(ctx, logFile); err != nil {
			fmt.Printf("   Warning: log streaming failed: %v\n", err)
		}
	}

	printSection("Done!")
	fmt.Printf("\nPod ID: %s\n", podID)
	fmt.Println("Remember to stop/delete the pod when you're done to avoid charges!")
	return nil
}

// ensureSession brings the workload session up. An existing session backed
// by a healthy endpoint is left alone unless a restart was requested, in
// which case the old session is killed and a fresh one created. Reports
// whether a new session was started.
func ensureSession(r remote.Runner, sessionName, command, logFile string, sessionExists, httpRunning, restart bool) (bool, error) {
	if sessionExists && httpRunning {
		if !restart {
			fmt.Println("   Both session and server are running - skipping command execution")
			return false, nil
		}
		fmt.Println("   restart_command=true - killing existing tmux session")
		remote.KillSession(r, sessionName)
	}
	fmt.Printf("\n5. Starting HTTP server in tmux session '%s'...\n", sessionName)
	if !remote.CreateSessionWithLogging(r, sessionName, command, logFile) {
		return false, fmt.Errorf("failed to create tmux session")
	}
	fmt.Println("   TMux session created successfully")
	return true, nil
}

func existsWord(b bool) string {
	if b {
		return "exists"
	}
	return "not found"
}

func runningWord(b bool) string {
	if b {
		return "running"
	}
	return "not running"
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
