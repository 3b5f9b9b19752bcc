// Package remote manages the SSH channel to a pod and the tmux session the
// workload runs in. Authentication is agent- or key-file-based only; rented
// pods are ephemeral, so host keys are not verified.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// Runner executes one foreground command on the remote host and returns its
// decoded output streams. Satisfied by *Shell; tests substitute fakes.
type Runner interface {
	Run(command string) (stdout, stderr string, err error)
}

// Shell is an authenticated remote-command-execution channel.
type Shell struct {
	Host    string
	Port    int
	User    string
	Timeout time.Duration

	// RetryInterval spaces connection attempts; Grace is how long a
	// background command gets to start before Start returns. Tests shrink
	// both.
	RetryInterval time.Duration
	Grace         time.Duration

	client *ssh.Client
}

// NewShell prepares a shell session toward host:port. Nothing is dialed
// until Connect.
func NewShell(host string, port int, user string, timeout time.Duration) *Shell {
	return &Shell{
		Host:          host,
		Port:          port,
		User:          user,
		Timeout:       timeout,
		RetryInterval: 15 * time.Second,
		Grace:         2 * time.Second,
	}
}

// Connect dials the pod, retrying up to maxRetries times. Each failure
// prints a diagnostic with the pod's console URL so the operator can check
// boot progress out-of-band. Returns false only after every retry failed or
// ctx was cancelled.
func (s *Shell) Connect(ctx context.Context, podID string, maxRetries int) bool {
	cfg := &ssh.ClientConfig{
		User:            s.User,
		Auth:            authMethods(),
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         s.Timeout,
	}
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))

	for attempt := 1; attempt <= maxRetries; attempt++ {
		fmt.Printf("  Attempting SSH connection (attempt %d/%d)...\n", attempt, maxRetries)
		client, err := ssh.Dial("tcp", addr, cfg)
		if err == nil {
			s.client = client
			fmt.Printf("  Connected to %s\n", addr)
			return true
		}
		fmt.Printf("  SSH connection attempt %d failed, feel free to check the pod logs online if needed: https://console.runpod.io/pods?id=%s: %v\n", attempt, podID, err)
		if attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(s.RetryInterval):
		}
	}
	fmt.Println("  All SSH connection attempts failed")
	return false
}

// authMethods collects agent-provided and on-disk keys. Passwords are never
// offered.
func authMethods() []ssh.AuthMethod {
	var methods []ssh.AuthMethod
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}
	if signers := loadKeyFiles(); len(signers) > 0 {
		methods = append(methods, ssh.PublicKeys(signers...))
	}
	return methods
}

func loadKeyFiles() []ssh.Signer {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	var signers []ssh.Signer
	for _, name := range []string{"id_ed25519", "id_ecdsa", "id_rsa"} {
		data, err := os.ReadFile(filepath.Join(home, ".ssh", name))
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			continue
		}
		signers = append(signers, signer)
	}
	return signers
}

// ErrNotConnected is returned when a command is issued before Connect.
var ErrNotConnected = errors.New("not connected to SSH server")

// Run executes command in the foreground and blocks until it completes.
// A nonzero remote exit status is not an error: probes like `tmux
// has-session` rely on inspecting the streams of a failing command.
func (s *Shell) Run(command string) (string, string, error) {
	if s.client == nil {
		return "", "", ErrNotConnected
	}
	fmt.Printf("\n  Executing command:\n  %s\n", truncate(command, 100))

	session, err := s.client.NewSession()
	if err != nil {
		return "", "", fmt.Errorf("open session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	if err := session.Run(command); err != nil {
		var exitErr *ssh.ExitError
		if !errors.As(err, &exitErr) {
			return stdout.String(), stderr.String(), fmt.Errorf("run command: %w", err)
		}
	}
	return stdout.String(), stderr.String(), nil
}

// Start launches command on a dedicated channel without waiting for it to
// finish. After a short grace period it returns a placeholder marker; the
// remote process is not tracked further, the session/log file is the only
// window into it.
func (s *Shell) Start(command string) (string, string, error) {
	if s.client == nil {
		return "", "", ErrNotConnected
	}
	fmt.Printf("\n  Executing command in background:\n  %s\n", truncate(command, 100))

	session, err := s.client.NewSession()
	if err != nil {
		return "", "", fmt.Errorf("open session: %w", err)
	}
	if err := session.Start(command); err != nil {
		session.Close()
		return "", "", fmt.Errorf("start command: %w", err)
	}
	// The session is intentionally left open; closing it would tear down the
	// channel under the still-running command.
	time.Sleep(s.Grace)
	return "Background command started", "", nil
}

// Close releases the connection. Safe to call when never connected.
func (s *Shell) Close() {
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
