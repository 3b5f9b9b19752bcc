package remote

import (
	"fmt"
	"strings"

	"al.essio.dev/pkg/shellescape"
)

// tmux session management. Everything here is plain command construction
// dispatched through a Runner; there is no client-side session state.

// SessionExists probes for a tmux session with the given name.
func SessionExists(r Runner, name string) bool {
	cmd := fmt.Sprintf("tmux has-session -t %s 2>/dev/null && echo exists", shellescape.Quote(name))
	stdout, _, err := r.Run(cmd)
	return err == nil && strings.Contains(stdout, "exists")
}

// KillSession tears down a session. Success iff the kill produced no error
// output.
func KillSession(r Runner, name string) bool {
	_, stderr, err := r.Run("tmux kill-session -t " + shellescape.Quote(name))
	return err == nil && stderr == ""
}

// CreateSessionWithLogging starts a detached session running command inside
// an interactive login shell (so shell startup files are sourced fully
// instead of bailing out in non-interactive mode), then pipes the pane to
// logFile. A pipe-pane failure is a warning only; the session still counts
// as created.
func CreateSessionWithLogging(r Runner, name, command, logFile string) bool {
	create := fmt.Sprintf("tmux new-session -d -s %s bash -i -c %s",
		shellescape.Quote(name), shellescape.Quote(command))
	_, stderr, err := r.Run(create)
	if err != nil {
		fmt.Printf("   Error creating tmux session: %v\n", err)
		return false
	}
	if stderr != "" {
		fmt.Printf("   Error creating tmux session: %s\n", stderr)
		return false
	}

	pipe := fmt.Sprintf("tmux pipe-pane -t %s -o %s",
		shellescape.Quote(name), shellescape.Quote("cat >> "+logFile))
	if _, stderr, err := r.Run(pipe); err != nil || stderr != "" {
		fmt.Printf("   Warning: Could not configure logging: %s\n", warnDetail(stderr, err))
	}
	return true
}

// ConfigureGit sets the global git identity on the pod. Failures are
// warnings for the surrounding flow; the first failing command stops the
// rest.
func ConfigureGit(r Runner, name, email string) bool {
	commands := []string{
		fmt.Sprintf("git config --global user.name %s", shellescape.Quote(name)),
		fmt.Sprintf("git config --global user.email %s", shellescape.Quote(email)),
	}
	for _, cmd := range commands {
		_, stderr, err := r.Run(cmd)
		if err != nil || stderr != "" {
			fmt.Printf("   Warning: Git config command failed: %s\n", warnDetail(stderr, err))
			return false
		}
	}
	return true
}

func warnDetail(stderr string, err error) string {
	if stderr != "" {
		return strings.TrimSpace(stderr)
	}
	if err != nil {
		return err.Error()
	}
	return "unknown error"
}
