// Package identity manages the two pieces of durable local state: the user
// record in .user.yaml and the latest-pod pointer in .latest_pod. Both live
// in the working directory; they are per-project, not per-machine.
package identity

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

const (
	userFile      = ".user.yaml"
	latestPodFile = ".latest_pod"
)

// User is the locally persisted identity record. Name prefixes pod names;
// the git fields, when set, are pushed to the pod's global git config.
type User struct {
	Name     string `yaml:"name"`
	GitName  string `yaml:"git_name,omitempty"`
	GitEmail string `yaml:"git_email,omitempty"`
}

// ValidUsername reports whether s is lowercase alphanumeric with hyphens or
// underscores allowed.
func ValidUsername(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}

// LoadOrPromptUser resolves the user identity: an explicit override wins,
// then the saved record, then an interactive prompt (first run only). The
// prompt requires stdin to be a terminal.
func LoadOrPromptUser(override string) (*User, error) {
	if override != "" {
		name := strings.ToLower(strings.TrimSpace(override))
		if !ValidUsername(name) {
			return nil, fmt.Errorf("username must be alphanumeric (hyphens/underscores allowed)")
		}
		return &User{Name: name}, nil
	}

	if data, err := os.ReadFile(userFile); err == nil {
		var u User
		if err := yaml.Unmarshal(data, &u); err != nil {
			fmt.Printf("Warning: Could not read %s: %v\n", userFile, err)
		} else if u.Name != "" {
			return &u, nil
		}
	}

	return promptUser()
}

func promptUser() (*User, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, fmt.Errorf("no user identity saved and stdin is not a terminal; set userName in the config, pass --user, or run interactively once")
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("Welcome! Please set up your user identity.")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("\nYour username will be used to:")
	fmt.Println("  - Prefix pod names for easy identification")
	fmt.Println("  - Track your running pods")
	fmt.Printf("\nThis will be saved in %s (gitignored)\n", userFile)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("\nEnter your username (lowercase, alphanumeric): ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read username: %w", err)
		}
		name := strings.ToLower(strings.TrimSpace(line))
		if name == "" {
			fmt.Println("ERROR: Username cannot be empty")
			continue
		}
		if !ValidUsername(name) {
			fmt.Println("ERROR: Username must be alphanumeric (hyphens/underscores allowed)")
			continue
		}

		u := &User{Name: name}
		data, err := yaml.Marshal(u)
		if err != nil {
			return nil, fmt.Errorf("encode user config: %w", err)
		}
		if err := os.WriteFile(userFile, data, 0o600); err != nil {
			return nil, fmt.Errorf("save user config: %w", err)
		}
		fmt.Printf("\nUser identity saved to %s\n", userFile)
		fmt.Println(strings.Repeat("=", 80) + "\n")
		return u, nil
	}
}

// Store is the file-backed latest-pod pointer. It satisfies the acquisition
// engine's Store interface.
type Store struct{}

// LatestPodID reads the persisted pod id, "" when absent.
func (Store) LatestPodID() string {
	data, err := os.ReadFile(latestPodFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SaveLatestPodID overwrites the pointer. Write failures are warnings: the
// pod exists either way, the run must go on.
func (Store) SaveLatestPodID(podID string) {
	if err := os.WriteFile(latestPodFile, []byte(podID), 0o644); err != nil {
		fmt.Printf("   Warning: Could not save pod ID to %s: %v\n", latestPodFile, err)
		return
	}
	fmt.Printf("   Saved pod ID to %s file\n", latestPodFile)
}

// ClearLatestPodID removes the pointer file, ignoring a missing file.
func (Store) ClearLatestPodID() {
	if err := os.Remove(latestPodFile); err != nil && !os.IsNotExist(err) {
		fmt.Printf("   Warning: Could not remove %s: %v\n", latestPodFile, err)
	}
}
