// Package sshconfig inserts or replaces per-pod Host alias blocks in the
// user's ~/.ssh/config. This is operator convenience only; the tool never
// reads the file itself.
package sshconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Entry describes one Host alias block.
type Entry struct {
	Alias    string
	HostName string
	Port     int
	User     string
}

func (e Entry) render() string {
	return fmt.Sprintf(`Host %s
    HostName %s
    User %s
    Port %d
    ForwardAgent yes
    StrictHostKeyChecking no
    UserKnownHostsFile=/dev/null
`, e.Alias, e.HostName, e.User, e.Port)
}

// Upsert writes the entry into path (defaulting to ~/.ssh/config when path
// is empty). An existing block with the same Host header - the header line
// plus every indented line following it - is replaced in place; otherwise
// the block is appended.
func Upsert(path string, e Entry) error {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		path = filepath.Join(home, ".ssh", "config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	existing := ""
	if data, err := os.ReadFile(path); err == nil {
		existing = string(data)
	} else if !os.IsNotExist(err) {
		return err
	}

	block := e.render()
	pattern := regexp.MustCompile(`(?m)^Host ` + regexp.QuoteMeta(e.Alias) + `[ \t]*\n(?:[ \t]+[^\n]*\n)*`)

	var updated string
	if pattern.MatchString(existing) {
		updated = pattern.ReplaceAllString(existing, block)
	} else {
		if existing != "" && !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		if existing != "" {
			existing += "\n"
		}
		updated = existing + block
	}

	return os.WriteFile(path, []byte(updated), 0o600)
}
