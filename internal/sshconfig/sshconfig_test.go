package sshconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUpsertAppendsToMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	err := Upsert(path, Entry{Alias: "pod-abc123", HostName: "1.2.3.4", Port: 10022, User: "root"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	got := string(data)
	for _, want := range []string{
		"Host pod-abc123\n",
		"HostName 1.2.3.4",
		"Port 10022",
		"User root",
		"ForwardAgent yes",
		"StrictHostKeyChecking no",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
}

func TestUpsertReplacesExistingBlockInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	existing := `Host github.com
    User git

Host pod-abc123
    HostName 9.9.9.9
    User root
    Port 40000

Host other
    HostName example.com
`
	if err := os.WriteFile(path, []byte(existing), 0o600); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	err := Upsert(path, Entry{Alias: "pod-abc123", HostName: "1.2.3.4", Port: 10022, User: "root"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	got := string(data)

	if strings.Contains(got, "9.9.9.9") || strings.Contains(got, "40000") {
		t.Fatalf("stale block survived:\n%s", got)
	}
	if !strings.Contains(got, "HostName 1.2.3.4") || !strings.Contains(got, "Port 10022") {
		t.Fatalf("new block missing:\n%s", got)
	}
	// Neighboring blocks are untouched.
	if !strings.Contains(got, "Host github.com\n    User git") {
		t.Fatalf("preceding block damaged:\n%s", got)
	}
	if !strings.Contains(got, "Host other\n    HostName example.com") {
		t.Fatalf("following block damaged:\n%s", got)
	}
	if n := strings.Count(got, "Host pod-abc123"); n != 1 {
		t.Fatalf("expected exactly one alias block, found %d:\n%s", n, got)
	}
}

func TestUpsertDoesNotMatchAliasPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	existing := `Host pod-abc1234
    HostName 5.5.5.5
`
	if err := os.WriteFile(path, []byte(existing), 0o600); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	err := Upsert(path, Entry{Alias: "pod-abc123", HostName: "1.2.3.4", Port: 10022, User: "root"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := os.ReadFile(path)
	got := string(data)
	if !strings.Contains(got, "Host pod-abc1234\n    HostName 5.5.5.5") {
		t.Fatalf("longer alias was clobbered:\n%s", got)
	}
	if !strings.Contains(got, "Host pod-abc123\n    HostName 1.2.3.4") {
		t.Fatalf("new block missing:\n%s", got)
	}
}
