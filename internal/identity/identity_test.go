package identity

import (
	"os"
	"strings"
	"testing"
)

func TestValidUsername(t *testing.T) {
	valid := []string{"alice", "alice-1", "a_b", "0xdead", "x"}
	for _, s := range valid {
		if !ValidUsername(s) {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	invalid := []string{"", "Alice", "a b", "a.b", "héllo", "user@host"}
	for _, s := range invalid {
		if ValidUsername(s) {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}

func TestLoadOrPromptUserOverride(t *testing.T) {
	u, err := LoadOrPromptUser("  Alice  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Name != "alice" {
		t.Fatalf("override not lowercased/trimmed: %q", u.Name)
	}

	if _, err := LoadOrPromptUser("not valid!"); err == nil {
		t.Fatalf("expected rejection of invalid override")
	}
}

func TestLoadOrPromptUserReadsSavedRecord(t *testing.T) {
	chdir(t, t.TempDir())
	record := "name: alice\ngit_name: Alice Liddell\ngit_email: alice@example.com\n"
	if err := os.WriteFile(".user.yaml", []byte(record), 0o600); err != nil {
		t.Fatalf("seed user file: %v", err)
	}

	u, err := LoadOrPromptUser("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Name != "alice" || u.GitName != "Alice Liddell" || u.GitEmail != "alice@example.com" {
		t.Fatalf("unexpected record: %+v", u)
	}
}

func TestLoadOrPromptUserNonTerminalNamesConfigKey(t *testing.T) {
	chdir(t, t.TempDir())
	// No saved record and test stdin is not a terminal, so the prompt is
	// refused; the error must name the actual config key and flag.
	_, err := LoadOrPromptUser("")
	if err == nil {
		t.Fatalf("expected error without a terminal")
	}
	if !strings.Contains(err.Error(), "userName") || !strings.Contains(err.Error(), "--user") {
		t.Fatalf("error does not point at the config key: %v", err)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	chdir(t, t.TempDir())
	store := Store{}

	if got := store.LatestPodID(); got != "" {
		t.Fatalf("expected empty pointer, got %q", got)
	}

	store.SaveLatestPodID("abc123")
	if got := store.LatestPodID(); got != "abc123" {
		t.Fatalf("pointer round trip failed: %q", got)
	}

	store.SaveLatestPodID("def456")
	if got := store.LatestPodID(); got != "def456" {
		t.Fatalf("pointer not overwritten: %q", got)
	}

	store.ClearLatestPodID()
	if got := store.LatestPodID(); got != "" {
		t.Fatalf("pointer not cleared: %q", got)
	}
	// Clearing twice is fine.
	store.ClearLatestPodID()
}

func TestLatestPodIDTrimsWhitespace(t *testing.T) {
	chdir(t, t.TempDir())
	if err := os.WriteFile(".latest_pod", []byte("abc123\n"), 0o644); err != nil {
		t.Fatalf("seed pointer: %v", err)
	}
	if got := (Store{}).LatestPodID(); got != "abc123" {
		t.Fatalf("trailing newline not trimmed: %q", got)
	}
}

// chdir changes the working directory for the duration of the test.
// Equivalent to t.Chdir, which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore wd: %v", err)
		}
	})
}
