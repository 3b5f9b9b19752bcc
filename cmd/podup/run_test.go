package main

import (
	"strings"
	"testing"
)

// fakeRunner records every remote command; commands containing failMatch
// answer with stderr output.
type fakeRunner struct {
	commands  []string
	failMatch string
}

func (r *fakeRunner) Run(command string) (string, string, error) {
	r.commands = append(r.commands, command)
	if r.failMatch != "" && strings.Contains(command, r.failMatch) {
		return "", "boom", nil
	}
	return "", "", nil
}

func TestEnsureSessionLeavesHealthySessionAlone(t *testing.T) {
	r := &fakeRunner{}
	started, err := ensureSession(r, "dashboard-p1", "true", "/tmp/s.log", true, true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if started {
		t.Fatalf("healthy session must not be restarted")
	}
	if len(r.commands) != 0 {
		t.Fatalf("no commands may reach the pod, got %v", r.commands)
	}
}

func TestEnsureSessionRestartKillsThenCreates(t *testing.T) {
	r := &fakeRunner{}
	started, err := ensureSession(r, "dashboard-p1", "true", "/tmp/s.log", true, true, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !started {
		t.Fatalf("expected a fresh session")
	}
	if len(r.commands) != 3 {
		t.Fatalf("expected kill + create + pipe-pane, got %v", r.commands)
	}
	if !strings.Contains(r.commands[0], "kill-session") ||
		!strings.Contains(r.commands[1], "new-session") ||
		!strings.Contains(r.commands[2], "pipe-pane") {
		t.Fatalf("unexpected command order: %v", r.commands)
	}
}

func TestEnsureSessionMissingSessionCreatesWithoutKill(t *testing.T) {
	r := &fakeRunner{}
	started, err := ensureSession(r, "dashboard-p1", "true", "/tmp/s.log", false, true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !started {
		t.Fatalf("expected session creation")
	}
	for _, cmd := range r.commands {
		if strings.Contains(cmd, "kill-session") {
			t.Fatalf("nothing to kill when the session does not exist: %v", r.commands)
		}
	}
	if !strings.Contains(r.commands[0], "new-session") {
		t.Fatalf("expected create first, got %v", r.commands)
	}
}

func TestEnsureSessionUnhealthyEndpointRecreates(t *testing.T) {
	r := &fakeRunner{}
	started, err := ensureSession(r, "dashboard-p1", "true", "/tmp/s.log", true, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !started {
		t.Fatalf("dead endpoint behind a live session must trigger a relaunch")
	}
}

func TestEnsureSessionCreateFailure(t *testing.T) {
	r := &fakeRunner{failMatch: "new-session"}
	started, err := ensureSession(r, "dashboard-p1", "true", "/tmp/s.log", false, false, false)
	if err == nil {
		t.Fatalf("expected error when session creation fails")
	}
	if started {
		t.Fatalf("failed creation must not report a started session")
	}
}
