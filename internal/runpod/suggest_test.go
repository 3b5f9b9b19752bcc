package runpod

import (
	"testing"
)

func TestNormalizeForMatch(t *testing.T) {
	cases := map[string]string{
		"NVIDIA A100":      "nvidia a100",
		"nvidia-a100":      "nvidia a100",
		"  NVIDIA__A100  ": "nvidia a100",
		"a100":             "a100",
		"RTX 4090 (24GB)":  "rtx 4090 24gb",
	}
	for in, want := range cases {
		if got := normalizeForMatch(in); got != want {
			t.Fatalf("normalizeForMatch(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSuggestExactNormalizedMatch(t *testing.T) {
	valid := []string{"NVIDIA A40", "NVIDIA A100", "NVIDIA RTX 4090"}
	got := suggestGPUTypes("nvidia-a100", valid, 5)
	if len(got) != 1 || got[0] != "NVIDIA A100" {
		t.Fatalf("expected single exact suggestion, got %v", got)
	}
}

func TestSuggestRanksCloseMatches(t *testing.T) {
	valid := []string{"NVIDIA A40", "NVIDIA A100", "NVIDIA H100", "NVIDIA RTX 4090"}
	got := suggestGPUTypes("a100", valid, 5)
	if len(got) == 0 {
		t.Fatalf("expected suggestions, got none")
	}
	found := false
	for _, s := range got {
		if s == "NVIDIA A100" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %q among suggestions, got %v", "NVIDIA A100", got)
	}
	if got[0] != "NVIDIA A100" && got[0] != "NVIDIA A40" {
		t.Fatalf("unexpected top suggestion %q", got[0])
	}
}

func TestSuggestCapsAtK(t *testing.T) {
	valid := []string{"a", "b", "c", "d", "e", "f", "g"}
	got := suggestGPUTypes("z", valid, 5)
	if len(got) != 5 {
		t.Fatalf("expected 5 suggestions, got %d", len(got))
	}
}

func TestSuggestCollidingIDsKeepLast(t *testing.T) {
	valid := []string{"NVIDIA-A100", "nvidia a100", "NVIDIA A40"}
	got := suggestGPUTypes("nvidia_a100", valid, 5)
	if len(got) != 1 || got[0] != "nvidia a100" {
		t.Fatalf("expected last colliding id to win, got %v", got)
	}

	got = suggestGPUTypes("a40", valid, 5)
	for _, s := range got {
		if s == "NVIDIA-A100" {
			t.Fatalf("superseded id leaked into suggestions: %v", got)
		}
	}
}

func TestSuggestEmptyCatalog(t *testing.T) {
	if got := suggestGPUTypes("anything", nil, 5); len(got) != 0 {
		t.Fatalf("expected no suggestions, got %v", got)
	}
}
