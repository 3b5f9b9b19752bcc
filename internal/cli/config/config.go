// Package config loads the podup configuration file and supplies defaults
// for everything the run flow needs.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the process-wide configuration surface. The API key is
// deliberately absent: it comes only from the RUNPOD_API_KEY environment
// variable.
type Config struct {
	APIURL string `yaml:"apiUrl"`

	TargetPodID string `yaml:"targetPodId"`
	Reuse       bool   `yaml:"reuse"`
	UserName    string `yaml:"userName"`

	PodName           string `yaml:"podName"`
	TemplateID        string `yaml:"templateId"`
	GPUTypeID         string `yaml:"gpuTypeId"`
	GPUCount          int    `yaml:"gpuCount"`
	AppPort           int    `yaml:"appPort"`
	VolumeInGB        int    `yaml:"volumeInGb"`
	ContainerDiskInGB int    `yaml:"containerDiskInGb"`
	VolumeMountPath   string `yaml:"volumeMountPath"`
	CloudType         string `yaml:"cloudType"`
	HFToken           string `yaml:"hfToken"`

	RemoteCommand string `yaml:"remoteCommand"`

	SSH SSH `yaml:"ssh"`

	// Session and log file names; "{pod_id}" is substituted literally.
	TmuxSessionName string `yaml:"tmuxSessionName"`
	TmuxLogFile     string `yaml:"tmuxLogFile"`

	RestartCommand     bool `yaml:"restartCommand"`
	StartupWaitSeconds int  `yaml:"startupWaitSeconds"`
	StreamOutput       bool `yaml:"streamOutput"`
	UpdateSSHConfig    bool `yaml:"updateSshConfig"`
}

// SSH holds the remote transport settings.
type SSH struct {
	Username       string `yaml:"username"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIURL:             "https://api.runpod.io/graphql",
		Reuse:              true,
		PodName:            "dashboard",
		GPUTypeID:          "NVIDIA A40",
		GPUCount:           1,
		AppPort:            8080,
		VolumeInGB:         40,
		ContainerDiskInGB:  40,
		VolumeMountPath:    "/workspace",
		RemoteCommand:      "cd /workspace && python3 -m http.server 8080",
		SSH:                SSH{Username: "root", TimeoutSeconds: 30},
		TmuxSessionName:    "dashboard-{pod_id}",
		TmuxLogFile:        "/workspace/dashboard-{pod_id}.log",
		StartupWaitSeconds: 300,
		StreamOutput:       true,
		UpdateSSHConfig:    true,
	}
}

// Load reads the config file on top of the defaults. A missing file is not
// an error; an unreadable or malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return cfg, nil
	}
	expanded, err := expandPath(trimmed)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(expanded)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the run flow cannot work with before any
// network call happens.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("apiUrl is required")
	}
	if strings.TrimSpace(c.PodName) == "" {
		return fmt.Errorf("podName is required")
	}
	if c.AppPort <= 0 || c.AppPort > 65535 {
		return fmt.Errorf("appPort %d is out of range", c.AppPort)
	}
	if strings.TrimSpace(c.RemoteCommand) == "" {
		return fmt.Errorf("remoteCommand is required")
	}
	if c.CloudType != "" && c.CloudType != "SECURE" && c.CloudType != "COMMUNITY" {
		return fmt.Errorf("cloudType must be SECURE or COMMUNITY")
	}
	return nil
}

// SSHTimeout returns the configured SSH dial timeout.
func (c *Config) SSHTimeout() time.Duration {
	return time.Duration(c.SSH.TimeoutSeconds) * time.Second
}

// StartupWait returns the pod readiness timeout.
func (c *Config) StartupWait() time.Duration {
	return time.Duration(c.StartupWaitSeconds) * time.Second
}

// ExpandPodTemplate substitutes the {pod_id} placeholder literally.
func ExpandPodTemplate(template, podID string) string {
	return strings.ReplaceAll(template, "{pod_id}", podID)
}

func expandPath(path string) (string, error) {
	switch {
	case strings.HasPrefix(path, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	case path == "~":
		return os.UserHomeDir()
	case filepath.IsAbs(path):
		return path, nil
	default:
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(cwd, path), nil
	}
}
