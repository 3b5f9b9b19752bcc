// Package engine decides how the tool obtains a ready pod: reuse a running
// one, resume a stopped one (exact GPU match first, then a fuzzy scan over
// the account's pods), or create a new one, then drive the readiness poll.
package engine

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"podup/internal/runpod"
)

// API is the control-plane surface the engine drives. *runpod.Client
// satisfies it; tests substitute fakes.
type API interface {
	GetPod(ctx context.Context, podID string) (*runpod.Pod, error)
	ListPods(ctx context.Context) ([]runpod.Pod, error)
	CreatePod(ctx context.Context, in runpod.CreatePodInput) (string, error)
	ResumePod(ctx context.Context, podID string, gpuCount int) (bool, error)
	WaitForReady(ctx context.Context, podID string, timeout time.Duration) (bool, error)
}

// Store persists the "latest pod" pointer between runs.
type Store interface {
	LatestPodID() string
	SaveLatestPodID(podID string)
}

// Options configure one acquisition run.
type Options struct {
	TargetPodID string
	Reuse       bool

	User    string
	PodName string

	TemplateID      string
	GPUTypeID       string
	GPUCount        int
	AppPort         int
	VolumeInGB      int
	ContainerDiskGB int
	VolumeMountPath string
	CloudType       string
	HFToken         string

	StartupWait time.Duration
}

func (o Options) podName() string {
	return o.User + "-" + o.PodName
}

// AcquirePod runs the decision procedure and returns the id of a ready pod.
// Every returned error is fatal for the run; recoverable conditions (latest
// pod gone, GPU mismatch, failed resume dispatch) fall through to the next
// strategy instead.
func AcquirePod(ctx context.Context, api API, store Store, opts Options) (string, error) {
	// An explicit target short-circuits everything; the caller is trusted.
	if opts.TargetPodID != "" {
		fmt.Printf("\n1. Using existing pod: %s\n", opts.TargetPodID)
		return opts.TargetPodID, nil
	}

	if opts.Reuse {
		if latest := store.LatestPodID(); latest != "" {
			podID, err := tryLatest(ctx, api, store, opts, latest)
			if err != nil {
				return "", err
			}
			if podID != "" {
				return podID, nil
			}
		}
	}

	return createNew(ctx, api, store, opts)
}

// tryLatest attempts to reuse or resume the persisted latest pod. An empty
// id with nil error means "fall through to creation".
func tryLatest(ctx context.Context, api API, store Store, opts Options, latest string) (string, error) {
	fmt.Printf("\n1. Checking if latest pod %s is available...\n", latest)
	pod, err := api.GetPod(ctx, latest)
	if err != nil {
		return "", err
	}
	if pod == nil {
		fmt.Printf("   Latest pod %s not found (may have been deleted).\n", latest)
		fmt.Println("   Will create a new pod.")
		return "", nil
	}

	if pod.Running() {
		fmt.Printf("   Latest pod %s is available and running!\n", latest)
		fmt.Println("   Reusing existing pod instead of creating a new one.")
		return latest, nil
	}

	fmt.Printf("   Latest pod %s is stopped.\n", latest)
	if pod.Machine.GPUTypeID == opts.GPUTypeID {
		fmt.Printf("   GPU type matches (%s). Resuming pod...\n", pod.Machine.GPUTypeID)
		ok, err := api.ResumePod(ctx, latest, opts.GPUCount)
		if err != nil {
			return "", err
		}
		if !ok {
			// Dispatch failure is recoverable; a post-acceptance readiness
			// timeout below is not. Preserving this asymmetry avoids paying
			// for a duplicate pod when the resume was actually accepted.
			fmt.Printf("   Failed to resume pod %s\n", latest)
			fmt.Println("   Will search for other stopped pods or create new one.")
			return "", nil
		}
		fmt.Printf("   Pod %s resumed successfully!\n", latest)
		if err := awaitReady(ctx, api, latest, opts.StartupWait, "after resume"); err != nil {
			return "", err
		}
		return latest, nil
	}

	fmt.Printf("   WARNING: Latest pod has GPU type '%s' but config specifies '%s'\n", pod.Machine.GPUTypeID, opts.GPUTypeID)
	fmt.Println("   Searching for stopped pods with matching GPU type...")
	return resumeMatching(ctx, api, store, opts)
}

// resumeMatching scans all pods for a stopped one sharing the naming prefix
// and the desired GPU type, taking the first in listing order.
func resumeMatching(ctx context.Context, api API, store Store, opts Options) (string, error) {
	pods, err := api.ListPods(ctx)
	if err != nil {
		return "", err
	}

	prefix := opts.podName()
	var match *runpod.Pod
	for i := range pods {
		p := &pods[i]
		if strings.HasPrefix(p.Name, prefix) && p.Machine.GPUTypeID == opts.GPUTypeID && !p.Running() {
			match = p
			break
		}
	}
	if match == nil {
		fmt.Printf("   No stopped pods found with GPU type '%s'\n", opts.GPUTypeID)
		fmt.Println("   Will create a new pod.")
		return "", nil
	}

	fmt.Printf("   Found stopped pod %s with matching GPU type!\n", match.ID)
	fmt.Printf("   Resuming pod %s...\n", match.ID)
	ok, err := api.ResumePod(ctx, match.ID, opts.GPUCount)
	if err != nil {
		return "", err
	}
	if !ok {
		fmt.Printf("   Failed to resume pod %s\n", match.ID)
		fmt.Println("   Will create a new pod.")
		return "", nil
	}
	fmt.Printf("   Pod %s resumed successfully!\n", match.ID)
	store.SaveLatestPodID(match.ID)
	if err := awaitReady(ctx, api, match.ID, opts.StartupWait, "after resume"); err != nil {
		return "", err
	}
	return match.ID, nil
}

func createNew(ctx context.Context, api API, store Store, opts Options) (string, error) {
	name := opts.podName()
	fmt.Printf("\n1. Creating new pod with GPU %s and template %s\n", opts.GPUTypeID, opts.TemplateID)
	podID, err := api.CreatePod(ctx, runpod.CreatePodInput{
		TemplateID:      opts.TemplateID,
		Name:            name,
		GPUTypeID:       opts.GPUTypeID,
		GPUCount:        opts.GPUCount,
		AppPort:         opts.AppPort,
		VolumeInGB:      opts.VolumeInGB,
		ContainerDiskGB: opts.ContainerDiskGB,
		VolumeMountPath: opts.VolumeMountPath,
		CloudType:       opts.CloudType,
		HFToken:         opts.HFToken,
	})
	if err != nil {
		return "", fmt.Errorf("create pod: %w", err)
	}
	fmt.Printf("   Pod created successfully! ID: %s\n", podID)
	store.SaveLatestPodID(podID)
	if err := awaitReady(ctx, api, podID, opts.StartupWait, ""); err != nil {
		return "", err
	}
	return podID, nil
}

func awaitReady(ctx context.Context, api API, podID string, timeout time.Duration, phase string) error {
	ready, err := api.WaitForReady(ctx, podID, timeout)
	if err != nil {
		return err
	}
	if !ready {
		if phase != "" {
			return fmt.Errorf("pod failed to start in time %s", phase)
		}
		return fmt.Errorf("pod failed to start in time")
	}
	return nil
}

// ProbeHTTP reports whether an HTTP server answers on ip:port with a
// sub-400 status within the timeout. Best effort, no retries.
func ProbeHTTP(ip string, port int, timeout time.Duration) bool {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(fmt.Sprintf("http://%s:%d/", ip, port))
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 400
}
