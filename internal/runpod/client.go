package runpod

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

// Client is a typed wrapper over the RunPod GraphQL endpoint. All calls are
// synchronous request/response; the API key travels on the query string.
type Client struct {
	apiURL string
	apiKey string
	http   *http.Client

	// PollInterval spaces the readiness poll loop. Tests shrink it.
	PollInterval time.Duration

	// gpuTypes memoizes the catalog for the client's lifetime. Populated on
	// first successful fetch, never invalidated; a fresh process refetches.
	gpuTypes []GPUType
}

// NewClient builds a client for the given API key and endpoint URL.
func NewClient(apiKey, apiURL string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil
	retryClient.HTTPClient.Timeout = 30 * time.Second

	return &Client{
		apiURL:       apiURL,
		apiKey:       apiKey,
		http:         retryClient.StandardClient(),
		PollInterval: 10 * time.Second,
	}
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

func (r *gqlResponse) errorMessages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Message)
	}
	return out
}

// query posts one GraphQL document and decodes the response envelope.
// Transport failures and non-2xx statuses are logged with the raw body when
// available, then returned to the caller.
func (c *Client) query(ctx context.Context, query string) (*gqlResponse, error) {
	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	endpoint := c.apiURL + "?api_key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "API error: %v\n", err)
		return nil, fmt.Errorf("api request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fmt.Fprintf(os.Stderr, "API error: status %d\nResponse: %s\n", resp.StatusCode, body)
		return nil, fmt.Errorf("api returned status %d", resp.StatusCode)
	}

	var out gqlResponse
	if err := json.Unmarshal(body, &out); err != nil {
		fmt.Fprintf(os.Stderr, "API error: malformed response\nResponse: %s\n", body)
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// GetPod fetches one pod. A pod unknown to the server is (nil, nil), not an
// error; callers branch on the nil explicitly.
func (c *Client) GetPod(ctx context.Context, podID string) (*Pod, error) {
	resp, err := c.query(ctx, podQuery(podID))
	if err != nil {
		return nil, err
	}
	var data struct {
		Pod *Pod `json:"pod"`
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("decode pod: %w", err)
	}
	return data.Pod, nil
}

// ListPods returns every pod owned by the authenticated account, in server
// order.
func (c *Client) ListPods(ctx context.Context) ([]Pod, error) {
	resp, err := c.query(ctx, listPodsQuery)
	if err != nil {
		return nil, err
	}
	var data struct {
		Myself *struct {
			Pods []Pod `json:"pods"`
		} `json:"myself"`
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("decode pods: %w", err)
	}
	if data.Myself == nil {
		return nil, nil
	}
	return data.Myself.Pods, nil
}

// GPUTypes returns the GPU catalog, fetching it at most once per client.
func (c *Client) GPUTypes(ctx context.Context) ([]GPUType, error) {
	if c.gpuTypes != nil {
		return c.gpuTypes, nil
	}
	resp, err := c.query(ctx, gpuTypesQuery)
	if err != nil {
		return nil, err
	}
	var data struct {
		GPUTypes []GPUType `json:"gpuTypes"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("decode gpu types: %w", err)
	}
	c.gpuTypes = data.GPUTypes
	return c.gpuTypes, nil
}

// TemplateEnv returns the template's declared environment, empty when the
// template declares none or does not exist.
func (c *Client) TemplateEnv(ctx context.Context, templateID string) ([]EnvVar, error) {
	resp, err := c.query(ctx, templateEnvQuery(templateID))
	if err != nil {
		return nil, err
	}
	var data struct {
		PodTemplate *struct {
			Env []EnvVar `json:"env"`
		} `json:"podTemplate"`
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("decode template env: %w", err)
	}
	if data.PodTemplate == nil {
		return nil, nil
	}
	return data.PodTemplate.Env, nil
}

// AccountPublicKey returns the SSH public key registered on the account, or
// "" when none is registered.
func (c *Client) AccountPublicKey(ctx context.Context) (string, error) {
	resp, err := c.query(ctx, accountKeyQuery)
	if err != nil {
		return "", err
	}
	var data struct {
		Myself *struct {
			PubKey string `json:"pubKey"`
		} `json:"myself"`
	}
	if len(resp.Data) == 0 {
		return "", nil
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return "", fmt.Errorf("decode account key: %w", err)
	}
	if data.Myself == nil {
		return "", nil
	}
	return data.Myself.PubKey, nil
}

// CreatePod validates the GPU type against the catalog, builds the merged
// environment, and deploys an on-demand pod. An unknown GPU type is rejected
// with suggestions before any mutating call. Returns the new pod id.
func (c *Client) CreatePod(ctx context.Context, in CreatePodInput) (string, error) {
	types, err := c.GPUTypes(ctx)
	if err != nil {
		return "", err
	}
	validIDs := make([]string, 0, len(types))
	known := false
	for _, t := range types {
		validIDs = append(validIDs, t.ID)
		if t.ID == in.GPUTypeID {
			known = true
		}
	}
	if !known {
		suggestions := suggestGPUTypes(in.GPUTypeID, validIDs, 5)
		fmt.Printf("ERROR: Unknown gpu_type: %q\n", in.GPUTypeID)
		if len(suggestions) > 0 {
			fmt.Printf("Did you mean: %q\n", suggestions[0])
			if len(suggestions) > 1 {
				fmt.Println("Other close matches:")
				for _, s := range suggestions[1:] {
					fmt.Printf("  - %s\n", s)
				}
			}
		}
		fmt.Println("\nValid gpu_type values are:")
		for _, id := range validIDs {
			fmt.Printf("  - %s\n", id)
		}
		return "", fmt.Errorf("unknown gpu_type %q", in.GPUTypeID)
	}
	if in.CloudType != "" && in.CloudType != "SECURE" && in.CloudType != "COMMUNITY" {
		return "", fmt.Errorf("invalid cloud_type %q (use SECURE or COMMUNITY)", in.CloudType)
	}

	fmt.Printf("Creating pod with template %s, GPU: %s, Count: %d\n", in.TemplateID, in.GPUTypeID, in.GPUCount)
	fmt.Printf("   Volume: %dGB, Container Disk: %dGB\n", in.VolumeInGB, in.ContainerDiskGB)

	pubKey, err := c.AccountPublicKey(ctx)
	if err != nil {
		return "", err
	}
	if pubKey != "" {
		fmt.Println("   SSH keys retrieved from account")
	} else {
		fmt.Println("   WARNING: No SSH keys found in account")
	}

	templateEnv, err := c.TemplateEnv(ctx, in.TemplateID)
	if err != nil {
		return "", err
	}
	var overrides []EnvVar
	if pubKey != "" {
		overrides = append(overrides, EnvVar{Key: "PUBLIC_KEY", Value: pubKey})
	}
	if in.HFToken != "" {
		overrides = append(overrides, EnvVar{Key: "HF_TOKEN", Value: in.HFToken})
	}

	var env []EnvVar
	if len(overrides) > 0 {
		env = MergeEnv(templateEnv, overrides)
		keys := make([]string, 0, len(env))
		for _, kv := range env {
			keys = append(keys, kv.Key)
		}
		fmt.Printf("   Env variables: %v\n", keys)
	}

	resp, err := c.query(ctx, createPodMutation(in, env))
	if err != nil {
		return "", err
	}
	if len(resp.Errors) > 0 {
		fmt.Printf("Errors creating pod: %v\n", resp.errorMessages())
		return "", fmt.Errorf("pod creation rejected by server")
	}
	var data struct {
		Deployed *struct {
			ID string `json:"id"`
		} `json:"podFindAndDeployOnDemand"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return "", fmt.Errorf("decode create response: %w", err)
	}
	if data.Deployed == nil || data.Deployed.ID == "" {
		return "", fmt.Errorf("pod creation returned no id")
	}
	return data.Deployed.ID, nil
}

// StopPod stops a pod without deleting it. Server-side errors are logged
// and reported as false; transport errors are returned.
func (c *Client) StopPod(ctx context.Context, podID string) (bool, error) {
	fmt.Printf("Stopping pod %s...\n", podID)
	resp, err := c.query(ctx, stopPodMutation(podID))
	if err != nil {
		return false, err
	}
	if len(resp.Errors) > 0 {
		fmt.Printf("Errors stopping pod: %v\n", resp.errorMessages())
		return false, nil
	}
	fmt.Printf("Pod %s stopped successfully (can be resumed later)\n", podID)
	return true, nil
}

// ResumePod resumes a stopped pod with the given GPU count (minimum 1).
func (c *Client) ResumePod(ctx context.Context, podID string, gpuCount int) (bool, error) {
	if gpuCount < 1 {
		gpuCount = 1
	}
	fmt.Printf("Resuming pod %s...\n", podID)
	resp, err := c.query(ctx, resumePodMutation(podID, gpuCount))
	if err != nil {
		return false, err
	}
	if len(resp.Errors) > 0 {
		fmt.Printf("Errors resuming pod: %v\n", resp.errorMessages())
		return false, nil
	}
	fmt.Printf("Pod %s resumed successfully\n", podID)
	return true, nil
}

// TerminatePod deletes a pod.
func (c *Client) TerminatePod(ctx context.Context, podID string) (bool, error) {
	fmt.Printf("Terminating pod %s...\n", podID)
	resp, err := c.query(ctx, terminatePodMutation(podID))
	if err != nil {
		return false, err
	}
	if len(resp.Errors) > 0 {
		fmt.Printf("Errors terminating pod: %v\n", resp.errorMessages())
		return false, nil
	}
	fmt.Printf("Pod %s terminated successfully\n", podID)
	return true, nil
}

// WaitForReady polls GetPod until the pod reports a runtime with at least
// one port, the timeout elapses, or ctx is cancelled. Readiness is true;
// timeout and cancellation are false.
func (c *Client) WaitForReady(ctx context.Context, podID string, timeout time.Duration) (bool, error) {
	fmt.Printf("Waiting for pod %s to be ready (timeout: %ds)...\n", podID, int(timeout.Seconds()))
	start := time.Now()
	for {
		pod, err := c.GetPod(ctx, podID)
		if err != nil {
			return false, err
		}
		if pod.Running() && len(pod.Runtime.Ports) > 0 {
			fmt.Printf("Pod %s is ready!\n", podID)
			return true, nil
		}
		if time.Since(start) >= timeout {
			fmt.Printf("Timeout waiting for pod %s\n", podID)
			return false, nil
		}
		fmt.Printf("  [%ds] Still waiting for pod to initialize...\n", int(time.Since(start).Seconds()))
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(c.PollInterval):
		}
	}
}
