package runpod

// Pod is a rented GPU compute instance as reported by the control API.
// Runtime is nil while the pod is stopped; a pod counts as running iff
// Runtime is present.
type Pod struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	DesiredStatus string   `json:"desiredStatus"`
	Machine       Machine  `json:"machine"`
	Runtime       *Runtime `json:"runtime"`
}

// Machine carries the scheduled hardware assignment. GPUTypeID is empty
// until the pod has been placed on a machine.
type Machine struct {
	GPUTypeID string `json:"gpuTypeId"`
}

// Runtime is the server-reported liveness descriptor.
type Runtime struct {
	Ports           []Port `json:"ports"`
	UptimeInSeconds int64  `json:"uptimeInSeconds"`
}

// Port describes one exposed network port on a running pod.
type Port struct {
	IP          string `json:"ip"`
	IsIPPublic  bool   `json:"isIpPublic"`
	PrivatePort int    `json:"privatePort"`
	PublicPort  int    `json:"publicPort"`
	Type        string `json:"type"`
}

// Running reports whether the pod has a runtime descriptor.
func (p *Pod) Running() bool {
	return p != nil && p.Runtime != nil
}

// FindPort returns the exposed port matching the given protocol and
// internal port number, or nil.
func (p *Pod) FindPort(proto string, privatePort int) *Port {
	if p == nil || p.Runtime == nil {
		return nil
	}
	for i := range p.Runtime.Ports {
		port := &p.Runtime.Ports[i]
		if port.Type == proto && port.PrivatePort == privatePort {
			return port
		}
	}
	return nil
}

// GPUType is one entry of the account-visible GPU catalog.
type GPUType struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	MemoryInGB  int    `json:"memoryInGb"`
}

// EnvVar is a single key/value pair of a pod template environment.
// Order matters: the deploy mutation replaces the template env wholesale.
type EnvVar struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// CreatePodInput collects the parameters of a pod deployment.
type CreatePodInput struct {
	TemplateID      string
	Name            string
	GPUTypeID       string
	GPUCount        int
	AppPort         int
	VolumeInGB      int
	ContainerDiskGB int
	VolumeMountPath string
	CloudType       string // "SECURE" or "COMMUNITY"; empty lets the server pick
	HFToken         string
}
