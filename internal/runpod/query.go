package runpod

import (
	"fmt"
	"strings"
)

// GraphQL request builders. Anything that can carry user-controlled text
// (pod names, template ids, env values, tokens) goes through gqlString;
// raw interpolation into a query body is never allowed.

func escapeGQL(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return r.Replace(s)
}

// gqlString renders s as a GraphQL string literal.
func gqlString(s string) string {
	return `"` + escapeGQL(s) + `"`
}

const gpuTypesQuery = `query { gpuTypes { id displayName memoryInGb } }`

const accountKeyQuery = `query { myself { pubKey } }`

const listPodsQuery = `query {
  myself {
    pods {
      id
      name
      desiredStatus
      machine { gpuTypeId }
      runtime {
        ports { ip isIpPublic privatePort publicPort type }
        uptimeInSeconds
      }
    }
  }
}`

func podQuery(podID string) string {
	return fmt.Sprintf(`query Pod {
  pod(input: {podId: %s}) {
    id
    name
    desiredStatus
    machine { gpuTypeId }
    runtime {
      ports { ip isIpPublic privatePort publicPort type }
      uptimeInSeconds
    }
  }
}`, gqlString(podID))
}

func templateEnvQuery(templateID string) string {
	return fmt.Sprintf(`query {
  podTemplate(id: %s) {
    env { key value }
  }
}`, gqlString(templateID))
}

func stopPodMutation(podID string) string {
	return fmt.Sprintf(`mutation {
  podStop(input: {podId: %s}) {
    id
    desiredStatus
  }
}`, gqlString(podID))
}

func resumePodMutation(podID string, gpuCount int) string {
	return fmt.Sprintf(`mutation {
  podResume(input: {podId: %s, gpuCount: %d}) {
    id
    desiredStatus
  }
}`, gqlString(podID), gpuCount)
}

func terminatePodMutation(podID string) string {
	return fmt.Sprintf(`mutation {
  podTerminate(input: {podId: %s})
}`, gqlString(podID))
}

func createPodMutation(in CreatePodInput, env []EnvVar) string {
	var b strings.Builder
	b.WriteString("mutation {\n  podFindAndDeployOnDemand(\n    input: {\n")
	if in.CloudType != "" {
		fmt.Fprintf(&b, "      cloudType: %s\n", in.CloudType)
	}
	fmt.Fprintf(&b, "      gpuCount: %d\n", in.GPUCount)
	fmt.Fprintf(&b, "      gpuTypeId: %s\n", gqlString(in.GPUTypeID))
	fmt.Fprintf(&b, "      name: %s\n", gqlString(in.Name))
	fmt.Fprintf(&b, "      templateId: %s\n", gqlString(in.TemplateID))
	fmt.Fprintf(&b, "      ports: %s\n", gqlString(fmt.Sprintf("22/tcp,%d/tcp", in.AppPort)))
	fmt.Fprintf(&b, "      volumeInGb: %d\n", in.VolumeInGB)
	fmt.Fprintf(&b, "      containerDiskInGb: %d\n", in.ContainerDiskGB)
	fmt.Fprintf(&b, "      volumeMountPath: %s\n", gqlString(in.VolumeMountPath))
	if len(env) > 0 {
		items := make([]string, 0, len(env))
		for _, kv := range env {
			items = append(items, fmt.Sprintf("{key: %s, value: %s}", gqlString(kv.Key), gqlString(kv.Value)))
		}
		fmt.Fprintf(&b, "      env: [%s]\n", strings.Join(items, ", "))
	}
	b.WriteString("    }\n  ) {\n    id\n    name\n    imageName\n  }\n}")
	return b.String()
}
