package runpod

// MergeEnv merges a template environment with ordered overrides. Keys
// already present in the template keep their position and take the override
// value; override keys the template does not declare are appended at the
// end in the order given. The deploy mutation treats an explicit env list
// as a full replacement of the template environment, so callers must merge
// rather than send overrides alone.
func MergeEnv(template []EnvVar, overrides []EnvVar) []EnvVar {
	byKey := make(map[string]string, len(overrides))
	for _, kv := range overrides {
		byKey[kv.Key] = kv.Value
	}

	out := make([]EnvVar, 0, len(template)+len(overrides))
	seen := make(map[string]bool, len(template))
	for _, kv := range template {
		value := kv.Value
		if v, ok := byKey[kv.Key]; ok {
			value = v
		}
		out = append(out, EnvVar{Key: kv.Key, Value: value})
		seen[kv.Key] = true
	}
	for _, kv := range overrides {
		if !seen[kv.Key] {
			out = append(out, kv)
		}
	}
	return out
}
