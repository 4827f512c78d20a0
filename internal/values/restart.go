package values

import (
	"strconv"
	"strings"
)

// RestartPolicyKind enumerates the recognized restart policies.
type RestartPolicyKind int

const (
	RestartNo RestartPolicyKind = iota
	RestartAlways
	RestartOnFailure
	RestartUnlessStopped
)

// RestartPolicy is a service's restart policy, with an optional retry cap
// that only applies to RestartOnFailure.
type RestartPolicy struct {
	Policy     RestartPolicyKind
	MaxRetries *int
}

// ParseRestartPolicy parses "no", "always", "unless-stopped", "on-failure",
// or "on-failure:N". Unknown input maps to {no, nil} and is never an error:
// ok reports whether the input was one of the recognized forms, so a caller
// that wants a diagnostic on unrecognized input can opt in via
// Options.StrictRestart rather than this function silently guessing.
func ParseRestartPolicy(s string) (policy RestartPolicy, ok bool) {
	switch {
	case s == "no":
		return RestartPolicy{Policy: RestartNo}, true
	case s == "always":
		return RestartPolicy{Policy: RestartAlways}, true
	case s == "unless-stopped":
		return RestartPolicy{Policy: RestartUnlessStopped}, true
	case s == "on-failure":
		return RestartPolicy{Policy: RestartOnFailure}, true
	case strings.HasPrefix(s, "on-failure:"):
		n, err := strconv.Atoi(strings.TrimPrefix(s, "on-failure:"))
		if err != nil {
			return RestartPolicy{Policy: RestartOnFailure}, true
		}
		return RestartPolicy{Policy: RestartOnFailure, MaxRetries: &n}, true
	default:
		return RestartPolicy{Policy: RestartNo}, false
	}
}
