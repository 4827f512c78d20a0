// Package compose implements the compose parsing pipeline: a structural
// parser over a YAML event stream (internal/yamlevent), consulting the
// interpolation engine (internal/interpolate) and accumulating positioned
// diagnostics (internal/diag), producing either a fully-typed document or a
// diagnostic-only result when the document is structurally invalid.
package compose

import (
	"time"

	"github.com/jkingston/fizz/internal/ordered"
	"github.com/jkingston/fizz/internal/values"
)

// File is the top-level parsed document.
type File struct {
	Name     string
	Services *ordered.Map[*Service]
	Volumes  *ordered.Map[*Volume]
	Networks *ordered.Map[*Network]
}

// Release exists for call-site parity with callers that parse, mutate, and
// then explicitly release a document. Go's garbage collector reclaims every
// value reachable from File once it is no longer referenced, so Release is
// an idempotent no-op rather than a manual deallocator.
func (f *File) Release() {}

// Service is a single "services.<name>" entry.
type Service struct {
	Name             string
	Image            string
	Build            *Build
	Ports            []values.Port
	Environment      *ordered.Map[string]
	DependsOn        []Dependency
	Healthcheck      *Healthcheck
	Volumes          []values.VolumeMount
	Command          []string
	Entrypoint       []string
	WorkingDir       string
	User             string
	ContainerName    string
	Hostname         string
	Domainname       string
	Restart          values.RestartPolicy
	RunInit          bool
	StopSignal       string
	StopGracePeriod  time.Duration
	ReadOnly         bool
	Privileged       bool
	CapAdd           []string
	CapDrop          []string
	Expose           []string
	DNS              []string
	DNSSearch        []string
	ExtraHosts       []string
	Networks         []string
	Labels           *ordered.Map[string]
	EnvFile          []string
	MemLimit         *int64
	MemReservation   *int64
	CPUs             *float64
	PidsLimit        *int64
	Logging          *Logging
	Profiles         []string
	Tmpfs            []string
	Devices          []string
	SecurityOpt      []string
	Sysctls          *ordered.Map[string]
}

// DefaultStopGracePeriod is the default grace period for "stop_grace_period"
// when the service does not set it.
const DefaultStopGracePeriod = 10 * time.Second

// Build is a service's "build" block, accepted either as a bare scalar
// context string or a full mapping.
type Build struct {
	Context    string
	Dockerfile string
	Args       *ordered.Map[string]
	Target     string
}

// Dependency is one entry of a service's "depends_on".
type Dependency struct {
	Service   string
	Condition values.DependencyCondition
}

// Healthcheck is a service's "healthcheck" block.
type Healthcheck struct {
	TestCmd     []string
	Interval    time.Duration
	Timeout     time.Duration
	Retries     int
	StartPeriod time.Duration
}

// DefaultHealthcheckInterval, DefaultHealthcheckTimeout, and
// DefaultHealthcheckRetries are the healthcheck field defaults.
const (
	DefaultHealthcheckInterval = 30 * time.Second
	DefaultHealthcheckTimeout  = 30 * time.Second
	DefaultHealthcheckRetries  = 3
)

// Logging is a service's "logging" block.
type Logging struct {
	Driver  string
	Options *ordered.Map[string]
}

// Volume is a "volumes.<name>" top-level entry. An unrecognized key under a
// volume body is skipped-and-warned; Driver, External, and Labels are the
// fields this implementation captures.
type Volume struct {
	Name     string
	Driver   string
	External bool
	Labels   *ordered.Map[string]
}

// Network is a "networks.<name>" top-level entry, with the same additive
// field set as Volume.
type Network struct {
	Name     string
	Driver   string
	External bool
	Labels   *ordered.Map[string]
}
