package values

// DependencyCondition enumerates the recognized depends_on conditions.
type DependencyCondition int

const (
	ServiceStarted DependencyCondition = iota
	ServiceHealthy
	ServiceCompletedSuccessfully
)

// ParseDependencyCondition maps a depends_on condition string. ok is false
// for anything other than the three recognized forms.
func ParseDependencyCondition(s string) (cond DependencyCondition, ok bool) {
	switch s {
	case "service_started":
		return ServiceStarted, true
	case "service_healthy":
		return ServiceHealthy, true
	case "service_completed_successfully":
		return ServiceCompletedSuccessfully, true
	default:
		return ServiceStarted, false
	}
}
