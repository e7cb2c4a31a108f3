// Package health provides dependency probes and the health aggregator
// for the GlassFeed backend.
package health

// Status represents the health of a dependency or of the whole system.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// rank orders statuses by severity. Higher is worse.
func (s Status) rank() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusUnknown:
		return 1
	case StatusDegraded:
		return 2
	case StatusUnhealthy:
		return 3
	default:
		return 1
	}
}

// Worse reports whether s is more severe than other.
func (s Status) Worse(other Status) bool {
	return s.rank() > other.rank()
}

// Worst returns the most severe status of the given set.
// An empty set is unknown.
func Worst(statuses ...Status) Status {
	if len(statuses) == 0 {
		return StatusUnknown
	}
	worst := statuses[0]
	for _, s := range statuses[1:] {
		if s.Worse(worst) {
			worst = s
		}
	}
	return worst
}

// IsValid reports whether s is one of the defined status values.
func (s Status) IsValid() bool {
	switch s {
	case StatusHealthy, StatusDegraded, StatusUnhealthy, StatusUnknown:
		return true
	}
	return false
}
