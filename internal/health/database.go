package health

import (
	"context"
	"time"
)

// Pinger is the slice of the pgx pool the database probe needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseProbe checks connectivity to the article database.
type DatabaseProbe struct {
	db Pinger
}

// NewDatabaseProbe creates a database connectivity probe.
func NewDatabaseProbe(db Pinger) *DatabaseProbe {
	return &DatabaseProbe{db: db}
}

// Name implements Probe.
func (p *DatabaseProbe) Name() string { return "database" }

// Check pings the database and reports the round-trip time.
func (p *DatabaseProbe) Check(ctx context.Context) Result {
	if p.db == nil {
		return Result{
			Status:  StatusUnknown,
			Message: "database not configured",
		}
	}

	start := time.Now()
	err := p.db.Ping(ctx)
	elapsed := time.Since(start)

	if err != nil {
		return Result{
			Status:   StatusUnhealthy,
			Message:  "database unreachable: " + err.Error(),
			Duration: elapsed,
		}
	}

	return Result{
		Status:   StatusHealthy,
		Message:  "connected",
		Duration: elapsed,
		Details: map[string]interface{}{
			"queryTimeMs": float64(elapsed) / float64(time.Millisecond),
		},
	}
}
