// Package docs generates the OpenAPI document describing the GlassFeed
// health API, plus a small HTML viewer page embedding it.
package docs

import (
	"encoding/json"
	"fmt"
)

// Config controls document generation.
type Config struct {
	// Title of the API. Default "GlassFeed Health API".
	Title string

	// Version reported in the document info block.
	Version string

	// ServerURL is the base URL listed in the servers block.
	ServerURL string
}

// statusSchema is the shared health-status enum.
var statusSchema = map[string]interface{}{
	"type": "string",
	"enum": []string{"healthy", "degraded", "unhealthy", "unknown"},
}

// Document builds the OpenAPI 3.0.0 description of the health endpoints.
func Document(cfg Config) map[string]interface{} {
	title := cfg.Title
	if title == "" {
		title = "GlassFeed Health API"
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	serverURL := cfg.ServerURL
	if serverURL == "" {
		serverURL = "https://api.glassfeed.app"
	}

	return map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       title,
			"version":     version,
			"description": "Diagnostic endpoints reporting the health of the GlassFeed reader backend and its dependencies.",
		},
		"servers": []map[string]interface{}{
			{"url": serverURL},
		},
		"paths": map[string]interface{}{
			"/api/health":           summaryPath(),
			"/api/health/app":       appPath(),
			"/api/health/db":        databasePath(),
			"/api/health/cron":      cronPath(),
			"/api/health/freshness": freshnessPath(),
			"/api/health/parsing":   dependencyPath("parsing", "Feed parsing pipeline status."),
			"/api/health/claude":    dependencyPath("claude", "Article enrichment dependency status."),
		},
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"HealthStatus": statusSchema,
			},
		},
	}
}

// JSON renders the document as indented JSON.
func JSON(cfg Config) ([]byte, error) {
	data, err := json.MarshalIndent(Document(cfg), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling openapi document: %w", err)
	}
	return data, nil
}

func getOperation(summary string, responses map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"get": map[string]interface{}{
			"summary":   summary,
			"responses": responses,
		},
	}
}

func jsonResponse(description string, example map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"example": example,
			},
		},
	}
}

func summaryPath() map[string]interface{} {
	return getOperation("Condensed health overview of all services.", map[string]interface{}{
		"200": jsonResponse("All services operational.", map[string]interface{}{
			"status":    "healthy",
			"timestamp": "2026-08-23T12:00:00Z",
			"services": map[string]interface{}{
				"app":      "healthy",
				"database": "healthy",
				"sync":     "healthy",
			},
		}),
		"500": jsonResponse("A critical dependency is down.", map[string]interface{}{
			"status":    "unhealthy",
			"timestamp": "2026-08-23T12:00:00Z",
			"services": map[string]interface{}{
				"app":      "unhealthy",
				"database": "unhealthy",
				"sync":     "healthy",
			},
		}),
	})
}

func appPath() map[string]interface{} {
	op := getOperation("Full system snapshot with rolling performance counters.", map[string]interface{}{
		"200": jsonResponse("System healthy.", map[string]interface{}{
			"status": "healthy",
			"services": map[string]interface{}{
				"database": map[string]interface{}{"status": "healthy", "message": "connected"},
				"oauth":    map[string]interface{}{"status": "healthy", "message": "token valid"},
			},
			"performance": map[string]interface{}{
				"avgDbQueryTimeMs": 4.2,
				"avgApiCallTimeMs": 112.7,
				"avgSyncTimeMs":    1890.0,
			},
			"uptimeSeconds": 86400,
			"lastActivity":  "2026-08-23T11:59:30Z",
			"errorCount":    0,
			"timestamp":     "2026-08-23T12:00:00Z",
		}),
		"503": jsonResponse("One or more dependencies degraded or unreachable.", map[string]interface{}{
			"status": "unhealthy",
			"services": map[string]interface{}{
				"database": map[string]interface{}{"status": "unhealthy", "message": "database unreachable: connection refused"},
				"oauth":    map[string]interface{}{"status": "healthy", "message": "token valid"},
			},
			"timestamp": "2026-08-23T12:00:00Z",
		}),
	})
	op["get"].(map[string]interface{})["parameters"] = []map[string]interface{}{
		{
			"name":        "ping",
			"in":          "query",
			"required":    false,
			"schema":      map[string]interface{}{"type": "string"},
			"description": "When exactly \"true\", returns a minimal {status:\"ok\", ping:true} liveness body with HTTP 200. Any other value falls through to the full response.",
		},
	}
	return op
}

func databasePath() map[string]interface{} {
	return getOperation("Database connectivity and query round-trip time.", map[string]interface{}{
		"200": jsonResponse("Database reachable.", map[string]interface{}{
			"status":      "healthy",
			"database":    "glassfeed",
			"connection":  "connected",
			"environment": "production",
			"queryTime":   4.2,
			"timestamp":   "2026-08-23T12:00:00Z",
		}),
		"503": jsonResponse("Database unreachable.", map[string]interface{}{
			"status":      "unhealthy",
			"database":    "glassfeed",
			"connection":  nil,
			"environment": "production",
			"queryTime":   nil,
			"message":     "database unreachable: connection refused",
			"timestamp":   "2026-08-23T12:00:00Z",
		}),
	})
}

func cronPath() map[string]interface{} {
	return getOperation("Scheduled sync heartbeat freshness.", map[string]interface{}{
		"200": jsonResponse("Cron ran recently.", map[string]interface{}{
			"status":      "healthy",
			"message":     "Last check was 30 minutes ago",
			"environment": "production",
			"lastCheck":   "2026-08-23T11:30:00Z",
			"timestamp":   "2026-08-23T12:00:00Z",
		}),
		"503": jsonResponse("Heartbeat stale or missing.", map[string]interface{}{
			"status":      "unhealthy",
			"message":     "Last check was 25 hours ago",
			"environment": "production",
			"lastCheck":   "2026-08-22T11:00:00Z",
			"timestamp":   "2026-08-23T12:00:00Z",
		}),
	})
}

func freshnessPath() map[string]interface{} {
	return getOperation("Article sync recency statistics.", map[string]interface{}{
		"200": jsonResponse("Articles synced within the last 24 hours.", map[string]interface{}{
			"status":            "healthy",
			"latestArticleTime": "2026-08-23T09:00:00Z",
			"hoursSinceLatest":  3,
			"articlesLast24h":   42,
			"totalArticles":     10212,
			"timestamp":         "2026-08-23T12:00:00Z",
		}),
		"503": jsonResponse("No recent articles.", map[string]interface{}{
			"status":            "stale",
			"message":           "No articles synced in the last 24 hours",
			"latestArticleTime": "2026-08-20T09:00:00Z",
			"hoursSinceLatest":  75,
			"articlesLast24h":   0,
			"totalArticles":     10212,
			"timestamp":         "2026-08-23T12:00:00Z",
		}),
	})
}

func dependencyPath(service, summary string) map[string]interface{} {
	return getOperation(summary, map[string]interface{}{
		"200": jsonResponse("Dependency healthy.", map[string]interface{}{
			"status":    "healthy",
			"service":   service,
			"timestamp": "2026-08-23T12:00:00Z",
		}),
		"503": jsonResponse("Dependency degraded or unreachable.", map[string]interface{}{
			"status":    "unhealthy",
			"service":   service,
			"message":   "circuit breaker open",
			"timestamp": "2026-08-23T12:00:00Z",
		}),
	})
}
