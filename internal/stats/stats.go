// Package stats talks to the external hit-counting service and turns its
// counts into per-event view numbers.
package stats

import (
	"context"
	"time"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// Hit is one recorded access to a URI.
type Hit struct {
	App       string         `json:"app"`
	URI       string         `json:"uri"`
	IP        string         `json:"ip"`
	Timestamp model.DateTime `json:"timestamp"`
}

// Query selects hit counts for a set of URIs over a closed time window.
type Query struct {
	Start  time.Time
	End    time.Time
	URIs   []string
	Unique bool
}

// ViewStats is the hit count for one URI.
type ViewStats struct {
	App  string `json:"app"`
	URI  string `json:"uri"`
	Hits int64  `json:"hits"`
}

// Client is the hit-counting service.
type Client interface {
	RecordHit(ctx context.Context, hit Hit) error
	QueryStats(ctx context.Context, q Query) ([]ViewStats, error)
}
