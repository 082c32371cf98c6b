package domain

// RouterState is a phase of the router lifecycle.
type RouterState string

const (
	StateIdle         RouterState = "idle"
	StateStarting     RouterState = "starting"
	StateRunning      RouterState = "running"
	StateShuttingDown RouterState = "shutting_down"
	StateStopped      RouterState = "stopped"
	StateFailed       RouterState = "failed"
)

// RouteStats counts a relay's activity. Forwarded and Failed count
// per-output sends; Dropped counts events that arrived after shutdown began.
type RouteStats struct {
	Forwarded uint64 `json:"forwarded"`
	Failed    uint64 `json:"failed"`
	Dropped   uint64 `json:"dropped"`
}

// RouteStatus pairs a route with its relay counters.
type RouteStatus struct {
	Route Route      `json:"route"`
	Stats RouteStats `json:"stats"`
}
