package dto

import "time"

// PipelineStatus is the operational snapshot returned by the status
// endpoint.
type PipelineStatus struct {
	Running        bool             `json:"running"`
	InFlight       int              `json:"inFlight"`
	LastCycleAt    *time.Time       `json:"lastCycleAt,omitempty"`
	LastCycleCount int              `json:"lastCycleCount"`
	Counts         map[string]int64 `json:"counts"`
}
