package interfaces

import (
	"context"

	"github.com/supportos/complaintstack/dto"
)

type PipelineService interface {
	// RunCycle fetches unseen messages and processes them through the
	// worker pool. Returns after the batch is fully drained.
	RunCycle(ctx context.Context) error
	// Reprocess re-runs a failed complaint from its recorded failure stage.
	Reprocess(ctx context.Context, complaintID string) error
	Status(ctx context.Context) (*dto.PipelineStatus, error)
	// Stop blocks until in-flight messages finish or the drain grace
	// period elapses.
	Stop(ctx context.Context)
}
