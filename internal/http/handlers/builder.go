package handlers

import (
	"context"

	"github.com/urgentline/sla-server/pkg/sla/aggregates"
)

type SLAService interface {
	StartSLA(ctx context.Context, correlationID string, typeID string, attributes map[string]string) (*aggregates.Instance, error)
	CompleteSLA(ctx context.Context, correlationID string, typeID string) (*aggregates.Record, bool, error)
	CancelSLA(ctx context.Context, correlationID string, reason string) (*aggregates.Record, bool, error)
	GetActiveSLA(ctx context.Context, correlationID string) (*aggregates.Instance, error)
	ListActiveSLAs(ctx context.Context) []*aggregates.Instance
	ComputeMetrics(ctx context.Context, query aggregates.Query) (*aggregates.Snapshot, error)
	ForceSweep(ctx context.Context)
}

type Builder struct {
	sla SLAService
}

func NewBuilder(sla SLAService) *Builder {
	return &Builder{
		sla: sla,
	}
}
