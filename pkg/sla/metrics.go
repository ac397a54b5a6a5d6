package sla

import (
	"context"
	"time"

	"github.com/urgentline/sla-server/pkg/sla/aggregates"
)

type accumulator struct {
	total             int
	completed         int
	cancelled         int
	breached          int
	active            int
	met               int
	completedDuration time.Duration
}

func (a *accumulator) add(record *aggregates.Record) {
	a.total++
	switch record.Status {
	case aggregates.StatusCompleted:
		a.completed++
		if record.SLAMet != nil && *record.SLAMet {
			a.met++
		}
		if record.Duration != nil {
			a.completedDuration += *record.Duration
		}
	case aggregates.StatusCancelled:
		a.cancelled++
	case aggregates.StatusBreached:
		a.breached++
	case aggregates.StatusActive:
		a.active++
	}
}

func (a *accumulator) metrics() aggregates.TypeMetrics {
	result := aggregates.TypeMetrics{
		Total:     a.total,
		Completed: a.completed,
		Cancelled: a.cancelled,
		Breached:  a.breached,
		Active:    a.active,
	}
	if a.completed > 0 {
		result.ComplianceRate = float64(a.met) / float64(a.completed)
		result.AverageDuration = a.completedDuration / time.Duration(a.completed)
	}
	return result
}

// ComputeMetrics builds a compliance snapshot from persisted history
// records, never from the live registry. An empty history yields a
// zeroed snapshot.
func (s *Service) ComputeMetrics(ctx context.Context, query aggregates.Query) (*aggregates.Snapshot, error) {
	records, err := s.store.ListRecords(ctx, query)
	if err != nil {
		return nil, err
	}
	global := accumulator{}
	byType := make(map[string]*accumulator)
	for _, record := range records {
		global.add(record)
		acc, ok := byType[record.TypeID]
		if !ok {
			acc = &accumulator{}
			byType[record.TypeID] = acc
		}
		acc.add(record)
	}
	globalMetrics := global.metrics()
	snapshot := &aggregates.Snapshot{
		Total:           globalMetrics.Total,
		Completed:       globalMetrics.Completed,
		Cancelled:       globalMetrics.Cancelled,
		Breached:        globalMetrics.Breached,
		Active:          globalMetrics.Active,
		ComplianceRate:  globalMetrics.ComplianceRate,
		AverageDuration: globalMetrics.AverageDuration,
		ByType:          make(map[string]aggregates.TypeMetrics),
	}
	for typeID, acc := range byType {
		snapshot.ByType[typeID] = acc.metrics()
	}
	return snapshot, nil
}
