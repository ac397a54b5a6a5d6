package sla

import (
	"context"
	"fmt"
	"time"

	er "github.com/mcorbin/corbierror"
	"github.com/urgentline/sla-server/pkg/sla/aggregates"
)

func copyInstance(instance *aggregates.Instance) *aggregates.Instance {
	result := *instance
	if instance.Attributes != nil {
		attributes := make(map[string]string, len(instance.Attributes))
		for k, v := range instance.Attributes {
			attributes[k] = v
		}
		result.Attributes = attributes
	}
	return &result
}

// StartSLA begins tracking a deadline clock for the given correlation
// id. The type must exist in the catalog and the correlation id must not
// already be tracked.
func (s *Service) StartSLA(ctx context.Context, correlationID string, typeID string, attributes map[string]string) (*aggregates.Instance, error) {
	definition, err := s.catalog.Get(typeID)
	if err != nil {
		return nil, err
	}
	s.logger.Info(fmt.Sprintf("starting SLA %s for %s (max duration %s)", typeID, correlationID, definition.MaxDuration))
	instance := &aggregates.Instance{
		CorrelationID: correlationID,
		TypeID:        typeID,
		StartedAt:     s.now(),
		Status:        aggregates.StatusActive,
		Attributes:    attributes,
	}
	s.mutex.Lock()
	if _, ok := s.instances[correlationID]; ok {
		s.mutex.Unlock()
		return nil, er.Newf("an SLA is already tracked for %s", er.Conflict, true, correlationID)
	}
	s.instances[correlationID] = instance
	s.activeInstances.Inc()
	s.mutex.Unlock()

	record := &aggregates.Record{
		CorrelationID: instance.CorrelationID,
		TypeID:        instance.TypeID,
		StartedAt:     instance.StartedAt,
		Status:        aggregates.StatusActive,
		Attributes:    instance.Attributes,
		CreatedAt:     instance.StartedAt,
	}
	err = s.store.InsertRecord(ctx, record)
	if err != nil {
		// audit writes never fail the business operation
		s.persistenceFailures.Inc()
		s.logger.Error(fmt.Sprintf("fail to persist SLA record for %s: %s", correlationID, err.Error()))
	}
	return copyInstance(instance), nil
}

// CompleteSLA terminates an instance on the caller's behalf. The second
// return value reports whether the correlation id was tracked with the
// given type: false is a benign outcome, allowing defensive calls and
// double completion.
func (s *Service) CompleteSLA(ctx context.Context, correlationID string, typeID string) (*aggregates.Record, bool, error) {
	s.mutex.Lock()
	instance, ok := s.instances[correlationID]
	if !ok || instance.TypeID != typeID {
		s.mutex.Unlock()
		return nil, false, nil
	}
	definition, err := s.catalog.Get(instance.TypeID)
	if err != nil {
		s.mutex.Unlock()
		return nil, false, err
	}
	now := s.now()
	duration := now.Sub(instance.StartedAt)
	slaMet := duration <= definition.MaxDuration
	instance.Status = aggregates.StatusCompleted
	delete(s.instances, correlationID)
	s.activeInstances.Dec()
	record := s.terminalRecord(instance, aggregates.StatusCompleted, now, duration, &slaMet, nil)
	s.mutex.Unlock()

	s.logger.Info(fmt.Sprintf("completing SLA %s for %s after %s (met: %t)", typeID, correlationID, duration, slaMet))
	s.persistTerminal(ctx, record)
	if !slaMet {
		s.notify(ctx, aggregates.Notification{
			Severity:      aggregates.SeverityBreach,
			CorrelationID: correlationID,
			TypeID:        typeID,
			Elapsed:       duration,
			Threshold:     definition.MaxDuration,
		})
	}
	return record, true, nil
}

// CancelSLA terminates an instance without a compliance outcome. The
// reason is recorded verbatim in the history notes.
func (s *Service) CancelSLA(ctx context.Context, correlationID string, reason string) (*aggregates.Record, bool, error) {
	s.mutex.Lock()
	instance, ok := s.instances[correlationID]
	if !ok {
		s.mutex.Unlock()
		return nil, false, nil
	}
	now := s.now()
	duration := now.Sub(instance.StartedAt)
	instance.Status = aggregates.StatusCancelled
	delete(s.instances, correlationID)
	s.activeInstances.Dec()
	var notes *string
	if reason != "" {
		notes = &reason
	}
	record := s.terminalRecord(instance, aggregates.StatusCancelled, now, duration, nil, notes)
	s.mutex.Unlock()

	s.logger.Info(fmt.Sprintf("cancelling SLA %s for %s: %s", instance.TypeID, correlationID, reason))
	s.persistTerminal(ctx, record)
	return record, true, nil
}

func (s *Service) GetActiveSLA(ctx context.Context, correlationID string) (*aggregates.Instance, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	instance, ok := s.instances[correlationID]
	if !ok {
		return nil, er.New("SLA instance not found", er.NotFound, true)
	}
	return copyInstance(instance), nil
}

func (s *Service) ListActiveSLAs(ctx context.Context) []*aggregates.Instance {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	result := []*aggregates.Instance{}
	for _, instance := range s.instances {
		result = append(result, copyInstance(instance))
	}
	return result
}

func (s *Service) CountActiveSLAs(ctx context.Context) int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.instances)
}

// terminalRecord must be called with the registry lock held, before the
// instance becomes visible as removed.
func (s *Service) terminalRecord(instance *aggregates.Instance, status aggregates.Status, endedAt time.Time, duration time.Duration, slaMet *bool, notes *string) *aggregates.Record {
	return &aggregates.Record{
		CorrelationID: instance.CorrelationID,
		TypeID:        instance.TypeID,
		StartedAt:     instance.StartedAt,
		EndedAt:       &endedAt,
		Duration:      &duration,
		Status:        status,
		SLAMet:        slaMet,
		WarningFired:  instance.WarningFired,
		CriticalFired: instance.CriticalFired,
		Attributes:    instance.Attributes,
		Notes:         notes,
		CreatedAt:     instance.StartedAt,
	}
}

func (s *Service) persistTerminal(ctx context.Context, record *aggregates.Record) {
	err := s.store.UpdateRecordTerminal(ctx, record)
	if err != nil {
		s.persistenceFailures.Inc()
		s.logger.Error(fmt.Sprintf("fail to persist terminal SLA record for %s: %s", record.CorrelationID, err.Error()))
	}
}
