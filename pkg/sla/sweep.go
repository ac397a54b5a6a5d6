package sla

import (
	"context"
	"fmt"

	"github.com/urgentline/sla-server/pkg/sla/aggregates"
)

type escalation struct {
	notifications []aggregates.Notification
	record        *aggregates.Record
	flagsChanged  bool
	warningFired  bool
	criticalFired bool
	correlationID string
	typeID        string
}

// ForceSweep runs one synchronous escalation pass over all active
// instances. The background ticker calls the same logic; exposing it
// keeps escalation behavior deterministic in tests and allows operators
// to trigger a pass on demand.
func (s *Service) ForceSweep(ctx context.Context) {
	s.sweep(ctx)
}

// sweep compares elapsed time against each instance's thresholds and
// fires every newly crossed tier in ascending severity order, so a long
// gap between passes still emits warning and critical before breach.
// Warning and critical use >=, the breach check uses >: an instance
// completed at exactly its max duration stays compliant.
func (s *Service) sweep(ctx context.Context) {
	now := s.now()
	escalations := []escalation{}

	s.mutex.Lock()
	for correlationID, instance := range s.instances {
		definition, err := s.catalog.Get(instance.TypeID)
		if err != nil {
			s.logger.Error(fmt.Sprintf("sweep: no definition for tracked SLA %s: %s", correlationID, err.Error()))
			continue
		}
		elapsed := now.Sub(instance.StartedAt)
		esc := escalation{
			correlationID: correlationID,
			typeID:        instance.TypeID,
		}
		if !instance.WarningFired && elapsed >= definition.WarningDuration {
			instance.WarningFired = true
			esc.flagsChanged = true
			esc.notifications = append(esc.notifications, aggregates.Notification{
				Severity:      aggregates.SeverityWarning,
				CorrelationID: correlationID,
				TypeID:        instance.TypeID,
				Elapsed:       elapsed,
				Threshold:     definition.WarningDuration,
			})
		}
		if !instance.CriticalFired && elapsed >= definition.CriticalDuration {
			instance.CriticalFired = true
			esc.flagsChanged = true
			esc.notifications = append(esc.notifications, aggregates.Notification{
				Severity:      aggregates.SeverityCritical,
				CorrelationID: correlationID,
				TypeID:        instance.TypeID,
				Elapsed:       elapsed,
				Threshold:     definition.CriticalDuration,
			})
		}
		esc.warningFired = instance.WarningFired
		esc.criticalFired = instance.CriticalFired
		if elapsed > definition.MaxDuration {
			// engine-driven breach: terminal without any caller action
			instance.Status = aggregates.StatusBreached
			delete(s.instances, correlationID)
			s.activeInstances.Dec()
			slaMet := false
			duration := elapsed
			esc.record = s.terminalRecord(instance, aggregates.StatusBreached, now, duration, &slaMet, nil)
			esc.flagsChanged = false
			esc.notifications = append(esc.notifications, aggregates.Notification{
				Severity:      aggregates.SeverityBreach,
				CorrelationID: correlationID,
				TypeID:        instance.TypeID,
				Elapsed:       elapsed,
				Threshold:     definition.MaxDuration,
			})
		}
		if esc.flagsChanged || esc.record != nil || len(esc.notifications) > 0 {
			escalations = append(escalations, esc)
		}
	}
	s.mutex.Unlock()

	for _, esc := range escalations {
		if esc.record != nil {
			s.logger.Warn(fmt.Sprintf("SLA %s for %s breached", esc.typeID, esc.correlationID))
			s.persistTerminal(ctx, esc.record)
		} else if esc.flagsChanged {
			err := s.store.UpdateRecordEscalations(ctx, esc.correlationID, esc.typeID, esc.warningFired, esc.criticalFired)
			if err != nil {
				s.persistenceFailures.Inc()
				s.logger.Error(fmt.Sprintf("fail to persist escalation flags for %s: %s", esc.correlationID, err.Error()))
			}
		}
		for _, notification := range esc.notifications {
			s.notify(ctx, notification)
		}
	}
}
