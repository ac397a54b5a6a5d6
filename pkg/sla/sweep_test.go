package sla_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/urgentline/sla-server/pkg/sla/aggregates"
)

func TestSweepEscalationTiers(t *testing.T) {
	service, store, notifier, testClock := newTestService(t)
	store.On("InsertRecord", mock.Anything, mock.Anything).Return(nil)
	store.On("UpdateRecordEscalations", mock.Anything, "R2", "urgent_response", mock.Anything, mock.Anything).Return(nil)
	store.On("UpdateRecordTerminal", mock.Anything, mock.Anything).Return(nil)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	_, err := service.StartSLA(context.Background(), "R2", "urgent_response", nil)
	assert.NoError(t, err)

	// below the warning threshold, nothing fires
	testClock.Advance(10 * time.Minute)
	service.ForceSweep(context.Background())
	notifier.AssertNumberOfCalls(t, "Notify", 0)

	// warning at >= 15 minutes, exactly once
	testClock.Advance(5 * time.Minute)
	service.ForceSweep(context.Background())
	service.ForceSweep(context.Background())
	assert.Len(t, notificationsBySeverity(notifier, aggregates.SeverityWarning), 1)
	assert.Len(t, notificationsBySeverity(notifier, aggregates.SeverityCritical), 0)

	checkGet, err := service.GetActiveSLA(context.Background(), "R2")
	assert.NoError(t, err)
	assert.True(t, checkGet.WarningFired)
	assert.False(t, checkGet.CriticalFired)

	// critical at >= 25 minutes, no duplicate warning
	testClock.Advance(10 * time.Minute)
	service.ForceSweep(context.Background())
	assert.Len(t, notificationsBySeverity(notifier, aggregates.SeverityWarning), 1)
	assert.Len(t, notificationsBySeverity(notifier, aggregates.SeverityCritical), 1)

	// past 30 minutes the engine breaches on its own
	testClock.Advance(10 * time.Minute)
	service.ForceSweep(context.Background())
	breaches := notificationsBySeverity(notifier, aggregates.SeverityBreach)
	assert.Len(t, breaches, 1)
	assert.Equal(t, 35*time.Minute, breaches[0].Elapsed)
	assert.Equal(t, 30*time.Minute, breaches[0].Threshold)

	_, err = service.GetActiveSLA(context.Background(), "R2")
	assert.ErrorContains(t, err, "not found")

	// the terminal record carries the breach outcome
	store.AssertNumberOfCalls(t, "UpdateRecordTerminal", 1)
	terminal := store.Calls[len(store.Calls)-1]
	record := terminal.Arguments.Get(1).(*aggregates.Record)
	assert.Equal(t, aggregates.StatusBreached, record.Status)
	assert.NotNil(t, record.SLAMet)
	assert.False(t, *record.SLAMet)
	assert.True(t, record.WarningFired)
	assert.True(t, record.CriticalFired)

	// once terminal, later sweeps are silent
	testClock.Advance(1 * time.Hour)
	service.ForceSweep(context.Background())
	assert.Len(t, notificationsBySeverity(notifier, aggregates.SeverityBreach), 1)
}

func TestSweepLongGapFiresAllTiersInOrder(t *testing.T) {
	service, store, notifier, testClock := newTestService(t)
	store.On("InsertRecord", mock.Anything, mock.Anything).Return(nil)
	store.On("UpdateRecordTerminal", mock.Anything, mock.Anything).Return(nil)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	_, err := service.StartSLA(context.Background(), "R2", "urgent_response", nil)
	assert.NoError(t, err)

	// a single sweep after a long gap still emits every tier,
	// ascending
	testClock.Advance(35 * time.Minute)
	service.ForceSweep(context.Background())

	severities := []aggregates.Severity{}
	for _, call := range notifier.Calls {
		severities = append(severities, call.Arguments.Get(1).(aggregates.Notification).Severity)
	}
	assert.Equal(t, []aggregates.Severity{
		aggregates.SeverityWarning,
		aggregates.SeverityCritical,
		aggregates.SeverityBreach,
	}, severities)
	assert.Equal(t, 0, service.CountActiveSLAs(context.Background()))
}

func TestSweepMultipleInstances(t *testing.T) {
	service, store, notifier, testClock := newTestService(t)
	store.On("InsertRecord", mock.Anything, mock.Anything).Return(nil)
	store.On("UpdateRecordEscalations", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	_, err := service.StartSLA(context.Background(), "urgent-1", "urgent_response", nil)
	assert.NoError(t, err)
	_, err = service.StartSLA(context.Background(), "standard-1", "standard_response", nil)
	assert.NoError(t, err)

	// 20 minutes in: the urgent SLA warns, the standard one is far
	// from its one hour threshold
	testClock.Advance(20 * time.Minute)
	service.ForceSweep(context.Background())
	warnings := notificationsBySeverity(notifier, aggregates.SeverityWarning)
	assert.Len(t, warnings, 1)
	assert.Equal(t, "urgent-1", warnings[0].CorrelationID)
	assert.Equal(t, 2, service.CountActiveSLAs(context.Background()))
}

func TestSweepNotifierFailureDoesNotBlockEscalation(t *testing.T) {
	service, store, notifier, testClock := newTestService(t)
	store.On("InsertRecord", mock.Anything, mock.Anything).Return(nil)
	store.On("UpdateRecordEscalations", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(assert.AnError)

	_, err := service.StartSLA(context.Background(), "R2", "urgent_response", nil)
	assert.NoError(t, err)

	testClock.Advance(16 * time.Minute)
	service.ForceSweep(context.Background())

	// the flag is set even though delivery failed: no retry storm
	checkGet, err := service.GetActiveSLA(context.Background(), "R2")
	assert.NoError(t, err)
	assert.True(t, checkGet.WarningFired)
	notifier.AssertNumberOfCalls(t, "Notify", 1)
}

func TestSweepPersistsEscalationFlags(t *testing.T) {
	service, store, notifier, testClock := newTestService(t)
	store.On("InsertRecord", mock.Anything, mock.Anything).Return(nil)
	store.On("UpdateRecordEscalations", mock.Anything, "R2", "urgent_response", true, false).Return(nil)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	_, err := service.StartSLA(context.Background(), "R2", "urgent_response", nil)
	assert.NoError(t, err)

	testClock.Advance(16 * time.Minute)
	service.ForceSweep(context.Background())
	store.AssertCalled(t, "UpdateRecordEscalations", mock.Anything, "R2", "urgent_response", true, false)
}
