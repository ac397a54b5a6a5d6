package sla

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urgentline/sla-server/pkg/sla/aggregates"
)

type Store interface {
	InsertRecord(ctx context.Context, record *aggregates.Record) error
	UpdateRecordEscalations(ctx context.Context, correlationID string, typeID string, warningFired bool, criticalFired bool) error
	UpdateRecordTerminal(ctx context.Context, record *aggregates.Record) error
	ListRecords(ctx context.Context, query aggregates.Query) ([]*aggregates.Record, error)
	ListOpenRecords(ctx context.Context) ([]*aggregates.Record, error)
	PurgeRecords(ctx context.Context, olderThan time.Time) (int64, error)
}

// Notifier receives escalation events. Implementations are expected to
// be fire-and-forget: errors are logged by the service and never reach
// SLA state transitions.
type Notifier interface {
	Notify(ctx context.Context, notification aggregates.Notification) error
}

type Configuration struct {
	SweepInterval string `yaml:"sweep-interval"`
	Reconcile     bool   `yaml:"reconcile"`
}

type Service struct {
	logger              *slog.Logger
	store               Store
	notifier            Notifier
	catalog             *Catalog
	reconcile           bool
	now                 func() time.Time
	escalationsCounter  *prometheus.CounterVec
	persistenceFailures prometheus.Counter
	activeInstances     prometheus.Gauge

	mutex     sync.RWMutex
	instances map[string]*aggregates.Instance

	wg     sync.WaitGroup
	stop   chan bool
	ticker *time.Ticker
}

type Option func(*Service)

// WithClock overrides the time source, mostly to make sweep tests
// deterministic.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(logger *slog.Logger, store Store, notifier Notifier, catalog *Catalog, registry *prometheus.Registry, config Configuration, options ...Option) (*Service, error) {
	sweepInterval := 60 * time.Second
	if config.SweepInterval != "" {
		interval, err := time.ParseDuration(config.SweepInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid sweep interval %s: %w", config.SweepInterval, err)
		}
		sweepInterval = interval
	}
	escalationsCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sla_escalations_total",
			Help: "Count the number of SLA escalation notifications by severity.",
		},
		[]string{"severity", "type"})
	err := registry.Register(escalationsCounter)
	if err != nil {
		return nil, err
	}
	persistenceFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sla_persistence_failures_total",
			Help: "Count the number of swallowed SLA history write failures.",
		})
	err = registry.Register(persistenceFailures)
	if err != nil {
		return nil, err
	}
	activeInstances := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sla_active_instances",
			Help: "Number of SLA instances currently tracked.",
		})
	err = registry.Register(activeInstances)
	if err != nil {
		return nil, err
	}
	service := &Service{
		logger:              logger,
		store:               store,
		notifier:            notifier,
		catalog:             catalog,
		reconcile:           config.Reconcile,
		now:                 func() time.Time { return time.Now().UTC() },
		escalationsCounter:  escalationsCounter,
		persistenceFailures: persistenceFailures,
		activeInstances:     activeInstances,
		instances:           make(map[string]*aggregates.Instance),
		stop:                make(chan bool),
		ticker:              time.NewTicker(sweepInterval),
	}
	for _, option := range options {
		option(service)
	}
	return service, nil
}

func (s *Service) Start() error {
	if s.reconcile {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := s.Reconcile(ctx)
		if err != nil {
			return err
		}
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.stop:
				return
			case <-s.ticker.C:
				s.logger.Debug("sweeping active SLA instances")
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				s.sweep(ctx)
				cancel()
			}
		}
	}()
	return nil
}

func (s *Service) Stop() {
	s.ticker.Stop()
	s.stop <- true
	s.wg.Wait()
}

// Reconcile reloads open history records into the registry. Instances
// that were active when the previous process stopped are tracked again
// with their original start times and escalation flags, so the next
// sweep fires or breaches anything already crossed.
func (s *Service) Reconcile(ctx context.Context) error {
	records, err := s.store.ListOpenRecords(ctx)
	if err != nil {
		return fmt.Errorf("fail to list open SLA records: %w", err)
	}
	restored := 0
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, record := range records {
		if _, ok := s.instances[record.CorrelationID]; ok {
			continue
		}
		if _, err := s.catalog.Get(record.TypeID); err != nil {
			s.logger.Warn(fmt.Sprintf("skipping open SLA record %s: unknown type %s", record.CorrelationID, record.TypeID))
			continue
		}
		s.instances[record.CorrelationID] = &aggregates.Instance{
			CorrelationID: record.CorrelationID,
			TypeID:        record.TypeID,
			StartedAt:     record.StartedAt,
			Status:        aggregates.StatusActive,
			WarningFired:  record.WarningFired,
			CriticalFired: record.CriticalFired,
			Attributes:    record.Attributes,
		}
		s.activeInstances.Inc()
		restored++
	}
	if restored > 0 {
		s.logger.Info(fmt.Sprintf("reconciled %d open SLA instances from history", restored))
	}
	return nil
}

// PurgeHistory deletes terminal history records older than the given
// retention window.
func (s *Service) PurgeHistory(ctx context.Context, retention time.Duration) (int64, error) {
	return s.store.PurgeRecords(ctx, s.now().Add(-retention))
}

func (s *Service) notify(ctx context.Context, notification aggregates.Notification) {
	s.escalationsCounter.With(prometheus.Labels{"severity": string(notification.Severity), "type": notification.TypeID}).Inc()
	err := s.notifier.Notify(ctx, notification)
	if err != nil {
		s.logger.Error(fmt.Sprintf("fail to notify %s escalation for %s: %s", notification.Severity, notification.CorrelationID, err.Error()))
	}
}
