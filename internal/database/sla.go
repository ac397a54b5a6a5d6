package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	er "github.com/mcorbin/corbierror"
	"github.com/urgentline/sla-server/pkg/sla/aggregates"
)

type slaRecord struct {
	CorrelationID string     `db:"correlation_id"`
	TypeID        string     `db:"type_id"`
	StartedAt     time.Time  `db:"started_at"`
	EndedAt       *time.Time `db:"ended_at"`
	DurationMS    *int64     `db:"duration_ms"`
	Status        string
	SLAMet        *bool `db:"sla_met"`
	WarningFired  bool  `db:"warning_fired"`
	CriticalFired bool  `db:"critical_fired"`
	Attributes    *string
	Notes         *string
	CreatedAt     time.Time `db:"created_at"`
}

func toRecord(record *slaRecord) (*aggregates.Record, error) {
	attributes, err := stringToAttributes(record.Attributes)
	if err != nil {
		return nil, err
	}
	result := &aggregates.Record{
		CorrelationID: record.CorrelationID,
		TypeID:        record.TypeID,
		StartedAt:     record.StartedAt.UTC(),
		Status:        aggregates.Status(record.Status),
		SLAMet:        record.SLAMet,
		WarningFired:  record.WarningFired,
		CriticalFired: record.CriticalFired,
		Attributes:    attributes,
		Notes:         record.Notes,
		CreatedAt:     record.CreatedAt.UTC(),
	}
	if record.EndedAt != nil {
		endedAt := record.EndedAt.UTC()
		result.EndedAt = &endedAt
	}
	if record.DurationMS != nil {
		duration := time.Duration(*record.DurationMS) * time.Millisecond
		result.Duration = &duration
	}
	return result, nil
}

func toDBRecord(record *aggregates.Record) (*slaRecord, error) {
	attributes, err := attributesToString(record.Attributes)
	if err != nil {
		return nil, err
	}
	result := &slaRecord{
		CorrelationID: record.CorrelationID,
		TypeID:        record.TypeID,
		StartedAt:     record.StartedAt,
		EndedAt:       record.EndedAt,
		Status:        string(record.Status),
		SLAMet:        record.SLAMet,
		WarningFired:  record.WarningFired,
		CriticalFired: record.CriticalFired,
		Attributes:    attributes,
		Notes:         record.Notes,
		CreatedAt:     record.CreatedAt,
	}
	if record.Duration != nil {
		ms := record.Duration.Milliseconds()
		result.DurationMS = &ms
	}
	return result, nil
}

func (c *Database) InsertRecord(ctx context.Context, record *aggregates.Record) error {
	dbRecord, err := toDBRecord(record)
	if err != nil {
		return err
	}
	result, err := c.db.NamedExecContext(ctx, "INSERT INTO sla_record (correlation_id, type_id, started_at, ended_at, duration_ms, status, sla_met, warning_fired, critical_fired, attributes, notes, created_at) VALUES (:correlation_id, :type_id, :started_at, :ended_at, :duration_ms, :status, :sla_met, :warning_fired, :critical_fired, :attributes, :notes, :created_at)", dbRecord)
	if err != nil {
		return fmt.Errorf("fail to create SLA record %s: %w", record.CorrelationID, err)
	}
	return checkResult(result, 1)
}

func (c *Database) UpdateRecordEscalations(ctx context.Context, correlationID string, typeID string, warningFired bool, criticalFired bool) error {
	result, err := c.db.ExecContext(ctx, "UPDATE sla_record SET warning_fired=$1, critical_fired=$2 WHERE correlation_id=$3 AND type_id=$4 AND status='active'", warningFired, criticalFired, correlationID, typeID)
	if err != nil {
		return fmt.Errorf("fail to update escalations for SLA record %s: %w", correlationID, err)
	}
	return checkResult(result, 1)
}

// UpdateRecordTerminal closes the open row for the correlation id. The
// advisory lock serializes concurrent terminal writes on the same id
// and the status='active' guard makes the transition one-way: a second
// writer finds no open row and gets a not found error.
func (c *Database) UpdateRecordTerminal(ctx context.Context, record *aggregates.Record) error {
	tx := c.db.MustBegin()
	shouldRollback := true
	defer func() {
		if shouldRollback {
			err := tx.Rollback()
			if err != nil {
				c.Logger.Error(err.Error())
			}
		}
	}()
	_, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", record.CorrelationID)
	if err != nil {
		return err
	}
	dbRecord, err := toDBRecord(record)
	if err != nil {
		return err
	}
	result, err := tx.NamedExecContext(ctx, "UPDATE sla_record SET ended_at=:ended_at, duration_ms=:duration_ms, status=:status, sla_met=:sla_met, warning_fired=:warning_fired, critical_fired=:critical_fired, notes=:notes WHERE correlation_id=:correlation_id AND type_id=:type_id AND status='active'", dbRecord)
	if err != nil {
		return fmt.Errorf("fail to update SLA record %s: %w", record.CorrelationID, err)
	}
	err = checkResult(result, 1)
	if err != nil {
		return err
	}
	err = tx.Commit()
	if err != nil {
		return err
	}
	shouldRollback = false
	return nil
}

func (c *Database) GetRecord(ctx context.Context, correlationID string) (*aggregates.Record, error) {
	record := slaRecord{}
	err := c.db.GetContext(ctx, &record, "SELECT sla_record.correlation_id, sla_record.type_id, sla_record.started_at, sla_record.ended_at, sla_record.duration_ms, sla_record.status, sla_record.sla_met, sla_record.warning_fired, sla_record.critical_fired, sla_record.attributes, sla_record.notes, sla_record.created_at FROM sla_record WHERE correlation_id=$1 ORDER BY started_at DESC LIMIT 1", correlationID)
	if err != nil {
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("fail to get SLA record %s: %w", correlationID, err)
		}
		return nil, er.New("SLA record not found", er.NotFound, true)
	}
	return toRecord(&record)
}

func (c *Database) ListRecords(ctx context.Context, query aggregates.Query) ([]*aggregates.Record, error) {
	baseQuery := "SELECT sla_record.correlation_id, sla_record.type_id, sla_record.started_at, sla_record.ended_at, sla_record.duration_ms, sla_record.status, sla_record.sla_met, sla_record.warning_fired, sla_record.critical_fired, sla_record.attributes, sla_record.notes, sla_record.created_at FROM sla_record WHERE 1=1"
	args := []any{}
	if query.TypeID != "" {
		args = append(args, query.TypeID)
		baseQuery = fmt.Sprintf("%s AND type_id=$%d", baseQuery, len(args))
	}
	if query.From != nil {
		args = append(args, *query.From)
		baseQuery = fmt.Sprintf("%s AND started_at >= $%d", baseQuery, len(args))
	}
	if query.To != nil {
		args = append(args, *query.To)
		baseQuery = fmt.Sprintf("%s AND started_at <= $%d", baseQuery, len(args))
	}
	records := []slaRecord{}
	err := c.db.SelectContext(ctx, &records, baseQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("fail to list SLA records: %w", err)
	}
	result := []*aggregates.Record{}
	for i := range records {
		record := records[i]
		r, err := toRecord(&record)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, nil
}

func (c *Database) ListOpenRecords(ctx context.Context) ([]*aggregates.Record, error) {
	records := []slaRecord{}
	err := c.db.SelectContext(ctx, &records, "SELECT sla_record.correlation_id, sla_record.type_id, sla_record.started_at, sla_record.ended_at, sla_record.duration_ms, sla_record.status, sla_record.sla_met, sla_record.warning_fired, sla_record.critical_fired, sla_record.attributes, sla_record.notes, sla_record.created_at FROM sla_record WHERE status='active'")
	if err != nil {
		return nil, fmt.Errorf("fail to list open SLA records: %w", err)
	}
	result := []*aggregates.Record{}
	for i := range records {
		record := records[i]
		r, err := toRecord(&record)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, nil
}

func (c *Database) PurgeRecords(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := c.db.ExecContext(ctx, "DELETE FROM sla_record WHERE status != 'active' AND ended_at < $1", olderThan)
	if err != nil {
		return 0, fmt.Errorf("fail to purge SLA records: %w", err)
	}
	return result.RowsAffected()
}

func (c *Database) CountRecords(ctx context.Context) (int, error) {
	var count int
	row := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sla_record")
	err := row.Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
