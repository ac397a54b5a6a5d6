package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	er "github.com/mcorbin/corbierror"
	"github.com/urgentline/sla-server/pkg/client"
	"github.com/urgentline/sla-server/pkg/sla/aggregates"
)

func toInstance(instance aggregates.Instance) client.SLAInstance {
	return client.SLAInstance{
		CorrelationID: instance.CorrelationID,
		TypeID:        instance.TypeID,
		StartedAt:     instance.StartedAt,
		Status:        string(instance.Status),
		WarningFired:  instance.WarningFired,
		CriticalFired: instance.CriticalFired,
		Attributes:    instance.Attributes,
	}
}

func toSLARecord(record aggregates.Record) client.SLARecord {
	result := client.SLARecord{
		CorrelationID: record.CorrelationID,
		TypeID:        record.TypeID,
		StartedAt:     record.StartedAt,
		EndedAt:       record.EndedAt,
		Status:        string(record.Status),
		SLAMet:        record.SLAMet,
		WarningFired:  record.WarningFired,
		CriticalFired: record.CriticalFired,
		Attributes:    record.Attributes,
	}
	if record.Duration != nil {
		result.Duration = record.Duration.String()
	}
	if record.Notes != nil {
		result.Notes = *record.Notes
	}
	return result
}

func (b *Builder) StartSLA(ec echo.Context) error {
	var payload client.StartSLAInput
	if err := ec.Bind(&payload); err != nil {
		return err
	}
	if err := ec.Validate(payload); err != nil {
		return err
	}

	instance, err := b.sla.StartSLA(ec.Request().Context(), payload.CorrelationID, payload.TypeID, payload.Attributes)
	if err != nil {
		return err
	}
	result := toInstance(*instance)
	return ec.JSON(http.StatusCreated, &result)
}

func (b *Builder) CompleteSLA(ec echo.Context) error {
	var payload client.CompleteSLAInput
	if err := ec.Bind(&payload); err != nil {
		return err
	}
	if err := ec.Validate(payload); err != nil {
		return err
	}

	record, found, err := b.sla.CompleteSLA(ec.Request().Context(), payload.CorrelationID, payload.TypeID)
	if err != nil {
		return err
	}
	if !found {
		// benign: double completion or an SLA that was never started
		return ec.JSON(http.StatusOK, NewResponse("SLA not tracked"))
	}
	result := toSLARecord(*record)
	return ec.JSON(http.StatusOK, &result)
}

func (b *Builder) CancelSLA(ec echo.Context) error {
	var payload client.CancelSLAInput
	if err := ec.Bind(&payload); err != nil {
		return err
	}
	if err := ec.Validate(payload); err != nil {
		return err
	}

	record, found, err := b.sla.CancelSLA(ec.Request().Context(), payload.CorrelationID, payload.Reason)
	if err != nil {
		return err
	}
	if !found {
		return ec.JSON(http.StatusOK, NewResponse("SLA not tracked"))
	}
	result := toSLARecord(*record)
	return ec.JSON(http.StatusOK, &result)
}

func (b *Builder) GetSLA(ec echo.Context) error {
	var payload client.GetSLAInput
	if err := ec.Bind(&payload); err != nil {
		return err
	}
	if err := ec.Validate(payload); err != nil {
		return err
	}

	instance, err := b.sla.GetActiveSLA(ec.Request().Context(), payload.CorrelationID)
	if err != nil {
		return err
	}
	result := toInstance(*instance)
	return ec.JSON(http.StatusOK, &result)
}

func (b *Builder) ListSLAs(ec echo.Context) error {
	instances := b.sla.ListActiveSLAs(ec.Request().Context())
	result := client.ListSLAsOutput{
		Result: []client.SLAInstance{},
	}
	for i := range instances {
		result.Result = append(result.Result, toInstance(*instances[i]))
	}
	return ec.JSON(http.StatusOK, &result)
}

func (b *Builder) GetSLAMetrics(ec echo.Context) error {
	var payload client.GetMetricsInput
	if err := ec.Bind(&payload); err != nil {
		return err
	}

	query := aggregates.Query{
		TypeID: payload.TypeID,
	}
	if payload.From != "" {
		from, err := time.Parse(time.RFC3339, payload.From)
		if err != nil {
			return er.New("invalid from date, expected RFC3339", er.BadRequest, true)
		}
		query.From = &from
	}
	if payload.To != "" {
		to, err := time.Parse(time.RFC3339, payload.To)
		if err != nil {
			return er.New("invalid to date, expected RFC3339", er.BadRequest, true)
		}
		query.To = &to
	}

	snapshot, err := b.sla.ComputeMetrics(ec.Request().Context(), query)
	if err != nil {
		return err
	}
	result := client.SLAMetricsOutput{
		Total:           snapshot.Total,
		Completed:       snapshot.Completed,
		Cancelled:       snapshot.Cancelled,
		Breached:        snapshot.Breached,
		Active:          snapshot.Active,
		ComplianceRate:  snapshot.ComplianceRate,
		AverageDuration: snapshot.AverageDuration.String(),
		ByType:          make(map[string]client.SLATypeMetrics),
	}
	for typeID, metrics := range snapshot.ByType {
		result.ByType[typeID] = client.SLATypeMetrics{
			Total:           metrics.Total,
			Completed:       metrics.Completed,
			Cancelled:       metrics.Cancelled,
			Breached:        metrics.Breached,
			Active:          metrics.Active,
			ComplianceRate:  metrics.ComplianceRate,
			AverageDuration: metrics.AverageDuration.String(),
		}
	}
	return ec.JSON(http.StatusOK, &result)
}

func (b *Builder) SweepSLAs(ec echo.Context) error {
	b.sla.ForceSweep(ec.Request().Context())
	return ec.JSON(http.StatusOK, NewResponse("sweep executed"))
}
