// Package client holds the API payload types shared by the HTTP
// handlers and API consumers.
package client

import "time"

type Response struct {
	Messages []string `json:"messages"`
}

type StartSLAInput struct {
	CorrelationID string            `json:"correlation-id" validate:"required,max=255"`
	TypeID        string            `json:"type-id" validate:"required,max=255"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

type CompleteSLAInput struct {
	CorrelationID string `param:"correlation-id" validate:"required,max=255"`
	TypeID        string `json:"type-id" validate:"required,max=255"`
}

type CancelSLAInput struct {
	CorrelationID string `param:"correlation-id" validate:"required,max=255"`
	Reason        string `json:"reason,omitempty" validate:"max=1000"`
}

type GetSLAInput struct {
	CorrelationID string `param:"correlation-id" validate:"required,max=255"`
}

type SLAInstance struct {
	CorrelationID string            `json:"correlation-id"`
	TypeID        string            `json:"type-id"`
	StartedAt     time.Time         `json:"started-at"`
	Status        string            `json:"status"`
	WarningFired  bool              `json:"warning-fired"`
	CriticalFired bool              `json:"critical-fired"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

type SLARecord struct {
	CorrelationID string            `json:"correlation-id"`
	TypeID        string            `json:"type-id"`
	StartedAt     time.Time         `json:"started-at"`
	EndedAt       *time.Time        `json:"ended-at,omitempty"`
	Duration      string            `json:"duration,omitempty"`
	Status        string            `json:"status"`
	SLAMet        *bool             `json:"sla-met,omitempty"`
	WarningFired  bool              `json:"warning-fired"`
	CriticalFired bool              `json:"critical-fired"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	Notes         string            `json:"notes,omitempty"`
}

type ListSLAsOutput struct {
	Result []SLAInstance `json:"result"`
}

type GetMetricsInput struct {
	TypeID string `query:"type-id"`
	From   string `query:"from"`
	To     string `query:"to"`
}

type SLATypeMetrics struct {
	Total           int     `json:"total"`
	Completed       int     `json:"completed"`
	Cancelled       int     `json:"cancelled"`
	Breached        int     `json:"breached"`
	Active          int     `json:"active"`
	ComplianceRate  float64 `json:"compliance-rate"`
	AverageDuration string  `json:"average-duration"`
}

type SLAMetricsOutput struct {
	Total           int                       `json:"total"`
	Completed       int                       `json:"completed"`
	Cancelled       int                       `json:"cancelled"`
	Breached        int                       `json:"breached"`
	Active          int                       `json:"active"`
	ComplianceRate  float64                   `json:"compliance-rate"`
	AverageDuration string                    `json:"average-duration"`
	ByType          map[string]SLATypeMetrics `json:"by-type,omitempty"`
}
