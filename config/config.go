package config

import (
	"github.com/urgentline/sla-server/internal/database"
	"github.com/urgentline/sla-server/internal/http"
	"github.com/urgentline/sla-server/internal/notification"
	"github.com/urgentline/sla-server/internal/traces"
	"github.com/urgentline/sla-server/pkg/sla"
)

// Definition is the YAML form of an SLA definition, durations as
// strings ("30m").
type Definition struct {
	TypeID           string `yaml:"type-id" validate:"required"`
	DisplayName      string `yaml:"display-name" validate:"required"`
	WarningDuration  string `yaml:"warning-duration" validate:"required"`
	CriticalDuration string `yaml:"critical-duration" validate:"required"`
	MaxDuration      string `yaml:"max-duration" validate:"required"`
	Priority         string `yaml:"priority"`
}

type History struct {
	Retention string `yaml:"retention"`
	Schedule  string `yaml:"schedule"`
}

type SLA struct {
	Engine      sla.Configuration `yaml:"engine"`
	Definitions []Definition      `yaml:"definitions"`
	History     History           `yaml:"history"`
}

type Configuration struct {
	HTTP         http.Configuration
	Database     database.Configuration
	SLA          SLA
	Notification notification.Configuration
	Traces       traces.Configuration
}
