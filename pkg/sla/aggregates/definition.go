package aggregates

import "time"

// Definition is the static description of one SLA type: its escalation
// thresholds and priority. Definitions are loaded once at startup and
// never mutated.
type Definition struct {
	TypeID           string        `validate:"required"`
	DisplayName      string        `validate:"required"`
	WarningDuration  time.Duration `validate:"required"`
	CriticalDuration time.Duration `validate:"required"`
	MaxDuration      time.Duration `validate:"required"`
	Priority         string
}
