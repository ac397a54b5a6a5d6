package sla

import (
	er "github.com/mcorbin/corbierror"
	"github.com/urgentline/sla-server/internal/validator"
	"github.com/urgentline/sla-server/pkg/sla/aggregates"
)

// Catalog is the immutable lookup table of SLA definitions. It is built
// once at startup and read-only afterwards.
type Catalog struct {
	definitions map[string]aggregates.Definition
}

func NewCatalog(definitions []aggregates.Definition) (*Catalog, error) {
	result := make(map[string]aggregates.Definition)
	for _, definition := range definitions {
		err := validator.Validator.Struct(definition)
		if err != nil {
			return nil, err
		}
		if definition.WarningDuration >= definition.CriticalDuration || definition.CriticalDuration >= definition.MaxDuration {
			return nil, er.Newf("invalid SLA definition %s: expected warning < critical < max duration", er.BadRequest, true, definition.TypeID)
		}
		if _, ok := result[definition.TypeID]; ok {
			return nil, er.Newf("duplicate SLA definition %s", er.BadRequest, true, definition.TypeID)
		}
		result[definition.TypeID] = definition
	}
	return &Catalog{
		definitions: result,
	}, nil
}

func (c *Catalog) Get(typeID string) (*aggregates.Definition, error) {
	definition, ok := c.definitions[typeID]
	if !ok {
		return nil, er.Newf("unknown SLA type %s", er.NotFound, true, typeID)
	}
	return &definition, nil
}

func (c *Catalog) Definitions() []aggregates.Definition {
	result := []aggregates.Definition{}
	for _, definition := range c.definitions {
		result = append(result, definition)
	}
	return result
}
