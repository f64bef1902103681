package badge

import (
	"encoding/json"
	"time"

	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// definitionDTO is the JSON shape of one catalog entry.
type definitionDTO struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Kind             string   `json:"kind"`
	Repeatable       bool     `json:"repeatable"`
	Coins            int      `json:"coins"`
	XP               int      `json:"xp"`
	Threshold        int      `json:"threshold,omitempty"`
	EarlyBy          string   `json:"early_by,omitempty"`
	GradeRule        string   `json:"grade_rule,omitempty"`
	PassPercent      float64  `json:"pass_percent,omitempty"`
	Siblings         []string `json:"siblings,omitempty"`
	SiblingThreshold int      `json:"sibling_threshold,omitempty"`
}

// ParseDefinitions decodes a JSON catalog document (an array of badge
// definitions) and validates every entry. Durations such as early_by use Go
// duration syntax, e.g. "48h".
func ParseDefinitions(data []byte) ([]Definition, error) {
	var dtos []definitionDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, shared.WrapError("badge", "ParseDefinitions", shared.ErrInvalidInput, "undecodable badge catalog", err)
	}

	defs := make([]Definition, 0, len(dtos))
	for _, dto := range dtos {
		def := Definition{
			ID:               shared.BadgeID(dto.ID),
			Name:             dto.Name,
			Kind:             Kind(dto.Kind),
			Repeatable:       dto.Repeatable,
			Coins:            shared.Coins(dto.Coins),
			XP:               shared.XP(dto.XP),
			Threshold:        dto.Threshold,
			GradeRule:        GradeRule(dto.GradeRule),
			PassPercent:      dto.PassPercent,
			SiblingThreshold: dto.SiblingThreshold,
		}
		if dto.EarlyBy != "" {
			d, err := time.ParseDuration(dto.EarlyBy)
			if err != nil {
				return nil, shared.WrapError("badge", "ParseDefinitions", shared.ErrInvalidInput, "invalid early_by duration for "+dto.ID, err)
			}
			def.EarlyBy = d
		}
		for _, sib := range dto.Siblings {
			def.Siblings = append(def.Siblings, shared.BadgeID(sib))
		}
		if err := def.Validate(); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}
