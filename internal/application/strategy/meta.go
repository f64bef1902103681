package strategy

import (
	"sort"

	"github.com/learnhub/badge-engine/internal/domain/badge"
	"github.com/learnhub/badge-engine/internal/domain/evidence"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// MetaComposition qualifies when enough of a fixed list of sibling badges
// have already been awarded (typically 2 of 3). Unlike every other strategy
// it reads the award ledger's sibling projection instead of raw activity
// evidence; the evidence is the names of the qualifying sibling badges.
type MetaComposition struct{}

// Kind implements Strategy.
func (MetaComposition) Kind() badge.Kind {
	return badge.KindMetaComposition
}

// Evaluate implements Strategy.
func (MetaComposition) Evaluate(in Input) (Result, error) {
	if len(in.Def.Siblings) == 0 || in.Def.SiblingThreshold < 1 {
		return Result{}, shared.ErrInvalidDefinition
	}

	// Stable sibling order: sort awarded sibling IDs so evidence and
	// fingerprints never depend on map iteration.
	awarded := make([]shared.BadgeID, 0, len(in.Def.Siblings))
	for _, sib := range in.Def.Siblings {
		if _, ok := in.Source.SiblingAwards[sib]; ok {
			awarded = append(awarded, sib)
		}
	}
	sort.Slice(awarded, func(i, j int) bool { return awarded[i] < awarded[j] })

	res := Result{Qualifies: len(awarded) >= in.Def.SiblingThreshold}
	if !res.Qualifies {
		return res, nil
	}

	group := evidence.Group{}
	for _, sib := range awarded {
		id := shared.ItemID("badge:" + sib.String())
		if in.Consumed.Contains(id) {
			// Prior meta award already reflected; the badge is spent.
			return res, nil
		}
		group.Items = append(group.Items, evidence.Item{
			ID:    id,
			Kind:  evidence.ItemSiblingBadge,
			Label: in.Source.SiblingAwards[sib],
		})
	}
	res.NewOccurrences = append(res.NewOccurrences, group)
	return res, nil
}
