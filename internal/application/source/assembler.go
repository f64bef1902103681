// Package source assembles the read-only evidence inputs one strategy
// evaluation works from. The engine's live path, the evidence cache's lazy
// recompute, and the reconciler's verification all assemble through this one
// component, so every consumer sees the same view of upstream state.
package source

import (
	"context"

	"github.com/learnhub/badge-engine/internal/domain/award"
	"github.com/learnhub/badge-engine/internal/domain/badge"
	"github.com/learnhub/badge-engine/internal/domain/evidence"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// Assembler resolves SourceData for a (user, course) against the upstream
// stores and the award ledger's sibling projection.
type Assembler struct {
	Activities evidence.ActivityCompletionStore
	Grades     evidence.GradeStore
	Courses    evidence.CourseRegistry
	Ledger     award.Ledger
	Catalog    *badge.Catalog
}

// Assemble resolves every input the given badge definitions need: completion
// state always, grade histories only when a grade rule is present, sibling
// awards only for meta badges. Any upstream failure maps to a source
// unavailability that callers skip-and-continue on.
func (a *Assembler) Assemble(ctx context.Context, user shared.UserID, course shared.CourseID, defs []badge.Definition) (evidence.SourceData, error) {
	var data evidence.SourceData

	completions, err := a.Activities.List(ctx, user, course)
	if err != nil {
		return data, shared.WrapError("source", "Assemble", shared.ErrServiceUnavailable, "activity completion read failed", err)
	}
	data.Completions = completions

	total, err := a.Courses.ActivityCount(ctx, course)
	if err != nil {
		return data, shared.WrapError("source", "Assemble", shared.ErrServiceUnavailable, "activity count read failed", err)
	}
	data.TotalActivities = total

	needGrades := false
	siblingIDs := make([]shared.BadgeID, 0)
	for _, def := range defs {
		switch def.Kind {
		case badge.KindGradeImprovement, badge.KindGradeImprovementAggregate:
			needGrades = true
		case badge.KindMetaComposition:
			siblingIDs = append(siblingIDs, def.Siblings...)
		}
	}

	if needGrades {
		data.Grades = make(map[shared.ItemID][]evidence.GradePoint)
		for _, c := range completions {
			if !c.Gradable {
				continue
			}
			history, err := a.Grades.History(ctx, user, c.ItemID)
			if err != nil {
				return data, shared.WrapError("source", "Assemble", shared.ErrServiceUnavailable, "grade history read failed", err)
			}
			data.Grades[c.ItemID] = history
		}
	}

	if len(siblingIDs) > 0 {
		awarded, err := a.Ledger.SiblingAwards(ctx, user, course, siblingIDs)
		if err != nil {
			return data, err
		}
		data.SiblingAwards = make(map[shared.BadgeID]string, len(awarded))
		for _, id := range awarded {
			if def, catErr := a.Catalog.Get(id); catErr == nil {
				data.SiblingAwards[id] = def.Name
			} else {
				data.SiblingAwards[id] = id.String()
			}
		}
	}

	return data, nil
}
