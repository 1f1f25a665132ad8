package engine

import (
	"context"

	"github.com/tardisdb/tardis/sql"
)

// ExecutionContext carries the per-statement state: the active branch, its
// lineage snapshot, and the cancellation signal. Operators poll Cancelled at
// the top of each scan iteration and at each hash table emission.
type ExecutionContext struct {
	Ctx      context.Context
	DB       *Database
	BranchID BranchID

	// Lineage is ordered from the active branch to master.
	Lineage []BranchID

	lineageSets map[BranchID]map[BranchID]int
}

func NewExecutionContext(ctx context.Context, db *Database, branch BranchID) (*ExecutionContext, error) {
	ec := &ExecutionContext{
		Ctx:         ctx,
		DB:          db,
		BranchID:    branch,
		lineageSets: map[BranchID]map[BranchID]int{},
	}
	lineage, err := db.ConstructBranchLineage(branch)
	if err != nil {
		return nil, err
	}
	ec.Lineage = lineage
	return ec, nil
}

// LineageSet returns branch id -> lineage position for the given branch;
// smaller positions are nearer the branch and win ties.
func (ec *ExecutionContext) LineageSet(branch BranchID) (map[BranchID]int, error) {
	if set, ok := ec.lineageSets[branch]; ok {
		return set, nil
	}
	lineage, err := ec.DB.ConstructBranchLineage(branch)
	if err != nil {
		return nil, err
	}
	set := make(map[BranchID]int, len(lineage))
	for i, b := range lineage {
		set[b] = i
	}
	ec.lineageSets[branch] = set
	return set, nil
}

// Cancelled reports sql.ErrCancelled once the statement's context is done.
func (ec *ExecutionContext) Cancelled() error {
	if ec.Ctx == nil {
		return nil
	}
	select {
	case <-ec.Ctx.Done():
		return sql.ErrCancelled
	default:
		return nil
	}
}
