package load

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/tardisdb/tardis/engine"
	"github.com/tardisdb/tardis/sql"
)

// Table dump loading: ASCII, |-delimited fields, newline-terminated rows,
// UTF-8 values, no quoting.

const maxLineBytes = 16 * 1024 * 1024

// A Distribution picks the branch for each loaded row; the benchmark loader
// spreads rows across branches to age the version chains.
type Distribution func() engine.BranchID

// Master loads every row into the master branch.
func Master() Distribution {
	return func() engine.BranchID { return engine.MasterBranchID }
}

// Uniform spreads rows uniformly over the given branches.
func Uniform(branches []engine.BranchID, seed int64) Distribution {
	rnd := rand.New(rand.NewSource(seed))
	return func() engine.BranchID {
		return branches[rnd.Intn(len(branches))]
	}
}

// Table reads a dump into tbl, casting each field through the column types.
// It returns the number of loaded rows.
func Table(ctx context.Context, db *engine.Database, tbl *engine.Table, r io.Reader,
	dist Distribution) (int, error) {

	contexts := map[engine.BranchID]*engine.ExecutionContext{}
	columns := tbl.Columns()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	rows := 0
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) != len(columns) {
			return rows, fmt.Errorf("load: table %s row %d: got %d fields want %d",
				tbl.Name(), rows+1, len(fields), len(columns))
		}

		tuple := make([]sql.Value, len(columns))
		for i, ci := range columns {
			if fields[i] == "" && !ci.Type.NotNull {
				continue
			}
			v, err := ci.Type.CastFromString(fields[i])
			if err != nil {
				return rows, fmt.Errorf("load: table %s row %d column %s: %s",
					tbl.Name(), rows+1, ci.Name, err)
			}
			tuple[i] = v
		}

		branch := dist()
		ec := contexts[branch]
		if ec == nil {
			var err error
			ec, err = engine.NewExecutionContext(ctx, db, branch)
			if err != nil {
				return rows, err
			}
			contexts[branch] = ec
		}
		if _, err := engine.InsertTuple(tuple, tbl, branch, ec); err != nil {
			return rows, err
		}
		rows++
	}
	if err := scanner.Err(); err != nil {
		return rows, err
	}

	log.WithFields(log.Fields{"table": tbl.Name(), "rows": rows}).Info("loaded table")
	return rows, nil
}
