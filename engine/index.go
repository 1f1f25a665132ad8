package engine

import (
	"fmt"

	"github.com/google/btree"

	"github.com/tardisdb/tardis/sql"
)

// Index is a secondary B-tree index over one NOT NULL column of the master
// branch. It is maintained on master inserts and in-place master updates;
// branch-local revisions are not indexed.
type Index struct {
	name string
	ci   *ColumnInformation
	tree *btree.BTree
}

type indexItem struct {
	key sql.Value
	tid TID
}

func (it indexItem) Less(than btree.Item) bool {
	other := than.(indexItem)
	cmp, err := it.key.Compare(other.key)
	if err != nil {
		panic(fmt.Sprintf("engine: index key classes differ: %s", err))
	}
	if cmp != 0 {
		return cmp < 0
	}
	return it.tid < other.tid
}

const indexDegree = 32

// CreateIndex builds an index over the named column from the current master
// rows.
func (tbl *Table) CreateIndex(name, column string) (*Index, error) {
	ci, err := tbl.GetCI(column)
	if err != nil {
		return nil, err
	}
	if !ci.Type.NotNull {
		return nil, fmt.Errorf("engine: table %s: cannot index nullable column \"%s\"",
			tbl.name, column)
	}

	idx := &Index{name: name, ci: ci, tree: btree.New(indexDegree)}
	for tid := TID(0); tid < TID(tbl.Size()); tid++ {
		if !tbl.IsVisibleInBranch(tid, MasterBranchID) {
			continue
		}
		idx.tree.ReplaceOrInsert(indexItem{key: tbl.ReadColumn(tid, ci), tid: tid})
	}
	tbl.indexes = append(tbl.indexes, idx)
	return idx, nil
}

func (idx *Index) insert(tid TID, tuple []sql.Value) {
	idx.tree.ReplaceOrInsert(indexItem{key: tuple[idx.ci.Index], tid: tid})
}

func (idx *Index) update(tid TID, old, tuple []sql.Value) {
	idx.tree.Delete(indexItem{key: old[idx.ci.Index], tid: tid})
	idx.tree.ReplaceOrInsert(indexItem{key: tuple[idx.ci.Index], tid: tid})
}

// Lookup returns the master tids whose indexed column equals key, ascending.
func (idx *Index) Lookup(key sql.Value) []TID {
	var tids []TID
	idx.tree.AscendGreaterOrEqual(indexItem{key: key, tid: 0}, func(item btree.Item) bool {
		it := item.(indexItem)
		if !sql.Equal(it.key, key) {
			return false
		}
		tids = append(tids, it.tid)
		return true
	})
	return tids
}
