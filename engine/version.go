package engine

import (
	"fmt"

	"github.com/tardisdb/tardis/sql"
)

// Per-tuple version chains. Each row owns one VersionEntry; revisions made
// outside master are head-inserted VersionNodes carrying a packed tuple
// image. Master is destructive: updates in master rewrite the columnar slots
// and the entry keeps representing the current columnar image.

// branchSet is a small bitset over branch ids; dangling entries carry their
// own visibility here because their tids are not rows of the table bitmap.
type branchSet []uint64

func (bs branchSet) test(b BranchID) bool {
	w := int(b >> 6)
	return w < len(bs) && bs[w]&(1<<(uint(b)&63)) != 0
}

func (bs *branchSet) set(b BranchID) {
	w := int(b >> 6)
	for len(*bs) <= w {
		*bs = append(*bs, 0)
	}
	(*bs)[w] |= 1 << (uint(b) & 63)
}

func (bs *branchSet) clear(b BranchID) {
	w := int(b >> 6)
	if w < len(*bs) {
		(*bs)[w] &^= 1 << (uint(b) & 63)
	}
}

// VersionNode is one element of a row's version chain, newest first. The
// node with master set is the entry's own slot: its image lives in the
// columns. Tombstones carry no image.
type VersionNode struct {
	next         *VersionNode
	nextInBranch *VersionNode
	branchID     BranchID
	creationTS   BranchID
	tombstone    bool
	master       bool

	// data is the packed tuple image, fixed-width fields in column order;
	// nulls holds one indicator bit per column.
	data  []byte
	nulls []byte
}

// VersionEntry is the master slot of a row's version chain.
type VersionEntry struct {
	lock  optLock
	first *VersionNode
	self  VersionNode

	visibility branchSet
}

// packTuple builds the fixed-width image of a tuple for version storage.
func (tbl *Table) packTuple(tuple []sql.Value) (*VersionNode, error) {
	node := &VersionNode{
		data:  make([]byte, tbl.tupleSize),
		nulls: make([]byte, (len(tbl.columns)+7)/8),
	}
	for i, ci := range tbl.columns {
		v := tuple[i]
		if v == nil {
			if ci.Type.NotNull {
				return nil, fmt.Errorf("engine: table %s: column \"%s\" may not be NULL",
					tbl.name, ci.Name)
			}
			node.nulls[i>>3] |= 1 << (uint(i) & 7)
			continue
		}
		end := ci.Offset + int(ci.Type.SlotSize())
		err := ci.Type.StoreValue(node.data[ci.Offset:end], v, &tbl.textPool)
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

// unpackTuple materialises a version node's image.
func (tbl *Table) unpackTuple(node *VersionNode) []sql.Value {
	tuple := make([]sql.Value, len(tbl.columns))
	for i, ci := range tbl.columns {
		if node.nulls[i>>3]&(1<<(uint(i)&7)) != 0 {
			continue
		}
		end := ci.Offset + int(ci.Type.SlotSize())
		tuple[i] = ci.Type.LoadValue(node.data[ci.Offset:end], &tbl.textPool)
	}
	return tuple
}

// UnpackColumn reads a single field out of a version node.
func (tbl *Table) UnpackColumn(node *VersionNode, ci *ColumnInformation) sql.Value {
	if node.master {
		panic("engine: master node has no packed image")
	}
	i := ci.Index
	if node.nulls[i>>3]&(1<<(uint(i)&7)) != 0 {
		return nil
	}
	end := ci.Offset + int(ci.Type.SlotSize())
	return ci.Type.LoadValue(node.data[ci.Offset:end], &tbl.textPool)
}

// InsertTuple appends a new row. In master the row joins the columnar store
// and becomes visible in master and every branch below it; elsewhere the row
// goes to the dangling array and is visible only in the inserting branch
// (branches created later inherit it through the visibility copy).
func InsertTuple(tuple []sql.Value, tbl *Table, branch BranchID, ec *ExecutionContext) (TID, error) {
	if len(tuple) != len(tbl.columns) {
		return InvalidTID, fmt.Errorf("engine: table %s: got %d values want %d",
			tbl.name, len(tuple), len(tbl.columns))
	}

	if branch == MasterBranchID {
		tid := tbl.addRow()
		if err := tbl.writeRow(tid, tuple); err != nil {
			return InvalidTID, err
		}
		entry := &VersionEntry{}
		entry.self = VersionNode{
			branchID:   MasterBranchID,
			creationTS: tbl.db.nextBranchID,
			master:     true,
		}
		entry.first = &entry.self
		tbl.versions = append(tbl.versions, entry)

		for b := 0; b < tbl.branchBitmap.ColumnCount(); b++ {
			tbl.branchBitmap.Set(int(tid), b, true)
		}
		for _, idx := range tbl.indexes {
			idx.insert(tid, tuple)
		}
		return tid, nil
	}

	node, err := tbl.packTuple(tuple)
	if err != nil {
		return InvalidTID, err
	}
	node.branchID = branch
	node.creationTS = tbl.db.nextBranchID

	entry := &VersionEntry{first: node}
	entry.visibility.set(branch)
	tbl.dangling = append(tbl.dangling, entry)
	return MarkDangling(TID(len(tbl.dangling) - 1)), nil
}

// UpdateTuple replaces the row's image as seen from branch. Master rewrites
// the columnar slots in place; any other branch head-inserts a fresh version
// node under the entry lock.
func UpdateTuple(tid TID, tuple []sql.Value, tbl *Table, branch BranchID, ec *ExecutionContext) error {
	entry, err := tbl.versionEntry(tid)
	if err != nil {
		return err
	}

	if branch == MasterBranchID && !IsDangling(tid) {
		if err := entry.lock.acquire(); err != nil {
			return err
		}
		defer entry.lock.release()

		old := tbl.readRow(tid)
		if err := tbl.writeRow(tid, tuple); err != nil {
			return err
		}
		for _, idx := range tbl.indexes {
			idx.update(tid, old, tuple)
		}
		return nil
	}

	node, err := tbl.packTuple(tuple)
	if err != nil {
		return err
	}
	node.branchID = branch
	node.creationTS = tbl.db.nextBranchID

	if err := entry.lock.acquire(); err != nil {
		return err
	}
	defer entry.lock.release()

	set, err := ec.LineageSet(branch)
	if err != nil {
		return err
	}
	node.nextInBranch = latestChainElement(entry, set)
	node.next = entry.first
	entry.first = node
	return nil
}

// DeleteTuple tombstones the row in branch and drops the branch's visibility
// bit. Other branches keep whatever revision their lineage reaches.
func DeleteTuple(tid TID, tbl *Table, branch BranchID, ec *ExecutionContext) error {
	entry, err := tbl.versionEntry(tid)
	if err != nil {
		return err
	}

	node := &VersionNode{
		branchID:   branch,
		creationTS: tbl.db.nextBranchID,
		tombstone:  true,
	}

	if err := entry.lock.acquire(); err != nil {
		return err
	}
	defer entry.lock.release()

	set, err := ec.LineageSet(branch)
	if err != nil {
		return err
	}
	node.nextInBranch = latestChainElement(entry, set)
	node.next = entry.first
	entry.first = node

	tbl.setVisibility(tid, branch, false)
	return nil
}

// latestChainElement walks the chain from the head and returns the first
// node whose branch is in the lineage. Head-inserts keep chains ordered by
// decreasing creation time, so the first hit is the newest revision the
// lineage can see. Tombstones end the walk.
func latestChainElement(entry *VersionEntry, lineage map[BranchID]int) *VersionNode {
	for node := entry.first; node != nil; node = node.next {
		if _, ok := lineage[node.branchID]; ok {
			if node.tombstone {
				return nil
			}
			return node
		}
	}
	return nil
}

// GetLatestTuple materialises the newest revision of row tid visible from
// branch, or nil when the branch cannot see the row.
func GetLatestTuple(tid TID, tbl *Table, branch BranchID, ec *ExecutionContext) ([]sql.Value, error) {
	entry, err := tbl.versionEntry(tid)
	if err != nil {
		return nil, err
	}
	if branch == MasterBranchID && !IsDangling(tid) {
		if !tbl.IsVisibleInBranch(tid, MasterBranchID) {
			return nil, nil
		}
		return tbl.readRow(tid), nil
	}

	set, err := ec.LineageSet(branch)
	if err != nil {
		return nil, err
	}
	node := latestChainElement(entry, set)
	if node == nil {
		return nil, nil
	}
	if node.master {
		return tbl.readRow(tid), nil
	}
	return tbl.unpackTuple(node), nil
}

// LatestNode exposes the winning chain element for scans: the caller
// materialises only the columns it needs. ok is false when the branch cannot
// see the row.
func LatestNode(tid TID, tbl *Table, branch BranchID, ec *ExecutionContext) (*VersionNode, bool, error) {
	entry, err := tbl.versionEntry(tid)
	if err != nil {
		return nil, false, err
	}
	set, err := ec.LineageSet(branch)
	if err != nil {
		return nil, false, err
	}
	node := latestChainElement(entry, set)
	if node == nil {
		return nil, false, nil
	}
	return node, true, nil
}

// IsMaster reports whether the chain element represents the current
// columnar image.
func (node *VersionNode) IsMaster() bool {
	return node.master
}
