package engine

import (
	"fmt"
	"math"

	"github.com/tardisdb/tardis/sql"
	"github.com/tardisdb/tardis/storage"
)

type BranchID uint32

const (
	MasterBranchID  BranchID = 0
	InvalidBranchID BranchID = math.MaxUint32
)

// TID is a 64 bit row identifier. The top bit flags a dangling row: one that
// was inserted in a non-master branch and lives in the dangling version array
// instead of the columnar store. Every boundary that stores or compares tids
// must treat the bit as part of the identifier, not as an index.
type TID uint64

const (
	danglingTIDBit TID = 1 << 63

	InvalidTID TID = math.MaxUint64
)

func MarkDangling(tid TID) TID {
	return tid | danglingTIDBit
}

func IsDangling(tid TID) bool {
	return tid&danglingTIDBit != 0
}

func UnmarkDangling(tid TID) TID {
	return tid &^ danglingTIDBit
}

type NullIndicatorType int

const (
	// NoIndicator marks a NOT NULL column, which has no null bit;
	// ColumnIndicator stores the null bit in the table's null indicator
	// bitmap; EmbeddedIndicator reserves space for an in-slot indicator.
	NoIndicator NullIndicatorType = iota
	ColumnIndicator
	EmbeddedIndicator
)

// ColumnInformation describes one SQL column: its vector, type, and where its
// null indicator lives.
type ColumnInformation struct {
	Name              string
	Type              sql.ColumnType
	Column            *storage.Vector
	NullIndicatorType NullIndicatorType
	NullColumnIndex   int

	// Index is the column position within the table; Offset the byte offset
	// of this column's field within a packed tuple image.
	Index  int
	Offset int
}

type Table struct {
	db   *Database
	name string

	columns       []*ColumnInformation
	columnsByName map[string]int
	tupleSize     int

	nullIndicators *storage.BitmapTable
	branchBitmap   *storage.BitmapTable
	textPool       sql.TextPool

	// versions holds one entry per columnar row; dangling holds the entries
	// of rows born outside master, addressed by tid with the dangling bit.
	versions []*VersionEntry
	dangling []*VersionEntry

	indexes []*Index
}

func newTable(db *Database, name string, branchCount int) *Table {
	tbl := &Table{
		db:             db,
		name:           name,
		columnsByName:  map[string]int{},
		nullIndicators: storage.NewBitmapTable(8),
		branchBitmap:   storage.NewBitmapTable(8),
	}
	for i := 0; i < branchCount; i++ {
		tbl.branchBitmap.AddColumn()
	}
	return tbl
}

func (tbl *Table) Name() string {
	return tbl.name
}

func (tbl *Table) AddColumn(name string, ct sql.ColumnType) error {
	if _, dup := tbl.columnsByName[name]; dup {
		return &sql.SemanticError{Kind: sql.DuplicateColumn, Ident: name}
	}
	if tbl.Size() > 0 || len(tbl.dangling) > 0 {
		return fmt.Errorf("engine: table %s: cannot add column to non-empty table", tbl.name)
	}

	ci := &ColumnInformation{
		Name:   name,
		Type:   ct,
		Column: storage.NewVector(int(ct.SlotSize())),
		Index:  len(tbl.columns),
		Offset: tbl.tupleSize,
	}
	if !ct.NotNull {
		ci.NullIndicatorType = ColumnIndicator
		ci.NullColumnIndex = tbl.nullIndicators.AddColumn()
	}
	tbl.tupleSize += int(ct.SlotSize())
	tbl.columnsByName[name] = ci.Index
	tbl.columns = append(tbl.columns, ci)
	return nil
}

// GetCI returns the column descriptor by name.
func (tbl *Table) GetCI(name string) (*ColumnInformation, error) {
	idx, ok := tbl.columnsByName[name]
	if !ok {
		return nil, &sql.SemanticError{Kind: sql.UnknownColumn, Ident: name}
	}
	return tbl.columns[idx], nil
}

func (tbl *Table) HasColumn(name string) bool {
	_, ok := tbl.columnsByName[name]
	return ok
}

func (tbl *Table) Columns() []*ColumnInformation {
	return tbl.columns
}

func (tbl *Table) ColumnCount() int {
	return len(tbl.columns)
}

// Size is the number of columnar rows; dangling rows are counted separately.
func (tbl *Table) Size() int {
	return len(tbl.versions)
}

func (tbl *Table) DanglingSize() int {
	return len(tbl.dangling)
}

func (tbl *Table) TextPool() *sql.TextPool {
	return &tbl.textPool
}

// addRow appends a zeroed slot to every column and a zeroed row to both
// bitmaps.
func (tbl *Table) addRow() TID {
	for _, ci := range tbl.columns {
		ci.Column.PushBack()
	}
	tbl.nullIndicators.AddRow()
	tbl.branchBitmap.AddRow()
	return TID(tbl.branchBitmap.RowCount() - 1)
}

// addBranchColumn widens the visibility bitmap for a new branch and copies
// the parent's visibility into it; dangling entries inherit the same way.
func (tbl *Table) addBranchColumn(branch, parent BranchID) {
	col := tbl.branchBitmap.AddColumn()
	if col != int(branch) {
		panic(fmt.Sprintf("engine: table %s: branch column %d for branch %d", tbl.name, col, branch))
	}
	if branch != MasterBranchID {
		tbl.branchBitmap.CopyColumn(int(branch), int(parent))
		for _, entry := range tbl.dangling {
			if entry.visibility.test(parent) {
				entry.visibility.set(branch)
			}
		}
	}
}

// IsVisibleInBranch is the single-bit visibility test for a row in a branch.
func (tbl *Table) IsVisibleInBranch(tid TID, branch BranchID) bool {
	if IsDangling(tid) {
		idx := int(UnmarkDangling(tid))
		if idx >= len(tbl.dangling) {
			return false
		}
		return tbl.dangling[idx].visibility.test(branch)
	}
	if int(tid) >= tbl.branchBitmap.RowCount() {
		return false
	}
	return tbl.branchBitmap.Get(int(tid), int(branch))
}

func (tbl *Table) setVisibility(tid TID, branch BranchID, visible bool) {
	if IsDangling(tid) {
		entry := tbl.dangling[UnmarkDangling(tid)]
		if visible {
			entry.visibility.set(branch)
		} else {
			entry.visibility.clear(branch)
		}
		return
	}
	tbl.branchBitmap.Set(int(tid), int(branch), visible)
}

func (tbl *Table) versionEntry(tid TID) (*VersionEntry, error) {
	if IsDangling(tid) {
		idx := int(UnmarkDangling(tid))
		if idx >= len(tbl.dangling) {
			return nil, &sql.RuntimeError{Kind: sql.NotFound,
				Detail: fmt.Sprintf("table %s: no row %d", tbl.name, tid)}
		}
		return tbl.dangling[idx], nil
	}
	if int(tid) >= len(tbl.versions) {
		return nil, &sql.RuntimeError{Kind: sql.NotFound,
			Detail: fmt.Sprintf("table %s: no row %d", tbl.name, tid)}
	}
	return tbl.versions[tid], nil
}

// readRow materialises the columnar image of row tid.
func (tbl *Table) readRow(tid TID) []sql.Value {
	tuple := make([]sql.Value, len(tbl.columns))
	for i, ci := range tbl.columns {
		if ci.NullIndicatorType == ColumnIndicator &&
			tbl.nullIndicators.Get(int(tid), ci.NullColumnIndex) {
			continue
		}
		tuple[i] = ci.Type.LoadValue(ci.Column.At(int(tid)), &tbl.textPool)
	}
	return tuple
}

// ReadColumn materialises a single column of row tid, null-aware.
func (tbl *Table) ReadColumn(tid TID, ci *ColumnInformation) sql.Value {
	if ci.NullIndicatorType == ColumnIndicator &&
		tbl.nullIndicators.Get(int(tid), ci.NullColumnIndex) {
		return nil
	}
	return ci.Type.LoadValue(ci.Column.At(int(tid)), &tbl.textPool)
}

// writeRow overwrites the columnar image of row tid.
func (tbl *Table) writeRow(tid TID, tuple []sql.Value) error {
	for i, ci := range tbl.columns {
		v := tuple[i]
		if v == nil {
			if ci.Type.NotNull {
				return fmt.Errorf("engine: table %s: column \"%s\" may not be NULL",
					tbl.name, ci.Name)
			}
			tbl.nullIndicators.Set(int(tid), ci.NullColumnIndex, true)
			continue
		}
		if ci.NullIndicatorType == ColumnIndicator {
			tbl.nullIndicators.Set(int(tid), ci.NullColumnIndex, false)
		}
		err := ci.Type.StoreValue(ci.Column.At(int(tid)), v, &tbl.textPool)
		if err != nil {
			return err
		}
	}
	return nil
}
