package expr

import (
	"sort"

	"github.com/tardisdb/tardis/engine"
	"github.com/tardisdb/tardis/sql"
)

// An IU (information unit) identifies one attribute at one point in a plan:
// it is an address in the attribute flow graph, not a value. TableScan
// produces one IU per projected column plus an implicit tid IU; GroupBy
// produces one IU per aggregator.
type IU struct {
	UID      uint32
	Operator uint32

	// Column is set for scan-produced IUs; nil for temporaries.
	Column *engine.ColumnInformation
	Type   sql.ColumnType
	Name   string
}

// Factory hands out IU and operator uids for one plan.
type Factory struct {
	nextIU       uint32
	nextOperator uint32
	ius          []*IU
}

func (f *Factory) OperatorUID() uint32 {
	uid := f.nextOperator
	f.nextOperator++
	return uid
}

// ColumnIU creates an iu for a table column produced by operator op.
func (f *Factory) ColumnIU(op uint32, ci *engine.ColumnInformation) *IU {
	iu := &IU{UID: f.nextIU, Operator: op, Column: ci, Type: ci.Type, Name: ci.Name}
	f.nextIU++
	f.ius = append(f.ius, iu)
	return iu
}

// TempIU creates an iu for a temporary such as an aggregate or the scan tid.
func (f *Factory) TempIU(op uint32, typ sql.ColumnType, name string) *IU {
	iu := &IU{UID: f.nextIU, Operator: op, Type: typ, Name: name}
	f.nextIU++
	f.ius = append(f.ius, iu)
	return iu
}

// IUSet is a set of attribute identities.
type IUSet map[*IU]struct{}

func NewIUSet(ius ...*IU) IUSet {
	set := IUSet{}
	for _, iu := range ius {
		set.Add(iu)
	}
	return set
}

func (set IUSet) Add(iu *IU) {
	set[iu] = struct{}{}
}

func (set IUSet) Contains(iu *IU) bool {
	_, ok := set[iu]
	return ok
}

func (set IUSet) AddAll(other IUSet) {
	for iu := range other {
		set[iu] = struct{}{}
	}
}

func (set IUSet) Clone() IUSet {
	clone := make(IUSet, len(set))
	clone.AddAll(set)
	return clone
}

// Intersect keeps the elements also present in other.
func (set IUSet) Intersect(other IUSet) IUSet {
	result := IUSet{}
	for iu := range set {
		if other.Contains(iu) {
			result.Add(iu)
		}
	}
	return result
}

// Subtract returns the elements not present in other.
func (set IUSet) Subtract(other IUSet) IUSet {
	result := IUSet{}
	for iu := range set {
		if !other.Contains(iu) {
			result.Add(iu)
		}
	}
	return result
}

func (set IUSet) SubsetOf(other IUSet) bool {
	for iu := range set {
		if !other.Contains(iu) {
			return false
		}
	}
	return true
}

// Sorted returns the elements ordered by uid for deterministic iteration.
func (set IUSet) Sorted() []*IU {
	ius := make([]*IU, 0, len(set))
	for iu := range set {
		ius = append(ius, iu)
	}
	sort.Slice(ius, func(i, j int) bool { return ius[i].UID < ius[j].UID })
	return ius
}

// Values maps IUs to the scalar values live during one consume call.
type Values map[*IU]sql.Value
