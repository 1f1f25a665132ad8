package engine

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/tardisdb/tardis/sql"
)

type Branch struct {
	ID     BranchID
	Parent BranchID
	Name   string
}

// Database owns the tables and the branch tree. Branch and table mutations
// are serialised by a coarse lock; reads are unsynchronised under the
// single-writer invariant.
type Database struct {
	mutex sync.Mutex

	tables map[string]*Table

	branches      map[BranchID]*Branch
	branchMapping map[string]BranchID
	nextBranchID  BranchID
}

const MasterBranchName = "master"

func NewDatabase() *Database {
	db := &Database{
		tables:        map[string]*Table{},
		branches:      map[BranchID]*Branch{},
		branchMapping: map[string]BranchID{},
	}
	master := &Branch{ID: MasterBranchID, Parent: InvalidBranchID, Name: MasterBranchName}
	db.branches[MasterBranchID] = master
	db.branchMapping[MasterBranchName] = MasterBranchID
	db.nextBranchID = 1
	return db
}

func (db *Database) CreateTable(name string) (*Table, error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if _, dup := db.tables[name]; dup {
		return nil, fmt.Errorf("engine: table %s already exists", name)
	}
	tbl := newTable(db, name, int(db.nextBranchID))
	db.tables[name] = tbl
	return tbl, nil
}

func (db *Database) GetTable(name string) (*Table, error) {
	tbl, ok := db.tables[name]
	if !ok {
		return nil, &sql.SemanticError{Kind: sql.UnknownRelation, Ident: name}
	}
	return tbl, nil
}

func (db *Database) HasTable(name string) bool {
	_, ok := db.tables[name]
	return ok
}

func (db *Database) Tables() []*Table {
	tbls := make([]*Table, 0, len(db.tables))
	for _, tbl := range db.tables {
		tbls = append(tbls, tbl)
	}
	return tbls
}

// CreateBranch allocates a fresh branch id below parent and widens every
// table's visibility bitmap by one column, copying the parent's visibility.
func (db *Database) CreateBranch(name string, parent BranchID) (BranchID, error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if _, dup := db.branchMapping[name]; dup {
		return InvalidBranchID, &sql.SemanticError{Kind: sql.DuplicateBranch, Ident: name}
	}
	if _, ok := db.branches[parent]; !ok {
		return InvalidBranchID, &sql.RuntimeError{Kind: sql.NotFound,
			Detail: "no such parent branch"}
	}

	id := db.nextBranchID
	db.nextBranchID++
	db.branches[id] = &Branch{ID: id, Parent: parent, Name: name}
	db.branchMapping[name] = id

	for _, tbl := range db.tables {
		tbl.addBranchColumn(id, parent)
	}

	log.WithFields(log.Fields{"branch": name, "id": id, "parent": parent}).
		Debug("created branch")
	return id, nil
}

// LookupBranch resolves a branch name; the empty name means master.
func (db *Database) LookupBranch(name string) (BranchID, error) {
	if name == "" {
		return MasterBranchID, nil
	}
	id, ok := db.branchMapping[name]
	if !ok {
		return InvalidBranchID, &sql.RuntimeError{Kind: sql.NotFound,
			Detail: "no such branch: " + name}
	}
	return id, nil
}

func (db *Database) LargestBranchID() BranchID {
	return db.nextBranchID - 1
}

// ConstructBranchLineage follows parent links from branch to master; the
// result begins with the branch itself and ends at master.
func (db *Database) ConstructBranchLineage(branch BranchID) ([]BranchID, error) {
	lineage := []BranchID{}
	for {
		b, ok := db.branches[branch]
		if !ok {
			return nil, &sql.RuntimeError{Kind: sql.NotFound, Detail: "no such branch"}
		}
		lineage = append(lineage, b.ID)
		if b.ID == MasterBranchID {
			return lineage, nil
		}
		branch = b.Parent
	}
}
