package load

import (
	"github.com/tardisdb/tardis/engine"
	"github.com/tardisdb/tardis/sql"
)

// WikiTables is the schema the wiki converter produces dumps for.
type WikiTables struct {
	Page     *engine.Table
	Revision *engine.Table
	Content  *engine.Table
}

func CreateWikiTables(db *engine.Database) (*WikiTables, error) {
	page, err := db.CreateTable("page")
	if err != nil {
		return nil, err
	}
	if err := page.AddColumn("p_id", sql.LongIntColType); err != nil {
		return nil, err
	}
	if err := page.AddColumn("p_title", sql.TextColType); err != nil {
		return nil, err
	}

	revision, err := db.CreateTable("revision")
	if err != nil {
		return nil, err
	}
	for _, name := range []string{"r_id", "r_parent", "r_page", "r_text"} {
		if err := revision.AddColumn(name, sql.LongIntColType); err != nil {
			return nil, err
		}
	}

	content, err := db.CreateTable("content")
	if err != nil {
		return nil, err
	}
	if err := content.AddColumn("c_id", sql.LongIntColType); err != nil {
		return nil, err
	}
	if err := content.AddColumn("c_text", sql.TextColType); err != nil {
		return nil, err
	}

	return &WikiTables{Page: page, Revision: revision, Content: content}, nil
}
