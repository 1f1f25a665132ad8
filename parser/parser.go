package parser

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/tardisdb/tardis/parser/scanner"
	"github.com/tardisdb/tardis/parser/token"
	"github.com/tardisdb/tardis/sql"
)

type Parser interface {
	Parse() (Stmt, error)
}

type parser struct {
	scanner   scanner.Scanner
	unscanned bool
	scanned   rune
}

func NewParser(rr io.RuneReader, fn string) Parser {
	var p parser
	p.scanner.Init(rr, fn)
	return &p
}

// ParseSQL parses a single statement out of a string.
func ParseSQL(text string) (Stmt, error) {
	return NewParser(strings.NewReader(text), "sql").Parse()
}

func (p *parser) Parse() (stmt Stmt, err error) {
	if p.scan() == token.EOF {
		return nil, io.EOF
	}
	p.unscan()

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(runtime.Error); ok {
				panic(r)
			}
			err = r.(error)
			stmt = nil
		}
	}()

	stmt = p.parseStmt()
	p.expectDelimiter()
	return
}

func (p *parser) error(msg string) {
	panic(&sql.SyntaxError{Position: p.scanner.Position.String(), Msg: msg})
}

func (p *parser) scan() rune {
	if p.unscanned {
		p.unscanned = false
		return p.scanned
	}

	p.scanned = p.scanner.Scan()
	if p.scanned == token.Error {
		p.error(p.scanner.Error.Error())
	}
	return p.scanned
}

func (p *parser) unscan() {
	p.unscanned = true
}

func (p *parser) got() string {
	switch p.scanned {
	case token.EOF:
		return "end of input"
	case token.Identifier:
		return fmt.Sprintf("identifier %s", p.scanner.Identifier)
	case token.Keyword:
		return fmt.Sprintf("keyword %s", p.scanner.Keyword)
	case token.String:
		return fmt.Sprintf("'%s'", p.scanner.String)
	case token.Integer, token.Float:
		return p.scanner.String
	}
	return token.Format(p.scanned)
}

func (p *parser) expectIdentifier(what string) string {
	if p.scan() != token.Identifier {
		p.error(fmt.Sprintf("expected %s, found %s", what, p.got()))
	}
	return p.scanner.Identifier
}

func (p *parser) expectKeyword(kw string) {
	if p.scan() != token.Keyword || p.scanner.Keyword != kw {
		p.error(fmt.Sprintf("expected '%s', found %s", strings.ToUpper(kw), p.got()))
	}
}

func (p *parser) optionalKeyword(kw string) bool {
	if p.scan() == token.Keyword && p.scanner.Keyword == kw {
		return true
	}
	p.unscan()
	return false
}

func (p *parser) expectToken(r rune) {
	if p.scan() != r {
		p.error(fmt.Sprintf("expected %s, found %s", token.Format(r), p.got()))
	}
}

func (p *parser) optionalToken(r rune) bool {
	if p.scan() == r {
		return true
	}
	p.unscan()
	return false
}

// expectDelimiter accepts the terminating semicolon; end of input implies it.
func (p *parser) expectDelimiter() {
	r := p.scan()
	if r == token.EOF {
		return
	}
	if r != token.Semicolon {
		p.error(fmt.Sprintf("expected ';', found %s", p.got()))
	}
}

func (p *parser) parseStmt() Stmt {
	if p.scan() != token.Keyword {
		p.error(fmt.Sprintf("unexpected %s", p.got()))
	}
	switch p.scanner.Keyword {
	case "select":
		return p.parseSelect()
	case "insert":
		return p.parseInsert()
	case "update":
		return p.parseUpdate()
	case "delete":
		return p.parseDelete()
	case "create":
		return p.parseCreate()
	}
	p.error(fmt.Sprintf("unexpected keyword %s", p.scanner.Keyword))
	return nil
}

// columnRef parses attr or binding.attr.
func (p *parser) parseColumnRef() ColumnRef {
	id := p.expectIdentifier("column name")
	if p.optionalToken(token.Dot) {
		return ColumnRef{Table: id, Name: p.expectIdentifier("column name")}
	}
	return ColumnRef{Name: id}
}

// tableRef parses table [VERSION branch] [alias].
func (p *parser) parseTableRef() TableRef {
	tr := TableRef{Name: p.expectIdentifier("table name")}
	if p.optionalKeyword("version") {
		tr.Version = p.expectIdentifier("branch name")
	}
	if p.scan() == token.Identifier {
		tr.Alias = p.scanner.Identifier
	} else {
		p.unscan()
	}
	return tr
}

func (p *parser) parseLiteral() string {
	switch p.scan() {
	case token.String, token.Integer, token.Float:
		return p.scanner.String
	}
	p.error(fmt.Sprintf("expected literal, found %s", p.got()))
	return ""
}

// conditions parses cond (AND cond)* with cond ::= attr = attr | attr = literal.
func (p *parser) parseConditions() []Condition {
	var conds []Condition
	for {
		cond := Condition{Left: p.parseColumnRef()}
		p.expectToken(token.Equal)
		if p.scan() == token.Identifier {
			p.unscan()
			attr := p.parseColumnRef()
			cond.RightAttr = &attr
		} else {
			p.unscan()
			cond.RightLit = p.parseLiteral()
		}
		conds = append(conds, cond)
		if !p.optionalKeyword("and") {
			return conds
		}
	}
}

func (p *parser) parseSelect() Stmt {
	var stmt SelectStmt
	if p.optionalToken(token.Star) {
		stmt.Star = true
	} else {
		for {
			stmt.Projections = append(stmt.Projections, p.parseColumnRef())
			if !p.optionalToken(token.Comma) {
				break
			}
		}
	}

	p.expectKeyword("from")
	for {
		stmt.Relations = append(stmt.Relations, p.parseTableRef())
		if !p.optionalToken(token.Comma) {
			break
		}
	}

	if p.optionalKeyword("where") {
		stmt.Conditions = p.parseConditions()
	}
	return &stmt
}

func (p *parser) parseInsert() Stmt {
	p.expectKeyword("into")

	var stmt InsertStmt
	stmt.Relation = TableRef{Name: p.expectIdentifier("table name")}
	if p.optionalKeyword("version") {
		stmt.Relation.Version = p.expectIdentifier("branch name")
	}

	p.expectToken(token.LParen)
	for {
		stmt.Columns = append(stmt.Columns, p.expectIdentifier("column name"))
		if !p.optionalToken(token.Comma) {
			break
		}
	}
	p.expectToken(token.RParen)

	p.expectKeyword("values")
	p.expectToken(token.LParen)
	for {
		stmt.Values = append(stmt.Values, p.parseLiteral())
		if !p.optionalToken(token.Comma) {
			break
		}
	}
	p.expectToken(token.RParen)

	if len(stmt.Columns) != len(stmt.Values) {
		p.error(fmt.Sprintf("%d columns but %d values", len(stmt.Columns), len(stmt.Values)))
	}
	return &stmt
}

func (p *parser) parseUpdate() Stmt {
	var stmt UpdateStmt
	stmt.Relation = p.parseTableRefNoAliasKeywordSet()

	for {
		col := p.expectIdentifier("column name")
		p.expectToken(token.Equal)
		stmt.Sets = append(stmt.Sets, UpdateSet{Column: col, Value: p.parseLiteral()})
		if !p.optionalToken(token.Comma) {
			break
		}
	}

	if p.optionalKeyword("where") {
		stmt.Conditions = p.parseConditions()
	}
	return &stmt
}

// parseTableRefNoAliasKeywordSet parses table [VERSION branch] [alias] SET;
// the alias must not swallow the SET keyword.
func (p *parser) parseTableRefNoAliasKeywordSet() TableRef {
	tr := TableRef{Name: p.expectIdentifier("table name")}
	if p.optionalKeyword("version") {
		tr.Version = p.expectIdentifier("branch name")
	}
	if p.scan() == token.Identifier {
		tr.Alias = p.scanner.Identifier
	} else {
		p.unscan()
	}
	p.expectKeyword("set")
	return tr
}

func (p *parser) parseDelete() Stmt {
	p.expectKeyword("from")

	var stmt DeleteStmt
	stmt.Relation = p.parseTableRef()
	if p.optionalKeyword("where") {
		stmt.Conditions = p.parseConditions()
	}
	return &stmt
}

func (p *parser) parseCreate() Stmt {
	if p.optionalKeyword("table") {
		return p.parseCreateTable()
	}
	if p.optionalKeyword("branch") {
		return p.parseCreateBranch()
	}
	p.scan()
	p.error(fmt.Sprintf("expected TABLE or BRANCH, found %s", p.got()))
	return nil
}

func (p *parser) parseCreateTable() Stmt {
	var stmt CreateTableStmt
	stmt.Name = p.expectIdentifier("table name")

	p.expectToken(token.LParen)
	for {
		stmt.Columns = append(stmt.Columns, p.parseColumnSpec())
		if !p.optionalToken(token.Comma) {
			break
		}
	}
	p.expectToken(token.RParen)
	return &stmt
}

func (p *parser) parseColumnSpec() ColumnSpec {
	cs := ColumnSpec{Name: p.expectIdentifier("column name")}
	cs.TypeName = strings.ToLower(p.expectIdentifier("type name"))

	if p.optionalToken(token.LParen) {
		cs.Length = p.parseUint("length")
		if p.optionalToken(token.Comma) {
			cs.Scale = p.parseUint("scale")
		}
		p.expectToken(token.RParen)
	}

	if p.optionalKeyword("not") {
		p.expectKeyword("null")
		cs.NotNull = true
	}
	return cs
}

func (p *parser) parseUint(what string) uint32 {
	if p.scan() != token.Integer {
		p.error(fmt.Sprintf("expected %s, found %s", what, p.got()))
	}
	var n uint32
	if _, err := fmt.Sscanf(p.scanner.String, "%d", &n); err != nil {
		p.error(fmt.Sprintf("expected %s, found %s", what, p.got()))
	}
	return n
}

func (p *parser) parseCreateBranch() Stmt {
	var stmt CreateBranchStmt
	stmt.Name = p.expectIdentifier("branch name")
	p.expectKeyword("from")
	stmt.Parent = p.expectIdentifier("branch name")
	return &stmt
}
