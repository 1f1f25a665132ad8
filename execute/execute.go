package execute

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/tardisdb/tardis/engine"
	"github.com/tardisdb/tardis/expr"
	"github.com/tardisdb/tardis/parser"
	"github.com/tardisdb/tardis/plan"
	"github.com/tardisdb/tardis/query"
	"github.com/tardisdb/tardis/sql"
)

// The executor: parse, analyse, translate, then drive the physical root.
// Failures propagate to the caller unchanged; side effects of statements
// that already reached the version manager stay visible.

// Run executes one statement, printing result tuples |-separated to w.
func Run(ctx context.Context, db *engine.Database, text string, w io.Writer) error {
	return run(ctx, db, text, plan.PrintResult, Sink{W: w})
}

// Stream executes one statement, handing each result tuple to fn.
func Stream(ctx context.Context, db *engine.Database, text string,
	fn func([]sql.Value) error) error {

	return run(ctx, db, text, plan.TupleStreamResult, Sink{Fn: fn})
}

// RunAll executes statements from rr until end of input.
func RunAll(ctx context.Context, db *engine.Database, rr io.RuneReader, fn string,
	w io.Writer) error {

	p := parser.NewParser(rr, fn)
	for {
		stmt, err := p.Parse()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if err := runStmt(ctx, db, stmt, plan.PrintResult, Sink{W: w}); err != nil {
			return err
		}
	}
}

func run(ctx context.Context, db *engine.Database, text string, mode plan.ResultMode,
	sink Sink) error {

	stmt, err := parser.NewParser(strings.NewReader(text), "sql").Parse()
	if err != nil {
		return err
	}
	return runStmt(ctx, db, stmt, mode, sink)
}

func runStmt(ctx context.Context, db *engine.Database, stmt parser.Stmt,
	mode plan.ResultMode, sink Sink) error {

	var f expr.Factory
	analysis, err := query.Analyse(db, &f, stmt, mode)
	if err != nil {
		return err
	}
	if analysis.Plan == nil {
		// data definition acts during analysis
		return nil
	}

	root, err := Translate(analysis.Plan, sink)
	if err != nil {
		return err
	}

	ec, err := engine.NewExecutionContext(ctx, db, analysis.Branch)
	if err != nil {
		return err
	}
	return root.Produce(ec)
}

// Timings reports the per-phase latencies of one statement.
type Timings struct {
	Parse     time.Duration
	Analyse   time.Duration
	Translate time.Duration
	Execute   time.Duration
	Rows      int
}

// Measure executes one statement through a counting tuple stream and records
// how long each phase of the compilation chain took.
func Measure(ctx context.Context, db *engine.Database, text string) (Timings, error) {
	var t Timings

	start := time.Now()
	stmt, err := parser.NewParser(strings.NewReader(text), "sql").Parse()
	t.Parse = time.Since(start)
	if err != nil {
		return t, err
	}

	var f expr.Factory
	start = time.Now()
	analysis, err := query.Analyse(db, &f, stmt, plan.TupleStreamResult)
	t.Analyse = time.Since(start)
	if err != nil {
		return t, err
	}
	if analysis.Plan == nil {
		return t, nil
	}

	start = time.Now()
	root, err := Translate(analysis.Plan, Sink{Fn: func(_ []sql.Value) error {
		t.Rows++
		return nil
	}})
	t.Translate = time.Since(start)
	if err != nil {
		return t, err
	}

	ec, err := engine.NewExecutionContext(ctx, db, analysis.Branch)
	if err != nil {
		return t, err
	}
	start = time.Now()
	err = root.Produce(ec)
	t.Execute = time.Since(start)
	return t, err
}
