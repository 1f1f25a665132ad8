package repl

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/peterh/liner"

	"github.com/tardisdb/tardis/engine"
	"github.com/tardisdb/tardis/execute"
	"github.com/tardisdb/tardis/expr"
	"github.com/tardisdb/tardis/parser"
	"github.com/tardisdb/tardis/plan"
	"github.com/tardisdb/tardis/query"
	"github.com/tardisdb/tardis/sql"
)

const tardisHistory = ".tardis_history"

// Interact runs the interactive console: statements stream through the
// tuple-stream sink and render as tables.
func Interact(ctx context.Context, db *engine.Database) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if f, err := os.Open(tardisHistory); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(tardisHistory); err != nil {
			fmt.Fprintf(os.Stderr, "tardis: error writing history file, %s: %s\n",
				tardisHistory, err)
		} else {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	for {
		text, err := line.Prompt("tardis: ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		line.AppendHistory(text)

		if err := Statement(ctx, db, text, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "tardis: %s\n", err)
		}
	}
}

// Statement executes one statement and renders its rows to w.
func Statement(ctx context.Context, db *engine.Database, text string, w io.Writer) error {
	stmt, err := parser.NewParser(strings.NewReader(text), "console").Parse()
	if err == io.EOF {
		return nil
	} else if err != nil {
		return err
	}

	var f expr.Factory
	analysis, err := query.Analyse(db, &f, stmt, plan.TupleStreamResult)
	if err != nil {
		return err
	}
	if analysis.Plan == nil {
		fmt.Fprintln(w, analysis.Message)
		return nil
	}

	var header []string
	if res, ok := analysis.Plan.(*plan.Result); ok {
		for _, iu := range res.Selection {
			header = append(header, iu.Name)
		}
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)

	rows := 0
	root, err := execute.Translate(analysis.Plan, execute.Sink{Fn: func(tuple []sql.Value) error {
		fields := make([]string, len(tuple))
		for i, v := range tuple {
			fields[i] = sql.FormatRaw(v)
		}
		table.Append(fields)
		rows++
		return nil
	}})
	if err != nil {
		return err
	}

	ec, err := engine.NewExecutionContext(ctx, db, analysis.Branch)
	if err != nil {
		return err
	}
	if err := root.Produce(ec); err != nil {
		return err
	}

	if len(header) > 0 {
		table.Render()
		fmt.Fprintf(w, "(%d rows)\n", rows)
	} else {
		fmt.Fprintln(w, "ok")
	}
	return nil
}
