package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/tardisdb/tardis/engine"
	"github.com/tardisdb/tardis/execute"
	"github.com/tardisdb/tardis/repl"
)

var (
	replCmd = &cobra.Command{
		Use:   "repl [script.sql ...]",
		Short: "Run an interactive console session",
		RunE:  replRun,
	}
)

func init() {
	tardisCmd.AddCommand(replCmd)
}

func replRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	db := engine.NewDatabase()

	for _, fn := range args {
		f, err := os.Open(fn)
		if err != nil {
			return err
		}
		err = execute.RunAll(ctx, db, newRuneReader(f), fn, os.Stdout)
		f.Close()
		if err != nil {
			return err
		}
	}

	return repl.Interact(ctx, db)
}
