package cmd

import (
	"bufio"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tardisdb/tardis/load"
)

var (
	wikicCmd = &cobra.Command{
		Use:   "wikic --in <WIKI>",
		Short: "Convert a Wikipedia XML dump into pipe-separated tables",
		RunE:  wikicRun,
	}

	wikicIn = ""
)

func init() {
	wikicCmd.Flags().StringVar(&wikicIn, "in", wikicIn, "wiki dump `file`")
	wikicCmd.MarkFlagRequired("in")

	tardisCmd.AddCommand(wikicCmd)
}

func wikicRun(cmd *cobra.Command, args []string) error {
	in, err := os.Open(wikicIn)
	if err != nil {
		return err
	}
	defer in.Close()

	var outs [3]*os.File
	for i, fn := range []string{"page.tbl", "revision.tbl", "content.tbl"} {
		outs[i], err = os.Create(fn)
		if err != nil {
			return err
		}
		defer outs[i].Close()
	}

	pageW := bufio.NewWriter(outs[0])
	revisionW := bufio.NewWriter(outs[1])
	contentW := bufio.NewWriter(outs[2])

	pages, err := load.ConvertWiki(bufio.NewReader(in), pageW, revisionW, contentW)
	if err != nil {
		return err
	}
	for _, w := range []*bufio.Writer{pageW, revisionW, contentW} {
		if err := w.Flush(); err != nil {
			return err
		}
	}

	log.WithField("pages", pages).Info("converted wiki dump")
	return nil
}
