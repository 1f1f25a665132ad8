package cmd

import (
	"bufio"
	"io"
)

func newRuneReader(r io.Reader) io.RuneReader {
	return bufio.NewReader(r)
}
