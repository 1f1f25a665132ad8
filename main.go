package main

import (
	"github.com/tardisdb/tardis/cmd"
)

func main() {
	cmd.Execute()
}
