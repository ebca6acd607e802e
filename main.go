package main

import (
	"github.com/sidkik/gistsync/cmd"
	"github.com/sidkik/gistsync/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
