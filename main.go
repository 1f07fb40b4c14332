package main

import (
	"github.com/sidkik/sitesync/cmd"
	"github.com/sidkik/sitesync/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
