package main

import (
	"github.com/sidkik/p4workspace/cmd"
	"github.com/sidkik/p4workspace/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
