package main

import (
	"fmt"
	"os"

	"github.com/brimdata/arbor/cmd/arbor/count"
	"github.com/brimdata/arbor/cmd/arbor/find"
	"github.com/brimdata/arbor/cmd/arbor/head"
	"github.com/brimdata/arbor/cmd/arbor/load"
	"github.com/brimdata/arbor/cmd/arbor/rm"
	"github.com/brimdata/arbor/cmd/arbor/root"
	"github.com/brimdata/arbor/cmd/arbor/schema"
	"github.com/brimdata/arbor/cmd/arbor/stat"
)

func main() {
	arbor := root.Arbor
	arbor.Add(load.Cmd)
	arbor.Add(stat.Cmd)
	arbor.Add(schema.Cmd)
	arbor.Add(head.Cmd)
	arbor.Add(count.Cmd)
	arbor.Add(find.Cmd)
	arbor.Add(rm.Cmd)
	if err := arbor.ExecRoot(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}
