package cliapp

import (
	"flag"
	"fmt"

	"github.com/forgcli/forg/internal/cli/commands"
	"github.com/forgcli/forg/internal/forgerr"
)

func init() {
	commands.Register(&commands.Command{
		Name:        "hash",
		Description: "Print the content hash of a file",
		Run:         runHash,
	})
}

func runHash(args []string) error {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	hasherName := fs.String("hasher", "", "named content hasher provider")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return forgerr.Newf(forgerr.InvalidInput, "runHash", "usage: forg hash [--hasher=NAME] <path>")
	}

	ws, err := openWorkspace(".", "", *hasherName, "")
	if err != nil {
		return err
	}
	defer ws.Engine.Close()

	value, err := ws.Engine.Hasher().Hash(fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s\n", value, fs.Arg(0))
	return nil
}
