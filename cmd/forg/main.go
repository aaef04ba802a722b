package main

import (
	"os"

	"github.com/forgcli/forg/internal/cliapp"
)

func main() {
	os.Exit(cliapp.Run(os.Args[1:]))
}
