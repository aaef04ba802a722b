package cliapp

import (
	"github.com/forgcli/forg/internal/cli/commands"
	"github.com/forgcli/forg/internal/forgerr"
)

func init() {
	commands.Register(&commands.Command{
		Name:        "metadata",
		Description: "Not implemented: EXIF/metadata extraction is out of scope",
		Run:         stub("metadata"),
	})
	commands.Register(&commands.Command{
		Name:        "ocr",
		Description: "Not implemented: OCR tagging is out of scope",
		Run:         stub("ocr"),
	})
	commands.Register(&commands.Command{
		Name:        "classify",
		Description: "Not implemented: ML classification is out of scope",
		Run:         stub("classify"),
	})
}

func stub(name string) func(args []string) error {
	return func(args []string) error {
		return forgerr.Newf(forgerr.NotFound, "cliapp."+name, "%q has no registered provider in this build", name)
	}
}
