package cliapp

import (
	"flag"
	"fmt"
	"path/filepath"

	"github.com/forgcli/forg/internal/cli/commands"
	"github.com/forgcli/forg/internal/config"
	"github.com/forgcli/forg/internal/validate"
	"github.com/forgcli/forg/schemas"
)

func init() {
	commands.Register(&commands.Command{
		Name:        "init",
		Description: "Create a .forg/ workspace with default config, schemas, and an example rule set",
		Run:         runInit,
	})
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	root := fs.String("root", ".", "workspace root")
	force := fs.Bool("force", false, "overwrite existing config, schemas, and rules")
	if err := fs.Parse(args); err != nil {
		return err
	}

	forgDir, err := config.EnsureLayout(*root)
	if err != nil {
		return err
	}
	configPath := filepath.Join(forgDir, "config.jsonc")
	if err := config.WriteTemplate(configPath, "config.jsonc", nil, *force); err != nil {
		return err
	}
	if err := validate.JSONC(configPath, schemas.Config); err != nil {
		return fmt.Errorf("generated config.jsonc failed validation: %w", err)
	}
	if err := config.WriteTemplate(filepath.Join(forgDir, "rules", "example.yaml"), "rules.example.yaml", nil, *force); err != nil {
		return err
	}
	if err := config.CopySchemas(*root, *force); err != nil {
		return err
	}
	fmt.Printf("initialized workspace at %s\n", forgDir)
	return nil
}
