package cliapp

import (
	"flag"
	"fmt"
	"path/filepath"

	"github.com/forgcli/forg/internal/cli/commands"
	"github.com/forgcli/forg/internal/forgerr"
	"github.com/forgcli/forg/internal/model"
	"github.com/forgcli/forg/internal/oplog"
	"github.com/forgcli/forg/internal/rules"
)

func init() {
	commands.Register(&commands.Command{
		Name:        "organize",
		Description: "Move files into place per a rule set",
		Run:         runOrganize,
	})
	commands.Register(&commands.Command{
		Name:        "rename",
		Description: "Rename files per a single template",
		Run:         runRename,
	})
}

func loadRuleSet(rulesFile, inlineRule string) (*rules.Set, error) {
	switch {
	case rulesFile != "":
		return rules.Load(rulesFile)
	case inlineRule != "":
		return rules.New([]model.Rule{{Name: "inline", Template: inlineRule}})
	default:
		return nil, forgerr.Newf(forgerr.InvalidInput, "loadRuleSet", "one of --rules or --rule/--pattern is required")
	}
}

func attrsFor(ws *workspace, f model.FileInfo) rules.Attrs {
	tags, _ := ws.Engine.FileRepository().GetTags(f.ID)
	return rules.Attrs{File: f, Tags: tags}
}

func applyOrganize(ws *workspace, rs *rules.Set, dryRun bool) error {
	files, err := ws.Engine.FileRepository().IterateAll()
	if err != nil {
		return err
	}
	log := oplog.New(ws.Engine.OperationRepository())
	moved := 0
	for _, f := range files {
		if f.IsDir {
			continue
		}
		dest, err := rs.Apply(attrsFor(ws, f))
		if err != nil {
			return err
		}
		if dest == f.Path {
			continue
		}
		if !filepath.IsAbs(dest) {
			dest = filepath.Join(ws.Root, dest)
		}
		if dryRun {
			fmt.Printf("would move %s -> %s\n", f.Path, dest)
			continue
		}
		if _, err := log.Move(f.Path, dest); err != nil {
			fmt.Printf("move %s: %v\n", f.Path, err)
			continue
		}
		moved++
	}
	if dryRun {
		fmt.Println("dry run: no files moved")
	} else {
		fmt.Printf("moved %d files\n", moved)
	}
	return nil
}

func runOrganize(args []string) error {
	fs := flag.NewFlagSet("organize", flag.ContinueOnError)
	root := fs.String("root", ".", "workspace root")
	rule := fs.String("rule", "", "inline destination template")
	rulesFile := fs.String("rules", "", "YAML rule-set file")
	dryRun := fs.Bool("dry-run", false, "report without moving or logging")
	db := fs.String("db", "", "database path override")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ws, err := openWorkspace(*root, "", "", *db)
	if err != nil {
		return err
	}
	defer ws.Engine.Close()

	rs, err := loadRuleSet(*rulesFile, *rule)
	if err != nil {
		return err
	}
	return applyOrganize(ws, rs, *dryRun)
}

func runRename(args []string) error {
	fs := flag.NewFlagSet("rename", flag.ContinueOnError)
	root := fs.String("root", ".", "workspace root")
	pattern := fs.String("pattern", "", "inline rename template")
	dryRun := fs.Bool("dry-run", false, "report without renaming or logging")
	db := fs.String("db", "", "database path override")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pattern == "" {
		return forgerr.Newf(forgerr.InvalidInput, "runRename", "--pattern is required")
	}

	ws, err := openWorkspace(*root, "", "", *db)
	if err != nil {
		return err
	}
	defer ws.Engine.Close()

	rs, err := rules.New([]model.Rule{{Name: "rename", Template: *pattern}})
	if err != nil {
		return err
	}

	files, err := ws.Engine.FileRepository().IterateAll()
	if err != nil {
		return err
	}
	log := oplog.New(ws.Engine.OperationRepository())
	renamed := 0
	for _, f := range files {
		if f.IsDir {
			continue
		}
		dest, err := rs.Apply(attrsFor(ws, f))
		if err != nil {
			return err
		}
		if dest == f.Path {
			continue
		}
		if !filepath.IsAbs(dest) {
			dest = filepath.Join(ws.Root, dest)
		}
		if *dryRun {
			fmt.Printf("would rename %s -> %s\n", f.Path, dest)
			continue
		}
		if _, err := log.Rename(f.Path, dest); err != nil {
			fmt.Printf("rename %s: %v\n", f.Path, err)
			continue
		}
		renamed++
	}
	if *dryRun {
		fmt.Println("dry run: no files renamed")
	} else {
		fmt.Printf("renamed %d files\n", renamed)
	}
	return nil
}
