package cliapp

import (
	"flag"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/forgcli/forg/internal/cli/commands"
	"github.com/forgcli/forg/internal/cli/flags"
	"github.com/forgcli/forg/internal/dedup"
	"github.com/forgcli/forg/internal/forgerr"
	"github.com/forgcli/forg/internal/model"
	"github.com/forgcli/forg/internal/oplog"
)

func init() {
	commands.Register(&commands.Command{
		Name:        "duplicates",
		Description: "Find and report duplicate files",
		Run:         runDuplicates,
	})
	commands.Register(&commands.Command{
		Name:        "delete-duplicates",
		Description: "Delete non-primary members of each duplicate group",
		Run:         runDeleteDuplicates,
	})
}

func keepStrategyFlag(fs *flag.FlagSet) *string {
	return fs.String("keep", "oldest", "which member to keep: oldest, newest, shortest, longest")
}

func parseKeepStrategy(v string) (model.KeepStrategy, error) {
	switch v {
	case "oldest":
		return model.KeepOldest, nil
	case "newest":
		return model.KeepNewest, nil
	case "shortest":
		return model.KeepShortest, nil
	case "longest":
		return model.KeepLongest, nil
	default:
		return "", forgerr.Newf(forgerr.InvalidInput, "parseKeepStrategy", "unknown keep strategy %q", v)
	}
}

func findDuplicates(ws *workspace, keep string, includeZeroLength bool) ([]model.DuplicateGroup, error) {
	strategy, err := parseKeepStrategy(keep)
	if err != nil {
		return nil, err
	}
	files, err := ws.Engine.FileRepository().IterateAll()
	if err != nil {
		return nil, err
	}
	ctx, cleanup := cancelOnSignal()
	defer cleanup()
	groups, _, err := ws.Engine.FindDuplicates(ctx, files, dedup.Options{IncludeZeroLength: includeZeroLength, Keep: strategy})
	return groups, err
}

func runDuplicates(args []string) error {
	fs := flag.NewFlagSet("duplicates", flag.ContinueOnError)
	root := flags.AddRootFlag(fs)
	keep := keepStrategyFlag(fs)
	includeZero := fs.Bool("include-zero-length", true, "include zero-byte files in duplicate grouping")
	db := fs.String("db", "", "database path override")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ws, err := openWorkspace(*root, "", "", *db)
	if err != nil {
		return err
	}
	defer ws.Engine.Close()

	groups, err := findDuplicates(ws, *keep, *includeZero)
	if err != nil {
		return err
	}

	var dupSize uint64
	var dupFiles int
	for _, g := range groups {
		fmt.Printf("group %s (%s): %d members\n", g.ContentHash, humanize.Bytes(g.Size), len(g.MemberIDs))
		dupSize += g.Size * uint64(len(g.MemberIDs)-1)
		dupFiles += len(g.MemberIDs) - 1
	}
	fmt.Printf("%d groups, %d removable files, %s reclaimable\n", len(groups), dupFiles, humanize.Bytes(dupSize))
	return nil
}

func runDeleteDuplicates(args []string) error {
	fs := flag.NewFlagSet("delete-duplicates", flag.ContinueOnError)
	root := flags.AddRootFlag(fs)
	keep := keepStrategyFlag(fs)
	includeZero := fs.Bool("include-zero-length", true, "include zero-byte files in duplicate grouping")
	dryRun := fs.Bool("dry-run", false, "report without deleting or logging")
	db := fs.String("db", "", "database path override")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ws, err := openWorkspace(*root, "", "", *db)
	if err != nil {
		return err
	}
	defer ws.Engine.Close()

	groups, err := findDuplicates(ws, *keep, *includeZero)
	if err != nil {
		return err
	}

	files, err := ws.Engine.FileRepository().IterateAll()
	if err != nil {
		return err
	}
	byID := make(map[int64]model.FileInfo, len(files))
	for _, f := range files {
		byID[f.ID] = f
	}

	log := oplog.New(ws.Engine.OperationRepository())
	deleted := 0
	for _, g := range groups {
		for _, id := range g.MemberIDs {
			if id == g.PrimaryFileID {
				continue
			}
			f, ok := byID[id]
			if !ok {
				continue
			}
			if *dryRun {
				fmt.Printf("would delete %s\n", f.Path)
				continue
			}
			if _, err := log.Delete(f.Path); err != nil {
				fmt.Printf("delete %s: %v\n", f.Path, err)
				continue
			}
			deleted++
		}
	}
	if *dryRun {
		fmt.Println("dry run: no files deleted")
	} else {
		fmt.Printf("deleted %d files\n", deleted)
	}
	return nil
}
