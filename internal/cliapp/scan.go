package cliapp

import (
	"flag"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/forgcli/forg/internal/cli/commands"
	"github.com/forgcli/forg/internal/cli/flags"
	"github.com/forgcli/forg/internal/logger"
)

func init() {
	commands.Register(&commands.Command{
		Name:        "scan",
		Description: "Walk one or more roots and persist what's found",
		Run:         runScan,
	})
}

func runScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	root := flags.AddRootFlag(fs)
	verbose := flags.AddVerboseFlag(fs)
	scanner := fs.String("scanner", "", "named scanner provider")
	hasher := fs.String("hasher", "", "named content hasher provider")
	db := fs.String("db", "", "database path override")
	ext := fs.String("ext", "", "comma-separated extension allow-list (e.g. .jpg,.png)")
	followSymlinks := fs.Bool("follow-symlinks", false, "traverse into symlinked directories")
	prune := fs.Bool("prune", false, "delete repository rows for paths no longer on disk")
	incremental := fs.Bool("incremental", false, "alias for --prune")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *verbose {
		logger.SetLevel(logger.LevelInfo)
	}

	ws, err := openWorkspace(*root, *scanner, *hasher, *db)
	if err != nil {
		return err
	}
	defer ws.Engine.Close()

	var exts []string
	if *ext != "" {
		for _, e := range strings.Split(*ext, ",") {
			exts = append(exts, strings.TrimSpace(e))
		}
	} else if len(ws.Config.Extensions) > 0 {
		exts = ws.Config.Extensions
	}

	ctx, cleanup := cancelOnSignal()
	defer cleanup()

	roots := fs.Args()
	if len(roots) == 0 {
		roots = []string{ws.Root}
	}

	res, err := ws.Engine.Scan(ctx, roots, exts, *followSymlinks || ws.Config.FollowSymlinks, *prune || *incremental, ws.Skip)
	if err != nil {
		return err
	}

	var total uint64
	for _, f := range res.Files {
		total += f.Size
	}
	if res.Cancelled {
		fmt.Printf("scan cancelled: %d files seen, %s\n", len(res.Files), humanize.Bytes(total))
	} else {
		fmt.Printf("scanned %d files, %s\n", len(res.Files), humanize.Bytes(total))
	}
	return nil
}
