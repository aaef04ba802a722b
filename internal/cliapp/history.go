package cliapp

import (
	"errors"
	"flag"
	"fmt"

	"github.com/forgcli/forg/internal/cli/commands"
	"github.com/forgcli/forg/internal/store"
)

func init() {
	commands.Register(&commands.Command{
		Name:        "undo",
		Description: "Reverse the most recent operation-log entry",
		Run:         runUndo,
	})
	commands.Register(&commands.Command{
		Name:        "history",
		Description: "List operation-log entries, newest first",
		Run:         runHistory,
	})
}

func runUndo(args []string) error {
	fs := flag.NewFlagSet("undo", flag.ContinueOnError)
	root := fs.String("root", ".", "workspace root")
	db := fs.String("db", "", "database path override")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ws, err := openWorkspace(*root, "", "", *db)
	if err != nil {
		return err
	}
	defer ws.Engine.Close()

	rec, unrecoverable, err := ws.Engine.OperationRepository().UndoLast()
	if errors.Is(err, store.ErrNoOperations) {
		fmt.Println("no undoable operations")
		return nil
	}
	if err != nil {
		return err
	}
	if unrecoverable {
		fmt.Printf("marked operation %d undone (unrecoverable: %s)\n", rec.ID, rec.Type)
		return nil
	}
	fmt.Printf("undid %s: %s -> %s\n", rec.Type, rec.DestPath, rec.SourcePath)
	return nil
}

func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	root := fs.String("root", ".", "workspace root")
	limit := fs.Int("limit", 0, "maximum entries to show (0 = all)")
	db := fs.String("db", "", "database path override")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ws, err := openWorkspace(*root, "", "", *db)
	if err != nil {
		return err
	}
	defer ws.Engine.Close()

	records, err := ws.Engine.OperationRepository().GetAll(*limit)
	if err != nil {
		return err
	}
	for _, r := range records {
		status := ""
		if r.Undone {
			status = " (undone)"
		}
		if r.DestPath != "" {
			fmt.Printf("%s  %s  %s -> %s%s\n", r.Timestamp.Format("2006-01-02T15:04:05"), r.Type, r.SourcePath, r.DestPath, status)
		} else {
			fmt.Printf("%s  %s  %s%s\n", r.Timestamp.Format("2006-01-02T15:04:05"), r.Type, r.SourcePath, status)
		}
	}
	return nil
}
