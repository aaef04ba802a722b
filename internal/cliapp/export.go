package cliapp

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"html"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/forgcli/forg/internal/cli/commands"
	"github.com/forgcli/forg/internal/forgerr"
	"github.com/forgcli/forg/internal/model"
	"github.com/forgcli/forg/internal/validate"
)

func init() {
	commands.Register(&commands.Command{
		Name:        "export",
		Description: "Write a JSON/CSV/HTML summary of the workspace",
		Run:         runExport,
	})
}

func buildExportDocument(ws *workspace) (model.ExportDocument, error) {
	files, err := ws.Engine.FileRepository().IterateAll()
	if err != nil {
		return model.ExportDocument{}, err
	}
	groups, err := ws.Engine.DuplicateRepository().GetAllGroups()
	if err != nil {
		return model.ExportDocument{}, err
	}
	byID := make(map[int64]model.FileInfo, len(files))

	doc := model.ExportDocument{}
	for _, f := range files {
		byID[f.ID] = f
		if f.IsDir {
			doc.Stats.TotalDirectories++
			continue
		}
		doc.Stats.TotalFiles++
		doc.Stats.TotalSize += f.Size
		doc.Files = append(doc.Files, model.ExportFile{
			ID: f.ID, Path: f.Path, Size: f.Size,
			MTime: f.MTime.UTC().Format(time.RFC3339), IsDir: f.IsDir,
		})
	}

	for _, g := range groups {
		doc.Stats.DuplicateGroups++
		members := make([]string, 0, len(g.MemberIDs))
		for _, id := range g.MemberIDs {
			if fi, ok := byID[id]; ok {
				members = append(members, fi.Path)
			}
		}
		doc.Stats.DuplicateFiles += len(members)
		doc.Stats.DuplicateSize += g.Size * uint64(len(members))
		primary := ""
		if fi, ok := byID[g.PrimaryFileID]; ok {
			primary = fi.Path
		}
		doc.Duplicates = append(doc.Duplicates, model.ExportGroup{
			GroupID: g.GroupID, ContentHash: g.ContentHash, Size: g.Size,
			Members: members, PrimaryPath: primary,
		})
	}

	doc.Stats.TotalSizeHuman = humanize.Bytes(doc.Stats.TotalSize)
	doc.Stats.DuplicateSizeHuman = humanize.Bytes(doc.Stats.DuplicateSize)
	return doc, nil
}

func writeJSONExport(path string, doc model.ExportDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return forgerr.New(forgerr.IoError, "writeJSONExport", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return forgerr.New(forgerr.IoError, "writeJSONExport", err)
	}
	return validate.JSON(path, "export")
}

func writeCSVExport(path string, doc model.ExportDocument) error {
	f, err := os.Create(path)
	if err != nil {
		return forgerr.New(forgerr.IoError, "writeCSVExport", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"path", "size", "mtime", "isDir"}); err != nil {
		return forgerr.New(forgerr.IoError, "writeCSVExport", err)
	}
	for _, ef := range doc.Files {
		if err := w.Write([]string{ef.Path, fmt.Sprintf("%d", ef.Size), ef.MTime, fmt.Sprintf("%t", ef.IsDir)}); err != nil {
			return forgerr.New(forgerr.IoError, "writeCSVExport", err)
		}
	}
	w.Flush()
	return w.Error()
}

func writeHTMLExport(path string, doc model.ExportDocument) error {
	f, err := os.Create(path)
	if err != nil {
		return forgerr.New(forgerr.IoError, "writeHTMLExport", err)
	}
	defer f.Close()

	fmt.Fprintf(f, "<!doctype html><html><head><meta charset=\"utf-8\"><title>forg export</title></head><body>\n")
	fmt.Fprintf(f, "<h1>forg export</h1>\n<p>%d files, %s total, %d duplicate groups (%s)</p>\n",
		doc.Stats.TotalFiles, doc.Stats.TotalSizeHuman, doc.Stats.DuplicateGroups, doc.Stats.DuplicateSizeHuman)
	fmt.Fprintf(f, "<h2>Files</h2>\n<table border=\"1\"><tr><th>path</th><th>size</th><th>mtime</th></tr>\n")
	for _, ef := range doc.Files {
		fmt.Fprintf(f, "<tr><td>%s</td><td>%d</td><td>%s</td></tr>\n", html.EscapeString(ef.Path), ef.Size, ef.MTime)
	}
	fmt.Fprintf(f, "</table>\n<h2>Duplicate groups</h2>\n<table border=\"1\"><tr><th>hash</th><th>size</th><th>primary</th><th>members</th></tr>\n")
	for _, g := range doc.Duplicates {
		fmt.Fprintf(f, "<tr><td>%s</td><td>%d</td><td>%s</td><td>%d</td></tr>\n",
			html.EscapeString(g.ContentHash), g.Size, html.EscapeString(g.PrimaryPath), len(g.Members))
	}
	fmt.Fprintf(f, "</table>\n</body></html>\n")
	return nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	root := fs.String("root", ".", "workspace root")
	format := fs.String("format", "json", "output format: json, csv, html")
	output := fs.String("output", "", "output file path (required)")
	db := fs.String("db", "", "database path override")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *output == "" {
		return forgerr.Newf(forgerr.InvalidInput, "runExport", "--output is required")
	}

	ws, err := openWorkspace(*root, "", "", *db)
	if err != nil {
		return err
	}
	defer ws.Engine.Close()

	doc, err := buildExportDocument(ws)
	if err != nil {
		return err
	}

	switch *format {
	case "json":
		err = writeJSONExport(*output, doc)
	case "csv":
		err = writeCSVExport(*output, doc)
	case "html":
		err = writeHTMLExport(*output, doc)
	default:
		err = forgerr.Newf(forgerr.InvalidInput, "runExport", "unknown format %q", *format)
	}
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s export to %s\n", *format, *output)
	return nil
}
