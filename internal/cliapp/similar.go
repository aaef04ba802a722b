package cliapp

import (
	"flag"
	"fmt"

	"github.com/forgcli/forg/internal/cli/commands"
	"github.com/forgcli/forg/internal/forgerr"
	"github.com/forgcli/forg/internal/phash"
)

func init() {
	commands.Register(&commands.Command{
		Name:        "similar",
		Description: "Find images perceptually similar to a target",
		Run:         runSimilar,
	})
}

func runSimilar(args []string) error {
	fs := flag.NewFlagSet("similar", flag.ContinueOnError)
	root := fs.String("root", ".", "workspace root")
	algo := fs.String("phash", "ahash", "perceptual hash algorithm: ahash, dhash, phash")
	threshold := fs.Int("threshold", 4, "maximum Hamming distance to report")
	db := fs.String("db", "", "database path override")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return forgerr.Newf(forgerr.InvalidInput, "runSimilar", "usage: forg similar [--phash=ALGO] [--threshold=N] <path>")
	}
	target := fs.Arg(0)

	hasher, err := phash.New(*algo)
	if err != nil {
		return err
	}
	targetResult, ok, err := hasher.Compute(target)
	if err != nil {
		return err
	}
	if !ok {
		return forgerr.Newf(forgerr.InvalidInput, "runSimilar", "%s is not a decodable image", target)
	}

	ws, err := openWorkspace(*root, "", "", *db)
	if err != nil {
		return err
	}
	defer ws.Engine.Close()

	files, err := ws.Engine.FileRepository().IterateAll()
	if err != nil {
		return err
	}
	repo := ws.Engine.FileRepository()
	for _, f := range files {
		if f.IsDir || f.Path == target {
			continue
		}
		if _, ok, _ := repo.GetPerceptualHash(f.ID, *algo); ok {
			continue
		}
		res, ok, err := hasher.Compute(f.Path)
		if err != nil || !ok {
			continue
		}
		_ = repo.AddPerceptualHash(f.ID, *algo, res.Value)
	}

	matches, err := repo.FindSimilarImages(*algo, targetResult.Value, *threshold)
	if err != nil {
		return err
	}
	byID := make(map[int64]string, len(files))
	for _, f := range files {
		byID[f.ID] = f.Path
	}
	for _, id := range matches {
		if path, ok := byID[id]; ok && path != target {
			fmt.Println(path)
		}
	}
	return nil
}
