// Package cliapp implements forg's command-line surface: command
// dispatch, flag parsing, and the glue between internal/engine and the
// terminal (spec.md §6).
package cliapp

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/forgcli/forg/internal/cli/commands"
	"github.com/forgcli/forg/internal/config"
	"github.com/forgcli/forg/internal/engine"
	"github.com/forgcli/forg/internal/forgerr"
	"github.com/forgcli/forg/internal/hash"
	"github.com/forgcli/forg/internal/logger"
	"github.com/forgcli/forg/internal/phash"
	"github.com/forgcli/forg/internal/registry"
)

// Exit codes per spec.md §6.
const (
	ExitOK             = 0
	ExitApplicationErr = 1
	ExitUnknownOption  = 2
	ExitUnhandled      = 3
)

var providers = bootstrap()

func bootstrap() *registry.Set {
	set := registry.NewSet()
	set.Scanner.Add("fs", func() (any, error) { return struct{}{}, nil })
	set.ContentHasher.Add(hash.Fast64Name, func() (any, error) { return hash.NewFast64(), nil })
	set.ContentHasher.Add(hash.SHA256Name, func() (any, error) { return hash.NewSHA256(), nil })
	for _, name := range []string{"ahash", "dhash", "phash"} {
		name := name
		set.PerceptualHasher.Add(name, func() (any, error) { return phash.New(name) })
	}
	set.Freeze()
	return set
}

// Run dispatches args to a registered command and returns the process
// exit code per spec.md §6.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return ExitApplicationErr
	}

	name := args[0]
	switch name {
	case "-h", "--help", "help":
		printUsage()
		return ExitOK
	case "-v", "--version", "version":
		fmt.Println(Version)
		return ExitOK
	}

	cmd, ok := commands.Get(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "forg: unknown command %q\nRun 'forg help' for usage.\n", name)
		return ExitUnknownOption
	}

	if err := cmd.Run(args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "forg: %v\n", err)
		return exitCodeFor(err)
	}
	return ExitOK
}

func exitCodeFor(err error) int {
	switch forgerr.KindOf(err) {
	case forgerr.NotFound, forgerr.InvalidInput, forgerr.IoError, forgerr.ProviderError, forgerr.Cancelled:
		return ExitApplicationErr
	default:
		return ExitUnhandled
	}
}

func printUsage() {
	fmt.Println(`forg - scan, fingerprint, dedup, and organize files

Usage: forg <command> [flags]

Commands:
  init               create a .forg workspace in the current directory
  scan               walk one or more roots and persist what's found
  duplicates         find and report duplicate files
  delete-duplicates  delete non-primary members of each duplicate group
  hash               print the content hash of a file
  similar            find images perceptually similar to a target
  organize           move files into place per a rule set
  rename             rename files per a single template
  export             write a JSON/CSV/HTML report
  undo               undo the most recent logged operation
  history            list logged operations
  metadata           (not implemented in this build)
  ocr                (not implemented in this build)
  classify           (not implemented in this build)
  version            print the forg version
  help               show this message

Run 'forg <command> -h' for command-specific flags.`)
}

// workspace resolves the effective root, config, and engine for a
// command, honoring an explicit --db/--scanner/--hasher override.
type workspace struct {
	Root   string
	Config *config.Config
	Engine *engine.Engine
	Skip   config.SkipGlobs
}

func openWorkspace(root, scannerOverride, hasherOverride, dbOverride string) (*workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, forgerr.New(forgerr.InvalidInput, "openWorkspace", err)
	}
	cfg, err := config.Load(abs)
	if err != nil {
		cfg = config.Default()
	}
	skip := config.LoadSkipGlobs(abs)
	if scannerOverride != "" {
		cfg.ScannerName = scannerOverride
	}
	if hasherOverride != "" {
		cfg.HasherName = hasherOverride
	}
	if dbOverride != "" {
		cfg.DBPath = dbOverride
	}

	if _, err := providers.Scanner.Create(cfg.ScannerName); err != nil {
		return nil, err
	}

	dbPath := cfg.DBPath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(abs, dbPath)
	}
	e, err := engine.New(engine.Config{HasherName: cfg.HasherName, DBPath: dbPath}, providers)
	if err != nil {
		return nil, err
	}
	return &workspace{Root: abs, Config: cfg, Engine: e, Skip: skip}, nil
}

// cancelOnSignal returns a context cancelled on SIGINT/SIGTERM and a
// cleanup func the caller should defer.
func cancelOnSignal() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		if _, ok := <-sigCh; ok {
			logger.Warn("forg: signal received, cancelling")
			cancel()
		}
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		close(sigCh)
		cancel()
	}
}
