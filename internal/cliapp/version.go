package cliapp

// Version is stamped at build time via -ldflags; "dev" otherwise.
var Version = "dev"
