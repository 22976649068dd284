package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tsworkspace/wsmanager/internal/server"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("wsmanager", flag.ContinueOnError)
	root := fs.String("workspace-root", mustGetwd(), "workspace root directory")
	debug := fs.Bool("debug", os.Getenv("DEBUG") == "1", "enable debug logging (or set DEBUG=1)")

	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if *debug {
		os.Setenv("DEBUG", "1")
	}

	s := server.New(&server.Options{
		In:  os.Stdin,
		Out: os.Stdout,
		Err: os.Stderr,
		Cwd: *root,
	})

	if err := s.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	return 0
}

func mustGetwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return cwd
}
