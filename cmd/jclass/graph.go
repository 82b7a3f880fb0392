package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/daimatz/jclass/pkg/callgraph"
	"github.com/daimatz/jclass/pkg/classfile"
	"github.com/daimatz/jclass/pkg/index"
)

func cmdCallgraph(args []string) error {
	fs := flag.NewFlagSet("callgraph", flag.ExitOnError)
	e := newEnv(fs)
	out := fs.String("o", "", "output DOT file (default: stdout)")
	title := fs.String("title", "callgraph", "graph title")
	all := fs.Bool("all", false, "include every class on the classpath")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := e.setup(); err != nil {
		return err
	}
	defer e.close()

	names := fs.Args()
	if *all {
		repo, err := e.repository()
		if err != nil {
			return err
		}
		if names, err = repo.ClassNames(); err != nil {
			return err
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("no classes given")
	}

	classes := make([]*classfile.JavaClass, 0, len(names))
	for _, name := range names {
		jc, err := e.load(name)
		if err != nil {
			return err
		}
		classes = append(classes, jc)
	}
	g, err := callgraph.Build(classes)
	if err != nil {
		return err
	}
	dot := callgraph.DOT(g, *title)

	if *out == "" {
		fmt.Print(dot)
		return nil
	}
	if err := os.WriteFile(*out, []byte(dot), 0644); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d nodes, %d edges)\n", *out, len(g.Nodes), len(g.Edges))
	return nil
}

func cmdIndex(args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	e := newEnv(fs)
	dbPath := fs.String("db", "", "SQLite database to write")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbPath == "" {
		return fmt.Errorf("--db is required")
	}
	if err := e.setup(); err != nil {
		return err
	}
	defer e.close()

	repo, err := e.repository()
	if err != nil {
		return err
	}
	ix, err := index.Open(*dbPath)
	if err != nil {
		return err
	}
	defer ix.Close()

	var names []string
	if fs.NArg() > 0 {
		names = fs.Args()
	}
	n, err := index.Build(context.Background(), ix, repo, names)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d classes)\n", *dbPath, n)
	return nil
}
