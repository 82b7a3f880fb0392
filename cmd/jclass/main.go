package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "dump":
		err = cmdDump(os.Args[2:])
	case "roundtrip":
		err = cmdRoundtrip(os.Args[2:])
	case "strip":
		err = cmdStrip(os.Args[2:])
	case "sizes":
		err = cmdSizes(os.Args[2:])
	case "callgraph":
		err = cmdCallgraph(os.Args[2:])
	case "index":
		err = cmdIndex(os.Args[2:])
	case "summary":
		err = cmdSummary(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `jclass - Java class file reader and writer

Usage:
  jclass dump      [-c] <class>...              Print declarations (and code with -c)
  jclass roundtrip <file.class>...              Parse and rewrite, checking the bytes match
  jclass strip     [-o <out>] [-attrs a,b] <file.class>
                                                Remove debug info or the named attributes
  jclass sizes     [-format json|cbor] <class>...
                                                Per-part byte counts
  jclass callgraph [-o <out.dot>] [-all] [<class>...]
                                                Method call graph in DOT
  jclass index     -db <path> [<class>...]      Write classes, methods and fields to SQLite
  jclass summary   [-format json|cbor] <class>...
                                                Class summary for tools

A <class> is either a path to a .class file or a class name looked up on
the configured classpath (java.lang.String or java/lang/String).

Common flags:
  -config <path>     Configuration file (default: nearest jclass.toml)
  -v <n>             Log verbosity, overriding the configuration
`)
}
