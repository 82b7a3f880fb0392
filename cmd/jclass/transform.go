package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/daimatz/jclass/pkg/report"
	"github.com/daimatz/jclass/pkg/transform"
)

func cmdStrip(args []string) error {
	fs := flag.NewFlagSet("strip", flag.ExitOnError)
	e := newEnv(fs)
	out := fs.String("o", "", "output file (default: overwrite the input)")
	attrs := fs.String("attrs", "", "comma-separated attribute names to remove instead of debug info")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("strip takes one class file")
	}
	if err := e.setup(); err != nil {
		return err
	}
	defer e.close()

	in := fs.Arg(0)
	jc, err := e.load(in)
	if err != nil {
		return err
	}
	var removed int
	if *attrs == "" {
		removed = transform.StripDebug(jc)
	} else if removed, err = transform.StripAttributes(jc, strings.Split(*attrs, ",")...); err != nil {
		return err
	}

	dest := *out
	if dest == "" {
		dest = in
	}
	if err := jc.DumpFile(dest); err != nil {
		return err
	}
	log.Infof("removed %d attributes, wrote %s", removed, dest)
	fmt.Fprintf(os.Stderr, "wrote %s (%d attributes removed)\n", dest, removed)
	return nil
}

func cmdSizes(args []string) error {
	fs := flag.NewFlagSet("sizes", flag.ExitOnError)
	e := newEnv(fs)
	format := fs.String("format", "", "output format: json or cbor (default: from configuration)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("no classes given")
	}
	if err := e.setup(); err != nil {
		return err
	}
	defer e.close()

	var reports []*transform.SizeReport
	for _, arg := range fs.Args() {
		jc, err := e.load(arg)
		if err != nil {
			return err
		}
		r, err := transform.Sizes(jc)
		if err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}
		reports = append(reports, r)
	}
	return report.Encode(os.Stdout, reports, e.format(*format))
}

func cmdSummary(args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	e := newEnv(fs)
	format := fs.String("format", "", "output format: json or cbor (default: from configuration)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("no classes given")
	}
	if err := e.setup(); err != nil {
		return err
	}
	defer e.close()

	var summaries []*report.ClassSummary
	for _, arg := range fs.Args() {
		jc, err := e.load(arg)
		if err != nil {
			return err
		}
		s, err := report.Summarize(jc)
		if err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}
		summaries = append(summaries, s)
	}
	return report.Encode(os.Stdout, summaries, e.format(*format))
}
