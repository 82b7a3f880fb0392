package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/daimatz/jclass/pkg/classfile"
)

func cmdDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	e := newEnv(fs)
	code := fs.Bool("c", false, "print bytecode listings")
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

	for _, arg := range fs.Args() {
		jc, err := e.load(arg)
		if err != nil {
			return err
		}
		if err := dumpClass(os.Stdout, jc, *code); err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}
	}
	return nil
}

func dumpClass(w io.Writer, jc *classfile.JavaClass, withCode bool) error {
	cp := jc.ConstantPool
	fmt.Fprint(w, jc.String())
	if file, err := jc.SourceFileName(); err == nil && file != "" {
		fmt.Fprintf(w, "source file %s\n", file)
	}

	for _, f := range jc.Fields {
		decl, err := f.Declaration(cp)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s;\n", decl)
	}
	for _, m := range jc.Methods {
		decl, err := m.Declaration(cp)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s;\n", decl)
		if !withCode {
			continue
		}
		code := m.Code()
		if code == nil {
			continue
		}
		listing, err := code.ToString(cp)
		if err != nil {
			return err
		}
		for _, line := range strings.Split(strings.TrimRight(listing, "\n"), "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	return nil
}

func cmdRoundtrip(args []string) error {
	fs := flag.NewFlagSet("roundtrip", flag.ExitOnError)
	e := newEnv(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("no class files given")
	}
	if err := e.setup(); err != nil {
		return err
	}

	failed := 0
	for _, path := range fs.Args() {
		if err := roundtrip(path, e.parseOptions()); err != nil {
			log.Errorf("%s: %v", path, err)
			failed++
			continue
		}
		fmt.Printf("%s: ok\n", path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d classes did not round-trip", failed, fs.NArg())
	}
	return nil
}

// roundtrip parses path and checks that dumping it reproduces the file.
func roundtrip(path string, opts []classfile.Option) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	jc, err := classfile.ParseBytes(data, opts...)
	if err != nil {
		return err
	}
	out, err := jc.Bytes()
	if err != nil {
		return err
	}
	if bytes.Equal(data, out) {
		return nil
	}
	n := min(len(data), len(out))
	for i := 0; i < n; i++ {
		if data[i] != out[i] {
			return fmt.Errorf("first difference at byte %d: read 0x%02x, wrote 0x%02x", i, data[i], out[i])
		}
	}
	return fmt.Errorf("read %d bytes, wrote %d", len(data), len(out))
}
