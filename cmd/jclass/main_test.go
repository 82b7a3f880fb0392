package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/daimatz/jclass/pkg/classfile"
)

func helloClass() *classfile.JavaClass {
	jc := classfile.NewJavaClass("demo/Hello", "java/lang/Object", classfile.AccPublic|classfile.AccSuper)
	cp := jc.ConstantPool
	jc.Methods = []*classfile.Method{{FieldOrMethod: classfile.FieldOrMethod{
		AccessFlags:     classfile.AccPublic | classfile.AccStatic,
		NameIndex:       cp.AddUtf8("main"),
		DescriptorIndex: cp.AddUtf8("([Ljava/lang/String;)V"),
		Attributes: []classfile.Attribute{&classfile.Code{
			AttributeHeader: classfile.AttributeHeader{NameIndex: cp.AddUtf8("Code")},
			MaxLocals:       1,
			Bytecode:        []byte{0xb1},
		}},
	}}}
	return jc
}

func writeHello(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Hello.class")
	if err := helloClass().DumpFile(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDumpClass(t *testing.T) {
	var buf bytes.Buffer
	if err := dumpClass(&buf, helloClass(), true); err != nil {
		t.Fatalf("dumpClass: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"public class demo.Hello extends java.lang.Object",
		"public static void main(String[] arg0);",
		"0: return",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestRoundtrip(t *testing.T) {
	path := writeHello(t)
	if err := roundtrip(path, nil); err != nil {
		t.Fatalf("roundtrip: %v", err)
	}

	// 末尾にバイトを足すと差分が検出される
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data = append(data, 0)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	err = roundtrip(path, nil)
	if err == nil || !strings.Contains(err.Error(), "wrote") {
		t.Errorf("trailing byte: got %v", err)
	}
}

func TestEnvLoad(t *testing.T) {
	path := writeHello(t)
	dir := t.TempDir()
	cfg := filepath.Join(dir, "jclass.toml")
	body := "[classpath]\nentries = [\"" + filepath.ToSlash(filepath.Dir(path)) + "\"]\njmod = \"" + filepath.ToSlash(filepath.Join(dir, "none.jmod")) + "\"\n"
	if err := os.WriteFile(cfg, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	configPath, verbosity := cfg, -4
	e := &env{configPath: &configPath, verbosity: &verbosity}
	if err := e.setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer e.close()

	jc, err := e.load(path)
	if err != nil {
		t.Fatalf("load by path: %v", err)
	}
	if name, _ := jc.ClassName(); name != "demo/Hello" {
		t.Errorf("class name: got %q", name)
	}
	if e.format("") != "json" || e.format("cbor") != "cbor" {
		t.Errorf("format: got %q / %q", e.format(""), e.format("cbor"))
	}
}
