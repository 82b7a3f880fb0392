package classfile

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseMinimalClass(t *testing.T) {
	in := minimalClass(0x0021)
	jc, err := ParseBytes(in)
	if err != nil {
		t.Fatalf("failed to parse minimal class: %v", err)
	}

	if jc.MajorVersion != 52 {
		t.Errorf("major version: got %d, want 52", jc.MajorVersion)
	}
	className, err := jc.ClassName()
	if err != nil {
		t.Fatalf("resolving this_class: %v", err)
	}
	if className != "Min" {
		t.Errorf("this_class: got %q, want %q", className, "Min")
	}
	super, err := jc.SuperClassName()
	if err != nil {
		t.Fatalf("resolving super_class: %v", err)
	}
	if super != "java/lang/Object" {
		t.Errorf("super_class: got %q, want %q", super, "java/lang/Object")
	}

	out, err := jc.Bytes()
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !bytes.Equal(out, in) {
		t.Errorf("round trip mismatch:\n got %x\nwant %x", out, in)
	}
}

func TestRoundTripRichClass(t *testing.T) {
	in := richClass()
	jc, err := ParseBytes(in)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}

	var buf bytes.Buffer
	n, err := jc.Dump(&buf)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if n != int64(len(in)) {
		t.Errorf("bytes written: got %d, want %d", n, len(in))
	}
	if !bytes.Equal(buf.Bytes(), in) {
		t.Errorf("round trip mismatch:\n got %x\nwant %x", buf.Bytes(), in)
	}
}

func TestParseRichClassModel(t *testing.T) {
	jc, err := ParseBytes(richClass())
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	cp := jc.ConstantPool

	if got := jc.ConstantPool.Len(); got != rcCount {
		t.Errorf("constant pool slots: got %d, want %d", got, rcCount)
	}
	if src, err := jc.SourceFileName(); err != nil || src != "Rich.java" {
		t.Errorf("source file: got %q, %v", src, err)
	}

	// フィールドの宣言
	f := jc.FindField("MAX")
	if f == nil {
		t.Fatal("field MAX not found")
	}
	decl, err := f.Declaration(cp)
	if err != nil {
		t.Fatalf("field declaration: %v", err)
	}
	if want := "public static final int MAX = 42"; decl != want {
		t.Errorf("field declaration: got %q, want %q", decl, want)
	}

	run := jc.FindMethod("run", "(IJLjava/lang/String;)V")
	if run == nil {
		t.Fatal("run method not found")
	}
	code := run.Code()
	if code == nil {
		t.Fatal("run has no Code attribute")
	}
	if code.MaxStack != 2 || code.MaxLocals != 5 {
		t.Errorf("max_stack/max_locals: got %d/%d, want 2/5", code.MaxStack, code.MaxLocals)
	}
	if len(code.ExceptionTable) != 1 || code.ExceptionTable[0].CatchType != rcIOException {
		t.Errorf("exception table: got %+v", code.ExceptionTable)
	}
	sm, ok := code.Attribute(KindStackMap).(*StackMap)
	if !ok {
		t.Fatal("run Code has no StackMap")
	}
	if got := sm.Entries[0].Locals[0]; got != (StackMapType{Tag: ItemObject, Index: rcThis}) {
		t.Errorf("stack map local 0: got %+v", got)
	}
	if run.Exceptions() == nil {
		t.Error("run has no Exceptions attribute")
	}
	if _, ok := run.Attribute(KindDeprecated).(*Deprecated); !ok {
		t.Error("run is not marked Deprecated")
	}

	args, err := run.ArgumentTypes(cp)
	if err != nil {
		t.Fatalf("argument types: %v", err)
	}
	if len(args) != 3 || args[1].Base != BaseLong || args[2].Class != "java/lang/String" {
		t.Errorf("argument types: got %+v", args)
	}
	ret, err := run.ReturnType(cp)
	if err != nil || ret.Base != BaseVoid {
		t.Errorf("return type: got %+v, %v", ret, err)
	}

	decl, err = run.Declaration(cp)
	if err != nil {
		t.Fatalf("method declaration: %v", err)
	}
	if want := "public void run(int arg0, long arg1, String arg2) throws java.io.IOException"; decl != want {
		t.Errorf("method declaration: got %q, want %q", decl, want)
	}

	unknown, ok := jc.Attributes[1].(*Unknown)
	if !ok {
		t.Fatalf("class attribute 1: got %T, want *Unknown", jc.Attributes[1])
	}
	if unknown.Name != "Custom.Attr" || !bytes.Equal(unknown.Bytes, []byte{1, 2, 3, 4, 5}) {
		t.Errorf("unknown attribute: got %q %x", unknown.Name, unknown.Bytes)
	}

	s, err := cp.Utf8(rcMUTF8)
	if err != nil {
		t.Fatalf("utf8: %v", err)
	}
	if s != "café\x00" {
		t.Errorf("modified UTF-8 constant: got %q", s)
	}
}

func TestUnknownAttributePreserved(t *testing.T) {
	var b builder
	b.u4(0xCAFEBABE).u2(0).u2(50)
	b.u2(6)
	b.utf8("Min")
	b.u1(7).u2(1)
	b.utf8("java/lang/Object")
	b.u1(7).u2(3)
	b.utf8("org.example.Vendor")
	b.u2(0x0021).u2(2).u2(4)
	b.u2(0).u2(0).u2(0)
	b.u2(1)
	b.attr(5, []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00})
	in := b.bytes()

	jc, err := ParseBytes(in)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if len(jc.Attributes) != 1 {
		t.Fatalf("attributes: got %d, want 1", len(jc.Attributes))
	}
	u, ok := jc.Attributes[0].(*Unknown)
	if !ok {
		t.Fatalf("attribute: got %T, want *Unknown", jc.Attributes[0])
	}
	if u.Name != "org.example.Vendor" || u.Length() != 5 {
		t.Errorf("unknown attribute: got name %q length %d", u.Name, u.Length())
	}

	out, err := jc.Bytes()
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !bytes.Equal(out, in) {
		t.Errorf("round trip mismatch:\n got %x\nwant %x", out, in)
	}
}

func TestInterfaceImpliesAbstract(t *testing.T) {
	jc, err := ParseBytes(minimalClass(uint16(AccPublic | AccInterface)))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if !jc.AccessFlags.IsAbstract() {
		t.Errorf("access flags %#04x: ACC_ABSTRACT not set on interface", uint16(jc.AccessFlags))
	}
}

func TestAbstractFinalRejected(t *testing.T) {
	_, err := ParseBytes(minimalClass(uint16(AccPublic | AccAbstract | AccFinal)))
	if !errors.Is(err, ErrClassFormat) {
		t.Fatalf("got %v, want a class format error", err)
	}

	// interface + final も abstract を補ったうえで拒否される
	_, err = ParseBytes(minimalClass(uint16(AccInterface | AccFinal)))
	if !errors.Is(err, ErrClassFormat) {
		t.Fatalf("interface final: got %v, want a class format error", err)
	}
}

func TestParseErrors(t *testing.T) {
	valid := minimalClass(0x0021)

	badMagic := append([]byte(nil), valid...)
	badMagic[0] = 0xCA
	badMagic[3] = 0xFE

	badTag := append([]byte(nil), valid...)
	// the tag of constant #1 follows magic, versions and the pool count
	badTag[10] = 2

	tests := []struct {
		name   string
		in     []byte
		format bool
		want   string
	}{
		{"bad magic", badMagic, true, "invalid magic number"},
		{"bad tag", badTag, true, "invalid constant pool tag"},
		{"empty", nil, false, "reading magic number"},
		{"truncated pool", valid[:14], false, "constant pool"},
		{"truncated attributes", valid[:len(valid)-2], false, "attributes count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jc, err := ParseBytes(tt.in)
			if err == nil {
				t.Fatalf("parsed %v, want error", jc)
			}
			if jc != nil {
				t.Errorf("got partial class on error")
			}
			if got := errors.Is(err, ErrClassFormat); got != tt.format {
				t.Errorf("errors.Is(ErrClassFormat) = %v, want %v (%v)", got, tt.format, err)
			}
			if !tt.format && !errors.Is(err, io.ErrUnexpectedEOF) {
				t.Errorf("got %v, want wrapped io.ErrUnexpectedEOF", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

// classWithAttribute builds Min with one class attribute named name.
func classWithAttribute(name string, info []byte) []byte {
	var b builder
	b.u4(0xCAFEBABE).u2(0).u2(52)
	b.u2(7)
	b.utf8("Min")
	b.u1(7).u2(1)
	b.utf8("java/lang/Object")
	b.u1(7).u2(3)
	b.utf8(name)
	b.utf8("Min.java")
	b.u2(0x0021).u2(2).u2(4)
	b.u2(0).u2(0).u2(0)
	b.u2(1)
	b.attr(5, info)
	return b.bytes()
}

func TestAttributeLengthMismatch(t *testing.T) {
	// SourceFile consumes 2 bytes; declaring 3 must be rejected
	in := classWithAttribute("SourceFile", []byte{0, 6, 0})
	_, err := ParseBytes(in)
	if !errors.Is(err, ErrClassFormat) {
		t.Fatalf("got %v, want a class format error", err)
	}
	if !strings.Contains(err.Error(), "consumed 2 of 3 bytes") {
		t.Errorf("error %q does not report the byte counts", err)
	}

	in = classWithAttribute("SourceFile", []byte{0})
	_, err = ParseBytes(in)
	if !errors.Is(err, ErrClassFormat) || !strings.Contains(err.Error(), "truncated") {
		t.Fatalf("short payload: got %v, want truncated format error", err)
	}
}

type shortAttribute struct {
	AttributeHeader
}

func (a *shortAttribute) Kind() AttributeKind { return KindUnknown }
func (a *shortAttribute) Length() uint32      { return 4 }
func (a *shortAttribute) Accept(v Visitor)    { v.VisitCustomAttribute(a) }
func (a *shortAttribute) Copy() Attribute     { c := *a; return &c }
func (a *shortAttribute) WriteInfo(w *Writer) { w.U2(0) }

func TestDumpFailureWritesNothing(t *testing.T) {
	jc := NewJavaClass("pkg/Big", "java/lang/Object", AccPublic)
	cp := jc.ConstantPool
	cp.AddUtf8(strings.Repeat("x", 8192))
	jc.Attributes = []Attribute{&shortAttribute{AttributeHeader{NameIndex: cp.AddUtf8("Vendor.Short")}}}

	var buf bytes.Buffer
	n, err := jc.Dump(&buf)
	if !errors.Is(err, ErrClassFormat) {
		t.Fatalf("got %v, want a class format error", err)
	}
	if n != 0 || buf.Len() != 0 {
		t.Errorf("failed dump wrote %d bytes (reported %d)", buf.Len(), n)
	}
}

type vendorAttribute struct {
	AttributeHeader
	Value uint16
}

func (a *vendorAttribute) Kind() AttributeKind { return KindUnknown }
func (a *vendorAttribute) Length() uint32      { return 2 }
func (a *vendorAttribute) Accept(v Visitor)    { v.VisitCustomAttribute(a) }
func (a *vendorAttribute) Copy() Attribute     { c := *a; return &c }
func (a *vendorAttribute) WriteInfo(w *Writer) { w.U2(a.Value) }

func TestCustomAttributeReader(t *testing.T) {
	in := classWithAttribute("Vendor", []byte{0x12, 0x34})
	read := func(h AttributeHeader, length uint32, r *Reader, cp *ConstantPool) (Attribute, error) {
		v, err := r.U2()
		if err != nil {
			return nil, err
		}
		return &vendorAttribute{AttributeHeader: h, Value: v}, nil
	}

	jc, err := ParseBytes(in, WithAttributeReader("Vendor", read))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	va, ok := jc.Attributes[0].(*vendorAttribute)
	if !ok {
		t.Fatalf("attribute: got %T, want *vendorAttribute", jc.Attributes[0])
	}
	if va.Value != 0x1234 {
		t.Errorf("value: got %#x, want 0x1234", va.Value)
	}
	out, err := jc.Bytes()
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !bytes.Equal(out, in) {
		t.Errorf("round trip mismatch:\n got %x\nwant %x", out, in)
	}

	// without the option the same bytes parse as Unknown
	jc, err = ParseBytes(in)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if _, ok := jc.Attributes[0].(*Unknown); !ok {
		t.Errorf("attribute: got %T, want *Unknown", jc.Attributes[0])
	}
}

// classWithTwoCodes builds Min with one method carrying two Code
// attributes.
func classWithTwoCodes() []byte {
	var b builder
	b.u4(0xCAFEBABE).u2(0).u2(52)
	b.u2(8)
	b.utf8("Min")
	b.u1(7).u2(1)
	b.utf8("java/lang/Object")
	b.u1(7).u2(3)
	b.utf8("Code")
	b.utf8("m")
	b.utf8("()V")
	b.u2(0x0021).u2(2).u2(4)
	b.u2(0).u2(0)
	b.u2(1)
	b.u2(0x0009).u2(6).u2(7).u2(2)
	for _, op := range []byte{0xB1, 0x00} {
		b.attr(5, payload(func(p *builder) {
			p.u2(0).u2(0).u4(1).u1(op).u2(0).u2(0)
		}))
	}
	b.u2(0)
	return b.bytes()
}

func TestDuplicateCodeAttribute(t *testing.T) {
	in := classWithTwoCodes()

	_, err := ParseBytes(in)
	if !errors.Is(err, ErrClassFormat) {
		t.Fatalf("got %v, want a class format error", err)
	}

	jc, err := ParseBytes(in, WithDuplicateAttributes(true))
	if err != nil {
		t.Fatalf("failed to parse with duplicates allowed: %v", err)
	}
	code := jc.Methods[0].Code()
	if code == nil || code.Bytecode[0] != 0xB1 {
		t.Errorf("Code(): got %+v, want the first Code attribute", code)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Rich.class")
	if err := os.WriteFile(path, richClass(), 0o644); err != nil {
		t.Fatal(err)
	}
	jc, err := ParseFile(path)
	if err != nil {
		t.Fatalf("failed to parse %s: %v", path, err)
	}
	out := filepath.Join(t.TempDir(), "Out.class")
	if err := jc.DumpFile(out); err != nil {
		t.Fatalf("DumpFile: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, richClass()) {
		t.Error("DumpFile output differs from input")
	}
}
