package callgraph

import (
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/daimatz/jclass/pkg/classfile"
)

func addMethod(jc *classfile.JavaClass, name, desc string, bytecode []byte) {
	cp := jc.ConstantPool
	m := &classfile.Method{FieldOrMethod: classfile.FieldOrMethod{
		AccessFlags:     classfile.AccPublic | classfile.AccStatic,
		NameIndex:       cp.AddUtf8(name),
		DescriptorIndex: cp.AddUtf8(desc),
	}}
	if bytecode != nil {
		m.Attributes = []classfile.Attribute{&classfile.Code{
			AttributeHeader: classfile.AttributeHeader{NameIndex: cp.AddUtf8("Code")},
			MaxStack:        2,
			Bytecode:        bytecode,
		}}
	}
	jc.Methods = append(jc.Methods, m)
}

func u2(i uint16) (byte, byte) { return byte(i >> 8), byte(i) }

func classes() []*classfile.JavaClass {
	a := classfile.NewJavaClass("pkg/A", "java/lang/Object", classfile.AccPublic)
	helper := a.ConstantPool.AddMethodref("pkg/B", "helper", "()V")
	printRef := a.ConstantPool.AddMethodref("java/io/PrintStream", "println", "()V")
	indy := a.ConstantPool.Add(&classfile.ConstantInvokeDynamic{})
	h1, h2 := u2(helper)
	p1, p2 := u2(printRef)
	i1, i2 := u2(indy)
	addMethod(a, "main", "([Ljava/lang/String;)V", []byte{
		0xb8, h1, h2, // invokestatic pkg/B.helper
		0x01,         // aconst_null
		0xb6, p1, p2, // invokevirtual println
		0x01,
		0xb6, p1, p2, // again
		0xba, i1, i2, 0, 0, // invokedynamic
		0xb1,
	})

	b := classfile.NewJavaClass("pkg/B", "java/lang/Object", classfile.AccPublic)
	run := b.ConstantPool.AddInterfaceMethodref("java/lang/Runnable", "run", "()V")
	r1, r2 := u2(run)
	addMethod(b, "helper", "()V", []byte{
		0x01,
		0xb9, r1, r2, 1, 0, // invokeinterface Runnable.run
		0xb1,
	})
	addMethod(b, "unused", "(I)J", nil)
	return []*classfile.JavaClass{a, b}
}

func uniq(s []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range s {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func TestBuild(t *testing.T) {
	g, err := Build(classes())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	wantNodes := []string{
		"pkg/A.main([Ljava/lang/String;)V",
		"pkg/B.helper()V",
		"pkg/B.unused(I)J",
	}
	for _, n := range wantNodes {
		found := false
		for _, got := range g.Nodes {
			if got == n {
				found = true
			}
		}
		if !found {
			t.Errorf("missing node %q in %v", n, g.Nodes)
		}
	}

	got := uniq(Callees(g, "pkg/A.main([Ljava/lang/String;)V"))
	sort.Strings(got)
	want := []string{"java/io/PrintStream.println()V", "pkg/B.helper()V"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("callees of main: got %v, want %v", got, want)
	}
	if got := Callees(g, "pkg/B.helper()V"); !reflect.DeepEqual(got, []string{"java/lang/Runnable.run()V"}) {
		t.Errorf("callees of helper: got %v", got)
	}
	if got := Callers(g, "pkg/B.helper()V"); !reflect.DeepEqual(got, []string{"pkg/A.main([Ljava/lang/String;)V"}) {
		t.Errorf("callers of helper: got %v", got)
	}
	if got := Callees(g, "pkg/B.unused(I)J"); len(got) != 0 {
		t.Errorf("abstract method has callees %v", got)
	}
}

func TestBuildBadReference(t *testing.T) {
	jc := classfile.NewJavaClass("pkg/C", "java/lang/Object", classfile.AccPublic)
	addMethod(jc, "m", "()V", []byte{0xb8, 0x00, 0x01, 0xb1}) // #1 is a Utf8
	_, err := Build([]*classfile.JavaClass{jc})
	if err == nil {
		t.Fatal("got nil error")
	}
	if !strings.Contains(err.Error(), "pkg/C.m()V") || !strings.Contains(err.Error(), "invokestatic") {
		t.Errorf("error %q lacks context", err)
	}
}

func TestDOT(t *testing.T) {
	g, err := Build(classes())
	if err != nil {
		t.Fatal(err)
	}
	dot := DOT(g, "jclass call graph")
	if dot == "" {
		t.Fatal("expected non-empty DOT output")
	}
	if !strings.Contains(dot, "digraph") {
		t.Errorf("not a digraph: %q", dot)
	}
}
