package classfile

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseMethodDescriptor(t *testing.T) {
	tests := []struct {
		desc  string
		str   string
		slots int
	}{
		{"()V", "void ()", 0},
		{"(I)I", "int (int)", 1},
		{"(IJLjava/lang/String;)V", "void (int, long, java.lang.String)", 4},
		{"([[D[Ljava/lang/Object;)[Z", "boolean[] (double[][], java.lang.Object[])", 2},
		{"(BCFSZ)Ljava/util/List;", "java.util.List (byte, char, float, short, boolean)", 5},
	}
	for _, tt := range tests {
		m, err := ParseMethodDescriptor(tt.desc)
		if err != nil {
			t.Errorf("%s: %v", tt.desc, err)
			continue
		}
		if got := m.String(); got != tt.str {
			t.Errorf("%s: String() = %q, want %q", tt.desc, got, tt.str)
		}
		if got := m.ArgumentSlots(); got != tt.slots {
			t.Errorf("%s: ArgumentSlots() = %d, want %d", tt.desc, got, tt.slots)
		}
		if got := m.Descriptor(); got != tt.desc {
			t.Errorf("%s: Descriptor() = %q", tt.desc, got)
		}
	}
}

func TestParseDescriptorErrors(t *testing.T) {
	tests := []struct {
		desc   string
		offset int
		reason string
	}{
		{"", 0, "must start with '('"},
		{"(I", 2, "missing ')'"},
		{"(V)V", 1, "void"},
		{"(Ljava/lang/String)V", 1, "terminating ';'"},
		{"(L;)V", 1, "empty class name"},
		{"(Q)V", 1, "invalid type character 'Q'"},
		{"()[V", 3, "void"},
		{"()VV", 3, "trailing"},
		{"(" + strings.Repeat("[", 256) + "I)V", 1, "255 dimensions"},
	}
	for _, tt := range tests {
		_, err := ParseMethodDescriptor(tt.desc)
		var de *DescriptorError
		if !errors.As(err, &de) {
			t.Errorf("%q: got %v, want *DescriptorError", tt.desc, err)
			continue
		}
		if !errors.Is(err, ErrClassFormat) {
			t.Errorf("%q: DescriptorError does not match ErrClassFormat", tt.desc)
		}
		if de.Offset != tt.offset {
			t.Errorf("%q: offset %d, want %d", tt.desc, de.Offset, tt.offset)
		}
		if !strings.Contains(de.Reason, tt.reason) {
			t.Errorf("%q: reason %q does not contain %q", tt.desc, de.Reason, tt.reason)
		}
	}
}

func TestParseFieldType(t *testing.T) {
	typ, n, err := ParseFieldType("[Ljava/lang/String;I")
	if err != nil {
		t.Fatal(err)
	}
	if n != 19 {
		t.Errorf("consumed %d characters, want 19", n)
	}
	want := Type{Dims: 1, Base: BaseObject, Class: "java/lang/String"}
	if typ != want {
		t.Errorf("got %+v, want %+v", typ, want)
	}
	if typ.String() != "java.lang.String[]" || !typ.IsArray() || typ.IsPrimitive() {
		t.Errorf("String/IsArray/IsPrimitive: %q %v %v", typ.String(), typ.IsArray(), typ.IsPrimitive())
	}
	if elem := typ.ElementType(); elem.Dims != 0 || elem.Class != "java/lang/String" {
		t.Errorf("ElementType: got %+v", elem)
	}

	if _, _, err := ParseFieldType("V"); err == nil {
		t.Error("void field type: got nil error")
	}
}

func TestTypeFromString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"int", "I"},
		{"void", "V"},
		{"java.lang.String[]", "[Ljava/lang/String;"},
		{"long[][]", "[[J"},
		{"Foo", "LFoo;"},
	}
	for _, tt := range tests {
		got, err := TypeToDescriptor(tt.in)
		if err != nil {
			t.Errorf("%s: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.in, got, tt.want)
		}
	}
	for _, bad := range []string{"", "void[]", "java/lang/String", "List<String>"} {
		if _, err := TypeFromString(bad); err == nil {
			t.Errorf("%q: got nil error", bad)
		}
	}

	d, err := MethodTypeToDescriptor("void", []string{"int", "java.lang.String[]"})
	if err != nil || d != "(I[Ljava/lang/String;)V" {
		t.Errorf("MethodTypeToDescriptor: got %q, %v", d, err)
	}
	if _, err := MethodTypeToDescriptor("void", []string{"void"}); err == nil {
		t.Error("void parameter: got nil error")
	}
}

func TestSignatureToString(t *testing.T) {
	tests := []struct {
		sig    string
		chopit bool
		want   string
	}{
		{"I", false, "int"},
		{"V", false, "void"},
		{"(I)V", false, "(int)void"},
		{"(Ljava/lang/String;[J)Ljava/lang/Object;", true, "(String, long[])Object"},
		{"Ljava/util/Map$Entry;", true, "java.util.Map$Entry"},
		{"Ljava/util/List<Ljava/lang/String;>;", true, "java.util.List<String>"},
		{"TT;", false, "T"},
	}
	for _, tt := range tests {
		got, err := SignatureToString(tt.sig, tt.chopit)
		if err != nil {
			t.Errorf("%s: %v", tt.sig, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.sig, got, tt.want)
		}
	}
	if _, err := SignatureToString("II", false); err == nil {
		t.Error("trailing characters: got nil error")
	}
}

func TestMethodSignatureHelpers(t *testing.T) {
	ret, err := MethodSignatureReturnType("(I)Ljava/lang/String;", true)
	if err != nil || ret != "String" {
		t.Errorf("return type: got %q, %v", ret, err)
	}
	args, err := MethodSignatureArgumentTypes("(I[Ljava/lang/String;)V", false)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"int", "java.lang.String[]"}; !reflect.DeepEqual(args, want) {
		t.Errorf("argument types: got %v, want %v", args, want)
	}

	jc := parseRich(t)
	init := jc.FindMethod("<init>", "()V")
	cp := jc.ConstantPool
	vars := init.LocalVariableTable()
	if vars == nil {
		t.Fatal("<init> has no LocalVariableTable")
	}

	// static methods number parameters from slot 0, which "this" occupies
	s, err := MethodSignatureToString("(I)V", "f", "public static", true, vars, cp)
	if err != nil {
		t.Fatal(err)
	}
	if want := "public static void f(int this)"; s != want {
		t.Errorf("got %q, want %q", s, want)
	}
	s, err = MethodSignatureToString("(I)V", "f", "public", true, vars, cp)
	if err != nil {
		t.Fatal(err)
	}
	if want := "public void f(int arg0)"; s != want {
		t.Errorf("got %q, want %q", s, want)
	}
}

func TestCompactClassName(t *testing.T) {
	tests := []struct {
		name   string
		chopit bool
		want   string
	}{
		{"java/lang/String", false, "java.lang.String"},
		{"java/lang/String", true, "String"},
		{"java/lang/reflect/Method", true, "java.lang.reflect.Method"},
		{"Rich", true, "Rich"},
	}
	for _, tt := range tests {
		if got := CompactClassName(tt.name, tt.chopit); got != tt.want {
			t.Errorf("CompactClassName(%q, %v) = %q, want %q", tt.name, tt.chopit, got, tt.want)
		}
	}
}

func TestAccessToString(t *testing.T) {
	tests := []struct {
		flags    AccessFlags
		forClass bool
		want     string
	}{
		{AccPublic | AccStatic | AccFinal, false, "public static final"},
		{AccPublic | AccSuper, true, "public"},
		{AccPublic | AccSynchronized, false, "public synchronized"},
		{AccPublic | AccInterface | AccAbstract, true, "public abstract"},
		{AccPrivate | AccNative | AccStrict, false, "private native strictfp"},
		{0, false, ""},
	}
	for _, tt := range tests {
		if got := AccessToString(tt.flags, tt.forClass); got != tt.want {
			t.Errorf("AccessToString(%#04x, %v) = %q, want %q", uint16(tt.flags), tt.forClass, got, tt.want)
		}
	}

	f := AccPublic.With(AccFinal, true)
	if !f.IsFinal() || f.With(AccFinal, false).IsFinal() {
		t.Errorf("With: got %#04x", uint16(f))
	}
}
