package classfile

import (
	"strconv"
	"strings"
)

// Base type characters of field descriptors.
const (
	BaseByte    byte = 'B'
	BaseChar    byte = 'C'
	BaseDouble  byte = 'D'
	BaseFloat   byte = 'F'
	BaseInt     byte = 'I'
	BaseLong    byte = 'J'
	BaseShort   byte = 'S'
	BaseBoolean byte = 'Z'
	BaseVoid    byte = 'V'
	BaseObject  byte = 'L'
)

var primitiveNames = map[byte]string{
	BaseByte:    "byte",
	BaseChar:    "char",
	BaseDouble:  "double",
	BaseFloat:   "float",
	BaseInt:     "int",
	BaseLong:    "long",
	BaseShort:   "short",
	BaseBoolean: "boolean",
	BaseVoid:    "void",
}

var primitiveBases = func() map[string]byte {
	m := make(map[string]byte, len(primitiveNames))
	for b, name := range primitiveNames {
		m[name] = b
	}
	return m
}()

// maxArrayDims is the largest array rank a descriptor may carry.
const maxArrayDims = 255

// Type is a parsed field type or return type. Class holds the internal
// name ("java/lang/String") when Base is BaseObject.
type Type struct {
	Dims  int
	Base  byte
	Class string
}

// Descriptor encodes t back to descriptor form.
func (t Type) Descriptor() string {
	var sb strings.Builder
	for i := 0; i < t.Dims; i++ {
		sb.WriteByte('[')
	}
	if t.Base == BaseObject {
		sb.WriteByte('L')
		sb.WriteString(t.Class)
		sb.WriteByte(';')
	} else {
		sb.WriteByte(t.Base)
	}
	return sb.String()
}

// String renders t as Java source, e.g. "java.lang.String[]".
func (t Type) String() string {
	var s string
	if t.Base == BaseObject {
		s = strings.ReplaceAll(t.Class, "/", ".")
	} else {
		s = primitiveNames[t.Base]
	}
	return s + strings.Repeat("[]", t.Dims)
}

// IsPrimitive reports whether t is a non-array primitive or void.
func (t Type) IsPrimitive() bool { return t.Dims == 0 && t.Base != BaseObject }

// IsArray reports whether t is an array type.
func (t Type) IsArray() bool { return t.Dims > 0 }

// Size is the number of local variable slots a value of t occupies.
func (t Type) Size() int {
	switch {
	case t.Dims > 0:
		return 1
	case t.Base == BaseVoid:
		return 0
	case t.Base == BaseLong || t.Base == BaseDouble:
		return 2
	}
	return 1
}

// ElementType returns the type with one array dimension removed.
func (t Type) ElementType() Type {
	if t.Dims > 0 {
		t.Dims--
	}
	return t
}

// ParseFieldType parses the field type at the start of desc and reports how
// many characters it used, so that parameter lists can be walked without a
// separator. void is rejected.
func ParseFieldType(desc string) (Type, int, error) {
	return parseType(desc, 0, false)
}

func parseType(desc string, pos int, allowVoid bool) (Type, int, error) {
	start := pos
	var t Type
	for pos < len(desc) && desc[pos] == '[' {
		t.Dims++
		pos++
	}
	if t.Dims > maxArrayDims {
		return Type{}, 0, &DescriptorError{Descriptor: desc, Offset: start, Reason: "array has more than 255 dimensions"}
	}
	if pos >= len(desc) {
		return Type{}, 0, &DescriptorError{Descriptor: desc, Offset: pos, Reason: "unexpected end of descriptor"}
	}
	c := desc[pos]
	switch c {
	case BaseByte, BaseChar, BaseDouble, BaseFloat, BaseInt, BaseLong, BaseShort, BaseBoolean:
		t.Base = c
		pos++
	case BaseVoid:
		if !allowVoid || t.Dims > 0 {
			return Type{}, 0, &DescriptorError{Descriptor: desc, Offset: pos, Reason: "void is only valid as a return type"}
		}
		t.Base = c
		pos++
	case BaseObject:
		end := strings.IndexByte(desc[pos:], ';')
		if end < 0 {
			return Type{}, 0, &DescriptorError{Descriptor: desc, Offset: pos, Reason: "class type missing terminating ';'"}
		}
		name := desc[pos+1 : pos+end]
		if name == "" {
			return Type{}, 0, &DescriptorError{Descriptor: desc, Offset: pos, Reason: "empty class name"}
		}
		if i := strings.IndexAny(name, ".[<>()"); i >= 0 {
			return Type{}, 0, &DescriptorError{Descriptor: desc, Offset: pos + 1 + i, Reason: "invalid character in class name"}
		}
		t.Base = BaseObject
		t.Class = name
		pos += end + 1
	default:
		return Type{}, 0, &DescriptorError{Descriptor: desc, Offset: pos, Reason: "invalid type character " + quoteByte(c)}
	}
	return t, pos - start, nil
}

func quoteByte(c byte) string {
	return "'" + string(rune(c)) + "'"
}

// MethodType is a parsed method descriptor.
type MethodType struct {
	Params []Type
	Return Type
}

// Descriptor encodes m back to descriptor form.
func (m *MethodType) Descriptor() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, p := range m.Params {
		sb.WriteString(p.Descriptor())
	}
	sb.WriteByte(')')
	sb.WriteString(m.Return.Descriptor())
	return sb.String()
}

// String renders m as "void (int, java.lang.String)".
func (m *MethodType) String() string {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.String()
	}
	return m.Return.String() + " (" + strings.Join(params, ", ") + ")"
}

// ArgumentSlots is the number of local slots the parameters occupy.
func (m *MethodType) ArgumentSlots() int {
	n := 0
	for _, p := range m.Params {
		n += p.Size()
	}
	return n
}

// ParseMethodDescriptor parses a complete method descriptor such as
// "(ILjava/lang/String;)V".
func ParseMethodDescriptor(desc string) (*MethodType, error) {
	if desc == "" || desc[0] != '(' {
		return nil, &DescriptorError{Descriptor: desc, Offset: 0, Reason: "method descriptor must start with '('"}
	}
	m := &MethodType{}
	pos := 1
	for {
		if pos >= len(desc) {
			return nil, &DescriptorError{Descriptor: desc, Offset: pos, Reason: "missing ')'"}
		}
		if desc[pos] == ')' {
			pos++
			break
		}
		t, n, err := parseType(desc, pos, false)
		if err != nil {
			return nil, err
		}
		m.Params = append(m.Params, t)
		pos += n
	}
	ret, n, err := parseType(desc, pos, true)
	if err != nil {
		return nil, err
	}
	if pos+n != len(desc) {
		return nil, &DescriptorError{Descriptor: desc, Offset: pos + n, Reason: "trailing characters after return type"}
	}
	m.Return = ret
	return m, nil
}

// TypeFromString parses a Java source type such as "int", "String[][]" or
// "java.util.List".
func TypeFromString(s string) (Type, error) {
	var t Type
	name := strings.TrimSpace(s)
	for strings.HasSuffix(name, "[]") {
		t.Dims++
		name = strings.TrimSpace(name[:len(name)-2])
	}
	if name == "" || strings.ContainsAny(name, "[]/;<>() ") {
		return Type{}, &DescriptorError{Descriptor: s, Offset: 0, Reason: "not a Java type name"}
	}
	if b, ok := primitiveBases[name]; ok {
		if b == BaseVoid && t.Dims > 0 {
			return Type{}, &DescriptorError{Descriptor: s, Offset: 0, Reason: "array of void"}
		}
		t.Base = b
		return t, nil
	}
	t.Base = BaseObject
	t.Class = strings.ReplaceAll(name, ".", "/")
	return t, nil
}

// TypeToDescriptor converts a Java source type to its descriptor,
// e.g. "java.lang.String[]" to "[Ljava/lang/String;".
func TypeToDescriptor(s string) (string, error) {
	t, err := TypeFromString(s)
	if err != nil {
		return "", err
	}
	return t.Descriptor(), nil
}

// MethodTypeToDescriptor builds a method descriptor from Java source type
// names.
func MethodTypeToDescriptor(returnType string, argTypes []string) (string, error) {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, a := range argTypes {
		d, err := TypeToDescriptor(a)
		if err != nil {
			return "", err
		}
		if d == "V" {
			return "", &DescriptorError{Descriptor: a, Offset: 0, Reason: "void parameter"}
		}
		sb.WriteString(d)
	}
	sb.WriteByte(')')
	d, err := TypeToDescriptor(returnType)
	if err != nil {
		return "", err
	}
	sb.WriteString(d)
	return sb.String(), nil
}

// CompactClassName converts an internal name to dotted form. With chopit
// set, the "java.lang." prefix is dropped for classes directly in that
// package.
func CompactClassName(name string, chopit bool) string {
	name = strings.ReplaceAll(name, "/", ".")
	if chopit {
		const prefix = "java.lang."
		if rest, ok := strings.CutPrefix(name, prefix); ok && !strings.Contains(rest, ".") {
			return rest
		}
	}
	return name
}

func typeString(t Type, chopit bool) string {
	if t.Base == BaseObject {
		return CompactClassName(t.Class, chopit) + strings.Repeat("[]", t.Dims)
	}
	return t.String()
}

// SignatureToString renders a field descriptor, method descriptor or
// generic field signature in Java syntax: "I" becomes "int" and
// "(I)V" becomes "(int)void".
func SignatureToString(sig string, chopit bool) (string, error) {
	if sig == "" {
		return "", &DescriptorError{Descriptor: sig, Offset: 0, Reason: "empty signature"}
	}
	if sig[0] == '(' {
		m, err := ParseMethodDescriptor(sig)
		if err != nil {
			return "", err
		}
		args := make([]string, len(m.Params))
		for i, p := range m.Params {
			args[i] = typeString(p, chopit)
		}
		return "(" + strings.Join(args, ", ") + ")" + typeString(m.Return, chopit), nil
	}
	if strings.ContainsAny(sig, "<^") || sig[0] == 'T' {
		fs, err := ParseFieldSignature(sig)
		if err != nil {
			return "", err
		}
		return fs.render(chopit), nil
	}
	t, n, err := parseType(sig, 0, true)
	if err != nil {
		return "", err
	}
	if n != len(sig) {
		return "", &DescriptorError{Descriptor: sig, Offset: n, Reason: "trailing characters"}
	}
	return typeString(t, chopit), nil
}

// MethodSignatureReturnType renders the return type of a method
// descriptor.
func MethodSignatureReturnType(sig string, chopit bool) (string, error) {
	m, err := ParseMethodDescriptor(sig)
	if err != nil {
		return "", err
	}
	return typeString(m.Return, chopit), nil
}

// MethodSignatureArgumentTypes renders the parameter types of a method
// descriptor.
func MethodSignatureArgumentTypes(sig string, chopit bool) ([]string, error) {
	m, err := ParseMethodDescriptor(sig)
	if err != nil {
		return nil, err
	}
	args := make([]string, len(m.Params))
	for i, p := range m.Params {
		args[i] = typeString(p, chopit)
	}
	return args, nil
}

// MethodSignatureToString renders a method declaration such as
// "public static void main(String[] args)". Parameter names come from vars
// when it has an entry for the slot, otherwise they are arg0, arg1 and so
// on. The slot count starts at 1 unless access contains "static".
func MethodSignatureToString(sig, name, access string, chopit bool, vars *LocalVariableTable, cp *ConstantPool) (string, error) {
	m, err := ParseMethodDescriptor(sig)
	if err != nil {
		return "", err
	}
	slot := 1
	for _, word := range strings.Fields(access) {
		if word == "static" {
			slot = 0
		}
	}
	args := make([]string, len(m.Params))
	for i, p := range m.Params {
		argName := ""
		if vars != nil && cp != nil {
			if v := vars.Lookup(slot, 0); v != nil {
				if n, err := v.Name(cp); err == nil {
					argName = n
				}
			}
		}
		if argName == "" {
			argName = "arg" + strconv.Itoa(i)
		}
		args[i] = typeString(p, chopit) + " " + argName
		slot += p.Size()
	}
	s := typeString(m.Return, chopit) + " " + name + "(" + strings.Join(args, ", ") + ")"
	if access != "" {
		s = access + " " + s
	}
	return s, nil
}
