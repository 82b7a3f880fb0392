package classfile

import (
	"fmt"
	"strings"
)

// JavaClass is a parsed class file. It owns its ConstantPool; every other
// node refers to the pool by index only.
type JavaClass struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool *ConstantPool
	AccessFlags  AccessFlags
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []*Field
	Methods      []*Method
	Attributes   []Attribute
}

// NewJavaClass returns an empty class named name extending superName,
// with a fresh pool holding the two Class entries.
func NewJavaClass(name, superName string, flags AccessFlags) *JavaClass {
	cp := NewConstantPool()
	jc := &JavaClass{
		MajorVersion: 52,
		ConstantPool: cp,
		AccessFlags:  flags,
		ThisClass:    cp.AddClass(name),
	}
	if superName != "" {
		jc.SuperClass = cp.AddClass(superName)
	}
	return jc
}

// ClassName returns the internal name of this class, e.g. "java/lang/String".
func (jc *JavaClass) ClassName() (string, error) {
	return jc.ConstantPool.ClassName(jc.ThisClass)
}

// SuperClassName returns the internal name of the superclass, or "" for
// java/lang/Object.
func (jc *JavaClass) SuperClassName() (string, error) {
	if jc.SuperClass == 0 {
		return "", nil
	}
	return jc.ConstantPool.ClassName(jc.SuperClass)
}

// InterfaceNames resolves the directly implemented interfaces.
func (jc *JavaClass) InterfaceNames() ([]string, error) {
	names := make([]string, len(jc.Interfaces))
	for i, index := range jc.Interfaces {
		name, err := jc.ConstantPool.ClassName(index)
		if err != nil {
			return nil, fmt.Errorf("resolving interface %d: %w", i, err)
		}
		names[i] = name
	}
	return names, nil
}

// PackageName returns the dotted package of this class, or "".
func (jc *JavaClass) PackageName() (string, error) {
	name, err := jc.ClassName()
	if err != nil {
		return "", err
	}
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return strings.ReplaceAll(name[:i], "/", "."), nil
	}
	return "", nil
}

// Attribute returns the first class attribute of the given kind, or nil.
func (jc *JavaClass) Attribute(kind AttributeKind) Attribute {
	return findAttribute(jc.Attributes, kind)
}

// SourceFileName resolves the SourceFile attribute, or returns "" when the
// class has none.
func (jc *JavaClass) SourceFileName() (string, error) {
	sf, ok := jc.Attribute(KindSourceFile).(*SourceFile)
	if !ok {
		return "", nil
	}
	return jc.ConstantPool.Utf8(sf.SourceFileIndex)
}

// IsInterface reports whether ACC_INTERFACE is set.
func (jc *JavaClass) IsInterface() bool { return jc.AccessFlags.IsInterface() }

// FindMethod finds a method by name and descriptor.
func (jc *JavaClass) FindMethod(name, descriptor string) *Method {
	for _, m := range jc.Methods {
		n, err1 := m.Name(jc.ConstantPool)
		d, err2 := m.Descriptor(jc.ConstantPool)
		if err1 == nil && err2 == nil && n == name && d == descriptor {
			return m
		}
	}
	return nil
}

// FindMethodByName finds a method by name only (first match).
func (jc *JavaClass) FindMethodByName(name string) *Method {
	for _, m := range jc.Methods {
		if n, err := m.Name(jc.ConstantPool); err == nil && n == name {
			return m
		}
	}
	return nil
}

// FindField finds a field by name.
func (jc *JavaClass) FindField(name string) *Field {
	for _, f := range jc.Fields {
		if n, err := f.Name(jc.ConstantPool); err == nil && n == name {
			return f
		}
	}
	return nil
}

// BootstrapMethods returns the class's BootstrapMethods attribute or nil.
func (jc *JavaClass) BootstrapMethods() *BootstrapMethods {
	b, _ := jc.Attribute(KindBootstrapMethods).(*BootstrapMethods)
	return b
}

func (jc *JavaClass) Accept(v Visitor) { v.VisitJavaClass(jc) }

// Copy returns a deep copy of the class including its constant pool.
func (jc *JavaClass) Copy() *JavaClass {
	return jc.CopyWithPool(jc.ConstantPool.Copy())
}

// CopyWithPool deep-copies the class structure and binds the copy to cp.
// Indices are kept as they are, so cp must hold compatible entries at them.
func (jc *JavaClass) CopyWithPool(cp *ConstantPool) *JavaClass {
	c := *jc
	c.ConstantPool = cp
	c.Interfaces = append([]uint16(nil), jc.Interfaces...)
	c.Fields = make([]*Field, len(jc.Fields))
	for i, f := range jc.Fields {
		c.Fields[i] = f.Copy()
	}
	c.Methods = make([]*Method, len(jc.Methods))
	for i, m := range jc.Methods {
		c.Methods[i] = m.Copy()
	}
	c.Attributes = copyAttributes(jc.Attributes)
	return &c
}

// String renders a short javap-like summary of the class.
func (jc *JavaClass) String() string {
	var sb strings.Builder
	name, err := jc.ClassName()
	if err != nil {
		name = fmt.Sprintf("<invalid this_class %d>", jc.ThisClass)
	}
	kind := "class"
	if jc.IsInterface() {
		kind = "interface"
	}
	access := AccessToString(jc.AccessFlags, true)
	if jc.IsInterface() {
		// abstract is implied for interfaces
		access = strings.TrimSpace(strings.ReplaceAll(" "+access+" ", " abstract ", " "))
	}
	if access != "" {
		sb.WriteString(access + " ")
	}
	fmt.Fprintf(&sb, "%s %s", kind, CompactClassName(name, false))
	if super, err := jc.SuperClassName(); err == nil && super != "" {
		fmt.Fprintf(&sb, " extends %s", CompactClassName(super, false))
	}
	if names, err := jc.InterfaceNames(); err == nil && len(names) > 0 {
		for i := range names {
			names[i] = CompactClassName(names[i], false)
		}
		fmt.Fprintf(&sb, " implements %s", strings.Join(names, ", "))
	}
	fmt.Fprintf(&sb, "\nversion %d.%d, %d constants, %d fields, %d methods, %d attributes\n",
		jc.MajorVersion, jc.MinorVersion, jc.ConstantPool.Len(), len(jc.Fields), len(jc.Methods), len(jc.Attributes))
	return sb.String()
}
