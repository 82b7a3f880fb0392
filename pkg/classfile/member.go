package classfile

import (
	"fmt"
	"strings"
)

// FieldOrMethod is the shape shared by field_info and method_info.
type FieldOrMethod struct {
	AccessFlags     AccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []Attribute
}

// Name resolves the member name.
func (m *FieldOrMethod) Name(cp *ConstantPool) (string, error) {
	return cp.Utf8(m.NameIndex)
}

// Descriptor resolves the member descriptor.
func (m *FieldOrMethod) Descriptor(cp *ConstantPool) (string, error) {
	return cp.Utf8(m.DescriptorIndex)
}

// Attribute returns the first attribute of the given kind, or nil.
func (m *FieldOrMethod) Attribute(kind AttributeKind) Attribute {
	return findAttribute(m.Attributes, kind)
}

// GenericSignature resolves the Signature attribute, if any.
func (m *FieldOrMethod) GenericSignature(cp *ConstantPool) (string, bool, error) {
	sig, ok := m.Attribute(KindSignature).(*Signature)
	if !ok {
		return "", false, nil
	}
	s, err := cp.Utf8(sig.SignatureIndex)
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

func (m *FieldOrMethod) copyShape() FieldOrMethod {
	c := *m
	c.Attributes = copyAttributes(m.Attributes)
	return c
}

func (m *FieldOrMethod) writeTo(w *Writer) {
	w.U2(uint16(m.AccessFlags))
	w.U2(m.NameIndex)
	w.U2(m.DescriptorIndex)
	writeAttributes(w, m.Attributes)
}

// Field is a field_info entry.
type Field struct {
	FieldOrMethod
}

func (f *Field) Accept(v Visitor) { v.VisitField(f) }
func (f *Field) Copy() *Field     { return &Field{f.copyShape()} }

// ConstantValue returns the field's ConstantValue attribute or nil.
func (f *Field) ConstantValue() *ConstantValue {
	a, _ := f.Attribute(KindConstantValue).(*ConstantValue)
	return a
}

// Type parses the field descriptor.
func (f *Field) Type(cp *ConstantPool) (Type, error) {
	desc, err := f.Descriptor(cp)
	if err != nil {
		return Type{}, err
	}
	t, n, err := ParseFieldType(desc)
	if err != nil {
		return Type{}, err
	}
	if n != len(desc) {
		return Type{}, &DescriptorError{Descriptor: desc, Offset: n, Reason: "trailing characters"}
	}
	return t, nil
}

// Declaration renders the field as Java source, e.g.
// "public static final int MAX = 10".
func (f *Field) Declaration(cp *ConstantPool) (string, error) {
	name, err := f.Name(cp)
	if err != nil {
		return "", err
	}
	t, err := f.Type(cp)
	if err != nil {
		return "", err
	}
	s := t.String() + " " + name
	if access := AccessToString(f.AccessFlags, false); access != "" {
		s = access + " " + s
	}
	if cv := f.ConstantValue(); cv != nil {
		v, err := cp.ConstantToString(cv.ValueIndex)
		if err != nil {
			return "", err
		}
		s += " = " + v
	}
	return s, nil
}

// Method is a method_info entry.
type Method struct {
	FieldOrMethod
}

func (m *Method) Accept(v Visitor) { v.VisitMethod(m) }
func (m *Method) Copy() *Method    { return &Method{m.copyShape()} }

// Code returns the method's Code attribute, or nil for abstract and native
// methods.
func (m *Method) Code() *Code {
	c, _ := m.Attribute(KindCode).(*Code)
	return c
}

// Exceptions returns the method's Exceptions attribute or nil.
func (m *Method) Exceptions() *Exceptions {
	e, _ := m.Attribute(KindExceptions).(*Exceptions)
	return e
}

// LineNumberTable returns the LineNumberTable nested in Code, or nil.
func (m *Method) LineNumberTable() *LineNumberTable {
	if c := m.Code(); c != nil {
		return c.LineNumberTable()
	}
	return nil
}

// LocalVariableTable returns the LocalVariableTable nested in Code, or nil.
func (m *Method) LocalVariableTable() *LocalVariableTable {
	if c := m.Code(); c != nil {
		return c.LocalVariableTable()
	}
	return nil
}

// MethodType parses the method descriptor.
func (m *Method) MethodType(cp *ConstantPool) (*MethodType, error) {
	desc, err := m.Descriptor(cp)
	if err != nil {
		return nil, err
	}
	return ParseMethodDescriptor(desc)
}

// ReturnType parses the return type from the descriptor.
func (m *Method) ReturnType(cp *ConstantPool) (Type, error) {
	mt, err := m.MethodType(cp)
	if err != nil {
		return Type{}, err
	}
	return mt.Return, nil
}

// ArgumentTypes parses the parameter types from the descriptor.
func (m *Method) ArgumentTypes(cp *ConstantPool) ([]Type, error) {
	mt, err := m.MethodType(cp)
	if err != nil {
		return nil, err
	}
	return mt.Params, nil
}

// Declaration renders the method as a Java declaration, naming parameters
// from the LocalVariableTable when one is present, and appending the
// throws clause.
func (m *Method) Declaration(cp *ConstantPool) (string, error) {
	name, err := m.Name(cp)
	if err != nil {
		return "", err
	}
	desc, err := m.Descriptor(cp)
	if err != nil {
		return "", err
	}
	s, err := MethodSignatureToString(desc, name, AccessToString(m.AccessFlags, false), true, m.LocalVariableTable(), cp)
	if err != nil {
		return "", err
	}
	if e := m.Exceptions(); e != nil && len(e.ExceptionIndexTable) > 0 {
		names, err := e.ExceptionNames(cp)
		if err != nil {
			return "", err
		}
		s += " throws " + strings.Join(names, ", ")
	}
	return s, nil
}

func (p *parser) readMember(r *Reader, cp *ConstantPool, what string, i int) (FieldOrMethod, error) {
	var m FieldOrMethod
	flags, err := r.U2()
	if err != nil {
		return m, fmt.Errorf("reading %s %d access flags: %w", what, i, err)
	}
	m.AccessFlags = AccessFlags(flags)
	if m.NameIndex, err = r.U2(); err != nil {
		return m, fmt.Errorf("reading %s %d name index: %w", what, i, err)
	}
	if m.DescriptorIndex, err = r.U2(); err != nil {
		return m, fmt.Errorf("reading %s %d descriptor index: %w", what, i, err)
	}
	if m.Attributes, err = p.readAttributes(r, cp); err != nil {
		return m, fmt.Errorf("parsing %s %d attributes: %w", what, i, err)
	}
	return m, nil
}

func (p *parser) readFields(r *Reader, cp *ConstantPool) ([]*Field, error) {
	count, err := r.U2()
	if err != nil {
		return nil, fmt.Errorf("reading fields count: %w", err)
	}
	fields := make([]*Field, count)
	for i := range fields {
		m, err := p.readMember(r, cp, "field", i)
		if err != nil {
			return nil, err
		}
		fields[i] = &Field{m}
	}
	return fields, nil
}

func (p *parser) readMethods(r *Reader, cp *ConstantPool) ([]*Method, error) {
	count, err := r.U2()
	if err != nil {
		return nil, fmt.Errorf("reading methods count: %w", err)
	}
	methods := make([]*Method, count)
	for i := range methods {
		m, err := p.readMember(r, cp, "method", i)
		if err != nil {
			return nil, err
		}
		if !p.allowDuplicates {
			if err := checkUnique(m.Attributes, KindCode, KindExceptions); err != nil {
				return nil, fmt.Errorf("method %d: %w", i, err)
			}
		}
		methods[i] = &Method{m}
	}
	return methods, nil
}

func checkUnique(attrs []Attribute, kinds ...AttributeKind) error {
	for _, k := range kinds {
		n := 0
		for _, a := range attrs {
			if a.Kind() == k {
				n++
			}
		}
		if n > 1 {
			return formatErrorf("%d %s attributes, at most one allowed", n, k)
		}
	}
	return nil
}
