package classfile

import (
	"fmt"
	"math"
)

// AttributeKind identifies the attribute types this package decodes.
type AttributeKind uint8

const (
	KindUnknown AttributeKind = iota
	KindSourceFile
	KindConstantValue
	KindCode
	KindExceptions
	KindLineNumberTable
	KindLocalVariableTable
	KindInnerClasses
	KindSynthetic
	KindDeprecated
	KindPMGClass
	KindSignature
	KindStackMap
	KindLocalVariableTypeTable
	KindEnclosingMethod
	KindBootstrapMethods
	KindNestHost
	KindNestMembers
	KindMethodParameters
	KindSourceDebugExtension
)

var attributeNames = [...]string{
	KindUnknown:                "<Unknown>",
	KindSourceFile:             "SourceFile",
	KindConstantValue:          "ConstantValue",
	KindCode:                   "Code",
	KindExceptions:             "Exceptions",
	KindLineNumberTable:        "LineNumberTable",
	KindLocalVariableTable:     "LocalVariableTable",
	KindInnerClasses:           "InnerClasses",
	KindSynthetic:              "Synthetic",
	KindDeprecated:             "Deprecated",
	KindPMGClass:               "PMGClass",
	KindSignature:              "Signature",
	KindStackMap:               "StackMap",
	KindLocalVariableTypeTable: "LocalVariableTypeTable",
	KindEnclosingMethod:        "EnclosingMethod",
	KindBootstrapMethods:       "BootstrapMethods",
	KindNestHost:               "NestHost",
	KindNestMembers:            "NestMembers",
	KindMethodParameters:       "MethodParameters",
	KindSourceDebugExtension:   "SourceDebugExtension",
}

// String returns the attribute name as it appears in the constant pool.
func (k AttributeKind) String() string {
	if int(k) < len(attributeNames) {
		return attributeNames[k]
	}
	return fmt.Sprintf("<kind %d>", uint8(k))
}

// Attribute is implemented by every attribute type, including Unknown and
// any type returned by a custom AttributeReader.
type Attribute interface {
	Header() *AttributeHeader
	Kind() AttributeKind
	// Length is the payload size in bytes, excluding the 6-byte header. It
	// is computed from the current contents on every call.
	Length() uint32
	Accept(v Visitor)
	Copy() Attribute
	// WriteInfo writes the payload, excluding the header.
	WriteInfo(w *Writer)
}

// AttributeHeader holds the fields common to all attributes.
type AttributeHeader struct {
	NameIndex uint16
}

func (h *AttributeHeader) Header() *AttributeHeader { return h }

// AttributeReader decodes the payload of one attribute kind. r is limited to
// the attribute's length bytes and must be consumed exactly.
type AttributeReader func(h AttributeHeader, length uint32, r *Reader, cp *ConstantPool) (Attribute, error)

func writeAttribute(w *Writer, a Attribute) {
	length := a.Length()
	w.U2(a.Header().NameIndex)
	w.U4(length)
	start := w.Count()
	a.WriteInfo(w)
	if w.Err() == nil && w.Count()-start != int64(length) {
		w.Fail(formatErrorf("%s attribute wrote %d bytes, declared length %d", a.Kind(), w.Count()-start, length))
	}
}

func writeAttributes(w *Writer, attrs []Attribute) {
	if len(attrs) > math.MaxUint16 {
		w.Fail(formatErrorf("%d attributes exceed 65535", len(attrs)))
		return
	}
	w.U2(uint16(len(attrs)))
	for _, a := range attrs {
		writeAttribute(w, a)
	}
}

// attributesLength is the encoded size of attrs including each header.
func attributesLength(attrs []Attribute) uint32 {
	var n uint32
	for _, a := range attrs {
		n += 6 + a.Length()
	}
	return n
}

func copyAttributes(attrs []Attribute) []Attribute {
	if attrs == nil {
		return nil
	}
	out := make([]Attribute, len(attrs))
	for i, a := range attrs {
		out[i] = a.Copy()
	}
	return out
}

func findAttribute(attrs []Attribute, kind AttributeKind) Attribute {
	for _, a := range attrs {
		if a.Kind() == kind {
			return a
		}
	}
	return nil
}

// RemoveAttributes drops every attribute of the given kinds and returns the
// remaining ones together with the number removed.
func RemoveAttributes(attrs []Attribute, kinds ...AttributeKind) ([]Attribute, int) {
	kept := attrs[:0:0]
	removed := 0
	for _, a := range attrs {
		drop := false
		for _, k := range kinds {
			if a.Kind() == k {
				drop = true
				break
			}
		}
		if drop {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	return kept, removed
}

// AttributeName resolves the name of a through cp. Unknown attributes report
// the name they were read with.
func AttributeName(a Attribute, cp *ConstantPool) (string, error) {
	if u, ok := a.(*Unknown); ok && u.Name != "" {
		return u.Name, nil
	}
	return cp.Utf8(a.Header().NameIndex)
}

// Unknown holds an attribute whose name has no reader. Its payload is kept
// verbatim so that it is written back unchanged.
type Unknown struct {
	AttributeHeader
	Name  string
	Bytes []byte
}

func (a *Unknown) Kind() AttributeKind { return KindUnknown }
func (a *Unknown) Length() uint32      { return uint32(len(a.Bytes)) }
func (a *Unknown) Accept(v Visitor)    { v.VisitUnknown(a) }
func (a *Unknown) WriteInfo(w *Writer) { w.Bytes(a.Bytes) }

func (a *Unknown) Copy() Attribute {
	c := *a
	c.Bytes = append([]byte(nil), a.Bytes...)
	return &c
}

// SourceFile names the source file a class was compiled from.
type SourceFile struct {
	AttributeHeader
	SourceFileIndex uint16
}

func (a *SourceFile) Kind() AttributeKind { return KindSourceFile }
func (a *SourceFile) Length() uint32      { return 2 }
func (a *SourceFile) Accept(v Visitor)    { v.VisitSourceFile(a) }
func (a *SourceFile) Copy() Attribute     { c := *a; return &c }
func (a *SourceFile) WriteInfo(w *Writer) { w.U2(a.SourceFileIndex) }

func readSourceFile(h AttributeHeader, _ uint32, r *Reader, _ *ConstantPool) (Attribute, error) {
	index, err := r.U2()
	if err != nil {
		return nil, err
	}
	return &SourceFile{AttributeHeader: h, SourceFileIndex: index}, nil
}

// ConstantValue is the initial value of a static field.
type ConstantValue struct {
	AttributeHeader
	ValueIndex uint16
}

func (a *ConstantValue) Kind() AttributeKind { return KindConstantValue }
func (a *ConstantValue) Length() uint32      { return 2 }
func (a *ConstantValue) Accept(v Visitor)    { v.VisitConstantValue(a) }
func (a *ConstantValue) Copy() Attribute     { c := *a; return &c }
func (a *ConstantValue) WriteInfo(w *Writer) { w.U2(a.ValueIndex) }

func readConstantValue(h AttributeHeader, _ uint32, r *Reader, _ *ConstantPool) (Attribute, error) {
	index, err := r.U2()
	if err != nil {
		return nil, err
	}
	return &ConstantValue{AttributeHeader: h, ValueIndex: index}, nil
}

// Signature holds a generic signature for a class, field or method.
type Signature struct {
	AttributeHeader
	SignatureIndex uint16
}

func (a *Signature) Kind() AttributeKind { return KindSignature }
func (a *Signature) Length() uint32      { return 2 }
func (a *Signature) Accept(v Visitor)    { v.VisitSignature(a) }
func (a *Signature) Copy() Attribute     { c := *a; return &c }
func (a *Signature) WriteInfo(w *Writer) { w.U2(a.SignatureIndex) }

func readSignature(h AttributeHeader, _ uint32, r *Reader, _ *ConstantPool) (Attribute, error) {
	index, err := r.U2()
	if err != nil {
		return nil, err
	}
	return &Signature{AttributeHeader: h, SignatureIndex: index}, nil
}

// PMGClass is the legacy attribute naming a class's PMG generator.
type PMGClass struct {
	AttributeHeader
	PMGIndex      uint16
	PMGClassIndex uint16
}

func (a *PMGClass) Kind() AttributeKind { return KindPMGClass }
func (a *PMGClass) Length() uint32      { return 4 }
func (a *PMGClass) Accept(v Visitor)    { v.VisitPMGClass(a) }
func (a *PMGClass) Copy() Attribute     { c := *a; return &c }

func (a *PMGClass) WriteInfo(w *Writer) {
	w.U2(a.PMGIndex)
	w.U2(a.PMGClassIndex)
}

func readPMGClass(h AttributeHeader, _ uint32, r *Reader, _ *ConstantPool) (Attribute, error) {
	pmg, err := r.U2()
	if err != nil {
		return nil, err
	}
	class, err := r.U2()
	if err != nil {
		return nil, err
	}
	return &PMGClass{AttributeHeader: h, PMGIndex: pmg, PMGClassIndex: class}, nil
}

// Synthetic marks a member the compiler generated. Any payload bytes are
// preserved although the format defines none.
type Synthetic struct {
	AttributeHeader
	Bytes []byte
}

func (a *Synthetic) Kind() AttributeKind { return KindSynthetic }
func (a *Synthetic) Length() uint32      { return uint32(len(a.Bytes)) }
func (a *Synthetic) Accept(v Visitor)    { v.VisitSynthetic(a) }
func (a *Synthetic) WriteInfo(w *Writer) { w.Bytes(a.Bytes) }

func (a *Synthetic) Copy() Attribute {
	c := *a
	if a.Bytes != nil {
		c.Bytes = append([]byte(nil), a.Bytes...)
	}
	return &c
}

func readSynthetic(h AttributeHeader, length uint32, r *Reader, _ *ConstantPool) (Attribute, error) {
	a := &Synthetic{AttributeHeader: h}
	if length > 0 {
		b, err := r.Bytes(int(length))
		if err != nil {
			return nil, err
		}
		a.Bytes = b
	}
	return a, nil
}

// Deprecated marks a deprecated class or member. Payload bytes are kept like
// Synthetic's.
type Deprecated struct {
	AttributeHeader
	Bytes []byte
}

func (a *Deprecated) Kind() AttributeKind { return KindDeprecated }
func (a *Deprecated) Length() uint32      { return uint32(len(a.Bytes)) }
func (a *Deprecated) Accept(v Visitor)    { v.VisitDeprecated(a) }
func (a *Deprecated) WriteInfo(w *Writer) { w.Bytes(a.Bytes) }

func (a *Deprecated) Copy() Attribute {
	c := *a
	if a.Bytes != nil {
		c.Bytes = append([]byte(nil), a.Bytes...)
	}
	return &c
}

func readDeprecated(h AttributeHeader, length uint32, r *Reader, _ *ConstantPool) (Attribute, error) {
	a := &Deprecated{AttributeHeader: h}
	if length > 0 {
		b, err := r.Bytes(int(length))
		if err != nil {
			return nil, err
		}
		a.Bytes = b
	}
	return a, nil
}

// Exceptions lists the checked exceptions a method declares.
type Exceptions struct {
	AttributeHeader
	ExceptionIndexTable []uint16
}

func (a *Exceptions) Kind() AttributeKind { return KindExceptions }
func (a *Exceptions) Length() uint32      { return 2 + 2*uint32(len(a.ExceptionIndexTable)) }
func (a *Exceptions) Accept(v Visitor)    { v.VisitExceptions(a) }

func (a *Exceptions) Copy() Attribute {
	c := *a
	c.ExceptionIndexTable = append([]uint16(nil), a.ExceptionIndexTable...)
	return &c
}

func (a *Exceptions) WriteInfo(w *Writer) { writeIndexList(w, a.ExceptionIndexTable) }

// ExceptionNames resolves the declared exception class names.
func (a *Exceptions) ExceptionNames(cp *ConstantPool) ([]string, error) {
	names := make([]string, len(a.ExceptionIndexTable))
	for i, index := range a.ExceptionIndexTable {
		name, err := cp.ClassName(index)
		if err != nil {
			return nil, err
		}
		names[i] = CompactClassName(name, false)
	}
	return names, nil
}

func readExceptions(h AttributeHeader, _ uint32, r *Reader, _ *ConstantPool) (Attribute, error) {
	table, err := readIndexList(r)
	if err != nil {
		return nil, err
	}
	return &Exceptions{AttributeHeader: h, ExceptionIndexTable: table}, nil
}

// NestHost names the host class of a nest member.
type NestHost struct {
	AttributeHeader
	HostClassIndex uint16
}

func (a *NestHost) Kind() AttributeKind { return KindNestHost }
func (a *NestHost) Length() uint32      { return 2 }
func (a *NestHost) Accept(v Visitor)    { v.VisitNestHost(a) }
func (a *NestHost) Copy() Attribute     { c := *a; return &c }
func (a *NestHost) WriteInfo(w *Writer) { w.U2(a.HostClassIndex) }

func readNestHost(h AttributeHeader, _ uint32, r *Reader, _ *ConstantPool) (Attribute, error) {
	index, err := r.U2()
	if err != nil {
		return nil, err
	}
	return &NestHost{AttributeHeader: h, HostClassIndex: index}, nil
}

// NestMembers lists the classes a nest host authorizes.
type NestMembers struct {
	AttributeHeader
	Classes []uint16
}

func (a *NestMembers) Kind() AttributeKind { return KindNestMembers }
func (a *NestMembers) Length() uint32      { return 2 + 2*uint32(len(a.Classes)) }
func (a *NestMembers) Accept(v Visitor)    { v.VisitNestMembers(a) }
func (a *NestMembers) WriteInfo(w *Writer) { writeIndexList(w, a.Classes) }

func (a *NestMembers) Copy() Attribute {
	c := *a
	c.Classes = append([]uint16(nil), a.Classes...)
	return &c
}

func readNestMembers(h AttributeHeader, _ uint32, r *Reader, _ *ConstantPool) (Attribute, error) {
	classes, err := readIndexList(r)
	if err != nil {
		return nil, err
	}
	return &NestMembers{AttributeHeader: h, Classes: classes}, nil
}

// EnclosingMethod identifies the innermost class and method enclosing a
// local or anonymous class. MethodIndex is 0 outside a method body.
type EnclosingMethod struct {
	AttributeHeader
	ClassIndex  uint16
	MethodIndex uint16
}

func (a *EnclosingMethod) Kind() AttributeKind { return KindEnclosingMethod }
func (a *EnclosingMethod) Length() uint32      { return 4 }
func (a *EnclosingMethod) Accept(v Visitor)    { v.VisitEnclosingMethod(a) }
func (a *EnclosingMethod) Copy() Attribute     { c := *a; return &c }

func (a *EnclosingMethod) WriteInfo(w *Writer) {
	w.U2(a.ClassIndex)
	w.U2(a.MethodIndex)
}

func readEnclosingMethod(h AttributeHeader, _ uint32, r *Reader, _ *ConstantPool) (Attribute, error) {
	class, err := r.U2()
	if err != nil {
		return nil, err
	}
	method, err := r.U2()
	if err != nil {
		return nil, err
	}
	return &EnclosingMethod{AttributeHeader: h, ClassIndex: class, MethodIndex: method}, nil
}

// SourceDebugExtension carries tool-specific debugging data as raw bytes.
type SourceDebugExtension struct {
	AttributeHeader
	Bytes []byte
}

func (a *SourceDebugExtension) Kind() AttributeKind { return KindSourceDebugExtension }
func (a *SourceDebugExtension) Length() uint32      { return uint32(len(a.Bytes)) }
func (a *SourceDebugExtension) Accept(v Visitor)    { v.VisitSourceDebugExtension(a) }
func (a *SourceDebugExtension) WriteInfo(w *Writer) { w.Bytes(a.Bytes) }

func (a *SourceDebugExtension) Copy() Attribute {
	c := *a
	c.Bytes = append([]byte(nil), a.Bytes...)
	return &c
}

func readSourceDebugExtension(h AttributeHeader, length uint32, r *Reader, _ *ConstantPool) (Attribute, error) {
	b, err := r.Bytes(int(length))
	if err != nil {
		return nil, err
	}
	return &SourceDebugExtension{AttributeHeader: h, Bytes: b}, nil
}

func readIndexList(r *Reader) ([]uint16, error) {
	n, err := r.U2()
	if err != nil {
		return nil, err
	}
	list := make([]uint16, n)
	for i := range list {
		if list[i], err = r.U2(); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func writeIndexList(w *Writer, list []uint16) {
	if len(list) > math.MaxUint16 {
		w.Fail(formatErrorf("index list of %d entries exceeds 65535", len(list)))
		return
	}
	w.U2(uint16(len(list)))
	for _, v := range list {
		w.U2(v)
	}
}
