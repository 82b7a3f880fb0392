package classfile

import (
	"fmt"
	"math"
)

// Tag identifies the kind of a constant pool entry.
type Tag uint8

// Constant pool tags
const (
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagDynamic            Tag = 17
	TagInvokeDynamic      Tag = 18
	TagModule             Tag = 19
	TagPackage            Tag = 20
)

var tagNames = map[Tag]string{
	TagUtf8:               "CONSTANT_Utf8",
	TagInteger:            "CONSTANT_Integer",
	TagFloat:              "CONSTANT_Float",
	TagLong:               "CONSTANT_Long",
	TagDouble:             "CONSTANT_Double",
	TagClass:              "CONSTANT_Class",
	TagString:             "CONSTANT_String",
	TagFieldref:           "CONSTANT_Fieldref",
	TagMethodref:          "CONSTANT_Methodref",
	TagInterfaceMethodref: "CONSTANT_InterfaceMethodref",
	TagNameAndType:        "CONSTANT_NameAndType",
	TagMethodHandle:       "CONSTANT_MethodHandle",
	TagMethodType:         "CONSTANT_MethodType",
	TagDynamic:            "CONSTANT_Dynamic",
	TagInvokeDynamic:      "CONSTANT_InvokeDynamic",
	TagModule:             "CONSTANT_Module",
	TagPackage:            "CONSTANT_Package",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("CONSTANT_<%d>", uint8(t))
}

// Constant is implemented by all constant pool entry types.
type Constant interface {
	Tag() Tag
	Accept(v Visitor)
	Copy() Constant
	String() string
	writeTo(w *Writer)
}

type ConstantUtf8 struct {
	Value string

	// raw is the encoding read from the class file; it is reused by the
	// writer while Value still equals rawValue.
	raw      []byte
	rawValue string
}

// NewConstantUtf8 returns a Utf8 constant holding s.
func NewConstantUtf8(s string) *ConstantUtf8 { return &ConstantUtf8{Value: s} }

func (c *ConstantUtf8) Tag() Tag         { return TagUtf8 }
func (c *ConstantUtf8) Accept(v Visitor) { v.VisitConstantUtf8(c) }
func (c *ConstantUtf8) String() string {
	return fmt.Sprintf("%s[%d](%q)", TagUtf8, TagUtf8, c.Value)
}

func (c *ConstantUtf8) Copy() Constant {
	cp := *c
	if c.raw != nil {
		cp.raw = append([]byte(nil), c.raw...)
	}
	return &cp
}

func (c *ConstantUtf8) encoded() []byte {
	if c.raw != nil && c.rawValue == c.Value {
		return c.raw
	}
	return encodeModifiedUTF8(c.Value)
}

func (c *ConstantUtf8) writeTo(w *Writer) {
	b := c.encoded()
	if len(b) > math.MaxUint16 {
		w.Fail(formatErrorf("Utf8 constant of %d bytes exceeds 65535", len(b)))
		return
	}
	w.U1(uint8(TagUtf8))
	w.U2(uint16(len(b)))
	w.Bytes(b)
}

type ConstantInteger struct {
	Value int32
}

func (c *ConstantInteger) Tag() Tag         { return TagInteger }
func (c *ConstantInteger) Accept(v Visitor) { v.VisitConstantInteger(c) }
func (c *ConstantInteger) Copy() Constant   { cp := *c; return &cp }
func (c *ConstantInteger) String() string {
	return fmt.Sprintf("%s[%d](%d)", TagInteger, TagInteger, c.Value)
}

func (c *ConstantInteger) writeTo(w *Writer) {
	w.U1(uint8(TagInteger))
	w.U4(uint32(c.Value))
}

type ConstantFloat struct {
	Value float32
}

func (c *ConstantFloat) Tag() Tag         { return TagFloat }
func (c *ConstantFloat) Accept(v Visitor) { v.VisitConstantFloat(c) }
func (c *ConstantFloat) Copy() Constant   { cp := *c; return &cp }
func (c *ConstantFloat) String() string {
	return fmt.Sprintf("%s[%d](%g)", TagFloat, TagFloat, c.Value)
}

func (c *ConstantFloat) writeTo(w *Writer) {
	w.U1(uint8(TagFloat))
	w.U4(math.Float32bits(c.Value))
}

// ConstantLong occupies two pool slots; the second is left nil.
type ConstantLong struct {
	Value int64
}

func (c *ConstantLong) Tag() Tag         { return TagLong }
func (c *ConstantLong) Accept(v Visitor) { v.VisitConstantLong(c) }
func (c *ConstantLong) Copy() Constant   { cp := *c; return &cp }
func (c *ConstantLong) String() string {
	return fmt.Sprintf("%s[%d](%d)", TagLong, TagLong, c.Value)
}

func (c *ConstantLong) writeTo(w *Writer) {
	w.U1(uint8(TagLong))
	w.U8(uint64(c.Value))
}

// ConstantDouble occupies two pool slots; the second is left nil.
type ConstantDouble struct {
	Value float64
}

func (c *ConstantDouble) Tag() Tag         { return TagDouble }
func (c *ConstantDouble) Accept(v Visitor) { v.VisitConstantDouble(c) }
func (c *ConstantDouble) Copy() Constant   { cp := *c; return &cp }
func (c *ConstantDouble) String() string {
	return fmt.Sprintf("%s[%d](%g)", TagDouble, TagDouble, c.Value)
}

func (c *ConstantDouble) writeTo(w *Writer) {
	w.U1(uint8(TagDouble))
	w.U8(math.Float64bits(c.Value))
}

type ConstantClass struct {
	NameIndex uint16
}

func (c *ConstantClass) Tag() Tag         { return TagClass }
func (c *ConstantClass) Accept(v Visitor) { v.VisitConstantClass(c) }
func (c *ConstantClass) Copy() Constant   { cp := *c; return &cp }
func (c *ConstantClass) String() string {
	return fmt.Sprintf("%s[%d](name_index = %d)", TagClass, TagClass, c.NameIndex)
}

func (c *ConstantClass) writeTo(w *Writer) {
	w.U1(uint8(TagClass))
	w.U2(c.NameIndex)
}

type ConstantString struct {
	StringIndex uint16
}

func (c *ConstantString) Tag() Tag         { return TagString }
func (c *ConstantString) Accept(v Visitor) { v.VisitConstantString(c) }
func (c *ConstantString) Copy() Constant   { cp := *c; return &cp }
func (c *ConstantString) String() string {
	return fmt.Sprintf("%s[%d](string_index = %d)", TagString, TagString, c.StringIndex)
}

func (c *ConstantString) writeTo(w *Writer) {
	w.U1(uint8(TagString))
	w.U2(c.StringIndex)
}

// memberRef is the shared layout of Fieldref, Methodref and
// InterfaceMethodref.
type memberRef struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (m memberRef) describe(t Tag) string {
	return fmt.Sprintf("%s[%d](class_index = %d, name_and_type_index = %d)", t, t, m.ClassIndex, m.NameAndTypeIndex)
}

func (m memberRef) write(w *Writer, t Tag) {
	w.U1(uint8(t))
	w.U2(m.ClassIndex)
	w.U2(m.NameAndTypeIndex)
}

type ConstantFieldref struct {
	memberRef
}

func NewConstantFieldref(classIndex, natIndex uint16) *ConstantFieldref {
	return &ConstantFieldref{memberRef{ClassIndex: classIndex, NameAndTypeIndex: natIndex}}
}

func (c *ConstantFieldref) Tag() Tag          { return TagFieldref }
func (c *ConstantFieldref) Accept(v Visitor)  { v.VisitConstantFieldref(c) }
func (c *ConstantFieldref) Copy() Constant    { cp := *c; return &cp }
func (c *ConstantFieldref) String() string    { return c.describe(TagFieldref) }
func (c *ConstantFieldref) writeTo(w *Writer) { c.write(w, TagFieldref) }

type ConstantMethodref struct {
	memberRef
}

func NewConstantMethodref(classIndex, natIndex uint16) *ConstantMethodref {
	return &ConstantMethodref{memberRef{ClassIndex: classIndex, NameAndTypeIndex: natIndex}}
}

func (c *ConstantMethodref) Tag() Tag          { return TagMethodref }
func (c *ConstantMethodref) Accept(v Visitor)  { v.VisitConstantMethodref(c) }
func (c *ConstantMethodref) Copy() Constant    { cp := *c; return &cp }
func (c *ConstantMethodref) String() string    { return c.describe(TagMethodref) }
func (c *ConstantMethodref) writeTo(w *Writer) { c.write(w, TagMethodref) }

type ConstantInterfaceMethodref struct {
	memberRef
}

func NewConstantInterfaceMethodref(classIndex, natIndex uint16) *ConstantInterfaceMethodref {
	return &ConstantInterfaceMethodref{memberRef{ClassIndex: classIndex, NameAndTypeIndex: natIndex}}
}

func (c *ConstantInterfaceMethodref) Tag() Tag          { return TagInterfaceMethodref }
func (c *ConstantInterfaceMethodref) Accept(v Visitor)  { v.VisitConstantInterfaceMethodref(c) }
func (c *ConstantInterfaceMethodref) Copy() Constant    { cp := *c; return &cp }
func (c *ConstantInterfaceMethodref) String() string    { return c.describe(TagInterfaceMethodref) }
func (c *ConstantInterfaceMethodref) writeTo(w *Writer) { c.write(w, TagInterfaceMethodref) }

type ConstantNameAndType struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (c *ConstantNameAndType) Tag() Tag         { return TagNameAndType }
func (c *ConstantNameAndType) Accept(v Visitor) { v.VisitConstantNameAndType(c) }
func (c *ConstantNameAndType) Copy() Constant   { cp := *c; return &cp }
func (c *ConstantNameAndType) String() string {
	return fmt.Sprintf("%s[%d](name_index = %d, signature_index = %d)", TagNameAndType, TagNameAndType, c.NameIndex, c.DescriptorIndex)
}

func (c *ConstantNameAndType) writeTo(w *Writer) {
	w.U1(uint8(TagNameAndType))
	w.U2(c.NameIndex)
	w.U2(c.DescriptorIndex)
}

type ConstantMethodHandle struct {
	ReferenceKind  uint8
	ReferenceIndex uint16
}

func (c *ConstantMethodHandle) Tag() Tag         { return TagMethodHandle }
func (c *ConstantMethodHandle) Accept(v Visitor) { v.VisitConstantMethodHandle(c) }
func (c *ConstantMethodHandle) Copy() Constant   { cp := *c; return &cp }
func (c *ConstantMethodHandle) String() string {
	return fmt.Sprintf("%s[%d](reference_kind = %d, reference_index = %d)", TagMethodHandle, TagMethodHandle, c.ReferenceKind, c.ReferenceIndex)
}

func (c *ConstantMethodHandle) writeTo(w *Writer) {
	w.U1(uint8(TagMethodHandle))
	w.U1(c.ReferenceKind)
	w.U2(c.ReferenceIndex)
}

type ConstantMethodType struct {
	DescriptorIndex uint16
}

func (c *ConstantMethodType) Tag() Tag         { return TagMethodType }
func (c *ConstantMethodType) Accept(v Visitor) { v.VisitConstantMethodType(c) }
func (c *ConstantMethodType) Copy() Constant   { cp := *c; return &cp }
func (c *ConstantMethodType) String() string {
	return fmt.Sprintf("%s[%d](descriptor_index = %d)", TagMethodType, TagMethodType, c.DescriptorIndex)
}

func (c *ConstantMethodType) writeTo(w *Writer) {
	w.U1(uint8(TagMethodType))
	w.U2(c.DescriptorIndex)
}

// bootstrapRef is the shared layout of Dynamic and InvokeDynamic.
type bootstrapRef struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (b bootstrapRef) describe(t Tag) string {
	return fmt.Sprintf("%s[%d](bootstrap_method_attr_index = %d, name_and_type_index = %d)", t, t, b.BootstrapMethodAttrIndex, b.NameAndTypeIndex)
}

func (b bootstrapRef) write(w *Writer, t Tag) {
	w.U1(uint8(t))
	w.U2(b.BootstrapMethodAttrIndex)
	w.U2(b.NameAndTypeIndex)
}

type ConstantDynamic struct {
	bootstrapRef
}

func (c *ConstantDynamic) Tag() Tag          { return TagDynamic }
func (c *ConstantDynamic) Accept(v Visitor)  { v.VisitConstantDynamic(c) }
func (c *ConstantDynamic) Copy() Constant    { cp := *c; return &cp }
func (c *ConstantDynamic) String() string    { return c.describe(TagDynamic) }
func (c *ConstantDynamic) writeTo(w *Writer) { c.write(w, TagDynamic) }

type ConstantInvokeDynamic struct {
	bootstrapRef
}

func (c *ConstantInvokeDynamic) Tag() Tag          { return TagInvokeDynamic }
func (c *ConstantInvokeDynamic) Accept(v Visitor)  { v.VisitConstantInvokeDynamic(c) }
func (c *ConstantInvokeDynamic) Copy() Constant    { cp := *c; return &cp }
func (c *ConstantInvokeDynamic) String() string    { return c.describe(TagInvokeDynamic) }
func (c *ConstantInvokeDynamic) writeTo(w *Writer) { c.write(w, TagInvokeDynamic) }

type ConstantModule struct {
	NameIndex uint16
}

func (c *ConstantModule) Tag() Tag         { return TagModule }
func (c *ConstantModule) Accept(v Visitor) { v.VisitConstantModule(c) }
func (c *ConstantModule) Copy() Constant   { cp := *c; return &cp }
func (c *ConstantModule) String() string {
	return fmt.Sprintf("%s[%d](name_index = %d)", TagModule, TagModule, c.NameIndex)
}

func (c *ConstantModule) writeTo(w *Writer) {
	w.U1(uint8(TagModule))
	w.U2(c.NameIndex)
}

type ConstantPackage struct {
	NameIndex uint16
}

func (c *ConstantPackage) Tag() Tag         { return TagPackage }
func (c *ConstantPackage) Accept(v Visitor) { v.VisitConstantPackage(c) }
func (c *ConstantPackage) Copy() Constant   { cp := *c; return &cp }
func (c *ConstantPackage) String() string {
	return fmt.Sprintf("%s[%d](name_index = %d)", TagPackage, TagPackage, c.NameIndex)
}

func (c *ConstantPackage) writeTo(w *Writer) {
	w.U1(uint8(TagPackage))
	w.U2(c.NameIndex)
}
