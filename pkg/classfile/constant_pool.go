package classfile

import (
	"fmt"
	"io"
	"math"
	"strconv"
)

// ConstantPool is the 1-indexed constant table of a class. Slot 0 and the
// slot following each Long or Double are nil.
type ConstantPool struct {
	constants []Constant
	overflow  bool
}

// NewConstantPool returns a pool holding only the reserved slot 0.
func NewConstantPool() *ConstantPool {
	return &ConstantPool{constants: make([]Constant, 1)}
}

// NewConstantPoolFrom wraps an existing slot array. Slot 0 and the slot
// after each Long or Double must be nil; every other slot must be set.
func NewConstantPoolFrom(constants []Constant) (*ConstantPool, error) {
	if len(constants) == 0 {
		constants = make([]Constant, 1)
	}
	if len(constants) > math.MaxUint16 {
		return nil, formatErrorf("constant pool has more than 65535 slots")
	}
	if err := checkSlots(constants); err != nil {
		return nil, err
	}
	return &ConstantPool{constants: constants}, nil
}

func isWide(c Constant) bool {
	t := c.Tag()
	return t == TagLong || t == TagDouble
}

// checkSlots verifies the two-slot layout of Long and Double entries.
func checkSlots(constants []Constant) error {
	if constants[0] != nil {
		return formatErrorf("constant pool slot 0 must be empty")
	}
	for i := 1; i < len(constants); i++ {
		c := constants[i]
		if c == nil {
			return formatErrorf("constant pool slot %d is empty", i)
		}
		if !isWide(c) {
			continue
		}
		i++
		if i >= len(constants) {
			return formatErrorf("%s at index %d overruns constant pool of %d slots", c.Tag(), i-1, len(constants))
		}
		if constants[i] != nil {
			return formatErrorf("slot %d after %s at index %d must be empty", i, c.Tag(), i-1)
		}
	}
	return nil
}

// readConstantPool reads constant_pool_count and then count-1 entries.
func readConstantPool(r *Reader) (*ConstantPool, error) {
	count, err := r.U2()
	if err != nil {
		return nil, fmt.Errorf("reading constant pool count: %w", err)
	}
	if count == 0 {
		return nil, formatErrorf("constant pool count is 0")
	}
	cp := &ConstantPool{constants: make([]Constant, count)}

	for i := 1; i < int(count); i++ {
		tag, err := r.U1()
		if err != nil {
			return nil, fmt.Errorf("reading constant pool tag at index %d: %w", i, err)
		}
		c, err := readConstant(r, Tag(tag))
		if err != nil {
			return nil, fmt.Errorf("reading %s at index %d: %w", Tag(tag), i, err)
		}
		cp.constants[i] = c

		// long and double take 2 slots
		if tag == uint8(TagLong) || tag == uint8(TagDouble) {
			i++
			if i >= int(count) {
				return nil, formatErrorf("%s at index %d overruns constant pool of %d slots", Tag(tag), i-1, count)
			}
		}
	}
	return cp, nil
}

func readConstant(r *Reader, tag Tag) (Constant, error) {
	switch tag {
	case TagUtf8:
		length, err := r.U2()
		if err != nil {
			return nil, err
		}
		raw, err := r.Bytes(int(length))
		if err != nil {
			return nil, err
		}
		s, err := decodeModifiedUTF8(raw)
		if err != nil {
			return nil, err
		}
		return &ConstantUtf8{Value: s, raw: raw, rawValue: s}, nil

	case TagInteger:
		v, err := r.U4()
		if err != nil {
			return nil, err
		}
		return &ConstantInteger{Value: int32(v)}, nil

	case TagFloat:
		v, err := r.U4()
		if err != nil {
			return nil, err
		}
		return &ConstantFloat{Value: math.Float32frombits(v)}, nil

	case TagLong:
		v, err := r.U8()
		if err != nil {
			return nil, err
		}
		return &ConstantLong{Value: int64(v)}, nil

	case TagDouble:
		v, err := r.U8()
		if err != nil {
			return nil, err
		}
		return &ConstantDouble{Value: math.Float64frombits(v)}, nil

	case TagClass, TagString, TagMethodType, TagModule, TagPackage:
		index, err := r.U2()
		if err != nil {
			return nil, err
		}
		switch tag {
		case TagClass:
			return &ConstantClass{NameIndex: index}, nil
		case TagString:
			return &ConstantString{StringIndex: index}, nil
		case TagMethodType:
			return &ConstantMethodType{DescriptorIndex: index}, nil
		case TagModule:
			return &ConstantModule{NameIndex: index}, nil
		default:
			return &ConstantPackage{NameIndex: index}, nil
		}

	case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
		a, err := r.U2()
		if err != nil {
			return nil, err
		}
		b, err := r.U2()
		if err != nil {
			return nil, err
		}
		switch tag {
		case TagFieldref:
			return NewConstantFieldref(a, b), nil
		case TagMethodref:
			return NewConstantMethodref(a, b), nil
		case TagInterfaceMethodref:
			return NewConstantInterfaceMethodref(a, b), nil
		case TagNameAndType:
			return &ConstantNameAndType{NameIndex: a, DescriptorIndex: b}, nil
		case TagDynamic:
			return &ConstantDynamic{bootstrapRef{BootstrapMethodAttrIndex: a, NameAndTypeIndex: b}}, nil
		default:
			return &ConstantInvokeDynamic{bootstrapRef{BootstrapMethodAttrIndex: a, NameAndTypeIndex: b}}, nil
		}

	case TagMethodHandle:
		kind, err := r.U1()
		if err != nil {
			return nil, err
		}
		index, err := r.U2()
		if err != nil {
			return nil, err
		}
		return &ConstantMethodHandle{ReferenceKind: kind, ReferenceIndex: index}, nil

	default:
		return nil, formatErrorf("invalid constant pool tag %d", uint8(tag))
	}
}

func (cp *ConstantPool) writeTo(w *Writer) {
	if cp.overflow || len(cp.constants) > math.MaxUint16 {
		w.Fail(formatErrorf("constant pool has more than 65535 slots"))
		return
	}
	if err := checkSlots(cp.constants); err != nil {
		w.Fail(err)
		return
	}
	w.U2(uint16(len(cp.constants)))
	for _, c := range cp.constants {
		if c != nil {
			c.writeTo(w)
		}
	}
}

// Size returns the number of bytes the pool occupies in a class file,
// including the count.
func (cp *ConstantPool) Size() int64 {
	w := NewWriter(io.Discard)
	cp.writeTo(w)
	return w.Count()
}

// Len returns constant_pool_count: the number of slots including slot 0.
func (cp *ConstantPool) Len() int { return len(cp.constants) }

// Constants returns the slot array. Callers must keep its length and the
// two-slot layout of Long and Double entries; a broken layout fails the dump.
func (cp *ConstantPool) Constants() []Constant { return cp.constants }

// Constant returns the entry at index.
func (cp *ConstantPool) Constant(index uint16) (Constant, error) {
	if index == 0 || int(index) >= len(cp.constants) {
		return nil, formatErrorf("invalid constant pool index %d (pool has %d slots)", index, len(cp.constants))
	}
	c := cp.constants[index]
	if c == nil {
		return nil, formatErrorf("constant pool index %d is an unusable slot", index)
	}
	return c, nil
}

// ConstantOf returns the entry at index and checks that it carries tag.
func (cp *ConstantPool) ConstantOf(index uint16, tag Tag) (Constant, error) {
	c, err := cp.Constant(index)
	if err != nil {
		return nil, err
	}
	if c.Tag() != tag {
		return nil, formatErrorf("constant pool index %d: expected %s, found %s", index, tag, c.Tag())
	}
	return c, nil
}

// Set replaces the entry at index. The new entry must take as many slots as
// the old one: a Long or Double only replaces a Long or Double, and the
// unusable slot after one can't be set.
func (cp *ConstantPool) Set(index uint16, c Constant) error {
	old, err := cp.Constant(index)
	if err != nil {
		return err
	}
	if c == nil {
		return formatErrorf("can't set constant pool index %d to nil", index)
	}
	if isWide(old) != isWide(c) {
		return formatErrorf("can't replace %s at index %d with %s: slot widths differ", old.Tag(), index, c.Tag())
	}
	cp.constants[index] = c
	return nil
}

// Utf8 returns the string at the given CONSTANT_Utf8 index.
func (cp *ConstantPool) Utf8(index uint16) (string, error) {
	c, err := cp.ConstantOf(index, TagUtf8)
	if err != nil {
		return "", err
	}
	return c.(*ConstantUtf8).Value, nil
}

// ClassName returns the internal class name referenced by a CONSTANT_Class
// entry, e.g. "java/lang/Object".
func (cp *ConstantPool) ClassName(index uint16) (string, error) {
	c, err := cp.ConstantOf(index, TagClass)
	if err != nil {
		return "", err
	}
	return cp.Utf8(c.(*ConstantClass).NameIndex)
}

// NameAndType resolves a CONSTANT_NameAndType entry.
func (cp *ConstantPool) NameAndType(index uint16) (name, descriptor string, err error) {
	c, err := cp.ConstantOf(index, TagNameAndType)
	if err != nil {
		return "", "", err
	}
	nat := c.(*ConstantNameAndType)
	if name, err = cp.Utf8(nat.NameIndex); err != nil {
		return "", "", fmt.Errorf("resolving name: %w", err)
	}
	if descriptor, err = cp.Utf8(nat.DescriptorIndex); err != nil {
		return "", "", fmt.Errorf("resolving descriptor: %w", err)
	}
	return name, descriptor, nil
}

// MemberRef holds a resolved field or method reference.
type MemberRef struct {
	Tag        Tag
	ClassName  string
	Name       string
	Descriptor string
}

func (m *MemberRef) String() string {
	return m.ClassName + "." + m.Name + ":" + m.Descriptor
}

// MemberRef resolves a Fieldref, Methodref or InterfaceMethodref entry.
func (cp *ConstantPool) MemberRef(index uint16) (*MemberRef, error) {
	c, err := cp.Constant(index)
	if err != nil {
		return nil, err
	}
	var ref memberRef
	switch c := c.(type) {
	case *ConstantFieldref:
		ref = c.memberRef
	case *ConstantMethodref:
		ref = c.memberRef
	case *ConstantInterfaceMethodref:
		ref = c.memberRef
	default:
		return nil, formatErrorf("constant pool index %d: expected a member reference, found %s", index, c.Tag())
	}

	className, err := cp.ClassName(ref.ClassIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving %s class: %w", c.Tag(), err)
	}
	name, descriptor, err := cp.NameAndType(ref.NameAndTypeIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving %s name and type: %w", c.Tag(), err)
	}
	return &MemberRef{Tag: c.Tag(), ClassName: className, Name: name, Descriptor: descriptor}, nil
}

// ConstantString returns the string an entry of the given tag refers to:
// the class name of a Class, the text of a String, the name of a Module or
// Package, or the descriptor of a MethodType.
func (cp *ConstantPool) ConstantString(index uint16, tag Tag) (string, error) {
	c, err := cp.ConstantOf(index, tag)
	if err != nil {
		return "", err
	}
	switch c := c.(type) {
	case *ConstantClass:
		return cp.Utf8(c.NameIndex)
	case *ConstantString:
		return cp.Utf8(c.StringIndex)
	case *ConstantMethodType:
		return cp.Utf8(c.DescriptorIndex)
	case *ConstantModule:
		return cp.Utf8(c.NameIndex)
	case *ConstantPackage:
		return cp.Utf8(c.NameIndex)
	case *ConstantUtf8:
		return c.Value, nil
	}
	return "", formatErrorf("%s has no string form", tag)
}

// ConstantToString renders the entry at index in readable form, resolving
// the indices it holds.
func (cp *ConstantPool) ConstantToString(index uint16) (string, error) {
	c, err := cp.Constant(index)
	if err != nil {
		return "", err
	}
	switch c := c.(type) {
	case *ConstantUtf8:
		return c.Value, nil
	case *ConstantInteger:
		return strconv.FormatInt(int64(c.Value), 10), nil
	case *ConstantFloat:
		return strconv.FormatFloat(float64(c.Value), 'g', -1, 32) + "f", nil
	case *ConstantLong:
		return strconv.FormatInt(c.Value, 10) + "L", nil
	case *ConstantDouble:
		return strconv.FormatFloat(c.Value, 'g', -1, 64) + "d", nil
	case *ConstantClass:
		name, err := cp.Utf8(c.NameIndex)
		if err != nil {
			return "", err
		}
		return CompactClassName(name, false), nil
	case *ConstantString:
		s, err := cp.Utf8(c.StringIndex)
		if err != nil {
			return "", err
		}
		return `"` + escapeString(s) + `"`, nil
	case *ConstantNameAndType:
		name, desc, err := cp.NameAndType(index)
		if err != nil {
			return "", err
		}
		return name + " " + desc, nil
	case *ConstantFieldref, *ConstantMethodref, *ConstantInterfaceMethodref:
		ref, err := cp.MemberRef(index)
		if err != nil {
			return "", err
		}
		return CompactClassName(ref.ClassName, false) + "." + ref.Name, nil
	case *ConstantMethodHandle:
		target, err := cp.ConstantToString(c.ReferenceIndex)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s", referenceKindName(c.ReferenceKind), target), nil
	case *ConstantMethodType:
		return cp.Utf8(c.DescriptorIndex)
	case *ConstantDynamic:
		name, desc, err := cp.NameAndType(c.NameAndTypeIndex)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("#%d:%s:%s", c.BootstrapMethodAttrIndex, name, desc), nil
	case *ConstantInvokeDynamic:
		name, desc, err := cp.NameAndType(c.NameAndTypeIndex)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("#%d:%s%s", c.BootstrapMethodAttrIndex, name, desc), nil
	case *ConstantModule:
		return cp.Utf8(c.NameIndex)
	case *ConstantPackage:
		name, err := cp.Utf8(c.NameIndex)
		if err != nil {
			return "", err
		}
		return CompactClassName(name, false), nil
	}
	return "", formatErrorf("unknown constant type %T", c)
}

var referenceKindNames = [...]string{
	"", "REF_getField", "REF_getStatic", "REF_putField", "REF_putStatic",
	"REF_invokeVirtual", "REF_invokeStatic", "REF_invokeSpecial",
	"REF_newInvokeSpecial", "REF_invokeInterface",
}

func referenceKindName(kind uint8) string {
	if int(kind) < len(referenceKindNames) && kind != 0 {
		return referenceKindNames[kind]
	}
	return fmt.Sprintf("REF_<%d>", kind)
}

// Add appends c and returns its index. A Long or Double also reserves the
// following slot. When the pool is full Add returns 0 and the next dump
// fails.
func (cp *ConstantPool) Add(c Constant) uint16 {
	need := 1
	if isWide(c) {
		need = 2
	}
	if len(cp.constants)+need > math.MaxUint16 {
		cp.overflow = true
		return 0
	}
	index := uint16(len(cp.constants))
	cp.constants = append(cp.constants, c)
	if need == 2 {
		cp.constants = append(cp.constants, nil)
	}
	return index
}

func (cp *ConstantPool) lookup(match func(Constant) bool) uint16 {
	for i, c := range cp.constants {
		if c != nil && match(c) {
			return uint16(i)
		}
	}
	return 0
}

// AddUtf8 returns the index of a Utf8 entry holding s, adding one if needed.
func (cp *ConstantPool) AddUtf8(s string) uint16 {
	if i := cp.lookup(func(c Constant) bool {
		u, ok := c.(*ConstantUtf8)
		return ok && u.Value == s
	}); i != 0 {
		return i
	}
	return cp.Add(NewConstantUtf8(s))
}

// AddClass returns the index of a Class entry naming the internal class
// name, adding entries as needed.
func (cp *ConstantPool) AddClass(name string) uint16 {
	nameIndex := cp.AddUtf8(name)
	if i := cp.lookup(func(c Constant) bool {
		k, ok := c.(*ConstantClass)
		return ok && k.NameIndex == nameIndex
	}); i != 0 {
		return i
	}
	return cp.Add(&ConstantClass{NameIndex: nameIndex})
}

// AddString returns the index of a String entry holding s.
func (cp *ConstantPool) AddString(s string) uint16 {
	utf8Index := cp.AddUtf8(s)
	if i := cp.lookup(func(c Constant) bool {
		k, ok := c.(*ConstantString)
		return ok && k.StringIndex == utf8Index
	}); i != 0 {
		return i
	}
	return cp.Add(&ConstantString{StringIndex: utf8Index})
}

// AddInteger returns the index of an Integer entry holding v.
func (cp *ConstantPool) AddInteger(v int32) uint16 {
	if i := cp.lookup(func(c Constant) bool {
		k, ok := c.(*ConstantInteger)
		return ok && k.Value == v
	}); i != 0 {
		return i
	}
	return cp.Add(&ConstantInteger{Value: v})
}

// AddLong returns the index of a Long entry holding v.
func (cp *ConstantPool) AddLong(v int64) uint16 {
	if i := cp.lookup(func(c Constant) bool {
		k, ok := c.(*ConstantLong)
		return ok && k.Value == v
	}); i != 0 {
		return i
	}
	return cp.Add(&ConstantLong{Value: v})
}

// AddNameAndType returns the index of a NameAndType entry.
func (cp *ConstantPool) AddNameAndType(name, descriptor string) uint16 {
	nameIndex := cp.AddUtf8(name)
	descIndex := cp.AddUtf8(descriptor)
	if i := cp.lookup(func(c Constant) bool {
		k, ok := c.(*ConstantNameAndType)
		return ok && k.NameIndex == nameIndex && k.DescriptorIndex == descIndex
	}); i != 0 {
		return i
	}
	return cp.Add(&ConstantNameAndType{NameIndex: nameIndex, DescriptorIndex: descIndex})
}

func (cp *ConstantPool) addMemberRef(tag Tag, class, name, descriptor string) uint16 {
	classIndex := cp.AddClass(class)
	natIndex := cp.AddNameAndType(name, descriptor)
	want := memberRef{ClassIndex: classIndex, NameAndTypeIndex: natIndex}
	if i := cp.lookup(func(c Constant) bool {
		switch c := c.(type) {
		case *ConstantFieldref:
			return tag == TagFieldref && c.memberRef == want
		case *ConstantMethodref:
			return tag == TagMethodref && c.memberRef == want
		case *ConstantInterfaceMethodref:
			return tag == TagInterfaceMethodref && c.memberRef == want
		}
		return false
	}); i != 0 {
		return i
	}
	switch tag {
	case TagFieldref:
		return cp.Add(&ConstantFieldref{want})
	case TagInterfaceMethodref:
		return cp.Add(&ConstantInterfaceMethodref{want})
	default:
		return cp.Add(&ConstantMethodref{want})
	}
}

// AddFieldref returns the index of a Fieldref entry.
func (cp *ConstantPool) AddFieldref(class, name, descriptor string) uint16 {
	return cp.addMemberRef(TagFieldref, class, name, descriptor)
}

// AddMethodref returns the index of a Methodref entry.
func (cp *ConstantPool) AddMethodref(class, name, descriptor string) uint16 {
	return cp.addMemberRef(TagMethodref, class, name, descriptor)
}

// AddInterfaceMethodref returns the index of an InterfaceMethodref entry.
func (cp *ConstantPool) AddInterfaceMethodref(class, name, descriptor string) uint16 {
	return cp.addMemberRef(TagInterfaceMethodref, class, name, descriptor)
}

// Copy returns a deep copy of the pool.
func (cp *ConstantPool) Copy() *ConstantPool {
	constants := make([]Constant, len(cp.constants))
	for i, c := range cp.constants {
		if c != nil {
			constants[i] = c.Copy()
		}
	}
	return &ConstantPool{constants: constants, overflow: cp.overflow}
}

func (cp *ConstantPool) Accept(v Visitor) { v.VisitConstantPool(cp) }
