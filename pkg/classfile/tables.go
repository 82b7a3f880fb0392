package classfile

import (
	"fmt"
	"math"
	"sort"
)

func checkCount(w *Writer, what string, n int) bool {
	if n > math.MaxUint16 {
		w.Fail(formatErrorf("%s of %d entries exceeds 65535", what, n))
		return false
	}
	return true
}

// LineNumber maps the instruction at StartPC to a source line.
type LineNumber struct {
	StartPC    uint16
	LineNumber uint16
}

func (l *LineNumber) Accept(v Visitor) { v.VisitLineNumber(l) }

// LineNumberTable lists (start_pc, line) pairs. Entries keep the order they
// were read in, which javac does not always sort.
type LineNumberTable struct {
	AttributeHeader
	Entries []*LineNumber
}

func (a *LineNumberTable) Kind() AttributeKind { return KindLineNumberTable }
func (a *LineNumberTable) Length() uint32      { return 2 + 4*uint32(len(a.Entries)) }
func (a *LineNumberTable) Accept(v Visitor)    { v.VisitLineNumberTable(a) }

func (a *LineNumberTable) Copy() Attribute {
	c := *a
	c.Entries = make([]*LineNumber, len(a.Entries))
	for i, e := range a.Entries {
		ln := *e
		c.Entries[i] = &ln
	}
	return &c
}

func (a *LineNumberTable) WriteInfo(w *Writer) {
	if !checkCount(w, "line number table", len(a.Entries)) {
		return
	}
	w.U2(uint16(len(a.Entries)))
	for _, e := range a.Entries {
		w.U2(e.StartPC)
		w.U2(e.LineNumber)
	}
}

// Sort orders the entries by StartPC.
func (a *LineNumberTable) Sort() {
	sort.SliceStable(a.Entries, func(i, j int) bool {
		return a.Entries[i].StartPC < a.Entries[j].StartPC
	})
}

// SourceLine returns the line of the last entry whose StartPC is at or
// before pc, or -1 when pc precedes every entry or the table is empty.
func (a *LineNumberTable) SourceLine(pc int) int {
	var best *LineNumber
	for _, e := range a.Entries {
		if int(e.StartPC) <= pc && (best == nil || e.StartPC > best.StartPC) {
			best = e
		}
	}
	if best == nil {
		return -1
	}
	return int(best.LineNumber)
}

func readLineNumberTable(h AttributeHeader, _ uint32, r *Reader, _ *ConstantPool) (Attribute, error) {
	n, err := r.U2()
	if err != nil {
		return nil, err
	}
	a := &LineNumberTable{AttributeHeader: h, Entries: make([]*LineNumber, n)}
	for i := range a.Entries {
		var e LineNumber
		if e.StartPC, err = r.U2(); err != nil {
			return nil, err
		}
		if e.LineNumber, err = r.U2(); err != nil {
			return nil, err
		}
		a.Entries[i] = &e
	}
	return a, nil
}

// LocalVariable describes the live range and frame slot of one local. In a
// LocalVariableTypeTable SignatureIndex names a generic signature instead of
// a descriptor.
type LocalVariable struct {
	StartPC        uint16
	Length         uint16
	NameIndex      uint16
	SignatureIndex uint16
	Index          uint16
}

func (l *LocalVariable) Accept(v Visitor) { v.VisitLocalVariable(l) }

// Name resolves the variable name.
func (l *LocalVariable) Name(cp *ConstantPool) (string, error) { return cp.Utf8(l.NameIndex) }

// Signature resolves the descriptor or generic signature.
func (l *LocalVariable) Signature(cp *ConstantPool) (string, error) {
	return cp.Utf8(l.SignatureIndex)
}

// ToString renders the variable the way listings show it.
func (l *LocalVariable) ToString(cp *ConstantPool) (string, error) {
	name, err := l.Name(cp)
	if err != nil {
		return "", err
	}
	sig, err := l.Signature(cp)
	if err != nil {
		return "", err
	}
	typ, err := SignatureToString(sig, false)
	if err != nil {
		typ = sig
	}
	return fmt.Sprintf("LocalVariable(start_pc = %d, length = %d, index = %d:%s %s)", l.StartPC, l.Length, l.Index, typ, name), nil
}

func readLocalVariables(r *Reader) ([]*LocalVariable, error) {
	n, err := r.U2()
	if err != nil {
		return nil, err
	}
	vars := make([]*LocalVariable, n)
	for i := range vars {
		var v LocalVariable
		for _, p := range []*uint16{&v.StartPC, &v.Length, &v.NameIndex, &v.SignatureIndex, &v.Index} {
			if *p, err = r.U2(); err != nil {
				return nil, err
			}
		}
		vars[i] = &v
	}
	return vars, nil
}

func writeLocalVariables(w *Writer, what string, vars []*LocalVariable) {
	if !checkCount(w, what, len(vars)) {
		return
	}
	w.U2(uint16(len(vars)))
	for _, v := range vars {
		w.U2(v.StartPC)
		w.U2(v.Length)
		w.U2(v.NameIndex)
		w.U2(v.SignatureIndex)
		w.U2(v.Index)
	}
}

func copyLocalVariables(vars []*LocalVariable) []*LocalVariable {
	out := make([]*LocalVariable, len(vars))
	for i, v := range vars {
		c := *v
		out[i] = &c
	}
	return out
}

// LocalVariableTable lists local variable descriptors for a Code attribute.
type LocalVariableTable struct {
	AttributeHeader
	Entries []*LocalVariable
}

func (a *LocalVariableTable) Kind() AttributeKind { return KindLocalVariableTable }
func (a *LocalVariableTable) Length() uint32      { return 2 + 10*uint32(len(a.Entries)) }
func (a *LocalVariableTable) Accept(v Visitor)    { v.VisitLocalVariableTable(a) }
func (a *LocalVariableTable) WriteInfo(w *Writer) {
	writeLocalVariables(w, "local variable table", a.Entries)
}

func (a *LocalVariableTable) Copy() Attribute {
	c := *a
	c.Entries = copyLocalVariables(a.Entries)
	return &c
}

// Lookup returns the variable in slot index live at pc, or nil.
func (a *LocalVariableTable) Lookup(index, pc int) *LocalVariable {
	for _, v := range a.Entries {
		if int(v.Index) == index && pc >= int(v.StartPC) && pc < int(v.StartPC)+int(v.Length) {
			return v
		}
	}
	return nil
}

func readLocalVariableTable(h AttributeHeader, _ uint32, r *Reader, _ *ConstantPool) (Attribute, error) {
	vars, err := readLocalVariables(r)
	if err != nil {
		return nil, err
	}
	return &LocalVariableTable{AttributeHeader: h, Entries: vars}, nil
}

// LocalVariableTypeTable is the generic-signature counterpart of
// LocalVariableTable.
type LocalVariableTypeTable struct {
	AttributeHeader
	Entries []*LocalVariable
}

func (a *LocalVariableTypeTable) Kind() AttributeKind { return KindLocalVariableTypeTable }
func (a *LocalVariableTypeTable) Length() uint32      { return 2 + 10*uint32(len(a.Entries)) }
func (a *LocalVariableTypeTable) Accept(v Visitor)    { v.VisitLocalVariableTypeTable(a) }
func (a *LocalVariableTypeTable) WriteInfo(w *Writer) {
	writeLocalVariables(w, "local variable type table", a.Entries)
}

func (a *LocalVariableTypeTable) Copy() Attribute {
	c := *a
	c.Entries = copyLocalVariables(a.Entries)
	return &c
}

func readLocalVariableTypeTable(h AttributeHeader, _ uint32, r *Reader, _ *ConstantPool) (Attribute, error) {
	vars, err := readLocalVariables(r)
	if err != nil {
		return nil, err
	}
	return &LocalVariableTypeTable{AttributeHeader: h, Entries: vars}, nil
}

// InnerClass is one entry of an InnerClasses attribute. OuterClassIndex and
// InnerNameIndex are 0 for local and anonymous classes.
type InnerClass struct {
	InnerClassIndex  uint16
	OuterClassIndex  uint16
	InnerNameIndex   uint16
	InnerAccessFlags AccessFlags
}

func (c *InnerClass) Accept(v Visitor) { v.VisitInnerClass(c) }

// InnerClasses records the nested classes a class refers to.
type InnerClasses struct {
	AttributeHeader
	Classes []*InnerClass
}

func (a *InnerClasses) Kind() AttributeKind { return KindInnerClasses }
func (a *InnerClasses) Length() uint32      { return 2 + 8*uint32(len(a.Classes)) }
func (a *InnerClasses) Accept(v Visitor)    { v.VisitInnerClasses(a) }

func (a *InnerClasses) Copy() Attribute {
	c := *a
	c.Classes = make([]*InnerClass, len(a.Classes))
	for i, ic := range a.Classes {
		cc := *ic
		c.Classes[i] = &cc
	}
	return &c
}

func (a *InnerClasses) WriteInfo(w *Writer) {
	if !checkCount(w, "inner classes", len(a.Classes)) {
		return
	}
	w.U2(uint16(len(a.Classes)))
	for _, c := range a.Classes {
		w.U2(c.InnerClassIndex)
		w.U2(c.OuterClassIndex)
		w.U2(c.InnerNameIndex)
		w.U2(uint16(c.InnerAccessFlags))
	}
}

func readInnerClasses(h AttributeHeader, _ uint32, r *Reader, _ *ConstantPool) (Attribute, error) {
	n, err := r.U2()
	if err != nil {
		return nil, err
	}
	a := &InnerClasses{AttributeHeader: h, Classes: make([]*InnerClass, n)}
	for i := range a.Classes {
		var c InnerClass
		var flags uint16
		for _, p := range []*uint16{&c.InnerClassIndex, &c.OuterClassIndex, &c.InnerNameIndex, &flags} {
			if *p, err = r.U2(); err != nil {
				return nil, err
			}
		}
		c.InnerAccessFlags = AccessFlags(flags)
		a.Classes[i] = &c
	}
	return a, nil
}

// Verification type item tags used by StackMap.
const (
	ItemBogus   uint8 = 0
	ItemInteger uint8 = 1
	ItemFloat   uint8 = 2
	ItemDouble  uint8 = 3
	ItemLong    uint8 = 4
	ItemNull    uint8 = 5
	ItemInitObj uint8 = 6
	ItemObject  uint8 = 7
	ItemNewObj  uint8 = 8
)

// StackMapType is one verification type. Index is a class constant for
// ItemObject and the offset of the new instruction for ItemNewObj; other
// tags carry no index.
type StackMapType struct {
	Tag   uint8
	Index uint16
}

func (t StackMapType) hasIndex() bool { return t.Tag == ItemObject || t.Tag == ItemNewObj }

func (t StackMapType) size() uint32 {
	if t.hasIndex() {
		return 3
	}
	return 1
}

// StackMapEntry is the frame state at one bytecode offset.
type StackMapEntry struct {
	ByteCodeOffset uint16
	Locals         []StackMapType
	Stack          []StackMapType
}

func (e *StackMapEntry) Accept(v Visitor) { v.VisitStackMapEntry(e) }

func (e *StackMapEntry) length() uint32 {
	n := uint32(6)
	for _, t := range e.Locals {
		n += t.size()
	}
	for _, t := range e.Stack {
		n += t.size()
	}
	return n
}

// StackMap is the CLDC stack map attribute found in Code.
type StackMap struct {
	AttributeHeader
	Entries []*StackMapEntry
}

func (a *StackMap) Kind() AttributeKind { return KindStackMap }
func (a *StackMap) Accept(v Visitor)    { v.VisitStackMap(a) }

func (a *StackMap) Length() uint32 {
	n := uint32(2)
	for _, e := range a.Entries {
		n += e.length()
	}
	return n
}

func (a *StackMap) Copy() Attribute {
	c := *a
	c.Entries = make([]*StackMapEntry, len(a.Entries))
	for i, e := range a.Entries {
		c.Entries[i] = &StackMapEntry{
			ByteCodeOffset: e.ByteCodeOffset,
			Locals:         append([]StackMapType(nil), e.Locals...),
			Stack:          append([]StackMapType(nil), e.Stack...),
		}
	}
	return &c
}

func writeStackMapTypes(w *Writer, types []StackMapType) {
	if !checkCount(w, "stack map types", len(types)) {
		return
	}
	w.U2(uint16(len(types)))
	for _, t := range types {
		w.U1(t.Tag)
		if t.hasIndex() {
			w.U2(t.Index)
		}
	}
}

func (a *StackMap) WriteInfo(w *Writer) {
	if !checkCount(w, "stack map", len(a.Entries)) {
		return
	}
	w.U2(uint16(len(a.Entries)))
	for _, e := range a.Entries {
		w.U2(e.ByteCodeOffset)
		writeStackMapTypes(w, e.Locals)
		writeStackMapTypes(w, e.Stack)
	}
}

func readStackMapTypes(r *Reader) ([]StackMapType, error) {
	n, err := r.U2()
	if err != nil {
		return nil, err
	}
	types := make([]StackMapType, n)
	for i := range types {
		if types[i].Tag, err = r.U1(); err != nil {
			return nil, err
		}
		if types[i].Tag > ItemNewObj {
			return nil, formatErrorf("invalid stack map item tag %d", types[i].Tag)
		}
		if types[i].hasIndex() {
			if types[i].Index, err = r.U2(); err != nil {
				return nil, err
			}
		}
	}
	return types, nil
}

func readStackMap(h AttributeHeader, _ uint32, r *Reader, _ *ConstantPool) (Attribute, error) {
	n, err := r.U2()
	if err != nil {
		return nil, err
	}
	a := &StackMap{AttributeHeader: h, Entries: make([]*StackMapEntry, n)}
	for i := range a.Entries {
		e := &StackMapEntry{}
		if e.ByteCodeOffset, err = r.U2(); err != nil {
			return nil, err
		}
		if e.Locals, err = readStackMapTypes(r); err != nil {
			return nil, fmt.Errorf("reading locals of stack map entry %d: %w", i, err)
		}
		if e.Stack, err = readStackMapTypes(r); err != nil {
			return nil, fmt.Errorf("reading stack of stack map entry %d: %w", i, err)
		}
		a.Entries[i] = e
	}
	return a, nil
}

// BootstrapMethod is one entry of a BootstrapMethods attribute.
type BootstrapMethod struct {
	MethodRef uint16
	Arguments []uint16
}

func (b *BootstrapMethod) Accept(v Visitor) { v.VisitBootstrapMethod(b) }

// BootstrapMethods holds the bootstrap specifiers referenced by
// invokedynamic and dynamic constants.
type BootstrapMethods struct {
	AttributeHeader
	Methods []*BootstrapMethod
}

func (a *BootstrapMethods) Kind() AttributeKind { return KindBootstrapMethods }
func (a *BootstrapMethods) Accept(v Visitor)    { v.VisitBootstrapMethods(a) }

func (a *BootstrapMethods) Length() uint32 {
	n := uint32(2)
	for _, m := range a.Methods {
		n += 4 + 2*uint32(len(m.Arguments))
	}
	return n
}

func (a *BootstrapMethods) Copy() Attribute {
	c := *a
	c.Methods = make([]*BootstrapMethod, len(a.Methods))
	for i, m := range a.Methods {
		c.Methods[i] = &BootstrapMethod{MethodRef: m.MethodRef, Arguments: append([]uint16(nil), m.Arguments...)}
	}
	return &c
}

func (a *BootstrapMethods) WriteInfo(w *Writer) {
	if !checkCount(w, "bootstrap methods", len(a.Methods)) {
		return
	}
	w.U2(uint16(len(a.Methods)))
	for _, m := range a.Methods {
		w.U2(m.MethodRef)
		writeIndexList(w, m.Arguments)
	}
}

func readBootstrapMethods(h AttributeHeader, _ uint32, r *Reader, _ *ConstantPool) (Attribute, error) {
	n, err := r.U2()
	if err != nil {
		return nil, err
	}
	a := &BootstrapMethods{AttributeHeader: h, Methods: make([]*BootstrapMethod, n)}
	for i := range a.Methods {
		m := &BootstrapMethod{}
		if m.MethodRef, err = r.U2(); err != nil {
			return nil, err
		}
		if m.Arguments, err = readIndexList(r); err != nil {
			return nil, fmt.Errorf("reading arguments of bootstrap method %d: %w", i, err)
		}
		a.Methods[i] = m
	}
	return a, nil
}

// MethodParameter names one formal parameter. NameIndex may be 0.
type MethodParameter struct {
	NameIndex   uint16
	AccessFlags AccessFlags
}

func (p *MethodParameter) Accept(v Visitor) { v.VisitMethodParameter(p) }

// MethodParameters records parameter names and flags. Its count is a u1.
type MethodParameters struct {
	AttributeHeader
	Parameters []*MethodParameter
}

func (a *MethodParameters) Kind() AttributeKind { return KindMethodParameters }
func (a *MethodParameters) Length() uint32      { return 1 + 4*uint32(len(a.Parameters)) }
func (a *MethodParameters) Accept(v Visitor)    { v.VisitMethodParameters(a) }

func (a *MethodParameters) Copy() Attribute {
	c := *a
	c.Parameters = make([]*MethodParameter, len(a.Parameters))
	for i, p := range a.Parameters {
		pp := *p
		c.Parameters[i] = &pp
	}
	return &c
}

func (a *MethodParameters) WriteInfo(w *Writer) {
	if len(a.Parameters) > math.MaxUint8 {
		w.Fail(formatErrorf("%d method parameters exceed 255", len(a.Parameters)))
		return
	}
	w.U1(uint8(len(a.Parameters)))
	for _, p := range a.Parameters {
		w.U2(p.NameIndex)
		w.U2(uint16(p.AccessFlags))
	}
}

func readMethodParameters(h AttributeHeader, _ uint32, r *Reader, _ *ConstantPool) (Attribute, error) {
	n, err := r.U1()
	if err != nil {
		return nil, err
	}
	a := &MethodParameters{AttributeHeader: h, Parameters: make([]*MethodParameter, n)}
	for i := range a.Parameters {
		name, err := r.U2()
		if err != nil {
			return nil, err
		}
		flags, err := r.U2()
		if err != nil {
			return nil, err
		}
		a.Parameters[i] = &MethodParameter{NameIndex: name, AccessFlags: AccessFlags(flags)}
	}
	return a, nil
}
