package classfile

import (
	"fmt"
	"math"
	"strings"
)

// Code holds a method's bytecode, its exception table and nested attributes
// such as LineNumberTable and LocalVariableTable.
type Code struct {
	AttributeHeader
	MaxStack       uint16
	MaxLocals      uint16
	Bytecode       []byte
	ExceptionTable []*CodeException
	Attributes     []Attribute
}

func (a *Code) Kind() AttributeKind { return KindCode }
func (a *Code) Accept(v Visitor)    { v.VisitCode(a) }

// Length is max_stack, max_locals, code_length and the two table counts
// plus the code, 8 bytes per exception entry and each nested attribute
// with its header.
func (a *Code) Length() uint32 {
	return 12 + uint32(len(a.Bytecode)) + 8*uint32(len(a.ExceptionTable)) + attributesLength(a.Attributes)
}

func (a *Code) WriteInfo(w *Writer) {
	if uint64(len(a.Bytecode)) > math.MaxUint32 {
		w.Fail(formatErrorf("code of %d bytes is too long", len(a.Bytecode)))
		return
	}
	if len(a.ExceptionTable) > math.MaxUint16 {
		w.Fail(formatErrorf("exception table of %d entries exceeds 65535", len(a.ExceptionTable)))
		return
	}
	w.U2(a.MaxStack)
	w.U2(a.MaxLocals)
	w.U4(uint32(len(a.Bytecode)))
	w.Bytes(a.Bytecode)
	w.U2(uint16(len(a.ExceptionTable)))
	for _, e := range a.ExceptionTable {
		e.writeTo(w)
	}
	writeAttributes(w, a.Attributes)
}

func (a *Code) Copy() Attribute {
	c := *a
	c.Bytecode = append([]byte(nil), a.Bytecode...)
	if a.ExceptionTable != nil {
		c.ExceptionTable = make([]*CodeException, len(a.ExceptionTable))
		for i, e := range a.ExceptionTable {
			c.ExceptionTable[i] = e.Copy()
		}
	}
	c.Attributes = copyAttributes(a.Attributes)
	return &c
}

// Attribute returns the first nested attribute of the given kind.
func (a *Code) Attribute(kind AttributeKind) Attribute {
	return findAttribute(a.Attributes, kind)
}

// LineNumberTable returns the nested LineNumberTable or nil.
func (a *Code) LineNumberTable() *LineNumberTable {
	t, _ := a.Attribute(KindLineNumberTable).(*LineNumberTable)
	return t
}

// LocalVariableTable returns the nested LocalVariableTable or nil.
func (a *Code) LocalVariableTable() *LocalVariableTable {
	t, _ := a.Attribute(KindLocalVariableTable).(*LocalVariableTable)
	return t
}

// LocalVariableTypeTable returns the nested LocalVariableTypeTable or nil.
func (a *Code) LocalVariableTypeTable() *LocalVariableTypeTable {
	t, _ := a.Attribute(KindLocalVariableTypeTable).(*LocalVariableTypeTable)
	return t
}

// Instructions decodes the bytecode into instructions.
func (a *Code) Instructions() ([]Instruction, error) {
	return DecodeInstructions(a.Bytecode)
}

// ToString renders the code listing followed by the exception table.
func (a *Code) ToString(cp *ConstantPool) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Code(max_stack = %d, max_locals = %d, code_length = %d)\n", a.MaxStack, a.MaxLocals, len(a.Bytecode))
	listing, err := CodeToString(a.Bytecode, cp)
	if err != nil {
		return "", err
	}
	sb.WriteString(listing)
	if len(a.ExceptionTable) > 0 {
		sb.WriteString("\nException handler(s) = \nFrom\tTo\tHandler\tType\n")
		for _, e := range a.ExceptionTable {
			s, err := e.ToString(cp)
			if err != nil {
				return "", err
			}
			sb.WriteString(s)
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

func (p *parser) readCode(h AttributeHeader, _ uint32, r *Reader, cp *ConstantPool) (Attribute, error) {
	a := &Code{AttributeHeader: h}
	var err error
	if a.MaxStack, err = r.U2(); err != nil {
		return nil, err
	}
	if a.MaxLocals, err = r.U2(); err != nil {
		return nil, err
	}
	codeLength, err := r.U4()
	if err != nil {
		return nil, err
	}
	if a.Bytecode, err = r.Bytes(int(codeLength)); err != nil {
		return nil, fmt.Errorf("reading bytecode: %w", err)
	}

	count, err := r.U2()
	if err != nil {
		return nil, fmt.Errorf("reading exception table length: %w", err)
	}
	a.ExceptionTable = make([]*CodeException, count)
	for i := range a.ExceptionTable {
		e, err := readCodeException(r)
		if err != nil {
			return nil, fmt.Errorf("reading exception table entry %d: %w", i, err)
		}
		a.ExceptionTable[i] = e
	}

	if a.Attributes, err = p.readAttributes(r, cp); err != nil {
		return nil, err
	}
	return a, nil
}

// CodeException is one exception table entry. EndPC is exclusive and a
// CatchType of 0 catches everything.
type CodeException struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

func (e *CodeException) Accept(v Visitor)     { v.VisitCodeException(e) }
func (e *CodeException) Copy() *CodeException { c := *e; return &c }

// ToString renders the entry as "start end handler type".
func (e *CodeException) ToString(cp *ConstantPool) (string, error) {
	catch := "<Any exception>"
	if e.CatchType != 0 {
		name, err := cp.ClassName(e.CatchType)
		if err != nil {
			return "", err
		}
		catch = CompactClassName(name, false) + "(" + fmt.Sprint(e.CatchType) + ")"
	}
	return fmt.Sprintf("%d\t%d\t%d\t%s", e.StartPC, e.EndPC, e.HandlerPC, catch), nil
}

func (e *CodeException) writeTo(w *Writer) {
	w.U2(e.StartPC)
	w.U2(e.EndPC)
	w.U2(e.HandlerPC)
	w.U2(e.CatchType)
}

func readCodeException(r *Reader) (*CodeException, error) {
	var e CodeException
	var err error
	if e.StartPC, err = r.U2(); err != nil {
		return nil, err
	}
	if e.EndPC, err = r.U2(); err != nil {
		return nil, err
	}
	if e.HandlerPC, err = r.U2(); err != nil {
		return nil, err
	}
	if e.CatchType, err = r.U2(); err != nil {
		return nil, err
	}
	if e.StartPC > e.EndPC {
		return nil, formatErrorf("exception range start_pc %d is past end_pc %d", e.StartPC, e.EndPC)
	}
	return &e, nil
}
