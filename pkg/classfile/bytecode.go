package classfile

import (
	"fmt"
	"strings"
)

// Opcodes that the decoder or its callers treat specially.
const (
	OpBipush          = 0x10
	OpSipush          = 0x11
	OpLdc             = 0x12
	OpLdcW            = 0x13
	OpLdc2W           = 0x14
	OpIinc            = 0x84
	OpIfeq            = 0x99
	OpJsr             = 0xA8
	OpRet             = 0xA9
	OpTableswitch     = 0xAA
	OpLookupswitch    = 0xAB
	OpGetstatic       = 0xB2
	OpPutstatic       = 0xB3
	OpGetfield        = 0xB4
	OpPutfield        = 0xB5
	OpInvokevirtual   = 0xB6
	OpInvokespecial   = 0xB7
	OpInvokestatic    = 0xB8
	OpInvokeinterface = 0xB9
	OpInvokedynamic   = 0xBA
	OpNew             = 0xBB
	OpNewarray        = 0xBC
	OpAnewarray       = 0xBD
	OpCheckcast       = 0xC0
	OpInstanceof      = 0xC1
	OpWide            = 0xC4
	OpMultianewarray  = 0xC5
	OpIfnull          = 0xC6
	OpIfnonnull       = 0xC7
	OpGotoW           = 0xC8
	OpJsrW            = 0xC9
)

// operand kinds
const (
	opNone       = iota // no operands
	opByte              // signed immediate byte
	opShort             // signed immediate short
	opLocal             // u1 local index, u2 under wide
	opCP1               // u1 constant pool index
	opCP2               // u2 constant pool index
	opBranch2           // s2 branch offset
	opBranch4           // s4 branch offset
	opIinc              // local index and signed constant
	opInterface         // u2 index, count, zero byte
	opIndy              // u2 index, two zero bytes
	opMultiArray        // u2 index, dimensions
	opNewArray          // u1 array type
	opSwitch            // tableswitch or lookupswitch
	opWide              // wide prefix
	opInvalid
)

type opcodeInfo struct {
	name string
	kind int
	size int // operand bytes for fixed-size kinds
}

var opcodes [256]opcodeInfo

func init() {
	for i := range opcodes {
		opcodes[i] = opcodeInfo{name: fmt.Sprintf("<illegal opcode 0x%02x>", i), kind: opInvalid}
	}
	simple := []string{
		"nop", "aconst_null", "iconst_m1", "iconst_0", "iconst_1", "iconst_2", "iconst_3",
		"iconst_4", "iconst_5", "lconst_0", "lconst_1", "fconst_0", "fconst_1", "fconst_2",
		"dconst_0", "dconst_1",
	}
	for i, name := range simple {
		opcodes[i] = opcodeInfo{name: name}
	}
	set := func(op int, name string, kind, size int) { opcodes[op] = opcodeInfo{name, kind, size} }

	set(OpBipush, "bipush", opByte, 1)
	set(OpSipush, "sipush", opShort, 2)
	set(OpLdc, "ldc", opCP1, 1)
	set(OpLdcW, "ldc_w", opCP2, 2)
	set(OpLdc2W, "ldc2_w", opCP2, 2)

	for i, name := range []string{"iload", "lload", "fload", "dload", "aload"} {
		set(0x15+i, name, opLocal, 1)
	}
	for i, name := range []string{"iload", "lload", "fload", "dload", "aload"} {
		for n := 0; n < 4; n++ {
			set(0x1A+4*i+n, fmt.Sprintf("%s_%d", name, n), opNone, 0)
		}
	}
	for i, name := range []string{"iaload", "laload", "faload", "daload", "aaload", "baload", "caload", "saload"} {
		set(0x2E+i, name, opNone, 0)
	}
	for i, name := range []string{"istore", "lstore", "fstore", "dstore", "astore"} {
		set(0x36+i, name, opLocal, 1)
	}
	for i, name := range []string{"istore", "lstore", "fstore", "dstore", "astore"} {
		for n := 0; n < 4; n++ {
			set(0x3B+4*i+n, fmt.Sprintf("%s_%d", name, n), opNone, 0)
		}
	}
	rest := []string{
		"iastore", "lastore", "fastore", "dastore", "aastore", "bastore", "castore", "sastore",
		"pop", "pop2", "dup", "dup_x1", "dup_x2", "dup2", "dup2_x1", "dup2_x2", "swap",
		"iadd", "ladd", "fadd", "dadd", "isub", "lsub", "fsub", "dsub",
		"imul", "lmul", "fmul", "dmul", "idiv", "ldiv", "fdiv", "ddiv",
		"irem", "lrem", "frem", "drem", "ineg", "lneg", "fneg", "dneg",
		"ishl", "lshl", "ishr", "lshr", "iushr", "lushr", "iand", "land", "ior", "lor", "ixor", "lxor",
	}
	for i, name := range rest {
		set(0x4F+i, name, opNone, 0)
	}
	set(OpIinc, "iinc", opIinc, 2)
	conv := []string{
		"i2l", "i2f", "i2d", "l2i", "l2f", "l2d", "f2i", "f2l", "f2d", "d2i", "d2l", "d2f",
		"i2b", "i2c", "i2s", "lcmp", "fcmpl", "fcmpg", "dcmpl", "dcmpg",
	}
	for i, name := range conv {
		set(0x85+i, name, opNone, 0)
	}
	branches := []string{
		"ifeq", "ifne", "iflt", "ifge", "ifgt", "ifle", "if_icmpeq", "if_icmpne", "if_icmplt",
		"if_icmpge", "if_icmpgt", "if_icmple", "if_acmpeq", "if_acmpne", "goto", "jsr",
	}
	for i, name := range branches {
		set(OpIfeq+i, name, opBranch2, 2)
	}
	set(OpRet, "ret", opLocal, 1)
	set(OpTableswitch, "tableswitch", opSwitch, 0)
	set(OpLookupswitch, "lookupswitch", opSwitch, 0)
	for i, name := range []string{"ireturn", "lreturn", "freturn", "dreturn", "areturn", "return"} {
		set(0xAC+i, name, opNone, 0)
	}
	for i, name := range []string{"getstatic", "putstatic", "getfield", "putfield", "invokevirtual", "invokespecial", "invokestatic"} {
		set(OpGetstatic+i, name, opCP2, 2)
	}
	set(OpInvokeinterface, "invokeinterface", opInterface, 4)
	set(OpInvokedynamic, "invokedynamic", opIndy, 4)
	set(OpNew, "new", opCP2, 2)
	set(OpNewarray, "newarray", opNewArray, 1)
	set(OpAnewarray, "anewarray", opCP2, 2)
	set(0xBE, "arraylength", opNone, 0)
	set(0xBF, "athrow", opNone, 0)
	set(OpCheckcast, "checkcast", opCP2, 2)
	set(OpInstanceof, "instanceof", opCP2, 2)
	set(0xC2, "monitorenter", opNone, 0)
	set(0xC3, "monitorexit", opNone, 0)
	set(OpWide, "wide", opWide, 0)
	set(OpMultianewarray, "multianewarray", opMultiArray, 3)
	set(OpIfnull, "ifnull", opBranch2, 2)
	set(OpIfnonnull, "ifnonnull", opBranch2, 2)
	set(OpGotoW, "goto_w", opBranch4, 4)
	set(OpJsrW, "jsr_w", opBranch4, 4)
	set(0xCA, "breakpoint", opNone, 0)
	set(0xFE, "impdep1", opNone, 0)
	set(0xFF, "impdep2", opNone, 0)
}

// Mnemonic returns the name of opcode op.
func Mnemonic(op uint8) string { return opcodes[op].name }

// SwitchTable holds the decoded operands of tableswitch and lookupswitch.
// Targets are absolute code offsets. For tableswitch, Keys runs from Low
// to High.
type SwitchTable struct {
	Default int
	Keys    []int32
	Targets []int
}

// Instruction is one decoded instruction. Operands are the raw bytes after
// the opcode, or after the modified opcode for wide, excluding switch
// padding.
type Instruction struct {
	PC       int
	Opcode   uint8
	Wide     bool
	Length   int
	Operands []byte
	Switch   *SwitchTable
}

func (in *Instruction) Mnemonic() string { return Mnemonic(in.Opcode) }

// Index returns the constant pool or local variable index operand.
func (in *Instruction) Index() int {
	switch opcodes[in.Opcode].kind {
	case opCP1, opNewArray:
		return int(in.Operands[0])
	case opLocal, opIinc:
		if in.Wide {
			return int(in.Operands[0])<<8 | int(in.Operands[1])
		}
		return int(in.Operands[0])
	case opCP2, opInterface, opIndy, opMultiArray:
		return int(in.Operands[0])<<8 | int(in.Operands[1])
	}
	return -1
}

// Immediate returns the signed constant of bipush, sipush and iinc.
func (in *Instruction) Immediate() int {
	switch in.Opcode {
	case OpBipush:
		return int(int8(in.Operands[0]))
	case OpSipush:
		return int(int16(uint16(in.Operands[0])<<8 | uint16(in.Operands[1])))
	case OpIinc:
		if in.Wide {
			return int(int16(uint16(in.Operands[2])<<8 | uint16(in.Operands[3])))
		}
		return int(int8(in.Operands[1]))
	}
	return 0
}

// Target returns the absolute branch target, or -1 when in is not a
// branch.
func (in *Instruction) Target() int {
	switch opcodes[in.Opcode].kind {
	case opBranch2:
		return in.PC + int(int16(uint16(in.Operands[0])<<8|uint16(in.Operands[1])))
	case opBranch4:
		return in.PC + int(readI32(in.Operands))
	}
	return -1
}

// IsInvoke reports whether in is one of the invoke instructions.
func (in *Instruction) IsInvoke() bool {
	return in.Opcode >= OpInvokevirtual && in.Opcode <= OpInvokedynamic
}

func readI32(b []byte) int32 {
	return int32(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
}

// codeReader walks a bytecode array.
type codeReader struct {
	code []byte
	pc   int
}

func (c *codeReader) need(n int) error {
	if c.pc+n > len(c.code) {
		return formatErrorf("instruction operands run past end of code at offset %d", c.pc)
	}
	return nil
}

func (c *codeReader) readU8() uint8 {
	v := c.code[c.pc]
	c.pc++
	return v
}

func (c *codeReader) readBytes(n int) []byte {
	b := c.code[c.pc : c.pc+n]
	c.pc += n
	return b
}

func (c *codeReader) readI32() int32 {
	v := readI32(c.code[c.pc:])
	c.pc += 4
	return v
}

// DecodeInstructions splits code into instructions. An undefined opcode,
// a wide prefix on an opcode that cannot take one, or a truncated operand
// is a format error.
func DecodeInstructions(code []byte) ([]Instruction, error) {
	var out []Instruction
	c := &codeReader{code: code}
	for c.pc < len(code) {
		in, err := c.next()
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func (c *codeReader) next() (Instruction, error) {
	in := Instruction{PC: c.pc}
	in.Opcode = c.readU8()
	info := opcodes[in.Opcode]

	switch info.kind {
	case opInvalid:
		return in, formatErrorf("invalid opcode 0x%02x at offset %d", in.Opcode, in.PC)

	case opWide:
		if err := c.need(1); err != nil {
			return in, err
		}
		in.Wide = true
		in.Opcode = c.readU8()
		n := 2
		switch opcodes[in.Opcode].kind {
		case opLocal:
		case opIinc:
			n = 4
		default:
			return in, formatErrorf("wide applied to %s at offset %d", Mnemonic(in.Opcode), in.PC)
		}
		if err := c.need(n); err != nil {
			return in, err
		}
		in.Operands = c.readBytes(n)

	case opSwitch:
		// padding to align to 4-byte boundary
		for c.pc%4 != 0 {
			if err := c.need(1); err != nil {
				return in, err
			}
			c.pc++
		}
		if err := c.need(8); err != nil {
			return in, err
		}
		st := &SwitchTable{Default: in.PC + int(c.readI32())}
		if in.Opcode == OpTableswitch {
			low := c.readI32()
			if err := c.need(4); err != nil {
				return in, err
			}
			high := c.readI32()
			if high < low {
				return in, formatErrorf("tableswitch at offset %d has high %d below low %d", in.PC, high, low)
			}
			n := int(int64(high) - int64(low) + 1)
			if err := c.need(4 * n); err != nil {
				return in, err
			}
			for i := 0; i < n; i++ {
				st.Keys = append(st.Keys, low+int32(i))
				st.Targets = append(st.Targets, in.PC+int(c.readI32()))
			}
		} else {
			npairs := c.readI32()
			if npairs < 0 {
				return in, formatErrorf("lookupswitch at offset %d has %d pairs", in.PC, npairs)
			}
			if err := c.need(8 * int(npairs)); err != nil {
				return in, err
			}
			for i := int32(0); i < npairs; i++ {
				st.Keys = append(st.Keys, c.readI32())
				st.Targets = append(st.Targets, in.PC+int(c.readI32()))
			}
		}
		in.Switch = st

	default:
		if err := c.need(info.size); err != nil {
			return in, err
		}
		in.Operands = c.readBytes(info.size)
	}
	in.Length = c.pc - in.PC
	return in, nil
}

var arrayTypeNames = map[int]string{
	4: "boolean", 5: "char", 6: "float", 7: "double",
	8: "byte", 9: "short", 10: "int", 11: "long",
}

func constantOperand(cp *ConstantPool, index int) string {
	if cp == nil {
		return fmt.Sprintf("#%d", index)
	}
	s, err := cp.ConstantToString(uint16(index))
	if err != nil {
		return fmt.Sprintf("#%d <invalid>", index)
	}
	return fmt.Sprintf("#%d\t// %s", index, s)
}

// String renders the instruction without resolving constants.
func (in *Instruction) String() string { return in.format(nil) }

func (in *Instruction) format(cp *ConstantPool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d: ", in.PC)
	if in.Wide {
		sb.WriteString("wide ")
	}
	sb.WriteString(in.Mnemonic())

	switch opcodes[in.Opcode].kind {
	case opByte, opShort:
		fmt.Fprintf(&sb, " %d", in.Immediate())
	case opLocal:
		fmt.Fprintf(&sb, " %d", in.Index())
	case opIinc:
		fmt.Fprintf(&sb, " %d by %d", in.Index(), in.Immediate())
	case opCP1, opCP2, opIndy:
		sb.WriteString(" " + constantOperand(cp, in.Index()))
	case opInterface:
		fmt.Fprintf(&sb, " %s, %d", constantOperand(cp, in.Index()), in.Operands[2])
	case opMultiArray:
		fmt.Fprintf(&sb, " %s, %d", constantOperand(cp, in.Index()), in.Operands[2])
	case opNewArray:
		name, ok := arrayTypeNames[in.Index()]
		if !ok {
			name = fmt.Sprintf("<type %d>", in.Index())
		}
		sb.WriteString(" " + name)
	case opBranch2, opBranch4:
		fmt.Fprintf(&sb, " %d", in.Target())
	case opSwitch:
		sb.WriteString(" {")
		for i, k := range in.Switch.Keys {
			fmt.Fprintf(&sb, " %d: %d;", k, in.Switch.Targets[i])
		}
		fmt.Fprintf(&sb, " default: %d }", in.Switch.Default)
	}
	return sb.String()
}

// CodeToString returns a listing of code with one instruction per line,
// resolving constant pool operands through cp.
func CodeToString(code []byte, cp *ConstantPool) (string, error) {
	insns, err := DecodeInstructions(code)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for i := range insns {
		sb.WriteString(insns[i].format(cp))
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
