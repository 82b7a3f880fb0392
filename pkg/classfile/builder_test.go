package classfile

import (
	"bytes"
	"encoding/binary"
	"math"
)

// builder assembles class file bytes by hand for tests.
type builder struct {
	buf bytes.Buffer
}

func (b *builder) u1(v uint8) *builder {
	b.buf.WriteByte(v)
	return b
}

func (b *builder) u2(v uint16) *builder {
	var p [2]byte
	binary.BigEndian.PutUint16(p[:], v)
	b.buf.Write(p[:])
	return b
}

func (b *builder) u4(v uint32) *builder {
	var p [4]byte
	binary.BigEndian.PutUint32(p[:], v)
	b.buf.Write(p[:])
	return b
}

func (b *builder) u8(v uint64) *builder {
	var p [8]byte
	binary.BigEndian.PutUint64(p[:], v)
	b.buf.Write(p[:])
	return b
}

func (b *builder) raw(p ...byte) *builder {
	b.buf.Write(p)
	return b
}

// utf8 writes a CONSTANT_Utf8 entry holding ASCII text.
func (b *builder) utf8(s string) *builder {
	return b.utf8Raw([]byte(s))
}

func (b *builder) utf8Raw(p []byte) *builder {
	b.u1(1).u2(uint16(len(p)))
	return b.raw(p...)
}

func (b *builder) attr(nameIndex uint16, payload []byte) *builder {
	b.u2(nameIndex).u4(uint32(len(payload)))
	return b.raw(payload...)
}

func (b *builder) bytes() []byte { return b.buf.Bytes() }

func payload(fn func(b *builder)) []byte {
	var b builder
	fn(&b)
	return b.bytes()
}

// minimalClass is the smallest loadable class: "Min" extending
// java/lang/Object with no members.
func minimalClass(flags uint16) []byte {
	var b builder
	b.u4(0xCAFEBABE).u2(0).u2(52)
	b.u2(5)
	b.utf8("Min")
	b.u1(7).u2(1)
	b.utf8("java/lang/Object")
	b.u1(7).u2(3)
	b.u2(flags).u2(2).u2(4)
	b.u2(0) // interfaces
	b.u2(0) // fields
	b.u2(0) // methods
	b.u2(0) // attributes
	return b.bytes()
}

// Constant pool indices of richClass.
const (
	rcThis          = 2
	rcObject        = 4
	rcCode          = 5
	rcLineNumbers   = 6
	rcLocalVars     = 7
	rcInitName      = 8
	rcVoidDesc      = 9
	rcObjectInit    = 11
	rcThisName      = 12
	rcThisDesc      = 13
	rcMaxName       = 14
	rcIntDesc       = 15
	rcConstantValue = 16
	rcInteger42     = 17
	rcLong          = 18
	rcSourceFile    = 20
	rcSourceName    = 21
	rcExceptions    = 22
	rcIOException   = 24
	rcRunName       = 25
	rcRunDesc       = 26
	rcCustom        = 27
	rcDouble        = 28
	rcDeprecated    = 30
	rcStackMap      = 31
	rcSignature     = 32
	rcClassSig      = 33
	rcString        = 34
	rcMUTF8         = 35
	rcCount         = 36
)

// richClass exercises two-slot constants, modified UTF-8, fields, methods
// with nested Code attributes, switch padding and an unknown attribute.
func richClass() []byte {
	var b builder
	b.u4(0xCAFEBABE).u2(3).u2(45)

	b.u2(rcCount)
	b.utf8("Rich")                                             // 1
	b.u1(7).u2(1)                                              // 2
	b.utf8("java/lang/Object")                                 // 3
	b.u1(7).u2(3)                                              // 4
	b.utf8("Code")                                             // 5
	b.utf8("LineNumberTable")                                  // 6
	b.utf8("LocalVariableTable")                               // 7
	b.utf8("<init>")                                           // 8
	b.utf8("()V")                                              // 9
	b.u1(12).u2(8).u2(9)                                       // 10
	b.u1(10).u2(4).u2(10)                                      // 11
	b.utf8("this")                                             // 12
	b.utf8("LRich;")                                           // 13
	b.utf8("MAX")                                              // 14
	b.utf8("I")                                                // 15
	b.utf8("ConstantValue")                                    // 16
	b.u1(3).u4(42)                                             // 17
	b.u1(5).u8(1 << 40)                                        // 18, 19
	b.utf8("SourceFile")                                       // 20
	b.utf8("Rich.java")                                        // 21
	b.utf8("Exceptions")                                       // 22
	b.utf8("java/io/IOException")                              // 23
	b.u1(7).u2(23)                                             // 24
	b.utf8("run")                                              // 25
	b.utf8("(IJLjava/lang/String;)V")                          // 26
	b.utf8("Custom.Attr")                                      // 27
	b.u1(6).u8(math.Float64bits(2.5))                          // 28, 29
	b.utf8("Deprecated")                                       // 30
	b.utf8("StackMap")                                         // 31
	b.utf8("Signature")                                        // 32
	b.utf8("Ljava/lang/Object;Ljava/lang/Comparable<LRich;>;") // 33
	b.u1(8).u2(21)                                             // 34
	b.utf8Raw([]byte{'c', 'a', 'f', 0xC3, 0xA9, 0xC0, 0x80})   // 35

	b.u2(0x0021).u2(rcThis).u2(rcObject)
	b.u2(0)

	// public static final int MAX = 42
	b.u2(1)
	b.u2(0x0019).u2(rcMaxName).u2(rcIntDesc).u2(1)
	b.attr(rcConstantValue, payload(func(p *builder) { p.u2(rcInteger42) }))

	b.u2(2)

	// <init>: aload_0; invokespecial Object.<init>; return
	initCode := []byte{0x2A, 0xB7, 0x00, rcObjectInit, 0xB1}
	b.u2(0x0001).u2(rcInitName).u2(rcVoidDesc).u2(1)
	b.attr(rcCode, payload(func(p *builder) {
		p.u2(1).u2(1).u4(uint32(len(initCode))).raw(initCode...)
		p.u2(0)
		p.u2(2)
		p.attr(rcLineNumbers, payload(func(q *builder) { q.u2(1).u2(0).u2(3) }))
		p.attr(rcLocalVars, payload(func(q *builder) { q.u2(1).u2(0).u2(5).u2(rcThisName).u2(rcThisDesc).u2(0) }))
	}))

	// run: iload_1; tableswitch {0: 24, 1: 24, default: 24}; return
	runCode := []byte{
		0x1B,
		0xAA, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x17,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x17,
		0x00, 0x00, 0x00, 0x17,
		0xB1,
	}
	b.u2(0x0001).u2(rcRunName).u2(rcRunDesc).u2(3)
	b.attr(rcCode, payload(func(p *builder) {
		p.u2(2).u2(5).u4(uint32(len(runCode))).raw(runCode...)
		p.u2(1).u2(0).u2(24).u2(24).u2(rcIOException)
		p.u2(1)
		p.attr(rcStackMap, payload(func(q *builder) {
			q.u2(1)
			q.u2(24)
			q.u2(2).u1(7).u2(rcThis).u1(1)
			q.u2(1).u1(8).u2(1)
		}))
	}))
	b.attr(rcExceptions, payload(func(p *builder) { p.u2(1).u2(rcIOException) }))
	b.attr(rcDeprecated, nil)

	b.u2(4)
	b.attr(rcSourceFile, payload(func(p *builder) { p.u2(rcSourceName) }))
	b.attr(rcCustom, []byte{1, 2, 3, 4, 5})
	b.attr(rcSignature, payload(func(p *builder) { p.u2(rcClassSig) }))
	b.attr(rcDeprecated, []byte{0xAB, 0xCD})
	return b.bytes()
}
