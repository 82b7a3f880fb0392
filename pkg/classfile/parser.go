package classfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

const classMagic = 0xCAFEBABE

// Option configures a single Parse call.
type Option func(*parser)

// WithAttributeReader installs a reader for attributes named name, taking
// precedence over the built-in reader of the same name. It applies at every
// nesting level, including attributes inside Code.
func WithAttributeReader(name string, fn AttributeReader) Option {
	return func(p *parser) {
		if p.readers == nil {
			p.readers = make(map[string]AttributeReader)
		}
		p.readers[name] = fn
	}
}

// WithDuplicateAttributes accepts methods that carry more than one Code or
// Exceptions attribute. Accessors then return the first one.
func WithDuplicateAttributes(allow bool) Option {
	return func(p *parser) { p.allowDuplicates = allow }
}

type parser struct {
	readers         map[string]AttributeReader
	allowDuplicates bool
}

func (p *parser) builtin(name string) AttributeReader {
	switch name {
	case "Code":
		return p.readCode
	case "SourceFile":
		return readSourceFile
	case "ConstantValue":
		return readConstantValue
	case "Exceptions":
		return readExceptions
	case "LineNumberTable":
		return readLineNumberTable
	case "LocalVariableTable":
		return readLocalVariableTable
	case "LocalVariableTypeTable":
		return readLocalVariableTypeTable
	case "InnerClasses":
		return readInnerClasses
	case "Synthetic":
		return readSynthetic
	case "Deprecated":
		return readDeprecated
	case "PMGClass":
		return readPMGClass
	case "Signature":
		return readSignature
	case "StackMap":
		return readStackMap
	case "EnclosingMethod":
		return readEnclosingMethod
	case "BootstrapMethods":
		return readBootstrapMethods
	case "NestHost":
		return readNestHost
	case "NestMembers":
		return readNestMembers
	case "MethodParameters":
		return readMethodParameters
	case "SourceDebugExtension":
		return readSourceDebugExtension
	}
	return nil
}

// ParseFile opens and parses a .class file from the given path.
func ParseFile(path string, opts ...Option) (*JavaClass, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(bufio.NewReader(f), opts...)
}

// ParseBytes parses a class held in memory.
func ParseBytes(b []byte, opts ...Option) (*JavaClass, error) {
	return Parse(bytes.NewReader(b), opts...)
}

// Parse reads one class from r. Bytes after the last class attribute are
// not read. Either the whole class is returned or an error; structural
// problems match ErrClassFormat and I/O failures are wrapped unchanged.
func Parse(r io.Reader, opts ...Option) (*JavaClass, error) {
	p := &parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p.parse(NewReader(r))
}

func (p *parser) parse(r *Reader) (*JavaClass, error) {
	jc := &JavaClass{}

	// Magic number
	magic, err := r.U4()
	if err != nil {
		return nil, fmt.Errorf("reading magic number: %w", err)
	}
	if magic != classMagic {
		return nil, formatErrorf("invalid magic number: 0x%X (expected 0xCAFEBABE)", magic)
	}

	// Version
	if jc.MinorVersion, err = r.U2(); err != nil {
		return nil, fmt.Errorf("reading minor version: %w", err)
	}
	if jc.MajorVersion, err = r.U2(); err != nil {
		return nil, fmt.Errorf("reading major version: %w", err)
	}

	// Constant pool
	if jc.ConstantPool, err = readConstantPool(r); err != nil {
		return nil, fmt.Errorf("parsing constant pool: %w", err)
	}
	cp := jc.ConstantPool

	// Access flags, this_class, super_class
	flags, err := r.U2()
	if err != nil {
		return nil, fmt.Errorf("reading access flags: %w", err)
	}
	jc.AccessFlags = AccessFlags(flags)
	if jc.AccessFlags.IsInterface() {
		jc.AccessFlags |= AccAbstract
	}
	if jc.AccessFlags.IsAbstract() && jc.AccessFlags.IsFinal() {
		return nil, formatErrorf("class can't be both final and abstract")
	}
	if jc.ThisClass, err = r.U2(); err != nil {
		return nil, fmt.Errorf("reading this_class: %w", err)
	}
	if jc.SuperClass, err = r.U2(); err != nil {
		return nil, fmt.Errorf("reading super_class: %w", err)
	}

	// Interfaces
	if jc.Interfaces, err = readIndexList(r); err != nil {
		return nil, fmt.Errorf("reading interfaces: %w", err)
	}

	if jc.Fields, err = p.readFields(r, cp); err != nil {
		return nil, fmt.Errorf("parsing fields: %w", err)
	}
	if jc.Methods, err = p.readMethods(r, cp); err != nil {
		return nil, fmt.Errorf("parsing methods: %w", err)
	}
	if jc.Attributes, err = p.readAttributes(r, cp); err != nil {
		return nil, fmt.Errorf("parsing class attributes: %w", err)
	}
	return jc, nil
}

func (p *parser) readAttributes(r *Reader, cp *ConstantPool) ([]Attribute, error) {
	count, err := r.U2()
	if err != nil {
		return nil, fmt.Errorf("reading attributes count: %w", err)
	}
	attrs := make([]Attribute, count)
	for i := range attrs {
		if attrs[i], err = p.readAttribute(r, cp); err != nil {
			return nil, fmt.Errorf("attribute %d: %w", i, err)
		}
	}
	return attrs, nil
}

// readAttribute reads the header and the whole payload, then decodes the
// payload from memory so that a reader cannot run past its attribute.
func (p *parser) readAttribute(r *Reader, cp *ConstantPool) (Attribute, error) {
	nameIndex, err := r.U2()
	if err != nil {
		return nil, fmt.Errorf("reading name index: %w", err)
	}
	length, err := r.U4()
	if err != nil {
		return nil, fmt.Errorf("reading length: %w", err)
	}
	name, err := cp.Utf8(nameIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving name: %w", err)
	}
	data, err := r.Bytes(int(length))
	if err != nil {
		return nil, fmt.Errorf("reading %s payload of %d bytes: %w", name, length, err)
	}

	h := AttributeHeader{NameIndex: nameIndex}
	sub := NewReader(bytes.NewReader(data))
	read := p.readers[name]
	if read == nil {
		read = p.builtin(name)
	}
	if read == nil {
		return &Unknown{AttributeHeader: h, Name: name, Bytes: data}, nil
	}

	a, err := read(h, length, sub, cp)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, formatErrorf("%s attribute truncated at byte %d of %d", name, sub.Offset(), length)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if sub.Offset() != int64(length) {
		return nil, formatErrorf("%s attribute consumed %d of %d bytes", name, sub.Offset(), length)
	}
	return a, nil
}
