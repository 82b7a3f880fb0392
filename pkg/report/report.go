// Package report builds machine-readable class summaries and encodes them
// as JSON or canonical CBOR.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/daimatz/jclass/pkg/classfile"
)

// Output formats accepted by Encode and Decode.
const (
	FormatJSON = "json"
	FormatCBOR = "cbor"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("report: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// ClassSummary describes a class without its bytecode.
type ClassSummary struct {
	Name       string   `json:"name" cbor:"1,keyasint"`
	Super      string   `json:"super,omitempty" cbor:"2,keyasint,omitempty"`
	Interfaces []string `json:"interfaces,omitempty" cbor:"3,keyasint,omitempty"`
	Access     string   `json:"access" cbor:"4,keyasint"`
	Flags      uint16   `json:"flags" cbor:"5,keyasint"`
	Version    string   `json:"version" cbor:"6,keyasint"`
	SourceFile string   `json:"source_file,omitempty" cbor:"7,keyasint,omitempty"`
	Signature  string   `json:"signature,omitempty" cbor:"8,keyasint,omitempty"`
	Constants  int      `json:"constants" cbor:"9,keyasint"`
	Attributes []string `json:"attributes,omitempty" cbor:"10,keyasint,omitempty"`
	Fields     []Member `json:"fields,omitempty" cbor:"11,keyasint,omitempty"`
	Methods    []Member `json:"methods,omitempty" cbor:"12,keyasint,omitempty"`
}

// Member describes a field or method.
type Member struct {
	Name        string   `json:"name" cbor:"1,keyasint"`
	Descriptor  string   `json:"descriptor" cbor:"2,keyasint"`
	Declaration string   `json:"declaration" cbor:"3,keyasint"`
	Flags       uint16   `json:"flags" cbor:"4,keyasint"`
	CodeLength  int      `json:"code_length,omitempty" cbor:"5,keyasint,omitempty"`
	MaxStack    int      `json:"max_stack,omitempty" cbor:"6,keyasint,omitempty"`
	MaxLocals   int      `json:"max_locals,omitempty" cbor:"7,keyasint,omitempty"`
	Exceptions  []string `json:"exceptions,omitempty" cbor:"8,keyasint,omitempty"`
	Attributes  []string `json:"attributes,omitempty" cbor:"9,keyasint,omitempty"`
}

// Summarize resolves the names, declarations and sizes of jc.
func Summarize(jc *classfile.JavaClass) (*ClassSummary, error) {
	cp := jc.ConstantPool
	s := &ClassSummary{
		Access:    classfile.AccessToString(jc.AccessFlags, true),
		Flags:     uint16(jc.AccessFlags),
		Version:   fmt.Sprintf("%d.%d", jc.MajorVersion, jc.MinorVersion),
		Constants: cp.Len(),
	}

	var err error
	if s.Name, err = jc.ClassName(); err != nil {
		return nil, fmt.Errorf("this_class: %w", err)
	}
	if s.Super, err = jc.SuperClassName(); err != nil {
		return nil, fmt.Errorf("super_class: %w", err)
	}
	if s.Interfaces, err = jc.InterfaceNames(); err != nil {
		return nil, err
	}
	if len(s.Interfaces) == 0 {
		s.Interfaces = nil
	}
	if s.SourceFile, err = jc.SourceFileName(); err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	if sig, ok := jc.Attribute(classfile.KindSignature).(*classfile.Signature); ok {
		if s.Signature, err = cp.Utf8(sig.SignatureIndex); err != nil {
			return nil, fmt.Errorf("%s: signature: %w", s.Name, err)
		}
	}
	if s.Attributes, err = attributeNames(jc.Attributes, cp); err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}

	for _, f := range jc.Fields {
		m, err := member(&f.FieldOrMethod, cp)
		if err != nil {
			return nil, fmt.Errorf("%s: field: %w", s.Name, err)
		}
		if m.Declaration, err = f.Declaration(cp); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.Name, m.Name, err)
		}
		s.Fields = append(s.Fields, m)
	}
	for _, meth := range jc.Methods {
		m, err := member(&meth.FieldOrMethod, cp)
		if err != nil {
			return nil, fmt.Errorf("%s: method: %w", s.Name, err)
		}
		if m.Declaration, err = meth.Declaration(cp); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.Name, m.Name, err)
		}
		if code := meth.Code(); code != nil {
			m.CodeLength = len(code.Bytecode)
			m.MaxStack = int(code.MaxStack)
			m.MaxLocals = int(code.MaxLocals)
		}
		if ex := meth.Exceptions(); ex != nil {
			if m.Exceptions, err = ex.ExceptionNames(cp); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", s.Name, m.Name, err)
			}
		}
		s.Methods = append(s.Methods, m)
	}
	return s, nil
}

func member(fm *classfile.FieldOrMethod, cp *classfile.ConstantPool) (Member, error) {
	name, err := fm.Name(cp)
	if err != nil {
		return Member{}, err
	}
	desc, err := fm.Descriptor(cp)
	if err != nil {
		return Member{}, err
	}
	attrs, err := attributeNames(fm.Attributes, cp)
	if err != nil {
		return Member{}, fmt.Errorf("%s: %w", name, err)
	}
	return Member{Name: name, Descriptor: desc, Flags: uint16(fm.AccessFlags), Attributes: attrs}, nil
}

func attributeNames(attrs []classfile.Attribute, cp *classfile.ConstantPool) ([]string, error) {
	var names []string
	for _, a := range attrs {
		n, err := classfile.AttributeName(a, cp)
		if err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, nil
}

// Encode writes v to w in the given format. JSON output is indented.
func Encode(w io.Writer, v any, format string) error {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("report: marshal json: %w", err)
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case FormatCBOR:
		data, err := cborEncMode.Marshal(v)
		if err != nil {
			return fmt.Errorf("report: marshal cbor: %w", err)
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("report: unknown format %q", format)
}

// Decode reads one value encoded by Encode into v.
func Decode(data []byte, v any, format string) error {
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("report: unmarshal json: %w", err)
		}
		return nil
	case FormatCBOR:
		if err := cbor.Unmarshal(data, v); err != nil {
			return fmt.Errorf("report: unmarshal cbor: %w", err)
		}
		return nil
	}
	return fmt.Errorf("report: unknown format %q", format)
}
