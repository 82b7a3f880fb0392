package classfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Dump writes the class in class file order and returns the number of bytes
// written. Counts that do not fit their u2 fields and attributes whose
// payload disagrees with Length fail the dump, and nothing is written to out.
func (jc *JavaClass) Dump(out io.Writer) (int64, error) {
	b, err := jc.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := out.Write(b)
	if err != nil {
		return int64(n), fmt.Errorf("dumping class: %w", err)
	}
	return int64(n), nil
}

// Bytes returns the encoded class.
func (jc *JavaClass) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	jc.writeTo(w)
	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("dumping class: %w", err)
	}
	return buf.Bytes(), nil
}

// DumpFile writes the class to path, replacing any existing file.
func (jc *JavaClass) DumpFile(path string) error {
	b, err := jc.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func (jc *JavaClass) writeTo(w *Writer) {
	w.U4(classMagic)
	w.U2(jc.MinorVersion)
	w.U2(jc.MajorVersion)
	jc.ConstantPool.writeTo(w)
	w.U2(uint16(jc.AccessFlags))
	w.U2(jc.ThisClass)
	w.U2(jc.SuperClass)
	writeIndexList(w, jc.Interfaces)

	if !checkCount(w, "fields", len(jc.Fields)) {
		return
	}
	w.U2(uint16(len(jc.Fields)))
	for _, f := range jc.Fields {
		f.writeTo(w)
	}

	if !checkCount(w, "methods", len(jc.Methods)) {
		return
	}
	w.U2(uint16(len(jc.Methods)))
	for _, m := range jc.Methods {
		m.writeTo(w)
	}

	writeAttributes(w, jc.Attributes)
}
