// Package transform rewrites and measures parsed classes.
package transform

import (
	"github.com/daimatz/jclass/pkg/classfile"
)

var debugCodeAttrs = []classfile.AttributeKind{
	classfile.KindLineNumberTable,
	classfile.KindLocalVariableTable,
	classfile.KindLocalVariableTypeTable,
}

var debugClassAttrs = []classfile.AttributeKind{
	classfile.KindSourceFile,
	classfile.KindSourceDebugExtension,
}

// StripDebug removes line number and local variable tables from every Code
// attribute and the SourceFile and SourceDebugExtension attributes from the
// class. It returns the number of attributes removed. Constant pool entries
// are left in place so existing indices stay valid.
func StripDebug(jc *classfile.JavaClass) int {
	removed := 0
	for _, m := range jc.Methods {
		for _, a := range m.Attributes {
			code, ok := a.(*classfile.Code)
			if !ok {
				continue
			}
			var n int
			code.Attributes, n = classfile.RemoveAttributes(code.Attributes, debugCodeAttrs...)
			removed += n
		}
	}
	var n int
	jc.Attributes, n = classfile.RemoveAttributes(jc.Attributes, debugClassAttrs...)
	return removed + n
}

// StripAttributes removes every attribute whose name is in names, at
// class, member and Code level. Unknown attributes are matched by the name
// they were read with.
func StripAttributes(jc *classfile.JavaClass, names ...string) (int, error) {
	s := &stripper{cp: jc.ConstantPool, drop: make(map[string]bool, len(names))}
	for _, n := range names {
		s.drop[n] = true
	}

	var err error
	for _, f := range jc.Fields {
		if f.Attributes, err = s.filter(f.Attributes); err != nil {
			return 0, err
		}
	}
	for _, m := range jc.Methods {
		if m.Attributes, err = s.filter(m.Attributes); err != nil {
			return 0, err
		}
	}
	if jc.Attributes, err = s.filter(jc.Attributes); err != nil {
		return 0, err
	}
	return s.removed, nil
}

type stripper struct {
	cp      *classfile.ConstantPool
	drop    map[string]bool
	removed int
}

func (s *stripper) filter(attrs []classfile.Attribute) ([]classfile.Attribute, error) {
	kept := attrs[:0:0]
	for _, a := range attrs {
		name, err := classfile.AttributeName(a, s.cp)
		if err != nil {
			return nil, err
		}
		if s.drop[name] {
			s.removed++
			continue
		}
		if code, ok := a.(*classfile.Code); ok {
			if code.Attributes, err = s.filter(code.Attributes); err != nil {
				return nil, err
			}
		}
		kept = append(kept, a)
	}
	return kept, nil
}
