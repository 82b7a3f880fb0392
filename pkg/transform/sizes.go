package transform

import (
	"fmt"
	"io"

	"github.com/daimatz/jclass/pkg/classfile"
)

// SizeReport breaks the encoded size of a class down by part.
type SizeReport struct {
	Class        string `json:"class" cbor:"1,keyasint"`
	Total        int64  `json:"total" cbor:"2,keyasint"`
	ConstantPool int64  `json:"constant_pool" cbor:"3,keyasint"`
	Constants    int    `json:"constants" cbor:"4,keyasint"`

	// Attributes maps an attribute name to the bytes its instances take,
	// headers included. Attributes nested in Code are counted both on
	// their own and as part of Code.
	Attributes map[string]int64 `json:"attributes" cbor:"5,keyasint"`
	Methods    []MethodSize     `json:"methods" cbor:"6,keyasint"`
}

// MethodSize is the code size of one method.
type MethodSize struct {
	Method   string `json:"method" cbor:"1,keyasint"`
	Bytecode int    `json:"bytecode" cbor:"2,keyasint"`
	Code     int64  `json:"code" cbor:"3,keyasint"`
}

// Sizes measures jc by walking it with a DescendingVisitor.
func Sizes(jc *classfile.JavaClass) (*SizeReport, error) {
	name, err := jc.ClassName()
	if err != nil {
		return nil, err
	}
	total, err := jc.Dump(io.Discard)
	if err != nil {
		return nil, fmt.Errorf("measuring %s: %w", name, err)
	}

	s := &sizer{
		cp: jc.ConstantPool,
		report: &SizeReport{
			Class:        name,
			Total:        total,
			ConstantPool: jc.ConstantPool.Size(),
			Attributes:   make(map[string]int64),
		},
	}
	s.d = classfile.NewDescendingVisitor(jc, s)
	s.d.Visit()
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

type sizer struct {
	classfile.EmptyVisitor

	d      *classfile.DescendingVisitor
	cp     *classfile.ConstantPool
	report *SizeReport
	err    error
}

func (s *sizer) add(a classfile.Attribute) {
	name, err := classfile.AttributeName(a, s.cp)
	if err != nil {
		if s.err == nil {
			s.err = err
		}
		return
	}
	s.report.Attributes[name] += 6 + int64(a.Length())
}

func (s *sizer) VisitCode(a *classfile.Code) {
	s.add(a)
	m, ok := s.d.Predecessor(0).(*classfile.Method)
	if !ok {
		return
	}
	name, err := m.Name(s.cp)
	if err == nil {
		var desc string
		desc, err = m.Descriptor(s.cp)
		name += desc
	}
	if err != nil {
		if s.err == nil {
			s.err = err
		}
		return
	}
	s.report.Methods = append(s.report.Methods, MethodSize{
		Method:   name,
		Bytecode: len(a.Bytecode),
		Code:     6 + int64(a.Length()),
	})
}

// count every non-nil pool slot
func (s *sizer) constant() { s.report.Constants++ }

func (s *sizer) VisitConstantUtf8(*classfile.ConstantUtf8)                   { s.constant() }
func (s *sizer) VisitConstantInteger(*classfile.ConstantInteger)             { s.constant() }
func (s *sizer) VisitConstantFloat(*classfile.ConstantFloat)                 { s.constant() }
func (s *sizer) VisitConstantLong(*classfile.ConstantLong)                   { s.constant() }
func (s *sizer) VisitConstantDouble(*classfile.ConstantDouble)               { s.constant() }
func (s *sizer) VisitConstantClass(*classfile.ConstantClass)                 { s.constant() }
func (s *sizer) VisitConstantString(*classfile.ConstantString)               { s.constant() }
func (s *sizer) VisitConstantFieldref(*classfile.ConstantFieldref)           { s.constant() }
func (s *sizer) VisitConstantMethodref(*classfile.ConstantMethodref)         { s.constant() }
func (s *sizer) VisitConstantNameAndType(*classfile.ConstantNameAndType)     { s.constant() }
func (s *sizer) VisitConstantMethodHandle(*classfile.ConstantMethodHandle)   { s.constant() }
func (s *sizer) VisitConstantMethodType(*classfile.ConstantMethodType)       { s.constant() }
func (s *sizer) VisitConstantDynamic(*classfile.ConstantDynamic)             { s.constant() }
func (s *sizer) VisitConstantInvokeDynamic(*classfile.ConstantInvokeDynamic) { s.constant() }
func (s *sizer) VisitConstantModule(*classfile.ConstantModule)               { s.constant() }
func (s *sizer) VisitConstantPackage(*classfile.ConstantPackage)             { s.constant() }
func (s *sizer) VisitConstantInterfaceMethodref(*classfile.ConstantInterfaceMethodref) {
	s.constant()
}

func (s *sizer) VisitConstantValue(a *classfile.ConstantValue)                   { s.add(a) }
func (s *sizer) VisitExceptions(a *classfile.Exceptions)                         { s.add(a) }
func (s *sizer) VisitLineNumberTable(a *classfile.LineNumberTable)               { s.add(a) }
func (s *sizer) VisitLocalVariableTable(a *classfile.LocalVariableTable)         { s.add(a) }
func (s *sizer) VisitLocalVariableTypeTable(a *classfile.LocalVariableTypeTable) { s.add(a) }
func (s *sizer) VisitInnerClasses(a *classfile.InnerClasses)                     { s.add(a) }
func (s *sizer) VisitSourceFile(a *classfile.SourceFile)                         { s.add(a) }
func (s *sizer) VisitSynthetic(a *classfile.Synthetic)                           { s.add(a) }
func (s *sizer) VisitDeprecated(a *classfile.Deprecated)                         { s.add(a) }
func (s *sizer) VisitSignature(a *classfile.Signature)                           { s.add(a) }
func (s *sizer) VisitStackMap(a *classfile.StackMap)                             { s.add(a) }
func (s *sizer) VisitPMGClass(a *classfile.PMGClass)                             { s.add(a) }
func (s *sizer) VisitEnclosingMethod(a *classfile.EnclosingMethod)               { s.add(a) }
func (s *sizer) VisitBootstrapMethods(a *classfile.BootstrapMethods)             { s.add(a) }
func (s *sizer) VisitNestHost(a *classfile.NestHost)                             { s.add(a) }
func (s *sizer) VisitNestMembers(a *classfile.NestMembers)                       { s.add(a) }
func (s *sizer) VisitMethodParameters(a *classfile.MethodParameters)             { s.add(a) }
func (s *sizer) VisitSourceDebugExtension(a *classfile.SourceDebugExtension)     { s.add(a) }
func (s *sizer) VisitUnknown(a *classfile.Unknown)                               { s.add(a) }
func (s *sizer) VisitCustomAttribute(a classfile.Attribute)                      { s.add(a) }
