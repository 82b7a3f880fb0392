package classfile

// Node is implemented by every element of the class model that takes part
// in a traversal.
type Node interface {
	Accept(v Visitor)
}

// Visitor has one method per node type. Each node's Accept calls exactly
// the method for its own type. Embed EmptyVisitor to implement only the
// methods of interest.
type Visitor interface {
	VisitJavaClass(jc *JavaClass)
	VisitField(f *Field)
	VisitMethod(m *Method)
	VisitConstantPool(cp *ConstantPool)

	VisitConstantUtf8(c *ConstantUtf8)
	VisitConstantInteger(c *ConstantInteger)
	VisitConstantFloat(c *ConstantFloat)
	VisitConstantLong(c *ConstantLong)
	VisitConstantDouble(c *ConstantDouble)
	VisitConstantClass(c *ConstantClass)
	VisitConstantString(c *ConstantString)
	VisitConstantFieldref(c *ConstantFieldref)
	VisitConstantMethodref(c *ConstantMethodref)
	VisitConstantInterfaceMethodref(c *ConstantInterfaceMethodref)
	VisitConstantNameAndType(c *ConstantNameAndType)
	VisitConstantMethodHandle(c *ConstantMethodHandle)
	VisitConstantMethodType(c *ConstantMethodType)
	VisitConstantDynamic(c *ConstantDynamic)
	VisitConstantInvokeDynamic(c *ConstantInvokeDynamic)
	VisitConstantModule(c *ConstantModule)
	VisitConstantPackage(c *ConstantPackage)

	VisitCode(a *Code)
	VisitCodeException(e *CodeException)
	VisitConstantValue(a *ConstantValue)
	VisitExceptions(a *Exceptions)
	VisitLineNumberTable(a *LineNumberTable)
	VisitLineNumber(l *LineNumber)
	VisitLocalVariableTable(a *LocalVariableTable)
	VisitLocalVariableTypeTable(a *LocalVariableTypeTable)
	VisitLocalVariable(l *LocalVariable)
	VisitInnerClasses(a *InnerClasses)
	VisitInnerClass(c *InnerClass)
	VisitSourceFile(a *SourceFile)
	VisitSynthetic(a *Synthetic)
	VisitDeprecated(a *Deprecated)
	VisitSignature(a *Signature)
	VisitStackMap(a *StackMap)
	VisitStackMapEntry(e *StackMapEntry)
	VisitPMGClass(a *PMGClass)
	VisitEnclosingMethod(a *EnclosingMethod)
	VisitBootstrapMethods(a *BootstrapMethods)
	VisitBootstrapMethod(b *BootstrapMethod)
	VisitNestHost(a *NestHost)
	VisitNestMembers(a *NestMembers)
	VisitMethodParameters(a *MethodParameters)
	VisitMethodParameter(p *MethodParameter)
	VisitSourceDebugExtension(a *SourceDebugExtension)
	VisitUnknown(a *Unknown)

	// VisitCustomAttribute is for attribute types supplied through
	// WithAttributeReader.
	VisitCustomAttribute(a Attribute)
}

// EmptyVisitor implements Visitor with methods that do nothing.
type EmptyVisitor struct{}

func (EmptyVisitor) VisitJavaClass(*JavaClass)                                   {}
func (EmptyVisitor) VisitField(*Field)                                           {}
func (EmptyVisitor) VisitMethod(*Method)                                         {}
func (EmptyVisitor) VisitConstantPool(*ConstantPool)                             {}
func (EmptyVisitor) VisitConstantUtf8(*ConstantUtf8)                             {}
func (EmptyVisitor) VisitConstantInteger(*ConstantInteger)                       {}
func (EmptyVisitor) VisitConstantFloat(*ConstantFloat)                           {}
func (EmptyVisitor) VisitConstantLong(*ConstantLong)                             {}
func (EmptyVisitor) VisitConstantDouble(*ConstantDouble)                         {}
func (EmptyVisitor) VisitConstantClass(*ConstantClass)                           {}
func (EmptyVisitor) VisitConstantString(*ConstantString)                         {}
func (EmptyVisitor) VisitConstantFieldref(*ConstantFieldref)                     {}
func (EmptyVisitor) VisitConstantMethodref(*ConstantMethodref)                   {}
func (EmptyVisitor) VisitConstantInterfaceMethodref(*ConstantInterfaceMethodref) {}
func (EmptyVisitor) VisitConstantNameAndType(*ConstantNameAndType)               {}
func (EmptyVisitor) VisitConstantMethodHandle(*ConstantMethodHandle)             {}
func (EmptyVisitor) VisitConstantMethodType(*ConstantMethodType)                 {}
func (EmptyVisitor) VisitConstantDynamic(*ConstantDynamic)                       {}
func (EmptyVisitor) VisitConstantInvokeDynamic(*ConstantInvokeDynamic)           {}
func (EmptyVisitor) VisitConstantModule(*ConstantModule)                         {}
func (EmptyVisitor) VisitConstantPackage(*ConstantPackage)                       {}
func (EmptyVisitor) VisitCode(*Code)                                             {}
func (EmptyVisitor) VisitCodeException(*CodeException)                           {}
func (EmptyVisitor) VisitConstantValue(*ConstantValue)                           {}
func (EmptyVisitor) VisitExceptions(*Exceptions)                                 {}
func (EmptyVisitor) VisitLineNumberTable(*LineNumberTable)                       {}
func (EmptyVisitor) VisitLineNumber(*LineNumber)                                 {}
func (EmptyVisitor) VisitLocalVariableTable(*LocalVariableTable)                 {}
func (EmptyVisitor) VisitLocalVariableTypeTable(*LocalVariableTypeTable)         {}
func (EmptyVisitor) VisitLocalVariable(*LocalVariable)                           {}
func (EmptyVisitor) VisitInnerClasses(*InnerClasses)                             {}
func (EmptyVisitor) VisitInnerClass(*InnerClass)                                 {}
func (EmptyVisitor) VisitSourceFile(*SourceFile)                                 {}
func (EmptyVisitor) VisitSynthetic(*Synthetic)                                   {}
func (EmptyVisitor) VisitDeprecated(*Deprecated)                                 {}
func (EmptyVisitor) VisitSignature(*Signature)                                   {}
func (EmptyVisitor) VisitStackMap(*StackMap)                                     {}
func (EmptyVisitor) VisitStackMapEntry(*StackMapEntry)                           {}
func (EmptyVisitor) VisitPMGClass(*PMGClass)                                     {}
func (EmptyVisitor) VisitEnclosingMethod(*EnclosingMethod)                       {}
func (EmptyVisitor) VisitBootstrapMethods(*BootstrapMethods)                     {}
func (EmptyVisitor) VisitBootstrapMethod(*BootstrapMethod)                       {}
func (EmptyVisitor) VisitNestHost(*NestHost)                                     {}
func (EmptyVisitor) VisitNestMembers(*NestMembers)                               {}
func (EmptyVisitor) VisitMethodParameters(*MethodParameters)                     {}
func (EmptyVisitor) VisitMethodParameter(*MethodParameter)                       {}
func (EmptyVisitor) VisitSourceDebugExtension(*SourceDebugExtension)             {}
func (EmptyVisitor) VisitUnknown(*Unknown)                                       {}
func (EmptyVisitor) VisitCustomAttribute(Attribute)                              {}
