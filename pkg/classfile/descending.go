package classfile

// DescendingVisitor walks a whole class in pre-order and hands every node
// to an inner Visitor: the class, its fields, its methods, their
// attributes and nested entries, the class attributes, then the constant
// pool and its entries. While the inner visitor runs, Current and
// Predecessor expose the path from the class to the node being visited.
type DescendingVisitor struct {
	class   *JavaClass
	visitor Visitor
	stack   []Node
}

// NewDescendingVisitor returns a traversal of jc that reports to v.
func NewDescendingVisitor(jc *JavaClass, v Visitor) *DescendingVisitor {
	return &DescendingVisitor{class: jc, visitor: v}
}

// Visit runs the traversal. It may be called again to walk the class anew.
func (d *DescendingVisitor) Visit() {
	d.stack = d.stack[:0]
	d.class.Accept(d)
}

// Current returns the node being visited, or nil outside a traversal.
func (d *DescendingVisitor) Current() Node {
	if len(d.stack) == 0 {
		return nil
	}
	return d.stack[len(d.stack)-1]
}

// Predecessor returns the ancestor level steps above the direct parent of
// the current node: Predecessor(0) is the parent. It returns nil past the
// root.
func (d *DescendingVisitor) Predecessor(level int) Node {
	i := len(d.stack) - 2 - level
	if level < 0 || i < 0 {
		return nil
	}
	return d.stack[i]
}

// enter pushes n, reports it to the inner visitor, runs children and pops.
func (d *DescendingVisitor) enter(n Node, children func()) {
	d.stack = append(d.stack, n)
	n.Accept(d.visitor)
	if children != nil {
		children()
	}
	d.stack = d.stack[:len(d.stack)-1]
}

func (d *DescendingVisitor) leaf(n Node) { d.enter(n, nil) }

func (d *DescendingVisitor) attributes(attrs []Attribute) {
	for _, a := range attrs {
		a.Accept(d)
	}
}

func (d *DescendingVisitor) VisitJavaClass(jc *JavaClass) {
	d.enter(jc, func() {
		for _, f := range jc.Fields {
			f.Accept(d)
		}
		for _, m := range jc.Methods {
			m.Accept(d)
		}
		d.attributes(jc.Attributes)
		jc.ConstantPool.Accept(d)
	})
}

func (d *DescendingVisitor) VisitField(f *Field) {
	d.enter(f, func() { d.attributes(f.Attributes) })
}

func (d *DescendingVisitor) VisitMethod(m *Method) {
	d.enter(m, func() { d.attributes(m.Attributes) })
}

func (d *DescendingVisitor) VisitConstantPool(cp *ConstantPool) {
	d.enter(cp, func() {
		for _, c := range cp.Constants() {
			if c != nil {
				c.Accept(d)
			}
		}
	})
}

func (d *DescendingVisitor) VisitConstantUtf8(c *ConstantUtf8)         { d.leaf(c) }
func (d *DescendingVisitor) VisitConstantInteger(c *ConstantInteger)   { d.leaf(c) }
func (d *DescendingVisitor) VisitConstantFloat(c *ConstantFloat)       { d.leaf(c) }
func (d *DescendingVisitor) VisitConstantLong(c *ConstantLong)         { d.leaf(c) }
func (d *DescendingVisitor) VisitConstantDouble(c *ConstantDouble)     { d.leaf(c) }
func (d *DescendingVisitor) VisitConstantClass(c *ConstantClass)       { d.leaf(c) }
func (d *DescendingVisitor) VisitConstantString(c *ConstantString)     { d.leaf(c) }
func (d *DescendingVisitor) VisitConstantFieldref(c *ConstantFieldref) { d.leaf(c) }
func (d *DescendingVisitor) VisitConstantMethodref(c *ConstantMethodref) {
	d.leaf(c)
}
func (d *DescendingVisitor) VisitConstantInterfaceMethodref(c *ConstantInterfaceMethodref) {
	d.leaf(c)
}
func (d *DescendingVisitor) VisitConstantNameAndType(c *ConstantNameAndType) { d.leaf(c) }
func (d *DescendingVisitor) VisitConstantMethodHandle(c *ConstantMethodHandle) {
	d.leaf(c)
}
func (d *DescendingVisitor) VisitConstantMethodType(c *ConstantMethodType) { d.leaf(c) }
func (d *DescendingVisitor) VisitConstantDynamic(c *ConstantDynamic)       { d.leaf(c) }
func (d *DescendingVisitor) VisitConstantInvokeDynamic(c *ConstantInvokeDynamic) {
	d.leaf(c)
}
func (d *DescendingVisitor) VisitConstantModule(c *ConstantModule)   { d.leaf(c) }
func (d *DescendingVisitor) VisitConstantPackage(c *ConstantPackage) { d.leaf(c) }

func (d *DescendingVisitor) VisitCode(a *Code) {
	d.enter(a, func() {
		for _, e := range a.ExceptionTable {
			e.Accept(d)
		}
		d.attributes(a.Attributes)
	})
}

func (d *DescendingVisitor) VisitCodeException(e *CodeException) { d.leaf(e) }
func (d *DescendingVisitor) VisitConstantValue(a *ConstantValue) { d.leaf(a) }
func (d *DescendingVisitor) VisitExceptions(a *Exceptions)       { d.leaf(a) }

func (d *DescendingVisitor) VisitLineNumberTable(a *LineNumberTable) {
	d.enter(a, func() {
		for _, l := range a.Entries {
			l.Accept(d)
		}
	})
}

func (d *DescendingVisitor) VisitLineNumber(l *LineNumber) { d.leaf(l) }

func (d *DescendingVisitor) VisitLocalVariableTable(a *LocalVariableTable) {
	d.enter(a, func() {
		for _, l := range a.Entries {
			l.Accept(d)
		}
	})
}

func (d *DescendingVisitor) VisitLocalVariableTypeTable(a *LocalVariableTypeTable) {
	d.enter(a, func() {
		for _, l := range a.Entries {
			l.Accept(d)
		}
	})
}

func (d *DescendingVisitor) VisitLocalVariable(l *LocalVariable) { d.leaf(l) }

func (d *DescendingVisitor) VisitInnerClasses(a *InnerClasses) {
	d.enter(a, func() {
		for _, c := range a.Classes {
			c.Accept(d)
		}
	})
}

func (d *DescendingVisitor) VisitInnerClass(c *InnerClass) { d.leaf(c) }
func (d *DescendingVisitor) VisitSourceFile(a *SourceFile) { d.leaf(a) }
func (d *DescendingVisitor) VisitSynthetic(a *Synthetic)   { d.leaf(a) }
func (d *DescendingVisitor) VisitDeprecated(a *Deprecated) { d.leaf(a) }
func (d *DescendingVisitor) VisitSignature(a *Signature)   { d.leaf(a) }

func (d *DescendingVisitor) VisitStackMap(a *StackMap) {
	d.enter(a, func() {
		for _, e := range a.Entries {
			e.Accept(d)
		}
	})
}

func (d *DescendingVisitor) VisitStackMapEntry(e *StackMapEntry)     { d.leaf(e) }
func (d *DescendingVisitor) VisitPMGClass(a *PMGClass)               { d.leaf(a) }
func (d *DescendingVisitor) VisitEnclosingMethod(a *EnclosingMethod) { d.leaf(a) }

func (d *DescendingVisitor) VisitBootstrapMethods(a *BootstrapMethods) {
	d.enter(a, func() {
		for _, b := range a.Methods {
			b.Accept(d)
		}
	})
}

func (d *DescendingVisitor) VisitBootstrapMethod(b *BootstrapMethod) { d.leaf(b) }
func (d *DescendingVisitor) VisitNestHost(a *NestHost)               { d.leaf(a) }
func (d *DescendingVisitor) VisitNestMembers(a *NestMembers)         { d.leaf(a) }

func (d *DescendingVisitor) VisitMethodParameters(a *MethodParameters) {
	d.enter(a, func() {
		for _, p := range a.Parameters {
			p.Accept(d)
		}
	})
}

func (d *DescendingVisitor) VisitMethodParameter(p *MethodParameter)           { d.leaf(p) }
func (d *DescendingVisitor) VisitSourceDebugExtension(a *SourceDebugExtension) { d.leaf(a) }
func (d *DescendingVisitor) VisitUnknown(a *Unknown)                           { d.leaf(a) }
func (d *DescendingVisitor) VisitCustomAttribute(a Attribute)                  { d.leaf(a) }
