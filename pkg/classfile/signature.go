package classfile

import (
	"strings"
)

// SignatureKind classifies a TypeSignature.
type SignatureKind uint8

const (
	SigBase SignatureKind = iota
	SigClass
	SigTypeVariable
	SigArray
)

// TypeSignature is a Java type in a generic signature.
type TypeSignature struct {
	Kind SignatureKind
	// Base is the primitive descriptor character for SigBase.
	Base byte
	// Name is the type variable name for SigTypeVariable.
	Name string
	// Classes holds the outer class and any inner classes for SigClass.
	// The first entry's name includes the package, e.g. "java/util/Map".
	Classes []ClassTypeSegment
	// Elem is the component type for SigArray.
	Elem *TypeSignature
}

// ClassTypeSegment is one class name with its type arguments.
type ClassTypeSegment struct {
	Name string
	Args []TypeArgument
}

// TypeArgument is one argument in a <...> list. Wildcard is '*' for an
// unbounded wildcard, '+' for extends, '-' for super, and 0 otherwise.
type TypeArgument struct {
	Wildcard byte
	Type     *TypeSignature
}

// TypeParameter declares a type variable with its bounds.
type TypeParameter struct {
	Name            string
	ClassBound      *TypeSignature
	InterfaceBounds []*TypeSignature
}

// ClassSignature is the Signature of a class.
type ClassSignature struct {
	TypeParams []TypeParameter
	Super      *TypeSignature
	Interfaces []*TypeSignature
}

// MethodSignature is the Signature of a method.
type MethodSignature struct {
	TypeParams []TypeParameter
	Params     []*TypeSignature
	// Return is nil for void.
	Return *TypeSignature
	Throws []*TypeSignature
}

// sigReader is a cursor over a signature string. backup unreads the last
// character returned by next; only one character can be unread.
type sigReader struct {
	s    string
	pos  int
	last int
}

const eof = -1

func (r *sigReader) next() int {
	if r.pos >= len(r.s) {
		r.last = eof
		return eof
	}
	c := int(r.s[r.pos])
	r.pos++
	r.last = c
	return c
}

func (r *sigReader) backup() {
	if r.last != eof {
		r.pos--
		r.last = eof
	}
}

func (r *sigReader) peek() int {
	c := r.next()
	r.backup()
	return c
}

func (r *sigReader) fail(reason string) error {
	return &DescriptorError{Descriptor: r.s, Offset: r.pos, Reason: reason}
}

func (r *sigReader) expect(want byte) error {
	if c := r.next(); c != int(want) {
		r.backup()
		return r.fail("expected " + quoteByte(want))
	}
	return nil
}

func (r *sigReader) done() error {
	if r.pos != len(r.s) {
		return r.fail("trailing characters")
	}
	return nil
}

// identifier reads up to, but not including, one of the stop characters.
func (r *sigReader) identifier(stop string) (string, error) {
	start := r.pos
	for {
		c := r.next()
		if c == eof {
			return "", r.fail("unexpected end of signature")
		}
		if strings.IndexByte(stop, byte(c)) >= 0 {
			r.backup()
			break
		}
	}
	if r.pos == start {
		return "", r.fail("empty identifier")
	}
	return r.s[start:r.pos], nil
}

func (r *sigReader) typeParameters() ([]TypeParameter, error) {
	if r.peek() != '<' {
		return nil, nil
	}
	r.next()
	var params []TypeParameter
	for r.peek() != '>' {
		name, err := r.identifier(":>")
		if err != nil {
			return nil, err
		}
		p := TypeParameter{Name: name}
		if err := r.expect(':'); err != nil {
			return nil, err
		}
		// the class bound may be empty: "T::Ljava/lang/Comparable;"
		if c := r.peek(); c != ':' && c != '>' {
			if p.ClassBound, err = r.referenceType(); err != nil {
				return nil, err
			}
		}
		for r.peek() == ':' {
			r.next()
			bound, err := r.referenceType()
			if err != nil {
				return nil, err
			}
			p.InterfaceBounds = append(p.InterfaceBounds, bound)
		}
		params = append(params, p)
	}
	r.next()
	if len(params) == 0 {
		return nil, r.fail("empty type parameter list")
	}
	return params, nil
}

func (r *sigReader) referenceType() (*TypeSignature, error) {
	switch r.peek() {
	case 'L':
		return r.classType()
	case 'T':
		return r.typeVariable()
	case '[':
		return r.arrayType()
	case eof:
		return nil, r.fail("unexpected end of signature")
	}
	return nil, r.fail("expected a reference type")
}

func (r *sigReader) javaType() (*TypeSignature, error) {
	switch c := r.next(); c {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return &TypeSignature{Kind: SigBase, Base: byte(c)}, nil
	}
	r.backup()
	return r.referenceType()
}

func (r *sigReader) typeVariable() (*TypeSignature, error) {
	if err := r.expect('T'); err != nil {
		return nil, err
	}
	name, err := r.identifier(";")
	if err != nil {
		return nil, err
	}
	r.next()
	return &TypeSignature{Kind: SigTypeVariable, Name: name}, nil
}

func (r *sigReader) arrayType() (*TypeSignature, error) {
	if err := r.expect('['); err != nil {
		return nil, err
	}
	elem, err := r.javaType()
	if err != nil {
		return nil, err
	}
	return &TypeSignature{Kind: SigArray, Elem: elem}, nil
}

func (r *sigReader) classType() (*TypeSignature, error) {
	if err := r.expect('L'); err != nil {
		return nil, err
	}
	t := &TypeSignature{Kind: SigClass}
	for {
		name, err := r.identifier("<.;")
		if err != nil {
			return nil, err
		}
		seg := ClassTypeSegment{Name: name}
		if r.peek() == '<' {
			if seg.Args, err = r.typeArguments(); err != nil {
				return nil, err
			}
		}
		t.Classes = append(t.Classes, seg)
		switch r.next() {
		case ';':
			return t, nil
		case '.':
			continue
		default:
			r.backup()
			return nil, r.fail("expected ';' or '.' after class type")
		}
	}
}

func (r *sigReader) typeArguments() ([]TypeArgument, error) {
	if err := r.expect('<'); err != nil {
		return nil, err
	}
	var args []TypeArgument
	for r.peek() != '>' {
		var a TypeArgument
		switch c := r.next(); c {
		case '*':
			a.Wildcard = '*'
			args = append(args, a)
			continue
		case '+', '-':
			a.Wildcard = byte(c)
		default:
			r.backup()
		}
		t, err := r.referenceType()
		if err != nil {
			return nil, err
		}
		a.Type = t
		args = append(args, a)
	}
	r.next()
	if len(args) == 0 {
		return nil, r.fail("empty type argument list")
	}
	return args, nil
}

// ParseClassSignature parses the Signature attribute of a class.
func ParseClassSignature(sig string) (*ClassSignature, error) {
	r := &sigReader{s: sig, last: eof}
	cs := &ClassSignature{}
	var err error
	if cs.TypeParams, err = r.typeParameters(); err != nil {
		return nil, err
	}
	if cs.Super, err = r.classType(); err != nil {
		return nil, err
	}
	for r.peek() == 'L' {
		iface, err := r.classType()
		if err != nil {
			return nil, err
		}
		cs.Interfaces = append(cs.Interfaces, iface)
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return cs, nil
}

// ParseMethodSignature parses the Signature attribute of a method.
func ParseMethodSignature(sig string) (*MethodSignature, error) {
	r := &sigReader{s: sig, last: eof}
	ms := &MethodSignature{}
	var err error
	if ms.TypeParams, err = r.typeParameters(); err != nil {
		return nil, err
	}
	if err := r.expect('('); err != nil {
		return nil, err
	}
	for r.peek() != ')' {
		p, err := r.javaType()
		if err != nil {
			return nil, err
		}
		ms.Params = append(ms.Params, p)
	}
	r.next()
	if r.peek() == 'V' {
		r.next()
	} else if ms.Return, err = r.javaType(); err != nil {
		return nil, err
	}
	for r.peek() == '^' {
		r.next()
		t, err := r.referenceType()
		if err != nil {
			return nil, err
		}
		if t.Kind == SigArray {
			return nil, r.fail("thrown type cannot be an array")
		}
		ms.Throws = append(ms.Throws, t)
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return ms, nil
}

// ParseFieldSignature parses the Signature attribute of a field or a
// LocalVariableTypeTable entry.
func ParseFieldSignature(sig string) (*TypeSignature, error) {
	r := &sigReader{s: sig, last: eof}
	t, err := r.javaType()
	if err != nil {
		return nil, err
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *TypeSignature) String() string { return t.render(false) }

func (t *TypeSignature) render(chopit bool) string {
	switch t.Kind {
	case SigBase:
		return primitiveNames[t.Base]
	case SigTypeVariable:
		return t.Name
	case SigArray:
		return t.Elem.render(chopit) + "[]"
	}
	var sb strings.Builder
	for i, seg := range t.Classes {
		if i == 0 {
			sb.WriteString(CompactClassName(seg.Name, chopit))
		} else {
			sb.WriteByte('.')
			sb.WriteString(seg.Name)
		}
		if len(seg.Args) > 0 {
			sb.WriteByte('<')
			for j, a := range seg.Args {
				if j > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(a.render(chopit))
			}
			sb.WriteByte('>')
		}
	}
	return sb.String()
}

func (a TypeArgument) render(chopit bool) string {
	switch a.Wildcard {
	case '*':
		return "?"
	case '+':
		return "? extends " + a.Type.render(chopit)
	case '-':
		return "? super " + a.Type.render(chopit)
	}
	return a.Type.render(chopit)
}

func (p TypeParameter) String() string {
	var bounds []string
	if p.ClassBound != nil {
		bounds = append(bounds, p.ClassBound.render(false))
	}
	for _, b := range p.InterfaceBounds {
		bounds = append(bounds, b.render(false))
	}
	if len(bounds) == 0 {
		return p.Name
	}
	return p.Name + " extends " + strings.Join(bounds, " & ")
}

func typeParamsString(params []TypeParameter) string {
	if len(params) == 0 {
		return ""
	}
	s := make([]string, len(params))
	for i, p := range params {
		s[i] = p.String()
	}
	return "<" + strings.Join(s, ", ") + ">"
}

func joinTypes(types []*TypeSignature) string {
	s := make([]string, len(types))
	for i, t := range types {
		s[i] = t.String()
	}
	return strings.Join(s, ", ")
}

// String renders cs as "<T> extends Super implements I1, I2".
func (cs *ClassSignature) String() string {
	var sb strings.Builder
	if tp := typeParamsString(cs.TypeParams); tp != "" {
		sb.WriteString(tp + " ")
	}
	sb.WriteString("extends " + cs.Super.String())
	if len(cs.Interfaces) > 0 {
		sb.WriteString(" implements " + joinTypes(cs.Interfaces))
	}
	return sb.String()
}

// String renders ms as "<T> T (java.util.List<T>) throws E".
func (ms *MethodSignature) String() string {
	var sb strings.Builder
	if tp := typeParamsString(ms.TypeParams); tp != "" {
		sb.WriteString(tp + " ")
	}
	if ms.Return == nil {
		sb.WriteString("void")
	} else {
		sb.WriteString(ms.Return.String())
	}
	sb.WriteString(" (" + joinTypes(ms.Params) + ")")
	if len(ms.Throws) > 0 {
		sb.WriteString(" throws " + joinTypes(ms.Throws))
	}
	return sb.String()
}
