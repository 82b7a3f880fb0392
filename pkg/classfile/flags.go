package classfile

import "strings"

// AccessFlags is the access_flags bitset of a class, field, method or inner
// class entry.
type AccessFlags uint16

// Access flags
const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSuper        AccessFlags = 0x0020
	AccSynchronized AccessFlags = 0x0020
	AccVolatile     AccessFlags = 0x0040
	AccBridge       AccessFlags = 0x0040
	AccTransient    AccessFlags = 0x0080
	AccVarargs      AccessFlags = 0x0080
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccStrict       AccessFlags = 0x0800
	AccSynthetic    AccessFlags = 0x1000
	AccAnnotation   AccessFlags = 0x2000
	AccEnum         AccessFlags = 0x4000
	AccModule       AccessFlags = 0x8000
)

func (f AccessFlags) IsPublic() bool       { return f&AccPublic != 0 }
func (f AccessFlags) IsPrivate() bool      { return f&AccPrivate != 0 }
func (f AccessFlags) IsProtected() bool    { return f&AccProtected != 0 }
func (f AccessFlags) IsStatic() bool       { return f&AccStatic != 0 }
func (f AccessFlags) IsFinal() bool        { return f&AccFinal != 0 }
func (f AccessFlags) IsSynchronized() bool { return f&AccSynchronized != 0 }
func (f AccessFlags) IsVolatile() bool     { return f&AccVolatile != 0 }
func (f AccessFlags) IsTransient() bool    { return f&AccTransient != 0 }
func (f AccessFlags) IsNative() bool       { return f&AccNative != 0 }
func (f AccessFlags) IsInterface() bool    { return f&AccInterface != 0 }
func (f AccessFlags) IsAbstract() bool     { return f&AccAbstract != 0 }
func (f AccessFlags) IsStrict() bool       { return f&AccStrict != 0 }
func (f AccessFlags) IsSynthetic() bool    { return f&AccSynthetic != 0 }
func (f AccessFlags) IsAnnotation() bool   { return f&AccAnnotation != 0 }
func (f AccessFlags) IsEnum() bool         { return f&AccEnum != 0 }

// With returns f with flag set or cleared.
func (f AccessFlags) With(flag AccessFlags, on bool) AccessFlags {
	if on {
		return f | flag
	}
	return f &^ flag
}

var accessNames = [...]string{
	"public", "private", "protected", "static", "final", "synchronized",
	"volatile", "transient", "native", "interface", "abstract", "strictfp",
}

// AccessToString renders the modifier keywords of f in source order. For
// classes the bits shared with ACC_SUPER and ACC_INTERFACE are not modifiers
// and are skipped.
func AccessToString(f AccessFlags, forClass bool) string {
	var words []string
	for i, name := range accessNames {
		bit := AccessFlags(1) << i
		if f&bit == 0 {
			continue
		}
		if forClass && (bit == AccSuper || bit == AccInterface) {
			continue
		}
		words = append(words, name)
	}
	return strings.Join(words, " ")
}
