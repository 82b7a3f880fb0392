package classfile

import (
	"bytes"
	"errors"
	"testing"
)

func TestModifiedUTF8(t *testing.T) {
	tests := []struct {
		name string
		s    string
		enc  []byte
	}{
		{"ascii", "java/lang/Object", []byte("java/lang/Object")},
		{"nul", "a\x00b", []byte{'a', 0xC0, 0x80, 'b'}},
		{"two byte", "é", []byte{0xC3, 0xA9}},
		{"three byte", "日", []byte{0xE6, 0x97, 0xA5}},
		// U+1F600 is written as a surrogate pair, 3 bytes per half
		{"supplementary", "\U0001F600", []byte{0xED, 0xA0, 0xBD, 0xED, 0xB8, 0x80}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encodeModifiedUTF8(tt.s); !bytes.Equal(got, tt.enc) {
				t.Errorf("encode: got %x, want %x", got, tt.enc)
			}
			got, err := decodeModifiedUTF8(tt.enc)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.s {
				t.Errorf("decode: got %q, want %q", got, tt.s)
			}
		})
	}
}

func TestModifiedUTF8Errors(t *testing.T) {
	for _, b := range [][]byte{
		{0xC3},
		{0xE6, 0x97},
		{0xF0, 0x9F, 0x98, 0x80},
		{0x80},
	} {
		if _, err := decodeModifiedUTF8(b); !errors.Is(err, ErrClassFormat) {
			t.Errorf("%x: got %v, want a class format error", b, err)
		}
	}
}

func TestUtf8ConstantKeepsEncoding(t *testing.T) {
	// the bytes read are written back while the value is unchanged
	jc := parseRich(t)
	u := jc.ConstantPool.Constants()[rcMUTF8].(*ConstantUtf8)
	out, err := jc.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(out, []byte{'c', 'a', 'f', 0xC3, 0xA9, 0xC0, 0x80}) {
		t.Error("encoded constant changed on round trip")
	}

	u.Value = "tea"
	out, err = jc.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	again, err := ParseBytes(out)
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := again.ConstantPool.Utf8(rcMUTF8); s != "tea" {
		t.Errorf("edited constant: got %q, want %q", s, "tea")
	}
}
