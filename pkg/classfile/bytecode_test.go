package classfile

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestDecodeTableswitch(t *testing.T) {
	jc := parseRich(t)
	insns, err := jc.FindMethod("run", "(IJLjava/lang/String;)V").Code().Instructions()
	if err != nil {
		t.Fatal(err)
	}
	if len(insns) != 3 {
		t.Fatalf("got %d instructions, want 3", len(insns))
	}

	sw := insns[1]
	if sw.Opcode != OpTableswitch || sw.PC != 1 {
		t.Fatalf("instruction 1: got %s at %d", sw.Mnemonic(), sw.PC)
	}
	// opcode, 2 bytes of padding, default, low, high and two offsets
	if sw.Length != 23 {
		t.Errorf("tableswitch length: got %d, want 23", sw.Length)
	}
	want := &SwitchTable{Default: 24, Keys: []int32{0, 1}, Targets: []int{24, 24}}
	if !reflect.DeepEqual(sw.Switch, want) {
		t.Errorf("switch table: got %+v, want %+v", sw.Switch, want)
	}
	if got := sw.String(); got != "1: tableswitch { 0: 24; 1: 24; default: 24 }" {
		t.Errorf("String() = %q", got)
	}
	if insns[2].PC != 24 || insns[2].Mnemonic() != "return" {
		t.Errorf("instruction 2: got %s", insns[2].String())
	}
}

func TestDecodeLookupswitch(t *testing.T) {
	// nop; nop; lookupswitch at pc 2 padded to 4
	code := []byte{
		0x00, 0x00,
		0xAB, 0x00,
		0x00, 0x00, 0x00, 0x1A,
		0x00, 0x00, 0x00, 0x02,
		0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x1A,
		0x00, 0x00, 0x00, 0x64, 0x00, 0x00, 0x00, 0x1A,
		0xB1,
	}
	insns, err := DecodeInstructions(code)
	if err != nil {
		t.Fatal(err)
	}
	sw := insns[2]
	want := &SwitchTable{Default: 28, Keys: []int32{-1, 100}, Targets: []int{28, 28}}
	if !reflect.DeepEqual(sw.Switch, want) {
		t.Errorf("switch table: got %+v, want %+v", sw.Switch, want)
	}
	if sw.Length != 26 {
		t.Errorf("lookupswitch length: got %d, want 26", sw.Length)
	}
}

func TestDecodeOperands(t *testing.T) {
	code := []byte{
		0x10, 0xFE, // bipush -2
		0x11, 0x01, 0x00, // sipush 256
		0xC4, 0x15, 0x01, 0x02, // wide iload 258
		0xC4, 0x84, 0x00, 0x05, 0xFF, 0x9C, // wide iinc 5 by -100
		0x84, 0x03, 0x07, // iinc 3 by 7
		0xA7, 0xFF, 0xFB, // goto -5
		0xB9, 0x00, 0x0B, 0x02, 0x00, // invokeinterface #11, 2
		0xBC, 0x0A, // newarray int
		0xC8, 0x00, 0x00, 0x00, 0x00, // goto_w +0
	}
	insns, err := DecodeInstructions(code)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]string, len(insns))
	for i := range insns {
		got[i] = insns[i].String()
	}
	want := []string{
		"0: bipush -2",
		"2: sipush 256",
		"5: wide iload 258",
		"9: wide iinc 5 by -100",
		"15: iinc 3 by 7",
		"18: goto 13",
		"21: invokeinterface #11, 2",
		"26: newarray int",
		"28: goto_w 28",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("listing:\n got %q\nwant %q", got, want)
	}
	if !insns[6].IsInvoke() || insns[6].Index() != 11 {
		t.Errorf("invokeinterface: IsInvoke %v, Index %d", insns[6].IsInvoke(), insns[6].Index())
	}
	if insns[0].Target() != -1 {
		t.Errorf("Target of bipush: got %d, want -1", insns[0].Target())
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want string
	}{
		{"undefined opcode", []byte{0xCB}, "invalid opcode 0xcb"},
		{"truncated operand", []byte{0x11, 0x00}, "run past end"},
		{"wide goto", []byte{0xC4, 0xA7, 0x00, 0x00}, "wide applied to goto"},
		{"wide at end", []byte{0xC4}, "run past end"},
		{"truncated switch", []byte{0xAA, 0x00, 0x00, 0x00, 0x00}, "run past end"},
		{"inverted tableswitch", []byte{
			0xAA, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x05,
			0x00, 0x00, 0x00, 0x01,
		}, "below low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeInstructions(tt.code)
			if !errors.Is(err, ErrClassFormat) {
				t.Fatalf("got %v, want a class format error", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestMnemonic(t *testing.T) {
	tests := map[uint8]string{
		0x00: "nop",
		0x1A: "iload_0",
		0x4B: "astore_0",
		0x83: "lxor",
		0x98: "dcmpg",
		0xB1: "return",
		0xBF: "athrow",
		0xFF: "impdep2",
	}
	for op, want := range tests {
		if got := Mnemonic(op); got != want {
			t.Errorf("Mnemonic(0x%02x) = %q, want %q", op, got, want)
		}
	}
}
