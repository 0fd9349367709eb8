package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeCommandLayout(t *testing.T) {
	// MOVE with value 37 is the reference vector from the firmware docs.
	got := EncodeCommand(OpMove, 37)
	want := []byte{0x14, 0x00, 0x00, 0x00, 0x25, 0x00, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeCommand(MOVE, 37) = % X, want % X", got, want)
	}
}

func TestEncodeCommandNegativeValue(t *testing.T) {
	got := EncodeCommand(OpMove, -1)
	want := []byte{0x14, 0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeCommand(MOVE, -1) = % X, want % X", got, want)
	}
}

func TestEncodeCommandSize(t *testing.T) {
	ops := []Opcode{OpStop, OpInit, OpSetPosition, OpGetPosition, OpMove, OpSampleRead, OpSampleStart, OpSampleStop}
	for _, op := range ops {
		if got := EncodeCommand(op, 0); len(got) != CommandSize {
			t.Errorf("EncodeCommand(%v) length = %d, want %d", op, len(got), CommandSize)
		}
	}
}

func TestDecodeSample(t *testing.T) {
	// 1.0, -2.0, 0.5 as little-endian float32
	buf := []byte{
		0x00, 0x00, 0x80, 0x3F, // 1.0
		0x00, 0x00, 0x00, 0xC0, // -2.0
		0x00, 0x00, 0x00, 0x3F, // 0.5
	}
	s, err := DecodeSample(buf)
	if err != nil {
		t.Fatalf("DecodeSample: %v", err)
	}
	if s.X != 1.0 || s.Y != -2.0 || s.Z != 0.5 {
		t.Errorf("DecodeSample = %+v, want {1 -2 0.5}", s)
	}
}

func TestDecodeSampleShortBuffer(t *testing.T) {
	_, err := DecodeSample(make([]byte, 6))
	if err == nil {
		t.Fatal("DecodeSample with 6 bytes should fail")
	}
	if !errors.Is(err, ErrShortPayload) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDecodeInt32(t *testing.T) {
	v, err := DecodeInt32([]byte{0x04, 0x00, 0x00, 0x00})
	if err != nil {
		t.Fatalf("DecodeInt32: %v", err)
	}
	if v != 4 {
		t.Errorf("DecodeInt32 = %d, want 4", v)
	}
}

func TestDecodeInt32ShortBuffer(t *testing.T) {
	if _, err := DecodeInt32([]byte{0x04, 0x00}); err == nil {
		t.Error("DecodeInt32 with 2 bytes should fail")
	}
}

func TestOpcodeNames(t *testing.T) {
	if OpMove.String() != "MOVE" {
		t.Errorf("OpMove.String() = %q", OpMove.String())
	}
	if Opcode(0x99).String() != "unknown_0x99" {
		t.Errorf("unknown opcode name = %q", Opcode(0x99).String())
	}
}
