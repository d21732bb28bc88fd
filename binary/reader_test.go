package binary

import (
	"bytes"
	"errors"
	"testing"
)

func TestReaderReadByte(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	r := NewReader(data)

	for i, want := range data {
		if r.Position() != i {
			t.Errorf("position before read %d: got %d, want %d", i, r.Position(), i)
		}
		b, err := r.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte %d: %v", i, err)
		}
		if b != want {
			t.Errorf("ReadByte %d: got 0x%02x, want 0x%02x", i, b, want)
		}
	}

	if r.Position() != 3 {
		t.Errorf("final position: got %d, want 3", r.Position())
	}

	_, err := r.ReadByte()
	if !errors.Is(err, ErrShort) {
		t.Errorf("expected ErrShort, got %v", err)
	}
}

func TestReaderPeekByte(t *testing.T) {
	r := NewReader([]byte{0x07, 0x08})
	b, err := r.PeekByte()
	if err != nil || b != 0x07 {
		t.Fatalf("PeekByte: got (%v, %v), want (0x07, nil)", b, err)
	}
	if r.Position() != 0 {
		t.Errorf("PeekByte must not advance cursor, position=%d", r.Position())
	}
}

func TestReaderReadBytes(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	r := NewReader(data)

	got, err := r.ReadBytes(3)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if !bytes.Equal(got, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("ReadBytes: got %v, want [1 2 3]", got)
	}

	if r.Position() != 3 {
		t.Errorf("position: got %d, want 3", r.Position())
	}

	_, err = r.ReadBytes(10)
	if err == nil {
		t.Error("expected error for reading past EOF")
	}
}

func TestReaderReadU32(t *testing.T) {
	tests := []struct {
		encoded []byte
		want    uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xff, 0x01}, 255},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		r := NewReader(tt.encoded)
		got, err := r.ReadU32()
		if err != nil {
			t.Errorf("ReadU32(%v): %v", tt.encoded, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ReadU32(%v): got %d, want %d", tt.encoded, got, tt.want)
		}
	}
}

func TestReaderReadU32Overflow(t *testing.T) {
	data := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	r := NewReader(data)
	_, err := r.ReadU32()
	if !errors.Is(err, ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
}

func TestReaderReadU32Truncated(t *testing.T) {
	r := NewReader([]byte{0x80})
	_, err := r.ReadU32()
	if !errors.Is(err, ErrShort) {
		t.Errorf("expected ErrShort, got %v", err)
	}
}

func TestReaderReadU64(t *testing.T) {
	tests := []struct {
		encoded []byte
		want    uint64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		r := NewReader(tt.encoded)
		got, err := r.ReadU64()
		if err != nil {
			t.Errorf("ReadU64(%v): %v", tt.encoded, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ReadU64(%v): got %d, want %d", tt.encoded, got, tt.want)
		}
	}
}

func TestReaderReadU64Overflow(t *testing.T) {
	data := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	r := NewReader(data)
	if _, err := r.ReadU64(); !errors.Is(err, ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
}

func TestReaderReadS32(t *testing.T) {
	tests := []struct {
		encoded []byte
		want    int32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, -1},
		{[]byte{0x3f}, 63},
		{[]byte{0x40}, -64},
		{[]byte{0xc0, 0x00}, 64},
		{[]byte{0xbf, 0x7f}, -65},
	}

	for _, tt := range tests {
		r := NewReader(tt.encoded)
		got, err := r.ReadS32()
		if err != nil {
			t.Errorf("ReadS32(%v): %v", tt.encoded, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ReadS32(%v): got %d, want %d", tt.encoded, got, tt.want)
		}
	}
}

func TestReaderReadS32Overflow(t *testing.T) {
	data := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	r := NewReader(data)
	if _, err := r.ReadS32(); !errors.Is(err, ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
}

func TestReaderReadS64(t *testing.T) {
	tests := []struct {
		encoded []byte
		want    int64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, -1},
		{[]byte{0x3f}, 63},
		{[]byte{0x40}, -64},
	}

	for _, tt := range tests {
		r := NewReader(tt.encoded)
		got, err := r.ReadS64()
		if err != nil {
			t.Errorf("ReadS64(%v): %v", tt.encoded, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ReadS64(%v): got %d, want %d", tt.encoded, got, tt.want)
		}
	}
}

func TestReaderReadS64Overflow(t *testing.T) {
	data := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	r := NewReader(data)
	if _, err := r.ReadS64(); !errors.Is(err, ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
}

func TestReaderReadS33(t *testing.T) {
	// heap-type immediates use the same shape as s32 for small values
	r := NewReader([]byte{0x7f})
	got, err := r.ReadS33()
	if err != nil {
		t.Fatalf("ReadS33: %v", err)
	}
	if got != -1 {
		t.Errorf("ReadS33: got %d, want -1", got)
	}
}

func TestReaderReadName(t *testing.T) {
	data := append([]byte{0x05}, "hello"...)
	r := NewReader(data)
	got, err := r.ReadName()
	if err != nil {
		t.Fatalf("ReadName: %v", err)
	}
	if got != "hello" {
		t.Errorf("ReadName: got %q, want %q", got, "hello")
	}
}

func TestReaderReadNameInvalidUTF8(t *testing.T) {
	data := []byte{0x02, 0xff, 0xfe}
	r := NewReader(data)
	if _, err := r.ReadName(); !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("expected ErrInvalidUTF8, got %v", err)
	}
}

func TestReaderReadNameTruncated(t *testing.T) {
	data := []byte{0x05, 0x61, 0x62}
	r := NewReader(data)
	if _, err := r.ReadName(); err == nil {
		t.Error("expected error for truncated name")
	}
}

func TestReaderReadU32LE(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}
	r := NewReader(data)
	got, err := r.ReadU32LE()
	if err != nil {
		t.Fatalf("ReadU32LE: %v", err)
	}
	if want := uint32(0x04030201); got != want {
		t.Errorf("ReadU32LE: got 0x%08x, want 0x%08x", got, want)
	}
}

func TestReaderReadU32LETruncated(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	if _, err := r.ReadU32LE(); err == nil {
		t.Error("expected error for truncated u32le")
	}
}

func TestReaderMarkReset(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}
	r := NewReader(data)

	r.ReadBytes(3)
	if r.Position() != 3 {
		t.Errorf("position: got %d, want 3", r.Position())
	}

	mark := r.Mark()
	r.ReadByte()
	if err := r.Reset(mark); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if r.Position() != 3 {
		t.Errorf("position after reset: got %d, want 3", r.Position())
	}

	b, _ := r.ReadByte()
	if b != 0x04 {
		t.Errorf("ReadByte after reset: got 0x%02x, want 0x04", b)
	}
}

func TestReaderResetOutOfRange(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	if err := r.Reset(-1); err == nil {
		t.Error("expected error for negative reset position")
	}
	if err := r.Reset(99); err == nil {
		t.Error("expected error for reset position past end")
	}
}

func TestReaderReadRemaining(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	r := NewReader(data)
	r.ReadBytes(2)

	remaining := r.ReadRemaining()
	if !bytes.Equal(remaining, []byte{0x03, 0x04, 0x05}) {
		t.Errorf("ReadRemaining: got %v, want [3 4 5]", remaining)
	}
	if r.Len() != 0 {
		t.Errorf("Len after ReadRemaining: got %d, want 0", r.Len())
	}
}

func TestPositionErrorUnwrap(t *testing.T) {
	inner := errors.New("inner error")
	pe := &PositionError{Offset: 10, Err: inner}
	if !errors.Is(pe, inner) {
		t.Error("errors.Is should see through PositionError to the inner error")
	}
	if pe.Error() != "at byte 10: inner error" {
		t.Errorf("Error(): got %q", pe.Error())
	}
}

func TestReaderReadFloat64RoundTrip(t *testing.T) {
	// little-endian bytes for the bit pattern 0x0102030405060708
	data := []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}
	r := NewReader(data)
	got, err := r.ReadFloat64()
	if err != nil {
		t.Fatalf("ReadFloat64: %v", err)
	}
	if want := uint64(0x0102030405060708); got != want {
		t.Errorf("ReadFloat64: got 0x%016x, want 0x%016x", got, want)
	}
}
