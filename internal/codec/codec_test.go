package codec

import "testing"

func TestU32RoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	PutU32(buf, 0, 0x01020304)
	PutU32(buf, 4, 0xFFFFFFFF)

	if got := GetU32(buf, 0); got != 0x01020304 {
		t.Fatalf("GetU32(0) = %#x, want %#x", got, 0x01020304)
	}
	if got := GetU32(buf, 4); got != 0xFFFFFFFF {
		t.Fatalf("GetU32(4) = %#x, want %#x", got, uint32(0xFFFFFFFF))
	}

	// big-endian: high byte first
	if buf[0] != 0x01 || buf[3] != 0x04 {
		t.Fatalf("PutU32 did not encode big-endian: %v", buf[0:4])
	}
}

func TestF32RoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	want := float32(3.14159)
	PutF32(buf, 0, want)
	if got := GetF32(buf, 0); got != want {
		t.Fatalf("GetF32 = %v, want %v", got, want)
	}
}
