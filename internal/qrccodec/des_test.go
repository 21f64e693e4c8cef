package qrccodec

import "testing"

// Golden key schedule for key1 in Encrypt mode, captured from the
// reference implementation this codec was ported from. Any edit to the
// PC-1/PC-2 handling that breaks this test breaks interop with real QQ
// Music payloads.
func TestKeyScheduleGoldenVector(t *testing.T) {
	want := roundKeys{
		{0x40, 0x0C, 0x26, 0x10, 0x28, 0x08},
		{0x40, 0xA6, 0x20, 0x14, 0x04, 0x15},
		{0xC0, 0x94, 0x26, 0x8B, 0x00, 0xC0},
		{0xE0, 0x82, 0x42, 0x00, 0xE2, 0x01},
		{0x20, 0xD2, 0x22, 0x32, 0x04, 0x04},
		{0xA0, 0x11, 0x52, 0xC8, 0x00, 0x82},
		{0x24, 0x42, 0x51, 0x04, 0x62, 0x09},
		{0x07, 0x51, 0x10, 0x72, 0x10, 0x40},
		{0x06, 0x41, 0x49, 0x4A, 0x80, 0x16},
		{0x0B, 0x41, 0x11, 0x05, 0x44, 0x88},
		{0x0D, 0x09, 0x89, 0x08, 0x10, 0x41},
		{0x13, 0x20, 0x89, 0xC2, 0xC0, 0x24},
		{0x19, 0x0C, 0x80, 0x00, 0x0E, 0x88},
		{0x50, 0x28, 0x8C, 0x98, 0x10, 0x11},
		{0x10, 0xA4, 0x04, 0x43, 0x42, 0x20},
		{0xD0, 0x2C, 0x04, 0x00, 0xCA, 0x82},
	}

	got := keySchedule(key1, modeEncrypt)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("round %d: got %#v, want %#v", i+1, got[i], want[i])
		}
	}
}
