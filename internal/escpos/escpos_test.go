package escpos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandSequences(t *testing.T) {
	tests := []struct {
		name string
		cmd  *Command
		want []byte
	}{
		{"line feed", New().LineFeed(), []byte{0x0A}},
		{"cut full", New().CutFull(), []byte{0x1D, 0x56, 0x00}},
		{"cut part", New().CutPart(), []byte{0x1D, 0x56, 0x01}},
		{"beep", New().Beep(), []byte{0x1B, 0x42, 0x03, 0x03}},
		{"drawer pin 2", New().KickDrawer(0), []byte{0x1B, 0x70, 0x00, 0x19, 0xFA}},
		{"drawer pin 5", New().KickDrawer(1), []byte{0x1B, 0x70, 0x01, 0x19, 0xFA}},
		{"double both", New().CharSize(true, true), []byte{0x1D, 0x21, 0x11}},
		{"bold underline", New().Bold(true).Underline(false), []byte{0x1B, 0x45, 0x01, 0x1B, 0x2D, 0x00}},
		{"centre", New().Justify(JustifyCenter), []byte{0x1B, 0x61, 0x01}},
		{"code page", New().CodePage(16), []byte{0x1B, 0x74, 0x10}},
		{"density clamps high", New().Density(42), []byte{0x1D, 0x28, 0x4B, 0x02, 0x00, 0x31, 0x08}},
		{"density clamps low", New().Density(-3), []byte{0x1D, 0x28, 0x4B, 0x02, 0x00, 0x31, 0x00}},
		{"barcode", New().Barcode(73, []byte("AB")), []byte{0x1D, 0x6B, 73, 2, 'A', 'B'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.Bytes())
		})
	}
}

func TestBitImage24Header(t *testing.T) {
	data := make([]byte, 300*3)
	cmd := New().BitImage24(300, data)

	got := cmd.Bytes()
	assert.Equal(t, []byte{0x1B, 0x2A, 33, 0x2C, 0x01}, got[:5])
	assert.Equal(t, 5+900, cmd.Len())
}
