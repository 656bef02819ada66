package escpos

import (
	"bytes"
)

// Control characters
const (
	LF  = 0x0A
	ESC = 0x1B
	GS  = 0x1D
)

// Justification values for ESC a
const (
	JustifyLeft   byte = 0x00
	JustifyCenter byte = 0x01
	JustifyRight  byte = 0x02
)

// Line spacing used around bit images; 24 dots makes bands touch
const (
	LineSpacingImage   = 24
	LineSpacingDefault = 30
)

// Command builds ESC/POS byte sequences
type Command struct {
	buf bytes.Buffer
}

func New() *Command {
	return &Command{}
}

// Raw appends bytes unchanged
func (c *Command) Raw(data []byte) *Command {
	c.buf.Write(data)
	return c
}

// LineFeed prints the buffer and advances one line
func (c *Command) LineFeed() *Command {
	c.buf.WriteByte(LF)
	return c
}

// Justify sets text alignment (ESC a n)
func (c *Command) Justify(j byte) *Command {
	c.buf.Write([]byte{ESC, 0x61, j})
	return c
}

// Bold toggles emphasized mode (ESC E n)
func (c *Command) Bold(on bool) *Command {
	c.buf.Write([]byte{ESC, 0x45, flag(on)})
	return c
}

// Underline toggles 1-dot underline (ESC - n)
func (c *Command) Underline(on bool) *Command {
	c.buf.Write([]byte{ESC, 0x2D, flag(on)})
	return c
}

// Invert toggles white on black printing (GS B n)
func (c *Command) Invert(on bool) *Command {
	c.buf.Write([]byte{GS, 0x42, flag(on)})
	return c
}

// CharSize selects double width and/or double height (GS ! n)
func (c *Command) CharSize(doubleWidth, doubleHeight bool) *Command {
	var n byte
	if doubleWidth {
		n |= 0x10
	}
	if doubleHeight {
		n |= 0x01
	}
	c.buf.Write([]byte{GS, 0x21, n})
	return c
}

// CodePage selects a character code table (ESC t n)
func (c *Command) CodePage(n byte) *Command {
	c.buf.Write([]byte{ESC, 0x74, n})
	return c
}

// Density sets print darkness (0-8)
// GS ( K pL pH fn m with fn = 49
func (c *Command) Density(level int) *Command {
	if level < 0 {
		level = 0
	}
	if level > 8 {
		level = 8
	}
	c.buf.Write([]byte{GS, 0x28, 0x4B, 0x02, 0x00, 0x31, byte(level)})
	return c
}

// LineSpacing sets the line feed amount in dots (ESC 3 n)
func (c *Command) LineSpacing(n byte) *Command {
	c.buf.Write([]byte{ESC, 0x33, n})
	return c
}

// BitImage24 adds one band of a 24-dot double density bit image (ESC * 33).
// data holds 3 bytes per column, widthDots columns.
func (c *Command) BitImage24(widthDots int, data []byte) *Command {
	c.buf.Write([]byte{ESC, 0x2A, 33, byte(widthDots & 0xFF), byte((widthDots >> 8) & 0xFF)})
	c.buf.Write(data)
	return c
}

// BarcodeHRI sets where the human readable text is printed (GS H n)
func (c *Command) BarcodeHRI(position byte) *Command {
	c.buf.Write([]byte{GS, 0x48, position})
	return c
}

// BarcodeFont selects the HRI font (GS f n)
func (c *Command) BarcodeFont(font byte) *Command {
	c.buf.Write([]byte{GS, 0x66, font})
	return c
}

// BarcodeHeight sets the bar height in dots (GS h n)
func (c *Command) BarcodeHeight(h byte) *Command {
	c.buf.Write([]byte{GS, 0x68, h})
	return c
}

// BarcodeWidth sets the module width (GS w n)
func (c *Command) BarcodeWidth(w byte) *Command {
	c.buf.Write([]byte{GS, 0x77, w})
	return c
}

// Barcode prints data with symbology m using the length-prefixed form
// (GS k m n d1...dn, m >= 65)
func (c *Command) Barcode(m byte, data []byte) *Command {
	c.buf.Write([]byte{GS, 0x6B, m, byte(len(data))})
	c.buf.Write(data)
	return c
}

// CutFull performs a full paper cut (GS V 0)
func (c *Command) CutFull() *Command {
	c.buf.Write([]byte{GS, 0x56, 0x00})
	return c
}

// CutPart performs a partial paper cut (GS V 1)
func (c *Command) CutPart() *Command {
	c.buf.Write([]byte{GS, 0x56, 0x01})
	return c
}

// Beep sounds the buzzer 3 times for 3 x 50ms (ESC B n t)
func (c *Command) Beep() *Command {
	c.buf.Write([]byte{ESC, 0x42, 0x03, 0x03})
	return c
}

// KickDrawer pulses drawer connector pin 2 (pin=0) or pin 5 (pin=1)
// for 50ms on, 500ms off (ESC p m t1 t2)
func (c *Command) KickDrawer(pin byte) *Command {
	c.buf.Write([]byte{ESC, 0x70, pin, 0x19, 0xFA})
	return c
}

// Len returns the number of bytes built so far
func (c *Command) Len() int {
	return c.buf.Len()
}

// Bytes returns the raw command bytes to send to printer
func (c *Command) Bytes() []byte {
	return c.buf.Bytes()
}

func flag(on bool) byte {
	if on {
		return 1
	}
	return 0
}
