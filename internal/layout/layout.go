package layout

import (
	"strings"
)

// PaperSize identifies a supported paper roll width
type PaperSize string

// Supported paper sizes
const (
	PaperSize58mm PaperSize = "PRINTING_SIZE_58_MM"
	PaperSize76mm PaperSize = "PRINTING_SIZE_76_MM"
	PaperSize80mm PaperSize = "PRINTING_SIZE_80_MM"
)

// Config is the character grid and raster width for one paper size
type Config struct {
	Name              string
	CharsOnLine       int // Font A columns
	PrintingWidthDots int // printable dots at 203 dpi
}

// Common receipt paper geometries
var (
	Layout58mm = Config{"58mm", 32, 384}
	Layout76mm = Config{"76mm", 42, 450}
	Layout80mm = Config{"80mm", 48, 576}
)

var AllSizes = []PaperSize{PaperSize58mm, PaperSize76mm, PaperSize80mm}

// LayoutFor returns the geometry for size. Anything unrecognised falls back
// to 58mm, the narrowest roll.
func LayoutFor(size PaperSize) Config {
	switch size {
	case PaperSize80mm:
		return Layout80mm
	case PaperSize76mm:
		return Layout76mm
	case PaperSize58mm:
		return Layout58mm
	default:
		return Layout58mm
	}
}

// ParsePaperSize accepts the exported identifiers as well as short forms
// like "80" or "80mm". Unknown values map to 58mm.
func ParsePaperSize(s string) PaperSize {
	v := strings.ToUpper(strings.TrimSpace(s))
	switch v {
	case string(PaperSize80mm), "80", "80MM":
		return PaperSize80mm
	case string(PaperSize76mm), "76", "76MM":
		return PaperSize76mm
	default:
		return PaperSize58mm
	}
}
