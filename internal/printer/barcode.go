package printer

import (
	"fmt"
	"image"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/codabar"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/code93"
	"github.com/boombuler/barcode/ean"
	"github.com/boombuler/barcode/qr"
	"github.com/boombuler/barcode/twooffive"

	"escpos-print/internal/escpos"
)

// Barcode module width and height limits shared by all symbologies
const (
	BarcodeMinWidth  = 2
	BarcodeMaxWidth  = 6
	BarcodeMinHeight = 1
	BarcodeMaxHeight = 255
)

// Symbology describes one GS k barcode system
type Symbology struct {
	Name       string
	Function   byte // GS k m, function B form
	MinLen     int
	MaxLen     int
	DigitsOnly bool
	EvenLen    bool
	validate   func(code string) error
}

var symbologies = map[string]Symbology{
	"UPC_A": {"UPC_A", 65, 11, 12, true, false, func(code string) error {
		_, err := ean.Encode("0" + code)
		return err
	}},
	"UPC_E":   {"UPC_E", 66, 6, 12, true, false, nil},
	"EAN13":   {"EAN13", 67, 12, 13, true, false, encodeEAN},
	"EAN8":    {"EAN8", 68, 7, 8, true, false, encodeEAN},
	"CODE39":  {"CODE39", 69, 1, 255, false, false, encodeCode39},
	"ITF":     {"ITF", 70, 2, 254, true, true, encodeITF},
	"CODABAR": {"CODABAR", 71, 2, 255, false, false, encodeCodabar},
	"CODE93":  {"CODE93", 72, 1, 255, false, false, encodeCode93},
	"CODE128": {"CODE128", 73, 1, 253, false, false, encodeCode128},
}

var symbologyAliases = map[string]string{
	"UPCA":     "UPC_A",
	"UPC-A":    "UPC_A",
	"UPCE":     "UPC_E",
	"UPC-E":    "UPC_E",
	"EAN_13":   "EAN13",
	"JAN13":    "EAN13",
	"EAN_8":    "EAN8",
	"JAN8":     "EAN8",
	"CODE_39":  "CODE39",
	"NW7":      "CODABAR",
	"CODE_93":  "CODE93",
	"CODE_128": "CODE128",
}

func encodeEAN(code string) error {
	_, err := ean.Encode(code)
	return err
}

func encodeCode39(code string) error {
	_, err := code39.Encode(code, false, false)
	return err
}

func encodeITF(code string) error {
	_, err := twooffive.Encode(code, true)
	return err
}

func encodeCodabar(code string) error {
	_, err := codabar.Encode(code)
	return err
}

func encodeCode93(code string) error {
	_, err := code93.Encode(code, false, false)
	return err
}

func encodeCode128(code string) error {
	_, err := code128.Encode(code)
	return err
}

// LookupSymbology resolves a symbology name such as "EAN13" or "CODE128"
func LookupSymbology(name string) (Symbology, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if alias, ok := symbologyAliases[key]; ok {
		key = alias
	}
	sym, ok := symbologies[key]
	if !ok {
		return Symbology{}, fmt.Errorf("%w: unknown symbology %q", ErrBarcodeContent, name)
	}
	return sym, nil
}

// hriPosition maps the human readable text position onto GS H n
func hriPosition(position string) (byte, error) {
	switch strings.ToUpper(strings.TrimSpace(position)) {
	case "OFF", "NONE":
		return 0, nil
	case "ABOVE":
		return 1, nil
	case "", "BELOW":
		return 2, nil
	case "BOTH":
		return 3, nil
	default:
		return 0, fmt.Errorf("%w: unknown text position %q", ErrBarcodeContent, position)
	}
}

// hriFont maps the human readable font onto GS f n
func hriFont(font string) (byte, error) {
	switch strings.ToUpper(strings.TrimSpace(font)) {
	case "", "A":
		return 0, nil
	case "B":
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: unknown font %q", ErrBarcodeContent, font)
	}
}

// validate checks size limits first, then content
func (s Symbology) check(code string, width, height int) error {
	if width < BarcodeMinWidth || width > BarcodeMaxWidth {
		return fmt.Errorf("%w: width %d not in %d..%d", ErrBarcodeSize, width, BarcodeMinWidth, BarcodeMaxWidth)
	}
	if height < BarcodeMinHeight || height > BarcodeMaxHeight {
		return fmt.Errorf("%w: height %d not in %d..%d", ErrBarcodeSize, height, BarcodeMinHeight, BarcodeMaxHeight)
	}
	if n := len(code); n < s.MinLen || n > s.MaxLen {
		return fmt.Errorf("%w: %s takes %d..%d characters, got %d", ErrBarcodeSize, s.Name, s.MinLen, s.MaxLen, n)
	}
	if s.EvenLen && len(code)%2 != 0 {
		return fmt.Errorf("%w: %s needs an even number of digits", ErrBarcodeSize, s.Name)
	}

	if s.DigitsOnly {
		for _, r := range code {
			if r < '0' || r > '9' {
				return fmt.Errorf("%w: %s accepts digits only", ErrBarcodeContent, s.Name)
			}
		}
	}
	if s.validate != nil {
		if err := s.validate(code); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrBarcodeContent, s.Name, err)
		}
	}
	return nil
}

// buildBarcode validates a barcode request and returns its command bytes
func buildBarcode(code, symbology string, width, height int, position, font string) ([]byte, error) {
	sym, err := LookupSymbology(symbology)
	if err != nil {
		return nil, err
	}
	if err := sym.check(code, width, height); err != nil {
		return nil, err
	}
	pos, err := hriPosition(position)
	if err != nil {
		return nil, err
	}
	f, err := hriFont(font)
	if err != nil {
		return nil, err
	}

	data := []byte(code)
	if sym.Name == "CODE128" && !strings.HasPrefix(code, "{") {
		// Function B Code128 data starts with a code set selector
		data = append([]byte("{B"), data...)
	}

	return escpos.New().
		BarcodeHRI(pos).
		BarcodeFont(f).
		BarcodeWidth(byte(width)).
		BarcodeHeight(byte(height)).
		Barcode(sym.Function, data).
		Bytes(), nil
}

// qrImage renders value as a size x size QR symbol
func qrImage(value string, size int) (image.Image, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: empty value", ErrQRCode)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %d", ErrQRCode, size)
	}

	code, err := qr.Encode(value, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQRCode, err)
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQRCode, err)
	}
	return scaled, nil
}
