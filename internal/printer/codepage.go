package printer

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

// CodePage is a character table the printer renders text with
type CodePage struct {
	Name     string
	Encoding encoding.Encoding // nil sends UTF-8 bytes unchanged
	Table    byte              // ESC t n value
	HasTable bool              // false when the printer has no ESC t number for it
}

// DefaultCharCode is the power-on table of ESC/POS printers
const DefaultCharCode = "CP437"

// Code pages with a standard ESC t table number
var codePages = map[string]CodePage{
	"CP437":       {"CP437", charmap.CodePage437, 0, true},
	"CP850":       {"CP850", charmap.CodePage850, 2, true},
	"CP860":       {"CP860", charmap.CodePage860, 3, true},
	"CP863":       {"CP863", charmap.CodePage863, 4, true},
	"CP865":       {"CP865", charmap.CodePage865, 5, true},
	"WPC1252":     {"WPC1252", charmap.Windows1252, 16, true},
	"CP866":       {"CP866", charmap.CodePage866, 17, true},
	"CP852":       {"CP852", charmap.CodePage852, 18, true},
	"CP858":       {"CP858", charmap.CodePage858, 19, true},
	"ISO-8859-2":  {"ISO-8859-2", charmap.ISO8859_2, 39, true},
	"ISO-8859-15": {"ISO-8859-15", charmap.ISO8859_15, 40, true},
	"WPC1250":     {"WPC1250", charmap.Windows1250, 45, true},
	"WPC1251":     {"WPC1251", charmap.Windows1251, 46, true},
	"WPC1253":     {"WPC1253", charmap.Windows1253, 47, true},
	"WPC1254":     {"WPC1254", charmap.Windows1254, 48, true},
	"WPC1257":     {"WPC1257", charmap.Windows1257, 50, true},
}

var codePageAliases = map[string]string{
	"PC437":        "CP437",
	"IBM437":       "CP437",
	"PC850":        "CP850",
	"PC852":        "CP852",
	"PC858":        "CP858",
	"PC860":        "CP860",
	"PC863":        "CP863",
	"PC865":        "CP865",
	"PC866":        "CP866",
	"CP1252":       "WPC1252",
	"WINDOWS-1252": "WPC1252",
	"CP1250":       "WPC1250",
	"WINDOWS-1250": "WPC1250",
	"CP1251":       "WPC1251",
	"WINDOWS-1251": "WPC1251",
	"CP1253":       "WPC1253",
	"WINDOWS-1253": "WPC1253",
	"CP1254":       "WPC1254",
	"WINDOWS-1254": "WPC1254",
	"CP1257":       "WPC1257",
	"WINDOWS-1257": "WPC1257",
	"LATIN2":       "ISO-8859-2",
	"ISO8859-2":    "ISO-8859-2",
	"ISO8859-15":   "ISO-8859-15",
	"LATIN9":       "ISO-8859-15",
}

// LookupCodePage resolves a code page name. Names outside the ESC t table
// are looked up in the IANA registry and used without switching the
// printer's table, which must then be set up on the device.
func LookupCodePage(name string) (CodePage, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if key == "" {
		return CodePage{}, fmt.Errorf("%w: empty code page", ErrEncoding)
	}
	if alias, ok := codePageAliases[key]; ok {
		key = alias
	}
	if cp, ok := codePages[key]; ok {
		return cp, nil
	}
	if key == "UTF-8" || key == "UTF8" {
		return CodePage{Name: "UTF-8"}, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return CodePage{}, fmt.Errorf("%w: unknown code page %q", ErrEncoding, name)
	}
	return CodePage{Name: key, Encoding: enc}, nil
}

// Encode converts text into the bytes of the code page. Characters the page
// cannot represent fail with ErrEncoding.
func (cp CodePage) Encode(text string) ([]byte, error) {
	if cp.Encoding == nil {
		return []byte(text), nil
	}
	out, err := cp.Encoding.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEncoding, cp.Name, err)
	}
	return out, nil
}
