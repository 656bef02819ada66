package layout

import (
	"regexp"
	"strings"
)

// Align is the horizontal justification of a printed line
type Align byte

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Style holds the text attributes a design line is printed with
type Style struct {
	Bold         bool
	Underline    bool
	Invert       bool
	DoubleWidth  bool
	DoubleHeight bool
	Align        Align
}

// Line is one physical line of a laid out design. Exactly one of Text or QR
// is meaningful: a non-empty QR asks for a QR code instead of text.
type Line struct {
	Style Style
	Text  string
	QR    string
}

const justifyTag = "{<>}"

var (
	styleTag = regexp.MustCompile(`\{(B|U|I|H1|H2|H3|C|R)\}`)
	qrTag    = regexp.MustCompile(`\{QR\[(.*?)\]\}`)
)

// ParseDesign lays out markup on a grid of charsOnLine columns.
//
// Supported markup, per source line:
//
//	{B} {U} {I}      bold, underline, inverted
//	{H1} {H2} {H3}   double width+height, double height, double width
//	{C} {R}          centre or right alignment
//	left{<>}right    left and right parts pushed to the line edges
//	----- ===== ***  a line of one repeated character becomes a divider
//	{QR[value]}      a QR code
//
// Double width halves the available columns. Text wider than the line wraps
// onto further lines carrying the same style.
func ParseDesign(markup string, charsOnLine int) []Line {
	var out []Line

	markup = strings.ReplaceAll(markup, "\r\n", "\n")
	for _, raw := range strings.Split(markup, "\n") {
		if m := qrTag.FindStringSubmatch(raw); m != nil {
			out = append(out, Line{QR: m[1]})
			continue
		}

		style, text := parseStyle(raw)
		cols := charsOnLine
		if style.DoubleWidth {
			cols /= 2
		}
		if cols < 1 {
			cols = 1
		}

		switch {
		case isDivider(text):
			r := []rune(text)[0]
			out = append(out, Line{Style: style, Text: Divider(r, cols)})

		case strings.Contains(text, justifyTag):
			left, right, _ := strings.Cut(text, justifyTag)
			left = strings.TrimRight(left, " ")
			right = strings.TrimLeft(strings.ReplaceAll(right, justifyTag, ""), " ")
			out = append(out, Line{Style: style, Text: Justify(left, right, cols)})

		case Width(text) > cols:
			for _, l := range Wrap(text, cols) {
				out = append(out, Line{Style: style, Text: l})
			}

		default:
			out = append(out, Line{Style: style, Text: text})
		}
	}

	// Markup usually starts and ends with a newline inside a template literal
	for len(out) > 0 && out[0].QR == "" && out[0].Text == "" && out[0].Style == (Style{}) {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1].QR == "" && out[len(out)-1].Text == "" && out[len(out)-1].Style == (Style{}) {
		out = out[:len(out)-1]
	}
	return out
}

func parseStyle(raw string) (Style, string) {
	var st Style
	tags := styleTag.FindAllStringSubmatch(raw, -1)
	if len(tags) == 0 {
		return st, strings.TrimRight(raw, " \t")
	}

	for _, tag := range tags {
		switch tag[1] {
		case "B":
			st.Bold = true
		case "U":
			st.Underline = true
		case "I":
			st.Invert = true
		case "H1":
			st.DoubleWidth, st.DoubleHeight = true, true
		case "H2":
			st.DoubleHeight = true
		case "H3":
			st.DoubleWidth = true
		case "C":
			st.Align = AlignCenter
		case "R":
			st.Align = AlignRight
		}
	}
	return st, strings.TrimSpace(styleTag.ReplaceAllString(raw, ""))
}

func isDivider(text string) bool {
	if len(text) < 2 {
		return false
	}
	first := text[0]
	if !strings.ContainsRune("-=*_", rune(first)) {
		return false
	}
	return strings.Count(text, string(first)) == len(text)
}
