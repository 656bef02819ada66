package layout

import (
	"strings"

	"golang.org/x/text/width"
)

// RuneWidth returns how many grid columns r occupies. East Asian wide and
// fullwidth characters take two cells on ESC/POS printers.
func RuneWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

// Width measures s in grid columns
func Width(s string) int {
	n := 0
	for _, r := range s {
		n += RuneWidth(r)
	}
	return n
}

// Wrap splits text into lines no wider than cols, breaking on spaces where
// possible. Explicit newlines are kept.
func Wrap(text string, cols int) []string {
	if cols < 1 {
		cols = 1
	}
	var lines []string

	// First split by explicit newlines
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		current := ""
		for _, word := range words {
			if current == "" {
				current = breakLongWord(word, cols, &lines)
				continue
			}

			candidate := current + " " + word
			if Width(candidate) <= cols {
				current = candidate
				continue
			}

			// Current line is full, start new line
			lines = append(lines, current)
			current = breakLongWord(word, cols, &lines)
		}

		if current != "" {
			lines = append(lines, current)
		}
	}

	return lines
}

// breakLongWord appends full-width chunks of word to lines and returns the
// remainder, which still fits on one line.
func breakLongWord(word string, cols int, lines *[]string) string {
	if Width(word) <= cols {
		return word
	}

	var part strings.Builder
	used := 0
	for _, r := range word {
		w := RuneWidth(r)
		if used+w > cols && used > 0 {
			*lines = append(*lines, part.String())
			part.Reset()
			used = 0
		}
		part.WriteRune(r)
		used += w
	}
	return part.String()
}

// Truncate cuts s to at most cols columns
func Truncate(s string, cols int) string {
	if Width(s) <= cols {
		return s
	}
	var b strings.Builder
	used := 0
	for _, r := range s {
		w := RuneWidth(r)
		if used+w > cols {
			break
		}
		b.WriteRune(r)
		used += w
	}
	return b.String()
}

// Justify places left and right on one line of cols columns with the gap
// filled by spaces. When both do not fit, left is truncated so that right
// and a single separating space stay visible.
func Justify(left, right string, cols int) string {
	rw := Width(right)
	if rw >= cols {
		return Truncate(right, cols)
	}

	room := cols - rw - 1
	if room < 0 {
		room = 0
	}
	left = Truncate(left, room)
	gap := cols - Width(left) - rw
	return left + strings.Repeat(" ", gap) + right
}

// Divider repeats ch across the full line
func Divider(ch rune, cols int) string {
	if cols < 1 {
		return ""
	}
	return strings.Repeat(string(ch), cols/RuneWidth(ch))
}
