package color

import (
	"fmt"
	"strconv"
	"strings"
)

const exampleWidth = 47

type exampleColumn struct {
	title string
	opts  []Option
}

var exampleColumns = []exampleColumn{
	{"--", nil},
	{"bold", []Option{Bold()}},
	{"faint", []Option{Faint()}},
	{"both", []Option{Bold(), Faint()}},
}

// MakeExamples returns text demonstrating available colors: named colors,
// colors 0-15 and the 6x6x6 rgb cube printed plain, bold, faint and
// bold+faint in side-by-side columns. Shades of gray close each column
// without modifiers.
func MakeExamples() string {
	columns := make([][]string, len(exampleColumns))
	for i, c := range exampleColumns {
		columns[i] = exampleLines(c.title, c.opts)
	}
	lines := make([]string, len(columns[0]))
	parts := make([]string, len(columns))
	for i := range lines {
		for j := range columns {
			parts[j] = columns[j][i]
		}
		lines[i] = strings.Join(parts, "  ")
	}
	return strings.Join(lines, "\n")
}

func exampleLines(title string, opts []Option) []string {
	separator := strings.Repeat(" ", exampleWidth)
	space := PlainChunk(" ")
	line := func(t Text) string { return t.Pad(exampleWidth, '<', ' ') }

	lines := []string{fmt.Sprintf("%-*s", exampleWidth, title), separator}

	for i := 0; i < 4; i++ {
		var t Text
		for _, id := range []int{i, i + 4} {
			name := ColorNames[id]
			t.Append(MustFmt(name, opts...).Text(fmt.Sprintf("%2d. %s", id, name)).Text().FixedLen(15))
		}
		lines = append(lines, line(t))
	}
	lines = append(lines, separator)

	for base := 0; base < 8; base++ {
		var t Text
		for _, id := range []int{base, base + 8} {
			t.Append(MustFmt(id, opts...).Text(fmt.Sprintf("COLOR %2d", id)).Text().FixedLen(15))
		}
		lines = append(lines, line(t))
	}
	lines = append(lines, separator)

	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			parts := make([]any, 0, 6)
			for b := 0; b < 6; b++ {
				id := 16 + r*36 + g*6 + b
				parts = append(parts, MustFmt(RGB{r, g, b}, opts...).Text(fmt.Sprintf("%d%d%d=%03d", r, g, b, id)))
			}
			lines = append(lines, line(NewText(space).Join(parts...)))
		}
		lines = append(lines, separator)
	}
	lines = append(lines, separator)

	for _, base := range []int{0, 12} {
		parts := make([]any, 0, 12)
		for i := 0; i < 12; i++ {
			id := 232 + base + i
			parts = append(parts, MustFmt(id).Text(strconv.Itoa(id)))
		}
		lines = append(lines, line(NewText(space).Join(parts...)))
	}
	return lines
}
