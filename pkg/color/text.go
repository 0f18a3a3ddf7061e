package color

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"
)

var seqRe = regexp.MustCompile("\033\\[[;:\\d]*m")

// StripColors removes color escape sequences from s.
func StripColors(s string) string {
	return seqRe.ReplaceAllString(s, "")
}

// Chunk is a piece of single-colored text.
type Chunk struct {
	prefix string
	text   string
	suffix string
}

// PlainChunk returns a chunk without any effects.
func PlainChunk(s string) Chunk {
	return Chunk{text: s}
}

func (c Chunk) IsPlain() bool { return c.prefix == "" }

// Plain returns the printable text of the chunk.
func (c Chunk) Plain() string { return c.text }

func (c Chunk) String() string { return c.prefix + c.text + c.suffix }

// Len returns the number of printable runes.
func (c Chunk) Len() int { return utf8.RuneCountInString(c.text) }

func (c Chunk) clone(text string) Chunk {
	return Chunk{prefix: c.prefix, text: text, suffix: c.suffix}
}

func (c Chunk) sameStyle(other Chunk) bool { return c.prefix == other.prefix }

// Text converts the chunk to a Text.
func (c Chunk) Text() Text { return NewText(c) }

func (c Chunk) Format(f fmt.State, verb rune) { NewText(c).Format(f, verb) }

// Text is a string-like sequence of colored chunks. Its length is the
// number of printable characters, escape sequences are not counted.
//
// Adjacent chunks of the same style are merged, empty chunks are dropped.
type Text struct {
	chunks []Chunk
	length int
}

// NewText builds a Text from strings, Chunks, Texts, slices of those, or
// any other values (rendered with fmt as plain text).
func NewText(parts ...any) Text {
	var t Text
	t.Append(parts...)
	return t
}

func (t *Text) Append(parts ...any) *Text {
	for _, part := range parts {
		switch v := part.(type) {
		case nil:
		case Chunk:
			t.appendChunk(v)
		case Text:
			for _, c := range v.chunks {
				t.appendChunk(c)
			}
		case *Text:
			if v != nil {
				for _, c := range v.chunks {
					t.appendChunk(c)
				}
			}
		case string:
			t.appendChunk(PlainChunk(v))
		case []Chunk:
			for _, c := range v {
				t.appendChunk(c)
			}
		case []Text:
			for _, x := range v {
				t.Append(x)
			}
		case []string:
			for _, x := range v {
				t.appendChunk(PlainChunk(x))
			}
		case []any:
			t.Append(v...)
		default:
			t.appendChunk(PlainChunk(fmt.Sprint(v)))
		}
	}
	return t
}

// Concat returns a new Text: t followed by parts. t is not modified.
func (t Text) Concat(parts ...any) Text {
	res := t.clone()
	res.Append(parts...)
	return res
}

func (t Text) clone() Text {
	chunks := make([]Chunk, len(t.chunks))
	copy(chunks, t.chunks)
	return Text{chunks: chunks, length: t.length}
}

func (t *Text) appendChunk(c Chunk) {
	if c.text == "" {
		// prefix immediately followed by suffix has no visible effect
		return
	}
	n := len(t.chunks)
	if n > 0 && t.chunks[n-1].sameStyle(c) {
		prev := t.chunks[n-1]
		t.chunks[n-1] = prev.clone(prev.text + c.text)
	} else {
		t.chunks = append(t.chunks, c)
	}
	t.length += c.Len()
}

func (t Text) Chunks() []Chunk {
	res := make([]Chunk, len(t.chunks))
	copy(res, t.chunks)
	return res
}

func (t Text) String() string {
	var sb strings.Builder
	for _, c := range t.chunks {
		sb.WriteString(c.prefix)
		sb.WriteString(c.text)
		sb.WriteString(c.suffix)
	}
	return sb.String()
}

// Plain returns the text without color sequences.
func (t Text) Plain() string {
	var sb strings.Builder
	for _, c := range t.chunks {
		sb.WriteString(c.text)
	}
	return sb.String()
}

func (t Text) Len() int { return t.length }

// Width returns the number of terminal cells the text occupies.
func (t Text) Width() int {
	w := 0
	for _, c := range t.chunks {
		for _, r := range c.text {
			w += RuneWidth(r)
		}
	}
	return w
}

// RuneWidth returns the number of terminal cells the rune occupies.
func RuneWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	}
	return 1
}

// Equal reports whether other (Text, Chunk or string) has the same text
// and colors. A plain Text is equal to the raw string with the same text.
func (t Text) Equal(other any) bool {
	switch v := other.(type) {
	case Text:
		if len(t.chunks) != len(v.chunks) {
			return false
		}
		for i := range t.chunks {
			if t.chunks[i] != v.chunks[i] {
				return false
			}
		}
		return true
	case *Text:
		return v != nil && t.Equal(*v)
	case Chunk:
		if len(t.chunks) == 0 {
			return v.text == ""
		}
		return len(t.chunks) == 1 && t.chunks[0] == v
	case string:
		if len(t.chunks) == 0 {
			return v == ""
		}
		return len(t.chunks) == 1 && t.chunks[0].IsPlain() && t.chunks[0].text == v
	}
	return false
}

// Join concatenates parts placing t between them.
func (t Text) Join(parts ...any) Text {
	var res Text
	for i, p := range parts {
		if i > 0 {
			res.Append(t)
		}
		res.Append(p)
	}
	return res
}

// At returns the single-character Text at position i. Negative i counts
// from the end.
func (t Text) At(i int) (Text, error) {
	orig := i
	if i < 0 {
		i += t.length
	}
	chunkID, pos := t.chunkPos(i)
	if chunkID < 0 {
		return Text{}, fmt.Errorf("index %d is out of range", orig)
	}
	runes := []rune(t.chunks[chunkID].text)
	return NewText(t.chunks[chunkID].clone(string(runes[pos]))), nil
}

// Slice returns the part of text between start and end positions. Both
// may be negative (counted from the end); out-of-range values are clamped.
func (t Text) Slice(start, end int) Text {
	if start < 0 {
		start = max(0, t.length+start)
	}
	if end < 0 {
		end = max(0, t.length+end)
	}
	if end > t.length {
		end = t.length
	}
	remain := end - start
	if remain <= 0 {
		return Text{}
	}

	chunkID, pos := t.chunkPos(start)
	if chunkID < 0 {
		return Text{}
	}

	var res Text
	runes := []rune(t.chunks[chunkID].text)[pos:]
	cur := t.chunks[chunkID]
	for remain > 0 {
		if remain <= len(runes) {
			res.appendChunk(cur.clone(string(runes[:remain])))
			break
		}
		res.appendChunk(cur.clone(string(runes)))
		remain -= len(runes)
		chunkID++
		if chunkID >= len(t.chunks) {
			break
		}
		cur = t.chunks[chunkID]
		runes = []rune(cur.text)
	}
	return res
}

func (t Text) chunkPos(position int) (int, int) {
	if position < 0 {
		return -1, -1
	}
	for i, c := range t.chunks {
		n := c.Len()
		if position < n {
			return i, position
		}
		position -= n
	}
	return -1, -1
}

// FixedLen truncates the text or pads it with spaces to exactly n characters.
func (t Text) FixedLen(n int) Text {
	diff := n - t.length
	if diff < 0 {
		return t.Slice(0, n)
	}
	if diff > 0 {
		return t.Concat(strings.Repeat(" ", diff))
	}
	return t
}

// Pad returns colored string padded to the specified display width.
// align is one of '<', '>', '^'.
func (t Text) Pad(w int, align byte, fill rune) string {
	filler := w - t.Width()
	if filler <= 0 {
		return t.String()
	}
	fs := string(fill)
	switch align {
	case '>':
		return strings.Repeat(fs, filler) + t.String()
	case '^':
		left := filler / 2
		return strings.Repeat(fs, left) + t.String() + strings.Repeat(fs, filler-left)
	default:
		return t.String() + strings.Repeat(fs, filler)
	}
}

// FormatSpec formats the text according to spec "[[fill]align][width][s]".
//
//	"10"   -> "text      "
//	"_^10" -> "___text___"
func (t Text) FormatSpec(spec string) (string, error) {
	if spec != "" {
		last := spec[len(spec)-1]
		if !isDigit(last) && last != '<' && last != '>' && last != '^' {
			if last != 's' {
				return "", fmt.Errorf(
					"can't format Text object: invalid format type '%c' specified", last)
			}
			spec = spec[:len(spec)-1]
		}
	}

	rs := []rune(spec)
	alignPos := -1
	align := byte('<')
	for i := min(1, len(rs)-1); i >= 0; i-- {
		if rs[i] == '<' || rs[i] == '>' || rs[i] == '^' {
			alignPos = i
			align = byte(rs[i])
			break
		}
	}

	w := 0
	if widthPart := string(rs[alignPos+1:]); widthPart != "" {
		n, err := strconv.Atoi(widthPart)
		if err != nil {
			return "", fmt.Errorf(
				"can't format Text object: invalid width '%s' specified", widthPart)
		}
		w = n
	}

	fill := ' '
	if alignPos == 1 {
		fill = rs[0]
	}
	return t.Pad(w, align, fill), nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// Format implements fmt.Formatter: width is measured in terminal cells,
// so "%-20s" aligns colored text the same way as plain text.
func (t Text) Format(f fmt.State, verb rune) {
	switch verb {
	case 's', 'v':
	case 'q':
		fmt.Fprintf(f, "%q", t.String())
		return
	default:
		fmt.Fprintf(f, "%%!%c(color.Text=%s)", verb, t.Plain())
		return
	}
	w, ok := f.Width()
	if !ok {
		f.Write([]byte(t.String()))
		return
	}
	align := byte('>')
	if f.Flag('-') {
		align = '<'
	}
	f.Write([]byte(t.Pad(w, align, ' ')))
}
