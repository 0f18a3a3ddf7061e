package color

import "fmt"

// Fmt produces text with specified color and effects.
// The zero value produces plain text.
type Fmt struct {
	prefix string
	suffix string
}

// Option modifies a Style before a formatter is built.
type Option func(*Style)

func Bg(c any) Option        { return func(s *Style) { s.Bg = c } }
func Bold() Option           { return func(s *Style) { s.Bold = true } }
func Faint() Option          { return func(s *Style) { s.Faint = true } }
func Underline() Option      { return func(s *Style) { s.Underline = true } }
func Blink() Option          { return func(s *Style) { s.Blink = true } }
func Crossed() Option        { return func(s *Style) { s.Crossed = true } }
func NoColor(on bool) Option { return func(s *Style) { s.NoColor = on } }

// NewFmt creates a formatter for text of color fg.
//
//	f, err := color.NewFmt("RED", color.Bold())
//	fmt.Println(f.Text("alert"))
func NewFmt(fg any, opts ...Option) (Fmt, error) {
	s := Style{Fg: fg}
	for _, opt := range opts {
		opt(&s)
	}
	return s.Fmt()
}

// MustFmt is like NewFmt but panics on invalid color description.
func MustFmt(fg any, opts ...Option) Fmt {
	f, err := NewFmt(fg, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// Fmt builds the formatter for the style.
func (s Style) Fmt() (Fmt, error) {
	prefix, suffix, err := s.sequences()
	if err != nil {
		return Fmt{}, err
	}
	return Fmt{prefix: prefix, suffix: suffix}, nil
}

var plainFmt = Fmt{}

// Plain returns the formatter which adds no effects to text.
func Plain() Fmt { return plainFmt }

func (f Fmt) IsPlain() bool { return f.prefix == "" }

// Text returns s as a colored chunk.
func (f Fmt) Text(s string) Chunk {
	return Chunk{prefix: f.prefix, text: s, suffix: f.suffix}
}

func (f Fmt) Sprintf(format string, args ...any) Chunk {
	return f.Text(fmt.Sprintf(format, args...))
}

func (f Fmt) Sprint(args ...any) Chunk {
	return f.Text(fmt.Sprint(args...))
}

// BytesFmt decorates byte slices with color sequences.
type BytesFmt struct {
	prefix []byte
	suffix []byte
}

func NewBytesFmt(fg any, opts ...Option) (BytesFmt, error) {
	f, err := NewFmt(fg, opts...)
	if err != nil {
		return BytesFmt{}, err
	}
	return BytesFmt{prefix: []byte(f.prefix), suffix: []byte(f.suffix)}, nil
}

// Wrap returns a new slice: b surrounded by the color sequences.
func (f BytesFmt) Wrap(b []byte) []byte {
	res := make([]byte, 0, len(f.prefix)+len(b)+len(f.suffix))
	res = append(res, f.prefix...)
	res = append(res, b...)
	return append(res, f.suffix...)
}
