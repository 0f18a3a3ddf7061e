package color

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestFmtSimple(t *testing.T) {
	green := MustFmt("GREEN")
	text := NewText(green.Text("test"))

	if text.Len() != 4 {
		t.Errorf("expected len 4, got %d", text.Len())
	}
	if got := text.String(); got != "\033[32mtest\033[0m" {
		t.Errorf("unexpected colored string %q", got)
	}
	if text.Plain() != "test" {
		t.Errorf("expected plain 'test', got '%s'", text.Plain())
	}
}

func TestFmtAllEffects(t *testing.T) {
	f, err := NewFmt("YELLOW", Bg("BLUE"), Bold(), Underline(), Blink(), Crossed())
	if err != nil {
		t.Fatalf("NewFmt failed: %v", err)
	}
	if got := f.Text("x").String(); got != "\033[33;44;1;4;5;9mx\033[0m" {
		t.Errorf("unexpected colored string %q", got)
	}

	noColor, err := NewFmt("YELLOW", Bg("BLUE"), Bold(), NoColor(true))
	if err != nil {
		t.Fatalf("NewFmt failed: %v", err)
	}
	if !noColor.IsPlain() {
		t.Error("formatter with NoColor should be plain")
	}
	if !NewText(noColor.Text("x")).Equal("x") {
		t.Error("plain text should be equal to raw string")
	}
}

func TestFmtWrongColor(t *testing.T) {
	_, err := NewFmt("BAD_COLOR")
	if err == nil {
		t.Fatal("expected error for bad color name")
	}
	for _, part := range []string{"invalid color name", "BAD_COLOR", "MAGENTA"} {
		if !strings.Contains(err.Error(), part) {
			t.Errorf("error %q should contain %q", err, part)
		}
	}

	_, err = NewFmt(nil, Bg("BAD_COLOR"))
	if err == nil || !strings.Contains(err.Error(), "invalid bg_color name") {
		t.Errorf("unexpected error for bad bg color: %v", err)
	}
}

func TestFmtNumericColors(t *testing.T) {
	rgb := MustFmt(RGB{4, 1, 1}, Bold()).Text("text").String()
	num := MustFmt(167, Bold()).Text("text").String()
	if rgb != num {
		t.Errorf("(4,1,1) should be the same as 167: %q != %q", rgb, num)
	}
	if num != "\033[38:5:167;1mtext\033[0m" {
		t.Errorf("unexpected sequence %q", num)
	}

	gray := MustFmt("g5").Text("text").String()
	if gray != MustFmt(237).Text("text").String() {
		t.Errorf("g5 should be the same as 237: %q", gray)
	}
}

func TestFmtInvalidColors(t *testing.T) {
	tests := []struct {
		color any
		want  string
	}{
		{-5, "invalid int color id -5"},
		{256, "invalid int color id 256"},
		{"g25", "invalid 'shade of gray' color description 'g25'"},
		{[]int{1, 1, 6}, "invalid color description tuple"},
		{[]int{1, 1}, "invalid color description tuple"},
		{3.5, "invalid color object"},
	}

	for _, tt := range tests {
		_, err := NewFmt(tt.color)
		if err == nil {
			t.Errorf("expected error for %v", tt.color)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("error %q should contain %q", err, tt.want)
		}
	}
}

func TestBytesFmt(t *testing.T) {
	f, err := NewBytesFmt("GREEN")
	if err != nil {
		t.Fatalf("NewBytesFmt failed: %v", err)
	}
	raw := []byte("test")
	got := f.Wrap(raw)
	if string(got) != "\033[32mtest\033[0m" {
		t.Errorf("unexpected bytes %q", got)
	}
	if string(raw) != "test" {
		t.Error("original slice should not be modified")
	}
}

func TestTextMerge(t *testing.T) {
	green := MustFmt("GREEN")
	red := MustFmt("RED")

	text := NewText(green.Text("a"), green.Text("b"), "", red.Text(""), red.Text("c"), "d", "e")
	chunks := text.Chunks()
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0].Plain() != "ab" || chunks[2].Plain() != "de" {
		t.Errorf("unexpected chunks %q %q", chunks[0].Plain(), chunks[2].Plain())
	}
	if text.Len() != 5 {
		t.Errorf("expected len 5, got %d", text.Len())
	}
}

func TestTextEmpty(t *testing.T) {
	var text Text
	if text.Len() != 0 || text.String() != "" {
		t.Errorf("empty text expected, got %q", text.String())
	}
	text.Append("aaa")
	if text.String() != "aaa" {
		t.Errorf("expected 'aaa', got %q", text.String())
	}
}

func TestTextCopies(t *testing.T) {
	orig := NewText(MustFmt("GREEN").Text("some_text"))
	other := MustFmt("RED").Text("other")

	_ = orig.Concat(other, "more")
	_ = NewText(other, orig)
	if orig.Plain() != "some_text" {
		t.Errorf("original text was modified: %q", orig.Plain())
	}
	if len(orig.Chunks()) != 1 {
		t.Errorf("original chunks were modified: %v", orig.Chunks())
	}
}

func TestTextEqual(t *testing.T) {
	green := NewText(MustFmt("GREEN").Text("text"))
	green1 := NewText(MustFmt("GREEN").Text("text"))
	red := NewText(MustFmt("RED").Text("text"))

	if !green.Equal(green1) {
		t.Error("same text of same color should be equal")
	}
	if green.Equal(red) {
		t.Error("texts of different colors should not be equal")
	}
	if green.Equal("text") {
		t.Error("colored text should not be equal to raw string")
	}
	if !NewText("text").Equal("text") {
		t.Error("plain text should be equal to raw string")
	}
	if !NewText().Equal("") {
		t.Error("empty text should be equal to empty string")
	}
}

func TestTextSlice(t *testing.T) {
	text := NewText(MustFmt("RED").Text("123"), MustFmt("BLUE").Text("456"), "789")

	tests := []struct {
		start, end int
		want       string
	}{
		{0, 9, "123456789"},
		{2, 4, "34"},
		{3, 6, "456"},
		{-2, 9, "89"},
		{1, -1, "2345678"},
		{5, 100, "6789"},
		{4, 2, ""},
		{-100, 2, "12"},
	}

	for _, tt := range tests {
		got := text.Slice(tt.start, tt.end)
		if got.Plain() != tt.want {
			t.Errorf("Slice(%d, %d) = %q, want %q", tt.start, tt.end, got.Plain(), tt.want)
		}
		if got.Len() != len(tt.want) {
			t.Errorf("Slice(%d, %d) has len %d", tt.start, tt.end, got.Len())
		}
	}

	part := text.Slice(2, 4)
	want := NewText(MustFmt("RED").Text("3"), MustFmt("BLUE").Text("4"))
	if !part.Equal(want) {
		t.Errorf("slice should keep colors: %q vs %q", part.String(), want.String())
	}
}

func TestTextAt(t *testing.T) {
	text := NewText(MustFmt("RED").Text("12"), "34")

	c, err := text.At(1)
	if err != nil {
		t.Fatalf("At failed: %v", err)
	}
	if !c.Equal(NewText(MustFmt("RED").Text("2"))) {
		t.Errorf("unexpected char %q", c.String())
	}

	c, err = text.At(-1)
	if err != nil {
		t.Fatalf("At failed: %v", err)
	}
	if !c.Equal("4") {
		t.Errorf("unexpected char %q", c.String())
	}

	if _, err := text.At(4); err == nil {
		t.Error("expected out of range error")
	}
	if _, err := text.At(-5); err == nil {
		t.Error("expected out of range error")
	}
}

func TestTextFixedLen(t *testing.T) {
	text := NewText(MustFmt("RED").Text("123"), MustFmt("BLUE").Text("456"))

	longer := text.FixedLen(10)
	if longer.Len() != 10 || longer.Plain() != "123456    " {
		t.Errorf("unexpected result %q", longer.Plain())
	}
	shorter := text.FixedLen(5)
	if shorter.Plain() != "12345" {
		t.Errorf("unexpected result %q", shorter.Plain())
	}
	if text.Plain() != "123456" {
		t.Error("original text should not be modified")
	}
}

func TestTextJoin(t *testing.T) {
	sep := NewText(", ")
	res := sep.Join("a", MustFmt("GREEN").Text("b"), NewText("c"))
	if res.Plain() != "a, b, c" {
		t.Errorf("unexpected join result %q", res.Plain())
	}
	if len(res.Chunks()) != 3 {
		t.Errorf("expected 3 chunks, got %d", len(res.Chunks()))
	}
}

func TestTextFormatSpec(t *testing.T) {
	text := NewText(MustFmt("GREEN").Text("text"))

	tests := []struct {
		spec string
		want string
	}{
		{"", "text"},
		{"10", "text      "},
		{"<10", "text      "},
		{">10", "      text"},
		{"^10", "   text   "},
		{"_^10", "___text___"},
		{"*>6s", "**text"},
		{"2", "text"},
	}

	for _, tt := range tests {
		got, err := text.FormatSpec(tt.spec)
		if err != nil {
			t.Errorf("FormatSpec(%q) failed: %v", tt.spec, err)
			continue
		}
		if StripColors(got) != tt.want {
			t.Errorf("FormatSpec(%q) = %q, want %q", tt.spec, StripColors(got), tt.want)
		}
	}

	if _, err := text.FormatSpec("10d"); err == nil {
		t.Error("expected error for invalid format type")
	}
}

func TestTextFormatter(t *testing.T) {
	text := NewText(MustFmt("GREEN").Text("ab"))
	if got := StripColors(fmt.Sprintf("[%-5s]", text)); got != "[ab   ]" {
		t.Errorf("unexpected result %q", got)
	}
	if got := StripColors(fmt.Sprintf("[%5s]", text)); got != "[   ab]" {
		t.Errorf("unexpected result %q", got)
	}
	if got := fmt.Sprintf("%s", text); got != text.String() {
		t.Errorf("unexpected result %q", got)
	}
}

func TestTextWidth(t *testing.T) {
	text := NewText("ab", MustFmt("RED").Text("日本"))
	if text.Len() != 4 {
		t.Errorf("expected len 4, got %d", text.Len())
	}
	if text.Width() != 6 {
		t.Errorf("expected width 6, got %d", text.Width())
	}
}

func TestStripColors(t *testing.T) {
	colored := NewText(MustFmt("GREEN").Text("Green"), MustFmt(RGB{1, 2, 3}).Text("Red")).String()
	if colored == "GreenRed" {
		t.Fatal("colored string should contain color sequences")
	}
	if got := StripColors(colored); got != "GreenRed" {
		t.Errorf("expected 'GreenRed', got %q", got)
	}
}

func TestMakeExamples(t *testing.T) {
	out := MakeExamples()
	lines := strings.Split(out, "\n")
	if len(lines) != 61 {
		t.Fatalf("expected 61 lines, got %d", len(lines))
	}
	wantWidth := 4*exampleWidth + 3*2
	for i, line := range lines {
		if w := len([]rune(StripColors(line))); w != wantWidth {
			t.Errorf("line %d: expected width %d, got %d: %q", i, wantWidth, w, StripColors(line))
		}
	}
	if !strings.HasPrefix(lines[0], "--") || !strings.Contains(lines[0], "bold") {
		t.Errorf("unexpected title line %q", lines[0])
	}
	for _, part := range []string{"5. MAGENTA", "COLOR 15", "555=231", "255"} {
		if !strings.Contains(StripColors(out), part) {
			t.Errorf("examples should contain %q", part)
		}
	}
	if !strings.Contains(out, "\033[38:5:231;1;2m555=231") {
		t.Error("rgb colors of the last column should be bold and faint")
	}
	if n := strings.Count(out, "\033[38:5:255m255\033[0m"); n != 4 {
		t.Errorf("shades of gray should be printed without modifiers in all 4 columns, got %d", n)
	}
}

var testInit = map[string]any{
	"TEXT":           "",
	"NAME":           "BLUE:bold",
	"VERY_COLORED":   "YELLOW/BLUE:bold,faint,underline,blink,crossed",
	"VERY_UNCOLORED": "YELLOW/BLUE:no_bold,no_faint,no_underline,no_blink,no_crossed",
	"TABLE": map[string]any{
		"BORDER":    "RED",
		"NAME":      "GREEN",
		"ALT1_NAME": "NAME",
		"ALT2_NAME": "TABLE.NAME",
	},
}

func colorText(c *Config, id string) string {
	return c.Color(id).Text("test").String()
}

func TestConfigDefaults(t *testing.T) {
	SetGlobal(nil)
	_ = Global().Color("TEXT")

	conf, err := NewConfig(false, testInit)
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}

	if colorText(conf, "TEXT") != "test" {
		t.Error("empty description means no formatting")
	}
	if colorText(conf, "UNEXPECTED") != "test" {
		t.Error("missing syntax means no formatting")
	}
	for _, id := range []string{"NAME", "TABLE.NAME", "TABLE.ALT1_NAME", "TABLE.ALT2_NAME"} {
		if colorText(conf, id) == "test" {
			t.Errorf("%s is expected to be colored", id)
		}
	}
	if colorText(conf, "NAME") != colorText(conf, "TABLE.ALT1_NAME") {
		t.Error("TABLE.ALT1_NAME should be the same as NAME")
	}
	if colorText(conf, "TABLE.NAME") != colorText(conf, "TABLE.ALT2_NAME") {
		t.Error("TABLE.ALT2_NAME should be the same as TABLE.NAME")
	}
	if colorText(conf, "NAME") == colorText(conf, "TABLE.ALT2_NAME") {
		t.Error("expected BLUE and GREEN colors respectively")
	}
	if got := colorText(conf, "VERY_UNCOLORED"); got != "\033[33;44mtest\033[0m" {
		t.Errorf("unexpected VERY_UNCOLORED %q", got)
	}
	if got := colorText(conf, "NUMBER"); got != "\033[33mtest\033[0m" {
		t.Errorf("built in NUMBER expected, got %q", got)
	}
}

func TestConfigNoColor(t *testing.T) {
	conf, err := NewConfig(true, testInit)
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	for _, id := range []string{"TEXT", "NAME", "VERY_COLORED", "UNEXPECTED", "TABLE.ALT2_NAME"} {
		if colorText(conf, id) != "test" {
			t.Errorf("%s should not be colored", id)
		}
	}
}

func TestConfigOverrides(t *testing.T) {
	conf, err := NewConfig(false,
		map[string]any{
			"TABLE":        map[string]any{"NAME": ""},
			"VERY_COLORED": "TABLE.BORDER",
		},
		testInit,
	)
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	if colorText(conf, "TABLE.NAME") != "test" {
		t.Error("coloring was turned off for TABLE.NAME")
	}
	if colorText(conf, "VERY_COLORED") != colorText(conf, "TABLE.BORDER") {
		t.Error("VERY_COLORED should be the same as TABLE.BORDER")
	}
}

func TestConfigInheritance(t *testing.T) {
	conf, err := NewConfig(false, map[string]any{
		"A": "RED/BLUE:bold,underline",
		"B": "A:no_bold",
		"C": "B:GREEN",
		"D": "C:-/YELLOW:blink",
	})
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}

	tests := map[string]string{
		"A": "\033[31;44;1;4mtest\033[0m",
		"B": "\033[31;44;4mtest\033[0m",
		"C": "\033[32;44;4mtest\033[0m",
		"D": "\033[43;4;5mtest\033[0m",
	}
	for id, want := range tests {
		if got := colorText(conf, id); got != want {
			t.Errorf("%s: got %q, want %q", id, got, want)
		}
	}
}

func TestConfigLateParent(t *testing.T) {
	conf, err := NewConfig(false, map[string]any{"CHILD": "LATE:bold"})
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	if got := conf.Unresolved(); len(got) != 1 || got[0] != "CHILD" {
		t.Fatalf("expected CHILD to be unresolved, got %v", got)
	}
	if !strings.Contains(conf.Report(), "<NOT RESOLVED>") {
		t.Error("report should show unresolved status")
	}

	if err := conf.AddItems(map[string]string{"LATE": "RED", "CHILD": "GREEN"}, "test"); err != nil {
		t.Fatalf("AddItems failed: %v", err)
	}
	if got := colorText(conf, "CHILD"); got != "\033[31;1mtest\033[0m" {
		t.Errorf("first registered description should win, got %q", got)
	}
	if len(conf.Unresolved()) != 0 {
		t.Errorf("everything should be resolved: %v", conf.Unresolved())
	}
}

func TestConfigCycle(t *testing.T) {
	_, err := NewConfig(false, map[string]any{"X": "Y:bold", "Y": "Z", "Z": "X:faint"})
	if !errors.Is(err, ErrCircularColors) {
		t.Errorf("expected circular dependency error, got %v", err)
	}
}

func TestConfigCycleRollback(t *testing.T) {
	conf, err := NewConfig(false, map[string]any{"WAITING": "PARENT:bold"})
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	err = conf.AddItems(map[string]string{"PARENT": "LOOP", "LOOP": "PARENT"}, "test")
	if !errors.Is(err, ErrCircularColors) {
		t.Fatalf("expected circular dependency error, got %v", err)
	}
	if got := conf.Unresolved(); len(got) != 1 || got[0] != "WAITING" {
		t.Errorf("only the syntax waiting for its parent should be unresolved, got %v", got)
	}

	if err := conf.AddItems(map[string]string{"PARENT": "RED"}, "test"); err != nil {
		t.Fatalf("config should be usable after a cycle error: %v", err)
	}
	if got := colorText(conf, "WAITING"); got != "\033[31;1mtest\033[0m" {
		t.Errorf("unexpected color of resolved syntax %q", got)
	}
}

func TestConfigInvalidDescriptions(t *testing.T) {
	bad := []string{
		"RED:bold:faint:blink",
		"RED:bold:GREEN",
		"RED:GREEN",
		"PARENT:OTHER",
		"RED:bold,wrong",
		"bold",
		"(1,2,9)",
		"RED/BLUE/GREEN",
	}
	for _, descr := range bad {
		if _, err := NewConfig(false, map[string]any{"X": descr}); err == nil {
			t.Errorf("expected error for description %q", descr)
		}
	}

	good := []string{"", "-", "RED", "(1,2,3)/g7", "200:bold", "NAME:faint", "NAME:RED/:underline", "/BLUE"}
	for _, descr := range good {
		if _, err := NewConfig(false, map[string]any{"X": descr}); err != nil {
			t.Errorf("unexpected error for description %q: %v", descr, err)
		}
	}
}

func TestConfigReport(t *testing.T) {
	conf, err := NewConfig(false, testInit)
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	lines := conf.ReportLines()
	plain := make([]string, len(lines))
	for i, l := range lines {
		plain[i] = StripColors(l)
	}
	report := strings.Join(plain, "\n")

	if !strings.Contains(report, "TABLE ->") {
		t.Error("report should contain TABLE group")
	}
	if !strings.Contains(report, "  BORDER: RED") {
		t.Error("report should contain indented TABLE.BORDER")
	}
	if !strings.Contains(report, "<- built in") || !strings.Contains(report, "<- config") {
		t.Error("report should contain sources")
	}
	if strings.Contains(report, "!") {
		t.Error("status column is shown only if something is unresolved")
	}
	column := -1
	for _, l := range plain {
		if strings.HasSuffix(l, "->") {
			continue
		}
		idx := strings.Index(l, " <- ")
		if column == -1 {
			column = idx
		}
		if idx != column || idx < 40 {
			t.Errorf("source column expected at %d, got %d: %q", column, idx, l)
		}
	}

	noColor, err := NewConfig(true, testInit)
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	if StripColors(noColor.Report()) != noColor.Report() {
		t.Error("no-color report should not contain colors")
	}
}

var testPalette = &PaletteSpec{
	Name: "TestPalette",
	Defaults: map[string]any{
		"TST": map[string]any{"ID": "GREEN:bold", "NAME": "KEYWORD"},
	},
	Colors: map[string]string{"id": "TST.ID", "name": "TST.NAME"},
}

var derivedPalette = &PaletteSpec{
	Name:     "DerivedPalette",
	Parents:  []*PaletteSpec{testPalette},
	Defaults: map[string]any{"TST.EXTRA": "TST.ID:underline"},
	Colors:   map[string]string{"extra": "TST.EXTRA"},
}

func TestPalette(t *testing.T) {
	conf, err := NewConfig(false, map[string]any{"TST": map[string]any{"ID": "RED"}})
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}

	p, err := NewPalette(testPalette, conf, false)
	if err != nil {
		t.Fatalf("NewPalette failed: %v", err)
	}
	if p2 := MustPalette(testPalette, conf, false); p2 != p {
		t.Error("palette should be cached")
	}

	if got := p.Get("id").Text("x").String(); got != "\033[31mx\033[0m" {
		t.Errorf("config value should override palette defaults, got %q", got)
	}
	if p.Get("name") != conf.Color("KEYWORD") {
		t.Error("name should have KEYWORD color")
	}
	if !p.Get("unknown").IsPlain() {
		t.Error("unknown accessor should fall back to text")
	}
	if !strings.Contains(conf.Report(), "<- TestPalette") {
		t.Error("config report should show palette as a source")
	}

	report := StripColors(p.Report())
	if report != "id: TST.ID\nname: TST.NAME\ntext: TEXT" {
		t.Errorf("unexpected palette report %q", report)
	}
}

func TestPaletteParents(t *testing.T) {
	conf, err := NewConfig(false)
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	p := MustPalette(derivedPalette, conf, false)
	if got := p.Get("extra").Text("x").String(); got != "\033[32;1;4mx\033[0m" {
		t.Errorf("unexpected extra color %q", got)
	}
	if p.Get("id") != conf.Color("TST.ID") {
		t.Error("accessors of parent palette should be available")
	}
}

func TestPaletteNoColor(t *testing.T) {
	conf, err := NewConfig(false)
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	p := MustPalette(testPalette, conf, true)
	if !p.Get("id").IsPlain() {
		t.Error("no-color palette should produce plain text")
	}
	if len(conf.Unresolved()) != 0 || conf.Color("TST.ID").IsPlain() {
		t.Error("no-color palette should still register its syntaxes")
	}
	if MustPalette(testPalette, nil, true) != p {
		t.Error("no-color palette should be cached per spec")
	}
}

func TestSubPalette(t *testing.T) {
	custom := &PaletteSpec{
		Name:     "CustomPalette",
		Parents:  []*PaletteSpec{testPalette},
		Defaults: map[string]any{"CUSTOM.ID": "MAGENTA"},
		Colors:   map[string]string{"id": "CUSTOM.ID"},
	}
	outer := &PaletteSpec{
		Name:        "OuterPalette",
		SubPalettes: map[*PaletteSpec]*PaletteSpec{testPalette: custom},
	}

	conf, err := NewConfig(false)
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	p := MustPalette(outer, conf, false)
	sub, err := p.SubPalette(testPalette)
	if err != nil {
		t.Fatalf("SubPalette failed: %v", err)
	}
	if got := sub.Get("id").Text("x").String(); got != "\033[35mx\033[0m" {
		t.Errorf("override palette expected, got %q", got)
	}

	other, err := p.SubPalette(derivedPalette)
	if err != nil {
		t.Fatalf("SubPalette failed: %v", err)
	}
	if other.Get("extra").IsPlain() {
		t.Error("palette without override should be used as is")
	}
}

func TestGlobalPalette(t *testing.T) {
	defer SetGlobal(nil)

	SetGlobal(nil)
	if GP.Name().IsPlain() {
		t.Error("NAME should be colored in default config")
	}

	conf, err := NewConfig(true)
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	SetGlobal(conf)
	if !GP.Name().IsPlain() {
		t.Error("global palette should follow the global config")
	}
	if Global() != conf {
		t.Error("Global should return the installed config")
	}
}
