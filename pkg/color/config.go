package color

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// DefaultSyntax is used for text not corresponding to any syntax id.
const DefaultSyntax = "TEXT"

// BuiltIn holds the syntaxes present in every Config.
var BuiltIn = map[string]string{
	"TEXT":    "",
	"NAME":    "GREEN:bold",
	"KEYWORD": "BLUE:bold",
	"NUMBER":  "YELLOW",
	"OK":      "GREEN:bold",
	"WARN":    "RED",
	"ERROR":   "RED:bold",
}

var ErrCircularColors = errors.New("circular dependency of colors descriptions")

var modifierNames = map[string]struct {
	name  string
	value bool
}{
	"bold":         {"bold", true},
	"faint":        {"faint", true},
	"underline":    {"underline", true},
	"blink":        {"blink", true},
	"crossed":      {"crossed", true},
	"no_bold":      {"bold", false},
	"no_faint":     {"faint", false},
	"no_underline": {"underline", false},
	"no_blink":     {"blink", false},
	"no_crossed":   {"crossed", false},
}

// syntaxColor is a parsed color description of a single syntax id.
type syntaxColor struct {
	id        string
	initStr   string
	source    string
	parent    string
	fg        any
	bg        any
	modifiers map[string]bool
	fmt       *Fmt
}

func newSyntaxColor(id, initStr, source string, noColor bool) (*syntaxColor, error) {
	parent, fg, bg, mods, err := parseDescription(initStr)
	if err != nil {
		return nil, err
	}
	sc := &syntaxColor{
		id:        id,
		initStr:   initStr,
		source:    source,
		parent:    parent,
		fg:        fg,
		bg:        bg,
		modifiers: mods,
	}
	if sc.fg == nil {
		sc.fg = ""
	}
	if sc.bg == nil {
		sc.bg = ""
	}
	if parent == "" {
		if err := sc.resolve(nil, noColor); err != nil {
			return nil, err
		}
	}
	return sc, nil
}

func (sc *syntaxColor) resolved() bool { return sc.fmt != nil }

func (sc *syntaxColor) resolve(parent *syntaxColor, noColor bool) error {
	if parent != nil {
		if sc.fg == "" {
			sc.fg = parent.fg
		}
		if sc.bg == "" {
			sc.bg = parent.bg
		}
		mods := make(map[string]bool, len(parent.modifiers)+len(sc.modifiers))
		for k, v := range parent.modifiers {
			mods[k] = v
		}
		for k, v := range sc.modifiers {
			mods[k] = v
		}
		sc.modifiers = mods
	} else {
		if sc.fg == "" || sc.fg == "-" {
			sc.fg = nil
		}
		if sc.bg == "" || sc.bg == "-" {
			sc.bg = nil
		}
	}

	if noColor {
		f := Plain()
		sc.fmt = &f
		return nil
	}
	f, err := Style{
		Fg:        sc.fg,
		Bg:        sc.bg,
		Bold:      sc.modifiers["bold"],
		Faint:     sc.modifiers["faint"],
		Underline: sc.modifiers["underline"],
		Blink:     sc.modifiers["blink"],
		Crossed:   sc.modifiers["crossed"],
	}.Fmt()
	if err != nil {
		return fmt.Errorf("syntax '%s': %w", sc.id, err)
	}
	sc.fmt = &f
	return nil
}

// parseDescription parses "PARENT:FG/BG:modifiers" where every section
// is optional. fg and bg are nil when not specified.
func parseDescription(initStr string) (parent string, fg, bg any, mods map[string]bool, err error) {
	mods = map[string]bool{}
	sections := strings.Split(initStr, ":")
	if len(sections) > 3 {
		return "", nil, nil, nil, fmt.Errorf("invalid color description: '%s'", initStr)
	}

	parent, fg, bg, err = parseColorsPart(sections[0], initStr)
	if err != nil {
		return "", nil, nil, nil, err
	}
	if len(sections) == 1 {
		return parent, fg, bg, mods, nil
	}

	section := sections[1]
	parent1, fg1, bg1, err := parseColorsPart(section, initStr)
	if err != nil {
		// not colors, so it must be modifiers
		if len(sections) > 2 {
			return "", nil, nil, nil, fmt.Errorf(
				"invalid color description: '%s'. "+
					"The modifiers section ('%s') must be the last one", initStr, section)
		}
		mods, err = parseModifiers(section, initStr)
		if err != nil {
			return "", nil, nil, nil, err
		}
		return parent, fg, bg, mods, nil
	}

	if parent1 != "" {
		return "", nil, nil, nil, fmt.Errorf(
			"invalid color '%s' in description: '%s'", parent1, initStr)
	}
	if fg != nil {
		return "", nil, nil, nil, fmt.Errorf(
			"invalid color description: '%s'. "+
				"Color is specified both in the first and second sections", initStr)
	}
	if bg != nil {
		return "", nil, nil, nil, fmt.Errorf(
			"invalid color description: '%s'. "+
				"BgColor is specified both in the first and second sections", initStr)
	}
	fg, bg = fg1, bg1

	if len(sections) == 2 {
		return parent, fg, bg, mods, nil
	}

	mods, err = parseModifiers(sections[2], initStr)
	if err != nil {
		return "", nil, nil, nil, err
	}
	return parent, fg, bg, mods, nil
}

// parseColorsPart parses "FG/BG", "FG" or "PARENT".
func parseColorsPart(part, initStr string) (parent string, fg, bg any, err error) {
	colors := strings.Split(part, "/")
	if len(colors) > 2 {
		return "", nil, nil, fmt.Errorf(
			"invalid colors description part '%s'. Full color description: '%s'",
			part, initStr)
	}
	if len(colors) == 2 {
		fg, err = parseColor(colors[0], initStr)
		if err != nil {
			return "", nil, nil, err
		}
		bg, err = parseColor(colors[1], initStr)
		if err != nil {
			return "", nil, nil, err
		}
		return "", fg, bg, nil
	}

	if fg, err := parseColor(part, initStr); err == nil {
		return "", fg, "", nil
	}

	if _, isModifier := modifierNames[strings.TrimSpace(part)]; isModifier || strings.Contains(part, ",") {
		return "", nil, nil, fmt.Errorf(
			"unexpected modifiers section '%s' in colors description '%s'", part, initStr)
	}
	return part, nil, nil, nil
}

func parseColor(c, initStr string) (any, error) {
	v, problem := parseColorValue(strings.TrimSpace(c))
	if problem == "" {
		return v, nil
	}
	if problem != "-" {
		problem = " " + problem
	} else {
		problem = ""
	}
	return nil, fmt.Errorf(
		"color description '%s' contains incorrect color identifier '%s'.%s",
		initStr, c, problem)
}

// parseColorValue returns the color or a non-empty description of the
// problem ("-" when there is nothing specific to say).
func parseColorValue(c string) (any, string) {
	if c == "" || c == "-" {
		return c, ""
	}
	if _, ok := colorCodes[c]; ok {
		return c, ""
	}
	if strings.HasPrefix(c, "g") {
		if n, err := strconv.Atoi(c[1:]); err == nil && n >= 0 && n <= 23 {
			return c, ""
		}
	}

	if strings.HasPrefix(c, "(") {
		if !strings.HasSuffix(c, ")") {
			return nil, "-"
		}
		items := strings.Split(c[1:len(c)-1], ",")
		if len(items) != 3 {
			return nil, "Color tuple must contain 3 elements"
		}
		var rgb RGB
		for i, item := range items {
			n, err := strconv.Atoi(strings.TrimSpace(item))
			if err != nil {
				return nil, fmt.Sprintf("'%s' is not a valid color component", item)
			}
			if n < 0 || n > 5 {
				return nil, "all values in (r, g, b) tuple must be in range [0-5]"
			}
			rgb[i] = n
		}
		return rgb, ""
	}

	if n, err := strconv.Atoi(c); err == nil {
		if n < 0 || n > 255 {
			return nil, fmt.Sprintf("int color value %d should be in range [0-255]", n)
		}
		return n, ""
	}
	return nil, fmt.Sprintf("'%s' is not a valid color identifier", c)
}

func parseModifiers(s, initStr string) (map[string]bool, error) {
	mods := map[string]bool{}
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		m, ok := modifierNames[item]
		if !ok {
			return nil, fmt.Errorf(
				"invalid color description: '%s': invalid color modifier name '%s'",
				initStr, item)
		}
		mods[m.name] = m.value
	}
	return mods, nil
}

// Config maps syntax ids (such as "TABLE.BORDER") to colors.
//
// Initial data usually comes from the application config file. Components
// register the syntaxes they use with default descriptions; descriptions
// already present (from the config file) win. Description format:
//
//	"COLOR/BG_COLOR:modifiers"
//	"OTHER_SYNTAX:modifiers"
//	"OTHER_SYNTAX:COLOR/BG_COLOR:modifiers"
//
// COLOR is a name, an int id, "(r,g,b)", "gN", "-" (system color) or ""
// (color of OTHER_SYNTAX if present, system color otherwise). Modifiers are
// comma-separated: bold, faint, underline, blink, crossed and their "no_"
// forms.
type Config struct {
	noColor bool

	mu         sync.Mutex
	syntaxes   map[string]*syntaxColor
	registered map[*PaletteSpec]bool
	cache      map[any]any
}

// NewConfig creates a colors config from nested maps of descriptions:
//
//	{"NAME": "BLUE:bold", "TABLE": {"BORDER": "GREEN", "NUMBER": "TABLE.NAME"}}
//
// If noColor is set all syntaxes produce plain text.
func NewConfig(noColor bool, inits ...map[string]any) (*Config, error) {
	c := &Config{
		noColor:    noColor,
		syntaxes:   map[string]*syntaxColor{},
		registered: map[*PaletteSpec]bool{},
		cache:      map[any]any{},
	}
	for _, init := range inits {
		if err := c.AddItems(Flatten(init), "config"); err != nil {
			return nil, err
		}
	}
	if err := c.AddItems(BuiltIn, "built in"); err != nil {
		return nil, err
	}
	return c, nil
}

func mustConfig(noColor bool) *Config {
	c, err := NewConfig(noColor)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Config) NoColor() bool { return c.noColor }

// Flatten converts nested maps into a flat map with dotted keys:
// {"TABLE": {"BORDER": v}} -> {"TABLE.BORDER": v}. Values other than
// strings and maps are ignored.
func Flatten(m map[string]any) map[string]string {
	res := map[string]string{}
	for key, value := range m {
		switch v := value.(type) {
		case string:
			res[key] = v
		case map[string]string:
			for skey, sval := range v {
				res[key+"."+skey] = sval
			}
		case map[string]any:
			for skey, sval := range Flatten(v) {
				res[key+"."+skey] = sval
			}
		}
	}
	return res
}

// AddItems registers new syntaxes. Items whose syntax id is already known
// are skipped. source describes the component registering the items and
// is shown in reports. If the new items make a cycle, none of them is
// added.
func (c *Config) AddItems(items map[string]string, source string) error {
	if len(items) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]string, 0, len(items))
	for id := range items {
		if _, exists := c.syntaxes[id]; !exists {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)

	added := make([]*syntaxColor, 0, len(ids))
	for _, id := range ids {
		sc, err := newSyntaxColor(id, items[id], source, c.noColor)
		if err != nil {
			return fmt.Errorf("invalid color of syntax '%s': %w", id, err)
		}
		added = append(added, sc)
	}
	// unresolved syntaxes may get resolved by the new items
	var waiting []syntaxColor
	for _, sc := range c.syntaxes {
		if !sc.resolved() {
			waiting = append(waiting, *sc)
		}
	}
	for _, sc := range added {
		c.syntaxes[sc.id] = sc
	}
	c.cache = map[any]any{}

	if err := c.resolveLocked(); err != nil {
		// the config stays as it was before the call
		for _, sc := range added {
			delete(c.syntaxes, sc.id)
		}
		for _, saved := range waiting {
			*c.syntaxes[saved.id] = saved
		}
		return err
	}
	return nil
}

// resolveLocked finishes construction of the items whose parents are
// known now.
func (c *Config) resolveLocked() error {
	var pending []string
	for id, sc := range c.syntaxes {
		if !sc.resolved() {
			pending = append(pending, id)
		}
	}
	sort.Strings(pending)

	cantResolve := map[string]bool{}
	for _, id := range pending {
		sc := c.syntaxes[id]
		var path []*syntaxColor
		onPath := map[string]bool{}
		for {
			if onPath[sc.id] {
				ids := make([]string, 0, len(path))
				for _, p := range path {
					ids = append(ids, p.id)
				}
				return fmt.Errorf("%w: %s", ErrCircularColors, strings.Join(ids, " -> "))
			}
			if sc.resolved() {
				parent := sc
				for i := len(path) - 1; i >= 0; i-- {
					if err := path[i].resolve(parent, c.noColor); err != nil {
						return err
					}
					parent = path[i]
				}
				break
			}
			next, known := c.syntaxes[sc.parent]
			if cantResolve[sc.id] || !known {
				for _, p := range path {
					cantResolve[p.id] = true
				}
				cantResolve[sc.id] = true
				break
			}
			path = append(path, sc)
			onPath[sc.id] = true
			sc = next
		}
	}
	return nil
}

// Color returns the formatter of the syntax. Unknown syntaxes get the
// TEXT color; unresolved ones produce plain text.
func (c *Config) Color(syntaxID string) Fmt {
	c.mu.Lock()
	defer c.mu.Unlock()
	sc, ok := c.syntaxes[syntaxID]
	if !ok {
		sc, ok = c.syntaxes[DefaultSyntax]
	}
	if !ok || !sc.resolved() {
		return Plain()
	}
	return *sc.fmt
}

// Unresolved returns sorted ids of syntaxes whose parents are not known.
func (c *Config) Unresolved() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var res []string
	for id, sc := range c.syntaxes {
		if !sc.resolved() {
			res = append(res, id)
		}
	}
	sort.Strings(res)
	return res
}

// Palette returns a palette with access to all the syntaxes of c.
func (c *Config) Palette() GlobalPalette { return GlobalPalette{conf: c} }

func (c *Config) cached(key any) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cache[key]
	return v, ok
}

// storeCached returns the object already cached under the key, if any.
func (c *Config) storeCached(key, obj any) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.cache[key]; ok {
		return v
	}
	c.cache[key] = obj
	return obj
}

// markRegistered reports whether the spec was not registered before.
func (c *Config) markRegistered(spec *PaletteSpec) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.registered[spec] {
		return false
	}
	c.registered[spec] = true
	return true
}

type reportLine struct {
	main   Text
	status string
	source string
	group  bool
}

// Report returns the colored list of all the syntaxes. Its output is a
// good starting point for the colors section of a config file.
func (c *Config) Report() string {
	return strings.Join(c.ReportLines(), "\n")
}

func (c *Config) ReportLines() []string {
	c.mu.Lock()
	ids := make([]string, 0, len(c.syntaxes))
	for id := range c.syntaxes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	syntaxes := make([]syntaxColor, 0, len(ids))
	for _, id := range ids {
		syntaxes = append(syntaxes, *c.syntaxes[id])
	}
	c.mu.Unlock()

	const step = "  "
	var lines []reportLine
	var common []string
	for _, sc := range syntaxes {
		descr := sc.initStr
		if descr == "" {
			descr = "<SAMPLE>"
		}
		parts := strings.Split(sc.id, ".")
		curPath, curName := parts[:len(parts)-1], parts[len(parts)-1]

		valid := 0
		for valid < len(common) && valid < len(curPath) && common[valid] == curPath[valid] {
			valid++
		}
		common = common[:valid]

		for len(curPath) > len(common) {
			depth := len(common)
			group := curPath[depth]
			common = append(common, group)
			lines = append(lines, reportLine{
				main:  NewText(strings.Repeat(step, depth) + group + " ->"),
				group: true,
			})
		}

		f := Plain()
		status := ""
		if sc.resolved() {
			f = *sc.fmt
		} else {
			status = "<NOT RESOLVED>"
		}
		lines = append(lines, reportLine{
			main:   NewText(strings.Repeat(step, len(common)), curName+": ", f.Text(descr)),
			status: status,
			source: sc.source,
		})
	}

	showStatus := false
	maxWidth := 0
	for _, l := range lines {
		if l.status != "" {
			showStatus = true
		}
		maxWidth = max(maxWidth, l.main.Len())
	}
	width := min(150, max(40, maxWidth))

	res := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.group {
			res = append(res, l.main.String())
			continue
		}
		line := l.main.FixedLen(width).String()
		if showStatus {
			status := l.status
			if status == "" {
				status = "<OK>"
			}
			line += fmt.Sprintf(" !%-15s", status)
		}
		res = append(res, line+" <- "+l.source)
	}
	return res
}

var (
	globalMu sync.Mutex
	global   *Config
)

// Global returns the global colors config, creating the default one on
// first use.
func Global() *Config {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		global = mustConfig(false)
	}
	return global
}

// SetGlobal replaces the global colors config. nil installs a fresh
// default config.
func SetGlobal(c *Config) {
	if c == nil {
		c = mustConfig(false)
	}
	globalMu.Lock()
	global = c
	globalMu.Unlock()
}
