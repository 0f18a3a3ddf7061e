package color

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// PaletteSpec declares the colors used by some application component.
//
//	var EnumPalette = &color.PaletteSpec{
//		Name:     "EnumPalette",
//		Defaults: map[string]any{"ENUM": map[string]any{"ID": "GREEN:bold", "NAME": "KEYWORD"}},
//		Colors:   map[string]string{"id": "ENUM.ID", "name": "ENUM.NAME"},
//	}
//
// Defaults are merged into a colors config when a palette is created for
// it, so that config reports list all syntaxes used by the program.
type PaletteSpec struct {
	Name     string
	Parents  []*PaletteSpec
	Defaults map[string]any
	// accessor name -> syntax id
	Colors map[string]string
	// SubPalettes replaces palettes used by nested components.
	SubPalettes map[*PaletteSpec]*PaletteSpec
}

func (s *PaletteSpec) accessors() map[string]string {
	res := map[string]string{"text": DefaultSyntax}
	for _, p := range s.Parents {
		for k, v := range p.accessors() {
			res[k] = v
		}
	}
	for k, v := range s.Colors {
		res[k] = v
	}
	return res
}

func (s *PaletteSpec) String() string {
	if s.Name == "" {
		return "<palette>"
	}
	return s.Name
}

func (s *PaletteSpec) register(conf *Config) error {
	if !conf.markRegistered(s) {
		return nil
	}
	for _, p := range s.Parents {
		if err := p.register(conf); err != nil {
			return err
		}
	}
	if len(s.Defaults) == 0 {
		return nil
	}
	if err := conf.AddItems(Flatten(s.Defaults), s.String()); err != nil {
		return fmt.Errorf("palette %s: %w", s, err)
	}
	return nil
}

type paletteColor struct {
	syntaxID string
	fmt      Fmt
}

// Palette is a set of color formatters created from a PaletteSpec and a
// colors config.
type Palette struct {
	spec    *PaletteSpec
	conf    *Config
	noColor bool
	colors  map[string]paletteColor

	subMu sync.Mutex
	subs  map[*PaletteSpec]*Palette
}

var (
	noColorMu       sync.Mutex
	noColorPalettes = map[*PaletteSpec]*Palette{}
)

// NewPalette returns the palette of spec for colors config conf (the global
// config if nil). Palettes are cached: repeated calls with the same
// arguments return the same object until conf gets new syntaxes.
func NewPalette(spec *PaletteSpec, conf *Config, noColor bool) (*Palette, error) {
	if conf == nil {
		conf = Global()
	}
	if err := spec.register(conf); err != nil {
		return nil, err
	}
	noColor = noColor || conf.NoColor()

	if noColor {
		noColorMu.Lock()
		defer noColorMu.Unlock()
		if p, ok := noColorPalettes[spec]; ok {
			return p, nil
		}
	} else if p, ok := conf.cached(spec); ok {
		return p.(*Palette), nil
	}

	p := &Palette{
		spec:    spec,
		conf:    conf,
		noColor: noColor,
		colors:  map[string]paletteColor{},
	}
	for name, id := range spec.accessors() {
		f := Plain()
		if !noColor {
			f = conf.Color(id)
		}
		p.colors[name] = paletteColor{syntaxID: id, fmt: f}
	}

	if noColor {
		noColorPalettes[spec] = p
		return p, nil
	}
	return conf.storeCached(spec, p).(*Palette), nil
}

// MustPalette is like NewPalette but panics if the spec defaults are invalid.
func MustPalette(spec *PaletteSpec, conf *Config, noColor bool) *Palette {
	p, err := NewPalette(spec, conf, noColor)
	if err != nil {
		panic(err)
	}
	return p
}

// Get returns the formatter of the accessor; the text formatter if the
// palette has no such accessor.
func (p *Palette) Get(name string) Fmt {
	if c, ok := p.colors[name]; ok {
		return c.fmt
	}
	return p.colors["text"].fmt
}

func (p *Palette) NoColor() bool { return p.noColor }

// SubPalette returns the palette to be used by a nested component which
// normally uses spec. The palette spec may override it via SubPalettes.
func (p *Palette) SubPalette(spec *PaletteSpec) (*Palette, error) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	if sub, ok := p.subs[spec]; ok {
		return sub, nil
	}
	actual := spec
	if override, ok := p.spec.SubPalettes[spec]; ok {
		actual = override
	}
	sub, err := NewPalette(actual, p.conf, p.noColor)
	if err != nil {
		return nil, err
	}
	if p.subs == nil {
		p.subs = map[*PaletteSpec]*Palette{}
	}
	p.subs[spec] = sub
	return sub, nil
}

// Report lists accessors of the palette, each syntax id in its color.
func (p *Palette) Report() string {
	names := make([]string, 0, len(p.colors))
	for name := range p.colors {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, 0, len(names))
	for _, name := range names {
		c := p.colors[name]
		lines = append(lines, name+": "+c.fmt.Text(c.syntaxID).String())
	}
	return strings.Join(lines, "\n")
}

// GlobalPalette gives access to all the colors of a config. The zero value
// always uses the current global config.
type GlobalPalette struct {
	conf *Config
}

func (g GlobalPalette) config() *Config {
	if g.conf != nil {
		return g.conf
	}
	return Global()
}

// Get returns the formatter of the syntax id.
func (g GlobalPalette) Get(syntaxID string) Fmt { return g.config().Color(syntaxID) }

func (g GlobalPalette) Text() Fmt    { return g.Get("TEXT") }
func (g GlobalPalette) Name() Fmt    { return g.Get("NAME") }
func (g GlobalPalette) Keyword() Fmt { return g.Get("KEYWORD") }
func (g GlobalPalette) Number() Fmt  { return g.Get("NUMBER") }
func (g GlobalPalette) OK() Fmt      { return g.Get("OK") }
func (g GlobalPalette) Warn() Fmt    { return g.Get("WARN") }
func (g GlobalPalette) Error() Fmt   { return g.Get("ERROR") }

// GP is synced with the global colors config.
var GP GlobalPalette
