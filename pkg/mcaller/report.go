package mcaller

import (
	"fmt"
	"strings"

	"github.com/akorshkov/aktools/pkg/color"
)

var Palette = &color.PaletteSpec{
	Name: "MCallerPalette",
	Defaults: map[string]any{
		"MCALLER": map[string]any{
			"METHOD": "NAME",
			"KIND":   "KEYWORD",
		},
	},
	Colors: map[string]string{
		"method": "MCALLER.METHOD",
		"kind":   "MCALLER.KIND",
		"warn":   "WARN",
	},
}

// Notes describe availability of a method in a caller.
type Notes struct {
	Available bool
	// Short is "<n/a>" for unavailable methods.
	Short string
	Line  string
}

func unavailable(problems ...string) Notes {
	return Notes{Short: "<n/a>", Line: strings.Join(problems, "; ")}
}

// Notes reports if the method can be called by this caller.
func (c *Caller) Notes(name string) (Notes, error) {
	m, ok := c.Get(name)
	if !ok {
		return Notes{}, newMethodNotFoundError(name)
	}
	switch m.Kind {
	case KindHTTP:
		return c.httpNotes(m), nil
	case KindSQL:
		return c.sqlNotes(), nil
	case KindRPC:
		return c.rpcNotes(), nil
	}

	var missing []string
	for _, comp := range m.Components {
		found := false
		for _, have := range c.components {
			if have == comp {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, comp)
		}
	}
	if len(missing) > 0 {
		return unavailable(fmt.Sprintf("caller has no access to components %v", missing)), nil
	}
	return Notes{Available: true}, nil
}

// Report returns colored lines listing the methods. p may be nil (palette
// for the global colors config).
func (c *Caller) Report(p *color.Palette) []string {
	if p == nil {
		p = color.MustPalette(Palette, nil, false)
	}
	methods := c.List()
	nameLen := 0
	for _, m := range methods {
		nameLen = max(nameLen, len(m.Name))
	}

	var lines []string
	for _, m := range methods {
		notes, _ := c.Notes(m.Name)
		line := color.NewText(
			p.Get("method").Text(m.Name),
			strings.Repeat(" ", nameLen-len(m.Name)),
			" ",
			p.Get("kind").Text(fmt.Sprintf("%-7s", m.Kind)),
		)
		if notes.Short != "" {
			line.Append(" ", p.Get("warn").Text(notes.Short))
		}
		if m.Description != "" {
			line.Append(" ", m.Description)
		}
		lines = append(lines, line.String())
		if notes.Line != "" {
			lines = append(lines, color.NewText("    ", p.Get("warn").Text(notes.Line)).String())
		}
	}
	return lines
}
