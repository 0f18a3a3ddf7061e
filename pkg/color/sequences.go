// Package color produces colored terminal text.
//
// Fmt objects add color escape sequences to text and produce Chunks; Text
// is a string-like sequence of chunks whose length and padding ignore the
// escape sequences. Config maps syntax ids ("NUMBER", "TABLE.BORDER") to
// colors and Palettes give application components access to the colors
// they use.
package color

import (
	"fmt"
	"strconv"
	"strings"
)

// RGB is a color of the 6x6x6 cube, each component in range [0, 5].
type RGB [3]int

var colorCodes = map[string]string{
	"BLACK":   "0",
	"RED":     "1",
	"GREEN":   "2",
	"YELLOW":  "3",
	"BLUE":    "4",
	"MAGENTA": "5",
	"CYAN":    "6",
	"WHITE":   "7",
}

// ColorNames lists the named colors in their escape code order.
var ColorNames = []string{"BLACK", "RED", "GREEN", "YELLOW", "BLUE", "MAGENTA", "CYAN", "WHITE"}

const resetSeq = "\033[0m"

// Style describes effects applied to text.
//
// Fg and Bg may be nil (terminal default), a color name from ColorNames,
// an int color id in range [0, 255], an RGB value (or [3]int), or a gray
// shade "g0".."g23".
type Style struct {
	Fg        any
	Bg        any
	Bold      bool
	Faint     bool
	Underline bool
	Blink     bool
	Crossed   bool
	NoColor   bool
}

func (s Style) sequences() (prefix, suffix string, err error) {
	if s.NoColor {
		return "", "", nil
	}

	var codes []string
	if s.Fg != nil {
		code, err := seqElement(s.Fg, false)
		if err != nil {
			return "", "", err
		}
		if code != "" {
			codes = append(codes, code)
		}
	}
	if s.Bg != nil {
		code, err := seqElement(s.Bg, true)
		if err != nil {
			return "", "", err
		}
		if code != "" {
			codes = append(codes, code)
		}
	}
	if s.Bold {
		codes = append(codes, "1")
	}
	if s.Faint {
		codes = append(codes, "2")
	}
	if s.Underline {
		codes = append(codes, "4")
	}
	if s.Blink {
		codes = append(codes, "5")
	}
	if s.Crossed {
		codes = append(codes, "9")
	}

	if len(codes) == 0 {
		return "", "", nil
	}
	return "\033[" + strings.Join(codes, ";") + "m", resetSeq, nil
}

func seqElement(c any, isBg bool) (string, error) {
	fgBg := "3"
	param := "color"
	if isBg {
		fgBg = "4"
		param = "bg_color"
	}

	var id int
	switch v := c.(type) {
	case string:
		if v == "" || v == "-" {
			return "", nil
		}
		if code, ok := colorCodes[v]; ok {
			return fgBg + code, nil
		}
		if strings.HasPrefix(v, "g") {
			shade, err := strconv.Atoi(v[1:])
			if err != nil || shade < 0 || shade > 23 {
				return "", fmt.Errorf(
					"invalid 'shade of gray' color description '%s'. "+
						"It is supposed to be in form 'g0' - 'g23'", v)
			}
			id = 232 + shade
		} else {
			return "", fmt.Errorf(
				"invalid %s name '%s'. Should be one of %v "+
					"or in form 'g0' - 'g23' for shades of gray", param, v, ColorNames)
		}
	case RGB:
		n, err := rgbID(v[:], param)
		if err != nil {
			return "", err
		}
		id = n
	case [3]int:
		n, err := rgbID(v[:], param)
		if err != nil {
			return "", err
		}
		id = n
	case []int:
		n, err := rgbID(v, param)
		if err != nil {
			return "", err
		}
		id = n
	case int:
		id = v
	case int64:
		id = int(v)
	case uint8:
		id = int(v)
	default:
		return "", fmt.Errorf("invalid %s object: %T: %#v", param, c, c)
	}

	if id < 0 || id > 255 {
		return "", fmt.Errorf(
			"invalid int %s id %d. Valid int color id should be in range(256)", param, id)
	}
	return fgBg + "8:5:" + strconv.Itoa(id), nil
}

func rgbID(c []int, param string) (int, error) {
	if len(c) != 3 {
		return 0, fmt.Errorf(
			"invalid %s description tuple %v. Valid color description tuple "+
				"should have 3 elements each in range(6)", param, c)
	}
	for _, x := range c {
		if x < 0 || x > 5 {
			return 0, fmt.Errorf(
				"invalid %s description tuple %v. Valid color description tuple "+
					"should have 3 elements each in range(6)", param, c)
		}
	}
	return 16 + c[0]*36 + c[1]*6 + c[2], nil
}
