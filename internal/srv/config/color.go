package config

import (
	"fmt"
	"image/color"
	"regexp"
	"strconv"
	"strings"
)

var hexColorRegexp = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)
var tripletColorRegexp = regexp.MustCompile(`^\d{1,3},\d{1,3},\d{1,3}$`)

// ParseColor accepts "#RRGGBB", "RRGGBB" or "R,G,B"
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if hexColorRegexp.MatchString(s) {
		v, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}, nil
	}
	if tripletColorRegexp.MatchString(s) {
		var c [3]uint8
		for i, part := range strings.Split(s, ",") {
			v, err := strconv.Atoi(part)
			if err != nil || v > 255 {
				return color.RGBA{}, fmt.Errorf("color component out of range: %s", part)
			}
			c[i] = uint8(v)
		}
		return color.RGBA{c[0], c[1], c[2], 255}, nil
	}
	return color.RGBA{}, fmt.Errorf("color must be #RRGGBB or R,G,B: %q", s)
}

func FormatColor(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
