package common

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Size is a 2D extent in points.
type Size struct {
	Width  float64
	Height float64
}

// Min returns the smaller of the two sides.
func (s Size) Min() float64 {
	return math.Min(s.Width, s.Height)
}

func (s Size) String() string {
	return strconv.FormatFloat(s.Width, 'g', -1, 64) + "x" + strconv.FormatFloat(s.Height, 'g', -1, 64)
}

// ParseSize parses "WxH" (e.g. "320x480").
func ParseSize(s string) (Size, error) {
	w, h, found := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !found {
		return Size{}, fmt.Errorf("size %q must be in WxH form", s)
	}
	width, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
	if err != nil {
		return Size{}, fmt.Errorf("bad width in %q: %w", s, err)
	}
	height, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
	if err != nil {
		return Size{}, fmt.Errorf("bad height in %q: %w", s, err)
	}
	return Size{Width: width, Height: height}, nil
}

// Environment is the bundle of runtime facts a style query is evaluated
// under. It is supplied per query and never retained by the engine.
type Environment struct {
	Horizontal SizeClass
	Vertical   SizeClass
	Idiom      Idiom
	Bounds     Size // screen (or window) bounds used by width/height conditions
}

// Fingerprint returns a stable hash of all facts. Two environments with
// equal fields always produce the same fingerprint.
func (e Environment) Fingerprint() uint64 {
	var buf [3*8 + 2*8]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(e.Horizontal))
	binary.LittleEndian.PutUint64(buf[8:], uint64(e.Vertical))
	binary.LittleEndian.PutUint64(buf[16:], uint64(e.Idiom))
	binary.LittleEndian.PutUint64(buf[24:], math.Float64bits(e.Bounds.Width))
	binary.LittleEndian.PutUint64(buf[32:], math.Float64bits(e.Bounds.Height))
	return xxhash.Sum64(buf[:])
}

func (e Environment) String() string {
	return fmt.Sprintf("horizontal=%s vertical=%s idiom=%s bounds=%s", e.Horizontal, e.Vertical, e.Idiom, e.Bounds)
}
