// The only reason this package exists is because environment facts are needed
// by the parser (conditions are evaluated against them), by the value resolver
// and by the cascade engine. Keeping them here avoids import cycles.
package common

import (
	"fmt"
	"strings"
)

// Size class of the available space in one direction.
// Values: unspecified, compact, regular.
type SizeClass int

const (
	SizeClassUnspecified SizeClass = iota
	SizeClassCompact
	SizeClassRegular
)

var sizeClassNames = []string{"unspecified", "compact", "regular"}

func (s SizeClass) String() string {
	if s < 0 || int(s) >= len(sizeClassNames) {
		return fmt.Sprintf("SizeClass(%d)", int(s))
	}
	return sizeClassNames[s]
}

// SizeClassNames returns list of possible string values of SizeClass.
func SizeClassNames() []string {
	return append([]string(nil), sizeClassNames...)
}

// ParseSizeClass converts name (case insensitive) to SizeClass.
func ParseSizeClass(name string) (SizeClass, error) {
	for i, n := range sizeClassNames {
		if strings.EqualFold(n, name) {
			return SizeClass(i), nil
		}
	}
	return SizeClassUnspecified, fmt.Errorf("%s is not a valid SizeClass, try [%s]", name, strings.Join(sizeClassNames, ", "))
}

// Device form factor.
// Values: unspecified, phone, pad, tv, car.
type Idiom int

const (
	IdiomUnspecified Idiom = iota
	IdiomPhone
	IdiomPad
	IdiomTv
	IdiomCar
)

var idiomNames = []string{"unspecified", "phone", "pad", "tv", "car"}

func (i Idiom) String() string {
	if i < 0 || int(i) >= len(idiomNames) {
		return fmt.Sprintf("Idiom(%d)", int(i))
	}
	return idiomNames[i]
}

// IdiomNames returns list of possible string values of Idiom.
func IdiomNames() []string {
	return append([]string(nil), idiomNames...)
}

// ParseIdiom converts name (case insensitive) to Idiom.
func ParseIdiom(name string) (Idiom, error) {
	for i, n := range idiomNames {
		if strings.EqualFold(n, name) {
			return Idiom(i), nil
		}
	}
	return IdiomUnspecified, fmt.Errorf("%s is not a valid Idiom, try [%s]", name, strings.Join(idiomNames, ", "))
}
