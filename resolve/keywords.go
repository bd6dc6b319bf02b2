package resolve

import (
	"fmt"
	"strings"
)

// Keyword is a known right-hand side identifier.
type Keyword int

const (
	KeywordNone Keyword = iota

	// autoresizing mask bits
	KeywordFlexibleLeftMargin
	KeywordFlexibleWidth
	KeywordFlexibleRightMargin
	KeywordFlexibleTopMargin
	KeywordFlexibleHeight
	KeywordFlexibleBottomMargin

	// content modes
	KeywordModeScaleToFill
	KeywordModeScaleAspectFit
	KeywordModeScaleAspectFill
	KeywordModeRedraw
	KeywordModeCenter
	KeywordModeTop
	KeywordModeBottom
	KeywordModeLeft
	KeywordModeRight
	KeywordModeTopLeft
	KeywordModeTopRight
	KeywordModeBottomLeft
	KeywordModeBottomRight

	// flex direction
	KeywordColumn
	KeywordColumnReverse
	KeywordRow
	KeywordRowReverse

	// flex wrap
	KeywordWrap
	KeywordNoWrap

	// justification
	KeywordFlexStart
	KeywordCenter
	KeywordFlexEnd
	KeywordSpaceBetween
	KeywordSpaceAround

	// alignment
	KeywordAuto
	KeywordStretch

	keywordCount
)

var keywordNames = [keywordCount]string{
	KeywordNone:                 "none",
	KeywordFlexibleLeftMargin:   "flexible-left-margin",
	KeywordFlexibleWidth:        "flexible-width",
	KeywordFlexibleRightMargin:  "flexible-right-margin",
	KeywordFlexibleTopMargin:    "flexible-top-margin",
	KeywordFlexibleHeight:       "flexible-height",
	KeywordFlexibleBottomMargin: "flexible-bottom-margin",
	KeywordModeScaleToFill:      "mode-scale-to-fill",
	KeywordModeScaleAspectFit:   "mode-scale-aspect-fit",
	KeywordModeScaleAspectFill:  "mode-scale-aspect-fill",
	KeywordModeRedraw:           "mode-redraw",
	KeywordModeCenter:           "mode-center",
	KeywordModeTop:              "mode-top",
	KeywordModeBottom:           "mode-bottom",
	KeywordModeLeft:             "mode-left",
	KeywordModeRight:            "mode-right",
	KeywordModeTopLeft:          "mode-top-left",
	KeywordModeTopRight:         "mode-top-right",
	KeywordModeBottomLeft:       "mode-bottom-left",
	KeywordModeBottomRight:      "mode-bottom-right",
	KeywordColumn:               "column",
	KeywordColumnReverse:        "column-reverse",
	KeywordRow:                  "row",
	KeywordRowReverse:           "row-reverse",
	KeywordWrap:                 "wrap",
	KeywordNoWrap:               "nowrap",
	KeywordFlexStart:            "flex-start",
	KeywordCenter:               "center",
	KeywordFlexEnd:              "flex-end",
	KeywordSpaceBetween:         "space-between",
	KeywordSpaceAround:          "space-around",
	KeywordAuto:                 "auto",
	KeywordStretch:              "stretch",
}

var keywordsByName = func() map[string]Keyword {
	m := make(map[string]Keyword, len(keywordNames))
	for k, name := range keywordNames {
		m[name] = Keyword(k)
	}
	return m
}()

func (k Keyword) String() string {
	if k < 0 || k >= keywordCount {
		return fmt.Sprintf("Keyword(%d)", int(k))
	}
	return keywordNames[k]
}

// Code returns numeric value the layout engine expects for the keyword.
func (k Keyword) Code() int {
	switch k {
	case KeywordNone:
		return 0
	case KeywordFlexibleLeftMargin:
		return 1 << 0
	case KeywordFlexibleWidth:
		return 1 << 1
	case KeywordFlexibleRightMargin:
		return 1 << 2
	case KeywordFlexibleTopMargin:
		return 1 << 3
	case KeywordFlexibleHeight:
		return 1 << 4
	case KeywordFlexibleBottomMargin:
		return 1 << 5
	case KeywordModeScaleToFill:
		return 0
	case KeywordModeScaleAspectFit:
		return 1
	case KeywordModeScaleAspectFill:
		return 2
	case KeywordModeRedraw:
		return 3
	case KeywordModeCenter:
		return 4
	case KeywordModeTop:
		return 5
	case KeywordModeBottom:
		return 6
	case KeywordModeLeft:
		return 7
	case KeywordModeRight:
		return 8
	case KeywordModeTopLeft:
		return 9
	case KeywordModeTopRight:
		return 10
	case KeywordModeBottomLeft:
		return 11
	case KeywordModeBottomRight:
		return 12
	case KeywordColumn:
		return 0
	case KeywordColumnReverse:
		return 1
	case KeywordRow:
		return 2
	case KeywordRowReverse:
		return 3
	case KeywordWrap:
		return 1
	case KeywordNoWrap:
		return 0
	case KeywordFlexStart:
		return 0
	case KeywordCenter:
		return 1
	case KeywordFlexEnd:
		return 2
	case KeywordSpaceBetween:
		return 3
	case KeywordSpaceAround:
		return 4
	case KeywordAuto:
		return 0
	case KeywordStretch:
		return 4
	}
	panic(fmt.Sprintf("keyword %d has no code", int(k)))
}

// ParseKeyword looks up a keyword by name (case insensitive).
func ParseKeyword(name string) (Keyword, error) {
	k, ok := keywordsByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKeyword, name)
	}
	return k, nil
}

// ResolveKeywords ORs codes of all names together. A single unknown name
// fails the whole set.
func ResolveKeywords(names []string) (Keywords, error) {
	res := Keywords{Names: make([]string, 0, len(names))}
	for _, name := range names {
		k, err := ParseKeyword(name)
		if err != nil {
			return Keywords{}, err
		}
		res.Names = append(res.Names, k.String())
		res.Code |= k.Code()
	}
	return res, nil
}
