// Package resolve turns parsed property values into typed results using the
// environment and a basis size supplied by the caller.
package resolve

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"stylekit/common"
	"stylekit/css"
)

var (
	ErrUnknownKeyword  = errors.New("unknown keyword")
	ErrUnknownFunction = errors.New("unknown function")
	ErrArgument        = errors.New("bad function arguments")
	ErrTypeMismatch    = errors.New("type mismatch")
)

// Value is a resolved property value.
type Value interface {
	String() string
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Number is a dimension converted to points.
type Number float64

func (n Number) String() string { return formatFloat(float64(n)) }

// Ratio is a percentage argument of a function, 50% is 0.5. Constructors
// decide which basis side, if any, it applies to.
type Ratio float64

func (r Ratio) String() string { return formatFloat(float64(r)*100) + "%" }

// Keywords is a resolved keyword set, Code has codes of all names OR-ed.
type Keywords struct {
	Names []string
	Code  int
}

func (k Keywords) String() string {
	return strings.Join(k.Names, ", ") + " (" + strconv.Itoa(k.Code) + ")"
}

// String is a quoted string value.
type String string

func (s String) String() string { return strconv.Quote(string(s)) }

// Bool is a boolean, also the result of condition() values.
type Bool bool

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

// Font is a font face and point size.
type Font struct {
	Name string
	Size float64
}

func (f Font) String() string { return fmt.Sprintf("font(%q, %s)", f.Name, formatFloat(f.Size)) }

// Rect is a rectangle.
type Rect struct {
	X, Y, Width, Height float64
}

func (r Rect) String() string {
	return fmt.Sprintf("rect(%s, %s, %s, %s)", formatFloat(r.X), formatFloat(r.Y), formatFloat(r.Width), formatFloat(r.Height))
}

// Point is a 2D point.
type Point struct {
	X, Y float64
}

func (p Point) String() string { return fmt.Sprintf("point(%s, %s)", formatFloat(p.X), formatFloat(p.Y)) }

// Size is a 2D extent.
type Size common.Size

func (s Size) String() string { return common.Size(s).String() }

// EdgeInsets are insets from each edge.
type EdgeInsets struct {
	Top, Left, Bottom, Right float64
}

func (e EdgeInsets) String() string {
	return fmt.Sprintf("edge-insets(%s, %s, %s, %s)", formatFloat(e.Top), formatFloat(e.Left), formatFloat(e.Bottom), formatFloat(e.Right))
}

// Transform is a 2D affine transformation matrix
//
//	| A  B  0 |
//	| C  D  0 |
//	| Tx Ty 1 |
type Transform struct {
	A, B, C, D, Tx, Ty float64
}

// Identity is the transform which changes nothing.
var Identity = Transform{A: 1, D: 1}

func Scale(x, y float64) Transform { return Transform{A: x, D: y} }

func Translate(x, y float64) Transform { return Transform{A: 1, D: 1, Tx: x, Ty: y} }

// Rotate returns rotation by angle in radians.
func Rotate(angle float64) Transform {
	sin, cos := math.Sincos(angle)
	return Transform{A: cos, B: sin, C: -sin, D: cos}
}

func (t Transform) String() string {
	return fmt.Sprintf("matrix(%s, %s, %s, %s, %s, %s)",
		formatFloat(t.A), formatFloat(t.B), formatFloat(t.C), formatFloat(t.D), formatFloat(t.Tx), formatFloat(t.Ty))
}

// Gradient is a linear gradient sized by the basis.
type Gradient struct {
	Colors []css.Color
	Size   common.Size
}

func (g Gradient) String() string {
	parts := make([]string, 0, len(g.Colors))
	for _, c := range g.Colors {
		parts = append(parts, c.String())
	}
	return "linear-gradient(" + strings.Join(parts, ", ") + ") " + g.Size.String()
}

// Image is a named image asset or an image filled with a color or a gradient.
type Image struct {
	Name string
	Fill Value // css.Color or Gradient when Name is empty
	Size common.Size
}

func (i Image) String() string {
	if i.Name != "" {
		return fmt.Sprintf("image(%q)", i.Name)
	}
	return "image(" + i.Fill.String() + ") " + i.Size.String()
}

// Vector is a list of resolved values.
type Vector []Value

func (v Vector) String() string {
	parts := make([]string, 0, len(v))
	for _, item := range v {
		parts = append(parts, item.String())
	}
	return "vector(" + strings.Join(parts, ", ") + ")"
}
