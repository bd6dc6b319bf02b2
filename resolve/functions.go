package resolve

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/maruel/natural"
	"github.com/puzpuzpuz/xsync/v4"

	"stylekit/css"
)

// Constructor builds a value from resolved function arguments. Percentage
// arguments arrive as Ratio, the constructor decides what they are relative to.
type Constructor func(ctx Context, args []Value) (Value, error)

// Registry maps function names to constructors. It is safe for concurrent
// use, so additional constructors may be registered while styles are computed.
type Registry struct {
	funcs *xsync.Map[string, Constructor]
}

// NewRegistry returns registry with all built-in functions.
func NewRegistry() *Registry {
	r := &Registry{funcs: xsync.NewMap[string, Constructor]()}
	for name, fn := range builtins {
		r.Register(name, fn)
	}
	return r
}

// Register adds or replaces constructor for function name (case insensitive).
func (r *Registry) Register(name string, fn Constructor) {
	r.funcs.Store(strings.ToLower(name), fn)
}

// Lookup returns constructor for function name.
func (r *Registry) Lookup(name string) (Constructor, bool) {
	return r.funcs.Load(strings.ToLower(name))
}

// Names returns all registered function names in natural order.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.funcs.Size())
	r.funcs.Range(func(name string, _ Constructor) bool {
		names = append(names, name)
		return true
	})
	sort.Sort(natural.StringSlice(names))
	return names
}

var builtins = map[string]Constructor{
	"rgb":                 rgba,
	"rgba":                rgba,
	"hsl":                 hsla,
	"hsla":                hsla,
	"linear-gradient":     linearGradient,
	"font":                font,
	"rect":                rect,
	"point":               point,
	"size":                size,
	"edge-insets":         edgeInsets,
	"transform-scale":     transformScale,
	"transform-rotate":    transformRotate,
	"transform-translate": transformTranslate,
	"image":               image,
	"vector":              vector,
}

func arity(name string, args []Value, counts ...int) error {
	if slices.Contains(counts, len(args)) {
		return nil
	}
	return fmt.Errorf("%w: %s() takes %v arguments, got %d", ErrArgument, name, counts, len(args))
}

func number(name string, args []Value, i int) (float64, error) {
	if n, ok := args[i].(Number); ok {
		return float64(n), nil
	}
	return 0, fmt.Errorf("%w: argument %d of %s() must be a number, got %s", ErrTypeMismatch, i+1, name, args[i])
}

// length returns number argument or ratio argument applied to side.
func length(name string, args []Value, i int, side float64) (float64, error) {
	switch v := args[i].(type) {
	case Number:
		return float64(v), nil
	case Ratio:
		return float64(v) * side, nil
	}
	return 0, fmt.Errorf("%w: argument %d of %s() must be a length, got %s", ErrTypeMismatch, i+1, name, args[i])
}

// fraction maps ratio directly and number through scale into [0, 1].
func fraction(name string, args []Value, i int, scale float64) (float64, error) {
	switch v := args[i].(type) {
	case Number:
		return float64(v) / scale, nil
	case Ratio:
		return float64(v), nil
	}
	return 0, fmt.Errorf("%w: argument %d of %s() must be a number or percentage, got %s", ErrTypeMismatch, i+1, name, args[i])
}

func alpha(name string, args []Value) (float64, error) {
	if len(args) < 4 {
		return 1, nil
	}
	a, err := fraction(name, args, 3, 1)
	return min(max(a, 0), 1), err
}

func rgba(_ Context, args []Value) (Value, error) {
	const name = "rgba"
	if err := arity(name, args, 3, 4); err != nil {
		return nil, err
	}
	var ch [3]float64
	for i := range ch {
		f, err := fraction(name, args, i, 255)
		if err != nil {
			return nil, err
		}
		ch[i] = f
	}
	a, err := alpha(name, args)
	if err != nil {
		return nil, err
	}
	c := colorful.Color{R: ch[0], G: ch[1], B: ch[2]}.Clamped()
	return css.Color{R: c.R, G: c.G, B: c.B, A: a}, nil
}

func hsla(_ Context, args []Value) (Value, error) {
	const name = "hsla"
	if err := arity(name, args, 3, 4); err != nil {
		return nil, err
	}
	h, err := number(name, args, 0)
	if err != nil {
		return nil, err
	}
	s, err := fraction(name, args, 1, 100)
	if err != nil {
		return nil, err
	}
	l, err := fraction(name, args, 2, 100)
	if err != nil {
		return nil, err
	}
	a, err := alpha(name, args)
	if err != nil {
		return nil, err
	}
	c := colorful.Hsl(h, s, l).Clamped()
	return css.Color{R: c.R, G: c.G, B: c.B, A: a}, nil
}

func linearGradient(ctx Context, args []Value) (Value, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("%w: linear-gradient() needs at least two colors", ErrArgument)
	}
	g := Gradient{Colors: make([]css.Color, 0, len(args)), Size: ctx.Basis}
	for i, a := range args {
		c, ok := a.(css.Color)
		if !ok {
			return nil, fmt.Errorf("%w: argument %d of linear-gradient() must be a color, got %s", ErrTypeMismatch, i+1, a)
		}
		g.Colors = append(g.Colors, c)
	}
	return g, nil
}

func font(ctx Context, args []Value) (Value, error) {
	const name = "font"
	if err := arity(name, args, 2); err != nil {
		return nil, err
	}
	face, ok := args[0].(String)
	if !ok {
		return nil, fmt.Errorf("%w: font name must be a string, got %s", ErrTypeMismatch, args[0])
	}
	sz, err := length(name, args, 1, ctx.Basis.Min())
	if err != nil {
		return nil, err
	}
	return Font{Name: string(face), Size: sz}, nil
}

// lengths resolves all arguments, even ones against basis width and odd
// ones against basis height.
func lengths(ctx Context, name string, args []Value, n int) ([]float64, error) {
	if err := arity(name, args, n); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range n {
		side := ctx.Basis.Width
		if i%2 == 1 {
			side = ctx.Basis.Height
		}
		v, err := length(name, args, i, side)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func rect(ctx Context, args []Value) (Value, error) {
	v, err := lengths(ctx, "rect", args, 4)
	if err != nil {
		return nil, err
	}
	return Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

func point(ctx Context, args []Value) (Value, error) {
	v, err := lengths(ctx, "point", args, 2)
	if err != nil {
		return nil, err
	}
	return Point{X: v[0], Y: v[1]}, nil
}

func size(ctx Context, args []Value) (Value, error) {
	v, err := lengths(ctx, "size", args, 2)
	if err != nil {
		return nil, err
	}
	return Size{Width: v[0], Height: v[1]}, nil
}

func edgeInsets(ctx Context, args []Value) (Value, error) {
	const name = "edge-insets"
	if err := arity(name, args, 4); err != nil {
		return nil, err
	}
	var v [4]float64
	for i := range v {
		// top, left, bottom, right
		side := ctx.Basis.Height
		if i%2 == 1 {
			side = ctx.Basis.Width
		}
		f, err := length(name, args, i, side)
		if err != nil {
			return nil, err
		}
		v[i] = f
	}
	return EdgeInsets{Top: v[0], Left: v[1], Bottom: v[2], Right: v[3]}, nil
}

func transformScale(_ Context, args []Value) (Value, error) {
	const name = "transform-scale"
	if err := arity(name, args, 1, 2); err != nil {
		return nil, err
	}
	x, err := number(name, args, 0)
	if err != nil {
		return nil, err
	}
	y := x
	if len(args) == 2 {
		if y, err = number(name, args, 1); err != nil {
			return nil, err
		}
	}
	return Scale(x, y), nil
}

func transformRotate(_ Context, args []Value) (Value, error) {
	const name = "transform-rotate"
	if err := arity(name, args, 1); err != nil {
		return nil, err
	}
	angle, err := number(name, args, 0)
	if err != nil {
		return nil, err
	}
	return Rotate(angle), nil
}

func transformTranslate(ctx Context, args []Value) (Value, error) {
	v, err := lengths(ctx, "transform-translate", args, 2)
	if err != nil {
		return nil, err
	}
	return Translate(v[0], v[1]), nil
}

func image(ctx Context, args []Value) (Value, error) {
	if err := arity("image", args, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case String:
		return Image{Name: string(v)}, nil
	case css.Color, Gradient:
		return Image{Fill: v, Size: ctx.Basis}, nil
	}
	return nil, fmt.Errorf("%w: image() takes a name, a color or a gradient, got %s", ErrTypeMismatch, args[0])
}

func vector(_ Context, args []Value) (Value, error) {
	return Vector(slices.Clone(args)), nil
}
