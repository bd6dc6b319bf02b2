package resolve

import (
	"fmt"
	"strings"

	"stylekit/common"
	"stylekit/css"
)

// DefaultBaseFontSize is the em basis when none is configured.
const DefaultBaseFontSize = 16

// Context is everything resolution of a single property may depend on.
type Context struct {
	Property string // normalized property key
	Env      common.Environment
	Basis    common.Size
}

// Axis returns the basis side a top-level percentage of the property is
// relative to: width for horizontal properties, height for vertical ones and
// the shorter side otherwise.
func (c Context) Axis() float64 {
	p := strings.ToLower(c.Property)
	switch {
	case strings.Contains(p, "width"), strings.Contains(p, "left"), strings.Contains(p, "right"),
		c.Property == "x", strings.HasSuffix(c.Property, "X"):
		return c.Basis.Width
	case strings.Contains(p, "height"), strings.Contains(p, "top"), strings.Contains(p, "bottom"),
		c.Property == "y", strings.HasSuffix(c.Property, "Y"):
		return c.Basis.Height
	}
	return c.Basis.Min()
}

// Resolver resolves parsed values. Resolution is a pure function of the
// value, the environment and the basis.
type Resolver struct {
	baseFontSize float64
	registry     *Registry
	externals    css.Externals
}

// Option configures Resolver.
type Option func(*Resolver)

// WithBaseFontSize sets size of 1em in points.
func WithBaseFontSize(size float64) Option {
	return func(r *Resolver) {
		if size > 0 {
			r.baseFontSize = size
		}
	}
}

// WithRegistry replaces the function registry.
func WithRegistry(reg *Registry) Option {
	return func(r *Resolver) {
		if reg != nil {
			r.registry = reg
		}
	}
}

// WithExternals sets predicates for "?name" expressions of condition() values.
func WithExternals(ext css.Externals) Option {
	return func(r *Resolver) {
		r.externals = ext
	}
}

// New creates resolver with built-in functions.
func New(opts ...Option) *Resolver {
	r := &Resolver{baseFontSize: DefaultBaseFontSize}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = NewRegistry()
	}
	return r
}

// Registry returns function registry used by the resolver.
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// Resolve resolves declared value of property under env against basis.
// The layout-time flag is ignored, deciding when to resolve such values is
// up to the caller.
func (r *Resolver) Resolve(property string, pv css.PropertyValue, env common.Environment, basis common.Size) (Value, error) {
	if pv.Value == nil {
		return nil, fmt.Errorf("%s: %w: empty value", property, ErrTypeMismatch)
	}
	v, err := r.resolve(Context{Property: property, Env: env, Basis: basis}, pv.Value, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", property, err)
	}
	return v, nil
}

func (r *Resolver) resolve(ctx Context, v css.Value, arg bool) (Value, error) {
	switch v := v.(type) {
	case css.Color:
		return v, nil
	case css.Dimension:
		if v.Unit == css.UnitEm {
			return Number(v.Value * r.baseFontSize), nil
		}
		return Number(v.Value), nil
	case css.Percentage:
		if arg {
			return Ratio(v.Fraction()), nil
		}
		return Number(v.Fraction() * ctx.Axis()), nil
	case css.KeywordSet:
		ks, err := ResolveKeywords(v.Names)
		if err != nil && arg && len(v.Names) == 1 {
			// bare names may be passed to functions, e.g. font(Helvetica, 12)
			return String(v.Names[0]), nil
		}
		if err != nil {
			return nil, err
		}
		return ks, nil
	case css.Text:
		return String(v.Value), nil
	case css.Bool:
		return Bool(v.Value), nil
	case css.ConditionValue:
		return Bool(v.Condition.Evaluate(ctx.Env, r.externals)), nil
	case css.Function:
		fn, ok := r.registry.Lookup(v.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s()", ErrUnknownFunction, v.Name)
		}
		args := make([]Value, 0, len(v.Args))
		for _, a := range v.Args {
			rv, err := r.resolve(ctx, a, true)
			if err != nil {
				return nil, fmt.Errorf("%s(): %w", v.Name, err)
			}
			args = append(args, rv)
		}
		return fn(ctx, args)
	}
	return nil, fmt.Errorf("%w: cannot resolve %q", ErrTypeMismatch, v.String())
}
