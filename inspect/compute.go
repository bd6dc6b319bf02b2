package inspect

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"stylekit/cascade"
	"stylekit/common"
	"stylekit/state"
)

// Overrides are command line replacements of the configured environment,
// empty values keep the configured ones.
type Overrides struct {
	Idiom      string
	Horizontal string
	Vertical   string
	Screen     string
}

// Apply returns env with overrides applied.
func (o Overrides) Apply(env common.Environment) (common.Environment, error) {
	var err error
	if o.Idiom != "" {
		if env.Idiom, err = common.ParseIdiom(o.Idiom); err != nil {
			return env, err
		}
	}
	if o.Horizontal != "" {
		if env.Horizontal, err = common.ParseSizeClass(o.Horizontal); err != nil {
			return env, err
		}
	}
	if o.Vertical != "" {
		if env.Vertical, err = common.ParseSizeClass(o.Vertical); err != nil {
			return env, err
		}
	}
	if o.Screen != "" {
		if env.Bounds, err = common.ParseSize(o.Screen); err != nil {
			return env, err
		}
	}
	return env, nil
}

// Compute loads stylesheet and prints style computed for an element
// described on the command line.
func Compute(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("compute")

	typ := cmd.String("type")
	if len(typ) == 0 {
		return errors.New("element type has not been specified")
	}

	environment, err := Overrides{
		Idiom:      cmd.String("idiom"),
		Horizontal: cmd.String("horizontal"),
		Vertical:   cmd.String("vertical"),
		Screen:     cmd.String("screen"),
	}.Apply(env.Environment)
	if err != nil {
		return fmt.Errorf("bad environment: %w", err)
	}

	el := &cascade.Node{
		Handle:  1,
		Name:    typ,
		Parents: cmd.StringSlice("kind-of"),
		Traits:  cmd.StringSlice("trait"),
		Within:  cmd.StringSlice("scope"),
		Size:    environment.Bounds,
	}
	if b := cmd.String("bounds"); b != "" {
		if el.Size, err = common.ParseSize(b); err != nil {
			return fmt.Errorf("bad element bounds: %w", err)
		}
	}

	src, diags, err := load(env, cmd, log)
	if err != nil {
		return err
	}
	if len(diags) > 0 {
		log.Warn("Stylesheet has problems, run check for details", zap.String("source", src), zap.Int("diagnostics", len(diags)))
	}

	style := env.Engine.ComputeStyle(el, environment)
	deferred, failed := env.Engine.ResolveDeferred(style, environment, el.Size)

	var buf bytes.Buffer
	if err := WriteStyle(&buf, environment, style, deferred, failed); err != nil {
		return err
	}
	env.Rpt.StoreData("style.css", buf.Bytes())

	log.Info("Style computed", zap.String("type", typ), zap.Stringer("environment", environment),
		zap.Int("immediate", len(style.Immediate)), zap.Int("deferred", len(style.Deferred)), zap.Int("dropped", len(style.Dropped)))

	if _, err := output(cmd).Write(buf.Bytes()); err != nil {
		return fmt.Errorf("unable to write style: %w", err)
	}
	return nil
}
