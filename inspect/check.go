package inspect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"stylekit/config"
	"stylekit/css"
	"stylekit/state"
)

func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

// load reads stylesheet named by the first argument into the engine.
func load(env *state.LocalEnv, cmd *cli.Command, log *zap.Logger) (string, []css.Diagnostic, error) {
	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return "", nil, errors.New("no stylesheet has been specified")
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many sources", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", nil, fmt.Errorf("unable to read stylesheet: %w", err)
	}
	env.Rpt.Store("source/"+config.ReportEntryName(src), src)

	gen, diags, err := env.Engine.Load(data, src)

	var buf bytes.Buffer
	_ = WriteDiagnostics(&buf, src, diags)
	env.Rpt.StoreData("diagnostics.txt", buf.Bytes())

	if err != nil {
		return src, diags, err
	}
	log.Debug("Stylesheet loaded", zap.String("source", src), zap.Uint64("generation", uint64(gen)), zap.Int("diagnostics", len(diags)))
	return src, diags, nil
}

// Check parses stylesheet and reports every skipped construct.
func Check(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("check")
	out := output(cmd)

	src, diags, err := load(env, cmd, log)
	if werr := WriteDiagnostics(out, src, diags); werr != nil {
		return werr
	}
	if err != nil {
		return err
	}

	sheet := env.Engine.Stylesheet()
	if cmd.Bool("variables") {
		if err := WriteVariables(out, sheet); err != nil {
			return err
		}
	}
	if cmd.Bool("dump") {
		if _, err := sheet.WriteTo(out); err != nil {
			return err
		}
	}

	log.Info("Stylesheet checked", zap.String("source", src), zap.Int("rules", len(sheet.Rules)), zap.Int("diagnostics", len(sheet.Diagnostics)))
	if cmd.Bool("strict") && len(sheet.Diagnostics) > 0 {
		return fmt.Errorf("%d problem(s) found in %s", len(sheet.Diagnostics), src)
	}
	return nil
}
