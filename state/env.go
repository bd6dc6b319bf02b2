// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	"stylekit/cascade"
	"stylekit/common"
	"stylekit/config"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// built from configuration, adjusted by command flags
	Engine      *cascade.Engine
	Environment common.Environment

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &LocalEnv{start: time.Now()})
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// PrepareEngine creates style engine and default environment from
// configuration. Configuration and logger must be set already.
func (e *LocalEnv) PrepareEngine(opts ...cascade.Option) error {
	env, err := e.Cfg.Engine.Environment()
	if err != nil {
		return err
	}
	e.Environment = env
	e.Engine = cascade.New(e.Log, append([]cascade.Option{cascade.WithConfig(e.Cfg.Engine)}, opts...)...)
	return nil
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
