package state

import (
	"context"
	"log"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"stylekit/cascade"
	"stylekit/common"
	"stylekit/config"
	"stylekit/css"
)

func TestEnvFromContext(t *testing.T) {
	tests := []struct {
		name   string
		ctx    context.Context
		panics bool
	}{
		{"with env", ContextWithEnv(context.Background()), false},
		{"without env", context.Background(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); (r != nil) != tt.panics {
					t.Errorf("panic = %v, want panic %v", r, tt.panics)
				}
			}()
			env := EnvFromContext(tt.ctx)
			if env.start.IsZero() {
				t.Error("start time not set")
			}
		})
	}
}

func TestLocalEnv_StdLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	tests := []struct {
		name string
		log  *zap.Logger
		want int
	}{
		{"no logger", nil, 0},
		{"observed", zap.New(core), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &LocalEnv{Log: tt.log}
			env.RedirectStdLog()
			log.Print("stylesheet reloaded")
			env.RestoreStdLog()
			log.Print("after restore")

			if got := logs.FilterMessage("stylesheet reloaded").Len(); got != tt.want {
				t.Errorf("redirected entries = %d, want %d", got, tt.want)
			}
			if logs.FilterMessage("after restore").Len() != 0 {
				t.Error("standard logger still redirected after restore")
			}
		})
	}
}

func TestLocalEnv_PrepareEngine(t *testing.T) {
	tests := []struct {
		name    string
		screen  string
		idiom   common.Idiom
		wantErr bool
	}{
		{"default", "", common.IdiomPhone, false},
		{"unknown screen", "wide", common.IdiomUnspecified, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.LoadConfiguration("")
			if err != nil {
				t.Fatalf("LoadConfiguration() error = %v", err)
			}
			if tt.screen != "" {
				cfg.Engine.DefaultScreen = tt.screen
			}
			env := &LocalEnv{Cfg: cfg, Log: zaptest.NewLogger(t)}

			err = env.PrepareEngine()
			if (err != nil) != tt.wantErr {
				t.Fatalf("PrepareEngine() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if env.Engine != nil {
					t.Error("engine created despite error")
				}
				return
			}
			if env.Engine == nil || env.Engine.State() != cascade.Unloaded {
				t.Fatal("engine not prepared")
			}
			if env.Environment.Idiom != tt.idiom {
				t.Errorf("Idiom = %v, want %v", env.Environment.Idiom, tt.idiom)
			}
		})
	}
}

func TestLocalEnv_ComputeThroughContext(t *testing.T) {
	ctx := ContextWithEnv(context.Background())
	env := EnvFromContext(ctx)

	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	env.Cfg = cfg
	env.Log = zaptest.NewLogger(t)
	if err := env.PrepareEngine(); err != nil {
		t.Fatalf("PrepareEngine() error = %v", err)
	}

	engine := EnvFromContext(ctx).Engine
	if _, _, err := engine.Load([]byte(`Button[idiom == phone] { color: red; }`), t.Name()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cs := engine.ComputeStyle(&cascade.Node{Handle: 1, Name: "Button"}, env.Environment)
	c, ok := cs.Immediate["color"].(css.Color)
	if !ok {
		t.Fatalf("color = %v, dropped %v", cs.Immediate["color"], cs.Dropped)
	}
	if c.Hex() != "#ff0000" {
		t.Errorf("color = %s, want #ff0000", c.Hex())
	}
}
