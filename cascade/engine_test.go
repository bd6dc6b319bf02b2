package cascade_test

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"stylekit/cascade"
	"stylekit/common"
	"stylekit/config"
	"stylekit/css"
	"stylekit/resolve"
)

var (
	phone = common.Environment{Idiom: common.IdiomPhone, Horizontal: common.SizeClassCompact, Bounds: common.Size{Width: 375, Height: 667}}
	pad   = common.Environment{Idiom: common.IdiomPad, Horizontal: common.SizeClassRegular, Bounds: common.Size{Width: 1024, Height: 768}}
)

func newEngine(t *testing.T, text string, opts ...cascade.Option) *cascade.Engine {
	t.Helper()
	e := cascade.New(zaptest.NewLogger(t), opts...)
	if _, _, err := e.Load([]byte(text), t.Name()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return e
}

func node(id cascade.ElementID, typ string, traits ...string) *cascade.Node {
	return &cascade.Node{Handle: id, Name: typ, Traits: traits, Size: common.Size{Width: 200, Height: 100}}
}

func colorOf(t *testing.T, cs *cascade.ComputedStyle, property string) string {
	t.Helper()
	v, ok := cs.Immediate[property]
	if !ok {
		t.Fatalf("%s not resolved, dropped: %v", property, cs.Dropped)
	}
	c, ok := v.(css.Color)
	if !ok {
		t.Fatalf("%s = %T, want css.Color", property, v)
	}
	return c.Hex()
}

func numberOf(t *testing.T, values map[string]resolve.Value, property string) float64 {
	t.Helper()
	v, ok := values[property]
	if !ok {
		t.Fatalf("%s not resolved", property)
	}
	n, ok := v.(resolve.Number)
	if !ok {
		t.Fatalf("%s = %T, want resolve.Number", property, v)
	}
	return float64(n)
}

func TestEngine_Scenario(t *testing.T) {
	e := newEngine(t, `A[default]{color:#112233;} A:selected[idiom==pad]{color:#ff0000;}`)
	el := node(1, "A", "selected")

	if got := colorOf(t, e.ComputeStyle(el, pad), "color"); got != "#ff0000" {
		t.Errorf("pad: color = %s, want #ff0000", got)
	}
	if got := colorOf(t, e.ComputeStyle(el, phone), "color"); got != "#112233" {
		t.Errorf("phone: color = %s, want #112233", got)
	}
}

func TestEngine_PriorityBeatsOrder(t *testing.T) {
	e := newEngine(t, `
A:selected { color: red; }
A { color: blue; margin: 4; }
A { color: green; }
`)
	cs := e.ComputeStyle(node(1, "A", "selected"), phone)
	if got := colorOf(t, cs, "color"); got != "#ff0000" {
		t.Errorf("color = %s, want #ff0000", got)
	}
	if got := numberOf(t, cs.Immediate, "margin"); got != 4 {
		t.Errorf("margin = %v, want 4", got)
	}

	cs = e.ComputeStyle(node(2, "A"), phone)
	if got := colorOf(t, cs, "color"); got != "#008000" {
		t.Errorf("later rule should win a tie: color = %s, want #008000", got)
	}
}

func TestEngine_Matching(t *testing.T) {
	e := newEngine(t, `
Base* { color: red; }
Base { margin: 1; }
.accent { tint: blue; }
@toolbar { padding: 2; }
Toolbar {
  Label { spacing: 3; }
}
`)
	derived := &cascade.Node{Handle: 1, Name: "Derived", Parents: []string{"Base"}, Traits: []string{"accent"}}
	cs := e.ComputeStyle(derived, phone)
	if got := colorOf(t, cs, "color"); got != "#ff0000" {
		t.Errorf("subclass rule: color = %s", got)
	}
	if _, ok := cs.Immediate["margin"]; ok {
		t.Error("exact type rule must not match a subclass")
	}
	if got := colorOf(t, cs, "tint"); got != "#0000ff" {
		t.Errorf("trait rule: tint = %s", got)
	}

	scoped := &cascade.Node{Handle: 2, Name: "Button", Within: []string{"toolbar"}}
	cs = e.ComputeStyle(scoped, phone)
	if got := numberOf(t, cs.Immediate, "padding"); got != 2 {
		t.Errorf("scope rule: padding = %v", got)
	}

	label := &cascade.Node{Handle: 3, Name: "Label", Within: []string{"Toolbar"}}
	if got := numberOf(t, e.ComputeStyle(label, phone).Immediate, "spacing"); got != 3 {
		t.Errorf("nested rule: spacing = %v", got)
	}
	if !e.ComputeStyle(node(4, "Label"), phone).Empty() {
		t.Error("nested rule must not match outside of its scope")
	}
}

func TestEngine_Resolution(t *testing.T) {
	e := newEngine(t, `
A {
  width: 50%;
  height: 50% !important;
  font-size: 2em;
  direction: row;
  mode: sideways;
}
`, cascade.WithConfig(config.EngineConfig{BaseFontSize: 10, RejectEmpty: true, CacheStyles: true}))

	cs := e.ComputeStyle(node(1, "A"), phone)
	if got := numberOf(t, cs.Immediate, "width"); got != 100 {
		t.Errorf("width = %v, want 100", got)
	}
	if got := numberOf(t, cs.Immediate, "fontSize"); got != 20 {
		t.Errorf("fontSize = %v, want 20", got)
	}
	if _, ok := cs.Immediate["height"]; ok {
		t.Error("layout time property resolved in cascade pass")
	}
	if _, ok := cs.Deferred["height"]; !ok {
		t.Error("height missing from deferred properties")
	}
	if err := cs.Dropped["mode"]; !errors.Is(err, resolve.ErrUnknownKeyword) {
		t.Errorf("mode dropped with %v, want ErrUnknownKeyword", err)
	}
	if _, ok := cs.Immediate["direction"]; !ok {
		t.Error("valid property dropped together with invalid one")
	}

	want := []string{"direction", "fontSize", "height", "width"}
	if got := cs.Keys(); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}

	values, dropped := e.ResolveDeferred(cs, phone, common.Size{Width: 300, Height: 400})
	if len(dropped) != 0 {
		t.Errorf("ResolveDeferred() dropped %v", dropped)
	}
	if got := numberOf(t, values, "height"); got != 200 {
		t.Errorf("deferred height = %v, want 200", got)
	}
}

func TestEngine_Unloaded(t *testing.T) {
	e := cascade.New(nil)
	if e.State() != cascade.Unloaded {
		t.Errorf("State() = %s, want unloaded", e.State())
	}
	cs := e.ComputeStyle(node(1, "A"), phone)
	if !cs.Empty() || cs.Immediate == nil || cs.Deferred == nil {
		t.Errorf("unloaded engine returned %+v", cs)
	}
	if e.Generation() != 0 || e.Stylesheet() != nil {
		t.Error("unloaded engine has a stylesheet")
	}
	if _, ok := e.Variable("x"); ok {
		t.Error("unloaded engine has variables")
	}
}

func TestEngine_FailedReloadKeepsSnapshot(t *testing.T) {
	e := newEngine(t, `$accent: red; A { color: $accent; }`)
	before := e.Stats().Snapshot

	tests := map[string]string{
		"no rules": "} }",
		"lexical":  "A { content: \"abc\n }",
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			gen, diags, err := e.Load([]byte(text), name)
			if !errors.Is(err, cascade.ErrReload) {
				t.Fatalf("Load() error = %v, want ErrReload", err)
			}
			var re *cascade.ReloadError
			if !errors.As(err, &re) || re.Source != name {
				t.Errorf("Load() error = %#v, want *ReloadError for %s", err, name)
			}
			if len(diags) == 0 {
				t.Error("diagnostics not returned")
			}
			if gen != 1 {
				t.Errorf("generation = %d, want 1", gen)
			}
		})
	}

	if e.State() != cascade.Loaded {
		t.Errorf("State() = %s, want loaded", e.State())
	}
	if e.Stats().Snapshot != before {
		t.Error("snapshot replaced by rejected stylesheet")
	}
	if got := colorOf(t, e.ComputeStyle(node(1, "A"), phone), "color"); got != "#ff0000" {
		t.Errorf("color = %s, want #ff0000", got)
	}
	if v, _ := e.Variable("$accent"); v != "red" {
		t.Errorf("Variable() = %q, want red", v)
	}
}

func TestEngine_EmptyAllowed(t *testing.T) {
	e := cascade.New(zaptest.NewLogger(t), cascade.WithConfig(config.EngineConfig{BaseFontSize: 16}))
	gen, _, err := e.Load([]byte("/* nothing yet */"), "empty")
	if err != nil || gen != 1 {
		t.Errorf("Load() = %d, %v, want 1, nil", gen, err)
	}
}

func TestEngine_Cache(t *testing.T) {
	e := newEngine(t, `A { color: red; }`)
	el := node(7, "A")

	first := e.ComputeStyle(el, phone)
	if second := e.ComputeStyle(el, phone); second != first {
		t.Error("repeated query was not served from cache")
	}
	if e.ComputeStyle(el, pad) == first {
		t.Error("different environment served from cache")
	}
	if st := e.Stats(); st.Hits != 1 || st.Misses != 2 || st.Entries != 2 {
		t.Errorf("Stats() = %+v", st)
	}

	e.Evict(el.ID())
	if st := e.Stats(); st.Entries != 0 {
		t.Errorf("entries after Evict() = %d, want 0", st.Entries)
	}
	if e.ComputeStyle(el, phone) == first {
		t.Error("evicted style returned")
	}

	if _, _, err := e.Load([]byte(`A { color: blue; }`), "second"); err != nil {
		t.Fatal(err)
	}
	cs := e.ComputeStyle(el, phone)
	if cs.Generation != 2 {
		t.Errorf("generation = %d, want 2", cs.Generation)
	}
	if got := colorOf(t, cs, "color"); got != "#0000ff" {
		t.Errorf("stale style after reload: color = %s", got)
	}
}

func TestEngine_CacheDisabled(t *testing.T) {
	e := newEngine(t, `A { color: red; }`, cascade.WithConfig(config.EngineConfig{BaseFontSize: 16}))
	el := node(1, "A")
	if e.ComputeStyle(el, phone) == e.ComputeStyle(el, phone) {
		t.Error("style cached with caching disabled")
	}
	if st := e.Stats(); st.Entries != 0 {
		t.Errorf("entries = %d, want 0", st.Entries)
	}
}

func TestEngine_Subscribe(t *testing.T) {
	e := cascade.New(zaptest.NewLogger(t))
	var got []cascade.Generation
	cancel := e.Subscribe(func(gen cascade.Generation) {
		if e.Generation() != gen {
			t.Errorf("listener called before swap: active %d, notified %d", e.Generation(), gen)
		}
		got = append(got, gen)
	})

	for _, text := range []string{`A { color: red; }`, `}`, `A { color: blue; }`} {
		e.Load([]byte(text), "subscribe") //nolint:errcheck
	}
	cancel()
	e.Load([]byte(`A { color: green; }`), "after cancel") //nolint:errcheck

	if fmt.Sprint(got) != "[1 2]" {
		t.Errorf("notifications = %v, want [1 2]", got)
	}
}

func TestEngine_Extensions(t *testing.T) {
	dark := false
	e := newEngine(t, `
A[?Dark] { color: black; }
A { size: double(21); }
`,
		cascade.WithExternalCondition("DARK", func(common.Environment) bool { return dark }),
		cascade.WithFunction("double", func(_ resolve.Context, args []resolve.Value) (resolve.Value, error) {
			n, ok := args[0].(resolve.Number)
			if !ok {
				return nil, resolve.ErrArgument
			}
			return n * 2, nil
		}),
		cascade.WithConfig(config.EngineConfig{BaseFontSize: 16, RejectEmpty: true}),
	)

	cs := e.ComputeStyle(node(1, "A"), phone)
	if _, ok := cs.Immediate["color"]; ok {
		t.Error("external condition ignored")
	}
	if got := numberOf(t, cs.Immediate, "size"); got != 42 {
		t.Errorf("size = %v, want 42", got)
	}

	dark = true
	if got := colorOf(t, e.ComputeStyle(node(1, "A"), phone), "color"); got != "#000000" {
		t.Errorf("color = %s, want #000000", got)
	}
}

func TestEngine_RegisterFunction(t *testing.T) {
	e := newEngine(t, `A { size: triple(5); }`)
	el := node(3, "A")

	cs := e.ComputeStyle(el, phone)
	if _, ok := cs.Dropped["size"]; !ok {
		t.Fatalf("unknown function resolved: %v", cs.Immediate)
	}

	e.RegisterFunction("Triple", func(_ resolve.Context, args []resolve.Value) (resolve.Value, error) {
		n, ok := args[0].(resolve.Number)
		if !ok {
			return nil, resolve.ErrArgument
		}
		return n * 3, nil
	})
	if st := e.Stats(); st.Entries != 0 {
		t.Errorf("entries after RegisterFunction() = %d, want 0", st.Entries)
	}
	if got := numberOf(t, e.ComputeStyle(el, phone).Immediate, "size"); got != 15 {
		t.Errorf("size = %v, want 15", got)
	}
}

func TestEngine_ConcurrentReload(t *testing.T) {
	const loads = 50

	e := cascade.New(zaptest.NewLogger(t))
	el := node(1, "A")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= loads; i++ {
			if _, _, err := e.Load(fmt.Appendf(nil, "A { color: #0000%02x; }", i), "concurrent"); err != nil {
				t.Errorf("Load(%d) error = %v", i, err)
				return
			}
		}
	}()

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				cs := e.ComputeStyle(el, phone)
				if cs.Generation == 0 {
					continue
				}
				c, ok := cs.Immediate["color"].(css.Color)
				if !ok {
					t.Errorf("generation %d: color missing", cs.Generation)
					return
				}
				if blue := cascade.Generation(math.Round(c.B * 255)); blue != cs.Generation {
					t.Errorf("generation %d computed from stylesheet %d", cs.Generation, blue)
					return
				}
			}
		}()
	}
	wg.Wait()

	if e.Generation() != loads {
		t.Errorf("Generation() = %d, want %d", e.Generation(), loads)
	}
}
