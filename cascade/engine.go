// Package cascade computes styles of elements from the active stylesheet.
//
// Engine keeps the active stylesheet in an immutable snapshot reached through
// an atomic pointer. Load parses new text completely before swapping the
// pointer, so ComputeStyle always sees one consistent stylesheet and never
// waits for a reload. Every snapshot owns its style cache: a swap makes all
// cached styles unreachable at once and they are recomputed on next access.
package cascade

import (
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"stylekit/common"
	"stylekit/config"
	"stylekit/css"
	"stylekit/resolve"
)

// Generation numbers loaded stylesheets, starting from 1. Zero means nothing
// was loaded yet.
type Generation uint64

// State of the engine lifecycle.
type State int32

const (
	Unloaded State = iota
	Loaded
	Reloading
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Reloading:
		return "reloading"
	default:
		return "unloaded"
	}
}

// Listener is called after a new stylesheet becomes active.
type Listener func(gen Generation)

// Stats describes the active snapshot and its cache.
type Stats struct {
	Generation Generation
	Snapshot   uuid.UUID
	Rules      int
	Entries    int
	Hits       uint64
	Misses     uint64
}

type cacheKey struct {
	element     ElementID
	fingerprint uint64
	generation  Generation
	basis       common.Size
}

type snapshot struct {
	id         uuid.UUID
	generation Generation
	sheet      *css.Stylesheet
	styles     *xsync.Map[cacheKey, *ComputedStyle]
}

// Engine is safe for concurrent use. Loads are serialized, queries are not.
type Engine struct {
	log       *zap.Logger
	cfg       config.EngineConfig
	parser    *css.Parser
	resolver  *resolve.Resolver
	externals css.Externals
	functions map[string]resolve.Constructor

	current atomic.Pointer[snapshot]
	state   atomic.Int32
	reload  sync.Mutex

	listeners  *xsync.Map[uint64, Listener]
	listenerID atomic.Uint64

	hits, misses atomic.Uint64
}

// Option configures Engine.
type Option func(*Engine)

// WithConfig applies engine section of the program configuration.
func WithConfig(cfg config.EngineConfig) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithExternalCondition registers predicate for "?name" condition
// expressions. Names are case insensitive.
func WithExternalCondition(name string, fn css.ExternalFunc) Option {
	return func(e *Engine) {
		e.externals[strings.ToLower(name)] = fn
	}
}

// WithFunction registers additional value constructor.
func WithFunction(name string, fn resolve.Constructor) Option {
	return func(e *Engine) {
		e.functions[name] = fn
	}
}

// DefaultConfig is used when WithConfig is not given.
func DefaultConfig() config.EngineConfig {
	return config.EngineConfig{
		BaseFontSize: resolve.DefaultBaseFontSize,
		RejectEmpty:  true,
		CacheStyles:  true,
	}
}

// New creates engine in Unloaded state.
func New(log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		log:       log.Named("cascade"),
		cfg:       DefaultConfig(),
		externals: make(css.Externals),
		functions: make(map[string]resolve.Constructor),
		listeners: xsync.NewMap[uint64, Listener](),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.parser = css.NewParser(log)

	registry := resolve.NewRegistry()
	for name, fn := range e.functions {
		registry.Register(name, fn)
	}
	e.resolver = resolve.New(
		resolve.WithBaseFontSize(e.cfg.BaseFontSize),
		resolve.WithRegistry(registry),
		resolve.WithExternals(e.externals),
	)
	return e
}

// RegisterFunction adds or replaces value constructor at runtime. Cached
// styles of the current snapshot are dropped so that queries made after it
// returns see the new constructor.
func (e *Engine) RegisterFunction(name string, fn resolve.Constructor) {
	e.resolver.Registry().Register(name, fn)
	e.purge(func(cacheKey) bool { return true })
	e.log.Debug("Registered value constructor", zap.String("name", name))
}

// State returns current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Generation of the active stylesheet, zero when Unloaded.
func (e *Engine) Generation() Generation {
	if snap := e.current.Load(); snap != nil {
		return snap.generation
	}
	return 0
}

// Stylesheet returns the active stylesheet or nil. It must not be modified.
func (e *Engine) Stylesheet() *css.Stylesheet {
	if snap := e.current.Load(); snap != nil {
		return snap.sheet
	}
	return nil
}

// Variable returns value text of a variable of the active stylesheet.
func (e *Engine) Variable(name string) (string, bool) {
	if snap := e.current.Load(); snap != nil {
		return snap.sheet.Variable(name)
	}
	return "", false
}

// Load parses data and makes it the active stylesheet. Diagnostics of the
// parse are always returned. When the stylesheet has a fatal diagnostic, or
// no rules while empty stylesheets are rejected, Load returns *ReloadError
// and the previously active stylesheet remains in use.
func (e *Engine) Load(data []byte, source string) (Generation, []css.Diagnostic, error) {
	e.reload.Lock()
	defer e.reload.Unlock()

	prev := e.current.Load()
	was := e.state.Swap(int32(Reloading))

	sheet := e.parser.Parse(data, source)
	if err := e.accept(sheet); err != nil {
		e.state.Store(was)
		e.log.Warn("Stylesheet rejected, keeping active one",
			zap.String("source", source), zap.String("reason", err.Reason), zap.Int("diagnostics", len(sheet.Diagnostics)))
		return e.Generation(), sheet.Diagnostics, err
	}

	next := &snapshot{
		generation: 1,
		sheet:      sheet,
		styles:     xsync.NewMap[cacheKey, *ComputedStyle](),
	}
	if prev != nil {
		next.generation = prev.generation + 1
	}
	if id, err := uuid.NewV7(); err == nil {
		next.id = id
	} else {
		next.id = uuid.New()
	}

	e.current.Store(next)
	e.state.Store(int32(Loaded))

	e.log.Debug("Stylesheet activated",
		zap.String("source", source),
		zap.Uint64("generation", uint64(next.generation)),
		zap.Stringer("snapshot", next.id),
		zap.Int("rules", len(sheet.Rules)),
		zap.Int("diagnostics", len(sheet.Diagnostics)))

	e.notify(next.generation)
	return next.generation, sheet.Diagnostics, nil
}

func (e *Engine) accept(sheet *css.Stylesheet) *ReloadError {
	if d := sheet.Fatal(); d != nil {
		return &ReloadError{Source: sheet.Source, Reason: "fatal error at line " + strconv.Itoa(d.Line), Diagnostics: sheet.Diagnostics}
	}
	if e.cfg.RejectEmpty && len(sheet.Rules) == 0 {
		return &ReloadError{Source: sheet.Source, Reason: "no valid rules", Diagnostics: sheet.Diagnostics}
	}
	return nil
}

// Subscribe registers listener for stylesheet changes. Listeners are called
// synchronously by the goroutine which called Load, after the swap.
func (e *Engine) Subscribe(fn Listener) (cancel func()) {
	id := e.listenerID.Add(1)
	e.listeners.Store(id, fn)
	return func() { e.listeners.Delete(id) }
}

func (e *Engine) notify(gen Generation) {
	e.listeners.Range(func(_ uint64, fn Listener) bool {
		fn(gen)
		return true
	})
}

// ComputeStyle returns cascaded style of el under env. When nothing is
// loaded the result is empty.
func (e *Engine) ComputeStyle(el Element, env common.Environment) *ComputedStyle {
	snap := e.current.Load()
	if snap == nil {
		return newComputedStyle(0)
	}

	key := cacheKey{
		element:     el.ID(),
		fingerprint: env.Fingerprint(),
		generation:  snap.generation,
		basis:       el.Bounds(),
	}
	if e.cfg.CacheStyles {
		if cs, ok := snap.styles.Load(key); ok {
			e.hits.Add(1)
			return cs
		}
	}
	e.misses.Add(1)

	cs := e.compute(snap, el, env, key.basis)
	if e.cfg.CacheStyles {
		snap.styles.Store(key, cs)
	}
	return cs
}

func (e *Engine) compute(snap *snapshot, el Element, env common.Environment, basis common.Size) *ComputedStyle {
	var matched []*css.Rule
	for i := range snap.sheet.Rules {
		rule := &snap.sheet.Rules[i]
		if Matches(rule.Selector, el) && rule.Selector.Condition.Evaluate(env, e.externals) {
			matched = append(matched, rule)
		}
	}
	slices.SortFunc(matched, css.CompareRules)

	folded := make(map[string]css.PropertyValue)
	for _, rule := range matched {
		for _, d := range rule.Declarations {
			folded[d.Property] = d.Value
		}
	}

	cs := newComputedStyle(snap.generation)
	for property, pv := range folded {
		if pv.LayoutTime {
			cs.Deferred[property] = pv
			continue
		}
		v, err := e.resolver.Resolve(property, pv, env, basis)
		if err != nil {
			e.log.Debug("Property dropped", zap.String("type", el.Type()), zap.String("property", property), zap.Error(err))
			cs.Dropped[property] = err
			continue
		}
		cs.Immediate[property] = v
	}
	return cs
}

// ResolveDeferred resolves layout time properties of style against basis.
// Properties which cannot be resolved are returned in the second map.
func (e *Engine) ResolveDeferred(style *ComputedStyle, env common.Environment, basis common.Size) (map[string]resolve.Value, map[string]error) {
	values := make(map[string]resolve.Value, len(style.Deferred))
	var dropped map[string]error
	for property, pv := range style.Deferred {
		v, err := e.resolver.Resolve(property, pv, env, basis)
		if err != nil {
			if dropped == nil {
				dropped = make(map[string]error)
			}
			dropped[property] = err
			continue
		}
		values[property] = v
	}
	return values, dropped
}

// Evict removes cached styles of the element, it should be called when the
// element is destroyed or its type, traits or scopes change.
func (e *Engine) Evict(id ElementID) {
	e.purge(func(k cacheKey) bool { return k.element == id })
}

// purge deletes cached styles of the current snapshot matching drop.
func (e *Engine) purge(drop func(cacheKey) bool) {
	snap := e.current.Load()
	if snap == nil {
		return
	}
	snap.styles.Range(func(k cacheKey, _ *ComputedStyle) bool {
		if drop(k) {
			snap.styles.Delete(k)
		}
		return true
	})
}

// Stats returns cache statistics.
func (e *Engine) Stats() Stats {
	st := Stats{Hits: e.hits.Load(), Misses: e.misses.Load()}
	if snap := e.current.Load(); snap != nil {
		st.Generation = snap.generation
		st.Snapshot = snap.id
		st.Rules = len(snap.sheet.Rules)
		st.Entries = snap.styles.Size()
	}
	return st
}
