package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/roach88/unwind/internal/ir"
	"github.com/roach88/unwind/internal/lower"
	"github.com/roach88/unwind/internal/store"
	"github.com/roach88/unwind/internal/syntax"
)

// treeCapabilities are assumed for trees loaded from dumps. Gated kinds only
// appear in dumps from grammars that have them, so enabling every gate
// never changes how an ungated dump lowers.
var treeCapabilities = syntax.Capabilities{PatternMatching: true}

// Pipeline lowers source units. It is safe for concurrent use.
type Pipeline struct {
	parser   syntax.Parser
	registry *lower.Registry
	extended bool
	store    *store.Store
	logger   *slog.Logger

	mu       sync.Mutex
	lowerer  *lower.Lowerer
	cacheKey string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRegistry fixes the registry instead of deriving it from the parser's
// capabilities.
func WithRegistry(r *lower.Registry) Option {
	return func(p *Pipeline) {
		p.registry = r
	}
}

// WithExtendedOperators switches to the dialect that names every operator.
func WithExtendedOperators(enabled bool) Option {
	return func(p *Pipeline) {
		p.extended = enabled
	}
}

// WithStore enables the lowering cache.
func WithStore(s *store.Store) Option {
	return func(p *Pipeline) {
		p.store = s
	}
}

// WithLogger sets the logger for timing and cache diagnostics. The logger
// is also handed to the Lowerer.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a Pipeline over parser. parser may be nil when only
// LowerTree is used.
func New(parser syntax.Parser, opts ...Option) *Pipeline {
	p := &Pipeline{
		parser: parser,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is the outcome of lowering one source unit.
type Result struct {
	// Path is the file the source came from, empty for in-memory text.
	Path string

	// SourceHash is ir.SourceHash of the source, empty for dumped trees.
	SourceHash string

	// Dialect is the name of the registry used.
	Dialect string

	IR ir.IRValue

	// IRHash is empty when the IR has no canonical form (non-finite reals).
	IRHash string

	// Cached is true when the IR was served from the cache.
	Cached bool
}

// Lowerer returns the Lowerer this pipeline uses, resolving the registry on
// first call.
func (p *Pipeline) Lowerer(ctx context.Context) (*lower.Lowerer, error) {
	l, _, err := p.resolve(ctx)
	return l, err
}

// resolve probes the parser once and returns the Lowerer together with the
// dialect name cached lowerings are stored under.
func (p *Pipeline) resolve(ctx context.Context) (*lower.Lowerer, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lowerer != nil {
		return p.lowerer, p.cacheKey, nil
	}

	caps := treeCapabilities
	if p.parser != nil {
		var err error
		caps, err = p.parser.Capabilities(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("probe parser: %w", err)
		}
	}

	registry := p.registry
	if registry == nil {
		registry = lower.DefaultRegistry(caps)
	}
	if p.extended {
		registry = lower.ExtendedOperators(registry)
	}

	p.lowerer = lower.New(lower.WithRegistry(registry), lower.WithLogger(p.logger))
	p.cacheKey = cacheDialect(registry.Name(), caps.Version)
	p.logger.Debug("resolved dialect", "dialect", registry.Name(), "kinds", registry.Len(), "cache_key", p.cacheKey)
	return p.lowerer, p.cacheKey, nil
}

// cacheDialect qualifies a dialect with the grammar's major.minor release.
// Tree shapes change between releases under one dialect (3.8 wraps
// subscripts in Index), so lowerings from different releases never share
// a cache row.
func cacheDialect(dialect, version string) string {
	release := grammarRelease(version)
	if release == "" {
		return dialect
	}
	return dialect + "@" + release
}

// grammarRelease trims a version to major.minor: "3.12.1" becomes "3.12".
func grammarRelease(version string) string {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return version
	}
	return parts[0] + "." + parts[1]
}

// Dialect returns the name of the registry this pipeline lowers with.
func (p *Pipeline) Dialect(ctx context.Context) (string, error) {
	l, err := p.Lowerer(ctx)
	if err != nil {
		return "", err
	}
	return l.Registry().Name(), nil
}

// LowerText parses and lowers one source unit, consulting the cache first
// when one is configured.
func (p *Pipeline) LowerText(ctx context.Context, source string) (Result, error) {
	if p.parser == nil {
		return Result{}, fmt.Errorf("lower text: pipeline has no parser")
	}
	l, key, err := p.resolve(ctx)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		SourceHash: ir.SourceHash(source),
		Dialect:    l.Registry().Name(),
	}

	if p.store != nil {
		rec, ok, err := p.store.GetLowering(ctx, res.SourceHash, key)
		if err != nil {
			p.logger.Warn("cache read failed", "source_hash", res.SourceHash, "error", err)
		} else if ok {
			p.logger.Info("cache hit", "source_hash", res.SourceHash, "dialect", key, "seq", rec.Seq)
			res.IR, res.IRHash, res.Cached = rec.IR, rec.IRHash, true
			return res, nil
		}
	}

	start := time.Now()
	tree, err := p.parser.Parse(ctx, source)
	if err != nil {
		return Result{}, err
	}
	p.logger.Debug("parsed", "source_hash", res.SourceHash, "elapsed", time.Since(start))

	if err := p.lowerInto(l, tree, &res); err != nil {
		return Result{}, err
	}

	if p.store != nil && res.IRHash != "" {
		if _, _, err := p.store.PutLowering(ctx, res.SourceHash, key, res.IR); err != nil {
			p.logger.Warn("cache write failed", "source_hash", res.SourceHash, "error", err)
		}
	}
	return res, nil
}

// LowerFile reads path and lowers its contents.
func (p *Pipeline) LowerFile(ctx context.Context, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read source: %w", err)
	}
	res, err := p.LowerText(ctx, string(data))
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", path, err)
	}
	res.Path = path
	return res, nil
}

// LowerTree lowers an already-parsed tree, e.g. one loaded from a dump.
// Trees bypass the cache since they have no source text to key on.
func (p *Pipeline) LowerTree(ctx context.Context, tree *syntax.Node) (Result, error) {
	l, err := p.Lowerer(ctx)
	if err != nil {
		return Result{}, err
	}
	res := Result{Dialect: l.Registry().Name()}
	if err := p.lowerInto(l, tree, &res); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (p *Pipeline) lowerInto(l *lower.Lowerer, tree *syntax.Node, res *Result) error {
	if tree == nil {
		return fmt.Errorf("lower: empty tree")
	}
	start := time.Now()
	v, err := l.Lower(tree)
	if err != nil {
		return err
	}
	p.logger.Debug("lowered", "kind", tree.Kind, "dialect", res.Dialect, "elapsed", time.Since(start))

	res.IR = v
	hash, err := ir.IRHash(v)
	if err != nil {
		p.logger.Warn("IR has no canonical form, not hashing", "error", err)
		return nil
	}
	res.IRHash = hash
	return nil
}
