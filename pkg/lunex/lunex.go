// Package lunex compiles the lunex dialect of Lua 5.4 to plain Lua 5.4.
//
// A compile runs four phases over one source text: lexing, parsing,
// lowering and code generation. Every phase keeps its state inside the
// compile, so a Compiler may be shared by concurrent callers.
package lunex

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/generator"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/lexer"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/parser"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/transform"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/traverse"
)

// Compile phases, used as span names and log attributes.
const (
	PhaseLex       = "lexer"
	PhaseParse     = "parse"
	PhaseTransform = "transform"
	PhaseGenerate  = "generate"
)

const (
	instrumentationName = "lunex"

	metricPhaseDuration = "lunex.compile.phase.duration.seconds"

	attrPhase  = "lunex.phase"
	attrBytes  = "lunex.source.bytes"
	attrTokens = "lunex.tokens"
	attrNodes  = "lunex.nodes"
)

// phaseBuckets covers sub-millisecond phases up to pathological inputs.
var phaseBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// Options configures one compile.
type Options struct {
	// Debug instruments the output so runtime errors report the source
	// range of the block that raised them.
	Debug bool

	// Indent is the output indent unit. Empty reuses the source's.
	Indent string
}

// Result is the outcome of a successful compile.
type Result struct {
	// Output is the plain Lua text, without a trailing newline.
	Output string

	// AST is the tree as parsed, before lowering.
	AST *ast.Node

	// Lowered is the tree the output was generated from.
	Lowered *ast.Node

	// Tokens is the token array of the source.
	Tokens []lexer.Token

	// Helpers names the runtime helpers prepended to the output.
	Helpers []string
}

// Compiler runs compiles with shared logging and telemetry.
type Compiler struct {
	logger   *slog.Logger
	tracer   trace.Tracer
	duration metric.Float64Histogram
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger logs every phase at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// WithTracer opens a span per phase.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Compiler) {
		c.tracer = tracer
	}
}

// WithMeter records phase durations on a histogram of mt.
func WithMeter(mt metric.Meter) Option {
	return func(c *Compiler) {
		hist, err := mt.Float64Histogram(metricPhaseDuration,
			metric.WithDescription("Duration of one compile phase in seconds"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(phaseBuckets...),
		)
		if err == nil {
			c.duration = hist
		}
	}
}

// NewCompiler creates a Compiler. Without options it logs nothing and
// records no telemetry.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		logger: slog.New(slog.DiscardHandler),
		tracer: nooptrace.NewTracerProvider().Tracer(instrumentationName),
	}

	noop, _ := noopmetric.NewMeterProvider().Meter(instrumentationName).Float64Histogram(metricPhaseDuration)
	c.duration = noop

	for _, opt := range opts {
		opt(c)
	}

	return c
}

var defaultCompiler = NewCompiler()

// Compile compiles src with a Compiler that records nothing.
func Compile(ctx context.Context, src string, opts Options) (*Result, error) {
	return defaultCompiler.Compile(ctx, src, opts)
}

// Tokenize scans src. With skipErrors, lexical errors become Invalid
// tokens and the scan continues.
func Tokenize(src string, skipErrors bool) ([]lexer.Token, error) {
	toks, err := lexer.Tokenize(src, lexer.Options{SkipErrors: skipErrors})
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}

	return toks, nil
}

// Compile compiles src. The returned error carries a *diag.Diagnostic for
// every source error; no partial output is produced.
func (c *Compiler) Compile(ctx context.Context, src string, opts Options) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "lunex.compile",
		trace.WithAttributes(attribute.Int(attrBytes, len(src))),
	)
	defer span.End()

	res, err := c.compile(ctx, src, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "compile failed")

		return nil, err
	}

	return res, nil
}

func (c *Compiler) compile(ctx context.Context, src string, opts Options) (*Result, error) {
	var toks []lexer.Token

	err := c.phase(ctx, PhaseLex, func() ([]slog.Attr, error) {
		var lexErr error

		toks, lexErr = Tokenize(src, false)

		return []slog.Attr{slog.Int("tokens", len(toks))}, lexErr
	})
	if err != nil {
		return nil, err
	}

	arena := ast.NewArena()

	var raw, chunk *ast.Node

	err = c.phase(ctx, PhaseParse, func() ([]slog.Attr, error) {
		var parseErr error

		chunk, parseErr = parser.ParseTokens(toks, parser.Options{Arena: arena})
		if parseErr != nil {
			return nil, parseErr
		}

		raw = arena.Clone(chunk)

		return []slog.Attr{slog.Int("nodes", countNodes(chunk))}, nil
	})
	if err != nil {
		return nil, err
	}

	tctx := traverse.NewContext(arena, chunk)

	var stats transform.Stats

	err = c.phase(ctx, PhaseTransform, func() ([]slog.Attr, error) {
		var lowerErr error

		stats, lowerErr = transform.Compile(tctx, transform.Options{Debug: opts.Debug})

		return []slog.Attr{
			slog.Int("rewrites", stats.Rewrites),
			slog.Any("helpers", stats.Helpers),
		}, lowerErr
	})
	if err != nil {
		return nil, err
	}

	lowered := tctx.Root().Node

	var out string

	err = c.phase(ctx, PhaseGenerate, func() ([]slog.Attr, error) {
		var genErr error

		out, genErr = generator.Generate(lowered, src, toks, generator.Options{Indent: opts.Indent})

		return []slog.Attr{slog.Int("bytes", len(out))}, genErr
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Output:  out,
		AST:     raw,
		Lowered: lowered,
		Tokens:  toks,
		Helpers: stats.Helpers,
	}, nil
}

// phase runs fn inside a span, logs its outcome and records its duration.
func (c *Compiler) phase(ctx context.Context, name string, fn func() ([]slog.Attr, error)) error {
	ctx, span := c.tracer.Start(ctx, "lunex."+name)
	defer span.End()

	start := time.Now()
	attrs, err := fn()
	elapsed := time.Since(start)

	c.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String(attrPhase, name)))

	for _, a := range attrs {
		switch a.Key {
		case "tokens":
			span.SetAttributes(attribute.Int64(attrTokens, a.Value.Int64()))
		case "nodes":
			span.SetAttributes(attribute.Int64(attrNodes, a.Value.Int64()))
		}
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, name+" failed")
		c.logger.DebugContext(ctx, "compile phase failed",
			slog.String("phase", name), slog.Duration("duration", elapsed), slog.Any("error", err))

		return err
	}

	args := make([]any, 0, len(attrs)+2)
	args = append(args, slog.String("phase", name), slog.Duration("duration", elapsed))

	for _, a := range attrs {
		args = append(args, a)
	}

	c.logger.DebugContext(ctx, "compile phase done", args...)

	return nil
}

func countNodes(root *ast.Node) int {
	n := 0

	root.Walk(func(*ast.Node) bool {
		n++

		return true
	})

	return n
}
