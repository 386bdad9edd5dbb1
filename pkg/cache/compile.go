package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/diag"
)

// DefaultCompileEntries is the entry bound used when none is configured.
const DefaultCompileEntries = 256

// Key identifies a compile by the hash of its source and options.
type Key [sha256.Size]byte

// KeyOf hashes src together with the options that change the output.
func KeyOf(src string, opts lunex.Options) Key {
	h := sha256.New()

	var flags [8]byte
	if opts.Debug {
		flags[0] = 1
	}

	binary.BigEndian.PutUint32(flags[4:], uint32(len(opts.Indent)))
	h.Write(flags[:])
	h.Write([]byte(opts.Indent))
	h.Write([]byte(src))

	var k Key

	copy(k[:], h.Sum(nil))

	return k
}

// outcome is a memoized compile. Source errors are memoized too, so an
// editor retyping the same broken text does not recompile it.
type outcome struct {
	res *lunex.Result
	err error
}

// Compiles memoizes compile outcomes. Results are shared between callers
// and must not be mutated.
type Compiles struct {
	compiler *lunex.Compiler
	lru      *LRU[Key, outcome]
}

// NewCompiles wraps compiler with a cache of at most entries outcomes and
// maxBytes bytes of output. A zero bound is ignored; both zero falls back
// to DefaultCompileEntries.
func NewCompiles(compiler *lunex.Compiler, entries int, maxBytes int64) *Compiles {
	if entries <= 0 && maxBytes <= 0 {
		entries = DefaultCompileEntries
	}

	opts := []Option[Key, outcome]{}
	if entries > 0 {
		opts = append(opts, WithMaxEntries[Key, outcome](entries))
	}

	if maxBytes > 0 {
		opts = append(opts, WithMaxBytes[Key, outcome](maxBytes, outcomeSize))
	}

	return &Compiles{compiler: compiler, lru: NewLRU(opts...)}
}

// Compile returns the memoized outcome for src or compiles it.
func (c *Compiles) Compile(ctx context.Context, src string, opts lunex.Options) (*lunex.Result, error) {
	key := KeyOf(src, opts)

	if out, ok := c.lru.Get(key); ok {
		return out.res, out.err
	}

	res, err := c.compiler.Compile(ctx, src, opts)
	if _, ok := diag.As(err); err != nil && !ok {
		return nil, err
	}

	c.lru.Put(key, outcome{res: res, err: err})

	return res, err
}

// Stats returns the cache counters.
func (c *Compiles) Stats() Stats { return c.lru.Stats() }

// CacheHits returns the number of memoized compiles served.
func (c *Compiles) CacheHits() int64 { return c.lru.CacheHits() }

// CacheMisses returns the number of compiles run.
func (c *Compiles) CacheMisses() int64 { return c.lru.CacheMisses() }

func outcomeSize(o outcome) int64 {
	if o.res == nil {
		return 1
	}

	return int64(len(o.res.Output)) + 1
}
