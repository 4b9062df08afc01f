package scene

import (
	"sync"
	"sync/atomic"

	"github.com/zeusync/vectorlab/internal/core/primitive"
)

const defaultCacheSize = 64

// Renderer memoises Render. Frames are cached by state digest and grid planes
// by axis, since grids never depend on the vectors. Output is identical to
// calling Render directly. Safe for concurrent use.
type Renderer struct {
	opts Options

	mu     sync.Mutex
	frames map[uint64]Frame
	grids  map[primitive.Axis][]primitive.Primitive
	limit  int

	hits   atomic.Uint64
	misses atomic.Uint64
}

// RendererStats reports cache effectiveness.
type RendererStats struct {
	Hits   uint64
	Misses uint64
	Cached int
}

// NewRenderer validates opts and returns a renderer using them.
func NewRenderer(opts Options) (*Renderer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Renderer{
		opts:   opts,
		frames: make(map[uint64]Frame),
		grids:  make(map[primitive.Axis][]primitive.Primitive),
		limit:  defaultCacheSize,
	}, nil
}

// Options returns the options the renderer was built with.
func (r *Renderer) Options() Options {
	return r.opts
}

// Render returns the frame for state, reusing a cached one when the state is
// unchanged.
func (r *Renderer) Render(state State) (Frame, error) {
	digest := state.Digest()

	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.frames[digest]; ok && f.State == state {
		r.hits.Add(1)
		return f, nil
	}
	r.misses.Add(1)

	frame, err := render(state, r.opts, r.gridLocked)
	if err != nil {
		return Frame{}, err
	}

	if len(r.frames) >= r.limit {
		clear(r.frames)
	}
	r.frames[digest] = frame
	return frame, nil
}

// Stats returns a snapshot of cache counters.
func (r *Renderer) Stats() RendererStats {
	r.mu.Lock()
	cached := len(r.frames)
	r.mu.Unlock()
	return RendererStats{Hits: r.hits.Load(), Misses: r.misses.Load(), Cached: cached}
}

func (r *Renderer) gridLocked(spec primitive.GridSpec) ([]primitive.Primitive, error) {
	if lines, ok := r.grids[spec.Axis]; ok {
		return lines, nil
	}
	lines, err := buildGrid(spec)
	if err != nil {
		return nil, err
	}
	r.grids[spec.Axis] = lines
	return lines, nil
}
