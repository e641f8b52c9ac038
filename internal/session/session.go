package session

import (
	"context"
	"errors"
	"image"
	"io"
	"log"
	"sync"
	"time"

	"github.com/ironsheep/cartoonize-mcp/internal/cartoon"
	"github.com/ironsheep/cartoonize-mcp/internal/imaging"
)

var (
	// ErrNoSource is returned when a render is requested before any source
	// image has been selected.
	ErrNoSource = errors.New("session: no source image selected")

	// ErrNoResult is returned by Save when nothing has rendered successfully.
	ErrNoResult = errors.New("session: no rendered result")

	// ErrSuperseded is returned by a render that finished after a newer
	// request was made. Its output is discarded.
	ErrSuperseded = errors.New("session: render superseded by a newer request")
)

// Request asks for a render.
type Request struct {
	// Source is the image path. Empty means the currently selected source.
	Source string

	// Params overrides the current parameters. Nil fields keep the current
	// value; supplied fields are validated or clamped like any other.
	Params Overrides

	// Seed fixes the clustering seed for this request only.
	Seed *int64
}

// Overrides holds explicitly supplied parameter values.
type Overrides struct {
	EdgeIntensity *int
	ColorLevels   *int
	BlurLevel     *int
}

// Render is a successful render. It is never modified after creation.
type Render struct {
	Source     string
	Info       *imaging.ImageInfo
	Result     *cartoon.Result
	Generation uint64
	Elapsed    time.Duration
	Finished   time.Time
}

// StencilResult is an edge stencil computed outside the render sequence.
type StencilResult struct {
	Source  string
	Info    *imaging.ImageInfo
	Params  cartoon.Params
	Stencil *image.Gray
}

type loadFunc func(path string) (image.Image, *imaging.ImageInfo, error)

// Session owns the selected source image, the current parameters and the
// last good render.
//
// The most recent request always wins. Starting a render cancels any render
// still in flight, and a render that completes after a newer request was made
// is discarded. A failed render leaves the previous result in place.
type Session struct {
	mu         sync.Mutex
	source     string
	params     cartoon.Params
	current    *Render
	generation uint64
	cancel     context.CancelFunc

	cartoonOpts []cartoon.Option
	clamp       bool
	logger      *log.Logger
	load        loadFunc
}

// Option configures a Session.
type Option func(*Session)

// WithCartoonOptions passes options to every render, e.g. a fixed seed or an
// edge mode.
func WithCartoonOptions(opts ...cartoon.Option) Option {
	return func(s *Session) {
		s.cartoonOpts = append(s.cartoonOpts, opts...)
	}
}

// WithClamp makes out-of-range parameters clamp into range instead of being
// rejected.
func WithClamp(clamp bool) Option {
	return func(s *Session) {
		s.clamp = clamp
	}
}

// WithLogger sets the destination for debug logging. Nil discards it.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// New creates a Session with default parameters and no source.
func New(opts ...Option) *Session {
	s := &Session{
		params: cartoon.DefaultParams(),
		load:   imaging.Load,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}
	return s
}

// Render loads the source fresh from disk and cartoonizes it.
//
// The request's source and parameters become the session's current selection
// as soon as they pass validation, even if the render later fails. An invalid
// request changes nothing.
//
// Returns:
//   - *Render: the new current result.
//   - error: ErrNoSource, *cartoon.InvalidParameterError, *imaging.DecodeError,
//     ErrSuperseded if a newer request was made while this one ran, or the
//     context's error if ctx was cancelled.
func (s *Session) Render(ctx context.Context, req Request) (*Render, error) {
	s.mu.Lock()
	source := req.Source
	if source == "" {
		source = s.source
	}
	if source == "" {
		s.mu.Unlock()
		return nil, ErrNoSource
	}

	params := merge(s.params, req.Params)
	if s.clamp {
		params = params.Clamp()
	} else if err := params.Validate(); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	if s.cancel != nil {
		s.cancel()
	}
	renderCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.generation++
	gen := s.generation
	s.cancel = cancel
	s.source = source
	s.params = params

	opts := append([]cartoon.Option(nil), s.cartoonOpts...)
	if req.Seed != nil {
		opts = append(opts, cartoon.WithSeed(*req.Seed))
	}
	s.mu.Unlock()

	s.logger.Printf("[DEBUG] render %d started: %s %s", gen, source, params)
	start := time.Now()

	img, info, err := s.load(source)
	var res *cartoon.Result
	if err == nil {
		res, err = cartoon.CartoonizeContext(renderCtx, img, params, opts...)
	}
	elapsed := time.Since(start)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.logger.Printf("[DEBUG] render %d superseded by %d after %v", gen, s.generation, elapsed)
		return nil, ErrSuperseded
	}
	if err != nil {
		s.logger.Printf("[DEBUG] render %d failed after %v: %v", gen, elapsed, err)
		return nil, err
	}

	r := &Render{
		Source:     source,
		Info:       info,
		Result:     res,
		Generation: gen,
		Elapsed:    elapsed,
		Finished:   time.Now(),
	}
	s.current = r
	s.logger.Printf("[DEBUG] render %d finished in %v", gen, elapsed)
	return r, nil
}

// Stencil computes the edge stencil for the current source, optionally with
// overrides. It neither changes the session nor cancels renders.
func (s *Session) Stencil(req Request) (*StencilResult, error) {
	s.mu.Lock()
	source := req.Source
	if source == "" {
		source = s.source
	}
	params := merge(s.params, req.Params)
	clamp := s.clamp
	opts := append([]cartoon.Option(nil), s.cartoonOpts...)
	s.mu.Unlock()

	if source == "" {
		return nil, ErrNoSource
	}
	if clamp {
		params = params.Clamp()
	} else if err := params.Validate(); err != nil {
		return nil, err
	}

	img, info, err := s.load(source)
	if err != nil {
		return nil, err
	}
	stencil, err := cartoon.EdgeStencil(img, params, opts...)
	if err != nil {
		return nil, err
	}
	return &StencilResult{Source: source, Info: info, Params: params, Stencil: stencil}, nil
}

// Save writes the current result to path.
func (s *Session) Save(path string, opts imaging.SaveOptions) (*imaging.SaveResult, error) {
	cur := s.Current()
	if cur == nil {
		return nil, ErrNoResult
	}
	return imaging.Save(cur.Result.Image, path, opts)
}

// Cancel aborts any render in flight. The current result is kept.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Current returns the last successful render, or nil.
func (s *Session) Current() *Render {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Source returns the selected source path.
func (s *Session) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Params returns the current parameters.
func (s *Session) Params() cartoon.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Generation returns the number of accepted render requests.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// merge applies the supplied fields of override to base.
func merge(base cartoon.Params, override Overrides) cartoon.Params {
	if override.EdgeIntensity != nil {
		base.EdgeIntensity = *override.EdgeIntensity
	}
	if override.ColorLevels != nil {
		base.ColorLevels = *override.ColorLevels
	}
	if override.BlurLevel != nil {
		base.BlurLevel = *override.BlurLevel
	}
	return base
}
