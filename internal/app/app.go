// Package app wires the config store, background compositor, navigator and
// operation pipeline behind a single event loop.
//
// Every state change runs as a closure on the loop goroutine. Embed and
// extract run on their own goroutines and post their results back.
package app

import (
	"context"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/yyyoichi/watermark_desk/internal/compositor"
	"github.com/yyyoichi/watermark_desk/internal/config"
	"github.com/yyyoichi/watermark_desk/internal/nav"
	"github.com/yyyoichi/watermark_desk/internal/pipeline"
)

// ErrClosed is returned by calls made after the loop stopped.
var ErrClosed = errors.New("app: event loop stopped")

type Shell struct {
	store *config.Store
	comp  *compositor.Compositor
	nav   *nav.Navigator
	pipe  *pipeline.Pipeline
	log   zerolog.Logger
	watch bool

	events  chan func()
	done    chan struct{}
	closeMu sync.Once
	ops     sync.WaitGroup

	// owned by the loop goroutine
	form     Form
	results  []func(pipeline.Op, pipeline.Result)
	frames   []func(compositor.Frame)
	lastOp   pipeline.Op
	lastRes  *pipeline.Result
	inFlight int
}

type options struct {
	log       zerolog.Logger
	compOpts  []compositor.Option
	navOpts   []nav.Option
	watch     bool
	queueSize int
}

type Option func(*options)

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

func WithCompositorOptions(opts ...compositor.Option) Option {
	return func(o *options) {
		o.compOpts = append(o.compOpts, opts...)
	}
}

func WithNavOptions(opts ...nav.Option) Option {
	return func(o *options) {
		o.navOpts = append(o.navOpts, opts...)
	}
}

// WithConfigWatch reloads the background when the config file is edited
// by another process.
func WithConfigWatch() Option {
	return func(o *options) {
		o.watch = true
	}
}

// New builds the shell. store should already be loaded.
func New(store *config.Store, pipe *pipeline.Pipeline, opts ...Option) *Shell {
	o := options{log: zerolog.Nop(), queueSize: 64}
	for _, opt := range opts {
		opt(&o)
	}
	s := &Shell{
		store:  store,
		pipe:   pipe,
		log:    o.log,
		watch:  o.watch,
		events: make(chan func(), o.queueSize),
		done:   make(chan struct{}),
		form:   DefaultForm(),
		nav:    nav.New(o.navOpts...),
	}
	compOpts := append([]compositor.Option{
		compositor.WithLogger(o.log),
		compositor.WithDispatch(func(f func()) { _ = s.Post(f) }),
	}, o.compOpts...)
	s.comp = compositor.New(store, compOpts...)
	s.comp.OnFrame(func(f compositor.Frame) {
		for _, fn := range s.frames {
			fn(f)
		}
	})
	return s
}

// Run restores the saved background and processes events until ctx is
// done. It waits for running operations before returning.
func (s *Shell) Run(ctx context.Context) error {
	defer s.ops.Wait()
	defer s.comp.Close()
	defer s.closeMu.Do(func() { close(s.done) })

	s.comp.Restore()
	if s.watch {
		go func() {
			err := s.store.Watch(ctx, func(cfg config.Config) {
				_ = s.Post(func() { s.applyConfig(cfg) })
			})
			if err != nil {
				s.log.Warn().Err(err).Msg("config watch stopped")
			}
		}()
	}
	s.log.Debug().Msg("event loop started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-s.events:
			fn()
		}
	}
}

// Post queues fn on the loop.
func (s *Shell) Post(fn func()) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.events <- fn:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

// Do runs fn on the loop and waits for it. Calling Do from the loop
// deadlocks.
func (s *Shell) Do(fn func()) error {
	ran := make(chan struct{})
	if err := s.Post(func() {
		defer close(ran)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-ran:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

// OnResult registers fn for every finished operation. It runs on the loop.
func (s *Shell) OnResult(fn func(pipeline.Op, pipeline.Result)) error {
	return s.Do(func() { s.results = append(s.results, fn) })
}

// OnFrame registers fn for every new background frame.
func (s *Shell) OnFrame(fn func(compositor.Frame)) error {
	return s.Do(func() { s.frames = append(s.frames, fn) })
}

// OnPage registers fn for every page change, including re-selecting the
// active page so the sidebar highlight can be refreshed.
func (s *Shell) OnPage(fn func(nav.Page)) error {
	return s.Do(func() { s.nav.Subscribe(fn) })
}

// Pages lists the sidebar entries.
func (s *Shell) Pages() []nav.Page {
	return s.nav.Pages()
}

func (s *Shell) Resize(size compositor.Size) error {
	return s.Post(func() { s.comp.OnResize(size) })
}

func (s *Shell) ShowPage(p nav.Page) error {
	if !s.nav.Has(p) {
		return errors.Errorf("app: no page %v", p)
	}
	return s.Post(func() { s.nav.Show(p) })
}

// SetBackground loads path as the background and reports load errors.
func (s *Shell) SetBackground(path string) error {
	var err error
	if derr := s.Do(func() { err = s.comp.LoadImage(path) }); derr != nil {
		return derr
	}
	return errors.Wrap(err, "app: set background")
}

func (s *Shell) ClearBackground() error {
	return s.Post(s.comp.ClearImage)
}

func (s *Shell) SetOpacity(v float64) error {
	return s.Post(func() { s.comp.SetOpacity(v) })
}

// Preview renders the settings thumbnail of the current background.
func (s *Shell) Preview() (compositor.Frame, bool) {
	img, ok := compositor.Preview(s.comp.Path(), compositor.PreviewSize)
	if !ok {
		return compositor.Frame{}, false
	}
	return compositor.Frame{Image: img, Size: compositor.PreviewSize, Opacity: s.comp.Frame().Opacity}, true
}

// UpdateForm edits the form on the loop.
func (s *Shell) UpdateForm(fn func(*Form)) error {
	return s.Do(func() { fn(&s.form) })
}

// State is a snapshot of the shell.
type State struct {
	Page     nav.Page
	Form     Form
	Frame    compositor.Frame
	InFlight int
	LastOp   pipeline.Op
	Last     *pipeline.Result
}

func (s *Shell) State() (State, error) {
	var st State
	err := s.Do(func() {
		st = State{
			Page:     s.nav.Active(),
			Form:     s.form,
			Frame:    s.comp.Frame(),
			InFlight: s.inFlight,
			LastOp:   s.lastOp,
			Last:     s.lastRes,
		}
	})
	return st, err
}

// Start runs op with the current form on a worker goroutine. The result is
// delivered through OnResult.
func (s *Shell) Start(ctx context.Context, op pipeline.Op) error {
	return s.Post(func() { s.start(ctx, op) })
}

func (s *Shell) start(ctx context.Context, op pipeline.Op) {
	req, err := s.form.Request()
	if err != nil {
		var verr *pipeline.ValidationError
		msg := err.Error()
		if errors.As(err, &verr) {
			msg = verr.Message
		}
		s.finish(op, pipeline.Result{Message: msg, Err: err})
		return
	}
	s.inFlight++
	s.ops.Add(1)
	go func() {
		defer s.ops.Done()
		res := s.pipe.Run(ctx, pipeline.Job{Op: op, Request: req})
		if err := s.Post(func() {
			s.inFlight--
			s.finish(op, res)
		}); err != nil {
			s.log.Debug().Stringer("op", op).Msg("result dropped after shutdown")
		}
	}()
}

func (s *Shell) finish(op pipeline.Op, res pipeline.Result) {
	s.lastOp, s.lastRes = op, &res
	// the extract page needs the embedded length back
	if op == pipeline.OpEmbed && res.OK && res.Payload != nil {
		s.form.Shape = strconv.Itoa(res.Payload.BitLength)
	}
	ev := s.log.Info()
	if !res.OK {
		ev = s.log.Warn().Err(res.Err)
	}
	ev.Stringer("op", op).Bool("ok", res.OK).Msg(res.Message)
	for _, fn := range s.results {
		fn(op, res)
	}
}

func (s *Shell) applyConfig(cfg config.Config) {
	if cfg.BackgroundImage != s.comp.Path() {
		if cfg.BackgroundImage == "" {
			s.comp.ClearImage()
		} else if err := s.comp.LoadImage(cfg.BackgroundImage); err != nil {
			s.log.Warn().Err(err).Msg("background from config not loaded")
		}
	}
	if cfg.BackgroundOpacity != s.comp.Frame().Opacity {
		s.comp.SetOpacity(cfg.BackgroundOpacity)
	}
}
