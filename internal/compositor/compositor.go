// Package compositor renders the window background: a user chosen image
// scaled to cover the window and cropped around its center.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yyyoichi/watermark_desk/internal/config"
	"github.com/yyyoichi/watermark_desk/internal/debounce"
	"github.com/yyyoichi/watermark_desk/internal/imageio"
)

const (
	// ResizeDelay is the quiet period after the last resize event.
	ResizeDelay = 150 * time.Millisecond
)

// PreviewSize is the settings thumbnail size.
var PreviewSize = Size{W: 400, H: 220}

// ErrDecodeImage is wrapped by every ImageError.
var ErrDecodeImage = imageio.ErrDecode

// ImageError reports a background image that could not be loaded.
type ImageError struct {
	Path string
	Err  error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("background image %s: %v", e.Path, e.Err)
}

func (e *ImageError) Unwrap() error { return e.Err }

// Settings persists the background choice. *config.Store implements it.
type Settings interface {
	Get() config.Config
	Update(func(*config.Config)) config.Config
}

// Frame is what the host draws. Image is nil when there is no background.
type Frame struct {
	Image   *image.NRGBA
	Size    Size
	Opacity float64
}

type Compositor struct {
	settings Settings
	log      zerolog.Logger
	dispatch func(func())
	delay    time.Duration
	after    debounce.AfterFunc
	debounce *debounce.Debouncer

	mu        sync.Mutex
	source    image.Image
	path      string
	size      Size
	frame     *image.NRGBA
	frameSize Size
	opacity   float64
	listeners []func(Frame)
}

type Option func(*Compositor)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Compositor) {
		c.log = l
	}
}

// WithDispatch runs debounced recomposites through post, e.g. to move them
// onto the shell's event loop. By default they run on the timer goroutine.
func WithDispatch(post func(func())) Option {
	return func(c *Compositor) {
		c.dispatch = post
	}
}

func WithDelay(d time.Duration) Option {
	return func(c *Compositor) {
		c.delay = d
	}
}

// WithAfterFunc replaces the resize timer, mainly for tests.
func WithAfterFunc(f debounce.AfterFunc) Option {
	return func(c *Compositor) {
		c.after = f
	}
}

func New(settings Settings, opts ...Option) *Compositor {
	c := &Compositor{
		settings: settings,
		log:      zerolog.Nop(),
		dispatch: func(f func()) { f() },
		delay:    ResizeDelay,
		opacity:  settings.Get().BackgroundOpacity,
	}
	for _, opt := range opts {
		opt(c)
	}
	var dopts []debounce.Option
	if c.after != nil {
		dopts = append(dopts, debounce.WithAfterFunc(c.after))
	}
	c.debounce = debounce.New(c.delay, func() { c.dispatch(c.Recomposite) }, dopts...)
	return c
}

// OnFrame registers fn to be called after every recomposite, clear and
// opacity change.
func (c *Compositor) OnFrame(fn func(Frame)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Restore loads the persisted background, if any. A file that fails to load
// is logged and the setting cleared.
func (c *Compositor) Restore() {
	cfg := c.settings.Get()
	c.mu.Lock()
	c.opacity = config.ClampOpacity(cfg.BackgroundOpacity)
	c.mu.Unlock()
	if cfg.BackgroundImage == "" {
		return
	}
	if err := c.LoadImage(cfg.BackgroundImage); err != nil {
		c.log.Warn().Err(err).Msg("saved background not restored")
		c.ClearImage()
	}
}

// LoadImage replaces the background with the image at path. On failure the
// current background is kept and an *ImageError is returned.
func (c *Compositor) LoadImage(path string) error {
	img, _, err := imageio.Decode(path)
	if err == nil && img.Bounds().Empty() {
		err = fmt.Errorf("%w: empty image", ErrDecodeImage)
	}
	if err != nil {
		return &ImageError{Path: path, Err: err}
	}
	c.mu.Lock()
	c.source = img
	c.path = path
	c.frame = nil
	c.frameSize = Size{}
	c.mu.Unlock()

	c.settings.Update(func(cfg *config.Config) { cfg.BackgroundImage = path })
	c.log.Debug().Str("path", path).Msg("background loaded")
	c.Recomposite()
	return nil
}

// ClearImage removes the background. Calling it again has no further
// effect.
func (c *Compositor) ClearImage() {
	c.debounce.Stop()
	c.mu.Lock()
	c.source = nil
	c.path = ""
	c.frame = nil
	c.frameSize = Size{}
	c.mu.Unlock()

	c.settings.Update(func(cfg *config.Config) { cfg.BackgroundImage = "" })
	c.notify()
}

// OnResize records the window size and schedules a recomposite once resize
// events stop for the debounce delay. A repeated size is ignored.
func (c *Compositor) OnResize(size Size) {
	c.mu.Lock()
	if size == c.size {
		c.mu.Unlock()
		return
	}
	c.size = size
	c.mu.Unlock()
	c.debounce.Trigger()
}

// Recomposite renders the frame for the current size. It does nothing
// without a background or with an empty size.
func (c *Compositor) Recomposite() {
	c.mu.Lock()
	src, size := c.source, c.size
	c.mu.Unlock()
	if src == nil || size.Empty() {
		return
	}

	frame := CoverFit(src, size)

	c.mu.Lock()
	if c.source != src || c.size != size {
		// superseded while rendering; a newer run is scheduled or the
		// background is gone.
		c.mu.Unlock()
		return
	}
	c.frame, c.frameSize = frame, size
	c.mu.Unlock()
	c.log.Debug().Int("w", size.W).Int("h", size.H).Msg("background recomposited")
	c.notify()
}

// SetOpacity stores v clamped to [0.1, 1] and returns the stored value.
func (c *Compositor) SetOpacity(v float64) float64 {
	v = config.ClampOpacity(v)
	c.mu.Lock()
	c.opacity = v
	loaded := c.source != nil
	c.mu.Unlock()

	c.settings.Update(func(cfg *config.Config) { cfg.BackgroundOpacity = v })
	if loaded {
		c.notify()
	}
	return v
}

// Frame returns the last rendered frame.
func (c *Compositor) Frame() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Frame{Image: c.frame, Size: c.frameSize, Opacity: c.opacity}
}

// Path returns the loaded background path, "" without one.
func (c *Compositor) Path() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

// Pending reports whether a debounced recomposite is scheduled.
func (c *Compositor) Pending() bool {
	return c.debounce.Pending()
}

// Flush runs a pending recomposite through the dispatcher now instead of
// waiting for the debounce delay. It reports whether one was pending.
func (c *Compositor) Flush() bool {
	return c.debounce.Flush()
}

// Close cancels a pending recomposite.
func (c *Compositor) Close() {
	c.debounce.Stop()
}

func (c *Compositor) notify() {
	c.mu.Lock()
	f := Frame{Image: c.frame, Size: c.frameSize, Opacity: c.opacity}
	listeners := append([]func(Frame){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(f)
	}
}

// Preview renders a cover-fit thumbnail of the image at path. Any failure
// yields (nil, false).
func Preview(path string, size Size) (*image.NRGBA, bool) {
	if path == "" || size.Empty() {
		return nil, false
	}
	img, _, err := imageio.Decode(path)
	if err != nil || img.Bounds().Empty() {
		return nil, false
	}
	return thumbnail(img, size), true
}

// IsImageError reports whether err came from a background that could not
// be decoded.
func IsImageError(err error) bool {
	var ie *ImageError
	return errors.As(err, &ie)
}
