package watermark

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yyyoichi/watermark_desk/internal/watermark"
	"github.com/yyyoichi/watermark_desk/mark"
)

type Option func(*Watermark) error

// WithBlockShape divides the image into blocks of the specified size for processing.
// For example, for a 600x480 image with an 8x6 block shape, it creates 75 horizontal
// and 80 vertical blocks.
//
// Block shapes must be specified with even numbers, with a minimum size of 4x4.
// If odd numbers are provided, they are automatically rounded up to the next even number.
// If values smaller than 4 are provided, they are set to 4.
func WithBlockShape(width, height int) Option {
	return func(w *Watermark) error {
		w.blockShape = watermark.NewBlockShape(width, height)
		return nil
	}
}

// WithD1 quantises only the largest singular value of each block.
// Larger values increase noise but improve robustness.
func WithD1(d1 int) Option {
	return func(w *Watermark) error {
		if d1 < 1 {
			return fmt.Errorf("%w: d1 %d", ErrInvalidOption, d1)
		}
		w.d1, w.d2 = d1, 0
		return nil
	}
}

// WithD1D2 quantises the two largest singular values with steps d1 and d2.
func WithD1D2(d1, d2 int) Option {
	return func(w *Watermark) error {
		if d1 < 1 || d2 < 1 {
			return fmt.Errorf("%w: d1 %d d2 %d", ErrInvalidOption, d1, d2)
		}
		w.d1, w.d2 = d1, d2
		return nil
	}
}

// WithoutECC embeds text without the Golay code. Both sides must agree.
func WithoutECC() Option {
	return func(w *Watermark) error {
		w.markOpts = append(w.markOpts, mark.WithoutECC())
		return nil
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(w *Watermark) error {
		w.log = l
		return nil
	}
}
