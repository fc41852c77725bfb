// Package watermark embeds invisible marks into images and reads them back.
//
// A Watermark is bound to two passwords: the image password orders the
// frequency coefficients of every block, the watermark password shuffles
// the payload bits. Extraction with different passwords yields noise, not
// an error.
package watermark

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/rs/zerolog"
	"github.com/yyyoichi/watermark_desk/internal/dct"
	"github.com/yyyoichi/watermark_desk/internal/imageio"
	"github.com/yyyoichi/watermark_desk/internal/watermark"
	"github.com/yyyoichi/watermark_desk/mark"
)

var (
	ErrTooSmallImage = errors.New("image is too small for embedding or extracting")
	// ErrDecodeImage reports an unreadable or undecodable image file.
	ErrDecodeImage   = imageio.ErrDecode
	ErrNoImage       = errors.New("no cover image read")
	ErrNoWatermark   = errors.New("no watermark read")
	ErrEmptyMark     = errors.New("watermark is empty")
	ErrInvalidShape  = errors.New("invalid watermark shape")
	ErrInvalidOption = errors.New("invalid option")
)

type Watermark struct {
	passwordImg int
	passwordWm  int
	d1, d2      int
	blockShape  watermark.BlockShape
	markOpts    []mark.Option
	codec       *mark.Codec
	dctCache    *dct.Cache
	log         zerolog.Logger

	src  *watermark.Source
	bits []bool
}

// New initializes a watermark processor bound to the two passwords.
// Block shape defaults to 8x8 and d1, d2 to 36, 20.
func New(passwordImg, passwordWm int, opts ...Option) (*Watermark, error) {
	w := &Watermark{
		passwordImg: passwordImg,
		passwordWm:  passwordWm,
		dctCache:    new(dct.Cache),
		log:         zerolog.Nop(),
	}
	if err := w.init(opts...); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Watermark) init(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return err
		}
	}
	if w.d1 == 0 {
		w.d1 = 36
		w.d2 = 20
	}
	if w.blockShape.IsZero() {
		w.blockShape = watermark.NewBlockShape(8, 8)
	}
	w.codec = mark.New(int64(w.passwordWm), w.markOpts...)
	return nil
}

func (w *Watermark) params() watermark.Params {
	return watermark.Params{
		Shape: w.blockShape,
		D1:    w.d1,
		D2:    w.d2,
		Seed:  int64(w.passwordImg),
	}
}

// ReadImage decodes the cover image. Errors wrap ErrDecodeImage.
func (w *Watermark) ReadImage(path string) error {
	img, format, err := imageio.Decode(path)
	if err != nil {
		return err
	}
	w.SetImage(img)
	w.log.Debug().Str("path", path).Str("format", format).
		Int("capacity", w.Capacity()).Msg("cover image read")
	return nil
}

// SetImage uses an already decoded cover image.
func (w *Watermark) SetImage(img image.Image) {
	w.src = watermark.NewSource(img)
}

// Capacity returns how many bits the cover image can carry, 0 without one.
func (w *Watermark) Capacity() int {
	if w.src == nil {
		return 0
	}
	return w.blockShape.TotalBlocks(w.src)
}

// MarkLen returns the encoded length of the last read watermark.
func (w *Watermark) MarkLen() int {
	return len(w.bits)
}

// ReadWatermark prepares the bits to embed.
func (w *Watermark) ReadWatermark(p Payload) error {
	var bits []bool
	switch p.mode {
	case ModeText:
		if p.text == "" {
			return ErrEmptyMark
		}
		bits = w.codec.EncodeText(p.text)
	case ModeBits:
		if len(p.bits) == 0 {
			return ErrEmptyMark
		}
		bits = w.codec.EncodeBits(p.bits)
	case ModeImage:
		img, _, err := imageio.Decode(p.path)
		if err != nil {
			return err
		}
		bits = w.codec.EncodeImage(img)
		if len(bits) == 0 {
			return ErrEmptyMark
		}
	default:
		return fmt.Errorf("unknown payload mode %d", p.mode)
	}
	w.bits = bits
	return nil
}

// Embed marks the cover image and writes it to outputPath, as jpeg for
// .jpg/.jpeg and as 16-bit png otherwise. It returns the number of embedded
// bits, which Extract needs back as the shape of text and bits marks.
//
// Process:
//  1. Converts the image to YUV color channels.
//  2. Applies Haar wavelet transform to each channel.
//  3. Divides the low-frequency region (cA) of each channel into blocks.
//  4. Embeds one bit per block using Discrete Cosine Transform and SVD.
//  5. Applies inverse transforms and writes the image.
func (w *Watermark) Embed(ctx context.Context, outputPath string) (int, error) {
	img, err := w.EmbedImage(ctx)
	if err != nil {
		return 0, err
	}
	if err := imageio.Encode(outputPath, img); err != nil {
		return 0, err
	}
	w.log.Debug().Str("path", outputPath).Int("bits", len(w.bits)).Msg("watermark embedded")
	return len(w.bits), nil
}

// EmbedImage is Embed without writing a file.
func (w *Watermark) EmbedImage(ctx context.Context) (image.Image, error) {
	if w.src == nil {
		return nil, ErrNoImage
	}
	if len(w.bits) == 0 {
		return nil, ErrNoWatermark
	}
	if err := watermark.Enable(w.src, len(w.bits), w.blockShape); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTooSmallImage, err)
	}
	return watermark.Embed(ctx, w.src.Copy(), w.bits, w.params(), w.dctCache)
}

// Extract reads a mark of the given shape from the image at path. In image
// mode the recovered mark is written to outputPath as a gray png; other
// modes leave writing to the caller.
func (w *Watermark) Extract(ctx context.Context, path string, shape Shape, mode Mode, outputPath string) (Extracted, error) {
	img, _, err := imageio.Decode(path)
	if err != nil {
		return Extracted{}, err
	}
	res, gray, err := w.ExtractImage(ctx, img, shape, mode)
	if err != nil {
		return Extracted{}, err
	}
	if gray != nil {
		if err := imageio.Encode(outputPath, gray); err != nil {
			return Extracted{}, err
		}
	}
	return res, nil
}

// ExtractImage is Extract on a decoded image. The gray image is non-nil only
// in image mode.
func (w *Watermark) ExtractImage(ctx context.Context, img image.Image, shape Shape, mode Mode) (Extracted, *image.Gray, error) {
	if err := shape.Check(mode); err != nil {
		return Extracted{}, nil, err
	}
	markLen := shape.Bits(mode)
	src := watermark.NewSource(img)
	if err := watermark.Enable(src, markLen, w.blockShape); err != nil {
		return Extracted{}, nil, fmt.Errorf("%w: %w", ErrTooSmallImage, err)
	}
	conf, err := watermark.Extract(ctx, src, markLen, w.params(), w.dctCache)
	if err != nil {
		return Extracted{}, nil, err
	}

	var (
		res  Extracted
		gray *image.Gray
	)
	switch mode {
	case ModeText:
		res.Text = w.codec.DecodeText(conf)
	case ModeBits:
		res.Confidence = w.codec.DecodeBits(conf)
	case ModeImage:
		res.Confidence = w.codec.DecodeBits(conf)
		gray = w.codec.DecodeImage(conf, shape.W, shape.H)
	default:
		return Extracted{}, nil, fmt.Errorf("unknown mode %d", mode)
	}
	w.log.Debug().Stringer("mode", mode).Int("bits", markLen).Msg("watermark extracted")
	return res, gray, nil
}
