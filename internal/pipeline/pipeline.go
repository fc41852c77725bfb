// Package pipeline validates embed and extract requests, runs them against
// a watermark collaborator and turns every outcome into a Result.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	watermark "github.com/yyyoichi/watermark_desk"
	"github.com/yyyoichi/watermark_desk/internal/bitconv"
)

// BitThreshold binarises extracted bit confidences: >= is 1.
const BitThreshold = 0.5

// Collaborator is the watermark engine as seen by the pipeline.
type Collaborator interface {
	ReadImage(path string) error
	ReadWatermark(p watermark.Payload) error
	Embed(ctx context.Context, outputPath string) (int, error)
	Extract(ctx context.Context, path string, shape watermark.Shape, mode watermark.Mode, outputPath string) (watermark.Extracted, error)
}

// Factory builds a collaborator bound to the two passwords.
type Factory func(passwordImg, passwordWm int) (Collaborator, error)

// EngineFactory builds the package watermark engine with opts.
func EngineFactory(opts ...watermark.Option) Factory {
	return func(passwordImg, passwordWm int) (Collaborator, error) {
		return watermark.New(passwordImg, passwordWm, opts...)
	}
}

type Pipeline struct {
	factory Factory
	log     zerolog.Logger
}

type Option func(*Pipeline)

func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.log = l
	}
}

// New returns a Pipeline. A nil factory uses EngineFactory().
func New(factory Factory, opts ...Option) *Pipeline {
	if factory == nil {
		factory = EngineFactory()
	}
	p := &Pipeline{factory: factory, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Embed validates req, embeds its watermark into req.ImagePath and writes
// the result to req.OutputPath. Text and bits results carry the bit length.
func (p *Pipeline) Embed(ctx context.Context, req Request) Result {
	bits, verr := validateEmbed(req)
	if verr != nil {
		return fail(verr, verr.Message)
	}

	var payload watermark.Payload
	switch req.Mode {
	case watermark.ModeText:
		payload = watermark.TextPayload(req.Content)
	case watermark.ModeBits:
		payload = watermark.BitsPayload(bits)
	case watermark.ModeImage:
		payload = watermark.ImagePayload(req.WatermarkImagePath)
	}

	n, err := p.embed(ctx, req, payload)
	if err != nil {
		p.log.Debug().Err(err).Str("image", req.ImagePath).Msg("embed failed")
		return fail(collaboratorError(err), "embed failed: "+err.Error())
	}
	p.log.Info().Str("output", req.OutputPath).Stringer("mode", req.Mode).Int("bits", n).Msg("watermark embedded")

	res := Result{OK: true, Message: "watermark embedded"}
	if req.Mode != watermark.ModeImage {
		res.Payload = &Payload{BitLength: n}
		res.Message = fmt.Sprintf("watermark embedded, bit length %d", n)
	}
	return res
}

func (p *Pipeline) embed(ctx context.Context, req Request, payload watermark.Payload) (int, error) {
	c, err := p.factory(req.PasswordImg, req.PasswordWm)
	if err != nil {
		return 0, errors.Wrap(err, "create watermark")
	}
	if err := c.ReadImage(req.ImagePath); err != nil {
		return 0, errors.Wrap(err, "read image")
	}
	if err := c.ReadWatermark(payload); err != nil {
		return 0, errors.Wrap(err, "read watermark")
	}
	n, err := c.Embed(ctx, req.OutputPath)
	if err != nil {
		return 0, errors.Wrap(err, "embed")
	}
	return n, nil
}

// Extract validates req and recovers the watermark from req.ImagePath.
// Image marks are written by the collaborator; text and bits are written
// to req.OutputPath here and returned as the payload.
func (p *Pipeline) Extract(ctx context.Context, req Request) Result {
	shape, verr := validateExtract(req)
	if verr != nil {
		return fail(verr, verr.Message)
	}

	ext, err := p.extract(ctx, req, shape)
	if err != nil {
		p.log.Debug().Err(err).Str("image", req.ImagePath).Msg("extract failed")
		return fail(collaboratorError(err), "extract failed: "+err.Error())
	}

	var content string
	switch req.Mode {
	case watermark.ModeImage:
		p.log.Info().Str("output", req.OutputPath).Msg("image watermark extracted")
		return Result{OK: true, Message: "image watermark extracted, saved to " + req.OutputPath}
	case watermark.ModeText:
		content = ext.Text
	case watermark.ModeBits:
		content = bitconv.FormatThreshold(ext.Confidence, BitThreshold)
	}

	if err := os.WriteFile(req.OutputPath, []byte(content), 0o644); err != nil {
		err = errors.Wrap(err, "write result")
		return fail(err, "extract failed: "+err.Error())
	}
	p.log.Info().Str("output", req.OutputPath).Stringer("mode", req.Mode).Msg("watermark extracted")
	return Result{
		OK:      true,
		Message: fmt.Sprintf("%s watermark extracted, saved to %s", req.Mode, req.OutputPath),
		Payload: &Payload{Content: content},
	}
}

func (p *Pipeline) extract(ctx context.Context, req Request, shape watermark.Shape) (watermark.Extracted, error) {
	c, err := p.factory(req.PasswordImg, req.PasswordWm)
	if err != nil {
		return watermark.Extracted{}, errors.Wrap(err, "create watermark")
	}
	ext, err := c.Extract(ctx, req.ImagePath, shape, req.Mode, req.OutputPath)
	if err != nil {
		return watermark.Extracted{}, errors.Wrap(err, "extract")
	}
	return ext, nil
}

// collaboratorError marks err as raised by the engine; errors.Is still
// reaches the engine's own sentinels.
func collaboratorError(err error) error {
	return fmt.Errorf("%w: %w", ErrCollaborator, err)
}

func validateEmbed(req Request) ([]bool, *ValidationError) {
	if strings.TrimSpace(req.ImagePath) == "" {
		return nil, invalid(FieldImagePath, "select the source image", ErrMissingField)
	}
	var bits []bool
	switch req.Mode {
	case watermark.ModeText:
		if req.Content == "" {
			return nil, invalid(FieldContent, "enter the watermark text", ErrMissingField)
		}
	case watermark.ModeImage:
		if strings.TrimSpace(req.WatermarkImagePath) == "" {
			return nil, invalid(FieldWatermarkImagePath, "select the watermark image", ErrMissingField)
		}
	case watermark.ModeBits:
		if strings.TrimSpace(req.Content) == "" {
			return nil, invalid(FieldContent, "enter the watermark bits", ErrMissingField)
		}
		var err error
		bits, err = bitconv.ParseList(req.Content)
		if err != nil {
			return nil, invalid(FieldContent, "bit list is malformed (comma-separated 0/1)",
				fmt.Errorf("%w: %w", ErrMalformedBits, err))
		}
	default:
		return nil, invalid("mode", "unknown watermark mode", fmt.Errorf("%w: mode %d", ErrMissingField, req.Mode))
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return nil, invalid(FieldOutputPath, "select the output image path", ErrMissingField)
	}
	return bits, nil
}

func validateExtract(req Request) (watermark.Shape, *ValidationError) {
	if strings.TrimSpace(req.ImagePath) == "" {
		return watermark.Shape{}, invalid(FieldImagePath, "select the watermarked image", ErrMissingField)
	}
	switch req.Mode {
	case watermark.ModeText, watermark.ModeImage, watermark.ModeBits:
	default:
		return watermark.Shape{}, invalid("mode", "unknown watermark mode", fmt.Errorf("%w: mode %d", ErrMissingField, req.Mode))
	}
	if strings.TrimSpace(req.Shape) == "" {
		return watermark.Shape{}, invalid(FieldShape, "enter the watermark shape or length", ErrMissingField)
	}
	shape, err := watermark.ParseShape(req.Shape, req.Mode)
	if err != nil {
		msg := "text/bits watermark length must be a positive integer"
		if req.Mode == watermark.ModeImage {
			msg = "image watermark shape must be width,height"
		}
		return watermark.Shape{}, invalid(FieldShape, msg, fmt.Errorf("%w: %w", ErrMalformedShape, err))
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return watermark.Shape{}, invalid(FieldOutputPath, "select the output path", ErrMissingField)
	}
	return shape, nil
}
