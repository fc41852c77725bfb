package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	watermark "github.com/yyyoichi/watermark_desk"
	"github.com/yyyoichi/watermark_desk/internal/pipeline"
)

// engineFlags are the tuning flags shared by every command that runs the
// engine.
type engineFlags struct {
	block string
	d1    int
	d2    int
	noECC bool
}

func (e *engineFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&e.block, "block", "8x8", "block shape WxH")
	fs.IntVar(&e.d1, "d1", 36, "quantisation step of the first singular value")
	fs.IntVar(&e.d2, "d2", 20, "quantisation step of the second singular value, 0 to skip it")
	fs.BoolVar(&e.noECC, "noecc", false, "embed text without error correction")
}

func (e *engineFlags) options() ([]watermark.Option, error) {
	w, h, err := parseSize(e.block)
	if err != nil {
		return nil, errors.Wrap(err, "-block")
	}
	opts := []watermark.Option{
		watermark.WithBlockShape(w, h),
		watermark.WithLogger(log.Logger),
	}
	if e.d2 == 0 {
		opts = append(opts, watermark.WithD1(e.d1))
	} else {
		opts = append(opts, watermark.WithD1D2(e.d1, e.d2))
	}
	if e.noECC {
		opts = append(opts, watermark.WithoutECC())
	}
	return opts, nil
}

func (e *engineFlags) pipeline() (*pipeline.Pipeline, error) {
	opts, err := e.options()
	if err != nil {
		return nil, err
	}
	return pipeline.New(pipeline.EngineFactory(opts...), pipeline.WithLogger(log.Logger)), nil
}

// parseSize reads "WxH" or "W,H".
func parseSize(s string) (int, int, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == 'x' || r == ',' })
	if len(parts) != 2 {
		return 0, 0, errors.Errorf("size %q is not WxH", s)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, errors.Wrapf(err, "size %q", s)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, errors.Wrapf(err, "size %q", s)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, errors.Errorf("size %q must be positive", s)
	}
	return w, h, nil
}

type requestFlags struct {
	mode        string
	image       string
	out         string
	passwordImg int
	passwordWm  int
}

func (r *requestFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&r.mode, "mode", "text", "watermark kind: text, bits or image")
	fs.StringVar(&r.image, "image", "", "input image")
	fs.StringVar(&r.out, "out", "", "output path")
	fs.IntVar(&r.passwordImg, "pwimg", 1, "image password")
	fs.IntVar(&r.passwordWm, "pwwm", 1, "watermark password")
}

func (r *requestFlags) request() (pipeline.Request, error) {
	mode, err := watermark.ParseMode(r.mode)
	if err != nil {
		return pipeline.Request{}, errors.Wrap(err, "-mode")
	}
	return pipeline.Request{
		Mode:        mode,
		ImagePath:   r.image,
		OutputPath:  r.out,
		PasswordImg: r.passwordImg,
		PasswordWm:  r.passwordWm,
	}, nil
}

func report(res pipeline.Result) error {
	if !res.OK {
		if res.Err != nil {
			return errors.Wrap(res.Err, res.Message)
		}
		return errors.New(res.Message)
	}
	fmt.Println(res.Message)
	return nil
}

func runEmbed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("embed", flag.ExitOnError)
	var (
		ef engineFlags
		rf requestFlags
	)
	ef.register(fs)
	rf.register(fs)
	content := fs.String("content", "", "text, or comma-separated 0/1 bits")
	wmImage := fs.String("wm", "", "watermark image (image mode)")
	_ = fs.Parse(args)

	req, err := rf.request()
	if err != nil {
		return err
	}
	req.Content = *content
	req.WatermarkImagePath = *wmImage
	p, err := ef.pipeline()
	if err != nil {
		return err
	}
	return report(p.Embed(ctx, req))
}

func runExtract(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	var (
		ef engineFlags
		rf requestFlags
	)
	ef.register(fs)
	rf.register(fs)
	shape := fs.String("shape", "", "bit length (text, bits) or width,height (image)")
	show := fs.Bool("print", false, "also print the recovered text or bits")
	_ = fs.Parse(args)

	req, err := rf.request()
	if err != nil {
		return err
	}
	req.Shape = *shape
	p, err := ef.pipeline()
	if err != nil {
		return err
	}
	res := p.Extract(ctx, req)
	if err := report(res); err != nil {
		return err
	}
	if *show && res.Payload != nil {
		fmt.Fprintln(os.Stdout, res.Payload.Content)
	}
	return nil
}
