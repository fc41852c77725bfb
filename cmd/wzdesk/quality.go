package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	"image/jpeg"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	watermark "github.com/yyyoichi/watermark_desk"
	"github.com/yyyoichi/watermark_desk/internal/compositor"
	"github.com/yyyoichi/watermark_desk/internal/imageio"
	"github.com/yyyoichi/watermark_desk/internal/pipeline"
)

var (
	qualitySizes = []compositor.Size{
		{W: 1920, H: 1080}, // FHD
		{W: 1280, H: 720},  // HD
		{W: 854, H: 480},   // 480p
		{W: 640, H: 360},   // 360p
		{W: 426, H: 240},   // 240p
	}
	qualityBlocks = [][2]int{{4, 4}, {4, 6}, {6, 6}, {6, 8}, {8, 8}}
	qualitySteps  = [][2]int{{36, 20}, {30, 17}, {25, 14}, {20, 11}}
	qualityMark   = []bool{
		true, false, true, true, false, false, true, false,
		false, true, false, true, true, false, true, true,
		true, true, false, false, true, false, false, true,
		false, false, true, true, false, true, true, false,
	}
)

type qualityCase struct {
	image  string
	src    image.Image
	size   compositor.Size
	block  [2]int
	d1, d2 int
}

type qualityResult struct {
	qualityCase
	blocks   int
	accuracy float64
	elapsed  time.Duration
	err      error
}

// runQuality embeds a fixed bit pattern with every block shape and strength
// pair, re-encodes the result as jpeg and reports how many bits survive.
func runQuality(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("quality", flag.ExitOnError)
	quality := fs.Int("q", 100, "jpeg quality of the attack")
	workers := fs.Int("workers", runtime.GOMAXPROCS(0), "parallel cases")
	_ = fs.Parse(args)
	if fs.NArg() == 0 {
		return errors.New("quality: give one or more images")
	}
	*workers = max(1, *workers)

	var cases []qualityCase
	for _, path := range fs.Args() {
		img, _, err := imageio.Decode(path)
		if err != nil {
			return err
		}
		for _, size := range qualitySizes {
			scaled := compositor.CoverFit(img, size)
			for _, bs := range qualityBlocks {
				for _, d := range qualitySteps {
					cases = append(cases, qualityCase{
						image: path, src: scaled, size: size, block: bs, d1: d[0], d2: d[1],
					})
				}
			}
		}
	}
	log.Info().Int("cases", len(cases)).Int("workers", *workers).Msg("quality sweep started")

	jobs := make(chan qualityCase, *workers)
	results := make(chan qualityResult, *workers)
	var wg sync.WaitGroup
	wg.Add(*workers)
	for range *workers {
		go func() {
			defer wg.Done()
			for c := range jobs {
				results <- measure(ctx, c, *quality)
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, c := range cases {
			select {
			case jobs <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	ok, total := 0, 0
	for r := range results {
		total++
		ev := log.Info()
		switch {
		case r.err != nil:
			ev = log.Warn().Err(r.err)
		case r.accuracy == 1:
			ok++
		default:
			ev = log.Warn()
		}
		ev.Str("image", r.image).
			Str("size", fmt.Sprintf("%dx%d", r.size.W, r.size.H)).
			Str("block", fmt.Sprintf("%dx%d", r.block[0], r.block[1])).
			Str("d1d2", fmt.Sprintf("%d/%d", r.d1, r.d2)).
			Int("blocks", r.blocks).
			Float64("accuracy", r.accuracy).
			Dur("elapsed", r.elapsed).
			Msg("case")
	}
	if total == 0 {
		return ctx.Err()
	}
	fmt.Printf("total %d, exact %d (%.2f%%), failed %d\n",
		total, ok, float64(ok)/float64(total)*100, total-ok)
	return nil
}

func measure(ctx context.Context, c qualityCase, quality int) (r qualityResult) {
	r.qualityCase = c
	start := time.Now()
	defer func() { r.elapsed = time.Since(start) }()

	w, err := watermark.New(1, 1,
		watermark.WithBlockShape(c.block[0], c.block[1]),
		watermark.WithD1D2(c.d1, c.d2),
	)
	if err != nil {
		r.err = err
		return r
	}
	w.SetImage(c.src)
	r.blocks = w.Capacity()
	if err := w.ReadWatermark(watermark.BitsPayload(qualityMark)); err != nil {
		r.err = err
		return r
	}
	marked, err := w.EmbedImage(ctx)
	if err != nil {
		r.err = err
		return r
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, marked, &jpeg.Options{Quality: quality}); err != nil {
		r.err = errors.Wrap(err, "jpeg encode")
		return r
	}
	attacked, err := jpeg.Decode(&buf)
	if err != nil {
		r.err = errors.Wrap(err, "jpeg decode")
		return r
	}

	ext, _, err := w.ExtractImage(ctx, attacked, watermark.Shape{W: len(qualityMark)}, watermark.ModeBits)
	if err != nil {
		r.err = err
		return r
	}
	matches := 0
	for i, want := range qualityMark {
		if i < len(ext.Confidence) && (ext.Confidence[i] >= pipeline.BitThreshold) == want {
			matches++
		}
	}
	r.accuracy = float64(matches) / float64(len(qualityMark))
	return r
}
