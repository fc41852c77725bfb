package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/yyyoichi/watermark_desk/internal/compositor"
	"github.com/yyyoichi/watermark_desk/internal/config"
	"github.com/yyyoichi/watermark_desk/internal/imageio"
)

func openStore(path string) *config.Store {
	if path == "" {
		path = config.DefaultPath(appName)
	}
	s := config.New(path, config.WithLogger(log.Logger))
	s.Load()
	return s
}

func runBackground(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("background", flag.ExitOnError)
	cfgPath := fs.String("config", "", "config file, default $"+config.EnvPath+" or the user config dir")
	opacity := fs.String("opacity", "", "background opacity (0.1 - 1.0)")
	size := fs.String("size", "", "render the cover-fit frame at WxH instead of the thumbnail (preview)")
	out := fs.String("out", "background.png", "preview output (preview)")
	_ = fs.Parse(args)

	store := openStore(*cfgPath)
	comp := compositor.New(store, compositor.WithLogger(log.Logger))
	defer comp.Close()

	sub := fs.Arg(0)
	switch sub {
	case "set":
		if fs.NArg() > 1 {
			if err := comp.LoadImage(fs.Arg(1)); err != nil {
				return err
			}
		}
		if *opacity != "" {
			v, err := strconv.ParseFloat(*opacity, 64)
			if err != nil {
				return errors.Wrap(err, "-opacity")
			}
			comp.SetOpacity(v)
		}
		if fs.NArg() < 2 && *opacity == "" {
			return errors.New("background set: nothing to set, give an image or -opacity")
		}
	case "clear":
		comp.ClearImage()
	case "show", "":
	case "preview":
		return preview(store, *size, *out)
	default:
		return errors.Errorf("background: unknown subcommand %q", sub)
	}
	cfg := store.Get()
	fmt.Printf("config:  %s\nimage:   %s\nopacity: %.2f\n", store.Path(), cfg.BackgroundImage, cfg.BackgroundOpacity)
	return nil
}

func preview(store *config.Store, size, out string) error {
	path := store.Get().BackgroundImage
	if path == "" {
		return errors.New("no background image set")
	}
	if size == "" {
		img, ok := compositor.Preview(path, compositor.PreviewSize)
		if !ok {
			return errors.Errorf("cannot preview %s", path)
		}
		return imageio.Encode(out, img)
	}

	w, h, err := parseSize(size)
	if err != nil {
		return errors.Wrap(err, "-size")
	}
	comp := compositor.New(store, compositor.WithLogger(log.Logger))
	defer comp.Close()
	comp.Restore()
	comp.OnResize(compositor.Size{W: w, H: h})
	comp.Flush()
	frame := comp.Frame()
	if frame.Image == nil {
		return errors.Errorf("cannot render %s", path)
	}
	log.Debug().Float64("opacity", frame.Opacity).Msg("frame rendered")
	return imageio.Encode(out, frame.Image)
}
