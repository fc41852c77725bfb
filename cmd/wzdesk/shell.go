package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	watermark "github.com/yyyoichi/watermark_desk"
	"github.com/yyyoichi/watermark_desk/internal/app"
	"github.com/yyyoichi/watermark_desk/internal/compositor"
	"github.com/yyyoichi/watermark_desk/internal/nav"
	"github.com/yyyoichi/watermark_desk/internal/pipeline"
)

const shellHelp = `commands:
  page home|embed|extract|settings
  set mode|image|content|wm|out|pwimg|pwwm|shape <value>
  embed | extract
  background <path> | clear | opacity <0.1-1.0>
  resize WxH
  state
  quit`

// runShell drives the application state line by line from stdin. It is the
// headless counterpart of the desktop window.
func runShell(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("shell", flag.ExitOnError)
	var ef engineFlags
	ef.register(fs)
	cfgPath := fs.String("config", "", "config file")
	watch := fs.Bool("watch", true, "follow edits of the config file")
	_ = fs.Parse(args)

	pipe, err := ef.pipeline()
	if err != nil {
		return err
	}
	opts := []app.Option{app.WithLogger(log.Logger)}
	if *watch {
		opts = append(opts, app.WithConfigWatch())
	}
	sh := app.New(openStore(*cfgPath), pipe, opts...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- sh.Run(ctx) }()

	if err := sh.OnResult(func(op pipeline.Op, res pipeline.Result) {
		fmt.Printf("[%s] %s\n", op, res.Message)
	}); err != nil {
		return err
	}
	if err := sh.OnPage(func(p nav.Page) { fmt.Printf("page: %s\n", p) }); err != nil {
		return err
	}
	// the window starts at 1000x700
	if err := sh.Resize(compositor.Size{W: 1000, H: 700}); err != nil {
		return err
	}

	err = readCommands(ctx, sh, os.Stdin, os.Stdout)
	cancel()
	if rerr := <-done; err == nil {
		err = rerr
	}
	return err
}

func readCommands(ctx context.Context, sh *app.Shell, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		if err := dispatch(ctx, sh, line, out); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
	return sc.Err()
}

func dispatch(ctx context.Context, sh *app.Shell, line string, out io.Writer) error {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch cmd {
	case "help":
		fmt.Fprintln(out, shellHelp)
	case "page":
		p, ok := nav.ParsePage(rest)
		if !ok {
			return errors.Errorf("no page %q", rest)
		}
		return sh.ShowPage(p)
	case "set":
		field, value, _ := strings.Cut(rest, " ")
		return setField(sh, field, strings.TrimSpace(value))
	case "embed":
		return sh.Start(ctx, pipeline.OpEmbed)
	case "extract":
		return sh.Start(ctx, pipeline.OpExtract)
	case "background":
		sub, value, _ := strings.Cut(rest, " ")
		switch sub {
		case "clear":
			return sh.ClearBackground()
		case "opacity":
			v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				return errors.Wrap(err, "opacity")
			}
			return sh.SetOpacity(v)
		default:
			return sh.SetBackground(rest)
		}
	case "resize":
		w, h, err := parseSize(rest)
		if err != nil {
			return err
		}
		return sh.Resize(compositor.Size{W: w, H: h})
	case "state":
		st, err := sh.State()
		if err != nil {
			return err
		}
		f := st.Form
		fmt.Fprintf(out, "page=%s mode=%s image=%q out=%q shape=%q frame=%dx%d opacity=%.2f running=%d\n",
			st.Page, f.Mode, f.ImagePath, f.OutputPath, f.Shape, st.Frame.Size.W, st.Frame.Size.H, st.Frame.Opacity, st.InFlight)
	default:
		return errors.Errorf("unknown command %q, try help", cmd)
	}
	return nil
}

func setField(sh *app.Shell, field, value string) error {
	var set func(*app.Form)
	switch field {
	case "mode":
		m, err := watermark.ParseMode(value)
		if err != nil {
			return err
		}
		set = func(f *app.Form) { f.Mode = m }
	case "image":
		set = func(f *app.Form) { f.ImagePath = value }
	case "content":
		set = func(f *app.Form) { f.WatermarkContent = value }
	case "wm":
		set = func(f *app.Form) { f.WatermarkImagePath = value }
	case "out":
		set = func(f *app.Form) { f.OutputPath = value }
	case "pwimg":
		set = func(f *app.Form) { f.PasswordImg = value }
	case "pwwm":
		set = func(f *app.Form) { f.PasswordWm = value }
	case "shape":
		set = func(f *app.Form) { f.Shape = value }
	default:
		return errors.Errorf("unknown field %q", field)
	}
	return sh.UpdateForm(set)
}
