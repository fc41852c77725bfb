// Command wzdesk embeds and extracts blind watermarks and manages the
// desktop background settings.
//
//	wzdesk embed -image in.png -mode text -content hello -out marked.png
//	wzdesk extract -image marked.png -mode text -shape 96 -out mark.txt
//	wzdesk batch -f jobs.yaml -workers 4
//	wzdesk background set|clear|show|preview
//	wzdesk quality -image photo.jpg
//	wzdesk shell
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const appName = "wzdesk"

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, args []string) error
}

var commands = []command{
	{"embed", "embed a watermark into an image", runEmbed},
	{"extract", "extract a watermark from an image", runExtract},
	{"batch", "run embed/extract jobs from a YAML file", runBatch},
	{"background", "set, clear, show or preview the window background", runBackground},
	{"quality", "sweep block shapes and strengths over an image", runQuality},
	{"shell", "drive the application state from stdin", runShell},
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-debug] [-human] <command> [flags]\n\ncommands:\n", appName)
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-11s %s\n", c.name, c.usage)
	}
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	debug := flag.Bool("debug", false, "debug logging level")
	human := flag.Bool("human", false, "human readable logs")
	flag.Usage = usage
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if *human {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		if err := c.run(ctx, args[1:]); err != nil {
			log.Error().Err(err).Str("command", c.name).Msg("failed")
			stop()
			os.Exit(1)
		}
		return
	}
	usage()
	os.Exit(2)
}
