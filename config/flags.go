package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

const usageLine = "twitch-recorder -c <channel> -q <quality> [-l <level>] [--enable-output-file-in-channel-folder]"

// Applied reports which optional flags were given so the caller can log them
// once the logger is configured.
type Applied struct {
	LogLevel      bool
	ChannelFolder bool
}

// ParseFlags applies command-line overrides on top of cfg. Both the short and
// long spelling of each flag are accepted. Usage and parse errors are written
// to out. The returned error is flag.ErrHelp for -h/--help.
func ParseFlags(args []string, cfg *Config, out io.Writer) (Applied, error) {
	var applied Applied
	fs := flag.NewFlagSet("twitch-recorder", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		_, _ = fmt.Fprintln(out, usageLine)
		fs.PrintDefaults()
	}

	channel := cfg.Channel
	quality := cfg.Quality
	level := cfg.LogLevel
	folder := false
	fs.StringVar(&channel, "c", channel, "channel to watch")
	fs.StringVar(&channel, "channel", channel, "channel to watch")
	fs.StringVar(&quality, "q", quality, "streamlink quality label")
	fs.StringVar(&quality, "quality", quality, "streamlink quality label")
	fs.StringVar(&level, "l", level, "log level (debug, info, warning, error, critical)")
	fs.StringVar(&level, "log", level, "log level (debug, info, warning, error, critical)")
	fs.BoolVar(&folder, "enable-output-file-in-channel-folder", false, "write recordings under <root>/<channel>")

	if err := fs.Parse(args); err != nil {
		return applied, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "l", "log":
			applied.LogLevel = true
		case "enable-output-file-in-channel-folder":
			applied.ChannelFolder = true
		}
	})

	cfg.Channel = channel
	cfg.Quality = quality
	cfg.LogLevel = strings.ToLower(level)
	if folder {
		cfg.OutputInChannelDir = true
	}
	return applied, nil
}

// ExitCode maps a ParseFlags error to the process exit status: 0 for help, 2 otherwise.
func ExitCode(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	return 2
}
