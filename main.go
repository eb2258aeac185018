package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/fogwraith/fugue-mud-client/internal/config"
	"github.com/fogwraith/fugue-mud-client/internal/ui"
)

// Values swapped in by go-releaser at build time
var (
	version = "dev"
)

var logLevels = map[string]log.Level{
	"debug": log.DebugLevel,
	"info":  log.InfoLevel,
}

// commandList accumulates repeated -c flags.
type commandList []string

func (c *commandList) String() string { return fmt.Sprint(*c) }

func (c *commandList) Set(v string) error {
	*c = append(*c, v)
	return nil
}

func main() {
	var commands commandList
	configPath := flag.String("f", "", "Config file path")
	libDir := flag.String("L", "", "Library directory (overrides TFLIBDIR)")
	flag.Var(&commands, "c", "Command to run at startup (may repeat)")
	noDefault := flag.Bool("n", false, "Do not connect to the default world")
	noLogin := flag.Bool("l", false, "Disable autologin")
	quiet := flag.Bool("q", false, "Quiet login")
	noVisual := flag.Bool("v", false, "Disable the full-screen display")
	debug := flag.Bool("d", false, "Enable debug logging")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"usage: %s [options] [world | host port]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	opts := ui.Options{
		ConfigPath:     *configPath,
		LibDir:         *libDir,
		Commands:       commands,
		NoDefaultWorld: *noDefault,
		NoAutologin:    *noLogin,
		QuietLogin:     *quiet,
		NoVisual:       *noVisual,
		Debug:          *debug,
	}

	switch flag.NArg() {
	case 0:
	case 1:
		opts.StartWorld = flag.Arg(0)
	case 2:
		opts.Host = flag.Arg(0)
		opts.Port = flag.Arg(1)
	default:
		flag.Usage()
		os.Exit(1)
	}

	// The standard library is mandatory: a missing stdlib is a fatal
	// startup failure, before the terminal switches modes.
	if _, err := config.StdlibPath(config.LibDir(*libDir)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// init DebugBuffer
	db := &ui.DebugBuffer{}

	logHandler := log.New(db)

	// Force color output for logger.
	// By default, the charm logger package disables color for non-TTY.
	logHandler.SetColorProfile(termenv.TrueColor)
	level := "info"
	if *debug {
		level = "debug"
	}
	logHandler.SetLevel(logLevels[level])

	logger := slog.New(logHandler)
	logger.Info("Started fugue client", "Version", version)

	model := ui.NewModel(opts, logger, db)
	if err := model.Start(); err != nil {
		logger.Error("Application error", "err", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}
