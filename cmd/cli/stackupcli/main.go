package main

import (
	"fmt"
	"os"

	"github.com/core-tools/hsu-stackup/pkg/logging"
	"github.com/core-tools/hsu-stackup/pkg/stackup"

	flags "github.com/jessevdk/go-flags"
)

type flagOptions struct {
	ConfigFile string `long:"config" short:"c" default:"stackup.yaml" description:"path to the stack configuration file"`
	Validate   bool   `long:"validate" description:"validate the configuration and exit"`
	Verbose    bool   `long:"verbose" short:"v" description:"enable debug logging"`
}

func main() {
	var opts flagOptions
	var argv []string = os.Args[1:]
	var parser = flags.NewParser(&opts, flags.HelpFlag)
	var err error
	_, err = parser.ParseArgs(argv)
	if err != nil {
		fmt.Printf("Command line flags parsing failed: %v\n", err)
		os.Exit(1)
	}

	logger, flush, err := logging.NewZapLogger("module: stackup , ", opts.Verbose)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer flush()

	if opts.Validate {
		if err := stackup.ValidateConfigFile(opts.ConfigFile, logger); err != nil {
			logger.Errorf("Configuration is invalid: %v", err)
			// os.Exit skips deferred calls; flush buffered output first
			flush()
			os.Exit(1)
		}
		return
	}

	if err := stackup.Run(opts.ConfigFile, logger); err != nil {
		flush()
		os.Exit(1)
	}
}
