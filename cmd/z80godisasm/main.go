// Package main implements a Z80 binary image disassembler
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/z80godisasm/internal/config"
	"github.com/retroenv/z80godisasm/internal/disasm"
	"github.com/retroenv/z80godisasm/internal/options"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	opts, err := readArguments()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	printBanner(logger, opts)

	if err := disasmFile(logger, opts); err != nil {
		logger.Error("Disassembling failed", log.Err(err))
		os.Exit(1)
	}
}

func readArguments() (options.Program, error) {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	opts := options.Program{}

	var origin, entry string
	flags.StringVar(&origin, "org", "0x0000", "load address of the binary image")
	flags.StringVar(&entry, "e", "", "entry point address (default: load address)")
	flags.StringVar(&opts.Output, "o", "", "name of the output .asm file, printed on console if no name given")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debug logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
	flags.BoolVar(&opts.NoHexComments, "nohexcomments", false, "do not output opcode bytes as hex values in comments")
	flags.BoolVar(&opts.NoOffsets, "nooffsets", false, "do not output addresses in comments")

	err := flags.Parse(os.Args[1:])
	args := flags.Args()

	if err != nil || len(args) == 0 {
		fmt.Printf("usage: z80godisasm [options] <file to disassemble>\n\n")
		flags.PrintDefaults()
		os.Exit(1)
	}
	opts.Input = args[0]

	opts.Origin, err = parseAddress(origin)
	if err != nil {
		return options.Program{}, fmt.Errorf("parsing origin address: %w", err)
	}

	opts.Entry = opts.Origin
	if entry != "" {
		opts.Entry, err = parseAddress(entry)
		if err != nil {
			return options.Program{}, fmt.Errorf("parsing entry address: %w", err)
		}
	}

	return opts, nil
}

// parseAddress parses a 16 bit address, accepting decimal, 0x prefixed hex
// and $ prefixed hex forms.
func parseAddress(s string) (uint16, error) {
	if len(s) > 1 && s[0] == '$' {
		s = "0x" + s[1:]
	}
	value, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address '%s': %w", s, err)
	}
	return uint16(value), nil
}

func printBanner(logger *log.Logger, opts options.Program) {
	if opts.Quiet {
		return
	}
	fmt.Println("[---------------------------------------]")
	fmt.Println("[ z80godisasm - Z80 binary disassembler ]")
	fmt.Printf("[---------------------------------------]\n\n")
	fmt.Printf("version: %s\n\n", buildinfo.Version(version, commit, date))

	logger.Info("Processing binary",
		log.String("file", opts.Input),
		log.Hex("origin", opts.Origin),
		log.Hex("entry", opts.Entry),
	)
}

func disasmFile(logger *log.Logger, opts options.Program) error {
	image, err := os.ReadFile(opts.Input)
	if err != nil {
		return fmt.Errorf("reading file '%s': %w", opts.Input, err)
	}

	disasmOptions := options.NewDisassembler(opts.Origin, opts.Entry)
	disasmOptions.HexComments = !opts.NoHexComments
	disasmOptions.OffsetComments = !opts.NoOffsets

	dis, err := disasm.New(logger, disasmOptions, image)
	if err != nil {
		return fmt.Errorf("initializing disassembler: %w", err)
	}

	var outputFile io.WriteCloser
	if opts.Output == "" {
		outputFile = os.Stdout
	} else {
		outputFile, err = os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("creating file '%s': %w", opts.Output, err)
		}
	}

	if _, err := dis.Process(app.Context(), outputFile); err != nil {
		return fmt.Errorf("processing file: %w", err)
	}

	if opts.Output != "" {
		if err := outputFile.Close(); err != nil {
			return fmt.Errorf("closing file: %w", err)
		}
	}
	return nil
}
