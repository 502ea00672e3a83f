package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/mcncl/jsonwrap/internal/config"
	"github.com/mcncl/jsonwrap/internal/errors"
	"github.com/mcncl/jsonwrap/internal/formatter"
	"github.com/mcncl/jsonwrap/internal/logging"
	"github.com/mcncl/jsonwrap/internal/models"
	"github.com/mcncl/jsonwrap/internal/parser"
)

// CLI defines the command-line interface
var CLI struct {
	Input          string `help:"Path to input JSON file. If not specified, reads from stdin." short:"i" type:"path"`
	Output         string `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
	Config         string `help:"Path to config file. Defaults to the nearest .jsonwrap.yml." short:"c" type:"path"`
	Mode           string `help:"Decode objects as ordered maps (map) or attribute bags (object)." short:"m" placeholder:"map|object"`
	Depth          int    `help:"Maximum container nesting accepted when decoding."`
	Pretty         bool   `help:"Pretty-print JSON output."`
	Format         string `help:"Output format: json, dump or summary." short:"F" placeholder:"json|dump|summary"`
	Path           string `help:"gjson path selecting the part of the input to decode, e.g. users.#.name." placeholder:"PATH"`
	BigIntAsString bool   `help:"Keep integers too large for int64 as strings." name:"big-int-as-string"`
	EscapeHTML     bool   `help:"Escape <, > and & in JSON output." name:"escape-html"`
	InvalidUTF8    string `help:"Handling of malformed UTF-8 in input and output." name:"invalid-utf8" enum:"error,ignore,substitute" default:"error"`
	Debug          bool   `help:"Enable debug logging." short:"d"`
	LogFile        string `help:"Write logs to this file instead of stderr." type:"path"`
	Version        bool   `help:"Show version information." short:"v"`
	Interactive    bool   `help:"Run in interactive mode, allowing direct JSON input with Ctrl+D to process." short:"I"`
}

// Context holds the runtime context
type Context struct {
	Debug  bool
	Config *config.Config
}

// Version information
const (
	Version = "0.1.0"
)

// stdout is where rendered documents go when no output file is given
var stdout io.Writer = os.Stdout

func main() {
	parser := kong.Must(&CLI,
		kong.Name("jsonwrap"),
		kong.Description("Decode, inspect and re-encode JSON through the jsonwrap codec"),
		kong.UsageOnError(),
	)

	// Check if no arguments provided and set interactive mode by default
	if len(os.Args) == 1 {
		CLI.Interactive = true
	}

	if _, err := parser.Parse(os.Args[1:]); err != nil {
		// Usage is already shown by kong.UsageOnError()
		os.Exit(1)
	}

	if CLI.Version {
		fmt.Printf("jsonwrap version %s\n", Version)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Dev.Debug, cfg.Dev.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(errors.NewConfigError("failed to set up logging", err)))
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(&Context{Debug: cfg.Dev.Debug, Config: cfg}); err != nil {
		zap.S().Debugw("run failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		fmt.Fprintf(os.Stderr, "\nFor help, run: jsonwrap --help\n")
		_ = logger.Sync()
		os.Exit(1)
	}
}

// loadConfig resolves defaults, config file, environment and CLI flags
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		return nil, errors.NewConfigError("failed to load .env files", err)
	}

	configPath := CLI.Config
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	cfg, err := config.LoadConfigWithCLI(configPath, cliOverrides())
	if err != nil {
		return nil, errors.NewConfigError(err.Error(), err)
	}
	return cfg, nil
}

// cliOverrides returns the settings given on the command line. Zero fields
// leave the file and environment values in place.
func cliOverrides() *config.Config {
	override := &config.Config{
		Decode: config.DecodeConfig{
			Mode:  CLI.Mode,
			Depth: CLI.Depth,
		},
		Encode: config.EncodeConfig{
			Pretty: CLI.Pretty,
		},
		Output: config.OutputConfig{
			Format: CLI.Format,
			Path:   CLI.Output,
		},
		Dev: config.DevConfig{
			Debug:   CLI.Debug,
			LogFile: CLI.LogFile,
		},
	}

	if CLI.BigIntAsString {
		override.Decode.Flags = append(override.Decode.Flags, "big_int_as_string")
	}
	if CLI.EscapeHTML {
		override.Encode.Flags = append(override.Encode.Flags, "escape_html")
	}
	switch CLI.InvalidUTF8 {
	case "ignore":
		override.Decode.Flags = append(override.Decode.Flags, "invalid_utf8_ignore")
		override.Encode.Flags = append(override.Encode.Flags, "invalid_utf8_ignore")
	case "substitute":
		override.Decode.Flags = append(override.Decode.Flags, "invalid_utf8_substitute")
		override.Encode.Flags = append(override.Encode.Flags, "invalid_utf8_substitute")
	}

	return override
}

// run executes the main program logic
func run(ctx *Context) error {
	log := zap.S()
	cfg := ctx.Config

	decodeOpts, err := cfg.DecodeOptions()
	if err != nil {
		return errors.NewConfigError("invalid decode settings", err)
	}
	encodeFlags, err := cfg.EncodeFlags()
	if err != nil {
		return errors.NewConfigError("invalid encode settings", err)
	}

	// 1. Decode JSON input
	opts := parser.Options{
		Mode:   models.Mode(cfg.Decode.Mode),
		Path:   CLI.Path,
		Decode: decodeOpts,
	}
	log.Debugw("decoding input",
		"mode", cfg.Decode.Mode,
		"depth", cfg.Decode.Depth,
		"flags", cfg.Decode.Flags,
		"path", CLI.Path,
	)
	doc, err := parseInput(opts)
	if err != nil {
		return err
	}
	log.Debugw("decoded input", "bytes", len(doc.Source), "root", doc.Root.Kind().String())

	// 2. Render
	output, err := formatter.NewFormatter(encodeFlags).Format(doc, cfg.Output.Format)
	if err != nil {
		return err
	}
	log.Debugw("rendered output", "format", cfg.Output.Format, "encode_flags", encodeFlags.String(), "bytes", len(output))

	// 3. Output the result
	return writeOutput(output, cfg.Output.Path)
}

// parseInput reads JSON from file or stdin
func parseInput(opts parser.Options) (models.Document, error) {
	if CLI.Input != "" {
		return parser.ParseFile(CLI.Input, opts)
	}

	stdinInfo, err := os.Stdin.Stat()
	if err != nil {
		return models.Document{}, errors.NewInputError("failed to access stdin", err)
	}

	if (stdinInfo.Mode() & os.ModeCharDevice) != 0 {
		// Terminal is interactive (not piped)
		if CLI.Interactive {
			return readInteractiveInput(opts)
		}
		return models.Document{}, errors.NewInputError("no input provided", errors.ErrNoInput)
	}

	// Read from stdin (piped input)
	jsonData, err := io.ReadAll(os.Stdin)
	if err != nil {
		return models.Document{}, errors.NewInputError("failed to read from stdin", err)
	}

	if len(jsonData) == 0 {
		return models.Document{}, errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}

	return parser.ParseString(string(jsonData), opts)
}

// writeOutput writes the rendered document to path, or to stdout when
// path is empty
func writeOutput(output, path string) error {
	if path != "" {
		err := os.WriteFile(path, []byte(output+"\n"), 0644)
		if err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", path), err)
		}
		fmt.Fprintf(os.Stderr, "Output written to %s\n", path)
		return nil
	}

	if _, err := fmt.Fprintln(stdout, output); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

// readInteractiveInput lets users paste JSON and signal completion with
// Ctrl+D (EOF)
func readInteractiveInput(opts parser.Options) (models.Document, error) {
	fmt.Fprintln(os.Stderr, "jsonwrap Interactive Mode")
	fmt.Fprintln(os.Stderr, "Paste your JSON below and press Ctrl+D (or Ctrl+Z on Windows) when done:")

	jsonData, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		return models.Document{}, errors.NewInputError("error reading input", err)
	}
	if len(jsonData) == 0 {
		return models.Document{}, errors.NewInputError("empty input received", errors.ErrEmptyInput)
	}

	fmt.Fprintln(os.Stderr, "\nProcessing JSON...")
	return parser.ParseString(string(jsonData), opts)
}
