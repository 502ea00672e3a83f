package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/mcncl/jsonwrap"
	"github.com/mcncl/jsonwrap/internal/errors" // Custom errors package
	"github.com/mcncl/jsonwrap/internal/models"
)

// Options controls how input is decoded
type Options struct {
	// Mode picks map or object decoding. Empty means map mode.
	Mode models.Mode
	// Path is a gjson path selecting the part of the input to decode.
	Path string
	// Decode is passed through to the codec.
	Decode []jsonwrap.DecodeOption
}

// Parse reads all JSON data from reader and decodes it into a Document
func Parse(reader io.Reader, opts Options) (models.Document, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return models.Document{}, errors.NewInputError("failed to read input", err)
	}
	return parseBytes(data, opts)
}

// ParseString parses JSON from a string
func ParseString(jsonString string, opts Options) (models.Document, error) {
	return parseBytes([]byte(jsonString), opts)
}

// ParseFile parses JSON from a file path
func ParseFile(filePath string, opts Options) (models.Document, error) {
	if strings.TrimSpace(filePath) == "" {
		return models.Document{}, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Document{}, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("failed to open file '%s'", filePath),
			err,
		)
	}
	defer func() {
		_ = file.Close()
	}()

	// Check for empty file before parsing
	stat, err := file.Stat()
	if err != nil {
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("failed to get file stats for '%s'", filePath),
			err,
		)
	}
	if stat.Size() == 0 {
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}

	return Parse(file, opts)
}

func parseBytes(data []byte, opts Options) (models.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.Document{}, errors.NewInputError("input is empty or contains only whitespace", errors.ErrEmptyInput)
	}

	mode := opts.Mode
	if mode == "" {
		mode = models.ModeMap
	}

	text := string(data)
	if opts.Path != "" {
		selected, err := selectPath(text, opts)
		if err != nil {
			return models.Document{}, err
		}
		text = selected
	}

	var (
		root jsonwrap.Value
		err  error
	)
	switch mode {
	case models.ModeMap:
		root, err = jsonwrap.DecodeArray(text, opts.Decode...)
	case models.ModeObject:
		root, err = jsonwrap.DecodeObject(text, opts.Decode...)
	default:
		return models.Document{}, errors.NewConfigError(fmt.Sprintf("unknown decode mode '%s'", mode), nil)
	}
	if err != nil {
		return models.Document{}, errors.NewDecodeError("failed to decode JSON", err)
	}

	return models.Document{
		Root:   root,
		Mode:   mode,
		Source: []byte(text),
		Path:   opts.Path,
	}, nil
}

// selectPath narrows text to the value matched by opts.Path. The whole
// input is validated first so a malformed document reports the codec error
// rather than a missing path.
func selectPath(text string, opts Options) (string, error) {
	if err := jsonwrap.Validate(text, opts.Decode...); err != nil {
		return "", errors.NewDecodeError("failed to decode JSON", err)
	}

	result := gjson.Get(text, opts.Path)
	if !result.Exists() {
		return "", errors.NewInputError(fmt.Sprintf("path '%s' not found", opts.Path), errors.ErrPathNotFound)
	}
	return result.Raw, nil
}
