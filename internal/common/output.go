package common

import (
	"fmt"
	"io"
	"os"
	"slices"

	"interviewcoach/internal/errors"
	"interviewcoach/internal/formatters"
)

// CommandConfig is the --output/--format pair shared by file commands
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
}

// Resolve applies the default format and checks the result against the
// formats that are both configured and registered.
func (c *CommandConfig) Resolve(defaultFormat string, configured []string) error {
	if c.OutputFormat == "" {
		c.OutputFormat = defaultFormat
	}
	supported := SupportedFormats(configured)
	if slices.Contains(supported, c.OutputFormat) {
		return nil
	}
	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s'. Supported formats: %v", c.OutputFormat, supported), nil)
}

// SupportedFormats narrows the registered formatters to the configured list.
// An empty list allows every registered format.
func SupportedFormats(configured []string) []string {
	registered := formatters.GlobalRegistry.GetSupportedFormats()
	if len(configured) == 0 {
		return registered
	}
	var out []string
	for _, format := range configured {
		if slices.Contains(registered, format) && !slices.Contains(out, format) {
			out = append(out, format)
		}
	}
	return out
}

// OutputHandler formats results and writes them to a file or stdout
type OutputHandler struct {
	fileProcessor *FileProcessor
	registry      *formatters.FormatterRegistry
	stdout        io.Writer
	logger        *errors.Logger
}

func NewOutputHandler(logger *errors.Logger) *OutputHandler {
	return &OutputHandler{
		fileProcessor: NewFileProcessor(logger),
		registry:      formatters.GlobalRegistry,
		stdout:        os.Stdout,
		logger:        logger,
	}
}

// WithStdout redirects output that has no target file
func (oh *OutputHandler) WithStdout(w io.Writer) *OutputHandler {
	oh.stdout = w
	return oh
}

// HandleOutput formats data and writes it to the configured destination
func (oh *OutputHandler) HandleOutput(data any, cfg CommandConfig) error {
	if err := oh.fileProcessor.ValidateOutputFile(cfg.OutputFile); err != nil {
		return err
	}

	output, err := oh.registry.Format(data, cfg.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", cfg.OutputFormat), err)
	}

	if cfg.OutputFile == "" {
		_, err := io.WriteString(oh.stdout, output)
		return err
	}

	if err := oh.fileProcessor.WriteFile(cfg.OutputFile, output); err != nil {
		return err
	}
	oh.logger.Info("Output written successfully",
		"file", cfg.OutputFile,
		"format", cfg.OutputFormat,
		"bytes", len(output))
	return nil
}
