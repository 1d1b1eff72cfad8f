package common

import (
	"context"
	"fmt"
	"time"

	"interviewcoach/internal/ai"
	"interviewcoach/internal/errors"
)

// FileCommand is a CLI command that reads its input files, runs one
// operation and writes the formatted result.
type FileCommand[Input, Output any] struct {
	Name   string
	Output CommandConfig
	// MaxFileSize bounds each input; zero means no limit.
	MaxFileSize int64

	// Parse builds the input from the file contents, in argument order.
	Parse func(contents []string) (Input, error)
	// Describe returns extra log attributes for the start message.
	Describe func(input Input) []any
	// Run returns the result and, for commands that call the AI, token usage.
	Run func(ctx context.Context, input Input) (Output, *ai.TokenUsage, error)

	stdout *OutputHandler
}

// Execute reads paths, runs the command and writes its output
func (c FileCommand[Input, Output]) Execute(ctx context.Context, logger *errors.Logger, paths []string) error {
	log := logger.With("command", c.Name)

	contents, err := NewFileProcessor(log).WithMaxSize(c.MaxFileSize).ValidateAndReadFiles(paths...)
	if err != nil {
		return err
	}

	input, err := c.Parse(contents)
	if err != nil {
		return fmt.Errorf("failed to create input from file contents: %w", err)
	}

	attrs := []any{"files", len(paths), "output_format", c.Output.OutputFormat}
	if c.Describe != nil {
		attrs = append(attrs, c.Describe(input)...)
	}
	log.Info("Running command", attrs...)

	started := time.Now()
	result, usage, err := c.Run(ctx, input)
	if err != nil {
		return err
	}
	if usage != nil {
		log.Info("AI token usage",
			"input_tokens", usage.InputTokens,
			"output_tokens", usage.OutputTokens,
			"total_tokens", usage.TotalTokens)
	}
	log.Debug("Command finished", "elapsed", time.Since(started).String())

	out := c.stdout
	if out == nil {
		out = NewOutputHandler(log)
	}
	return out.HandleOutput(result, c.Output)
}
