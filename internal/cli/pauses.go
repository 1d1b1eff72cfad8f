package cli

import (
	"context"
	"fmt"

	"interviewcoach/internal/ai"
	"interviewcoach/internal/common"
	"interviewcoach/internal/config"
	"interviewcoach/internal/transcript"
	"interviewcoach/internal/types"

	"github.com/spf13/cobra"
)

var pausesCmd = &cobra.Command{
	Use:   "pauses [transcript-file]",
	Short: "Find hesitations in a saved interview transcript",
	Long: `Scan the word timings of every user answer in a saved transcript and
report the gaps between consecutive words that exceed the pause threshold.

The transcript is a JSON array of messages, or an object with a "messages"
or "transcript" field.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: resolveOutputFormat(&pausesConfig),
	RunE:    runPauses,
}

var (
	pausesConfig    common.CommandConfig
	pausesThreshold float64
)

func init() {
	addOutputFlags(pausesCmd, &pausesConfig)
	pausesCmd.Flags().Float64Var(&pausesThreshold, "threshold", 0, "Pause threshold in seconds (default from config)")
}

// pauseThreshold picks the flag value, then the configured one
func pauseThreshold(flagValue float64, cfg *config.Config) float64 {
	if flagValue > 0 {
		return flagValue
	}
	if cfg.Interview.PauseThreshold > 0 {
		return cfg.Interview.PauseThreshold
	}
	return transcript.DefaultPauseThreshold
}

// decodeTranscriptInput builds the input of the transcript commands
func decodeTranscriptInput(contents []string) (transcript.Transcript, error) {
	if len(contents) != 1 {
		return nil, fmt.Errorf("expected 1 file path, got %d", len(contents))
	}
	return transcript.Decode([]byte(contents[0]))
}

func analyzePauses(t transcript.Transcript, threshold float64) types.PauseAnalysisOutput {
	reports := transcript.AnalyzeSessionPauses(t, threshold)
	return types.PauseAnalysisOutput{
		Threshold:  threshold,
		Messages:   len(t),
		PauseCount: transcript.CountPauses(reports),
		Reports:    reports,
	}
}

func runPauses(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())
	threshold := pauseThreshold(pausesThreshold, cfg)

	command := common.FileCommand[types.PauseAnalysisInput, types.PauseAnalysisOutput]{
		Name:   "pauses",
		Output: pausesConfig,

		MaxFileSize: cfg.App.MaxFileSize,
		Parse: func(contents []string) (types.PauseAnalysisInput, error) {
			t, err := decodeTranscriptInput(contents)
			if err != nil {
				return types.PauseAnalysisInput{}, err
			}
			return types.PauseAnalysisInput{Transcript: t, Threshold: threshold}, nil
		},
		Describe: func(input types.PauseAnalysisInput) []any {
			return []any{"messages", len(input.Transcript), "threshold", input.Threshold}
		},
		Run: func(_ context.Context, input types.PauseAnalysisInput) (types.PauseAnalysisOutput, *ai.TokenUsage, error) {
			return analyzePauses(input.Transcript, input.Threshold), nil, nil
		},
	}

	if err := command.Execute(cmd.Context(), logger, args); err != nil {
		return fmt.Errorf("failed to analyze pauses: %w", err)
	}
	return nil
}
