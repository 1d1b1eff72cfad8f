package cli

import (
	"context"
	"fmt"
	"sync"

	"interviewcoach/internal/ai"
	"interviewcoach/internal/common"
	"interviewcoach/internal/config"
	"interviewcoach/internal/errors"
	"interviewcoach/internal/oracle"
	"interviewcoach/internal/session"
	"interviewcoach/internal/transcript"
	"interviewcoach/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [transcript-file]",
	Short: "Analyze a saved interview transcript",
	Long: `Run the post-call analysis on a saved transcript: pause detection,
tone classification of the candidate's answers and, in interview mode,
structured feedback on the whole conversation.

With oracle.mode=http the tone and feedback calls go to a running
interviewcoach server instead of the configured AI provider.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: resolveOutputFormat(&analyzeConfig),
	RunE:    runAnalyze,
}

var (
	analyzeConfig    common.CommandConfig
	analyzeThreshold float64
	analyzeMode      string
)

func init() {
	addOutputFlags(analyzeCmd, &analyzeConfig)
	analyzeCmd.Flags().Float64Var(&analyzeThreshold, "threshold", 0, "Pause threshold in seconds (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeMode, "mode", string(session.ModeInterview), "Session mode: interview or generate (generate skips feedback)")
}

// usageTotals sums the token usage of every oracle call
type usageTotals struct {
	mu    sync.Mutex
	total ai.TokenUsage
	calls int
}

func (u *usageTotals) record(_ context.Context, _ string, usage *ai.TokenUsage, _ error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if usage == nil {
		return
	}
	u.total.InputTokens += usage.InputTokens
	u.total.OutputTokens += usage.OutputTokens
	u.total.TotalTokens += usage.TotalTokens
}

func (u *usageTotals) usage() *ai.TokenUsage {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.calls == 0 {
		return nil
	}
	total := u.total
	return &total
}

// newOfflineAnalyzer builds the tone and feedback oracle for CLI use
func newOfflineAnalyzer(cfg *config.Config, logger *errors.Logger, totals *usageTotals) (oracle.Analyzer, func(), error) {
	maxChars := cfg.Interview.FeedbackMaxChars
	if cfg.Oracle.Mode == "http" {
		return oracle.NewHTTPClient(cfg.Oracle, maxChars, logger), func() {}, nil
	}

	tone, err := newService(cfg, config.OperationTone, logger)
	if err != nil {
		return nil, nil, err
	}
	feedback, err := newService(cfg, config.OperationFeedback, logger)
	if err != nil {
		closeService(tone, logger)
		return nil, nil, err
	}

	client := oracle.NewLocalClient(tone, feedback, maxChars, logger).WithUsageRecorder(totals.record)
	return client, func() {
		closeService(tone, logger)
		closeService(feedback, logger)
	}, nil
}

// buildSessionReport runs the same analysis as the live post-call pipeline
func buildSessionReport(ctx context.Context, analyzer oracle.Analyzer, input types.SessionReportInput) types.SessionReport {
	var t transcript.Transcript = input.Transcript
	pauses := analyzePauses(t, input.Threshold)

	report := types.SessionReport{
		Messages:   len(t),
		PauseCount: pauses.PauseCount,
		Pauses:     pauses.Reports,
		Tone:       analyzer.RequestTone(ctx, t.UserText()),
	}
	if len(t) > 0 {
		first, last := t[0].OccurredAt, t.LastOccurredAt()
		if !first.IsZero() && last.After(first) {
			report.Duration = session.FormatDuration(last.Sub(first))
		}
	}
	if session.ParseMode(input.Mode) == session.ModeInterview {
		feedback := analyzer.RequestFeedback(ctx, t.RoleText())
		report.Feedback = &feedback
	}
	return report
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	totals := &usageTotals{}
	analyzer, closeAnalyzer, err := newOfflineAnalyzer(cfg, logger, totals)
	if err != nil {
		return err
	}
	defer closeAnalyzer()

	threshold := pauseThreshold(analyzeThreshold, cfg)
	command := common.FileCommand[types.SessionReportInput, types.SessionReport]{
		Name:   "analyze",
		Output: analyzeConfig,

		MaxFileSize: cfg.App.MaxFileSize,
		Parse: func(contents []string) (types.SessionReportInput, error) {
			t, err := decodeTranscriptInput(contents)
			if err != nil {
				return types.SessionReportInput{}, err
			}
			return types.SessionReportInput{Transcript: t, Threshold: threshold, Mode: analyzeMode}, nil
		},
		Describe: func(input types.SessionReportInput) []any {
			return []any{"messages", len(input.Transcript), "mode", input.Mode}
		},
		Run: func(ctx context.Context, input types.SessionReportInput) (types.SessionReport, *ai.TokenUsage, error) {
			return buildSessionReport(ctx, analyzer, input), totals.usage(), nil
		},
	}

	if err := command.Execute(cmd.Context(), logger, args); err != nil {
		return fmt.Errorf("failed to analyze interview: %w", err)
	}
	logger.Info("Interview analysis completed successfully")
	return nil
}
