package cli

import (
	"context"
	"fmt"

	"interviewcoach/internal/ai"
	"interviewcoach/internal/common"
	"interviewcoach/internal/config"
	"interviewcoach/internal/oracle"
	"interviewcoach/internal/types"

	"github.com/spf13/cobra"
)

var questionsCmd = &cobra.Command{
	Use:   "questions [resume-file]",
	Short: "Generate interview questions from a resume",
	Long: `Generate interview questions tailored to a plain-text resume.
Use --language ar for Arabic questions.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: resolveOutputFormat(&questionsConfig),
	RunE:    runQuestions,
}

var (
	questionsConfig   common.CommandConfig
	questionsLanguage string
	questionsCount    int
)

func init() {
	addOutputFlags(questionsCmd, &questionsConfig)
	questionsCmd.Flags().StringVar(&questionsLanguage, "language", "", "Question language, e.g. en or ar (default from config)")
	questionsCmd.Flags().IntVar(&questionsCount, "count", 0, "Number of questions (default from config)")
}

func runQuestions(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	svc, err := newService(cfg, config.OperationQuestions, logger)
	if err != nil {
		return err
	}
	defer closeService(svc, logger)

	command := common.FileCommand[types.QuestionsInput, types.QuestionsOutput]{
		Name:   "questions",
		Output: questionsConfig,

		MaxFileSize: cfg.App.MaxFileSize,
		Parse: func(contents []string) (types.QuestionsInput, error) {
			if len(contents) != 1 {
				return types.QuestionsInput{}, fmt.Errorf("expected 1 file path, got %d", len(contents))
			}
			input := types.QuestionsInput{
				Resume:   contents[0],
				Language: questionsLanguage,
				Count:    questionsCount,
			}
			if input.Language == "" {
				input.Language = cfg.Interview.DefaultLanguage
			}
			if input.Count <= 0 {
				input.Count = cfg.Interview.QuestionCount
			}
			return input, nil
		},
		Describe: func(input types.QuestionsInput) []any {
			return []any{"resume_chars", len(input.Resume), "language", input.Language, "count", input.Count}
		},
		Run: func(ctx context.Context, input types.QuestionsInput) (types.QuestionsOutput, *ai.TokenUsage, error) {
			completion, err := svc.Run(ctx, input.Language, ai.PromptVars{Resume: input.Resume, Count: input.Count})
			if err != nil {
				return types.QuestionsOutput{}, nil, err
			}
			return types.QuestionsOutput{
				Language:  input.Language,
				Questions: oracle.ParseQuestions(completion.Text),
			}, completion.Usage, nil
		},
	}

	if err := command.Execute(cmd.Context(), logger, args); err != nil {
		return fmt.Errorf("failed to generate questions: %w", err)
	}
	logger.Info("Question generation completed successfully")
	return nil
}
