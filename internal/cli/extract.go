package cli

import (
	"fmt"
	"path/filepath"

	"interviewcoach/internal/ai"
	"interviewcoach/internal/common"
	"interviewcoach/internal/config"
	"interviewcoach/internal/oracle"
	"interviewcoach/internal/pdfco"
	"interviewcoach/internal/types"
	"interviewcoach/internal/utils"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [resume-pdf]",
	Short: "Extract resume text and candidate name from a PDF",
	Long: `Convert a resume PDF to text with PDF.co, then ask the AI for the
candidate's name and a cleaned resume. When the name cannot be extracted the
raw text is kept.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: resolveOutputFormat(&extractConfig),
	RunE:    runExtract,
}

var extractConfig common.CommandConfig

func init() {
	addOutputFlags(extractCmd, &extractConfig)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	filename := args[0]
	if utils.Classify(filename) != utils.KindPDF {
		logger.Warn("File may not be a PDF", "filename", filename)
	}
	if cfg.PDFCo.APIKey == "" {
		return fmt.Errorf("pdfco.apiKey is required for resume extraction")
	}

	data, err := common.NewFileProcessor(logger).ReadBinaryFile(filename, cfg.App.MaxFileSize)
	if err != nil {
		return err
	}

	if !utils.LooksLikePDF(data) {
		logger.Warn("File has no PDF header", "filename", filename)
	}

	logger.Info("Starting resume extraction",
		"file", filename,
		"size", utils.FormatFileSize(int64(len(data))),
		"output_format", extractConfig.OutputFormat)

	text, err := pdfco.NewClient(cfg.PDFCo, logger).ExtractText(ctx, filepath.Base(filename), data)
	if err != nil {
		return fmt.Errorf("failed to extract resume text: %w", err)
	}

	candidate := oracle.Candidate{Resume: text}
	svc, err := newService(cfg, config.OperationExtract, logger)
	if err != nil {
		return err
	}
	defer closeService(svc, logger)

	completion, err := svc.Run(ctx, "", ai.PromptVars{Resume: text})
	if err != nil {
		logger.Warn("Candidate name extraction failed, using raw text", "error", err.Error())
	} else {
		candidate = oracle.ParseCandidate(completion.Text, text)
		if completion.Usage != nil {
			logger.Info("AI token usage",
				"input_tokens", completion.Usage.InputTokens,
				"output_tokens", completion.Usage.OutputTokens,
				"total_tokens", completion.Usage.TotalTokens)
		}
	}

	output := types.ExtractOutput{File: filename, Name: candidate.Name, Resume: candidate.Resume}
	return common.NewOutputHandler(logger).HandleOutput(output, extractConfig)
}
