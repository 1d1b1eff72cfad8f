package formatters

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"interviewcoach/internal/oracle"
	"interviewcoach/internal/transcript"
	"interviewcoach/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// GlobalRegistry is the registry used by the CLI output handler
var GlobalRegistry = NewFormatterRegistry()

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "PauseAnalysisOutput", &PausesTextFormatter{})
	registry.RegisterFormatter("markdown", "PauseAnalysisOutput", &PausesMarkdownFormatter{})
	registry.RegisterFormatter("text", "SessionReport", &ReportTextFormatter{})
	registry.RegisterFormatter("markdown", "SessionReport", &ReportMarkdownFormatter{})
	registry.RegisterFormatter("text", "QuestionsOutput", &QuestionsTextFormatter{})
	registry.RegisterFormatter("markdown", "QuestionsOutput", &QuestionsMarkdownFormatter{})
	registry.RegisterFormatter("text", "ExtractOutput", &ExtractTextFormatter{})
	registry.RegisterFormatter("markdown", "ExtractOutput", &ExtractMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.PauseAnalysisOutput:
		return "PauseAnalysisOutput"
	case types.SessionReport:
		return "SessionReport"
	case types.QuestionsOutput:
		return "QuestionsOutput"
	case types.ExtractOutput:
		return "ExtractOutput"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

func writePauses(b *strings.Builder, reports []transcript.PauseReport, bullet string) {
	if len(reports) == 0 {
		b.WriteString("No answers with word timings.\n")
		return
	}
	for _, r := range reports {
		if len(r.Pauses) == 0 {
			fmt.Fprintf(b, "%sAnswer %d: no pauses\n", bullet, r.Answer)
			continue
		}
		fmt.Fprintf(b, "%sAnswer %d: %d pause(s)\n", bullet, r.Answer, len(r.Pauses))
		for _, p := range r.Pauses {
			fmt.Fprintf(b, "    %.2fs between %q and %q\n", p.GapSeconds, p.PrecedingWord, p.FollowingWord)
		}
	}
}

// PausesTextFormatter handles text formatting for pause analysis
type PausesTextFormatter struct{}

func (f *PausesTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.PauseAnalysisOutput)
	if !ok {
		return "", fmt.Errorf("expected PauseAnalysisOutput, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== PAUSE ANALYSIS ===\n")
	fmt.Fprintf(&output, "Messages: %d\n", result.Messages)
	fmt.Fprintf(&output, "Threshold: %.2fs\n", result.Threshold)
	fmt.Fprintf(&output, "Pauses: %d\n\n", result.PauseCount)
	writePauses(&output, result.Reports, "")
	return output.String(), nil
}

func (f *PausesTextFormatter) SupportedType() string {
	return "PauseAnalysisOutput"
}

// PausesMarkdownFormatter handles markdown formatting for pause analysis
type PausesMarkdownFormatter struct{}

func (f *PausesMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.PauseAnalysisOutput)
	if !ok {
		return "", fmt.Errorf("expected PauseAnalysisOutput, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Pause Analysis\n\n")
	fmt.Fprintf(&output, "**Messages:** %d  \n**Threshold:** %.2fs  \n**Pauses:** %d\n\n",
		result.Messages, result.Threshold, result.PauseCount)
	writePauses(&output, result.Reports, "- ")
	return output.String(), nil
}

func (f *PausesMarkdownFormatter) SupportedType() string {
	return "PauseAnalysisOutput"
}

func toneLines(tone oracle.ToneResult) []string {
	if !tone.IsStructured() {
		return []string{tone.Text}
	}
	a := tone.Analysis
	lines := []string{}
	for _, kv := range [][2]string{
		{"Tone", a.Tone},
		{"Confidence", a.Confidence},
		{"Energy", a.Energy},
		{"Summary", a.Summary},
	} {
		if kv[1] != "" {
			lines = append(lines, kv[0]+": "+kv[1])
		}
	}
	return lines
}

// ReportTextFormatter handles text formatting for session reports
type ReportTextFormatter struct{}

func (f *ReportTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.SessionReport)
	if !ok {
		return "", fmt.Errorf("expected SessionReport, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== INTERVIEW REPORT ===\n")
	fmt.Fprintf(&output, "Messages: %d\n", result.Messages)
	if result.Duration != "" {
		fmt.Fprintf(&output, "Duration: %s\n", result.Duration)
	}
	output.WriteString("\n")

	output.WriteString("=== TONE ===\n")
	for _, line := range toneLines(result.Tone) {
		output.WriteString(line + "\n")
	}
	output.WriteString("\n")

	fmt.Fprintf(&output, "=== PAUSES (%d) ===\n", result.PauseCount)
	writePauses(&output, result.Pauses, "")

	if result.Feedback != nil {
		output.WriteString("\n=== FEEDBACK ===\n")
		if !result.Feedback.IsStructured() {
			output.WriteString(result.Feedback.Raw + "\n")
		}
		for _, trait := range result.Feedback.Feedback.Traits() {
			fmt.Fprintf(&output, "%s:\n%s\n\n", trait.Label, trait.Text)
		}
	}
	return output.String(), nil
}

func (f *ReportTextFormatter) SupportedType() string {
	return "SessionReport"
}

// ReportMarkdownFormatter handles markdown formatting for session reports
type ReportMarkdownFormatter struct{}

func (f *ReportMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.SessionReport)
	if !ok {
		return "", fmt.Errorf("expected SessionReport, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Interview Report\n\n")
	fmt.Fprintf(&output, "**Messages:** %d", result.Messages)
	if result.Duration != "" {
		fmt.Fprintf(&output, "  \n**Duration:** %s", result.Duration)
	}
	output.WriteString("\n\n## Tone\n\n")
	for _, line := range toneLines(result.Tone) {
		output.WriteString("- " + line + "\n")
	}

	fmt.Fprintf(&output, "\n## Pauses (%d)\n\n", result.PauseCount)
	writePauses(&output, result.Pauses, "- ")

	if result.Feedback != nil {
		output.WriteString("\n## Feedback\n\n")
		if !result.Feedback.IsStructured() {
			output.WriteString(result.Feedback.Raw + "\n")
		}
		for _, trait := range result.Feedback.Feedback.Traits() {
			fmt.Fprintf(&output, "### %s\n%s\n\n", trait.Label, trait.Text)
		}
	}
	return output.String(), nil
}

func (f *ReportMarkdownFormatter) SupportedType() string {
	return "SessionReport"
}

// QuestionsTextFormatter handles text formatting for generated questions
type QuestionsTextFormatter struct{}

func (f *QuestionsTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.QuestionsOutput)
	if !ok {
		return "", fmt.Errorf("expected QuestionsOutput, got %T", data)
	}

	var output strings.Builder
	fmt.Fprintf(&output, "=== INTERVIEW QUESTIONS (%s) ===\n\n", result.Language)
	for i, q := range result.Questions {
		fmt.Fprintf(&output, "%d. %s\n", i+1, q)
	}
	return output.String(), nil
}

func (f *QuestionsTextFormatter) SupportedType() string {
	return "QuestionsOutput"
}

// QuestionsMarkdownFormatter handles markdown formatting for generated questions
type QuestionsMarkdownFormatter struct{}

func (f *QuestionsMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.QuestionsOutput)
	if !ok {
		return "", fmt.Errorf("expected QuestionsOutput, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Interview Questions\n\n")
	for _, q := range result.Questions {
		output.WriteString("- " + q + "\n")
	}
	return output.String(), nil
}

func (f *QuestionsMarkdownFormatter) SupportedType() string {
	return "QuestionsOutput"
}

// ExtractTextFormatter handles text formatting for extracted resumes
type ExtractTextFormatter struct{}

func (f *ExtractTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ExtractOutput)
	if !ok {
		return "", fmt.Errorf("expected ExtractOutput, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== CANDIDATE ===\n")
	name := result.Name
	if name == "" {
		name = "(not found)"
	}
	fmt.Fprintf(&output, "Name: %s\n\n", name)
	output.WriteString("=== RESUME ===\n")
	output.WriteString(result.Resume)
	output.WriteString("\n")
	return output.String(), nil
}

func (f *ExtractTextFormatter) SupportedType() string {
	return "ExtractOutput"
}

// ExtractMarkdownFormatter handles markdown formatting for extracted resumes
type ExtractMarkdownFormatter struct{}

func (f *ExtractMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ExtractOutput)
	if !ok {
		return "", fmt.Errorf("expected ExtractOutput, got %T", data)
	}

	var output strings.Builder
	if result.Name != "" {
		fmt.Fprintf(&output, "# %s\n\n", result.Name)
	} else {
		output.WriteString("# Resume\n\n")
	}
	output.WriteString(result.Resume)
	output.WriteString("\n")
	return output.String(), nil
}

func (f *ExtractMarkdownFormatter) SupportedType() string {
	return "ExtractOutput"
}
