// Package oracle requests tone and feedback analysis from the text-generation
// service and normalizes its loosely formatted replies.
package oracle

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Fallback values reported instead of errors.
const (
	ToneFallback     = "Could not analyze tone."
	NoToneDetected   = "No tone detected."
	FeedbackFallback = "Could not generate feedback."
)

var (
	fencePrefix = regexp.MustCompile("(?i)^```(json)?")
	fenceSuffix = regexp.MustCompile("```$")
	jsonMarker  = regexp.MustCompile(`(?i)^json`)
)

// StripFence removes a markdown code fence around the reply and a leading
// "json" language marker, then trims whitespace.
func StripFence(s string) string {
	cleaned := stripCodeFence(s)
	cleaned = jsonMarker.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

func stripCodeFence(s string) string {
	cleaned := strings.TrimSpace(s)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	cleaned = fencePrefix.ReplaceAllString(cleaned, "")
	cleaned = fenceSuffix.ReplaceAllString(strings.TrimSpace(cleaned), "")
	return strings.TrimSpace(cleaned)
}

// parseObject decodes s as a JSON object. Arrays and scalars are rejected.
func parseObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// NormalizeTone turns a tone reply into a ToneResult. Objects are kept as
// structured analysis; strings are cleaned and parsed when they hold a JSON
// object, otherwise returned verbatim; anything else is NoToneDetected.
func NormalizeTone(reply any) ToneResult {
	switch v := reply.(type) {
	case ToneResult:
		return v
	case *ToneAnalysis:
		if v == nil {
			return ToneResult{Text: NoToneDetected}
		}
		return ToneResult{Analysis: v}
	case map[string]any:
		return ToneResult{Analysis: toneFromMap(v)}
	case string:
		cleaned := StripFence(v)
		if obj, ok := parseObject(cleaned); ok {
			return ToneResult{Analysis: toneFromMap(obj)}
		}
		return ToneResult{Text: cleaned}
	default:
		return ToneResult{Text: NoToneDetected}
	}
}

// ParseFeedback parses a feedback reply. When the cleaned reply is not a JSON
// object the result carries the original text as Raw.
func ParseFeedback(text string) FeedbackResult {
	if obj, ok := parseObject(StripFence(text)); ok {
		return FeedbackResult{Feedback: feedbackFromMap(obj)}
	}
	return FeedbackResult{Raw: text}
}

// ParseQuestions reads a question list. A JSON array of strings is preferred;
// otherwise every non-empty line is a question.
func ParseQuestions(text string) []string {
	cleaned := stripCodeFence(text)

	var items []any
	if err := json.Unmarshal([]byte(cleaned), &items); err == nil {
		questions := make([]string, 0, len(items))
		for _, item := range items {
			if q := strings.TrimSpace(stringify(item)); q != "" {
				questions = append(questions, q)
			}
		}
		return questions
	}

	questions := []string{}
	for line := range strings.SplitSeq(cleaned, "\n") {
		if q := strings.TrimSpace(line); q != "" {
			questions = append(questions, q)
		}
	}
	return questions
}

// Candidate is the name and resume text pulled from an uploaded resume
type Candidate struct {
	Name   string `json:"name"`
	Resume string `json:"resume"`
}

// ParseCandidate reads an extraction reply. Missing or unparseable fields
// fall back to an empty name and the original resume text.
func ParseCandidate(text, resumeText string) Candidate {
	candidate := Candidate{Resume: resumeText}
	obj, ok := parseObject(StripFence(text))
	if !ok {
		return candidate
	}
	candidate.Name = strings.TrimSpace(stringify(obj["name"]))
	if resume := stringify(obj["resume"]); strings.TrimSpace(resume) != "" {
		candidate.Resume = resume
	}
	return candidate
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64, bool:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
