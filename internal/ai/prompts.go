package ai

import (
	"strconv"
	"strings"

	"interviewcoach/internal/config"
)

// SystemPrompts contains all system-level instructions for AI interactions
type SystemPrompts struct {
	Questions string
	Tone      string
	Feedback  string
	Extract   string
}

// UserPrompts contains user-level prompt templates. Templates use named
// placeholders ({{resume}}, {{count}}, {{text}}, {{transcript}}) so prompt
// files can reorder them freely.
type UserPrompts struct {
	Questions       string
	QuestionsArabic string
	Tone            string
	Feedback        string
	Extract         string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	Questions: `You are an experienced technical recruiter preparing a spoken mock interview.
Questions are read aloud by a voice assistant, so keep each one short, self-contained and free of special characters such as "/" or "*".`,

	Tone: `You are an AI communication analyst. You assess how a candidate sounds, not whether their answers are correct.`,

	Feedback: `You are an AI evaluator reviewing a candidate's full voice interview transcript.
Be fair, specific and professional. Provide both praise and constructive feedback and draw evidence from multiple parts of the transcript.`,

	Extract: `You extract structured data from resume text. You never rewrite or summarize the resume.`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	Questions: `Prepare {{count}} questions for a job interview based on the following resume.
The questions should be relevant to the candidate's experience, skills, and background.
Please return only the questions, without any additional text. Format as a JSON array of strings.
Resume:
{{resume}}`,

	QuestionsArabic: `قم بإعداد {{count}} أسئلة لمقابلة عمل بناءً على السيرة الذاتية التالية. يجب أن تكون الأسئلة ذات صلة بخبرة ومهارات وخلفية المرشح. يرجى إرجاع الأسئلة فقط، بدون أي نص إضافي. صِغها كمصفوفة JSON من السلاسل النصية.
السيرة الذاتية:
{{resume}}`,

	Tone: `Analyze the tone, confidence, and energy of the candidate's responses. Focus on verbal cues such as filler words ("um", "uh"), hesitations, vocal tone, emotional expressiveness, pace, and overall delivery.

Return your response strictly in the following JSON format:

{
  "confidence": "<low | medium | high>",
  "tone": "<professional | informal | nervous | enthusiastic | monotone | etc.>",
  "energy": "<low | medium | high>",
  "summary": "<2-3 sentence narrative on overall impression>"
}

Answers:
{{text}}`,

	Feedback: `Write a detailed, structured evaluation of the candidate's performance covering the traits below. One answer can provide clues about multiple traits.

Rules:
- Do not include numeric scores or rating systems.
- Do not use markdown or code formatting. Return only raw JSON.
- No repetition across sections; insights must be unique per trait.

Return feedback in this exact JSON format:

{
  "communication": "...",
  "analytical_thinking_problem_solving": "...",
  "technical_depth_accuracy": "...",
  "adaptability_learning_mindset": "...",
  "motivation": "...",
  "confidence": "...",
  "collaboration_teamwork": "...",
  "accountability_ownership": "...",
  "cultural_fit_values_alignment": "...",
  "leadership_influence": "...",
  "decision_making_quality": "...",
  "time_management_prioritization": "...",
  "emotional_intelligence": "...",
  "final_assessment": "..."
}

Trait guidance:
- communication: clarity, flow, coherence, use of filler words, fluency
- analytical_thinking_problem_solving: logic, structure, creative reasoning, examples
- technical_depth_accuracy: mastery of technical concepts, terminology, problem explanations
- adaptability_learning_mindset: response to change, curiosity, willingness to learn
- motivation: passion, personal drive, enthusiasm, values alignment
- confidence: tone, assertiveness, hesitation, belief in their own abilities
- collaboration_teamwork: team dynamics, humility, shared goals
- accountability_ownership: responsibility for mistakes or results, self-awareness
- cultural_fit_values_alignment: match with role and company, professionalism
- leadership_influence: initiative, persuasion, vision, stakeholder communication
- decision_making_quality: structured thinking, ownership of tough calls
- time_management_prioritization: planning, deadlines, prioritizing under pressure
- emotional_intelligence: empathy, social awareness, handling conflict

Transcript:
{{transcript}}`,

	Extract: `Extract ONLY the candidate's full name from the following resume text. The name is usually at the top and may be in all caps or bold.
Return a JSON object: { "name": "<name>", "resume": "<resume text>" }. If you cannot find a name, set "name" to an empty string.
Resume:
{{resume}}`,
}

// defaultPrompts returns the built-in system and user templates for an operation
func defaultPrompts(operation, language string) (string, string) {
	switch operation {
	case config.OperationQuestions:
		if language == "ar" {
			return DefaultSystemPrompts.Questions, DefaultUserPrompts.QuestionsArabic
		}
		return DefaultSystemPrompts.Questions, DefaultUserPrompts.Questions
	case config.OperationTone:
		return DefaultSystemPrompts.Tone, DefaultUserPrompts.Tone
	case config.OperationFeedback:
		return DefaultSystemPrompts.Feedback, DefaultUserPrompts.Feedback
	case config.OperationExtract:
		return DefaultSystemPrompts.Extract, DefaultUserPrompts.Extract
	default:
		return "", ""
	}
}

// resolvePrompts picks each prompt by priority: loaded from file, then
// inline configuration, then the built-in default for the language.
func resolvePrompts(operation, language string, cfg *config.OperationAIConfig) (string, string) {
	loaded := config.GetPromptsForOperation(operation)
	defSystem, defUser := defaultPrompts(operation, language)
	return resolvePrompt(loaded.System, cfg.Prompts.System, defSystem),
		resolvePrompt(loaded.User, cfg.Prompts.User, defUser)
}

func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}

// PromptVars holds the values substituted into user prompt templates
type PromptVars struct {
	Resume     string
	Count      int
	Text       string
	Transcript string
}

func renderPrompt(template string, vars PromptVars) string {
	return strings.NewReplacer(
		"{{resume}}", vars.Resume,
		"{{count}}", strconv.Itoa(vars.Count),
		"{{text}}", vars.Text,
		"{{transcript}}", vars.Transcript,
	).Replace(template)
}
