package session

import (
	"fmt"
	"strings"
)

// Assistant configures the hosted voice assistant for a call.
type Assistant struct {
	Name         string      `json:"name"`
	FirstMessage string      `json:"firstMessage"`
	Transcriber  Transcriber `json:"transcriber"`
	Voice        Voice       `json:"voice"`
	Model        Model       `json:"model"`
}

type Transcriber struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Language string `json:"language"`
}

type Voice struct {
	Provider string `json:"provider"`
	VoiceID  string `json:"voiceId"`
	Model    string `json:"model,omitempty"`
	Language string `json:"language,omitempty"`
}

type Model struct {
	Provider string         `json:"provider"`
	Model    string         `json:"model"`
	Messages []ModelMessage `json:"messages"`
}

type ModelMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StartRequest is sent to the transport to begin a call. Interview calls
// carry an Assistant; generate calls carry a WorkflowID.
type StartRequest struct {
	Assistant      *Assistant        `json:"assistant,omitempty"`
	WorkflowID     string            `json:"workflowId,omitempty"`
	VariableValues map[string]string `json:"variableValues"`
}

const defaultCandidateName = "Candidate"

const englishInterviewerPrompt = `Hey %s, you are a professional interviewer running a real-time voice job interview.
Use the questions in {{questions}} as your guide and adapt follow-ups to the candidate's answers.
Start by asking the candidate to introduce themselves.
Watch for communication, problem solving, technical depth, adaptability, motivation, confidence,
teamwork, ownership, cultural fit, leadership, decision making, time management and emotional intelligence.
Keep replies short and natural. Follow up politely when an answer is vague.
Never give scores or verdicts during the call. Thank the candidate warmly at the end.`

const arabicInterviewerPrompt = `مرحبًا %s، أنت مُقابِل محترف تجري مقابلة عمل صوتية مباشرة.
استخدم الأسئلة الواردة في {{questions}} كمرشد، وعدّل أسئلة المتابعة حسب إجابات المرشح.
ابدأ بطلب تعريف شخصي ومهني من المرشح.
راقب التواصل، وحل المشكلات، والعمق الفني، والقدرة على التكيف، والدافعية، والثقة بالنفس،
والعمل الجماعي، وتحمل المسؤولية، والقيادة، واتخاذ القرار، وإدارة الوقت، والذكاء العاطفي.
اجعل ردودك قصيرة وطبيعية، ولا تعطِ أي تقييم أثناء المقابلة، واشكر المرشح في النهاية.`

// AssistantFor builds the voice assistant for a language ("ar" selects
// Arabic, anything else English) greeting the candidate by name.
func AssistantFor(language, name string) Assistant {
	if strings.TrimSpace(name) == "" {
		name = defaultCandidateName
	}

	if language == "ar" {
		return Assistant{
			Name:         "Interviewer",
			FirstMessage: fmt.Sprintf("مرحبًا %s، أنا مساعدك في الموارد البشرية. سأرشدك خلال هذه المقابلة. لنبدأ عندما تكون مستعدًا.", name),
			Transcriber:  Transcriber{Provider: "11labs", Model: "scribe_v1", Language: "ar"},
			Voice: Voice{
				Provider: "11labs",
				VoiceID:  "vgsapVXnlLvlrWNbPs6y",
				Model:    "eleven_turbo_v2_5",
				Language: "ar",
			},
			Model: Model{
				Provider: "openai",
				Model:    "gpt-4",
				Messages: []ModelMessage{{Role: "system", Content: fmt.Sprintf(arabicInterviewerPrompt, name)}},
			},
		}
	}

	return Assistant{
		Name:         "Interviewer",
		FirstMessage: fmt.Sprintf("Hey %s, I'm your AI HR assistant. I'm here to guide you through this interview. Let's begin whenever you're ready.", name),
		Transcriber:  Transcriber{Provider: "deepgram", Model: "nova-2", Language: "en"},
		Voice:        Voice{Provider: "vapi", VoiceID: "Paige"},
		Model: Model{
			Provider: "openai",
			Model:    "gpt-4",
			Messages: []ModelMessage{{Role: "system", Content: fmt.Sprintf(englishInterviewerPrompt, name)}},
		},
	}
}

// FormatQuestions renders questions as "- q" lines for the assistant prompt.
func FormatQuestions(questions []string) string {
	lines := make([]string, 0, len(questions))
	for _, q := range questions {
		if q = strings.TrimSpace(q); q != "" {
			lines = append(lines, "- "+q)
		}
	}
	return strings.Join(lines, "\n")
}
