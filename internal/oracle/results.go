package oracle

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ToneAnalysis is the structured tone reply. Fields the oracle omits stay empty.
type ToneAnalysis struct {
	Confidence string `json:"confidence,omitempty"`
	Tone       string `json:"tone,omitempty"`
	Energy     string `json:"energy,omitempty"`
	Summary    string `json:"summary,omitempty"`
}

// ToneResult is either a structured analysis or free text. Exactly one is set.
type ToneResult struct {
	Analysis *ToneAnalysis
	Text     string
}

// IsStructured reports whether the oracle returned a parseable object
func (r ToneResult) IsStructured() bool {
	return r.Analysis != nil
}

// String renders the result for plain-text output
func (r ToneResult) String() string {
	if r.Analysis == nil {
		return r.Text
	}
	return fmt.Sprintf("tone=%s confidence=%s energy=%s: %s",
		r.Analysis.Tone, r.Analysis.Confidence, r.Analysis.Energy, r.Analysis.Summary)
}

// MarshalJSON writes the analysis as an object and free text as a string
func (r ToneResult) MarshalJSON() ([]byte, error) {
	if r.Analysis != nil {
		return json.Marshal(r.Analysis)
	}
	return json.Marshal(r.Text)
}

// UnmarshalJSON accepts either shape and normalizes it
func (r *ToneResult) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = NormalizeTone(v)
	return nil
}

func toneFromMap(m map[string]any) *ToneAnalysis {
	return &ToneAnalysis{
		Confidence: stringify(m["confidence"]),
		Tone:       stringify(m["tone"]),
		Energy:     stringify(m["energy"]),
		Summary:    stringify(m["summary"]),
	}
}

// Feedback is the structured interview evaluation, one narrative per trait
type Feedback struct {
	Communication                string `json:"communication,omitempty"`
	AnalyticalThinking           string `json:"analytical_thinking_problem_solving,omitempty"`
	TechnicalDepth               string `json:"technical_depth_accuracy,omitempty"`
	AdaptabilityLearningMindset  string `json:"adaptability_learning_mindset,omitempty"`
	Motivation                   string `json:"motivation,omitempty"`
	Confidence                   string `json:"confidence,omitempty"`
	CollaborationTeamwork        string `json:"collaboration_teamwork,omitempty"`
	AccountabilityOwnership      string `json:"accountability_ownership,omitempty"`
	CulturalFit                  string `json:"cultural_fit_values_alignment,omitempty"`
	LeadershipInfluence          string `json:"leadership_influence,omitempty"`
	DecisionMakingQuality        string `json:"decision_making_quality,omitempty"`
	TimeManagementPrioritization string `json:"time_management_prioritization,omitempty"`
	EmotionalIntelligence        string `json:"emotional_intelligence,omitempty"`
	FinalAssessment              string `json:"final_assessment,omitempty"`
}

// Trait is one labelled feedback section
type Trait struct {
	Key   string
	Label string
	Text  string
}

// Traits lists the feedback sections in display order, skipping empty ones
func (f *Feedback) Traits() []Trait {
	if f == nil {
		return nil
	}
	all := []Trait{
		{"communication", "Communication", f.Communication},
		{"analytical_thinking_problem_solving", "Analytical Thinking & Problem Solving", f.AnalyticalThinking},
		{"technical_depth_accuracy", "Technical Depth & Accuracy", f.TechnicalDepth},
		{"adaptability_learning_mindset", "Adaptability & Learning Mindset", f.AdaptabilityLearningMindset},
		{"motivation", "Motivation", f.Motivation},
		{"confidence", "Confidence", f.Confidence},
		{"collaboration_teamwork", "Collaboration & Teamwork", f.CollaborationTeamwork},
		{"accountability_ownership", "Accountability & Ownership", f.AccountabilityOwnership},
		{"cultural_fit_values_alignment", "Cultural Fit & Values Alignment", f.CulturalFit},
		{"leadership_influence", "Leadership & Influence", f.LeadershipInfluence},
		{"decision_making_quality", "Decision Making Quality", f.DecisionMakingQuality},
		{"time_management_prioritization", "Time Management & Prioritization", f.TimeManagementPrioritization},
		{"emotional_intelligence", "Emotional Intelligence", f.EmotionalIntelligence},
		{"final_assessment", "Final Assessment", f.FinalAssessment},
	}
	traits := make([]Trait, 0, len(all))
	for _, t := range all {
		if t.Text != "" {
			traits = append(traits, t)
		}
	}
	return traits
}

func feedbackFromMap(m map[string]any) *Feedback {
	return &Feedback{
		Communication:                stringify(m["communication"]),
		AnalyticalThinking:           stringify(m["analytical_thinking_problem_solving"]),
		TechnicalDepth:               stringify(m["technical_depth_accuracy"]),
		AdaptabilityLearningMindset:  stringify(m["adaptability_learning_mindset"]),
		Motivation:                   stringify(m["motivation"]),
		Confidence:                   stringify(m["confidence"]),
		CollaborationTeamwork:        stringify(m["collaboration_teamwork"]),
		AccountabilityOwnership:      stringify(m["accountability_ownership"]),
		CulturalFit:                  stringify(m["cultural_fit_values_alignment"]),
		LeadershipInfluence:          stringify(m["leadership_influence"]),
		DecisionMakingQuality:        stringify(m["decision_making_quality"]),
		TimeManagementPrioritization: stringify(m["time_management_prioritization"]),
		EmotionalIntelligence:        stringify(m["emotional_intelligence"]),
		FinalAssessment:              stringify(m["final_assessment"]),
	}
}

// FeedbackResult is either structured feedback or the raw reply text
type FeedbackResult struct {
	Feedback *Feedback
	Raw      string
}

// IsStructured reports whether the reply parsed into named traits
func (r FeedbackResult) IsStructured() bool {
	return r.Feedback != nil
}

// MarshalJSON writes structured feedback as its trait object and
// unstructured feedback as {"raw": ...}.
func (r FeedbackResult) MarshalJSON() ([]byte, error) {
	if r.Feedback != nil {
		return json.Marshal(r.Feedback)
	}
	return json.Marshal(struct {
		Raw string `json:"raw"`
	}{r.Raw})
}

// UnmarshalJSON tells the two shapes apart by the presence of "raw"
func (r *FeedbackResult) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = ParseFeedback(s)
		return nil
	}

	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if raw, ok := obj["raw"]; ok {
		*r = FeedbackResult{Raw: stringify(raw)}
		return nil
	}
	*r = FeedbackResult{Feedback: feedbackFromMap(obj)}
	return nil
}
