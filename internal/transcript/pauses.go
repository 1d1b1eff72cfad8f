package transcript

// DefaultPauseThreshold is the silence, in seconds, above which a gap between
// two words counts as a pause.
const DefaultPauseThreshold = 1.5

// Pause is a silence between two consecutive recognized words.
type Pause struct {
	PrecedingWord string  `json:"from"`
	FollowingWord string  `json:"to"`
	GapSeconds    float64 `json:"gap"`
}

// PauseReport lists the pauses of one qualifying user answer. Answer is the
// 1-based position among answers that had more than one word.
type PauseReport struct {
	Answer int     `json:"answer"`
	Pauses []Pause `json:"pauses"`
}

// AnalyzePauses returns every adjacent word pair whose gap exceeds
// threshold, in order. Overlapping words (negative gaps) are never pauses.
func AnalyzePauses(words []Word, threshold float64) []Pause {
	pauses := []Pause{}
	for i := 1; i < len(words); i++ {
		gap := words[i].Start - words[i-1].End
		if gap <= 0 || !(gap > threshold) {
			continue
		}
		pauses = append(pauses, Pause{
			PrecedingWord: words[i-1].Text,
			FollowingWord: words[i].Text,
			GapSeconds:    gap,
		})
	}
	return pauses
}

// AnalyzeSessionPauses runs AnalyzePauses over each user message with more
// than one timed word.
func AnalyzeSessionPauses(t Transcript, threshold float64) []PauseReport {
	reports := []PauseReport{}
	for _, msg := range t {
		if msg.Speaker != SpeakerUser || len(msg.Words) <= 1 {
			continue
		}
		reports = append(reports, PauseReport{
			Answer: len(reports) + 1,
			Pauses: AnalyzePauses(msg.Words, threshold),
		})
	}
	return reports
}

// CountPauses totals the pauses across reports.
func CountPauses(reports []PauseReport) int {
	total := 0
	for _, r := range reports {
		total += len(r.Pauses)
	}
	return total
}
