package session

import (
	"context"

	"interviewcoach/internal/events"
	"interviewcoach/internal/storage"
	"interviewcoach/internal/transcript"
)

// runPipeline analyzes the transcript frozen at FINISHED. It runs at most
// once per controller and stops without side effects once the session is
// closed.
func (c *Controller) runPipeline(t transcript.Transcript) {
	defer close(c.done)
	ctx := c.ctx

	if !c.setPhase(PhaseAnalyzing) {
		return
	}

	duration := c.duration(t)
	results := Results{
		Pauses:          transcript.AnalyzeSessionPauses(t, c.cfg.PauseThreshold),
		Duration:        FormatDuration(duration),
		DurationSeconds: duration.Seconds(),
	}
	c.publishSessionFinished(ctx, t, results)

	results.Tone = c.deps.Tone.RequestTone(ctx, t.UserText())
	if ctx.Err() != nil {
		c.log.Debug("Session closed during tone analysis")
		return
	}

	if c.cfg.Mode == ModeGenerate {
		if c.report(results) {
			c.redirect(c.cfg.HomePath)
		}
		return
	}

	feedback := c.deps.Feedback.RequestFeedback(ctx, t.RoleText())
	if ctx.Err() != nil {
		c.log.Debug("Session closed during feedback analysis")
		return
	}
	results.Feedback = &feedback

	if id, ok := c.persist(ctx, t, results); ok {
		if c.report(results) {
			c.redirect(FeedbackPath(c.cfg.InterviewID))
		}
		c.log.Info("Interview feedback saved", "feedback_id", id)
		return
	}

	if c.report(results) {
		c.setPhase(PhaseFeedbackReady)
	}
}

// persist saves the feedback when the session is bound to an interview and
// user. It reports the stored feedback id on success.
func (c *Controller) persist(ctx context.Context, t transcript.Transcript, results Results) (string, bool) {
	if !c.hasIdentity() {
		c.log.Info("Skipping feedback persistence without interview and user identity")
		return "", false
	}
	if c.deps.Store == nil {
		c.log.Warn("No feedback store configured")
		return "", false
	}

	res, err := c.deps.Store.CreateFeedback(ctx, storage.CreateFeedbackParams{
		InterviewID: c.cfg.InterviewID,
		UserID:      c.cfg.UserID,
		Transcript:  t,
		FeedbackID:  c.cfg.FeedbackID,
		Tone:        &results.Tone,
		Feedback:    results.Feedback,
	})
	if err != nil {
		c.log.LogError(err, "Failed to save interview feedback")
		return "", false
	}
	if res == nil || !res.Success || res.FeedbackID == "" {
		c.log.Warn("Feedback store did not return a feedback id")
		return "", false
	}

	if c.deps.Publisher != nil {
		if err := c.deps.Publisher.PublishFeedbackCreated(ctx, events.FeedbackCreated{
			FeedbackID:  res.FeedbackID,
			InterviewID: c.cfg.InterviewID,
			UserID:      c.cfg.UserID,
		}); err != nil {
			c.log.Warn("Failed to publish feedback.created", "error", err.Error())
		}
	}
	return res.FeedbackID, true
}

func (c *Controller) publishSessionFinished(ctx context.Context, t transcript.Transcript, results Results) {
	if c.deps.Publisher == nil {
		return
	}
	c.mu.Lock()
	finishedAt := c.finishedAt
	c.mu.Unlock()

	err := c.deps.Publisher.PublishSessionFinished(ctx, events.SessionFinished{
		InterviewID:     c.cfg.InterviewID,
		UserID:          c.cfg.UserID,
		Mode:            string(c.cfg.Mode),
		Language:        c.cfg.Language,
		Messages:        len(t),
		PauseCount:      transcript.CountPauses(results.Pauses),
		DurationSeconds: results.DurationSeconds,
		FinishedAt:      finishedAt,
	})
	if err != nil {
		c.log.Warn("Failed to publish session.finished", "error", err.Error())
	}
}

// setPhase records and announces a phase unless the session is closed.
func (c *Controller) setPhase(phase Phase) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.phase = phase
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.deps.Observer.StateChanged(snap)
	return true
}

// report stores the results and hands them to the observer.
func (c *Controller) report(results Results) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	stored := results
	c.results = &stored
	c.mu.Unlock()

	c.deps.Observer.ResultsReady(results)
	return true
}

func (c *Controller) redirect(path string) {
	if !c.setPhase(PhaseRedirected) {
		return
	}
	c.deps.Navigator.Navigate(path)
}
