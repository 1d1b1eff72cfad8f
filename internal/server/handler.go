package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"interviewcoach/internal/ai"
	"interviewcoach/internal/events"
	"interviewcoach/internal/observability"
	"interviewcoach/internal/oracle"
	"interviewcoach/internal/storage"
	"interviewcoach/internal/transcript"
	"interviewcoach/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultQuestionCount = 5
	maxUploadMemory      = 10 << 20
)

// runAI runs one generator call under the AI operation metrics
func (s *Server) runAI(ctx context.Context, om *observability.ObservabilityManager, operation string, gen oracle.Generator, language string, vars ai.PromptVars) (*ai.Completion, error) {
	if gen == nil {
		return nil, fmt.Errorf("%s service is not configured", operation)
	}

	var completion *ai.Completion
	err := om.GetMetrics().TrackAIOperation(ctx, operation, func(ctx context.Context) (*ai.TokenUsage, error) {
		out, aiErr := gen.Run(ctx, language, vars)
		completion = out
		if out == nil {
			return nil, aiErr
		}
		return out.Usage, aiErr
	})
	if err == nil && completion == nil {
		err = fmt.Errorf("%s service returned no completion", operation)
	}
	return completion, err
}

func failSpan(span trace.Span, err error, kind string) {
	span.RecordError(err)
	span.SetAttributes(attribute.String("error.type", kind))
}

// createQuestionsHandler generates interview questions and issues the proof token
func (s *Server) createQuestionsHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("interviewcoach.api").Start(r.Context(), "api.generate_questions")
		defer span.End()

		var req QuestionsRequest
		if err := parseJSONRequest(r, &req); err != nil {
			failSpan(span, err, "validation")
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Resume) == "" {
			failSpan(span, fmt.Errorf("missing resume"), "validation")
			writeErrorResponse(w, "No resume text provided.", "", http.StatusBadRequest)
			return
		}

		language := req.Language
		if language == "" {
			language = s.AppConfig.Interview.DefaultLanguage
		}
		count := req.Count
		if count <= 0 {
			count = s.AppConfig.Interview.QuestionCount
		}
		if count <= 0 {
			count = defaultQuestionCount
		}

		span.SetAttributes(
			attribute.Int("request.resume_length", len(req.Resume)),
			attribute.String("request.language", language),
			attribute.Int("request.count", count),
		)

		metrics := om.GetMetrics()
		completion, err := s.runAI(ctx, om, "questions", s.Deps.Questions, language, ai.PromptVars{
			Resume: req.Resume,
			Count:  count,
		})
		if err != nil {
			failSpan(span, err, "ai_processing")
			metrics.RecordBusiness(ctx, observability.QuestionsGenerated, false)
			s.Logger.LogError(err, "Question generation failed")
			writeErrorResponse(w, "Failed to generate questions.", err.Error(), http.StatusInternalServerError)
			return
		}

		questions := oracle.ParseQuestions(completion.Text)
		metrics.RecordBusiness(ctx, observability.QuestionsGenerated, true,
			attribute.String("language", language),
			attribute.Int("questions", len(questions)))
		span.SetAttributes(attribute.Int("response.questions", len(questions)))

		token := s.Guard.Issue(w)
		writeJSON(w, http.StatusOK, QuestionsResponse{Questions: questions, Token: token})
	}
}

// createToneHandler analyzes the tone of the candidate's answers
func (s *Server) createToneHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("interviewcoach.api").Start(r.Context(), "api.analyze_tone")
		defer span.End()

		var req ToneRequest
		if err := parseJSONRequest(r, &req); err != nil {
			failSpan(span, err, "validation")
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			failSpan(span, fmt.Errorf("missing text"), "validation")
			writeJSON(w, http.StatusBadRequest, map[string]string{"tone": "No text provided."})
			return
		}
		span.SetAttributes(attribute.Int("request.text_length", len(req.Text)))

		metrics := om.GetMetrics()
		completion, err := s.runAI(ctx, om, "tone", s.Deps.Tone, "", ai.PromptVars{Text: req.Text})
		if err != nil {
			failSpan(span, err, "ai_processing")
			metrics.RecordBusiness(ctx, observability.ToneAnalyzed, false)
			s.Logger.LogError(err, "Tone analysis failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"tone": oracle.ToneFallback})
			return
		}

		tone := oracle.NormalizeTone(completion.Text)
		metrics.RecordBusiness(ctx, observability.ToneAnalyzed, true,
			attribute.Bool("structured", tone.IsStructured()))
		writeJSON(w, http.StatusOK, map[string]any{"tone": tone})
	}
}

// createFeedbackHandler evaluates a role-prefixed transcript
func (s *Server) createFeedbackHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("interviewcoach.api").Start(r.Context(), "api.interview_feedback")
		defer span.End()

		var req FeedbackRequest
		if err := parseJSONRequest(r, &req); err != nil {
			failSpan(span, err, "validation")
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Transcript) == "" {
			failSpan(span, fmt.Errorf("missing transcript"), "validation")
			writeErrorResponse(w, "No transcript provided.", "", http.StatusBadRequest)
			return
		}
		span.SetAttributes(attribute.Int("request.transcript_length", len(req.Transcript)))

		feedback, err := s.evaluate(ctx, om, req.Transcript)
		if err != nil {
			failSpan(span, err, "ai_processing")
			writeErrorResponse(w, oracle.FeedbackFallback, "", http.StatusInternalServerError)
			return
		}
		if !feedback.IsStructured() {
			failSpan(span, fmt.Errorf("unparseable feedback"), "ai_format")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Invalid JSON from AI",
				"raw":   feedback.Raw,
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"feedback": feedback})
	}
}

// evaluate runs the feedback operation over a truncated transcript
func (s *Server) evaluate(ctx context.Context, om *observability.ObservabilityManager, text string) (oracle.FeedbackResult, error) {
	metrics := om.GetMetrics()
	completion, err := s.runAI(ctx, om, "feedback", s.Deps.Feedback, "", ai.PromptVars{
		Transcript: transcript.Truncate(text, s.AppConfig.Interview.FeedbackMaxChars),
	})
	if err != nil {
		metrics.RecordBusiness(ctx, observability.FeedbackGenerated, false)
		s.Logger.LogError(err, "Feedback generation failed")
		return oracle.FeedbackResult{}, err
	}

	feedback := oracle.ParseFeedback(completion.Text)
	metrics.RecordBusiness(ctx, observability.FeedbackGenerated, true,
		attribute.Bool("structured", feedback.IsStructured()))
	if !feedback.IsStructured() {
		s.Logger.Warn("Feedback reply was not valid JSON", "length", len(completion.Text))
	}
	return feedback, nil
}

// createExtractHandler converts an uploaded resume PDF into text and a candidate name
func (s *Server) createExtractHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("interviewcoach.api").Start(r.Context(), "api.extract_resume")
		defer span.End()

		if err := r.ParseMultipartForm(maxUploadMemory); err != nil && err != http.ErrNotMultipart {
			failSpan(span, err, "validation")
			writeErrorResponse(w, "Invalid upload", err.Error(), http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			failSpan(span, err, "validation")
			writeErrorResponse(w, "No file uploaded", "", http.StatusBadRequest)
			return
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(file)
		if err != nil {
			failSpan(span, err, "io")
			writeErrorResponse(w, err.Error(), "", http.StatusBadRequest)
			return
		}
		span.SetAttributes(
			attribute.String("request.file_name", header.Filename),
			attribute.Int("request.file_size", len(data)),
			attribute.Bool("request.pdf_header", utils.LooksLikePDF(data)),
		)

		metrics := om.GetMetrics()
		if s.Deps.PDF == nil {
			failSpan(span, fmt.Errorf("pdf extraction not configured"), "configuration")
			writeErrorResponse(w, "PDF extraction is not configured", "", http.StatusInternalServerError)
			return
		}
		text, err := s.Deps.PDF.ExtractText(ctx, header.Filename, data)
		if err != nil {
			failSpan(span, err, "extraction")
			metrics.RecordBusiness(ctx, observability.ResumeExtracted, false)
			s.Logger.LogError(err, "Resume extraction failed", "file", header.Filename)
			writeErrorResponse(w, err.Error(), "", http.StatusInternalServerError)
			return
		}

		candidate := oracle.Candidate{Resume: text}
		completion, err := s.runAI(ctx, om, "extract", s.Deps.Extract, "", ai.PromptVars{Resume: text})
		if err != nil {
			s.Logger.Warn("Candidate name extraction failed, using raw text", "error", err.Error())
		} else {
			candidate = oracle.ParseCandidate(completion.Text, text)
		}

		metrics.RecordBusiness(ctx, observability.ResumeExtracted, true,
			attribute.Bool("name_found", candidate.Name != ""))
		writeJSON(w, http.StatusOK, ExtractResponse{Text: candidate.Resume, Name: candidate.Name})
	}
}

// createSaveFeedbackHandler evaluates a finished interview and stores the result
func (s *Server) createSaveFeedbackHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("interviewcoach.api").Start(r.Context(), "api.save_feedback")
		defer span.End()

		var req SaveFeedbackRequest
		if err := parseJSONRequest(r, &req); err != nil {
			failSpan(span, err, "validation")
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		params := storage.CreateFeedbackParams{
			InterviewID: strings.TrimSpace(req.InterviewID),
			UserID:      strings.TrimSpace(req.UserID),
			FeedbackID:  req.FeedbackID,
			Transcript:  req.Transcript,
		}
		if err := params.Validate(); err != nil {
			failSpan(span, err, "validation")
			writeErrorResponse(w, "Missing interview identity", err.Error(), http.StatusBadRequest)
			return
		}
		if s.Deps.Store == nil {
			writeErrorResponse(w, "Feedback storage is not configured", "", http.StatusServiceUnavailable)
			return
		}
		span.SetAttributes(
			attribute.String("interview.id", params.InterviewID),
			attribute.Int("transcript.messages", len(req.Transcript)),
		)

		feedback, err := s.evaluate(ctx, om, req.Transcript.RoleText())
		if err != nil {
			failSpan(span, err, "ai_processing")
			writeErrorResponse(w, oracle.FeedbackFallback, "", http.StatusInternalServerError)
			return
		}
		params.Feedback = &feedback

		metrics := om.GetMetrics()
		res, err := s.Deps.Store.CreateFeedback(ctx, params)
		if err != nil {
			failSpan(span, err, "storage")
			metrics.RecordBusiness(ctx, observability.FeedbackPersisted, false)
			s.Logger.LogError(err, "Failed to save interview feedback", "interview_id", params.InterviewID)
			writeErrorResponse(w, "Failed to save feedback", err.Error(), http.StatusInternalServerError)
			return
		}
		metrics.RecordBusiness(ctx, observability.FeedbackPersisted, true)

		if err := s.Deps.Publisher.PublishFeedbackCreated(ctx, events.FeedbackCreated{
			FeedbackID:  res.FeedbackID,
			InterviewID: params.InterviewID,
			UserID:      params.UserID,
		}); err != nil {
			s.Logger.Warn("Failed to publish feedback.created", "error", err.Error())
		}

		writeJSON(w, http.StatusOK, res)
	}
}

// createGetFeedbackHandler returns the stored feedback of a user for an interview
func (s *Server) createGetFeedbackHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("interviewcoach.api").Start(r.Context(), "api.get_feedback")
		defer span.End()

		interviewID := r.PathValue("id")
		userID := r.URL.Query().Get("userId")
		span.SetAttributes(attribute.String("interview.id", interviewID))

		if s.Deps.Store == nil {
			writeErrorResponse(w, "Feedback Not Found", "", http.StatusNotFound)
			return
		}

		record, err := s.Deps.Store.GetFeedback(ctx, interviewID, userID)
		if storage.IsNotFound(err) {
			writeErrorResponse(w, "Feedback Not Found", "", http.StatusNotFound)
			return
		}
		if err != nil {
			failSpan(span, err, "storage")
			s.Logger.LogError(err, "Failed to load interview feedback", "interview_id", interviewID)
			writeErrorResponse(w, "Failed to load feedback", err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, record)
	}
}

