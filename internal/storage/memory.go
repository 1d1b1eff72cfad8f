package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps feedback in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*FeedbackRecord
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*FeedbackRecord),
		now:     time.Now,
	}
}

func (s *MemoryStore) CreateFeedback(_ context.Context, params CreateFeedbackParams) (*CreateFeedbackResult, error) {
	if err := params.Validate(); err != nil {
		return &CreateFeedbackResult{Success: false}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	id := params.FeedbackID
	createdAt := now
	if existing, ok := s.records[id]; ok && id != "" {
		if existing.InterviewID != params.InterviewID || existing.UserID != params.UserID {
			return &CreateFeedbackResult{Success: false}, ownerMismatch(id, params.InterviewID)
		}
		createdAt = existing.CreatedAt
	}
	if id == "" {
		id = uuid.NewString()
	}

	s.records[id] = &FeedbackRecord{
		ID:          id,
		InterviewID: params.InterviewID,
		UserID:      params.UserID,
		Transcript:  params.Transcript.Clone(),
		Tone:        params.Tone,
		Feedback:    params.Feedback,
		CreatedAt:   createdAt,
		UpdatedAt:   now,
	}
	return &CreateFeedbackResult{Success: true, FeedbackID: id}, nil
}

func (s *MemoryStore) GetFeedback(_ context.Context, interviewID, userID string) (*FeedbackRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *FeedbackRecord
	for _, r := range s.records {
		if r.InterviewID != interviewID || r.UserID != userID {
			continue
		}
		if latest == nil || r.UpdatedAt.After(latest.UpdatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, notFound(interviewID, userID)
	}
	copied := *latest
	copied.Transcript = latest.Transcript.Clone()
	return &copied, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Driver() string { return "memory" }

func (s *MemoryStore) Close() error { return nil }
