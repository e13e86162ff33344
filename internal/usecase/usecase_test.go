package usecase_test

import (
	"context"
	"sync"
	"time"

	"go-jobalert-scheduler/internal/domain"

	"github.com/stretchr/testify/mock"
)

// Mock Repositories
type MockRecipientRepo struct {
	mock.Mock
}

func (m *MockRecipientRepo) GetRecipient(ctx context.Context, id string, kind domain.RecipientKind) (*domain.RecipientRecord, error) {
	args := m.Called(ctx, id, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecipientRecord), args.Error(1)
}

func (m *MockRecipientRepo) ListEligible(ctx context.Context, kind domain.RecipientKind) ([]domain.RecipientRef, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RecipientRef), args.Error(1)
}

type MockJobRepo struct {
	mock.Mock
}

func (m *MockJobRepo) GetByID(ctx context.Context, id int64) (*domain.JobPosting, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JobPosting), args.Error(1)
}

func (m *MockJobRepo) FetchByStatusInWindow(ctx context.Context, status domain.JobStatus, window domain.Window) ([]domain.JobPosting, error) {
	args := m.Called(ctx, status, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JobPosting), args.Error(1)
}

func (m *MockJobRepo) FetchByStatus(ctx context.Context, status domain.JobStatus, limit int) ([]domain.JobPosting, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JobPosting), args.Error(1)
}

type MockPlatform struct {
	mock.Mock
	name string
}

func (m *MockPlatform) Name() string { return m.name }

func (m *MockPlatform) Post(ctx context.Context, targetID string, payload domain.SocialPostPayload) (string, error) {
	args := m.Called(ctx, targetID, payload)
	return args.String(0), args.Error(1)
}

func (m *MockPlatform) Delete(ctx context.Context, targetID, postID string) error {
	return m.Called(ctx, targetID, postID).Error(0)
}

type MockLedgerReader struct {
	mock.Mock
}

func (m *MockLedgerReader) ListSent(ctx context.Context, from, to time.Time) ([]domain.NotificationRecord, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.NotificationRecord), args.Error(1)
}

type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Archive(ctx context.Context, summary *domain.PassSummary) error {
	return m.Called(ctx, summary).Error(0)
}

// In-memory fakes for the stateful collaborators

type memLedger struct {
	mu      sync.Mutex
	records map[domain.NotificationKey]domain.NotificationRecord
	err     error
}

func newMemLedger() *memLedger {
	return &memLedger{records: make(map[domain.NotificationKey]domain.NotificationRecord)}
}

func (l *memLedger) Exists(_ context.Context, key domain.NotificationKey) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	_, ok := l.records[key]
	return ok, nil
}

func (l *memLedger) Record(_ context.Context, rec domain.NotificationRecord) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.records[rec.Key]; ok {
		return false, nil
	}
	l.records[rec.Key] = rec
	return true, nil
}

func (l *memLedger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

type memQueue struct {
	mu   sync.Mutex
	msgs []domain.Message
	err  error
}

func (q *memQueue) Enqueue(_ context.Context, msg domain.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.msgs = append(q.msgs, msg)
	return nil
}

func (q *memQueue) sent() []domain.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]domain.Message(nil), q.msgs...)
}

// memSocialStore enforces the "one Posted record per key" index like the table does.
type memSocialStore struct {
	mu        sync.Mutex
	nextID    int64
	records   []domain.SocialPostRecord
	markErrOn map[int64]error
}

func (s *memSocialStore) ListByJob(_ context.Context, jobID int64) ([]domain.SocialPostRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.SocialPostRecord
	for _, r := range s.records {
		if r.JobID == jobID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memSocialStore) ListPosted(_ context.Context, jobID int64) ([]domain.SocialPostRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.SocialPostRecord
	for _, r := range s.records {
		if r.JobID == jobID && r.Status == domain.SocialPostPosted {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memSocialStore) Create(_ context.Context, rec *domain.SocialPostRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.JobID == rec.JobID && r.Platform == rec.Platform && r.TargetID == rec.TargetID && r.Status == domain.SocialPostPosted {
			return domain.ErrDuplicate
		}
	}
	s.nextID++
	rec.ID = s.nextID
	s.records = append(s.records, *rec)
	return nil
}

func (s *memSocialStore) MarkDeleted(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.markErrOn[id]; err != nil {
		return err
	}
	for i := range s.records {
		if s.records[i].ID == id && s.records[i].Status == domain.SocialPostPosted {
			s.records[i].Status = domain.SocialPostDeleted
			s.records[i].DeletedAt = &at
		}
	}
	return nil
}

func (s *memSocialStore) seed(rec domain.SocialPostRecord) domain.SocialPostRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec.ID = s.nextID
	s.records = append(s.records, rec)
	return rec
}

func i64(v int64) *int64 { return &v }
func intp(v int) *int { return &v }
