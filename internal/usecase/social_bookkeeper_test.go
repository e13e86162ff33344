package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-jobalert-scheduler/internal/domain"
	"go-jobalert-scheduler/internal/usecase"
	"go-jobalert-scheduler/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var pageTarget = domain.SocialTarget{Platform: "facebook", TargetID: "page-1"}

func liveJob(id int64) *domain.JobPosting {
	return &domain.JobPosting{ID: id, Title: "Go Engineer", CompanyName: "Acme", Slug: "go-engineer", Status: domain.JobLive}
}

func newBookkeeper(jobs *MockJobRepo, store *memSocialStore, platform *MockPlatform) domain.SocialUsecase {
	return usecase.NewSocialUsecase(jobs, store,
		map[string]domain.SocialPlatform{platform.Name(): platform},
		nil,
		usecase.SocialConfig{SiteURL: "https://jobs.example.com", Targets: []domain.SocialTarget{pageTarget}},
	)
}

func postedCount(t *testing.T, store *memSocialStore, jobID int64) int {
	t.Helper()
	posted, err := store.ListPosted(context.Background(), jobID)
	require.NoError(t, err)
	return len(posted)
}

func TestSocialBookkeeper_RepublishRetiresOldPost(t *testing.T) {
	jobs := new(MockJobRepo)
	jobs.On("GetByID", mock.Anything, int64(7)).Return(liveJob(7), nil)

	store := &memSocialStore{}
	old := store.seed(domain.SocialPostRecord{JobID: 7, Platform: "facebook", TargetID: "page-1", PostID: "post-1", Status: domain.SocialPostPosted, CreatedAt: time.Now()})

	platform := &MockPlatform{name: "facebook"}
	platform.On("Delete", mock.Anything, "page-1", "post-1").Return(nil).Once()
	platform.On("Post", mock.Anything, "page-1", domain.SocialPostPayload{
		JobID:   7,
		Message: "Go Engineer at Acme",
		Link:    "https://jobs.example.com/jobs/go-engineer",
	}).Return("post-2", nil).Once()

	created, err := newBookkeeper(jobs, store, platform).OnPublish(context.Background(), 7, nil)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "post-2", created[0].PostID)
	assert.Equal(t, domain.SocialPostPosted, created[0].Status)

	all, _ := store.ListByJob(context.Background(), 7)
	require.Len(t, all, 2)
	assert.Equal(t, old.ID, all[0].ID)
	assert.Equal(t, domain.SocialPostDeleted, all[0].Status)
	assert.NotNil(t, all[0].DeletedAt)
	assert.Equal(t, 1, postedCount(t, store, 7))

	platform.AssertExpectations(t)
}

func TestSocialBookkeeper_RemoteDeleteFailureStillRetires(t *testing.T) {
	jobs := new(MockJobRepo)
	jobs.On("GetByID", mock.Anything, int64(7)).Return(liveJob(7), nil)

	store := &memSocialStore{}
	store.seed(domain.SocialPostRecord{JobID: 7, Platform: "facebook", TargetID: "page-1", PostID: "post-1", Status: domain.SocialPostPosted})

	platform := &MockPlatform{name: "facebook"}
	platform.On("Delete", mock.Anything, "page-1", "post-1").Return(errors.New("gone already"))
	platform.On("Post", mock.Anything, "page-1", mock.Anything).Return("post-2", nil)

	created, err := newBookkeeper(jobs, store, platform).OnPublish(context.Background(), 7, []string{"facebook"})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, 1, postedCount(t, store, 7))
}

func TestSocialBookkeeper_LocalRetireFailureBlocksRepost(t *testing.T) {
	jobs := new(MockJobRepo)
	jobs.On("GetByID", mock.Anything, int64(7)).Return(liveJob(7), nil)

	store := &memSocialStore{}
	old := store.seed(domain.SocialPostRecord{JobID: 7, Platform: "facebook", TargetID: "page-1", PostID: "post-1", Status: domain.SocialPostPosted})
	store.markErrOn = map[int64]error{old.ID: errors.New("db down")}

	platform := &MockPlatform{name: "facebook"}
	platform.On("Delete", mock.Anything, "page-1", "post-1").Return(nil)

	created, err := newBookkeeper(jobs, store, platform).OnPublish(context.Background(), 7, nil)
	assert.Error(t, err)
	assert.Empty(t, created)
	platform.AssertNotCalled(t, "Post", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 1, postedCount(t, store, 7))
}

func TestSocialBookkeeper_RemotePostFailureCreatesNothing(t *testing.T) {
	jobs := new(MockJobRepo)
	jobs.On("GetByID", mock.Anything, int64(7)).Return(liveJob(7), nil)

	store := &memSocialStore{}
	platform := &MockPlatform{name: "facebook"}
	platform.On("Post", mock.Anything, "page-1", mock.Anything).Return("", errors.New("rate limited"))

	created, err := newBookkeeper(jobs, store, platform).OnPublish(context.Background(), 7, nil)
	require.NoError(t, err)
	assert.Empty(t, created)
	all, _ := store.ListByJob(context.Background(), 7)
	assert.Empty(t, all)
}

func TestSocialBookkeeper_JobNotLive(t *testing.T) {
	jobs := new(MockJobRepo)
	job := liveJob(7)
	job.Status = domain.JobDisabled
	jobs.On("GetByID", mock.Anything, int64(7)).Return(job, nil)

	_, err := newBookkeeper(jobs, &memSocialStore{}, &MockPlatform{name: "facebook"}).OnPublish(context.Background(), 7, nil)
	assert.ErrorIs(t, err, domain.ErrJobNotLive)
}

func TestSocialBookkeeper_UnknownPlatform(t *testing.T) {
	jobs := new(MockJobRepo)
	jobs.On("GetByID", mock.Anything, int64(7)).Return(liveJob(7), nil)

	_, err := newBookkeeper(jobs, &memSocialStore{}, &MockPlatform{name: "facebook"}).OnPublish(context.Background(), 7, []string{"myspace"})
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 400, appErr.Code)
}

func TestSocialBookkeeper_OnRemove(t *testing.T) {
	store := &memSocialStore{}
	store.seed(domain.SocialPostRecord{JobID: 7, Platform: "facebook", TargetID: "page-1", PostID: "post-1", Status: domain.SocialPostPosted})
	store.seed(domain.SocialPostRecord{JobID: 7, Platform: "facebook", TargetID: "group-9", PostID: "post-3", Status: domain.SocialPostPosted})
	store.seed(domain.SocialPostRecord{JobID: 8, Platform: "facebook", TargetID: "page-1", PostID: "post-4", Status: domain.SocialPostPosted})

	platform := &MockPlatform{name: "facebook"}
	platform.On("Delete", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	err := newBookkeeper(new(MockJobRepo), store, platform).OnRemove(context.Background(), 7)
	require.NoError(t, err)
	assert.Zero(t, postedCount(t, store, 7))
	assert.Equal(t, 1, postedCount(t, store, 8))
	platform.AssertNumberOfCalls(t, "Delete", 2)
}

func TestSocialTransitions(t *testing.T) {
	assert.True(t, domain.IsSocialTransitionAllowed(domain.SocialPostNone, domain.SocialPostPosted))
	assert.True(t, domain.IsSocialTransitionAllowed(domain.SocialPostPosted, domain.SocialPostDeleted))
	assert.True(t, domain.IsSocialTransitionAllowed(domain.SocialPostDeleted, domain.SocialPostPosted))
	assert.False(t, domain.IsSocialTransitionAllowed(domain.SocialPostPosted, domain.SocialPostPosted))
	assert.False(t, domain.IsSocialTransitionAllowed(domain.SocialPostNone, domain.SocialPostDeleted))
}
