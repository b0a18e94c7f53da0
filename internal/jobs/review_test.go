package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewloop/reviewloop/internal/core"
	"github.com/reviewloop/reviewloop/internal/github"
	"github.com/reviewloop/reviewloop/internal/storage"
	"github.com/reviewloop/reviewloop/internal/templates"
)

// memStore is an in-memory storage.Store for job tests.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	reviews  map[int64]*core.Review
	comments map[int64][]core.ReviewComment
}

func newMemStore() *memStore {
	return &memStore{
		reviews:  make(map[int64]*core.Review),
		comments: make(map[int64][]core.ReviewComment),
	}
}

func (m *memStore) CreateReview(_ context.Context, review *core.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	review.ID = m.nextID
	copied := *review
	m.reviews[review.ID] = &copied
	return nil
}

func (m *memStore) SetReviewState(_ context.Context, id int64, state core.ReviewState, failureReason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return storage.ErrNotFound
	}
	r.State = state
	r.FailureReason = failureReason
	return nil
}

func (m *memStore) GetReview(_ context.Context, id int64) (*core.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *memStore) ListReviews(context.Context, string, int) ([]core.Review, error) {
	return nil, nil
}

func (m *memStore) SaveComments(_ context.Context, reviewID int64, comments []core.ReviewComment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments[reviewID] = comments
	return nil
}

func (m *memStore) ListComments(_ context.Context, reviewID int64) ([]core.ReviewComment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.comments[reviewID], nil
}

func (m *memStore) ListCommentsByStatus(context.Context, int64, core.CommentStatus) ([]core.ReviewComment, error) {
	return nil, nil
}

func (m *memStore) UpdateCommentStatus(context.Context, string, core.CommentStatus) error {
	return nil
}

// fakeSource serves a canned diff.
type fakeSource struct {
	diff    string
	diffErr error
}

func (f *fakeSource) GetAuthenticatedUser(context.Context) (github.User, error) {
	return github.User{}, nil
}
func (f *fakeSource) ListRepositories(context.Context) ([]github.Repository, error) {
	return nil, nil
}
func (f *fakeSource) ListPullRequests(context.Context, string, string) ([]github.PullRequest, error) {
	return nil, nil
}
func (f *fakeSource) GetPullRequestDiff(context.Context, string, string, int) (string, error) {
	return f.diff, f.diffErr
}
func (f *fakeSource) SubmitReview(context.Context, string, string, int, string, []core.ReviewComment) error {
	return nil
}

// fakeAnalyzer plays back comments or an error.
type fakeAnalyzer struct {
	comments []core.ReviewComment
	err      error
}

func (f *fakeAnalyzer) AnalyzeCode(context.Context, string, core.ReviewTemplate) ([]core.ReviewComment, error) {
	return f.comments, f.err
}

func (f *fakeAnalyzer) Model() string { return "test-model" }

func testRequest(t *testing.T) *core.ReviewRequest {
	t.Helper()
	req, err := core.NewReviewRequest("octo", "widgets", 7, "", "tester")
	require.NoError(t, err)
	return req
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReviewJob_Success(t *testing.T) {
	store := newMemStore()
	analyzer := &fakeAnalyzer{comments: []core.ReviewComment{
		{ID: "c1", File: "a.go", Line: 3, Content: "x", Severity: core.SeverityInfo, Status: core.StatusPending, Category: core.CategoryCodeQuality},
	}}
	job := NewReviewJob(&fakeSource{diff: "+added"}, analyzer, store, templates.NewRegistry(), discardLogger())

	err := job.Run(context.Background(), testRequest(t))
	require.NoError(t, err)

	review, err := store.GetReview(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, core.ReviewSucceeded, review.State)
	assert.Equal(t, "octo/widgets", review.RepoFullName)
	assert.Equal(t, "test-model", review.Model)

	saved, err := store.ListComments(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, saved, 1)
}

func TestReviewJob_AnalysisFailureRecordsReason(t *testing.T) {
	store := newMemStore()
	analyzer := &fakeAnalyzer{err: core.NewLLMError(core.ReasonQuotaExceeded, "rate_limited", "slow down")}
	job := NewReviewJob(&fakeSource{diff: "+added"}, analyzer, store, templates.NewRegistry(), discardLogger())

	err := job.Run(context.Background(), testRequest(t))
	require.Error(t, err)

	llmErr, ok := core.AsLLMError(err)
	require.True(t, ok, "the typed error survives wrapping")
	assert.Equal(t, core.ReasonQuotaExceeded, llmErr.Reason)

	review, getErr := store.GetReview(context.Background(), 1)
	require.NoError(t, getErr)
	assert.Equal(t, core.ReviewFailed, review.State)
	assert.Equal(t, "quota_exceeded", review.FailureReason)
}

func TestReviewJob_DiffFailures(t *testing.T) {
	tests := []struct {
		name       string
		source     *fakeSource
		wantReason string
	}{
		{
			name:       "fetch error",
			source:     &fakeSource{diffErr: errors.New("boom")},
			wantReason: "diff_fetch_failed",
		},
		{
			name:       "empty diff",
			source:     &fakeSource{diff: "  \n"},
			wantReason: "empty_diff",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			job := NewReviewJob(tt.source, &fakeAnalyzer{}, store, templates.NewRegistry(), discardLogger())

			err := job.Run(context.Background(), testRequest(t))
			require.Error(t, err)

			review, getErr := store.GetReview(context.Background(), 1)
			require.NoError(t, getErr)
			assert.Equal(t, core.ReviewFailed, review.State)
			assert.Equal(t, tt.wantReason, review.FailureReason)
		})
	}
}

func TestReviewJob_UnknownTemplate(t *testing.T) {
	store := newMemStore()
	job := NewReviewJob(&fakeSource{diff: "+x"}, &fakeAnalyzer{}, store, templates.NewRegistry(), discardLogger())

	req := testRequest(t)
	req.TemplateName = "does-not-exist"

	err := job.Run(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template")
	// No review record is created for a request that cannot even start.
	_, getErr := store.GetReview(context.Background(), 1)
	assert.ErrorIs(t, getErr, storage.ErrNotFound)
}

func TestNewReviewJob_NilDependencies(t *testing.T) {
	assert.Panics(t, func() {
		NewReviewJob(nil, &fakeAnalyzer{}, newMemStore(), templates.NewRegistry(), discardLogger())
	})
	assert.Panics(t, func() {
		NewReviewJob(&fakeSource{}, nil, newMemStore(), templates.NewRegistry(), discardLogger())
	})
}
