package leads

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levrixhq/levrix/pkg/database/dbtest"
	"github.com/levrixhq/levrix/pkg/domain"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fixedLimiter struct {
	plan  string
	limit int
}

func (f fixedLimiter) LeadLimit(ctx context.Context, userID string) (string, int, error) {
	return f.plan, f.limit, nil
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) InvalidateUser(ctx context.Context, userID string) error {
	c.calls++
	return nil
}

// failingRepo fails updates on demand
type failingRepo struct {
	Repository
	failUpdate bool
	failInsert bool
}

func (f *failingRepo) Update(ctx context.Context, l *Lead) error {
	if f.failUpdate {
		return errors.New("connection reset")
	}
	return f.Repository.Update(ctx, l)
}

func (f *failingRepo) Insert(ctx context.Context, l *Lead) error {
	if f.failInsert {
		return errors.New("connection reset")
	}
	return f.Repository.Insert(ctx, l)
}

func newTestService(t *testing.T) (*Service, *failingRepo, *countingInvalidator) {
	t.Helper()
	db := dbtest.NewClient(t)
	dbtest.SeedUser(t, db, "u1", "owner@levrix.io")
	dbtest.SeedUser(t, db, "u2", "other@levrix.io")

	repo := &failingRepo{Repository: NewSQLRepository(db)}
	inv := &countingInvalidator{}
	svc := NewService(repo, nil, nil, inv, nil)
	svc.SetClock(func() time.Time { return testNow })
	return svc, repo, inv
}

func TestService_CreateDefaultsAndStandardizes(t *testing.T) {
	svc, _, inv := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, "u1", CreateInput{Name: "  sarah JOHNSON ", Email: "sarah@realty.com", Phone: "555-0100"})
	require.NoError(t, err)

	assert.Equal(t, "Sarah Johnson", view.Name)
	assert.Equal(t, SourceManual, view.Source)
	assert.Equal(t, StatusNew, view.Status)
	assert.Equal(t, StageInquiry, view.Stage)
	assert.Equal(t, SentimentNeutral, view.Sentiment)
	assert.False(t, IsTempID(view.ID))
	assert.Equal(t, AgingHealthy, view.AgingStatus)
	assert.False(t, view.Health.Dirty())
	assert.Equal(t, 1, inv.calls)

	stored, err := svc.Get(ctx, "u1", view.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sarah Johnson", stored.Name)
	assert.Equal(t, 1, svc.Book("u1").Len())
}

func TestService_CreateFlagsInvalidEmailButStores(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.SetVerifier(&stubVerifier{ok: false})

	view, err := svc.Create(context.Background(), "u1", CreateInput{Name: "Jo", Email: "jo@realestate.com"})
	require.NoError(t, err)
	assert.True(t, view.Health.IsInvalidEmail)

	again, err := svc.Get(context.Background(), "u1", view.ID)
	require.NoError(t, err)
	assert.True(t, again.Health.IsInvalidEmail, "verdict survives the metadata round trip")
}

func TestService_CreateRequiresName(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Create(context.Background(), "u1", CreateInput{Name: "   "})
	assert.True(t, domain.IsValidation(err))
}

func TestService_CreateRollsBackOnStoreError(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.failInsert = true

	_, err := svc.Create(context.Background(), "u1", CreateInput{Name: "Jo"})
	require.Error(t, err)
	assert.Zero(t, svc.Book("u1").Len())
}

func TestService_PlanLimit(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.limiter = fixedLimiter{plan: "Starter", limit: 1}
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", CreateInput{Name: "One"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, "u1", CreateInput{Name: "Two"})
	assert.True(t, domain.IsPlanLimitExceeded(err))

	_, err = svc.Create(ctx, "u2", CreateInput{Name: "Other user"})
	assert.NoError(t, err)
}

func TestService_UpdateAndRollback(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, "u1", CreateInput{Name: "Jo"})
	require.NoError(t, err)

	name := "jo ANNE"
	score := 140
	updated, err := svc.Update(ctx, "u1", view.ID, UpdateInput{Name: &name, PriorityScore: &score})
	require.NoError(t, err)
	assert.Equal(t, "Jo Anne", updated.Name)
	require.NotNil(t, updated.PriorityScore)
	assert.Equal(t, 100, *updated.PriorityScore)

	repo.failUpdate = true
	other := "Someone Else"
	_, err = svc.Update(ctx, "u1", view.ID, UpdateInput{Name: &other})
	require.Error(t, err)

	got, ok := svc.Book("u1").Get(view.ID)
	require.True(t, ok)
	assert.Equal(t, "Jo Anne", got.Name)
	assert.False(t, svc.Book("u1").Pending(view.ID))
}

func TestService_UpdateOtherUsersLead(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, "u1", CreateInput{Name: "Jo"})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, "u2", view.ID, StatusWon)
	assert.True(t, domain.IsNotFound(err))
}

func TestService_PipelineOps(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, "u1", CreateInput{Name: "Jo"})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		view, err = svc.AdvanceStage(ctx, "u1", view.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, StageClosed, view.Stage)

	due := testNow.Add(-time.Hour)
	view, err = svc.ScheduleTask(ctx, "u1", view.ID, "Call back", due)
	require.NoError(t, err)
	assert.Equal(t, "Call back", view.NextFollowUpTask)
	assert.False(t, view.TaskCompleted)

	view, err = svc.CompleteTask(ctx, "u1", view.ID)
	require.NoError(t, err)
	assert.True(t, view.TaskCompleted)

	view, err = svc.Archive(ctx, "u1", view.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, view.Status)

	_, err = svc.UpdateStatus(ctx, "u1", view.ID, Status("Exploded"))
	assert.True(t, domain.IsValidation(err))
}

func TestService_MarkContacted(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, "u1", CreateInput{Name: "Jo"})
	require.NoError(t, err)

	first := testNow.Add(time.Hour)
	require.NoError(t, svc.MarkContacted(ctx, "u1", []string{view.ID}, first))
	second := testNow.Add(2 * time.Hour)
	require.NoError(t, svc.MarkContacted(ctx, "u1", []string{view.ID}, second))

	got, err := svc.Get(ctx, "u1", view.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastContacted)
	require.NotNil(t, got.FirstContactedAt)
	assert.True(t, got.LastContacted.Equal(second))
	assert.True(t, got.FirstContactedAt.Equal(first))
}

func TestService_ListFiltersAndPaginates(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := svc.Create(ctx, "u1", CreateInput{Name: "Buyer", PropertyAddress: "1 Harbour View"})
		require.NoError(t, err)
	}
	won, err := svc.Create(ctx, "u1", CreateInput{Name: "Winner", Status: StatusWon, Email: "win@realty.com"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u1", CreateInput{Name: "Dup", Email: "WIN@realty.com"})
	require.NoError(t, err)

	page, err := svc.List(ctx, "u1", Filter{})
	require.NoError(t, err)
	assert.Len(t, page.Data, DefaultPageSize)
	assert.Equal(t, 14, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Equal(t, 2, page.DirtyCount)

	page, err = svc.List(ctx, "u1", Filter{Page: 2})
	require.NoError(t, err)
	assert.Len(t, page.Data, 4)

	page, err = svc.List(ctx, "u1", Filter{Status: FilterWon})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, won.ID, page.Data[0].ID)

	page, err = svc.List(ctx, "u1", Filter{Status: FilterDirty})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)

	page, err = svc.List(ctx, "u1", Filter{Search: "harbour", Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 12, page.Pagination.Total)
	assert.Equal(t, MaxPageSize, page.Pagination.Limit)

	svc.SetClock(func() time.Time { return testNow.Add(48 * time.Hour) })
	page, err = svc.List(ctx, "u1", Filter{Status: FilterCritical})
	require.NoError(t, err)
	assert.Equal(t, 14, page.Pagination.Total)
}

func TestService_DuplicatesAndStandardizeAll(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "u1", CreateInput{Name: "A", Phone: "555-0001"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, "u1", CreateInput{Name: "B", Phone: "(555) 0001", Email: "b@realty.com"})
	require.NoError(t, err)
	c, err := svc.Create(ctx, "u1", CreateInput{Name: "C", Email: "B@REALTY.COM"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u1", CreateInput{Name: "D", Phone: "555-9999"})
	require.NoError(t, err)

	groups, err := svc.Duplicates(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.ElementsMatch(t, []string{a.ID, b.ID, c.ID}, groups[0])

	// Names written around the service need cleanup.
	raw := Lead{ID: "legacy-1", UserID: "u1", Name: "mary SMITH", Source: SourceManual, Status: StatusNew,
		Stage: StageInquiry, CreatedAt: testNow, UpdatedAt: testNow}
	require.NoError(t, repo.Insert(ctx, &raw))

	dirty, err := svc.DirtyCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, dirty)

	changed, err := svc.StandardizeAll(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"legacy-1"}, changed)

	got, err := svc.Get(ctx, "u1", "legacy-1")
	require.NoError(t, err)
	assert.Equal(t, "Mary Smith", got.Name)
}
