package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kidolearn/kidolearn-api/internal/repository/postgres"
	"github.com/kidolearn/kidolearn-api/internal/testutil"
)

func TestAppSessionRepository_CloseOpen(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewAppSessionRepository(testDB.DB)
	ctx := context.Background()

	child := testutil.NewChildBuilder().Build(t, testDB.DB)
	session := testutil.NewSessionBuilder().WithChild(child).Build(t, testDB.DB)

	endTime := session.StartTime.Add(5 * time.Minute)

	closed, err := repo.CloseOpen(ctx, session.ID, endTime, 300)
	require.NoError(t, err)
	assert.True(t, closed)

	// A second close is a no-op; the conditional update must not match.
	closed, err = repo.CloseOpen(ctx, session.ID, endTime.Add(time.Hour), 9999)
	require.NoError(t, err)
	assert.False(t, closed)

	got, err := repo.GetBySessionIDForParent(ctx, session.SessionID, child.ParentID)
	require.NoError(t, err)
	require.NotNil(t, got.EndTime)
	require.NotNil(t, got.Duration)
	assert.Equal(t, int64(300), *got.Duration)
	assert.WithinDuration(t, endTime, *got.EndTime, time.Second)
}

func TestAppSessionRepository_GetBySessionIDForParent(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewAppSessionRepository(testDB.DB)
	ctx := context.Background()

	child := testutil.NewChildBuilder().WithName("Maya").Build(t, testDB.DB)
	session := testutil.NewSessionBuilder().WithChild(child).Build(t, testDB.DB)

	otherParent := testutil.NewParentBuilder().Build(t, testDB.DB)

	t.Run("owner can read the session with its child preloaded", func(t *testing.T) {
		got, err := repo.GetBySessionIDForParent(ctx, session.SessionID, child.ParentID)
		require.NoError(t, err)
		assert.Equal(t, session.ID, got.ID)
		require.NotNil(t, got.Child)
		assert.Equal(t, "Maya", got.Child.Name)
	})

	t.Run("another parent gets record not found", func(t *testing.T) {
		_, err := repo.GetBySessionIDForParent(ctx, session.SessionID, otherParent.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("unknown session id", func(t *testing.T) {
		_, err := repo.GetBySessionIDForParent(ctx, "sess-does-not-exist", child.ParentID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestAppSessionRepository_ListAndCount(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewAppSessionRepository(testDB.DB)
	ctx := context.Background()

	parent := testutil.NewParentBuilder().Build(t, testDB.DB)
	childA := testutil.NewChildBuilder().WithParent(parent).Build(t, testDB.DB)
	childB := testutil.NewChildBuilder().WithParent(parent).Build(t, testDB.DB)

	otherChild := testutil.NewChildBuilder().Build(t, testDB.DB)
	testutil.NewSessionBuilder().WithChild(otherChild).Build(t, testDB.DB)

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		testutil.NewSessionBuilder().
			WithChild(childA).
			WithStartTime(base.Add(-time.Duration(i) * time.Hour)).
			Closed(120).
			Build(t, testDB.DB)
	}
	testutil.NewSessionBuilder().
		WithChild(childB).
		WithStartTime(base.Add(-30 * time.Minute)).
		Closed(60).
		Build(t, testDB.DB)

	t.Run("lists only the parent's sessions newest first", func(t *testing.T) {
		sessions, err := repo.GetByParentID(ctx, parent.ID, nil, 20, 0)
		require.NoError(t, err)
		require.Len(t, sessions, 4)
		assert.Equal(t, childA.ID, sessions[0].ChildID)
		assert.Equal(t, childB.ID, sessions[1].ChildID)
		for _, s := range sessions {
			require.NotNil(t, s.Child)
		}

		count, err := repo.CountByParentID(ctx, parent.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)
	})

	t.Run("child filter narrows the scope", func(t *testing.T) {
		sessions, err := repo.GetByParentID(ctx, parent.ID, &childB.ID, 20, 0)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, childB.ID, sessions[0].ChildID)

		count, err := repo.CountByParentID(ctx, parent.ID, &childB.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("limit and offset page through the set", func(t *testing.T) {
		sessions, err := repo.GetByParentID(ctx, parent.ID, nil, 2, 2)
		require.NoError(t, err)
		assert.Len(t, sessions, 2)
	})

	t.Run("a child of another parent yields nothing", func(t *testing.T) {
		sessions, err := repo.GetByParentID(ctx, parent.ID, &otherChild.ID, 20, 0)
		require.NoError(t, err)
		assert.Len(t, sessions, 0)
	})

	t.Run("unknown parent yields nothing", func(t *testing.T) {
		sessions, err := repo.GetByParentID(ctx, uuid.New(), nil, 20, 0)
		require.NoError(t, err)
		assert.Len(t, sessions, 0)
	})
}

func TestAppSessionRepository_UsageByChildID(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewAppSessionRepository(testDB.DB)
	ctx := context.Background()

	child := testutil.NewChildBuilder().Build(t, testDB.DB)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	yesterday := today.AddDate(0, 0, -1)
	lastWeek := today.AddDate(0, 0, -8)

	// Two closed sessions today, one yesterday, one outside the window,
	// and one still open that must not count.
	testutil.NewSessionBuilder().WithChild(child).WithStartTime(today.Add(9 * time.Hour)).Closed(600).Build(t, testDB.DB)
	testutil.NewSessionBuilder().WithChild(child).WithStartTime(today.Add(11 * time.Hour)).Closed(300).Build(t, testDB.DB)
	testutil.NewSessionBuilder().WithChild(child).WithStartTime(yesterday.Add(15 * time.Hour)).Closed(120).Build(t, testDB.DB)
	testutil.NewSessionBuilder().WithChild(child).WithStartTime(lastWeek.Add(10 * time.Hour)).Closed(999).Build(t, testDB.DB)
	testutil.NewSessionBuilder().WithChild(child).WithStartTime(today.Add(12 * time.Hour)).Build(t, testDB.DB)

	rows, err := repo.UsageByChildID(ctx, child.ID, yesterday)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, yesterday.Format("2006-01-02"), rows[0].Date)
	assert.Equal(t, int64(120), rows[0].TotalSeconds)
	assert.Equal(t, int64(1), rows[0].SessionCount)

	assert.Equal(t, today.Format("2006-01-02"), rows[1].Date)
	assert.Equal(t, int64(900), rows[1].TotalSeconds)
	assert.Equal(t, int64(2), rows[1].SessionCount)

	t.Run("window spanning everything includes the old session", func(t *testing.T) {
		rows, err := repo.UsageByChildID(ctx, child.ID, lastWeek)
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})

	t.Run("no closed sessions yields no rows", func(t *testing.T) {
		quiet := testutil.NewChildBuilder().Build(t, testDB.DB)
		rows, err := repo.UsageByChildID(ctx, quiet.ID, lastWeek)
		require.NoError(t, err)
		assert.Len(t, rows, 0)
	})
}
