package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kidolearn/kidolearn-api/internal/repository/postgres"
	"github.com/kidolearn/kidolearn-api/internal/testutil"
)

func TestScheduledVideoRepository_GetByChildID(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewScheduledVideoRepository(testDB.DB)
	ctx := context.Background()

	child := testutil.NewChildBuilder().Build(t, testDB.DB)
	otherChild := testutil.NewChildBuilder().Build(t, testDB.DB)

	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		testutil.NewScheduledVideoBuilder().
			WithChild(child).
			WithVideoRef(fmt.Sprintf("video%05d_", i)).
			WithScheduledAt(base.AddDate(0, 0, i)).
			Build(t, testDB.DB)
	}
	testutil.NewScheduledVideoBuilder().WithChild(otherChild).WithScheduledAt(base).Build(t, testDB.DB)

	t.Run("lists the child's schedule soonest first", func(t *testing.T) {
		videos, err := repo.GetByChildID(ctx, child.ID, nil, nil, 20, 0)
		require.NoError(t, err)
		require.Len(t, videos, 5)
		assert.Equal(t, "video00000_", videos[0].VideoRef)
		assert.Equal(t, "video00004_", videos[4].VideoRef)

		count, err := repo.CountByChildID(ctx, child.ID, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(5), count)
	})

	t.Run("window bounds are inclusive", func(t *testing.T) {
		from := base.AddDate(0, 0, 1)
		to := base.AddDate(0, 0, 3)
		videos, err := repo.GetByChildID(ctx, child.ID, &from, &to, 20, 0)
		require.NoError(t, err)
		require.Len(t, videos, 3)
		assert.Equal(t, "video00001_", videos[0].VideoRef)
		assert.Equal(t, "video00003_", videos[2].VideoRef)

		count, err := repo.CountByChildID(ctx, child.ID, &from, &to)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("open-ended lower bound", func(t *testing.T) {
		from := base.AddDate(0, 0, 3)
		videos, err := repo.GetByChildID(ctx, child.ID, &from, nil, 20, 0)
		require.NoError(t, err)
		assert.Len(t, videos, 2)
	})

	t.Run("limit and offset page through the schedule", func(t *testing.T) {
		videos, err := repo.GetByChildID(ctx, child.ID, nil, nil, 2, 2)
		require.NoError(t, err)
		require.Len(t, videos, 2)
		assert.Equal(t, "video00002_", videos[0].VideoRef)
	})

	t.Run("other children never leak in", func(t *testing.T) {
		videos, err := repo.GetByChildID(ctx, otherChild.ID, nil, nil, 20, 0)
		require.NoError(t, err)
		assert.Len(t, videos, 1)
	})
}

func TestScheduledVideoRepository_GetByIDForParent(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewScheduledVideoRepository(testDB.DB)
	ctx := context.Background()

	child := testutil.NewChildBuilder().Build(t, testDB.DB)
	video := testutil.NewScheduledVideoBuilder().WithChild(child).WithTitle("Counting Song").Build(t, testDB.DB)

	otherParent := testutil.NewParentBuilder().Build(t, testDB.DB)

	t.Run("owner reads the video", func(t *testing.T) {
		got, err := repo.GetByIDForParent(ctx, video.ID, child.ParentID)
		require.NoError(t, err)
		assert.Equal(t, "Counting Song", got.Title)
	})

	t.Run("another parent gets record not found", func(t *testing.T) {
		_, err := repo.GetByIDForParent(ctx, video.ID, otherParent.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestScheduledVideoRepository_Delete(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewScheduledVideoRepository(testDB.DB)
	ctx := context.Background()

	child := testutil.NewChildBuilder().Build(t, testDB.DB)
	video := testutil.NewScheduledVideoBuilder().WithChild(child).Build(t, testDB.DB)

	require.NoError(t, repo.Delete(ctx, video.ID))

	_, err := repo.GetByIDForParent(ctx, video.ID, child.ParentID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
