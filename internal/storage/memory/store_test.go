package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
)

func TestNavigationStore_SlugLookup(t *testing.T) {
	t.Parallel()

	store := NewNavigationStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, catalog.Navigation{ID: "n1", Title: "Books", Slug: "books"}))

	nav, err := store.GetBySlug(ctx, "books")
	require.NoError(t, err)
	require.Equal(t, "n1", nav.ID)

	_, err = store.GetBySlug(ctx, "missing")
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestCategoryStore_SlugScopedToNavigation(t *testing.T) {
	t.Parallel()

	store := NewCategoryStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, catalog.Category{ID: "c1", NavigationID: "n1", Slug: "fiction"}))
	require.NoError(t, store.Create(ctx, catalog.Category{ID: "c2", NavigationID: "n2", Slug: "fiction"}))

	cat, err := store.GetBySlug(ctx, "n2", "fiction")
	require.NoError(t, err)
	require.Equal(t, "c2", cat.ID)

	_, err = store.GetBySlug(ctx, "n3", "fiction")
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestProductStore_ListByCategoryPagination(t *testing.T) {
	t.Parallel()

	store := NewProductStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, catalog.Product{ID: "p1", CategoryID: "c1", SourceID: "GOR001"}))
	require.NoError(t, store.Create(ctx, catalog.Product{ID: "p2", CategoryID: "c1", SourceID: "GOR002"}))
	require.NoError(t, store.Create(ctx, catalog.Product{ID: "p3", CategoryID: "c1", SourceID: "GOR003"}))
	require.NoError(t, store.Create(ctx, catalog.Product{ID: "p4", CategoryID: "c2", SourceID: "GOR004"}))

	page, err := store.ListByCategory(ctx, "c1", 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "GOR001", page[0].SourceID)

	page, err = store.ListByCategory(ctx, "c1", 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "GOR003", page[0].SourceID)

	page, err = store.ListByCategory(ctx, "c1", 2, 10)
	require.NoError(t, err)
	require.Empty(t, page)
}

func TestReviewStore_ReplaceForProduct(t *testing.T) {
	t.Parallel()

	store := NewReviewStore()
	ctx := context.Background()

	first := []catalog.Review{
		{ID: "r1", ProductID: "p1", Author: "alice", Rating: 5},
		{ID: "r2", ProductID: "p1", Author: "bob", Rating: 3},
	}
	require.NoError(t, store.ReplaceForProduct(ctx, "p1", first))

	second := []catalog.Review{{ID: "r3", ProductID: "p1", Author: "carol", Rating: 4}}
	require.NoError(t, store.ReplaceForProduct(ctx, "p1", second))

	got, err := store.ListByProduct(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "carol", got[0].Author)

	require.NoError(t, store.ReplaceForProduct(ctx, "p1", nil))
	got, err = store.ListByProduct(ctx, "p1")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestJobStore_UpdateStatusAndMetadata(t *testing.T) {
	t.Parallel()

	store := NewJobStore()
	ctx := context.Background()
	created := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	job := catalog.ScrapeJob{
		ID:         "j1",
		TargetURL:  "https://www.worldofbooks.com",
		TargetType: catalog.TargetNavigation,
		Status:     catalog.JobStatusPending,
		CreatedAt:  created,
	}
	require.NoError(t, store.Create(ctx, job))

	started := created.Add(time.Second)
	require.NoError(t, store.UpdateStatus(ctx, "j1", catalog.JobStatusProcessing, "", &started, nil))

	got, err := store.Get(ctx, "j1")
	require.NoError(t, err)
	require.Equal(t, catalog.JobStatusProcessing, got.Status)
	require.NotNil(t, got.StartedAt)
	require.Nil(t, got.FinishedAt)

	finished := started.Add(time.Minute)
	require.NoError(t, store.UpdateStatus(ctx, "j1", catalog.JobStatusFailed, "fetch timed out", nil, &finished))

	got, err = store.Get(ctx, "j1")
	require.NoError(t, err)
	require.Equal(t, catalog.JobStatusFailed, got.Status)
	require.Equal(t, "fetch timed out", got.ErrorLog)
	require.NotNil(t, got.StartedAt)
	require.NotNil(t, got.FinishedAt)

	require.NoError(t, store.UpdateMetadata(ctx, "j1", catalog.JobMetadata{
		Navigation: &catalog.NavigationMeta{ItemsScraped: 7},
	}))
	got, err = store.Get(ctx, "j1")
	require.NoError(t, err)
	require.NotNil(t, got.Metadata.Navigation)
	require.Equal(t, 7, got.Metadata.Navigation.ItemsScraped)

	require.ErrorIs(t, store.UpdateStatus(ctx, "missing", catalog.JobStatusCompleted, "", nil, nil), catalog.ErrNotFound)
}

func TestJobStore_ListNewestFirst(t *testing.T) {
	t.Parallel()

	store := NewJobStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"j1", "j2", "j3"} {
		require.NoError(t, store.Create(ctx, catalog.ScrapeJob{
			ID:        id,
			Status:    catalog.JobStatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	jobs, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	require.Equal(t, "j3", jobs[0].ID)
	require.Equal(t, "j2", jobs[1].ID)
}
