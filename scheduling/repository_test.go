package scheduling_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/postdeck/postdeck/blobstore"
	"github.com/postdeck/postdeck/scheduling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) (*scheduling.Repository, *blobstore.MemoryStore) {
	t.Helper()

	store := blobstore.NewMemoryStore()

	repo, err := scheduling.NewRepository(context.Background(), store)
	require.NoError(t, err)

	return repo, store
}

func TestRepositoryAdd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, _ := newTestRepository(t)

	start := time.Now()

	scheduledTime := time.Date(2026, time.September, 15, 9, 0, 0, 0, time.UTC)

	post, err := repo.Add(ctx, scheduling.Draft{
		Content:       "Hello",
		Platforms:     []scheduling.Platform{scheduling.PlatformTwitter},
		ScheduledTime: scheduledTime,
		MediaURLs:     []string{"https://example.com/a.png"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, post.ID)
	assert.Equal(t, "Hello", post.Content)
	assert.Equal(t, []scheduling.Platform{scheduling.PlatformTwitter}, post.Platforms)
	assert.True(t, post.ScheduledTime.Equal(scheduledTime))
	assert.Equal(t, scheduling.StatusScheduled, post.Status)
	assert.False(t, post.CreatedAt.Before(start))
	assert.Equal(t, []string{"https://example.com/a.png"}, post.MediaURLs)

	posts := repo.List()
	require.Len(t, posts, 1)
	assert.Equal(t, post.ID, posts[0].ID)
}

func TestRepositoryAddAssignsUniqueIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, _ := newTestRepository(t)

	seen := make(map[string]bool)

	for i := range 10 {
		post, err := repo.Add(ctx, scheduling.Draft{
			Content:       fmt.Sprintf("post %d", i),
			Platforms:     []scheduling.Platform{scheduling.PlatformLinkedIn},
			ScheduledTime: time.Now(),
		})
		require.NoError(t, err)

		assert.False(t, seen[post.ID])

		seen[post.ID] = true
	}
}

func TestRepositoryAddInvalidDraft(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		draft scheduling.Draft
	}{
		{
			name: "empty content",
			draft: scheduling.Draft{
				Content:   "",
				Platforms: []scheduling.Platform{scheduling.PlatformTwitter},
			},
		},
		{
			name: "whitespace content",
			draft: scheduling.Draft{
				Content:   "   \n",
				Platforms: []scheduling.Platform{scheduling.PlatformTwitter},
			},
		},
		{
			name: "no platforms",
			draft: scheduling.Draft{
				Content:   "Hello",
				Platforms: []scheduling.Platform{},
			},
		},
		{
			name: "unknown platform",
			draft: scheduling.Draft{
				Content:   "Hello",
				Platforms: []scheduling.Platform{"myspace"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			repo, _ := newTestRepository(t)

			_, err := repo.Add(ctx, tt.draft)

			var invalidDraftErr scheduling.InvalidDraftError
			require.ErrorAs(t, err, &invalidDraftErr)

			assert.Empty(t, repo.List())
		})
	}
}

func TestRepositoryUpdate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, _ := newTestRepository(t)

	post, err := repo.Add(ctx, scheduling.Draft{
		Content:       "Hello",
		Platforms:     []scheduling.Platform{scheduling.PlatformTwitter},
		ScheduledTime: time.Date(2026, time.September, 15, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	status := scheduling.StatusPublished

	updated, err := repo.Update(ctx, post.ID, scheduling.UpdatePostRequest{Status: &status})
	require.NoError(t, err)

	// Only the status changed.
	assert.Equal(t, scheduling.StatusPublished, updated.Status)
	assert.Equal(t, post.ID, updated.ID)
	assert.Equal(t, post.Content, updated.Content)
	assert.Equal(t, post.Platforms, updated.Platforms)
	assert.True(t, updated.ScheduledTime.Equal(post.ScheduledTime))
	assert.True(t, updated.CreatedAt.Equal(post.CreatedAt))
	assert.Equal(t, post.MediaURLs, updated.MediaURLs)

	posts := repo.List()
	require.Len(t, posts, 1)
	assert.Equal(t, scheduling.StatusPublished, posts[0].Status)
}

func TestRepositoryUpdateNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, _ := newTestRepository(t)

	content := "changed"

	_, err := repo.Update(ctx, "no-such-id", scheduling.UpdatePostRequest{Content: &content})

	var postNotFoundErr scheduling.PostNotFoundError
	require.ErrorAs(t, err, &postNotFoundErr)
	assert.Equal(t, "no-such-id", postNotFoundErr.ID)
}

func TestRepositoryUpdateInvalidFields(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, _ := newTestRepository(t)

	post, err := repo.Add(ctx, scheduling.Draft{
		Content:       "Hello",
		Platforms:     []scheduling.Platform{scheduling.PlatformTwitter},
		ScheduledTime: time.Now(),
	})
	require.NoError(t, err)

	emptyContent := ""

	_, err = repo.Update(ctx, post.ID, scheduling.UpdatePostRequest{Content: &emptyContent})

	var invalidDraftErr scheduling.InvalidDraftError
	require.ErrorAs(t, err, &invalidDraftErr)

	badStatus := scheduling.Status("archived")

	_, err = repo.Update(ctx, post.ID, scheduling.UpdatePostRequest{Status: &badStatus})
	require.ErrorAs(t, err, &invalidDraftErr)

	_, err = repo.Update(ctx, post.ID, scheduling.UpdatePostRequest{Platforms: []scheduling.Platform{}})
	require.ErrorAs(t, err, &invalidDraftErr)
}

func TestRepositoryDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, _ := newTestRepository(t)

	first, err := repo.Add(ctx, scheduling.Draft{
		Content:       "first",
		Platforms:     []scheduling.Platform{scheduling.PlatformTwitter},
		ScheduledTime: time.Now(),
	})
	require.NoError(t, err)

	second, err := repo.Add(ctx, scheduling.Draft{
		Content:       "second",
		Platforms:     []scheduling.Platform{scheduling.PlatformFacebook},
		ScheduledTime: time.Now(),
	})
	require.NoError(t, err)

	err = repo.Delete(ctx, first.ID)
	require.NoError(t, err)

	posts := repo.List()
	require.Len(t, posts, 1)
	assert.Equal(t, second.ID, posts[0].ID)

	// Deleting an absent id is a no-op.
	err = repo.Delete(ctx, "no-such-id")
	require.NoError(t, err)
	assert.Len(t, repo.List(), 1)
}

func TestRepositoryListPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, _ := newTestRepository(t)

	ids := make([]string, 0, 5)

	for i := range 5 {
		post, err := repo.Add(ctx, scheduling.Draft{
			Content:       fmt.Sprintf("post %d", i),
			Platforms:     []scheduling.Platform{scheduling.PlatformInstagram},
			ScheduledTime: time.Now(),
		})
		require.NoError(t, err)

		ids = append(ids, post.ID)
	}

	posts := repo.List()
	require.Len(t, posts, 5)

	for i, post := range posts {
		assert.Equal(t, ids[i], post.ID)
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, store := newTestRepository(t)

	for i := range 3 {
		_, err := repo.Add(ctx, scheduling.Draft{
			Content:       fmt.Sprintf("post %d", i),
			Platforms:     []scheduling.Platform{scheduling.PlatformTwitter, scheduling.PlatformLinkedIn},
			ScheduledTime: time.Date(2026, time.October, 1+i, 9, 0, 0, 0, time.UTC),
			MediaURLs:     []string{fmt.Sprintf("https://example.com/%d.png", i)},
		})
		require.NoError(t, err)
	}

	reloaded, err := scheduling.NewRepository(ctx, store)
	require.NoError(t, err)

	original, err := json.Marshal(repo.List())
	require.NoError(t, err)

	restored, err := json.Marshal(reloaded.List())
	require.NoError(t, err)

	assert.JSONEq(t, string(original), string(restored))
}

func TestRepositoryAbsentBlobMeansEmpty(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)

	assert.Empty(t, repo.List())
}

func TestRepositoryCorruptBlob(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	err := store.Set(ctx, "scheduled-posts", []byte("{not json"))
	require.NoError(t, err)

	_, err = scheduling.NewRepository(ctx, store)

	var corruptErr scheduling.CorruptCollectionError
	require.ErrorAs(t, err, &corruptErr)
}

type failingStore struct {
	blobstore.Store
}

func (store failingStore) Set(context.Context, string, []byte) error {
	return fmt.Errorf("disk is on fire")
}

func TestRepositorySurfacesPersistenceFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	repo, err := scheduling.NewRepository(ctx, failingStore{Store: blobstore.NewMemoryStore()})
	require.NoError(t, err)

	_, err = repo.Add(ctx, scheduling.Draft{
		Content:       "Hello",
		Platforms:     []scheduling.Platform{scheduling.PlatformTwitter},
		ScheduledTime: time.Now(),
	})
	require.Error(t, err)

	// The failed write did not change the in-memory collection.
	assert.Empty(t, repo.List())
}

func TestRepositoryScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, _ := newTestRepository(t)

	scheduledTime := time.Date(2026, time.September, 20, 14, 30, 0, 0, time.UTC)

	post, err := repo.Add(ctx, scheduling.Draft{
		Content:       "Hello",
		Platforms:     []scheduling.Platform{scheduling.PlatformTwitter},
		ScheduledTime: scheduledTime,
	})
	require.NoError(t, err)

	posts := repo.List()
	require.Len(t, posts, 1)
	assert.Equal(t, scheduling.StatusScheduled, posts[0].Status)

	status := scheduling.StatusPublished

	_, err = repo.Update(ctx, post.ID, scheduling.UpdatePostRequest{Status: &status})
	require.NoError(t, err)

	posts = repo.List()
	require.Len(t, posts, 1)
	assert.Equal(t, scheduling.StatusPublished, posts[0].Status)
	assert.Equal(t, "Hello", posts[0].Content)

	err = repo.Delete(ctx, post.ID)
	require.NoError(t, err)

	assert.Empty(t, repo.List())
}
