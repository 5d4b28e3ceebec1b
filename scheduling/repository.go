// Package scheduling owns the authoritative collection of scheduled posts.
// The whole collection is serialized as one JSON blob on every mutation;
// derived views (calendar, dashboard) recompute from List snapshots.
package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/postdeck/postdeck/blobstore"
)

const postsKey = "scheduled-posts"

// Repository is the sole owner of the post collection. Every mutating call
// persists the updated collection to the backing blob store before
// returning. A mutex serializes mutations since callers are concurrent HTTP
// handlers.
type Repository struct {
	store blobstore.Store
	mu    sync.Mutex
	posts []*Post
	now   func() time.Time
}

// CorruptCollectionError distinguishes an unreadable stored collection from
// an absent one. An absent blob initializes an empty repository; a corrupt
// blob does not.
type CorruptCollectionError struct {
	Key string
	Err error
}

func (err CorruptCollectionError) Error() string {
	return fmt.Sprintf("stored post collection under key %q is corrupt: %v", err.Key, err.Err)
}

func (err CorruptCollectionError) Unwrap() error {
	return err.Err
}

func NewRepository(ctx context.Context, store blobstore.Store) (*Repository, error) {
	repo := &Repository{
		store: store,
		now:   time.Now,
	}

	err := repo.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load post collection: %w", err)
	}

	return repo, nil
}

func (repo *Repository) load(ctx context.Context) error {
	data, err := repo.store.Get(ctx, postsKey)
	if err != nil {
		var keyNotFoundErr blobstore.KeyNotFoundError
		if errors.As(err, &keyNotFoundErr) {
			repo.posts = make([]*Post, 0)

			return nil
		}

		return fmt.Errorf("failed to get blob: %w", err)
	}

	var posts []*Post

	err = json.Unmarshal(data, &posts)
	if err != nil {
		return CorruptCollectionError{Key: postsKey, Err: err}
	}

	if posts == nil {
		posts = make([]*Post, 0)
	}

	repo.posts = posts

	return nil
}

// persist writes the given collection and commits it as the current
// snapshot only when the write succeeds.
func (repo *Repository) persist(ctx context.Context, posts []*Post) error {
	data, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("failed to marshal post collection: %w", err)
	}

	err = repo.store.Set(ctx, postsKey, data)
	if err != nil {
		return fmt.Errorf("failed to set blob: %w", err)
	}

	repo.posts = posts

	return nil
}

// List returns the current collection in insertion order. The returned
// slice is a fresh copy; the posts themselves are shared and must not be
// mutated by callers.
func (repo *Repository) List() []*Post {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	snapshot := make([]*Post, len(repo.posts))
	copy(snapshot, repo.posts)

	return snapshot
}

// Add validates the draft, assigns a fresh ID, StatusScheduled and
// CreatedAt, and appends the post to the collection.
func (repo *Repository) Add(ctx context.Context, draft Draft) (*Post, error) {
	err := draft.Validate()
	if err != nil {
		return nil, err
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	post := &Post{
		ID:            uuid.NewString(),
		Content:       draft.Content,
		Platforms:     draft.Platforms,
		ScheduledTime: draft.ScheduledTime,
		Status:        StatusScheduled,
		CreatedAt:     repo.now(),
		MediaURLs:     draft.MediaURLs,
	}

	next := make([]*Post, 0, len(repo.posts)+1)
	next = append(next, repo.posts...)
	next = append(next, post)

	err = repo.persist(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("failed to persist post collection: %w", err)
	}

	return post, nil
}

// UpdatePostRequest is a partial-field merge. Nil fields are left
// untouched. ID and CreatedAt can never change.
type UpdatePostRequest struct {
	Content       *string
	Platforms     []Platform
	ScheduledTime *time.Time
	Status        *Status
	MediaURLs     []string
}

func (req UpdatePostRequest) validate() error {
	if req.Content != nil && strings.TrimSpace(*req.Content) == "" {
		return InvalidDraftError{Reason: "content is empty"}
	}

	if req.Platforms != nil {
		if len(req.Platforms) == 0 {
			return InvalidDraftError{Reason: "no platforms selected"}
		}

		for _, p := range req.Platforms {
			if !p.IsValid() {
				return InvalidDraftError{Reason: fmt.Sprintf("unknown platform %q", p)}
			}
		}
	}

	if req.Status != nil && !req.Status.IsValid() {
		return InvalidDraftError{Reason: fmt.Sprintf("unknown status %q", *req.Status)}
	}

	return nil
}

func (repo *Repository) Update(ctx context.Context, postID string, req UpdatePostRequest) (*Post, error) {
	err := req.validate()
	if err != nil {
		return nil, err
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	index := -1

	for i, post := range repo.posts {
		if post.ID == postID {
			index = i

			break
		}
	}

	if index == -1 {
		return nil, PostNotFoundError{ID: postID}
	}

	updated := *repo.posts[index]

	if req.Content != nil {
		updated.Content = *req.Content
	}

	if req.Platforms != nil {
		updated.Platforms = req.Platforms
	}

	if req.ScheduledTime != nil {
		updated.ScheduledTime = *req.ScheduledTime
	}

	if req.Status != nil {
		updated.Status = *req.Status
	}

	if req.MediaURLs != nil {
		updated.MediaURLs = req.MediaURLs
	}

	next := make([]*Post, len(repo.posts))
	copy(next, repo.posts)
	next[index] = &updated

	err = repo.persist(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("failed to persist post collection: %w", err)
	}

	return &updated, nil
}

// Delete removes the post with the given ID. Deleting an absent ID is a
// no-op, matching the permissive filter-based removal semantics.
func (repo *Repository) Delete(ctx context.Context, postID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	next := make([]*Post, 0, len(repo.posts))

	for _, post := range repo.posts {
		if post.ID != postID {
			next = append(next, post)
		}
	}

	if len(next) == len(repo.posts) {
		return nil
	}

	err := repo.persist(ctx, next)
	if err != nil {
		return fmt.Errorf("failed to persist post collection: %w", err)
	}

	return nil
}
