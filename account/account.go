// Package account supplies the current user record. Authentication is a
// mock: credentials are accepted as-is and the single user is persisted as
// a JSON blob in the backing store. Account connections are stubs too; no
// real OAuth linking happens.
package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/postdeck/postdeck/blobstore"
	"github.com/postdeck/postdeck/scheduling"
)

const userKey = "user"

const DefaultSubscriptionTier = "free"

type User struct {
	ID                string                `json:"id"`
	Email             string                `json:"email"`
	SubscriptionTier  string                `json:"subscriptionTier"`
	ConnectedAccounts []scheduling.Platform `json:"connectedAccounts"`
}

var ErrNoCurrentUser = errors.New("no current user")

type Service struct {
	store blobstore.Store
	mu    sync.Mutex
}

func NewService(store blobstore.Store) *Service {
	return &Service{store: store}
}

// Login accepts any credentials and stores a fresh user record. The
// password is intentionally ignored.
func (svc *Service) Login(ctx context.Context, email, _ string) (*User, error) {
	return svc.createUser(ctx, email)
}

// Register behaves exactly like Login: same mock, same stored record.
func (svc *Service) Register(ctx context.Context, email, _ string) (*User, error) {
	return svc.createUser(ctx, email)
}

func (svc *Service) createUser(ctx context.Context, email string) (*User, error) {
	if email == "" {
		return nil, fmt.Errorf("email is empty")
	}

	user := &User{
		ID:                uuid.NewString(),
		Email:             email,
		SubscriptionTier:  DefaultSubscriptionTier,
		ConnectedAccounts: []scheduling.Platform{},
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	err := svc.save(ctx, user)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (svc *Service) Logout(ctx context.Context) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	err := svc.store.Delete(ctx, userKey)
	if err != nil {
		return fmt.Errorf("failed to delete user blob: %w", err)
	}

	return nil
}

// Current loads the stored user. ErrNoCurrentUser when nobody is logged in.
func (svc *Service) Current(ctx context.Context) (*User, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	return svc.current(ctx)
}

func (svc *Service) current(ctx context.Context) (*User, error) {
	data, err := svc.store.Get(ctx, userKey)
	if err != nil {
		var keyNotFoundErr blobstore.KeyNotFoundError
		if errors.As(err, &keyNotFoundErr) {
			return nil, ErrNoCurrentUser
		}

		return nil, fmt.Errorf("failed to get user blob: %w", err)
	}

	var user User

	err = json.Unmarshal(data, &user)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal user blob: %w", err)
	}

	return &user, nil
}

// Update persists the given user record as-is.
func (svc *Service) Update(ctx context.Context, user *User) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	return svc.save(ctx, user)
}

func (svc *Service) save(ctx context.Context, user *User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	err = svc.store.Set(ctx, userKey, data)
	if err != nil {
		return fmt.Errorf("failed to set user blob: %w", err)
	}

	return nil
}

// ConnectAccount adds the platform to the user's connected accounts.
// Connecting an already-connected platform is a no-op.
func (svc *Service) ConnectAccount(ctx context.Context, platform scheduling.Platform) (*User, error) {
	if !platform.IsValid() {
		return nil, fmt.Errorf("unknown platform %q", platform)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	user, err := svc.current(ctx)
	if err != nil {
		return nil, err
	}

	if !slices.Contains(user.ConnectedAccounts, platform) {
		user.ConnectedAccounts = append(user.ConnectedAccounts, platform)

		err = svc.save(ctx, user)
		if err != nil {
			return nil, err
		}
	}

	return user, nil
}

// DisconnectAccount removes the platform from the user's connected
// accounts. Disconnecting an absent platform is a no-op.
func (svc *Service) DisconnectAccount(ctx context.Context, platform scheduling.Platform) (*User, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	user, err := svc.current(ctx)
	if err != nil {
		return nil, err
	}

	before := len(user.ConnectedAccounts)

	user.ConnectedAccounts = slices.DeleteFunc(user.ConnectedAccounts, func(p scheduling.Platform) bool {
		return p == platform
	})

	if len(user.ConnectedAccounts) != before {
		err = svc.save(ctx, user)
		if err != nil {
			return nil, err
		}
	}

	return user, nil
}
