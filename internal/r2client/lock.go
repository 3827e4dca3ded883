package r2client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// lockState is the JSON body of a publish-lock object.
type lockState struct {
	Owner     string    `json:"owner"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PublishLock coordinates catalog snapshot publication across ingest
// instances using R2 conditional writes. Only the holder may upload a
// new snapshot; expired locks can be taken over.
type PublishLock struct {
	client  *Client
	key     string
	ttl     time.Duration
	ownerID string
	etag    string
}

// NewPublishLock creates a lock on the given object key.
func NewPublishLock(client *Client, key string, ttl time.Duration) *PublishLock {
	return &PublishLock{
		client:  client,
		key:     key,
		ttl:     ttl,
		ownerID: uuid.New().String(),
	}
}

// OwnerID returns this instance's lock identity.
func (l *PublishLock) OwnerID() string { return l.ownerID }

// Acquire attempts to take the lock. It reports false without error
// when another live holder has it.
func (l *PublishLock) Acquire(ctx context.Context) (bool, error) {
	body, err := l.stateBody()
	if err != nil {
		return false, err
	}

	created, etag, err := l.client.PutIfAbsent(ctx, l.key, body, "application/json")
	if err != nil {
		return false, fmt.Errorf("acquire publish lock: %w", err)
	}
	if created {
		l.etag = etag
		return true, nil
	}

	expired, oldEtag, err := l.holderExpired(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire publish lock: inspect holder: %w", err)
	}
	if !expired {
		return false, nil
	}

	// Take over the expired lock. If-Match loses the race cleanly when
	// another instance got there first.
	body, err = l.stateBody()
	if err != nil {
		return false, err
	}
	taken, newEtag, err := l.client.PutIfMatch(ctx, l.key, body, oldEtag, "application/json")
	if err != nil {
		return false, fmt.Errorf("acquire publish lock: take over: %w", err)
	}
	if taken {
		l.etag = newEtag
	}
	return taken, nil
}

// Renew extends the lock. It reports false when the lock was lost.
func (l *PublishLock) Renew(ctx context.Context) (bool, error) {
	if l.etag == "" {
		return false, nil
	}
	body, err := l.stateBody()
	if err != nil {
		return false, err
	}
	renewed, newEtag, err := l.client.PutIfMatch(ctx, l.key, body, l.etag, "application/json")
	if err != nil {
		return false, fmt.Errorf("renew publish lock: %w", err)
	}
	if renewed {
		l.etag = newEtag
	}
	return renewed, nil
}

// Release deletes the lock if this instance still owns it. Releasing a
// lock that was taken over or already removed is a no-op.
func (l *PublishLock) Release(ctx context.Context) error {
	body, _, err := l.client.Download(ctx, l.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("release publish lock: %w", err)
	}
	data, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		return fmt.Errorf("release publish lock: read: %w", err)
	}

	var state lockState
	if err := json.Unmarshal(data, &state); err != nil {
		// Unreadable lock object; clear it.
		return l.client.Delete(ctx, l.key)
	}
	if state.Owner != l.ownerID {
		return nil
	}
	return l.client.Delete(ctx, l.key)
}

// holderExpired reads the current lock and reports whether its TTL has
// passed. A vanished or unreadable lock counts as expired.
func (l *PublishLock) holderExpired(ctx context.Context) (bool, string, error) {
	body, etag, err := l.client.Download(ctx, l.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return true, "", nil
		}
		return false, "", err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return false, "", fmt.Errorf("read lock: %w", err)
	}
	var state lockState
	if err := json.Unmarshal(data, &state); err != nil {
		return true, etag, nil
	}
	return time.Now().After(state.ExpiresAt), etag, nil
}

func (l *PublishLock) stateBody() (io.Reader, error) {
	data, err := json.Marshal(lockState{
		Owner:     l.ownerID,
		ExpiresAt: time.Now().Add(l.ttl),
	})
	if err != nil {
		return nil, fmt.Errorf("publish lock: marshal state: %w", err)
	}
	return bytes.NewReader(data), nil
}
