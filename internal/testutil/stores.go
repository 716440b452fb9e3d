package testutil

import (
	"context"
	"errors"
	"time"

	"mercator-hq/callisto/pkg/offload"
)

// ErrStoreDown is returned by FailingStore.
var ErrStoreDown = errors.New("store down")

// FailingStore is an offload.Store whose every operation fails.
type FailingStore struct{}

var _ offload.Store = FailingStore{}

func (FailingStore) Persist(context.Context, *offload.Resource) (string, error) {
	return "", offload.NewStorageError("failing", "persist", ErrStoreDown)
}

func (FailingStore) Retrieve(context.Context, string) (*offload.Resource, error) {
	return nil, offload.NewStorageError("failing", "retrieve", ErrStoreDown)
}

func (FailingStore) Delete(context.Context, string) error {
	return offload.NewStorageError("failing", "delete", ErrStoreDown)
}

func (FailingStore) Prune(context.Context, time.Time) (int64, error) {
	return 0, offload.NewStorageError("failing", "prune", ErrStoreDown)
}

func (FailingStore) Ping(context.Context) error {
	return offload.NewStorageError("failing", "ping", ErrStoreDown)
}

func (FailingStore) Close() error { return nil }
