package cart

import "errors"

var (
	ErrUninitializedContext    = errors.New("cart service not initialized")
	ErrCorruptPersistedState   = errors.New("persisted cart state is corrupt")
	ErrPersistenceWriteFailure = errors.New("cart persistence write failed")
)
