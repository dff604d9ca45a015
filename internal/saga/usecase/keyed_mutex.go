package usecase

import (
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
)

const mutexShards = 256

// keyedMutex provides per-correlation mutual exclusion with a fixed number of
// lock shards. Commands for different correlation ids usually proceed in
// parallel; commands sharing a correlation id always serialize.
type keyedMutex struct {
	shards [mutexShards]sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{}
}

func (m *keyedMutex) shard(sagaType string, correlationID uuid.UUID) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sagaType))        //nolint:errcheck
	h.Write(correlationID[:])        //nolint:errcheck
	return &m.shards[h.Sum32()%mutexShards]
}

// Lock acquires the lock shard for (saga type, correlation id).
func (m *keyedMutex) Lock(sagaType string, correlationID uuid.UUID) {
	m.shard(sagaType, correlationID).Lock()
}

// Unlock releases the lock shard for (saga type, correlation id).
func (m *keyedMutex) Unlock(sagaType string, correlationID uuid.UUID) {
	m.shard(sagaType, correlationID).Unlock()
}
