package api

import (
	"sync"
	"time"

	"github.com/UserUnknownFactor/psbtool/pkg/psb"
)

// DefaultStoreCapacity bounds the number of containers kept between an
// extract and the matching apply.
const DefaultStoreCapacity = 64

type containerRecord struct {
	Container *psb.Container
	CreatedAt time.Time
}

// ContainerStore keeps recently extracted containers so an apply can refer
// to them by id. When full, the oldest entry is evicted.
type ContainerStore struct {
	mu       sync.Mutex
	capacity int
	records  map[string]*containerRecord
	order    []string
}

func NewContainerStore(capacity int) *ContainerStore {
	if capacity <= 0 {
		capacity = DefaultStoreCapacity
	}
	return &ContainerStore{
		capacity: capacity,
		records:  make(map[string]*containerRecord),
	}
}

func (s *ContainerStore) Put(c *psb.Container, now time.Time) string {
	id := newContainerID()

	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.order) >= s.capacity {
		delete(s.records, s.order[0])
		s.order = s.order[1:]
	}
	s.records[id] = &containerRecord{Container: c, CreatedAt: now}
	s.order = append(s.order, id)
	return id
}

func (s *ContainerStore) Get(id string) (*containerRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	return rec, ok
}

func (s *ContainerStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return false
	}
	delete(s.records, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *ContainerStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
