package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xiebiao/smb-erp/internal/domain/location"
)

// LocationStore 库位内存仓储
type LocationStore struct {
	mu     sync.RWMutex
	items  map[uint]*location.Location
	nextID uint
}

// NewLocationStore 创建库位仓储
func NewLocationStore() *LocationStore {
	return &LocationStore{items: make(map[uint]*location.Location)}
}

var _ location.Repository = (*LocationStore)(nil)

func (s *LocationStore) Create(ctx context.Context, loc *location.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.items {
		if existing.Name == loc.Name {
			return location.ErrNameDuplicate
		}
	}
	s.nextID++
	loc.ID = s.nextID
	c := *loc
	s.items[loc.ID] = &c
	return nil
}

func (s *LocationStore) FindByID(ctx context.Context, id uint) (*location.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loc, ok := s.items[id]
	if !ok {
		return nil, location.ErrLocationNotFound
	}
	c := *loc
	return &c, nil
}

func (s *LocationStore) FindByName(ctx context.Context, name string) (*location.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, loc := range s.items {
		if loc.Name == name {
			c := *loc
			return &c, nil
		}
	}
	return nil, location.ErrLocationNotFound
}

func (s *LocationStore) Update(ctx context.Context, loc *location.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[loc.ID]; !ok {
		return location.ErrLocationNotFound
	}
	for id, existing := range s.items {
		if id != loc.ID && existing.Name == loc.Name {
			return location.ErrNameDuplicate
		}
	}
	c := *loc
	s.items[loc.ID] = &c
	return nil
}

func (s *LocationStore) List(ctx context.Context, activeOnly bool) ([]*location.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*location.Location, 0, len(s.items))
	for _, loc := range s.items {
		if activeOnly && !loc.Active {
			continue
		}
		c := *loc
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
