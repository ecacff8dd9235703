package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/xiebiao/smb-erp/internal/domain/product"
)

// ProductStore 商品内存仓储
type ProductStore struct {
	mu     sync.RWMutex
	items  map[uint]*product.Product
	nextID uint
}

// NewProductStore 创建商品仓储
func NewProductStore() *ProductStore {
	return &ProductStore{items: make(map[uint]*product.Product)}
}

var _ product.Repository = (*ProductStore)(nil)

func (s *ProductStore) Create(ctx context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.items {
		if existing.SKU == p.SKU {
			return product.ErrSKUDuplicate
		}
	}
	s.nextID++
	p.ID = s.nextID
	c := *p
	s.items[p.ID] = &c
	return nil
}

func (s *ProductStore) FindByID(ctx context.Context, id uint) (*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.items[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	c := *p
	return &c, nil
}

func (s *ProductStore) FindBySKU(ctx context.Context, sku string) (*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.items {
		if p.SKU == sku {
			c := *p
			return &c, nil
		}
	}
	return nil, product.ErrProductNotFound
}

func (s *ProductStore) List(ctx context.Context, params product.ListParams) ([]*product.Product, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keyword := strings.ToLower(strings.TrimSpace(params.Keyword))
	var all []*product.Product
	for _, p := range s.items {
		if params.Status != "" {
			if p.Status != params.Status {
				continue
			}
		} else if params.ActiveOnly && !p.IsActive() {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(p.Name), keyword) &&
			!strings.Contains(strings.ToLower(p.SKU), keyword) {
			continue
		}
		c := *p
		all = append(all, &c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, params.Page, params.PageSize), int64(len(all)), nil
}

func (s *ProductStore) Update(ctx context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[p.ID]; !ok {
		return product.ErrProductNotFound
	}
	c := *p
	s.items[p.ID] = &c
	return nil
}
