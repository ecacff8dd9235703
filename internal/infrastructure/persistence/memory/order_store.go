package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xiebiao/smb-erp/internal/domain/order"
)

// OrderStore 订单内存仓储
type OrderStore struct {
	mu         sync.RWMutex
	byNo       map[string]*order.Order
	nextID     uint
	nextItemID uint
	latestNo   string
}

// NewOrderStore 创建订单仓储
func NewOrderStore() *OrderStore {
	return &OrderStore{byNo: make(map[string]*order.Order)}
}

var _ order.Repository = (*OrderStore)(nil)

func (s *OrderStore) Create(ctx context.Context, o *order.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byNo[o.OrderNo]; exists {
		return order.ErrOrderNoDuplicate
	}
	s.nextID++
	o.ID = s.nextID
	s.assignItemIDs(o)
	s.byNo[o.OrderNo] = o.Clone()
	s.latestNo = o.OrderNo
	return nil
}

func (s *OrderStore) FindByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.byNo[orderNo]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (s *OrderStore) Update(ctx context.Context, o *order.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byNo[o.OrderNo]; !ok {
		return order.ErrOrderNotFound
	}
	s.assignItemIDs(o)
	s.byNo[o.OrderNo] = o.Clone()
	return nil
}

func (s *OrderStore) Delete(ctx context.Context, orderNo string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byNo[orderNo]; !ok {
		return order.ErrOrderNotFound
	}
	delete(s.byNo, orderNo)
	return nil
}

func (s *OrderStore) List(ctx context.Context, params order.ListParams) ([]*order.Order, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []*order.Order
	for _, o := range s.byNo {
		if params.LocationID != 0 && o.LocationID != params.LocationID {
			continue
		}
		if params.Status != 0 && o.Status != params.Status {
			continue
		}
		all = append(all, o.Clone())
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, params.Page, params.PageSize), int64(len(all)), nil
}

// LatestNumber 最近创建的订单序号(删除后仍然保留，避免号码复用)
func (s *OrderStore) LatestNumber(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latestNo == "" {
		return 0, nil
	}
	return order.ParseOrderNo(s.latestNo)
}

func (s *OrderStore) assignItemIDs(o *order.Order) {
	for i := range o.Items {
		if o.Items[i].ID == 0 {
			s.nextItemID++
			o.Items[i].ID = s.nextItemID
		}
	}
}
