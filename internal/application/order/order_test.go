package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/smb-erp/internal/domain/audit"
	"github.com/xiebiao/smb-erp/internal/domain/inventory"
	"github.com/xiebiao/smb-erp/internal/domain/location"
	"github.com/xiebiao/smb-erp/internal/domain/order"
	"github.com/xiebiao/smb-erp/internal/domain/product"
	"github.com/xiebiao/smb-erp/internal/infrastructure/persistence/memory"
	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
	"github.com/xiebiao/smb-erp/pkg/keylock"
)

// recordingSink 同步记录审计条目
type recordingSink struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (s *recordingSink) LogAction(_ context.Context, e audit.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

func (s *recordingSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Action
	}
	return out
}

// faultyLedger 对指定的键和操作注入失败
type faultyLedger struct {
	inventory.Ledger
	failReserve map[uint]bool // 按商品ID
	failRelease map[uint]bool
}

var errInjected = apperrors.New(apperrors.ErrCodeDatabaseError, "注入的存储故障")

func (l *faultyLedger) Reserve(ctx context.Context, k inventory.Key, qty int, ref, actor string) (*inventory.StockRecord, error) {
	if l.failReserve[k.ProductID] {
		return nil, errInjected
	}
	return l.Ledger.Reserve(ctx, k, qty, ref, actor)
}

func (l *faultyLedger) Release(ctx context.Context, k inventory.Key, qty int, ref, actor string) (*inventory.StockRecord, error) {
	if l.failRelease[k.ProductID] {
		return nil, errInjected
	}
	return l.Ledger.Release(ctx, k, qty, ref, actor)
}

// failingOrderRepo 让订单落库失败
type failingOrderRepo struct {
	order.Repository
	failCreate bool
}

func (r *failingOrderRepo) Create(ctx context.Context, o *order.Order) error {
	if r.failCreate {
		return apperrors.WrapDatabase(errors.New("connection reset"), "保存订单失败")
	}
	return r.Repository.Create(ctx, o)
}

type env struct {
	ledger   inventory.Ledger
	faulty   *faultyLedger
	txs      *memory.TransactionStore
	orders   *memory.OrderStore
	repo     order.Repository
	locs     location.Service
	prods    product.Service
	sink     *recordingSink
	locID    uint
	prodA    uint
	prodB    uint
	create   *CreateOrderUseCase
	update   *UpdateOrderUseCase
	status   *ChangeStatusUseCase
	ret      *ReturnOrderUseCase
	del      *DeleteOrderUseCase
	get      *GetOrderUseCase
	list     *ListOrdersUseCase
	seqRepo  order.Sequence
	locker   *keylock.Locker
	settings Settings
}

type envOption func(*env)

func withOrderRepo(repo order.Repository) envOption {
	return func(e *env) { e.repo = repo }
}

func withSettings(settings Settings) envOption {
	return func(e *env) { e.settings = settings }
}

func withSequence(seq order.Sequence) envOption {
	return func(e *env) { e.seqRepo = seq }
}

func newEnv(t *testing.T, opts ...envOption) *env {
	t.Helper()
	ctx := context.Background()

	txs := memory.NewTransactionStore()
	locker := keylock.New()
	base := inventory.NewLedger(memory.NewStockStore(txs), locker)
	e := &env{
		ledger:   base,
		faulty:   &faultyLedger{Ledger: base, failReserve: map[uint]bool{}, failRelease: map[uint]bool{}},
		txs:      txs,
		orders:   memory.NewOrderStore(),
		locs:     location.NewService(memory.NewLocationStore()),
		prods:    product.NewService(memory.NewProductStore()),
		sink:     &recordingSink{},
		locker:   locker,
		settings: DefaultSettings(),
	}
	e.repo = e.orders
	for _, opt := range opts {
		opt(e)
	}
	if e.seqRepo == nil {
		e.seqRepo = memory.NewOrderSequence(e.repo, order.DefaultNumberStart)
	}

	loc, err := e.locs.Create(ctx, "Main Store", "1 High St")
	require.NoError(t, err)
	e.locID = loc.ID

	a, err := e.prods.Register(ctx, "SKU-A", "Widget", decimal.NewFromInt(100), decimal.NewFromInt(18),
		product.IncentiveDiscount, decimal.NewFromInt(10))
	require.NoError(t, err)
	b, err := e.prods.Register(ctx, "SKU-B", "Gadget", decimal.NewFromInt(50), decimal.NewFromInt(5),
		product.IncentiveNone, decimal.Zero)
	require.NoError(t, err)
	e.prodA, e.prodB = a.ID, b.ID

	logger := zap.NewNop()
	stock := NewStockCoordinator(e.faulty, locker, e.settings, logger)
	e.create = NewCreateOrderUseCase(e.repo, e.seqRepo, e.locs, e.prods, stock, e.sink, logger)
	e.update = NewUpdateOrderUseCase(e.repo, e.locs, e.prods, stock, e.sink, logger)
	e.status = NewChangeStatusUseCase(e.repo, stock, e.sink, logger)
	e.ret = NewReturnOrderUseCase(e.repo, stock, e.sink, logger)
	e.del = NewDeleteOrderUseCase(e.repo, stock, e.sink, logger)
	e.get = NewGetOrderUseCase(e.repo)
	e.list = NewListOrdersUseCase(e.repo)
	return e
}

func (e *env) key(productID uint) inventory.Key {
	return inventory.Key{ProductID: productID, LocationID: e.locID}
}

func (e *env) seed(t *testing.T, productID uint, qty int) {
	t.Helper()
	_, err := e.ledger.AdjustManual(context.Background(), e.key(productID), inventory.AdjustAdjustment, qty, "seed", "期初", "admin")
	require.NoError(t, err)
}

func (e *env) stock(t *testing.T, productID uint) *inventory.StockRecord {
	t.Helper()
	rec, err := e.ledger.GetStock(context.Background(), e.key(productID))
	require.NoError(t, err)
	return rec
}

// refTypes 某个订单号下的流水类型(按时间正序)
func (e *env) refTypes(t *testing.T, orderNo string) []inventory.TransactionType {
	t.Helper()
	txs, _, err := e.txs.List(context.Background(), inventory.TransactionFilter{Reference: orderNo}, 1, 0)
	require.NoError(t, err)
	out := make([]inventory.TransactionType, len(txs))
	for i, tx := range txs {
		out[len(txs)-1-i] = tx.Type
	}
	return out
}

func (e *env) createAB(t *testing.T, qtyA, qtyB int) *OrderResponse {
	t.Helper()
	resp, err := e.create.Execute(context.Background(), CreateOrderRequest{
		CustomerName: "Asha",
		LocationID:   e.locID,
		PaymentType:  "Cash",
		Items: []ItemRequest{
			{ProductID: e.prodA, Quantity: qtyA},
			{ProductID: e.prodB, Quantity: qtyB},
		},
		Actor: "clerk",
	})
	require.NoError(t, err)
	return resp
}

func (e *env) setStatus(t *testing.T, orderNo, status string) *OrderResponse {
	t.Helper()
	resp, err := e.status.Execute(context.Background(), ChangeStatusRequest{OrderNo: orderNo, Status: status, Actor: "clerk"})
	require.NoError(t, err)
	return resp
}

func TestCreateThenDeleteDraft_ReleasesReservations(t *testing.T) {
	e := newEnv(t)
	e.seed(t, e.prodA, 10)
	e.seed(t, e.prodB, 10)

	resp := e.createAB(t, 2, 3)
	assert.Equal(t, "ORD-1001", resp.OrderNo)
	assert.Equal(t, "Draft", resp.Status)
	assert.Equal(t, []inventory.TransactionType{inventory.TxReserve, inventory.TxReserve}, e.refTypes(t, resp.OrderNo))
	assert.Equal(t, 8, e.stock(t, e.prodA).Available)
	assert.Equal(t, 3, e.stock(t, e.prodB).Reserved)

	require.NoError(t, e.del.Execute(context.Background(), DeleteOrderRequest{OrderNo: resp.OrderNo, Actor: "clerk"}))

	assert.Equal(t, []inventory.TransactionType{
		inventory.TxReserve, inventory.TxReserve, inventory.TxRelease, inventory.TxRelease,
	}, e.refTypes(t, resp.OrderNo))
	a, b := e.stock(t, e.prodA), e.stock(t, e.prodB)
	assert.Equal(t, 10, a.Available)
	assert.Equal(t, 0, a.Reserved)
	assert.Equal(t, 10, b.Available)
	assert.Equal(t, 0, b.Reserved)

	_, err := e.get.Execute(context.Background(), resp.OrderNo)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
	assert.Equal(t, []string{"create", "delete"}, e.sink.actions())
}

func TestCreateOrder_Totals(t *testing.T) {
	e := newEnv(t)
	e.seed(t, e.prodA, 10)
	e.seed(t, e.prodB, 10)

	resp, err := e.create.Execute(context.Background(), CreateOrderRequest{
		CustomerName:   "Asha",
		LocationID:     e.locID,
		PaymentType:    "UPI",
		DeliveryCharge: decimal.NewFromInt(50),
		Items: []ItemRequest{
			{ProductID: e.prodA, Quantity: 2}, // (100-10)*2=180, 税32.40
			{ProductID: e.prodB, Quantity: 1}, // 50, 税2.50
		},
		Actor: "clerk",
	})
	require.NoError(t, err)

	assert.Equal(t, "230.00", resp.Subtotal.StringFixed(2))
	assert.Equal(t, "34.90", resp.GSTAmount.StringFixed(2))
	assert.Equal(t, "314.90", resp.GrandTotal.StringFixed(2))
	assert.Equal(t, "Widget", resp.Items[0].ProductName)
	assert.Equal(t, "Unpaid", resp.PaymentStatus)
}

func TestCreateOrder_InsufficientStockWritesNothing(t *testing.T) {
	e := newEnv(t)
	e.seed(t, e.prodA, 10)
	e.seed(t, e.prodB, 1)
	before := e.txs.Len()

	_, err := e.create.Execute(context.Background(), CreateOrderRequest{
		LocationID:  e.locID,
		PaymentType: "Cash",
		Items: []ItemRequest{
			{ProductID: e.prodA, Quantity: 2},
			{ProductID: e.prodB, Quantity: 3},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.True(t, apperrors.IsBusiness(err))

	assert.Equal(t, before, e.txs.Len(), "预演失败不写流水")
	assert.Equal(t, 10, e.stock(t, e.prodA).Available)
	list, err := e.list.Execute(context.Background(), ListOrdersRequest{})
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func TestCreateOrder_MidOrderFailureCompensates(t *testing.T) {
	e := newEnv(t)
	e.seed(t, e.prodA, 10)
	e.seed(t, e.prodB, 10)
	e.faulty.failReserve[e.prodB] = true

	_, err := e.create.Execute(context.Background(), CreateOrderRequest{
		LocationID:  e.locID,
		PaymentType: "Cash",
		Items: []ItemRequest{
			{ProductID: e.prodA, Quantity: 4},
			{ProductID: e.prodB, Quantity: 1},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errInjected)

	a := e.stock(t, e.prodA)
	assert.Equal(t, 10, a.Available)
	assert.Equal(t, 0, a.Reserved)
	assert.Equal(t, []inventory.TransactionType{inventory.TxReserve, inventory.TxRelease}, e.refTypes(t, "ORD-1001"))
	assert.Empty(t, e.sink.actions())
}

func TestCreateOrder_PersistFailureCompensates(t *testing.T) {
	orders := memory.NewOrderStore()
	e := newEnv(t, withOrderRepo(&failingOrderRepo{Repository: orders, failCreate: true}))
	e.seed(t, e.prodA, 10)
	e.seed(t, e.prodB, 10)

	_, err := e.create.Execute(context.Background(), CreateOrderRequest{
		LocationID:  e.locID,
		PaymentType: "Cash",
		Items:       []ItemRequest{{ProductID: e.prodA, Quantity: 2}, {ProductID: e.prodB, Quantity: 2}},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDatabaseError, apperrors.GetAppError(err).Code)

	assert.Equal(t, 10, e.stock(t, e.prodA).Available)
	assert.Equal(t, 10, e.stock(t, e.prodB).Available)
}

func TestCreateOrder_CompensationFailureIsSystemError(t *testing.T) {
	e := newEnv(t)
	e.seed(t, e.prodA, 10)
	e.seed(t, e.prodB, 10)
	e.faulty.failReserve[e.prodB] = true
	e.faulty.failRelease[e.prodA] = true

	_, err := e.create.Execute(context.Background(), CreateOrderRequest{
		LocationID:  e.locID,
		PaymentType: "Cash",
		Items:       []ItemRequest{{ProductID: e.prodA, Quantity: 1}, {ProductID: e.prodB, Quantity: 1}},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsSystem(err))
	assert.Equal(t, ErrCompensationIncomplete.Code, apperrors.GetAppError(err).Code)
	assert.Equal(t, 1, e.stock(t, e.prodA).Reserved, "补偿失败时预占残留，需要人工核对")
}

func TestCreateOrder_ReferenceChecks(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.create.Execute(ctx, CreateOrderRequest{
		LocationID: e.locID, PaymentType: "Cash",
		Items: []ItemRequest{{ProductID: 999, Quantity: 1}},
	})
	assert.ErrorIs(t, err, product.ErrProductNotFound)

	_, err = e.create.Execute(ctx, CreateOrderRequest{
		LocationID: 999, PaymentType: "Cash",
		Items: []ItemRequest{{ProductID: e.prodA, Quantity: 1}},
	})
	assert.ErrorIs(t, err, location.ErrLocationNotFound)

	_, err = e.locs.Deactivate(ctx, e.locID)
	require.NoError(t, err)
	_, err = e.create.Execute(ctx, CreateOrderRequest{
		LocationID: e.locID, PaymentType: "Cash",
		Items: []ItemRequest{{ProductID: e.prodA, Quantity: 1}},
	})
	assert.ErrorIs(t, err, location.ErrLocationInactive)

	_, err = e.create.Execute(ctx, CreateOrderRequest{LocationID: e.locID, PaymentType: "Cash"})
	assert.ErrorIs(t, err, order.ErrInvalidOrderItems)
}

func TestCreateOrder_SequentialNumbers(t *testing.T) {
	e := newEnv(t)
	e.seed(t, e.prodA, 100)
	e.seed(t, e.prodB, 100)

	for _, want := range []string{"ORD-1001", "ORD-1002", "ORD-1003"} {
		assert.Equal(t, want, e.createAB(t, 1, 1).OrderNo)
	}
}

// fixedSequence 按给定顺序返回序号
type fixedSequence struct {
	mu   sync.Mutex
	nums []int64
}

func (s *fixedSequence) Next(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.nums[0]
	s.nums = s.nums[1:]
	return n, nil
}

func TestCreateOrder_RetriesDuplicateNumber(t *testing.T) {
	orders := memory.NewOrderStore()
	e := newEnv(t, withOrderRepo(orders), withSequence(&fixedSequence{nums: []int64{1001, 1001, 1002}}))
	e.seed(t, e.prodA, 10)
	e.seed(t, e.prodB, 10)

	first := e.createAB(t, 1, 1)
	second := e.createAB(t, 1, 1)
	assert.Equal(t, "ORD-1001", first.OrderNo)
	assert.Equal(t, "ORD-1002", second.OrderNo)

	// 冲突那次的预占已被补偿
	assert.Equal(t, 8, e.stock(t, e.prodA).Available)
	assert.Equal(t, 2, e.stock(t, e.prodA).Reserved)
}

func TestOrderLifecycle_ForwardPath(t *testing.T) {
	e := newEnv(t)
	e.seed(t, e.prodA, 10)
	e.seed(t, e.prodB, 10)
	no := e.createAB(t, 2, 3).OrderNo

	resp := e.setStatus(t, no, "Confirmed")
	assert.Equal(t, "Confirmed", resp.Status)
	a := e.stock(t, e.prodA)
	assert.Equal(t, 8, a.Available)
	assert.Equal(t, 0, a.Reserved)
	assert.Equal(t, 2, a.Dispatched)

	e.setStatus(t, no, "Dispatched")
	e.setStatus(t, no, "Delivered")
	e.setStatus(t, no, "Closed")

	assert.Equal(t, []inventory.TransactionType{
		inventory.TxReserve, inventory.TxReserve, inventory.TxOut, inventory.TxOut,
	}, e.refTypes(t, no), "发货/送达/关闭不动库存")

	_, err := e.status.Execute(context.Background(), ChangeStatusRequest{OrderNo: no, Status: "Dispatched"})
	assert.ErrorIs(t, err, order.ErrInvalidStatusTransition)
	_, err = e.ret.Execute(context.Background(), ReturnOrderRequest{OrderNo: no, Reason: "late"})
	assert.ErrorIs(t, err, order.ErrInvalidStatusTransition, "已关闭订单不能退货")
}

func TestOrderLifecycle_InvalidTransitions(t *testing.T) {
	e := newEnv(t)
	e.seed(t, e.prodA, 10)
	e.seed(t, e.prodB, 10)
	no := e.createAB(t, 1, 1).OrderNo
	before := e.txs.Len()

	for _, target := range []string{"Dispatched", "Delivered", "Closed", "Returned", "Draft"} {
		_, err := e.status.Execute(context.Background(), ChangeStatusRequest{OrderNo: no, Status: target})
		assert.ErrorIs(t, err, order.ErrInvalidStatusTransition, target)
	}
	_, err := e.ret.Execute(context.Background(), ReturnOrderRequest{OrderNo: no})
	assert.ErrorIs(t, err, order.ErrInvalidStatusTransition, "草稿不能退货")

	_, err = e.status.Execute(context.Background(), ChangeStatusRequest{OrderNo: no, Status: "Shipped"})
	assert.ErrorIs(t, err, order.ErrInvalidStatus)
	_, err = e.status.Execute(context.Background(), ChangeStatusRequest{OrderNo: no})
	assert.ErrorIs(t, err, apperrors.ErrInvalidParams)

	assert.Equal(t, before, e.txs.Len())
}

func TestReturnOrder_RestoresStockAndDeleteIsNoop(t *testing.T) {
	e := newEnv(t)
	e.seed(t, e.prodA, 10)
	e.seed(t, e.prodB, 10)
	no := e.createAB(t, 2, 3).OrderNo
	e.setStatus(t, no, "Confirmed")
	e.setStatus(t, no, "Dispatched")

	resp, err := e.ret.Execute(context.Background(), ReturnOrderRequest{OrderNo: no, Reason: " damaged ", Actor: "clerk"})
	require.NoError(t, err)
	assert.Equal(t, "Returned", resp.Status)
	assert.Equal(t, "damaged", resp.ReturnReason)

	for _, p := range []uint{e.prodA, e.prodB} {
		rec := e.stock(t, p)
		assert.Equal(t, 10, rec.Available)
		assert.Equal(t, 0, rec.Reserved)
		assert.Equal(t, 0, rec.Dispatched)
	}

	before := e.txs.Len()
	require.NoError(t, e.del.Execute(context.Background(), DeleteOrderRequest{OrderNo: no}))
	assert.Equal(t, before, e.txs.Len(), "已退货订单删除不再回补")
	assert.Equal(t, 10, e.stock(t, e.prodA).Available)
}

func TestDeleteConfirmedOrder_Restores(t *testing.T) {
	e := newEnv(t)
	e.seed(t, e.prodA, 10)
	e.seed(t, e.prodB, 10)
	no := e.createAB(t, 2, 3).OrderNo
	e.setStatus(t, no, "Confirmed")

	require.NoError(t, e.del.Execute(context.Background(), DeleteOrderRequest{OrderNo: no}))
	a := e.stock(t, e.prodA)
	assert.Equal(t, 10, a.Available)
	assert.Equal(t, 0, a.Dispatched)
	types := e.refTypes(t, no)
	assert.Equal(t, inventory.TxInward, types[len(types)-1])
}

func TestUpdateDraftItems_ReleaseOldReserveNew(t *testing.T) {
	e := newEnv(t)
	e.seed(t, e.prodA, 10)
	e.seed(t, e.prodB, 10)
	no := e.createAB(t, 2, 3).OrderNo

	resp, err := e.update.Execute(context.Background(), UpdateOrderRequest{
		OrderNo: no,
		Items: []ItemRequest{
			{ProductID: e.prodA, Quantity: 5}, // 变化
			{ProductID: e.prodB, Quantity: 3}, // 不变
		},
		Actor: "clerk",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Items[0].Quantity)

	a := e.stock(t, e.prodA)
	assert.Equal(t, 5, a.Available)
	assert.Equal(t, 5, a.Reserved)
	assert.Equal(t, 3, e.stock(t, e.prodB).Reserved)

	assert.Equal(t, []inventory.TransactionType{
		inventory.TxReserve, inventory.TxReserve, inventory.TxRelease, inventory.TxReserve,
	}, e.refTypes(t, no))
	assert.Equal(t, "600.00", resp.Subtotal.StringFixed(2)) // 90*5 + 50*3
}

func TestUpdateDraftItems_DropLineAndInsufficient(t *testing.T) {
	e := newEnv(t)
	e.seed(t, e.prodA, 10)
	e.seed(t, e.prodB, 10)
	no := e.createAB(t, 2, 3).OrderNo
	before := e.txs.Len()

	_, err := e.update.Execute(context.Background(), UpdateOrderRequest{
		OrderNo: no,
		Items:   []ItemRequest{{ProductID: e.prodA, Quantity: 11}},
	})
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.Equal(t, before, e.txs.Len())

	_, err = e.update.Execute(context.Background(), UpdateOrderRequest{
		OrderNo: no,
		Items:   []ItemRequest{{ProductID: e.prodA, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, e.stock(t, e.prodB).Reserved, "删掉的行释放预占")
	assert.Equal(t, 10, e.stock(t, e.prodB).Available)
}

func TestUpdateOrder_ItemsLockedAfterConfirm(t *testing.T) {
	e := newEnv(t)
	e.seed(t, e.prodA, 10)
	e.seed(t, e.prodB, 10)
	no := e.createAB(t, 1, 1).OrderNo
	e.setStatus(t, no, "Confirmed")

	_, err := e.update.Execute(context.Background(), UpdateOrderRequest{
		OrderNo: no,
		Items:   []ItemRequest{{ProductID: e.prodA, Quantity: 2}},
	})
	assert.ErrorIs(t, err, order.ErrItemsLocked)

	charge := decimal.NewFromInt(20)
	resp, err := e.update.Execute(context.Background(), UpdateOrderRequest{OrderNo: no, DeliveryCharge: &charge})
	require.NoError(t, err)
	assert.Equal(t, "20.00", resp.DeliveryCharge.StringFixed(2))
}

func TestChangeStatus_PaymentStatus(t *testing.T) {
	e := newEnv(t)
	e.seed(t, e.prodA, 10)
	e.seed(t, e.prodB, 10)
	no := e.createAB(t, 1, 1).OrderNo

	resp, err := e.status.Execute(context.Background(), ChangeStatusRequest{OrderNo: no, PaymentStatus: "Partial"})
	require.NoError(t, err)
	assert.Equal(t, "Partial", resp.PaymentStatus)
	assert.Equal(t, "Draft", resp.Status)

	_, err = e.status.Execute(context.Background(), ChangeStatusRequest{OrderNo: no, PaymentStatus: "Refunded"})
	assert.ErrorIs(t, err, order.ErrInvalidPaymentStatus)

	e.setStatus(t, no, "Confirmed")
	e.setStatus(t, no, "Dispatched")
	e.setStatus(t, no, "Delivered")
	resp, err = e.status.Execute(context.Background(), ChangeStatusRequest{OrderNo: no, Status: "Closed", PaymentStatus: "Paid"})
	require.NoError(t, err)
	assert.Equal(t, "Closed", resp.Status)
	assert.Equal(t, "Paid", resp.PaymentStatus)

	_, err = e.status.Execute(context.Background(), ChangeStatusRequest{OrderNo: no, PaymentStatus: "Unpaid"})
	assert.ErrorIs(t, err, order.ErrInvalidStatusTransition, "终态不能改支付状态")
}

func TestConcurrentConfirm_OnlyOneWins(t *testing.T) {
	e := newEnv(t)
	e.seed(t, e.prodA, 10)
	e.seed(t, e.prodB, 10)
	no := e.createAB(t, 2, 3).OrderNo

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.status.Execute(context.Background(), ChangeStatusRequest{OrderNo: no, Status: "Confirmed"})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, order.ErrInvalidStatusTransition)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 2, e.stock(t, e.prodA).Dispatched)
	assert.Equal(t, 3, e.stock(t, e.prodB).Dispatched)
}

func TestListOrders_FilterByStatus(t *testing.T) {
	e := newEnv(t)
	e.seed(t, e.prodA, 10)
	e.seed(t, e.prodB, 10)
	first := e.createAB(t, 1, 1).OrderNo
	e.createAB(t, 1, 1)
	e.setStatus(t, first, "Confirmed")

	resp, err := e.list.Execute(context.Background(), ListOrdersRequest{Status: "confirmed"})
	require.NoError(t, err)
	require.Len(t, resp.List, 1)
	assert.Equal(t, first, resp.List[0].OrderNo)

	resp, err = e.list.Execute(context.Background(), ListOrdersRequest{LocationID: e.locID, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)
	assert.Equal(t, 2, resp.TotalPages)
	assert.Equal(t, "ORD-1002", resp.List[0].OrderNo, "按创建时间倒序")

	_, err = e.get.Execute(context.Background(), "1001")
	assert.ErrorIs(t, err, order.ErrInvalidOrderNo)
}

func TestOrderLock_WaitIsBounded(t *testing.T) {
	settings := DefaultSettings()
	settings.LockTimeout = 50 * time.Millisecond
	e := newEnv(t, withSettings(settings))
	e.seed(t, e.prodA, 10)
	e.seed(t, e.prodB, 10)
	resp := e.createAB(t, 1, 1)

	// 模拟另一个请求正持有该订单的锁
	unlock, err := e.locker.Lock(context.Background(), "order:"+resp.OrderNo)
	require.NoError(t, err)

	start := time.Now()
	_, err = e.status.Execute(context.Background(), ChangeStatusRequest{OrderNo: resp.OrderNo, Status: "Confirmed", Actor: "clerk"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOrderBusy)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, e.stock(t, e.prodA).Reserved, "未拿到锁时不动库存")

	unlock()
	got := e.setStatus(t, resp.OrderNo, "Confirmed")
	assert.Equal(t, "Confirmed", got.Status)
}

func TestProductChanges_DoNotTouchExistingOrders(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seed(t, e.prodA, 10)
	e.seed(t, e.prodB, 10)

	first := e.createAB(t, 2, 1)
	require.Equal(t, "230.00", first.Subtotal.StringFixed(2))

	price := decimal.NewFromInt(200)
	_, err := e.prods.Update(ctx, e.prodA, product.Changes{Price: &price})
	require.NoError(t, err)

	got, err := e.get.Execute(ctx, first.OrderNo)
	require.NoError(t, err)
	assert.True(t, first.Subtotal.Equal(got.Subtotal))
	assert.True(t, first.GrandTotal.Equal(got.GrandTotal))
	assert.Equal(t, "100.00", got.Items[0].UnitPrice.StringFixed(2))

	confirmed := e.setStatus(t, first.OrderNo, "Confirmed")
	assert.True(t, first.GrandTotal.Equal(confirmed.GrandTotal), "确认时不重新取价")

	second := e.createAB(t, 1, 1)
	assert.Equal(t, "230.00", second.Subtotal.StringFixed(2)) // (200-20)*1 + 50

	_, err = e.prods.ChangeStatus(ctx, e.prodB, product.StatusInactive)
	require.NoError(t, err)
	before := e.txs.Len()

	_, err = e.create.Execute(ctx, CreateOrderRequest{
		CustomerName: "Asha",
		LocationID:   e.locID,
		PaymentType:  "Cash",
		Items:        []ItemRequest{{ProductID: e.prodB, Quantity: 1}},
		Actor:        "clerk",
	})
	assert.ErrorIs(t, err, product.ErrProductNotFound)
	assert.Equal(t, before, e.txs.Len(), "停售商品不产生预占")
	assert.Equal(t, 8, e.stock(t, e.prodB).Available)

	_, err = e.status.Execute(ctx, ChangeStatusRequest{OrderNo: second.OrderNo, Status: "Confirmed", Actor: "clerk"})
	assert.NoError(t, err, "停售前已下的订单照常出库")
}
