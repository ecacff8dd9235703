package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/smb-erp/internal/domain/audit"
	"github.com/xiebiao/smb-erp/internal/domain/inventory"
	"github.com/xiebiao/smb-erp/internal/domain/location"
	"github.com/xiebiao/smb-erp/internal/domain/product"
	"github.com/xiebiao/smb-erp/internal/infrastructure/persistence/memory"
	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
	"github.com/xiebiao/smb-erp/pkg/keylock"
)

type captureSink struct{ entries []audit.Entry }

func (s *captureSink) LogAction(_ context.Context, e audit.Entry) { s.entries = append(s.entries, e) }

// inwardFailLedger 目标库位入库失败
type inwardFailLedger struct {
	inventory.Ledger
	failLocation uint
}

func (l *inwardFailLedger) AdjustManual(ctx context.Context, k inventory.Key, typ inventory.AdjustType, qty int, ref, reason, actor string) (*inventory.StockRecord, error) {
	if typ == inventory.AdjustInward && k.LocationID == l.failLocation {
		return nil, apperrors.WrapDatabase(assert.AnError, "写入失败")
	}
	return l.Ledger.AdjustManual(ctx, k, typ, qty, ref, reason, actor)
}

// stalledInwardLedger 目标库位入库一直等到ctx结束
type stalledInwardLedger struct {
	inventory.Ledger
	stallLocation uint
}

func (l *stalledInwardLedger) AdjustManual(ctx context.Context, k inventory.Key, typ inventory.AdjustType, qty int, ref, reason, actor string) (*inventory.StockRecord, error) {
	if typ == inventory.AdjustInward && k.LocationID == l.stallLocation && reason != "调拨失败回退" {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return l.Ledger.AdjustManual(ctx, k, typ, qty, ref, reason, actor)
}

type fixture struct {
	ledger  inventory.Ledger
	stocks  *memory.StockStore
	txs     *memory.TransactionStore
	locs    location.Service
	prods   product.Service
	sink    *captureSink
	locker  *keylock.Locker
	mainID  uint
	backID  uint
	product uint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	txs := memory.NewTransactionStore()
	stocks := memory.NewStockStore(txs)
	locker := keylock.New()
	f := &fixture{
		ledger: inventory.NewLedger(stocks, locker),
		stocks: stocks,
		txs:    txs,
		locs:   location.NewService(memory.NewLocationStore()),
		prods:  product.NewService(memory.NewProductStore()),
		sink:   &captureSink{},
		locker: locker,
	}
	main, err := f.locs.Create(ctx, "Main", "")
	require.NoError(t, err)
	back, err := f.locs.Create(ctx, "Backroom", "")
	require.NoError(t, err)
	p, err := f.prods.Register(ctx, "SKU-1", "Widget", decimal.NewFromInt(10), decimal.NewFromInt(18), "", decimal.Zero)
	require.NoError(t, err)
	f.mainID, f.backID, f.product = main.ID, back.ID, p.ID
	return f
}

func (f *fixture) adjust(ledger inventory.Ledger) *AdjustStockUseCase {
	return NewAdjustStockUseCase(ledger, f.locs, f.prods, f.sink, Settings{LowStockThreshold: 5}, zap.NewNop())
}

func TestAdjustStock(t *testing.T) {
	f := newFixture(t)
	uc := f.adjust(f.ledger)
	ctx := context.Background()

	resp, err := uc.Execute(ctx, AdjustStockRequest{
		ProductID: f.product, LocationID: f.mainID, Type: "inward", Quantity: 3, Reason: "收货", Actor: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Available)
	assert.Equal(t, "Low Stock", resp.Status)

	resp, err = uc.Execute(ctx, AdjustStockRequest{
		ProductID: f.product, LocationID: f.mainID, Type: "ADJUSTMENT", Quantity: 50, Actor: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, 50, resp.Current)
	assert.Equal(t, "In Stock", resp.Status)

	require.Len(t, f.sink.entries, 2)
	assert.Equal(t, audit.ModuleInventory, f.sink.entries[0].Module)
	assert.Equal(t, "MANUAL", f.sink.entries[0].Details["reference"])
}

func TestAdjustStock_Validation(t *testing.T) {
	f := newFixture(t)
	uc := f.adjust(f.ledger)
	ctx := context.Background()

	_, err := uc.Execute(ctx, AdjustStockRequest{ProductID: f.product, LocationID: f.mainID, Type: "LOST", Quantity: 1})
	assert.ErrorIs(t, err, inventory.ErrInvalidAdjustType)

	_, err = uc.Execute(ctx, AdjustStockRequest{ProductID: 42, LocationID: f.mainID, Type: "INWARD", Quantity: 1})
	assert.ErrorIs(t, err, product.ErrProductNotFound)

	_, err = uc.Execute(ctx, AdjustStockRequest{ProductID: f.product, LocationID: 42, Type: "INWARD", Quantity: 1})
	assert.ErrorIs(t, err, location.ErrLocationNotFound)

	_, err = uc.Execute(ctx, AdjustStockRequest{ProductID: f.product, LocationID: f.mainID, Type: "OUTWARD", Quantity: 1})
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	assert.Zero(t, f.txs.Len())
	assert.Empty(t, f.sink.entries)
}

func TestTransferStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.adjust(f.ledger).Execute(ctx, AdjustStockRequest{ProductID: f.product, LocationID: f.mainID, Type: "INWARD", Quantity: 10})
	require.NoError(t, err)

	uc := NewTransferStockUseCase(f.ledger, f.locs, f.prods, f.sink, Settings{}, zap.NewNop())
	resp, err := uc.Execute(ctx, TransferStockRequest{
		ProductID: f.product, FromLocationID: f.mainID, ToLocationID: f.backID, Quantity: 4, Actor: "admin",
	})
	require.NoError(t, err)

	assert.Equal(t, 6, resp.From.Available)
	assert.Equal(t, 4, resp.To.Available)
	assert.Equal(t, "TRANSFER:1->2", resp.Reference)

	txs, _, err := f.txs.List(ctx, inventory.TransactionFilter{Reference: resp.Reference}, 1, 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, inventory.TxInward, txs[0].Type)
	assert.Equal(t, inventory.TxOutward, txs[1].Type)
}

func TestTransferStock_DestinationFailureRestoresSource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.adjust(f.ledger).Execute(ctx, AdjustStockRequest{ProductID: f.product, LocationID: f.mainID, Type: "INWARD", Quantity: 10})
	require.NoError(t, err)

	faulty := &inwardFailLedger{Ledger: f.ledger, failLocation: f.backID}
	uc := NewTransferStockUseCase(faulty, f.locs, f.prods, f.sink, Settings{}, zap.NewNop())
	_, err = uc.Execute(ctx, TransferStockRequest{ProductID: f.product, FromLocationID: f.mainID, ToLocationID: f.backID, Quantity: 4})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDatabaseError, apperrors.GetAppError(err).Code)

	rec, err := f.ledger.GetStock(ctx, inventory.Key{ProductID: f.product, LocationID: f.mainID})
	require.NoError(t, err)
	assert.Equal(t, 10, rec.Available)
}

func TestTransferStock_UsesConfiguredSagaTimeout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.adjust(f.ledger).Execute(ctx, AdjustStockRequest{ProductID: f.product, LocationID: f.mainID, Type: "INWARD", Quantity: 10})
	require.NoError(t, err)

	stalled := &stalledInwardLedger{Ledger: f.ledger, stallLocation: f.backID}
	uc := NewTransferStockUseCase(stalled, f.locs, f.prods, f.sink, Settings{SagaTimeout: 50 * time.Millisecond}, zap.NewNop())

	start := time.Now()
	_, err = uc.Execute(ctx, TransferStockRequest{ProductID: f.product, FromLocationID: f.mainID, ToLocationID: f.backID, Quantity: 4})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second, "按配置的超时结束，而不是默认的10秒")

	rec, err := f.ledger.GetStock(ctx, inventory.Key{ProductID: f.product, LocationID: f.mainID})
	require.NoError(t, err)
	assert.Equal(t, 10, rec.Available, "超时后源库位已回补")
}

func TestSettings_SagaTimeout(t *testing.T) {
	assert.Equal(t, DefaultSagaTimeout, Settings{}.sagaTimeout())
	assert.Equal(t, 3*time.Second, Settings{SagaTimeout: 3 * time.Second}.sagaTimeout())
}

func TestTransferStock_Validation(t *testing.T) {
	f := newFixture(t)
	uc := NewTransferStockUseCase(f.ledger, f.locs, f.prods, f.sink, Settings{}, zap.NewNop())
	ctx := context.Background()

	_, err := uc.Execute(ctx, TransferStockRequest{ProductID: f.product, FromLocationID: f.mainID, ToLocationID: f.mainID, Quantity: 1})
	assert.ErrorIs(t, err, ErrSameLocation)

	_, err = uc.Execute(ctx, TransferStockRequest{ProductID: f.product, FromLocationID: f.mainID, ToLocationID: f.backID, Quantity: 0})
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)

	_, err = uc.Execute(ctx, TransferStockRequest{ProductID: f.product, FromLocationID: f.mainID, ToLocationID: f.backID, Quantity: 1})
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock, "源库位没有库存")
}

func TestListStockAndTransactions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	adjust := f.adjust(f.ledger)
	for _, loc := range []uint{f.mainID, f.backID} {
		_, err := adjust.Execute(ctx, AdjustStockRequest{ProductID: f.product, LocationID: loc, Type: "INWARD", Quantity: 7})
		require.NoError(t, err)
	}

	list, err := NewListStockUseCase(f.stocks, Settings{}).Execute(ctx, ListStockRequest{LocationID: f.backID})
	require.NoError(t, err)
	require.Len(t, list.List, 1)
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, 20, list.PageSize)

	get, err := NewGetStockUseCase(f.ledger, Settings{}).Execute(ctx, f.product, f.mainID)
	require.NoError(t, err)
	assert.Equal(t, 7, get.Available)

	txs, err := NewListTransactionsUseCase(inventory.NewTransactionLog(f.txs)).Execute(ctx, ListTransactionsRequest{Type: "inward"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), txs.Total)
	assert.Equal(t, f.backID, txs.List[0].LocationID, "最新的在前")

	_, err = NewListTransactionsUseCase(inventory.NewTransactionLog(f.txs)).Execute(ctx, ListTransactionsRequest{Type: "bogus"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidParams)
}

func TestDeleteStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.adjust(f.ledger).Execute(ctx, AdjustStockRequest{ProductID: f.product, LocationID: f.mainID, Type: "INWARD", Quantity: 7})
	require.NoError(t, err)

	uc := NewDeleteStockUseCase(f.stocks, f.locker, f.sink, zap.NewNop())
	require.NoError(t, uc.Execute(ctx, f.product, f.mainID, "admin"))

	_, err = f.ledger.GetStock(ctx, inventory.Key{ProductID: f.product, LocationID: f.mainID})
	assert.ErrorIs(t, err, inventory.ErrStockNotFound)
	assert.ErrorIs(t, uc.Execute(ctx, f.product, f.mainID, "admin"), inventory.ErrStockNotFound)
	assert.Equal(t, "delete", f.sink.entries[len(f.sink.entries)-1].Action)
	assert.Equal(t, 1, f.txs.Len(), "删除记录不删流水")
}

func TestReconcileStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := inventory.Key{ProductID: f.product, LocationID: f.mainID}
	log := inventory.NewTransactionLog(f.txs)
	reconcile := NewReconcileStockUseCase(f.ledger, log, Settings{}, zap.NewNop())

	_, err := reconcile.Execute(ctx, f.product, f.mainID)
	assert.ErrorIs(t, err, inventory.ErrStockNotFound)

	_, err = f.ledger.AdjustManual(ctx, key, inventory.AdjustAdjustment, 10, "seed", "期初", "admin")
	require.NoError(t, err)
	_, err = f.ledger.Reserve(ctx, key, 3, "ORD-1", "clerk")
	require.NoError(t, err)
	_, err = f.ledger.Confirm(ctx, key, 2, "ORD-1", "clerk")
	require.NoError(t, err)
	_, err = f.ledger.Release(ctx, key, 1, "ORD-1", "clerk")
	require.NoError(t, err)
	_, err = f.ledger.Restore(ctx, key, 2, "ORD-1", "clerk")
	require.NoError(t, err)
	_, err = f.ledger.AdjustManual(ctx, key, inventory.AdjustIssue, 1, "REQ-1", "领用", "admin")
	require.NoError(t, err)
	_, err = f.ledger.AdjustManual(ctx, inventory.Key{ProductID: f.product, LocationID: f.backID}, inventory.AdjustInward, 4, "GRN-1", "", "admin")
	require.NoError(t, err)

	resp, err := reconcile.Execute(ctx, f.product, f.mainID)
	require.NoError(t, err)
	assert.True(t, resp.Consistent, resp.Mismatches)
	assert.Equal(t, 6, resp.Transactions, "只统计本库位的流水")
	assert.Equal(t, 9, resp.Stock.Available)
	require.NotNil(t, resp.Latest)
	assert.Equal(t, "ISSUE", resp.Latest.Type)

	// 记录之外多出一条流水：快照和连贯性都对不上
	require.NoError(t, log.Append(ctx, &inventory.Transaction{
		ProductID: f.product, LocationID: f.mainID, Type: inventory.TxInward, Quantity: 5,
		AvailableAfter: 20, Reference: "GRN-X", Actor: "import",
	}))
	resp, err = reconcile.Execute(ctx, f.product, f.mainID)
	require.NoError(t, err)
	assert.False(t, resp.Consistent)
	assert.Len(t, resp.Mismatches, 2)
	assert.Contains(t, resp.Mismatches[0], "可用量")
	assert.Contains(t, resp.Mismatches[1], "不连贯")
}

func TestReconcileStock_AcrossBatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := inventory.Key{ProductID: f.product, LocationID: f.backID}

	_, err := f.ledger.AdjustManual(ctx, key, inventory.AdjustAdjustment, 300, "seed", "期初", "admin")
	require.NoError(t, err)
	for i := 0; i < 250; i++ {
		_, err := f.ledger.Reserve(ctx, key, 1, "ORD-BULK", "clerk")
		require.NoError(t, err)
	}

	resp, err := NewReconcileStockUseCase(f.ledger, inventory.NewTransactionLog(f.txs), Settings{}, zap.NewNop()).
		Execute(ctx, f.product, f.backID)
	require.NoError(t, err)
	assert.True(t, resp.Consistent, resp.Mismatches)
	assert.Equal(t, 251, resp.Transactions)
	assert.Equal(t, 250, resp.Stock.Reserved)
}
