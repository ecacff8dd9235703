package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appinventory "github.com/xiebiao/smb-erp/internal/application/inventory"
	applocation "github.com/xiebiao/smb-erp/internal/application/location"
	apporder "github.com/xiebiao/smb-erp/internal/application/order"
	appproduct "github.com/xiebiao/smb-erp/internal/application/product"
	"github.com/xiebiao/smb-erp/internal/domain/audit"
	"github.com/xiebiao/smb-erp/internal/domain/inventory"
	"github.com/xiebiao/smb-erp/internal/domain/location"
	"github.com/xiebiao/smb-erp/internal/domain/product"
	"github.com/xiebiao/smb-erp/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/smb-erp/internal/interface/http/handler"
	"github.com/xiebiao/smb-erp/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
	"github.com/xiebiao/smb-erp/pkg/jwt"
	"github.com/xiebiao/smb-erp/pkg/keylock"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type server struct {
	t      *testing.T
	engine *gin.Engine
	token  string
}

func newServer(t *testing.T) *server {
	t.Helper()
	logger := zap.NewNop()
	sink := audit.NopSink{}

	txs := memory.NewTransactionStore()
	stocks := memory.NewStockStore(txs)
	locker := keylock.New()
	ledger := inventory.NewLedger(stocks, locker)
	locs := location.NewService(memory.NewLocationStore())
	prods := product.NewService(memory.NewProductStore())
	orders := memory.NewOrderStore()
	seq := memory.NewOrderSequence(orders, 1001)
	settings := appinventory.Settings{LowStockThreshold: 5}
	coordinator := apporder.NewStockCoordinator(ledger, locker, apporder.DefaultSettings(), logger)

	h := Handlers{
		Location: handler.NewLocationHandler(applocation.NewManageLocationUseCase(locs, sink, logger)),
		Product: handler.NewProductHandler(
			appproduct.NewRegisterProductUseCase(prods, sink, logger),
			appproduct.NewManageProductUseCase(prods, sink, logger),
			appproduct.NewQueryProductUseCase(prods),
		),
		Inventory: handler.NewInventoryHandler(
			appinventory.NewGetStockUseCase(ledger, settings),
			appinventory.NewListStockUseCase(stocks, settings),
			appinventory.NewAdjustStockUseCase(ledger, locs, prods, sink, settings, logger),
			appinventory.NewTransferStockUseCase(ledger, locs, prods, sink, settings, logger),
			appinventory.NewListTransactionsUseCase(inventory.NewTransactionLog(txs)),
			appinventory.NewDeleteStockUseCase(stocks, locker, sink, logger),
			appinventory.NewReconcileStockUseCase(ledger, inventory.NewTransactionLog(txs), settings, logger),
		),
		Order: handler.NewOrderHandler(
			apporder.NewCreateOrderUseCase(orders, seq, locs, prods, coordinator, sink, logger),
			apporder.NewUpdateOrderUseCase(orders, locs, prods, coordinator, sink, logger),
			apporder.NewChangeStatusUseCase(orders, coordinator, sink, logger),
			apporder.NewReturnOrderUseCase(orders, coordinator, sink, logger),
			apporder.NewDeleteOrderUseCase(orders, coordinator, sink, logger),
			apporder.NewGetOrderUseCase(orders),
			apporder.NewListOrdersUseCase(orders),
		),
	}

	manager := jwt.NewManager("test-secret", time.Hour)
	token, _, err := manager.GenerateToken(1, "ops@example.com", "clerk")
	require.NoError(t, err)

	engine := New(Options{Mode: gin.TestMode}, logger, middleware.NewAuthMiddleware(manager), h)
	return &server{t: t, engine: engine, token: token}
}

func (s *server) do(method, path string, body any, header map[string]string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "" && bytes.HasPrefix(bytes.TrimSpace(w.Body.Bytes()), []byte("{")) {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

// call 带Token的业务请求
func (s *server) call(method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	return s.do(method, path, body, map[string]string{"Authorization": "Bearer " + s.token})
}

func (s *server) mustOK(method, path string, body any, out any) {
	s.t.Helper()
	w, env := s.call(method, path, body)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	require.Zero(s.t, env.Code, env.Message)
	if out != nil {
		require.NoError(s.t, json.Unmarshal(env.Data, out))
	}
}

func TestPingAndMetrics(t *testing.T) {
	s := newServer(t)

	w, env := s.do(http.MethodGet, "/ping", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, env.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))

	w, _ = s.do(http.MethodGet, "/ping", nil, map[string]string{middleware.HeaderRequestID: "req-42"})
	assert.Equal(t, "req-42", w.Header().Get(middleware.HeaderRequestID))

	w, _ = s.do(http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestAuthRequired(t *testing.T) {
	s := newServer(t)

	w, env := s.do(http.MethodGet, "/api/v1/locations", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.ErrCodeUnauthorized, env.Code)

	w, env = s.do(http.MethodGet, "/api/v1/locations", nil, map[string]string{"Authorization": "Token abc"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.ErrCodeInvalidToken, env.Code)

	w, env = s.do(http.MethodGet, "/api/v1/locations", nil, map[string]string{"Authorization": "Bearer abc"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.ErrCodeInvalidToken, env.Code)
}

func TestUnknownFieldsRejected(t *testing.T) {
	s := newServer(t)

	w, env := s.call(http.MethodPost, "/api/v1/locations", map[string]any{"name": "Main", "colour": "red"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrCodeBindError, env.Code)

	w, env = s.call(http.MethodPost, "/api/v1/locations", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrCodeBindError, env.Code)
}

// seedCatalog 建一个库位、一个商品并入库qty件，返回(库位ID, 商品ID)
func (s *server) seedCatalog(qty int) (uint, uint) {
	s.t.Helper()
	var loc applocation.LocationResponse
	s.mustOK(http.MethodPost, "/api/v1/locations", map[string]any{"name": "Main Store", "address": "12 MG Road"}, &loc)

	var prod appproduct.ProductResponse
	s.mustOK(http.MethodPost, "/api/v1/products", map[string]any{
		"sku": "SKU-1", "name": "Bottle", "price": "100", "gst_rate": "18",
		"incentive_type": "Discount", "incentive_value": "10",
	}, &prod)

	var stock appinventory.StockResponse
	s.mustOK(http.MethodPost, "/api/v1/inventory/adjust", map[string]any{
		"product_id": prod.ID, "location_id": loc.ID, "type": "INWARD", "quantity": qty, "reference": "GRN-1",
	}, &stock)
	require.Equal(s.t, qty, stock.Available)
	return loc.ID, prod.ID
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	s := newServer(t)
	locID, prodID := s.seedCatalog(10)
	stockPath := fmt.Sprintf("/api/v1/inventory/%d/%d", prodID, locID)

	var created apporder.OrderResponse
	s.mustOK(http.MethodPost, "/api/v1/orders", map[string]any{
		"customer_name":          "Asha Traders",
		"location_id":            locID,
		"payment_type":           "UPI",
		"delivery_charge":        "50",
		"expected_delivery_date": "2030-06-30",
		"items":                  []map[string]any{{"product_id": prodID, "quantity": 2}},
	}, &created)
	assert.Equal(t, "ORD-1001", created.OrderNo)
	assert.Equal(t, "Draft", created.Status)
	assert.Equal(t, "clerk", created.CreatedBy)
	assert.True(t, decimal.RequireFromString("180").Equal(created.Subtotal))
	assert.True(t, decimal.RequireFromString("262.40").Equal(created.GrandTotal))

	var stock appinventory.StockResponse
	s.mustOK(http.MethodGet, stockPath, nil, &stock)
	assert.Equal(t, 8, stock.Available)
	assert.Equal(t, 2, stock.Reserved)

	var confirmed apporder.OrderResponse
	s.mustOK(http.MethodPut, "/api/v1/orders/ORD-1001/status", map[string]any{"status": "Confirmed", "payment_status": "Paid"}, &confirmed)
	assert.Equal(t, "Confirmed", confirmed.Status)
	assert.Equal(t, "Paid", confirmed.PaymentStatus)

	s.mustOK(http.MethodGet, stockPath, nil, &stock)
	assert.Equal(t, 0, stock.Reserved)
	assert.Equal(t, 2, stock.Dispatched)
	assert.Equal(t, 10, stock.Current, "现有量含已出库")

	var returned apporder.OrderResponse
	s.mustOK(http.MethodPost, "/api/v1/orders/ORD-1001/return", map[string]any{"reason": "damaged"}, &returned)
	assert.Equal(t, "Returned", returned.Status)
	assert.Equal(t, "damaged", returned.ReturnReason)

	s.mustOK(http.MethodGet, stockPath, nil, &stock)
	assert.Equal(t, 10, stock.Available)
	assert.Equal(t, 0, stock.Dispatched)

	var page struct {
		List  []appinventory.TransactionResponse `json:"list"`
		Total int64                              `json:"total"`
	}
	s.mustOK(http.MethodGet, "/api/v1/inventory/transactions?reference=ORD-1001", nil, &page)
	require.Equal(t, int64(3), page.Total)
	assert.Equal(t, "INWARD", page.List[0].Type, "最新的在前")
	assert.Equal(t, "clerk", page.List[0].Actor)

	var report appinventory.ReconcileResponse
	s.mustOK(http.MethodGet, stockPath+"/reconcile", nil, &report)
	assert.True(t, report.Consistent, report.Mismatches)
	assert.Equal(t, 4, report.Transactions, "期初入库+预占+出库+回补")

	s.mustOK(http.MethodDelete, "/api/v1/orders/ORD-1001", nil, nil)
	w, env := s.call(http.MethodGet, "/api/v1/orders/ORD-1001", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ErrCodeOrderNotFound, env.Code)
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	s := newServer(t)
	locID, prodID := s.seedCatalog(3)

	w, env := s.call(http.MethodPost, "/api/v1/orders", map[string]any{
		"customer_name": "Asha",
		"location_id":   locID,
		"payment_type":  "Cash",
		"items":         []map[string]any{{"product_id": prodID, "quantity": 5}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperrors.ErrCodeInsufficientStock, env.Code)

	var stock appinventory.StockResponse
	s.mustOK(http.MethodGet, fmt.Sprintf("/api/v1/inventory/%d/%d", prodID, locID), nil, &stock)
	assert.Equal(t, 3, stock.Available)
	assert.Equal(t, 0, stock.Reserved)
}

func TestInventoryRoutes(t *testing.T) {
	s := newServer(t)
	locID, prodID := s.seedCatalog(10)

	var back applocation.LocationResponse
	s.mustOK(http.MethodPost, "/api/v1/locations", map[string]any{"name": "Backroom"}, &back)

	var moved appinventory.TransferStockResponse
	s.mustOK(http.MethodPost, "/api/v1/inventory/transfer", map[string]any{
		"product_id": prodID, "from_location_id": locID, "to_location_id": back.ID, "quantity": 4,
	}, &moved)
	assert.Equal(t, 6, moved.From.Available)
	assert.Equal(t, 4, moved.To.Available)

	w, env := s.call(http.MethodPost, "/api/v1/inventory/transfer", map[string]any{
		"product_id": prodID, "from_location_id": locID, "to_location_id": locID, "quantity": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "nefield校验")
	assert.Equal(t, apperrors.ErrCodeBindError, env.Code)

	var page struct {
		List  []appinventory.StockResponse `json:"list"`
		Total int64                        `json:"total"`
	}
	s.mustOK(http.MethodGet, fmt.Sprintf("/api/v1/inventory?product_id=%d", prodID), nil, &page)
	assert.Equal(t, int64(2), page.Total)

	s.mustOK(http.MethodDelete, fmt.Sprintf("/api/v1/inventory/%d/%d", prodID, back.ID), nil, nil)
	w, env = s.call(http.MethodGet, fmt.Sprintf("/api/v1/inventory/%d/%d", prodID, back.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ErrCodeStockNotFound, env.Code)

	w, _ = s.call(http.MethodGet, "/api/v1/inventory/transactions?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLocationAndProductRoutes(t *testing.T) {
	s := newServer(t)
	locID, prodID := s.seedCatalog(1)

	var loc applocation.LocationResponse
	s.mustOK(http.MethodPut, fmt.Sprintf("/api/v1/locations/%d", locID), map[string]any{"name": "Main Branch"}, &loc)
	assert.Equal(t, "Main Branch", loc.Name)

	s.mustOK(http.MethodDelete, fmt.Sprintf("/api/v1/locations/%d", locID), nil, &loc)
	assert.False(t, loc.Active)

	var active []applocation.LocationResponse
	s.mustOK(http.MethodGet, "/api/v1/locations?active=true", nil, &active)
	assert.Empty(t, active)

	w, _ := s.call(http.MethodGet, "/api/v1/locations/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var prod appproduct.ProductResponse
	s.mustOK(http.MethodGet, fmt.Sprintf("/api/v1/products/%d", prodID), nil, &prod)
	assert.Equal(t, "SKU-1", prod.SKU)

	w, env := s.call(http.MethodPost, "/api/v1/products", map[string]any{"sku": "SKU-1", "name": "Dup", "price": "1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.ErrCodeDuplicateEntry, env.Code)
}

func TestProductMaintenanceRoutes(t *testing.T) {
	s := newServer(t)
	locID, prodID := s.seedCatalog(10)
	productPath := fmt.Sprintf("/api/v1/products/%d", prodID)

	var created apporder.OrderResponse
	s.mustOK(http.MethodPost, "/api/v1/orders", map[string]any{
		"customer_name": "Asha Traders",
		"location_id":   locID,
		"payment_type":  "Cash",
		"items":         []map[string]any{{"product_id": prodID, "quantity": 2}},
	}, &created)

	var prod appproduct.ProductResponse
	s.mustOK(http.MethodPut, productPath, map[string]any{"price": "250", "gst_rate": "12"}, &prod)
	assert.True(t, decimal.RequireFromString("250").Equal(prod.Price))
	assert.True(t, decimal.RequireFromString("12").Equal(prod.GSTRate))
	assert.Equal(t, "Bottle", prod.Name, "未给出的字段不变")

	var existing apporder.OrderResponse
	s.mustOK(http.MethodGet, "/api/v1/orders/"+created.OrderNo, nil, &existing)
	assert.True(t, created.Subtotal.Equal(existing.Subtotal), "已有订单按快照计价")
	assert.True(t, created.GrandTotal.Equal(existing.GrandTotal))

	w, env := s.call(http.MethodPut, productPath, map[string]any{"price": "-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrCodeInvalidParams, env.Code)

	w, _ = s.call(http.MethodPut, productPath+"/status", map[string]any{"status": "Paused"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.mustOK(http.MethodPut, productPath+"/status", map[string]any{"status": "Inactive"}, &prod)
	assert.Equal(t, "Inactive", prod.Status)
	assert.False(t, prod.Active)

	var inactive struct {
		List  []appproduct.ProductResponse `json:"list"`
		Total int64                        `json:"total"`
	}
	s.mustOK(http.MethodGet, "/api/v1/products?status=Inactive", nil, &inactive)
	require.Len(t, inactive.List, 1)
	assert.Equal(t, prodID, inactive.List[0].ID)

	w, env = s.call(http.MethodPost, "/api/v1/orders", map[string]any{
		"customer_name": "Asha Traders",
		"location_id":   locID,
		"payment_type":  "Cash",
		"items":         []map[string]any{{"product_id": prodID, "quantity": 1}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ErrCodeProductNotFound, env.Code)

	w, env = s.call(http.MethodPut, "/api/v1/products/999/status", map[string]any{"status": "Active"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ErrCodeProductNotFound, env.Code)
}
