package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/smb-erp/internal/domain/audit"
	"github.com/xiebiao/smb-erp/internal/domain/order"
	"github.com/xiebiao/smb-erp/pkg/metrics"
	"github.com/xiebiao/smb-erp/pkg/tracing"
)

const timeLayout = "2006-01-02 15:04:05"

// OrderItemResponse 订单明细DTO
type OrderItemResponse struct {
	ProductID      uint            `json:"product_id"`
	LocationID     uint            `json:"location_id"`
	ProductName    string          `json:"product_name"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	GSTRate        decimal.Decimal `json:"gst_rate"`
	IncentiveType  string          `json:"incentive_type"`
	IncentiveValue decimal.Decimal `json:"incentive_value"`
	LineSubtotal   decimal.Decimal `json:"line_subtotal"`
	LineTax        decimal.Decimal `json:"line_tax"`
}

// OrderResponse 订单DTO
type OrderResponse struct {
	OrderNo              string              `json:"order_no"`
	CustomerName         string              `json:"customer_name"`
	LocationID           uint                `json:"location_id"`
	ExpectedDeliveryDate string              `json:"expected_delivery_date,omitempty"`
	Status               string              `json:"status"`
	PaymentType          string              `json:"payment_type"`
	PaymentStatus        string              `json:"payment_status"`
	DeliveryCharge       decimal.Decimal     `json:"delivery_charge"`
	Subtotal             decimal.Decimal     `json:"subtotal"`
	GSTAmount            decimal.Decimal     `json:"gst_amount"`
	GrandTotal           decimal.Decimal     `json:"grand_total"`
	ReturnReason         string              `json:"return_reason,omitempty"`
	CreatedBy            string              `json:"created_by"`
	Items                []OrderItemResponse `json:"items"`
	CreatedAt            string              `json:"created_at"`
	UpdatedAt            string              `json:"updated_at"`
}

func toResponse(o *order.Order) *OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ProductID:      it.ProductID,
			LocationID:     it.LocationID,
			ProductName:    it.ProductName,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			GSTRate:        it.GSTRate,
			IncentiveType:  it.IncentiveType,
			IncentiveValue: it.IncentiveValue,
			LineSubtotal:   it.LineSubtotal,
			LineTax:        it.LineTax,
		}
	}
	resp := &OrderResponse{
		OrderNo:        o.OrderNo,
		CustomerName:   o.CustomerName,
		LocationID:     o.LocationID,
		Status:         o.Status.String(),
		PaymentType:    string(o.PaymentType),
		PaymentStatus:  string(o.PaymentStatus),
		DeliveryCharge: o.DeliveryCharge,
		Subtotal:       o.Subtotal,
		GSTAmount:      o.GSTAmount,
		GrandTotal:     o.GrandTotal,
		ReturnReason:   o.ReturnReason,
		CreatedBy:      o.CreatedBy,
		Items:          items,
		CreatedAt:      o.CreatedAt.Format(timeLayout),
		UpdatedAt:      o.UpdatedAt.Format(timeLayout),
	}
	if o.ExpectedDeliveryDate != nil {
		resp.ExpectedDeliveryDate = o.ExpectedDeliveryDate.Format("2006-01-02")
	}
	return resp
}

// observe 为用例开启span，返回结束函数(记录耗时和结果)
func observe(ctx context.Context, op, orderNo string) (context.Context, func(err error)) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "order", "Order."+op)
	if orderNo != "" {
		span.SetAttributes(attribute.String("order_no", orderNo))
	}
	return ctx, func(err error) {
		result := "success"
		if err != nil {
			result = "failure"
		}
		tracing.RecordError(span, err)
		span.End()
		metrics.ObserveOrderOp(op, result, time.Since(start))
	}
}

func auditEntry(action string, o *order.Order, actor string, details map[string]any) audit.Entry {
	if details == nil {
		details = map[string]any{}
	}
	details["status"] = o.Status.String()
	details["grand_total"] = o.GrandTotal.StringFixed(2)
	return audit.Entry{
		Module:      audit.ModuleOrder,
		Action:      action,
		EntityID:    o.OrderNo,
		PerformedBy: actor,
		Details:     details,
		CreatedAt:   time.Now(),
	}
}
