package order

import (
	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
)

// 订单领域错误定义
var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = apperrors.New(apperrors.ErrCodeOrderNotFound, "订单不存在")

	// ErrInvalidStatusTransition 非法的状态转换
	ErrInvalidStatusTransition = apperrors.New(apperrors.ErrCodeInvalidOrderStatus, "订单状态不允许此操作")

	// ErrItemsLocked 非草稿订单不能修改明细
	ErrItemsLocked = apperrors.New(apperrors.ErrCodeInvalidOrderStatus, "只有草稿订单可以修改明细")

	// ErrInvalidStatus 未知的状态名
	ErrInvalidStatus = apperrors.New(apperrors.ErrCodeInvalidParams, "未知的订单状态")

	// ErrOrderNoGenerate 订单号生成失败
	ErrOrderNoGenerate = apperrors.New(apperrors.ErrCodeInternal, "订单号生成失败")

	// ErrOrderNoDuplicate 订单号冲突
	ErrOrderNoDuplicate = apperrors.New(apperrors.ErrCodeDuplicateEntry, "订单号已存在")

	// ErrInvalidOrderNo 订单号格式错误
	ErrInvalidOrderNo = apperrors.New(apperrors.ErrCodeInvalidParams, "订单号格式错误")

	// ErrInvalidOrderItems 订单明细不合法
	ErrInvalidOrderItems = apperrors.New(apperrors.ErrCodeInvalidParams, "订单明细不能为空且必须指定商品")

	// ErrInvalidQuantity 购买数量不合法
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "购买数量必须大于0")

	// ErrInvalidPaymentType 支付方式不合法
	ErrInvalidPaymentType = apperrors.New(apperrors.ErrCodeInvalidParams, "支付方式必须是Cash/Card/UPI/COD/Online之一")

	// ErrInvalidPaymentStatus 支付状态不合法
	ErrInvalidPaymentStatus = apperrors.New(apperrors.ErrCodeInvalidParams, "支付状态必须是Unpaid/Paid/Partial之一")

	// ErrInvalidDeliveryCharge 运费不合法
	ErrInvalidDeliveryCharge = apperrors.New(apperrors.ErrCodeInvalidParams, "运费不能为负数")
)
