package inventory

import (
	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
)

// 库存领域错误定义
// 4xxxx为业务错误(调用方请求不合法)，5xxxx为系统错误(存储、锁服务异常)
var (
	// ErrInsufficientStock 可用库存不足(预占、出库)
	ErrInsufficientStock = apperrors.New(apperrors.ErrCodeInsufficientStock, "可用库存不足")

	// ErrInsufficientReservedStock 预占库存不足(确认、释放)
	ErrInsufficientReservedStock = apperrors.New(apperrors.ErrCodeInsufficientReservedStock, "预占库存不足")

	// ErrInsufficientDispatchedStock 已出库数量不足(回补)
	ErrInsufficientDispatchedStock = apperrors.New(apperrors.ErrCodeInsufficientDispatchedStock, "已出库数量不足，无法回补")

	// ErrStockNotFound 库存记录不存在
	ErrStockNotFound = apperrors.New(apperrors.ErrCodeStockNotFound, "库存记录不存在")

	// ErrInvalidQuantity 数量不合法
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidOperation, "数量必须大于0")

	// ErrInvalidAdjustType 未知的调整类型
	ErrInvalidAdjustType = apperrors.New(apperrors.ErrCodeInvalidOperation, "未知的库存调整类型")

	// ErrInvalidTransaction 流水缺少必填字段
	ErrInvalidTransaction = apperrors.New(apperrors.ErrCodeInvalidOperation, "库存流水不完整")

	// ErrNegativeCounter 计数器将变为负数(内部一致性保护)
	ErrNegativeCounter = apperrors.New(apperrors.ErrCodeInternal, "库存计数不能为负")

	// ErrConcurrentUpdate 乐观锁冲突(版本号不匹配)
	ErrConcurrentUpdate = apperrors.New(apperrors.ErrCodeDatabaseError, "库存记录已被并发修改")

	// ErrLockTimeout 等待库存锁超时
	ErrLockTimeout = apperrors.New(apperrors.ErrCodeInternal, "库存操作繁忙，请稍后重试")
)
