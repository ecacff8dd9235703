package product

import (
	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
)

// 商品领域错误定义
var (
	// ErrProductNotFound 商品不存在(或已下架)
	ErrProductNotFound = apperrors.New(apperrors.ErrCodeProductNotFound, "商品不存在")

	// ErrSKUDuplicate 商品编码已存在
	ErrSKUDuplicate = apperrors.New(apperrors.ErrCodeDuplicateEntry, "商品编码已存在")

	// ErrInvalidProduct 编码或名称为空
	ErrInvalidProduct = apperrors.New(apperrors.ErrCodeInvalidParams, "商品编码和名称不能为空")

	// ErrInvalidPrice 价格不合法
	ErrInvalidPrice = apperrors.New(apperrors.ErrCodeInvalidParams, "价格和优惠金额不能为负数")

	// ErrInvalidGSTRate 税率不合法
	ErrInvalidGSTRate = apperrors.New(apperrors.ErrCodeInvalidParams, "GST税率必须在0-100之间")

	// ErrInvalidStatus 未知的商品状态
	ErrInvalidStatus = apperrors.New(apperrors.ErrCodeInvalidParams, "商品状态必须是Active、Inactive或Discontinued")
)

// invalidStatus 带上非法状态值
func invalidStatus(s Status) error {
	return apperrors.WithDetail(ErrInvalidStatus, "%q", string(s))
}
