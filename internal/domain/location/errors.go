package location

import (
	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
)

// 库位领域错误定义
var (
	// ErrLocationNotFound 库位不存在
	ErrLocationNotFound = apperrors.New(apperrors.ErrCodeLocationNotFound, "库位不存在")

	// ErrLocationInactive 库位已停用
	ErrLocationInactive = apperrors.New(apperrors.ErrCodeInvalidOperation, "库位已停用")

	// ErrNameDuplicate 库位名称已存在
	ErrNameDuplicate = apperrors.New(apperrors.ErrCodeDuplicateEntry, "库位名称已存在")

	// ErrInvalidName 名称为空或过长
	ErrInvalidName = apperrors.New(apperrors.ErrCodeInvalidParams, "库位名称不能为空且不超过100个字符")
)
