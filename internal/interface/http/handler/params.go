package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/smb-erp/internal/interface/http/dto"
	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
)

// uintParam 解析路径中的正整数ID
func uintParam(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, apperrors.WithDetail(apperrors.ErrInvalidParams, "%s必须是正整数", name)
	}
	return uint(v), nil
}

// parseDate 解析yyyy-mm-dd，空串返回nil
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dto.DateLayout, s, time.Local)
	if err != nil {
		return nil, apperrors.WithDetail(apperrors.ErrInvalidParams, "日期格式应为%s", dto.DateLayout)
	}
	return &t, nil
}

// parseTime 解析RFC3339时间，空串返回零值
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperrors.WithDetail(apperrors.ErrInvalidParams, "时间格式应为RFC3339")
	}
	return t, nil
}
