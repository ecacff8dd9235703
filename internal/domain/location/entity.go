package location

import (
	"strings"
	"time"
)

// Location 库位/门店(参考数据)
// 设计说明:
// 1. 库存台账只把LocationID当作键的一部分，不反查本表
// 2. 停用而不是删除：历史流水和订单仍引用旧库位
type Location struct {
	ID        uint
	Name      string // 名称(唯一)
	Address   string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewLocation 创建库位(工厂方法)，新库位默认启用
func NewLocation(name, address string) *Location {
	now := time.Now()
	return &Location{
		Name:      strings.TrimSpace(name),
		Address:   strings.TrimSpace(address),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Rename 修改名称和地址，空值表示不修改
func (l *Location) Rename(name, address string) {
	if n := strings.TrimSpace(name); n != "" {
		l.Name = n
	}
	if a := strings.TrimSpace(address); a != "" {
		l.Address = a
	}
	l.UpdatedAt = time.Now()
}

// Deactivate 停用
func (l *Location) Deactivate() {
	l.Active = false
	l.UpdatedAt = time.Now()
}
