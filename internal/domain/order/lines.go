package order

import (
	"sort"
)

// Line 按(商品,库位)汇总后的库存需求
// 同一订单里重复出现的商品会合并，保证每个库存键只调用一次台账
type Line struct {
	ProductID  uint
	LocationID uint
	Quantity   int
}

// Lines 汇总明细，按商品、库位升序(多个订单同时加锁时顺序一致)
func Lines(items []Item) []Line {
	type key struct{ p, l uint }
	sum := make(map[key]int, len(items))
	for _, it := range items {
		sum[key{it.ProductID, it.LocationID}] += it.Quantity
	}

	lines := make([]Line, 0, len(sum))
	for k, q := range sum {
		lines = append(lines, Line{ProductID: k.p, LocationID: k.l, Quantity: q})
	}
	sortLines(lines)
	return lines
}

// LineChange 草稿修改时单个键的数量变化
type LineChange struct {
	ProductID  uint
	LocationID uint
	OldQty     int
	NewQty     int
}

// Diff 比较新旧明细，只返回数量有变化的键
func Diff(oldItems, newItems []Item) []LineChange {
	type key struct{ p, l uint }
	changes := map[key]*LineChange{}
	get := func(p, l uint) *LineChange {
		k := key{p, l}
		c, ok := changes[k]
		if !ok {
			c = &LineChange{ProductID: p, LocationID: l}
			changes[k] = c
		}
		return c
	}
	for _, ln := range Lines(oldItems) {
		get(ln.ProductID, ln.LocationID).OldQty = ln.Quantity
	}
	for _, ln := range Lines(newItems) {
		get(ln.ProductID, ln.LocationID).NewQty = ln.Quantity
	}

	result := make([]LineChange, 0, len(changes))
	for _, c := range changes {
		if c.OldQty != c.NewQty {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ProductID != result[j].ProductID {
			return result[i].ProductID < result[j].ProductID
		}
		return result[i].LocationID < result[j].LocationID
	})
	return result
}

func sortLines(lines []Line) {
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].ProductID != lines[j].ProductID {
			return lines[i].ProductID < lines[j].ProductID
		}
		return lines[i].LocationID < lines[j].LocationID
	})
}
