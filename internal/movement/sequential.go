package movement

import (
	"cmp"
	"slices"

	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
)

// employeeKey 优先使用员工 ID，没有 ID 时退回到员工姓名
func employeeKey(s domain.ShiftRecord) string {
	if s.EmployeeID != "" {
		return s.EmployeeID
	}
	return s.EmployeeName
}

// SortForSequence 按 (员工, 开始时间) 升序稳定排序，返回新的切片
func SortForSequence(shifts []domain.ShiftRecord) []domain.ShiftRecord {
	sorted := slices.Clone(shifts)
	slices.SortStableFunc(sorted, func(a, b domain.ShiftRecord) int {
		if c := cmp.Compare(employeeKey(a), employeeKey(b)); c != 0 {
			return c
		}
		return a.Start.Compare(b.Start)
	})
	return sorted
}

// DetectSequential 只和排序后紧邻的上一行比较：
// 同一个员工且地点不同记为 Movement，其余（包括第一行）都记为 No Movement
func DetectSequential(sorted []domain.ShiftRecord) []domain.EnrichedShift {
	out := make([]domain.EnrichedShift, len(sorted))

	for i, shift := range sorted {
		out[i] = domain.EnrichedShift{ShiftRecord: shift, Movement: domain.MovementNo}
		if i == 0 {
			continue
		}

		prev := sorted[i-1]
		sameEmployee := employeeKey(shift) == employeeKey(prev)
		sameLocation := equalOptional(shift.LocationName, prev.LocationName)
		if sameEmployee && !sameLocation {
			out[i].Movement = domain.MovementYes
		}
	}

	return out
}

// equalOptional 两个空值视为相等，空值和非空值永远不相等
func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
