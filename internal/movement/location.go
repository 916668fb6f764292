package movement

import (
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
)

// DetectByLocation 班次地点和主地点不同即为 Movement。
// 两者都为空视为相同，没有主地点的员工不会被误判
func DetectByLocation(rows []domain.EnrichedShift) []domain.EnrichedShift {
	out := make([]domain.EnrichedShift, len(rows))

	for i, row := range rows {
		out[i] = row
		if equalOptional(row.ShiftLocation, row.HomeLocation) {
			out[i].Movement = domain.MovementNo
		} else {
			out[i].Movement = domain.MovementYes
		}
	}

	return out
}
