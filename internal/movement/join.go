package movement

import (
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
)

// DedupHomeLocations 先剔除所有存在完全相同副本的行（一行都不保留），
// 再把仍然有多行的员工整体剔除。一个员工的主地点不明确时，宁可没有主地点也不随意挑一个
func DedupHomeLocations(rows []domain.HomeLocationRecord) []domain.HomeLocationRecord {
	occurrences := make(map[domain.HomeLocationRecord]int, len(rows))
	for _, row := range rows {
		occurrences[row]++
	}

	unique := make([]domain.HomeLocationRecord, 0, len(rows))
	perEmployee := make(map[string]int)
	for _, row := range rows {
		if occurrences[row] > 1 {
			continue
		}
		unique = append(unique, row)
		perEmployee[row.EmployeeID]++
	}

	out := make([]domain.HomeLocationRecord, 0, len(unique))
	for _, row := range unique {
		if perEmployee[row.EmployeeID] > 1 {
			continue
		}
		out = append(out, row)
	}

	return out
}

// Join 把班次和地点、主地点做左连接，每个班次都会保留一行。
// homes 必须已经经过 DedupHomeLocations
func Join(shifts []domain.ShiftRecord, locations []domain.LocationRecord, homes []domain.HomeLocationRecord) []domain.EnrichedShift {
	locationNames := make(map[string]string, len(locations))
	for _, l := range locations {
		// 地点 id 重复时以第一次出现的为准
		if _, exists := locationNames[l.ID]; !exists {
			locationNames[l.ID] = l.Name
		}
	}

	homeByEmployee := make(map[string]domain.HomeLocationRecord, len(homes))
	for _, h := range homes {
		homeByEmployee[h.EmployeeID] = h
	}

	out := make([]domain.EnrichedShift, 0, len(shifts))
	for _, shift := range shifts {
		row := domain.EnrichedShift{ShiftRecord: shift}

		row.LocationName = nil
		if name, ok := locationNames[shift.LocationID]; ok && shift.LocationID != "" {
			row.LocationName = ptr(name)
		}

		if home, ok := homeByEmployee[shift.EmployeeID]; ok && shift.EmployeeID != "" {
			row.HomeLocation = ptr(home.LocationName)
			row.HomeLocationID = ptr(home.LocationID)
		}

		// 地点和主地点不同时取班次自己的地点，否则取主地点（两者相同）
		if !equalOptional(row.LocationName, row.HomeLocation) {
			row.ShiftLocation = row.LocationName
		} else {
			row.ShiftLocation = row.HomeLocation
		}

		out = append(out, row)
	}

	return out
}

func ptr(s string) *string {
	return &s
}
