package humanity

import (
	"context"
	"encoding/json"

	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
)

type locationRow struct {
	ID   flexString `json:"id"`
	Name flexString `json:"name"`
}

func (c *Client) FetchLocations(ctx context.Context, token string) ([]domain.LocationRecord, error) {
	const endpoint = "/locations"
	data, err := c.get(ctx, endpoint, token, nil)
	if err != nil {
		return nil, err
	}

	return collect(endpoint, c.Mode, data, parseLocationRow)
}

func parseLocationRow(_ string, raw json.RawMessage) (domain.LocationRecord, bool, error) {
	fields := object(raw)
	if fields == nil || !present(fields, "id") {
		return domain.LocationRecord{}, false, nil
	}

	var row locationRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return domain.LocationRecord{}, false, err
	}

	return domain.LocationRecord{
		ID:   normalizeID(row.ID),
		Name: string(row.Name),
	}, true, nil
}
