package export

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
	"github.com/xuri/excelize/v2"
)

func sampleTable() domain.Table {
	north := "North, MC"
	return domain.Table{
		Variant: domain.VariantReport,
		Rows: []domain.EnrichedShift{{
			ShiftRecord: domain.ShiftRecord{
				ShiftID:      "11",
				EmployeeID:   "7",
				EmployeeName: "Alice",
				LocationName: &north,
				ScheduleID:   "3",
				ScheduleName: "Nurses",
				Start:        time.Date(2021, 6, 1, 9, 0, 0, 0, time.UTC),
				End:          time.Date(2021, 6, 1, 17, 30, 0, 0, time.UTC),
				Length:       8.5,
			},
			Movement: domain.MovementYes,
		}},
	}
}

func TestEncodeTableDefaultsToCSV(t *testing.T) {
	p, err := Encode(sampleTable(), "Staff_Schedules_2021-06-01_to_2021-06-30.csv", FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, "Staff_Schedules_2021-06-01_to_2021-06-30.csv", p.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", p.ContentType)

	records, err := csv.NewReader(bytes.NewReader(p.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"id", "employee", "user", "location", "schedule_id", "schedule_name", "start_day", "end_day", "total_time", "Movement"}, records[0])
	assert.Equal(t, []string{"11", "Alice", "7", "North, MC", "3", "Nurses", "2021-06-01 09:00:00", "2021-06-01 17:30:00", "8.5", "Movement"}, records[1])
}

func TestEncodeEmptyTableHasHeaderOnly(t *testing.T) {
	p, err := Encode(domain.EmptyTable(domain.VariantJoin), "x.csv", FormatCSV)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(p.Data)), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "start_timestamp,end_timestamp,length,schedule_name,employee_id,employee_name,location_id,shift_location,home_location,staff_movement", lines[0])
}

func TestEncodeXLSX(t *testing.T) {
	p, err := Encode(sampleTable(), "report.csv", FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "report.xlsx", p.Filename)

	f, err := excelize.OpenReader(bytes.NewReader(p.Data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alice", rows[1][1])
	assert.Equal(t, "Movement", rows[1][9])
}

func TestEncodeNonTableAsJSON(t *testing.T) {
	p, err := Encode(map[string]int{"rows": 3}, "summary.json", FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, "application/json", p.ContentType)
	assert.JSONEq(t, `{"rows": 3}`, string(p.Data))
}

func TestEncodeBytesPassthrough(t *testing.T) {
	p, err := Encode([]byte("raw"), "raw.bin", FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, []byte("raw"), p.Data)
}

func TestDataURI(t *testing.T) {
	p := Payload{Data: []byte("a,b\n"), ContentType: "text/csv"}
	uri := p.DataURI()
	require.True(t, strings.HasPrefix(uri, "data:text/csv;base64,"))

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:text/csv;base64,"))
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(decoded))
}

func TestFilename(t *testing.T) {
	dr := domain.DateRange{
		Start: time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2021, 6, 30, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "Staff_Schedules_2021-06-01_to_2021-06-30.csv", Filename(dr, FormatAuto))
	assert.Equal(t, "Staff_Schedules_2021-06-01_to_2021-06-30.xlsx", Filename(dr, FormatXLSX))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("pickle")
	assert.Error(t, err)
}
