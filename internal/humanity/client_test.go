package humanity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
)

var testRange = domain.DateRange{
	Start: time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2021, 6, 30, 0, 0, 0, 0, time.UTC),
}

func newTestClient(t *testing.T, mode IngestMode, routes map[string]string) *Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") != "token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("bad token"))
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return NewClient(srv.URL, mode, 5*time.Second, time.Second)
}

func TestFetchCustomReport(t *testing.T) {
	client := newTestClient(t, IngestValidate, map[string]string{
		"/reports/custom": `{"status": 1, "data": {
			"meta": {"total": 2, "generated": "today"},
			"a1": {"id": "11", "employee": "Alice", "user": 7, "location": "North MC", "schedule_id": "3",
				"schedule_name": "Nurses", "start_day": "2021-06-02", "end_day": "2021-06-02",
				"start_time": "9:00am", "end_time": "5:30pm", "total_time": "8.5"},
			"a2": {"id": 12, "employee": "Bob", "eid": "E-2", "location": "South MC",
				"schedule_name": "Doctors", "start_day": "Jun 1, 2021", "total_time": 4}
		}}`,
	})

	records, err := client.FetchCustomReport(context.Background(), "token", testRange)
	require.NoError(t, err)
	require.Len(t, records, 2)

	alice := records[0]
	assert.Equal(t, "11", alice.ShiftID)
	assert.Equal(t, "7", alice.EmployeeID)
	assert.Equal(t, "Alice", alice.EmployeeName)
	assert.Equal(t, "3", alice.ScheduleID)
	require.NotNil(t, alice.LocationName)
	assert.Equal(t, "North MC", *alice.LocationName)
	assert.Equal(t, time.Date(2021, 6, 2, 9, 0, 0, 0, time.UTC), alice.Start)
	assert.Equal(t, time.Date(2021, 6, 2, 17, 30, 0, 0, time.UTC), alice.End)
	assert.Equal(t, 8.5, alice.Length)

	bob := records[1]
	assert.Equal(t, "12", bob.ShiftID)
	assert.Equal(t, "E-2", bob.EmployeeID)
	assert.Equal(t, time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), bob.Start)
	assert.Equal(t, float64(4), bob.Length)
}

func TestFetchCustomReportOnlyMetadata(t *testing.T) {
	for _, mode := range []IngestMode{IngestValidate, IngestPositional} {
		t.Run(string(mode), func(t *testing.T) {
			client := newTestClient(t, mode, map[string]string{
				"/reports/custom": `{"data": {"0": {"total": 0}}}`,
			})

			records, err := client.FetchCustomReport(context.Background(), "token", testRange)
			require.NoError(t, err)
			assert.NotNil(t, records)
			assert.Empty(t, records)
		})
	}
}

func TestFetchCustomReportPositionalDropsFirstRecord(t *testing.T) {
	body := `{"data": {
		"x": {"employee": "Alice", "start_day": "2021-06-01"},
		"y": {"employee": "Bob", "start_day": "2021-06-02"}
	}}`

	positional := newTestClient(t, IngestPositional, map[string]string{"/reports/custom": body})
	records, err := positional.FetchCustomReport(context.Background(), "token", testRange)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Bob", records[0].EmployeeName)

	validate := newTestClient(t, IngestValidate, map[string]string{"/reports/custom": body})
	records, err = validate.FetchCustomReport(context.Background(), "token", testRange)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestFetchCustomReportMalformedDate(t *testing.T) {
	client := newTestClient(t, IngestValidate, map[string]string{
		"/reports/custom": `{"data": {"meta": {}, "a": {"employee": "Alice", "start_day": "2021-06-01", "end_day": "yesterday"}}}`,
	})

	_, err := client.FetchCustomReport(context.Background(), "token", testRange)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "end_day", parseErr.Field)
	assert.Equal(t, "yesterday", parseErr.Value)
}

func TestFetchMissingData(t *testing.T) {
	client := newTestClient(t, IngestValidate, map[string]string{
		"/reports/custom": `{"status": 1}`,
	})

	_, err := client.FetchCustomReport(context.Background(), "token", testRange)
	require.ErrorIs(t, err, ErrDataUnavailable)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestFetchAPIError(t *testing.T) {
	client := newTestClient(t, IngestValidate, map[string]string{
		"/locations": `{"status": 3, "error": "Invalid access token"}`,
	})

	_, err := client.FetchLocations(context.Background(), "token")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 3, apiErr.Status)
}

func TestFetchTransportError(t *testing.T) {
	client := newTestClient(t, IngestValidate, map[string]string{})

	_, err := client.FetchLocations(context.Background(), "wrong")
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusUnauthorized, transportErr.StatusCode)

	// 连接失败时错误信息中不能出现令牌
	unreachable := NewClient("http://127.0.0.1:1", IngestValidate, time.Second, 100*time.Millisecond)
	_, err = unreachable.FetchLocations(context.Background(), "secret-token")
	require.ErrorAs(t, err, &transportErr)
	assert.Zero(t, transportErr.StatusCode)
	assert.NotContains(t, err.Error(), "secret-token")
	assert.False(t, errors.Is(err, ErrSchema))
}

func TestFetchShifts(t *testing.T) {
	client := newTestClient(t, IngestValidate, map[string]string{
		"/shifts": `{"data": [
			{"id": 1, "start_timestamp": "2021-06-01 09:00:00", "end_timestamp": "2021-06-01 17:00:00",
				"length": "8", "schedule_name": "Nurses", "schedule_location_id": "5",
				"employees": [{"id": "42", "name": "Alice"}]},
			{"id": 2, "start_timestamp": "2021-06-02 09:00:00", "end_timestamp": "2021-06-02 12:00:00",
				"length": 3, "schedule_name": "Open shift", "schedule_location_id": 6, "employees": false}
		]}`,
	})

	records, err := client.FetchShifts(context.Background(), "token", testRange)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "42", records[0].EmployeeID)
	assert.Equal(t, "Alice", records[0].EmployeeName)
	assert.Equal(t, "5", records[0].LocationID)
	assert.Equal(t, float64(8), records[0].Length)
	assert.Nil(t, records[0].LocationName)

	assert.Empty(t, records[1].EmployeeID)
	assert.Equal(t, "6", records[1].LocationID)
}

func TestFetchLocations(t *testing.T) {
	client := newTestClient(t, IngestValidate, map[string]string{
		"/locations": `{"data": [{"id": 5, "name": "North MC"}, {"id": "6", "name": "South MC"}, {"name": "no id"}]}`,
	})

	locations, err := client.FetchLocations(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, []domain.LocationRecord{
		{ID: "5", Name: "North MC"},
		{ID: "6", Name: "South MC"},
	}, locations)
}

func TestFetchHomeLocations(t *testing.T) {
	client := newTestClient(t, IngestValidate, map[string]string{
		"/payroll/report": `{"data": {
			"header": {"type": "scheduledhours"},
			"r1": {"userid": "42", "date": "2021-06-01", "hours": {"location": {"id": 5, "name": "North MC"}}},
			"r2": {"userid": 43, "hours": {"location": null}}
		}}`,
	})

	homes, err := client.FetchHomeLocations(context.Background(), "token", testRange)
	require.NoError(t, err)
	assert.Equal(t, []domain.HomeLocationRecord{
		{EmployeeID: "42", LocationID: "5", LocationName: "North MC"},
	}, homes)
}

func TestFetchHomeLocationsMissingNestedField(t *testing.T) {
	client := newTestClient(t, IngestValidate, map[string]string{
		"/payroll/report": `{"data": {"header": {}, "r1": {"userid": "42", "hours": {"regular": 8}}}}`,
	})

	_, err := client.FetchHomeLocations(context.Background(), "token", testRange)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "hours.location", schemaErr.Field)
	assert.ErrorIs(t, err, ErrSchema)
}
