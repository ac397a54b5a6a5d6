package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/urgentline/sla-server/config"
	"github.com/urgentline/sla-server/internal/database"
	apihttp "github.com/urgentline/sla-server/internal/http"
	"github.com/urgentline/sla-server/internal/http/handlers"
	"github.com/urgentline/sla-server/internal/notification"
	"github.com/urgentline/sla-server/pkg/client"
	"github.com/urgentline/sla-server/pkg/sla"
	"github.com/urgentline/sla-server/pkg/sla/aggregates"
)

func toJson(t *testing.T, s any) []byte {
	t.Helper()
	result, err := json.Marshal(s)
	assert.NoError(t, err, "fail to marshal to json")
	return result
}

func fromJson(t *testing.T, s any, data []byte) {
	t.Helper()
	err := json.Unmarshal(data, s)
	assert.NoError(t, err, "fail to unmarshal to json data %s", string(data))
}

func readBody(t *testing.T, body io.ReadCloser) []byte {
	b, err := io.ReadAll(body)
	defer body.Close()
	assert.NoError(t, err)
	return b
}

type testCase struct {
	url            string
	expectedStatus int
	method         string
	payload        any
	headers        map[string]string
	body           string
}

var baseURL = "http://127.0.0.1:10000"
var httpClient = &http.Client{
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

func testHTTP(t *testing.T, c testCase, result any) {
	t.Helper()
	var reqBody io.Reader
	if c.payload != nil {
		reqBody = bytes.NewBuffer(toJson(t, c.payload))
	}
	request, err := http.NewRequest(
		c.method,
		fmt.Sprintf("%s%s", baseURL, c.url),
		reqBody)
	assert.NoError(t, err)
	if c.payload != nil {
		request.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}
	for k, v := range c.headers {
		request.Header.Set(k, v)
	}
	response, err := httpClient.Do(request)
	assert.NoError(t, err)
	body := readBody(t, response.Body)
	assert.Equal(t, response.StatusCode, c.expectedStatus, string(body))
	if result != nil {
		fromJson(t, result, body)
	}
	if c.body != "" {
		assert.Contains(t, string(body), c.body)
	}
}

func TestIntegration(t *testing.T) {
	reg := prometheus.NewRegistry()
	config := config.Configuration{
		Database: database.Configuration{
			Migrations: "../../dev/migrations",
			Username:   "slaserver",
			Password:   "slaserver",
			Database:   "slaserver",
			Host:       "127.0.0.1",
			Port:       5432,
			SSLMode:    "disable",
		},
		HTTP: apihttp.Configuration{
			Host: "127.0.0.1",
			Port: 10000,
		},
		SLA: config.SLA{
			Engine: sla.Configuration{
				SweepInterval: "1h",
			},
		},
	}
	logger := slog.Default()
	store, err := database.New(logger, config.Database)
	assert.NoError(t, err)
	catalog, err := sla.NewCatalog([]aggregates.Definition{
		{
			TypeID:           "urgent_response",
			DisplayName:      "Urgent response",
			WarningDuration:  15 * time.Minute,
			CriticalDuration: 25 * time.Minute,
			MaxDuration:      30 * time.Minute,
			Priority:         "high",
		},
	})
	assert.NoError(t, err)
	slaService, err := sla.New(logger, store, notification.NewLogNotifier(logger), catalog, reg, config.SLA.Engine)
	assert.NoError(t, err)
	handlersBuilder := handlers.NewBuilder(slaService)
	server, err := apihttp.NewServer(logger, config.HTTP, reg, handlersBuilder)
	assert.NoError(t, err)
	_, err = store.Exec("truncate sla_record;")
	assert.NoError(t, err)

	err = server.Start()
	assert.NoError(t, err)
	time.Sleep(1 * time.Second)

	// start

	startInput := client.StartSLAInput{
		CorrelationID: "INC-100",
		TypeID:        "urgent_response",
		Attributes: map[string]string{
			"team": "support",
		},
	}
	startCase := testCase{
		url:            "/api/v1/sla",
		expectedStatus: 201,
		payload:        startInput,
		method:         "POST",
	}

	startResult := client.SLAInstance{}

	testHTTP(t, startCase, &startResult)
	assert.Equal(t, startInput.CorrelationID, startResult.CorrelationID)
	assert.Equal(t, startInput.TypeID, startResult.TypeID)
	assert.Equal(t, "active", startResult.Status)
	assert.Equal(t, "support", startResult.Attributes["team"])

	// a second start on the same correlation id conflicts

	duplicateCase := testCase{
		url:            "/api/v1/sla",
		expectedStatus: 409,
		payload:        startInput,
		method:         "POST",
	}
	testHTTP(t, duplicateCase, nil)

	// unknown type

	unknownTypeCase := testCase{
		url:            "/api/v1/sla",
		expectedStatus: 404,
		payload: client.StartSLAInput{
			CorrelationID: "INC-101",
			TypeID:        "nope",
		},
		method: "POST",
	}
	testHTTP(t, unknownTypeCase, nil)

	// get

	getCase := testCase{
		url:            "/api/v1/sla/INC-100",
		expectedStatus: 200,
		method:         "GET",
	}

	getResult := client.SLAInstance{}
	testHTTP(t, getCase, &getResult)
	assert.Equal(t, "INC-100", getResult.CorrelationID)
	assert.False(t, getResult.WarningFired)

	// list

	listCase := testCase{
		url:            "/api/v1/sla",
		expectedStatus: 200,
		method:         "GET",
	}

	listResult := client.ListSLAsOutput{}
	testHTTP(t, listCase, &listResult)
	assert.Equal(t, 1, len(listResult.Result))
	assert.Equal(t, "INC-100", listResult.Result[0].CorrelationID)

	// sweep: well below every threshold, nothing changes

	sweepCase := testCase{
		url:            "/api/v1/sla/sweep",
		expectedStatus: 200,
		method:         "POST",
		body:           "sweep executed",
	}
	testHTTP(t, sweepCase, nil)
	testHTTP(t, getCase, &getResult)
	assert.Equal(t, "active", getResult.Status)

	// complete

	completeCase := testCase{
		url:            "/api/v1/sla/INC-100/complete",
		expectedStatus: 200,
		payload: client.CompleteSLAInput{
			TypeID: "urgent_response",
		},
		method: "POST",
	}

	completeResult := client.SLARecord{}
	testHTTP(t, completeCase, &completeResult)
	assert.Equal(t, "completed", completeResult.Status)
	assert.NotNil(t, completeResult.SLAMet)
	assert.True(t, *completeResult.SLAMet)
	assert.NotNil(t, completeResult.EndedAt)

	// a second completion is benign

	secondCompleteCase := testCase{
		url:            "/api/v1/sla/INC-100/complete",
		expectedStatus: 200,
		payload: client.CompleteSLAInput{
			TypeID: "urgent_response",
		},
		method: "POST",
		body:   "SLA not tracked",
	}
	testHTTP(t, secondCompleteCase, nil)

	getAfterCompleteCase := testCase{
		url:            "/api/v1/sla/INC-100",
		expectedStatus: 404,
		method:         "GET",
	}
	testHTTP(t, getAfterCompleteCase, nil)

	// cancel

	cancelStartInput := client.StartSLAInput{
		CorrelationID: "INC-200",
		TypeID:        "urgent_response",
	}
	cancelStartCase := testCase{
		url:            "/api/v1/sla",
		expectedStatus: 201,
		payload:        cancelStartInput,
		method:         "POST",
	}
	testHTTP(t, cancelStartCase, nil)

	cancelCase := testCase{
		url:            "/api/v1/sla/INC-200/cancel",
		expectedStatus: 200,
		payload: client.CancelSLAInput{
			Reason: "duplicate ticket",
		},
		method: "POST",
	}

	cancelResult := client.SLARecord{}
	testHTTP(t, cancelCase, &cancelResult)
	assert.Equal(t, "cancelled", cancelResult.Status)
	assert.Nil(t, cancelResult.SLAMet)
	assert.Equal(t, "duplicate ticket", cancelResult.Notes)

	// metrics

	metricsCase := testCase{
		url:            "/api/v1/sla/metrics",
		expectedStatus: 200,
		method:         "GET",
	}

	metricsResult := client.SLAMetricsOutput{}
	testHTTP(t, metricsCase, &metricsResult)
	assert.Equal(t, 2, metricsResult.Total)
	assert.Equal(t, 1, metricsResult.Completed)
	assert.Equal(t, 1, metricsResult.Cancelled)
	assert.Equal(t, float64(1), metricsResult.ComplianceRate)
	urgent := metricsResult.ByType["urgent_response"]
	assert.Equal(t, 2, urgent.Total)

	metricsFilterCase := testCase{
		url:            "/api/v1/sla/metrics?type-id=other_type",
		expectedStatus: 200,
		method:         "GET",
	}
	testHTTP(t, metricsFilterCase, &metricsResult)
	assert.Equal(t, 0, metricsResult.Total)

	badDateCase := testCase{
		url:            "/api/v1/sla/metrics?from=notadate",
		expectedStatus: 400,
		method:         "GET",
	}
	testHTTP(t, badDateCase, nil)

	err = server.Stop()
	assert.NoError(t, err)
}
