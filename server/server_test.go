package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/lowji194/bumx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)

type fakeFarm struct{}

func (fakeFarm) RunID() string { return "run-1" }

func (fakeFarm) StartedAt() time.Time { return testStart }

func (fakeFarm) Status() []types.DeviceStatus {
	return []types.DeviceStatus{
		{Serial: "SER1", Port: 7912, Phase: types.PhaseRunning, Jobs: 3, Completed: 2},
		{Serial: "SER2", Port: 7913, Phase: types.PhaseFailed, LastError: "agent not ready"},
	}
}

// fakeConsole hands out one feed per subscriber.
type fakeConsole struct {
	mu    sync.Mutex
	feeds []chan types.ConsoleLine
}

func (c *fakeConsole) Lines() []types.ConsoleLine {
	return []types.ConsoleLine{{Serial: "SER1", Row: 3, Message: "[09:00:01] [JOB] [SER1] [2 - 3] start job!"}}
}

func (c *fakeConsole) Subscribe() (<-chan types.ConsoleLine, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan types.ConsoleLine, 8)
	c.feeds = append(c.feeds, ch)
	var once sync.Once
	return ch, func() { once.Do(func() { close(ch) }) }
}

func (c *fakeConsole) push(line types.ConsoleLine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.feeds {
		ch <- line
	}
}

func (c *fakeConsole) subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.feeds)
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeConsole) {
	t.Helper()
	console := &fakeConsole{}
	server := httptest.NewServer(New(fakeFarm{}, console, false).Handler())
	t.Cleanup(server.Close)
	return server, console
}

func postRPC(t *testing.T, url string, body string) JSONRPCResponse {
	t.Helper()
	resp, err := http.Post(url+"/rpc", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out JSONRPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func errorOf(t *testing.T, resp JSONRPCResponse) map[string]interface{} {
	t.Helper()
	require.NotNil(t, resp.Error)
	return resp.Error.(map[string]interface{})
}

func TestBanner(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestRPCStatus(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"status","id":1}`)
	require.Nil(t, resp.Error)
	assert.Equal(t, float64(1), resp.ID)

	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var status RunStatus
	require.NoError(t, json.Unmarshal(raw, &status))

	assert.Equal(t, "run-1", status.RunID)
	assert.True(t, testStart.Equal(status.StartedAt))
	require.Len(t, status.Devices, 2)
	assert.Equal(t, 7912, status.Devices[0].Port)
	assert.Equal(t, 2, status.Devices[0].Completed)
	assert.Equal(t, types.PhaseFailed, status.Devices[1].Phase)
}

func TestRPCDevicesAndLines(t *testing.T) {
	server, _ := newTestServer(t)

	devicesResp := postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"devices","id":"a"}`)
	require.Nil(t, devicesResp.Error)
	assert.Equal(t, "a", devicesResp.ID)
	assert.Len(t, devicesResp.Result, 2)

	linesResp := postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"lines","id":2}`)
	require.Nil(t, linesResp.Error)
	lines := linesResp.Result.([]interface{})
	require.Len(t, lines, 1)
	assert.Equal(t, "SER1", lines[0].(map[string]interface{})["serial"])
}

func TestRPCErrors(t *testing.T) {
	server, _ := newTestServer(t)

	tests := []struct {
		name    string
		body    string
		code    int
		message string
	}{
		{"parse error", `{not json`, ErrCodeParseError, "Parse error"},
		{"wrong version", `{"jsonrpc":"1.0","method":"status","id":1}`, ErrCodeInvalidRequest, "Invalid Request"},
		{"missing id", `{"jsonrpc":"2.0","method":"status"}`, ErrCodeInvalidRequest, "Invalid Request"},
		{"missing method", `{"jsonrpc":"2.0","id":1}`, ErrCodeInvalidRequest, "Invalid Request"},
		{"unknown method", `{"jsonrpc":"2.0","method":"reboot","id":1}`, ErrCodeMethodNotFound, "Method not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errMap := errorOf(t, postRPC(t, server.URL, tt.body))
			assert.Equal(t, float64(tt.code), errMap["code"])
			assert.Equal(t, tt.message, errMap["message"])
		})
	}
}

func TestRPCRejectsGet(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/rpc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestLinesWithoutConsole(t *testing.T) {
	s := New(fakeFarm{}, nil, false)
	_, err := s.Execute("lines", nil)
	assert.Error(t, err)

	_, err = s.Execute("nope", nil)
	assert.EqualError(t, err, "method not found: nope")
}

func TestCORSPreflight(t *testing.T) {
	server := httptest.NewServer(New(fakeFarm{}, nil, true).Handler())
	defer server.Close()

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/rpc", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestNormalizeAddr(t *testing.T) {
	addr, err := normalizeAddr("12000")
	require.NoError(t, err)
	assert.Equal(t, ":12000", addr)

	addr, err = normalizeAddr("localhost:12000")
	require.NoError(t, err)
	assert.Equal(t, "localhost:12000", addr)

	_, err = normalizeAddr("abc")
	assert.Error(t, err)
}

func TestStartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(fakeFarm{}, nil, false).Start(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
