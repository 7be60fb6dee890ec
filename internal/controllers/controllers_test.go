package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"diskwarden/internal/models"
	"diskwarden/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dfOutput = `Filesystem     1024-blocks      Used Available Capacity Mounted on
tmpfs              1628044      2004   1626040       1% /run
/dev/sda1          1000000    250000    750000      25% /
/dev/sdb1          2000000   1000000   1000000      50% /data
`

type stubRunner struct {
	output string
	err    error
}

func (s stubRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return []byte(s.output), s.err
}

func setupRouter(t *testing.T, runner services.CommandRunner) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	_, err := services.InitFilesystemDiscoverer(runner, "", time.Second)
	require.NoError(t, err)
	services.ClearCache()
	services.ResetHistory()
	t.Cleanup(func() {
		services.ClearCache()
		services.ResetHistory()
	})

	r := gin.New()
	r.GET("/status", GetStatus)
	r.GET("/format", FormatBytes)
	r.GET("/settings", GetSettings)
	r.GET("/filesystems", GetFilesystems)
	r.GET("/filesystems/history", GetFilesystemHistory)
	r.GET("/ws", HandleWebSocket)
	return r
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestGetFilesystems(t *testing.T) {
	r := setupRouter(t, stubRunner{output: dfOutput})

	w := get(r, "/filesystems")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Filesystems []models.FilesystemView `json:"filesystems"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Filesystems, 2)

	root := body.Filesystems[0]
	assert.Equal(t, "/", root.MountPath)
	assert.Equal(t, "/dev/sda1", root.Device)
	assert.Equal(t, "1.0 GB", root.Capacity)
	assert.Equal(t, "256 MB", root.Used)
	assert.Equal(t, "25%", root.Usage)
}

func TestGetFilesystemsByDevice(t *testing.T) {
	r := setupRouter(t, stubRunner{output: dfOutput})

	w := get(r, "/filesystems?device=/dev/sdb1")
	require.Equal(t, http.StatusOK, w.Code)

	var view models.FilesystemView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "/data", view.MountPath)
	assert.Equal(t, "50%", view.Usage)

	w = get(r, "/filesystems?device=/dev/sdz9")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetFilesystemsDiscoveryFailure(t *testing.T) {
	r := setupRouter(t, stubRunner{err: errors.New("no df here")})

	w := get(r, "/filesystems")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "df -Pk")

	w = get(r, "/filesystems?fresh=true")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetStatus(t *testing.T) {
	r := setupRouter(t, stubRunner{output: dfOutput})

	w := get(r, "/status")
	require.Equal(t, http.StatusOK, w.Code)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Len(t, status.Filesystems, 2)
	assert.Equal(t, models.DisplayBoth, status.Display.Type)
}

func TestFormatBytes(t *testing.T) {
	r := setupRouter(t, stubRunner{output: dfOutput})

	tests := []struct {
		query string
		code  int
		want  string
	}{
		{"bytes=1500000", http.StatusOK, "1.5 MB"},
		{"bytes=1500000&imprecise=true", http.StatusOK, "2 MB"},
		{"bytes=1048576&family=binary", http.StatusOK, "1.0 MiB"},
		{"bytes=125000&unit=bits", http.StatusOK, "1.0 Mb"},
		{"bytes=500", http.StatusOK, "< 1 KB"},
		{"bytes=-1", http.StatusOK, "0 KB"},
		{"bytes=abc", http.StatusBadRequest, ""},
		{"bytes=NaN", http.StatusBadRequest, ""},
		{"bytes=Inf", http.StatusBadRequest, ""},
		{"bytes=-Inf", http.StatusBadRequest, ""},
		{"bytes=1&family=octal", http.StatusBadRequest, ""},
		{"bytes=1&unit=nibbles", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := get(r, "/format?"+tt.query)
			require.Equal(t, tt.code, w.Code)
			require.True(t, json.Valid(w.Body.Bytes()), "body %q", w.Body.String())
			if tt.want == "" {
				return
			}
			var body struct {
				Formatted string `json:"formatted"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body.Formatted)
		})
	}
}

func TestGetFilesystemHistory(t *testing.T) {
	r := setupRouter(t, stubRunner{output: dfOutput})

	now := time.Now()
	services.RecordFilesystems(now.Add(-time.Minute), []models.Filesystem{
		{Device: "/dev/sda1", MountPath: "/", CapacityBytes: 100000, UsedBytes: 15000},
	})

	w := get(r, "/filesystems/history?device=/dev/sda1&duration=5m")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data models.FilesystemHistory `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data.Samples, 1)
	assert.Equal(t, 25000.0, body.Data.AxisMax)

	assert.Equal(t, http.StatusNotFound, get(r, "/filesystems/history?device=/dev/sdz9").Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/filesystems/history?duration=soon").Code)
	assert.Equal(t, http.StatusOK, get(r, "/filesystems/history").Code)
}

func TestHandleWebSocketRejectsMissingToken(t *testing.T) {
	r := setupRouter(t, stubRunner{output: dfOutput})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	services.InitWebSocketHub(ctx, time.Hour)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/ws").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/ws?token=not-a-jwt").Code)
}

func TestHandleWebSocketStreamsStatus(t *testing.T) {
	r := setupRouter(t, stubRunner{output: dfOutput})

	_, err := services.InitAuthService(strings.Repeat("s", 32), time.Hour)
	require.NoError(t, err)
	token, _, err := services.GenerateToken("dashboard")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	services.InitWebSocketHub(ctx, time.Hour)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg services.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, services.MessageStats, msg.Type)

	require.NoError(t, conn.WriteJSON(services.WebSocketMessage{Type: services.MessagePing}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, services.MessagePong, msg.Type)

	require.NoError(t, conn.WriteJSON(services.WebSocketMessage{Type: services.MessageAuth, Token: "bogus"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, services.MessageAuthError, msg.Type)

	require.NoError(t, conn.WriteJSON(services.WebSocketMessage{Type: services.MessageAuth, Token: token}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, services.MessageAuthSuccess, msg.Type)
}
