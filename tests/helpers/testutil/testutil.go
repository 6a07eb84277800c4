// Package testutil provides helpers for driving a fully composed editor
// host in tests: starting it on an ephemeral socket, opening panels over
// the API and speaking the widget protocol over WebSocket.
package testutil

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/config"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/server"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/widget"
)

// Host is a running editor host under test.
type Host struct {
	T       *testing.T
	Server  *server.Server
	HTTP    *httptest.Server
	Root    string
	DataDir string
}

// StartHost composes a host over a temp workspace and serves it from an
// httptest socket. The widget bundle is stubbed so nothing leaves the box.
func StartHost(t *testing.T) *Host {
	t.Helper()

	root := t.TempDir()
	dataDir := filepath.Join(root, ".mdeditor")
	stubBundle(t, dataDir)

	cfg := &config.Config{
		Server:    config.ServerConfig{Host: "127.0.0.1", Port: "0"},
		Workspace: config.WorkspaceConfig{Root: root, DataDir: dataDir},
		Logging:   config.LogConfig{Level: "error"},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}

	srv, err := server.New(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close()
	})

	return &Host{T: t, Server: srv, HTTP: ts, Root: root, DataDir: dataDir}
}

// stubBundle plants a minimal widget distribution so the host does not
// reach for the npm registry.
func stubBundle(t *testing.T, dataDir string) {
	t.Helper()
	dist := filepath.Join(dataDir, "vditor", widget.Version, "dist")
	require.NoError(t, os.MkdirAll(dist, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dist, "index.min.js"), []byte("/* stub */"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dist, "index.css"), []byte("/* stub */"), 0o644))
}

// WriteDoc creates a file under the workspace root and returns its path.
func (h *Host) WriteDoc(name, content string) string {
	h.T.Helper()
	path := filepath.Join(h.Root, name)
	require.NoError(h.T, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(h.T, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// OpenResult is the host's answer to an open request.
type OpenResult struct {
	Token    string `json:"token"`
	URL      string `json:"url"`
	Created  bool   `json:"created"`
	Fallback bool   `json:"fallback"`
}

// OpenPanel opens a document through the API.
func (h *Host) OpenPanel(path string) OpenResult {
	h.T.Helper()

	body, err := sonic.Marshal(map[string]string{"path": path})
	require.NoError(h.T, err)

	resp, err := http.Post(h.HTTP.URL+"/api/open", "application/json", bytes.NewReader(body))
	require.NoError(h.T, err)
	defer resp.Body.Close()
	require.Equal(h.T, http.StatusOK, resp.StatusCode)

	var result OpenResult
	require.NoError(h.T, sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&result))
	return result
}

// Panel is one websocket attachment speaking the widget protocol.
type Panel struct {
	T    *testing.T
	Conn *websocket.Conn
}

// DialPanel attaches a fake widget to a panel.
func (h *Host) DialPanel(token string) *Panel {
	h.T.Helper()

	wsURL := "ws" + strings.TrimPrefix(h.HTTP.URL, "http") + "/ws/" + token
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(h.T, err)
	if resp != nil {
		resp.Body.Close()
	}
	h.T.Cleanup(func() { _ = conn.Close() })
	return &Panel{T: h.T, Conn: conn}
}

// Send posts one protocol message.
func (p *Panel) Send(msg interface{}) {
	p.T.Helper()
	data, err := sonic.Marshal(msg)
	require.NoError(p.T, err)
	require.NoError(p.T, p.Conn.WriteMessage(websocket.TextMessage, data))
}

// Recv reads the next message as a generic map.
func (p *Panel) Recv(timeout time.Duration) map[string]interface{} {
	p.T.Helper()
	require.NoError(p.T, p.Conn.SetReadDeadline(time.Now().Add(timeout)))
	_, data, err := p.Conn.ReadMessage()
	require.NoError(p.T, err)

	var msg map[string]interface{}
	require.NoError(p.T, sonic.Unmarshal(data, &msg))
	return msg
}

// RecvCommand reads messages until one with the wanted command arrives,
// skipping unrelated chrome such as title updates.
func (p *Panel) RecvCommand(command string, timeout time.Duration) map[string]interface{} {
	p.T.Helper()
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		require.Positive(p.T, remaining, "no %q message within %v", command, timeout)
		msg := p.Recv(remaining)
		if msg["command"] == command {
			return msg
		}
	}
}

// Eventually polls fn until it returns true or the timeout passes.
func Eventually(t *testing.T, timeout time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
