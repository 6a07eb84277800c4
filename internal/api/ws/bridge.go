// Package ws attaches webview shells to editor sessions over WebSocket.
//
// One connection carries one panel's widget protocol. The bridge resolves
// the URL token to a session, binds the connection as the session's
// transport, and pumps inbound messages into the session until the peer
// goes away. A disconnect is treated as the user dismissing the panel.
package ws

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/editor"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/logging"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/monitoring"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/protocol"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/shared/id"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 25 * time.Second
	maxFrameSize = 32 << 20 // uploads arrive base64-encoded in one frame

	// Inbound message budget per connection. Editing produces at most a few
	// messages per second; anything past this is a client gone wrong.
	inboundRate  = 50
	inboundBurst = 100
)

// Bridge upgrades HTTP requests and binds the connections to sessions.
type Bridge struct {
	registry *editor.Registry
	logger   *logging.Logger
	metrics  *monitoring.Metrics
	upgrader websocket.Upgrader
}

// NewBridge creates the websocket transport over a session registry.
func NewBridge(registry *editor.Registry, logger *logging.Logger, metrics *monitoring.Metrics) *Bridge {
	return &Bridge{
		registry: registry,
		logger:   logger.Named("ws"),
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     localOrigin,
		},
	}
}

// localOrigin admits browser pages served by this host and vscode-webview
// frames. Non-browser clients send no Origin header and pass.
func localOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if strings.HasPrefix(origin, "vscode-webview://") {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "127.0.0.1" || host == "localhost" || host == "::1"
}

// Handle is the gin handler for GET /ws/:token.
func (b *Bridge) Handle(c *gin.Context) {
	token := c.Param("token")
	session, ok := b.registry.GetByToken(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no panel for token"})
		return
	}

	conn, err := b.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		b.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	connID := id.NewConnID()
	wc := &webviewConn{
		id:      connID,
		conn:    conn,
		metrics: b.metrics,
		logger: b.logger.With(
			zap.String("conn", string(connID)),
			zap.String("panel", session.Key()),
		),
	}

	b.metrics.WSConnections.Inc()
	defer b.metrics.WSConnections.Dec()

	session.AttachWebview(wc)
	wc.logger.Info("webview attached")

	stopPing := wc.startPing()
	defer stopPing()

	b.readLoop(session, wc)

	if wc.replaced() {
		// A newer connection took over the panel; this one just goes away.
		wc.logger.Info("webview superseded")
		return
	}
	wc.logger.Info("webview disconnected, dismissing panel")
	session.OnPanelDismissed()
}

func (b *Bridge) readLoop(session *editor.Session, wc *webviewConn) {
	limiter := rate.NewLimiter(rate.Limit(inboundRate), inboundBurst)

	wc.conn.SetReadLimit(maxFrameSize)
	_ = wc.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	wc.conn.SetPongHandler(func(string) error {
		return wc.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		_, data, err := wc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !wc.replaced() {
				wc.logger.Warn("read failed", zap.Error(err))
			}
			return
		}

		if !limiter.Allow() {
			wc.logger.Warn("inbound message rate exceeded, dropping")
			continue
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			wc.logger.Warn("undecodable message", zap.Error(err))
			continue
		}

		b.metrics.WSMessages.WithLabelValues(commandOf(msg), "in").Inc()
		session.HandleMessage(msg)
	}
}

// webviewConn adapts one websocket connection to the session transport
// interface. Writes are serialized; gorilla connections allow only one
// concurrent writer.
type webviewConn struct {
	id      id.ConnID
	conn    *websocket.Conn
	logger  *logging.Logger
	metrics *monitoring.Metrics

	writeMu    sync.Mutex
	hostClosed atomic.Bool
}

// Post sends one protocol message to the widget.
func (w *webviewConn) Post(msg interface{}) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	w.metrics.WSMessages.WithLabelValues(commandOf(msg), "out").Inc()
	return nil
}

// Close tears the connection down from the host side. Idempotent.
func (w *webviewConn) Close() error {
	if w.hostClosed.Swap(true) {
		return nil
	}
	w.writeMu.Lock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = w.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	w.writeMu.Unlock()
	return w.conn.Close()
}

func (w *webviewConn) replaced() bool {
	return w.hostClosed.Load()
}

// startPing keeps the connection alive through proxies and idle periods.
func (w *webviewConn) startPing() func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				w.writeMu.Lock()
				_ = w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				err := w.conn.WriteMessage(websocket.PingMessage, nil)
				w.writeMu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()
	return func() { close(done) }
}

// commandOf extracts the command discriminator for metrics labels.
func commandOf(msg interface{}) string {
	switch m := msg.(type) {
	case *protocol.Update:
		return m.Command
	case *protocol.Uploaded:
		return m.Command
	case *protocol.Ready:
		return m.Command
	case *protocol.SaveOptions:
		return m.Command
	case *protocol.Info:
		return m.Command
	case *protocol.Error:
		return m.Command
	case *protocol.Edit:
		return m.Command
	case *protocol.ResetConfig:
		return m.Command
	case *protocol.Save:
		return m.Command
	case *protocol.Upload:
		return m.Command
	case *protocol.OpenLink:
		return m.Command
	case *protocol.Reveal:
		return m.Command
	case *protocol.SetTitle:
		return m.Command
	case *protocol.ViewState:
		return m.Command
	default:
		return "unknown"
	}
}
