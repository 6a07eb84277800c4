// Package id provides centralized ID generation for the editor host.
//
// ULIDs are the single ID format: lexicographically sortable, so panel and
// request IDs order by creation time in logs and API listings. Type-specific
// prefixes (panel_*, conn_*, req_*) keep log lines readable and prevent IDs
// of one kind being handed to APIs expecting another.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// PanelID identifies one editor panel session.
type PanelID string

// ConnID identifies one webview transport attachment.
type ConnID string

// RequestID identifies an API request.
type RequestID string

const (
	panelPrefix   = "panel"
	connPrefix    = "conn"
	requestPrefix = "req"
)

// Generator generates ULIDs with optional type prefixes.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // entropy readers are not safe for concurrent use
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator backed by crypto/rand.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator(rand.Reader)
	})
	return defaultGenerator
}

// NewGenerator creates a generator with the given entropy source. Tests pass
// a deterministic reader.
func NewGenerator(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

func (g *Generator) withPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewPanelID generates a panel session ID.
func (g *Generator) NewPanelID() PanelID {
	return PanelID(g.withPrefix(panelPrefix))
}

// NewConnID generates a transport connection ID.
func (g *Generator) NewConnID() ConnID {
	return ConnID(g.withPrefix(connPrefix))
}

// NewRequestID generates an API request ID.
func (g *Generator) NewRequestID() RequestID {
	return RequestID(g.withPrefix(requestPrefix))
}

// Package-level helpers using the default generator.

// NewPanelID generates a panel session ID.
func NewPanelID() PanelID { return Default().NewPanelID() }

// NewConnID generates a transport connection ID.
func NewConnID() ConnID { return Default().NewConnID() }

// NewRequestID generates an API request ID.
func NewRequestID() RequestID { return Default().NewRequestID() }
