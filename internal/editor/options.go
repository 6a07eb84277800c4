package editor

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/logging"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/protocol"
)

// OptionsKey is the fixed name the widget options persist under in the
// synchronized state store.
const OptionsKey = "vscode-markdown-editor-options"

// OptionsStore persists the widget configuration map: loaded at panel-ready,
// replaced whenever the widget reports save-options, cleared on reset.
type OptionsStore struct {
	store  StateStore
	logger *logging.Logger

	mu sync.Mutex
}

// NewOptionsStore creates an options store over a state store.
func NewOptionsStore(store StateStore, logger *logging.Logger) *OptionsStore {
	return &OptionsStore{store: store, logger: logger.Named("options")}
}

// Load returns the persisted options, or an empty map when none are stored
// or the stored value is unreadable.
func (o *OptionsStore) Load() protocol.Options {
	o.mu.Lock()
	defer o.mu.Unlock()

	opts := protocol.Options{}
	ok, err := o.store.Get(OptionsKey, &opts)
	if err != nil {
		o.logger.Warn("cannot load editor options", zap.Error(err))
		return protocol.Options{}
	}
	if !ok {
		return protocol.Options{}
	}
	return opts
}

// Save replaces the persisted options.
func (o *OptionsStore) Save(opts protocol.Options) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.store.Set(OptionsKey, opts); err != nil {
		return fmt.Errorf("persist editor options: %w", err)
	}
	return nil
}

// Reset clears the persisted options; the next update pushes an empty map.
func (o *OptionsStore) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.store.Delete(OptionsKey); err != nil {
		return fmt.Errorf("reset editor options: %w", err)
	}
	return nil
}
