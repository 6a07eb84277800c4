package protocol

// Command names. Host→widget first, widget→host second, transport chrome last.
const (
	CmdUpdate   = "update"
	CmdUploaded = "uploaded"

	CmdReady       = "ready"
	CmdSaveOptions = "save-options"
	CmdInfo        = "info"
	CmdError       = "error"
	CmdEdit        = "edit"
	CmdResetConfig = "reset-config"
	CmdSave        = "save"
	CmdUpload      = "upload"
	CmdOpenLink    = "open-link"

	CmdReveal    = "reveal"
	CmdSetTitle  = "set-title"
	CmdViewState = "view-state"
)

// Update push types.
const (
	UpdateInit    = "init"
	UpdateContent = "update"
)

// Themes pushed with update messages.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Options is the widget configuration map persisted across restarts.
type Options map[string]interface{}

// Update pushes document content into the widget, optionally carrying the
// persisted widget options and the theme.
type Update struct {
	Command string  `json:"command"`
	Content string  `json:"content"`
	Type    string  `json:"type,omitempty"`
	Options Options `json:"options,omitempty"`
	Theme   string  `json:"theme,omitempty"`
}

// NewUpdate builds a content push of the given type.
func NewUpdate(typ, content string) *Update {
	return &Update{Command: CmdUpdate, Type: typ, Content: content}
}

// Uploaded reports the document-relative references of stored upload files,
// in the order the widget sent them.
type Uploaded struct {
	Command string   `json:"command"`
	Files   []string `json:"files"`
}

// NewUploaded builds an upload acknowledgement.
func NewUploaded(refs []string) *Uploaded {
	return &Uploaded{Command: CmdUploaded, Files: refs}
}

// Ready signals the widget finished bootstrapping and can accept content.
type Ready struct {
	Command string `json:"command"`
}

// SaveOptions persists a changed widget configuration map.
type SaveOptions struct {
	Command string  `json:"command"`
	Options Options `json:"options"`
}

// Info carries a user-visible informational message from the widget.
type Info struct {
	Command string `json:"command"`
	Content string `json:"content"`
}

// Error carries a user-visible error message from the widget.
type Error struct {
	Command string `json:"command"`
	Content string `json:"content"`
}

// Edit carries the widget buffer's full text after a user edit.
type Edit struct {
	Command string `json:"command"`
	Content string `json:"content"`
}

// ResetConfig asks the host to clear the persisted widget options.
type ResetConfig struct {
	Command string `json:"command"`
}

// Save asks the host to write the document to disk.
type Save struct {
	Command string `json:"command"`
}

// UploadFile is one file in an upload batch.
type UploadFile struct {
	Name    string `json:"name"`
	Content string `json:"base64-content"`
}

// Upload carries a batch of files the user dropped or pasted into the widget.
type Upload struct {
	Command string       `json:"command"`
	Files   []UploadFile `json:"files"`
}

// OpenLink asks the host to follow a link activated inside the widget.
type OpenLink struct {
	Command string `json:"command"`
	Href    string `json:"href"`
}

// Reveal asks the bootstrap shell to bring its panel to front.
type Reveal struct {
	Command string `json:"command"`
}

// NewReveal builds a reveal request.
func NewReveal() *Reveal {
	return &Reveal{Command: CmdReveal}
}

// SetTitle updates the panel title shown by the shell.
type SetTitle struct {
	Command string `json:"command"`
	Content string `json:"content"`
}

// NewSetTitle builds a title update.
func NewSetTitle(title string) *SetTitle {
	return &SetTitle{Command: CmdSetTitle, Content: title}
}

// ViewState reports the panel's focus and visibility flags from the shell.
type ViewState struct {
	Command string `json:"command"`
	Active  bool   `json:"active"`
	Visible bool   `json:"visible"`
}
