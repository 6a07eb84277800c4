package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirDefaultTemplate(t *testing.T) {
	r := Resolver{Template: "", ProjectRoot: "/proj"}
	assert.Equal(t, "/proj/docs/assets", r.Dir("/proj/docs/note.md"))
}

func TestDirRelativeTemplate(t *testing.T) {
	r := Resolver{Template: "img", ProjectRoot: "/proj"}
	assert.Equal(t, "/proj/docs/img", r.Dir("/proj/docs/note.md"))
}

func TestDirProjectRootPlaceholder(t *testing.T) {
	r := Resolver{Template: "${projectRoot}/assets", ProjectRoot: "/proj"}
	assert.Equal(t, "/proj/assets", r.Dir("/proj/docs/note.md"))
}

func TestDirBasenamePlaceholder(t *testing.T) {
	r := Resolver{Template: "${fileBasenameNoExtension}.assets", ProjectRoot: "/proj"}
	assert.Equal(t, "/proj/docs/note.assets", r.Dir("/proj/docs/note.md"))
}

func TestDirDirPlaceholder(t *testing.T) {
	r := Resolver{Template: "${dir}/media", ProjectRoot: "/proj"}
	assert.Equal(t, "/proj/docs/media", r.Dir("/proj/docs/note.md"))
}

func TestDirWhitespaceTemplateFallsBack(t *testing.T) {
	r := Resolver{Template: "   ", ProjectRoot: "/proj"}
	assert.Equal(t, "/proj/docs/assets", r.Dir("/proj/docs/note.md"))
}
