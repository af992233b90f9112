package pdbpp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	e "github.com/bretello/pdbpp/error"
)

func TestFormatEditCmdPlaceholders(t *testing.T) {
	got := formatEditCmd("subl {filename}:{lineno}", "/src/app.py", 7)
	assert.Equal(t, "subl '/src/app.py':7", got)
}

func TestFormatEditCmdPrintfStyle(t *testing.T) {
	got := formatEditCmd("emacsclient +%d %s", "/src/app.py", 7)
	assert.Equal(t, "emacsclient +7 '/src/app.py'", got)
}

func TestFormatEditCmdBareCommand(t *testing.T) {
	got := formatEditCmd("vim", "/src/app.py", 12)
	assert.Equal(t, "vim +12 '/src/app.py'", got)
}

func TestFormatEditCmdQuotesSingleQuotes(t *testing.T) {
	got := formatEditCmd("vim", "/src/o'brien.py", 1)
	assert.Equal(t, `vim +1 '/src/o'\''brien.py'`, got)
}

func TestResolveEditorPrefersConfig(t *testing.T) {
	s, _ := newTestSession(&fakeTracer{}, &scriptReader{})
	s.config.Editor = "myedit"
	t.Setenv("EDITOR", "other")

	editor, err := s.resolveEditor()
	assert.NoError(t, err)
	assert.Equal(t, "myedit", editor)
}

func TestResolveEditorFallsBackToEnv(t *testing.T) {
	s, _ := newTestSession(&fakeTracer{}, &scriptReader{})
	t.Setenv("EDITOR", "nano")

	editor, err := s.resolveEditor()
	assert.NoError(t, err)
	assert.Equal(t, "nano", editor)
}

func TestResolveEditorNotConfigured(t *testing.T) {
	s, _ := newTestSession(&fakeTracer{}, &scriptReader{})
	t.Setenv("EDITOR", "")
	t.Setenv("PATH", t.TempDir())

	_, err := s.resolveEditor()
	assert.ErrorIs(t, err, e.ErrEditorNotConfigured)
}
