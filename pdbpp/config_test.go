package pdbpp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsurePrompt(t *testing.T) {
	assert.Equal(t, "(Pdb++) ", ensurePrompt("(Pdb) "))
	assert.Equal(t, "pdb++> ", ensurePrompt("pdb> "))
	assert.Equal(t, "(Pdb++) ", ensurePrompt("(Pdb++) "))
	assert.Equal(t, "custom++)", ensurePrompt("custom)"))
}

func TestDefaultConfigColorsEnvOverride(t *testing.T) {
	t.Setenv("PDBPP_COLORS", "0")
	assert.False(t, DefaultConfig().Highlight)

	t.Setenv("PDBPP_COLORS", "1")
	assert.True(t, DefaultConfig().Highlight)
}

func TestSessionPromptAlwaysMarked(t *testing.T) {
	config := DefaultConfig()
	config.Prompt = "(mydbg) "
	s := NewSession(nil, SessionOptions{Tracer: &fakeTracer{}, Config: config})
	assert.Equal(t, "(mydbg++) ", s.prompt)
}
