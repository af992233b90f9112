package pdbpp

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	e "github.com/bretello/pdbpp/error"
)

// formatEditCmd expands an editor command template. Supported forms,
// tried in order: "{filename}"/"{lineno}" placeholders, printf-style
// "%s"/"%d", and a bare command which gets the conventional
// "+lineno filename" suffix.
func formatEditCmd(editor, filename string, lineno int) string {
	quoted := "'" + strings.ReplaceAll(filename, "'", `'\''`) + "'"

	if strings.Contains(editor, "{filename}") {
		cmd := strings.ReplaceAll(editor, "{filename}", quoted)
		return strings.ReplaceAll(cmd, "{lineno}", fmt.Sprint(lineno))
	}
	if strings.Contains(editor, "%s") {
		cmd := strings.Replace(editor, "%s", quoted, 1)
		return strings.Replace(cmd, "%d", fmt.Sprint(lineno), 1)
	}
	return fmt.Sprintf("%s +%d %s", editor, lineno, quoted)
}

// resolveEditor picks the editor command: config first, then $EDITOR,
// then vim or vi from PATH.
func (s *Session) resolveEditor() (string, error) {
	if s.config.Editor != "" {
		return s.config.Editor, nil
	}
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor, nil
	}
	for _, candidate := range []string{"vim", "vi"} {
		if _, err := exec.LookPath(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", e.ErrEditorNotConfigured
}

func (s *Session) launchEditor(filename string, lineno int) error {
	editor, err := s.resolveEditor()
	if err != nil {
		return err
	}
	cmdline := formatEditCmd(editor, filename, lineno)
	cmd := exec.Command("sh", "-c", cmdline)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	s.out.Flush()
	return cmd.Run()
}
