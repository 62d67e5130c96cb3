package editor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// EnvEditor prepares an external editor command using $VISUAL or $EDITOR
// (fallback: "vi"). Callers run the command with tea.ExecProcess so the
// terminal leaves raw mode while the editor owns it.
type EnvEditor struct{}

// NewEnvEditor creates an EnvEditor.
func NewEnvEditor() *EnvEditor {
	return &EnvEditor{}
}

const commentEnd = "-->"

func instructions(title string) string {
	return fmt.Sprintf(`<!--
Mumlife: %s

- Save and quit to put the text back into the form.
- #tags in the text are picked up by the site.
- Everything above the closing marker is ignored.
%s

`, title, commentEnd)
}

// Cmd writes body under an instruction header to a temp file and returns
// the editor command for it together with the file path.
func (e *EnvEditor) Cmd(title, body string) (*exec.Cmd, string, error) {
	editorCmd := os.Getenv("VISUAL")
	if editorCmd == "" {
		editorCmd = os.Getenv("EDITOR")
	}
	if editorCmd == "" {
		editorCmd = "vi"
	}

	tmpFile, err := os.CreateTemp("", "mumlife-*.md")
	if err != nil {
		return nil, "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer tmpFile.Close()

	if _, err := tmpFile.WriteString(instructions(title) + body); err != nil {
		os.Remove(tmpPath)
		return nil, "", fmt.Errorf("writing to temp file: %w", err)
	}

	parts := strings.Fields(editorCmd)
	args := append(parts[1:], tmpPath)
	return exec.Command(parts[0], args...), tmpPath, nil
}

// ReadContent reads the temp file, drops the instruction header, trims
// whitespace and removes the file.
func (e *EnvEditor) ReadContent(path string) (string, error) {
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading temp file: %w", err)
	}

	content := string(data)
	if idx := strings.Index(content, commentEnd); idx != -1 {
		content = content[idx+len(commentEnd):]
	}
	return strings.TrimSpace(content), nil
}
