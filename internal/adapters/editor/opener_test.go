package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_PreferredEditorWithArgs(t *testing.T) {
	t.Setenv("EDITOR", "should-not-be-used")

	cmd, err := NewOpener("code --wait").Command("/tmp/project.json")
	require.NoError(t, err)

	assert.Equal(t, []string{"code", "--wait", "/tmp/project.json"}, cmd.Args)
}

func TestCommand_FallsBackToEnvironment(t *testing.T) {
	tests := []struct {
		name   string
		editor string
		visual string
		want   string
	}{
		{"editor wins", "micro", "emacs", "micro"},
		{"visual when editor empty", "", "emacs", "emacs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("EDITOR", tt.editor)
			t.Setenv("VISUAL", tt.visual)

			cmd, err := NewOpener("").Command("f.json")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd.Args[0])
			assert.Equal(t, "f.json", cmd.Args[len(cmd.Args)-1])
		})
	}
}
