package hooks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_LifecycleBeatsTool(t *testing.T) {
	t.Parallel()

	// Stop carries no tool, but even with one the lifecycle rule must win.
	assert.Equal(t, CategoryLifecycle, Classify(KindStop, "Bash"))
	assert.Equal(t, CategoryLifecycle, Classify(KindSessionStart, ""))
	assert.Equal(t, CategoryLifecycle, Classify(KindSubagentStop, "Write"))
	assert.Equal(t, CategoryLifecycle, Classify(KindUserPromptSubmit, ""))
}

func TestClassify_ErrorKinds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CategoryError, Classify(KindToolError, "Bash"))
	assert.Equal(t, CategoryError, Classify(KindPreToolUseRejected, "Write"))
	assert.Equal(t, CategoryError, Classify(KindPostToolUseFailure, ""))
}

func TestClassify_ByToolMembership(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tool string
		want Category
	}{
		{"Write", CategoryFileChange},
		{"Edit", CategoryFileChange},
		{"MultiEdit", CategoryFileChange},
		{"NotebookEdit", CategoryFileChange},
		{"Bash", CategoryCommand},
		{"BashOutput", CategoryCommand},
		{"KillShell", CategoryCommand},
		{"SendMessage", CategoryMessage},
		{"TeamCreate", CategoryMessage},
		{"Read", CategoryToolCall},
		{"Task", CategoryToolCall},
		{"", CategoryToolCall},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Classify(KindPostToolUse, tc.tool), "tool %q", tc.tool)
	}
}

func TestClassify_NotificationAndCompact(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CategoryNotification, Classify(KindNotification, ""))
	assert.Equal(t, CategoryCompact, Classify(KindPreCompact, ""))
	assert.Equal(t, CategoryCompact, Classify(KindPostCompact, ""))
}

func TestFilePath_DirectField(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/tmp/a.go", FilePath(map[string]any{"file_path": "/tmp/a.go"}))
	assert.Equal(t, "/tmp/b.go", FilePath(map[string]any{"path": "/tmp/b.go"}))
}

func TestFilePath_DirectFieldWinsOverNested(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"file_path":  "/direct.go",
		"tool_input": map[string]any{"file_path": "/nested.go"},
	}
	assert.Equal(t, "/direct.go", FilePath(data))
}

func TestFilePath_NestedToolInput(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"tool_input": map[string]any{"file_path": "/nested.go"},
	}
	assert.Equal(t, "/nested.go", FilePath(data))
}

func TestFilePath_StringSerializedToolInput(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"tool_input": `{"path": "/serialized.go"}`,
	}
	assert.Equal(t, "/serialized.go", FilePath(data))
}

func TestFilePath_MalformedToolInputIsSkipped(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"tool_input": `{not json`,
	}
	assert.Equal(t, "", FilePath(data))
}

func TestFilePath_Empty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", FilePath(nil))
	assert.Equal(t, "", FilePath(map[string]any{}))
}

func TestTruncate_ShortStringUnchanged(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hello", Truncate("hello", 10))
}

func TestTruncate_LongStringClipped(t *testing.T) {
	t.Parallel()

	got := Truncate(strings.Repeat("a", 50), 10)
	assert.Equal(t, strings.Repeat("a", 10)+"…", got)
}

func TestTruncate_NonStringSerialized(t *testing.T) {
	t.Parallel()

	got := Truncate(map[string]any{"cmd": "ls"}, 100)
	assert.Equal(t, `{"cmd":"ls"}`, got)
}

func TestTruncate_Nil(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", Truncate(nil, 10))
}
