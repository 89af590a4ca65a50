package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute 在进程内运行命令，使用临时配置文件避免读取用户目录
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	dir := t.TempDir()
	cfg := filepath.Join(dir, "quizmark.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("log_level: error\n"), 0o644))

	cmd := NewRootCommand("test", "none", "unknown")
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", cfg}, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRenderStdin(t *testing.T) {
	out, _, err := execute(t, "# Hi\n\nsome **bold** text\n", "render")
	require.NoError(t, err)

	assert.Contains(t, out, `id="hi"`)
	assert.Contains(t, out, "heading-anchor")
	assert.Contains(t, out, "<strong>bold</strong>")
}

func TestRenderFileWithStats(t *testing.T) {
	path := writeFile(t, "doc.md", "```go\nfmt.Println(1)\n```\n")
	outPath := filepath.Join(t.TempDir(), "doc.html")

	out, stderr, err := execute(t, "", "render", path, "--stats", "-o", outPath)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "copy-code-btn")
	assert.Contains(t, stderr, "数量")
}

func TestRenderFrontMatter(t *testing.T) {
	out, stderr, err := execute(t, "---\ntitle: Quiz\n---\n# Body\n", "render", "--front-matter", "--stats")
	require.NoError(t, err)

	assert.NotContains(t, out, "title: Quiz")
	assert.Contains(t, out, "Body")
	assert.Contains(t, stderr, "meta: title")
}

func TestRenderMissingFile(t *testing.T) {
	_, _, err := execute(t, "", "render", filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)
}

func TestItemCommand(t *testing.T) {
	path := writeFile(t, "items.toml", `title = "Week 1"

[[item]]
id = "q1"
question = "What is **2+2**?"
answer = "4"
explanation = "Basic *arithmetic*."
`)

	out, stderr, err := execute(t, "", "item", path, "--stats")
	require.NoError(t, err)

	assert.Contains(t, out, "<title>Week 1</title>")
	assert.Contains(t, out, `<section class="quiz-item" data-item-id="q1">`)
	assert.Contains(t, out, `data-node-id="q1-question"`)
	assert.Contains(t, out, "<strong>2+2</strong>")
	assert.Contains(t, out, "<em>arithmetic</em>")
	assert.Contains(t, stderr, "q1")
}

func TestItemCommandDuplicateID(t *testing.T) {
	path := writeFile(t, "items.toml", `
[[item]]
id = "q1"
question = "a"

[[item]]
id = "q1"
question = "b"
`)

	_, _, err := execute(t, "", "item", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate item id")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "--version")
	require.NoError(t, err)
	assert.Equal(t, "quizmark test (commit none, built unknown)\n", out)
}

func TestTableCommand(t *testing.T) {
	out, _, err := execute(t, "", "table", "--rows", "3", "--cols", "2")
	require.NoError(t, err)

	want := "| Header 1 | Header 2 |\n| --- | --- |\n| Cell 1-1 | Cell 1-2 |\n| Cell 2-1 | Cell 2-2 |\n"
	assert.Equal(t, want, out)
}

func TestTableCommandInvalidShape(t *testing.T) {
	_, _, err := execute(t, "", "table", "--rows", "0")
	assert.Error(t, err)
}

func TestTableCommandFromHTML(t *testing.T) {
	path := writeFile(t, "t.html", "<table><tr><th>A</th><th>B</th></tr><tr><td>1</td><td>2</td></tr></table>")

	out, _, err := execute(t, "", "table", "--from-html", path)
	require.NoError(t, err)
	assert.Equal(t, "| A | B |\n| --- | --- |\n| 1 | 2 |\n", out)
}

func TestImportCommand(t *testing.T) {
	out, _, err := execute(t, "<h2>Old</h2><p>Some <strong>bold</strong> text</p>", "import")
	require.NoError(t, err)

	assert.Contains(t, out, "## Old")
	assert.Contains(t, out, "**bold**")
}

func TestAnchorCommand(t *testing.T) {
	out, _, err := execute(t, "", "anchor", "Hello", "World")
	require.NoError(t, err)
	assert.Equal(t, "hello-world\n", out)

	_, _, err = execute(t, "", "anchor", "!!!")
	assert.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "quizmark.yaml")

	out, _, err := execute(t, "", "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, _, err = execute(t, "", "config", "init", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	_, _, err = execute(t, "", "config", "init", path, "--force")
	assert.NoError(t, err)
}

func TestConfigShow(t *testing.T) {
	out, _, err := execute(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "log_level: error")
	assert.Contains(t, out, "upload.max_bytes: 10485760")
}

func TestWatchOnce(t *testing.T) {
	input := writeFile(t, "note.md", "# Note\n\nwatched *text*\n")
	output := filepath.Join(filepath.Dir(input), "note.html")

	_, _, err := execute(t, "", "watch", input, "--once", "-o", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<!DOCTYPE html>")
	assert.Contains(t, string(data), "<em>text</em>")
}
