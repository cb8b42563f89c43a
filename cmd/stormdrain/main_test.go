package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/stormdrain/internal/bounds"
)

const testConfig = `
[[views]]
name = "xy"
x = "x"
y = "y"

[[views]]
name = "xz"
x = "x"
y = "z"

[dataset]
fields = [
  { name = "x", kind = "float" },
  { name = "y", kind = "float" },
  { name = "z", kind = "float" },
]
`

const testData = `{"x": 0, "y": 5, "z": 0}
{"x": 1, "y": 4, "z": 0}
{"x": 2, "y": 3, "z": 1}
{"x": 3, "y": 2, "z": 1}
`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_FiltersByView(t *testing.T) {
	cfg := writeConfig(t, testConfig)

	out, err := execute(t, testData, "run", "-c", cfg, "--view", "xy", "--x", "1:2.5", "--y", "0:10")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"x":1,"y":4,"z":0,"point_id":1}`, lines[0])
	assert.Equal(t, `{"x":2,"y":3,"z":1,"point_id":2}`, lines[1])
}

func TestRun_NoInteraction(t *testing.T) {
	cfg := writeConfig(t, testConfig)

	out, err := execute(t, testData, "run", "-c", cfg)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 4)
}

func TestRun_DataFile(t *testing.T) {
	cfg := writeConfig(t, testConfig)
	data := filepath.Join(t.TempDir(), "points.jsonl")
	require.NoError(t, os.WriteFile(data, []byte(testData), 0o644))

	out, err := execute(t, "", "run", "-c", cfg, "-d", data, "--view", "xz", "--x", "0:10", "--y", "1:1")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
}

func TestRun_Errors(t *testing.T) {
	cfg := writeConfig(t, testConfig)

	_, err := execute(t, testData, "run", "-c", cfg, "--view", "nope", "--x", "0:1")
	assert.ErrorContains(t, err, "unknown view")

	_, err = execute(t, testData, "run", "-c", cfg, "--view", "xy", "--x", "1")
	assert.ErrorContains(t, err, "--x")

	_, err = execute(t, "not json\n", "run", "-c", cfg)
	assert.ErrorContains(t, err, "line 1")

	_, err = execute(t, testData, "run")
	assert.ErrorContains(t, err, "dataset.fields")

	_, err = execute(t, testData, "run", "-c", cfg, "--watch", "--log-level", "loud")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "", "validate", "-c", writeConfig(t, testConfig))
	require.NoError(t, err)
	assert.Equal(t, "ok: 2 views, 0 bounds, 0 transforms, 3 fields\n", out)

	_, err = execute(t, "", "validate", "-c", writeConfig(t, "[pipeline]\ncacheLength = 0\n"))
	assert.ErrorContains(t, err, "pipeline.cacheLength")
}

func TestTopics(t *testing.T) {
	out, err := execute(t, "", "topics")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "bounds.updated"))
	assert.True(t, strings.HasPrefix(lines[3], "reflow.start"))
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "stormdrain dev")
}

func TestRunExitCode(t *testing.T) {
	assert.Equal(t, 0, run([]string{"topics"}))
	assert.Equal(t, 1, run([]string{"no-such-command"}))
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in      string
		want    bounds.Range
		wantErr bool
	}{
		{"", bounds.Unset(), false},
		{"0:10", bounds.NewRange(0, 10), false},
		{" -1.5 : 2 ", bounds.NewRange(-1.5, 2), false},
		{"3:3", bounds.NewRange(3, 3), false},
		{"5", bounds.Range{}, true},
		{"a:1", bounds.Range{}, true},
		{"1:b", bounds.Range{}, true},
		{"2:1", bounds.Range{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseRange(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
