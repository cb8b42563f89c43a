package loader

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"c.toml", FormatTOML, false},
		{"dir/C.TOML", FormatTOML, false},
		{"c.yaml", FormatYAML, false},
		{"c.yml", FormatYAML, false},
		{"c.json", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFor(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileLoader_TOML(t *testing.T) {
	fsys := MapFS{FS: fstest.MapFS{
		"c.toml": {Data: []byte(`
[logging]
level = "debug"

[bounds]
x = [0, 10]
`)},
	}}

	l, err := NewFileLoaderWithFS(fsys, "c.toml")
	require.NoError(t, err)
	m, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", m["logging"].(map[string]any)["level"])
	assert.Equal(t, []any{int64(0), int64(10)}, m["bounds"].(map[string]any)["x"])
}

func TestFileLoader_YAML(t *testing.T) {
	fsys := MapFS{FS: fstest.MapFS{
		"c.yaml": {Data: []byte(`
logging:
  level: warn
views:
  - name: xy
    x: x
    y: y
`)},
	}}

	l, err := NewFileLoaderWithFS(fsys, "c.yaml")
	require.NoError(t, err)
	m, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", m["logging"].(map[string]any)["level"])
	views := m["views"].([]any)
	require.Len(t, views, 1)
	assert.Equal(t, "xy", views[0].(map[string]any)["name"])
}

func TestFileLoader_Missing(t *testing.T) {
	l, err := NewFileLoaderWithFS(MapFS{FS: fstest.MapFS{}}, "nope.toml")
	require.NoError(t, err)
	_, err = l.Load()
	assert.Error(t, err)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(FormatTOML, "bad.toml", []byte("x = = 1"))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "bad.toml", perr.Path)
	assert.Positive(t, perr.Line)
	assert.Contains(t, perr.Error(), "bad.toml")

	_, err = Parse(FormatYAML, "bad.yaml", []byte("a: [1, 2"))
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "bad.yaml", perr.Path)

	_, err = Parse("ini", "c.ini", nil)
	assert.Error(t, err)
}

func TestParse_Empty(t *testing.T) {
	m, err := Parse(FormatYAML, "empty.yaml", nil)
	require.NoError(t, err)
	assert.Empty(t, m)

	m, err = LoadFromReader(FormatTOML, strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestEnvLoader(t *testing.T) {
	l := NewEnvLoader("STORMDRAIN_")
	l.AddMapping("STORMDRAIN_LOG_LEVEL", "logging.level")
	l.environ = func() []string {
		return []string{
			"STORMDRAIN_LOG_LEVEL=debug",
			"STORMDRAIN_PIPELINE_CACHE_LENGTH=3",
			"STORMDRAIN_PIPELINE_FAIL_FAST=true",
			"STORMDRAIN_BOUNDS_X=[0, 2.5]",
			"STORMDRAIN_=ignored",
			"HOME=/root",
		}
	}

	m, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"logging": map[string]any{"level": "debug"},
		"pipeline": map[string]any{
			"cacheLength": int64(3),
			"failFast":    true,
		},
		"bounds": map[string]any{"x": []any{float64(0), 2.5}},
	}, m)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", ""},
		{"yes", true},
		{"OFF", false},
		{"42", int64(42)},
		{"-1.5", -1.5},
		{"1e3", 1000.0},
		{`{"a": 1}`, map[string]any{"a": float64(1)}},
		{"[1,", "[1,"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseValue(tt.in))
		})
	}
}

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"logging":  map[string]any{"level": "info", "development": false},
		"pipeline": map[string]any{"cacheLength": 1},
	}
	src := map[string]any{
		"logging":  map[string]any{"level": "debug"},
		"pipeline": "replaced",
		"views":    []any{"xy"},
	}

	got := DeepMerge(dst, src)
	assert.Equal(t, map[string]any{
		"logging":  map[string]any{"level": "debug", "development": false},
		"pipeline": "replaced",
		"views":    []any{"xy"},
	}, got)

	assert.Equal(t, map[string]any{"a": 1}, DeepMerge(nil, map[string]any{"a": 1}))
}

func TestClone(t *testing.T) {
	src := map[string]any{"a": map[string]any{"b": []any{1, map[string]any{"c": 2}}}}
	dst := Clone(src)
	assert.Equal(t, src, dst)

	dst["a"].(map[string]any)["b"].([]any)[1].(map[string]any)["c"] = 3
	assert.Equal(t, 2, src["a"].(map[string]any)["b"].([]any)[1].(map[string]any)["c"])
	assert.Nil(t, Clone(nil))
}
