package config

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/mitchellh/mapstructure"

	"github.com/dshills/stormdrain/internal/bounds"
	"github.com/dshills/stormdrain/internal/config/loader"
	"github.com/dshills/stormdrain/internal/exchange"
	"github.com/dshills/stormdrain/internal/logging"
	"github.com/dshills/stormdrain/internal/record"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "STORMDRAIN_"

// Config is a complete session configuration.
type Config struct {
	Logging  logging.Config       `mapstructure:"logging"`
	Pipeline PipelineConfig       `mapstructure:"pipeline"`
	Views    []ViewConfig         `mapstructure:"views"`
	Bounds   map[string][]float64 `mapstructure:"bounds"`
	Filter   FilterConfig         `mapstructure:"filter"`
	Dataset  DatasetConfig        `mapstructure:"dataset"`
	Color    ColorConfig          `mapstructure:"color"`
}

// PipelineConfig holds pipeline and exchange policy.
type PipelineConfig struct {
	// CacheLength is how many batches the cached segment keeps.
	CacheLength int `mapstructure:"cacheLength"`
	// FailFast stops a topic send at the first failing subscriber.
	FailFast bool `mapstructure:"failFast"`
}

// ViewConfig declares one linked view.
type ViewConfig struct {
	Name         string  `mapstructure:"name"`
	X            string  `mapstructure:"x"`
	Y            string  `mapstructure:"y"`
	AspectLocked bool    `mapstructure:"aspectLocked"`
	Aspect       float64 `mapstructure:"aspect"`
}

// FilterConfig configures the bounds filter.
type FilterConfig struct {
	RestrictTo []string          `mapstructure:"restrictTo"`
	Transforms []TransformConfig `mapstructure:"transforms"`
}

// TransformConfig maps the bounds range From onto the data field To.
// Either Lua or Scale/Offset is set, not both.
type TransformConfig struct {
	From   string   `mapstructure:"from"`
	To     string   `mapstructure:"to"`
	Scale  *float64 `mapstructure:"scale"`
	Offset *float64 `mapstructure:"offset"`
	Lua    string   `mapstructure:"lua"`
}

// IsLua reports whether the transform is a Lua script.
func (t TransformConfig) IsLua() bool {
	return t.Lua != ""
}

// Affine returns the scale and offset, defaulting to 1 and 0.
func (t TransformConfig) Affine() (scale, offset float64) {
	scale = 1
	if t.Scale != nil {
		scale = *t.Scale
	}
	if t.Offset != nil {
		offset = *t.Offset
	}
	return scale, offset
}

// DatasetConfig describes the input data.
type DatasetConfig struct {
	IndexField string        `mapstructure:"indexField"`
	Trigger    string        `mapstructure:"trigger"`
	Fields     []FieldConfig `mapstructure:"fields"`
}

// FieldConfig is one input column.
type FieldConfig struct {
	Name string `mapstructure:"name"`
	Kind string `mapstructure:"kind"`
}

// ColorConfig drives a color range from one bounds coordinate.
type ColorConfig struct {
	Field   string    `mapstructure:"field"`
	Default []float64 `mapstructure:"default"`
}

// Default returns the configuration used for unset settings.
func Default() *Config {
	return &Config{
		Logging: logging.DefaultConfig(),
		Pipeline: PipelineConfig{
			CacheLength: 1,
		},
		Dataset: DatasetConfig{
			IndexField: "point_id",
			Trigger:    exchange.ReflowStart.String(),
		},
	}
}

// Load reads path (if not empty), applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	settings := make(map[string]any)
	if path != "" {
		l, err := loader.NewFileLoader(path)
		if err != nil {
			return nil, err
		}
		file, err := l.Load()
		if err != nil {
			return nil, err
		}
		settings = loader.DeepMerge(settings, file)
	}
	return fromSettings(settings, os.Environ)
}

// Read parses configuration in format from r, applies environment
// overrides and validates the result.
func Read(format loader.Format, r io.Reader) (*Config, error) {
	settings, err := loader.LoadFromReader(format, r)
	if err != nil {
		return nil, err
	}
	return fromSettings(settings, os.Environ)
}

func fromSettings(settings map[string]any, environ func() []string) (*Config, error) {
	env := loader.NewEnvLoader(EnvPrefix)
	env.AddMapping(EnvPrefix+"LOG_LEVEL", "logging.level")
	env.SetEnviron(environ)
	overrides, err := env.Load()
	if err != nil {
		return nil, err
	}
	settings = loader.DeepMerge(settings, overrides)

	cfg, err := Decode(settings)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode decodes a settings map onto Default(). It does not validate.
func Decode(settings map[string]any) (*Config, error) {
	cfg := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(settings); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration and returns ValidationErrors listing
// every problem.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs.add("logging.level", "unknown level", c.Logging.Level)
	}
	if c.Pipeline.CacheLength < 1 {
		errs.add("pipeline.cacheLength", "must be at least 1", c.Pipeline.CacheLength)
	}

	names := make(map[string]bool, len(c.Views))
	for i, v := range c.Views {
		path := fmt.Sprintf("views[%d]", i)
		switch {
		case v.Name == "":
			errs.add(path+".name", "is required", nil)
		case names[v.Name]:
			errs.add(path+".name", "duplicate view name", v.Name)
		}
		names[v.Name] = true

		if v.X == "" || v.Y == "" {
			errs.add(path, "x and y are required", nil)
		} else if v.X == v.Y {
			errs.add(path, "x and y must differ", v.X)
		}
		if v.AspectLocked && !validAspect(v.Aspect) {
			errs.add(path+".aspect", "must be positive when aspect locked", v.Aspect)
		}
	}

	for name, pair := range c.Bounds {
		if _, err := limitsFrom(pair); err != nil {
			errs.add("bounds."+name, err.Error(), pair)
		}
	}

	for i, t := range c.Filter.Transforms {
		path := fmt.Sprintf("filter.transforms[%d]", i)
		if t.From == "" || t.To == "" {
			errs.add(path, "from and to are required", nil)
		}
		if t.IsLua() && (t.Scale != nil || t.Offset != nil) {
			errs.add(path, "set either lua or scale/offset", nil)
		}
		if t.Scale != nil && *t.Scale == 0 {
			errs.add(path+".scale", "must not be zero", 0)
		}
	}

	if !exchange.Name(c.Dataset.Trigger).Valid() {
		errs.add("dataset.trigger", "invalid topic name", c.Dataset.Trigger)
	}
	if c.Dataset.IndexField == "" {
		errs.add("dataset.indexField", "is required", nil)
	}
	seen := make(map[string]bool, len(c.Dataset.Fields))
	for i, f := range c.Dataset.Fields {
		path := fmt.Sprintf("dataset.fields[%d]", i)
		if f.Name == "" {
			errs.add(path+".name", "is required", nil)
		} else if seen[f.Name] {
			errs.add(path+".name", "duplicate field", f.Name)
		}
		seen[f.Name] = true
		if record.ParseKind(f.Kind) == record.Invalid {
			errs.add(path+".kind", "unknown kind", f.Kind)
		}
	}

	if c.Color.Default != nil {
		if _, err := limitsFrom(c.Color.Default); err != nil {
			errs.add("color.default", err.Error(), c.Color.Default)
		}
	}

	return errs.err()
}

// InitialBounds returns the configured starting limits.
func (c *Config) InitialBounds() (*bounds.Bounds, error) {
	limits := make(map[string]bounds.Range, len(c.Bounds))
	for name, pair := range c.Bounds {
		r, err := limitsFrom(pair)
		if err != nil {
			return nil, fmt.Errorf("bounds.%s: %w", name, err)
		}
		limits[name] = r
	}
	return bounds.FromMap(nil, limits), nil
}

// ColorDefault returns the configured fallback color range, or an unset
// range.
func (c *Config) ColorDefault() bounds.Range {
	r, err := limitsFrom(c.Color.Default)
	if err != nil {
		return bounds.Unset()
	}
	return r
}

// Schema builds the dataset schema from the configured fields.
func (c *Config) Schema() (*record.Schema, error) {
	fields := make([]record.Field, len(c.Dataset.Fields))
	for i, f := range c.Dataset.Fields {
		fields[i] = record.Field{Name: f.Name, Kind: record.ParseKind(f.Kind)}
	}
	return record.NewSchema(fields...)
}

func limitsFrom(pair []float64) (bounds.Range, error) {
	if len(pair) != 2 {
		return bounds.Range{}, fmt.Errorf("want [min, max], got %d values", len(pair))
	}
	lo, hi := pair[0], pair[1]
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return bounds.Range{}, fmt.Errorf("limits must be numbers")
	}
	if lo > hi {
		return bounds.Range{}, fmt.Errorf("min %g is greater than max %g", lo, hi)
	}
	return bounds.NewRange(lo, hi), nil
}

func validAspect(a float64) bool {
	return a > 0 && !math.IsInf(a, 0) && !math.IsNaN(a)
}
