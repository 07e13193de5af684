package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/CraigKelly/modelgibbs/likelihood"
	"github.com/CraigKelly/modelgibbs/model"
	"github.com/CraigKelly/modelgibbs/sampler"
)

// Defaults for settings a run does not give
const (
	DefaultSeed   = 1
	DefaultChains = 1
	DefaultWindow = 512
)

// Result describes one inference result: the posterior samples of a fit and
// how to evaluate its posterior density.
type Result struct {
	Name         string      `json:"name" yaml:"name" toml:"name"`
	Family       string      `json:"family" yaml:"family" toml:"family"`
	Priors       []string    `json:"priors,omitempty" yaml:"priors,omitempty" toml:"priors,omitempty"`
	Dataset      string      `json:"dataset" yaml:"dataset" toml:"dataset"`
	Samples      [][]float64 `json:"samples,omitempty" yaml:"samples,omitempty" toml:"samples,omitempty"`
	SamplesFile  string      `json:"samples_file,omitempty" yaml:"samples_file,omitempty" toml:"samples_file,omitempty"`
	Deviance     []float64   `json:"deviance,omitempty" yaml:"deviance,omitempty" toml:"deviance,omitempty"`
	DevianceFile string      `json:"deviance_file,omitempty" yaml:"deviance_file,omitempty" toml:"deviance_file,omitempty"`
}

// Model is one candidate model: a single result, or a group when more than
// one result is listed.
type Model struct {
	Name    string   `json:"name" yaml:"name" toml:"name"`
	Results []Result `json:"results" yaml:"results" toml:"results"`
}

// Config is a complete comparison run. Zero values mean "unspecified" and are
// replaced by ApplyDefaults, except Seed: zero is a valid seed, so the default
// seed is only used when a parsed file does not name one.
type Config struct {
	Seed      int64 `json:"seed" yaml:"seed" toml:"seed"`
	Samples   int   `json:"samples" yaml:"samples" toml:"samples"`
	Initial   int   `json:"initial" yaml:"initial" toml:"initial"`
	BurnIn    int   `json:"burnin" yaml:"burnin" toml:"burnin"`
	Chains    int   `json:"chains" yaml:"chains" toml:"chains"`
	Window    int   `json:"window" yaml:"window" toml:"window"`
	MixedData bool  `json:"mixed_data" yaml:"mixed_data" toml:"mixed_data"`

	Datasets []model.Dataset `json:"datasets" yaml:"datasets" toml:"datasets"`
	Models   []Model         `json:"models" yaml:"models" toml:"models"`

	baseDir string // relative sample files are resolved against this
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("empty config path")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Could not READ config from %s", path)
	}

	cfg, err := Parse(b, filepath.Ext(path))
	if err != nil {
		return nil, errors.Wrapf(err, "Could not PARSE config %s", path)
	}

	cfg.baseDir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes config data in the format named by ext (with or without the
// leading dot).
func Parse(data []byte, ext string) (*Config, error) {
	cfg := &Config{Seed: DefaultSeed}

	var err error
	switch strings.TrimPrefix(strings.ToLower(ext), ".") {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, cfg)
	case "json":
		err = json.Unmarshal(data, cfg)
	case "toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, errors.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills in zero values. Seed is left alone.
func (c *Config) ApplyDefaults() {
	if c.Samples <= 0 {
		c.Samples = sampler.DefaultSamples
	}
	if c.Chains <= 0 {
		c.Chains = DefaultChains
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
}

// Check returns an error for settings that can never produce a run
func (c *Config) Check() error {
	if len(c.Models) < 1 {
		return model.Invalidf("Config lists no models")
	}
	if c.Initial < 0 || c.Initial >= len(c.Models) {
		return model.Invalidf("Initial model %d is out of range [0,%d)", c.Initial, len(c.Models))
	}
	if c.BurnIn < 0 || c.BurnIn >= c.Samples {
		return model.Invalidf("Burn-in %d must be in [0,%d)", c.BurnIn, c.Samples)
	}
	return nil
}

// Build creates the ModelSet the config describes
func (c *Config) Build() (*model.ModelSet, error) {
	if err := c.Check(); err != nil {
		return nil, err
	}

	// The model set keeps its own copy of the data, so later edits to the
	// config can not change a built set
	datasets := make(map[string]*model.Dataset, len(c.Datasets))
	for i := range c.Datasets {
		d := &c.Datasets[i]
		if _, dup := datasets[d.Name]; dup {
			return nil, model.Invalidf("Duplicate dataset name %q", d.Name)
		}
		if err := d.Check(); err != nil {
			return nil, err
		}
		datasets[d.Name] = d.Clone()
	}

	models := make([]model.Model, len(c.Models))
	for k, mc := range c.Models {
		if len(mc.Results) < 1 {
			return nil, model.Invalidf("Model %d (%s) lists no results", k, mc.Name)
		}

		results := make([]*model.InferenceResult, len(mc.Results))
		for i, rc := range mc.Results {
			r, err := c.buildResult(rc, datasets)
			if err != nil {
				return nil, errors.Wrapf(err, "Model %d (%s) result %d", k, mc.Name, i)
			}
			results[i] = r
		}

		var m model.Model
		var err error
		if len(results) == 1 {
			m, err = model.NewSingle(results[0])
			if len(mc.Name) > 0 {
				m.Name = mc.Name
			}
		} else {
			m, err = model.NewGroup(mc.Name, results...)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "Model %d (%s)", k, mc.Name)
		}
		models[k] = m
	}

	if c.MixedData {
		return model.NewModelSetUnchecked(models...)
	}
	return model.NewModelSet(models...)
}

func (c *Config) buildResult(rc Result, datasets map[string]*model.Dataset) (*model.InferenceResult, error) {
	data, ok := datasets[rc.Dataset]
	if !ok {
		return nil, model.Invalidf("Unknown dataset %q", rc.Dataset)
	}

	eval, err := likelihood.New(rc.Family, rc.Priors...)
	if err != nil {
		return nil, err
	}

	samples := rc.Samples
	if len(rc.SamplesFile) > 0 {
		if len(samples) > 0 {
			return nil, model.Invalidf("Result %s has both inline samples and a samples file", rc.Name)
		}
		buf, err := os.ReadFile(c.resolve(rc.SamplesFile))
		if err != nil {
			return nil, errors.Wrapf(err, "Could not READ samples for %s", rc.Name)
		}
		if samples, err = model.ReadSampleMatrix(buf); err != nil {
			return nil, errors.Wrapf(err, "Could not PARSE samples for %s", rc.Name)
		}
	}

	deviance := rc.Deviance
	if len(rc.DevianceFile) > 0 {
		buf, err := os.ReadFile(c.resolve(rc.DevianceFile))
		if err != nil {
			return nil, errors.Wrapf(err, "Could not READ deviance for %s", rc.Name)
		}
		if deviance, err = model.ReadVector(buf); err != nil {
			return nil, errors.Wrapf(err, "Could not PARSE deviance for %s", rc.Name)
		}
	}

	name := rc.Name
	if len(name) < 1 {
		name = rc.Family + "/" + rc.Dataset
	}

	return model.NewInferenceResult(name, samples, deviance, data, eval)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) || len(c.baseDir) < 1 {
		return path
	}
	return filepath.Join(c.baseDir, path)
}
