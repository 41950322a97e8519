package modeldef

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the --config file.
type Config struct {
	SkipTables  []string `yaml:"skip_tables"`
	SkipDrop    bool     `yaml:"skip_drop"`
	Reset       bool     `yaml:"reset"`
	BeforeApply string   `yaml:"before_apply"`
}

func ParseConfig(configFile string) (Config, error) {
	var config Config
	if configFile == "" {
		return config, nil
	}

	buf, err := os.ReadFile(configFile)
	if err != nil {
		return config, fmt.Errorf("failed to read config '%s': %w", configFile, err)
	}
	if err := yaml.UnmarshalStrict(buf, &config); err != nil {
		return config, fmt.Errorf("failed to parse config '%s': %w", configFile, err)
	}
	return config, nil
}

// Apply merges c into options. Flags given on the command line win.
func (c Config) Apply(options *Options) {
	options.SkipTables = append(options.SkipTables, c.SkipTables...)
	options.SkipDrop = options.SkipDrop || c.SkipDrop
	options.Reset = options.Reset || c.Reset
	if options.BeforeApply == "" {
		options.BeforeApply = c.BeforeApply
	}
}
