package env

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadProfile reads a YAML profile over conf.
func LoadProfile(path string, conf *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return fmt.Errorf("profile %s: %v", path, err)
	}
	return nil
}

// Resolve creates the config of the command line. The profile overrides the
// defaults and the environment, explicitly set flags override the profile.
func Resolve(fs *flag.FlagSet, conf *Config) (*Config, error) {
	if conf.Profile == "" {
		return conf, conf.Validate()
	}
	resolved := *conf
	if err := LoadProfile(conf.Profile, &resolved); err != nil {
		return nil, err
	}
	var err error
	flags := flag.NewFlagSet(fs.Name(), flag.ContinueOnError)
	SetupFlagSet(flags, &resolved)
	fs.Visit(func(f *flag.Flag) {
		if err == nil && flags.Lookup(f.Name) != nil {
			err = flags.Set(f.Name, f.Value.String())
		}
	})
	if err != nil {
		return nil, err
	}
	return &resolved, resolved.Validate()
}
