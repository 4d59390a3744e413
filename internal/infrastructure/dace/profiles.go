package dace

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// rcFile is the on-disk shape of the credential profiles file
// (~/.dacerc.yaml by default): profile name → API key.
type rcFile struct {
	Profiles map[string]string `yaml:"profiles"`
}

func loadProfiles(path string) (map[string]string, error) {
	if path == "" {
		return nil, fmt.Errorf("no credential rc file configured")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credential profiles: %w", err)
	}

	var rc rcFile
	if err := yaml.Unmarshal(raw, &rc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if len(rc.Profiles) == 0 {
		return nil, fmt.Errorf("%s defines no profiles", path)
	}
	return rc.Profiles, nil
}
