package converter

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the optional per-directory defaults file.
const ConfigFileName = ".tracker2live.yaml"

// Options control a conversion. The yaml tags match the config file
// keys; CLI flags override whatever the file provides.
type Options struct {
	Template      string `yaml:"template"`
	PanAutomation bool   `yaml:"pan_automation"`
	Envelope      bool   `yaml:"envelope"`
	SampleOffset  bool   `yaml:"sample_offset"`
	MergeTracks   bool   `yaml:"merge_tracks"`
	MIDIExport    bool   `yaml:"midi_export"`

	// OutputDir overrides the default <source-dir>/converted layout.
	OutputDir string `yaml:"-"`

	// NoRecursive restricts batch conversion to the top directory.
	NoRecursive bool `yaml:"-"`
}

// LoadConfig reads the defaults file from dir. A missing file is not an
// error and yields zero options.
func LoadConfig(dir string) (Options, error) {
	var opts Options
	data, err := os.ReadFile(filepath.Join(dir, ConfigFileName))
	if os.IsNotExist(err) {
		return opts, nil
	}
	if err != nil {
		return opts, err
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parsing %s: %w", ConfigFileName, err)
	}
	return opts, nil
}
