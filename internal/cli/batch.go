package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// snapSpec describes one link to snap. Empty fields inherit from the batch
// defaults and then from the command line flags.
type snapSpec struct {
	Name          string   `yaml:"name"`
	Start         string   `yaml:"start"`
	Magnitude     string   `yaml:"magnitude"`
	SnapMode      string   `yaml:"snapMode"`
	AcrossAxis    string   `yaml:"acrossAxis"`
	UnitsToCm     *float64 `yaml:"unitsToCm"`
	AcrossExtraCm *float64 `yaml:"acrossExtraCm"`
	Location      string   `yaml:"location"`
	Yaw           *float64 `yaml:"yaw"`
}

// batchFile is the YAML document accepted by snap --file.
//
//	defaults:
//	  magnitude: Jump128
//	links:
//	  - name: ramp_a
//	    start: "0,-50,0"
//	  - name: gap
//	    snapMode: Across
//	    acrossAxis: Right
type batchFile struct {
	Defaults snapSpec   `yaml:"defaults"`
	Links    []snapSpec `yaml:"links"`
}

func readBatchFile(path string) (batchFile, error) {
	var b batchFile
	data, err := os.ReadFile(path)
	if err != nil {
		return b, fmt.Errorf("reading batch file: %w", err)
	}
	if err := yaml.Unmarshal(data, &b); err != nil {
		return b, fmt.Errorf("parsing batch file %s: %w", path, err)
	}
	if len(b.Links) == 0 {
		return b, fmt.Errorf("batch file %s lists no links", path)
	}
	return b, nil
}

// over returns s with its empty fields taken from base.
func (s snapSpec) over(base snapSpec) snapSpec {
	if s.Name == "" {
		s.Name = base.Name
	}
	if s.Start == "" {
		s.Start = base.Start
	}
	if s.Magnitude == "" {
		s.Magnitude = base.Magnitude
	}
	if s.SnapMode == "" {
		s.SnapMode = base.SnapMode
	}
	if s.AcrossAxis == "" {
		s.AcrossAxis = base.AcrossAxis
	}
	if s.UnitsToCm == nil {
		s.UnitsToCm = base.UnitsToCm
	}
	if s.AcrossExtraCm == nil {
		s.AcrossExtraCm = base.AcrossExtraCm
	}
	if s.Location == "" {
		s.Location = base.Location
	}
	if s.Yaw == nil {
		s.Yaw = base.Yaw
	}
	return s
}
