package cmd

import (
	"os"
	"path/filepath"

	"mmcc/report"

	"github.com/pelletier/go-toml"
)

// ProjectFileName is the optional per-project configuration file looked up
// next to the input file.
const ProjectFileName = "mmcc.toml"

// tomlProject represents the project configuration as it is encoded in TOML.
type tomlProject struct {
	// Default optimization level; overridden by -O on the command line.
	OptLevel *int `toml:"opt-level"`

	// Default output path; overridden by -o on the command line.
	Output string `toml:"output"`

	// Target name; informational, only the aarch32 target exists.
	Target string `toml:"target"`
}

// loadProject loads and validates the project file beside the input, if one
// exists.  A missing file yields an empty configuration.
func loadProject(inputPath string) *tomlProject {
	path := filepath.Join(filepath.Dir(inputPath), ProjectFileName)

	buff, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &tomlProject{}
		}

		report.ReportFatal("unable to read project file at `%s`: %s", path, err.Error())
		return nil
	}

	proj := &tomlProject{}
	if err := toml.Unmarshal(buff, proj); err != nil {
		report.ReportFatal("error parsing project file at `%s`: %s", path, err.Error())
		return nil
	}

	if proj.OptLevel != nil && (*proj.OptLevel < 0 || *proj.OptLevel > 3) {
		report.ReportFatal("project file sets invalid opt-level %d", *proj.OptLevel)
	}

	if proj.Target != "" && proj.Target != "aarch32" {
		report.ReportFatal("unsupported target `%s`", proj.Target)
	}

	return proj
}
