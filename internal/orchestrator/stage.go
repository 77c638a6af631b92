package orchestrator

import "fmt"

// Stage selects the top-level operation of one invocation.
type Stage int

const (
	InstallDependencies Stage = iota
	Build
	TestPackage
)

var stageNames = map[Stage]string{
	InstallDependencies: "install_dependencies",
	Build:               "build",
	TestPackage:         "test_package",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// StageNames lists the accepted stage arguments in execution order.
func StageNames() []string {
	return []string{
		InstallDependencies.String(),
		Build.String(),
		TestPackage.String(),
	}
}

// ParseStage maps a command-line stage name to a Stage.
func ParseStage(name string) (Stage, error) {
	for s, n := range stageNames {
		if n == name {
			return s, nil
		}
	}
	return 0, Usagef("invalid stage %q (choose from %v)", name, StageNames())
}
