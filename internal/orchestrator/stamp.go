package orchestrator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5/util"
)

// StampFile marks an install root that "build --install" completed.
const StampFile = ".nanoci-stamp.json"

type stamp struct {
	Project     string    `json:"project"`
	LinkMode    string    `json:"link_mode"`
	InstalledAt time.Time `json:"installed_at"`
}

// ErrNoStamp means the install root has no stamp file.
var ErrNoStamp = errors.New("install stamp not found")

func (o *Orchestrator) stampRel() string {
	return filepath.Join(o.layout.InstallRootRel(), StampFile)
}

func (o *Orchestrator) writeStamp(plan *Plan) error {
	if o.dryRun {
		o.log.Debug("dry run: would write stamp", "file", o.layout.Abs(o.stampRel()))
		return nil
	}
	data, err := json.MarshalIndent(&stamp{
		Project:     o.cfg.Project.Name,
		LinkMode:    plan.Mode.String(),
		InstalledAt: o.now().UTC(),
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := util.WriteFile(o.layout.FS(), o.stampRel(), data, 0o644); err != nil {
		return fmt.Errorf("write stamp: %w", err)
	}
	return nil
}

// checkStamp verifies that the install root was produced by an installing
// build of this project in the same link mode.
func (o *Orchestrator) checkStamp(plan *Plan) error {
	data, err := util.ReadFile(o.layout.FS(), o.stampRel())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = ErrNoStamp
		}
		return &EnvironmentError{Tool: "install root", Err: fmt.Errorf("%s: %w", o.layout.Abs(o.stampRel()), err)}
	}
	var s stamp
	if err := json.Unmarshal(data, &s); err != nil {
		return &EnvironmentError{Tool: "install root", Err: fmt.Errorf("decode stamp: %w", err)}
	}
	if s.Project != o.cfg.Project.Name || s.LinkMode != plan.Mode.String() {
		return &EnvironmentError{
			Tool: "install root",
			Err:  fmt.Errorf("stamp records %s (%s), want %s (%s)", s.Project, s.LinkMode, o.cfg.Project.Name, plan.Mode),
		}
	}
	o.log.Debug("install stamp ok", "project", s.Project, "mode", s.LinkMode, "installed_at", s.InstalledAt)
	return nil
}
