package syncer

import (
	"fmt"
)

// ExtractTarget recovers foreign sections from one configured target into
// the extraction log without touching the target file. It is the standalone
// form of the routing a sync pass applies to read-only targets.
func (s *Syncer) ExtractTarget(targetName string, dryRun bool) (int, error) {
	doc, err := s.loadDocument()
	if err != nil {
		return 0, err
	}

	for _, target := range s.cfg.Targets {
		if target.Name != targetName {
			continue
		}
		a, err := s.registry.Lookup(target.Name)
		if err != nil {
			return 0, err
		}
		existing, err := s.parseExisting(a, target.Path)
		if err != nil {
			return 0, err
		}
		return s.extractForeign(doc.Sections, existing, target.Path, dryRun)
	}

	return 0, fmt.Errorf("no configured target named %q", targetName)
}
