package datasource

import (
	"errors"
	"fmt"

	"github.com/vanderheijden86/trustmap/pkg/model"
)

// Validation errors. Validate wraps them with the offending id.
var (
	ErrEmptyID      = errors.New("node has empty id")
	ErrDuplicateID  = errors.New("duplicate node id")
	ErrUnknownKind  = errors.New("unknown node kind")
	ErrKindMismatch = errors.New("node kind does not match its section")
	ErrBadProgress  = errors.New("project progress outside 0-100")
	ErrDupMember    = errors.New("member listed twice")
)

// Validate checks that ids are non-empty and unique across all kinds and that
// each node sits in the section matching its kind. An owner may list a member
// only once. Dangling membership
// references are not errors: edge derivation skips them. All problems are
// reported together.
func Validate(snap model.Snapshot) error {
	var errs []error
	seen := make(map[string]model.Kind, snap.Len())

	check := func(section model.Kind, nodes []model.Node) {
		for i, n := range nodes {
			if n.ID == "" {
				errs = append(errs, fmt.Errorf("%s[%d]: %w", section, i, ErrEmptyID))
				continue
			}
			if prev, dup := seen[n.ID]; dup {
				errs = append(errs, fmt.Errorf("%w: %q (%s and %s)", ErrDuplicateID, n.ID, prev, section))
			}
			seen[n.ID] = section

			switch {
			case n.Kind == "":
			case !n.Kind.IsValid():
				errs = append(errs, fmt.Errorf("%w: %q on %q", ErrUnknownKind, n.Kind, n.ID))
			case n.Kind != section:
				errs = append(errs, fmt.Errorf("%w: %q is %s in %s", ErrKindMismatch, n.ID, n.Kind, section))
			}

			listed := make(map[string]bool, len(n.Members))
			for _, m := range n.Members {
				if listed[m] {
					errs = append(errs, fmt.Errorf("%w: %q on %q", ErrDupMember, m, n.ID))
				}
				listed[m] = true
			}

			if section == model.KindProject && (n.Progress < 0 || n.Progress > 100) {
				errs = append(errs, fmt.Errorf("%w: %q has %d", ErrBadProgress, n.ID, n.Progress))
			}
		}
	}

	check(model.KindTrust, snap.Trusts)
	check(model.KindEntity, snap.Entities)
	check(model.KindProject, snap.Projects)

	return errors.Join(errs...)
}

// finish normalizes and validates a freshly decoded snapshot.
func finish(name string, snap model.Snapshot) (model.Snapshot, error) {
	snap.Normalize()
	if err := Validate(snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("invalid snapshot in %s: %w", name, err)
	}
	return snap, nil
}
