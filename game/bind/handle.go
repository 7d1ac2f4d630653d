// Package bind is the foreign-object binding layer between scripts and
// native entities. A script never holds a pointer to a native record: it
// holds a Handle (kind + uid) and every operation re-resolves the uid
// through the identity table, failing with ErrGone when the entity has been
// destroyed in the meantime.
package bind

import (
	"errors"
	"fmt"

	"github.com/driftmud/driftmud/game/entity"
)

// ErrGone is the binding fault: the handle's entity no longer exists. It is
// distinct from routine validation errors because it usually means a script
// kept a reference past the entity's destruction.
var ErrGone = errors.New("entity no longer exists")

// Handle is the script-visible reference to a native entity. It is a plain
// comparable value: two handles to the same entity compare equal and hash
// identically no matter where they were obtained, and they stay equal after
// the entity is destroyed.
type Handle struct {
	Kind entity.Kind
	UID  uint64
}

// None is the distinguished no-entity handle.
var None = Handle{}

// IsNone reports whether the handle references no entity. Comparisons
// against None are always well-defined.
func (h Handle) IsNone() bool { return h == None }

func (h Handle) String() string {
	if h.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%s#%d", h.Kind, h.UID)
}

func gone(h Handle) error {
	return fmt.Errorf("%w: %s", ErrGone, h)
}
