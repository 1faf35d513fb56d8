package words

import "errors"

// Grouping edit errors.
var (
	// ErrGroupNotFound is returned when an edit names a group that does not
	// exist in the grouping.
	ErrGroupNotFound = errors.New("group not found")

	// ErrNameNotFound is returned when an edit names an entry that is not
	// present in the source group.
	ErrNameNotFound = errors.New("name not found in group")

	// ErrUnknownStrategy is returned for a grouping strategy this package
	// does not implement.
	ErrUnknownStrategy = errors.New("unknown grouping strategy")
)
