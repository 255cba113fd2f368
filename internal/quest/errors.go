package quest

import "errors"

var (
	// ErrConstraintUnsatisfiable is returned by an Environment that cannot allocate an
	// entity meeting the requested constraint. The selector moves on to the next
	// candidate when it sees it.
	ErrConstraintUnsatisfiable = errors.New("constraint unsatisfiable")

	// Quest template errors. These indicate a malformed quest definition and abort the
	// generation run.
	ErrDuplicateBinding   = errors.New("duplicate actor binding")
	ErrUnboundActor       = errors.New("unbound actor reference")
	ErrUnknownRole        = errors.New("unknown actor role")
	ErrActorKindMismatch  = errors.New("actor kind mismatch")
	ErrMissingActor       = errors.New("missing actor reference")
	ErrInvalidCommand     = errors.New("invalid command")
	ErrEmptyLine          = errors.New("empty line")
	ErrAlreadyInitialized = errors.New("quest already initialized")
	ErrNotInitialized     = errors.New("quest not initialized")
	ErrLineAlreadyBuilt   = errors.New("quest line already built")
	ErrUnknownKind        = errors.New("unknown quest kind")

	// ErrCorruptQuest is returned when persisted quest data cannot be turned back into
	// a complete quest.
	ErrCorruptQuest = errors.New("corrupt quest data")

	// ErrNoQuestAvailable is returned by the selector when no registered kind could be
	// generated for the environment.
	ErrNoQuestAvailable = errors.New("no quest available")
)

// IsFatal reports whether err comes from a malformed quest template rather than from
// the state of the world.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrConstraintUnsatisfiable) && !errors.Is(err, ErrNoQuestAvailable)
}
