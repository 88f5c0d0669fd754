package sched

import "fmt"

// Mode selects which end of the queue Register inserts at.
type Mode int

const (
	Append Mode = iota + 1
	Prepend
)

func (m Mode) String() string {
	switch m {
	case Append:
		return "append"
	case Prepend:
		return "prepend"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) valid() bool {
	return m == Append || m == Prepend
}

// ParseMode maps "append" and "prepend" to their Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "append":
		return Append, nil
	case "prepend":
		return Prepend, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}
