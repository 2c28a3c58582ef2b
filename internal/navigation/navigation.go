package navigation

import "sync"

// Destination names a screen the client can show.
type Destination string

const (
	Login        Destination = "login"
	CustomerHome Destination = "customer_home"
	OfficerHome  Destination = "officer_home"
)

// Host moves the client between destinations.
type Host interface {
	NavigateTo(dest Destination, opts ...Option)
}

type navOptions struct {
	popUpTo  Destination
	clearAll bool
}

// Option adjusts history handling for a single navigation.
type Option func(*navOptions)

// PopUpTo removes history entries back to and including dest before
// navigating. It is a no-op when dest is not in the history.
func PopUpTo(dest Destination) Option {
	return func(o *navOptions) { o.popUpTo = dest }
}

// ClearHistory drops the whole back stack before navigating.
func ClearHistory() Option {
	return func(o *navOptions) { o.clearAll = true }
}

// Stack is a Host that records a back stack per client.
type Stack struct {
	mu      sync.Mutex
	entries []Destination
}

// NewStack returns a stack whose only entry is start.
func NewStack(start Destination) *Stack {
	return &Stack{entries: []Destination{start}}
}

// NavigateTo pushes dest after applying opts.
func (s *Stack) NavigateTo(dest Destination, opts ...Option) {
	var o navOptions
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case o.clearAll:
		s.entries = s.entries[:0]
	case o.popUpTo != "":
		for i := len(s.entries) - 1; i >= 0; i-- {
			if s.entries[i] == o.popUpTo {
				s.entries = s.entries[:i]
				break
			}
		}
	}
	s.entries = append(s.entries, dest)
}

// Current returns the top of the stack, or "" when empty.
func (s *Stack) Current() Destination {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return ""
	}
	return s.entries[len(s.entries)-1]
}

// Back pops the current entry. It reports false when there is nothing to
// return to.
func (s *Stack) Back() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) < 2 {
		return false
	}
	s.entries = s.entries[:len(s.entries)-1]
	return true
}

// History returns a copy of the stack, bottom first.
func (s *Stack) History() []Destination {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Destination, len(s.entries))
	copy(out, s.entries)
	return out
}
