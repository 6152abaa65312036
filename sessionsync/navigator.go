package sessionsync

import "sync"

var _ Navigator = (*MemoryNavigator)(nil)

// MemoryNavigator holds a tab's location in memory and records every
// navigation made through it.
type MemoryNavigator struct {
	mu       sync.Mutex
	location string
	history  []string
	onChange func(from, to string)
}

func NewMemoryNavigator(location string) *MemoryNavigator {
	return &MemoryNavigator{location: location}
}

// OnNavigate registers a callback run after each navigation
func (n *MemoryNavigator) OnNavigate(fn func(from, to string)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onChange = fn
}

func (n *MemoryNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

func (n *MemoryNavigator) Navigate(path string) {
	n.mu.Lock()
	from := n.location
	n.location = path
	n.history = append(n.history, path)
	onChange := n.onChange
	n.mu.Unlock()

	if onChange != nil {
		onChange(from, path)
	}
}

// History lists every path navigated to, oldest first
func (n *MemoryNavigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.history...)
}
