package scene

// WithUnlocked runs fn with the slot's lock cleared and restores the
// recorded lock state afterwards, whether fn succeeds, fails, or panics.
// Nested use is safe: each guard restores what it observed.
func WithUnlocked(s *Slot, fn func() error) error {
	was := s.locked
	s.locked = false
	defer func() { s.locked = was }()
	return fn()
}

// WithUnlockedNode runs fn with the node's lock cleared and restores the
// recorded lock state afterwards, on every path.
func WithUnlockedNode(n *Node, fn func() error) error {
	was := n.locked
	n.locked = false
	defer func() { n.locked = was }()
	return fn()
}
