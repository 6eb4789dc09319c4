// Package repository defines the snapshot store interface and errors.
package repository

// Option applies a configuration option to the LogStore.
type Option func(*LogStore)

// WithTreapSeed sets the priority seed for the ranking treap. Fixed by
// default so tree shape is reproducible in tests.
func WithTreapSeed(seed int64) Option {
	return func(s *LogStore) {
		s.treapSeed = seed
	}
}
