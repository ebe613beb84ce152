package kvstore

// Store is the get/put contract the observable state depends on.
// Consumers should depend on this interface rather than the concrete *DB
// so tests can substitute an in-memory map.
type Store interface {
	// Get returns the value stored under namespace; ok is false when absent.
	Get(namespace string) (value []byte, ok bool, err error)
	// Put overwrites the value stored under namespace.
	Put(namespace string, value []byte) error
}

// Verify *DB and *Memory satisfy Store at compile time.
var (
	_ Store = (*DB)(nil)
	_ Store = (*Memory)(nil)
)
