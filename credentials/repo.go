package credentials

// Repo is the durable key-value medium behind a Store.
// Put and Delete apply all of their keys in one step, so readers of the same
// repo never observe half of a rotated pair.
type Repo interface {
	Get(key string) (string, bool, error)
	Put(values map[string]string) error
	Delete(keys ...string) error
}
