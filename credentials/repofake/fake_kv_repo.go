package credentialsrepofake

import (
	"maps"
	"sync"

	"github.com/jrsteele09/go-quiz-session/credentials"
)

var _ credentials.Repo = (*FakeKVRepo)(nil)

// FakeKVRepo is an in-memory key-value repo, the process-local equivalent of
// browser local storage. Tabs of one process share a single instance.
type FakeKVRepo struct {
	values map[string]string
	err    error
	lock   sync.RWMutex
}

func NewFakeKVRepo() *FakeKVRepo {
	return &FakeKVRepo{
		values: make(map[string]string),
	}
}

func (r *FakeKVRepo) Get(key string) (string, bool, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.err != nil {
		return "", false, r.err
	}
	v, ok := r.values[key]
	return v, ok, nil
}

func (r *FakeKVRepo) Put(values map[string]string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.err != nil {
		return r.err
	}
	maps.Copy(r.values, values)
	return nil
}

func (r *FakeKVRepo) Delete(keys ...string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, k := range keys {
		delete(r.values, k)
	}
	return nil
}

// FailWith makes every subsequent operation return err; nil restores normal behaviour
func (r *FakeKVRepo) FailWith(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.err = err
}

// Snapshot returns a copy of the stored values
func (r *FakeKVRepo) Snapshot() map[string]string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return maps.Clone(r.values)
}
