package snapshot

import (
	"context"
	"sync"

	"github.com/pbanos/vfdt/tree"
	"github.com/pkg/errors"
)

/*
Mirror keeps a copy of a tree that is still learning in a NodeStore. Every
call to Checkpoint takes a new snapshot of the tree onto the store and then
deletes the nodes of the previous snapshot that are no longer in the tree.
*/
type Mirror struct {
	nodeStore NodeStore
	lock      sync.Mutex
	last      *Snapshot
}

// NewMirror returns a Mirror onto the given NodeStore
func NewMirror(nodeStore NodeStore) *Mirror {
	return &Mirror{nodeStore: nodeStore}
}

/*
Checkpoint takes a context and a tree and updates the store with its current
state. Concurrent calls are serialized.
*/
func (m *Mirror) Checkpoint(ctx context.Context, t *tree.Tree) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	s, err := Take(ctx, t, m.nodeStore)
	if err != nil {
		return err
	}
	if m.last != nil {
		err = s.Prune(ctx, m.last)
		if err != nil {
			return errors.Wrap(err, "pruning previous snapshot")
		}
	}
	m.last = s
	return nil
}

// Last returns the snapshot taken on the last successful
// checkpoint, or nil if there has been none.
func (m *Mirror) Last() *Snapshot {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.last
}
