package snapshot

import (
	"context"
	"sync"
)

/*
NodeStore is an interface to manage a store
where snapshot nodes can be stored, retrieved
and deleted, along with the ID of the root node.

All it methods take a context that may allow
cancelling the operation (thus forcing the return
of an error) if the implementation allows it.
*/
type NodeStore interface {
	// Get takes an id and returns the node in the
	// store with that id (or nil if it cannot be
	// found) or an error if the store cannot be
	// queried
	Get(ctx context.Context, id string) (*Node, error)
	// Store takes a node and stores it in the store,
	// replacing any node with the same ID. It returns
	// an error if the node cannot be stored.
	Store(ctx context.Context, n *Node) error
	// Delete takes a node ID and deletes the node with
	// it from the store. It returns an error if the node
	// exists but the deletion cannot be performed.
	Delete(ctx context.Context, id string) error
	// Root returns the ID of the root node of the
	// snapshot in the store, or "" if there is none.
	Root(ctx context.Context) (string, error)
	// SetRoot takes the ID of a node and sets it as the
	// root of the snapshot in the store.
	SetRoot(ctx context.Context, id string) error
	// Close closes the store, implementations should
	// freeing any resources in use as well as ensure
	// any pending changes are applied before returning
	// (unless the context expires). It returns an error
	// if the Close cannot be completed (because of the
	// context or another error)
	Close(ctx context.Context) error
}

type memoryNodeStore struct {
	nodes  map[string]*Node
	rootID string
	lock   *sync.RWMutex
}

// NewMemoryNodeStore returns an implementation
// of NodeStore with the process memory space
// as underlying backend
func NewMemoryNodeStore() NodeStore {
	return &memoryNodeStore{
		nodes: make(map[string]*Node),
		lock:  &sync.RWMutex{},
	}
}

func (mns *memoryNodeStore) Store(ctx context.Context, n *Node) error {
	return mns.withLock(ctx, func(ctx context.Context) error {
		mns.nodes[n.ID] = n
		return nil
	})
}

func (mns *memoryNodeStore) Get(ctx context.Context, id string) (*Node, error) {
	var n *Node
	err := mns.withRLock(ctx, func(ctx context.Context) error {
		n = mns.nodes[id]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (mns *memoryNodeStore) Delete(ctx context.Context, id string) error {
	return mns.withLock(ctx, func(ctx context.Context) error {
		delete(mns.nodes, id)
		return nil
	})
}

func (mns *memoryNodeStore) Root(ctx context.Context) (string, error) {
	var id string
	err := mns.withRLock(ctx, func(ctx context.Context) error {
		id = mns.rootID
		return nil
	})
	return id, err
}

func (mns *memoryNodeStore) SetRoot(ctx context.Context, id string) error {
	return mns.withLock(ctx, func(ctx context.Context) error {
		mns.rootID = id
		return nil
	})
}

func (mns *memoryNodeStore) Close(ctx context.Context) error {
	return nil
}

func (mns *memoryNodeStore) withLock(ctx context.Context, f func(ctx context.Context) error) error {
	gotLock := make(chan struct{})
	go func() {
		mns.lock.Lock()
		select {
		case <-ctx.Done():
			mns.lock.Unlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer mns.lock.Unlock()
	}
	return f(ctx)
}

func (mns *memoryNodeStore) withRLock(ctx context.Context, f func(ctx context.Context) error) error {
	gotLock := make(chan struct{})
	go func() {
		mns.lock.RLock()
		select {
		case <-ctx.Done():
			mns.lock.RUnlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer mns.lock.RUnlock()
	}
	return f(ctx)
}
