package snapshot

import (
	"context"
	"testing"

	"github.com/pbanos/vfdt/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirror(t *testing.T) {
	ctx := context.Background()
	ns := NewMemoryNodeStore()
	m := NewMirror(ns)
	assert.Nil(t, m.Last())

	tr := grownTree(t, 49)
	require.NoError(t, m.Checkpoint(ctx, tr))
	first := m.Last()
	require.NotNil(t, first)
	rootID, err := ns.Root(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.RootID, rootID)

	for i := 50; i <= 300; i++ {
		e := example(i)
		require.NoError(t, tr.Insert(e.Instance, e.Label))
	}
	require.NoError(t, m.Checkpoint(ctx, tr))
	second := m.Last()
	rootID, err = ns.Root(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.RootID, rootID)
	n, err := ns.Get(ctx, first.RootID)
	require.NoError(t, err)
	assert.Nil(t, n)

	var count int
	require.NoError(t, second.Traverse(ctx, false, func(ctx context.Context, n *Node) error {
		count++
		return nil
	}))
	st := tr.Stats()
	assert.Equal(t, st.Leaves+st.Decisions, count)

	opened, err := Open(ctx, ns, testSchema(t))
	require.NoError(t, err)
	for i := 301; i <= 320; i++ {
		e := example(i)
		p, err := opened.Predict(ctx, e.Instance)
		require.NoError(t, err)
		expected, err := tr.Predict(e.Instance)
		require.NoError(t, err)
		assert.Equal(t, expected, p.Label())
	}
}

func storedNodes(ns NodeStore) int {
	mns := ns.(*memoryNodeStore)
	mns.lock.RLock()
	defer mns.lock.RUnlock()
	return len(mns.nodes)
}

func TestMirrorDeletesSplitLeavesBelowTheRoot(t *testing.T) {
	ctx := context.Background()
	ns := NewMemoryNodeStore()
	m := NewMirror(ns)
	tr := grownTree(t, 300)
	require.NoError(t, m.Checkpoint(ctx, tr))
	st := tr.Stats()
	assert.Equal(t, st.Leaves+st.Decisions, storedNodes(ns))

	for i := 301; i <= 20000; i++ {
		e := example(i)
		require.NoError(t, tr.Insert(e.Instance, e.Label))
		if i%5000 == 0 {
			require.NoError(t, m.Checkpoint(ctx, tr))
			st = tr.Stats()
			assert.Equal(t, st.Leaves+st.Decisions, storedNodes(ns), "after %d instances", i)
		}
	}
	assert.True(t, tr.Stats().Decisions > 1, "no split below the root")
}

// checkingNodeStore runs check after every node it stores
type checkingNodeStore struct {
	NodeStore
	check func(ctx context.Context)
}

func (cns *checkingNodeStore) Store(ctx context.Context, n *Node) error {
	err := cns.NodeStore.Store(ctx, n)
	if err == nil {
		cns.check(ctx)
	}
	return err
}

func TestCheckpointKeepsStoreReadable(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryNodeStore()
	ns := &checkingNodeStore{NodeStore: inner, check: func(context.Context) {}}
	m := NewMirror(ns)
	tr := grownTree(t, 300)
	require.NoError(t, m.Checkpoint(ctx, tr))

	var stores int
	ns.check = func(ctx context.Context) {
		stores++
		opened, err := Open(ctx, inner, testSchema(t))
		require.NoError(t, err)
		for x := 0.25; x < 10; x += 0.5 {
			_, err = opened.Predict(ctx, feature.Instance{x})
			require.NoError(t, err, "x=%v after %d stored nodes", x, stores)
		}
	}
	for i := 301; i <= 20000; i++ {
		e := example(i)
		require.NoError(t, tr.Insert(e.Instance, e.Label))
	}
	require.NoError(t, m.Checkpoint(ctx, tr))
	st := tr.Stats()
	assert.Equal(t, st.Leaves+st.Decisions, stores)
}
