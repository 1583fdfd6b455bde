package transcript

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailchat/internal/model"
)

func TestAppendKeepsOrder(t *testing.T) {
	s := New(model.NewText(model.RoleAssistant, "hello"))
	s.Append(model.NewText(model.RoleUser, "one"))
	s.Append(model.NewText(model.RoleUser, "two"))

	snap := s.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "hello", snap[0].Content())
	assert.Equal(t, "one", snap[1].Content())
	assert.Equal(t, "two", snap[2].Content())
}

func TestRemoveWhereDropsOnlyMatches(t *testing.T) {
	s := New()
	s.Append(model.NewText(model.RoleUser, "a"))
	s.Append(model.NewStatus("working", "1"))
	s.Append(model.NewText(model.RoleAssistant, "b"))
	s.Append(model.NewStatus("still working", "2"))

	removed := s.RemoveWhere(IsStatus)
	assert.Equal(t, 2, removed)

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "a", snap[0].Content())
	assert.Equal(t, "b", snap[1].Content())
}

func TestRemoveWhereWithoutMatchesDoesNotBumpVersion(t *testing.T) {
	s := New(model.NewText(model.RoleUser, "a"))
	before := s.Version()

	assert.Zero(t, s.RemoveWhere(IsStatus))
	assert.Equal(t, before, s.Version())
}

func TestReplaceIsSingleMutation(t *testing.T) {
	s := New()
	s.Append(model.NewStatus("working", "1"))
	s.Append(model.NewStatus("working", "2"))
	before := s.Version()

	removed := s.Replace(IsStatusOf("1"), model.NewText(model.RoleAssistant, "done"))
	assert.Equal(t, 1, removed)
	assert.Equal(t, before+1, s.Version())

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "2", snap[0].Invocation())
	assert.Equal(t, "done", snap[1].Content())
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New(model.NewText(model.RoleUser, "a"))
	snap := s.Snapshot()
	snap[0] = model.NewText(model.RoleUser, "mutated")

	assert.Equal(t, "a", s.Snapshot()[0].Content())
}

func TestSubscribeCoalescesTicks(t *testing.T) {
	s := New()
	ch := s.Subscribe()

	s.Append(model.NewText(model.RoleUser, "a"))
	s.Append(model.NewText(model.RoleUser, "b"))

	select {
	case <-ch:
	default:
		t.Fatal("expected a pending tick")
	}

	select {
	case <-ch:
		t.Fatal("ticks should coalesce")
	default:
	}
}

func TestConcurrentAppends(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Append(model.NewStatus("working", "x"))
			s.RemoveWhere(IsStatusOf("none"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
	assert.Equal(t, 50, CountStatus(s.Snapshot()))
}
