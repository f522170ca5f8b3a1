package notify

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notepad/internal/apperr"
	"github.com/starford/notepad/internal/resource"
)

func testNotifier(t *testing.T) *Notifier {
	t.Helper()
	n := NewNotifier(resource.NewRouter(), slog.New(slog.NewJSONHandler(io.Discard, nil)))
	t.Cleanup(n.Close)
	return n
}

func itemChange(kind Kind, id int64) Change {
	s := resource.Item(id)
	return Change{URI: s.URI(), Kind: kind, Scope: s, IDs: []int64{id}}
}

func collectionChange(kind Kind, ids ...int64) Change {
	return Change{URI: resource.NotesPath, Kind: kind, Scope: resource.Collection(), IDs: ids}
}

// collect gathers everything that arrives on c within wait.
func collect(c <-chan Change, wait time.Duration) []Change {
	var out []Change
	timeout := time.After(wait)
	for {
		select {
		case ch, ok := <-c:
			if !ok {
				return out
			}
			out = append(out, ch)
		case <-timeout:
			return out
		}
	}
}

func TestSubscribe_ResolvesURI(t *testing.T) {
	n := testNotifier(t)

	s, err := n.Subscribe("notes/5", false)
	require.NoError(t, err)
	assert.Equal(t, resource.Item(5), s.Scope)
	assert.Equal(t, 1, n.Count())

	_, err = n.Subscribe("notes/x", false)
	assert.ErrorIs(t, err, apperr.ErrInvalidIdentifier)
	_, err = n.Subscribe("tags", false)
	assert.ErrorIs(t, err, apperr.ErrUnknownResource)

	s.Close()
	assert.Equal(t, 0, n.Count())
}

func TestItemObserver_OnlyItsID(t *testing.T) {
	n := testNotifier(t)
	s, err := n.Subscribe("notes/5", false)
	require.NoError(t, err)
	defer s.Close()

	n.Publish(itemChange(Updated, 5))
	n.Publish(itemChange(Updated, 6))
	n.Publish(itemChange(Deleted, 4))
	n.Publish(collectionChange(Updated, 3, 4))
	n.Publish(itemChange(Deleted, 5))

	got := collect(s.C, 200*time.Millisecond)
	require.Len(t, got, 2)
	assert.Equal(t, Updated, got[0].Kind)
	assert.Equal(t, Deleted, got[1].Kind)
	assert.Equal(t, "notes/5", got[0].URI)
}

func TestItemObserver_CollectionMutationTouchingID(t *testing.T) {
	n := testNotifier(t)
	s, err := n.Subscribe("notes/5", false)
	require.NoError(t, err)
	defer s.Close()

	n.Publish(collectionChange(Updated, 4, 5, 6))

	got := collect(s.C, 200*time.Millisecond)
	require.Len(t, got, 1)
	assert.Equal(t, "notes", got[0].URI)
}

func TestItemObserver_ZeroRowMutationOnItem(t *testing.T) {
	n := testNotifier(t)
	s, err := n.Subscribe("notes/5", false)
	require.NoError(t, err)
	defer s.Close()

	empty := itemChange(Deleted, 5)
	empty.IDs = nil
	n.Publish(empty)
	other := itemChange(Updated, 6)
	other.IDs = nil
	n.Publish(other)

	got := collect(s.C, 200*time.Millisecond)
	require.Len(t, got, 1)
	assert.Equal(t, Deleted, got[0].Kind)
	assert.Equal(t, "notes/5", got[0].URI)
}

func TestCollectionObserver_Descendants(t *testing.T) {
	n := testNotifier(t)
	flat, err := n.Subscribe("notes", false)
	require.NoError(t, err)
	defer flat.Close()
	deep, err := n.Subscribe("notes", true)
	require.NoError(t, err)
	defer deep.Close()

	n.Publish(itemChange(Inserted, 1))
	n.Publish(collectionChange(Deleted))

	assert.Len(t, collect(flat.C, 200*time.Millisecond), 1)
	assert.Len(t, collect(deep.C, 200*time.Millisecond), 2)
}

func TestLiveFolderObserver_SeesEverything(t *testing.T) {
	n := testNotifier(t)
	s, err := n.Subscribe("live_folder/notes", false)
	require.NoError(t, err)
	defer s.Close()

	n.Publish(itemChange(Inserted, 1))
	n.Publish(collectionChange(Updated, 1))

	assert.Len(t, collect(s.C, 200*time.Millisecond), 2)
}

func TestPublish_SlowObserverDoesNotBlockOrDrop(t *testing.T) {
	n := testNotifier(t)
	s, err := n.Subscribe("notes/1", false)
	require.NoError(t, err)
	defer s.Close()

	const total = 1000
	done := make(chan struct{})
	go func() {
		for i := 0; i < total; i++ {
			n.Publish(itemChange(Updated, 1))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "publisher blocked on an observer that is not reading")
	}

	got := 0
	for got < total {
		select {
		case <-s.C:
			got++
		case <-time.After(5 * time.Second):
			require.FailNow(t, "missing changes", "received %d of %d", got, total)
		}
	}
}

func TestSubscriptionClose_ClosesChannel(t *testing.T) {
	n := testNotifier(t)
	s, err := n.Subscribe("notes", true)
	require.NoError(t, err)

	s.Close()
	select {
	case _, ok := <-s.C:
		assert.False(t, ok)
	case <-time.After(time.Second):
		require.FailNow(t, "timeout waiting for channel close")
	}
}

func TestNotifierClose(t *testing.T) {
	n := NewNotifier(resource.NewRouter(), slog.New(slog.NewJSONHandler(io.Discard, nil)))
	s, err := n.Subscribe("notes", true)
	require.NoError(t, err)

	n.Close()

	select {
	case _, ok := <-s.C:
		assert.False(t, ok)
	case <-time.After(time.Second):
		require.FailNow(t, "timeout waiting for channel close")
	}
	assert.Equal(t, 0, n.Count())

	// Safe no-ops after close.
	n.Publish(itemChange(Updated, 1))
	s.Close()
	late := n.SubscribeScope(resource.Collection(), false)
	_, ok := <-late.C
	assert.False(t, ok)
	n.Close()
}
