package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

type fakeLoader struct {
	mu    sync.Mutex
	calls int
	err   error
	block chan struct{}
}

func (f *fakeLoader) Snapshot(_ context.Context, ownerID string) (core.Snapshot, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	block := f.block
	f.mu.Unlock()
	if block != nil && n == 1 {
		<-block
	}
	if f.err != nil {
		return core.Snapshot{}, f.err
	}
	return core.Snapshot{OwnerID: ownerID, Transactions: make([]core.Transaction, n)}, nil
}

func (f *fakeLoader) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestNotifyWithoutSubscribersSkipsLoad(t *testing.T) {
	loader := &fakeLoader{}
	h := NewHub(loader)
	h.Notify(context.Background(), "o1")
	assert.Equal(t, 0, loader.Calls())
}

func TestNotifyDeliversToOwnerOnly(t *testing.T) {
	h := NewHub(&fakeLoader{})
	mine, cancelMine := h.Subscribe("o1")
	defer cancelMine()
	other, cancelOther := h.Subscribe("o2")
	defer cancelOther()

	h.Notify(context.Background(), "o1")

	select {
	case snap := <-mine:
		assert.Equal(t, "o1", snap.OwnerID)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
	select {
	case <-other:
		t.Fatal("other owner must not receive a snapshot")
	default:
	}
}

func TestSlowSubscriberSeesLatestOnly(t *testing.T) {
	h := NewHub(&fakeLoader{})
	ch, cancel := h.Subscribe("o1")
	defer cancel()

	for i := 0; i < 3; i++ {
		h.Notify(context.Background(), "o1")
	}

	snap := <-ch
	assert.Len(t, snap.Transactions, 3)
	select {
	case <-ch:
		t.Fatal("only one pending snapshot may be buffered")
	default:
	}
}

func TestOutOfOrderLoadIsDropped(t *testing.T) {
	loader := &fakeLoader{block: make(chan struct{})}
	h := NewHub(loader)
	ch, cancel := h.Subscribe("o1")
	defer cancel()

	done := make(chan struct{})
	go func() {
		h.Notify(context.Background(), "o1")
		close(done)
	}()
	require.Eventually(t, func() bool { return loader.Calls() == 1 }, time.Second, time.Millisecond)

	h.Notify(context.Background(), "o1")
	close(loader.block)
	<-done

	snap := <-ch
	assert.Len(t, snap.Transactions, 2, "the later load must win")
	select {
	case <-ch:
		t.Fatal("stale snapshot delivered after newer one")
	default:
	}
}

func TestLoaderErrorDeliversNothing(t *testing.T) {
	h := NewHub(&fakeLoader{err: errors.New("db down")})
	ch, cancel := h.Subscribe("o1")
	defer cancel()

	h.Notify(context.Background(), "o1")
	select {
	case <-ch:
		t.Fatal("nothing should be delivered on load failure")
	default:
	}
}

func TestCancelClosesAndUnregisters(t *testing.T) {
	h := NewHub(&fakeLoader{})
	ch, cancel := h.Subscribe("o1")
	require.Equal(t, 1, h.Subscribers("o1"))

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, h.Subscribers("o1"))
}

func TestPublishZeroSeqAlwaysDelivers(t *testing.T) {
	h := NewHub(&fakeLoader{})
	ch, cancel := h.Subscribe("o1")
	defer cancel()

	h.Publish("o1", core.Snapshot{OwnerID: "o1"}, 0)
	snap := <-ch
	assert.Equal(t, "o1", snap.OwnerID)
}
