package delivery

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailbox_OverwriteKeepsLatest(t *testing.T) {
	var discarded []int
	m := NewMailbox(func(v int) { discarded = append(discarded, v) })

	assert.True(t, m.Publish(1))
	assert.True(t, m.Publish(2))
	assert.True(t, m.Publish(3))

	v, ok := m.Next(context.Background())
	require.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, []int{1, 2}, discarded)

	stats := m.Stats()
	assert.Equal(t, uint64(3), stats.Published)
	assert.Equal(t, uint64(1), stats.Consumed)
	assert.Equal(t, uint64(2), stats.Dropped)
}

func TestMailbox_NextBlocksUntilPublish(t *testing.T) {
	m := NewMailbox[string](nil)

	got := make(chan string, 1)
	go func() {
		v, ok := m.Next(context.Background())
		if ok {
			got <- v
		}
	}()

	select {
	case <-got:
		t.Fatal("Next returned before Publish")
	case <-time.After(20 * time.Millisecond):
	}

	m.Publish("frame")
	select {
	case v := <-got:
		assert.Equal(t, "frame", v)
	case <-time.After(time.Second):
		t.Fatal("consumer not woken by Publish")
	}
}

func TestMailbox_CloseWakesConsumerAndDiscardsPending(t *testing.T) {
	var mu sync.Mutex
	var discarded []int
	m := NewMailbox(func(v int) {
		mu.Lock()
		defer mu.Unlock()
		discarded = append(discarded, v)
	})

	done := make(chan bool, 1)
	go func() {
		_, ok := m.Next(context.Background())
		done <- ok
	}()
	time.Sleep(10 * time.Millisecond)
	m.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("consumer not woken by Close")
	}

	m2 := NewMailbox(func(v int) {
		mu.Lock()
		defer mu.Unlock()
		discarded = append(discarded, v)
	})
	m2.Publish(7)
	m2.Close()
	m2.Close()
	assert.False(t, m2.Publish(8), "publish after close is refused")

	mu.Lock()
	assert.Equal(t, []int{7, 8}, discarded)
	mu.Unlock()
}

func TestMailbox_ContextCancelUnblocks(t *testing.T) {
	m := NewMailbox[int](nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool, 1)
	go func() {
		_, ok := m.Next(ctx)
		done <- ok
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("consumer not woken by cancel")
	}
}

func TestMailbox_ConcurrentPublishersAccountForEveryValue(t *testing.T) {
	var discarded, consumed sync.Map
	m := NewMailbox(func(v int) { discarded.Store(v, true) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		for {
			v, ok := m.Next(ctx)
			if !ok {
				return
			}
			consumed.Store(v, true)
		}
	}()

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				m.Publish(p*1000 + i)
			}
		}(p)
	}
	wg.Wait()
	m.Close()
	<-consumerDone

	total := 0
	for p := 0; p < 4; p++ {
		for i := 0; i < 250; i++ {
			v := p*1000 + i
			_, c := consumed.Load(v)
			_, d := discarded.Load(v)
			assert.True(t, c != d, "value %d must be either consumed or discarded", v)
			total++
		}
	}
	assert.Equal(t, 1000, total)
	assert.Equal(t, uint64(1000), m.Stats().Published)
}
