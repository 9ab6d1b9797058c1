package daemon

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/controlcenter/internal/dbus"
)

// fakeProxy is an in-memory settings daemon.
type fakeProxy struct {
	mu       sync.Mutex
	max      int32
	cur      int32
	maxErr   error
	watchErr error
	sets     []int32

	changes  chan dbus.PropertyChange
	released atomic.Bool
}

func newFakeProxy(max, cur int32) *fakeProxy {
	return &fakeProxy{max: max, cur: cur, changes: make(chan dbus.PropertyChange)}
}

func (p *fakeProxy) MaxDisplayBrightness(ctx context.Context) (int32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.max, p.maxErr
}

func (p *fakeProxy) DisplayBrightness(ctx context.Context) (int32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur, nil
}

func (p *fakeProxy) SetDisplayBrightness(ctx context.Context, value int32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sets = append(p.sets, value)
	return nil
}

func (p *fakeProxy) WatchProperties(ctx context.Context) (<-chan dbus.PropertyChange, error) {
	if p.watchErr != nil {
		return nil, p.watchErr
	}
	out := make(chan dbus.PropertyChange)
	go func() {
		defer close(out)
		defer p.released.Store(true)
		for {
			select {
			case <-ctx.Done():
				return
			case c := <-p.changes:
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (p *fakeProxy) setCalls() []int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int32(nil), p.sets...)
}

func next(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "subscription closed unexpectedly")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestSubscribe_InitialSequence(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := Subscribe(ctx, newFakeProxy(100, 40), Options{QueueSize: 4})

	ready, ok := next(t, ch).(SenderReady)
	require.True(t, ok, "first event must be SenderReady")
	assert.NotNil(t, ready.Sender)

	assert.Equal(t, MaxBrightnessChanged{Value: 100}, next(t, ch))
	assert.Equal(t, BrightnessChanged{Value: 40}, next(t, ch))
}

func TestSubscribe_PushedChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proxy := newFakeProxy(100, 40)
	ch := Subscribe(ctx, proxy, Options{})
	next(t, ch)
	next(t, ch)
	next(t, ch)

	proxy.changes <- dbus.PropertyChange{Values: map[string]int32{dbus.PropDisplayBrightness: 55}}
	assert.Equal(t, BrightnessChanged{Value: 55}, next(t, ch))

	// Maximum is delivered before current when both change together
	proxy.changes <- dbus.PropertyChange{Values: map[string]int32{
		dbus.PropDisplayBrightness:    20,
		dbus.PropMaxDisplayBrightness: 200,
	}}
	assert.Equal(t, MaxBrightnessChanged{Value: 200}, next(t, ch))
	assert.Equal(t, BrightnessChanged{Value: 20}, next(t, ch))

	// Invalidated properties are re-read
	proxy.mu.Lock()
	proxy.max = 300
	proxy.mu.Unlock()
	proxy.changes <- dbus.PropertyChange{Invalidated: []string{dbus.PropMaxDisplayBrightness}}
	assert.Equal(t, MaxBrightnessChanged{Value: 300}, next(t, ch))
}

func TestSubscribe_SendsRequests(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proxy := newFakeProxy(100, 40)
	ch := Subscribe(ctx, proxy, Options{QueueSize: 4})
	sender := next(t, ch).(SenderReady).Sender
	next(t, ch)
	next(t, ch)

	require.NoError(t, sender.Send(SetDisplayBrightness{Value: 55}))
	require.NoError(t, sender.Send(SetDisplayBrightness{Value: 60}))

	assert.Eventually(t, func() bool {
		return len(proxy.setCalls()) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []int32{55, 60}, proxy.setCalls())
}

func TestSubscribe_CancelReleasesWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	proxy := newFakeProxy(100, 40)
	ch := Subscribe(ctx, proxy, Options{})
	sender := next(t, ch).(SenderReady).Sender
	next(t, ch)
	next(t, ch)

	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "no events after cancellation")
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not close")
	}

	assert.True(t, proxy.released.Load(), "watch must be released before the stream closes")
	assert.ErrorIs(t, sender.Send(SetDisplayBrightness{Value: 1}), ErrSenderClosed)
}

func TestSubscribe_ReadErrorSkipsEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proxy := newFakeProxy(100, 40)
	proxy.maxErr = errors.New("no backlight")

	ch := Subscribe(ctx, proxy, Options{})
	_, ok := next(t, ch).(SenderReady)
	require.True(t, ok)
	assert.Equal(t, BrightnessChanged{Value: 40}, next(t, ch))
}

func TestSubscribe_WatchErrorStillServesRequests(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proxy := newFakeProxy(100, 40)
	proxy.watchErr = errors.New("match rule rejected")

	ch := Subscribe(ctx, proxy, Options{})
	sender := next(t, ch).(SenderReady).Sender
	assert.Equal(t, MaxBrightnessChanged{Value: 100}, next(t, ch))
	assert.Equal(t, BrightnessChanged{Value: 40}, next(t, ch))

	require.NoError(t, sender.Send(SetDisplayBrightness{Value: 70}))
	assert.Eventually(t, func() bool {
		return len(proxy.setCalls()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not close")
	}
}
