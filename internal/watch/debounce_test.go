package watch

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitesmith/internal/bus"
)

func startDebouncer(t *testing.T, b *bus.Bus, cfg DebouncerConfig) {
	t.Helper()
	d, err := NewDebouncer(b, cfg)
	require.NoError(t, err)
	go func() { _ = d.Run(t.Context()) }()
	select {
	case <-d.Ready():
	case <-time.After(time.Second):
		t.Fatal("debouncer not ready")
	}
}

func TestDebouncerCoalescesBurst(t *testing.T) {
	b := bus.New()
	defer b.Close()

	rebuilds, unsubscribe := bus.Subscribe[Rebuild](b, 4)
	defer unsubscribe()

	startDebouncer(t, b, DebouncerConfig{QuietWindow: 25 * time.Millisecond, MaxDelay: time.Second})

	for _, g := range []string{"styles", "site", "styles", "blog"} {
		require.NoError(t, b.Publish(t.Context(), Changed{Group: g}))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case got := <-rebuilds:
		require.Equal(t, []string{"blog", "site", "styles"}, got.Groups)
		require.Equal(t, 4, got.RequestCount)
		require.Equal(t, "quiet", got.Cause)
	case <-time.After(time.Second):
		t.Fatal("no rebuild")
	}

	select {
	case <-rebuilds:
		t.Fatal("burst produced more than one rebuild")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestDebouncerMaxDelayBoundsPostponement(t *testing.T) {
	b := bus.New()
	defer b.Close()

	rebuilds, unsubscribe := bus.Subscribe[Rebuild](b, 4)
	defer unsubscribe()

	startDebouncer(t, b, DebouncerConfig{QuietWindow: 50 * time.Millisecond, MaxDelay: 120 * time.Millisecond})

	stop := time.After(400 * time.Millisecond)
	var got Rebuild
loop:
	for {
		select {
		case got = <-rebuilds:
			break loop
		case <-stop:
			t.Fatal("max delay did not force a rebuild")
		default:
			require.NoError(t, b.Publish(t.Context(), Changed{Group: "site"}))
			time.Sleep(10 * time.Millisecond)
		}
	}
	require.Equal(t, "max_delay", got.Cause)
}

func TestDebouncerQueuesOneFollowUpWhileBusy(t *testing.T) {
	b := bus.New()
	defer b.Close()

	rebuilds, unsubscribe := bus.Subscribe[Rebuild](b, 4)
	defer unsubscribe()

	var busy atomic.Bool
	busy.Store(true)
	startDebouncer(t, b, DebouncerConfig{
		QuietWindow:  10 * time.Millisecond,
		MaxDelay:     50 * time.Millisecond,
		Busy:         busy.Load,
		PollInterval: 5 * time.Millisecond,
	})

	for range 3 {
		require.NoError(t, b.Publish(t.Context(), Changed{Group: "scripts"}))
	}

	select {
	case <-rebuilds:
		t.Fatal("rebuild emitted while busy")
	case <-time.After(100 * time.Millisecond):
	}

	busy.Store(false)

	select {
	case got := <-rebuilds:
		require.Equal(t, []string{"scripts"}, got.Groups)
		require.Equal(t, "after_running", got.Cause)
	case <-time.After(time.Second):
		t.Fatal("no follow-up rebuild")
	}

	select {
	case <-rebuilds:
		t.Fatal("more than one follow-up")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestNewDebouncerValidates(t *testing.T) {
	b := bus.New()
	defer b.Close()

	_, err := NewDebouncer(nil, DebouncerConfig{QuietWindow: time.Millisecond, MaxDelay: time.Second})
	require.Error(t, err)
	_, err = NewDebouncer(b, DebouncerConfig{MaxDelay: time.Second})
	require.Error(t, err)
	_, err = NewDebouncer(b, DebouncerConfig{QuietWindow: time.Second, MaxDelay: time.Millisecond})
	require.Error(t, err)
}
