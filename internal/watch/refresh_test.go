package watch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitesmith/internal/bus"
)

func TestRefresherRequestsGroupRebuild(t *testing.T) {
	b := bus.New()
	defer b.Close()

	changes, unsubscribe := bus.Subscribe[Changed](b, 4)
	defer unsubscribe()

	r, err := NewRefresher(b, "site", 20*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, r.Start(t.Context()))
	defer func() { require.NoError(t, r.Stop()) }()

	select {
	case got := <-changes:
		require.Equal(t, "site", got.Group)
		require.Equal(t, "schedule", got.Cause)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh never fired")
	}
}

func TestNewRefresherRejectsZeroInterval(t *testing.T) {
	_, err := NewRefresher(bus.New(), "site", 0, nil)
	require.Error(t, err)
}
