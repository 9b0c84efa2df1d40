package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStartJanitorSweepsIdleSessions(t *testing.T) {
	svc := NewService(Options{IdleTTL: time.Millisecond})
	_, err := svc.CreateSession(context.Background(), "k2")
	require.NoError(t, err)

	scheduler, err := StartJanitor(svc, 20*time.Millisecond, nil, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, scheduler.Shutdown()) }()

	require.Eventually(t, func() bool { return svc.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStartJanitorRejectsNonPositiveInterval(t *testing.T) {
	_, err := StartJanitor(NewService(Options{}), 0, nil, nil)
	require.Error(t, err)
}
