package handler_test

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fcs-go-api/internal/session"
)

func TestStateStreamPushesTransitions(t *testing.T) {
	a := newTestApp(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		_ = a.app.Listener(ln)
	}()
	defer func() {
		_ = a.app.Shutdown()
	}()

	url := fmt.Sprintf("ws://%s/api/v1/state/stream", ln.Addr().String())

	var conn *websocket.Conn
	require.Eventually(t, func() bool {
		c, _, dialErr := websocket.DefaultDialer.Dial(url, nil)
		if dialErr != nil {
			return false
		}
		conn = c
		return true
	}, 2*time.Second, 50*time.Millisecond)
	defer conn.Close()

	var snap session.Snapshot
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&snap))
	require.Equal(t, session.StatusLogin, snap.Status)

	a.store.SetIdentity(&session.Identity{ID: "T-001", Name: "Counselor", Role: session.RoleTeacher})
	a.store.SetStatus(session.StatusStudentSelect)

	// Drain pushed snapshots until the transition arrives; intermediate
	// mutations each produce one message.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		require.NoError(t, conn.ReadJSON(&snap))
		if snap.Status == session.StatusStudentSelect {
			break
		}
	}
	require.NotNil(t, snap.Identity)
	require.Equal(t, "T-001", snap.Identity.ID)
}
