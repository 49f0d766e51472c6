package admin_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/lanchat/internal/admin"
	"github.com/Tyrowin/lanchat/internal/history"
	"github.com/Tyrowin/lanchat/internal/server"
	"github.com/Tyrowin/lanchat/internal/testutil"
)

func TestClient_HistoryAndClear(t *testing.T) {
	relay := testutil.StartRelay(t, nil)
	records := []history.Record{
		{Text: "Alice: hi", Origin: "1.2.3.4", Time: "10:00:00"},
		{Text: "Bob: hey", Origin: "5.6.7.8", Time: "10:00:01"},
	}
	for _, record := range records {
		relay.Store.Append(record)
	}
	client := admin.NewClient(relay.Server.URL+"/", nil)
	ctx := context.Background()

	got, err := client.History(ctx)
	require.NoError(t, err)
	require.Equal(t, records, got)

	confirmation, err := client.Clear(ctx)
	require.NoError(t, err)
	require.Equal(t, server.ClearConfirmation, confirmation)

	got, err = client.History(ctx)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestClient_Health(t *testing.T) {
	relay := testutil.StartRelay(t, nil)
	relay.Join(t)

	health, err := admin.NewClient(relay.Server.URL, nil).Health(context.Background())

	require.NoError(t, err)
	require.Equal(t, server.HealthResponse{Status: "ok", Connections: 1, Messages: 0}, health)
}

func TestClient_UnexpectedStatus(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "clear failed", http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	_, err := admin.NewClient(failing.URL, failing.Client()).Clear(context.Background())

	require.ErrorIs(t, err, admin.ErrUnexpectedStatus)
	require.Contains(t, err.Error(), "clear failed")
}

func TestClient_Unreachable(t *testing.T) {
	unreachable := httptest.NewServer(http.NotFoundHandler())
	url := unreachable.URL
	unreachable.Close()

	_, err := admin.NewClient(url, nil).History(context.Background())

	require.Error(t, err)
	require.NotErrorIs(t, err, admin.ErrUnexpectedStatus)
}

func TestRenderHistory(t *testing.T) {
	var out bytes.Buffer

	admin.RenderHistory(&out, []history.Record{
		{Text: "Alice: hi", Origin: "1.2.3.4", Time: "10:00:00"},
		{Text: "Bob: hey", Origin: "5.6.7.8", Time: "10:00:01"},
	})

	rendered := out.String()
	require.Contains(t, rendered, "ORIGIN")
	require.Contains(t, rendered, "Alice: hi")
	require.Contains(t, rendered, "5.6.7.8")
	require.Contains(t, rendered, "10:00:01")
}
