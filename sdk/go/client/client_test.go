package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/vectorlab/internal/config"
	"github.com/zeusync/vectorlab/internal/core/events/bus"
	"github.com/zeusync/vectorlab/internal/core/geometry"
	"github.com/zeusync/vectorlab/internal/core/observability/log"
	"github.com/zeusync/vectorlab/internal/core/primitive"
	"github.com/zeusync/vectorlab/internal/core/protocol"
	"github.com/zeusync/vectorlab/internal/core/scene"
	"github.com/zeusync/vectorlab/internal/core/xr"
	"github.com/zeusync/vectorlab/internal/server"
)

func startServer(t *testing.T, token string) string {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.Token = token

	renderer, err := scene.NewRenderer(scene.DefaultOptions())
	require.NoError(t, err)
	srv, err := server.NewServer(cfg, log.Nop(), renderer, bus.New())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func dial(t *testing.T, url, room, token string) *Client {
	t.Helper()
	cfg := DefaultClientConfig()
	cfg.ServerURL, cfg.Room, cfg.Token = url, room, token

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func nextFrame(t *testing.T, c *Client) protocol.ScenePayload {
	t.Helper()
	select {
	case f, ok := <-c.Frames():
		require.True(t, ok, "frames closed")
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
	return protocol.ScenePayload{}
}

func TestClientSharesRoom(t *testing.T) {
	url := startServer(t, "")
	instructor := dial(t, url, "physics", "")
	student := dial(t, url, "physics", "")

	require.EqualValues(t, 1, nextFrame(t, instructor).Snapshot.Version)
	require.EqualValues(t, 1, nextFrame(t, student).Snapshot.Version)

	require.NoError(t, instructor.ApplyVectors(geometry.Vec3(2, 0, 0), geometry.Vec3(0, 0, -1)))
	frame := nextFrame(t, student)
	require.EqualValues(t, 2, frame.Snapshot.Version)
	require.Equal(t, [3]float64{2, 0, -1}, frame.Snapshot.Vectors.Sum)
	require.Equal(t, "2", frame.Form.X1)

	require.NoError(t, student.SetGrid(primitive.AxisZ, false))
	require.NoError(t, student.NudgeOffset(primitive.AxisY, 1))
	require.NoError(t, student.SetScale(0.03))

	var last protocol.ScenePayload
	for last.Snapshot.Version < 5 {
		last = nextFrame(t, instructor)
	}
	require.Equal(t, scene.GridToggles{X: true, Y: true}, last.Snapshot.Grid)
	require.Equal(t, [3]float64{0, 1, 0}, last.Snapshot.Group.Offset)
	require.Equal(t, 0.03, last.Snapshot.Group.Scale)

	latest, ok := instructor.Latest()
	require.True(t, ok)
	require.EqualValues(t, 5, latest.Snapshot.Version)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	version, err := instructor.Ping(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 5, version)
}

func TestClientErrorsAndSessions(t *testing.T) {
	url := startServer(t, "secret")
	c := dial(t, url, "", "secret")
	nextFrame(t, c)

	select {
	case s := <-c.Sessions():
		require.Equal(t, xr.Desktop, s.Mode)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial session")
	}

	require.NoError(t, c.EnterSession(xr.AR))
	select {
	case e := <-c.Errors():
		require.Equal(t, protocol.CodeUnsupported, e.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("no error received")
	}

	require.NoError(t, c.ReportCapabilities(xr.Capabilities{AR: true}))
	require.NoError(t, c.EnterSession(xr.AR))
	var s protocol.SessionPayload
	for s.Mode != xr.AR {
		select {
		case s = <-c.Sessions():
		case <-time.After(2 * time.Second):
			t.Fatal("session not entered")
		}
	}
	require.True(t, s.Actions.EnterAR)
}

func TestClientClose(t *testing.T) {
	url := startServer(t, "")
	c := dial(t, url, "", "")
	nextFrame(t, c)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	<-c.Done()
	require.ErrorIs(t, c.SetScale(0.02), ErrClientClosed)
}

func TestDialErrors(t *testing.T) {
	_, err := Dial(context.Background(), Config{ServerURL: "ftp://host"})
	require.ErrorIs(t, err, ErrInvalidConfig)

	url := startServer(t, "secret")
	cfg := DefaultClientConfig()
	cfg.ServerURL = url
	_, err = Dial(context.Background(), cfg)
	require.Error(t, err)
}

func TestEndpointURL(t *testing.T) {
	u, err := endpointURL(Config{ServerURL: "https://lab.example/base/", Room: "a b"})
	require.NoError(t, err)
	require.Equal(t, "wss://lab.example/base/ws?room=a+b", u)
}
