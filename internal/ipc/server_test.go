package ipc

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"

	"soundbridge/internal/daemon"
	"soundbridge/internal/logging"
	"soundbridge/internal/services/soundpad"
	"soundbridge/internal/testsupport"
)

type fakeProc struct {
	mu      sync.Mutex
	running bool
}

func (f *fakeProc) Running(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running, nil
}

func (f *fakeProc) Terminate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	return nil
}

func (f *fakeProc) Kill(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	return nil
}

func (f *fakeProc) Launch(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = true
	return nil
}

func okDialer(ctx context.Context, address string) (net.Conn, error) {
	client, server := net.Pipe()
	go func() {
		defer server.Close()
		buf := make([]byte, 256)
		for {
			n, err := server.Read(buf)
			if err != nil {
				return
			}
			for i := 0; i < n; i++ {
				if buf[i] == 0 {
					if _, err := server.Write([]byte("R-200\x00")); err != nil {
						return
					}
				}
			}
		}
	}()
	return client, nil
}

func newTestServer(t *testing.T) (*Client, func()) {
	t.Helper()
	cfg := testsupport.NewConfig(t)

	d, err := daemon.New(cfg, logging.NewNop(),
		daemon.WithProcessController(&fakeProc{running: true}),
		daemon.WithSoundpadOptions(soundpad.WithDialer(okDialer)))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}

	server, err := NewServer(context.Background(), cfg.SocketPath(), d, logging.NewNop(), nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	server.Serve()

	client, err := Dial(cfg.SocketPath())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	cleanup := func() {
		_ = client.Close()
		server.Close()
		d.Stop()
	}
	return client, cleanup
}

func TestStatusRoundTrip(t *testing.T) {
	client, cleanup := newTestServer(t)
	defer cleanup()

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running {
		t.Fatal("daemon should report running")
	}
	if status.Phase != "idle" {
		t.Fatalf("phase = %q", status.Phase)
	}
	if !status.BoardAlive {
		t.Fatal("board should read as alive through okDialer")
	}
}

func TestMutationRoundTrip(t *testing.T) {
	client, cleanup := newTestServer(t)
	defer cleanup()

	resp, err := client.SoundAdd(SoundAddRequest{URL: `C:\sounds\bell.mp3`, Title: "Bell"})
	if err != nil {
		t.Fatalf("SoundAdd: %v", err)
	}
	if resp.AssignedID != 3 {
		t.Fatalf("assigned id = %d", resp.AssignedID)
	}
	if !resp.Relaunched {
		t.Fatal("cycle should have relaunched the soundboard")
	}
	if resp.RequestID == "" {
		t.Fatal("missing request id")
	}
}

func TestMutationErrorPropagates(t *testing.T) {
	client, cleanup := newTestServer(t)
	defer cleanup()

	_, err := client.SoundRemove(SoundRemoveRequest{ID: 42})
	if err == nil {
		t.Fatal("expected error for unknown id")
	}
	if !strings.Contains(err.Error(), "precondition") {
		t.Fatalf("error = %v", err)
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	client, cleanup := newTestServer(t)
	defer cleanup()

	if _, err := client.SoundDetach(SoundDetachRequest{ID: 0}); err != nil {
		t.Fatalf("SoundDetach: %v", err)
	}
	history, err := client.History(5)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history.Entries) != 1 {
		t.Fatalf("entries = %d", len(history.Entries))
	}
	if history.Entries[0].Operation != "sound_detach" {
		t.Fatalf("operation = %q", history.Entries[0].Operation)
	}
	if history.Entries[0].Status != "completed" {
		t.Fatalf("status = %q", history.Entries[0].Status)
	}
}

func TestPreflightRoundTrip(t *testing.T) {
	client, cleanup := newTestServer(t)
	defer cleanup()

	resp, err := client.Preflight()
	if err != nil {
		t.Fatalf("Preflight: %v", err)
	}
	if len(resp.Checks) == 0 {
		t.Fatal("expected preflight checks")
	}
}
