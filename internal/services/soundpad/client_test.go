package soundpad

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

// scriptedDialer serves every connection with a fixed handler goroutine.
func scriptedDialer(handler func(conn net.Conn)) Dialer {
	return func(ctx context.Context, address string) (net.Conn, error) {
		client, server := net.Pipe()
		go handler(server)
		return client, nil
	}
}

// readCommand consumes bytes up to the NUL terminator.
func readCommand(conn net.Conn) (string, error) {
	var buf []byte
	chunk := make([]byte, 256)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if i := bytes.IndexByte(buf, 0); i >= 0 {
				return string(buf[:i]), nil
			}
		}
		if err != nil {
			return "", err
		}
	}
}

func TestDoStatusResponse(t *testing.T) {
	var got string
	client, err := New("test", WithDialer(scriptedDialer(func(conn net.Conn) {
		defer conn.Close()
		cmd, err := readCommand(conn)
		if err != nil {
			return
		}
		got = cmd
		_, _ = conn.Write([]byte("R-200 OK\x00"))
	})))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := client.Do(context.Background(), "DoPlaySound(3)")
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp != "R-200 OK" {
		t.Fatalf("resp = %q", resp)
	}
	if got != "DoPlaySound(3)" {
		t.Fatalf("server saw %q", got)
	}
}

func TestDoFragmentResponse(t *testing.T) {
	fragment := `<Sounds><Sound id="0"/><Sound id="1"/></Sounds>`
	client, err := New("test", WithDialer(scriptedDialer(func(conn net.Conn) {
		if _, err := readCommand(conn); err != nil {
			return
		}
		// No terminator: completion comes from structural closure.
		_, _ = conn.Write([]byte(fragment))
	})))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := client.Do(context.Background(), "GetSoundlist()")
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp != fragment {
		t.Fatalf("resp = %q", resp)
	}
}

func TestDoPartialBytesOnTimeout(t *testing.T) {
	client, err := New("test",
		WithRequestTimeout(100*time.Millisecond),
		WithDialer(scriptedDialer(func(conn net.Conn) {
			if _, err := readCommand(conn); err != nil {
				return
			}
			// Incomplete response, connection stays open past the deadline.
			_, _ = conn.Write([]byte("PLAYI"))
		})))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := client.Do(context.Background(), "GetPlayStatus()")
	if err != nil {
		t.Fatalf("Do should return partial bytes, got error %v", err)
	}
	if resp != "PLAYI" {
		t.Fatalf("resp = %q", resp)
	}
}

func TestDoDialFailure(t *testing.T) {
	client, err := New("test", WithDialer(func(ctx context.Context, address string) (net.Conn, error) {
		return nil, errors.New("refused")
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.Do(context.Background(), "DoNothing()"); err == nil {
		t.Fatal("expected dial error")
	}
}

func TestProbe(t *testing.T) {
	up, err := New("test", WithDialer(scriptedDialer(func(conn net.Conn) {
		defer conn.Close()
		if _, err := readCommand(conn); err != nil {
			return
		}
		_, _ = conn.Write([]byte("R-200\x00"))
	})))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !up.Probe(context.Background()) {
		t.Fatal("probe against responsive channel should be up")
	}

	down, err := New("test", WithDialer(func(ctx context.Context, address string) (net.Conn, error) {
		return nil, errors.New("no pipe")
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if down.Probe(context.Background()) {
		t.Fatal("probe against dead channel should be down")
	}
}

func TestProbeBareTerminatorIsUp(t *testing.T) {
	client, err := New("test", WithDialer(scriptedDialer(func(conn net.Conn) {
		defer conn.Close()
		if _, err := readCommand(conn); err != nil {
			return
		}
		// An empty NUL-terminated response trims to "", but the byte
		// itself proves the channel is alive.
		_, _ = conn.Write([]byte{0})
	})))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !client.Probe(context.Background()) {
		t.Fatal("a bare terminator byte must read as up")
	}
}

func TestProbeTimeoutIsDown(t *testing.T) {
	client, err := New("test",
		WithProbeTimeout(50*time.Millisecond),
		WithDialer(scriptedDialer(func(conn net.Conn) {
			// Accept and go silent: no bytes means down.
			_, _ = readCommand(conn)
		})))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if client.Probe(context.Background()) {
		t.Fatal("silent channel must read as down")
	}
}

func TestStatusToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"R-200 OK", "R-200"},
		{"R-404", "R-404"},
		{"R-", ""},
		{"PLAYING", ""},
	}
	for _, tc := range cases {
		if got := statusToken(tc.in); got != tc.want {
			t.Errorf("statusToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFragmentClosed(t *testing.T) {
	closed := []string{
		`<A/>`,
		`<A><B/></A>`,
	}
	for _, text := range closed {
		if !fragmentClosed(text) {
			t.Errorf("fragmentClosed(%q) = false", text)
		}
	}
	open := []string{
		`<A>`,
		`<A><B></A>`,
		`<A`,
	}
	for _, text := range open {
		if fragmentClosed(text) {
			t.Errorf("fragmentClosed(%q) = true", text)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if err := parseStatus("R-200 OK"); err != nil {
		t.Fatalf("R-200: %v", err)
	}
	if err := parseStatus("R-404 not found"); err == nil {
		t.Fatal("R-404 must be an error")
	}
	if err := parseStatus("garbage"); err == nil {
		t.Fatal("unrecognized response must be an error")
	}
}
