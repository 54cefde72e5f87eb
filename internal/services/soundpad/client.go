package soundpad

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"soundbridge/internal/services"
)

const (
	defaultRequestTimeout = 5 * time.Second
	defaultProbeTimeout   = 500 * time.Millisecond

	// noopCommand is accepted by the soundboard without side effects; any
	// response at all proves the control channel is alive.
	noopCommand = "DoNothing()"
)

// Dialer opens a connection to the control channel. Injected by tests.
type Dialer func(ctx context.Context, address string) (net.Conn, error)

// Option configures the client.
type Option func(*Client)

// WithDialer injects a custom dialer (primarily for tests).
func WithDialer(dial Dialer) Option {
	return func(c *Client) {
		if dial != nil {
			c.dial = dial
		}
	}
}

// WithRequestTimeout overrides the overall per-request deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithProbeTimeout overrides the liveness probe deadline. It is deliberately
// much shorter than the request timeout so probes never stall status
// reporting.
func WithProbeTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.probeTimeout = d
		}
	}
}

// Client wraps control-channel interactions with the soundboard.
type Client struct {
	address        string
	requestTimeout time.Duration
	probeTimeout   time.Duration
	dial           Dialer
}

// New constructs a control-channel client. The address is a unix socket path
// or a host:port pair.
func New(address string, opts ...Option) (*Client, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, errors.New("control channel address required")
	}
	client := &Client{
		address:        address,
		requestTimeout: defaultRequestTimeout,
		probeTimeout:   defaultProbeTimeout,
		dial:           defaultDial,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Network picks the dial network for a control address: host:port pairs use
// TCP, anything else is treated as a unix socket path.
func Network(address string) string {
	if host, _, err := net.SplitHostPort(address); err == nil && host != "" {
		return "tcp"
	}
	return "unix"
}

func defaultDial(ctx context.Context, address string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, Network(address), address)
}

// Do sends one command and reads its response. The whole exchange is bounded
// by the request timeout; if the deadline elapses mid-read, the partial bytes
// received so far are returned without error.
func (c *Client) Do(ctx context.Context, command string) (string, error) {
	resp, _, err := c.roundTrip(ctx, command, c.requestTimeout)
	return resp, err
}

// Probe sends the no-op command under the short probe deadline. Any received
// byte counts as alive, including a bare terminator that trims to an empty
// response; a connection error or the probe's own timeout counts as down.
func (c *Client) Probe(ctx context.Context) bool {
	_, received, err := c.roundTrip(ctx, noopCommand, c.probeTimeout)
	return err == nil && received > 0
}

// roundTrip returns the trimmed response and the raw received byte count.
func (c *Client) roundTrip(ctx context.Context, command string, timeout time.Duration) (string, int, error) {
	deadline := time.Now().Add(timeout)
	dialCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	conn, err := c.dial(dialCtx, c.address)
	if err != nil {
		return "", 0, services.Wrap(services.ErrUnavailable, "soundpad", "dial", c.address, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(deadline)

	if _, err := conn.Write(append([]byte(command), 0)); err != nil {
		return "", 0, services.Wrap(services.ErrUnavailable, "soundpad", "send", command, err)
	}

	var buf []byte
	chunk := make([]byte, 4096)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if responseComplete(buf) {
				break
			}
		}
		if err != nil {
			// Deadline expiry and remote close both finish the exchange with
			// whatever arrived; an empty response is a real failure.
			if len(buf) > 0 {
				break
			}
			return "", 0, services.Wrap(services.ErrUnavailable, "soundpad", "receive", command, err)
		}
	}
	return strings.TrimRight(string(buf), "\x00"), len(buf), nil
}

// responseComplete reports whether the buffered bytes form a finished
// response: a NUL terminator, a status token line, or a structurally-closed
// fragment.
func responseComplete(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	for _, b := range buf {
		if b == 0 {
			return true
		}
	}
	text := strings.TrimSpace(string(buf))
	if strings.HasPrefix(text, "<") {
		return fragmentClosed(text)
	}
	return statusToken(text) != ""
}

// statusToken extracts a leading "R-NNN" token, or "" when the buffer does
// not begin with one.
func statusToken(text string) string {
	if !strings.HasPrefix(text, "R-") {
		return ""
	}
	i := 2
	for i < len(text) && text[i] >= '0' && text[i] <= '9' {
		i++
	}
	if i == 2 {
		return ""
	}
	return text[:i]
}

// fragmentClosed reports whether a tag fragment is depth-balanced with no
// unterminated tail.
func fragmentClosed(text string) bool {
	depth := 0
	seen := false
	i := 0
	for i < len(text) {
		lt := strings.IndexByte(text[i:], '<')
		if lt < 0 {
			return seen && depth == 0
		}
		pos := i + lt
		gt := strings.IndexByte(text[pos:], '>')
		if gt < 0 {
			return false
		}
		end := pos + gt
		switch {
		case strings.HasPrefix(text[pos:], "</"):
			depth--
			if depth < 0 {
				return false
			}
		case text[end-1] == '/':
			// Self-closing, depth-neutral.
		default:
			depth++
		}
		seen = true
		i = end + 1
	}
	return seen && depth == 0
}

// parseStatus turns a status-token response into an error when the
// soundboard reports anything but success.
func parseStatus(resp string) error {
	token := statusToken(strings.TrimSpace(resp))
	switch token {
	case "":
		return fmt.Errorf("unrecognized response %q", resp)
	case "R-200":
		return nil
	default:
		return fmt.Errorf("soundboard returned %s", token)
	}
}
