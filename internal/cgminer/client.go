// Package cgminer provides TCP client functionality for the mining daemon's
// JSON API. The protocol is minimal: one connection per command, a JSON
// envelope out, and a reply that ends when the daemon closes the socket.
package cgminer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sbaerlocher/cgmetrics/internal/errors"
	"github.com/sbaerlocher/cgmetrics/pkg/device"
)

// Client talks to one daemon address. It holds no connection state: the
// daemon closes the socket after every reply, so each call dials fresh.
type Client struct {
	addr    string
	timeout time.Duration
	dialer  net.Dialer
}

// NewClient creates a client for addr in host:port form. The timeout bounds
// the dial and the full read of each reply.
func NewClient(addr string, timeout time.Duration) *Client {
	return &Client{
		addr:    addr,
		timeout: timeout,
		dialer:  net.Dialer{Timeout: timeout},
	}
}

// Addr returns the daemon address this client targets.
func (c *Client) Addr() string {
	return c.addr
}

// request is the daemon's command envelope. Parameter is left out entirely
// when empty; the daemon treats a present-but-empty parameter as given.
type request struct {
	Command   string `json:"command"`
	Parameter string `json:"parameter,omitempty"`
}

// devsResponse carries the per-device records. A reply without the DEVS key
// decodes to a nil slice: a daemon with no devices is not an error.
type devsResponse struct {
	Devs []device.Record `json:"DEVS"`
}

// Call sends one command and returns the decoded JSON reply. The connection
// is closed before return on every path.
func (c *Client) Call(ctx context.Context, command, parameter string) (json.RawMessage, error) {
	payload, err := json.Marshal(request{Command: command, Parameter: parameter})
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", command, err)
	}

	log.Debug().Str("addr", c.addr).Str("command", command).Msg("calling daemon")

	raw, err := c.roundTrip(ctx, payload)
	if err != nil {
		return nil, err
	}

	// The daemon pads its reply with NUL bytes; strip them everywhere, not
	// just the tail, before handing the bytes to the JSON decoder.
	cleaned := bytes.ReplaceAll(raw, []byte{0}, nil)
	if len(bytes.TrimSpace(cleaned)) == 0 {
		return nil, errors.ParseError{Addr: c.addr, Reason: "no payload before close", Underlying: errors.ErrEmptyResponse}
	}

	var probe any
	if err := json.Unmarshal(cleaned, &probe); err != nil {
		return nil, errors.ParseError{Addr: c.addr, Reason: "malformed JSON", Underlying: err}
	}

	log.Debug().Str("addr", c.addr).Str("command", command).Int("bytes", len(cleaned)).Msg("daemon replied")

	return json.RawMessage(cleaned), nil
}

// roundTrip performs one dial-write-read cycle. The reply has no framing:
// reading continues until the daemon closes the connection.
func (c *Client) roundTrip(ctx context.Context, payload []byte) ([]byte, error) {
	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, errors.ConnectionError{Addr: c.addr, Op: "dial", Underlying: err}
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, errors.ConnectionError{Addr: c.addr, Op: "set deadline", Underlying: err}
	}

	if _, err := conn.Write(payload); err != nil {
		return nil, errors.ConnectionError{Addr: c.addr, Op: "write", Underlying: err}
	}

	raw, err := io.ReadAll(conn)
	if err != nil {
		return nil, errors.ConnectionError{Addr: c.addr, Op: "read", Underlying: err}
	}

	return raw, nil
}

// Devs polls per-device status with one daemon round trip.
func (c *Client) Devs(ctx context.Context) ([]device.Record, error) {
	raw, err := c.Call(ctx, "devs", "")
	if err != nil {
		return nil, err
	}
	return c.decodeDevs(raw)
}

func (c *Client) decodeDevs(raw json.RawMessage) ([]device.Record, error) {
	var result devsResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, errors.ParseError{Addr: c.addr, Reason: "unexpected DEVS shape", Underlying: err}
	}

	log.Debug().Str("addr", c.addr).Int("devices", len(result.Devs)).Msg("decoded devs reply")

	return result.Devs, nil
}

// Version asks for the daemon's build banner. Callers use it as a cheap
// reachability probe and only care about success or failure.
func (c *Client) Version(ctx context.Context) (json.RawMessage, error) {
	return c.Call(ctx, "version", "")
}
