// Package zmqfeed publishes electrode grids on a ZeroMQ PUB socket.
package zmqfeed

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/pebbe/zmq4"

	"github.com/teslashibe/bionic-eye/internal/log"
	"github.com/teslashibe/bionic-eye/pkg/feed"
)

// ErrClosed indicates Publish was called after Close.
var ErrClosed = errors.New("zmqfeed: publisher closed")

// Publisher sends CBOR grid messages to every connected subscriber.
// Sends never block: when a subscriber's queue is full the message is dropped.
type Publisher struct {
	endpoint string
	socket   *zmq4.Socket
	mu       sync.Mutex // zmq sockets are not goroutine safe
	closed   bool

	sent    atomic.Uint64
	dropped atomic.Uint64
}

// Stats counts publisher activity.
type Stats struct {
	Endpoint string `json:"endpoint"`
	Sent     uint64 `json:"sent"`
	Dropped  uint64 `json:"dropped"`
}

// Bind opens a PUB socket on endpoint, e.g. "tcp://*:5556".
func Bind(endpoint string, highWaterMark int) (*Publisher, error) {
	socket, err := zmq4.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, fmt.Errorf("zmqfeed: new socket: %w", err)
	}
	if highWaterMark > 0 {
		if err := socket.SetSndhwm(highWaterMark); err != nil {
			_ = socket.Close()
			return nil, fmt.Errorf("zmqfeed: set hwm: %w", err)
		}
	}
	if err := socket.SetLinger(0); err != nil {
		_ = socket.Close()
		return nil, fmt.Errorf("zmqfeed: set linger: %w", err)
	}
	if err := socket.Bind(endpoint); err != nil {
		_ = socket.Close()
		return nil, fmt.Errorf("zmqfeed: bind %s: %w", endpoint, err)
	}

	log.Info("grid feed bound", "endpoint", endpoint)
	return &Publisher{endpoint: endpoint, socket: socket}, nil
}

// Publish encodes and sends m.
func (p *Publisher) Publish(m feed.GridMessage) error {
	data, err := feed.Encode(m)
	if err != nil {
		return fmt.Errorf("zmqfeed: encode: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if _, err := p.socket.SendBytes(data, zmq4.DONTWAIT); err != nil {
		if zmq4.AsErrno(err) == zmq4.Errno(syscall.EAGAIN) {
			p.dropped.Add(1)
			return nil
		}
		return fmt.Errorf("zmqfeed: send: %w", err)
	}
	p.sent.Add(1)
	return nil
}

// Stats returns the send counters.
func (p *Publisher) Stats() Stats {
	return Stats{
		Endpoint: p.endpoint,
		Sent:     p.sent.Load(),
		Dropped:  p.dropped.Load(),
	}
}

// Close closes the socket.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.socket.Close()
}

var _ feed.Sink = (*Publisher)(nil)
