// Package rabbitmq implements an AMQP connection with a bounded channel pool.
//
// AMQP channels are not safe for concurrent use, so publishers acquire a
// channel per operation and release it back when done.
package rabbitmq

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	_defaultChannelPoolSize = 8
	_defaultConnAttempts    = 10
	_defaultConnTimeout     = time.Second
)

type RabbitMQ struct {
	channelPoolSize int
	connAttempts    int
	connTimeout     time.Duration

	conn *amqp.Connection
	pool chan *amqp.Channel

	closed atomic.Bool
}

func New(url string, opts ...Option) (*RabbitMQ, error) {
	r := &RabbitMQ{
		channelPoolSize: _defaultChannelPoolSize,
		connAttempts:    _defaultConnAttempts,
		connTimeout:     _defaultConnTimeout,
	}

	for _, opt := range opts {
		opt(r)
	}

	var err error
	for r.connAttempts > 0 {
		r.conn, err = amqp.Dial(url)
		if err == nil {
			break
		}

		log.Printf("RabbitMQ is trying to connect, attempts left: %d", r.connAttempts)

		time.Sleep(r.connTimeout)

		r.connAttempts--
	}

	if err != nil {
		return nil, fmt.Errorf("rabbitmq - New - connAttempts == 0: %w", err)
	}

	r.pool = make(chan *amqp.Channel, r.channelPoolSize)

	for range r.channelPoolSize {
		ch, err := r.conn.Channel()
		if err != nil {
			r.conn.Close()

			return nil, fmt.Errorf("rabbitmq - New - r.conn.Channel: %w", err)
		}
		r.pool <- ch
	}

	return r, nil
}

// Acquire blocks until a channel is available or ctx is done. A channel that
// was closed by the server while idle is replaced transparently.
func (r *RabbitMQ) Acquire(ctx context.Context) (*amqp.Channel, error) {
	if r.closed.Load() {
		return nil, fmt.Errorf("rabbitmq - Acquire: %w", amqp.ErrClosed)
	}

	select {
	case ch := <-r.pool:
		if ch.IsClosed() {
			return r.newChannel()
		}

		return ch, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a channel to the pool. Broken channels are dropped; the
// pool replaces them lazily on the next Acquire.
func (r *RabbitMQ) Release(ch *amqp.Channel) {
	if ch == nil {
		return
	}

	if r.closed.Load() || ch.IsClosed() {
		_ = ch.Close()

		return
	}

	select {
	case r.pool <- ch:
	default:
		_ = ch.Close()
	}
}

func (r *RabbitMQ) newChannel() (*amqp.Channel, error) {
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq - newChannel - r.conn.Channel: %w", err)
	}

	return ch, nil
}

func (r *RabbitMQ) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(r.pool)
	for ch := range r.pool {
		_ = ch.Close()
	}

	if r.conn != nil {
		err := r.conn.Close()
		if err != nil {
			return fmt.Errorf("rabbitmq - Close - r.conn.Close: %w", err)
		}
	}

	return nil
}
