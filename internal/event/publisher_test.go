package event

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"movie-booking/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// silentBroker accepts TCP connections and never speaks AMQP.
func silentBroker(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()

	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})

	return "amqp://guest:guest@" + ln.Addr().String() + "/"
}

func TestAMQPPublisher_DialIsBoundedByContext(t *testing.T) {
	p := NewAMQPPublisher(utils.RabbitMQConfig{URL: silentBroker(t), Queue: "booking.confirmed"}, zaptest.NewLogger(t))
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.PublishBookingConfirmed(ctx, BookingConfirmed{BookingID: "b1"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	// The failed dial backs off, so the next caller fails at once
	start = time.Now()
	err = p.PublishBookingConfirmed(context.Background(), BookingConfirmed{BookingID: "b2"})
	assert.ErrorIs(t, err, errBrokerBackoff)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestAMQPPublisher_WaitersGiveUpWithTheirContext(t *testing.T) {
	p := NewAMQPPublisher(utils.RabbitMQConfig{URL: silentBroker(t), Queue: "booking.confirmed"}, zaptest.NewLogger(t))
	defer p.Close()

	first := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		first <- p.PublishBookingConfirmed(ctx, BookingConfirmed{BookingID: "b1"})
	}()

	// Let the first caller take the slot and start dialing
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.PublishBookingConfirmed(ctx, BookingConfirmed{BookingID: "b2"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	select {
	case err := <-first:
		assert.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("first publish did not give up")
	}
}
