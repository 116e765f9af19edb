package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrConnectionNotOpen = errors.New("not connected")

// IrcConnection is the part of the IRC client that controls the connection itself
type IrcConnection interface {
	OnConnect(func())
	Connect() error
	Disconnect() error
}

// StateFunc is notified of connection changes that happen after Open has returned:
// automatic reconnects (ConnectionStateConnected) and the connection ending
// (ConnectionStateDisconnected, or ConnectionStateFailed with a non-nil error)
type StateFunc func(state ConnectionState, err error)

// Connection tracks whether an IrcConnection is open, turning the client's blocking
// Connect call into an Open call that returns as soon as we're connected
type Connection struct {
	client  IrcConnection
	onState StateFunc

	mu      sync.Mutex
	open    bool
	lastErr error
}

func NewConnection(client IrcConnection, onState StateFunc) *Connection {
	if onState == nil {
		onState = func(ConnectionState, error) {}
	}
	return &Connection{
		client:  client,
		onState: onState,
	}
}

func (c *Connection) GetStatus() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastErr == nil && !c.open {
		return ErrConnectionNotOpen
	}
	return c.lastErr
}

// Open connects and returns once the connection is established. onOpen, if non-nil,
// is called from within the client's first connect callback: since the client reads
// nothing further from the server until that callback returns, onOpen runs before any
// chat line is delivered on the new connection. onOpen is not called if Open has
// already given up waiting.
func (c *Connection) Open(ctx context.Context, onOpen func()) error {
	if err := ctx.Err(); err != nil {
		err = fmt.Errorf("context canceled while waiting to connect: %v", err)
		c.setClosed(err)
		return err
	}

	// Signal the first successful connect; the buffer lets the client's callback
	// proceed even if we've already given up waiting
	connected := make(chan struct{}, 1)
	var openMu sync.Mutex
	opened, abandoned := false, false
	c.client.OnConnect(func() {
		openMu.Lock()
		if !abandoned {
			opened = true
			if onOpen != nil {
				onOpen()
			}
		}
		openMu.Unlock()
		select {
		case connected <- struct{}{}:
		default:
		}
	})

	// Connect() blocks for as long as the connection lasts, so run it in a separate
	// goroutine and capture its return value
	returned := make(chan error, 1)
	go func() {
		returned <- c.client.Connect()
	}()

	select {
	case <-ctx.Done():
		openMu.Lock()
		abandoned = !opened
		openMu.Unlock()
		if !abandoned {
			// onOpen has already run, so the connection counts as established
			break
		}

		// If the client connects after we've stopped waiting, nobody is going to use
		// it, so close it down
		go func() {
			select {
			case <-connected:
				c.client.Disconnect()
			case <-returned:
			}
		}()
		err := fmt.Errorf("context canceled while waiting to connect: %v", ctx.Err())
		c.setClosed(err)
		return err
	case err := <-returned:
		if err == nil {
			err = ErrConnectionNotOpen
		}
		c.setClosed(err)
		return err
	case <-connected:
	}

	// We're connected: from now on, further connects are reconnects, and when the
	// Connect call returns, the connection is over
	c.mu.Lock()
	c.open = true
	c.lastErr = nil
	c.mu.Unlock()
	c.client.OnConnect(func() {
		c.onState(ConnectionStateConnected, nil)
	})
	go func() {
		err := <-returned
		c.mu.Lock()
		wasOpen := c.open
		c.open = false
		if err != nil && wasOpen {
			c.lastErr = err
		}
		c.mu.Unlock()
		if !wasOpen {
			return
		}
		if err != nil {
			c.onState(ConnectionStateFailed, err)
		} else {
			c.onState(ConnectionStateDisconnected, nil)
		}
	}()
	return nil
}

func (c *Connection) Close() error {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return ErrConnectionNotOpen
	}
	c.open = false
	c.mu.Unlock()
	return c.client.Disconnect()
}

func (c *Connection) setClosed(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	c.lastErr = err
}

func (c *Connection) isOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}
