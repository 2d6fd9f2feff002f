//go:build test

package testutils

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/srg/swbot/internal/connection"
)

// Write is one attribute write observed by a fake or mocked link
type Write struct {
	Handle  uint16
	Payload []byte
}

// FakeLink is a scripted connection.Link.
//
// ConnectAfter is the number of State polls that report StateConnecting before the
// link reports StateConnected; a negative value keeps it connecting forever.
type FakeLink struct {
	ConnectAfter  int
	ConnectErr    error // returned by Connect
	DialErr       error // closes the link on the first poll
	WriteErr      error // returned by WriteHandle
	DropOnWrite   bool  // link reports StateClosed after a write
	DisconnectErr error // returned by Disconnect
	PanicOnWrite  any   // WriteHandle panics with this value when set

	mu              sync.Mutex
	state           connection.State
	err             error
	polls           int
	writes          []Write
	connectCalls    int
	disconnectCalls int
}

func (l *FakeLink) Connect(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.connectCalls++
	if l.ConnectErr != nil {
		return l.ConnectErr
	}
	l.state = connection.StateConnecting
	return nil
}

func (l *FakeLink) State() connection.State {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != connection.StateConnecting {
		return l.state
	}
	if l.DialErr != nil {
		l.state = connection.StateClosed
		l.err = l.DialErr
		return l.state
	}
	if l.ConnectAfter >= 0 && l.polls >= l.ConnectAfter {
		l.state = connection.StateConnected
		return l.state
	}
	l.polls++
	return l.state
}

func (l *FakeLink) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *FakeLink) WriteHandle(handle uint16, payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != connection.StateConnected {
		return connection.ErrNotConnected
	}
	l.writes = append(l.writes, Write{Handle: handle, Payload: append([]byte(nil), payload...)})
	if l.DropOnWrite {
		l.state = connection.StateClosed
		l.err = connection.ErrLinkClosed
	}
	if l.PanicOnWrite != nil {
		panic(l.PanicOnWrite)
	}
	return l.WriteErr
}

func (l *FakeLink) Disconnect() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.disconnectCalls++
	l.state = connection.StateClosed
	return l.DisconnectErr
}

// Writes returns the writes performed so far
func (l *FakeLink) Writes() []Write {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Write(nil), l.writes...)
}

// Polls returns how many times State reported StateConnecting
func (l *FakeLink) Polls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.polls
}

// ConnectCalls returns how many times Connect was called
func (l *FakeLink) ConnectCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connectCalls
}

// DisconnectCalls returns how many times Disconnect was called
func (l *FakeLink) DisconnectCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.disconnectCalls
}

// FakeFactory hands out FakeLinks and records every link it creates
type FakeFactory struct {
	// NewLink builds the next link; a link that connects on the first poll is used when nil
	NewLink func() *FakeLink
	// Err makes the factory fail without creating a link
	Err error

	mu      sync.Mutex
	links   []*FakeLink
	options []connection.Options
}

// Factory returns the connection.Factory backed by f
func (f *FakeFactory) Factory() connection.Factory {
	return func(opts connection.Options, _ *logrus.Logger) (connection.Link, error) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if f.Err != nil {
			return nil, f.Err
		}
		link := &FakeLink{}
		if f.NewLink != nil {
			link = f.NewLink()
		}
		f.links = append(f.links, link)
		f.options = append(f.options, opts)
		return link, nil
	}
}

// Created returns how many links the factory created
func (f *FakeFactory) Created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.links)
}

// Last returns the most recently created link, or nil
func (f *FakeFactory) Last() *FakeLink {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.links) == 0 {
		return nil
	}
	return f.links[len(f.links)-1]
}

// LastOptions returns the options the most recent link was created with
func (f *FakeFactory) LastOptions() connection.Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.options) == 0 {
		return connection.Options{}
	}
	return f.options[len(f.options)-1]
}
