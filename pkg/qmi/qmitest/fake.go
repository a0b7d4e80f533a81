// Package qmitest provides a minimal in-memory qmi.Client double for
// exercising the control core's operations without a real QMI transport.
package qmitest

import (
	"context"

	"github.com/protei/qmicore/pkg/qmi"
)

// Responder computes the Response (or error) for a single request name.
type Responder func(req qmi.Request) (qmi.Response, error)

// Client is a scriptable qmi.Client for tests.
type Client struct {
	ServiceName qmi.Service
	Responders  map[string]Responder

	subs map[string]chan qmi.Indication
}

// NewClient returns an empty fake client for service.
func NewClient(service qmi.Service) *Client {
	return &Client{
		ServiceName: service,
		Responders:  make(map[string]Responder),
		subs:        make(map[string]chan qmi.Indication),
	}
}

func (c *Client) Service() qmi.Service { return c.ServiceName }

func (c *Client) Send(ctx context.Context, req qmi.Request) (qmi.Response, error) {
	r, ok := c.Responders[req.Name]
	if !ok {
		return qmi.Response{}, &qmi.ProtocolError{Code: qmi.ErrOther, Message: "no responder scripted for " + req.Name}
	}
	return r(req)
}

func (c *Client) Subscribe(name string) (<-chan qmi.Indication, qmi.Unsubscribe, error) {
	ch, ok := c.subs[name]
	if !ok {
		ch = make(chan qmi.Indication, 8)
		c.subs[name] = ch
	}
	return ch, func() {}, nil
}

// Deliver pushes an indication to any subscriber of name. It is a no-op if
// nothing has subscribed yet, matching a real transport where an
// indication that arrives before subscription would simply be missed.
func (c *Client) Deliver(name string, ind qmi.Indication) {
	ch, ok := c.subs[name]
	if !ok {
		return
	}
	ch <- ind
}
