// Package telegram adapts the MTProto client to the monitor: it turns
// updates into events, resolves senders and posts notices to saved messages.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/updates"
	"github.com/gotd/td/tg"

	"tgmonitor/models"
)

// DefaultEventBuffer is the capacity of the event channel.
const DefaultEventBuffer = 64

// Options configures a Client.
type Options struct {
	APIID             int
	APIHash           string
	SessionPath       string
	SessionPassphrase string
	Peers             PeerCache
	Log               *slog.Logger
	EventBuffer       int
}

// Client owns the MTProto connection.
type Client struct {
	log     *slog.Logger
	client  *telegram.Client
	gaps    *updates.Manager
	service *Service
	handler *Handler
}

// New builds a Client. No connection is made until Run.
func New(opts Options) *Client {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultEventBuffer
	}

	dispatcher := tg.NewUpdateDispatcher()
	gaps := updates.New(updates.Config{Handler: dispatcher})
	client := telegram.NewClient(opts.APIID, opts.APIHash, telegram.Options{
		SessionStorage: NewSessionStorage(opts.SessionPath, opts.SessionPassphrase),
		UpdateHandler:  gaps,
	})

	service := NewService(client.API(), opts.Peers, opts.Log)
	handler := NewHandler(service, opts.EventBuffer)
	handler.Register(dispatcher)

	return &Client{
		log:     opts.Log,
		client:  client,
		gaps:    gaps,
		service: service,
		handler: handler,
	}
}

// Service returns the sender resolution and send capability.
func (c *Client) Service() *Service {
	return c.service
}

// Events returns new-message and deletion events.
func (c *Client) Events() <-chan models.Event {
	return c.handler.Events()
}

// Run connects and calls f while the connection is up.
func (c *Client) Run(ctx context.Context, f func(ctx context.Context) error) error {
	return c.client.Run(ctx, f)
}

// EnsureAuthorized returns ErrNotAuthorized if the session is not logged in.
func (c *Client) EnsureAuthorized(ctx context.Context) error {
	status, err := c.client.Auth().Status(ctx)
	if err != nil {
		return fmt.Errorf("check authorization: %w", err)
	}
	if !status.Authorized {
		return ErrNotAuthorized
	}
	return nil
}

// Listen receives updates until ctx is done. Must be called inside Run.
func (c *Client) Listen(ctx context.Context) error {
	self, err := c.client.Self(ctx)
	if err != nil {
		return fmt.Errorf("get self: %w", err)
	}
	c.service.SetSelf(self.ID)
	c.service.Remember(self)

	return c.gaps.Run(ctx, c.client.API(), self.ID, updates.AuthOptions{
		OnStart: func(ctx context.Context) {
			c.log.Info("Listening for updates", "self", self.ID)
		},
	})
}

// Authorize runs the interactive login. If the session is already
// authorized the user is asked whether to replace it; declining returns
// false with no error. Must be called inside Run.
func (c *Client) Authorize(ctx context.Context, prompt *Prompt) (bool, error) {
	status, err := c.client.Auth().Status(ctx)
	if err != nil {
		return false, fmt.Errorf("check authorization: %w", err)
	}
	if status.Authorized {
		replace, err := prompt.Confirm("Do you really want to delete current session and authorize new?")
		if err != nil {
			return false, err
		}
		if !replace {
			return false, nil
		}
		if _, err := c.client.API().AuthLogOut(ctx); err != nil {
			return false, fmt.Errorf("log out current session: %w", err)
		}
	}

	flow := auth.NewFlow(userAuthenticator{prompt: prompt}, auth.SendCodeOptions{})
	if err := flow.Run(ctx, c.client.Auth()); err != nil {
		return false, fmt.Errorf("authorize: %w", err)
	}
	return true, nil
}
