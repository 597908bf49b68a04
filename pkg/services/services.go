// Package services owns the lazily constructed handles to the external
// collaborators: the telephony client and the public tunnel URL. Each
// handle is built at most once per process; concurrent first callers
// share a single in-flight construction, and a failed construction
// leaves the handle absent so a later request can retry.
package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

// TelephonyClient places outbound calls through the telephony provider.
type TelephonyClient interface {
	MakeCall(ctx context.Context, callbackURL, toNumber, callContext string) (string, error)
}

// TunnelProvisioner exposes a local port under a public URL.
type TunnelProvisioner interface {
	Forward(ctx context.Context, port int) (string, error)
}

const (
	keyTelephony = "telephony-client"
	keyTunnel    = "callback-url"
)

// Container caches the collaborator handles for the life of the process.
type Container struct {
	baseCtx      context.Context
	newTelephony func() (TelephonyClient, error)
	tunnel       TunnelProvisioner

	flight singleflight.Group

	mu          sync.RWMutex
	telephony   TelephonyClient
	callbackURL string
}

// NewContainer wires the container with its collaborator constructors.
// newTelephony builds the provider client from configured credentials;
// tunnel provisions the public webhook endpoint. baseCtx scopes the
// tunnel's lifetime: the handles live until process exit, so they must
// not be bound to any single request's context.
func NewContainer(baseCtx context.Context, newTelephony func() (TelephonyClient, error), tunnel TunnelProvisioner) *Container {
	return &Container{
		baseCtx:      baseCtx,
		newTelephony: newTelephony,
		tunnel:       tunnel,
	}
}

// TelephonyClient returns the cached telephony client, constructing it on
// first use. Idempotent after success.
func (c *Container) TelephonyClient() (TelephonyClient, error) {
	c.mu.RLock()
	client := c.telephony
	c.mu.RUnlock()
	if client != nil {
		return client, nil
	}

	v, err, _ := c.flight.Do(keyTelephony, func() (any, error) {
		c.mu.RLock()
		cached := c.telephony
		c.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		built, err := c.newTelephony()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telephony client: %w", err)
		}

		c.mu.Lock()
		c.telephony = built
		c.mu.Unlock()

		log.Info("telephony client initialized")
		return built, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(TelephonyClient), nil
}

// CallbackURL returns the cached public URL for the local webhook port,
// provisioning the tunnel on first use. The tunnel is opened on the
// container's base context so it outlives the request that triggered
// it. An error or empty URL from the provisioner fails the request and
// leaves the handle absent.
func (c *Container) CallbackURL(port int) (string, error) {
	c.mu.RLock()
	cached := c.callbackURL
	c.mu.RUnlock()
	if cached != "" {
		return cached, nil
	}

	v, err, _ := c.flight.Do(keyTunnel, func() (any, error) {
		c.mu.RLock()
		existing := c.callbackURL
		c.mu.RUnlock()
		if existing != "" {
			return existing, nil
		}

		publicURL, err := c.tunnel.Forward(c.baseCtx, port)
		if err != nil {
			return nil, fmt.Errorf("failed to provision tunnel for port %d: %w", port, err)
		}
		if publicURL == "" {
			return nil, fmt.Errorf("tunnel provisioner returned an empty URL for port %d", port)
		}

		c.mu.Lock()
		c.callbackURL = publicURL
		c.mu.Unlock()

		log.Info("call webhook exposed", "url", publicURL, "port", port)
		return publicURL, nil
	})
	if err != nil {
		return "", err
	}

	return v.(string), nil
}
