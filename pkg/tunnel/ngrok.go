// Package tunnel provisions the public endpoint for the local call
// webhook using ngrok.
package tunnel

import (
	"context"
	"fmt"
	"net/url"

	"github.com/charmbracelet/log"
	"golang.ngrok.com/ngrok"
	ngrokconfig "golang.ngrok.com/ngrok/config"
)

// Provisioner forwards a local port through an ngrok HTTP endpoint.
type Provisioner struct {
	authToken string
}

func NewProvisioner(authToken string) *Provisioner {
	return &Provisioner{authToken: authToken}
}

// Forward opens a tunnel to localhost:port and returns its public URL.
// The forwarder runs until ctx is canceled, so callers must pass a
// process-lifetime context, never a request-scoped one.
func (p *Provisioner) Forward(ctx context.Context, port int) (string, error) {
	backend, err := url.Parse(fmt.Sprintf("http://localhost:%d", port))
	if err != nil {
		return "", fmt.Errorf("invalid backend address for port %d: %w", port, err)
	}

	forwarder, err := ngrok.ListenAndForward(ctx, backend, ngrokconfig.HTTPEndpoint(),
		ngrok.WithAuthtoken(p.authToken),
	)
	if err != nil {
		return "", fmt.Errorf("ngrok tunnel creation failed: %w", err)
	}

	log.Info("ngrok tunnel established", "url", forwarder.URL(), "port", port)
	return forwarder.URL(), nil
}
