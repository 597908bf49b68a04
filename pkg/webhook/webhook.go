// Package webhook serves the local HTTP endpoint the telephony provider
// reaches through the tunnel. It answers Twilio's voice webhook with
// TwiML built from the call context.
package webhook

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/twilio/twilio-go/twiml"
)

// Server hosts the voice webhook on the local port the tunnel forwards.
type Server struct {
	router *chi.Mux
}

func NewServer() *Server {
	s := &Server{
		router: chi.NewRouter(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/voice", s.handleVoice)
	s.router.Post("/voice", s.handleVoice)

	return s
}

// Router exposes the root HTTP handler for the server.
func (s *Server) Router() http.Handler { return s.router }

// Start blocks serving the webhook on the given port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	log.Info("call webhook listening", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

// handleVoice answers the provider's call-instruction fetch. The call
// context arrives as the "context" query parameter set at placement time.
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	callContext := r.URL.Query().Get("context")

	message := "Hello. This call was placed by an assistant."
	if callContext != "" {
		message = fmt.Sprintf("Hello. This call was placed by an assistant with the following purpose: %s", callContext)
	}

	doc, err := twiml.Voice([]twiml.Element{
		&twiml.VoiceSay{Message: message},
	})
	if err != nil {
		log.Error("failed to render voice response", "error", err)
		http.Error(w, "failed to render voice response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprint(w, doc)
}
