// Package config provides centralized configuration management for the
// voice bridge server.
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Transport selection values for Server.Transport.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// Config holds the complete configuration for the application
type Config struct {
	// Twilio telephony configuration
	Twilio struct {
		AccountSID  string
		AuthToken   string
		Number      string
		RecordCalls bool
	}

	// Ngrok tunnel configuration
	Ngrok struct {
		AuthToken string
	}

	// OpenAI configuration (speech model used on the call leg)
	OpenAI struct {
		APIKey string
	}

	// Server configuration
	Server struct {
		Port         int
		Transport    string
		SSEPort      int
		SSEBindFatal bool
	}
}

var (
	once   sync.Once
	config *Config
)

// Load initializes and loads the configuration from environment variables
func Load() *Config {
	once.Do(func() {
		v := viper.New()

		// Set default values
		v.SetDefault("server.port", 3000)
		v.SetDefault("server.transport", TransportStdio)

		// Load from environment variables
		v.AutomaticEnv()
		v.BindEnv("server.port", "PORT")
		v.BindEnv("server.transport", "MCP_TRANSPORT")
		v.BindEnv("server.sse_port", "SSE_PORT")

		config = &Config{}

		// Twilio
		config.Twilio.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
		config.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
		config.Twilio.Number = os.Getenv("TWILIO_NUMBER")
		config.Twilio.RecordCalls = strings.EqualFold(os.Getenv("RECORD_CALLS"), "true")

		// Ngrok
		config.Ngrok.AuthToken = os.Getenv("NGROK_AUTHTOKEN")

		// OpenAI
		config.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")

		// Server
		config.Server.Port = v.GetInt("server.port")
		config.Server.Transport = strings.ToLower(v.GetString("server.transport"))
		config.Server.SSEPort = v.GetInt("server.sse_port")
		if config.Server.SSEPort == 0 {
			config.Server.SSEPort = config.Server.Port + 1
		}
		config.Server.SSEBindFatal = strings.EqualFold(os.Getenv("SSE_BIND_FATAL"), "true")
	})

	return config
}

// Validate checks if all required configuration values are set
func (c *Config) Validate() error {
	// List of validation errors
	var errors []string

	if c.Twilio.AccountSID == "" || c.Twilio.AuthToken == "" || c.Twilio.Number == "" {
		errors = append(errors, "Twilio configuration is incomplete")
	}

	if c.Ngrok.AuthToken == "" {
		errors = append(errors, "Ngrok auth token is required to expose the call webhook")
	}

	if c.OpenAI.APIKey == "" {
		errors = append(errors, "OpenAI API key is required for the speech model")
	}

	if c.Server.Transport != TransportStdio && c.Server.Transport != TransportSSE {
		errors = append(errors, fmt.Sprintf("unsupported transport %q", c.Server.Transport))
	}

	// If any errors were found, return them as a combined error
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}
