// Package telephony wraps the Twilio REST client behind the narrow
// call-placement surface the server needs.
package telephony

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Client places outbound calls from a configured Twilio number.
type Client struct {
	api    *twilio.RestClient
	from   string
	record bool
}

// NewClient constructs a Twilio client from account credentials.
func NewClient(accountSID, authToken, from string, record bool) (*Client, error) {
	if accountSID == "" || authToken == "" {
		return nil, fmt.Errorf("twilio credentials are not configured")
	}
	if from == "" {
		return nil, fmt.Errorf("twilio originating number is not configured")
	}

	api := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &Client{api: api, from: from, record: record}, nil
}

// MakeCall places an outbound call to toNumber. Twilio fetches call
// instructions from the voice webhook behind callbackURL; callContext is
// carried to the webhook as a query parameter.
func (c *Client) MakeCall(_ context.Context, callbackURL, toNumber, callContext string) (string, error) {
	voiceURL := fmt.Sprintf("%s/voice", strings.TrimRight(callbackURL, "/"))
	if callContext != "" {
		voiceURL += "?context=" + url.QueryEscape(callContext)
	}

	params := &openapi.CreateCallParams{}
	params.SetTo(toNumber)
	params.SetFrom(c.from)
	params.SetUrl(voiceURL)
	params.SetRecord(c.record)

	call, err := c.api.Api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("twilio call placement failed: %w", err)
	}
	if call.Sid == nil {
		return "", fmt.Errorf("twilio returned a call without a SID")
	}

	log.Info("outbound call placed", "sid", *call.Sid, "to", toNumber)
	return *call.Sid, nil
}
