package telephony

import (
	"github.com/twilio/twilio-go/client"
)

// ValidSignature checks an X-Twilio-Signature header against the full
// callback URL and the POSTed form fields.
func ValidSignature(authToken, fullURL string, params map[string]string, signature string) bool {
	if authToken == "" || signature == "" {
		return false
	}
	v := client.NewRequestValidator(authToken)
	return v.Validate(fullURL, params, signature)
}
