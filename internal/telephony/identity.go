package telephony

import "strings"

const clientPrefix = "client:"

// SafeIdentity turns a user email into a Voice SDK client identity.
func SafeIdentity(email string) string {
	return strings.ReplaceAll(strings.TrimSpace(email), "@", "(at)")
}

// EmailFromIdentity reverses SafeIdentity. It also accepts the "client:"
// prefixed form Twilio sends in the Caller parameter.
func EmailFromIdentity(identity string) string {
	identity = strings.TrimSpace(identity)
	identity = strings.TrimSpace(strings.TrimPrefix(identity, clientPrefix))
	return strings.ReplaceAll(identity, "(at)", "@")
}

// IsClientCaller reports whether a Caller value is a Voice SDK client.
func IsClientCaller(caller string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(caller)), clientPrefix)
}
