package telephony

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Voice SDK access tokens are JWTs in Twilio's "fpa" format, signed with
// the API key secret.

type accessTokenClaims struct {
	jwt.RegisteredClaims
	Grants accessGrants `json:"grants"`
}

type accessGrants struct {
	Identity string      `json:"identity"`
	Voice    *voiceGrant `json:"voice,omitempty"`
}

type voiceGrant struct {
	Incoming *voiceIncoming `json:"incoming,omitempty"`
	Outgoing *voiceOutgoing `json:"outgoing,omitempty"`
}

type voiceIncoming struct {
	Allow bool `json:"allow"`
}

type voiceOutgoing struct {
	ApplicationSID string `json:"application_sid"`
}

type tokenParams struct {
	AccountSID     string
	APIKey         string
	APISecret      string
	ApplicationSID string
	Identity       string
	AllowIncoming  bool
	TTL            time.Duration
	Now            time.Time
}

func mintVoiceToken(p tokenParams) (string, error) {
	if strings.TrimSpace(p.Identity) == "" {
		return "", errors.New("telephony: identity required for access token")
	}
	if p.APIKey == "" || p.APISecret == "" || p.AccountSID == "" {
		return "", errors.New("telephony: api key, secret and account sid required for access token")
	}
	if p.TTL <= 0 {
		p.TTL = time.Hour
	}

	vg := &voiceGrant{Outgoing: &voiceOutgoing{ApplicationSID: p.ApplicationSID}}
	if p.AllowIncoming {
		vg.Incoming = &voiceIncoming{Allow: true}
	}

	claims := accessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        p.APIKey + "-" + strconv.FormatInt(p.Now.Unix(), 10),
			Issuer:    p.APIKey,
			Subject:   p.AccountSID,
			IssuedAt:  jwt.NewNumericDate(p.Now),
			ExpiresAt: jwt.NewNumericDate(p.Now.Add(p.TTL)),
		},
		Grants: accessGrants{Identity: p.Identity, Voice: vg},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["cty"] = "twilio-fpa;v=1"
	return t.SignedString([]byte(p.APISecret))
}
