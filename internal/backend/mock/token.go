package mock

import (
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
)

// The mock credential encodes the account email so a later GetCurrentUser
// can resolve the user without server-side session state. This is a
// simulation convenience only: real directories issue opaque tokens and
// clients must never interpret them.
const (
	accessPrefix  = "mock.v1."
	refreshPrefix = "mock.r1."
)

func mintAccessToken(email string) string  { return mintToken(accessPrefix, email) }
func mintRefreshToken(email string) string { return mintToken(refreshPrefix, email) }

func mintToken(prefix, email string) string {
	return prefix + base64.RawURLEncoding.EncodeToString([]byte(normalizeEmail(email))) + "." + uuid.NewString()
}

// emailFromToken reverses mintAccessToken. Any deviation from the expected
// shape fails; there is no partial or prefix matching.
func emailFromToken(token string) (string, bool) {
	rest, ok := strings.CutPrefix(token, accessPrefix)
	if !ok {
		return "", false
	}
	parts := strings.Split(rest, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", false
	}
	return string(raw), true
}
