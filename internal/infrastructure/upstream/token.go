package upstream

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// defaultUserID is used when the session token carries no readable identity
// claim. The upstream accepts it for cookie construction.
const defaultUserID = "19209"

// userIDFromToken extracts the user id the upstream embeds in the session
// token's jti claim. The claim is untrusted structured data: the token is
// decoded without signature verification, and absence or malformation of any
// part degrades to the default id with a log line, never an error.
func userIDFromToken(token string, log zerolog.Logger) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		log.Debug().Err(err).Msg("session token not decodable, using default user id")
		return defaultUserID
	}

	jti, ok := claims["jti"].(map[string]any)
	if !ok {
		log.Debug().Msg("session token missing jti claim, using default user id")
		return defaultUserID
	}

	switch id := jti["id"].(type) {
	case string:
		if id != "" {
			return id
		}
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	}
	log.Debug().Msg("session token jti has no usable id, using default user id")
	return defaultUserID
}
