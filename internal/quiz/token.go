package quiz

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// NewOperatorToken generates the jwt the admin endpoints expect. The
// token is bound to this game instance.
func (g *Game) NewOperatorToken() (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"gameId": g.id,
		"role":   "operator",
	})
	return token.SignedString(g.jwtKey)
}

// CheckOperatorToken validates a token against the game's signing key.
//
// A check fails if the gameId claim doesn't match this game or the
// role claim is not operator.
func (g *Game) CheckOperatorToken(token string) error {
	jwtToken, err := jwt.Parse(token, jwtKeyFunc(g.jwtKey))
	if err != nil {
		return err
	}
	claims, ok := jwtToken.Claims.(jwt.MapClaims)
	if !ok {
		return errors.New("invalid jwt claims")
	}
	gameID, ok := getStringClaim(claims, "gameId")
	if !ok {
		return errors.New("token has no gameId claim")
	}
	if gameID != g.id {
		return errors.New("token does not match game id")
	}
	role, ok := getStringClaim(claims, "role")
	if !ok || role != "operator" {
		return errors.New("token has no operator role")
	}
	return nil
}

func getStringClaim(claims jwt.MapClaims, claim string) (string, bool) {
	claimAny, ok := claims[claim]
	if !ok {
		return "", false
	}
	claimStr, ok := claimAny.(string)
	return claimStr, ok
}

func jwtKeyFunc(key []byte) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	}
}

// newGameTokenKey derives a per-game signing key from the configured
// secret, the game id and its creation time.
func newGameTokenKey(secret []byte, id string, created time.Time) []byte {
	key := fmt.Sprintf("%s%s%d", secret, id, created.Unix())
	return []byte(fmt.Sprintf("%x", key))
}
