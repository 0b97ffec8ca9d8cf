package middleware

import (
	"crypto/subtle"
	"net/http"

	"bookpay-be/internal/auth"
	"bookpay-be/internal/logger"
	"bookpay-be/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const serviceAuthHeader = "X-Service-Auth"

type AuthConfig struct {
	Secret []byte
	// InternalKey lets trusted services (the booking subsystem) call in
	// without a client token. Empty disables it.
	InternalKey string
}

// AuthMiddleware resolves the calling client from its access token. Requests
// without a token pass through anonymous; a token that does not verify is
// rejected.
func AuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if internalKeyMatches(cfg.InternalKey, r.Header.Get(serviceAuthHeader)) {
				next.ServeHTTP(w, r.WithContext(utils.WithInternalRequest(r.Context())))
				return
			}

			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
				return cfg.Secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				logger.FromCtx(r.Context()).Warn("Rejected access token", zap.Error(err))
				utils.WriteJSONError(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			clientID := clientIDFromClaims(claims)
			if clientID == "" {
				utils.WriteJSONError(w, "token has no client", http.StatusUnauthorized)
				return
			}

			role, _ := claims["role"].(string)
			ctx := utils.SetClientContext(r.Context(), clientID, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// internalKeyMatches compares in constant time. An unset key never matches.
func internalKeyMatches(want, got string) bool {
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

func clientIDFromClaims(claims jwt.MapClaims) string {
	if id, ok := claims["client_id"].(string); ok && id != "" {
		return id
	}
	sub, _ := claims.GetSubject()
	return sub
}
