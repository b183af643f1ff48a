package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/livebid/livebid-BE/internal/token"
)

const (
	authorizationHeaderKey  = "Authorization"
	authorizationTypeBearer = "Bearer"
	authorizationPayloadKey = "authPayload"
	accessTokenQueryKey     = "access_token"
)

// authMiddleware authenticates the user.
func authMiddleware(tokenMaker token.Maker) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		accessToken, err := extractAccessToken(ctx)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(err))
			return
		}

		payload, err := tokenMaker.VerifyToken(accessToken)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(err))
			return
		}

		ctx.Set(authorizationPayloadKey, payload)
		ctx.Next()
	}
}

// extractAccessToken reads the bearer token from the Authorization header,
// falling back to the access_token query parameter for EventSource and
// WebSocket clients that cannot set headers.
func extractAccessToken(ctx *gin.Context) (string, error) {
	authorizationHeader := ctx.GetHeader(authorizationHeaderKey)
	if authorizationHeader == "" {
		if queryToken := ctx.Query(accessTokenQueryKey); queryToken != "" {
			return queryToken, nil
		}
		return "", errors.New("authorization header is not provided")
	}

	fields := strings.Fields(authorizationHeader)
	if len(fields) != 2 {
		return "", errors.New("invalid authorization header format")
	}
	if fields[0] != authorizationTypeBearer {
		return "", errors.New("unsupported authorization header type")
	}

	return fields[1], nil
}

// identityFromRequest resolves the username for realtime endpoints: a valid
// token wins, otherwise an explicit username query parameter. The identity
// is an opaque bearer name, not an authenticated principal.
func (server *Server) identityFromRequest(ctx *gin.Context) string {
	if accessToken, err := extractAccessToken(ctx); err == nil {
		if payload, err := server.tokenMaker.VerifyToken(accessToken); err == nil {
			return payload.Subject
		}
	}
	return ctx.Query("username")
}
