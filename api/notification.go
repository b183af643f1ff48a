package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/livebid/livebid-BE/internal/token"
)

const defaultNotificationLimit = 50

//	@Summary		List the authenticated user's notifications, newest first
//	@Tags			users
//	@Produce		json
//	@Param			limit	query	int	false	"Maximum number of notifications"	default(50)
//	@Security		accessToken
//	@Router			/users/me/notifications [get]
func (server *Server) listMyNotifications(c *gin.Context) {
	authPayload := c.MustGet(authorizationPayloadKey).(*token.Payload)

	limit := defaultNotificationLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, errorResponse(errInvalidLimit))
			return
		}
		limit = parsed
	}

	notifications, err := server.dbStore.ListNotificationsByRecipient(c, authPayload.Subject, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}
