package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/livebid/livebid-BE/internal/validator"
)

type connectUserRequest struct {
	Username string `json:"username" binding:"required"`
}

type connectUserResponse struct {
	AccessToken string   `json:"access_token"`
	User        userInfo `json:"user"`
}

type userInfo struct {
	Username string `json:"username"`
}

//	@Summary		Exchange a username for an access token
//	@Description	The username is an opaque bearer identity; no credential is checked.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		connectUserRequest	true	"Username"
//	@Success		200		{object}	connectUserResponse
//	@Router			/auth/connect [post]
func (server *Server) connectUser(c *gin.Context) {
	var req connectUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}

	if err := validator.ValidateUsername(req.Username); err != nil {
		c.JSON(http.StatusBadRequest, failedValidationError([]*FieldViolation{fieldViolation("username", err)}))
		return
	}

	accessToken, _, err := server.tokenMaker.CreateToken(req.Username, server.config.AccessTokenDuration)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(err))
		return
	}

	c.JSON(http.StatusOK, connectUserResponse{
		AccessToken: accessToken,
		User:        userInfo{Username: req.Username},
	})
}
