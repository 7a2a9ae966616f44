package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/dashkeeper/internal/common"
	"github.com/dmitrijs2005/dashkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) register(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, s.logger, err)
		return
	}
	u, err := s.svc.Users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	success(c, gin.H{"id": u.ID})
}

func (s *HTTPServer) authenticate(c *gin.Context) {
	var req authenticateRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, s.logger, err)
		return
	}
	res, err := s.svc.Users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": userResponse{
			ID:       res.User.ID,
			Username: res.User.Username,
			Email:    res.User.Email,
		},
		"token": res.Token,
	})
}

func (s *HTTPServer) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, s.logger, err)
		return
	}
	if err := s.svc.Resets.RequestReset(c.Request.Context(), req.Username); err != nil {
		respondError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": services.MsgResetSent})
}

func (s *HTTPServer) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		respondErrorWith(c, s.logger, err, http.StatusBadRequest)
		return
	}
	err := s.svc.Resets.ChangePassword(c.Request.Context(), principal(c), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			respondErrorWith(c, s.logger, err, http.StatusBadRequest)
			return
		}
		respondError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": services.MsgPasswordChanged})
}
