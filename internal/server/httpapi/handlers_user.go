package httpapi

import (
	"net/http"
	"time"

	"github.com/dmaltsev/tasklist/internal/common"
	"github.com/gin-gonic/gin"
)

type updateUserRequest struct {
	UserName string `json:"userName" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

type userDetailResponse struct {
	Email     string    `json:"email"`
	UserName  string    `json:"userName"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) handleGetUserDetail(c *gin.Context) {
	user, err := s.users.GetDetail(c.Request.Context(), identity(c).UserNo)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, userDetailResponse{
		Email:     user.Email,
		UserName:  user.UserName,
		CreatedAt: user.CreatedAt,
	})
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, common.ErrBadRequest)
		return
	}
	if err := s.users.UpdateUserName(c.Request.Context(), identity(c).UserNo, req.UserName); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, common.ErrBadRequest)
		return
	}
	if err := s.users.ChangePassword(c.Request.Context(), identity(c).UserNo, req.CurrentPassword, req.NewPassword); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
