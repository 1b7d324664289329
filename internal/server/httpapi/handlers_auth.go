package httpapi

import (
	"net/http"
	"time"

	"github.com/dmaltsev/tasklist/internal/common"
	"github.com/gin-gonic/gin"
)

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type emailCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	UserName string `json:"userName" binding:"required"`
	Code     string `json:"code" binding:"required,len=6"`
}

type resetPasswordRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Code     string `json:"code" binding:"required,len=6"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type tokenInfoResponse struct {
	RefreshToken string    `json:"refreshToken"`
	ClientOS     string    `json:"clientOs"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (s *Server) handleEmailExists(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, common.ErrBadRequest)
		return
	}

	exists, err := s.auth.ExistsByEmail(c.Request.Context(), req.Email)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, common.ErrBadRequest)
		return
	}

	pair, err := s.auth.Login(c.Request.Context(), req.Email, req.Password, detectClientOS(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	s.setRefreshCookie(c, pair.RefreshToken)
	c.JSON(http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken})
}

func (s *Server) handleSendSignupCode(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, common.ErrBadRequest)
		return
	}
	if err := s.auth.SendSignupCode(c.Request.Context(), req.Email); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleVerifySignupCode(c *gin.Context) {
	var req emailCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, common.ErrBadRequest)
		return
	}
	if err := s.auth.VerifySignupCode(c.Request.Context(), req.Email, req.Code); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, common.ErrBadRequest)
		return
	}
	if err := s.auth.Signup(c.Request.Context(), req.Email, req.Password, req.UserName, req.Code); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (s *Server) handleSendResetPasswordCode(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, common.ErrBadRequest)
		return
	}
	if err := s.auth.SendResetPasswordCode(c.Request.Context(), req.Email); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleVerifyResetPasswordCode(c *gin.Context) {
	var req emailCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, common.ErrBadRequest)
		return
	}
	if err := s.auth.VerifyResetPasswordCode(c.Request.Context(), req.Email, req.Code); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, common.ErrBadRequest)
		return
	}
	if err := s.auth.ResetPassword(c.Request.Context(), req.Email, req.Password, req.Code); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGetTokens(c *gin.Context) {
	records, err := s.auth.GetTokens(c.Request.Context(), identity(c).UserNo)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	resp := make([]tokenInfoResponse, 0, len(records))
	for _, record := range records {
		resp = append(resp, tokenInfoResponse{
			RefreshToken: record.RefreshToken,
			ClientOS:     record.ClientOS,
			CreatedAt:    record.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"tokens": resp})
}

func (s *Server) handleRefreshAccessToken(c *gin.Context) {
	refreshToken, err := c.Cookie(s.cookieName)
	if err != nil || refreshToken == "" {
		s.abortWithError(c, common.ErrUnauthorized)
		return
	}

	accessToken, err := s.auth.RefreshAccessToken(c.Request.Context(), refreshToken)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, accessTokenResponse{AccessToken: accessToken})
}

func (s *Server) handleDeleteToken(c *gin.Context) {
	refreshToken := c.Param("refreshToken")
	if err := s.auth.DeleteToken(c.Request.Context(), identity(c).UserNo, refreshToken); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleLogout(c *gin.Context) {
	refreshToken, err := c.Cookie(s.cookieName)
	if err != nil || refreshToken == "" {
		s.abortWithError(c, common.ErrUnauthorized)
		return
	}

	if err := s.auth.Logout(c.Request.Context(), identity(c).UserNo, refreshToken); err != nil {
		s.abortWithError(c, err)
		return
	}
	s.clearRefreshCookie(c)
	c.Status(http.StatusNoContent)
}

func (s *Server) setRefreshCookie(c *gin.Context, refreshToken string) {
	c.SetCookie(s.cookieName, refreshToken, int(s.refreshTokenValidity.Seconds()), "/", "", false, true)
}

func (s *Server) clearRefreshCookie(c *gin.Context) {
	c.SetCookie(s.cookieName, "", -1, "/", "", false, true)
}
