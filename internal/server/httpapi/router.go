// Package httpapi exposes the services over a Gin REST API. Handlers bind
// and validate request DTOs, call one service operation, and map sentinel
// errors to HTTP statuses; no business logic lives here.
package httpapi

import (
	"context"
	"time"

	"github.com/dmaltsev/tasklist/internal/logging"
	"github.com/dmaltsev/tasklist/internal/server/auth"
	"github.com/dmaltsev/tasklist/internal/server/config"
	"github.com/dmaltsev/tasklist/internal/server/models"
	"github.com/dmaltsev/tasklist/internal/server/ratelimit"
	"github.com/dmaltsev/tasklist/internal/server/repositories/todos"
	"github.com/dmaltsev/tasklist/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// AuthAPI is the slice of AuthService the transport consumes.
type AuthAPI interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Login(ctx context.Context, email, password, clientOS string) (*services.TokenPair, error)
	SendSignupCode(ctx context.Context, email string) error
	VerifySignupCode(ctx context.Context, email, code string) error
	Signup(ctx context.Context, email, password, displayName, code string) error
	SendResetPasswordCode(ctx context.Context, email string) error
	VerifyResetPasswordCode(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, newPassword, code string) error
	GetTokens(ctx context.Context, userNo int64) ([]*models.RefreshToken, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, error)
	DeleteToken(ctx context.Context, userNo int64, refreshToken string) error
	Logout(ctx context.Context, userNo int64, refreshToken string) error
	ValidateAccessToken(ctx context.Context, tokenString string) (*auth.Identity, error)
}

// TodoAPI is the slice of TodoService the transport consumes.
type TodoAPI interface {
	List(ctx context.Context, userNo int64, page, size int, status, searchType, keyword string) (*services.TodoPage, error)
	Get(ctx context.Context, userNo int64, todoID string) (*models.Todo, error)
	Create(ctx context.Context, userNo int64, input *services.CreateTodoInput) (*models.Todo, error)
	Update(ctx context.Context, userNo int64, todoID string, input *services.UpdateTodoInput) (*models.Todo, error)
	Patch(ctx context.Context, userNo int64, todoID string, patch *services.PatchTodoInput) error
	Delete(ctx context.Context, userNo int64, todoID string) error
	Statistics(ctx context.Context, userNo int64) (*todos.Stats, error)
}

// UserAPI is the slice of UserService the transport consumes.
type UserAPI interface {
	GetDetail(ctx context.Context, userNo int64) (*models.User, error)
	UpdateUserName(ctx context.Context, userNo int64, userName string) error
	ChangePassword(ctx context.Context, userNo int64, currentPassword, newPassword string) error
}

// Server wires the services into a Gin engine.
type Server struct {
	auth    AuthAPI
	todos   TodoAPI
	users   UserAPI
	limiter *ratelimit.Limiter
	logger  logging.Logger

	cookieName           string
	refreshTokenValidity time.Duration
}

// NewServer constructs the HTTP layer over the given services.
func NewServer(a AuthAPI, t TodoAPI, u UserAPI, limiter *ratelimit.Limiter,
	logger logging.Logger, cfg *config.Config) *Server {
	return &Server{
		auth:                 a,
		todos:                t,
		users:                u,
		limiter:              limiter,
		logger:               logger,
		cookieName:           cfg.RefreshTokenCookieName,
		refreshTokenValidity: cfg.RefreshTokenValidityDuration,
	}
}

// Router builds the route table.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLog())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowCredentials = false
	corsCfg.AddAllowHeaders("Authorization")
	r.Use(cors.New(corsCfg))

	authGroup := r.Group("/auth", s.rateLimit())
	{
		authGroup.POST("/email/exist", s.handleEmailExists)
		authGroup.POST("/login", s.handleLogin)
		authGroup.POST("/signup/code", s.handleSendSignupCode)
		authGroup.POST("/signup/verify", s.handleVerifySignupCode)
		authGroup.POST("/signup", s.handleSignup)
		authGroup.POST("/reset-password/code", s.handleSendResetPasswordCode)
		authGroup.POST("/reset-password/verify", s.handleVerifyResetPasswordCode)
		authGroup.POST("/reset-password", s.handleResetPassword)
	}

	tokenGroup := r.Group("/tokens")
	{
		tokenGroup.POST("/refresh", s.rateLimit(), s.handleRefreshAccessToken)

		authed := tokenGroup.Group("", s.authenticate())
		authed.GET("", s.handleGetTokens)
		authed.DELETE("/current", s.handleLogout)
		authed.DELETE("/:refreshToken", s.handleDeleteToken)
	}

	todoGroup := r.Group("/todos", s.authenticate())
	{
		todoGroup.GET("", s.handleListTodos)
		todoGroup.POST("", s.handleCreateTodo)
		todoGroup.GET("/statistics", s.handleTodoStatistics)
		todoGroup.GET("/:todoId", s.handleGetTodo)
		todoGroup.PUT("/:todoId", s.handleUpdateTodo)
		todoGroup.PATCH("/:todoId", s.handlePatchTodo)
		todoGroup.DELETE("/:todoId", s.handleDeleteTodo)
	}

	userGroup := r.Group("/users/me", s.authenticate())
	{
		userGroup.GET("", s.handleGetUserDetail)
		userGroup.PATCH("", s.handleUpdateUser)
		userGroup.PUT("/password", s.handleChangePassword)
	}

	return r
}
