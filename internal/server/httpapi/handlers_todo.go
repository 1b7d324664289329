package httpapi

import (
	"net/http"
	"time"

	"github.com/dmaltsev/tasklist/internal/common"
	"github.com/dmaltsev/tasklist/internal/server/models"
	"github.com/dmaltsev/tasklist/internal/server/services"
	"github.com/gin-gonic/gin"
)

type createTodoRequest struct {
	Title    string     `json:"title" binding:"required"`
	Content  string     `json:"content"`
	Color    string     `json:"color"`
	DueAt    *time.Time `json:"dueAt"`
	Sequence *int       `json:"sequence"`
}

type updateTodoRequest struct {
	Title   string     `json:"title" binding:"required"`
	Content string     `json:"content"`
	Color   string     `json:"color"`
	DueAt   *time.Time `json:"dueAt"`
}

type patchTodoRequest struct {
	Sequence  *int  `json:"sequence"`
	Completed *bool `json:"completed"`
}

type listTodosQuery struct {
	Page       int    `form:"page,default=1"`
	Size       int    `form:"size,default=10"`
	Status     string `form:"status,default=all"`
	SearchType string `form:"searchType"`
	Keyword    string `form:"keyword"`
}

type todoResponse struct {
	TodoID      string     `json:"todoId"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Color       string     `json:"color"`
	Sequence    int        `json:"sequence"`
	DueAt       *time.Time `json:"dueAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

func toTodoResponse(todo *models.Todo) todoResponse {
	return todoResponse{
		TodoID:      todo.TodoID,
		Title:       todo.Title,
		Content:     todo.Content,
		Color:       todo.Color,
		Sequence:    todo.Sequence,
		DueAt:       todo.DueAt,
		CompletedAt: todo.CompletedAt,
		CreatedAt:   todo.CreatedAt,
		UpdatedAt:   todo.UpdatedAt,
	}
}

func (s *Server) handleListTodos(c *gin.Context) {
	var query listTodosQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		s.abortWithError(c, common.ErrBadRequest)
		return
	}

	result, err := s.todos.List(c.Request.Context(), identity(c).UserNo, query.Page, query.Size,
		query.Status, query.SearchType, query.Keyword)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	items := make([]todoResponse, 0, len(result.Items))
	for _, todo := range result.Items {
		items = append(items, toTodoResponse(todo))
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": result.Total,
		"page":  result.Page,
		"size":  result.Size,
	})
}

func (s *Server) handleGetTodo(c *gin.Context) {
	todo, err := s.todos.Get(c.Request.Context(), identity(c).UserNo, c.Param("todoId"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTodoResponse(todo))
}

func (s *Server) handleCreateTodo(c *gin.Context) {
	var req createTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, common.ErrBadRequest)
		return
	}

	todo, err := s.todos.Create(c.Request.Context(), identity(c).UserNo, &services.CreateTodoInput{
		Title:    req.Title,
		Content:  req.Content,
		Color:    req.Color,
		DueAt:    req.DueAt,
		Sequence: req.Sequence,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTodoResponse(todo))
}

func (s *Server) handleUpdateTodo(c *gin.Context) {
	var req updateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, common.ErrBadRequest)
		return
	}

	todo, err := s.todos.Update(c.Request.Context(), identity(c).UserNo, c.Param("todoId"), &services.UpdateTodoInput{
		Title:   req.Title,
		Content: req.Content,
		Color:   req.Color,
		DueAt:   req.DueAt,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTodoResponse(todo))
}

func (s *Server) handlePatchTodo(c *gin.Context) {
	var req patchTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, common.ErrBadRequest)
		return
	}

	err := s.todos.Patch(c.Request.Context(), identity(c).UserNo, c.Param("todoId"), &services.PatchTodoInput{
		Sequence:  req.Sequence,
		Completed: req.Completed,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDeleteTodo(c *gin.Context) {
	if err := s.todos.Delete(c.Request.Context(), identity(c).UserNo, c.Param("todoId")); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleTodoStatistics(c *gin.Context) {
	stats, err := s.todos.Statistics(c.Request.Context(), identity(c).UserNo)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total":          stats.Total,
		"completed":      stats.Completed,
		"completedToday": stats.CompletedToday,
	})
}
