package mockapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// envelope is the {success, message, data} wrapper most endpoints answer with
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func wrapped(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Message: message, Data: nil})
}

func internalError(c *gin.Context) {
	fail(c, http.StatusInternalServerError, "Internal server error")
}

// springPage mirrors the paged list shape the backend returns
type springPage[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	TotalPages    int   `json:"totalPages"`
}

func newSpringPage[T any](content []T, total int64, page, size int) springPage[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return springPage[T]{Content: content, TotalElements: total, Number: page, Size: size, TotalPages: pages}
}
