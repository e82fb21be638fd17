// Package handler provides the HTTP request handlers.
// This file handles the user surface: search, profile and uploads.
package handler

import (
	"ripple_chat_server/internal/dto/request"
	"ripple_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// SearchUsersHandler finds users by username or full name.
// GET /users/search
func SearchUsersHandler(c *gin.Context) {
	var req request.SearchUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := service.Svc.User.Search(c.Request.Context(), c.GetString("user_id"), req.Query)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// GetUserHandler returns one user's public profile.
// GET /users/:id
func GetUserHandler(c *gin.Context) {
	data, err := service.Svc.User.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// UploadMediaHandler stores a media file for use in messages.
// POST /media/upload
func UploadMediaHandler(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := service.Svc.User.Upload(header, c.PostForm("type"))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
