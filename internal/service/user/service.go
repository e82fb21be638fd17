// Package user covers the profile surface the chat engine needs: lookup,
// search and media upload.
package user

import (
	"context"
	"mime/multipart"
	"strings"

	"ripple_chat_server/internal/dao/mysql/repository"
	"ripple_chat_server/internal/dto/respond"
	"ripple_chat_server/internal/infrastructure/blob"
	"ripple_chat_server/internal/model"
	"ripple_chat_server/pkg/errorx"
)

const timeLayout = "2006-01-02 15:04:05"

const searchLimit = 20

// Service implements profile lookup and uploads.
type Service struct {
	repos *repository.Repositories
	blobs *blob.LocalStore
}

// NewUserService creates the service. blobs may be nil when uploads are
// disabled.
func NewUserService(repos *repository.Repositories, blobs *blob.LocalStore) *Service {
	return &Service{repos: repos, blobs: blobs}
}

// Get returns one user's public profile.
func (s *Service) Get(ctx context.Context, userID string) (*respond.UserRespond, error) {
	user, err := s.repos.User.FindByUuid(ctx, userID)
	if err != nil {
		return nil, err
	}
	rsp := toRespond(user)
	return &rsp, nil
}

// Search finds users by username or full name, excluding the caller.
func (s *Service) Search(ctx context.Context, callerID, query string) ([]respond.UserRespond, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "search query is empty")
	}
	users, err := s.repos.User.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, err
	}
	rspList := make([]respond.UserRespond, 0, len(users))
	for i := range users {
		if users[i].Uuid == callerID {
			continue
		}
		rspList = append(rspList, toRespond(&users[i]))
	}
	return rspList, nil
}

// Upload stores a media file and returns its URL for use in a message.
func (s *Service) Upload(header *multipart.FileHeader, mediaType string) (*respond.UploadRespond, error) {
	if s.blobs == nil {
		return nil, errorx.New(errorx.CodeUnavailable, "uploads are disabled")
	}
	url, err := s.blobs.Save(header)
	if err != nil {
		return nil, err
	}
	return &respond.UploadRespond{Url: url, Type: mediaType, Size: header.Size}, nil
}

func toRespond(user *model.UserInfo) respond.UserRespond {
	rsp := respond.UserRespond{
		UserId:   user.Uuid,
		Username: user.Username,
		FullName: user.FullName,
		Avatar:   user.Avatar,
		IsOnline: user.IsOnline,
	}
	if user.LastSeen.Valid {
		rsp.LastSeen = user.LastSeen.Time.Format(timeLayout)
	}
	return rsp
}
