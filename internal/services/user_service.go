package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"shopauth/internal/repositories"
	"shopauth/internal/services/dto"
	"shopauth/pkg/apperrors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// UserService serves account reads outside the credential flows.
type UserService interface {
	GetUser(ctx context.Context, db *gorm.DB, userID string) (*dto.UserResponse, error)
	ListUsers(ctx context.Context, db *gorm.DB, page, pageSize int) (*dto.UserListResponse, error)
}

type userService struct {
	users repositories.UserRepository
}

func NewUserService(users repositories.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) GetUser(ctx context.Context, db *gorm.DB, userID string) (*dto.UserResponse, error) {
	user, err := s.users.FindByID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrNotFound(err, "User not found")
		}
		return nil, apperrors.InternalError(err)
	}
	return dto.NewUserResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, db *gorm.DB, page, pageSize int) (*dto.UserListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	total, err := s.users.CountAll(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	users, err := s.users.FindAll(db, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, *dto.NewUserResponse(&users[i]))
	}

	return &dto.UserListResponse{
		Users:    out,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}
