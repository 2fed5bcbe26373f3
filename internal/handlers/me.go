package handlers

import (
	"context"

	"github.com/campdesk/campdesk/internal/auth"
	"github.com/campdesk/campdesk/internal/models"
	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"
)

type MeHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewMeHandler(db *gorm.DB, authHandler *auth.AuthHandler) *MeHandler {
	return &MeHandler{db: db, authHandler: authHandler}
}

type MeInput struct {
	auth.AuthInput
}

type MeOutput struct {
	Body struct {
		ID       uint        `json:"id"`
		Username string      `json:"username"`
		Email    string      `json:"email"`
		Avatar   string      `json:"avatar"`
		Role     models.Role `json:"role"`
	}
}

func (h *MeHandler) HandleMe(ctx context.Context, input *MeInput) (*MeOutput, error) {
	accountID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	var account models.Account
	if err := h.db.WithContext(ctx).First(&account, accountID).Error; err != nil {
		return nil, huma.Error404NotFound("Account not found")
	}

	res := &MeOutput{}
	res.Body.ID = account.ID
	res.Body.Username = account.Username
	res.Body.Email = account.Email
	res.Body.Avatar = account.Avatar
	res.Body.Role = account.Role
	return res, nil
}
