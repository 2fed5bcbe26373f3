package handlers

import (
	"context"
	"time"

	"github.com/campdesk/campdesk/internal/auth"
	"github.com/campdesk/campdesk/internal/models"
	"github.com/campdesk/campdesk/internal/store"
	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"
)

// AccountHandler covers the admin-only account management surface. Accounts
// are created through the OAuth callback, never here.
type AccountHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewAccountHandler(db *gorm.DB, authHandler *auth.AuthHandler) *AccountHandler {
	return &AccountHandler{db: db, authHandler: authHandler}
}

type ListAccountsInput struct {
	auth.AuthInput
}

type accountResponse struct {
	ID        uint        `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

type ListAccountsOutput struct {
	Body struct {
		Accounts []accountResponse `json:"accounts"`
	}
}

func (h *AccountHandler) HandleList(ctx context.Context, input *ListAccountsInput) (*ListAccountsOutput, error) {
	if _, err := h.authHandler.RequireAdmin(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	var accounts []models.Account
	if err := h.db.WithContext(ctx).Order("username, id").Find(&accounts).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list accounts: " + err.Error())
	}

	res := &ListAccountsOutput{}
	for _, a := range accounts {
		res.Body.Accounts = append(res.Body.Accounts, accountResponse{
			ID:        a.ID,
			Username:  a.Username,
			Email:     a.Email,
			Role:      a.Role,
			CreatedAt: a.CreatedAt,
		})
	}
	return res, nil
}

type UpdateAccountRoleInput struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body struct {
		Role models.Role `json:"role" required:"true" enum:"admin,staff"`
	}
}

type AccountOutput struct {
	Body accountResponse
}

func (h *AccountHandler) HandleUpdateRole(ctx context.Context, input *UpdateAccountRoleInput) (*AccountOutput, error) {
	if _, err := h.authHandler.RequireAdmin(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	var account models.Account
	if err := h.db.WithContext(ctx).First(&account, input.ID).Error; err != nil {
		return nil, huma.Error404NotFound("Account not found")
	}

	account.Role = input.Body.Role
	if err := h.db.WithContext(ctx).Save(&account).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to update account: " + err.Error())
	}

	return &AccountOutput{Body: accountResponse{
		ID:        account.ID,
		Username:  account.Username,
		Email:     account.Email,
		Role:      account.Role,
		CreatedAt: account.CreatedAt,
	}}, nil
}

type DeleteAccountInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *AccountHandler) HandleDelete(ctx context.Context, input *DeleteAccountInput) (*struct{}, error) {
	account, err := h.authHandler.RequireAdmin(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	if account.ID == input.ID {
		return nil, huma.Error422UnprocessableEntity("Cannot delete your own account")
	}

	if err := store.DeleteAccount(h.db.WithContext(ctx), input.ID, &account.ID); err != nil {
		return nil, mapStoreError(err)
	}
	return nil, nil
}
