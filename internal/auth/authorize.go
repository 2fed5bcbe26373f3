package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/campdesk/campdesk/internal/models"
	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AuthInput is embedded in every authenticated operation's input struct.
type AuthInput struct {
	Cookie string `header:"Cookie" doc:"Session cookie" required:"false"`
	APIKey string `header:"X-API-KEY" doc:"API key" required:"false"`
}

// Authorize resolves the calling account from the API key header or the JWT
// session cookie, in that order.
func (h *AuthHandler) Authorize(ctx context.Context, input AuthInput) (uint, error) {
	if input.APIKey != "" {
		var keyModel models.APIKey
		if err := h.db.Where("key = ?", input.APIKey).First(&keyModel).Error; err == nil {
			if keyModel.ExpiresAt != nil && time.Now().After(*keyModel.ExpiresAt) {
				return 0, huma.Error401Unauthorized("API key expired")
			}
			h.db.Model(&keyModel).Update("last_used_at", time.Now())
			return keyModel.AccountID, nil
		}
		return 0, huma.Error401Unauthorized("Invalid API key")
	}

	tokenString := cookieValue(input.Cookie, "auth_token")
	if tokenString == "" {
		return 0, huma.Error401Unauthorized("No token found")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, huma.Error401Unauthorized("Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, huma.Error401Unauthorized("Invalid token claims")
	}
	accountIDFloat, ok := claims["account_id"].(float64)
	if !ok {
		return 0, huma.Error401Unauthorized("Invalid token claims")
	}
	return uint(accountIDFloat), nil
}

// RequireAdmin authorizes the caller and checks the admin role. Destructive
// operations go through here.
func (h *AuthHandler) RequireAdmin(ctx context.Context, input AuthInput) (*models.Account, error) {
	accountID, err := h.Authorize(ctx, input)
	if err != nil {
		return nil, err
	}

	var account models.Account
	if err := h.db.First(&account, accountID).Error; err != nil {
		return nil, huma.Error401Unauthorized("Account not found")
	}
	if account.Role != models.RoleAdmin {
		return nil, huma.Error403Forbidden("Access denied: admin role required")
	}
	return &account, nil
}

func cookieValue(header, name string) string {
	request := http.Request{Header: http.Header{"Cookie": {header}}}
	cookie, err := request.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
