package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/campdesk/campdesk/internal/auth"
	"github.com/campdesk/campdesk/internal/models"
	"github.com/campdesk/campdesk/internal/query"
	"github.com/campdesk/campdesk/internal/store"
	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"
)

type MaterialHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewMaterialHandler(db *gorm.DB, authHandler *auth.AuthHandler) *MaterialHandler {
	return &MaterialHandler{db: db, authHandler: authHandler}
}

type materialBody struct {
	Name         string     `json:"name" required:"true"`
	Description  string     `json:"description"`
	AvailableQty int        `json:"available_qty"`
	Condition    string     `json:"condition"`
	Photo        string     `json:"photo"`
	PurchasedOn  *time.Time `json:"purchased_on"`
	UnitPrice    *float64   `json:"unit_price"`
	Supplier     string     `json:"supplier"`
}

func (b *materialBody) validate() error {
	if b.AvailableQty < 0 {
		return huma.Error422UnprocessableEntity("Quantity cannot be negative")
	}
	if b.UnitPrice != nil && *b.UnitPrice < 0 {
		return huma.Error422UnprocessableEntity("Unit price cannot be negative")
	}
	return nil
}

func (b *materialBody) apply(m *models.Material) {
	m.Name = b.Name
	m.Description = b.Description
	m.AvailableQty = b.AvailableQty
	m.Condition = b.Condition
	m.Photo = b.Photo
	m.PurchasedOn = b.PurchasedOn
	m.UnitPrice = b.UnitPrice
	m.Supplier = b.Supplier
}

type ListMaterialsInput struct {
	auth.AuthInput
	Search  string `query:"q"`
	InStock bool   `query:"in_stock"`
	Page    int    `query:"page" minimum:"1" default:"1"`
}

type ListMaterialsOutput struct {
	Body struct {
		Materials []models.Material `json:"materials"`
		Total     int64             `json:"total"`
		Page      int               `json:"page"`
	}
}

func (h *MaterialHandler) HandleList(ctx context.Context, input *ListMaterialsInput) (*ListMaterialsOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	materials, total, err := query.Materials(h.db.WithContext(ctx), query.MaterialFilter{
		Search:      input.Search,
		InStockOnly: input.InStock,
	}, input.Page)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list materials: " + err.Error())
	}

	res := &ListMaterialsOutput{}
	res.Body.Materials = materials
	res.Body.Total = total
	res.Body.Page = input.Page
	return res, nil
}

type GetMaterialInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type MaterialOutput struct {
	Body models.Material
}

func (h *MaterialHandler) HandleGet(ctx context.Context, input *GetMaterialInput) (*MaterialOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	var material models.Material
	if err := h.db.WithContext(ctx).First(&material, input.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Material not found")
		}
		return nil, huma.Error500InternalServerError("Database error")
	}
	return &MaterialOutput{Body: material}, nil
}

type CreateMaterialInput struct {
	auth.AuthInput
	Body materialBody
}

func (h *MaterialHandler) HandleCreate(ctx context.Context, input *CreateMaterialInput) (*MaterialOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	if err := input.Body.validate(); err != nil {
		return nil, err
	}

	var material models.Material
	input.Body.apply(&material)

	if err := h.db.WithContext(ctx).Create(&material).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create material: " + err.Error())
	}
	return &MaterialOutput{Body: material}, nil
}

type UpdateMaterialInput struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body materialBody
}

func (h *MaterialHandler) HandleUpdate(ctx context.Context, input *UpdateMaterialInput) (*MaterialOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	if err := input.Body.validate(); err != nil {
		return nil, err
	}

	var material models.Material
	if err := h.db.WithContext(ctx).First(&material, input.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Material not found")
		}
		return nil, huma.Error500InternalServerError("Database error")
	}

	input.Body.apply(&material)
	if err := h.db.WithContext(ctx).Save(&material).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to update material: " + err.Error())
	}
	return &MaterialOutput{Body: material}, nil
}

type DeleteMaterialInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *MaterialHandler) HandleDelete(ctx context.Context, input *DeleteMaterialInput) (*struct{}, error) {
	account, err := h.authHandler.RequireAdmin(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	if err := store.DeleteMaterial(h.db.WithContext(ctx), input.ID, &account.ID); err != nil {
		return nil, mapStoreError(err)
	}
	return nil, nil
}
