package service

import (
	"context"
	"strings"

	"thoughtforum/internal/models"
	"thoughtforum/internal/repository"
	"thoughtforum/internal/validation"
)

type CategoryService struct {
	categories repository.CategoryRepository
}

type CreateCategoryInput struct {
	Title string `json:"title" validate:"notblank,max=100"`
}

func NewCategoryService(categories repository.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

func (s *CategoryService) List(ctx context.Context) ([]*models.Category, error) {
	return s.categories.List(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*models.Category, error) {
	return s.categories.GetByID(ctx, id)
}

func (s *CategoryService) Create(ctx context.Context, in CreateCategoryInput) (*models.Category, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	category := &models.Category{Title: in.Title}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}
