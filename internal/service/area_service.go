package service

import (
	"context"

	"recurring-planner/internal/model"
	"recurring-planner/internal/repository"
)

// AreaService provides helpers around areas.
type AreaService struct {
	repo *repository.AreaRepository
}

func NewAreaService(repo *repository.AreaRepository) *AreaService {
	return &AreaService{repo: repo}
}

func (s *AreaService) List(ctx context.Context, user *model.User) ([]model.Area, error) {
	return s.repo.ListByUser(ctx, user.ID)
}
