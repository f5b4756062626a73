package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nafis5858/Krishak/pkg/enums"
	pkgerrors "github.com/Nafis5858/Krishak/pkg/errors"
)

type Service interface {
	Me(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	UpdateLocation(ctx context.Context, userID uuid.UUID, input UpdateLocationInput) (*ProfileDTO, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapLookupError(err)
	}
	return FromModel(user), nil
}

func (s *service) UpdateLocation(ctx context.Context, userID uuid.UUID, input UpdateLocationInput) (*ProfileDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapLookupError(err)
	}

	switch user.Role {
	case enums.UserRoleFarmer:
		if input.Location == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "location is required")
		}
		if input.ServiceDistricts != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "service districts apply to transporters only")
		}
		if err := s.repo.UpdateFarmLocation(ctx, userID, *input.Location); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update farm location")
		}
	case enums.UserRoleTransporter:
		if input.Location == nil && input.ServiceDistricts == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "location or service districts required")
		}
		if err := s.repo.UpdateTransporterArea(ctx, userID, input.Location, normalizeDistricts(input.ServiceDistricts)); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update service area")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only farmers and transporters keep a location")
	}

	return s.Me(ctx, userID)
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
}
