package services

import (
	"context"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// AddressService manages the caller's shipping addresses.
type AddressService struct {
	repo repositories.AddressRepository
}

// NewAddressService creates a new AddressService.
func NewAddressService(repo repositories.AddressRepository) *AddressService {
	return &AddressService{repo: repo}
}

// CreateAddress stores address for the caller.
func (s *AddressService) CreateAddress(ctx context.Context, identity models.Identity, address *models.Address) error {
	address.ID = ""
	address.UserID = identity.UserID
	return s.repo.Create(ctx, address)
}

// GetAddress returns one of the caller's addresses. Other users' addresses
// are reported as missing.
func (s *AddressService) GetAddress(ctx context.Context, identity models.Identity, id string) (*models.Address, error) {
	address, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if address.UserID != identity.UserID && !identity.IsAdmin() {
		return nil, apperr.New(apperr.ErrAddressNotFound, "address with ID %s not found", id)
	}
	return address, nil
}
