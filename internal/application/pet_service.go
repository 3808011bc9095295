package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	petDomain "github.com/pawhaven/service-booking/internal/domain/pet"
	"github.com/pawhaven/service-booking/internal/pkg/domain"
)

// CreatePetRequest is the request DTO for creating a pet profile.
type CreatePetRequest struct {
	Name         string  `json:"name" binding:"required"`
	Species      string  `json:"species" binding:"required"`
	Breed        string  `json:"breed"`
	WeightKg     float64 `json:"weight_kg"`
	AgeMonths    int     `json:"age_months"`
	MedicalNotes string  `json:"medical_notes"`
}

// UpdatePetRequest is the request DTO for updating a pet profile.
type UpdatePetRequest struct {
	Name         string  `json:"name"`
	Species      string  `json:"species"`
	Breed        string  `json:"breed"`
	WeightKg     float64 `json:"weight_kg"`
	AgeMonths    int     `json:"age_months"`
	MedicalNotes string  `json:"medical_notes"`
}

// PetDTO is the API response representation of a pet profile.
type PetDTO struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	Name         string    `json:"name"`
	Species      string    `json:"species"`
	Breed        string    `json:"breed,omitempty"`
	WeightKg     float64   `json:"weight_kg,omitempty"`
	AgeMonths    int       `json:"age_months,omitempty"`
	MedicalNotes string    `json:"medical_notes,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PetService implements use cases for pet profile management.
type PetService struct {
	repo   petDomain.PetRepository
	logger *zap.Logger
}

// NewPetService creates a new PetService.
func NewPetService(repo petDomain.PetRepository, logger *zap.Logger) *PetService {
	return &PetService{repo: repo, logger: logger}
}

// CreatePet creates a new pet profile for the given owner.
func (s *PetService) CreatePet(ctx context.Context, ownerID uuid.UUID, req CreatePetRequest) (*PetDTO, error) {
	pet, err := petDomain.NewPet(
		ownerID,
		req.Name,
		petDomain.Species(req.Species),
		req.Breed,
		req.WeightKg,
		req.AgeMonths,
		req.MedicalNotes,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, pet); err != nil {
		s.logger.Error("failed to create pet", zap.Error(err))
		return nil, fmt.Errorf("failed to create pet: %w", err)
	}

	s.logger.Info("pet profile created",
		zap.String("pet_id", pet.ID().String()),
		zap.String("owner_id", ownerID.String()),
	)
	result := toPetDTO(pet)
	return &result, nil
}

// GetMyPets returns all active pet profiles for the given owner.
func (s *PetService) GetMyPets(ctx context.Context, ownerID uuid.UUID) ([]PetDTO, error) {
	pets, err := s.repo.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pets: %w", err)
	}
	dtos := make([]PetDTO, len(pets))
	for i, p := range pets {
		dtos[i] = toPetDTO(p)
	}
	return dtos, nil
}

// GetPet returns a single pet profile by ID, verifying ownership.
func (s *PetService) GetPet(ctx context.Context, ownerID, petID uuid.UUID) (*PetDTO, error) {
	pet, err := s.ownedPet(ctx, ownerID, petID)
	if err != nil {
		return nil, err
	}
	result := toPetDTO(pet)
	return &result, nil
}

// UpdatePet updates a pet profile, verifying ownership.
func (s *PetService) UpdatePet(ctx context.Context, ownerID, petID uuid.UUID, req UpdatePetRequest) (*PetDTO, error) {
	pet, err := s.ownedPet(ctx, ownerID, petID)
	if err != nil {
		return nil, err
	}

	if err := pet.Update(
		req.Name,
		petDomain.Species(req.Species),
		req.Breed,
		req.WeightKg,
		req.AgeMonths,
		req.MedicalNotes,
	); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, pet); err != nil {
		s.logger.Error("failed to update pet", zap.Error(err))
		return nil, err
	}

	s.logger.Info("pet profile updated", zap.String("pet_id", petID.String()))
	result := toPetDTO(pet)
	return &result, nil
}

// ArchivePet archives a pet profile so it no longer appears in listings and
// cannot be booked, verifying ownership.
func (s *PetService) ArchivePet(ctx context.Context, ownerID, petID uuid.UUID) error {
	pet, err := s.ownedPet(ctx, ownerID, petID)
	if err != nil {
		return err
	}

	pet.Archive()
	if err := s.repo.Update(ctx, pet); err != nil {
		s.logger.Error("failed to archive pet", zap.Error(err))
		return err
	}

	s.logger.Info("pet profile archived", zap.String("pet_id", petID.String()))
	return nil
}

func (s *PetService) ownedPet(ctx context.Context, ownerID, petID uuid.UUID) (*petDomain.Pet, error) {
	pet, err := s.repo.FindByID(ctx, petID)
	if err != nil {
		return nil, err
	}
	if !pet.IsOwnedBy(ownerID) {
		return nil, domain.NewForbiddenError("you do not own this pet profile")
	}
	return pet, nil
}

func toPetDTO(p *petDomain.Pet) PetDTO {
	return PetDTO{
		ID:           p.ID(),
		OwnerID:      p.OwnerID(),
		Name:         p.Name(),
		Species:      string(p.Species()),
		Breed:        p.Breed(),
		WeightKg:     p.WeightKg(),
		AgeMonths:    p.AgeMonths(),
		MedicalNotes: p.MedicalNotes(),
		Status:       string(p.Status()),
		CreatedAt:    p.CreatedAt(),
		UpdatedAt:    p.UpdatedAt(),
	}
}
