package pet

import (
	"time"

	"github.com/google/uuid"

	"github.com/pawhaven/service-booking/internal/pkg/domain"
)

// Species is the kind of animal a profile describes.
type Species string

const (
	SpeciesDog    Species = "dog"
	SpeciesCat    Species = "cat"
	SpeciesBird   Species = "bird"
	SpeciesRabbit Species = "rabbit"
	SpeciesOther  Species = "other"
)

// IsValid returns true if the species is recognized.
func (s Species) IsValid() bool {
	switch s {
	case SpeciesDog, SpeciesCat, SpeciesBird, SpeciesRabbit, SpeciesOther:
		return true
	}
	return false
}

// PetStatus represents the lifecycle state of a pet profile.
type PetStatus string

const (
	PetStatusActive   PetStatus = "active"
	PetStatusArchived PetStatus = "archived"
)

// Pet is the aggregate root for a pet profile. Bookings reference pets and
// require that the pet belongs to the booking user.
type Pet struct {
	id           uuid.UUID
	ownerID      uuid.UUID
	name         string
	species      Species
	breed        string
	weightKg     float64
	ageMonths    int
	medicalNotes string
	status       PetStatus
	version      int64
	createdAt    time.Time
	updatedAt    time.Time
}

// NewPet creates a new active pet profile with validated fields.
func NewPet(
	ownerID uuid.UUID,
	name string,
	species Species,
	breed string,
	weightKg float64,
	ageMonths int,
	medicalNotes string,
) (*Pet, error) {
	if ownerID == uuid.Nil {
		return nil, domain.NewValidationError("owner ID is required")
	}
	if name == "" {
		return nil, domain.NewValidationError("pet name is required")
	}
	if !species.IsValid() {
		return nil, domain.NewValidationError("invalid species: " + string(species))
	}

	now := time.Now().UTC()
	return &Pet{
		id:           uuid.New(),
		ownerID:      ownerID,
		name:         name,
		species:      species,
		breed:        breed,
		weightKg:     weightKg,
		ageMonths:    ageMonths,
		medicalNotes: medicalNotes,
		status:       PetStatusActive,
		version:      1,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct rebuilds a Pet from persistence data (no validation).
func Reconstruct(
	id, ownerID uuid.UUID,
	name string,
	species Species,
	breed string,
	weightKg float64,
	ageMonths int,
	medicalNotes string,
	status PetStatus,
	version int64,
	createdAt, updatedAt time.Time,
) *Pet {
	return &Pet{
		id:           id,
		ownerID:      ownerID,
		name:         name,
		species:      species,
		breed:        breed,
		weightKg:     weightKg,
		ageMonths:    ageMonths,
		medicalNotes: medicalNotes,
		status:       status,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// --- Getters ---

func (p *Pet) ID() uuid.UUID        { return p.id }
func (p *Pet) OwnerID() uuid.UUID   { return p.ownerID }
func (p *Pet) Name() string         { return p.name }
func (p *Pet) Species() Species     { return p.species }
func (p *Pet) Breed() string        { return p.breed }
func (p *Pet) WeightKg() float64    { return p.weightKg }
func (p *Pet) AgeMonths() int       { return p.ageMonths }
func (p *Pet) MedicalNotes() string { return p.medicalNotes }
func (p *Pet) Status() PetStatus    { return p.status }
func (p *Pet) Version() int64       { return p.version }
func (p *Pet) CreatedAt() time.Time { return p.createdAt }
func (p *Pet) UpdatedAt() time.Time { return p.updatedAt }

// --- Behavior ---

// IsOwnedBy checks if the pet belongs to the given owner.
func (p *Pet) IsOwnedBy(ownerID uuid.UUID) bool {
	return p.ownerID == ownerID
}

// IsActive returns true if the pet profile is active.
func (p *Pet) IsActive() bool {
	return p.status == PetStatusActive
}

// Update applies partial updates to the pet profile.
func (p *Pet) Update(name string, species Species, breed string, weightKg float64, ageMonths int, medicalNotes string) error {
	if name != "" {
		p.name = name
	}
	if species != "" {
		if !species.IsValid() {
			return domain.NewValidationError("invalid species: " + string(species))
		}
		p.species = species
	}
	if breed != "" {
		p.breed = breed
	}
	if weightKg > 0 {
		p.weightKg = weightKg
	}
	if ageMonths > 0 {
		p.ageMonths = ageMonths
	}
	if medicalNotes != "" {
		p.medicalNotes = medicalNotes
	}
	p.version++
	p.updatedAt = time.Now().UTC()
	return nil
}

// Archive marks the pet profile as archived.
func (p *Pet) Archive() {
	p.status = PetStatusArchived
	p.version++
	p.updatedAt = time.Now().UTC()
}
