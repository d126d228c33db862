package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"pet-service/internal/models"
)

var (
	ErrPetNotFound  = errors.New("pet not found")
	ErrNotAnOwner   = errors.New("user does not care for this pet")
	ErrAlreadyOwner = errors.New("user already cares for this pet")
)

type PetRepository struct {
	db *gorm.DB
}

func NewPetRepository(db *gorm.DB) *PetRepository {
	return &PetRepository{db: db}
}

// Create inserts the pet together with its initial metrics row and the
// creator's ownership in one transaction.
func (r *PetRepository) Create(pet *models.Pet) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(pet).Error; err != nil {
			return fmt.Errorf("failed to create pet: %w", err)
		}
		metrics := &models.PetMetrics{
			PetID:     pet.ID,
			Happiness: 80,
			Hunger:    50,
			Health:    100,
			Energy:    100,
			Currency:  100,
		}
		if err := tx.Create(metrics).Error; err != nil {
			return fmt.Errorf("failed to create pet metrics: %w", err)
		}
		ownership := &models.PetOwnership{
			UserID: pet.CreatedBy,
			PetID:  pet.ID,
			Role:   models.RoleOwner,
		}
		if err := tx.Create(ownership).Error; err != nil {
			return fmt.Errorf("failed to create ownership: %w", err)
		}
		pet.Metrics = metrics
		return nil
	})
}

func (r *PetRepository) FindByID(id uint) (*models.Pet, error) {
	var pet models.Pet
	err := r.db.Preload("Metrics").Preload("Ownerships").Preload("Ownerships.User").
		First(&pet, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPetNotFound
		}
		return nil, err
	}
	return &pet, nil
}

// ListByUser returns every pet the user owns or cares for.
func (r *PetRepository) ListByUser(userID uint) ([]models.Pet, error) {
	var pets []models.Pet
	err := r.db.Preload("Metrics").
		Joins("JOIN pet_ownerships ON pet_ownerships.pet_id = pets.id").
		Where("pet_ownerships.user_id = ? AND pet_ownerships.deleted_at IS NULL", userID).
		Find(&pets).Error
	return pets, err
}

// IsOwner reports whether the user has any ownership over the pet.
func (r *PetRepository) IsOwner(userID, petID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.PetOwnership{}).
		Where("user_id = ? AND pet_id = ?", userID, petID).
		Count(&count).Error
	return count > 0, err
}

// OwnerIDs returns the user ids of everyone caring for the pet.
func (r *PetRepository) OwnerIDs(petID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.PetOwnership{}).
		Where("pet_id = ?", petID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// AddOwner grants a user caretaker access to the pet.
func (r *PetRepository) AddOwner(userID, petID uint, role string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.PetOwnership
		err := tx.Where("user_id = ? AND pet_id = ?", userID, petID).First(&existing).Error
		if err == nil {
			return ErrAlreadyOwner
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(&models.PetOwnership{UserID: userID, PetID: petID, Role: role}).Error
	})
}

func (r *PetRepository) UpdatePet(pet *models.Pet) error {
	return r.db.Save(pet).Error
}

// UpdateMetrics persists changed metric values.
func (r *PetRepository) UpdateMetrics(metrics *models.PetMetrics) error {
	return r.db.Save(metrics).Error
}

// SaveMetricsHistory appends a snapshot for the wellbeing graph.
func (r *PetRepository) SaveMetricsHistory(m *models.PetMetrics) error {
	return r.db.Create(&models.PetMetricsHistory{
		PetID:     m.PetID,
		Happiness: m.Happiness,
		Hunger:    m.Hunger,
		Health:    m.Health,
		Energy:    m.Energy,
	}).Error
}

// LogActivity records a care action against the pet.
func (r *PetRepository) LogActivity(petID, userID uint, activityType, details string) error {
	return r.db.Create(&models.PetActivityLog{
		PetID:        petID,
		UserID:       userID,
		ActivityType: activityType,
		Details:      details,
	}).Error
}

// BumpCareStat increments one of the per-user care counters on the
// ownership row.
func (r *PetRepository) BumpCareStat(userID, petID uint, column string) error {
	return r.db.Model(&models.PetOwnership{}).
		Where("user_id = ? AND pet_id = ?", userID, petID).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
}
