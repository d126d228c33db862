package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"pet-service/internal/events"
	"pet-service/internal/models"
	"pet-service/internal/repositories/postgres"
	"pet-service/internal/websocket"
)

var (
	ErrPetNotFound      = errors.New("pet not found")
	ErrNotCaretaker     = errors.New("you do not care for this pet")
	ErrPetAsleep        = errors.New("pet is sleeping")
	ErrAlreadyCaretaker = errors.New("user already cares for this pet")
)

// Metric deltas applied by care actions.
const (
	feedHungerDelta    = -30
	feedHappinessDelta = 10
	playHappinessDelta = 15
	playEnergyDelta    = -20
	playExperience     = 10
)

// PetService implements the care actions. Every metric mutation is
// persisted, snapshotted into history, fanned out to the pet's room
// over the hub and published to Kafka.
type PetService struct {
	repo     *postgres.PetRepository
	users    *UserService
	hub      *websocket.Hub
	producer *events.Producer
}

func NewPetService(repo *postgres.PetRepository, users *UserService, hub *websocket.Hub, producer *events.Producer) *PetService {
	return &PetService{repo: repo, users: users, hub: hub, producer: producer}
}

// RoomID returns the hub room shared by a pet's caretakers.
func RoomID(petID uint) string {
	return strconv.FormatUint(uint64(petID), 10)
}

func (s *PetService) CreatePet(userID uint, req *models.CreatePetRequest) (*models.PetResponse, error) {
	pet := &models.Pet{
		Name:      req.Name,
		CreatedBy: userID,
	}
	if req.SpriteID != "" {
		pet.SpriteID = req.SpriteID
	}
	if req.Color != "" {
		pet.Color = req.Color
	}
	pet.Stage = models.StageEgg
	pet.CurrentState = models.StateIdle
	pet.Level = 1

	if err := s.repo.Create(pet); err != nil {
		return nil, err
	}
	slog.Info("Pet created", "petID", pet.ID, "name", pet.Name, "createdBy", userID)

	s.publish("pet_created", pet.ID, userID, pet.Name)
	resp := pet.ToResponse()
	return &resp, nil
}

func (s *PetService) ListPets(userID uint) ([]models.PetResponse, error) {
	pets, err := s.repo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.PetResponse, 0, len(pets))
	for i := range pets {
		out = append(out, pets[i].ToResponse())
	}
	return out, nil
}

func (s *PetService) GetPet(userID, petID uint) (*models.PetResponse, error) {
	pet, err := s.loadOwnedPet(userID, petID)
	if err != nil {
		return nil, err
	}
	resp := pet.ToResponse()
	return &resp, nil
}

// Invite grants another user caretaker access and notifies them in
// realtime if they are online.
func (s *PetService) Invite(ownerID, petID uint, email string) error {
	pet, err := s.loadOwnedPet(ownerID, petID)
	if err != nil {
		return err
	}
	invitee, err := s.users.FindByEmail(email)
	if err != nil {
		return err
	}
	if err := s.repo.AddOwner(invitee.ID, petID, models.RoleCaretaker); err != nil {
		if errors.Is(err, postgres.ErrAlreadyOwner) {
			return ErrAlreadyCaretaker
		}
		return err
	}

	s.hub.SendNotification(
		strconv.FormatUint(uint64(invitee.ID), 10),
		fmt.Sprintf("You have been invited to care for %s", pet.Name),
		"normal",
	)
	s.publish("caretaker_invited", petID, ownerID, email)
	return nil
}

// Feed lowers hunger and lifts happiness, then pushes the fresh
// metrics to everyone in the pet's room.
func (s *PetService) Feed(userID, petID uint) (*models.PetResponse, error) {
	pet, err := s.loadOwnedPet(userID, petID)
	if err != nil {
		return nil, err
	}
	if pet.IsSleeping {
		return nil, ErrPetAsleep
	}

	m := pet.Metrics
	m.Hunger = clamp(m.Hunger + feedHungerDelta)
	m.Happiness = clamp(m.Happiness + feedHappinessDelta)
	now := time.Now().UTC()
	pet.LastFedAt = &now

	if err := s.applyCare(pet, userID, "feed", "times_fed"); err != nil {
		return nil, err
	}
	resp := pet.ToResponse()
	return &resp, nil
}

// Play lifts happiness, costs energy and earns experience.
func (s *PetService) Play(userID, petID uint) (*models.PetResponse, error) {
	pet, err := s.loadOwnedPet(userID, petID)
	if err != nil {
		return nil, err
	}
	if pet.IsSleeping {
		return nil, ErrPetAsleep
	}

	m := pet.Metrics
	m.Happiness = clamp(m.Happiness + playHappinessDelta)
	m.Energy = clamp(m.Energy + playEnergyDelta)
	now := time.Now().UTC()
	pet.LastPlayedAt = &now
	s.grantExperience(pet, playExperience)

	if err := s.applyCare(pet, userID, "play", "times_played"); err != nil {
		return nil, err
	}
	resp := pet.ToResponse()
	return &resp, nil
}

// GrantRewards applies a completed task's payout: currency to the pet's
// shared wallet, experience to the pet. Called by the task service.
func (s *PetService) GrantRewards(userID, petID uint, currency, experience int) error {
	pet, err := s.repo.FindByID(petID)
	if err != nil {
		return err
	}
	pet.Metrics.Currency += currency
	s.grantExperience(pet, experience)

	if err := s.repo.UpdateMetrics(pet.Metrics); err != nil {
		return err
	}
	if err := s.repo.UpdatePet(pet); err != nil {
		return err
	}
	if err := s.repo.BumpCareStat(userID, petID, "tasks_completed"); err != nil {
		slog.Warn("Failed to bump care stat", "userID", userID, "petID", petID, "error", err)
	}

	room := RoomID(petID)
	s.hub.SendMetricsUpdate(room, pet.Metrics.ToMap())
	s.hub.BroadcastToRoom(room, &websocket.Envelope{
		Type:      websocket.MessageTypeCurrencyUpdate,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		PetID:     room,
		Metrics:   map[string]interface{}{"currency": pet.Metrics.Currency},
	})
	return nil
}

// OwnerIDs exposes the caretaker list for notification fan-out.
func (s *PetService) OwnerIDs(petID uint) ([]uint, error) {
	return s.repo.OwnerIDs(petID)
}

// IsCaretaker reports whether the user may act on the pet.
func (s *PetService) IsCaretaker(userID, petID uint) (bool, error) {
	return s.repo.IsOwner(userID, petID)
}

func (s *PetService) loadOwnedPet(userID, petID uint) (*models.Pet, error) {
	ok, err := s.repo.IsOwner(userID, petID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotCaretaker
	}
	pet, err := s.repo.FindByID(petID)
	if err != nil {
		if errors.Is(err, postgres.ErrPetNotFound) {
			return nil, ErrPetNotFound
		}
		return nil, err
	}
	return pet, nil
}

// applyCare persists a metric mutation and fans it out: history
// snapshot, activity log, care-stat bump, metrics push and, when the
// wellbeing state flipped, a state change broadcast.
func (s *PetService) applyCare(pet *models.Pet, userID uint, action, statColumn string) error {
	prevState := pet.CurrentState
	pet.CurrentState = deriveState(pet)

	if err := s.repo.UpdateMetrics(pet.Metrics); err != nil {
		return err
	}
	if err := s.repo.UpdatePet(pet); err != nil {
		return err
	}
	if err := s.repo.SaveMetricsHistory(pet.Metrics); err != nil {
		slog.Warn("Failed to save metrics history", "petID", pet.ID, "error", err)
	}
	if err := s.repo.LogActivity(pet.ID, userID, action, ""); err != nil {
		slog.Warn("Failed to log activity", "petID", pet.ID, "error", err)
	}
	if err := s.repo.BumpCareStat(userID, pet.ID, statColumn); err != nil {
		slog.Warn("Failed to bump care stat", "userID", userID, "petID", pet.ID, "error", err)
	}

	room := RoomID(pet.ID)
	actionKind := websocket.MessageTypePetFeed
	if action == "play" {
		actionKind = websocket.MessageTypePetPlay
	}
	s.hub.BroadcastToRoom(room, &websocket.Envelope{
		Type:      actionKind,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		UserID:    strconv.FormatUint(uint64(userID), 10),
		PetID:     room,
	})
	s.hub.SendMetricsUpdate(room, pet.Metrics.ToMap())
	if pet.CurrentState != prevState {
		s.hub.BroadcastToRoom(room, &websocket.Envelope{
			Type:      websocket.MessageTypePetStateChange,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			PetID:     room,
			Status:    pet.CurrentState,
		})
	}
	s.publish("pet_"+action, pet.ID, userID, "")
	return nil
}

// grantExperience adds XP and levels the pet up every level*100 points,
// advancing its growth stage at levels 2, 4, 7 and 10.
func (s *PetService) grantExperience(pet *models.Pet, amount int) {
	pet.ExperiencePoints += amount
	for pet.ExperiencePoints >= pet.Level*100 {
		pet.ExperiencePoints -= pet.Level * 100
		pet.Level++
	}
	switch {
	case pet.Level >= 10:
		pet.Stage = models.StageAdult
	case pet.Level >= 7:
		pet.Stage = models.StageTeen
	case pet.Level >= 4:
		pet.Stage = models.StageChild
	case pet.Level >= 2:
		pet.Stage = models.StageBaby
	}
}

func (s *PetService) publish(eventType string, petID, userID uint, details string) {
	if err := s.producer.PublishActivity(events.ActivityEvent{
		Type:    eventType,
		PetID:   petID,
		UserID:  userID,
		Details: details,
	}); err != nil {
		slog.Warn("Failed to publish activity event", "type", eventType, "petID", petID, "error", err)
	}
}

// deriveState maps a pet's metrics onto its visible state.
func deriveState(pet *models.Pet) string {
	m := pet.Metrics
	switch {
	case pet.IsSleeping:
		return models.StateSleeping
	case m.Health < 30:
		return models.StateSick
	case m.Hunger > 70:
		return models.StateHungry
	case m.Happiness > 70:
		return models.StateHappy
	default:
		return models.StateIdle
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
