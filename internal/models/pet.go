package models

import (
	"time"

	"gorm.io/gorm"
)

/** --------------------ENTITIES-------------------- */

// Pet growth stages.
const (
	StageEgg   = "egg"
	StageBaby  = "baby"
	StageChild = "child"
	StageTeen  = "teen"
	StageAdult = "adult"
)

// Pet behavioural states pushed to clients as pet_state_change events.
const (
	StateIdle     = "idle"
	StateHappy    = "happy"
	StateHungry   = "hungry"
	StateSleeping = "sleeping"
	StateSick     = "sick"
)

// Pet is a shared virtual pet cared for by one or more owners.
type Pet struct {
	gorm.Model
	Name             string `gorm:"not null" json:"name"`
	SpriteID         string `gorm:"default:cat_01" json:"sprite_id"`
	Color            string `gorm:"default:#FFB6C1" json:"color"`
	Stage            string `gorm:"default:egg" json:"stage"`
	CurrentState     string `gorm:"default:idle" json:"current_state"`
	Level            int    `gorm:"default:1" json:"level"`
	ExperiencePoints int    `gorm:"default:0" json:"experience_points"`
	IsSleeping       bool   `gorm:"default:false" json:"is_sleeping"`
	CreatedBy        uint   `gorm:"not null" json:"created_by"`

	LastFedAt    *time.Time `json:"last_fed_at,omitempty"`
	LastPlayedAt *time.Time `json:"last_played_at,omitempty"`

	Metrics    *PetMetrics    `json:"metrics,omitempty"`
	Ownerships []PetOwnership `json:"-"`
}

// Ownership roles. The creator becomes the owner; invited users join
// as caretakers.
const (
	RoleOwner     = "owner"
	RoleCaretaker = "caretaker"
)

// PetOwnership links a user to a pet and accumulates per-user care stats.
type PetOwnership struct {
	gorm.Model
	UserID uint   `gorm:"uniqueIndex:idx_user_pet;not null" json:"user_id"`
	PetID  uint   `gorm:"uniqueIndex:idx_user_pet;not null" json:"pet_id"`
	Role   string `gorm:"default:caretaker" json:"role"`

	TasksCompleted int `gorm:"default:0" json:"tasks_completed"`
	TimesFed       int `gorm:"default:0" json:"times_fed"`
	TimesPlayed    int `gorm:"default:0" json:"times_played"`

	User *User `json:"user,omitempty"`
}

// PetMetrics holds the live wellbeing values for a pet. All four stats
// are clamped to [0, 100].
type PetMetrics struct {
	gorm.Model
	PetID     uint    `gorm:"uniqueIndex;not null" json:"pet_id"`
	Happiness float64 `gorm:"default:80" json:"happiness"`
	Hunger    float64 `gorm:"default:50" json:"hunger"`
	Health    float64 `gorm:"default:100" json:"health"`
	Energy    float64 `gorm:"default:100" json:"energy"`
	Currency  int     `gorm:"default:100" json:"currency"`
}

// ToMap flattens the metrics into the shape carried by
// pet_metrics_update envelopes.
func (m *PetMetrics) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"happiness": m.Happiness,
		"hunger":    m.Hunger,
		"health":    m.Health,
		"energy":    m.Energy,
		"currency":  m.Currency,
	}
}

// PetMetricsHistory is an append-only snapshot trail used for the
// wellbeing graph on the pet detail screen.
type PetMetricsHistory struct {
	gorm.Model
	PetID     uint    `gorm:"index;not null" json:"pet_id"`
	Happiness float64 `json:"happiness"`
	Hunger    float64 `json:"hunger"`
	Health    float64 `json:"health"`
	Energy    float64 `json:"energy"`
}

// PetActivityLog records who did what to a pet.
type PetActivityLog struct {
	gorm.Model
	PetID        uint   `gorm:"index;not null" json:"pet_id"`
	UserID       uint   `gorm:"not null" json:"user_id"`
	ActivityType string `gorm:"not null" json:"activity_type"`
	Details      string `json:"details,omitempty"`
}

/** -------------------- DTOs -------------------- */

type CreatePetRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=50"`
	SpriteID string `json:"sprite_id,omitempty"`
	Color    string `json:"color,omitempty"`
}

type FeedPetRequest struct {
	FoodType string `json:"food_type,omitempty"`
}

type InvitePetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type PetResponse struct {
	ID               uint                   `json:"id"`
	Name             string                 `json:"name"`
	SpriteID         string                 `json:"sprite_id"`
	Color            string                 `json:"color"`
	Stage            string                 `json:"stage"`
	CurrentState     string                 `json:"current_state"`
	Level            int                    `json:"level"`
	ExperiencePoints int                    `json:"experience_points"`
	IsSleeping       bool                   `json:"is_sleeping"`
	CreatedAt        time.Time              `json:"created_at"`
	Metrics          map[string]interface{} `json:"metrics,omitempty"`
	Owners           []PetOwnerInfo         `json:"owners,omitempty"`
}

type PetOwnerInfo struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// ToResponse converts a Pet (with preloaded metrics and ownerships)
// into its API shape.
func (p *Pet) ToResponse() PetResponse {
	resp := PetResponse{
		ID:               p.ID,
		Name:             p.Name,
		SpriteID:         p.SpriteID,
		Color:            p.Color,
		Stage:            p.Stage,
		CurrentState:     p.CurrentState,
		Level:            p.Level,
		ExperiencePoints: p.ExperiencePoints,
		IsSleeping:       p.IsSleeping,
		CreatedAt:        p.CreatedAt,
	}
	if p.Metrics != nil {
		resp.Metrics = p.Metrics.ToMap()
	}
	for _, o := range p.Ownerships {
		info := PetOwnerInfo{UserID: o.UserID, Role: o.Role}
		if o.User != nil {
			info.Username = o.User.Username
		}
		resp.Owners = append(resp.Owners, info)
	}
	return resp
}
