package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pet-service/internal/models"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-5))
	assert.Equal(t, 100.0, clamp(150))
	assert.Equal(t, 42.5, clamp(42.5))
}

func TestDeriveState(t *testing.T) {
	tests := []struct {
		name     string
		pet      models.Pet
		expected string
	}{
		{
			name: "sleeping wins over everything",
			pet: models.Pet{
				IsSleeping: true,
				Metrics:    &models.PetMetrics{Health: 10, Hunger: 90},
			},
			expected: models.StateSleeping,
		},
		{
			name: "low health means sick",
			pet: models.Pet{
				Metrics: &models.PetMetrics{Health: 20, Hunger: 90, Happiness: 90},
			},
			expected: models.StateSick,
		},
		{
			name: "high hunger means hungry",
			pet: models.Pet{
				Metrics: &models.PetMetrics{Health: 100, Hunger: 80, Happiness: 90},
			},
			expected: models.StateHungry,
		},
		{
			name: "high happiness means happy",
			pet: models.Pet{
				Metrics: &models.PetMetrics{Health: 100, Hunger: 40, Happiness: 85},
			},
			expected: models.StateHappy,
		},
		{
			name: "otherwise idle",
			pet: models.Pet{
				Metrics: &models.PetMetrics{Health: 100, Hunger: 40, Happiness: 50},
			},
			expected: models.StateIdle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, deriveState(&tt.pet))
		})
	}
}

func TestGrantExperienceLevelsUp(t *testing.T) {
	s := &PetService{}
	pet := &models.Pet{Level: 1, Stage: models.StageEgg}

	// Level 1 needs 100 XP.
	s.grantExperience(pet, 99)
	assert.Equal(t, 1, pet.Level)
	assert.Equal(t, 99, pet.ExperiencePoints)

	s.grantExperience(pet, 1)
	assert.Equal(t, 2, pet.Level)
	assert.Equal(t, 0, pet.ExperiencePoints)
	assert.Equal(t, models.StageBaby, pet.Stage)
}

func TestGrantExperienceCascadesThroughLevels(t *testing.T) {
	s := &PetService{}
	pet := &models.Pet{Level: 1, Stage: models.StageEgg}

	// 100 + 200 + 300 = 600 XP carries the pet to level 4 exactly.
	s.grantExperience(pet, 600)
	assert.Equal(t, 4, pet.Level)
	assert.Equal(t, 0, pet.ExperiencePoints)
	assert.Equal(t, models.StageChild, pet.Stage)
}

func TestGrantExperienceStages(t *testing.T) {
	tests := []struct {
		level int
		stage string
	}{
		{1, models.StageEgg},
		{2, models.StageBaby},
		{4, models.StageChild},
		{7, models.StageTeen},
		{10, models.StageAdult},
	}
	s := &PetService{}
	for _, tt := range tests {
		pet := &models.Pet{Level: tt.level, Stage: models.StageEgg}
		s.grantExperience(pet, 0)
		assert.Equal(t, tt.stage, pet.Stage, "level %d", tt.level)
	}
}

func TestRoomID(t *testing.T) {
	assert.Equal(t, "42", RoomID(42))
	assert.Equal(t, "1", RoomID(1))
}

func TestRewardScalesWithDifficulty(t *testing.T) {
	currency, experience := rewardFor(1)
	assert.Equal(t, 10, currency)
	assert.Equal(t, 5, experience)

	currency, experience = rewardFor(3)
	assert.Equal(t, 30, currency)
	assert.Equal(t, 15, experience)

	// Out-of-range difficulties are clamped.
	currency, _ = rewardFor(0)
	assert.Equal(t, 10, currency)
	currency, _ = rewardFor(99)
	assert.Equal(t, 50, currency)
}
