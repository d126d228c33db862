package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pet-service/internal/models"
	"pet-service/internal/services"
)

type PetHandler struct {
	petService *services.PetService
}

func NewPetHandler(petService *services.PetService) *PetHandler {
	return &PetHandler{petService: petService}
}

func petIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid pet id",
		})
		return 0, false
	}
	return uint(id), true
}

func writePetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPetNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Code:    http.StatusNotFound,
			Message: "Pet not found",
		})
	case errors.Is(err, services.ErrNotCaretaker):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Code:    http.StatusForbidden,
			Message: "You do not care for this pet",
		})
	case errors.Is(err, services.ErrPetAsleep):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Code:    http.StatusConflict,
			Message: "Pet is sleeping",
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "An unexpected error occurred",
		})
	}
}

// CreatePet godoc
// @Summary Create a new pet
// @Tags pets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreatePetRequest true "Pet data"
// @Success 201 {object} models.PetResponse
// @Failure 400 {object} models.ErrorResponse "Bad request"
// @Router /pets [post]
func (h *PetHandler) CreatePet(c *gin.Context) {
	var req models.CreatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
			Details: err.Error(),
		})
		return
	}

	pet, err := h.petService.CreatePet(currentUserID(c), &req)
	if err != nil {
		writePetError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pet)
}

// ListPets godoc
// @Summary List all pets the user cares for
// @Tags pets
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.PetResponse
// @Router /pets [get]
func (h *PetHandler) ListPets(c *gin.Context) {
	pets, err := h.petService.ListPets(currentUserID(c))
	if err != nil {
		writePetError(c, err)
		return
	}
	c.JSON(http.StatusOK, pets)
}

// GetPet godoc
// @Summary Get one pet with metrics and caretakers
// @Tags pets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Pet ID"
// @Success 200 {object} models.PetResponse
// @Failure 403 {object} models.ErrorResponse "Not a caretaker"
// @Failure 404 {object} models.ErrorResponse "Pet not found"
// @Router /pets/{id} [get]
func (h *PetHandler) GetPet(c *gin.Context) {
	petID, ok := petIDParam(c)
	if !ok {
		return
	}
	pet, err := h.petService.GetPet(currentUserID(c), petID)
	if err != nil {
		writePetError(c, err)
		return
	}
	c.JSON(http.StatusOK, pet)
}

// Invite godoc
// @Summary Invite another user to care for the pet
// @Tags pets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Pet ID"
// @Param request body models.InvitePetRequest true "Invitee email"
// @Success 200 {object} map[string]string
// @Failure 403 {object} models.ErrorResponse "Not a caretaker"
// @Failure 404 {object} models.ErrorResponse "Pet or user not found"
// @Router /pets/{id}/invite [post]
func (h *PetHandler) Invite(c *gin.Context) {
	petID, ok := petIDParam(c)
	if !ok {
		return
	}
	var req models.InvitePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
			Details: err.Error(),
		})
		return
	}

	if err := h.petService.Invite(currentUserID(c), petID, req.Email); err != nil {
		if errors.Is(err, services.ErrAlreadyCaretaker) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Code:    http.StatusConflict,
				Message: "User already cares for this pet",
			})
			return
		}
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Code:    http.StatusNotFound,
				Message: "No user with that email",
			})
			return
		}
		writePetError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "invitation sent"})
}

// Feed godoc
// @Summary Feed the pet
// @Tags pets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Pet ID"
// @Success 200 {object} models.PetResponse "Updated pet"
// @Failure 403 {object} models.ErrorResponse "Not a caretaker"
// @Failure 409 {object} models.ErrorResponse "Pet is sleeping"
// @Router /pets/{id}/feed [post]
func (h *PetHandler) Feed(c *gin.Context) {
	petID, ok := petIDParam(c)
	if !ok {
		return
	}
	pet, err := h.petService.Feed(currentUserID(c), petID)
	if err != nil {
		writePetError(c, err)
		return
	}
	c.JSON(http.StatusOK, pet)
}

// Play godoc
// @Summary Play with the pet
// @Tags pets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Pet ID"
// @Success 200 {object} models.PetResponse "Updated pet"
// @Failure 403 {object} models.ErrorResponse "Not a caretaker"
// @Failure 409 {object} models.ErrorResponse "Pet is sleeping"
// @Router /pets/{id}/play [post]
func (h *PetHandler) Play(c *gin.Context) {
	petID, ok := petIDParam(c)
	if !ok {
		return
	}
	pet, err := h.petService.Play(currentUserID(c), petID)
	if err != nil {
		writePetError(c, err)
		return
	}
	c.JSON(http.StatusOK, pet)
}
