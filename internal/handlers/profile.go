package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/courier/internal/middleware"
	"github.com/example/courier/internal/models"
	"github.com/example/courier/internal/repository"
	"github.com/example/courier/internal/services"
	"github.com/example/courier/internal/utils"
)

// ProfileHandler manages rider and user profile endpoints.
type ProfileHandler struct {
	db           *gorm.DB
	registry     repository.AccountRegistry
	verification *services.VerificationService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(db *gorm.DB, registry repository.AccountRegistry, verification *services.VerificationService) *ProfileHandler {
	return &ProfileHandler{db: db, registry: registry, verification: verification}
}

type updateRiderRequest struct {
	Name  string `json:"name" validate:"omitempty,max=120"`
	Phone string `json:"phone" validate:"omitempty,phone"`
	Email string `json:"email" validate:"omitempty,email"`
	City  string `json:"city" validate:"omitempty,max=120"`
}

// UpdateRiderProfile updates the authenticated rider's name, contact
// details and city.
func (h *ProfileHandler) UpdateRiderProfile(c *fiber.Ctx) error {
	account, ok := middleware.GetCurrentAccount(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateRiderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if msg := utils.ValidateStruct(req); msg != "" {
		return validationError(msg)
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.City != "" {
		updates["city"] = req.City
	}
	if err := h.contactUpdates(c, account, req.Email, req.Phone, updates); err != nil {
		return err
	}

	return h.applyUpdates(c, account, updates)
}

type updateUserRequest struct {
	Name    string `json:"name" validate:"omitempty,max=120"`
	Phone   string `json:"phone" validate:"omitempty,phone"`
	Address string `json:"address" validate:"omitempty,max=255"`
}

// UpdateUserProfile updates the authenticated user's name, phone and
// address.
func (h *ProfileHandler) UpdateUserProfile(c *fiber.Ctx) error {
	account, ok := middleware.GetCurrentAccount(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if msg := utils.ValidateStruct(req); msg != "" {
		return validationError(msg)
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Address != "" {
		updates["address"] = req.Address
	}
	if err := h.contactUpdates(c, account, "", req.Phone, updates); err != nil {
		return err
	}

	return h.applyUpdates(c, account, updates)
}

// contactUpdates adds changed email and phone to updates after checking
// that no other account holds them.
func (h *ProfileHandler) contactUpdates(c *fiber.Ctx, account models.Account, email, phone string, updates map[string]interface{}) error {
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)
	if email == account.Creds().Email {
		email = ""
	}
	if phone == account.Creds().Phone {
		phone = ""
	}
	if email == "" && phone == "" {
		return nil
	}

	if err := h.verification.CheckAvailable(c.UserContext(), email, phone, account); err != nil {
		return err
	}
	if email != "" {
		updates["email"] = email
	}
	if phone != "" {
		updates["phone"] = phone
	}
	return nil
}

func (h *ProfileHandler) applyUpdates(c *fiber.Ctx, account models.Account, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}
	updates["updated_at"] = time.Now()

	if err := h.registry.UpdateFields(c.UserContext(), account.AccountKind(), account.AccountID(), updates); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return services.ErrDuplicateAccount
		}
		return err
	}

	updated, err := h.registry.FindByID(c.UserContext(), account.AccountKind(), account.AccountID())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "profile updated successfully",
		"data":    updated,
	})
}

// GetRiderProfile returns the public card of a rider: contact details,
// vehicle and delivery count.
func (h *ProfileHandler) GetRiderProfile(c *fiber.Ctx) error {
	riderID, err := uuid.Parse(c.Params("riderId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid rider id")
	}

	var rider models.Rider
	if err := h.db.WithContext(c.UserContext()).First(&rider, "id = ?", riderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "rider not found")
		}
		return err
	}

	var deliveries int64
	if err := h.db.WithContext(c.UserContext()).Model(&models.Order{}).
		Where("rider_id = ?", riderID).
		Count(&deliveries).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":           rider.ID,
			"name":         rider.Name,
			"phone":        rider.Phone,
			"city":         rider.City,
			"plate_number": rider.PlateNumber,
			"verified":     rider.Verified,
			"deliveries":   deliveries,
		},
	})
}

// GetOrderOwnerName returns the name of the user with the given id.
func (h *ProfileHandler) GetOrderOwnerName(c *fiber.Ctx) error {
	ownerID, err := uuid.Parse(c.Params("orderOwnerId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order owner id")
	}

	var user models.User
	if err := h.db.WithContext(c.UserContext()).Select("id", "name").First(&user, "id = ?", ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order owner not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"owner":   user.Name,
	})
}
