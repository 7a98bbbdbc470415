package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dompet/internal/services"
)

// FamilyHandler handles family membership requests.
type FamilyHandler struct {
	familyService services.FamilyServicer
	auditService  services.AuditServicer
}

// NewFamilyHandler creates a new FamilyHandler.
func NewFamilyHandler(familyService services.FamilyServicer, auditService services.AuditServicer) *FamilyHandler {
	return &FamilyHandler{familyService: familyService, auditService: auditService}
}

// CreateFamilyRequest represents the request payload for creating a family
type CreateFamilyRequest struct {
	Name      string  `json:"name" binding:"required,max=100"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,max=500"`
}

// JoinFamilyRequest carries the invite code shared by the family admin
type JoinFamilyRequest struct {
	InviteCode string `json:"invite_code" binding:"required,invite_code"`
}

// UpdateFamilyRequest changes the family profile. An empty avatar_url clears it.
type UpdateFamilyRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=1,max=100"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,max=500"`
}

// CreateFamily creates a family with the caller as admin
// @Summary     Create a family
// @Tags        families
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateFamilyRequest true "Family details"
// @Success     201 {object} models.Family "Family created"
// @Failure     400 {object} ErrorResponse "Invalid input or already in a family"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /families [post]
func (h *FamilyHandler) CreateFamily(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateFamilyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	family, err := h.familyService.CreateFamily(c.Request.Context(), userID, req.Name, req.AvatarURL)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditCreateFamily, "family", family.ID, c.ClientIP(),
		map[string]interface{}{"name": family.Name})

	c.JSON(http.StatusCreated, gin.H{"family": family})
}

// JoinFamily adds the caller to a family by invite code
// @Summary     Join a family
// @Tags        families
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body JoinFamilyRequest true "Invite code"
// @Success     200 {object} models.Family "Joined family"
// @Failure     400 {object} ErrorResponse "Invalid input or already in a family"
// @Failure     404 {object} ErrorResponse "Unknown invite code"
// @Router      /families/join [post]
func (h *FamilyHandler) JoinFamily(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req JoinFamilyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	family, err := h.familyService.JoinFamily(c.Request.Context(), userID, req.InviteCode)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditJoinFamily, "family", family.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"family": family})
}

// GetFamily returns the caller's family
// @Summary     Get my family
// @Tags        families
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.Family "Family"
// @Failure     400 {object} ErrorResponse "Not in a family"
// @Router      /families [get]
func (h *FamilyHandler) GetFamily(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	family, err := h.familyService.GetFamily(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"family": family})
}

// GetMembers lists the members of the caller's family
// @Summary     List family members
// @Tags        families
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.FamilyMember "Members"
// @Failure     400 {object} ErrorResponse "Not in a family"
// @Router      /families/members [get]
func (h *FamilyHandler) GetMembers(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	members, err := h.familyService.GetMembers(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// UpdateFamily changes the family name or avatar (admin only)
// @Summary     Update family
// @Tags        families
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateFamilyRequest true "Family fields"
// @Success     200 {object} models.Family "Updated family"
// @Failure     403 {object} ErrorResponse "Not the family admin"
// @Router      /families [put]
func (h *FamilyHandler) UpdateFamily(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateFamilyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	family, err := h.familyService.UpdateFamily(c.Request.Context(), userID, req.Name, req.AvatarURL)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditUpdateFamily, "family", family.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"family": family})
}

// LeaveFamily removes the caller from their family
// @Summary     Leave family
// @Description The admin may only leave as the last member, which dissolves the family
// @Tags        families
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} MessageResponse "Left family"
// @Failure     400 {object} ErrorResponse "Not in a family"
// @Failure     409 {object} ErrorResponse "Admin still has members"
// @Router      /families/leave [post]
func (h *FamilyHandler) LeaveFamily(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	family, err := h.familyService.GetFamily(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.familyService.LeaveFamily(c.Request.Context(), userID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditLeaveFamily, "family", family.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Left family"})
}
