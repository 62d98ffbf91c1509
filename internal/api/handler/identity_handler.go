package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/i3m/tenant-guard/internal/api/middleware"
	"github.com/i3m/tenant-guard/internal/api/response"
	"github.com/i3m/tenant-guard/internal/core/domain"
	"github.com/i3m/tenant-guard/internal/core/ports"
)

// IdentityHandler exposes the request identity and tenant to callers.
type IdentityHandler struct {
	tenants ports.TenantService
}

func NewIdentityHandler(tenants ports.TenantService) *IdentityHandler {
	return &IdentityHandler{tenants: tenants}
}

type meUser struct {
	ID       string      `json:"id"`
	Email    string      `json:"email,omitempty"`
	Role     domain.Role `json:"role"`
	TenantID string      `json:"tenantId,omitempty"`
}

type meData struct {
	User     meUser `json:"user"`
	TenantID string `json:"tenantId"`
}

// Me returns the identity decoded from the access token and the tenant named by
// the request.
//
// @Summary      Current identity
// @Tags         identity
// @Produce      json
// @Security     BearerAuth
// @Param        X-Tenant-ID  header    string  true  "Tenant id"
// @Success      200          {object}  response.Envelope{data=meData}
// @Failure      400          {object}  response.Envelope
// @Failure      401          {object}  response.Envelope
// @Router       /v1/me [get]
func (h *IdentityHandler) Me(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, meData{
		User: meUser{
			ID:       id.Claims.SubjectID(),
			Email:    id.Claims.Email,
			Role:     id.Claims.Role,
			TenantID: id.Claims.TenantID,
		},
		TenantID: id.TenantID,
	})
}

// Tenant returns the tenant resolved for the request.
//
// @Summary      Current tenant
// @Tags         identity
// @Produce      json
// @Security     BearerAuth
// @Param        X-Tenant-ID  header    string  true  "Tenant id"
// @Success      200          {object}  response.Envelope{data=domain.Tenant}
// @Failure      400          {object}  response.Envelope
// @Failure      403          {object}  response.Envelope
// @Router       /v1/tenant [get]
func (h *IdentityHandler) Tenant(c echo.Context) error {
	tenant, ok := middleware.TenantFrom(c)
	if !ok {
		return domain.ErrTenantNotFound
	}
	return response.OK(c, http.StatusOK, tenant)
}

type saveTenantRequest struct {
	Name      string `json:"name"      validate:"required"`
	Subdomain string `json:"subdomain" validate:"required"`
	Status    string `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
	Plan      string `json:"plan,omitempty"   validate:"omitempty,oneof=basic pro enterprise"`
}

// SaveTenant creates or replaces a tenant record.
//
// @Summary      Create or replace a tenant
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-Tenant-ID  header    string             true  "Tenant id of the caller"
// @Param        id           path      string             true  "Tenant id"
// @Param        body         body      saveTenantRequest  true  "Tenant"
// @Success      200          {object}  response.Envelope{data=domain.Tenant}
// @Failure      400          {object}  response.Envelope
// @Failure      403          {object}  response.Envelope
// @Router       /v1/tenants/{id} [put]
func (h *IdentityHandler) SaveTenant(c echo.Context) error {
	var req saveTenantRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	tenant := &domain.Tenant{
		ID:        strings.TrimSpace(c.Param("id")),
		Name:      req.Name,
		Subdomain: req.Subdomain,
		Status:    req.Status,
		Plan:      req.Plan,
	}
	if err := h.tenants.Save(c.Request().Context(), tenant); err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, tenant)
}
