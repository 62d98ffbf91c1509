package domain

// Tenant status values.
const (
	TenantStatusActive   = "active"
	TenantStatusInactive = "inactive"
)

// Tenant plans. The plan selects the per-tenant request budget.
const (
	PlanBasic      = "basic"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// Tenant is an isolated customer organization.
type Tenant struct {
	ID        string `json:"id" bson:"_id"`
	Name      string `json:"name" bson:"name"`
	Subdomain string `json:"subdomain" bson:"subdomain"`
	Status    string `json:"status" bson:"status"`
	Plan      string `json:"plan" bson:"plan"`
}

// Active reports whether the tenant may serve requests.
func (t *Tenant) Active() bool {
	return t != nil && t.Status == TenantStatusActive
}

// Ref returns the summary embedded in user profiles.
func (t *Tenant) Ref() *TenantRef {
	if t == nil {
		return nil
	}
	return &TenantRef{ID: t.ID, Name: t.Name, Subdomain: t.Subdomain}
}
