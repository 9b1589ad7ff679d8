package model

// Tenant is an isolated clinic whose data is never mixed with another
// tenant's. BudgetTotal is the marketing budget scalar, separate from any
// individual channel's budget.
type Tenant struct {
	ID          int64   `json:"id" bson:"_id"`
	Name        string  `json:"name" bson:"name" validate:"required,min=2,max=120"`
	BudgetTotal float64 `json:"budget_total" bson:"budget_total" validate:"omitempty,gte=0"`
}

// Admin is a back-office user referenced by audit fields. Registration and
// authentication live upstream; this service only resolves admins by id.
type Admin struct {
	ID       int64  `json:"id" bson:"_id"`
	FullName string `json:"full_name" bson:"full_name"`
	Email    string `json:"email,omitempty" bson:"email,omitempty"`
}
