package model

import "time"

// Channel is a named marketing acquisition source ("canal") with its own
// spend/click/lead ledger and budget. Booking records reference a channel by
// its name, not its id; there is no FK integrity between the two.
type Channel struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TenantID  int64     `json:"tenant_id" bson:"tenant_id" validate:"required,gt=0"`
	Name      string    `json:"name" bson:"name" validate:"required,min=2,max=80"`
	// NameKey is the sanitized lookup form of Name. Writers persist it and
	// name-based matches use it, so display casing never splits the ledger.
	NameKey   string    `json:"-" bson:"name_key,omitempty"`
	Budget    float64   `json:"budget" bson:"budget" validate:"omitempty,gte=0"`
	Cost      float64   `json:"cost" bson:"cost" validate:"omitempty,gte=0"`
	Clicks    int64     `json:"clicks" bson:"clicks" validate:"omitempty,gte=0"`
	Leads     int64     `json:"leads" bson:"leads" validate:"omitempty,gte=0"`
	CreatedBy int64     `json:"created_by,omitempty" bson:"created_by,omitempty"`
	UpdatedBy int64     `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty" bson:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// ChannelInput is the admin-facing payload for channel create/update and
// ledger upserts. UpdatedBy must resolve to an existing admin.
type ChannelInput struct {
	ID        string  `json:"id,omitempty" validate:"omitempty,mongodb"`
	Name      string  `json:"name" validate:"required,min=2,max=80"`
	Budget    float64 `json:"budget" validate:"omitempty,gte=0"`
	Cost      float64 `json:"cost" validate:"omitempty,gte=0"`
	Clicks    int64   `json:"clicks" validate:"omitempty,gte=0"`
	Leads     int64   `json:"leads" validate:"omitempty,gte=0"`
	UpdatedBy int64   `json:"updated_by" validate:"required,gt=0"`
}

// BudgetSummary pairs the tenant-wide budget scalar with the aggregated
// channel ledger totals.
type BudgetSummary struct {
	Budget      float64 `json:"budget"`
	TotalCost   float64 `json:"total_cost"`
	TotalClicks int64   `json:"total_clicks"`
	TotalLeads  int64   `json:"total_leads"`
}
