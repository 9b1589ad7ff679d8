package model

// ExamCatalogEntry is a tenant's bookable exam with a patient-facing price
// and a doctor payout price. The catalog is maintained by the upstream admin
// surface; this service reads it for pricing and attribution.
type ExamCatalogEntry struct {
	ID          int64   `json:"id" bson:"_id"`
	TenantID    int64   `json:"tenant_id" bson:"tenant_id"`
	Name        string  `json:"name" bson:"name"`
	Category    string  `json:"category,omitempty" bson:"category,omitempty"`
	Price       float64 `json:"price" bson:"price"`
	DoctorPrice float64 `json:"doctor_price" bson:"doctor_price"`
}

// ExamPrices is the price pair looked up for one catalog entry.
type ExamPrices struct {
	Price       float64 `json:"price"`
	DoctorPrice float64 `json:"doctor_price"`
}

type Doctor struct {
	ID       int64   `json:"id" bson:"_id"`
	FullName string  `json:"full_name" bson:"full_name"`
	Tenants  []int64 `json:"tenants,omitempty" bson:"tenants,omitempty"`
}

type Patient struct {
	ID       int64   `json:"id" bson:"_id"`
	FullName string  `json:"full_name" bson:"full_name"`
	Phone    string  `json:"phone,omitempty" bson:"phone,omitempty"`
	Gender   string  `json:"gender,omitempty" bson:"gender,omitempty"`
	Channel  string  `json:"channel,omitempty" bson:"channel,omitempty"`
	Tenants  []int64 `json:"tenants,omitempty" bson:"tenants,omitempty"`
}
