package domain

// Entity is the legal or business unit that owns bank accounts, invoices and payments.
// Its identity is immutable once anything references it.
type Entity struct {
	EntityID     string `json:"entityID"`
	Name         string `json:"name"`
	BaseCurrency string `json:"baseCurrency"`
	IsActive     bool   `json:"isActive"`
	AuditFields
}
