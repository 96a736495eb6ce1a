package models

// ProvisioningStatus values reported by the licensing backend for a
// service plan.
const (
	StatusSuccess           = "Success"
	StatusDisabled          = "Disabled"
	StatusPendingActivation = "PendingActivation"
	StatusPendingInput      = "PendingInput"
	StatusPendingProvision  = "PendingProvisioning"
	StatusUnknown           = "Unknown"
)

// ServicePlan is an individually provisionable feature within a SKU.
type ServicePlan struct {
	Name               string
	ProvisioningStatus string
}

// License is one purchasable SKU assigned to the tenant. Licenses are
// unique by SkuID; when the same license is observed by multiple service
// analyzers the ServiceCategories tags accumulate instead of the entry
// being duplicated.
type License struct {
	SkuID             string
	SkuPartNumber     string
	EnabledUnits      int
	ConsumedUnits     int
	ServicePlans      []ServicePlan
	ServiceCategories []Service
}

// AvailableUnits returns the purchased-but-unassigned seat count.
func (l *License) AvailableUnits() int {
	return l.EnabledUnits - l.ConsumedUnits
}

// HasCategory reports whether the license carries the given service tag.
func (l *License) HasCategory(svc Service) bool {
	for _, c := range l.ServiceCategories {
		if c == svc {
			return true
		}
	}
	return false
}
