package models

import (
	"fmt"
	"strings"
)

// Service identifies one analyzable service category. Each service is
// backed by exactly one collector.
type Service string

const (
	ServiceM365          Service = "m365"
	ServicePowerPlatform Service = "power_platform"
	ServiceDefender      Service = "defender"
	ServicePurview       Service = "purview"
)

// AllServices returns every known service in display order.
func AllServices() []Service {
	return []Service{ServiceM365, ServiceDefender, ServicePurview, ServicePowerPlatform}
}

// DisplayName returns the user-facing name of a service.
func (s Service) DisplayName() string {
	switch s {
	case ServiceM365:
		return "M365"
	case ServicePowerPlatform:
		return "Power Platform"
	case ServiceDefender:
		return "Defender"
	case ServicePurview:
		return "Purview"
	}
	return string(s)
}

// ParseService resolves a user-supplied service name. Accepts display
// names and internal identifiers, case-insensitively.
func ParseService(name string) (Service, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	if normalized == "defender_xdr" {
		normalized = "defender"
	}
	for _, s := range AllServices() {
		if normalized == string(s) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown service %q", name)
}

// ServiceRequest is the validated set of services to analyze for one run.
// An empty request means all services. Read-only after construction.
type ServiceRequest struct {
	services []Service
}

// NewServiceRequest validates the requested service names. Unknown names
// fail the whole request; there is no partial run.
func NewServiceRequest(names []string) (*ServiceRequest, error) {
	req := &ServiceRequest{}
	seen := make(map[Service]bool)
	for _, name := range names {
		svc, err := ParseService(name)
		if err != nil {
			return nil, err
		}
		if !seen[svc] {
			seen[svc] = true
			req.services = append(req.services, svc)
		}
	}
	return req, nil
}

// Services returns the services to run, expanding an empty request to all.
func (r *ServiceRequest) Services() []Service {
	if len(r.services) == 0 {
		return AllServices()
	}
	out := make([]Service, len(r.services))
	copy(out, r.services)
	return out
}

// Includes reports whether the request covers the given service.
func (r *ServiceRequest) Includes(svc Service) bool {
	for _, s := range r.Services() {
		if s == svc {
			return true
		}
	}
	return false
}
