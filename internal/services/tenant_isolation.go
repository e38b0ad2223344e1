package services

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-utils"
)

const securityEventTenantIsolation = "tenant_isolation_violation"

// CheckTenantIsolation compares the tenant resolved from the request host
// with the listing's stored tenant. Comparison ignores case and surrounding
// whitespace; an empty side never matches.
func CheckTenantIsolation(requestTenant, listingTenant string) error {
	req := utils.NormalizeKey(requestTenant)
	lst := utils.NormalizeKey(listingTenant)
	if req == "" || lst == "" || req != lst {
		return utils.ErrIsolationViolation
	}
	return nil
}

// enforceTenantIsolation runs CheckTenantIsolation and reports violations
// to the security log.
func enforceTenantIsolation(op string, businessID uuid.UUID, requestTenant, listingTenant string) error {
	err := CheckTenantIsolation(requestTenant, listingTenant)
	if err != nil {
		utils.SecurityEvent(securityEventTenantIsolation, logrus.Fields{
			"operation":      op,
			"business_id":    businessID.String(),
			"request_tenant": requestTenant,
			"listing_tenant": listingTenant,
		}).Warn("Tenant isolation violation blocked")
	}
	return err
}
