package utils

const (
	OrganizationName                      = "Qwikker"
	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"

	// ClaimVerificationPurpose binds a one-time code to the claim flow so a
	// code issued for another purpose cannot be replayed here.
	ClaimVerificationPurpose = "business_claim"

	ClaimantRoleBusinessOwner = "business_owner"

	TestEmailSuffix = "testing@qwikker.com"
)
