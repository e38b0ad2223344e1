package routes

const (
	// Health
	Health  = "/health"
	Metrics = "/metrics"

	// Claims
	Claims = "/api/v1/claims"

	// Listings
	ListingClaimStatus = "/api/v1/listings/{id}/claim-status"
)
