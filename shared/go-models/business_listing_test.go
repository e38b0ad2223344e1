package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to ListingStatus
		want     bool
	}{
		{ListingStatusUnclaimed, ListingStatusPendingClaim, true},
		{ListingStatusPendingClaim, ListingStatusClaimed, true},
		{ListingStatusPendingClaim, ListingStatusRejected, true},
		{ListingStatusPendingClaim, ListingStatusUnclaimed, true},

		{ListingStatusUnclaimed, ListingStatusClaimed, false},
		{ListingStatusUnclaimed, ListingStatusUnclaimed, false},
		{ListingStatusClaimed, ListingStatusUnclaimed, false},
		{ListingStatusClaimed, ListingStatusPendingClaim, false},
		{ListingStatusRejected, ListingStatusPendingClaim, false},
		{ListingStatus("archived"), ListingStatusPendingClaim, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, ListingStatusClaimed.IsTerminal())
	assert.True(t, ListingStatusRejected.IsTerminal())
	assert.False(t, ListingStatusUnclaimed.IsTerminal())
	assert.False(t, ListingStatusPendingClaim.IsTerminal())
}
