package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserFullName(t *testing.T) {
	u := User{FirstName: "Ada", LastName: "Lovelace", Username: "ada"}
	assert.Equal(t, "Ada Lovelace", u.FullName())

	u = User{FirstName: "Ada", Username: "ada"}
	assert.Equal(t, "Ada", u.FullName())

	u = User{Username: "ada"}
	assert.Equal(t, "ada", u.FullName())
}

func TestIsPremiumActive(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name string
		user User
		want bool
	}{
		{"not premium", User{IsPremium: false}, false},
		{"premium no expiry", User{IsPremium: true}, true},
		{"premium future expiry", User{IsPremium: true, PremiumExpiresAt: &future}, true},
		{"premium expired", User{IsPremium: true, PremiumExpiresAt: &past}, false},
		{"not premium with future expiry", User{IsPremium: false, PremiumExpiresAt: &future}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.IsPremiumActive(now))
		})
	}
}
