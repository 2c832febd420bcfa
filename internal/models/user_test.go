package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestPatchApplyMergesByPresence(t *testing.T) {
	u := User{
		Email:       "a@b.com",
		Name:        "A",
		City:        "Pune",
		PhoneNumber: "123",
		Profile:     Profile{Bio: "old bio"},
	}

	patch := UserPatch{City: strPtr("X")}
	patch.Apply(&u)

	assert.Equal(t, "X", u.City)
	assert.Equal(t, "A", u.Name)
	assert.Equal(t, "123", u.PhoneNumber)
	assert.Equal(t, "old bio", u.Profile.Bio)
}

func TestPatchApplyIsIdempotent(t *testing.T) {
	once := User{Name: "A", City: "Pune"}
	twice := once

	patch := UserPatch{
		Name:    strPtr("B"),
		City:    strPtr("Mumbai"),
		Profile: &ProfilePatch{Bio: strPtr("new bio")},
	}

	patch.Apply(&once)
	patch.Apply(&twice)
	patch.Apply(&twice)

	assert.Equal(t, once, twice)
}

func TestPatchIsZero(t *testing.T) {
	assert.True(t, UserPatch{}.IsZero())
	assert.False(t, UserPatch{Name: strPtr("x")}.IsZero())
	assert.False(t, UserPatch{Profile: &ProfilePatch{}}.IsZero())
}

func TestSanitizedClearsPasswordHash(t *testing.T) {
	u := User{Email: "a@b.com", PasswordHash: "secret"}
	assert.Empty(t, u.Sanitized().PasswordHash)
	assert.Equal(t, "secret", u.PasswordHash)
}
