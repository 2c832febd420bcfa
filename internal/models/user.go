package models

import "time"

// Provider tags record which scheme created the account.
const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
)

// Profile holds the optional free-form part of a user record.
type Profile struct {
	Bio    string `json:"bio"`
	Avatar string `json:"avatar"`
}

// User is the single record type managed by this service. ID is assigned by
// the active storage backend on creation and is the canonical identity key
// everywhere (token subject, store lookups, activity payloads). Email is a
// unique attribute used only for signup/login lookup.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	PhoneNumber  string    `json:"phoneNumber,omitempty"`
	City         string    `json:"city,omitempty"`
	Pincode      string    `json:"pincode,omitempty"`
	PhotoURL     string    `json:"photoURL,omitempty"`
	Provider     string    `json:"provider"`
	Profile      Profile   `json:"profile"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProfilePatch updates the profile sub-object field by field.
type ProfilePatch struct {
	Bio    *string `json:"bio,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// UserPatch is a merge-by-presence partial update: only non-nil fields
// overwrite existing values. Applying the same patch twice yields the same
// record as applying it once, which is what lets the workflow engine redeliver
// the profile-update activity safely.
type UserPatch struct {
	Name        *string       `json:"name,omitempty"`
	PhoneNumber *string       `json:"phoneNumber,omitempty"`
	City        *string       `json:"city,omitempty"`
	Pincode     *string       `json:"pincode,omitempty"`
	PhotoURL    *string       `json:"photoURL,omitempty"`
	Profile     *ProfilePatch `json:"profile,omitempty"`
}

// IsZero reports whether the patch carries no fields at all.
func (p UserPatch) IsZero() bool {
	return p.Name == nil && p.PhoneNumber == nil && p.City == nil &&
		p.Pincode == nil && p.PhotoURL == nil && p.Profile == nil
}

// Apply merges the patch into u. Absent fields retain their prior values.
func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = *p.PhoneNumber
	}
	if p.City != nil {
		u.City = *p.City
	}
	if p.Pincode != nil {
		u.Pincode = *p.Pincode
	}
	if p.PhotoURL != nil {
		u.PhotoURL = *p.PhotoURL
	}
	if p.Profile != nil {
		if p.Profile.Bio != nil {
			u.Profile.Bio = *p.Profile.Bio
		}
		if p.Profile.Avatar != nil {
			u.Profile.Avatar = *p.Profile.Avatar
		}
	}
}

// Sanitized returns a copy with the password hash cleared, for API responses.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}
