package model

import (
	"fmt"
	"net/url"
	"strings"
)

// User is the signed-in person for the current session.
type User struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// avatarBaseURL renders initials avatars when the identity provider
// returns no picture.
const avatarBaseURL = "https://ui-avatars.com/api/"

// MockUser builds a development user from an email address. The name is
// the local part of the address.
func MockUser(email string) User {
	email = strings.TrimSpace(email)
	name := email
	if at := strings.Index(email, "@"); at >= 0 {
		name = email[:at]
	}
	return User{
		Email:   email,
		Name:    name,
		Picture: AvatarURL(name),
	}
}

// AvatarURL returns a generated avatar image URL for a display name.
func AvatarURL(name string) string {
	return fmt.Sprintf(
		"%s?name=%s&background=4F46E5&color=fff",
		avatarBaseURL, url.QueryEscape(name),
	)
}
