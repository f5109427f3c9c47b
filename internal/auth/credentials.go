package auth

import (
	"crypto/subtle"
	"strings"
)

// VerifyCredentials checks a username/password pair against the configured
// credential. The stored password may be either an Argon2id PHC hash
// (recommended for production) or a plaintext value (local development only);
// plaintext comparison is constant-time either way.
func VerifyCredentials(username, password, wantUsername, stored string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(wantUsername)) == 1

	var passOK bool
	if strings.HasPrefix(stored, "$argon2id$") {
		ok, err := VerifyPassword(password, stored)
		if err != nil {
			return ErrInvalidCredentials
		}
		passOK = ok
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1
	}

	if !userOK || !passOK {
		return ErrInvalidCredentials
	}
	return nil
}
