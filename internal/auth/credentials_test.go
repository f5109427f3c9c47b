package auth

import (
	"errors"
	"testing"
)

func TestVerifyCredentials_Plaintext(t *testing.T) {
	if err := VerifyCredentials("admin", "secret", "admin", "secret"); err != nil {
		t.Errorf("VerifyCredentials() error = %v, want nil", err)
	}

	if err := VerifyCredentials("admin", "wrong", "admin", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}

	if err := VerifyCredentials("intruder", "secret", "admin", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong username error = %v, want ErrInvalidCredentials", err)
	}
}

func TestVerifyCredentials_Hashed(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if err := VerifyCredentials("admin", "secret", "admin", hash); err != nil {
		t.Errorf("VerifyCredentials() error = %v, want nil", err)
	}

	if err := VerifyCredentials("admin", "wrong", "admin", hash); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
}

func TestVerifyCredentials_MalformedHash(t *testing.T) {
	// A stored value that looks like a PHC hash but is broken must not
	// authenticate anything.
	err := VerifyCredentials("admin", "secret", "admin", "$argon2id$broken")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("malformed hash error = %v, want ErrInvalidCredentials", err)
	}
}
