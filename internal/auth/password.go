package auth

import "golang.org/x/crypto/bcrypt"

// Cost 12 keeps a verify in the hundreds of milliseconds, which also acts as
// a brake on online guessing.
const bcryptCost = 12

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword compares a stored hash against a candidate password. A nil
// return means they match.
func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
