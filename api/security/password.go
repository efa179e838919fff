package security

import "golang.org/x/crypto/bcrypt"

// Cost is the bcrypt work factor used by Hash. Tests lower it to
// bcrypt.MinCost.
var Cost = bcrypt.DefaultCost

func Hash(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), Cost)
}

// VerifyPassword returns nil on match and bcrypt.ErrMismatchedHashAndPassword
// on a wrong password. Any other error means the stored hash is unusable.
func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
