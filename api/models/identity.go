package models

// Identity is what the request layer needs from whoever is making a request.
// Both registered users and the anonymous visitor satisfy it.
type Identity interface {
	IsAuthenticated() bool
	IsActive() bool
	IsAnonymous() bool
	GetID() string
}

// AnonymousUser stands in for a visitor without a valid token or session.
type AnonymousUser struct{}

func (AnonymousUser) IsAuthenticated() bool { return false }
func (AnonymousUser) IsActive() bool        { return false }
func (AnonymousUser) IsAnonymous() bool     { return true }
func (AnonymousUser) GetID() string         { return "" }

var (
	_ Identity = (*User)(nil)
	_ Identity = AnonymousUser{}
)
