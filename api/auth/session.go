package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessionUserKey = "user_id"
	rememberMaxAge = 30 * 24 * 60 * 60
)

// Sessions keeps the logged-in user id in a signed cookie.
type Sessions struct {
	Store sessions.Store
	Name  string
}

func NewSessions(secret string, secure bool) *Sessions {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   rememberMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{Store: store, Name: "microblog_session"}
}

// Login writes userID into the session cookie. Without remember the cookie
// ends with the browser session.
func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, userID uint, remember bool) error {
	session, err := s.Store.Get(r, s.Name)
	if err != nil && session == nil {
		return err
	}
	session.Values[sessionUserKey] = userID
	opts := *s.options()
	if !remember {
		opts.MaxAge = 0
	}
	session.Options = &opts
	return session.Save(r, w)
}

// UserID returns the id stored by Login, if any.
func (s *Sessions) UserID(r *http.Request) (uint, bool) {
	session, err := s.Store.Get(r, s.Name)
	if err != nil || session == nil {
		return 0, false
	}
	uid, ok := session.Values[sessionUserKey].(uint)
	return uid, ok && uid != 0
}

func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	session, err := s.Store.Get(r, s.Name)
	if err != nil && session == nil {
		return err
	}
	delete(session.Values, sessionUserKey)
	opts := *s.options()
	opts.MaxAge = -1
	session.Options = &opts
	return session.Save(r, w)
}

func (s *Sessions) options() *sessions.Options {
	if cs, ok := s.Store.(*sessions.CookieStore); ok && cs.Options != nil {
		return cs.Options
	}
	return &sessions.Options{Path: "/", HttpOnly: true}
}
