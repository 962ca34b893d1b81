package domain

// SessionStore holds the one mutable Session shared across the app.
// Set replaces the whole session, there is no partial merge.
type SessionStore interface {
	Get() Session
	Set(session Session)
	Clear()
	Subscribe(fn func(Session)) (unsubscribe func())
}

// FlagStore is durable client-side storage for one-off UI flags, such as
// the post-password-change hotel registration prompt for managers.
type FlagStore interface {
	Get(name string) bool
	Set(name string, value bool) error
	ClearFlag(name string) error
}
