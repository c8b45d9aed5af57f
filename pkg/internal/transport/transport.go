package transport

// Conn is the hosted pub/sub collaborator. Topics are dash-separated names
// (e.g. "conv-1-2", "user-7"); subscribe patterns may use "*" to match a
// single segment. Publish failures are reported to the caller, which decides
// between drop and retry per signal type.
type Conn interface {
	Publish(topic string, event string, payload any) error
	Subscribe(pattern string, fn func(data []byte)) (func(), error)
	Close()
}
