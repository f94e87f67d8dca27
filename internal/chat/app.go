// Package chat implements the server's authoritative registry of
// registered user profiles and online sessions, plus the public-broadcast
// and private-delivery fan-out that drives them.
package chat

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/randydom/chatroom/internal/protocol"
)

// Sentinel domain errors. Callers map these onto the wire status codes;
// they are never wrapped or logged verbatim since the wire contract needs
// stable integer codes, not error text.
var (
	ErrUserAlreadyRegistered = errors.New("chat: user already registered")
	ErrUserDoesNotExist      = errors.New("chat: user does not exist")
	ErrIncorrectPassword     = errors.New("chat: incorrect password")
)

// Handle is the connection-side capability the domain needs to push an
// event to a session: enqueue an already-encoded frame on that
// connection's outbound queue. Implementations must never block; a full
// queue is the connection's problem to report, not the domain's to wait
// on. Keeping this as a small interface means the domain package never
// needs to import internal/connection.
type Handle interface {
	Enqueue(frame []byte) error
}

// Profile is an immutable registered user record. DisplayName preserves
// the case supplied at registration; the registry indexes profiles by
// strings.ToLower(DisplayName).
type Profile struct {
	DisplayName string
	Password    string
}

type session struct {
	id         uint64
	profileKey string
	handle     Handle
}

// App is the chat domain's single mutable region: the registry of
// profiles and online sessions. Every exported method is safe to call
// concurrently; a single mutex serializes them, so many goroutines may
// call in but never more than one mutation runs at a time.
type App struct {
	mu            sync.Mutex
	profiles      map[string]Profile
	online        map[uint64]*session
	nextSessionID uint64
}

// NewApp returns an empty registry: no profiles, no online sessions, and
// a session id counter that issues 1 for the first login (0 is reserved
// as the "no session" sentinel).
func NewApp() *App {
	return &App{
		profiles: make(map[string]Profile),
		online:   make(map[uint64]*session),
	}
}

// Register inserts a new profile keyed by the lowercased display name. It
// fails with ErrUserAlreadyRegistered if that key is already taken.
// Registering does not log the user in.
func (a *App) Register(name, password string) error {
	key := strings.ToLower(name)

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.profiles[key]; exists {
		return ErrUserAlreadyRegistered
	}
	a.profiles[key] = Profile{DisplayName: name, Password: password}
	return nil
}

// Login looks up name (case-insensitively), compares password exactly,
// and on success allocates a new session bound to handle. The returned
// id is never 0 and is never reused for the lifetime of the App.
func (a *App) Login(name, password string, handle Handle) (uint64, error) {
	key := strings.ToLower(name)

	a.mu.Lock()
	defer a.mu.Unlock()

	profile, exists := a.profiles[key]
	if !exists {
		return 0, ErrUserDoesNotExist
	}
	if profile.Password != password {
		return 0, ErrIncorrectPassword
	}

	a.nextSessionID++
	id := a.nextSessionID
	a.online[id] = &session{id: id, profileKey: key, handle: handle}
	return id, nil
}

// Logout removes a session. It is idempotent: logging out an id that is
// not (or no longer) online is a silent no-op, since both an explicit
// logout request and connection-close cleanup are valid callers and
// either may fire for the same session.
func (a *App) Logout(sessionID uint64) {
	if sessionID == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.online, sessionID)
}

// OnlineUsers returns every distinct display name with at least one
// online session, sorted ascending. Two concurrent logins of the same
// user contribute one entry, not two.
func (a *App) OnlineUsers() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	seen := make(map[string]struct{}, len(a.online))
	names := make([]string, 0, len(a.online))
	for _, s := range a.online {
		profile := a.profiles[s.profileKey]
		if _, ok := seen[profile.DisplayName]; ok {
			continue
		}
		seen[profile.DisplayName] = struct{}{}
		names = append(names, profile.DisplayName)
	}
	sort.Strings(names)
	return names
}

// ProfileBySession returns the profile bound to sessionID, or
// ErrUserDoesNotExist if that session is not online.
func (a *App) ProfileBySession(sessionID uint64) (Profile, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.online[sessionID]
	if !ok {
		return Profile{}, ErrUserDoesNotExist
	}
	return a.profiles[s.profileKey], nil
}

// BroadcastPublic pushes a SendPublicMessageEvent to every online session
// except senderSessionID. It returns the sender's own display name so the
// caller (which already holds it) doesn't need a second lookup, and an
// error only if senderSessionID itself is not online.
func (a *App) BroadcastPublic(senderSessionID uint64, message string, anonymous bool) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sender, ok := a.online[senderSessionID]
	if !ok {
		return "", ErrUserDoesNotExist
	}
	senderName := a.profiles[sender.profileKey].DisplayName

	for id, s := range a.online {
		if id == senderSessionID {
			continue
		}
		frame, err := protocol.EncodeSendPublicMessageEvent(senderName, message, anonymous)
		if err != nil {
			continue
		}
		_ = s.handle.Enqueue(frame)
	}
	return senderName, nil
}

// DeliverPrivate pushes a SendPrivateMessageEvent to every online session,
// other than the sender, whose display name case-sensitively matches
// recipient. It reports whether at least one recipient received it.
func (a *App) DeliverPrivate(senderSessionID uint64, recipient, message string, anonymous bool) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sender, ok := a.online[senderSessionID]
	if !ok {
		return false, ErrUserDoesNotExist
	}
	senderName := a.profiles[sender.profileKey].DisplayName

	delivered := false
	for id, s := range a.online {
		if id == senderSessionID {
			continue
		}
		if a.profiles[s.profileKey].DisplayName != recipient {
			continue
		}
		frame, err := protocol.EncodeSendPrivateMessageEvent(senderName, message, anonymous)
		if err != nil {
			continue
		}
		_ = s.handle.Enqueue(frame)
		delivered = true
	}
	return delivered, nil
}
