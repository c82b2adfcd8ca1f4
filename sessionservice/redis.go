package sessionservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	issueguard "github.com/mccescario1995/issueguard"
	"github.com/mccescario1995/issueguard/jwt"
	"github.com/mccescario1995/issueguard/password"
)

// ErrUnknownUser is returned by credential providers when no account
// matches the given email.
var ErrUnknownUser = errors.New("unknown user")

// UserRecord is one account as seen by the session service. PasswordHash is
// a PHC argon2id string; Attributes round-trip into the profile untouched.
type UserRecord struct {
	UserID       int64
	Username     string
	Email        string
	PasswordHash string
	Attributes   map[string]any
}

// CredentialProvider looks accounts up by email. Implementations return
// [ErrUnknownUser] for unknown addresses.
type CredentialProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserRecord, error)
}

// Redis implements [issueguard.SessionService].
//
// Redis instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Redis struct {
	client redis.UniversalClient
	prefix string
	users  CredentialProvider
	hasher *password.Argon2
	tokens *jwt.Manager
	ttl    time.Duration
}

// Config defines a public type used by issueguard APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Prefix     string
	SessionTTL time.Duration
}

// NewRedis describes the newredis operation and its observable behavior.
//
// NewRedis may return an error when input validation fails.
func NewRedis(client redis.UniversalClient, users CredentialProvider, hasher *password.Argon2, tokens *jwt.Manager, cfg Config) (*Redis, error) {
	if client == nil {
		return nil, errors.New("nil redis client")
	}
	if users == nil {
		return nil, errors.New("credential provider required")
	}
	if hasher == nil {
		return nil, errors.New("password hasher required")
	}
	if tokens == nil {
		return nil, errors.New("token manager required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, errors.New("session TTL must be positive")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "ig"
	}
	return &Redis{
		client: client,
		prefix: cfg.Prefix,
		users:  users,
		hasher: hasher,
		tokens: tokens,
		ttl:    cfg.SessionTTL,
	}, nil
}

type sessionRecord struct {
	UserID   int64          `json:"userId"`
	Username string         `json:"username"`
	Extra    map[string]any `json:"extra,omitempty"`
}

func (r *Redis) key(sid string) string {
	return fmt.Sprintf("%s:session:%s", r.prefix, sid)
}

// Login verifies credentials and creates a session. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (r *Redis) Login(ctx context.Context, email, pass string) (string, *issueguard.Profile, error) {
	user, err := r.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrUnknownUser) {
		return "", nil, issueguard.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	ok, err := r.hasher.Verify(pass, user.PasswordHash)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, issueguard.ErrInvalidCredentials
	}

	sid := uuid.NewString()
	token, err := r.tokens.Create(user.UserID, user.Username, sid)
	if err != nil {
		return "", nil, err
	}

	record := sessionRecord{
		UserID:   user.UserID,
		Username: user.Username,
		Extra:    user.Attributes,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return "", nil, err
	}
	if err := r.client.Set(ctx, r.key(sid), data, r.ttl).Err(); err != nil {
		return "", nil, err
	}

	return token, profileFromRecord(record), nil
}

// Validate checks the token signature and the server-side session record,
// and slides the record's expiry on success. Either check failing yields an
// unauthorized-class error.
func (r *Redis) Validate(ctx context.Context, token string) (*issueguard.Profile, error) {
	claims, err := r.tokens.Parse(token)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, issueguard.ErrSessionExpired
	}
	if err != nil {
		return nil, issueguard.ErrUnauthorized
	}

	data, err := r.client.Get(ctx, r.key(claims.SID)).Bytes()
	if errors.Is(err, redis.Nil) {
		// Revoked or expired server-side; the token alone proves nothing.
		return nil, issueguard.ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}

	var record sessionRecord
	if unmarshalErr := json.Unmarshal(data, &record); unmarshalErr != nil {
		return nil, issueguard.ErrUnauthorized
	}
	if record.UserID != claims.UID {
		return nil, issueguard.ErrUnauthorized
	}

	if err := r.client.PExpire(ctx, r.key(claims.SID), r.ttl).Err(); err != nil {
		return nil, err
	}

	return profileFromRecord(record), nil
}

// Logout deletes the session record. An unparsable token means there is no
// session to end, which is not an error.
func (r *Redis) Logout(ctx context.Context, token string) error {
	claims, err := r.tokens.Parse(token)
	if err != nil {
		return nil
	}
	return r.client.Del(ctx, r.key(claims.SID)).Err()
}

func profileFromRecord(record sessionRecord) *issueguard.Profile {
	p := &issueguard.Profile{
		UserID:   record.UserID,
		Username: record.Username,
	}
	if len(record.Extra) > 0 {
		p.Extra = make(map[string]any, len(record.Extra))
		for k, v := range record.Extra {
			p.Extra[k] = v
		}
	}
	return p
}
