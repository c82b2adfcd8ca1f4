package jwt

import (
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenInvalid is an exported constant or variable used by the reference session service.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired is an exported constant or variable used by the reference session service.
	ErrTokenExpired = errors.New("token expired")
)

// Config defines a public type used by issueguard APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	TTL        time.Duration
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
	Issuer     string
	Leeway     time.Duration
}

// SessionClaims defines a public type used by issueguard APIs.
//
// SessionClaims instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionClaims struct {
	UID  int64  `json:"uid"`
	Name string `json:"name"`
	SID  string `json:"sid"`
	jwt.RegisteredClaims
}

// Manager defines a public type used by issueguard APIs.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Manager struct {
	config Config
}

// NewManager describes the newmanager operation and its observable behavior.
//
// NewManager may return an error when input validation fails.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if len(cfg.PrivateKey) != ed25519.PrivateKeySize {
		return nil, errors.New("ed25519 requires a private key")
	}
	if len(cfg.PublicKey) != ed25519.PublicKeySize {
		return nil, errors.New("ed25519 requires a public key")
	}
	return &Manager{config: cfg}, nil
}

// Create issues a signed session token for the given identity and session id.
func (j *Manager) Create(uid int64, name, sid string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UID:  uid,
		Name: name,
		SID:  sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.config.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(j.config.PrivateKey)
}

// Parse verifies signature, issuer, and expiry, and returns the claims.
// Expired tokens return [ErrTokenExpired]; everything else invalid returns
// [ErrTokenInvalid].
func (j *Manager) Parse(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithLeeway(j.config.Leeway),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if j.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.config.Issuer))
	}

	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return j.config.PublicKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if claims.UID == 0 || claims.SID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
