// AngelaMos | 2026
// jwt.go

package auth

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/socialai/internal/config"
	"github.com/carterperez-dev/socialai/internal/core"
	"github.com/carterperez-dev/socialai/internal/middleware"
)

const (
	claimRole         = "role"
	claimTokenVersion = "token_version"
	claimType         = "typ"
	typeAccess        = "access"

	clockSkew = 30 * time.Second
)

type JWTManager struct {
	signingKey jwk.Key
	verifyKey  jwk.Key
	jwks       jwk.Set
	keyID      string
	config     config.JWTConfig
}

func NewJWTManager(cfg config.JWTConfig) (*JWTManager, error) {
	signingKey, err := loadSigningKey(cfg.PrivateKeyPath)
	if err != nil {
		return nil, err
	}

	verifyKey, err := signingKey.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}

	keyID, err := thumbprintID(verifyKey)
	if err != nil {
		return nil, err
	}

	for _, k := range []jwk.Key{signingKey, verifyKey} {
		if err := k.Set(jwk.KeyIDKey, keyID); err != nil {
			return nil, fmt.Errorf("set key id: %w", err)
		}
		if err := k.Set(jwk.AlgorithmKey, jwa.ES256()); err != nil {
			return nil, fmt.Errorf("set algorithm: %w", err)
		}
	}
	if err := verifyKey.Set(jwk.KeyUsageKey, "sig"); err != nil {
		return nil, fmt.Errorf("set key usage: %w", err)
	}

	jwks := jwk.NewSet()
	if err := jwks.AddKey(verifyKey); err != nil {
		return nil, fmt.Errorf("add key to set: %w", err)
	}

	return &JWTManager{
		signingKey: signingKey,
		verifyKey:  verifyKey,
		jwks:       jwks,
		keyID:      keyID,
		config:     cfg,
	}, nil
}

func loadSigningKey(path string) (jwk.Key, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	key, err := jwk.ParseKey(raw, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	if _, ok := key.(jwk.ECDSAPrivateKey); !ok {
		return nil, fmt.Errorf("private key at %s is not an ECDSA key", path)
	}

	return key, nil
}

// thumbprintID derives the kid from the public key, so every replica
// loading the same key file publishes the same JWKS.
func thumbprintID(key jwk.Key) (string, error) {
	sum, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("key thumbprint: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sum[:12]), nil
}

// GenerateKeyPair writes a fresh P-256 key pair as PEM.
func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	raw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	private, err := jwk.Import(raw)
	if err != nil {
		return fmt.Errorf("import private key: %w", err)
	}

	public, err := private.PublicKey()
	if err != nil {
		return fmt.Errorf("derive public key: %w", err)
	}

	if err := writePEM(private, privateKeyPath, 0o600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}
	//nolint:gosec // G306: public key is meant to be world-readable
	if err := writePEM(public, publicKeyPath, 0o644); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}

	return nil
}

func writePEM(key jwk.Key, path string, perm os.FileMode) error {
	encoded, err := jwk.Pem(key)
	if err != nil {
		return err
	}
	return os.WriteFile(path, encoded, perm)
}

type AccessTokenClaims struct {
	UserID       string
	Role         string
	TokenVersion int
}

type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

func (m *JWTManager) CreateAccessToken(claims AccessTokenClaims) (*IssuedToken, error) {
	now := time.Now()
	expiresAt := now.Add(m.config.AccessTokenExpire)

	token, err := jwt.NewBuilder().
		JwtID(uuid.NewString()).
		Issuer(m.config.Issuer).
		Audience([]string{m.config.Audience}).
		Subject(claims.UserID).
		IssuedAt(now).
		NotBefore(now).
		Expiration(expiresAt).
		Claim(claimRole, claims.Role).
		Claim(claimTokenVersion, claims.TokenVersion).
		Claim(claimType, typeAccess).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), m.signingKey))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &IssuedToken{Token: string(signed), ExpiresAt: expiresAt}, nil
}

func (m *JWTManager) AccessTokenTTL() time.Duration {
	return m.config.AccessTokenExpire
}

// ParseAccessToken checks signature, issuer, audience and lifetime. It does
// not consult the denylist or the user's token version.
func (m *JWTManager) ParseAccessToken(raw string) (*middleware.AccessTokenClaims, error) {
	token, err := jwt.Parse(
		[]byte(raw),
		jwt.WithKey(jwa.ES256(), m.verifyKey),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
		jwt.WithAcceptableSkew(clockSkew),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("parse access token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("parse access token: %w", core.ErrTokenInvalid)
	}

	invalid := func(reason string) error {
		return fmt.Errorf("parse access token: %s: %w", reason, core.ErrTokenInvalid)
	}

	var typ string
	if err := token.Get(claimType, &typ); err != nil || typ != typeAccess {
		return nil, invalid("wrong token type")
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, invalid("missing subject")
	}

	var role string
	if err := token.Get(claimRole, &role); err != nil {
		return nil, invalid("missing role")
	}

	// JSON numbers come back as float64.
	var version float64
	if err := token.Get(claimTokenVersion, &version); err != nil {
		return nil, invalid("missing token version")
	}

	jti, _ := token.JwtID()
	exp, _ := token.Expiration()

	return &middleware.AccessTokenClaims{
		UserID:       subject,
		Role:         role,
		TokenVersion: int(version),
		TokenID:      jti,
		ExpiresAt:    exp,
	}, nil
}

func isTokenExpiredError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "exp") && strings.Contains(msg, "not satisfied")
}

func (m *JWTManager) GetJWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")

		if err := json.NewEncoder(w).Encode(m.jwks); err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}
}

func (m *JWTManager) GetKeyID() string {
	return m.keyID
}

// RefreshTokenData is a freshly minted opaque refresh token. Only Hash is
// persisted; Token goes to the client once.
type RefreshTokenData struct {
	Token     string
	Hash      string
	ExpiresAt time.Time
	FamilyID  string
}

// CreateRefreshToken starts a new family when familyID is empty.
func (m *JWTManager) CreateRefreshToken(familyID string) (*RefreshTokenData, error) {
	token, err := core.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if familyID == "" {
		familyID = uuid.NewString()
	}

	return &RefreshTokenData{
		Token:     token,
		Hash:      core.HashToken(token),
		ExpiresAt: time.Now().Add(m.config.RefreshTokenExpire),
		FamilyID:  familyID,
	}, nil
}
