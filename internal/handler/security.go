package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"

	"github.com/xenking/merchant-orders/internal/domain/auth"
)

// SecurityConfig holds the secrets used to verify credentials.
type SecurityConfig struct {
	// Pepper is the HMAC key API keys are hashed with.
	Pepper []byte
	// JWTSecret verifies HS256 bearer tokens. Bearer authentication is
	// disabled when empty.
	JWTSecret []byte
}

// SecurityHandler authenticates API requests and resolves the merchant
// account of the caller.
type SecurityHandler struct {
	apikeys   auth.APIKeyRepository
	merchants auth.MerchantRepository
	pepper    []byte
	jwtSecret []byte
}

// NewSecurityHandler creates a SecurityHandler.
func NewSecurityHandler(cfg SecurityConfig, apikeys auth.APIKeyRepository, merchants auth.MerchantRepository) *SecurityHandler {
	return &SecurityHandler{
		apikeys:   apikeys,
		merchants: merchants,
		pepper:    cfg.Pepper,
		jwtSecret: cfg.JWTSecret,
	}
}

// Authenticate is a middleware that resolves the caller to an
// auth.Principal and stores it in the request context. Requests without
// valid credentials get 401, users without a merchant account get 403.
func (s *SecurityHandler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := s.identify(ctx, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		merchantID, err := s.merchants.MerchantIDByUser(ctx, userID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx = auth.WithPrincipal(ctx, auth.Principal{
			UserID:     userID,
			MerchantID: merchantID,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identify returns the user id carried by the request credentials. The
// api_key header takes precedence over a bearer token.
func (s *SecurityHandler) identify(ctx context.Context, r *http.Request) (int64, error) {
	if key := r.Header.Get("api_key"); key != "" {
		return s.identifyAPIKey(ctx, key)
	}
	if token, ok := bearerToken(r); ok {
		return s.identifyBearer(token)
	}
	return 0, auth.ErrUnauthorized
}

// identifyAPIKey computes the HMAC-SHA256 of the key, looks it up and
// compares the stored hash in constant time.
func (s *SecurityHandler) identifyAPIKey(ctx context.Context, key string) (int64, error) {
	hash := HashAPIKey(s.pepper, key)

	info, err := s.apikeys.FindByHash(ctx, hex.EncodeToString(hash))
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			return 0, auth.ErrUnauthorized
		}
		return 0, errors.Wrap(err, "find api key")
	}

	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
		return 0, auth.ErrUnauthorized
	}
	return info.UserID, nil
}

func (s *SecurityHandler) identifyBearer(token string) (int64, error) {
	if len(s.jwtSecret) == 0 {
		return 0, auth.ErrUnauthorized
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, auth.ErrUnauthorized
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, auth.ErrUnauthorized
	}
	return userID, nil
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

// HashAPIKey returns the HMAC-SHA256 of key under pepper. Stored key hashes
// are its hex encoding.
func HashAPIKey(pepper []byte, key string) []byte {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return mac.Sum(nil)
}
