package api

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cardapio/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const roleAdmin = "admin"

var (
	errMissingToken       = errors.New("token não fornecido")
	errInvalidToken       = errors.New("token inválido")
	errInvalidCredentials = errors.New("credenciais inválidas")
)

// AdminClaims is the payload of admin bearer tokens.
type AdminClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies HS256 admin tokens.
type Authenticator struct {
	cfg       config.AuthConfig
	peerToken string
	now       func() time.Time
}

func NewAuthenticator(cfg config.AuthConfig, peerToken string) *Authenticator {
	return &Authenticator{cfg: cfg, peerToken: peerToken, now: time.Now}
}

// Login checks the configured admin credentials and returns a signed token.
func (a *Authenticator) Login(email, password string) (string, error) {
	if a.cfg.AdminEmail == "" || a.cfg.AdminPasswordHash == "" {
		return "", errInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(strings.ToLower(email)), []byte(strings.ToLower(a.cfg.AdminEmail))) != 1 {
		return "", errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.cfg.AdminPasswordHash), []byte(password)); err != nil {
		return "", errInvalidCredentials
	}
	return a.IssueToken(a.cfg.AdminEmail)
}

func (a *Authenticator) IssueToken(email string) (string, error) {
	now := a.now()
	claims := AdminClaims{
		Email: email,
		Role:  roleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.cfg.Issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.TokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and requires the admin role.
func (a *Authenticator) Verify(token string) (*AdminClaims, error) {
	var claims AdminClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return []byte(a.cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.cfg.Issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if claims.Role != roleAdmin {
		return nil, errInvalidToken
	}
	return &claims, nil
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// requireAdmin rejects requests without a valid admin bearer token.
func (a *Authenticator) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, errMissingToken.Error())
			return
		}
		if _, err := a.Verify(token); err != nil {
			writeError(w, http.StatusUnauthorized, errInvalidToken.Error())
			return
		}
		next(w, r)
	}
}

// requireAdminOrPeer also accepts the shared token other instances use.
func (a *Authenticator) requireAdminOrPeer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, errMissingToken.Error())
			return
		}
		if a.peerToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(a.peerToken)) == 1 {
			next(w, r)
			return
		}
		if _, err := a.Verify(token); err != nil {
			writeError(w, http.StatusUnauthorized, errInvalidToken.Error())
			return
		}
		next(w, r)
	}
}
