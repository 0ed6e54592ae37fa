package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

const (
	// SessionCookie carries the signed session value.
	SessionCookie = "session"
	// CSRFCookie carries the anti-forgery token the client must echo.
	CSRFCookie = "csrf_token"
	// CSRFHeader is the header echoing the anti-forgery token.
	CSRFHeader = "X-CSRF-Token"
)

var (
	// ErrUnauthorized marks missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden marks a valid session without a matching anti-forgery token.
	ErrForbidden = errors.New("forbidden")
)

// Method names how a principal authenticated.
type Method string

const (
	MethodNone    Method = "none"
	MethodToken   Method = "token"
	MethodSession Method = "session"
)

// Principal is the authenticated caller.
type Principal struct {
	Subject string `json:"subject"`
	Method  Method `json:"method"`
}

// Credentials are the raw request credentials, kept so they can be forwarded.
type Credentials struct {
	Authorization string
	Session       string
	CSRFToken     string
}

// Empty reports whether no credential is present.
func (c Credentials) Empty() bool {
	return c.Authorization == "" && c.Session == "" && c.CSRFToken == ""
}

// Apply copies the credentials onto an outgoing request.
func (c Credentials) Apply(req *http.Request) {
	if c.Authorization != "" {
		req.Header.Set("Authorization", c.Authorization)
	}
	if c.Session != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: c.Session})
	}
	if c.CSRFToken != "" {
		req.AddCookie(&http.Cookie{Name: CSRFCookie, Value: c.CSRFToken})
		req.Header.Set(CSRFHeader, c.CSRFToken)
	}
}

// CredentialsFromRequest captures the credentials an incoming request carries.
func CredentialsFromRequest(r *http.Request) Credentials {
	creds := Credentials{Authorization: r.Header.Get("Authorization")}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		creds.Session = cookie.Value
	}
	if header := r.Header.Get(CSRFHeader); header != "" {
		creds.CSRFToken = header
	} else if cookie, err := r.Cookie(CSRFCookie); err == nil {
		creds.CSRFToken = cookie.Value
	}
	return creds
}

type contextKey string

const (
	principalKey   contextKey = "principal"
	credentialsKey contextKey = "credentials"
)

// WithPrincipal annotates ctx with the authenticated caller.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the caller if one was authenticated.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// WithCredentials annotates ctx with forwardable credentials.
func WithCredentials(ctx context.Context, c Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey, c)
}

// CredentialsFromContext returns forwardable credentials if present.
func CredentialsFromContext(ctx context.Context) (Credentials, bool) {
	c, ok := ctx.Value(credentialsKey).(Credentials)
	return c, ok
}

// Authenticator validates bearer tokens and sessions.
type Authenticator struct {
	token    string
	sessions SessionVerifier
}

// New builds an Authenticator. With no token and no verifier every request
// passes as an anonymous principal.
func New(token string, sessions SessionVerifier) *Authenticator {
	return &Authenticator{token: strings.TrimSpace(token), sessions: sessions}
}

// Open reports whether authentication is disabled.
func (a *Authenticator) Open() bool {
	return a.token == "" && a.sessions == nil
}

// Authenticate resolves the principal behind r.
func (a *Authenticator) Authenticate(r *http.Request) (Principal, error) {
	if a.Open() {
		return Principal{Subject: "anonymous", Method: MethodNone}, nil
	}

	if header := r.Header.Get("Authorization"); header != "" {
		if !strings.HasPrefix(header, "Bearer ") || a.token == "" {
			return Principal{}, ErrUnauthorized
		}
		presented := strings.TrimPrefix(header, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(a.token)) != 1 {
			return Principal{}, ErrUnauthorized
		}
		return Principal{Subject: "token", Method: MethodToken}, nil
	}

	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" || a.sessions == nil {
		return Principal{}, ErrUnauthorized
	}
	subject, err := a.sessions.VerifySession(cookie.Value)
	if err != nil {
		return Principal{}, ErrUnauthorized
	}
	if !validCSRF(r) {
		return Principal{}, ErrForbidden
	}
	return Principal{Subject: subject, Method: MethodSession}, nil
}

func validCSRF(r *http.Request) bool {
	header := r.Header.Get(CSRFHeader)
	cookie, err := r.Cookie(CSRFCookie)
	if header == "" || err != nil || cookie.Value == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(cookie.Value)) == 1
}

// Middleware rejects unauthenticated requests and stores the principal and
// forwardable credentials in the request context.
func (a *Authenticator) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := a.Authenticate(r)
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, ErrForbidden) {
				status = http.StatusForbidden
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		ctx := WithPrincipal(r.Context(), principal)
		ctx = WithCredentials(ctx, CredentialsFromRequest(r))
		next(w, r.WithContext(ctx))
	}
}
