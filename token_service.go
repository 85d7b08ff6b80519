package authkit

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// resetTokenTTL is fixed: reset links die after one hour regardless of the
// configured access/refresh lifetimes.
const resetTokenTTL = time.Hour

// TokenService is the codec for the three token kinds. A single shared HMAC
// secret signs everything; there is no kid header or rotation support.
type TokenService struct {
	signingKey []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     Logger
	clock      func() time.Time
}

// NewTokenService creates a TokenService from config.
func NewTokenService(cfg Config) *TokenService {
	return &TokenService{
		signingKey: []byte(cfg.GetSigningKey()),
		issuer:     cfg.GetIssuer(),
		accessTTL:  cfg.GetAccessTokenTTL(),
		refreshTTL: cfg.GetRefreshTokenTTL(),
		logger:     defLogger{},
		clock:      time.Now,
	}
}

// WithLogger overrides the service logger.
func (ts *TokenService) WithLogger(logger Logger) *TokenService {
	if logger != nil {
		ts.logger = logger
	}
	return ts
}

// WithClock overrides the time source. Issue and Verify both consult it, so
// tests can walk tokens across their validity window.
func (ts *TokenService) WithClock(clock func() time.Time) *TokenService {
	if clock != nil {
		ts.clock = clock
	}
	return ts
}

// TTL returns the configured lifetime for a token kind.
func (ts *TokenService) TTL(kind TokenKind) time.Duration {
	switch kind {
	case TokenAccess:
		return ts.accessTTL
	case TokenRefresh:
		return ts.refreshTTL
	case TokenPasswordReset:
		return resetTokenTTL
	}
	return 0
}

// Issue signs a token of the given kind. The subject is a uid for access and
// refresh tokens and an email for password-reset tokens; email rides along on
// access/refresh tokens only.
func (ts *TokenService) Issue(kind TokenKind, subject, email string) (string, error) {
	if !kind.Valid() {
		return "", goerrors.New("unknown token kind", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"kind": string(kind)})
	}
	if subject == "" {
		return "", goerrors.New("token subject is required", goerrors.CategoryBadInput)
	}

	now := ts.clock()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.TTL(kind))),
		},
		Email:     email,
		TokenType: kind,
	}
	ensureTokenID(&claims.RegisteredClaims)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign token")
	}
	return signed, nil
}

// Verify parses and validates a token of the expected kind. The signature
// check is terminal: a bad signature fails before any claim is inspected.
// Failure kinds: ErrBadSignature, ErrTokenExpired, ErrMalformedClaims,
// ErrWrongTokenType.
func (ts *TokenService) Verify(tokenString string, kind TokenKind) (*Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token verify rejected signing method", "alg", t.Header["alg"])
			return nil, ErrBadSignature
		}
		return ts.signingKey, nil
	}, jwt.WithTimeFunc(ts.clock))

	if err != nil {
		switch {
		case goerrors.Is(err, jwt.ErrTokenSignatureInvalid),
			goerrors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, ErrBadSignature
		case goerrors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrMalformedClaims
		}
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrMalformedClaims
	}
	if claims.RegisteredClaims.Subject == "" || claims.RegisteredClaims.ExpiresAt == nil {
		return nil, ErrMalformedClaims
	}
	if claims.TokenType != kind {
		ts.logger.Debug("token kind mismatch", "want", string(kind), "got", string(claims.TokenType))
		return nil, ErrWrongTokenType
	}

	return sessionFromClaims(claims), nil
}

// IssueResetToken mints a password-reset token scoped to an email address.
func (ts *TokenService) IssueResetToken(email string) (string, error) {
	return ts.Issue(TokenPasswordReset, email, "")
}

// VerifyResetToken validates a password-reset token and returns the email it
// is scoped to.
func (ts *TokenService) VerifyResetToken(tokenString string) (string, error) {
	session, err := ts.Verify(tokenString, TokenPasswordReset)
	if err != nil {
		return "", err
	}
	return session.UserID, nil
}

// PeekExpiry reads a token's exp claim without verifying the signature. It
// exists only as a pruning hint for revocation stores; nothing trusts it.
func (ts *TokenService) PeekExpiry(tokenString string) (time.Time, bool) {
	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, false
	}
	if claims.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.RegisteredClaims.ExpiresAt.Time, true
}
