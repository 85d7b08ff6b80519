package authkit_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sehatguru/authkit"
)

// testConfig implements authkit.Config
type testConfig struct {
	signingKey string
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func (c testConfig) GetSigningKey() string             { return c.signingKey }
func (c testConfig) GetIssuer() string                 { return c.issuer }
func (c testConfig) GetAccessTokenTTL() time.Duration  { return c.accessTTL }
func (c testConfig) GetRefreshTokenTTL() time.Duration { return c.refreshTTL }

func newTestConfig() testConfig {
	return testConfig{
		signingKey: "test-signing-key",
		issuer:     "test-issuer",
		accessTTL:  30 * time.Minute,
		refreshTTL: 30 * 24 * time.Hour,
	}
}

// fixedClock returns a clock pinned to t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// MockCredentialStore implements authkit.CredentialStore
type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) GetByEmail(ctx context.Context, email string) (*authkit.Credential, error) {
	args := m.Called(ctx, email)
	cred, _ := args.Get(0).(*authkit.Credential)
	return cred, args.Error(1)
}

func (m *MockCredentialStore) GetByUID(ctx context.Context, uid string) (*authkit.Credential, error) {
	args := m.Called(ctx, uid)
	cred, _ := args.Get(0).(*authkit.Credential)
	return cred, args.Error(1)
}

func (m *MockCredentialStore) Create(ctx context.Context, cred *authkit.Credential) (string, error) {
	args := m.Called(ctx, cred)
	return args.String(0), args.Error(1)
}

func (m *MockCredentialStore) Update(ctx context.Context, uid string, fields authkit.CredentialUpdate) error {
	args := m.Called(ctx, uid, fields)
	return args.Error(0)
}

func (m *MockCredentialStore) Delete(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

// MockRevocationStore implements authkit.RevocationStore
type MockRevocationStore struct {
	mock.Mock
}

func (m *MockRevocationStore) Revoke(token string, expiresAt time.Time) error {
	args := m.Called(token, expiresAt)
	return args.Error(0)
}

func (m *MockRevocationStore) IsRevoked(token string) (bool, error) {
	args := m.Called(token)
	return args.Bool(0), args.Error(1)
}

// MockIdentityRegistry implements authkit.IdentityRegistry
type MockIdentityRegistry struct {
	mock.Mock
}

func (m *MockIdentityRegistry) CreateIdentity(ctx context.Context, identity authkit.NewIdentity) (*authkit.UpstreamIdentity, error) {
	args := m.Called(ctx, identity)
	upstream, _ := args.Get(0).(*authkit.UpstreamIdentity)
	return upstream, args.Error(1)
}

func (m *MockIdentityRegistry) GetByEmail(ctx context.Context, email string) (*authkit.UpstreamIdentity, error) {
	args := m.Called(ctx, email)
	upstream, _ := args.Get(0).(*authkit.UpstreamIdentity)
	return upstream, args.Error(1)
}

func (m *MockIdentityRegistry) GetByUID(ctx context.Context, uid string) (*authkit.UpstreamIdentity, error) {
	args := m.Called(ctx, uid)
	upstream, _ := args.Get(0).(*authkit.UpstreamIdentity)
	return upstream, args.Error(1)
}

func (m *MockIdentityRegistry) UpdatePassword(ctx context.Context, uid, password string) error {
	args := m.Called(ctx, uid, password)
	return args.Error(0)
}

func (m *MockIdentityRegistry) Delete(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

func (m *MockIdentityRegistry) VerificationLink(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

// MockAssertionVerifier implements authkit.AssertionVerifier
type MockAssertionVerifier struct {
	mock.Mock
}

func (m *MockAssertionVerifier) VerifyAssertion(ctx context.Context, rawAssertion, expectedAudience string) (*authkit.FederatedIdentity, error) {
	args := m.Called(ctx, rawAssertion, expectedAudience)
	identity, _ := args.Get(0).(*authkit.FederatedIdentity)
	return identity, args.Error(1)
}

// MockMailer implements authkit.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	args := m.Called(ctx, to, subject, textBody, htmlBody)
	return args.Error(0)
}

// MockLogger implements authkit.Logger for tests asserting on log output;
// most tests use the default logger.
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) { m.Called(format, args) }
func (m *MockLogger) Info(format string, args ...any)  { m.Called(format, args) }
func (m *MockLogger) Warn(format string, args ...any)  { m.Called(format, args) }
func (m *MockLogger) Error(format string, args ...any) { m.Called(format, args) }
