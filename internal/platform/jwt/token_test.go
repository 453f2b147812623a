package jwtmw

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"account_backend/internal/feature/account/domain/entity"
)

// fixedClock はテスト用に差し替え可能な時刻源です。
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time { return c.t }

func newTestService(t *testing.T, secret string, clock *fixedClock) *TokenService {
	t.Helper()
	svc, err := NewTokenService(secret, time.Hour, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

// TestNewTokenService は署名鍵とTTLの設定を検証します。
func TestNewTokenService(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		secret  string
		ttl     time.Duration
		wantTTL time.Duration
		wantErr bool
	}{
		{"standard config", "my-secret-key", time.Hour, time.Hour, false},
		{"zero ttl falls back to default", "secret", 0, DefaultTTL, false},
		{"custom ttl", "secret", 15 * time.Minute, 15 * time.Minute, false},
		{"missing secret", "", time.Hour, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, err := NewTokenService(tt.secret, tt.ttl)
			if tt.wantErr {
				if err != ErrMissingSecret {
					t.Fatalf("expected ErrMissingSecret, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(svc.secret) != tt.secret {
				t.Errorf("expected secret %q, got %q", tt.secret, string(svc.secret))
			}
			if svc.TTL() != tt.wantTTL {
				t.Errorf("expected ttl %v, got %v", tt.wantTTL, svc.TTL())
			}
		})
	}
}

// TestTokenService_IssueAndVerify は発行したトークンが同じIDと管理者フラグで検証されることを確認します。
func TestTokenService_IssueAndVerify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   entity.Identity
	}{
		{"regular user", entity.Identity{UserID: 1}},
		{"admin user", entity.Identity{UserID: 42, IsAdmin: true}},
		{"large user id", entity.Identity{UserID: 999999}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, _ := NewTokenService("test-secret", time.Hour)
			token, err := svc.Issue(tt.id)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token == "" {
				t.Fatal("expected non-empty token")
			}

			got := svc.Verify(token)
			if got != tt.id {
				t.Errorf("expected identity %+v, got %+v", tt.id, got)
			}
		})
	}
}

// TestTokenService_Claims はトークンのペイロードにuserId・isAdmin・expが含まれることを検証します。
func TestTokenService_Claims(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, "test-secret", &fixedClock{t: issuedAt})

	tokenStr, err := svc.Issue(entity.Identity{UserID: 7, IsAdmin: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parser := jwt.NewParser(jwt.WithTimeFunc(func() time.Time { return issuedAt }))
	token, err := parser.Parse(tokenStr, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			t.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return []byte("test-secret"), nil
	})
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}

	claims := token.Claims.(jwt.MapClaims)
	if uid, ok := claims["userId"].(float64); !ok || uint(uid) != 7 {
		t.Errorf("expected userId 7, got %v", claims["userId"])
	}
	if admin, ok := claims["isAdmin"].(bool); !ok || !admin {
		t.Errorf("expected isAdmin true, got %v", claims["isAdmin"])
	}
	if exp, ok := claims["exp"].(float64); !ok || int64(exp) != issuedAt.Add(time.Hour).Unix() {
		t.Errorf("expected exp %d, got %v", issuedAt.Add(time.Hour).Unix(), claims["exp"])
	}
}

// TestTokenService_Expiry は発行から59分後は有効、61分後は無効になることを検証します。
func TestTokenService_Expiry(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := &fixedClock{t: issuedAt}
	svc := newTestService(t, "test-secret", clock)

	token, err := svc.Issue(entity.Identity{UserID: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clock.t = issuedAt.Add(59 * time.Minute)
	if got := svc.Verify(token); got.UserID != 3 {
		t.Errorf("expected token to be valid at T+59m, got %+v", got)
	}

	clock.t = issuedAt.Add(61 * time.Minute)
	if got := svc.Verify(token); got != entity.InvalidIdentity {
		t.Errorf("expected invalid identity at T+61m, got %+v", got)
	}
}

// TestTokenService_Verify_Rejects は不正なトークンがすべて同じ無効IDになることを検証します。
func TestTokenService_Verify_Rejects(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := &fixedClock{t: issuedAt}
	svc := newTestService(t, "test-secret", clock)
	other := newTestService(t, "another-secret", clock)

	forged, _ := other.Issue(entity.Identity{UserID: 1})

	expiredClock := &fixedClock{t: issuedAt.Add(-2 * time.Hour)}
	expired, _ := newTestService(t, "test-secret", expiredClock).Issue(entity.Identity{UserID: 1})

	zeroID, _ := svc.Issue(entity.Identity{UserID: 0})

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"userId": float64(1),
		"exp":    issuedAt.Add(time.Hour).Unix(),
	})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": float64(1)})
	withoutExp, _ := noExp.SignedString([]byte("test-secret"))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"malformed", "not.a.valid.token"},
		{"random string", "randomstring"},
		{"wrong secret", forged},
		{"expired", expired},
		{"zero user id", zeroID},
		{"none algorithm", unsigned},
		{"missing exp", withoutExp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := svc.Verify(tt.token); got != entity.InvalidIdentity {
				t.Errorf("expected invalid identity, got %+v", got)
			}
		})
	}
}

func TestExtractBearer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		header    string
		wantToken string
		wantOK    bool
	}{
		{"valid bearer", "Bearer abc.def.ghi", "abc.def.ghi", true},
		{"absent header", "", "", false},
		{"basic auth", "Basic dXNlcjpwYXNz", "", false},
		{"bearer lowercase", "bearer token123", "", false},
		{"no space after Bearer", "Bearertoken123", "", false},
		{"empty token", "Bearer ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			token, ok := ExtractBearer(tt.header)
			if token != tt.wantToken || ok != tt.wantOK {
				t.Errorf("ExtractBearer(%q) = (%q, %v), want (%q, %v)", tt.header, token, ok, tt.wantToken, tt.wantOK)
			}
		})
	}
}
