package auth

import (
	"strings"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	authority := NewTokenAuthority("test-secret")

	token, err := authority.Issue(42, "alice", "alice@example.com", "RB1234567890", false)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, ok := authority.Verify(token)
	if !ok {
		t.Fatalf("expected freshly issued token to verify")
	}
	if claims.UserID != 42 || claims.Username != "alice" || claims.Email != "alice@example.com" {
		t.Errorf("identity mismatch after round trip: %+v", claims)
	}
	if claims.AccountNumber != "RB1234567890" {
		t.Errorf("account number mismatch: %s", claims.AccountNumber)
	}
	if claims.IsAdmin {
		t.Errorf("non-admin identity came back as admin")
	}

	adminToken, err := authority.Issue(1, "admin", "admin@royalebank.com", "RB00000001", true)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	adminClaims, ok := authority.Verify(adminToken)
	if !ok || !adminClaims.IsAdmin {
		t.Fatalf("admin flag lost in round trip")
	}
}

func TestTokenTamperDetection(t *testing.T) {
	authority := NewTokenAuthority("test-secret")

	token, err := authority.Issue(7, "bob", "bob@example.com", "RB0000000002", false)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected three token segments, got %d", len(parts))
	}

	flip := func(s string, i int) string {
		b := []byte(s)
		if b[i] == 'A' {
			b[i] = 'B'
		} else {
			b[i] = 'A'
		}
		return string(b)
	}

	t.Run("modified payload is rejected", func(t *testing.T) {
		for i := 0; i < len(parts[1]); i++ {
			forged := parts[0] + "." + flip(parts[1], i) + "." + parts[2]
			if forged == token {
				continue
			}
			if _, ok := authority.Verify(forged); ok {
				t.Fatalf("payload tampered at byte %d still verified", i)
			}
		}
	})

	t.Run("modified signature is rejected", func(t *testing.T) {
		for i := 0; i < len(parts[2]); i++ {
			forged := parts[0] + "." + parts[1] + "." + flip(parts[2], i)
			if forged == token {
				continue
			}
			if _, ok := authority.Verify(forged); ok {
				t.Fatalf("signature tampered at byte %d still verified", i)
			}
		}
	})

	t.Run("token signed with another secret is rejected", func(t *testing.T) {
		other := NewTokenAuthority("another-secret")
		foreign, err := other.Issue(7, "bob", "bob@example.com", "RB0000000002", false)
		if err != nil {
			t.Fatalf("issue failed: %v", err)
		}
		if _, ok := authority.Verify(foreign); ok {
			t.Fatalf("token from a different secret verified")
		}
	})
}

func TestTokenExpiry(t *testing.T) {
	authority := NewTokenAuthority("test-secret")
	authority.now = func() time.Time { return time.Now().Add(-TokenLifetime - time.Minute) }

	token, err := authority.Issue(9, "carol", "carol@example.com", "RB0000000003", false)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, ok := authority.Verify(token); ok {
		t.Fatalf("expired token verified")
	}
}

func TestVerifyGarbageInput(t *testing.T) {
	authority := NewTokenAuthority("test-secret")

	for _, input := range []string{"", "not-a-token", "a.b", "a.b.c.d", "....", "Bearer xyz"} {
		if _, ok := authority.Verify(input); ok {
			t.Errorf("garbage input %q verified", input)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "hunter22" {
		t.Fatalf("password stored in the clear")
	}
	if !CheckPassword(hash, "hunter22") {
		t.Errorf("correct password rejected")
	}
	if CheckPassword(hash, "hunter23") {
		t.Errorf("wrong password accepted")
	}
}
