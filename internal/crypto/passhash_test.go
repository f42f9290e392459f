package crypto

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestRandBytes_LengthAndUniqueness(t *testing.T) {
	t.Parallel()

	const n = 32
	a, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	if len(a) != n {
		t.Fatalf("len=%d, want=%d", len(a), n)
	}
	b, _ := RandBytes(n)
	if bytes.Equal(a, b) {
		t.Fatalf("two subsequent RandBytes(%d) are equal", n)
	}
}

func TestHashPassword_SaltedAndVerifiable(t *testing.T) {
	t.Parallel()

	h1, err := HashPassword("devpass1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h2, _ := HashPassword("devpass1")
	if h1 == h2 {
		t.Fatalf("hashes of same password must differ by salt")
	}
	if !strings.HasPrefix(h1, "argon2id$v=19$") {
		t.Fatalf("unexpected encoding: %s", h1)
	}

	ok, err := VerifyPassword("devpass1", h1)
	if err != nil || !ok {
		t.Fatalf("verify good: ok=%v err=%v", ok, err)
	}
	ok, err = VerifyPassword("wrong", h1)
	if err != nil || ok {
		t.Fatalf("verify bad: ok=%v err=%v", ok, err)
	}
}

func TestVerifyPassword_Malformed(t *testing.T) {
	t.Parallel()

	for _, enc := range []string{
		"",
		"bcrypt$x",
		"argon2id$v=18$m=1,t=1,p=1$AA$AA",
		"argon2id$v=19$garbage$AA$AA",
		"argon2id$v=19$m=1024,t=1,p=1$!!$AA",
		"argon2id$v=19$m=1024,t=1,p=1$AA$",
	} {
		if _, err := VerifyPassword("x", enc); !errors.Is(err, ErrMalformedHash) {
			t.Fatalf("%q: want ErrMalformedHash, got %v", enc, err)
		}
	}
}
