package utils

import (
    "testing"
    "time"
)

func TestIssueAndClaims_Roundtrip(t *testing.T) {
    t.Parallel()

    codec := NewTokenCodec("super-secret", time.Hour)

    tok, err := codec.Issue("P1", "U1", "F1", "M1")
    if err != nil {
        t.Fatalf("Issue error: %v", err)
    }
    if !codec.Validate(tok) {
        t.Fatalf("expected freshly issued token to validate")
    }

    claims, err := codec.Claims(tok)
    if err != nil {
        t.Fatalf("Claims error: %v", err)
    }
    if claims.ProjectID != "P1" || claims.UserID != "U1" || claims.FileID != "F1" || claims.MetaCode != "M1" {
        t.Fatalf("claims mismatch: %+v", claims)
    }
    if claims.Subject != "U1" {
        t.Fatalf("subject mismatch: got %q want %q", claims.Subject, "U1")
    }
}

func TestValidate_Expired(t *testing.T) {
    t.Parallel()

    codec := NewTokenCodec("secret", -1*time.Second)

    tok, err := codec.Issue("P1", "U1", "F1", "")
    if err != nil {
        t.Fatalf("Issue error: %v", err)
    }
    if codec.Validate(tok) {
        t.Fatalf("expected expired token to fail validation")
    }
    if _, err := codec.Claims(tok); err == nil {
        t.Fatalf("expected Claims to fail for expired token")
    }
}

func TestValidate_WrongSecret(t *testing.T) {
    t.Parallel()

    issuer := NewTokenCodec("right-secret", time.Hour)
    verifier := NewTokenCodec("wrong-secret", time.Hour)

    tok, err := issuer.Issue("P1", "U1", "F1", "")
    if err != nil {
        t.Fatalf("Issue error: %v", err)
    }
    if verifier.Validate(tok) {
        t.Fatalf("expected token signed with a different secret to fail validation")
    }
}

func TestValidate_Malformed(t *testing.T) {
    t.Parallel()

    codec := NewTokenCodec("k", time.Hour)

    for _, tok := range []string{"", "not.a.jwt", "garbage"} {
        if codec.Validate(tok) {
            t.Fatalf("expected %q to fail validation", tok)
        }
        if _, err := codec.Claims(tok); err == nil {
            t.Fatalf("expected Claims to fail for %q", tok)
        }
    }
}

func TestNormalizeBearer(t *testing.T) {
    t.Parallel()

    cases := []struct {
        in   string
        want string
    }{
        {"abc.def.ghi", "abc.def.ghi"},
        {"Bearer abc.def.ghi", "abc.def.ghi"},
        {"  Bearer abc.def.ghi  ", "abc.def.ghi"},
        {"Bearer ", ""},
        {"", ""},
    }
    for _, tc := range cases {
        if got := NormalizeBearer(tc.in); got != tc.want {
            t.Fatalf("NormalizeBearer(%q) = %q, want %q", tc.in, got, tc.want)
        }
    }
}
