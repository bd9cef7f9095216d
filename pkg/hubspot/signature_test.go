package hubspot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature_Valid(t *testing.T) {
	body := []byte(`[{"eventId":1}]`)
	sig := signBody("shh", body)
	if !VerifySignature("shh", body, sig) {
		t.Fatalf("expected valid signature to verify")
	}
}

func TestVerifySignature_Mismatch(t *testing.T) {
	body := []byte(`[{"eventId":1}]`)
	if VerifySignature("shh", body, signBody("other", body)) {
		t.Fatalf("expected mismatched signature to fail")
	}
	if VerifySignature("shh", body, "not-hex") {
		t.Fatalf("expected garbage signature to fail")
	}
}

func TestVerifySignature_EmptyInputs(t *testing.T) {
	body := []byte("x")
	if VerifySignature("", body, signBody("", body)) {
		t.Fatalf("expected empty secret to fail")
	}
	if VerifySignature("shh", body, "") {
		t.Fatalf("expected empty signature to fail")
	}
}
