package crypto

import "testing"

func TestSignVerifyRoundTrip(t *testing.T) {
	sk, err := randomScalar()
	if err != nil {
		t.Fatalf("randomScalar: %v", err)
	}
	pubkey := Generator().ScalarMul(sk)
	msg := []byte("transfer 10 tokens")

	sig, err := Sign(sk, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !Verify(pubkey, msg, sig) {
		t.Fatal("Verify rejected a valid signature")
	}
}

func TestVerifyRejectsWrongMessage(t *testing.T) {
	sk, _ := randomScalar()
	pubkey := Generator().ScalarMul(sk)
	sig, err := Sign(sk, []byte("original"))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if Verify(pubkey, []byte("tampered"), sig) {
		t.Fatal("Verify accepted a signature over a different message")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	sk, _ := randomScalar()
	other, _ := randomScalar()
	otherPub := Generator().ScalarMul(other)
	msg := []byte("transfer 10 tokens")
	sig, err := Sign(sk, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if Verify(otherPub, msg, sig) {
		t.Fatal("Verify accepted a signature under the wrong public key")
	}
}

func TestScalarArithmetic(t *testing.T) {
	a := ScalarFromUint64(3)
	b := ScalarFromUint64(4)
	if !a.Add(b).Equal(ScalarFromUint64(7)) {
		t.Error("Add mismatch")
	}
	if !a.Mul(b).Equal(ScalarFromUint64(12)) {
		t.Error("Mul mismatch")
	}
}
