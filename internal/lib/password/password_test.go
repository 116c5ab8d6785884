package password

import "testing"

func TestHashAndVerify(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"regular password", "hunter2secret"},
		{"special chars", "p@ssw0rd!#$%"},
		{"long password", "averylongpasswordwithmorethanfiftycharactersinit!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := Hash(tt.password)
			if err != nil {
				t.Fatalf("Hash() error = %v", err)
			}
			if hash == "" {
				t.Fatal("Hash() returned empty hash")
			}
			if err := Verify(hash, tt.password); err != nil {
				t.Errorf("Verify() with original password failed: %v", err)
			}
			if err := Verify(hash, "wrong-password"); err == nil {
				t.Error("Verify() with wrong password should fail")
			}
		})
	}
}

func TestHash_DifferentPasswordsProduceDifferentHashes(t *testing.T) {
	hash1, err := Hash("password1")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	hash2, err := Hash("password2")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if hash1 == hash2 {
		t.Error("different passwords produced identical hashes")
	}
}
