package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHash_ProducesVerifiableBcrypt(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hashed, err := h.Hash("s3cret!")
	require.NoError(t, err)
	assert.True(t, IsHashed(hashed))
	assert.NotEqual(t, "s3cret!", hashed)

	ok, err := Verify(hashed, "s3cret!", false)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHash_IsSalted(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHash_RejectsOverlongPassword(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	_, err := h.Hash(strings.Repeat("a", MaxBytes+1))
	assert.ErrorIs(t, err, ErrTooLong)

	_, err = h.Hash(strings.Repeat("a", MaxBytes))
	assert.NoError(t, err)
}

func TestNewBcryptHasher_InvalidCostFallsBack(t *testing.T) {
	h := NewBcryptHasher(99).(*bcryptHasher)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
}

func TestVerify(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name           string
		stored         string
		plain          string
		allowPlaintext bool
		want           bool
		wantErr        error
	}{
		{name: "hash match", stored: string(hashed), plain: "right", want: true},
		{name: "hash mismatch", stored: string(hashed), plain: "wrong", want: false},
		{name: "overlong input never matches", stored: string(hashed), plain: strings.Repeat("r", MaxBytes+8), want: false},
		{name: "hash mismatch ignores legacy flag", stored: string(hashed), plain: "wrong", allowPlaintext: true, want: false},
		{name: "plaintext match", stored: "legacy", plain: "legacy", allowPlaintext: true, want: true},
		{name: "plaintext mismatch", stored: "legacy", plain: "nope", allowPlaintext: true, want: false},
		{name: "plaintext disabled", stored: "legacy", plain: "legacy", allowPlaintext: false, want: false, wantErr: ErrPlaintextDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Verify(tt.stored, tt.plain, tt.allowPlaintext)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
