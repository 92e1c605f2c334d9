package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisperkit/internal/store"
)

func TestGenerateIdentityEnforcesPassphrasePolicy(t *testing.T) {
	svc := New(store.NewFileIdentityStore(t.TempDir()))

	weak := []string{
		"short",
		"nouppercase123!",
		"NOLOWERCASE123!",
		"NoDigitsAtAll!",
		"NoSymbols12345",
	}
	for _, p := range weak {
		_, _, err := svc.GenerateIdentity(p)
		assert.ErrorIs(t, err, ErrWeakPassphrase, "passphrase %q", p)
	}
}

func TestGenerateAndReloadIdentity(t *testing.T) {
	svc := New(store.NewFileIdentityStore(t.TempDir()))

	id, fp, err := svc.GenerateIdentity("Correct-Horse-9!")
	require.NoError(t, err)
	assert.NotEmpty(t, fp)
	assert.NotZero(t, id.RegistrationID)

	loaded, err := svc.LoadIdentity("Correct-Horse-9!")
	require.NoError(t, err)
	assert.Equal(t, id, loaded)

	fp2, err := svc.Fingerprint("Correct-Horse-9!")
	require.NoError(t, err)
	assert.Equal(t, fp, fp2)
}
