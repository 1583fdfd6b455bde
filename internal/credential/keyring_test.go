package credential

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(env map[string]string, items ...keyring.Item) *Store {
	s := NewStore(keyring.NewArrayKeyring(items))
	s.getenv = func(k string) string { return env[k] }
	return s
}

func TestGetPrefersKeyring(t *testing.T) {
	s := newTestStore(
		map[string]string{"MAILCHAT_TOKEN": "from-env"},
		keyring.Item{Key: KeyBearerToken, Data: []byte("from-ring")},
	)

	v, err := s.Get(KeyBearerToken)
	require.NoError(t, err)
	assert.Equal(t, "from-ring", v)
}

func TestGetFallsBackToEnv(t *testing.T) {
	s := newTestStore(map[string]string{"ANTHROPIC_API_KEY": "sk-test"})

	v, err := s.Get(KeyClaudeAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", v)
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(nil)

	_, err := s.Get(KeyIMAPPassword)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSetAndDelete(t *testing.T) {
	s := newTestStore(nil)

	require.NoError(t, s.Set(KeyBearerToken, "abc"))
	v, err := s.Get(KeyBearerToken)
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	require.NoError(t, s.Delete(KeyBearerToken))
	_, err = s.Get(KeyBearerToken)
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.NoError(t, s.Delete(KeyBearerToken))
}
