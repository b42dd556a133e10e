package secretstore

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudcode/orchestrator/internal/taskerr"
)

// fakeClient is an in-memory Client double that counts reads so cache
// behaviour can be asserted.
type fakeClient struct {
	mu     sync.Mutex
	values map[string]string
	gets   int
	err    error
}

func newFakeClient(values map[string]string) *fakeClient {
	if values == nil {
		values = map[string]string{}
	}
	return &fakeClient{values: values}
}

func (f *fakeClient) Get(path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.values[path]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func (f *fakeClient) Put(path, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[path] = value
	return nil
}

func (f *fakeClient) List(prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for p := range f.values {
		if len(p) >= len(prefix) && p[:len(prefix)] == prefix {
			names = append(names, p)
		}
	}
	return names, nil
}

func (f *fakeClient) Delete(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, path)
	return nil
}

func TestCLICredential_ReadsConfiguredPath(t *testing.T) {
	client := newFakeClient(map[string]string{"cloud-code/cli/claude-code": "sk-test"})
	store := NewCachedStore(client, time.Minute)

	v, err := store.CLICredential("claude-code")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", v)
}

func TestCLICredential_SecondReadServedFromCache(t *testing.T) {
	client := newFakeClient(map[string]string{"cloud-code/cli/aider": "key"})
	store := NewCachedStore(client, time.Minute)

	_, err := store.CLICredential("aider")
	require.NoError(t, err)
	_, err = store.CLICredential("aider")
	require.NoError(t, err)

	assert.Equal(t, 1, client.gets)
}

func TestCLICredential_ClientErrorIsSecretStoreUnavailable(t *testing.T) {
	client := newFakeClient(nil)
	client.err = errors.New("vault sealed")
	store := NewCachedStore(client, time.Minute)

	_, err := store.CLICredential("claude-code")
	require.Error(t, err)
	assert.True(t, taskerr.Is(err, taskerr.SecretStoreUnavailable))
}

func TestSetCLICredential_InvalidatesCachedValue(t *testing.T) {
	client := newFakeClient(map[string]string{"cloud-code/cli/codex": "old"})
	store := NewCachedStore(client, time.Minute)

	v, err := store.CLICredential("codex")
	require.NoError(t, err)
	assert.Equal(t, "old", v)

	require.NoError(t, store.SetCLICredential("codex", "new"))

	v, err = store.CLICredential("codex")
	require.NoError(t, err)
	assert.Equal(t, "new", v)
}

func TestInstallationToken_UsesPathOfRecord(t *testing.T) {
	client := newFakeClient(map[string]string{"cloud-code/github/installations/12345": "ghs_token"})
	store := NewCachedStore(client, time.Minute)

	v, err := store.InstallationToken("12345")
	require.NoError(t, err)
	assert.Equal(t, "ghs_token", v)
}

func TestUserProviderToken_UsesPathOfRecord(t *testing.T) {
	client := newFakeClient(map[string]string{"cloud-code/users/u1/github": "gho_token"})
	store := NewCachedStore(client, time.Minute)

	v, err := store.UserProviderToken("u1", "github")
	require.NoError(t, err)
	assert.Equal(t, "gho_token", v)
}

func TestEnvFallback_GetMappedPath(t *testing.T) {
	env := map[string]string{"ANTHROPIC_API_KEY": "sk-env"}
	fb := NewEnvFallback(
		map[string]string{"cloud-code/cli/claude-code": "ANTHROPIC_API_KEY"},
		func(name string) (string, bool) { v, ok := env[name]; return v, ok },
	)

	v, err := fb.Get("cloud-code/cli/claude-code")
	require.NoError(t, err)
	assert.Equal(t, "sk-env", v)
}

func TestEnvFallback_UnmappedPathErrors(t *testing.T) {
	fb := NewEnvFallback(nil, func(string) (string, bool) { return "", false })
	_, err := fb.Get("cloud-code/cli/unknown")
	assert.Error(t, err)
}

func TestEnvFallback_UnsetVariableErrors(t *testing.T) {
	fb := NewEnvFallback(
		map[string]string{"cloud-code/cli/gemini": "GOOGLE_API_KEY"},
		func(string) (string, bool) { return "", false },
	)
	_, err := fb.Get("cloud-code/cli/gemini")
	assert.Error(t, err)
}

func TestEnvFallback_ListFiltersByPrefix(t *testing.T) {
	fb := NewEnvFallback(map[string]string{
		"cloud-code/cli/claude-code": "ANTHROPIC_API_KEY",
		"cloud-code/cli/codex":       "OPENAI_API_KEY",
		"cloud-code/github/app":      "GITHUB_APP_KEY",
	}, func(string) (string, bool) { return "", false })

	names, err := fb.List("cloud-code/cli/")
	require.NoError(t, err)
	assert.Len(t, names, 2)
}
