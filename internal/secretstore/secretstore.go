// Package secretstore defines the external secret-store collaborator
// plus the path-of-record accessors the rest of the system calls
// instead of hand-rolling paths: CLI API keys, GitHub App credentials,
// installation tokens, and per-user provider tokens. The store itself
// is external (a Vault-style service); this package owns only the
// client contract, a path convention, and a TTL cache in front of it.
package secretstore

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/cloudcode/orchestrator/internal/log"
	"github.com/cloudcode/orchestrator/internal/taskerr"
)

// Client is the external secret store's interface: opaque key/value
// retrieval by path. Paths of record:
//
//	cloud-code/cli/{tool}
//	cloud-code/github/app
//	cloud-code/github/installations/{id}
//	cloud-code/users/{uid}/{provider}
type Client interface {
	Get(path string) (string, error)
	Put(path, value string) error
	List(prefix string) ([]string, error)
	Delete(path string) error
}

const (
	basePath          = "cloud-code"
	cliPathFmt        = basePath + "/cli/%s"
	githubAppPath     = basePath + "/github/app"
	installationFmt   = basePath + "/github/installations/%s"
	userProviderFmt   = basePath + "/users/%s/%s"
)

// CachedStore wraps a Client with a short-lived TTL cache, so a burst
// of workers provisioning against the same coding tool doesn't hammer
// the external store for the same path repeatedly.
type CachedStore struct {
	client Client
	cache  *cache.Cache
}

// NewCachedStore wraps client with a cache using ttl for item
// expiration and 2*ttl for the cleanup sweep interval.
func NewCachedStore(client Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		client: client,
		cache:  cache.New(ttl, 2*ttl),
	}
}

func (s *CachedStore) get(path string) (string, error) {
	if v, ok := s.cache.Get(path); ok {
		return v.(string), nil
	}
	v, err := s.client.Get(path)
	if err != nil {
		return "", err
	}
	s.cache.SetDefault(path, v)
	return v, nil
}

// invalidate drops a cached entry so a subsequent Put/Delete is
// observed on the next read rather than serving a stale cached value.
func (s *CachedStore) invalidate(path string) {
	s.cache.Delete(path)
}

// CLICredential returns the API key/credential stored for a coding-CLI
// variant's registry name (e.g. "claude-code", "aider"). Returns
// taskerr.SecretStoreUnavailable if the underlying client errors.
func (s *CachedStore) CLICredential(tool string) (string, error) {
	v, err := s.get(fmt.Sprintf(cliPathFmt, tool))
	if err != nil {
		return "", taskerr.New(taskerr.SecretStoreUnavailable, fmt.Sprintf("cli credential for %s", tool), err)
	}
	return v, nil
}

// SetCLICredential stores the credential for a coding-CLI variant.
func (s *CachedStore) SetCLICredential(tool, value string) error {
	path := fmt.Sprintf(cliPathFmt, tool)
	if err := s.client.Put(path, value); err != nil {
		return taskerr.New(taskerr.SecretStoreUnavailable, fmt.Sprintf("set cli credential for %s", tool), err)
	}
	s.invalidate(path)
	return nil
}

// AppCredentials returns the GitHub App's own private key/credential
// bundle.
func (s *CachedStore) AppCredentials() (string, error) {
	v, err := s.get(githubAppPath)
	if err != nil {
		return "", taskerr.New(taskerr.SecretStoreUnavailable, "github app credentials", err)
	}
	return v, nil
}

// InstallationToken returns the cached installation access token for a
// GitHub App installation id.
func (s *CachedStore) InstallationToken(installationID string) (string, error) {
	v, err := s.get(fmt.Sprintf(installationFmt, installationID))
	if err != nil {
		return "", taskerr.New(taskerr.SecretStoreUnavailable, fmt.Sprintf("installation token for %s", installationID), err)
	}
	return v, nil
}

// UserProviderToken returns the stored OAuth token a user has granted
// for one provider (e.g. "github", "anthropic").
func (s *CachedStore) UserProviderToken(userID, provider string) (string, error) {
	v, err := s.get(fmt.Sprintf(userProviderFmt, userID, provider))
	if err != nil {
		return "", taskerr.New(taskerr.SecretStoreUnavailable, fmt.Sprintf("user token for %s/%s", userID, provider), err)
	}
	return v, nil
}

// List returns the names stored under prefix, delegating directly —
// listings aren't cached since they're used for operational
// introspection, not hot-path credential injection.
func (s *CachedStore) List(prefix string) ([]string, error) {
	names, err := s.client.List(prefix)
	if err != nil {
		return nil, taskerr.New(taskerr.SecretStoreUnavailable, fmt.Sprintf("list %s", prefix), err)
	}
	return names, nil
}

// Delete removes the secret at path and invalidates any cached copy.
func (s *CachedStore) Delete(path string) error {
	if err := s.client.Delete(path); err != nil {
		return taskerr.New(taskerr.SecretStoreUnavailable, fmt.Sprintf("delete %s", path), err)
	}
	s.invalidate(path)
	return nil
}

// EnvFallback is a Client backed by process environment variables,
// used when no external store is configured. Put/Delete are no-ops
// logged at warn level: an environment-backed store can't durably
// persist a write.
type EnvFallback struct {
	lookup func(string) (string, bool)
	values map[string]string
}

// NewEnvFallback returns an EnvFallback seeded with a fixed map of
// path -> environment-variable name, e.g.
//
//	{"cloud-code/cli/claude-code": "ANTHROPIC_API_KEY"}
func NewEnvFallback(pathToEnvVar map[string]string, lookup func(string) (string, bool)) *EnvFallback {
	return &EnvFallback{lookup: lookup, values: pathToEnvVar}
}

func (e *EnvFallback) Get(path string) (string, error) {
	envVar, ok := e.values[path]
	if !ok {
		return "", fmt.Errorf("secretstore: no env fallback configured for path %q", path)
	}
	v, ok := e.lookup(envVar)
	if !ok || v == "" {
		return "", fmt.Errorf("secretstore: env var %s not set for path %q", envVar, path)
	}
	return v, nil
}

func (e *EnvFallback) Put(path, _ string) error {
	log.Warn(log.CatOrchestrator, "env-backed secret store cannot persist writes", "path", path)
	return nil
}

func (e *EnvFallback) List(prefix string) ([]string, error) {
	var names []string
	for path := range e.values {
		if len(path) >= len(prefix) && path[:len(prefix)] == prefix {
			names = append(names, path)
		}
	}
	return names, nil
}

func (e *EnvFallback) Delete(path string) error {
	log.Warn(log.CatOrchestrator, "env-backed secret store cannot delete", "path", path)
	return nil
}

var _ Client = (*EnvFallback)(nil)
