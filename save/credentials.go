package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"github.com/zalando/go-keyring"
)

const (
	keyringService  = "chatbridge"
	credentialsUser = "credentials"
	plainAuthFile   = "credentials.json"
)

// Credentials are the secrets needed to talk to Twitch.
type Credentials struct {
	IRCToken     string `json:"irc_token"`
	ClientSecret string `json:"client_secret"`
}

// CredentialStore keeps Credentials as one JSON entry in a keyring.
type CredentialStore struct {
	keyring keyring.Keyring
}

func NewCredentialStore(k keyring.Keyring) *CredentialStore {
	return &CredentialStore{keyring: k}
}

// Load returns the stored credentials, empty ones when nothing was stored yet.
func (s *CredentialStore) Load() (Credentials, error) {
	data, err := s.keyring.Get(keyringService, credentialsUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return Credentials{}, nil
		}
		return Credentials{}, fmt.Errorf("failed to read credentials: %w", err)
	}

	if data == "" {
		return Credentials{}, nil
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return Credentials{}, fmt.Errorf("failed to decode credentials: %w", err)
	}

	return creds, nil
}

func (s *CredentialStore) Save(creds Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}

	return s.keyring.Set(keyringService, credentialsUser, string(data))
}

func (s *CredentialStore) Delete() error {
	err := s.keyring.Delete(keyringService, credentialsUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}

	return nil
}

// NewKeyring returns the OS keyring when it is usable and a plain file in dir otherwise.
func NewKeyring(fs afero.Fs, dir string) (keyring.Keyring, bool) {
	k := NewKeyringWrapper()

	if _, err := k.Get(keyringService, credentialsUser); err == nil || errors.Is(err, keyring.ErrNotFound) {
		return k, true
	}

	return NewPlainKeyringFallback(fs, dir), false
}

// enforce that KeyringWrapper implements the Keyring interface
var _ keyring.Keyring = &KeyringWrapper{}

// KeyringWrapper serialises access to the OS keyring.
type KeyringWrapper struct {
	m sync.Mutex
}

func NewKeyringWrapper() *KeyringWrapper {
	return &KeyringWrapper{}
}

func (k *KeyringWrapper) Set(service, user, password string) error {
	k.m.Lock()
	defer k.m.Unlock()
	return keyring.Set(service, user, password)
}

func (k *KeyringWrapper) Get(service, user string) (string, error) {
	k.m.Lock()
	defer k.m.Unlock()
	return keyring.Get(service, user)
}

func (k *KeyringWrapper) Delete(service, user string) error {
	k.m.Lock()
	defer k.m.Unlock()
	return keyring.Delete(service, user)
}

func (k *KeyringWrapper) DeleteAll(service string) error {
	k.m.Lock()
	defer k.m.Unlock()
	return keyring.DeleteAll(service)
}

// enforce that PlainKeyringFallback implements the Keyring interface
var _ keyring.Keyring = &PlainKeyringFallback{}

// PlainKeyringFallback stores entries unencrypted in a JSON file, keyed by
// service and user. Used where no OS keyring is available, e.g. headless servers.
type PlainKeyringFallback struct {
	m   sync.RWMutex
	fs  afero.Fs
	dir string
}

func NewPlainKeyringFallback(fs afero.Fs, dir string) *PlainKeyringFallback {
	return &PlainKeyringFallback{
		fs:  fs,
		dir: dir,
	}
}

func (p *PlainKeyringFallback) Set(service, user, password string) error {
	p.m.Lock()
	defer p.m.Unlock()

	entries, err := p.read()
	if err != nil {
		return err
	}

	entries[plainKey(service, user)] = password
	return p.write(entries)
}

func (p *PlainKeyringFallback) Get(service, user string) (string, error) {
	p.m.RLock()
	defer p.m.RUnlock()

	entries, err := p.read()
	if err != nil {
		return "", err
	}

	password, ok := entries[plainKey(service, user)]
	if !ok {
		return "", keyring.ErrNotFound
	}

	return password, nil
}

func (p *PlainKeyringFallback) Delete(service, user string) error {
	p.m.Lock()
	defer p.m.Unlock()

	entries, err := p.read()
	if err != nil {
		return err
	}

	key := plainKey(service, user)
	if _, ok := entries[key]; !ok {
		return keyring.ErrNotFound
	}

	delete(entries, key)
	return p.write(entries)
}

func (p *PlainKeyringFallback) DeleteAll(service string) error {
	p.m.Lock()
	defer p.m.Unlock()

	entries, err := p.read()
	if err != nil {
		return err
	}

	prefix := service + "/"
	for key := range entries {
		if strings.HasPrefix(key, prefix) {
			delete(entries, key)
		}
	}

	return p.write(entries)
}

func plainKey(service, user string) string {
	return service + "/" + user
}

func (p *PlainKeyringFallback) read() (map[string]string, error) {
	f, err := openCreateFile(p.fs, p.dir, plainAuthFile)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	entries := map[string]string{}
	if len(data) == 0 {
		return entries, nil
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", plainAuthFile, err)
	}

	return entries, nil
}

func (p *PlainKeyringFallback) write(entries map[string]string) error {
	f, err := openCreateFile(p.fs, p.dir, plainAuthFile)
	if err != nil {
		return err
	}

	defer f.Close()

	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	return replaceFileContent(f, data)
}
