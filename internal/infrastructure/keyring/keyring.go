// Package keyring manages secp256k1 signing identities for the harness.
// Accounts are Ethereum-style: the account id is the 20-byte address of the
// public key and payloads are signed over their keccak256 digest.
package keyring

import (
	"crypto/ecdsa"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/b-harvest/gasp-e2e/internal/application/ports"
	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

// KeyPair is a private key and the account it controls.
type KeyPair struct {
	Name    string
	key     *ecdsa.PrivateKey
	address chain.Address
}

func newKeyPair(name string, key *ecdsa.PrivateKey) *KeyPair {
	addr := crypto.PubkeyToAddress(key.PublicKey)
	return &KeyPair{
		Name:    name,
		key:     key,
		address: chain.Address(strings.ToLower(addr.Hex())),
	}
}

// FromURI derives a key pair from a secret URI. A 0x-prefixed 32-byte hex
// string is used as the private key; any other URI, such as "//Alice" or a
// generated test user name, is hashed into one deterministically.
func FromURI(uri string) (*KeyPair, error) {
	if uri == "" {
		return nil, fmt.Errorf("empty secret uri")
	}
	if strings.HasPrefix(uri, "0x") && len(uri) == 66 {
		key, err := crypto.HexToECDSA(uri[2:])
		if err != nil {
			return nil, fmt.Errorf("invalid hex private key: %w", err)
		}
		return newKeyPair(uri, key), nil
	}
	key, err := crypto.ToECDSA(crypto.Keccak256([]byte(uri)))
	if err != nil {
		return nil, fmt.Errorf("derive key from %q: %w", uri, err)
	}
	return newKeyPair(uri, key), nil
}

// Generate creates a random key pair.
func Generate(name string) (*KeyPair, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return newKeyPair(name, key), nil
}

// FromKeyJSON decrypts a Web3 Secret Storage key file.
func FromKeyJSON(keyJSON []byte, password string) (*KeyPair, error) {
	k, err := keystore.DecryptKey(keyJSON, password)
	if err != nil {
		return nil, fmt.Errorf("decrypt key json: %w", err)
	}
	return newKeyPair("json:"+strings.ToLower(k.Address.Hex()), k.PrivateKey), nil
}

// Address implements ports.Signer.
func (k *KeyPair) Address() chain.Address {
	return k.address
}

// Sign implements ports.Signer. The signature is [R || S || V].
func (k *KeyPair) Sign(payload []byte) ([]byte, error) {
	sig, err := crypto.Sign(crypto.Keccak256(payload), k.key)
	if err != nil {
		return nil, fmt.Errorf("sign payload: %w", err)
	}
	return sig, nil
}

// PrivateKeyHex returns the 0x-prefixed private key.
func (k *KeyPair) PrivateKeyHex() string {
	return fmt.Sprintf("0x%x", crypto.FromECDSA(k.key))
}

// ToJSON encrypts the key pair with password in Web3 Secret Storage format.
func (k *KeyPair) ToJSON(password string) ([]byte, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("key id: %w", err)
	}
	out, err := keystore.EncryptKey(&keystore.Key{
		Id:         id,
		Address:    crypto.PubkeyToAddress(k.key.PublicKey),
		PrivateKey: k.key,
	}, password, keystore.LightScryptN, keystore.LightScryptP)
	if err != nil {
		return nil, fmt.Errorf("encrypt key: %w", err)
	}
	return out, nil
}

// Keyring holds the key pairs known to the harness, by address.
type Keyring struct {
	mu    sync.RWMutex
	pairs map[chain.Address]*KeyPair
}

// New creates an empty keyring.
func New() *Keyring {
	return &Keyring{pairs: make(map[chain.Address]*KeyPair)}
}

// Add stores a key pair, replacing any pair for the same address.
func (r *Keyring) Add(kp *KeyPair) *KeyPair {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs[kp.Address()] = kp
	return kp
}

// FromURI derives and stores a key pair. It satisfies wallet.Keys.
func (r *Keyring) FromURI(uri string) (ports.Signer, error) {
	kp, err := FromURI(uri)
	if err != nil {
		return nil, err
	}
	return r.Add(kp), nil
}

// AddFromJSON decrypts and stores a key pair.
func (r *Keyring) AddFromJSON(keyJSON []byte, password string) (*KeyPair, error) {
	kp, err := FromKeyJSON(keyJSON, password)
	if err != nil {
		return nil, err
	}
	return r.Add(kp), nil
}

// Get returns the key pair controlling addr.
func (r *Keyring) Get(addr chain.Address) (*KeyPair, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kp, ok := r.pairs[addr]
	return kp, ok
}

// Pairs returns every stored key pair ordered by address.
func (r *Keyring) Pairs() []*KeyPair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*KeyPair, 0, len(r.pairs))
	for _, kp := range r.pairs {
		out = append(out, kp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].address < out[j].address })
	return out
}

var _ ports.Signer = (*KeyPair)(nil)
