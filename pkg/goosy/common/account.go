package common

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"
)

var (
	ErrPrivateKeyNotAvailable = errors.New("private key not available")
)

// Account is an identity on the ledger. Accounts holding a private key can
// act as external signers.
type Account struct {
	publicKey  *Key
	privateKey *Key // Optional
}

func NewAccountFromPublicKey(publicKey *Key) (*Account, error) {
	return newAccount(publicKey, nil)
}

func NewAccountFromPublicKeyBytes(publicKey []byte) (*Account, error) {
	key, err := NewKeyFromBytes(publicKey)
	if err != nil {
		return nil, err
	}
	return newAccount(key, nil)
}

func NewAccountFromPublicKeyString(publicKey string) (*Account, error) {
	key, err := NewKeyFromString(publicKey)
	if err != nil {
		return nil, err
	}
	return newAccount(key, nil)
}

func NewAccountFromPrivateKey(privateKey *Key) (*Account, error) {
	if privateKey == nil || privateKey.IsPublic() {
		return nil, errors.New("private key is required")
	}

	publicKey, err := NewKeyFromBytes(derivePublicKey(privateKey))
	if err != nil {
		return nil, err
	}
	return newAccount(publicKey, privateKey)
}

func NewRandomAccount() (*Account, error) {
	_, privateKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, errors.Wrap(err, "error generating private key")
	}

	key, err := NewKeyFromBytes(privateKey)
	if err != nil {
		return nil, err
	}
	return NewAccountFromPrivateKey(key)
}

func newAccount(publicKey, privateKey *Key) (*Account, error) {
	account := &Account{
		publicKey:  publicKey,
		privateKey: privateKey,
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}
	return account, nil
}

func (a *Account) PublicKey() *Key {
	return a.publicKey
}

func (a *Account) PrivateKey() *Key {
	return a.privateKey
}

func (a *Account) IsSigner() bool {
	return a.privateKey != nil
}

func (a *Account) Sign(message []byte) ([]byte, error) {
	if !a.IsSigner() {
		return nil, ErrPrivateKeyNotAvailable
	}
	return ed25519.Sign(a.privateKey.ToBytes(), message), nil
}

// VerifySigner proves the account holds the private key for its public key
func (a *Account) VerifySigner() error {
	challenge := []byte(a.publicKey.ToBase58())

	signature, err := a.Sign(challenge)
	if err != nil {
		return err
	}

	if !ed25519.Verify(a.publicKey.ToBytes(), challenge, signature) {
		return errors.New("signature does not match public key")
	}
	return nil
}

func (a *Account) Validate() error {
	if a == nil {
		return errors.New("account is nil")
	}

	if err := a.publicKey.Validate(); err != nil {
		return errors.Wrap(err, "invalid public key")
	}
	if !a.publicKey.IsPublic() {
		return errors.New("public key isn't public")
	}

	if a.privateKey == nil {
		return nil
	}

	if err := a.privateKey.Validate(); err != nil {
		return errors.Wrap(err, "invalid private key")
	}
	if a.privateKey.IsPublic() {
		return errors.New("private key isn't private")
	}
	if !bytes.Equal(derivePublicKey(a.privateKey), a.publicKey.ToBytes()) {
		return errors.New("private key doesn't map to public key")
	}
	return nil
}

func (a *Account) String() string {
	return a.publicKey.ToBase58()
}

func derivePublicKey(privateKey *Key) ed25519.PublicKey {
	return ed25519.PrivateKey(privateKey.ToBytes()).Public().(ed25519.PublicKey)
}
