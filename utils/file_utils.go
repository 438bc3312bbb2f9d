package utils

import (
	"crypto/ecdsa"
	"encoding/pem"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/Luismorlan/ticket_chain/model"
)

// ParseKeyFile reads the private key at fPath, or generates and saves a new one when
// createNewKey is set or the file does not exist yet.
func ParseKeyFile(fPath string, createNewKey bool) (*ecdsa.PrivateKey, error) {
	if fPath == "" {
		return nil, errors.New("file path is missing")
	}
	_, statErr := os.Stat(fPath)
	if createNewKey || errors.Is(statErr, os.ErrNotExist) {
		log.Println("Generating a new key")
		userKey, _, err := GenerateKeyPair()
		if err != nil {
			return nil, fmt.Errorf("generating key: %w", err)
		}
		if err := SavePrivateKeyToFile(userKey, fPath); err != nil {
			return nil, err
		}
		return userKey, nil
	}
	userKey, err := ReadKeyFromFPath(fPath)
	if err != nil {
		return nil, fmt.Errorf("reading key from %s: %w", fPath, err)
	}
	return userKey, nil
}

func SavePrivateKeyToFile(privkey *ecdsa.PrivateKey, fpath string) error {
	data, err := PrivateKeyToBytes(privkey)
	if err != nil {
		return err
	}
	if err := os.WriteFile(fpath, data, 0600); err != nil {
		return fmt.Errorf("saving key in %s: %w", fpath, err)
	}
	log.Println("Saved private key in file", fpath)
	return nil
}

func ReadKeyFromFPath(fPath string) (*ecdsa.PrivateKey, error) {
	fileContent, err := os.ReadFile(fPath)
	if err != nil {
		return nil, err
	}
	if len(fileContent) == 0 {
		return nil, errors.New("key file is empty")
	}
	return BytesToPrivateKey(fileContent)
}

// ReadPublicKeyFromFPath accepts either a PUBLIC KEY PEM or an EC PRIVATE KEY PEM and returns
// the PKIX public key bytes. The node only needs the issuing authority's public half.
func ReadPublicKeyFromFPath(fPath string) (model.PublicKey, error) {
	fileContent, err := os.ReadFile(fPath)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(fileContent)
	if block == nil {
		return nil, fmt.Errorf("no PEM data in %s", fPath)
	}
	switch block.Type {
	case publicKeyPEMType:
		if BytesToPublicKey(block.Bytes) == nil {
			return nil, fmt.Errorf("%s does not hold an ECDSA public key", fPath)
		}
		return model.PublicKey(block.Bytes), nil
	case privateKeyPEMType:
		sk, err := BytesToPrivateKey(fileContent)
		if err != nil {
			return nil, err
		}
		return PublicKeyToBytes(&sk.PublicKey)
	default:
		return nil, fmt.Errorf("unexpected PEM block %q in %s", block.Type, fPath)
	}
}

func SavePublicKeyToFile(pk model.PublicKey, fpath string) error {
	return os.WriteFile(fpath, PublicKeyToPEM(pk), 0644)
}
