package utils

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
	"errors"
	"math/big"

	"github.com/Luismorlan/ticket_chain/model"
)

const (
	privateKeyPEMType = "EC PRIVATE KEY"
	publicKeyPEMType  = "PUBLIC KEY"
)

// GenerateKeyPair generates a new P-384 key pair. The public key is returned in its
// PKIX byte form, which is how owners are identified on the ledger.
func GenerateKeyPair() (*ecdsa.PrivateKey, model.PublicKey, error) {
	sk, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	pk, err := PublicKeyToBytes(&sk.PublicKey)
	if err != nil {
		return nil, nil, err
	}
	return sk, pk, nil
}

// PublicKeyToBytes public key to bytes
func PublicKeyToBytes(pub *ecdsa.PublicKey) (model.PublicKey, error) {
	if pub == nil {
		return nil, errors.New("public key is nil")
	}
	return x509.MarshalPKIXPublicKey(pub)
}

// BytesToPublicKey bytes to public key. Returns nil for anything that is not a PKIX encoded ECDSA key.
func BytesToPublicKey(pub []byte) *ecdsa.PublicKey {
	if len(pub) == 0 {
		return nil
	}
	ifc, err := x509.ParsePKIXPublicKey(pub)
	if err != nil {
		return nil
	}
	key, ok := ifc.(*ecdsa.PublicKey)
	if !ok {
		return nil
	}
	return key
}

// PrivateKeyToBytes private key to PEM bytes
func PrivateKeyToBytes(priv *ecdsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: privateKeyPEMType, Bytes: der}), nil
}

// BytesToPrivateKey PEM bytes to private key
func BytesToPrivateKey(priv []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(priv)
	if block == nil || block.Type != privateKeyPEMType {
		return nil, errors.New("no EC private key found in PEM data")
	}
	return x509.ParseECPrivateKey(block.Bytes)
}

// PublicKeyToPEM wraps the PKIX bytes in a PEM block so an authority key can be handed out as a file.
func PublicKeyToPEM(pk model.PublicKey) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: publicKeyPEMType, Bytes: pk})
}

// SHA256 hashes msg.
func SHA256(msg []byte) []byte {
	digest := sha256.Sum256(msg)
	return digest[:]
}

// Sign a message's SHA384 digest with provided private key. The digest size matches the P-384 curve order.
func Sign(msg []byte, sk *ecdsa.PrivateKey) ([]byte, error) {
	if sk == nil {
		return nil, errors.New("private key is nil")
	}
	digest := sha512.Sum384(msg)
	sig, err := ecdsa.SignASN1(rand.Reader, sk, digest[:])
	if err != nil {
		return nil, err
	}
	return normalizeLowS(sig, sk.Curve)
}

type ecdsaSignature struct {
	R, S *big.Int
}

// normalizeLowS rewrites (r, s) as (r, n-s) when s is in the upper half of the curve order.
// Both verify, only the low form is accepted by Verify.
func normalizeLowS(sig []byte, curve elliptic.Curve) ([]byte, error) {
	var parsed ecdsaSignature
	if _, err := asn1.Unmarshal(sig, &parsed); err != nil {
		return nil, err
	}
	n := curve.Params().N
	if parsed.S.Cmp(new(big.Int).Rsh(n, 1)) <= 0 {
		return sig, nil
	}
	parsed.S.Sub(n, parsed.S)
	return asn1.Marshal(parsed)
}

// isLowS reports whether the signature's s lies in the lower half of the curve order.
func isLowS(sig []byte, curve elliptic.Curve) bool {
	var parsed ecdsaSignature
	rest, err := asn1.Unmarshal(sig, &parsed)
	if err != nil || len(rest) != 0 || parsed.S == nil {
		return false
	}
	return parsed.S.Cmp(new(big.Int).Rsh(curve.Params().N, 1)) <= 0
}

// Verify the given signature matches the message. Malformed keys or signatures verify as false,
// and so do high-S signatures, so every message has a single valid encoding per signing.
func Verify(msg []byte, pk model.PublicKey, signature []byte) bool {
	key := BytesToPublicKey(pk)
	if key == nil || len(signature) == 0 || !isLowS(signature, key.Curve) {
		return false
	}
	digest := sha512.Sum384(msg)
	return ecdsa.VerifyASN1(key, digest[:], signature)
}
