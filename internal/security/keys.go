package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"strings"
)

// ErrInvalidKey is returned when key material cannot be decoded or has an unsupported type.
var ErrInvalidKey = errors.New("invalid key")

// readKeyMaterial accepts inline PEM (with real or escaped newlines) or a path to a PEM file.
func readKeyMaterial(spec string) ([]byte, error) {
	spec = strings.TrimSpace(spec)
	switch {
	case spec == "":
		return nil, ErrInvalidKey
	case strings.HasPrefix(spec, "-----BEGIN"):
		return []byte(strings.ReplaceAll(spec, `\n`, "\n")), nil
	default:
		return os.ReadFile(spec)
	}
}

func decodeBlock(spec string) (*pem.Block, error) {
	raw, err := readKeyMaterial(spec)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, ErrInvalidKey
	}
	return block, nil
}

// ParseSigningKey decodes an RSA or ECDSA private key in PKCS#1, PKCS#8 or SEC1 form.
func ParseSigningKey(spec string) (crypto.Signer, error) {
	block, err := decodeBlock(spec)
	if err != nil {
		return nil, err
	}
	var key any
	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		key, err = x509.ParseECPrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	default:
		return nil, ErrInvalidKey
	}
	if err != nil {
		return nil, err
	}
	signer, ok := key.(crypto.Signer)
	if !ok || Algorithm(signer.Public()) == "" {
		return nil, ErrInvalidKey
	}
	return signer, nil
}

// ParseVerifyingKey decodes an RSA or ECDSA public key.
func ParseVerifyingKey(spec string) (crypto.PublicKey, error) {
	block, err := decodeBlock(spec)
	if err != nil {
		return nil, err
	}
	var key any
	switch block.Type {
	case "RSA PUBLIC KEY":
		key, err = x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		key, err = x509.ParsePKIXPublicKey(block.Bytes)
	default:
		return nil, ErrInvalidKey
	}
	if err != nil {
		return nil, err
	}
	if Algorithm(key) == "" {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// LoadKeyPair resolves the configured key material. The BFF only needs the public key to
// verify sessions; when it is empty it is derived from the private key. privateSpec may be
// empty, in which case the returned signer is nil and the provider cannot issue tokens.
func LoadKeyPair(privateSpec, publicSpec string) (crypto.Signer, crypto.PublicKey, error) {
	var signer crypto.Signer
	if strings.TrimSpace(privateSpec) != "" {
		s, err := ParseSigningKey(privateSpec)
		if err != nil {
			return nil, nil, err
		}
		signer = s
	}
	if strings.TrimSpace(publicSpec) == "" {
		if signer == nil {
			return nil, nil, ErrInvalidKey
		}
		return signer, signer.Public(), nil
	}
	pub, err := ParseVerifyingKey(publicSpec)
	if err != nil {
		return nil, nil, err
	}
	return signer, pub, nil
}

// Algorithm returns the JWS algorithm for pub: RS256 for RSA, ES256 for ECDSA, empty otherwise.
func Algorithm(pub crypto.PublicKey) string {
	switch pub.(type) {
	case *rsa.PublicKey:
		return "RS256"
	case *ecdsa.PublicKey:
		return "ES256"
	}
	return ""
}
