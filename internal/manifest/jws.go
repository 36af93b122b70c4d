package manifest

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
)

// JWS is a JSON Web Signature in flattened form: the base64url
// protected header, the base64url signed payload, and the signature.
// Verification checks the signature over the Payload carried here; it
// does not compare that payload with any other copy of the content.
type JWS struct {
	Protected string `json:"protected"`
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

// SignDetachedJWS signs payload with an RSA PKCS#1v15/SHA-256
// signature, PEM-encoded private key.
func SignDetachedJWS(payload []byte, privateKeyPEM []byte) (JWS, error) {
	hdr := map[string]any{
		"alg": "RS256",
		"typ": "JWT",
	}
	hb, err := json.Marshal(hdr)
	if err != nil {
		return JWS{}, err
	}
	protected := base64.RawURLEncoding.EncodeToString(hb)
	pl := base64.RawURLEncoding.EncodeToString(payload)

	priv, err := parseRSAPrivateKey(privateKeyPEM)
	if err != nil {
		return JWS{}, err
	}

	signingInput := protected + "." + pl
	h := sha256.Sum256([]byte(signingInput))
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, h[:])
	if err != nil {
		return JWS{}, err
	}

	return JWS{
		Protected: protected,
		Payload:   pl,
		Signature: base64.RawURLEncoding.EncodeToString(sig),
	}, nil
}

// VerifyDetachedJWS checks the signature against a PEM-encoded RSA
// public certificate/key.
func VerifyDetachedJWS(jws JWS, publicKeyPEM []byte) error {
	pub, err := parseRSAPublicKey(publicKeyPEM)
	if err != nil {
		return err
	}
	signingInput := jws.Protected + "." + jws.Payload
	h := sha256.Sum256([]byte(signingInput))
	sig, err := base64.RawURLEncoding.DecodeString(jws.Signature)
	if err != nil {
		return err
	}
	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, h[:], sig)
}

func parseRSAPrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("manifest: no PEM block in private key")
	}
	return x509.ParsePKCS1PrivateKey(block.Bytes)
}

func parseRSAPublicKey(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("manifest: no PEM block in public key")
	}
	if cert, err := x509.ParseCertificate(block.Bytes); err == nil {
		if pub, ok := cert.PublicKey.(*rsa.PublicKey); ok {
			return pub, nil
		}
		return nil, errors.New("manifest: certificate does not hold an RSA key")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("manifest: PEM does not hold an RSA public key")
	}
	return rsaPub, nil
}
