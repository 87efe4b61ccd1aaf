package ledger

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// SealKeyCredentials is the on-disk form of the election seal key.
type SealKeyCredentials struct {
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// LoadOrGenerateSealKey restores the election seal key from path, generating
// and saving a fresh one on first run. The credentials file is written with
// owner-only permissions.
func LoadOrGenerateSealKey(path string) (*ecdsa.PrivateKey, error) {
	if data, err := os.ReadFile(path); err == nil {
		var creds SealKeyCredentials
		if err := json.Unmarshal(data, &creds); err != nil {
			return nil, fmt.Errorf("failed to parse seal key credentials: %v", err)
		}

		privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(creds.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("failed to restore seal key: %v", err)
		}
		return privateKey, nil
	}

	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate seal key: %v", err)
	}

	creds := SealKeyCredentials{
		PublicKey:  hexutil.Encode(crypto.FromECDSAPub(&privateKey.PublicKey)),
		PrivateKey: hexutil.Encode(crypto.FromECDSA(privateKey)),
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal seal key credentials: %v", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("failed to save seal key credentials: %v", err)
	}

	return privateKey, nil
}

// Seal signs the chain head with the election key. The signature pins the
// ledger's final state once voting has closed.
func (l *Ledger) Seal(key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(l.HeadHash(), key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign ledger head: %v", err)
	}
	return sig, nil
}

// VerifySeal checks a seal signature against the current chain head.
func (l *Ledger) VerifySeal(sig []byte, pub *ecdsa.PublicKey) bool {
	if len(sig) < 64 {
		return false
	}
	return crypto.VerifySignature(crypto.CompressPubkey(pub), l.HeadHash(), sig[:64])
}
