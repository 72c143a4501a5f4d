package service

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"

	log "github.com/sirupsen/logrus"

	"github.com/cofoundit/cofoundit-contracts/binding"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	secp256k1N     = secp256k1.S256().Params().N
	secp256k1halfN = new(big.Int).Rsh(secp256k1N, 1)
)

// Signer signs 32-byte digests with the key behind PublicAddress.
type Signer interface {
	Sign(digest []byte) ([]byte, error)
	PublicAddress() common.Address
}

type kmsAPI interface {
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
}

type KmsSigner struct {
	ctx     context.Context
	svc     kmsAPI
	keyId   string
	address common.Address
}

type LocalSigner struct {
	pvKey *ecdsa.PrivateKey
}

type PublicKeyInfo struct {
	Algorithm pkix.AlgorithmIdentifier
	PublicKey asn1.BitString
}

func NewSigner(ctx context.Context) (Signer, error) {
	switch GetSignMode() {
	case "remote":
		return NewKmsSigner(ctx)
	case "local":
		return NewLocalSigner(GetPrivateKey())
	default:
		return nil, fmt.Errorf("unknown %s %q, expected local or remote", signMode, GetSignMode())
	}
}

func NewKmsSigner(ctx context.Context) (*KmsSigner, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return newKmsSigner(ctx, kms.NewFromConfig(awsCfg), GetKmsKeyID())
}

func newKmsSigner(ctx context.Context, svc kmsAPI, keyId string) (*KmsSigner, error) {
	signer := &KmsSigner{
		ctx:   ctx,
		svc:   svc,
		keyId: keyId,
	}

	result, err := svc.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: aws.String(keyId)})
	if err != nil {
		log.Errorf("failed to get public key from kms: %v", err)
		return nil, err
	}

	var pki PublicKeyInfo
	if _, err := asn1.Unmarshal(result.PublicKey, &pki); err != nil {
		return nil, fmt.Errorf("decoding kms public key: %w", err)
	}
	pub, err := crypto.UnmarshalPubkey(pki.PublicKey.Bytes)
	if err != nil {
		return nil, fmt.Errorf("decoding kms public key: %w", err)
	}
	signer.address = crypto.PubkeyToAddress(*pub)

	log.Infof("KMS signer address: %s", signer.address.Hex())
	return signer, nil
}

func (ks *KmsSigner) Sign(digest []byte) ([]byte, error) {
	output, err := ks.svc.Sign(ks.ctx, &kms.SignInput{
		KeyId:            aws.String(ks.keyId),
		Message:          digest,
		MessageType:      kmstypes.MessageTypeDigest,
		SigningAlgorithm: kmstypes.SigningAlgorithmSpecEcdsaSha256,
	})
	if err != nil {
		return nil, err
	}
	return normalizeKMSSignature(digest, output.Signature, ks.address)
}

func (ks *KmsSigner) PublicAddress() common.Address {
	return ks.address
}

// normalizeKMSSignature turns a DER ECDSA signature into the 65-byte
// [R || S || V] form, with S in the lower half of the curve order and V the
// recovery id that yields want.
func normalizeKMSSignature(digest, der []byte, want common.Address) ([]byte, error) {
	type ecdsaSignature struct {
		R, S *big.Int
	}

	var signature ecdsaSignature
	if _, err := asn1.Unmarshal(der, &signature); err != nil {
		return nil, err
	}
	if signature.R == nil || signature.S == nil {
		return nil, fmt.Errorf("incomplete signature")
	}

	if signature.S.Cmp(secp256k1halfN) > 0 {
		signature.S = new(big.Int).Sub(secp256k1N, signature.S)
	}

	sig := make([]byte, crypto.SignatureLength)
	signature.R.FillBytes(sig[:32])
	signature.S.FillBytes(sig[32:64])

	for v := byte(0); v < 2; v++ {
		sig[64] = v
		pub, err := crypto.SigToPub(digest, sig)
		if err == nil && crypto.PubkeyToAddress(*pub) == want {
			return sig, nil
		}
	}
	return nil, fmt.Errorf("signature does not recover to %s", want.Hex())
}

func NewLocalSigner(hexKey string) (*LocalSigner, error) {
	pvKey, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, err
	}

	return &LocalSigner{pvKey: pvKey}, nil
}

func (ls *LocalSigner) PublicAddress() common.Address {
	return crypto.PubkeyToAddress(ls.pvKey.PublicKey)
}

func (ls *LocalSigner) Sign(digest []byte) ([]byte, error) {
	signature, err := crypto.Sign(digest, ls.pvKey)
	if err != nil {
		return nil, err
	}

	return signature, nil
}

// SignerFn adapts s to the transactor signer go-ethereum bindings expect.
func SignerFn(s Signer, chainID *big.Int) bind.SignerFn {
	latest := types.LatestSignerForChainID(chainID)
	return func(from common.Address, tx *types.Transaction) (*types.Transaction, error) {
		if from != s.PublicAddress() {
			return nil, bind.ErrNotAuthorized
		}
		signature, err := s.Sign(latest.Hash(tx).Bytes())
		if err != nil {
			log.Errorf("Failed to sign transaction: %v", err)
			return nil, err
		}
		return tx.WithSignature(latest, signature)
	}
}

// TransactOptions are the call options that send as s.
func TransactOptions(s Signer, chainID *big.Int) binding.Options {
	return binding.Options{
		From:   s.PublicAddress(),
		Signer: SignerFn(s, chainID),
	}
}
