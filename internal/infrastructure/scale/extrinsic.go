package scale

import (
	"encoding/hex"
	"fmt"

	"cosmossdk.io/math"
	"golang.org/x/crypto/blake2b"

	"github.com/b-harvest/gasp-e2e/internal/application/ports"
)

const (
	extrinsicVersion = 4
	signedBit        = 0x80
)

// DefaultExtensions is the signed extension set of a stock runtime, used
// when the metadata does not list one.
var DefaultExtensions = []string{
	"CheckNonZeroSender",
	"CheckSpecVersion",
	"CheckTxVersion",
	"CheckGenesis",
	"CheckMortality",
	"CheckNonce",
	"CheckWeight",
	"ChargeTransactionPayment",
}

// ChainInfo is the per-runtime data covered by every signature.
type ChainInfo struct {
	SpecVersion uint32
	TxVersion   uint32
	GenesisHash [32]byte
	// Extensions lists signed extension identifiers in metadata order.
	Extensions []string
}

// SignOptions are the per-transaction signed fields.
type SignOptions struct {
	Nonce uint64
	Tip   math.Int
}

// BuildSigned wraps an encoded call into a signed, length-prefixed v4
// extrinsic. Transactions are immortal.
func BuildSigned(signer ports.Signer, call []byte, info ChainInfo, opts SignOptions) ([]byte, error) {
	exts := info.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	var extra, additional Encoder
	for _, id := range exts {
		if err := appendExtension(&extra, &additional, id, info, opts); err != nil {
			return nil, err
		}
	}

	var payload Encoder
	payload.Raw(call)
	payload.Raw(extra.Bytes())
	payload.Raw(additional.Bytes())
	toSign := payload.Bytes()
	if len(toSign) > 256 {
		h := blake2b.Sum256(toSign)
		toSign = h[:]
	}

	sig, err := signer.Sign(toSign)
	if err != nil {
		return nil, err
	}
	if len(sig) != 65 {
		return nil, fmt.Errorf("expected 65-byte signature, got %d", len(sig))
	}
	addr := signer.Address().Bytes()

	var body Encoder
	body.U8(signedBit | extrinsicVersion)
	body.Raw(addr)
	body.Raw(sig)
	body.Raw(extra.Bytes())
	body.Raw(call)

	var out Encoder
	out.VarBytes(body.Bytes())
	return out.Bytes(), nil
}

func appendExtension(extra, additional *Encoder, id string, info ChainInfo, opts SignOptions) error {
	switch id {
	case "CheckNonZeroSender", "CheckWeight":
	case "CheckSpecVersion":
		additional.U32(info.SpecVersion)
	case "CheckTxVersion":
		additional.U32(info.TxVersion)
	case "CheckGenesis":
		additional.Raw(info.GenesisHash[:])
	case "CheckMortality", "CheckEra":
		extra.U8(0)
		additional.Raw(info.GenesisHash[:])
	case "CheckNonce":
		extra.Compact(opts.Nonce)
	case "ChargeTransactionPayment":
		return extra.CompactInt(opts.Tip)
	case "ChargeAssetTxPayment":
		if err := extra.CompactInt(opts.Tip); err != nil {
			return err
		}
		extra.U8(0)
	case "CheckMetadataHash":
		extra.U8(0)
		additional.U8(0)
	default:
		return fmt.Errorf("unsupported signed extension %q", id)
	}
	return nil
}

// ExtrinsicHash returns the 0x-prefixed blake2b-256 hash of an encoded
// extrinsic, the id under which nodes report it.
func ExtrinsicHash(ext []byte) string {
	h := blake2b.Sum256(ext)
	return "0x" + hex.EncodeToString(h[:])
}

// Hex renders encoded bytes as 0x-prefixed hex.
func Hex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
