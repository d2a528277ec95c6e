package scale

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
)

func TestCompact(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "00"},
		{1, "04"},
		{63, "fc"},
		{64, "0101"},
		{16383, "fdff"},
		{16384, "02000100"},
		{1 << 30, "0300000040"},
		{1<<32 - 1, "03ffffffff"},
		{1 << 32, "070000000001"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			var e Encoder
			e.Compact(tt.in)
			assert.Equal(t, tt.want, hex.EncodeToString(e.Bytes()))
		})
	}
}

func TestU128(t *testing.T) {
	var e Encoder
	require.NoError(t, e.U128(math.NewInt(1)))
	assert.Equal(t, "01000000000000000000000000000000", hex.EncodeToString(e.Bytes()))

	var over Encoder
	tooBig := math.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 128))
	assert.Error(t, over.U128(tooBig))
	assert.Error(t, over.U128(math.NewInt(-1)))
}

func TestCompactBig(t *testing.T) {
	var e Encoder
	u128Max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	require.NoError(t, e.CompactBig(u128Max))
	assert.Equal(t, "33"+strings.Repeat("ff", 16), hex.EncodeToString(e.Bytes()))

	assert.Error(t, e.CompactBig(big.NewInt(-1)))
	assert.Error(t, e.CompactBig(new(big.Int).Lsh(big.NewInt(1), 540)))
}

func TestEncoder_MixedValues(t *testing.T) {
	var e Encoder
	e.U8(7)
	e.Bool(true)
	e.U32(1)
	e.U64(2)
	e.VarBytes([]byte{0xbe, 0xef})
	assert.Equal(t, "07"+"01"+"01000000"+"0200000000000000"+"08beef", hex.EncodeToString(e.Bytes()))
	assert.Equal(t, 1+1+4+8+3, e.Len())
}

type staticResolver map[string]CallInfo

func (s staticResolver) ResolveCall(pallet, call string) (CallInfo, error) {
	info, ok := s[pallet+"."+call]
	if !ok {
		return CallInfo{}, fmt.Errorf("unknown call %s.%s", pallet, call)
	}
	return info, nil
}

func TestEncodeCall_Nested(t *testing.T) {
	r := staticResolver{
		"sudo.sudo":   {PalletIndex: 7, CallIndex: 0, Compact: []bool{false}},
		"tokens.mint": {PalletIndex: 10, CallIndex: 3, Compact: []bool{false, false, false}},
	}
	who := chain.MustParseAddress("0x00000000000000000000000000000000000000ff")
	call := chain.NewCall("sudo", "sudo", chain.Nested("call",
		chain.NewCall("tokens", "mint",
			chain.Currency("currency_id", chain.NewCurrencyID(4)),
			chain.Account("who", who),
			chain.U128("amount", math.NewInt(2)),
		)))

	out, err := EncodeCall(r, call)
	require.NoError(t, err)
	want := "0700" + "0a03" + "04000000" + "00000000000000000000000000000000000000ff" + "02000000000000000000000000000000"
	assert.Equal(t, want, hex.EncodeToString(out))
}

func TestEncodeCall_CompactAndComposites(t *testing.T) {
	r := staticResolver{"x.y": {PalletIndex: 1, CallIndex: 2, Compact: []bool{true, false, false, false}}}
	call := chain.NewCall("x", "y",
		chain.U128("amount", math.NewInt(64)),
		chain.Vec("ids", chain.U32("", 1), chain.U32("", 2)),
		chain.Some("opt", chain.Bool("", true)),
		chain.Enum("l1", 1),
	)

	out, err := EncodeCall(r, call)
	require.NoError(t, err)
	assert.Equal(t, "0102"+"0101"+"08"+"01000000"+"02000000"+"0101"+"01", hex.EncodeToString(out))
}

func TestEncodeCall_ArityMismatch(t *testing.T) {
	r := staticResolver{"x.y": {Compact: []bool{false}}}
	_, err := EncodeCall(r, chain.NewCall("x", "y"))
	require.Error(t, err)

	_, err = EncodeCall(r, chain.NewCall("x", "z"))
	require.Error(t, err)
}

type recordingSigner struct {
	addr    chain.Address
	payload []byte
}

func (s *recordingSigner) Address() chain.Address { return s.addr }

func (s *recordingSigner) Sign(p []byte) ([]byte, error) {
	s.payload = append([]byte(nil), p...)
	sig := make([]byte, 65)
	sig[0] = 0xaa
	return sig, nil
}

func TestBuildSigned(t *testing.T) {
	signer := &recordingSigner{addr: chain.MustParseAddress("0x1111111111111111111111111111111111111111")}
	info := ChainInfo{SpecVersion: 3, TxVersion: 1, Extensions: []string{"CheckSpecVersion", "CheckNonce", "ChargeTransactionPayment"}}
	call := []byte{0x01, 0x02}

	ext, err := BuildSigned(signer, call, info, SignOptions{Nonce: 5})
	require.NoError(t, err)

	// payload = call ++ extra(nonce, tip) ++ additional(spec version)
	assert.Equal(t, "0102"+"14"+"00"+"03000000", hex.EncodeToString(signer.payload))

	// length prefix, version byte, 20-byte address, 65-byte signature,
	// extra, call
	bodyLen := 1 + 20 + 65 + 2 + 2
	require.Len(t, ext, 2+bodyLen)
	assert.Equal(t, byte(0x84), ext[2])
	assert.Equal(t, byte(0xaa), ext[23])
	assert.Equal(t, "14000102", hex.EncodeToString(ext[len(ext)-4:]))
	assert.Len(t, ExtrinsicHash(ext), 66)
}

func TestBuildSigned_UnknownExtension(t *testing.T) {
	signer := &recordingSigner{addr: chain.MustParseAddress("0x1111111111111111111111111111111111111111")}
	_, err := BuildSigned(signer, nil, ChainInfo{Extensions: []string{"CheckSomethingNew"}}, SignOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CheckSomethingNew")
}
