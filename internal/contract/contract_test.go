package contract

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Selectors(t *testing.T) {
	// 前4字节是函数选择器，应与标准ERC-20一致
	cases := []struct {
		call     *FunctionCall
		selector string
	}{
		{NameCall(), "0x06fdde03"},
		{SymbolCall(), "0x95d89b41"},
		{DecimalsCall(), "0x313ce567"},
		{TotalSupplyCall(), "0x18160ddd"},
		{BalanceOfCall("0x1234567890abcdef1234567890abcdef12345678"), "0x70a08231"},
		{TransferCall("0x1234567890abcdef1234567890abcdef12345678", big.NewInt(1)), "0xa9059cbb"},
		{MintCall("0x1234567890abcdef1234567890abcdef12345678", big.NewInt(1)), "0x40c10f19"},
		{BurnCall(big.NewInt(1)), "0x42966c68"},
	}

	for _, tc := range cases {
		data, err := tc.call.Encode()
		require.NoError(t, err, "编码失败: %s", tc.call.Name)
		assert.Equal(t, tc.selector, hexutil.Encode(data[:4]), "选择器不匹配: %s", tc.call.Name)
	}
}

func TestEncode_ZeroArgCallLength(t *testing.T) {
	// 无参调用只有4字节选择器
	data, err := NameCall().Encode()
	require.NoError(t, err)
	assert.Len(t, data, 4)
}

func TestEncode_ArgumentLength(t *testing.T) {
	// address+uint256各占32字节
	data, err := TransferCall("0x1234567890abcdef1234567890abcdef12345678", big.NewInt(100)).Encode()
	require.NoError(t, err)
	assert.Len(t, data, 4+32+32)
}

func TestDecodeString(t *testing.T) {
	raw, err := parsedABI.Methods["name"].Outputs.Pack("TestToken")
	require.NoError(t, err)

	value, err := DecodeString("name", raw)
	require.NoError(t, err)
	assert.Equal(t, "TestToken", value)
}

func TestDecodeString_EmptyData(t *testing.T) {
	// 空数据取零值，不报错
	value, err := DecodeString("name", nil)
	require.NoError(t, err)
	assert.Equal(t, "", value)
}

func TestDecodeBigInt(t *testing.T) {
	expected, _ := new(big.Int).SetString("1000000000000000000", 10)
	raw, err := parsedABI.Methods["totalSupply"].Outputs.Pack(expected)
	require.NoError(t, err)

	value, err := DecodeBigInt("totalSupply", raw)
	require.NoError(t, err)
	assert.Equal(t, 0, expected.Cmp(value))
}

func TestDecodeBigInt_EmptyData(t *testing.T) {
	value, err := DecodeBigInt("totalSupply", []byte{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), value.Int64())
}

func TestDecodeUint8(t *testing.T) {
	raw, err := parsedABI.Methods["decimals"].Outputs.Pack(uint8(18))
	require.NoError(t, err)

	value, err := DecodeUint8("decimals", raw)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), value)
}

func TestDecodeBool(t *testing.T) {
	raw, err := parsedABI.Methods["transfer"].Outputs.Pack(true)
	require.NoError(t, err)

	value, err := DecodeBool("transfer", raw)
	require.NoError(t, err)
	assert.True(t, value)

	// 空数据返回false
	value, err = DecodeBool("transfer", nil)
	require.NoError(t, err)
	assert.False(t, value)
}

func TestDecodeBigInt_GarbageData(t *testing.T) {
	_, err := DecodeBigInt("totalSupply", []byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestDecodeInput(t *testing.T) {
	data, err := TransferCall("0x1234567890AbcdEF1234567890aBcdef12345678", big.NewInt(500)).Encode()
	require.NoError(t, err)

	method, args := DecodeInput(data)
	assert.Equal(t, "transfer", method)
	assert.Contains(t, args, "to")
	assert.Contains(t, args, "amount")
	assert.Equal(t, "500", args["amount"])
}

func TestDecodeInput_UnknownSelector(t *testing.T) {
	// 非本合约方法，返回空值
	method, args := DecodeInput([]byte{0xde, 0xad, 0xbe, 0xef, 0x00})
	assert.Equal(t, "", method)
	assert.Nil(t, args)

	// 数据太短
	method, _ = DecodeInput([]byte{0x01})
	assert.Equal(t, "", method)
}

func TestParseEstimableFunction(t *testing.T) {
	f, err := ParseEstimableFunction("mint")
	require.NoError(t, err)
	assert.Equal(t, EstimateMint, f)

	f, err = ParseEstimableFunction(" Transfer ")
	require.NoError(t, err)
	assert.Equal(t, EstimateTransfer, f)

	f, err = ParseEstimableFunction("burn")
	require.NoError(t, err)
	assert.Equal(t, EstimateBurn, f)

	_, err = ParseEstimableFunction("approve")
	assert.Error(t, err)
	_, err = ParseEstimableFunction("")
	assert.Error(t, err)
}

func TestBuildEstimationCall(t *testing.T) {
	// burn不需要地址参数
	call := EstimateBurn.BuildEstimationCall("")
	data, err := call.Encode()
	require.NoError(t, err)
	assert.Equal(t, "0x42966c68", hexutil.Encode(data[:4]))

	// mint使用传入地址
	call = EstimateMint.BuildEstimationCall("0x1234567890abcdef1234567890abcdef12345678")
	data, err = call.Encode()
	require.NoError(t, err)
	assert.Equal(t, "0x40c10f19", hexutil.Encode(data[:4]))

	// 未传地址时退化为零地址
	call = EstimateTransfer.BuildEstimationCall("")
	_, err = call.Encode()
	require.NoError(t, err)
}
