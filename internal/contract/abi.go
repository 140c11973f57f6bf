package contract

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// tokenABI 代币合约接口定义
// 标准ERC-20读写方法，外加owner专用的mint和持有人的burn
const tokenABI = `[
	{"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"name":"totalSupply","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"transfer","type":"function","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"mint","type":"function","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"name":"burn","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]}
]`

// parsedABI 解析后的ABI，进程内只解析一次
var parsedABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(tokenABI))
	if err != nil {
		// ABI是编译期常量，解析失败属于程序错误
		panic("解析代币ABI失败: " + err.Error())
	}
	parsedABI = parsed
}

// TokenABI 返回解析后的ABI定义
func TokenABI() abi.ABI {
	return parsedABI
}
