package config

import (
	"fmt"
	"os"

	"tokengate/internal/logging"
	"tokengate/internal/validation"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config 主配置
type Config struct {
	Server     *ServerConfig      `mapstructure:"server"`
	Blockchain *BlockchainConfig  `mapstructure:"blockchain"`
	Contract   *ContractConfig    `mapstructure:"contract"`
	Account    *AccountConfig     `mapstructure:"account"`
	Gas        *GasConfig         `mapstructure:"gas"`
	Audit      *AuditConfig       `mapstructure:"audit"`
	Store      *StoreConfig       `mapstructure:"store"`
	Logging    *logging.LogConfig `mapstructure:"logging"`
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// BlockchainConfig 区块链配置
type BlockchainConfig struct {
	Nodes      []*NodeConfig `mapstructure:"nodes"`
	ChainID    int64         `mapstructure:"chain_id"`
	RPCTimeout string        `mapstructure:"rpc_timeout"`
}

// NodeConfig 节点配置
type NodeConfig struct {
	Name      string `mapstructure:"name"`
	URL       string `mapstructure:"url"`
	Type      string `mapstructure:"type"`
	RateLimit int    `mapstructure:"rate_limit"`
	Priority  int    `mapstructure:"priority"`
}

// ContractConfig 代币合约配置
type ContractConfig struct {
	Address string `mapstructure:"address"`
}

// AccountConfig 账户配置
// OwnerPrivateKey仅用于mint，建议通过环境变量注入
type AccountConfig struct {
	OwnerPrivateKey string `mapstructure:"owner_private_key"`
}

// GasConfig Gas配置
type GasConfig struct {
	LimitCeiling uint64 `mapstructure:"limit_ceiling"` // 固定Gas上限
}

// AuditConfig 提交审计配置
type AuditConfig struct {
	Format    string       `mapstructure:"format"` // file/kafka/none
	Directory string       `mapstructure:"directory"`
	Kafka     *KafkaConfig `mapstructure:"kafka"`
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	Brokers []string          `mapstructure:"brokers"`
	Topics  map[string]string `mapstructure:"topics"`
}

// StoreConfig 本地提交记录配置
type StoreConfig struct {
	Path      string `mapstructure:"path"`
	MaxRecent int    `mapstructure:"max_recent"`
}

// LoadConfig 加载配置（自动检测配置源）
func LoadConfig(configPath string) (*Config, error) {
	// 首先尝试从环境变量获取数据库配置
	dbDSN := os.Getenv("TOKENGATE_DB_DSN")
	if dbDSN != "" {
		logger := logrus.New()
		dbConfig, err := NewDatabaseConfig(dbDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("连接数据库失败: %w", err)
		}
		defer dbConfig.Close()

		config, err := dbConfig.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("从数据库加载配置失败: %w", err)
		}

		applyEnvOverrides(config)
		logger.Info("已从数据库加载配置")
		return config, nil
	}

	// 回退到YAML文件
	config, err := LoadConfigFromFile(configPath)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(config)
	return config, nil
}

// LoadConfigFromFile 从文件加载配置
func LoadConfigFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	config := GetDefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return config, nil
}

// applyEnvOverrides 应用环境变量覆盖
// 节点地址、合约地址和owner私钥允许在运行环境中注入
func applyEnvOverrides(config *Config) {
	if url := os.Getenv("TOKENGATE_NODE_URL"); url != "" && len(config.Blockchain.Nodes) > 0 {
		config.Blockchain.Nodes[0].URL = url
	}
	if addr := os.Getenv("TOKENGATE_CONTRACT_ADDRESS"); addr != "" {
		config.Contract.Address = addr
	}
	if key := os.Getenv("TOKENGATE_OWNER_KEY"); key != "" {
		config.Account.OwnerPrivateKey = key
	}
}

// Validate 校验配置完整性
func (c *Config) Validate() error {
	if c.Contract == nil || c.Contract.Address == "" {
		return fmt.Errorf("未配置代币合约地址")
	}
	if !validation.IsValidAddress(c.Contract.Address) {
		return fmt.Errorf("合约地址格式无效: %s", c.Contract.Address)
	}
	if c.Blockchain == nil || len(c.Blockchain.Nodes) == 0 {
		return fmt.Errorf("未配置区块链节点")
	}
	for _, node := range c.Blockchain.Nodes {
		if node.URL == "" {
			return fmt.Errorf("节点 %s 缺少URL", node.Name)
		}
	}
	if c.Blockchain.ChainID <= 0 {
		return fmt.Errorf("chain_id必须大于0")
	}
	if c.Gas == nil || c.Gas.LimitCeiling == 0 {
		return fmt.Errorf("未配置Gas上限")
	}
	return nil
}

// GetDefaultConfig 获取默认配置
func GetDefaultConfig() *Config {
	return &Config{
		Server: &ServerConfig{
			Port:         8080,
			ReadTimeout:  "15s",
			WriteTimeout: "30s",
		},
		Blockchain: &BlockchainConfig{
			Nodes: []*NodeConfig{
				{
					Name:      "local_node",
					URL:       "", // 需要在YAML配置、数据库或环境变量中指定
					Type:      "local",
					RateLimit: 1000,
					Priority:  1,
				},
			},
			ChainID:    1,
			RPCTimeout: "30s",
		},
		Contract: &ContractConfig{
			Address: "",
		},
		Account: &AccountConfig{
			OwnerPrivateKey: "",
		},
		Gas: &GasConfig{
			LimitCeiling: 200000,
		},
		Audit: &AuditConfig{
			Format:    "file",
			Directory: "./outputs",
			Kafka: &KafkaConfig{
				Brokers: []string{"localhost:9092"},
				Topics: map[string]string{
					"transactions": "token_transactions",
				},
			},
		},
		Store: &StoreConfig{
			Path:      "./data/records.db",
			MaxRecent: 100,
		},
		Logging: &logging.LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}
