package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tokengate/internal/config"
	"tokengate/pkg/models"

	"github.com/sirupsen/logrus"
)

// Output 提交审计输出接口
type Output interface {
	WriteRecord(record *models.TransactionRecord) error
	Close() error
}

// NewOutput 根据配置创建审计输出器
func NewOutput(cfg *config.AuditConfig, logger *logrus.Logger) (Output, error) {
	if cfg == nil {
		return &NoneOutput{}, nil
	}

	switch strings.ToLower(cfg.Format) {
	case "kafka":
		brokers := []string{"localhost:9092"}
		topics := map[string]string{
			"transactions": "token_transactions",
		}
		if kafkaBrokers := os.Getenv("KAFKA_BROKERS"); kafkaBrokers != "" {
			brokers = strings.Split(kafkaBrokers, ",")
		}
		if cfg.Kafka != nil {
			if len(cfg.Kafka.Brokers) > 0 {
				brokers = cfg.Kafka.Brokers
			}
			if len(cfg.Kafka.Topics) > 0 {
				topics = cfg.Kafka.Topics
			}
		}
		return NewKafkaOutput(brokers, topics, logger)
	case "file", "":
		return NewFileOutput(cfg.Directory)
	case "none":
		return &NoneOutput{}, nil
	default:
		return nil, fmt.Errorf("不支持的审计输出格式: %s", cfg.Format)
	}
}

// FileOutput 文件输出（每行一条JSON记录）
type FileOutput struct {
	outputDir string
	file      *os.File
}

// NewFileOutput 创建文件输出器
func NewFileOutput(outputDir string) (*FileOutput, error) {
	if outputDir == "" {
		outputDir = "./outputs"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	file, err := os.Create(filepath.Join(outputDir, fmt.Sprintf("submissions_%s.json", timestamp)))
	if err != nil {
		return nil, fmt.Errorf("创建提交记录文件失败: %w", err)
	}

	return &FileOutput{
		outputDir: outputDir,
		file:      file,
	}, nil
}

// WriteRecord 写入提交记录
func (f *FileOutput) WriteRecord(record *models.TransactionRecord) error {
	if record == nil {
		return nil
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("序列化提交记录失败: %w", err)
	}

	if _, err := f.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("写入提交记录失败: %w", err)
	}

	return f.file.Sync()
}

// Close 关闭输出文件
func (f *FileOutput) Close() error {
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}

// NoneOutput 空输出器
type NoneOutput struct{}

func (n *NoneOutput) WriteRecord(record *models.TransactionRecord) error { return nil }
func (n *NoneOutput) Close() error                                       { return nil }
