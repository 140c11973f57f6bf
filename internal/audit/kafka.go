package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"tokengate/pkg/models"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

// KafkaOutput Kafka审计输出器
type KafkaOutput struct {
	logger   *logrus.Logger
	topics   map[string]string // 数据类型到topic的映射
	producer sarama.SyncProducer
}

// NewKafkaOutput 创建Kafka输出器
func NewKafkaOutput(brokers []string, topics map[string]string, logger *logrus.Logger) (*KafkaOutput, error) {
	logger.Infof("初始化Kafka审计输出器，brokers: %v", brokers)
	logger.Infof("Kafka topics配置: %v", topics)

	// 配置Kafka生产者
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second
	config.Version = sarama.V2_8_0_0

	// 创建同步生产者
	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("创建Kafka生产者失败: %w", err)
	}

	logger.Info("Kafka生产者已创建")

	return &KafkaOutput{
		logger:   logger,
		topics:   topics,
		producer: producer,
	}, nil
}

// WriteRecord 写入提交记录
func (k *KafkaOutput) WriteRecord(record *models.TransactionRecord) error {
	if record == nil {
		return nil
	}

	topic, exists := k.topics["transactions"]
	if !exists {
		topic = "token_transactions"
	}

	jsonData, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("序列化提交记录失败: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(record.Hash),
		Value: sarama.StringEncoder(jsonData),
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("发送消息到Kafka失败: %w", err)
	}

	k.logger.Infof("提交记录已发送到Kafka topic '%s' (partition: %d, offset: %d)",
		topic, partition, offset)

	return nil
}

// Close 关闭Kafka连接
func (k *KafkaOutput) Close() error {
	if k.producer != nil {
		return k.producer.Close()
	}
	return nil
}
