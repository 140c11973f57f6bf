package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tokengate/pkg/models"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	// 默认数据库路径
	DefaultDBPath = "./data/records.db"

	// 存储桶名称
	RecordBucket = "records"
	IndexBucket  = "index"
	StatsBucket  = "stats"

	// 统计键
	TotalSubmissionsKey = "total_submissions"
)

// Store 提交记录存储
// 只记录本实例提交过什么，不代表链上状态，状态查询永远走节点
type Store struct {
	db     *bolt.DB
	logger *logrus.Logger
	dbPath string
	mu     sync.Mutex
	seq    uint64
	total  uint64
}

// NewStore 创建提交记录存储
func NewStore(dbPath string, logger *logrus.Logger) (*Store, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}

	// 确保目录存在
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("打开记录数据库失败: %w", err)
	}

	store := &Store{
		db:     db,
		logger: logger,
		dbPath: dbPath,
	}

	// 初始化数据库结构
	if err := store.initDB(); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}

	if err := store.loadStats(); err != nil {
		logger.Warnf("加载记录统计失败: %v", err)
	}

	logger.Infof("提交记录存储已初始化，数据库路径: %s", dbPath)
	return store, nil
}

// initDB 初始化数据库结构
func (s *Store) initDB() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(RecordBucket)); err != nil {
			return fmt.Errorf("创建记录存储桶失败: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(IndexBucket)); err != nil {
			return fmt.Errorf("创建索引存储桶失败: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(StatsBucket)); err != nil {
			return fmt.Errorf("创建统计存储桶失败: %w", err)
		}
		return nil
	})
}

// loadStats 加载统计信息
func (s *Store) loadStats() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.View(func(tx *bolt.Tx) error {
		if bucket := tx.Bucket([]byte(StatsBucket)); bucket != nil {
			if data := bucket.Get([]byte(TotalSubmissionsKey)); data != nil {
				s.total = binary.BigEndian.Uint64(data)
			}
		}
		if bucket := tx.Bucket([]byte(IndexBucket)); bucket != nil {
			s.seq = bucket.Sequence()
		}
		return nil
	})
}

// Save 保存提交记录
func (s *Store) Save(record *models.TransactionRecord) error {
	if record == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("序列化提交记录失败: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		records := tx.Bucket([]byte(RecordBucket))
		if records == nil {
			return fmt.Errorf("记录存储桶不存在")
		}

		// 按哈希存储记录本体
		if err := records.Put([]byte(record.Hash), data); err != nil {
			return fmt.Errorf("保存提交记录失败: %w", err)
		}

		// 自增序号索引，用于按提交顺序遍历
		index := tx.Bucket([]byte(IndexBucket))
		if index == nil {
			return fmt.Errorf("索引存储桶不存在")
		}
		seq, err := index.NextSequence()
		if err != nil {
			return fmt.Errorf("生成记录序号失败: %w", err)
		}
		seqKey := make([]byte, 8)
		binary.BigEndian.PutUint64(seqKey, seq)
		if err := index.Put(seqKey, []byte(record.Hash)); err != nil {
			return fmt.Errorf("保存记录索引失败: %w", err)
		}
		s.seq = seq

		// 更新统计
		stats := tx.Bucket([]byte(StatsBucket))
		if stats == nil {
			return fmt.Errorf("统计存储桶不存在")
		}
		totalData := make([]byte, 8)
		binary.BigEndian.PutUint64(totalData, s.total+1)
		if err := stats.Put([]byte(TotalSubmissionsKey), totalData); err != nil {
			return fmt.Errorf("更新提交统计失败: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.total++
	return nil
}

// Get 按哈希查询提交记录
func (s *Store) Get(hash string) (*models.TransactionRecord, error) {
	var record *models.TransactionRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(RecordBucket))
		if bucket == nil {
			return fmt.Errorf("记录存储桶不存在")
		}

		data := bucket.Get([]byte(hash))
		if data == nil {
			return nil
		}

		var r models.TransactionRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("解析提交记录失败: %w", err)
		}
		record = &r
		return nil
	})

	return record, err
}

// Recent 按提交顺序倒序列出最近的记录
func (s *Store) Recent(limit int) ([]*models.TransactionRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	var records []*models.TransactionRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		index := tx.Bucket([]byte(IndexBucket))
		recordBucket := tx.Bucket([]byte(RecordBucket))
		if index == nil || recordBucket == nil {
			return fmt.Errorf("存储桶不存在")
		}

		cursor := index.Cursor()
		for k, hash := cursor.Last(); k != nil && len(records) < limit; k, hash = cursor.Prev() {
			data := recordBucket.Get(hash)
			if data == nil {
				continue
			}

			var r models.TransactionRecord
			if err := json.Unmarshal(data, &r); err != nil {
				s.logger.Warnf("跳过损坏的提交记录 %s: %v", string(hash), err)
				continue
			}
			records = append(records, &r)
		}

		return nil
	})

	return records, err
}

// Stats 获取存储统计信息
func (s *Store) Stats() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]interface{}{
		"total_submissions": s.total,
		"db_path":           s.dbPath,
	}
}

// GetDBPath 获取数据库路径
func (s *Store) GetDBPath() string {
	return s.dbPath
}

// Close 关闭存储
func (s *Store) Close() error {
	if s.db != nil {
		s.logger.Info("关闭提交记录存储")
		return s.db.Close()
	}
	return nil
}
