package audit

import (
	"tokengate/internal/store"
	"tokengate/pkg/models"

	"github.com/sirupsen/logrus"
)

// Auditor 提交流水记录器
// 本地存储加外部输出，失败只记日志，绝不影响交易提交结果
type Auditor struct {
	output Output
	store  *store.Store
	logger *logrus.Logger
}

// NewAuditor 创建流水记录器
func NewAuditor(output Output, recordStore *store.Store, logger *logrus.Logger) *Auditor {
	return &Auditor{
		output: output,
		store:  recordStore,
		logger: logger,
	}
}

// RecordSubmission 记录一次交易提交
func (a *Auditor) RecordSubmission(record *models.TransactionRecord) {
	if record == nil {
		return
	}

	if a.store != nil {
		if err := a.store.Save(record); err != nil {
			a.logger.Warnf("保存提交记录失败 (hash=%s): %v", record.Hash, err)
		}
	}

	if a.output != nil {
		if err := a.output.WriteRecord(record); err != nil {
			a.logger.Warnf("输出提交记录失败 (hash=%s): %v", record.Hash, err)
		}
	}
}

// Close 关闭记录器
func (a *Auditor) Close() error {
	if a.output != nil {
		return a.output.Close()
	}
	return nil
}
