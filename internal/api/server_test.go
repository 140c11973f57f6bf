package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tokengate/internal/config"
	"tokengate/internal/errors"
	"tokengate/pkg/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubService 可编程的测试服务
type stubService struct {
	healthErr error
	info      *models.TokenInfo
	balance   *models.Balance
	txStatus  *models.TransactionStatus
	estimate  *models.GasEstimate
	hash      string
	err       error
	stats     *errors.ErrorStats
}

func (s *stubService) Health(ctx context.Context) error { return s.healthErr }

func (s *stubService) TokenInfo(ctx context.Context) (*models.TokenInfo, error) {
	return s.info, s.err
}

func (s *stubService) Balance(ctx context.Context, address string) (*models.Balance, error) {
	return s.balance, s.err
}

func (s *stubService) Mint(ctx context.Context, req *models.TransactionRequest) (string, error) {
	return s.hash, s.err
}

func (s *stubService) Transfer(ctx context.Context, req *models.TransactionRequest) (string, error) {
	return s.hash, s.err
}

func (s *stubService) Burn(ctx context.Context, req *models.TransactionRequest) (string, error) {
	return s.hash, s.err
}

func (s *stubService) TransactionStatus(ctx context.Context, hash string) (*models.TransactionStatus, error) {
	return s.txStatus, s.err
}

func (s *stubService) EstimateGas(ctx context.Context, functionName, toAddress string) (*models.GasEstimate, error) {
	return s.estimate, s.err
}

func (s *stubService) Stats() *errors.ErrorStats {
	if s.stats == nil {
		s.stats = errors.NewErrorStats()
	}
	return s.stats
}

func (s *stubService) ContractAddress() string {
	return "0x5FbDB2315678afecb367f032d93F642f64180aa3"
}

// stubRecords 固定返回的记录源
type stubRecords struct {
	records []*models.TransactionRecord
}

func (r *stubRecords) Recent(limit int) ([]*models.TransactionRecord, error) {
	if len(r.records) > limit {
		return r.records[:limit], nil
	}
	return r.records, nil
}

func newTestServer(service TokenService) *Server {
	logger := logrus.New()
	return NewServer(config.GetDefaultConfig(), service, logger, 8080)
}

func doRequest(t *testing.T, server *Server, method, path string, body interface{}) (*httptest.ResponseRecorder, *models.APIResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	var resp models.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, &resp
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(&stubService{})

	w, resp := doRequest(t, server, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "healthy", data["status"])
	assert.Equal(t, "connected", data["node"])
}

func TestHealthCheck_NodeDown(t *testing.T) {
	server := newTestServer(&stubService{
		healthErr: errors.NewRPCError(assert.AnError, "查询链ID失败"),
	})

	w, resp := doRequest(t, server, http.MethodGet, "/api/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "disconnected", data["node"])
}

func TestGetTokenInfo(t *testing.T) {
	server := newTestServer(&stubService{
		info: &models.TokenInfo{
			Name:     "Test Token",
			Symbol:   "TST",
			Decimals: 18,
		},
	})

	w, resp := doRequest(t, server, http.MethodGet, "/api/token/info", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Test Token", data["name"])
	assert.Equal(t, "TST", data["symbol"])
}

func TestGetBalance(t *testing.T) {
	server := newTestServer(&stubService{
		balance: &models.Balance{
			Address:          "0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1",
			Balance:          "1500000000000000000",
			FormattedBalance: "1.5",
		},
	})

	w, resp := doRequest(t, server, http.MethodGet, "/api/balance/0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "1.5", data["formatted_balance"])
}

func TestGetBalance_InvalidAddress(t *testing.T) {
	server := newTestServer(&stubService{
		err: errors.NewInvalidAddress("0x1234"),
	})

	w, resp := doRequest(t, server, http.MethodGet, "/api/balance/0x1234", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "INVALID_ADDRESS")
}

func TestMint(t *testing.T) {
	server := newTestServer(&stubService{hash: "0xdeadbeef"})

	w, resp := doRequest(t, server, http.MethodPost, "/api/mint", &models.TransactionRequest{
		ToAddress: "0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1",
		Amount:    "100",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "0xdeadbeef", data["transaction_hash"])
	assert.Equal(t, models.TxStatusPending, data["status"])
}

func TestMint_KeyMissing(t *testing.T) {
	server := newTestServer(&stubService{err: errors.NewKeyMissing()})

	w, resp := doRequest(t, server, http.MethodPost, "/api/mint", &models.TransactionRequest{
		ToAddress: "0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1",
		Amount:    "100",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "KEY_MISSING")
}

func TestTransfer_AddressMismatch(t *testing.T) {
	server := newTestServer(&stubService{
		err: errors.NewAddressMismatch(
			"0x0000000000000000000000000000000000000001",
			"0x0000000000000000000000000000000000000002"),
	})

	w, resp := doRequest(t, server, http.MethodPost, "/api/transfer", &models.TransactionRequest{
		FromAddress: "0x0000000000000000000000000000000000000001",
		ToAddress:   "0x0000000000000000000000000000000000000002",
		Amount:      "1",
		PrivateKey:  "abc",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "ADDRESS_MISMATCH")
}

func TestTransfer_MalformedBody(t *testing.T) {
	server := newTestServer(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/transfer", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBurn(t *testing.T) {
	server := newTestServer(&stubService{hash: "0xfeed"})

	w, resp := doRequest(t, server, http.MethodPost, "/api/burn", &models.TransactionRequest{
		FromAddress: "0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1",
		Amount:      "0.5",
		PrivateKey:  "abc",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
}

func TestGetTransactionStatus(t *testing.T) {
	server := newTestServer(&stubService{
		txStatus: &models.TransactionStatus{
			Hash:        "0xabc",
			Status:      models.TxStatusSuccess,
			BlockNumber: "42",
		},
	})

	w, resp := doRequest(t, server, http.MethodGet, "/api/transaction/0xabc", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, models.TxStatusSuccess, data["status"])
	assert.Equal(t, "42", data["block_number"])
}

func TestEstimateGas(t *testing.T) {
	server := newTestServer(&stubService{
		estimate: &models.GasEstimate{
			FunctionName:     "transfer",
			EstimatedGas:     "52000",
			GasPrice:         "2000000000",
			EstimatedCostWei: "104000000000000",
			EstimatedCostEth: "0.000104",
		},
	})

	w, resp := doRequest(t, server, http.MethodPost, "/api/gas/estimate", map[string]string{
		"function_name": "transfer",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "0.000104", data["estimated_cost_eth"])
}

func TestEstimateGas_UnknownFunction(t *testing.T) {
	server := newTestServer(&stubService{
		err: errors.NewUnknownFunction("approve"),
	})

	w, resp := doRequest(t, server, http.MethodPost, "/api/gas/estimate", map[string]string{
		"function_name": "approve",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
}

func TestGetStats(t *testing.T) {
	server := newTestServer(&stubService{})
	server.SetNodeStats(func() map[string]interface{} {
		return map[string]interface{}{"local_node": map[string]interface{}{"is_healthy": true}}
	})

	w, resp := doRequest(t, server, http.MethodGet, "/api/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Contains(t, data, "errors")
	assert.Contains(t, data, "nodes")
}

func TestGetRecentTransactions(t *testing.T) {
	server := newTestServer(&stubService{})
	server.SetRecordLister(&stubRecords{
		records: []*models.TransactionRecord{
			{Hash: "0x1", Operation: "mint"},
			{Hash: "0x2", Operation: "transfer"},
		},
	})

	w, resp := doRequest(t, server, http.MethodGet, "/api/transactions?limit=1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	data := resp.Data.([]interface{})
	assert.Len(t, data, 1)
}

func TestGetRecentTransactions_NoStore(t *testing.T) {
	server := newTestServer(&stubService{})

	w, resp := doRequest(t, server, http.MethodGet, "/api/transactions", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
}

func TestCORSPreflight(t *testing.T) {
	server := newTestServer(&stubService{})

	req := httptest.NewRequest(http.MethodOptions, "/api/token/info", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, 204, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestLogsEndpoint(t *testing.T) {
	service := &stubService{}
	logger := logrus.New()
	server := NewServer(config.GetDefaultConfig(), service, logger, 8080)

	logger.Info("测试日志条目")

	w, resp := doRequest(t, server, http.MethodGet, "/api/logs", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.GreaterOrEqual(t, data["total"].(float64), float64(1))
}
