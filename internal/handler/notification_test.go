package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.portal/internal/model"
	"sudooom.portal/pkg/response"
)

// MockNotificationReader 模拟通知收件箱
type MockNotificationReader struct {
	ListFunc    func(ctx context.Context, recipientID int64, offset, limit int64) ([]*model.Notification, error)
	DismissFunc func(ctx context.Context, recipientID, notificationID int64) error
	CountFunc   func(ctx context.Context, recipientID int64) (int64, error)
}

func (m *MockNotificationReader) List(ctx context.Context, recipientID int64, offset, limit int64) ([]*model.Notification, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, recipientID, offset, limit)
	}
	return nil, nil
}

func (m *MockNotificationReader) Dismiss(ctx context.Context, recipientID, notificationID int64) error {
	if m.DismissFunc != nil {
		return m.DismissFunc(ctx, recipientID, notificationID)
	}
	return nil
}

func (m *MockNotificationReader) Count(ctx context.Context, recipientID int64) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, recipientID)
	}
	return 0, nil
}

// setupNotificationRouter 创建测试路由，模拟已认证用户
func setupNotificationRouter(reader NotificationReader, userID int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
	})

	h := NewNotificationHandler(reader)
	r.GET("/notifications", h.List)
	r.GET("/notifications/count", h.Count)
	r.DELETE("/notifications/:id", h.Dismiss)
	return r
}

// APIResponse 用于解析响应体
type APIResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func TestNotificationHandler_List_Success(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)
	reader := &MockNotificationReader{
		ListFunc: func(ctx context.Context, recipientID int64, offset, limit int64) ([]*model.Notification, error) {
			assert.Equal(t, int64(200), recipientID)
			assert.Equal(t, int64(0), offset)
			assert.Equal(t, int64(20), limit)
			return []*model.Notification{
				{ID: 2, RecipientID: 200, SenderName: "李老师", Body: "作业已批改", CreatedAt: now},
				{ID: 1, RecipientID: 200, SenderName: "李老师", Body: "你好", CreatedAt: now.Add(-time.Minute)},
			}, nil
		},
	}

	router := setupNotificationRouter(reader, 200)

	req, _ := http.NewRequest(http.MethodGet, "/notifications", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, response.CodeSuccess, resp.Code)

	var data struct {
		List []*model.Notification `json:"list"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Len(t, data.List, 2)
	assert.Equal(t, int64(2), data.List[0].ID)
	assert.Equal(t, "作业已批改", data.List[0].Body)
}

func TestNotificationHandler_List_ClampsPaging(t *testing.T) {
	var gotOffset, gotLimit int64
	reader := &MockNotificationReader{
		ListFunc: func(ctx context.Context, recipientID int64, offset, limit int64) ([]*model.Notification, error) {
			gotOffset, gotLimit = offset, limit
			return nil, nil
		},
	}

	router := setupNotificationRouter(reader, 200)

	testCases := []struct {
		name       string
		query      string
		wantOffset int64
		wantLimit  int64
	}{
		{name: "负偏移归零", query: "?offset=-5&limit=10", wantOffset: 0, wantLimit: 10},
		{name: "超限截断", query: "?offset=0&limit=500", wantOffset: 0, wantLimit: 20},
		{name: "零条数回退默认", query: "?limit=0", wantOffset: 0, wantLimit: 20},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/notifications"+tc.query, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.wantOffset, gotOffset)
			assert.Equal(t, tc.wantLimit, gotLimit)
		})
	}
}

func TestNotificationHandler_Dismiss_Success(t *testing.T) {
	var dismissed int64
	reader := &MockNotificationReader{
		DismissFunc: func(ctx context.Context, recipientID, notificationID int64) error {
			assert.Equal(t, int64(200), recipientID)
			dismissed = notificationID
			return nil
		},
	}

	router := setupNotificationRouter(reader, 200)

	req, _ := http.NewRequest(http.MethodDelete, "/notifications/42", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, int64(42), dismissed)
}

func TestNotificationHandler_Dismiss_InvalidID(t *testing.T) {
	router := setupNotificationRouter(&MockNotificationReader{}, 200)

	req, _ := http.NewRequest(http.MethodDelete, "/notifications/abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, response.CodeInvalidParams, resp.Code)
}

func TestNotificationHandler_Count(t *testing.T) {
	reader := &MockNotificationReader{
		CountFunc: func(ctx context.Context, recipientID int64) (int64, error) {
			return 7, nil
		},
	}

	router := setupNotificationRouter(reader, 200)

	req, _ := http.NewRequest(http.MethodGet, "/notifications/count", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, response.CodeSuccess, resp.Code)

	var data struct {
		Count int64 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, int64(7), data.Count)
}

func TestNotificationHandler_List_StoreError(t *testing.T) {
	reader := &MockNotificationReader{
		ListFunc: func(ctx context.Context, recipientID int64, offset, limit int64) ([]*model.Notification, error) {
			return nil, errors.New("redis: connection refused")
		},
	}

	router := setupNotificationRouter(reader, 200)

	req, _ := http.NewRequest(http.MethodGet, "/notifications", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, response.CodeServerError, resp.Code)
}
