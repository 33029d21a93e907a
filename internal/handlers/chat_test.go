package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatapp/internal/mocks"
	"chatapp/internal/models"
	"chatapp/internal/ws"
)

func setupChatRouter(handler *ChatHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/api/messages", handler.GetMessages)
	r.GET("/api/users/online", handler.GetOnlineUsers)
	return r
}

func TestGetMessagesPublicFeed(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	handler := NewChatHandler(repo, ws.NewPresenceTracker(), 50)
	router := setupChatRouter(handler)

	repo.On("ListVisibleMessages", mock.Anything, 1, (*int)(nil), 50).
		Return([]models.Message{{ID: 1, SenderID: 2, Content: "hello", SenderUsername: "bob"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Messages []models.Message `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "hello", resp.Messages[0].Content)
	repo.AssertExpectations(t)
}

func TestGetMessagesPrivateConversation(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	handler := NewChatHandler(repo, ws.NewPresenceTracker(), 50)
	router := setupChatRouter(handler)

	peer := 2
	repo.On("ListVisibleMessages", mock.Anything, 1, &peer, 10).
		Return([]models.Message{}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/messages?recipient_id=2&limit=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestGetMessagesInvalidParams(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	handler := NewChatHandler(repo, ws.NewPresenceTracker(), 50)
	router := setupChatRouter(handler)

	for _, path := range []string{"/api/messages?limit=abc", "/api/messages?limit=0", "/api/messages?recipient_id=abc"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
	repo.AssertNotCalled(t, "ListVisibleMessages", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetMessagesRepoError(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	handler := NewChatHandler(repo, ws.NewPresenceTracker(), 50)
	router := setupChatRouter(handler)

	repo.On("ListVisibleMessages", mock.Anything, 1, (*int)(nil), 50).
		Return(([]models.Message)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	repo.AssertExpectations(t)
}

func TestGetOnlineUsers(t *testing.T) {
	presence := ws.NewPresenceTracker()
	presence.ConnectionOpened(2)
	presence.ConnectionOpened(5)

	handler := NewChatHandler(new(mocks.MessageRepositoryMock), presence, 50)
	router := setupChatRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/users/online", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Online []int `json:"online"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []int{2, 5}, resp.Online)
}
