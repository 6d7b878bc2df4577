package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sitebooks/internal/model"
	"sitebooks/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*Hub, *service.TokenManager, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(nil, nil)
	go hub.Run(ctx)

	tokens := service.NewTokenManager("test-secret", time.Hour, time.Hour)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ServeWs(hub, tokens, c) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return hub, tokens, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestServeWsRejectsMissingAndBadTokens(t *testing.T) {
	_, _, url := newServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=garbage", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPublishReachesConnectedClient(t *testing.T) {
	hub, tokens, url := newServer(t)

	token, _, err := tokens.Issue(&model.User{Base: model.Base{ID: uuid.New()}, Username: "ravi", Role: model.RoleStaff})
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	change := model.Change{Entity: model.EntityClientBill, Action: model.ActionCreate, ID: uuid.New()}
	// registration is asynchronous; publish until the client sees the event
	deadline := time.Now().Add(2 * time.Second)
	received := make(chan model.Change, 1)
	go func() {
		var got model.Change
		_, msg, err := conn.ReadMessage()
		// several queued events arrive newline separated in one frame
		first, _, _ := strings.Cut(string(msg), "\n")
		if err == nil && json.Unmarshal([]byte(first), &got) == nil {
			received <- got
		}
	}()
	for time.Now().Before(deadline) {
		hub.Publish(change)
		select {
		case got := <-received:
			assert.Equal(t, change, got)
			return
		case <-time.After(50 * time.Millisecond):
		}
	}
	t.Fatal("change was not delivered")
}
