package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zhouzirui/k2-chat/backend/internal/analysis/keyword"
	"github.com/zhouzirui/k2-chat/backend/internal/model/profile"
	"github.com/zhouzirui/k2-chat/backend/internal/render"
	chatService "github.com/zhouzirui/k2-chat/backend/internal/service/chat"
)

func TestRouterMountsAPI(t *testing.T) {
	chatSvc := chatService.NewService(chatService.Options{})
	defer chatSvc.Close()
	router := NewRouter(profile.NewMemoryStore(profile.Seed()), chatSvc, keyword.DefaultTable(), render.NewFormatter(), nil)

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/profiles", http.StatusOK},
		{http.MethodGet, "/api/session/missing", http.StatusNotFound},
		{http.MethodGet, "/api/session/missing/events", http.StatusNotFound},
		{http.MethodOptions, "/api/session", http.StatusNoContent},
		{http.MethodGet, "/healthz", http.StatusNoContent},
	}

	for _, tc := range cases {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(tc.method, tc.path, nil))
		if resp.Code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, tc.want, resp.Code)
		}
	}
}
