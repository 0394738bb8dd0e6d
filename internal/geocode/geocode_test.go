package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"attorneyvisit/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggester_Suggest(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprint(w, `{"suggestions":[{"text":"100 Centre St, New York, NY","magicKey":"abc"}]}`)
	}))
	defer srv.Close()

	got := NewSuggester(srv.URL, logger.Discard()).Suggest(context.Background(), " 100 Centre ")
	require.Len(t, got, 1)
	assert.Equal(t, "100 Centre St, New York, NY", got[0].Text)
	assert.Equal(t, "abc", got[0].MagicKey)

	assert.Equal(t, "json", gotQuery.Get("f"))
	assert.Equal(t, "100 Centre", gotQuery.Get("text"))
	assert.Equal(t, "USA", gotQuery.Get("countryCode"))
	assert.Equal(t, "10", gotQuery.Get("maxSuggestions"))
}

func TestSuggester_ShortQuerySkipsRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	s := NewSuggester(srv.URL, logger.Discard())
	assert.Empty(t, s.Suggest(context.Background(), "10"))
	assert.Empty(t, s.Suggest(context.Background(), "   "))
	assert.Equal(t, int32(0), hits.Load())
}

func TestSuggester_FailuresReturnEmpty(t *testing.T) {
	for _, tt := range []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusServiceUnavailable, ""},
		{"bad json", http.StatusOK, "{"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			assert.Empty(t, NewSuggester(srv.URL, logger.Discard()).Suggest(context.Background(), "100 Centre"))
		})
	}
}
