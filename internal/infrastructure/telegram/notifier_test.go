package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDigestPostsForm(t *testing.T) {
	t.Parallel()

	type received struct {
		path, chatID, text string
	}
	got := make(chan received, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		got <- received{path: r.URL.Path, chatID: r.PostForm.Get("chat_id"), text: r.PostForm.Get("text")}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewNotifier("TOKEN", "42", nil, WithAPIBase(srv.URL+"/"))
	require.NoError(t, n.PublishDigest(context.Background(), "Reddit: 1 high-signal of 4 harvested"))

	r := <-got
	assert.Equal(t, "/botTOKEN/sendMessage", r.path)
	assert.Equal(t, "42", r.chatID)
	assert.Equal(t, "Reddit: 1 high-signal of 4 harvested", r.text)
}

func TestPublishDigestTruncatesLongText(t *testing.T) {
	t.Parallel()

	got := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		got <- r.PostForm.Get("text")
	}))
	defer srv.Close()

	n := NewNotifier("T", "1", nil, WithAPIBase(srv.URL))
	require.NoError(t, n.PublishDigest(context.Background(), strings.Repeat("x", 5000)))
	assert.Len(t, []rune(<-got), maxMessageRunes)
}

func TestPublishDigestErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewNotifier("T", "1", nil, WithAPIBase(srv.URL)).PublishDigest(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")

	err = NewNotifier("", "1", nil).PublishDigest(context.Background(), "hi")
	assert.EqualError(t, err, "telegram notifier misconfigured")
}
