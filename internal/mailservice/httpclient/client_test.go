package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailchat/internal/mailservice"
)

const testToken = "opaque-token"

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", nil)
}

func TestListRecent(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/recent", r.URL.Path)
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[
			{"id":"m1","sender":"a@x.com","subject":"Hi","date":"Mon","snippet":"hello","summary":"greets","threadId":"t1"},
			{"id":"m2","sender":"b@x.com","subject":"Yo","date":"Tue","snippet":"sup","threadId":"t2"}
		]`))
	})

	emails, err := c.ListRecent(context.Background(), testToken)
	require.NoError(t, err)
	require.Len(t, emails, 2)
	assert.Equal(t, "m1", emails[0].ID)
	assert.Equal(t, "greets", emails[0].Summary)
	assert.Equal(t, "t1", emails[0].ThreadID)
	assert.Empty(t, emails[1].Summary)
}

func TestDraftReplySendsBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate-reply", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req GenerateReplyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "m1", req.EmailID)
		assert.Equal(t, "hello\ngreets", req.OriginalContent)
		assert.Equal(t, "positive professional", req.Instructions)

		_, _ = w.Write([]byte(`{"reply":"Thanks!"}`))
	})

	reply, err := c.DraftReply(context.Background(), testToken, "m1", "hello\ngreets", "positive professional")
	require.NoError(t, err)
	assert.Equal(t, "Thanks!", reply)
}

func TestSend(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/send", r.URL.Path)

		var req SendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, SendRequest{To: "a@x.com", Subject: "Re: Hi", Body: "Thanks!", ThreadID: "t1"}, req)

		_, _ = w.Write([]byte(`{"status":"sent","id":"s1"}`))
	})

	err := c.Send(context.Background(), testToken, mailservice.SendRequest{
		To: "a@x.com", Subject: "Re: Hi", Body: "Thanks!", ThreadID: "t1",
	})
	assert.NoError(t, err)
}

func TestTrashEscapesID(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/a%2Fb", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"status":"deleted"}`))
	})

	assert.NoError(t, c.Trash(context.Background(), testToken, "a/b"))
}

func TestNonSuccessStatusIsServiceError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid token"}`))
	})

	_, err := c.ListRecent(context.Background(), "bad")
	require.Error(t, err)

	var svcErr *mailservice.ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, mailservice.OpListRecent, svcErr.Op)
	assert.Equal(t, http.StatusUnauthorized, svcErr.StatusCode)
	assert.Contains(t, svcErr.Error(), "Invalid token")
}

func TestServerErrorWithoutBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := c.Trash(context.Background(), testToken, "m1")

	var svcErr *mailservice.ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, http.StatusInternalServerError, svcErr.StatusCode)
}

func TestTransportFailureIsServiceError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := New(url, nil).Send(context.Background(), testToken, mailservice.SendRequest{})
	require.Error(t, err)
	assert.True(t, mailservice.IsServiceError(err))
}

func TestWithHTTPClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := New(srv.URL, nil).WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := c.ListRecent(context.Background(), testToken)
	require.Error(t, err)
	assert.True(t, mailservice.IsServiceError(err))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestMalformedJSONIsServiceError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := c.ListRecent(context.Background(), testToken)
	assert.True(t, mailservice.IsServiceError(err))
}
