package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum/config"
)

func TestRenderTemplates(t *testing.T) {
	otp := OTPEmail("a@example.com", "Ann", "482913")
	body, err := renderTemplate(otp.Template, otp.Data)
	require.NoError(t, err)
	assert.Contains(t, body, "482913")
	assert.Contains(t, body, "Ann")

	creds := CredentialsEmail("w@acme.example", "Wes", "https://app.example/login", "Init1@pass")
	body, err = renderTemplate(creds.Template, creds.Data)
	require.NoError(t, err)
	assert.Contains(t, body, "w@acme.example")
	assert.Contains(t, body, "https://app.example/login")

	_, err = renderTemplate("missing", nil)
	assert.Error(t, err)
}

func TestAPIMailer(t *testing.T) {
	var payload map[string]interface{}
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	mailer := NewMailer(config.MailConfig{
		Transport: "api",
		APIURL:    srv.URL,
		APIKey:    "key-1",
		FromEmail: "no-reply@momentum.example",
		FromName:  "Momentum",
	})
	require.IsType(t, &APIMailer{}, mailer)

	require.NoError(t, mailer.Send(context.Background(), OTPEmail("a@example.com", "Ann", "111222")))
	assert.Equal(t, "Bearer key-1", auth)
	assert.Equal(t, "Your Verification Code", payload["subject"])
	assert.Contains(t, payload["html"], "111222")
}

func TestAPIClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewAPIClient(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})
	_, err := client.Call(context.Background(), http.MethodPost, srv.URL, nil, []byte(`{}`))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestAPIClientRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"id":"m-1"}`))
	}))
	defer srv.Close()

	client := NewAPIClient(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})
	out, err := client.Call(context.Background(), http.MethodPost, srv.URL, nil, []byte(`{}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"m-1"}`, string(out))
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}
