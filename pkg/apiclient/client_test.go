package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestRouteRendersPlaceholders(t *testing.T) {
	p := Route("/carts/{cartId}/product/{productId}", "c 1", "P/2")
	assert.Equal(t, "/carts/{cartId}/product/{productId}", p.Template())
	assert.Equal(t, "/carts/c%201/product/P%2F2", p.String())

	missing := Route("carts/{cartId}")
	assert.Equal(t, "/carts/{cartId}", missing.String())
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
	_, err = New("/api")
	require.Error(t, err)

	client, err := New("http://api.test/api/")
	require.NoError(t, err)
	assert.Equal(t, "http://api.test/api", client.BaseURL())
}

func TestNewLeavesCallerHTTPClientUntouched(t *testing.T) {
	shared := &http.Client{}
	client, err := New("http://api.test", WithHTTPClient(shared), WithTimeout(3*time.Second))
	require.NoError(t, err)

	assert.Nil(t, shared.Jar)
	assert.Zero(t, shared.Timeout)
	assert.NotNil(t, client.httpClient.Jar)
	assert.Equal(t, 3*time.Second, client.httpClient.Timeout)
	assert.NotSame(t, shared, client.httpClient)
}

func TestDoSendsJSONAndHeaders(t *testing.T) {
	var captured *http.Request
	var capturedBody map[string]any

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		captured = req
		raw, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &capturedBody))
		return &http.Response{
			StatusCode: http.StatusCreated,
			Body:       io.NopCloser(strings.NewReader(`{"orderId":"o-1"}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := New("http://api.test/api", WithHTTPClient(&http.Client{Transport: rt}), WithUserAgent("cli-test"))
	require.NoError(t, err)

	var out struct {
		OrderID string `json:"orderId"`
	}
	err = client.Post(context.Background(), Route("/order/users/payments/{method}", "cod"), map[string]string{"addressId": "a-1"}, &out, WithIdempotencyKey("key-1"))
	require.NoError(t, err)

	assert.Equal(t, "o-1", out.OrderID)
	assert.Equal(t, "http://api.test/api/order/users/payments/cod", captured.URL.String())
	assert.Equal(t, "application/json", captured.Header.Get("Content-Type"))
	assert.Equal(t, "cli-test", captured.Header.Get("User-Agent"))
	assert.Equal(t, "key-1", captured.Header.Get(idempotencyHeader))
	assert.NotEmpty(t, captured.Header.Get(requestIDHeader))
	assert.Equal(t, "a-1", capturedBody["addressId"])
}

func TestDoWithQuery(t *testing.T) {
	var rawQuery string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		rawQuery = req.URL.RawQuery
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(``)), Header: http.Header{}}, nil
	})
	client, err := New("http://api.test", WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	var out map[string]any
	err = client.Get(context.Background(), Route("/public/products"), &out, WithQuery(url.Values{"pageNumber": {"2"}}))
	require.NoError(t, err)
	assert.Equal(t, "pageNumber=2", rawQuery)
}

func TestDoMapsStatusToTypedError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    pkgerrors.Code
		message string
	}{
		{name: "envelope message", status: http.StatusNotFound, body: `{"message":"Cart not found","status":false}`, code: pkgerrors.CodeNotFound, message: "Cart not found"},
		{name: "plain text body", status: http.StatusUnauthorized, body: "Full authentication is required", code: pkgerrors.CodeUnauthorized, message: "Full authentication is required"},
		{name: "empty body", status: http.StatusBadGateway, body: "", code: pkgerrors.CodeDependency, message: "Bad Gateway"},
		{name: "envelope code", status: http.StatusUnprocessableEntity, body: `{"message":"Mug is not available","status":false,"code":"STATE_CONFLICT"}`, code: pkgerrors.CodeStateConflict, message: "Mug is not available"},
		{name: "envelope code disagreeing with status", status: http.StatusBadRequest, body: `{"message":"odd","status":false,"code":"NOT_FOUND"}`, code: pkgerrors.CodeValidation, message: "odd"},
		{name: "json without message", status: http.StatusBadRequest, body: `{"street":"too short"}`, code: pkgerrors.CodeValidation, message: "Bad Request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client, err := New(srv.URL)
			require.NoError(t, err)

			err = client.Get(context.Background(), Route("/carts/users/cart"), nil)
			require.Error(t, err)

			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, tt.code, typed.Code())
			assert.Equal(t, tt.message, typed.Message())
			assert.Equal(t, tt.status, StatusCode(err))
			assert.True(t, IsStatus(err, http.StatusTeapot, tt.status))

			var respErr *ResponseError
			require.True(t, errors.As(err, &respErr))
			assert.Equal(t, "/carts/users/cart", respErr.Route)
		})
	}
}

func TestAuthDetectionIgnoresUnrelatedFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"message":"Full authentication is required","status":false}`, want: true},
		{name: "forbidden with session wording", status: http.StatusForbidden, body: `{"message":"Session expired","status":false}`, want: true},
		{name: "conflict mentioning token", status: http.StatusConflict, body: `{"message":"idempotency token conflict","status":false,"code":"CONFLICT"}`, want: false},
		{name: "out of stock", status: http.StatusUnprocessableEntity, body: `{"message":"Please log in again later, Mug is gone","status":false,"code":"STATE_CONFLICT"}`, want: false},
		{name: "gateway page", status: http.StatusBadGateway, body: `<html>session proxy error</html>`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client, err := New(srv.URL)
			require.NoError(t, err)
			err = client.Post(context.Background(), Route("/order/users/payments/{method}", "cod"), map[string]string{}, nil)
			require.Error(t, err)
			assert.Equal(t, tt.want, pkgerrors.IsAuth(err))
		})
	}
}

func TestDoTransportFailureIsDependencyError(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	reg := prometheus.NewRegistry()
	client, err := New("http://api.test", WithHTTPClient(&http.Client{Transport: rt}), WithMetrics(metrics.NewHTTPMetrics(reg, "client")))
	require.NoError(t, err)

	err = client.Get(context.Background(), Route("/auth/user"), nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))
	assert.Equal(t, 0, StatusCode(err))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)
}

func TestSessionCookiesRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/signin":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
			w.WriteHeader(http.StatusOK)
		case "/auth/user":
			cookie, err := r.Cookie("session")
			if err != nil || cookie.Value != "abc" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"id":"1"}`))
		}
	}))
	defer srv.Close()

	first, err := New(srv.URL)
	require.NoError(t, err)
	require.NoError(t, first.Post(context.Background(), Route("/auth/signin"), map[string]string{}, nil))
	require.NoError(t, first.Get(context.Background(), Route("/auth/user"), nil))

	cookies := first.SessionCookies()
	require.Len(t, cookies, 1)

	second, err := New(srv.URL)
	require.NoError(t, err)
	err = second.Get(context.Background(), Route("/auth/user"), nil)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))

	second.RestoreSessionCookies(cookies)
	require.NoError(t, second.Get(context.Background(), Route("/auth/user"), nil))
}
