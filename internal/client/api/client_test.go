package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendOTP_PostsEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send-otp", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])
		_, _ = w.Write([]byte(`{"success":true,"message":"Code envoyé"}`))
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL+"/", nil).SendOTP(context.Background(), "a@b.com"))
}

func TestErrorCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Code invalide ou expiré"}`))
	}))
	defer srv.Close()

	err := New(srv.URL, nil).VerifyOTP(context.Background(), "a@b.com", "000000")
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Code invalide ou expiré", apiErr.Message)
}

func TestMyShop_NullAndBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"shop":null}`))
	}))
	defer srv.Close()

	sh, err := New(srv.URL, nil).MyShop(context.Background(), "tok")
	require.NoError(t, err)
	assert.Nil(t, sh)
}

func TestCreateAccount_DecodesUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ma Boutique", body["storeName"])
		_, _ = w.Write([]byte(`{"success":true,"user":{"id":"u1","email":"a@b.com"}}`))
	}))
	defer srv.Close()

	name := "Ma Boutique"
	ref, err := New(srv.URL, nil).CreateAccount(context.Background(), "a@b.com", "secret1", &name)
	require.NoError(t, err)
	assert.Equal(t, "u1", ref.ID)
}
