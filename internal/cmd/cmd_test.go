package cmd

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestQuoteCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr bool
	}{
		{
			name: "cart with flat shipping",
			args: []string{"quote", "--subtotal", "80", "--mode", "cart"},
			want: []string{"Subtotal: $80.00", "Shipping: $15.99", "Tax:      $6.40", "Total:    $102.39"},
		},
		{
			name: "checkout standard is free from fifty",
			args: []string{"quote", "--subtotal", "60", "--mode", "checkout", "--shipping", "standard"},
			want: []string{"Shipping: FREE (Standard Shipping)", "Total:    $64.80", "Estimated delivery:"},
		},
		{
			name: "checkout overnight",
			args: []string{"quote", "--subtotal", "10", "--mode", "checkout", "--shipping", "overnight"},
			want: []string{"Shipping: $29.99 (Overnight Shipping)", "Tax:      $0.80", "Total:    $40.79"},
		},
		{name: "unknown mode", args: []string{"quote", "--subtotal", "10", "--mode", "wishlist"}, wantErr: true},
		{name: "bad amount", args: []string{"quote", "--subtotal", "ten", "--mode", "cart"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestProductsCommand(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/products/", r.URL.Path)
		assert.Equal(t, "lamp", r.URL.Query().Get("search"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":1,"results":[{"id":3,"name":"Desk Lamp","price":"24.5","is_in_stock":true}]}`))
	}))
	defer backend.Close()
	t.Setenv("STOREFRONT_BACKEND_URL", backend.URL)

	out, err := run(t, "products", "--search", "lamp", "--page", "1")

	require.NoError(t, err)
	assert.Contains(t, out, "Desk Lamp")
	assert.Contains(t, out, "$24.50")
	assert.Contains(t, out, "page 1 of 1 (1 products)")
}

func TestShutdownEndsOpenEventStreams(t *testing.T) {
	bus := events.NewBus(nil)
	subscribed := make(chan struct{})
	srv := &http.Server{
		ReadHeaderTimeout: time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ch, cancel := bus.Subscribe(nil, 1)
			defer cancel()
			w.WriteHeader(http.StatusOK)
			w.(http.Flusher).Flush()
			close(subscribed)
			for range ch {
			}
		}),
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String())
	require.NoError(t, err)
	defer resp.Body.Close()
	<-subscribed

	var closed bool
	start := time.Now()
	err = shutdown(srv, bus, []func() error{func() error { closed = true; return nil }}, nil)

	require.NoError(t, err)
	assert.Less(t, time.Since(start), shutdownTimeout/2)
	assert.True(t, closed)
	_, err = io.ReadAll(resp.Body)
	assert.NoError(t, err)
}
