package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netcanvas/internal/domain"
)

func TestDecodeDevices(t *testing.T) {
	seen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		body    string
		want    []domain.DeviceRecord
		wantErr bool
	}{
		{
			name: "bare array with RFC 3339 timestamp",
			body: `[{"deviceId":"d1","hostname":"ws-01","osName":"Windows 11","lastSeenTimestamp":"2026-03-01T12:00:00Z","appCount":12}]`,
			want: []domain.DeviceRecord{{DeviceID: "d1", Hostname: "ws-01", OSName: "Windows 11", LastSeen: seen, AppCount: 12}},
		},
		{
			name: "value envelope with epoch milliseconds",
			body: `{"value":[{"deviceId":"d2","hostname":"srv","osName":"Linux","lastSeenTimestamp":` + "1772366400000" + `,"appCount":3,"alertCount":2}]}`,
			want: []domain.DeviceRecord{{DeviceID: "d2", Hostname: "srv", OSName: "Linux", LastSeen: seen, AppCount: 3, AlertCount: 2}},
		},
		{
			name: "numeric device id and null timestamp",
			body: `[{"deviceId":42,"hostname":"","lastSeenTimestamp":null}]`,
			want: []domain.DeviceRecord{{DeviceID: "42"}},
		},
		{
			name: "entries without id are dropped",
			body: `[{"hostname":"ghost"},{"deviceId":"d3"}]`,
			want: []domain.DeviceRecord{{DeviceID: "d3"}},
		},
		{
			name: "empty array",
			body: `[]`,
			want: []domain.DeviceRecord{},
		},
		{
			name:    "envelope without value",
			body:    `{"items":[]}`,
			wantErr: true,
		},
		{
			name:    "not json",
			body:    `<html>login</html>`,
			wantErr: true,
		},
		{
			name:    "empty body",
			body:    "  ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeDevices([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i].DeviceID, got[i].DeviceID)
				assert.Equal(t, tt.want[i].Hostname, got[i].Hostname)
				assert.Equal(t, tt.want[i].OSName, got[i].OSName)
				assert.Equal(t, tt.want[i].AppCount, got[i].AppCount)
				assert.Equal(t, tt.want[i].AlertCount, got[i].AlertCount)
				assert.True(t, tt.want[i].LastSeen.Equal(got[i].LastSeen), "lastSeen %v != %v", got[i].LastSeen, tt.want[i].LastSeen)
			}
		})
	}
}

func TestInventoryClientFetch(t *testing.T) {
	t.Run("sends bearer token", func(t *testing.T) {
		var gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"value":[{"deviceId":"d1","hostname":"ws-01"}]}`))
		}))
		defer srv.Close()

		client := NewInventoryClient(srv.URL, WithTokenSource(StaticToken("secret")))
		records, err := client.Fetch(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "Bearer secret", gotAuth)
		require.Len(t, records, 1)
		assert.Equal(t, "ws-01", records[0].Hostname)
	})

	t.Run("omits header without token", func(t *testing.T) {
		var hadAuth bool
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, hadAuth = r.Header["Authorization"]
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		_, err := NewInventoryClient(srv.URL).Fetch(context.Background())
		require.NoError(t, err)
		assert.False(t, hadAuth)
	})

	t.Run("env token", func(t *testing.T) {
		t.Setenv("NETCANVAS_TEST_TOKEN", "from-env")
		var gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		_, err := NewInventoryClient(srv.URL, WithTokenSource(EnvToken("NETCANVAS_TEST_TOKEN"))).Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Bearer from-env", gotAuth)
	})

	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", status)
			}))
			defer srv.Close()

			records, err := NewInventoryClient(srv.URL).Fetch(context.Background())
			assert.ErrorIs(t, err, domain.ErrSyncFailure)
			assert.Empty(t, records)
		})
	}

	t.Run("unreachable host", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewInventoryClient(url).Fetch(context.Background())
		assert.ErrorIs(t, err, domain.ErrSyncFailure)
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"value":`))
		}))
		defer srv.Close()

		_, err := NewInventoryClient(srv.URL).Fetch(context.Background())
		assert.ErrorIs(t, err, domain.ErrSyncFailure)
	})
}
