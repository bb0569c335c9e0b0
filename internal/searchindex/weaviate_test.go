package searchindex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weaviate/weaviate/entities/models"
	"github.com/weaviate/weaviate/entities/schema"

	"github.com/mindmirror/mindmirror/internal/model"
)

func TestObjectID_StablePerNaturalKey(t *testing.T) {
	a := model.EmotionEntry{UserID: "u1", Timestamp: "2024-01-01T10:00:00"}
	b := model.EmotionEntry{UserID: "u1", Timestamp: "2024-01-01T10:00:00", Mood: "sad"}
	c := model.EmotionEntry{UserID: "u2", Timestamp: "2024-01-01T10:00:00"}

	assert.Equal(t, ObjectID(a), ObjectID(b))
	assert.NotEqual(t, ObjectID(a), ObjectID(c))
	assert.Len(t, ObjectID(a).String(), 36)
}

func TestDecodeHits(t *testing.T) {
	data := map[string]models.JSONObject{
		"Get": map[string]interface{}{
			ClassName: []interface{}{
				map[string]interface{}{
					"userId":      "u1",
					"timestamp":   "2024-01-01T10:00:00",
					"mood":        "happy",
					"summary":     "good day",
					"_additional": map[string]interface{}{"score": "0.75"},
				},
				map[string]interface{}{
					"userId":      "u1",
					"timestamp":   "2024-01-02T10:00:00",
					"mood":        "sad",
					"_additional": map[string]interface{}{"score": 0.5},
				},
				"garbage",
			},
		},
	}
	hits := decodeHits(data)
	require.Len(t, hits, 2)
	assert.Equal(t, "happy", hits[0].Mood)
	assert.InDelta(t, 0.75, hits[0].Score, 1e-9)
	assert.Equal(t, "", hits[1].Summary)
	assert.InDelta(t, 0.5, hits[1].Score, 1e-9)

	assert.Empty(t, decodeHits(map[string]models.JSONObject{}))
}

func TestEntryClass_MultiTenant(t *testing.T) {
	cls := entryClass()
	require.NotNil(t, cls.MultiTenancyConfig)
	assert.True(t, cls.MultiTenancyConfig.Enabled)
	assert.Equal(t, ClassName, cls.Class)
}

func TestTenantName(t *testing.T) {
	assert.Equal(t, "alice", TenantName("alice"))
	assert.Equal(t, "default_user", TenantName("default_user"))

	for _, id := range []string{"alice@example.com", "first.last", strings.Repeat("z", 72)} {
		tenant := TenantName(id)
		assert.NotEqual(t, id, tenant)
		assert.True(t, strings.HasPrefix(tenant, "u_"))
		require.NoError(t, schema.ValidateTenantName(tenant), id)
		assert.Equal(t, tenant, TenantName(id))
	}
	assert.NotEqual(t, TenantName("a@b"), TenantName("a.b"))
}

func TestClientConfig(t *testing.T) {
	tests := []struct {
		in, scheme, host string
	}{
		{"weaviate:8080", "http", "weaviate:8080"},
		{"http://weaviate:8080", "http", "weaviate:8080"},
		{"https://search.example.com/", "https", "search.example.com"},
		{" http://127.0.0.1:8082/ ", "http", "127.0.0.1:8082"},
	}
	for _, tt := range tests {
		cfg := ClientConfig(tt.in)
		assert.Equal(t, tt.scheme, cfg.Scheme, tt.in)
		assert.Equal(t, tt.host, cfg.Host, tt.in)
	}
}

// fakeWeaviate answers the schema and liveness endpoints used at startup.
type fakeWeaviate struct {
	mu      sync.Mutex
	created []string
	paths   []string
}

func (f *fakeWeaviate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.paths = append(f.paths, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/v1/.well-known/live":
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && r.URL.Path == "/v1/meta":
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"version":"1.31.4"}`))
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/schema/"):
		http.NotFound(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/v1/schema":
		var cls models.Class
		_ = json.NewDecoder(r.Body).Decode(&cls)
		f.mu.Lock()
		f.created = append(f.created, cls.Class)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cls)
	default:
		http.NotFound(w, r)
	}
}

func TestSchemePrefixedURL_BootstrapAndIndexShareHost(t *testing.T) {
	fake := &fakeWeaviate{}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	require.True(t, strings.HasPrefix(srv.URL, "http://"))

	ctx := context.Background()
	require.NoError(t, BootstrapWeaviate(ctx, srv.URL))

	idx, err := NewWeaviateIndex(srv.URL)
	require.NoError(t, err)
	pinger, ok := idx.(interface{ HealthPing(context.Context) error })
	require.True(t, ok)
	require.NoError(t, pinger.HealthPing(ctx))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, []string{ClassName}, fake.created)
	assert.Contains(t, fake.paths, "GET /v1/.well-known/live")
}
