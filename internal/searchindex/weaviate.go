package searchindex

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	gql "github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"github.com/weaviate/weaviate/entities/schema"

	"github.com/mindmirror/mindmirror/internal/model"
)

// entryNamespace scopes the deterministic object ids derived from entry keys.
var entryNamespace = uuid.MustParse("6f1c3d0e-7a52-4c1e-9a53-2f4d7e0b8c11")

// ObjectID maps an entry's natural key (user_id + "_" + timestamp) to a stable UUID.
func ObjectID(e model.EmotionEntry) strfmt.UUID {
	return strfmt.UUID(uuid.NewSHA1(entryNamespace, []byte(e.ID())).String())
}

// TenantName maps a user id to its Weaviate tenant. Ids outside the tenant
// alphabet (or longer than 64 chars) become "u_" plus the hex SHA-1 of the id.
func TenantName(userID string) string {
	if schema.ValidateTenantName(userID) == nil {
		return userID
	}
	sum := sha1.Sum([]byte(userID))
	return "u_" + hex.EncodeToString(sum[:])
}

// ClientConfig turns a configured URL ("host:port", "http://host:port" or
// "https://host/") into a client config. Every Weaviate client is built from it.
func ClientConfig(baseURL string) weaviate.Config {
	scheme := "http"
	host := strings.TrimSpace(baseURL)
	switch {
	case strings.HasPrefix(host, "https://"):
		scheme = "https"
		host = strings.TrimPrefix(host, "https://")
	case strings.HasPrefix(host, "http://"):
		host = strings.TrimPrefix(host, "http://")
	}
	return weaviate.Config{Scheme: scheme, Host: strings.TrimRight(host, "/")}
}

type weaviateIndex struct {
	client *weaviate.Client
}

// NewWeaviateIndex constructs an Index backed by Weaviate at baseURL.
func NewWeaviateIndex(baseURL string) (Index, error) {
	cl, err := weaviate.NewClient(ClientConfig(baseURL))
	if err != nil {
		return nil, err
	}
	return &weaviateIndex{client: cl}, nil
}

func (w *weaviateIndex) Search(ctx context.Context, userID, query string, vec []float32, topK int, alpha float32) ([]model.SearchHit, error) {
	if userID == "" {
		return []model.SearchHit{}, nil
	}
	if topK <= 0 {
		topK = 5
	}
	hy := (&gql.HybridArgumentBuilder{}).
		WithQuery(query).
		WithVector(vec).
		WithAlpha(alpha).
		WithProperties([]string{"transcript", "summary", "mood"})

	resp, err := w.client.GraphQL().Get().
		WithClassName(ClassName).
		WithTenant(TenantName(userID)).
		WithHybrid(hy).
		WithLimit(topK).
		WithFields(
			gql.Field{Name: "userId"},
			gql.Field{Name: "timestamp"},
			gql.Field{Name: "mood"},
			gql.Field{Name: "summary"},
			gql.Field{Name: "_additional", Fields: []gql.Field{{Name: "score"}}},
		).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate graphql: %s", formatGraphQLErrors(resp.Errors))
	}
	return decodeHits(resp.Data), nil
}

func decodeHits(data map[string]models.JSONObject) []model.SearchHit {
	out := []model.SearchHit{}
	getData, ok := data["Get"].(map[string]interface{})
	if !ok {
		return out
	}
	raw, ok := getData[ClassName].([]interface{})
	if !ok {
		return out
	}
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		hit := model.SearchHit{}
		hit.UserID, _ = m["userId"].(string)
		hit.Timestamp, _ = m["timestamp"].(string)
		hit.Mood, _ = m["mood"].(string)
		hit.Summary, _ = m["summary"].(string)
		if add, ok := m["_additional"].(map[string]interface{}); ok {
			switch v := add["score"].(type) {
			case float64:
				hit.Score = v
			case string:
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					hit.Score = f
				}
			}
		}
		out = append(out, hit)
	}
	return out
}

// UpsertEntry writes through the batch endpoint, which replaces an object with
// the same id instead of failing.
func (w *weaviateIndex) UpsertEntry(ctx context.Context, e model.EmotionEntry, vec []float32) error {
	if e.UserID == "" {
		return fmt.Errorf("upsert entry: empty user id")
	}
	tenant := TenantName(e.UserID)
	if err := ensureTenant(ctx, w.client, ClassName, tenant); err != nil {
		return err
	}
	obj := &models.Object{
		Class:  ClassName,
		ID:     ObjectID(e),
		Tenant: tenant,
		Vector: vec,
		Properties: map[string]interface{}{
			"userId":     e.UserID,
			"timestamp":  e.Timestamp,
			"transcript": e.Transcript,
			"mood":       e.Mood,
			"summary":    e.Summary,
			"reflection": e.Reflection,
			"confidence": e.Confidence,
		},
	}
	res, err := w.client.Batch().ObjectsBatcher().WithObjects(obj).Do(ctx)
	if err != nil {
		return err
	}
	for _, r := range res {
		if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			return fmt.Errorf("weaviate batch: %s", r.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

// DeleteUser removes the user's tenant, which drops all of its objects.
func (w *weaviateIndex) DeleteUser(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	tenant := TenantName(userID)
	exists, err := tenantExists(ctx, w.client, ClassName, tenant)
	if err != nil || !exists {
		return err
	}
	return w.client.Schema().TenantsDeleter().WithClassName(ClassName).WithTenants(tenant).Do(ctx)
}

// HealthPing implements health.HealthPinger via the /v1/.well-known/live endpoint.
func (w *weaviateIndex) HealthPing(ctx context.Context) error {
	live, err := w.client.Misc().LiveChecker().Do(ctx)
	if err != nil {
		return err
	}
	if !live {
		return fmt.Errorf("weaviate not live")
	}
	return nil
}

func formatGraphQLErrors(errs interface{}) string {
	if b, err := json.Marshal(errs); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", errs)
}

func tenantExists(ctx context.Context, cl *weaviate.Client, className, tenant string) (bool, error) {
	ex, err := cl.Schema().TenantsGetter().WithClassName(className).Do(ctx)
	if err != nil {
		return false, err
	}
	for _, t := range ex {
		if t.Name == tenant {
			return true, nil
		}
	}
	return false, nil
}

// ensureTenant creates the tenant for the given class if it does not already exist.
func ensureTenant(ctx context.Context, cl *weaviate.Client, className, tenant string) error {
	if ok, err := tenantExists(ctx, cl, className, tenant); err == nil && ok {
		return nil
	}
	return cl.Schema().TenantsCreator().WithClassName(className).WithTenants(models.Tenant{Name: tenant}).Do(ctx)
}
