package searchindex

import (
	"context"
	"fmt"
	"time"

	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// ClassName is the Weaviate class holding entries; one tenant per user.
const ClassName = "EmotionEntry"

func entryClass() *models.Class {
	return &models.Class{
		Class:      ClassName,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "userId", DataType: []string{"text"}},
			{Name: "timestamp", DataType: []string{"text"}},
			{Name: "transcript", DataType: []string{"text"}},
			{Name: "mood", DataType: []string{"text"}},
			{Name: "summary", DataType: []string{"text"}},
			{Name: "reflection", DataType: []string{"text"}},
			{Name: "confidence", DataType: []string{"number"}},
		},
		MultiTenancyConfig: &models.MultiTenancyConfig{Enabled: true},
	}
}

// BootstrapWeaviate ensures the entry class exists with multi-tenancy enabled.
// A pre-existing class without multi-tenancy is dropped and recreated.
func BootstrapWeaviate(ctx context.Context, baseURL string) error {
	cl, err := weaviate.NewClient(ClientConfig(baseURL))
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := ensureMTClass(cctx, cl, entryClass()); err != nil {
		return fmt.Errorf("bootstrap %s: %w", ClassName, err)
	}
	return nil
}

func ensureMTClass(ctx context.Context, cl *weaviate.Client, desired *models.Class) error {
	ex, err := cl.Schema().ClassGetter().WithClassName(desired.Class).Do(ctx)
	if err == nil && ex != nil {
		if ex.MultiTenancyConfig != nil && ex.MultiTenancyConfig.Enabled {
			return nil
		}
		if err := cl.Schema().ClassDeleter().WithClassName(desired.Class).Do(ctx); err != nil {
			return fmt.Errorf("delete class %s: %w", desired.Class, err)
		}
	}
	if err := cl.Schema().ClassCreator().WithClass(desired).Do(ctx); err != nil {
		return fmt.Errorf("create class %s: %w", desired.Class, err)
	}
	return nil
}
