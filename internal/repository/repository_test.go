package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/fanout-timeline/internal/model"
	"github.com/d60-Lab/fanout-timeline/pkg/database"
)

func newTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func strp(s string) *string { return &s }

// pid 固定宽度，字典序与数值序一致
func pid(n int) string { return fmt.Sprintf("p%03d", n) }

func seedPost(t *testing.T, repo PostRepository, p *model.Post) *model.Post {
	t.Helper()
	if p.Visibility == "" {
		p.Visibility = model.VisibilityPublic
	}
	if p.Text == nil && p.RenoteID == nil {
		p.Text = strp("hello")
	}
	p.CreatedAt = time.Now()
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func ids(posts []*model.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}
