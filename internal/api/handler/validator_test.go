package handler

import (
	"sync"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/fanout-timeline/internal/timeline"
)

var postIDOnce sync.Once

// registerPostID 与 api.RegisterValidators 相同的规则；handler 包不能反向依赖 api
func registerPostID(t *testing.T) {
	t.Helper()
	postIDOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		require.True(t, ok)
		require.NoError(t, v.RegisterValidation("postid", func(fl validator.FieldLevel) bool {
			return timeline.ValidID(fl.Field().String())
		}))
	})
}
