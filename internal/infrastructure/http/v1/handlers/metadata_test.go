package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/id"
	"stockbook/internal/domain/catalogs/vendor"
	"stockbook/internal/domain/status"
	"stockbook/internal/infrastructure/http/v1/dto"
	"stockbook/internal/infrastructure/http/v1/middleware"
	"stockbook/internal/metadata"
)

func metadataRouter(t *testing.T) *gin.Engine {
	t.Helper()
	reg := metadata.NewRegistry()
	def := metadata.Inspect(vendor.Vendor{}, "vendor", metadata.TypeCatalog)
	reg.Register(def, dto.CreateVendorRequest{})

	refs := make([]status.Reference, 0)
	for _, s := range status.All() {
		refs = append(refs, status.Reference{ID: id.New(), Code: string(s), Name: string(s)})
	}
	statuses, err := status.NewRegistry(refs)
	require.NoError(t, err)

	h := NewMetadataHandler(NewBaseHandler(), reg, statuses)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.GET("/meta/forms", h.ListForms)
	r.GET("/meta/forms/:name", h.GetForm)
	r.GET("/meta/schemas/:name", h.GetSchema)
	r.GET("/meta/statuses", h.Statuses)
	return r
}

func TestMetadataHandler(t *testing.T) {
	r := metadataRouter(t)

	t.Run("forms", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/meta/forms", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"name":"vendor"`)
	})

	t.Run("form", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/meta/forms/vendor", "")
		require.Equal(t, http.StatusOK, w.Code)

		var def metadata.EntityDef
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &def))
		assert.Equal(t, metadata.TypeCatalog, def.Type)
		assert.NotEmpty(t, def.Fields)
	})

	t.Run("unknown form", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/meta/forms/widget", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("schema", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/meta/schemas/vendor", "")
		require.Equal(t, http.StatusOK, w.Code)

		var schema map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &schema))
		assert.Equal(t, "object", schema["type"])
		assert.Contains(t, schema, "properties")
	})

	t.Run("statuses", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/meta/statuses", "")
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Results []status.Reference `json:"results"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Len(t, body.Results, len(status.All()))
	})
}
