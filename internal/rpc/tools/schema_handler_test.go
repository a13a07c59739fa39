package tools

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/repo-auditor/repo-auditor/internal/tools"
)

func TestSchemaHandler(t *testing.T) {
	reg := tools.NewRegistry(nil, nil, nil)
	h := SchemaHandler{Registry: reg}
	req := httptest.NewRequest(http.MethodGet, "/tools/schemas", nil)
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var schemas []tools.Schema
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &schemas))
	require.Len(t, schemas, 2)
	require.Equal(t, tools.NameDownloadRepo, schemas[0].Name)
}

func TestSchemaHandlerModelFormat(t *testing.T) {
	h := SchemaHandler{Registry: tools.NewRegistry(nil, nil, nil)}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/tools/schemas?format=model", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var defs []map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &defs))
	require.Equal(t, "scan_envs", defs[1]["name"])
	params := defs[1]["parameters"].(map[string]interface{})
	require.Equal(t, "object", params["type"])
}

func TestSchemaHandlerRejectsPost(t *testing.T) {
	h := SchemaHandler{Registry: tools.NewRegistry(nil, nil, nil)}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/tools/schemas", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
