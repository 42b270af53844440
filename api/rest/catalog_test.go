package rest_test

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFlat = "onedayreward_begin\tid=3\treward_name=[Hunt+]\treward_desc=[kill more]\treset_period=2\tcategory=4\tonedayreward_end\n"

func TestCatalog_LoadAndSave(t *testing.T) {
	f := newAPIFixture(t, "")
	token := f.login(t)
	f.write(t, "OneDayReward.xml", sampleMarkup)
	f.write(t, "onedayreward.txt", sampleFlat)

	w := f.do(http.MethodPost, "/api/catalog/load", token, map[string]string{"format": "xml"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, f.svc.Len())

	w = f.do(http.MethodPost, "/api/catalog/load", token, map[string]string{"format": "flat"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Result struct {
			Updated []int `json:"updated"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []int{3}, resp.Result.Updated)

	w = f.do(http.MethodPost, "/api/catalog/save", token, map[string]string{"format": "flat", "path": "out/saved.txt"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data, err := os.ReadFile(f.path("export/out/saved.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "reward_name=[Hunt+]")
	assert.Contains(t, string(data), "condition_count=30")
}

func TestCatalog_LoadErrors(t *testing.T) {
	f := newAPIFixture(t, "")
	token := f.login(t)

	w := f.do(http.MethodPost, "/api/catalog/load", token, map[string]string{"format": "yaml"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/catalog/load", token, map[string]string{"format": "markup", "path": "absent.xml"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	f.write(t, "export/bad.txt", "onedayreward_begin\tid=x\treward_name=[a]\treward_desc=[b]\treset_period=1\tonedayreward_end")
	w = f.do(http.MethodPost, "/api/catalog/load", token, map[string]string{"format": "flat", "path": "bad.txt"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "id", body["field"])
	assert.Equal(t, float64(0), body["record"])
	assert.NotEmpty(t, body["trace_id"])
}

func TestCatalog_PathsStayInExportDir(t *testing.T) {
	f := newAPIFixture(t, "")
	f.loadSample(t)
	token := f.login(t)
	outside := f.write(t, "outside.txt", sampleFlat)

	for _, p := range []string{"/etc/cron.d/x", outside, "../outside.txt", "a/../../x", ".."} {
		for _, route := range []string{"/api/catalog/load", "/api/catalog/save"} {
			w := f.do(http.MethodPost, route, token, map[string]string{"format": "flat", "path": p})
			assert.Equal(t, http.StatusBadRequest, w.Code, "%s %s", route, p)
		}
	}
	data, err := os.ReadFile(outside)
	require.NoError(t, err)
	assert.Equal(t, sampleFlat, string(data))
	_, err = os.Stat(f.path("x"))
	assert.True(t, os.IsNotExist(err))
}

func TestCatalog_ExportImport(t *testing.T) {
	f := newAPIFixture(t, "")
	f.loadSample(t)
	token := f.login(t)

	w := f.raw(http.MethodGet, "/api/catalog/export?format=flat", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "onedayreward.txt")
	assert.Equal(t, 2, strings.Count(w.Body.String(), "onedayreward_end\n"))

	w = f.raw(http.MethodGet, "/api/catalog/export", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), `<?xml version="1.0" encoding="UTF-8"?>`))

	w = f.raw(http.MethodPost, "/api/catalog/import?format=text", token, sampleFlat)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	hunt, err := f.svc.Get(3)
	require.NoError(t, err)
	assert.Equal(t, "Hunt+", hunt.Name)

	w = f.raw(http.MethodPost, "/api/catalog/import?format=markup", token, "<<broken")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCatalog_SnapshotRestore(t *testing.T) {
	f := newAPIFixture(t, "")
	f.loadSample(t)
	token := f.login(t)

	w := f.do(http.MethodPost, "/api/catalog/snapshot", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"rows":2}`, w.Body.String())

	f.do(http.MethodPost, "/api/rewards/delete", token, map[string]interface{}{"ids": []int{3, 10}})
	require.Equal(t, 0, f.svc.Len())

	w = f.do(http.MethodPost, "/api/catalog/restore", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, f.svc.Len())
}
