package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/unrealsaint/lucera2missionparser/api/rest"
	"github.com/unrealsaint/lucera2missionparser/config"
	"github.com/unrealsaint/lucera2missionparser/editor"
	mw "github.com/unrealsaint/lucera2missionparser/middleware"
	"github.com/unrealsaint/lucera2missionparser/scheduler"
	"github.com/unrealsaint/lucera2missionparser/testutil"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const sampleMarkup = `<?xml version="1.0" encoding="UTF-8"?>
<one_day_rewards>
	<one_day_reward>
		<id>10</id>
		<name>Login</name>
		<description>log in</description>
		<reset_time>DAILY</reset_time>
		<reward_items>
			<reward_item id="57" count="1000"/>
		</reward_items>
	</one_day_reward>
	<one_day_reward>
		<id>3</id>
		<name>Hunt</name>
		<description>kill</description>
		<reset_time>WEEKLY</reset_time>
		<requirement>
			<kill_mob>30</kill_mob>
		</requirement>
	</one_day_reward>
</one_day_rewards>
`

const (
	testUser     = "saint"
	testPassword = "hunter22"
)

type apiFixture struct {
	r     *gin.Engine
	svc   *editor.Service
	sched *scheduler.Scheduler
	sec   config.SecurityConfig
	dir   string
}

func newAPIFixture(t *testing.T, adminKey string) *apiFixture {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	dir := t.TempDir()
	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	sec := config.SecurityConfig{
		JWTSecret: "test-secret",
		JWTTTLH:   time.Hour,
		Editors:   []config.EditorAccount{{Username: testUser, PasswordHash: string(hash)}},
	}
	svc := editor.New(editor.Options{
		Catalog: config.CatalogConfig{
			MarkupPath:     filepath.Join(dir, "OneDayReward.xml"),
			FlatTextPath:   filepath.Join(dir, "onedayreward.txt"),
			ExportDir:      filepath.Join(dir, "export"),
			ExportCacheTTL: time.Minute,
		},
		DB:     db,
		Cache:  c,
		PubSub: ps,
		Logger: zap.NewNop(),
	})
	sched := scheduler.New(zap.NewNop())
	t.Cleanup(sched.Stop)

	r := gin.New()
	r.Use(mw.TraceID(), mw.Recovery(zap.NewNop()))
	rest.Register(r.Group("/api"), rest.Deps{
		Editor:    svc,
		Scheduler: sched,
		Cache:     c,
		Server:    config.ServerConfig{AdminKey: adminKey},
		Security:  sec,
		Logger:    zap.NewNop(),
	})
	return &apiFixture{r: r, svc: svc, sched: sched, sec: sec, dir: dir}
}

func (f *apiFixture) path(name string) string { return filepath.Join(f.dir, name) }

func (f *apiFixture) write(t *testing.T, name, content string) string {
	t.Helper()
	p := f.path(name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func (f *apiFixture) loadSample(t *testing.T) {
	t.Helper()
	_, err := f.svc.LoadMarkup(context.Background(), f.write(t, "OneDayReward.xml", sampleMarkup))
	require.NoError(t, err)
}

func (f *apiFixture) login(t *testing.T) string {
	t.Helper()
	w := f.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": testUser, "password": testPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// do sends body as JSON (nil sends no body) with an optional bearer token.
func (f *apiFixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		buf = bytes.NewReader(b)
	} else {
		buf = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) raw(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	return w
}
