package cmd

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zuvy/assess/internal/assessment"
	"github.com/zuvy/assess/internal/devserver"
	"github.com/zuvy/assess/internal/logging"
	"github.com/zuvy/assess/internal/store"
)

func TestParseTopic(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		count   int
		wantErr bool
	}{
		{"Arrays=5", "Arrays", 5, false},
		{" Big O = 3 ", "Big O", 3, false},
		{"a=b=2", "a=b", 2, false},
		{"Arrays", "", 0, true},
		{"Arrays=x", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, count, err := parseTopic(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.count, count)
		})
	}
}

func TestParseTime(t *testing.T) {
	got, err := parseTime("2026-03-12 09:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 12, 9, 30, 0, 0, time.Local), got)

	got, err = parseTime("2026-03-12T09:30:00Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 3, 12, 9, 30, 0, 0, time.UTC)))

	got, err = parseTime("2026-03-12")
	require.NoError(t, err)
	assert.Equal(t, 12, got.Day())

	_, err = parseTime("next tuesday")
	assert.Error(t, err)
}

// execute runs the root command against a fresh database.
func execute(t *testing.T, dbPath string, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(append([]string{"--db", dbPath}, args...))
	return rootCmd.ExecuteContext(context.Background())
}

func devBackend(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv, err := devserver.New(devserver.Options{}, devserver.NewMemoryRepository(), nil, logging.Discard())
	require.NoError(t, err)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		hs.Close()
		srv.Close()
	})
	return hs.URL
}

func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("ZUVY_LOG_FILE", filepath.Join(dir, "zuvy.log"))
	t.Setenv("ZUVY_LLM_PROVIDER", "")
	return filepath.Join(dir, "zuvy.db")
}

func TestLoginLogout(t *testing.T) {
	dbPath := testEnv(t)
	url := devBackend(t)
	t.Setenv("ZUVY_API_URL", url)
	t.Setenv("ZUVY_LLM_API_URL", url)

	require.NoError(t, execute(t, dbPath, "login", "--email", "Ada@Zuvy.org", "--token", "google-token"))

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	creds, err := st.CredentialRepo().Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "ada@zuvy.org", creds.UserEmail)
	assert.NotEmpty(t, creds.AccessToken)
	assert.NotEmpty(t, creds.RefreshToken)
	require.NoError(t, st.Close())

	require.NoError(t, execute(t, dbPath, "whoami"))
	require.NoError(t, execute(t, dbPath, "logout"))

	st, err = store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	creds, err = st.CredentialRepo().Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, creds)

	events, err := st.EventRepo().QueryAPIEvents(context.Background(), store.QueryOpts{})
	require.NoError(t, err)
	assert.NotEmpty(t, events)
}

func TestCreateRejectsIncompleteDraft(t *testing.T) {
	dbPath := testEnv(t)
	err := execute(t, dbPath, "assessments", "create", "--bootcamp", "7", "--title", "Week 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), assessment.MsgRequiredFields)
}

func TestResultsRequiresLogin(t *testing.T) {
	dbPath := testEnv(t)
	err := execute(t, dbPath, "results", "12")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")
}
