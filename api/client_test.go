package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Hub:        "us2",
		APIUser:    "apiuser",
		APIKey:     "apikey",
		TemplateID: "tpl-1",
	}
}

func TestNewClientRequiredFields(t *testing.T) {
	t.Parallel()

	required := []struct {
		name  string
		clear func(*Config)
	}{
		{"hub", func(c *Config) { c.Hub = "" }},
		{"api user", func(c *Config) { c.APIUser = "" }},
		{"api key", func(c *Config) { c.APIKey = "" }},
		{"template id", func(c *Config) { c.TemplateID = "" }},
	}

	// Every combination of missing required fields must fail with a
	// ConfigError; only the fully populated config may succeed.
	for mask := 1; mask < 1<<len(required); mask++ {
		var cleared []string

		cfg := testConfig()

		for i, field := range required {
			if mask&(1<<i) != 0 {
				field.clear(&cfg)
				cleared = append(cleared, field.name)
			}
		}

		t.Run("missing "+strings.Join(cleared, "+"), func(t *testing.T) {
			t.Parallel()

			client, err := NewClient(cfg)
			require.Error(t, err)
			require.Nil(t, client)
			require.True(t, IsConfigError(err))
		})
	}

	t.Run("complete config succeeds", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient(testConfig())
		require.NoError(t, err)
		require.NotNil(t, client)
	})

	t.Run("model id is optional", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.ModelID = "mdl-9"

		client, err := NewClient(cfg)
		require.NoError(t, err)
		require.Equal(t, "mdl-9", client.ModelID())
	})
}

func TestNewClientDerivedURLs(t *testing.T) {
	t.Parallel()

	t.Run("from hub", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.ModelID = "mdl-9"

		client, err := NewClient(cfg)
		require.NoError(t, err)

		require.Equal(t, "https://us2.vena.io/api/public/v1", client.BaseURL())
		require.Equal(t, "https://us2.vena.io/api/public/v1/etl/templates/tpl-1/startWithData",
			client.StartWithDataURL())
		require.Equal(t, "https://us2.vena.io/api/public/v1/etl/templates/tpl-1/startWithFile",
			client.StartWithFileURL())
		require.Equal(t, "https://us2.vena.io/api/public/v1/etl/jobs/j-7/status",
			client.JobStatusURL("j-7"))
		require.Equal(t, "https://us2.vena.io/api/public/v1/etl/jobs/j-7",
			client.JobDetailURL("j-7"))
		require.Equal(t, "https://us2.vena.io/api/public/v1/models/mdl-9/intersections",
			client.IntersectionsURL())
		require.Equal(t, "https://us2.vena.io/api/public/v1/models/mdl-9/hierarchy",
			client.HierarchyURL())
	})

	t.Run("no model means no model URLs", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient(testConfig())
		require.NoError(t, err)

		require.Empty(t, client.IntersectionsURL())
		require.Empty(t, client.HierarchyURL())
	})

	t.Run("base URL override", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.BaseURL = "http://localhost:9999"

		client, err := NewClient(cfg)
		require.NoError(t, err)
		require.Equal(t, "http://localhost:9999/etl/templates/tpl-1/startWithData",
			client.StartWithDataURL())
	})
}

func TestClientRequest(t *testing.T) {
	t.Parallel()

	t.Run("attaches basic auth and JSON headers", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			require.True(t, ok)
			require.Equal(t, "apiuser", user)
			require.Equal(t, "apikey", pass)
			require.Equal(t, "application/json", r.Header.Get("Accept"))
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.JSONEq(t, `{"name":"x"}`, string(body))

			fmt.Fprint(w, `{"id":"j-1"}`)
		}))
		defer srv.Close()

		cfg := testConfig()
		cfg.BaseURL = srv.URL

		client, err := NewClient(cfg)
		require.NoError(t, err)

		var resp struct {
			ID string `json:"id"`
		}

		err = client.Post(context.Background(), srv.URL+"/things", map[string]string{"name": "x"}, &resp)
		require.NoError(t, err)
		require.Equal(t, "j-1", resp.ID)
	})

	t.Run("GET sends no content type", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Empty(t, r.Header.Get("Content-Type"))
			fmt.Fprint(w, `"RUNNING"`)
		}))
		defer srv.Close()

		cfg := testConfig()
		cfg.BaseURL = srv.URL

		client, err := NewClient(cfg)
		require.NoError(t, err)

		var status string

		require.NoError(t, client.Get(context.Background(), srv.URL+"/status", &status))
		require.Equal(t, "RUNNING", status)
	})

	t.Run("extracts error field from error bodies", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"template not found"}`)
		}))
		defer srv.Close()

		cfg := testConfig()
		cfg.BaseURL = srv.URL

		client, err := NewClient(cfg)
		require.NoError(t, err)

		err = client.Get(context.Background(), srv.URL+"/x", nil)
		require.Error(t, err)

		apiErr, ok := IsAPIError(err)
		require.True(t, ok)
		require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		require.Equal(t, "template not found", apiErr.Message)
		require.True(t, IsBadRequestError(err))
		require.False(t, IsNotFoundError(err))
	})

	t.Run("classifies conflict responses", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			fmt.Fprint(w, `{"error":"job already in progress"}`)
		}))
		defer srv.Close()

		cfg := testConfig()
		cfg.BaseURL = srv.URL

		client, err := NewClient(cfg)
		require.NoError(t, err)

		err = client.Post(context.Background(), srv.URL+"/start", map[string]string{}, nil)
		require.Error(t, err)
		require.True(t, IsConflictError(err))
		require.False(t, IsBadRequestError(err))
	})

	t.Run("falls back to message field then raw body", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/message":
				w.WriteHeader(http.StatusForbidden)
				fmt.Fprint(w, `{"message":"not allowed"}`)
			default:
				w.WriteHeader(http.StatusBadGateway)
				fmt.Fprint(w, "upstream broke")
			}
		}))
		defer srv.Close()

		cfg := testConfig()
		cfg.BaseURL = srv.URL

		client, err := NewClient(cfg)
		require.NoError(t, err)

		err = client.Get(context.Background(), srv.URL+"/message", nil)
		apiErr, ok := IsAPIError(err)
		require.True(t, ok)
		require.Equal(t, "not allowed", apiErr.Message)
		require.True(t, IsForbiddenError(err))

		err = client.Get(context.Background(), srv.URL+"/raw", nil)
		apiErr, ok = IsAPIError(err)
		require.True(t, ok)
		require.Empty(t, apiErr.Message)
		require.Equal(t, "upstream broke", apiErr.Body)
		require.Contains(t, err.Error(), "upstream broke")
	})

	t.Run("GetBody returns the raw body", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _, ok := r.BasicAuth()
			require.True(t, ok)
			require.Equal(t, "apiuser", user)
			fmt.Fprint(w, `{"id":"j-1","status":"ERROR"}`)
		}))
		defer srv.Close()

		cfg := testConfig()
		cfg.BaseURL = srv.URL

		client, err := NewClient(cfg)
		require.NoError(t, err)

		body, err := client.GetBody(context.Background(), srv.URL+"/etl/jobs/j-1")
		require.NoError(t, err)
		require.JSONEq(t, `{"id":"j-1","status":"ERROR"}`, string(body))
	})

	t.Run("transport failure is not an APIError", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // refuse connections

		cfg := testConfig()
		cfg.BaseURL = srv.URL

		client, err := NewClient(cfg)
		require.NoError(t, err)

		err = client.Get(context.Background(), srv.URL+"/x", nil)
		require.Error(t, err)

		_, ok := IsAPIError(err)
		require.False(t, ok)
	})
}

func TestClientUpload(t *testing.T) {
	t.Parallel()

	csv := "\"Account\",\"Value\"\n\"Sales\",\"100\"\n"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "apiuser", user)
		require.Equal(t, "apikey", pass)
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		require.Contains(t, r.Header.Get("Content-Type"), "multipart/form-data")

		mr, err := r.MultipartReader()
		require.NoError(t, err)

		part, err := mr.NextPart()
		require.NoError(t, err)
		require.Equal(t, "file", part.FormName())
		require.Equal(t, "report.csv", part.FileName())
		require.Equal(t, "text/csv; charset=utf-8", part.Header.Get("Content-Type"))

		content, err := io.ReadAll(part)
		require.NoError(t, err)
		require.Equal(t, csv, string(content))

		fmt.Fprint(w, `{"id":"j-2"}`)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.BaseURL = srv.URL

	client, err := NewClient(cfg)
	require.NoError(t, err)

	var resp struct {
		ID string `json:"id"`
	}

	err = client.Upload(context.Background(), srv.URL+"/upload", "report.csv", []byte(csv), &resp)
	require.NoError(t, err)
	require.Equal(t, "j-2", resp.ID)
}
