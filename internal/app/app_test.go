// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SyDuc7421/chatbot-gui/internal/config"
	"github.com/SyDuc7421/chatbot-gui/internal/logger"
	"github.com/SyDuc7421/chatbot-gui/internal/model"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	t.Setenv("CHATBOT_CONFIG_DIR", t.TempDir())
	config.ResetGlobalForTesting()
	t.Cleanup(func() {
		config.ResetGlobalForTesting()
		logger.Set(nil)
	})

	cfg := config.Default()
	cfg.Storage.Driver = driver
	cfg.Log.Level = "error"
	return cfg
}

func TestNew_SendsAndPersistsAcrossRestart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"answer":"Hi there"}`))
	}))
	defer server.Close()

	for _, driver := range []string{"file", "sqlite", "pebble"} {
		t.Run(driver, func(t *testing.T) {
			cfg := testConfig(t, driver)
			cfg.Backend.ClientURL = server.URL

			a, err := New(cfg, Options{})
			require.NoError(t, err)

			conv := a.Store.CreateConversation()
			msg, err := a.Store.Send(testContext(t), conv.ID, "Hello").Wait(testContext(t))
			require.NoError(t, err)
			assert.Equal(t, "Hi there", msg.Content)
			require.NoError(t, a.Close())

			b, err := New(cfg, Options{})
			require.NoError(t, err)
			defer b.Close()

			got, ok := b.Store.Selected()
			require.True(t, ok)
			assert.Equal(t, conv.ID, got.ID)
			assert.Equal(t, 2, got.MessageCount)
		})
	}
}

func TestNew_BackendURLReadAtRequestTime(t *testing.T) {
	newServer := func(answer string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"answer":"` + answer + `"}`))
		}))
	}
	one, two := newServer("from one"), newServer("from two")
	defer one.Close()
	defer two.Close()

	cfg := testConfig(t, "memory")
	cfg.Backend.ClientURL = one.URL
	a, err := New(cfg, Options{})
	require.NoError(t, err)
	defer a.Close()

	conv := a.Store.CreateConversation()
	msg, err := a.Store.Send(testContext(t), conv.ID, "q").Wait(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, "from one", msg.Content)

	next := cfg.Clone()
	next.Backend.ClientURL = two.URL
	config.SetGlobal(next)

	msg, err = a.Store.Send(testContext(t), conv.ID, "q").Wait(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, "from two", msg.Content)
}

func TestNew_InvalidDriver(t *testing.T) {
	cfg := testConfig(t, "floppy")
	_, err := New(cfg, Options{})
	assert.Error(t, err)
}

func TestNew_MetricsEndpoint(t *testing.T) {
	cfg := testConfig(t, "memory")
	cfg.Metrics.Enabled = true
	cfg.Metrics.Addr = "127.0.0.1:0"
	cfg.Log.File = filepath.Join(t.TempDir(), "chatbot.log")

	a, err := New(cfg, Options{WatchConfig: true})
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.MetricsAddr())
	a.Store.CreateConversation()

	resp, err := http.Get("http://" + a.MetricsAddr().String() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "chatbot_")
}

func TestApp_Export(t *testing.T) {
	cfg := testConfig(t, "memory")
	a, err := New(cfg, Options{})
	require.NoError(t, err)
	defer a.Close()

	conv := a.Store.CreateConversation()
	_, ok := a.Store.AppendMessage(conv.ID, model.RoleUser, "export me")
	require.True(t, ok)

	dir := t.TempDir()
	for _, format := range []string{"json", "md", "html"} {
		path, err := a.Export(conv.ID, format, dir)
		require.NoError(t, err, format)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "export me")
	}

	_, err = a.Export("missing", "json", dir)
	assert.ErrorIs(t, err, ErrConversationNotFound)
	_, err = a.Export(conv.ID, "pdf", dir)
	assert.Error(t, err)
}

func TestApp_StoreUseAfterCloseDoesNotPanic(t *testing.T) {
	for _, driver := range []string{"file", "sqlite", "pebble", "memory"} {
		t.Run(driver, func(t *testing.T) {
			a, err := New(testConfig(t, driver), Options{})
			require.NoError(t, err)
			conv := a.Store.CreateConversation()
			require.NoError(t, a.Close())

			assert.NotPanics(t, func() {
				c := a.Store.CreateConversation()
				a.Store.TogglePin(c.ID)
				a.Store.RenameConversation(conv.ID, "after close")
				a.Store.Select(conv.ID)
			})
			assert.Nil(t, a.Store.Send(testContext(t), conv.ID, "too late"))
		})
	}
}

// testContext stands in for testing.T.Context (Go 1.24+): a context that is
// cancelled when the test finishes.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
