// Copyright (C) 2025 Cadence Labs (oss@cadencelabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CadenceLabs/CadenceCore/services/optimizer/catalog"
	"github.com/CadenceLabs/CadenceCore/services/optimizer/history"
	"github.com/CadenceLabs/CadenceCore/services/optimizer/mcts"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, store *history.Store) *Server {
	t.Helper()
	srv, err := New(Config{
		Engine:  mcts.DefaultConfig(),
		History: store,
	})
	require.NoError(t, err)
	return srv
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router := newTestServer(t, nil).Router()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestOptimize_HappyPath(t *testing.T) {
	router := newTestServer(t, nil).Router()

	rec := postJSON(t, router, "/v1/optimize", gin.H{
		"objective":      "research outreach",
		"max_iterations": 50,
		"time_limit_ms":  2000,
		"seed":           42,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result mcts.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.RunID)
	assert.NotEmpty(t, result.Combo)
	assert.NotEqual(t, mcts.ClassNoData, result.Classification)
	assert.LessOrEqual(t, result.Iterations, uint64(50))
}

func TestOptimize_ZeroBudgetReturnsNoData(t *testing.T) {
	router := newTestServer(t, nil).Router()

	rec := postJSON(t, router, "/v1/optimize", gin.H{"objective": "anything"})
	require.Equal(t, http.StatusOK, rec.Code)

	var result mcts.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, mcts.ClassNoData, result.Classification)
	assert.Zero(t, result.Iterations)
}

func TestOptimize_MissingObjective(t *testing.T) {
	router := newTestServer(t, nil).Router()

	rec := postJSON(t, router, "/v1/optimize", gin.H{"max_iterations": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOptimize_InvalidStage(t *testing.T) {
	router := newTestServer(t, nil).Router()

	rec := postJSON(t, router, "/v1/optimize", gin.H{
		"objective":      "x",
		"initial_stage":  "ascended",
		"max_iterations": 10,
		"time_limit_ms":  100,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid funnel stage")
}

func TestOptimize_SavesHistory(t *testing.T) {
	store, err := history.Open(history.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	router := newTestServer(t, store).Router()

	rec := postJSON(t, router, "/v1/optimize", gin.H{
		"objective":      "default",
		"max_iterations": 20,
		"time_limit_ms":  1000,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	records, err := store.List(0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestHistoryEndpoints(t *testing.T) {
	store, err := history.Open(history.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.Save(&mcts.Result{RunID: "abc", Classification: mcts.ClassSimple})
	require.NoError(t, err)

	router := newTestServer(t, store).Router()

	req := httptest.NewRequest(http.MethodGet, "/v1/history?limit=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "abc")

	req = httptest.NewRequest(http.MethodGet, "/v1/history/abc", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/history/missing", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSwapCatalog(t *testing.T) {
	srv := newTestServer(t, nil)
	router := srv.Router()

	replacement, err := catalog.FromMap(map[string]float64{"only_option": 0.9})
	require.NoError(t, err)
	srv.SwapCatalog(replacement)

	rec := postJSON(t, router, "/v1/optimize", gin.H{
		"objective":      "default",
		"max_iterations": 30,
		"time_limit_ms":  1000,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result mcts.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotEmpty(t, result.Combo)
	for _, id := range result.Combo {
		assert.Equal(t, "only_option", id)
	}
}
