//go:build e2e

package e2e

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Analyze, then read the entry back through history, trends and stats.
func TestSmoke_AnalyzeThenRead(t *testing.T) {
	url := baseURL(t)
	waitForHealthy(t, url, 10*time.Second)

	userID := fmt.Sprintf("e2e-%d", time.Now().UnixNano())
	defer deleteUser(url, userID)

	var analyzed struct {
		Success bool   `json:"success"`
		Mood    string `json:"mood"`
	}
	mustJSON(t, uploadAudio(t, url, userID, "note.wav"), &analyzed)
	require.True(t, analyzed.Success)
	require.NotEmpty(t, analyzed.Mood)

	resp, err := http.Get(url + "/api/history/" + userID + "?days=1")
	require.NoError(t, err)
	var history struct {
		TotalEntries int `json:"total_entries"`
		Trends       struct {
			MoodDistribution map[string]int `json:"mood_distribution"`
		} `json:"trends"`
	}
	mustJSON(t, resp, &history)
	assert.Equal(t, 1, history.TotalEntries)
	assert.Equal(t, 1, history.Trends.MoodDistribution[analyzed.Mood])

	resp, err = http.Get(url + "/api/trends/" + userID)
	require.NoError(t, err)
	var trends struct {
		Insights []string `json:"insights"`
	}
	mustJSON(t, resp, &trends)
	require.NotEmpty(t, trends.Insights)
	assert.Contains(t, trends.Insights[0], analyzed.Mood)

	resp, err = http.Get(url + "/api/stats/" + userID)
	require.NoError(t, err)
	var stats map[string]interface{}
	mustJSON(t, resp, &stats)
	assert.NotEmpty(t, stats)
}

func TestSmoke_RejectsBadInput(t *testing.T) {
	url := baseURL(t)

	resp := uploadAudio(t, url, "e2e-bad", "notes.txt")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp2, err := http.Get(url + "/api/history/e2e-bad?days=abc")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)

	resp3, err := http.Post(url+"/api/reflection", "application/json", strings.NewReader(`{"current_mood":""}`))
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp3.StatusCode)
}

func TestSmoke_DeleteEmptiesHistory(t *testing.T) {
	url := baseURL(t)
	userID := fmt.Sprintf("e2e-del-%d", time.Now().UnixNano())

	mustJSON(t, uploadAudio(t, url, userID, "a.mp3"), &struct{}{})
	deleteUser(url, userID)

	resp, err := http.Get(url + "/api/history/" + userID)
	require.NoError(t, err)
	var history struct {
		TotalEntries int `json:"total_entries"`
	}
	mustJSON(t, resp, &history)
	assert.Zero(t, history.TotalEntries)
}
