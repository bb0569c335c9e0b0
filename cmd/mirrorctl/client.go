package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
)

// apiClient is a thin JSON client for the MindMirror HTTP API.
type apiClient struct {
	r *resty.Client
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	r := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &apiClient{r: r}
}

func (c *apiClient) get(path string, query map[string]string) ([]byte, error) {
	resp, err := c.r.R().SetQueryParams(query).Get(path)
	return check(resp, err)
}

func (c *apiClient) postJSON(path string, body interface{}) ([]byte, error) {
	resp, err := c.r.R().SetHeader("Content-Type", "application/json").SetBody(body).Post(path)
	return check(resp, err)
}

func (c *apiClient) delete(path string) ([]byte, error) {
	resp, err := c.r.R().Delete(path)
	return check(resp, err)
}

func (c *apiClient) uploadAudio(path, file, userID string) ([]byte, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	req := c.r.R().SetFileReader("audio_file", filepath.Base(file), f)
	if userID != "" {
		req.SetFormData(map[string]string{"user_id": userID})
	}
	resp, err := req.Post(path)
	return check(resp, err)
}

func check(resp *resty.Response, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	return resp.Body(), nil
}

func userPath(prefix, userID string) string {
	return prefix + "/" + url.PathEscape(userID)
}

// writePretty indents JSON bodies and passes anything else through.
func writePretty(out io.Writer, data []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		_, err = out.Write(data)
		return err
	}
	buf.WriteByte('\n')
	_, err := io.Copy(out, &buf)
	return err
}
