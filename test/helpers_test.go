package test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

func (s *IntegrationTestSuite) doJSON(ctx context.Context, method, path, body string, target any) *http.Response {
	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.serverEndpoint+path, reqBody)
	s.Require().NoError(err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	if target != nil && resp.StatusCode < 300 {
		s.Require().NoError(json.Unmarshal(respBody, target), string(respBody))
	}
	return resp
}
