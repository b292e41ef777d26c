package test

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/2beens/gymbook/internal/gym/musclegroups"
	"github.com/2beens/gymbook/internal/gym/users"
)

// Concurrent writers wait on the database file lock instead of failing.
func (s *IntegrationTestSuite) TestConcurrentWrites() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var user users.User
	resp := s.doJSON(ctx, "POST", "/api/users", `{"username":"concurrent-writer"}`, &user)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	const writers = 25
	statuses := make(chan int, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, err := http.NewRequestWithContext(ctx, "POST",
				fmt.Sprintf("%s/api/users/%d/musclegroups", s.serverEndpoint, user.ID),
				strings.NewReader(fmt.Sprintf(`{"name":"group-%02d"}`, i)),
			)
			if err != nil {
				statuses <- 0
				return
			}
			req.Header.Set("Content-Type", "application/json")
			resp, err := s.httpClient.Do(req)
			if err != nil {
				statuses <- 0
				return
			}
			_ = resp.Body.Close()
			statuses <- resp.StatusCode
		}(i)
	}
	wg.Wait()
	close(statuses)

	for status := range statuses {
		s.Equal(http.StatusCreated, status)
	}

	var groups []musclegroups.MuscleGroup
	resp = s.doJSON(ctx, "GET", fmt.Sprintf("/api/users/%d/musclegroups", user.ID), "", &groups)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().Len(groups, writers)
	s.Equal("group-00", groups[0].Name)
	s.Equal(fmt.Sprintf("group-%02d", writers-1), groups[writers-1].Name)
}
