package test

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/2beens/gymbook/internal/gym/users"

	"github.com/brianvoe/gofakeit/v6"
)

func (s *IntegrationTestSuite) TestCreateUser_RateLimited() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < createUserRateLimitPerMin; i++ {
		var user users.User
		username := fmt.Sprintf("%s-%d", gofakeit.Username(), i)
		resp := s.doJSON(ctx, "POST", "/api/users", `{"username":"`+username+`"}`, &user)
		s.Require().Equal(http.StatusCreated, resp.StatusCode)
		s.Equal(username, user.Username)
	}

	resp := s.doJSON(ctx, "POST", "/api/users", `{"username":"one-too-many"}`, nil)
	s.Require().Equal(http.StatusTooManyRequests, resp.StatusCode)
	retryAfter, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	s.Require().NoError(err)
	s.Positive(retryAfter)

	// reads are not limited
	var list []users.User
	resp = s.doJSON(ctx, "GET", "/api/users", "", &list)
	s.Equal(http.StatusOK, resp.StatusCode)
	for _, user := range list {
		s.NotEqual("one-too-many", user.Username)
	}
}
