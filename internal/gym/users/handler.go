package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/2beens/gymbook/internal/middleware"
	"github.com/2beens/gymbook/internal/telemetry/metrics"
	"github.com/2beens/gymbook/internal/telemetry/tracing"
	"github.com/2beens/gymbook/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=users_mocks_test.go -package=users_test

type usersRepo interface {
	List(ctx context.Context) ([]User, error)
	Add(ctx context.Context, username string) (*User, error)
	Delete(ctx context.Context, id int64) ([]string, error)
}

type imageRemover interface {
	Delete(ctx context.Context, publicPath string) error
}

type Handler struct {
	repo    usersRepo
	images  imageRemover
	metrics *metrics.Manager
}

func NewHandler(
	repo usersRepo,
	images imageRemover,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		repo:    repo,
		images:  images,
		metrics: metricsManager,
	}
}

// SetupRoutes registers the user routes. User creation is rate limited
// only when a limiter is given.
func (handler *Handler) SetupRoutes(
	router *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	createAllowedPerMin int,
) {
	var addHandler http.Handler = http.HandlerFunc(handler.HandleAdd)
	if rateLimiter != nil {
		addHandler = middleware.RateLimit(rateLimiter, "create-user", createAllowedPerMin, handler.metrics)(addHandler)
	}

	router.HandleFunc("/api/users", handler.HandleList).Methods("GET").Name("list-users")
	router.Handle("/api/users", addHandler).Methods("POST").Name("new-user")
	router.HandleFunc("/api/users/{userId}", handler.HandleDelete).Methods("DELETE").Name("delete-user")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.list")
	defer span.End()

	users, err := handler.repo.List(ctx)
	if err != nil {
		log.Errorf("list users: %s", err)
		pkg.WriteJSONError(w, "Failed to list users", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, users, http.StatusOK)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.new")
	defer span.End()

	if !strings.HasPrefix(r.Header.Get("Content-Type"), pkg.ContentType.JSON) {
		pkg.WriteJSONError(w, "Invalid content type, expected JSON", http.StatusBadRequest)
		return
	}

	var addReq AddUserRequest
	if err := json.NewDecoder(r.Body).Decode(&addReq); err != nil {
		log.Tracef("new user, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	if addReq.Username == "" {
		pkg.WriteJSONError(w, "Username is required", http.StatusBadRequest)
		return
	}

	user, err := handler.repo.Add(ctx, addReq.Username)
	if err != nil {
		if errors.Is(err, ErrUsernameExists) {
			pkg.WriteJSONError(w, "Username already exists", http.StatusConflict)
			return
		}
		log.Errorf("add user [%s]: %s", addReq.Username, err)
		pkg.WriteJSONError(w, "Failed to add user", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterUsersCreated.Inc()
	log.Debugf("new user added: %d [%s]", user.ID, user.Username)
	pkg.WriteJSON(w, user, http.StatusCreated)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.delete")
	defer span.End()

	id, err := strconv.ParseInt(mux.Vars(r)["userId"], 10, 64)
	if err != nil {
		pkg.WriteJSONError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	imagePaths, err := handler.repo.Delete(ctx, id)
	if err != nil {
		log.Errorf("delete user %d: %s", id, err)
		pkg.WriteJSONError(w, "Failed to delete user", http.StatusInternalServerError)
		return
	}

	// best effort, the rows are already gone
	for _, imagePath := range imagePaths {
		if err := handler.images.Delete(ctx, imagePath); err != nil {
			log.Warnf("delete user %d, remove image [%s]: %s", id, imagePath, err)
		}
	}

	log.Debugf("user %d deleted", id)
	pkg.WriteJSONMessage(w, "User deleted successfully", http.StatusOK)
}
