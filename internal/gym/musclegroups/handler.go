package musclegroups

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/2beens/gymbook/internal/telemetry/tracing"
	"github.com/2beens/gymbook/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=musclegroups_mocks_test.go -package=musclegroups_test

type muscleGroupsRepo interface {
	List(ctx context.Context, userID int64) ([]MuscleGroup, error)
	Add(ctx context.Context, userID int64, name string) (*MuscleGroup, error)
	Delete(ctx context.Context, id int64) ([]string, error)
}

type imageRemover interface {
	Delete(ctx context.Context, publicPath string) error
}

type Handler struct {
	repo   muscleGroupsRepo
	images imageRemover
}

func NewHandler(repo muscleGroupsRepo, images imageRemover) *Handler {
	return &Handler{
		repo:   repo,
		images: images,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/api/users/{userId}/musclegroups", handler.HandleList).Methods("GET").Name("list-musclegroups")
	router.HandleFunc("/api/users/{userId}/musclegroups", handler.HandleAdd).Methods("POST").Name("new-musclegroup")
	router.HandleFunc("/api/musclegroups/{groupId}", handler.HandleDelete).Methods("DELETE").Name("delete-musclegroup")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.musclegroups.list")
	defer span.End()

	userID, err := strconv.ParseInt(mux.Vars(r)["userId"], 10, 64)
	if err != nil {
		pkg.WriteJSONError(w, "Invalid user id", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.Int64("user.id", userID))

	groups, err := handler.repo.List(ctx, userID)
	if err != nil {
		log.Errorf("list muscle groups for user %d: %s", userID, err)
		pkg.WriteJSONError(w, "Failed to list muscle groups", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, groups, http.StatusOK)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.musclegroups.new")
	defer span.End()

	userID, err := strconv.ParseInt(mux.Vars(r)["userId"], 10, 64)
	if err != nil {
		pkg.WriteJSONError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	if !strings.HasPrefix(r.Header.Get("Content-Type"), pkg.ContentType.JSON) {
		pkg.WriteJSONError(w, "Invalid content type, expected JSON", http.StatusBadRequest)
		return
	}

	var addReq AddMuscleGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&addReq); err != nil {
		log.Tracef("new muscle group, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	if addReq.Name == "" {
		pkg.WriteJSONError(w, "Muscle group name is required", http.StatusBadRequest)
		return
	}

	group, err := handler.repo.Add(ctx, userID, addReq.Name)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			pkg.WriteJSONError(w, "User not found", http.StatusNotFound)
			return
		}
		log.Errorf("add muscle group [%s] for user %d: %s", addReq.Name, userID, err)
		pkg.WriteJSONError(w, "Failed to add muscle group", http.StatusInternalServerError)
		return
	}

	log.Debugf("new muscle group added: %d [%s] for user %d", group.ID, group.Name, userID)
	pkg.WriteJSON(w, group, http.StatusCreated)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.musclegroups.delete")
	defer span.End()

	id, err := strconv.ParseInt(mux.Vars(r)["groupId"], 10, 64)
	if err != nil {
		pkg.WriteJSONError(w, "Invalid muscle group id", http.StatusBadRequest)
		return
	}

	imagePaths, err := handler.repo.Delete(ctx, id)
	if err != nil {
		log.Errorf("delete muscle group %d: %s", id, err)
		pkg.WriteJSONError(w, "Failed to delete muscle group", http.StatusInternalServerError)
		return
	}

	for _, imagePath := range imagePaths {
		if err := handler.images.Delete(ctx, imagePath); err != nil {
			log.Warnf("delete muscle group %d, remove image [%s]: %s", id, imagePath, err)
		}
	}

	pkg.WriteJSONMessage(w, "Muscle group deleted successfully", http.StatusOK)
}
