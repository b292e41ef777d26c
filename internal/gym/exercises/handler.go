package exercises

import (
	"context"
	"errors"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/2beens/gymbook/internal/file_box"
	"github.com/2beens/gymbook/internal/telemetry/metrics"
	"github.com/2beens/gymbook/internal/telemetry/tracing"
	"github.com/2beens/gymbook/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=exercises_mocks_test.go -package=exercises_test

// multipart parts above this size are spooled to temp files
const maxFormMemory = 8 << 20

var (
	errMissingData = errors.New("missing exercise data")
	errInvalidData = errors.New("invalid exercise data")
)

type exercisesRepo interface {
	List(ctx context.Context, groupID int64) ([]Exercise, error)
	Get(ctx context.Context, id int64) (*Exercise, error)
	Add(ctx context.Context, ex Exercise) (*Exercise, error)
	Update(ctx context.Context, ex Exercise, updateImage bool) (*Exercise, *string, error)
	Delete(ctx context.Context, id int64) (*string, error)
	ImageInUse(ctx context.Context, imagePath string) (bool, error)
}

type imageStore interface {
	Save(ctx context.Context, params file_box.SaveFileParams) (string, error)
	Delete(ctx context.Context, publicPath string) error
}

type Handler struct {
	repo          exercisesRepo
	images        imageStore
	metrics       *metrics.Manager
	maxUploadSize int64
}

func NewHandler(
	repo exercisesRepo,
	images imageStore,
	metricsManager *metrics.Manager,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		repo:          repo,
		images:        images,
		metrics:       metricsManager,
		maxUploadSize: maxUploadSize,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/api/musclegroups/{groupId}/exercises", handler.HandleList).Methods("GET").Name("list-exercises")
	router.HandleFunc("/api/musclegroups/{groupId}/exercises", handler.HandleAdd).Methods("POST").Name("new-exercise")
	router.HandleFunc("/api/exercises/{exerciseId}", handler.HandleGet).Methods("GET").Name("get-exercise")
	router.HandleFunc("/api/exercises/{exerciseId}", handler.HandleUpdate).Methods("PUT").Name("update-exercise")
	router.HandleFunc("/api/exercises/{exerciseId}", handler.HandleDelete).Methods("DELETE").Name("delete-exercise")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.list")
	defer span.End()

	groupID, err := strconv.ParseInt(mux.Vars(r)["groupId"], 10, 64)
	if err != nil {
		pkg.WriteJSONError(w, "Invalid muscle group id", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.Int64("group.id", groupID))

	exercises, err := handler.repo.List(ctx, groupID)
	if err != nil {
		log.Errorf("list exercises for group %d: %s", groupID, err)
		pkg.WriteJSONError(w, "Failed to list exercises", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, exercises, http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.get")
	defer span.End()

	id, err := strconv.ParseInt(mux.Vars(r)["exerciseId"], 10, 64)
	if err != nil {
		pkg.WriteJSONError(w, "Invalid exercise id", http.StatusBadRequest)
		return
	}

	ex, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrExerciseNotFound) {
			pkg.WriteJSONError(w, "Exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("get exercise %d: %s", id, err)
		pkg.WriteJSONError(w, "Failed to get exercise", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, ex, http.StatusOK)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.new")
	defer span.End()

	groupID, err := strconv.ParseInt(mux.Vars(r)["groupId"], 10, 64)
	if err != nil {
		pkg.WriteJSONError(w, "Invalid muscle group id", http.StatusBadRequest)
		return
	}

	ex, ok := handler.readExerciseForm(w, r)
	if !ok {
		return
	}
	ex.MuscleGroupID = groupID

	imagePath, ok := handler.saveImage(ctx, w, r)
	if !ok {
		return
	}
	ex.ImagePath = imagePath

	added, err := handler.repo.Add(ctx, ex)
	if err != nil {
		handler.discardImage(ctx, imagePath)
		if errors.Is(err, ErrMuscleGroupNotFound) {
			pkg.WriteJSONError(w, "Muscle group not found", http.StatusNotFound)
			return
		}
		log.Errorf("add exercise [%s] to group %d: %s", ex.Name, groupID, err)
		pkg.WriteJSONError(w, "Failed to add exercise", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterExercisesCreated.Inc()
	log.Debugf("new exercise added: %d [%s] to group %d", added.ID, added.Name, groupID)
	pkg.WriteJSON(w, added, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.update")
	defer span.End()

	id, err := strconv.ParseInt(mux.Vars(r)["exerciseId"], 10, 64)
	if err != nil {
		pkg.WriteJSONError(w, "Invalid exercise id", http.StatusBadRequest)
		return
	}

	ex, ok := handler.readExerciseForm(w, r)
	if !ok {
		return
	}
	ex.ID = id

	imagePath, ok := handler.saveImage(ctx, w, r)
	if !ok {
		return
	}
	ex.ImagePath = imagePath

	// a rejected or missing upload leaves the stored image as is
	updated, orphanedImage, err := handler.repo.Update(ctx, ex, imagePath != nil)
	if err != nil {
		handler.discardImage(ctx, imagePath)
		if errors.Is(err, ErrExerciseNotFound) {
			pkg.WriteJSONError(w, "Exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("update exercise %d: %s", id, err)
		pkg.WriteJSONError(w, "Failed to update exercise", http.StatusInternalServerError)
		return
	}

	if orphanedImage != nil {
		if err := handler.images.Delete(ctx, *orphanedImage); err != nil {
			log.Warnf("update exercise %d, remove previous image [%s]: %s", id, *orphanedImage, err)
		}
	}

	pkg.WriteJSON(w, updated, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.delete")
	defer span.End()

	id, err := strconv.ParseInt(mux.Vars(r)["exerciseId"], 10, 64)
	if err != nil {
		pkg.WriteJSONError(w, "Invalid exercise id", http.StatusBadRequest)
		return
	}

	orphanedImage, err := handler.repo.Delete(ctx, id)
	if err != nil {
		log.Errorf("delete exercise %d: %s", id, err)
		pkg.WriteJSONError(w, "Failed to delete exercise", http.StatusInternalServerError)
		return
	}

	if orphanedImage != nil {
		if err := handler.images.Delete(ctx, *orphanedImage); err != nil {
			log.Warnf("delete exercise %d, remove image [%s]: %s", id, *orphanedImage, err)
		}
	}

	pkg.WriteJSONMessage(w, "Exercise deleted successfully", http.StatusOK)
}

// readExerciseForm parses the form fields, writing a 400 response when they are missing or malformed.
func (handler *Handler) readExerciseForm(w http.ResponseWriter, r *http.Request) (Exercise, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, handler.maxUploadSize)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			pkg.WriteJSONError(w, "Request body too large", http.StatusBadRequest)
			return Exercise{}, false
		}
		log.Tracef("exercise form, parse: %s", err)
		pkg.WriteJSONError(w, "Invalid form data", http.StatusBadRequest)
		return Exercise{}, false
	}

	ex, err := parseExerciseForm(r)
	switch {
	case errors.Is(err, errMissingData):
		pkg.WriteJSONError(w, "Missing exercise data", http.StatusBadRequest)
		return Exercise{}, false
	case err != nil:
		pkg.WriteJSONError(w, "Invalid exercise data", http.StatusBadRequest)
		return Exercise{}, false
	}

	return ex, true
}

func parseExerciseForm(r *http.Request) (Exercise, error) {
	name := r.PostForm.Get("name")
	weightVal := r.PostForm.Get("weight")
	setsVal := r.PostForm.Get("sets")
	repsVal := r.PostForm.Get("reps")
	if name == "" || weightVal == "" || setsVal == "" || repsVal == "" {
		return Exercise{}, errMissingData
	}

	weight, err := strconv.ParseFloat(weightVal, 64)
	if err != nil {
		return Exercise{}, errInvalidData
	}
	// not representable in JSON
	if math.IsInf(weight, 0) || math.IsNaN(weight) {
		return Exercise{}, errInvalidData
	}
	sets, err := strconv.Atoi(setsVal)
	if err != nil {
		return Exercise{}, errInvalidData
	}
	reps, err := strconv.Atoi(repsVal)
	if err != nil {
		return Exercise{}, errInvalidData
	}

	return Exercise{
		Name:   name,
		Weight: weight,
		Sets:   sets,
		Reps:   reps,
	}, nil
}

// saveImage stores the optional "image" upload. A nil path means no usable image
// was sent. On failure a 500 response is written and false returned.
func (handler *Handler) saveImage(ctx context.Context, w http.ResponseWriter, r *http.Request) (*string, bool) {
	if r.MultipartForm == nil {
		return nil, true
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) {
			log.Warnf("exercise image, read form file: %s", err)
		}
		return nil, true
	}
	defer closeFile(file)

	imagePath, err := handler.images.Save(ctx, file_box.SaveFileParams{
		Filename: header.Filename,
		Size:     header.Size,
		File:     file,
	})
	if err != nil {
		if errors.Is(err, file_box.ErrFileNotAllowed) {
			handler.metrics.CounterUploadsRejected.Inc()
			log.Debugf("exercise image [%s] not allowed, ignoring", header.Filename)
			return nil, true
		}
		log.Errorf("save exercise image [%s]: %s", header.Filename, err)
		pkg.WriteJSONError(w, "Failed to save image", http.StatusInternalServerError)
		return nil, false
	}

	handler.metrics.CounterUploadsSaved.Inc()
	return &imagePath, true
}

// discardImage removes an upload saved for a request that failed afterwards,
// unless another exercise already points at the same file.
func (handler *Handler) discardImage(ctx context.Context, imagePath *string) {
	if imagePath == nil {
		return
	}
	inUse, err := handler.repo.ImageInUse(ctx, *imagePath)
	if err != nil {
		log.Warnf("discard image [%s], check references: %s", *imagePath, err)
		return
	}
	if inUse {
		return
	}
	if err := handler.images.Delete(ctx, *imagePath); err != nil {
		log.Warnf("discard image [%s]: %s", *imagePath, err)
	}
}

func closeFile(file multipart.File) {
	if err := file.Close(); err != nil {
		log.Warnf("close uploaded file: %s", err)
	}
}
