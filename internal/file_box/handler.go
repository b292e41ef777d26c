package file_box

import (
	"errors"
	"net/http"

	"github.com/2beens/gymbook/internal/telemetry/tracing"
	"github.com/2beens/gymbook/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type Handler struct {
	api *DiskApi
}

func NewHandler(api *DiskApi) *Handler {
	return &Handler{
		api: api,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/uploads/{filename}", handler.HandleGet).Methods("GET").Name("get-upload")
}

// HandleGet streams an uploaded file back to the client.
func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.uploads.get")
	defer span.End()

	filename := mux.Vars(r)["filename"]
	span.SetAttributes(attribute.String("file.name", filename))

	file, stat, err := handler.api.Open(ctx, filename)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			pkg.WriteJSONError(w, "File not found", http.StatusNotFound)
			return
		}
		log.Errorf("open upload [%s]: %s", filename, err)
		pkg.WriteJSONError(w, "Failed to read file", http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Warnf("close upload [%s]: %s", filename, err)
		}
	}()

	http.ServeContent(w, r, stat.Name(), stat.ModTime(), file)
}
