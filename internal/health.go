package internal

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/starford/inkpad/internal/kvstore"
)

type snapshotLister interface {
	List() ([]kvstore.Entry, error)
}

type editorStatus interface {
	IsProcessing() bool
	PendingExportLinks() int
}

type namespaceStatus struct {
	Namespace string    `json:"namespace"`
	Bytes     int       `json:"bytes"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type readiness struct {
	Status             string            `json:"status"`
	Namespaces         []namespaceStatus `json:"namespaces"`
	Processing         bool              `json:"processing"`
	PendingExportLinks int               `json:"pendingExportLinks"`
}

// readyHandler reports 503 while the snapshot store cannot be read.
func readyHandler(store snapshotLister, ed editorStatus, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		entries, err := store.List()
		if err != nil {
			logger.Error("readiness: snapshot store unavailable", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}

		body := readiness{
			Status:             "ok",
			Namespaces:         make([]namespaceStatus, 0, len(entries)),
			Processing:         ed.IsProcessing(),
			PendingExportLinks: ed.PendingExportLinks(),
		}
		for _, e := range entries {
			body.Namespaces = append(body.Namespaces, namespaceStatus{
				Namespace: e.Namespace,
				Bytes:     len(e.Value),
				UpdatedAt: e.UpdatedAt,
			})
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(body)
	}
}
