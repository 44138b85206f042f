// internal/handler/handler.go
package handler

import (
	"embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"
	qrcode "github.com/skip2/go-qrcode"

	"photodrop-backend/internal/hub"
	"photodrop-backend/internal/models"
	"photodrop-backend/internal/service"
	"photodrop-backend/internal/storage"
	"photodrop-backend/internal/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Handler wires the HTTP and websocket surface to the relay core. Constructed
// once at startup and passed the services explicitly — no ambient globals.
type Handler struct {
	Uploads *service.UploadService
	Query   *service.QueryService
	Store   storage.Storage
	Hub     *hub.Hub
	BaseURL string
}

// Router builds the route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/", h.Index).Methods("GET")
	r.HandleFunc("/upload/{sessionToken}", h.UploadPage).Methods("GET")
	r.HandleFunc("/upload/{sessionToken}", h.Upload).Methods("POST")
	r.HandleFunc("/uploads/{artifactName}", h.ServeArtifact).Methods("GET")
	r.HandleFunc("/list_images/{sessionToken}", h.ListImages).Methods("GET")
	r.HandleFunc("/download/{sessionToken}", h.Download).Methods("GET")
	r.HandleFunc("/ws", h.LiveFeed).Methods("GET")
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Index is the desktop page: mints a fresh session token and renders the QR
// code that mobile devices scan to reach the upload page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	token := models.NewSessionToken()
	uploadURL := h.BaseURL + "/upload/" + string(token)

	png, err := qrcode.Encode(uploadURL, qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr encode failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.render(w, "index.html", map[string]any{
		"SessionToken": token,
		"UploadURL":    uploadURL,
		"QRDataURI":    template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)),
	})
}

// UploadPage is the mobile camera/upload page for one session.
func (h *Handler) UploadPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, "upload.html", map[string]any{
		"SessionToken": mux.Vars(r)["sessionToken"],
	})
}

// Upload ingests one multipart photo: persist first, then notify the room.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	token := models.SessionToken(mux.Vars(r)["sessionToken"])

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": validation.ErrNoFilePart.Error()})
		return
	}
	defer file.Close()

	artifact, err := h.Uploads.Ingest(token, header.Filename, file)
	switch {
	case errors.Is(err, validation.ErrNoFilePart),
		errors.Is(err, validation.ErrNoSelectedFile),
		errors.Is(err, validation.ErrEmptyToken):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	case err != nil:
		slog.Error("ingest failed", "session", token, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"image_url": h.Uploads.ImageURL(artifact),
	})
}

// ServeArtifact streams raw stored bytes. Missing names and traversal
// attempts both come back as a plain 404.
func (h *Handler) ServeArtifact(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["artifactName"]

	rc, err := h.Store.Open(name)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if err != nil {
		slog.Error("open artifact failed", "name", name, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	defer rc.Close()

	ct := mime.TypeByExtension(filepath.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("serve artifact interrupted", "name", name, "error", err)
	}
}

// ListImages returns the session's image URLs newest-first. This is how late
// joiners and reconnecting viewers catch up on broadcasts they missed.
func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	token := models.SessionToken(mux.Vars(r)["sessionToken"])

	artifacts, err := h.Query.History(token)
	if err != nil {
		slog.Error("history failed", "session", token, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	urls := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		urls = append(urls, h.Uploads.ImageURL(a))
	}
	writeJSON(w, http.StatusOK, map[string][]string{"images": urls})
}

// Download streams a zip of the session's images.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	token := models.SessionToken(mux.Vars(r)["sessionToken"])

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+service.ArchiveName(token)+`"`)

	err := h.Query.Archive(w, token)
	if errors.Is(err, service.ErrNoArtifacts) {
		// Nothing has been written yet, so the response can still be replaced.
		w.Header().Del("Content-Disposition")
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no images for this session"})
		return
	}
	if err != nil {
		// Mid-stream failure: the status line is already gone, log and drop.
		slog.Error("archive failed", "session", token, "error", err)
	}
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("render failed", "template", name, "error", err)
	}
}
