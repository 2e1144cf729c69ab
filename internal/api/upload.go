package api

import (
    "io"
    "log"
    "net/http"
    "os"
    "path/filepath"
    "strings"

    "github.com/google/uuid"
)

const maxUploadBytes = 10 << 20

// UploadHandler handles POST /gestao/upload and /app/motorista/upload.
// The multipart "file" part is stored under the configured upload dir with a
// random name; the response carries the public path.
func (s *Server) UploadHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
    if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid upload", "multipart form required", r.URL.Path)
        return
    }
    file, header, err := r.FormFile("file")
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid upload", "file field required", r.URL.Path)
        return
    }
    defer func(){ _ = file.Close() }()

    ext := strings.ToLower(filepath.Ext(header.Filename))
    switch ext {
    case ".jpg", ".jpeg", ".png", ".webp", ".pdf":
    default:
        writeProblem(w, http.StatusBadRequest, "Invalid upload", "unsupported file type", r.URL.Path)
        return
    }
    if err := os.MkdirAll(s.Config.Uploads.Dir, 0o755); err != nil {
        log.Printf("upload dir: %v", err)
        writeProblem(w, http.StatusInternalServerError, "Internal error", "could not store file", r.URL.Path)
        return
    }
    name := uuid.New().String() + ext
    dst, err := os.Create(filepath.Join(s.Config.Uploads.Dir, name))
    if err != nil {
        log.Printf("upload create: %v", err)
        writeProblem(w, http.StatusInternalServerError, "Internal error", "could not store file", r.URL.Path)
        return
    }
    defer func(){ _ = dst.Close() }()
    if _, err := io.Copy(dst, file); err != nil {
        log.Printf("upload copy: %v", err)
        writeProblem(w, http.StatusInternalServerError, "Internal error", "could not store file", r.URL.Path)
        return
    }
    writeJSON(w, http.StatusCreated, map[string]any{"filePath": "/uploads/" + name})
}
