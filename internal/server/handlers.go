package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/example/retouch/internal/store"
)

// Response messages shared with clients.
const (
	MsgUploaded     = "Image uploaded successfully"
	MsgNoFile       = "No file retrieved"
	MsgBadType      = "Only JPG and PNG image files are allowed!"
	MsgTooLarge     = "File too large"
	MsgListed       = "Images fetched successfully"
	MsgListFailed   = "Error reading uploads directory"
	MsgNotFound     = "File not found"
	MsgInvalidName  = "Invalid file name"
	MsgDeleted      = "File deleted successfully"
	MsgDeleteFailed = "Error deleting file"
	MsgSaveFailed   = "Error saving file"
)

type (
	MessageResponse struct {
		Message string `json:"message"`
	}

	UploadResponse struct {
		Message  string `json:"message"`
		FilePath string `json:"filePath"`
	}

	ListResponse struct {
		Message  string   `json:"message"`
		FileURLs []string `json:"fileUrls"`
	}
)

var allowedUploadTypes = map[string]string{
	"image/jpg":  ".jpg",
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

func isImageName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

func reply(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// HandleUpload stores the multipart field "image" under a fresh,
// time-ordered name.
func HandleUpload(st store.Store, prefix string, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		file, header, err := r.FormFile("image")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				reply(w, r, http.StatusRequestEntityTooLarge, MessageResponse{Message: MsgTooLarge})
				return
			}
			logrus.WithError(err).Debug("upload without file")
			reply(w, r, http.StatusBadRequest, MessageResponse{Message: MsgNoFile})
			return
		}
		defer file.Close()

		ct, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
		defaultExt, ok := allowedUploadTypes[strings.ToLower(ct)]
		if !ok {
			logrus.WithFields(logrus.Fields{"name": header.Filename, "contentType": ct}).Warn("rejected upload")
			reply(w, r, http.StatusBadRequest, MessageResponse{Message: MsgBadType})
			return
		}
		data, err := io.ReadAll(file)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				reply(w, r, http.StatusRequestEntityTooLarge, MessageResponse{Message: MsgTooLarge})
				return
			}
			reply(w, r, http.StatusBadRequest, MessageResponse{Message: MsgNoFile})
			return
		}

		ext := strings.ToLower(filepath.Ext(header.Filename))
		if !isImageName("x" + ext) {
			ext = defaultExt
		}
		name := ulid.Make().String() + ext
		if err := st.Save(r.Context(), &store.Object{Name: name, ContentType: strings.ToLower(ct), Data: data}); err != nil {
			logrus.WithError(err).WithField("name", name).Error("Failed to save upload")
			reply(w, r, http.StatusInternalServerError, MessageResponse{Message: MsgSaveFailed})
			return
		}
		logrus.WithFields(logrus.Fields{"name": name, "size": len(data)}).Info("stored upload")
		reply(w, r, http.StatusOK, UploadResponse{Message: MsgUploaded, FilePath: path.Join(prefix, name)})
	}
}

// HandleList returns the URLs of every stored image in ascending name order.
func HandleList(st store.Store, prefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := st.List(r.Context())
		if err != nil {
			logrus.WithError(err).Error("Error reading the uploads directory")
			reply(w, r, http.StatusInternalServerError, MessageResponse{Message: MsgListFailed})
			return
		}
		urls := make([]string, 0, len(names))
		for _, name := range names {
			if isImageName(name) {
				urls = append(urls, path.Join(prefix, name))
			}
		}
		reply(w, r, http.StatusOK, ListResponse{Message: MsgListed, FileURLs: urls})
	}
}

// HandleGet serves one stored file.
func HandleGet(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "filename")
		if err := store.ValidName(name); err != nil {
			reply(w, r, http.StatusBadRequest, MessageResponse{Message: MsgInvalidName})
			return
		}
		obj, err := st.Open(r.Context(), name)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				logrus.WithError(err).WithField("name", name).Error("Failed to open upload")
			}
			reply(w, r, http.StatusNotFound, MessageResponse{Message: MsgNotFound})
			return
		}
		ct := obj.ContentType
		if ct == "" {
			ct = http.DetectContentType(obj.Data)
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
		if !obj.ModTime.IsZero() {
			w.Header().Set("Last-Modified", obj.ModTime.UTC().Format(http.TimeFormat))
		}
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			w.Write(obj.Data)
		}
	}
}

// HandleDelete removes one stored file.
func HandleDelete(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "filename")
		if err := store.ValidName(name); err != nil {
			reply(w, r, http.StatusBadRequest, MessageResponse{Message: MsgInvalidName})
			return
		}
		if err := st.Delete(r.Context(), name); err != nil {
			logrus.WithError(err).WithField("name", name).Error("Error deleting file")
			reply(w, r, http.StatusInternalServerError, MessageResponse{Message: MsgDeleteFailed})
			return
		}
		reply(w, r, http.StatusOK, MessageResponse{Message: MsgDeleted})
	}
}
