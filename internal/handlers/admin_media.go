// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"folio/internal/imaging"
)

// maxUploadSize is the maximum accepted image size (10 MB).
const maxUploadSize = 10 << 20

// MediaStorage stores uploaded images. *storage.Client satisfies it.
type MediaStorage interface {
	MediaKey(filename string) string
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

type mediaResponse struct {
	URL      string            `json:"url"`
	Variants map[string]string `json:"variants,omitempty"`
	Width    int               `json:"width"`
	Height   int               `json:"height"`
	Type     string            `json:"type"`
}

// UploadMedia stores an avatar or project image in the public bucket
// together with its downscaled variants.
func (a *Admin) UploadMedia(w http.ResponseWriter, r *http.Request) {
	if a.media == nil {
		writeError(w, http.StatusServiceUnavailable, "Object storage is not configured.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 10 MB.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read file.")
		return
	}

	info, err := imaging.Inspect(data)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupported) {
			writeError(w, http.StatusBadRequest, "Only JPEG, PNG, GIF and WebP images are allowed.")
			return
		}
		slog.Warn("image inspection failed", "error", err, "filename", header.Filename)
		writeError(w, http.StatusBadRequest, "File is not a readable image.")
		return
	}

	ctx := r.Context()
	key := a.media.MediaKey(info.Extension)
	url, err := a.media.Upload(ctx, key, info.ContentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		slog.Error("s3 upload failed", "error", err, "key", key)
		writeError(w, http.StatusInternalServerError, "Failed to upload file.")
		return
	}

	resp := mediaResponse{URL: url, Width: info.Width, Height: info.Height, Type: info.ContentType}

	variants, err := imaging.GenerateVariants(data, info, nil)
	if err != nil {
		slog.Warn("variant generation failed", "error", err, "key", key)
	}
	base := strings.TrimSuffix(key, info.Extension)
	for _, v := range variants {
		vk := base + "_" + v.Name + ".jpg"
		vurl, err := a.media.Upload(ctx, vk, v.ContentType, bytes.NewReader(v.Data), int64(len(v.Data)))
		if err != nil {
			slog.Warn("variant upload failed", "error", err, "key", vk)
			continue
		}
		if resp.Variants == nil {
			resp.Variants = map[string]string{}
		}
		resp.Variants[v.Name] = vurl
	}

	slog.Info("media uploaded", "key", key, "type", info.ContentType, "variants", len(resp.Variants))
	writeJSON(w, http.StatusCreated, resp)
}
