package handlers

import "net/http"

// maxUploadBytes bounds multipart parsing memory; larger files spill to disk.
const maxUploadBytes = 32 << 20

// UploadImage relays a browser-posted image to the upstream asset store. The
// page posts the file under "file"; upstream expects the part named "image".
func (a *App) UploadImage(w http.ResponseWriter, r *http.Request) {
	a.relayUpload(w, r, "/openapi/v2/image/upload", "image", "image upload failed")
}

// UploadMedia relays a video or audio file for jobs that reference uploaded
// footage, such as extending a local clip.
func (a *App) UploadMedia(w http.ResponseWriter, r *http.Request) {
	a.relayUpload(w, r, "/openapi/v2/media/upload", "file", "media upload failed")
}

func (a *App) relayUpload(w http.ResponseWriter, r *http.Request, path, field, what string) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	raw, err := a.Client.ForwardUpload(r.Context(), path, field, header.Filename, file)
	if err != nil {
		a.upstreamError(w, what, err)
		return
	}
	a.upstream(w, raw)
}
