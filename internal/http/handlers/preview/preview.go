// Package preview streams attachment previews held by a registration
// session.
package preview

import (
	"bytes"
	"net/http"
	"time"

	"github.com/aanand-mishra/hostel-api/internal/registration"
	"github.com/aanand-mishra/hostel-api/internal/utils/response"
)

// Get handles GET /api/previews/{handle}. A released handle is 404.
func Get(previews *registration.MemoryPreviews) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := previews.Open(r.PathValue("handle"))
		if !ok {
			response.WriteJSON(w, http.StatusNotFound,
				response.GeneralError(registration.ErrPreviewNotFound))
			return
		}

		if f.ContentType != "" {
			w.Header().Set("Content-Type", f.ContentType)
		}
		http.ServeContent(w, r, f.Name, time.Time{}, bytes.NewReader(f.Data))
	}
}
