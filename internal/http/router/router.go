// Package router wires every HTTP handler to its route.
package router

import (
	"net/http"

	"github.com/aanand-mishra/hostel-api/internal/catalog"
	"github.com/aanand-mishra/hostel-api/internal/http/handlers/preview"
	"github.com/aanand-mishra/hostel-api/internal/http/handlers/registrations"
	"github.com/aanand-mishra/hostel-api/internal/http/handlers/room"
	"github.com/aanand-mishra/hostel-api/internal/http/handlers/tenant"
	"github.com/aanand-mishra/hostel-api/internal/registration"
	"github.com/aanand-mishra/hostel-api/internal/storage"
)

// PreviewPath is the URL prefix attachment previews are served under.
const PreviewPath = "/api/previews/"

// Deps is everything the routes need.
type Deps struct {
	Catalog   *catalog.Catalog
	Storage   storage.Storage
	Sessions  *registration.Sessions
	Validator *registration.Validator
	Previews  *registration.MemoryPreviews
}

// New returns the service's router.
//
// Route table:
//
//	GET    /api/rooms                                   → room catalog
//	GET    /api/rooms/{id}                              → one room with rent & deposit
//	GET    /api/meals                                   → meal options
//	POST   /api/registrations                           → open a form session
//	GET    /api/registrations/{id}                      → session snapshot
//	DELETE /api/registrations/{id}                      → discard session
//	PATCH  /api/registrations/{id}/fields/{field}       → set one field
//	PUT    /api/registrations/{id}/room                 → select room
//	PUT    /api/registrations/{id}/meals/{meal}         → toggle meal
//	POST   /api/registrations/{id}/attachments          → upload documents
//	DELETE /api/registrations/{id}/attachments/{index}  → remove document
//	POST   /api/registrations/{id}/submit               → submit
//	GET    /api/previews/{handle}                       → document preview
//	GET    /api/tenants                                 → tenant listing
//	GET    /api/tenants/{id}                            → one tenant
//	DELETE /api/tenants/{id}                            → delete tenant
func New(d Deps) *http.ServeMux {
	router := http.NewServeMux()

	router.HandleFunc("GET /api/rooms", room.GetList(d.Catalog))
	router.HandleFunc("GET /api/rooms/{id}", room.GetByID(d.Catalog))
	router.HandleFunc("GET /api/meals", room.GetMeals(d.Catalog))

	reg := registrations.New(d.Sessions, d.Validator)
	router.HandleFunc("POST /api/registrations", reg.Open)
	router.HandleFunc("GET /api/registrations/{id}", reg.Get)
	router.HandleFunc("DELETE /api/registrations/{id}", reg.Discard)
	router.HandleFunc("PATCH /api/registrations/{id}/fields/{field}", reg.SetField)
	router.HandleFunc("PUT /api/registrations/{id}/room", reg.SelectRoom)
	router.HandleFunc("PUT /api/registrations/{id}/meals/{meal}", reg.ToggleMeal)
	router.HandleFunc("POST /api/registrations/{id}/attachments", reg.AddAttachments)
	router.HandleFunc("DELETE /api/registrations/{id}/attachments/{index}", reg.RemoveAttachment)
	router.HandleFunc("POST /api/registrations/{id}/submit", reg.Submit)

	router.HandleFunc("GET "+PreviewPath+"{handle}", preview.Get(d.Previews))

	router.HandleFunc("GET /api/tenants", tenant.GetList(d.Storage))
	router.HandleFunc("GET /api/tenants/{id}", tenant.GetByID(d.Storage))
	router.HandleFunc("DELETE /api/tenants/{id}", tenant.Delete(d.Storage))

	return router
}
