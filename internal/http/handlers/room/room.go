// Package room serves the read-only room and meal catalog.
package room

import (
	"fmt"
	"net/http"

	"github.com/aanand-mishra/hostel-api/internal/catalog"
	"github.com/aanand-mishra/hostel-api/internal/utils/response"
)

// Details is a room with the rent and deposit a registration defaults to.
type Details struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Floor           int    `json:"floor"`
	Rent            int    `json:"rent"`
	SecurityDeposit int    `json:"securityDeposit"`
}

// GetList handles GET /api/rooms
func GetList(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, c.Rooms())
	}
}

// GetByID handles GET /api/rooms/{id}; 404 for a room not in the catalog.
func GetByID(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		rm, ok := c.Room(id)
		if !ok {
			response.WriteJSON(w, http.StatusNotFound,
				response.GeneralError(fmt.Errorf("room %q is not available", id)))
			return
		}

		response.WriteJSON(w, http.StatusOK, Details{
			ID:              rm.ID,
			Type:            rm.Type,
			Floor:           rm.Floor,
			Rent:            rm.Rent,
			SecurityDeposit: rm.Rent * catalog.DepositMultiplier,
		})
	}
}

// GetMeals handles GET /api/meals
func GetMeals(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, c.Meals())
	}
}
