package venues

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/internal/memberships"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

type VenueDTO struct {
	ID         uuid.UUID             `json:"id"`
	Name       string                `json:"name"`
	Status     enums.LifecycleStatus `json:"status"`
	IsArchived bool                  `json:"is_archived"`
	ArchivedAt *time.Time            `json:"archived_at"`
	CreatedAt  time.Time             `json:"created_at"`
}

// CreatedVenueDTO echoes what happened to each requested owner handle.
type CreatedVenueDTO struct {
	VenueDTO
	Owners []memberships.EnrollResult `json:"owners"`
}

type CreateVenueInput struct {
	Name           string
	OwnerUsernames []string
}

func FromModel(v *models.Venue) VenueDTO {
	return VenueDTO{
		ID:         v.ID,
		Name:       v.Name,
		Status:     v.Status,
		IsArchived: v.IsArchived(),
		ArchivedAt: v.ArchivedAt,
		CreatedAt:  v.CreatedAt,
	}
}
