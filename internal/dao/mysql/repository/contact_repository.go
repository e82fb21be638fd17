package repository

import (
	"context"

	"ripple_chat_server/internal/model"

	"gorm.io/gorm"
)

type contactRepository struct {
	db *gorm.DB
}

// NewContactRepository creates the social-graph repository.
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

// NeighborIDs returns followers and following together: every user that
// appears on the other side of an edge with userUuid.
func (r *contactRepository) NeighborIDs(ctx context.Context, userUuid string) ([]string, error) {
	var edges []model.UserContact
	err := r.db.WithContext(ctx).
		Where("user_uuid = ? OR contact_uuid = ?", userUuid, userUuid).
		Find(&edges).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "find neighbors of user %s", userUuid)
	}

	set := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		if e.UserUuid != userUuid {
			set[e.UserUuid] = struct{}{}
		}
		if e.ContactUuid != userUuid {
			set[e.ContactUuid] = struct{}{}
		}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids, nil
}
