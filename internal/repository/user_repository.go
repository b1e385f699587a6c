package repository

import (
	"strings"

	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository reads and writes the mirrored user directory.
type UserRepository interface {
	Upsert(user *model.UserProfile) error
	FindByID(id string) (*model.UserProfile, error)
	FindByIDs(ids []string) ([]*model.UserProfile, error)
	// ResolveIdentifier matches an identifier against id, email
	// (case-insensitive) and firebase_uid in one OR-ed query.
	ResolveIdentifier(identifier string) (*model.UserProfile, error)
	// Subordinates returns the transitive closure of users managed by
	// managerID, following parent_manager_id down at most maxDepth levels.
	Subordinates(managerID string, maxDepth int) ([]string, error)
	LinkFirebaseUID(id, firebaseUID string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Upsert inserts or replaces a directory row by primary key.
func (r *userRepository) Upsert(user *model.UserProfile) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "firebase_uid", "google_id", "parent_manager_id",
			"roles", "display_name", "avatar_url", "updated_at",
		}),
	}).Create(user).Error
}

// FindByID looks a user up by primary key.
func (r *userRepository) FindByID(id string) (*model.UserProfile, error) {
	var user model.UserProfile
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDs fetches a batch of users in one query.
func (r *userRepository) FindByIDs(ids []string) ([]*model.UserProfile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []*model.UserProfile
	err := r.db.Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// ResolveIdentifier matches id, lowercased email and firebase_uid; first
// match wins. google_id deliberately does not participate.
func (r *userRepository) ResolveIdentifier(identifier string) (*model.UserProfile, error) {
	var user model.UserProfile
	err := r.db.
		Where("id = ? OR LOWER(email) = ? OR firebase_uid = ?",
			identifier, strings.ToLower(identifier), identifier).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Subordinates walks the parent_manager_id chain downward. The depth bound
// guarantees termination even if the hierarchy accidentally contains a cycle.
func (r *userRepository) Subordinates(managerID string, maxDepth int) ([]string, error) {
	var ids []string
	err := r.db.Raw(`
		WITH RECURSIVE subordinates AS (
			SELECT id, 1 AS depth FROM users WHERE parent_manager_id = ?
			UNION ALL
			SELECT u.id, s.depth + 1
			FROM users u
			JOIN subordinates s ON u.parent_manager_id = s.id
			WHERE s.depth < ?
		)
		SELECT DISTINCT id FROM subordinates
	`, managerID, maxDepth).Scan(&ids).Error
	return ids, err
}

// LinkFirebaseUID attaches or replaces the external-auth UID for a user.
func (r *userRepository) LinkFirebaseUID(id, firebaseUID string) error {
	result := r.db.Model(&model.UserProfile{}).
		Where("id = ?", id).
		Update("firebase_uid", firebaseUID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
