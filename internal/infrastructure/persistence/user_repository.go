package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormUserRepository implements UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

// Update updates an existing user
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	result := r.db.WithContext(ctx).Save(user)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var user identity.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByIDs finds every user in ids
func (r *GormUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]identity.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []identity.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("username").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// usernameIs matches username ignoring case; usernames are unique that way
func usernameIs(username string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username)))
	}
}

// userSearch matches term against username or email
func userSearch(term string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if strings.TrimSpace(term) == "" {
			return db
		}
		pattern := likePattern(term)
		return db.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}
}

// FindByUsername finds a user by username, ignoring case
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	var user identity.User
	if err := r.db.WithContext(ctx).Scopes(usernameIs(username)).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindAll pages through the directory. A zero PageSize returns every match.
func (r *GormUserRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.User, int64, error) {
	matching := r.db.WithContext(ctx).Model(&identity.User{}).Scopes(userSearch(filter.Search))

	var total int64
	if err := matching.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []identity.User{}, 0, nil
	}

	page := matching.Order(userSort.orderBy(filter))
	if filter.PageSize > 0 {
		page = page.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	var users []identity.User
	if err := page.Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ExistsByUsername reports whether username is taken, ignoring case
func (r *GormUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var found int64
	err := r.db.WithContext(ctx).Model(&identity.User{}).Scopes(usernameIs(username)).Count(&found).Error
	return found > 0, err
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
