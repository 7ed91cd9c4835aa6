// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"homepros/internal/apperr"
	"homepros/internal/catalog"
	"homepros/internal/database"
	"homepros/internal/models"
	"homepros/internal/slug"
)

// slugAttempts bounds retries when a generated provider slug collides.
const slugAttempts = 3

// ProviderStore handles provider listings and their services and images.
type ProviderStore struct {
	db        *sql.DB
	txTimeout time.Duration

	// failAt, when set, is called at named steps inside transactions and
	// aborts the transaction if it returns an error.
	failAt func(step string) error
}

// NewProviderStore creates a new ProviderStore.
func NewProviderStore(db *sql.DB, txTimeout time.Duration) *ProviderStore {
	return &ProviderStore{db: db, txTimeout: txTimeout}
}

func (s *ProviderStore) step(name string) error {
	if s.failAt == nil {
		return nil
	}
	return s.failAt(name)
}

const providerColumns = `p.id, p.business_name, p.slug, p.description, p.phone, p.email,
	p.address, p.city, p.state, p.zip, p.website, p.owner_user_id, p.claimed_at,
	p.is_verified, p.is_premium, p.is_featured, p.is_active, p.sort_order,
	p.external_rating, p.external_rating_count, p.external_place_id,
	p.created_at, p.updated_at`

// approvedTotals joins per-provider sums over APPROVED reviews as r.
const approvedTotals = `LEFT JOIN (
	SELECT provider_id, SUM(rating) AS total, COUNT(*) AS cnt
	FROM reviews WHERE status = 'APPROVED'
	GROUP BY provider_id
) r ON r.provider_id = p.id`

func scanProvider(row scanner, extra ...any) (*models.Provider, error) {
	var p models.Provider
	dest := []any{
		&p.ID, &p.BusinessName, &p.Slug, &p.Description, &p.Phone, &p.Email,
		&p.Address, &p.City, &p.State, &p.Zip, &p.Website, &p.OwnerUserID, &p.ClaimedAt,
		&p.IsVerified, &p.IsPremium, &p.IsFeatured, &p.IsActive, &p.SortOrder,
		&p.ExternalRating, &p.ExternalRatingCount, &p.ExternalPlaceID,
		&p.CreatedAt, &p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &p, nil
}

// scanRatedProvider scans providerColumns followed by the approved review
// total and count, and sets the computed rating fields.
func scanRatedProvider(row scanner) (*models.Provider, error) {
	var total int64
	var count int
	p, err := scanProvider(row, &total, &count)
	if err != nil {
		return nil, err
	}
	p.Rating = catalog.RatingFromTotals(total, count)
	p.ReviewCount = count
	return p, nil
}

// ProviderSort selects the ordering of a provider listing.
type ProviderSort string

const (
	SortDefault  ProviderSort = ""
	SortRating   ProviderSort = "rating"
	SortFeatured ProviderSort = "featured"
)

// ProviderFilter narrows a public provider listing.
type ProviderFilter struct {
	CategorySlug    string // matches the category and its direct children
	Verified        *bool
	Featured        *bool
	IncludeInactive bool
	Sort            ProviderSort
	Limit           int
}

func (f ProviderFilter) orderBy() string {
	switch f.Sort {
	case SortRating:
		return `COALESCE(r.total::float8 / NULLIF(r.cnt, 0), 0) DESC, COALESCE(r.cnt, 0) DESC, p.business_name ASC`
	case SortFeatured:
		return `p.is_featured DESC, p.is_premium DESC, p.sort_order ASC, p.business_name ASC`
	}
	return `p.sort_order ASC, p.business_name ASC`
}

// List returns providers matching f with computed rating, review count,
// services and primary image. An unknown category slug is NotFound.
func (s *ProviderStore) List(ctx context.Context, f ProviderFilter) ([]models.Provider, error) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !f.IncludeInactive {
		where = append(where, "p.is_active")
	}
	if f.CategorySlug != "" {
		ids, err := categoryScope(ctx, s.db, f.CategorySlug, f.IncludeInactive)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, apperr.NotFound("category")
		}
		where = append(where, `EXISTS (SELECT 1 FROM services s WHERE s.provider_id = p.id AND s.category_id = ANY(`+arg(ids)+`::uuid[]))`)
	}
	if f.Verified != nil {
		where = append(where, "p.is_verified = "+arg(*f.Verified))
	}
	if f.Featured != nil {
		where = append(where, "p.is_featured = "+arg(*f.Featured))
	}

	query := `SELECT ` + providerColumns + `, COALESCE(r.total, 0), COALESCE(r.cnt, 0)
		FROM providers p ` + approvedTotals
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + f.orderBy()
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	defer rows.Close()

	providers := []models.Provider{}
	for rows.Next() {
		p, err := scanRatedProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("scan provider: %w", err)
		}
		providers = append(providers, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}

	if err := s.loadRelations(ctx, s.db, providers); err != nil {
		return nil, err
	}
	return providers, nil
}

// loadRelations batch-loads services (with categories) and images for
// providers and fills their computed primary image and category.
func (s *ProviderStore) loadRelations(ctx context.Context, q queryer, providers []models.Provider) error {
	if len(providers) == 0 {
		return nil
	}
	ids := make([]string, len(providers))
	index := make(map[uuid.UUID]int, len(providers))
	for i, p := range providers {
		ids[i] = p.ID.String()
		index[p.ID] = i
	}

	services, err := servicesFor(ctx, q, ids)
	if err != nil {
		return err
	}
	for _, svc := range services {
		i := index[svc.ProviderID]
		providers[i].Services = append(providers[i].Services, svc)
	}

	images, err := imagesFor(ctx, q, ids)
	if err != nil {
		return err
	}
	for _, img := range images {
		i := index[img.ProviderID]
		providers[i].Images = append(providers[i].Images, img)
	}

	for i := range providers {
		catalog.Annotate(&providers[i])
	}
	return nil
}

func servicesFor(ctx context.Context, q queryer, providerIDs []string) ([]models.Service, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT sv.id, sv.provider_id, sv.category_id, sv.description, sv.sort_order, sv.created_at,
		       `+categoryColumns+`
		FROM services sv
		JOIN categories c ON c.id = sv.category_id
		WHERE sv.provider_id = ANY($1::uuid[])
		ORDER BY sv.provider_id, sv.sort_order, c.sort_order, c.name
	`, providerIDs)
	if err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}
	defer rows.Close()

	var out []models.Service
	for rows.Next() {
		var svc models.Service
		var c models.Category
		err := rows.Scan(
			&svc.ID, &svc.ProviderID, &svc.CategoryID, &svc.Description, &svc.SortOrder, &svc.CreatedAt,
			&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon, &c.Level, &c.ParentID,
			&c.SortOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		svc.Category = &c
		out = append(out, svc)
	}
	return out, rows.Err()
}

const imageColumns = `id, provider_id, url, type, s3_key, sort_order, created_at`

func scanImage(row scanner) (*models.ProviderImage, error) {
	var img models.ProviderImage
	err := row.Scan(&img.ID, &img.ProviderID, &img.URL, &img.Type, &img.S3Key, &img.SortOrder, &img.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func imagesFor(ctx context.Context, q queryer, providerIDs []string) ([]models.ProviderImage, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+imageColumns+`
		FROM provider_images
		WHERE provider_id = ANY($1::uuid[])
		ORDER BY provider_id, sort_order, created_at
	`, providerIDs)
	if err != nil {
		return nil, fmt.Errorf("load images: %w", err)
	}
	defer rows.Close()

	var out []models.ProviderImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		out = append(out, *img)
	}
	return out, rows.Err()
}

// FindByID retrieves a provider row with computed rating, including
// inactive providers. Returns nil if not found.
func (s *ProviderStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	p, err := scanRatedProvider(s.db.QueryRowContext(ctx, `
		SELECT `+providerColumns+`, COALESCE(r.total, 0), COALESCE(r.cnt, 0)
		FROM providers p `+approvedTotals+`
		WHERE p.id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find provider by id: %w", err)
	}
	return p, nil
}

// FindByOwner returns the provider owned by userID. Returns nil if the
// user owns none.
func (s *ProviderStore) FindByOwner(ctx context.Context, userID uuid.UUID) (*models.Provider, error) {
	p, err := scanProvider(s.db.QueryRowContext(ctx,
		`SELECT `+providerColumns+` FROM providers p WHERE p.owner_user_id = $1`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find provider by owner: %w", err)
	}
	return p, nil
}

// FindDetail retrieves a provider by UUID or slug with its services,
// images and approved reviews (with replies). Inactive providers are
// hidden unless includeInactive is set. Returns nil if not found.
func (s *ProviderStore) FindDetail(ctx context.Context, idOrSlug string, includeInactive bool) (*models.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers p WHERE `
	var key any = idOrSlug
	if id, err := uuid.Parse(idOrSlug); err == nil {
		query += `p.id = $1`
		key = id
	} else {
		query += `p.slug = $1`
	}
	query += ` AND ($2 OR p.is_active)`

	p, err := scanProvider(s.db.QueryRowContext(ctx, query, key, includeInactive))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find provider detail: %w", err)
	}

	reviews, err := approvedReviewsFor(ctx, s.db, p.ID)
	if err != nil {
		return nil, err
	}
	p.Reviews = reviews

	list := []models.Provider{*p}
	if err := s.loadRelations(ctx, s.db, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// ServiceInput describes a service to attach to a new provider.
type ServiceInput struct {
	CategoryID  uuid.UUID
	Description string
}

// ImageInput describes an image to attach to a new provider.
type ImageInput struct {
	URL   string
	Type  models.ImageType
	S3Key *string
}

// NewProvider carries the fields for creating a provider.
type NewProvider struct {
	BusinessName string
	Phone        string
	Email        string
	OwnerName    string
	Password     string
	Description  string
	Address      string
	City         string
	State        string
	Zip          string
	Website      *string
	IsActive     bool
	Services     []ServiceInput
	Images       []ImageInput
}

// Register creates a self-registered provider owned by the user with
// in.Email, creating that user with in.Password if needed and promoting
// them to PROVIDER.
// The provider, its services and images are created in one transaction.
func (s *ProviderStore) Register(ctx context.Context, in NewProvider) (*models.Provider, error) {
	return s.create(ctx, in, true)
}

// AdminCreate creates an unclaimed provider.
func (s *ProviderStore) AdminCreate(ctx context.Context, in NewProvider) (*models.Provider, error) {
	return s.create(ctx, in, false)
}

func (s *ProviderStore) create(ctx context.Context, in NewProvider, withOwner bool) (*models.Provider, error) {
	in.BusinessName = strings.TrimSpace(in.BusinessName)
	in.Email = NormalizeEmail(in.Email)

	var created *models.Provider
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		err = database.WithTx(ctx, s.db, s.txTimeout, func(tx *sql.Tx) error {
			var txErr error
			created, txErr = s.createTx(ctx, tx, in, withOwner)
			return txErr
		})
		if !errors.Is(err, apperr.ErrSlugTaken) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *ProviderStore) createTx(ctx context.Context, tx *sql.Tx, in NewProvider, withOwner bool) (*models.Provider, error) {
	var ownerID *uuid.UUID
	var claimedAt *time.Time
	if withOwner {
		user, err := findOrCreateUser(ctx, tx, in.Email, in.Password, in.OwnerName)
		if err != nil {
			return nil, err
		}
		var owns bool
		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM providers WHERE owner_user_id = $1)`, user.ID,
		).Scan(&owns)
		if err != nil {
			return nil, fmt.Errorf("check existing provider: %w", err)
		}
		if owns {
			return nil, apperr.ErrUserHasProvider
		}
		if err := promoteUser(ctx, tx, user); err != nil {
			return nil, err
		}
		now := time.Now()
		ownerID, claimedAt = &user.ID, &now
	}

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_order) + 1, 0) FROM providers`,
	).Scan(&next); err != nil {
		return nil, fmt.Errorf("next provider sort order: %w", err)
	}

	p, err := scanProvider(tx.QueryRowContext(ctx, `
		INSERT INTO providers AS p (business_name, slug, description, phone, email, address, city,
			state, zip, website, owner_user_id, claimed_at, is_active, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+providerColumns,
		in.BusinessName, slug.WithSuffix(in.BusinessName), in.Description, in.Phone, in.Email,
		in.Address, in.City, in.State, in.Zip, in.Website, ownerID, claimedAt, in.IsActive, next,
	))
	if err != nil {
		return nil, mapErr("insert provider", err)
	}

	if err := s.step("services"); err != nil {
		return nil, err
	}
	for i, svc := range in.Services {
		var created models.Service
		err := tx.QueryRowContext(ctx, `
			INSERT INTO services (provider_id, category_id, description, sort_order)
			VALUES ($1, $2, $3, $4)
			RETURNING id, provider_id, category_id, description, sort_order, created_at
		`, p.ID, svc.CategoryID, svc.Description, i).Scan(
			&created.ID, &created.ProviderID, &created.CategoryID,
			&created.Description, &created.SortOrder, &created.CreatedAt,
		)
		if err != nil {
			return nil, mapErr("insert service", err)
		}
		p.Services = append(p.Services, created)
	}

	if err := s.step("images"); err != nil {
		return nil, err
	}
	for i, img := range in.Images {
		created, err := insertImage(ctx, tx, p.ID, img, i)
		if err != nil {
			return nil, err
		}
		p.Images = append(p.Images, *created)
	}

	kind, title := models.NotifyProviderCreated, "New provider listing"
	if !withOwner {
		title = "Provider added by admin"
	}
	if err := insertNotification(ctx, tx, models.Notification{
		Type:       kind,
		Title:      title,
		Message:    p.BusinessName,
		ProviderID: &p.ID,
		UserID:     ownerID,
	}); err != nil {
		return nil, err
	}

	p.PrimaryImage = catalog.PrimaryImage(p.Images)
	return p, nil
}

func insertImage(ctx context.Context, q queryer, providerID uuid.UUID, in ImageInput, sortOrder int) (*models.ProviderImage, error) {
	if in.Type == "" {
		in.Type = models.ImageGallery
	}
	img, err := scanImage(q.QueryRowContext(ctx, `
		INSERT INTO provider_images (provider_id, url, type, s3_key, sort_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+imageColumns,
		providerID, in.URL, in.Type, in.S3Key, sortOrder,
	))
	if err != nil {
		return nil, mapErr("insert image", err)
	}
	return img, nil
}

// Patch maps provider columns to new values. Keys outside the updatable
// column set are ignored.
type Patch map[string]any

// updatableColumns lists every provider column Update will write.
var updatableColumns = map[string]bool{
	"business_name":         true,
	"description":           true,
	"phone":                 true,
	"email":                 true,
	"address":               true,
	"city":                  true,
	"state":                 true,
	"zip":                   true,
	"website":               true,
	"is_verified":           true,
	"is_premium":            true,
	"is_featured":           true,
	"is_active":             true,
	"sort_order":            true,
	"external_rating":       true,
	"external_rating_count": true,
	"external_place_id":     true,
}

// Update applies patch to the provider and returns the updated row. An
// empty patch returns the provider unchanged.
func (s *ProviderStore) Update(ctx context.Context, id uuid.UUID, patch Patch) (*models.Provider, error) {
	cols := make([]string, 0, len(patch))
	for col := range patch {
		if updatableColumns[col] {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		p, err := s.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, apperr.NotFound("provider")
		}
		return p, nil
	}
	sort.Strings(cols)

	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		args = append(args, patch[col])
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	args = append(args, id)

	_, err := scanProvider(s.db.QueryRowContext(ctx, fmt.Sprintf(`
		UPDATE providers AS p SET %s, updated_at = NOW()
		WHERE p.id = $%d
		RETURNING `+providerColumns,
		strings.Join(sets, ", "), len(args)), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("provider")
	}
	if err != nil {
		return nil, mapErr("update provider", err)
	}
	return s.FindByID(ctx, id)
}

// Delete removes a provider and every row that depends on it in one
// transaction. It returns the S3 keys of removed images so the caller can
// delete the objects.
func (s *ProviderStore) Delete(ctx context.Context, id uuid.UUID) ([]string, error) {
	var keys []string
	err := database.WithTx(ctx, s.db, s.txTimeout, func(tx *sql.Tx) error {
		var locked uuid.UUID
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM providers WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("provider")
		}
		if err != nil {
			return mapErr("lock provider", err)
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT s3_key FROM provider_images WHERE provider_id = $1 AND s3_key IS NOT NULL`, id)
		if err != nil {
			return fmt.Errorf("list image keys: %w", err)
		}
		for rows.Next() {
			var key string
			if err := rows.Scan(&key); err != nil {
				rows.Close()
				return fmt.Errorf("scan image key: %w", err)
			}
			keys = append(keys, key)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("list image keys: %w", err)
		}

		// Replies go with their reviews through ON DELETE CASCADE.
		steps := []struct{ name, query string }{
			{"reviews", `DELETE FROM reviews WHERE provider_id = $1`},
			{"services", `DELETE FROM services WHERE provider_id = $1`},
			{"images", `DELETE FROM provider_images WHERE provider_id = $1`},
			{"invitations", `DELETE FROM claim_invitations WHERE provider_id = $1`},
			{"bookings", `DELETE FROM bookings WHERE provider_id = $1`},
			{"provider", `DELETE FROM providers WHERE id = $1`},
		}
		for _, st := range steps {
			if err := s.step("delete:" + st.name); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, st.query, id); err != nil {
				return mapErr("delete provider "+st.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// MoveUp swaps the provider's sort order with the active provider just
// before it.
func (s *ProviderStore) MoveUp(ctx context.Context, id uuid.UUID) error {
	return s.move(ctx, id, true)
}

// MoveDown swaps the provider's sort order with the active provider just
// after it.
func (s *ProviderStore) MoveDown(ctx context.Context, id uuid.UUID) error {
	return s.move(ctx, id, false)
}

func (s *ProviderStore) move(ctx context.Context, id uuid.UUID, up bool) error {
	return database.WithTx(ctx, s.db, s.txTimeout, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT id, sort_order FROM providers
			WHERE is_active
			ORDER BY sort_order, business_name, id
			FOR UPDATE
		`)
		if err != nil {
			return mapErr("lock active providers", err)
		}
		var ids []uuid.UUID
		var orders []int
		for rows.Next() {
			var pid uuid.UUID
			var order int
			if err := rows.Scan(&pid, &order); err != nil {
				rows.Close()
				return fmt.Errorf("scan provider order: %w", err)
			}
			ids = append(ids, pid)
			orders = append(orders, order)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("list provider order: %w", err)
		}

		i, j, err := catalog.SwapTarget(ids, id, up)
		if err != nil {
			return err
		}

		// Equal sort orders cannot be swapped meaningfully; renumber the
		// active providers by their current position first.
		if orders[i] == orders[j] {
			for k, pid := range ids {
				if orders[k] == k {
					continue
				}
				if _, err := tx.ExecContext(ctx,
					`UPDATE providers SET sort_order = $1 WHERE id = $2`, k, pid); err != nil {
					return mapErr("renumber providers", err)
				}
				orders[k] = k
			}
		}

		if err := s.step("swap"); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE providers SET sort_order = CASE id WHEN $1::uuid THEN $2::int ELSE $3::int END,
				updated_at = NOW()
			WHERE id IN ($1::uuid, $4::uuid)
		`, ids[i], orders[j], orders[i], ids[j]); err != nil {
			return mapErr("swap sort order", err)
		}
		return nil
	})
}

// AdminQuery filters the admin provider listing.
type AdminQuery struct {
	Search string
	Page   Page
}

// AdminList returns every provider (active or not) matching the search,
// one page at a time.
func (s *ProviderStore) AdminList(ctx context.Context, q AdminQuery) ([]models.Provider, Page, error) {
	page := q.Page
	if page.PerPage == 0 {
		page = NewPage(1, DefaultPerPage)
	}

	where := "TRUE"
	args := []any{}
	if term := strings.TrimSpace(q.Search); term != "" {
		args = append(args, likePattern(term))
		where = `(p.business_name ILIKE $1 OR p.slug ILIKE $1 OR p.email ILIKE $1 OR p.city ILIKE $1 OR p.phone ILIKE $1)`
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM providers p WHERE `+where, args...).Scan(&total); err != nil {
		return nil, page, fmt.Errorf("count providers: %w", err)
	}

	n := len(args)
	args = append(args, page.PerPage, page.Offset())
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT `+providerColumns+`, COALESCE(r.total, 0), COALESCE(r.cnt, 0)
		FROM providers p `+approvedTotals+`
		WHERE %s
		ORDER BY p.sort_order, p.business_name
		LIMIT $%d OFFSET $%d
	`, where, n+1, n+2), args...)
	if err != nil {
		return nil, page, fmt.Errorf("admin list providers: %w", err)
	}
	defer rows.Close()

	providers := []models.Provider{}
	for rows.Next() {
		p, err := scanRatedProvider(rows)
		if err != nil {
			return nil, page, fmt.Errorf("scan provider: %w", err)
		}
		providers = append(providers, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, page, fmt.Errorf("admin list providers: %w", err)
	}
	if err := s.loadRelations(ctx, s.db, providers); err != nil {
		return nil, page, err
	}
	return providers, page.withTotal(total), nil
}

// AddImage attaches an image to a provider after its existing images.
func (s *ProviderStore) AddImage(ctx context.Context, providerID uuid.UUID, in ImageInput) (*models.ProviderImage, error) {
	var next int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_order) + 1, 0) FROM provider_images WHERE provider_id = $1`, providerID,
	).Scan(&next); err != nil {
		return nil, fmt.Errorf("next image sort order: %w", err)
	}
	return insertImage(ctx, s.db, providerID, in, next)
}

// DeleteImage removes one of a provider's images and returns it so the
// caller can delete the stored object.
func (s *ProviderStore) DeleteImage(ctx context.Context, providerID, imageID uuid.UUID) (*models.ProviderImage, error) {
	img, err := scanImage(s.db.QueryRowContext(ctx, `
		DELETE FROM provider_images WHERE id = $1 AND provider_id = $2
		RETURNING `+imageColumns, imageID, providerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("image")
	}
	if err != nil {
		return nil, fmt.Errorf("delete image: %w", err)
	}
	return img, nil
}
