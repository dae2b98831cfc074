// Package memory is an in-process Repository used by tests and by STORE_DRIVER=memory.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"parkwatch-be/models"
	"parkwatch-be/repository"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Repository struct {
	mu            sync.RWMutex
	reports       map[primitive.ObjectID]*models.Report
	plates        map[string]*models.PlateAggregate
	comments      []*models.Comment
	points        map[primitive.ObjectID]*models.GeoPoint
	users         map[primitive.ObjectID]*models.User
	announcements []*models.Announcement
}

var _ repository.Repository = (*Repository)(nil)

func New() *Repository {
	return &Repository{
		reports: map[primitive.ObjectID]*models.Report{},
		plates:  map[string]*models.PlateAggregate{},
		points:  map[primitive.ObjectID]*models.GeoPoint{},
		users:   map[primitive.ObjectID]*models.User{},
	}
}

func (repo *Repository) CreateReport(_ context.Context, r *models.Report) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if _, ok := repo.reports[r.ID]; ok {
		return repository.ErrAlreadyExists
	}
	repo.reports[r.ID] = r.Clone()
	return nil
}

func (repo *Repository) GetReport(_ context.Context, id primitive.ObjectID) (*models.Report, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	r, ok := repo.reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.Clone(), nil
}

func (repo *Repository) GetReportsByIDs(_ context.Context, ids []primitive.ObjectID) ([]*models.Report, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	result := make([]*models.Report, 0, len(ids))
	for _, id := range ids {
		if r, ok := repo.reports[id]; ok {
			result = append(result, r.Clone())
		}
	}
	return result, nil
}

func (repo *Repository) ReplaceReport(_ context.Context, r *models.Report, expect models.Status) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	cur, ok := repo.reports[r.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.Status != expect {
		return repository.ErrStatusMismatch
	}
	repo.reports[r.ID] = r.Clone()
	return nil
}

func (repo *Repository) ChangeReportStatus(_ context.Context, id primitive.ObjectID, change repository.StatusChange) (*models.Report, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	cur, ok := repo.reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if cur.Status != change.From {
		return nil, repository.ErrStatusMismatch
	}
	now := time.Now()
	actor := change.Actor
	cur.Status = change.To
	cur.UpdatedAt = now
	switch change.To {
	case models.Approved:
		cur.ApprovedBy, cur.ApprovedAt = &actor, &now
	case models.Resolved:
		cur.ResolvedBy, cur.ResolvedAt = &actor, &now
	}
	if len(change.ConfirmationImages) > 0 {
		cur.ConfirmationImages = append(cur.ConfirmationImages, change.ConfirmationImages...)
	}
	return cur.Clone(), nil
}

func (repo *Repository) DeleteReport(_ context.Context, id primitive.ObjectID, expect models.Status) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	cur, ok := repo.reports[id]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.Status != expect {
		return repository.ErrStatusMismatch
	}
	delete(repo.reports, id)
	return nil
}

func (repo *Repository) matching(filter repository.ReportFilter) []*models.Report {
	var result []*models.Report
	for _, r := range repo.reports {
		if filter.Kind != "" && r.Kind != filter.Kind {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, r.Status) {
			continue
		}
		if !filter.Reporter.IsZero() && r.Reporter != filter.Reporter {
			continue
		}
		if filter.PublicOnly && r.Kind == models.KindPlate && !r.PostIt {
			continue
		}
		result = append(result, r)
	}
	slices.SortFunc(result, func(a, b *models.Report) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID.Hex(), a.ID.Hex())
	})
	return result
}

func (repo *Repository) ListReports(_ context.Context, filter repository.ReportFilter) ([]*models.Report, int64, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	all := repo.matching(filter)
	total := int64(len(all))
	start := min(max(filter.Skip, 0), total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	page := lo.Map(all[start:end], func(r *models.Report, _ int) *models.Report { return r.Clone() })
	return page, total, nil
}

func (repo *Repository) DistinctPlates(_ context.Context, filter repository.ReportFilter) ([]string, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	keys := lo.FilterMap(repo.matching(filter), func(r *models.Report, _ int) (string, bool) {
		return r.PlateKey, r.PlateKey != ""
	})
	return lo.Uniq(keys), nil
}

func (repo *Repository) LinkReport(_ context.Context, plate, display string, reportID primitive.ObjectID, violations []string) (*models.PlateAggregate, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	now := time.Now()
	agg, ok := repo.plates[plate]
	if !ok {
		agg = &models.PlateAggregate{
			ID:           primitive.NewObjectID(),
			PlateNumber:  plate,
			DisplayPlate: display,
			CreatedAt:    now,
		}
		repo.plates[plate] = agg
	}
	agg.ReportIDs = append(agg.ReportIDs, reportID)
	agg.Count++
	agg.Violations = lo.Union(agg.Violations, violations)
	agg.UpdatedAt = now
	return agg.Clone(), nil
}

func (repo *Repository) UnlinkReport(_ context.Context, plate string, reportID primitive.ObjectID) (*models.PlateAggregate, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	agg, ok := repo.plates[plate]
	if !ok || !agg.Contains(reportID) {
		return nil, repository.ErrNotFound
	}
	agg.ReportIDs = lo.Without(agg.ReportIDs, reportID)
	agg.Count--
	agg.UpdatedAt = time.Now()
	return agg.Clone(), nil
}

func (repo *Repository) SetPlateViolations(_ context.Context, plate string, violations []string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	agg, ok := repo.plates[plate]
	if !ok {
		return repository.ErrNotFound
	}
	agg.Violations = append([]string{}, violations...)
	agg.UpdatedAt = time.Now()
	return nil
}

func (repo *Repository) DeletePlate(_ context.Context, plate string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.plates[plate]; !ok {
		return repository.ErrNotFound
	}
	delete(repo.plates, plate)
	return nil
}

func (repo *Repository) GetPlate(_ context.Context, plate string) (*models.PlateAggregate, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	agg, ok := repo.plates[plate]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return agg.Clone(), nil
}

func (repo *Repository) GetPlateByID(_ context.Context, id primitive.ObjectID) (*models.PlateAggregate, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	for _, agg := range repo.plates {
		if agg.ID == id {
			return agg.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (repo *Repository) GetPlates(_ context.Context, plates []string) ([]*models.PlateAggregate, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	result := make([]*models.PlateAggregate, 0, len(plates))
	for _, p := range plates {
		if agg, ok := repo.plates[p]; ok {
			result = append(result, agg.Clone())
		}
	}
	slices.SortFunc(result, func(a, b *models.PlateAggregate) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return result, nil
}

func (repo *Repository) CreateComment(_ context.Context, c *models.Comment) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	cc := *c
	repo.comments = append(repo.comments, &cc)
	return nil
}

func (repo *Repository) GetComments(_ context.Context, reportID primitive.ObjectID) ([]*models.Comment, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	result := []*models.Comment{}
	for _, c := range repo.comments {
		if c.Report == reportID {
			cc := *c
			result = append(result, &cc)
		}
	}
	return result, nil
}

func (repo *Repository) UpsertGeoPoint(_ context.Context, p *models.GeoPoint) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	pp := *p
	repo.points[p.ReportID] = &pp
	return nil
}

func (repo *Repository) DeleteGeoPoint(_ context.Context, reportID primitive.ObjectID) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	delete(repo.points, reportID)
	return nil
}

func (repo *Repository) FindGeoPoints(_ context.Context, bounds models.Bounds) ([]*models.GeoPoint, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	result := []*models.GeoPoint{}
	for _, p := range repo.points {
		if bounds.Contains(p.Latitude, p.Longitude) {
			pp := *p
			result = append(result, &pp)
		}
	}
	slices.SortFunc(result, func(a, b *models.GeoPoint) int {
		return b.IndexedAt.Compare(a.IndexedAt)
	})
	return result, nil
}

func (repo *Repository) CreateUser(_ context.Context, u *models.User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, existing := range repo.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrAlreadyExists
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	repo.users[u.ID] = u.Clone()
	return nil
}

func (repo *Repository) GetUser(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	u, ok := repo.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u.Clone(), nil
}

func (repo *Repository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	for _, u := range repo.users {
		if strings.EqualFold(u.Email, email) {
			return u.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (repo *Repository) UpdateUser(_ context.Context, id primitive.ObjectID, args repository.UpdateUserArgs) (*models.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	u, ok := repo.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if args.FirstName != nil {
		u.FirstName = *args.FirstName
	}
	if args.LastName != nil {
		u.LastName = *args.LastName
	}
	if args.PhoneNumber != nil {
		u.PhoneNumber = *args.PhoneNumber
	}
	if args.Address != nil {
		u.Address = *args.Address
	}
	if args.Avatar != nil {
		a := *args.Avatar
		u.Avatar = &a
	}
	if args.Role != nil {
		u.Role = *args.Role
	}
	if args.ExpoPushToken != nil {
		u.ExpoPushToken = *args.ExpoPushToken
	}
	u.UpdatedAt = time.Now()
	return u.Clone(), nil
}

func (repo *Repository) CreateAnnouncement(_ context.Context, a *models.Announcement) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	aa := *a
	aa.Pictures = append([]models.Image(nil), a.Pictures...)
	repo.announcements = append(repo.announcements, &aa)
	return nil
}

func (repo *Repository) GetAnnouncements(_ context.Context, skip, limit int64) ([]*models.Announcement, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	sorted := slices.Clone(repo.announcements)
	slices.SortFunc(sorted, func(a, b *models.Announcement) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	total := int64(len(sorted))
	start := min(max(skip, 0), total)
	end := total
	if limit > 0 {
		end = min(start+limit, total)
	}
	result := make([]*models.Announcement, 0, end-start)
	for _, a := range sorted[start:end] {
		aa := *a
		result = append(result, &aa)
	}
	return result, nil
}
