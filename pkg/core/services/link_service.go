package services

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/ports"
)

// LinkService is the backend behind the CRUD endpoint.
type LinkService struct {
	repo ports.LinkRepository
	now  func() time.Time
}

func NewLinkService(repo ports.LinkRepository) *LinkService {
	return &LinkService{repo: repo, now: time.Now}
}

func (s *LinkService) ListLinks(ctx context.Context) ([]domain.LinkRow, error) {
	return s.repo.List(ctx)
}

// SaveLink inserts when id is zero and replaces the whole row otherwise,
// clicks included. It returns the row id.
func (s *LinkService) SaveLink(ctx context.Context, id int64, data domain.APILinkData) (int64, error) {
	if id == 0 {
		row := &domain.LinkRow{
			Link:        data.Link,
			Title:       data.Title,
			Description: data.Description,
			Folder:      data.Folder,
			Tags:        data.Tags,
			Img:         data.Img,
			IsFav:       data.IsFav,
			Clicks:      max(data.Clicks, 0),
			CreatedTime: s.now().UTC(),
		}
		if err := s.repo.Create(ctx, row); err != nil {
			return 0, err
		}
		return row.ID, nil
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if row == nil {
		return 0, domain.ErrLinkNotFound
	}

	row.Link = data.Link
	row.Title = data.Title
	row.Description = data.Description
	row.Folder = data.Folder
	row.Tags = data.Tags
	row.Img = data.Img
	row.IsFav = data.IsFav
	row.Clicks = max(data.Clicks, 0)

	if err := s.repo.Update(ctx, row); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *LinkService) DeleteLink(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// IncrementClick records the visit and returns the new click count.
func (s *LinkService) IncrementClick(ctx context.Context, id int64, referer, userAgent string) (int64, error) {
	visit := &domain.Visit{
		LinkID:    id,
		Referer:   referer,
		UserAgent: userAgent,
		CreatedAt: s.now().UTC(),
	}
	return s.repo.RecordVisit(ctx, visit)
}

// Ensure interface compliance
var _ ports.LinkService = (*LinkService)(nil)
