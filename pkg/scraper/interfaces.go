package scraper

import (
	"context"
	"io"

	"museumscraper/pkg/models"
	"museumscraper/pkg/museum"
)

// MuseumClient defines the collection API operations the session needs
type MuseumClient interface {
	SearchObjects(ctx context.Context, query museum.CatalogueQuery) ([]models.ObjectID, error)
	FetchObject(ctx context.Context, id models.ObjectID) (*museum.Entity, error)
	DownloadImage(ctx context.Context, image string) (io.ReadCloser, error)
}
