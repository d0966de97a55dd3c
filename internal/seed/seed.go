// Package seed loads the development college/course dataset.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v9"
	"gorm.io/gorm"

	"github.com/collegedash/college_dashboard/internal/logging"
	"github.com/collegedash/college_dashboard/internal/models"
	"github.com/collegedash/college_dashboard/internal/service/search"
)

//go:embed seed.json
var seedJSON []byte

type entry struct {
	Name     string  `json:"name"`
	Location string  `json:"location"`
	Course   string  `json:"course"`
	Fee      float64 `json:"fee"`
}

// Run wipes colleges and courses and reloads them from the embedded dataset.
// When an ES client is given, each row is also indexed; index failures are
// logged and do not abort the seed.
func Run(ctx context.Context, db *gorm.DB, es *elasticsearch.Client, index string) error {
	var entries []entry
	if err := json.Unmarshal(seedJSON, &entries); err != nil {
		return fmt.Errorf("seed: parse dataset: %w", err)
	}

	l := logging.FromContext(ctx)

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Course{}).Error; err != nil {
			return fmt.Errorf("seed: clear courses: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.College{}).Error; err != nil {
			return fmt.Errorf("seed: clear colleges: %w", err)
		}

		for _, item := range entries {
			college := models.College{Name: item.Name, Location: item.Location}
			if err := tx.Create(&college).Error; err != nil {
				return fmt.Errorf("seed: insert college %q: %w", item.Name, err)
			}
			course := models.Course{Name: item.Course, Fee: item.Fee, CollegeID: college.ID}
			if err := tx.Create(&course).Error; err != nil {
				return fmt.Errorf("seed: insert course %q: %w", item.Course, err)
			}

			if es != nil {
				doc := search.CollegeDoc{
					CollegeID:   college.ID,
					CollegeName: college.Name,
					Location:    college.Location,
					Course:      course.Name,
					Fee:         course.Fee,
				}
				if err := search.Index(ctx, es, index, doc); err != nil {
					l.Warn("seed: index failed", "college", college.Name, "error", err)
				}
			}

			l.Info("seeded", "college", item.Name, "course", item.Course)
		}
		return nil
	})
}
