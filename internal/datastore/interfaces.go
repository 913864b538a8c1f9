// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/graintec/ricenet-go/internal/conf"
)

// Interface abstracts the underlying database implementation and defines the
// operations the rest of the application performs on stored scans.
type Interface interface {
	Open() error
	Close() error
	Save(scan *Scan) error
	Get(id string) (Scan, error)
	Delete(id string) error
	GetAllScans() ([]Scan, error)
	GetLastScans(limit int) ([]Scan, error)
	SearchScans(filter *ScanFilter) ([]Scan, int64, error)
	CountScans() (int64, error)
	GetScanSummary() (ScanSummary, error)
	MarkSynced(id string, syncedAt time.Time) error
	GetUnsyncedScans(limit int) ([]Scan, error)
	EnforceRetention() (int64, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB       *gorm.DB // GORM database instance
	MaxScans int      // retention cap, 0 disables eviction
}

// New creates a new store instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// Save stores a scan, evicting the oldest synced scans in the same
// transaction once the retention cap is reached. Unsynced scans are never
// evicted, so the store can temporarily exceed the cap until uploads catch
// up.
func (ds *DataStore) Save(scan *Scan) error {
	start := time.Now()
	var evicted int64
	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		if ds.MaxScans > 0 {
			n, err := evictOldestSynced(tx, ds.MaxScans, 1)
			if err != nil {
				return err
			}
			evicted = n
		}
		if err := tx.Create(scan).Error; err != nil {
			return fmt.Errorf("saving scan: %w", err)
		}
		return nil
	})
	if m := getMetrics(); m != nil {
		m.RecordOperation("save", time.Since(start).Seconds(), err)
		if evicted > 0 {
			m.RecordEviction(evicted)
		}
	}
	return err
}

// evictOldestSynced deletes the oldest synced scans by capture time so the
// store holds at most maxScans rows after inserting incoming new ones. It
// returns the number of evicted rows, which falls short of the overflow when
// not enough synced rows exist.
func evictOldestSynced(tx *gorm.DB, maxScans, incoming int) (int64, error) {
	var total int64
	if err := tx.Model(&Scan{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("counting scans: %w", err)
	}

	overflow := total + int64(incoming) - int64(maxScans)
	if overflow <= 0 {
		return 0, nil
	}

	var victims []string
	if err := tx.Model(&Scan{}).
		Where("synced_at IS NOT NULL").
		Order("captured_at ASC").
		Limit(int(overflow)).
		Pluck("id", &victims).Error; err != nil {
		return 0, fmt.Errorf("selecting scans for eviction: %w", err)
	}
	if len(victims) == 0 {
		return 0, nil
	}

	result := tx.Where("id IN ?", victims).Delete(&Scan{})
	if result.Error != nil {
		return 0, fmt.Errorf("evicting scans: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// EnforceRetention evicts synced scans above the retention cap outside the
// save path and reports how many rows were removed.
func (ds *DataStore) EnforceRetention() (int64, error) {
	if ds.MaxScans <= 0 {
		return 0, nil
	}

	var evicted int64
	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		n, err := evictOldestSynced(tx, ds.MaxScans, 0)
		evicted = n
		return err
	})
	if m := getMetrics(); m != nil && evicted > 0 {
		m.RecordEviction(evicted)
	}
	return evicted, err
}

// Get retrieves a scan by its ID from the database.
func (ds *DataStore) Get(id string) (Scan, error) {
	start := time.Now()
	var scan Scan
	err := ds.DB.Where("id = ?", id).First(&scan).Error
	if m := getMetrics(); m != nil {
		m.RecordOperation("get", time.Since(start).Seconds(), err)
	}
	if err != nil {
		return Scan{}, fmt.Errorf("getting scan %s: %w", id, err)
	}
	return scan, nil
}

// Delete removes a scan from the database.
func (ds *DataStore) Delete(id string) error {
	start := time.Now()
	result := ds.DB.Where("id = ?", id).Delete(&Scan{})
	if m := getMetrics(); m != nil {
		m.RecordOperation("delete", time.Since(start).Seconds(), result.Error)
	}
	if result.Error != nil {
		return fmt.Errorf("deleting scan %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("deleting scan %s: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// GetAllScans retrieves all scans ordered by capture time.
func (ds *DataStore) GetAllScans() ([]Scan, error) {
	var scans []Scan
	if result := ds.DB.Order("captured_at ASC").Find(&scans); result.Error != nil {
		return nil, fmt.Errorf("getting all scans: %w", result.Error)
	}
	return scans, nil
}

// GetLastScans retrieves the most recent scans.
func (ds *DataStore) GetLastScans(limit int) ([]Scan, error) {
	var scans []Scan

	start := time.Now()
	if result := ds.DB.Order("captured_at DESC").Limit(limit).Find(&scans); result.Error != nil {
		return nil, fmt.Errorf("getting last scans: %w", result.Error)
	}
	getLogger().Debug("retrieved recent scans", "count", len(scans), "elapsed", time.Since(start))

	return scans, nil
}

// SearchScans lists scans matching the filter with pagination, returning the
// page and the total match count.
func (ds *DataStore) SearchScans(filter *ScanFilter) ([]Scan, int64, error) {
	start := time.Now()
	base := func() *gorm.DB {
		query := ds.DB.Model(&Scan{})
		if filter.RiceType != "" {
			query = query.Where("rice_type = ?", filter.RiceType)
		}
		if filter.GradeCode != "" {
			query = query.Where("grade_code = ?", filter.GradeCode)
		}
		if !filter.From.IsZero() {
			query = query.Where("captured_at >= ?", filter.From)
		}
		if !filter.To.IsZero() {
			query = query.Where("captured_at <= ?", filter.To)
		}
		return query
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting matching scans: %w", err)
	}

	query := base().Order("captured_at " + sortAscendingString(filter.Ascending))
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var scans []Scan
	err := query.Find(&scans).Error
	if m := getMetrics(); m != nil {
		m.RecordOperation("search", time.Since(start).Seconds(), err)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("searching scans: %w", err)
	}
	return scans, total, nil
}

// CountScans returns the number of stored scans.
func (ds *DataStore) CountScans() (int64, error) {
	var total int64
	if err := ds.DB.Model(&Scan{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("counting scans: %w", err)
	}
	if m := getMetrics(); m != nil {
		m.SetStoredScans(float64(total))
	}
	return total, nil
}

// GetScanSummary aggregates stored scans for dashboard views.
func (ds *DataStore) GetScanSummary() (ScanSummary, error) {
	summary := ScanSummary{
		ByRiceType: map[string]int64{},
		ByGrade:    map[string]int64{},
	}

	if err := ds.DB.Model(&Scan{}).Count(&summary.TotalScans).Error; err != nil {
		return summary, fmt.Errorf("counting scans: %w", err)
	}
	if summary.TotalScans == 0 {
		return summary, nil
	}

	var first, last Scan
	if err := ds.DB.Order("captured_at ASC").First(&first).Error; err != nil {
		return summary, fmt.Errorf("finding first scan: %w", err)
	}
	if err := ds.DB.Order("captured_at DESC").First(&last).Error; err != nil {
		return summary, fmt.Errorf("finding last scan: %w", err)
	}
	summary.FirstScan = first.CapturedAt
	summary.LastScan = last.CapturedAt

	var averages struct {
		AvgCount  float64
		AvgBroken float64
	}
	err := ds.DB.Model(&Scan{}).
		Select("AVG(`count`) as avg_count, AVG(broken_count * 100.0 / `count`) as avg_broken").
		Where("`count` > 0").
		Scan(&averages).Error
	if err != nil {
		return summary, fmt.Errorf("averaging scans: %w", err)
	}
	summary.AvgCount = averages.AvgCount
	summary.AvgBrokenPercent = averages.AvgBroken

	type bucket struct {
		Value string
		Tally int64
	}

	var byType []bucket
	err = ds.DB.Model(&Scan{}).
		Select("rice_type as value, COUNT(*) as tally").
		Group("rice_type").
		Scan(&byType).Error
	if err != nil {
		return summary, fmt.Errorf("grouping scans by rice type: %w", err)
	}
	for _, b := range byType {
		summary.ByRiceType[b.Value] = b.Tally
	}

	var byGrade []bucket
	err = ds.DB.Model(&Scan{}).
		Select("grade_code as value, COUNT(*) as tally").
		Group("grade_code").
		Scan(&byGrade).Error
	if err != nil {
		return summary, fmt.Errorf("grouping scans by grade: %w", err)
	}
	for _, b := range byGrade {
		summary.ByGrade[b.Value] = b.Tally
	}

	return summary, nil
}

// MarkSynced records that a scan was uploaded to a remote sink, making it
// eligible for retention eviction.
func (ds *DataStore) MarkSynced(id string, syncedAt time.Time) error {
	result := ds.DB.Model(&Scan{}).Where("id = ?", id).Update("synced_at", syncedAt)
	if result.Error != nil {
		return fmt.Errorf("marking scan %s synced: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("marking scan %s synced: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// GetUnsyncedScans retrieves scans not yet uploaded, oldest first.
func (ds *DataStore) GetUnsyncedScans(limit int) ([]Scan, error) {
	var scans []Scan
	query := ds.DB.Where("synced_at IS NULL").Order("captured_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&scans).Error; err != nil {
		return nil, fmt.Errorf("getting unsynced scans: %w", err)
	}
	return scans, nil
}

// performAutoMigration automates database migrations with error handling.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&Scan{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}

	if debug {
		getLogger().Debug("database connection initialized", "type", dbType, "connection", connectionInfo)
	}

	return nil
}

// sortAscendingString returns "ASC" or "DESC" based on the boolean input.
func sortAscendingString(asc bool) string {
	if asc {
		return "ASC"
	}
	return "DESC"
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)
}
