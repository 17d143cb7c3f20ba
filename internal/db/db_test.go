package db

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"gorm.io/gorm"
)

type counterRow struct {
	ID    uint
	Value int
}

func TestOpenSQLiteFileSerializesConcurrentTransactions(t *testing.T) {
	conn, errOpen := Open(filepath.Join(t.TempDir(), "fund.db"), DefaultPoolOptions())
	if errOpen != nil {
		t.Fatalf("open: %v", errOpen)
	}
	sqlDB, _ := conn.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	if got := sqlDB.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("max open connections = %d, want 1", got)
	}
	if errMigrate := conn.AutoMigrate(&counterRow{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	if errCreate := conn.Create(&counterRow{ID: 1}).Error; errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}

	const workers, rounds = 4, 25
	var wg sync.WaitGroup
	errs := make(chan error, workers*rounds)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				errs <- conn.Transaction(func(tx *gorm.DB) error {
					var row counterRow
					if errFind := tx.First(&row, 1).Error; errFind != nil {
						return errFind
					}
					return tx.Model(&counterRow{}).Where("id = ?", 1).Update("value", row.Value+1).Error
				})
			}
		}()
	}
	wg.Wait()
	close(errs)

	var failed []error
	for errTx := range errs {
		if errTx != nil {
			failed = append(failed, errTx)
		}
	}
	if len(failed) > 0 {
		t.Fatalf("%d transactions failed: %v", len(failed), errors.Join(failed...))
	}
	var row counterRow
	conn.First(&row, 1)
	if row.Value != workers*rounds {
		t.Fatalf("value = %d, want %d", row.Value, workers*rounds)
	}
}
