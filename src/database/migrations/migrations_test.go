package migrations

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"tradesim/src/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in memory db: %v", err)
	}
	return db
}

func TestRunOnce_RecordsAndSkips(t *testing.T) {
	db := newTestDB(t)

	calls := 0
	fn := func(*gorm.DB) error {
		calls++
		return nil
	}

	for i := 0; i < 3; i++ {
		if err := RunOnce(db, "00042_test", fn); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected migration to run once, ran %d times", calls)
	}

	var count int64
	if err := db.Model(&DataMigration{}).Where("id = ?", "00042_test").Count(&count).Error; err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected migration to be recorded once, got=%d", count)
	}
}

func TestRunOnce_FailureIsNotRecorded(t *testing.T) {
	db := newTestDB(t)

	err := RunOnce(db, "00043_broken", func(*gorm.DB) error { return errors.New("boom") })
	if err == nil {
		t.Fatalf("expected error from failing migration")
	}

	var count int64
	db.Model(&DataMigration{}).Where("id = ?", "00043_broken").Count(&count)
	if count != 0 {
		t.Fatalf("failed migration must not be recorded")
	}
}

func TestRunOnce_InvalidArguments(t *testing.T) {
	db := newTestDB(t)

	if err := RunOnce(db, "", func(*gorm.DB) error { return nil }); err == nil {
		t.Fatalf("expected error for empty id")
	}
	if err := RunOnce(db, "00044_nil", nil); err == nil {
		t.Fatalf("expected error for nil fn")
	}
	if err := RunOnce(nil, "00045_nil_db", nil); err != nil {
		t.Fatalf("nil db is a no-op, got %v", err)
	}
}

func TestRegistry_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool, len(registry))
	for _, m := range registry {
		if m.ID == "" || m.Fn == nil {
			t.Fatalf("incomplete migration %+v", m)
		}
		if seen[m.ID] {
			t.Fatalf("duplicate migration id %s", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestRun_UppercasesSymbolNames(t *testing.T) {
	db := newTestDB(t)
	if err := db.AutoMigrate(&model.Symbol{}, &model.Tick{}, &model.Trade{}, &model.Order{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	if err := db.Exec("INSERT INTO symbols (name, currency_base, currency_quote, digits) VALUES ('eurusd', 'EUR', 'USD', 4)").Error; err != nil {
		t.Fatalf("seed symbol: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := Run(db); err != nil {
			t.Fatalf("run migrations: %v", err)
		}
	}

	var symbol model.Symbol
	if err := db.First(&symbol).Error; err != nil {
		t.Fatalf("load symbol: %v", err)
	}
	if symbol.Name != "EURUSD" {
		t.Fatalf("expected EURUSD, got=%s", symbol.Name)
	}

	var count int64
	db.Model(&DataMigration{}).Count(&count)
	if count != int64(len(registry)) {
		t.Fatalf("expected %d recorded migrations, got=%d", len(registry), count)
	}
}
