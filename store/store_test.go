package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return db
}

func TestCreateUserAndLookup(t *testing.T) {
	db := testDB(t)
	user := &User{Email: "a@b.com", Password: "hash", FullName: "Ada"}
	if err := CreateUser(db, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected assigned ID")
	}

	got, err := UserByEmail(db, "a@b.com")
	if err != nil {
		t.Fatalf("UserByEmail: %v", err)
	}
	if got.FullName != "Ada" {
		t.Errorf("FullName = %q", got.FullName)
	}

	if _, err := UserByEmail(db, "nobody@b.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := testDB(t)
	if err := CreateUser(db, &User{Email: "dup@b.com", Password: "h"}); err != nil {
		t.Fatal(err)
	}
	if err := CreateUser(db, &User{Email: "dup@b.com", Password: "h"}); err == nil {
		t.Fatal("expected unique constraint violation")
	}
}

func TestUpdateUserProfileAndPassword(t *testing.T) {
	db := testDB(t)
	user := &User{Email: "u@b.com", Password: "old"}
	if err := CreateUser(db, user); err != nil {
		t.Fatal(err)
	}
	if err := UpdateUserProfile(db, user.ID, "new@b.com", "New Name"); err != nil {
		t.Fatalf("UpdateUserProfile: %v", err)
	}
	if err := UpdateUserPassword(db, user.ID, "newhash"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}
	got, err := UserByID(db, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Email != "new@b.com" || got.Password != "newhash" {
		t.Errorf("update not applied: %+v", got)
	}

	if err := UpdateUserProfile(db, 9999, "x@b.com", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInvoices(t *testing.T) {
	db := testDB(t)
	user := &User{Email: "i@b.com", Password: "h"}
	if err := CreateUser(db, user); err != nil {
		t.Fatal(err)
	}
	jan := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	invoices := []Invoice{
		{UserID: user.ID, Date: jan, Amount: 20},
		{UserID: user.ID, Date: jan.AddDate(0, 1, 0), Amount: 20},
		{UserID: user.ID, Date: jan.AddDate(0, 1, 5), Amount: 5},
	}
	if err := AddInvoices(db, invoices); err != nil {
		t.Fatalf("AddInvoices: %v", err)
	}

	got, err := InvoicesByUser(db, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("invoice count = %d", len(got))
	}
	if !got[0].Date.After(got[2].Date) {
		t.Error("invoices should be ordered most recent first")
	}

	stats, err := MonthlyInvoiceStats(db, user.ID)
	if err != nil {
		t.Fatalf("MonthlyInvoiceStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 monthly buckets, got %v", stats)
	}
	if stats[0].Month != "2025-01" || stats[0].Total != 20 {
		t.Errorf("january bucket wrong: %+v", stats[0])
	}
	if stats[1].Month != "2025-02" || stats[1].Total != 25 {
		t.Errorf("february bucket wrong: %+v", stats[1])
	}

	if err := DeleteInvoice(db, user.ID, got[0].ID); err != nil {
		t.Fatalf("DeleteInvoice: %v", err)
	}
	if err := DeleteInvoice(db, user.ID+1, got[1].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete must be owner-scoped, got %v", err)
	}
}

func TestSnapshotsAndRank(t *testing.T) {
	db := testDB(t)
	alice := &User{Email: "alice@b.com", Password: "h"}
	bob := &User{Email: "bob@b.com", Password: "h"}
	for _, u := range []*User{alice, bob} {
		if err := CreateUser(db, u); err != nil {
			t.Fatal(err)
		}
	}

	// Alice's older snapshot is expensive, her latest is cheap. Rank uses the
	// latest row only.
	for _, s := range []*UsageSnapshot{
		{UserID: alice.ID, TotalConversations: 10, TotalCost: 9.0},
		{UserID: alice.ID, TotalConversations: 12, TotalCost: 1.0},
		{UserID: bob.ID, TotalConversations: 5, TotalCost: 5.0},
	} {
		if err := InsertSnapshot(db, s); err != nil {
			t.Fatal(err)
		}
	}

	history, err := SnapshotsByUser(db, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d", len(history))
	}
	if history[0].TotalConversations != 12 {
		t.Error("history should be newest first")
	}

	count, err := SnapshotCountByUser(db, alice.ID)
	if err != nil || count != 2 {
		t.Fatalf("SnapshotCountByUser = %d, %v", count, err)
	}

	rank, total, err := UserRank(db, alice.ID)
	if err != nil {
		t.Fatalf("UserRank: %v", err)
	}
	if rank != 2 || total != 2 {
		t.Errorf("alice rank = %d/%d, want 2/2", rank, total)
	}

	rank, total, err = UserRank(db, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rank != 1 || total != 2 {
		t.Errorf("bob rank = %d/%d, want 1/2", rank, total)
	}

	carol := &User{Email: "carol@b.com", Password: "h"}
	if err := CreateUser(db, carol); err != nil {
		t.Fatal(err)
	}
	rank, _, err = UserRank(db, carol.ID)
	if err != nil || rank != 0 {
		t.Errorf("user without snapshots should rank 0, got %d, %v", rank, err)
	}
}
