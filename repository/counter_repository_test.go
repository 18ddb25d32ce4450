package repository

import (
	"sync"
	"testing"
	"time"
)

func TestNextSequenceIncrements(t *testing.T) {
	db := newTestDB(t)
	repo := NewCounterRepository(db)
	day := time.Date(2024, 12, 15, 10, 0, 0, 0, time.UTC)

	for want := 1; want <= 5; want++ {
		got, err := repo.NextSequence(db, day)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("sequence = %d, want %d", got, want)
		}
	}
}

func TestNextSequenceResetsPerDay(t *testing.T) {
	db := newTestDB(t)
	repo := NewCounterRepository(db)

	day1 := time.Date(2024, 12, 15, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2024, 12, 16, 0, 1, 0, 0, time.UTC)

	if _, err := repo.NextSequence(db, day1); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.NextSequence(db, day1); err != nil {
		t.Fatal(err)
	}

	got, err := repo.NextSequence(db, day2)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Fatalf("new day sequence = %d, want 1", got)
	}

	got, err = repo.NextSequence(db, day1)
	if err != nil {
		t.Fatal(err)
	}
	if got != 3 {
		t.Fatalf("old day sequence = %d, want 3", got)
	}
}

func TestNextSequenceConcurrent(t *testing.T) {
	db := newTestDB(t)
	repo := NewCounterRepository(db)
	day := time.Date(2024, 12, 15, 12, 0, 0, 0, time.UTC)

	const n = 20
	nums := make([]int, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			nums[i], errs[i] = repo.NextSequence(db, day)
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("allocation %d: %v", i, errs[i])
		}
		if nums[i] < 1 || nums[i] > n {
			t.Fatalf("sequence %d out of range", nums[i])
		}
		if seen[nums[i]] {
			t.Fatalf("sequence %d allocated twice", nums[i])
		}
		seen[nums[i]] = true
	}
}
