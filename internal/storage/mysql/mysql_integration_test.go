//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"homio/internal/domain"
	mysqlrepo "homio/internal/storage/mysql"
)

// ---------- small helpers ----------
func pstr(s string) *string { return &s }

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=homio",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "homio")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func resolveUnit(t *testing.T, repo *mysqlrepo.Repo, unit string) domain.Address {
	t.Helper()
	ctx := context.Background()

	street, err := repo.FindOrCreate(ctx, domain.Address{Country: "NL", City: "Amsterdam", Street: "Keizersgracht"})
	if err != nil {
		t.Fatalf("street: %v", err)
	}
	building, err := repo.FindOrCreate(ctx, domain.Address{
		Country: "NL", City: "Amsterdam", Street: "Keizersgracht",
		BuildingNumber: pstr("42"), StreetID: &street.ID,
	})
	if err != nil {
		t.Fatalf("building: %v", err)
	}
	u, err := repo.FindOrCreate(ctx, domain.Address{
		Country: "NL", City: "Amsterdam", Street: "Keizersgracht",
		BuildingNumber: pstr("42"), Unit: pstr(unit),
		StreetID: &street.ID, BuildingID: &building.ID,
	})
	if err != nil {
		t.Fatalf("unit: %v", err)
	}
	return u
}

// ---------- the test ----------
func TestRepo_MySQL_HierarchyAndAggregation(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	unitA := resolveUnit(t, repo, "2B")
	unitB := resolveUnit(t, repo, "3A")
	if unitA.ID == unitB.ID {
		t.Fatal("distinct units must be distinct rows")
	}
	if *unitA.BuildingID != *unitB.BuildingID || *unitA.StreetID != *unitB.StreetID {
		t.Fatalf("units should share ancestors: %+v vs %+v", unitA, unitB)
	}

	// find-or-create is idempotent, case-insensitively
	again, err := repo.FindOrCreate(ctx, domain.Address{
		Country: "nl", City: "AMSTERDAM", Street: "keizersgracht",
		BuildingNumber: pstr("42"), Unit: pstr("2b"),
	})
	if err != nil {
		t.Fatalf("re-resolve: %v", err)
	}
	if again.ID != unitA.ID {
		t.Fatalf("expected existing row %d, got %d", unitA.ID, again.ID)
	}

	buildingID := *unitA.BuildingID
	streetID := *unitA.StreetID

	seed := []domain.Review{
		{ProfileID: 1, AddressID: unitA.ID, StreetLevelID: streetID, BuildingLevelID: buildingID, UnitLevelID: &unitA.ID,
			Rating: 4, Recommend: true, Opinion: "good light, thin walls", Aspects: map[string]int{"noise": 2}},
		{ProfileID: 2, AddressID: unitB.ID, StreetLevelID: streetID, BuildingLevelID: buildingID, UnitLevelID: &unitB.ID,
			Rating: 2, Recommend: false, Opinion: "damp in winter, slow repairs"},
		{ProfileID: 3, AddressID: buildingID, StreetLevelID: streetID, BuildingLevelID: buildingID,
			Rating: 5, Recommend: true, Opinion: "well kept common areas"},
	}
	for i := range seed {
		id, err := repo.Insert(ctx, seed[i])
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		seed[i].ID = id
	}

	// building stats must equal the direct computation over its own reviews
	// plus its units' (4+2+5)/3, 2 of 3 recommending
	st, err := repo.StatsByBuilding(ctx, buildingID)
	if err != nil {
		t.Fatalf("StatsByBuilding: %v", err)
	}
	if st.TotalReviews != 3 ||
		math.Abs(st.AverageRating-11.0/3.0) > 1e-6 ||
		math.Abs(st.RecommendationPercentage-200.0/3.0) > 1e-6 {
		t.Fatalf("unexpected building stats: %+v", st)
	}

	unitStats, err := repo.StatsByUnit(ctx, unitA.ID)
	if err != nil {
		t.Fatalf("StatsByUnit: %v", err)
	}
	if unitStats.TotalReviews != 1 || unitStats.AverageRating != 4 || unitStats.RecommendationPercentage != 100 {
		t.Fatalf("unexpected unit stats: %+v", unitStats)
	}

	streetStats, err := repo.StatsByStreet(ctx, streetID)
	if err != nil {
		t.Fatalf("StatsByStreet: %v", err)
	}
	if streetStats.TotalReviews != 3 || streetStats.BuildingCount != 1 {
		t.Fatalf("unexpected street stats: %+v", streetStats)
	}

	breakdown, err := repo.UnitBreakdown(ctx, buildingID)
	if err != nil {
		t.Fatalf("UnitBreakdown: %v", err)
	}
	if len(breakdown) != 2 {
		t.Fatalf("expected 2 units in breakdown, got %d", len(breakdown))
	}

	// uniqueness lookup used by the duplicate gate
	if _, err := repo.FindByProfileAndAddress(ctx, 1, unitA.ID); err != nil {
		t.Fatalf("FindByProfileAndAddress: %v", err)
	}
	if _, err := repo.FindByProfileAndAddress(ctx, 1, unitB.ID); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// listing scopes
	own, err := repo.ListByAddress(ctx, unitA.ID, 50)
	if err != nil || len(own) != 1 {
		t.Fatalf("ListByAddress: %v (%d)", err, len(own))
	}
	if own[0].Aspects["noise"] != 2 {
		t.Fatalf("aspects should round-trip through JSON: %+v", own[0].Aspects)
	}
	all, err := repo.ListByBuilding(ctx, buildingID, 50)
	if err != nil || len(all) != 3 {
		t.Fatalf("ListByBuilding: %v (%d)", err, len(all))
	}

	// update and hard delete
	upd := seed[0]
	upd.Rating = 1
	upd.Recommend = false
	if err := repo.Update(ctx, upd); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := repo.Get(ctx, upd.ID)
	if err != nil || got.Rating != 1 || got.Recommend {
		t.Fatalf("update round trip: %v %+v", err, got)
	}
	if err := repo.Delete(ctx, upd.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, upd.ID); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, upd.ID); err != domain.ErrNotFound {
		t.Fatalf("double delete should report ErrNotFound, got %v", err)
	}
}
