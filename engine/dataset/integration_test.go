//go:build integration

package dataset

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func TestPostgresSourceIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	stmts := []string{
		`DROP TABLE IF EXISTS mpg_it_vehicles`,
		`CREATE TABLE mpg_it_vehicles (
			make TEXT NOT NULL, fuel TEXT NOT NULL, engine_cylinders INT NOT NULL,
			average_city_mpg DOUBLE PRECISION NOT NULL, average_highway_mpg DOUBLE PRECISION NOT NULL)`,
		`INSERT INTO mpg_it_vehicles VALUES ('BMW','Diesel',4,30,40), ('Tesla','Electricity',0,124,115)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			t.Fatalf("%s: %v", s, err)
		}
	}
	defer db.ExecContext(ctx, `DROP TABLE mpg_it_vehicles`)

	ds, err := Load(ctx, NewPostgresSource(dsn, "mpg_it_vehicles"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Records) != 2 || len(ds.Makes) != 2 {
		t.Fatalf("unexpected dataset %+v", ds)
	}
}

func TestNeo4jSourceIntegration(t *testing.T) {
	uri := os.Getenv("TEST_NEO4J_URI")
	if uri == "" {
		t.Skip("TEST_NEO4J_URI not set")
	}
	user, pass := os.Getenv("TEST_NEO4J_USER"), os.Getenv("TEST_NEO4J_PASSWORD")
	ctx := context.Background()
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, pass, ""))
	if err != nil {
		t.Fatal(err)
	}
	defer driver.Close(ctx)

	sess := driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)
	if _, err := sess.Run(ctx, `MATCH (n:MpgItVehicle) DETACH DELETE n`, nil); err != nil {
		t.Fatal(err)
	}
	_, err = sess.Run(ctx, `UNWIND range(1, 7) AS i
		CREATE (:MpgItVehicle {make: 'Make' + toString(i % 3), fuel: 'Gasoline',
			engine_cylinders: 4, average_city_mpg: 20.0 + i, average_highway_mpg: 30.0 + i})`, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer sess.Run(ctx, `MATCH (n:MpgItVehicle) DETACH DELETE n`, nil)

	src := &Neo4jSource{URI: uri, User: user, Password: pass, Label: "MpgItVehicle", PageSize: 3}
	ds, err := Load(ctx, src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Records) != 7 || len(ds.Makes) != 3 {
		t.Fatalf("records=%d makes=%v", len(ds.Records), ds.Makes)
	}
}
