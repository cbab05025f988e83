//go:build integration

package postgres

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/xenking/product-catalog/internal/domain/product"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	ctr, err := tcpostgres.Run(ctx, "postgres:17-alpine",
		tcpostgres.WithDatabase("catalog"),
		tcpostgres.WithUsername("catalog"),
		tcpostgres.WithPassword("catalog"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			log.Printf("terminate postgres: %v", err)
		}
	}()

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("connection string: %v", err)
	}

	testPool, err = NewPool(ctx, PoolConfig{URL: dsn})
	if err != nil {
		log.Fatalf("pool: %v", err)
	}
	defer testPool.Close()

	if err := RunMigrations(ctx, testPool); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	// Running twice must be harmless.
	if err := RunMigrations(ctx, testPool); err != nil {
		log.Fatalf("migrations (second run): %v", err)
	}

	return m.Run()
}

func newRepo(t *testing.T) *ProductRepository {
	t.Helper()
	_, err := testPool.Exec(context.Background(), `TRUNCATE products RESTART IDENTITY`)
	require.NoError(t, err)
	return NewProductRepository(testPool)
}

func sampleProduct(id string) product.Product {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 123456000, time.UTC)
	return product.Product{
		ID:          id,
		Name:        "Widget " + id,
		Size:        "Large",
		Colour:      "Blue",
		Price:       19.99,
		Created:     ts,
		LastUpdated: ts,
		Hash:        "hash-" + id,
	}
}

func TestProductRepository_RoundTrip(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	for _, price := range []float64{0, 19.99, 0.1 + 0.2, 1e-9, 123456789.123456789, -4.5} {
		id := fmt.Sprintf("price-%v", price)
		p := sampleProduct(id)
		p.Price = price
		require.NoError(t, r.Insert(ctx, &p))

		got, err := r.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, p, *got, "price %v", price)
	}
}

func TestProductRepository_FindMissing(t *testing.T) {
	r := newRepo(t)

	_, err := r.FindByID(context.Background(), "missing")
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestProductRepository_InsertDuplicate(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	p := sampleProduct("1")
	require.NoError(t, r.Insert(ctx, &p))

	dup := sampleProduct("1")
	dup.Name = "Overwrite"
	require.ErrorIs(t, r.Insert(ctx, &dup), product.ErrAlreadyExists)

	got, err := r.FindByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
}

func TestProductRepository_ConcurrentInsertSameID(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		oks  int
		dups int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := sampleProduct("race")
			err := r.Insert(ctx, &p)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				oks++
			case assert.ErrorIs(t, err, product.ErrAlreadyExists):
				dups++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, oks)
	assert.Equal(t, 7, dups)
}

func TestProductRepository_ListOrder(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	ids := []string{"z", "a", "m", "b", "y"}
	for _, id := range ids {
		p := sampleProduct(id)
		require.NoError(t, r.Insert(ctx, &p))
	}

	page, err := r.List(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, "a", page[0].ID)
	assert.Equal(t, "m", page[1].ID)
	assert.Equal(t, "b", page[2].ID)

	past, err := r.List(ctx, 10, 3)
	require.NoError(t, err)
	assert.NotNil(t, past)
	assert.Empty(t, past)
}

func TestProductRepository_Save(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	for _, id := range []string{"1", "2"} {
		p := sampleProduct(id)
		require.NoError(t, r.Insert(ctx, &p))
	}

	p := sampleProduct("1")
	p.Name = "Renamed"
	p.Price = 5
	p.LastUpdated = p.LastUpdated.Add(time.Hour)
	require.NoError(t, r.Save(ctx, &p))

	got, err := r.FindByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, p, *got)

	// Saving keeps the original enumeration position.
	all, err := r.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "1", all[0].ID)

	missing := sampleProduct("3")
	require.ErrorIs(t, r.Save(ctx, &missing), product.ErrNotFound)
}

func TestProductRepository_ServiceFlow(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	svc := product.NewService(r)

	created, err := svc.Create(ctx, product.DTO{ID: "1", Name: "Widget", Price: 9.99, Hash: "h1"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, *created, *got)

	patch, err := product.ParseJSONPatch([]byte(`[{"op":"replace","path":"/name","value":"Widget2"},{"op":"replace","path":"/id","value":"2"}]`))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "1", patch)
	require.NoError(t, err)
	assert.Equal(t, "1", updated.ID)
	assert.Equal(t, "Widget2", updated.Name)
	assert.Equal(t, created.Created, updated.Created)
	assert.False(t, updated.LastUpdated.Before(created.LastUpdated))

	_, err = svc.Get(ctx, "2")
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestProductRepository_RejectsNonFinitePrice(t *testing.T) {
	r := newRepo(t)
	p := sampleProduct("nan")
	p.Price = math.NaN()
	require.Error(t, r.Insert(context.Background(), &p))
}
