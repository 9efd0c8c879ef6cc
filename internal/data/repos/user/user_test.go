package user

import (
	"context"
	"sync"
	"testing"

	"github.com/yungbote/roadwatch-backend/internal/data/repos/testutil"
	types "github.com/yungbote/roadwatch-backend/internal/domain"
	"github.com/yungbote/roadwatch-backend/internal/platform/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserRepo(db, testutil.Cache(t), testutil.Logger(t))
	roles := NewRoleRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	role, err := roles.GetByName(dbc, types.RoleUser)
	if err != nil || role == nil {
		t.Fatalf("GetByName: %v %v", role, err)
	}

	u := &types.User{Nickname: "ana", Email: " Ana@Example.com ", Password: "hash", RoleID: role.ID}
	if err := repo.Create(dbc, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Email != "ana@example.com" {
		t.Fatalf("Create: email not normalized: %q", u.Email)
	}

	got, err := repo.GetByID(dbc, u.ID)
	if err != nil || got == nil || got.Email != u.Email {
		t.Fatalf("GetByID: %+v %v", got, err)
	}
	byEmail, err := repo.GetByEmail(dbc, "ANA@example.com")
	if err != nil || byEmail == nil || byEmail.ID != u.ID {
		t.Fatalf("GetByEmail: %+v %v", byEmail, err)
	}
	exists, err := repo.EmailExists(dbc, "nobody@example.com")
	if err != nil || exists {
		t.Fatalf("EmailExists: %v %v", exists, err)
	}

	dup := &types.User{Nickname: "ana2", Email: "ana@example.com", Password: "hash", RoleID: role.ID}
	err = repo.Create(dbc, dup)
	if !types.IsCode(err, types.CodeConflict) {
		t.Fatalf("duplicate email: expected conflict, got %v", err)
	}

	all, err := repo.GetAll(dbc)
	if err != nil || len(all) != 1 {
		t.Fatalf("GetAll: %d %v", len(all), err)
	}
}

func TestIncrementValidatedAndAddCoins(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserRepo(db, testutil.Cache(t), testutil.Logger(t))
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	u := testutil.SeedUser(t, ctx, db, testutil.Email(t), types.RoleUser)

	// warm the cache so stale reads would show up
	if _, err := repo.GetByID(dbc, u.ID); err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	for want := 1; want <= 3; want++ {
		n, err := repo.IncrementValidated(dbc, u.ID)
		if err != nil {
			t.Fatalf("IncrementValidated: %v", err)
		}
		if n != want {
			t.Fatalf("IncrementValidated: got %d want %d", n, want)
		}
	}
	if err := repo.AddCoins(dbc, u.ID, 10); err != nil {
		t.Fatalf("AddCoins: %v", err)
	}
	if err := repo.AddCoins(dbc, u.ID, 15); err != nil {
		t.Fatalf("AddCoins: %v", err)
	}

	got, _ := repo.GetByID(dbc, u.ID)
	if got.Validated != 3 || got.CoinCents != 25 {
		t.Fatalf("after rewards: validated=%d cents=%d", got.Validated, got.CoinCents)
	}
	if got.Coins() != 0.25 {
		t.Fatalf("Coins: got %v", got.Coins())
	}

	if _, err := repo.IncrementValidated(dbc, 9999); !types.IsCode(err, types.CodeNotFound) {
		t.Fatalf("IncrementValidated on missing user: got %v", err)
	}
	if err := repo.AddCoins(dbc, 9999, 10); !types.IsCode(err, types.CodeNotFound) {
		t.Fatalf("AddCoins on missing user: got %v", err)
	}
}

func TestIncrementValidatedConcurrent(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserRepo(db, nil, testutil.Logger(t))
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, db, testutil.Email(t), types.RoleUser)

	const workers = 8
	seen := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := repo.IncrementValidated(dbctx.Context{Ctx: ctx}, u.ID)
			if err != nil {
				t.Errorf("IncrementValidated: %v", err)
				return
			}
			seen <- n
		}()
	}
	wg.Wait()
	close(seen)

	values := map[int]bool{}
	for n := range seen {
		if values[n] {
			t.Fatalf("value %d returned twice", n)
		}
		values[n] = true
	}
	for i := 1; i <= workers; i++ {
		if !values[i] {
			t.Fatalf("missing value %d in %v", i, values)
		}
	}
}

func TestUserRepoPostgres(t *testing.T) {
	db := testutil.PostgresDB(t)
	tx := testutil.Tx(t, db)
	repo := NewUserRepo(db, nil, testutil.Logger(t))
	roles := NewRoleRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	role, err := roles.GetByName(dbc, types.RoleAdmin)
	if err != nil || role == nil {
		t.Fatalf("GetByName: %v %v", role, err)
	}
	u := &types.User{Nickname: "pg", Email: testutil.Email(t), Password: "hash", RoleID: role.ID}
	if err := repo.Create(dbc, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err = repo.Create(dbc, &types.User{Nickname: "pg2", Email: u.Email, Password: "hash", RoleID: role.ID})
	if !types.IsCode(err, types.CodeConflict) {
		t.Fatalf("duplicate email: expected conflict, got %v", err)
	}
}
