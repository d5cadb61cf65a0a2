// Package testutil provides an in-memory database and fixtures shared by the
// package-level tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/Cozta1/sistema-encomendas-V2/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens a private in-memory SQLite database with the full schema.
// A single connection keeps every statement on the same database, so code
// under test must use the transaction handle it is given.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

// SeedUser inserts an active user. The password hash is not a valid bcrypt
// hash; tests that log in register through the auth service instead.
func SeedUser(t *testing.T, db *gorm.DB, email, name string) *model.User {
	t.Helper()
	u := &model.User{Email: email, FullName: name, PasswordHash: "x", Active: true}
	require.NoError(t, db.Create(u).Error)
	return u
}

// SeedTeam creates a team whose main administrator is admin.
func SeedTeam(t *testing.T, db *gorm.DB, name string, admin *model.User) *model.Team {
	t.Helper()
	team := &model.Team{Name: name, AdministratorID: admin.ID, Active: true}
	require.NoError(t, db.Omit("Administrator", "Memberships").Create(team).Error)
	AddMember(t, db, team, admin, model.RoleAdministrator)
	return team
}

// AddMember links user to team with role. JoinedAt is spaced so that
// "longest-standing" orderings are deterministic.
func AddMember(t *testing.T, db *gorm.DB, team *model.Team, user *model.User, role string) *model.Membership {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.Membership{}).Where("team_id = ?", team.ID).Count(&n).Error)
	m := &model.Membership{
		TeamID:   team.ID,
		UserID:   user.ID,
		Role:     role,
		JoinedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Hour),
	}
	require.NoError(t, db.Omit("Team", "User").Create(m).Error)
	return m
}

// Catalog is a minimal set of catalog entities belonging to one team.
type Catalog struct {
	Client   *model.Client
	Product  *model.Product
	Supplier *model.Supplier
}

// SeedCatalog creates one client, product and supplier for team, using
// prefix to keep codes and names distinct between teams.
func SeedCatalog(t *testing.T, db *gorm.DB, team *model.Team, prefix string) Catalog {
	t.Helper()
	c := &model.Client{
		TeamID:       team.ID,
		Code:         prefix + "-C1",
		Name:         prefix + " Cliente",
		Address:      "Rua das Flores, 10",
		Neighborhood: "Centro",
	}
	p := &model.Product{
		TeamID:    team.ID,
		Code:      prefix + "-P1",
		Name:      prefix + " Produto",
		BasePrice: decimal.RequireFromString("10.00"),
	}
	s := &model.Supplier{
		TeamID: team.ID,
		Code:   prefix + "-F1",
		Name:   prefix + " Fornecedor",
	}
	require.NoError(t, db.Create(c).Error)
	require.NoError(t, db.Create(p).Error)
	require.NoError(t, db.Create(s).Error)
	return Catalog{Client: c, Product: p, Supplier: s}
}
