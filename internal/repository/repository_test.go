package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/Cozta1/sistema-encomendas-V2/internal/model"
	"github.com/Cozta1/sistema-encomendas-V2/internal/repository"
	"github.com/Cozta1/sistema-encomendas-V2/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedClients(t *testing.T, db *gorm.DB, teamID uuid.UUID, names ...string) {
	t.Helper()
	repo := repository.NewClientRepository(db)
	for i, n := range names {
		c := &model.Client{
			TeamID:       teamID,
			Code:         "C-" + string(rune('A'+i)),
			Name:         n,
			Address:      "Rua 1",
			Neighborhood: "Centro",
		}
		require.NoError(t, repo.Create(context.Background(), c))
	}
}

func TestClientList_SearchEscapesWildcards(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	team := testutil.SeedTeam(t, db, "Equipe", testutil.SeedUser(t, db, "ana@example.com", "Ana"))
	seedClients(t, db, team.ID, "Loja 100%", "Loja 1000", "Casa_Nova", "CasaXNova")
	repo := repository.NewClientRepository(db)
	ctx := context.Background()

	got, total, err := repo.List(ctx, repository.CatalogFilter{TeamID: team.ID, Search: "100%"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, got, 1)
	assert.Equal(t, "Loja 100%", got[0].Name)

	got, _, err = repo.List(ctx, repository.CatalogFilter{TeamID: team.ID, Search: "casa_"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Casa_Nova", got[0].Name)
}

func TestClientList_PaginationKeepsTotal(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	team := testutil.SeedTeam(t, db, "Equipe", testutil.SeedUser(t, db, "ana@example.com", "Ana"))
	seedClients(t, db, team.ID, "A", "B", "C", "D", "E")
	repo := repository.NewClientRepository(db)

	got, total, err := repo.List(context.Background(), repository.CatalogFilter{TeamID: team.ID, Page: 3, Limit: 2})

	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, got, 1)
	assert.Equal(t, "E", got[0].Name)
}

func TestClientFind_IsTeamScoped(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	a := testutil.SeedTeam(t, db, "A", testutil.SeedUser(t, db, "ana@example.com", "Ana"))
	b := testutil.SeedTeam(t, db, "B", testutil.SeedUser(t, db, "bruno@example.com", "Bruno"))
	cat := testutil.SeedCatalog(t, db, a, "A")
	repo := repository.NewClientRepository(db)

	_, err := repo.FindByID(context.Background(), b.ID, cat.Client.ID)

	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestInvitationRespond_OnlyOnce(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	admin := testutil.SeedUser(t, db, "ana@example.com", "Ana")
	team := testutil.SeedTeam(t, db, "Equipe", admin)
	repo := repository.NewInvitationRepository(db)
	ctx := context.Background()
	inv := &model.Invitation{
		TeamID:      team.ID,
		Email:       "novo@example.com",
		Role:        model.RoleMember,
		InvitedByID: admin.ID,
		Status:      model.InvitationPending,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, inv))

	ok, err := repo.Respond(ctx, nil, inv.ID, model.InvitationAccepted, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Respond(ctx, nil, inv.ID, model.InvitationRejected, time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "a responded invitation cannot change again")

	stored, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvitationAccepted, stored.Status)
	assert.NotNil(t, stored.RespondedAt)
}

func TestInvitationListValidForEmail_SkipsExpired(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	admin := testutil.SeedUser(t, db, "ana@example.com", "Ana")
	team := testutil.SeedTeam(t, db, "Equipe", admin)
	repo := repository.NewInvitationRepository(db)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, exp := range []time.Time{now.Add(time.Hour), now.Add(-time.Hour)} {
		require.NoError(t, repo.Create(ctx, &model.Invitation{
			TeamID: team.ID, Email: "novo@example.com", Role: model.RoleMember,
			InvitedByID: admin.ID, Status: model.InvitationPending, ExpiresAt: exp,
		}))
	}

	got, err := repo.ListValidForEmail(ctx, " NOVO@example.com ", now)

	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Team)
	assert.Equal(t, "Equipe", got[0].Team.Name)
}

func TestTeam_OtherAdministratorIsLongestStanding(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ana := testutil.SeedUser(t, db, "ana@example.com", "Ana")
	team := testutil.SeedTeam(t, db, "Equipe", ana)
	bruno := testutil.SeedUser(t, db, "bruno@example.com", "Bruno")
	carla := testutil.SeedUser(t, db, "carla@example.com", "Carla")
	dani := testutil.SeedUser(t, db, "dani@example.com", "Dani")
	testutil.AddMember(t, db, team, bruno, model.RoleMember)
	testutil.AddMember(t, db, team, carla, model.RoleAdministrator)
	testutil.AddMember(t, db, team, dani, model.RoleAdministrator)
	repo := repository.NewTeamRepository(db)
	ctx := context.Background()

	m, err := repo.OtherAdministrator(ctx, nil, team.ID, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, carla.ID, m.UserID)

	n, err := repo.CountRole(ctx, nil, team.ID, model.RoleAdministrator)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestTeam_IsMemberEmail(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	team := testutil.SeedTeam(t, db, "Equipe", testutil.SeedUser(t, db, "ana@example.com", "Ana"))
	repo := repository.NewTeamRepository(db)
	ctx := context.Background()

	ok, err := repo.IsMemberEmail(ctx, team.ID, " ANA@Example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsMemberEmail(ctx, team.ID, "bruno@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTeam_ListForUserCarriesRole(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ana := testutil.SeedUser(t, db, "ana@example.com", "Ana")
	bruno := testutil.SeedUser(t, db, "bruno@example.com", "Bruno")
	mine := testutil.SeedTeam(t, db, "Minha", ana)
	other := testutil.SeedTeam(t, db, "Outra", bruno)
	testutil.AddMember(t, db, other, ana, model.RoleManager)
	testutil.SeedTeam(t, db, "Alheia", bruno)

	got, err := repository.NewTeamRepository(db).ListForUser(context.Background(), ana.ID)

	require.NoError(t, err)
	require.Len(t, got, 2)
	roles := map[uuid.UUID]string{}
	for _, tw := range got {
		roles[tw.Team.ID] = tw.Role
	}
	assert.Equal(t, model.RoleAdministrator, roles[mine.ID])
	assert.Equal(t, model.RoleManager, roles[other.ID])
}
