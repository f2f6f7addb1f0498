package workspaces_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagelink/internal/testsupport"
	"pagelink/internal/workspaces"
)

func TestGenerateAndAuthenticate(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	ws, token := testsupport.CreateTestWorkspace(t, db, "Acme")

	assert.True(t, strings.HasPrefix(token, "pl_"))

	authed, err := workspaces.Authenticate(db, token)
	require.NoError(t, err)
	assert.Equal(t, ws.ID, authed.ID)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	ws, token := testsupport.CreateTestWorkspace(t, db, "Acme")

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"wrong prefix", strings.Replace(token, "pl_", "xx_", 1)},
		{"missing parts", "pl_1"},
		{"non-numeric id", "pl_abc_secret"},
		{"wrong secret", token + "00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := workspaces.Authenticate(db, tc.token)
			assert.Error(t, err)
		})
	}

	// regenerating the token invalidates the old one
	newToken, err := workspaces.GenerateAPIToken(db, ws.ID)
	require.NoError(t, err)
	_, err = workspaces.Authenticate(db, token)
	assert.ErrorIs(t, err, workspaces.ErrInvalidToken)
	_, err = workspaces.Authenticate(db, newToken)
	assert.NoError(t, err)
}

func TestAuthenticateUnknownWorkspace(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	_, err := workspaces.Authenticate(db, "pl_9999_deadbeef")
	assert.ErrorIs(t, err, workspaces.ErrNotFound)
}

func TestCatalogLookups(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	ws, _ := testsupport.CreateTestWorkspace(t, db, "Acme")

	asset := workspaces.Asset{WorkspaceID: ws.ID, Filename: "deck.pdf"}
	require.NoError(t, db.Create(&asset).Error)

	found, err := workspaces.AssetsByID(db, []uint{asset.ID, 9999})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "deck.pdf", found[asset.ID].Filename)

	empty, err := workspaces.AssetsByID(db, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
