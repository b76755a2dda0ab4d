package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	testutils "github.com/tobiakoko/afromerica-voting-api/api/controllers/testing"
	"github.com/tobiakoko/afromerica-voting-api/api/models"
	"github.com/tobiakoko/afromerica-voting-api/logging"
	"github.com/tobiakoko/afromerica-voting-api/storage"
	"github.com/tobiakoko/afromerica-voting-api/storage/storagetest"
	"github.com/tobiakoko/afromerica-voting-api/voting"
)

func setupAdminTestController(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	logging.Log = logrus.New()
	t.Setenv("ADMIN_TOKEN", "secret")

	db := storagetest.Open(t)
	artists := &storage.GormArtistStorage{DB: db}
	finals := &storage.GormFinalScoreStorage{DB: db}
	events := &storage.GormLedgerEventStorage{DB: db}
	config := &storage.GormVotingConfigStorage{DB: db}
	validations := &storage.GormVoteValidationStorage{DB: db}

	ranking := voting.NewEngine(artists, finals, events)
	tokens := voting.NewTokenIssuer("test-secret", 15*time.Minute)
	validator := voting.NewValidator(validations, silentSender{}, storage.NewMemoryCache(), tokens, voting.OTPConfig{})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewAdminController(config, ranking, validator).RegisterRoutes(r)
	NewArtistAdminController(artists).RegisterRoutes(r)
	return r, db
}

func adminHeaders() map[string]string {
	return map[string]string{"x-admin-token": "secret"}
}

func TestAdminAuth(t *testing.T) {
	router, _ := setupAdminTestController(t)

	t.Run("Unhappy path - missing token gets 401", func(t *testing.T) {
		res := testutils.PerformRequest(router, http.MethodGet, "/api/admin/config", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("Unhappy path - wrong token gets 401", func(t *testing.T) {
		res := testutils.PerformRequest(router, http.MethodGet, "/api/admin/config", nil, map[string]string{
			"x-admin-token": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})
}

func TestAdminConfig(t *testing.T) {
	router, _ := setupAdminTestController(t)

	t.Run("Unhappy path - unconfigured voting gets 404", func(t *testing.T) {
		res := testutils.PerformRequest(router, http.MethodGet, "/api/admin/config", nil, adminHeaders())
		assert.Equal(t, http.StatusNotFound, res.Code)
	})

	t.Run("Unhappy path - active window without end time rejected", func(t *testing.T) {
		res := testutils.PerformRequest(router, http.MethodPut, "/api/admin/config", models.VotingConfigRequest{
			Active: true,
		}, adminHeaders())
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})

	t.Run("Happy path - set then read the window", func(t *testing.T) {
		ends := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
		res := testutils.PerformRequest(router, http.MethodPut, "/api/admin/config", models.VotingConfigRequest{
			Active: true,
			EndsAt: &ends,
		}, adminHeaders())
		require.Equal(t, http.StatusOK, res.Code)

		res = testutils.PerformRequest(router, http.MethodGet, "/api/admin/config", nil, adminHeaders())
		require.Equal(t, http.StatusOK, res.Code)

		var body models.VotingConfigResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
		assert.True(t, body.Active)
		assert.Equal(t, "NGN", body.Currency, "currency defaults when omitted")
		require.NotNil(t, body.EndsAt)
		assert.True(t, body.EndsAt.Equal(ends))
	})
}

func TestAdminRecomputeRanks(t *testing.T) {
	router, db := setupAdminTestController(t)
	artists := &storage.GormArtistStorage{DB: db}
	require.NoError(t, artists.Create(context.Background(), &storage.Artist{
		Slug: "ada-gold", Name: "Ada Gold", IsActive: true, TotalVotes: 10,
	}))

	res := testutils.PerformRequest(router, http.MethodPost, "/api/admin/ranks/recompute", nil, adminHeaders())
	require.Equal(t, http.StatusOK, res.Code)

	ranked, err := artists.ListRanked(context.Background())
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	require.NotNil(t, ranked[0].Rank)
	assert.Equal(t, 1, *ranked[0].Rank)
}

func TestAdminArtists(t *testing.T) {
	router, _ := setupAdminTestController(t)

	t.Run("Happy path - create, delete, restore", func(t *testing.T) {
		res := testutils.PerformRequest(router, http.MethodPost, "/api/admin/artists", models.ArtistCreateRequest{
			Slug: "ada-gold",
			Name: "Ada Gold",
		}, adminHeaders())
		require.Equal(t, http.StatusOK, res.Code)

		var created models.ArtistResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &created))
		require.NotZero(t, created.ID)

		res = testutils.PerformRequest(router, http.MethodDelete, "/api/admin/artists/1", nil, adminHeaders())
		require.Equal(t, http.StatusOK, res.Code)

		res = testutils.PerformRequest(router, http.MethodPost, "/api/admin/artists/1/restore", nil, adminHeaders())
		require.Equal(t, http.StatusOK, res.Code)
	})

	t.Run("Unhappy path - duplicate slug gets 409", func(t *testing.T) {
		res := testutils.PerformRequest(router, http.MethodPost, "/api/admin/artists", models.ArtistCreateRequest{
			Slug: "ada-gold",
			Name: "Imposter",
		}, adminHeaders())
		assert.Equal(t, http.StatusConflict, res.Code)
	})

	t.Run("Unhappy path - missing slug gets 400", func(t *testing.T) {
		res := testutils.PerformRequest(router, http.MethodPost, "/api/admin/artists", models.ArtistCreateRequest{
			Name: "No Slug",
		}, adminHeaders())
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}

func TestAdminOTPCleanup(t *testing.T) {
	router, db := setupAdminTestController(t)

	// An already-expired code sits in the table.
	require.NoError(t, db.Create(&storage.VoteValidation{
		Identifier:  "voter@example.com",
		Method:      storage.MethodEmail,
		Code:        "123456",
		ExpiresAt:   time.Now().Add(-time.Hour),
		MaxAttempts: 3,
	}).Error)

	res := testutils.PerformRequest(router, http.MethodPost, "/api/admin/otp/cleanup", nil, adminHeaders())
	require.Equal(t, http.StatusOK, res.Code)

	var body map[string]int64
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body["deleted"])
}
