package controllers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
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
	"github.com/tobiakoko/afromerica-voting-api/payment"
	"github.com/tobiakoko/afromerica-voting-api/storage"
	"github.com/tobiakoko/afromerica-voting-api/storage/storagetest"
	"github.com/tobiakoko/afromerica-voting-api/voting"
)

const webhookSecret = "sk_test_webhook"

type paymentsFixture struct {
	router  *gin.Engine
	db      *gorm.DB
	ledger  *voting.Ledger
	tokens  *voting.TokenIssuer
	artists *storage.GormArtistStorage
}

func setupPaymentsTestController(t *testing.T, providerURL string) *paymentsFixture {
	t.Helper()
	logging.Log = logrus.New()

	db := storagetest.Open(t)
	artists := &storage.GormArtistStorage{DB: db}
	packages := &storage.GormVotePackageStorage{DB: db}
	purchases := &storage.GormVotePurchaseStorage{DB: db}
	finals := &storage.GormFinalScoreStorage{DB: db}
	events := &storage.GormLedgerEventStorage{DB: db}
	config := &storage.GormVotingConfigStorage{DB: db}
	webhooks := &storage.GormWebhookEventStorage{DB: db}

	tokens := voting.NewTokenIssuer("test-secret", 15*time.Minute)
	ranking := voting.NewEngine(artists, finals, events)
	window := voting.NewAggregator(config, purchases, artists, storage.NewMemoryCache())
	ledger := voting.NewLedger(purchases, packages, artists, ranking, tokens, window)

	// Open the voting window.
	starts := time.Now().Add(-time.Hour)
	ends := time.Now().Add(time.Hour)
	require.NoError(t, config.Upsert(context.Background(), &storage.VotingConfig{
		Active: true, StartsAt: &starts, EndsAt: &ends, Currency: "NGN",
	}))

	provider := payment.NewClient(webhookSecret, providerURL)
	controller := NewPaymentsController(ledger, provider, webhooks, webhookSecret, "https://vote.example/thanks")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	controller.RegisterRoutes(r)

	return &paymentsFixture{router: r, db: db, ledger: ledger, tokens: tokens, artists: artists}
}

func (f *paymentsFixture) seedCatalog(t *testing.T) (*storage.Artist, *storage.VotePackage) {
	t.Helper()
	artist := &storage.Artist{Slug: "ada-gold", Name: "Ada Gold", IsActive: true}
	require.NoError(t, f.artists.Create(context.Background(), artist))
	pkg := &storage.VotePackage{Name: "Bronze", Votes: 10, Price: 50000, Currency: "NGN", Active: true}
	require.NoError(t, (&storage.GormVotePackageStorage{DB: f.db}).Create(context.Background(), pkg))
	return artist, pkg
}

func (f *paymentsFixture) pendingPurchase(t *testing.T, artist *storage.Artist, pkg *storage.VotePackage) *storage.VotePurchase {
	t.Helper()
	token := f.tokens.Issue("voter@example.com", voting.TokenPurposeVote)
	purchase, err := f.ledger.CreatePurchase(context.Background(), voting.CreatePurchaseRequest{
		Contact: "voter@example.com",
		Method:  storage.MethodEmail,
		Token:   token,
		Lines:   []voting.PurchaseLine{{ArtistID: artist.ID, PackageID: pkg.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	return purchase
}

// postWebhook signs and delivers a raw webhook body the way the provider does.
func postWebhook(router *gin.Engine, secret string, body []byte) *httptest.ResponseRecorder {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(payment.SignatureHeader, hex.EncodeToString(mac.Sum(nil)))

	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func successBody(reference string, amount int64) []byte {
	return []byte(fmt.Sprintf(`{"event":"charge.success","data":{"status":"success","reference":%q,"amount":%d,"currency":"NGN"}}`, reference, amount))
}

func TestWebhook(t *testing.T) {
	t.Run("Happy path - charge success applies votes once", func(t *testing.T) {
		f := setupPaymentsTestController(t, "http://localhost:1")
		artist, pkg := f.seedCatalog(t)
		purchase := f.pendingPurchase(t, artist, pkg)

		res := postWebhook(f.router, webhookSecret, successBody(purchase.Reference, purchase.TotalPrice))
		require.Equal(t, http.StatusOK, res.Code)
		assert.Contains(t, res.Body.String(), "votes applied")

		stored, err := f.artists.Get(context.Background(), artist.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), stored.TotalVotes)
	})

	t.Run("Happy path - duplicate delivery absorbed by dedup", func(t *testing.T) {
		f := setupPaymentsTestController(t, "http://localhost:1")
		artist, pkg := f.seedCatalog(t)
		purchase := f.pendingPurchase(t, artist, pkg)
		body := successBody(purchase.Reference, purchase.TotalPrice)

		res := postWebhook(f.router, webhookSecret, body)
		require.Equal(t, http.StatusOK, res.Code)

		res = postWebhook(f.router, webhookSecret, body)
		require.Equal(t, http.StatusOK, res.Code)
		assert.Contains(t, res.Body.String(), "already processed")

		stored, err := f.artists.Get(context.Background(), artist.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), stored.TotalVotes, "second delivery must not double-apply")
	})

	t.Run("Unhappy path - bad signature gets 401", func(t *testing.T) {
		f := setupPaymentsTestController(t, "http://localhost:1")
		res := postWebhook(f.router, "wrong-secret", successBody("REF123", 50000))
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("Unhappy path - amount mismatch still answers 200", func(t *testing.T) {
		f := setupPaymentsTestController(t, "http://localhost:1")
		artist, pkg := f.seedCatalog(t)
		purchase := f.pendingPurchase(t, artist, pkg)

		res := postWebhook(f.router, webhookSecret, successBody(purchase.Reference, purchase.TotalPrice-1))
		require.Equal(t, http.StatusOK, res.Code, "a provider retry storm helps nobody")
		assert.Contains(t, res.Body.String(), "recorded with errors")

		stored, err := f.artists.Get(context.Background(), artist.ID)
		require.NoError(t, err)
		assert.Zero(t, stored.TotalVotes)
	})

	t.Run("Happy path - transient failure answers 5xx and the retry applies the votes", func(t *testing.T) {
		f := setupPaymentsTestController(t, "http://localhost:1")
		artist, pkg := f.seedCatalog(t)
		purchase := f.pendingPurchase(t, artist, pkg)
		body := successBody(purchase.Reference, purchase.TotalPrice)

		// Break the completion transaction mid-flight.
		require.NoError(t, f.db.Migrator().DropTable(&storage.LedgerEvent{}))

		res := postWebhook(f.router, webhookSecret, body)
		require.Equal(t, http.StatusInternalServerError, res.Code, "the provider must retry this delivery")

		reloaded, err := (&storage.GormVotePurchaseStorage{DB: f.db}).Get(context.Background(), purchase.ID)
		require.NoError(t, err)
		assert.Equal(t, storage.PurchasePending, reloaded.Status, "the purchase must survive for the retry")

		var recorded int64
		require.NoError(t, f.db.Model(&storage.WebhookEvent{}).Count(&recorded).Error)
		assert.Zero(t, recorded, "a failed delivery must not poison the dedup table")

		// The provider redelivers once storage recovers.
		require.NoError(t, f.db.AutoMigrate(&storage.LedgerEvent{}))
		res = postWebhook(f.router, webhookSecret, body)
		require.Equal(t, http.StatusOK, res.Code, res.Body.String())
		assert.Contains(t, res.Body.String(), "votes applied")

		stored, err := f.artists.Get(context.Background(), artist.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), stored.TotalVotes)
	})

	t.Run("Happy path - charge failed marks the purchase failed", func(t *testing.T) {
		f := setupPaymentsTestController(t, "http://localhost:1")
		artist, pkg := f.seedCatalog(t)
		purchase := f.pendingPurchase(t, artist, pkg)

		body := []byte(fmt.Sprintf(`{"event":"charge.failed","data":{"status":"failed","reference":%q,"amount":%d,"currency":"NGN"}}`, purchase.Reference, purchase.TotalPrice))
		res := postWebhook(f.router, webhookSecret, body)
		require.Equal(t, http.StatusOK, res.Code)

		reloaded, err := (&storage.GormVotePurchaseStorage{DB: f.db}).Get(context.Background(), purchase.ID)
		require.NoError(t, err)
		assert.Equal(t, storage.PurchaseFailed, reloaded.Status)
	})

	t.Run("Happy path - unknown event type is ignored", func(t *testing.T) {
		f := setupPaymentsTestController(t, "http://localhost:1")
		res := postWebhook(f.router, webhookSecret, []byte(`{"event":"transfer.success","data":{"reference":"REF"}}`))
		require.Equal(t, http.StatusOK, res.Code)
		assert.Contains(t, res.Body.String(), "ignored")
	})
}

func TestInitializePayment(t *testing.T) {
	t.Run("Happy path - returns the provider authorization URL", func(t *testing.T) {
		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/transaction/initialize", r.URL.Path)
			_, _ = w.Write([]byte(`{"status":true,"message":"ok","data":{"authorization_url":"https://checkout.example/abc","access_code":"abc","reference":"ignored"}}`))
		}))
		defer provider.Close()

		f := setupPaymentsTestController(t, provider.URL)
		artist, pkg := f.seedCatalog(t)
		token := f.tokens.Issue("voter@example.com", voting.TokenPurposeVote)

		res := testutils.PerformRequest(f.router, http.MethodPost, "/api/payments/initialize", models.InitializePaymentRequest{
			Contact: "voter@example.com",
			Method:  "email",
			Token:   token,
			Lines: []models.PurchaseLineRequest{
				{ArtistID: artist.ID, PackageID: pkg.ID, Quantity: 2},
			},
		}, nil)
		require.Equal(t, http.StatusOK, res.Code, res.Body.String())

		var body models.InitializePaymentResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
		assert.Equal(t, "https://checkout.example/abc", body.AuthorizationURL)
		assert.Equal(t, 20, body.TotalVotes)
		assert.Equal(t, int64(100000), body.TotalPrice)
	})

	t.Run("Unhappy path - missing token gets 401", func(t *testing.T) {
		f := setupPaymentsTestController(t, "http://localhost:1")
		artist, pkg := f.seedCatalog(t)

		res := testutils.PerformRequest(f.router, http.MethodPost, "/api/payments/initialize", models.InitializePaymentRequest{
			Contact: "voter@example.com",
			Method:  "email",
			Lines: []models.PurchaseLineRequest{
				{ArtistID: artist.ID, PackageID: pkg.ID, Quantity: 1},
			},
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("Unhappy path - provider failure fails the purchase", func(t *testing.T) {
		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":false,"message":"down for maintenance"}`))
		}))
		defer provider.Close()

		f := setupPaymentsTestController(t, provider.URL)
		artist, pkg := f.seedCatalog(t)
		token := f.tokens.Issue("voter@example.com", voting.TokenPurposeVote)

		res := testutils.PerformRequest(f.router, http.MethodPost, "/api/payments/initialize", models.InitializePaymentRequest{
			Contact: "voter@example.com",
			Method:  "email",
			Token:   token,
			Lines: []models.PurchaseLineRequest{
				{ArtistID: artist.ID, PackageID: pkg.ID, Quantity: 1},
			},
		}, nil)
		assert.Equal(t, http.StatusBadGateway, res.Code)

		list, err := (&storage.GormVotePurchaseStorage{DB: f.db}).ListByContact(context.Background(), "voter@example.com")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, storage.PurchaseFailed, list[0].Status)
	})
}

func TestPaymentCallback(t *testing.T) {
	t.Run("Happy path - verified success completes the purchase", func(t *testing.T) {
		var reference string
		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/transaction/verify/"+reference, r.URL.Path)
			_, _ = fmt.Fprintf(w, `{"status":true,"message":"ok","data":{"status":"success","reference":%q,"amount":50000,"currency":"NGN"}}`, reference)
		}))
		defer provider.Close()

		f := setupPaymentsTestController(t, provider.URL)
		artist, pkg := f.seedCatalog(t)
		purchase := f.pendingPurchase(t, artist, pkg)
		reference = purchase.Reference

		res := testutils.PerformRequest(f.router, http.MethodGet, "/api/payments/callback?reference="+reference, nil, nil)
		require.Equal(t, http.StatusOK, res.Code, res.Body.String())

		stored, err := f.artists.Get(context.Background(), artist.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), stored.TotalVotes)
	})

	t.Run("Unhappy path - missing reference gets 400", func(t *testing.T) {
		f := setupPaymentsTestController(t, "http://localhost:1")
		res := testutils.PerformRequest(f.router, http.MethodGet, "/api/payments/callback", nil, nil)
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}
